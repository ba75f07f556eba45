package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ============================================================================
// HTTP API
// ============================================================================
//
//   GET  /healthz      liveness
//   GET  /api/state    StateSnapshot via the daemon loop
//   POST /api/events   one event envelope, same format as IPC
//   GET  /ws           state stream (see state_ws.go)
//
// ============================================================================

// maxEventBody bounds a single POST /api/events body.
const maxEventBody = 64 << 10

// newRouter builds the HTTP API. ws may be nil to disable the state stream.
func newRouter(events chan<- Event, ws http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", func(w http.ResponseWriter, req *http.Request) {
			snap, err := requestSnapshot(req.Context(), events, snapshotTimeout)
			if err != nil {
				logger.Warn("http state snapshot failed", "error", err, "request_id", middleware.GetReqID(req.Context()))
				writeJSON(w, http.StatusServiceUnavailable, IPCResponse{Status: "error", Error: err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, IPCResponse{Status: "ok", State: &snap})
		})

		r.Post("/events", func(w http.ResponseWriter, req *http.Request) {
			body, err := io.ReadAll(io.LimitReader(req.Body, maxEventBody))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, IPCResponse{Status: "error", Error: fmt.Sprintf("read body: %v", err)})
				return
			}

			ev, err := UnmarshalEvent(body)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, IPCResponse{Status: "error", Error: fmt.Sprintf("parse event: %v", err)})
				return
			}

			if err := enqueueEvent(events, ev); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, IPCResponse{Status: "error", Error: err.Error()})
				return
			}

			logger.Debug("http event queued", "event", fmt.Sprintf("%T", ev), "request_id", middleware.GetReqID(req.Context()))
			writeJSON(w, http.StatusAccepted, IPCResponse{Status: "ok"})
		})
	})

	if ws != nil {
		r.Method(http.MethodGet, "/ws", ws)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// runHTTPServer serves handler on addr until ctx is canceled, then shuts
// down gracefully.
func runHTTPServer(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		logger.Info("http server stopped")
		return nil
	}
}
