package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"tempopitch/playback"
	"tempopitch/prefs"
)

type daemonHarness struct {
	events     chan Event
	broadcasts chan StateBroadcast
	backend    *prefs.Memory
	cancel     context.CancelFunc
	final      chan *DaemonState
}

func startDaemon(t *testing.T, state *DaemonState) *daemonHarness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := &daemonHarness{
		events:     make(chan Event, eventQueueSize),
		broadcasts: make(chan StateBroadcast, broadcastQueueSize),
		backend:    prefs.NewMemory(),
		cancel:     cancel,
		final:      make(chan *DaemonState, 1),
	}
	go func() {
		h.final <- runDaemon(ctx, h.events, h.broadcasts, h.backend, state, ReduceConfig{}, slog.New(slog.DiscardHandler))
	}()
	t.Cleanup(cancel)
	return h
}

func (h *daemonHarness) stop(t *testing.T) *DaemonState {
	t.Helper()
	h.cancel()
	select {
	case s := <-h.final:
		return s
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for daemon to stop")
	}
	return nil
}

func (h *daemonHarness) snapshot(t *testing.T) StateSnapshot {
	t.Helper()
	snap, err := requestSnapshot(context.Background(), h.events, time.Second)
	if err != nil {
		t.Fatalf("requestSnapshot: %v", err)
	}
	return snap
}

func TestRunDaemon_SessionLifecycle(t *testing.T) {
	h := startDaemon(t, newTestState(nil))

	h.events <- SetHook{Enabled: false}
	h.events <- SetTempo{Value: 1.75}
	h.events <- StepPitch{Direction: 1}

	snap := h.snapshot(t)
	if snap.Session == nil {
		t.Fatalf("expected an open session")
	}
	want := playback.Values{Tempo: 1.75, Pitch: 1.25}
	if snap.Applied != want {
		t.Fatalf("applied = %+v, want %+v", snap.Applied, want)
	}

	// The preference write ran as an effect against the backend.
	v, ok, err := h.backend.Load(context.Background(), playback.PrefCoupled)
	if err != nil || !ok || v {
		t.Fatalf("backend coupled = (%v, %v, %v), want (false, true, nil)", v, ok, err)
	}

	h.events <- Accept{}
	snap = h.snapshot(t)
	if snap.Session != nil || snap.LastStatus != playback.StatusAccepted {
		t.Fatalf("after accept: session=%v status=%q", snap.Session, snap.LastStatus)
	}

	final := h.stop(t)
	if final.Applied != want {
		t.Fatalf("final applied = %+v, want %+v", final.Applied, want)
	}
}

func TestRunDaemon_PublishesBroadcasts(t *testing.T) {
	h := startDaemon(t, newTestState(nil))

	h.events <- SetSkipSilence{Enabled: true}

	var got []StateBroadcast
	deadline := time.After(time.Second)
	for len(got) < 3 {
		select {
		case b := <-h.broadcasts:
			got = append(got, b)
		case <-deadline:
			t.Fatalf("timeout; got %v", broadcastTypes(got))
		}
	}
	assertBroadcastTypes(t, got,
		"main.BroadcastSessionOpened",
		"main.BroadcastParametersChanged",
		"main.BroadcastSessionUpdated",
	)
	// Open and the toggle notify within one event; one broadcast carries both.
	params := got[1].(BroadcastParametersChanged)
	if !params.Values.SkipSilence || params.At.IsZero() {
		t.Fatalf("parameters broadcast = %+v", params)
	}
}

func TestRunDaemon_StopsWhenEventsClosed(t *testing.T) {
	events := make(chan Event)
	done := make(chan *DaemonState, 1)
	state := newTestState(nil)
	go func() {
		done <- runDaemon(context.Background(), events, nil, nil, state, ReduceConfig{}, slog.New(slog.DiscardHandler))
	}()
	close(events)

	select {
	case s := <-done:
		if s != state {
			t.Fatalf("expected the same state back")
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for daemon to stop")
	}
}

func TestRunEffect_SaveWithoutBackendFails(t *testing.T) {
	var got []Event
	runEffect(context.Background(), nil, CmdSavePreference{Key: playback.PrefCoupled}, slog.New(slog.DiscardHandler), func(ev Event) {
		got = append(got, ev)
	})
	if len(got) != 1 {
		t.Fatalf("events = %v", got)
	}
	failed, ok := got[0].(CommandFailed)
	if !ok || !errors.As(failed.Err, new(errNoBackend)) {
		t.Fatalf("event = %#v", got[0])
	}
}

func TestRunEffect_SaveReportsSuccess(t *testing.T) {
	backend := prefs.NewMemory()
	var got []Event
	runEffect(context.Background(), backend, CmdSavePreference{Key: playback.PrefSemitoneMode, Value: true}, slog.New(slog.DiscardHandler), func(ev Event) {
		got = append(got, ev)
	})
	if len(got) != 1 {
		t.Fatalf("events = %v", got)
	}
	if saved, ok := got[0].(PreferenceSaved); !ok || saved.Key != playback.PrefSemitoneMode || !saved.Value {
		t.Fatalf("event = %#v", got[0])
	}
	if !backend.Values()[playback.PrefSemitoneMode] {
		t.Fatalf("backend values = %v", backend.Values())
	}
}
