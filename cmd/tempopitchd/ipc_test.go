package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tempopitch/playback"
)

// startIPC runs the IPC server backed by fakeLoop and returns its socket path.
func startIPC(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// Unix socket paths are length-limited; keep it short.
	dir, err := os.MkdirTemp("", "tp")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	socketPath := filepath.Join(dir, "s.sock")

	events := make(chan Event, 8)
	go fakeLoop(ctx, events, newTestState(nil))

	errCh := make(chan error, 1)
	go func() { errCh <- runIPCServer(ctx, socketPath, events, slog.New(slog.DiscardHandler)) }()

	waitUntil(t, time.Second, func() bool {
		conn, err := net.Dial("unix", socketPath)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, "ipc socket not ready")

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("runIPCServer: %v", err)
			}
		case <-time.After(time.Second):
			t.Errorf("timeout waiting for IPC server to stop")
		}
	})
	return socketPath
}

func TestIPC_SendEventAndGetState(t *testing.T) {
	socketPath := startIPC(t)

	if err := SendIPCEvent(socketPath, SetPitchSemitones{Semitones: 12}); err != nil {
		t.Fatalf("SendIPCEvent: %v", err)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "{\"type\":%q}\n", ipcGetState)
	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.State == nil {
		t.Fatalf("response = %+v", resp)
	}
	// Coupled by default: +12 semitones doubles both values.
	if resp.State.Applied != (playback.Values{Tempo: 2, Pitch: 2}) {
		t.Fatalf("applied = %+v", resp.State.Applied)
	}
}

func TestIPC_ErrorsKeepConnectionOpen(t *testing.T) {
	socketPath := startIPC(t)

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	send := func(line string) IPCResponse {
		t.Helper()
		fmt.Fprintln(conn, line)
		b, err := reader.ReadBytes('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var resp IPCResponse
		if err := json.Unmarshal(b, &resp); err != nil {
			t.Fatalf("decode %s: %v", b, err)
		}
		return resp
	}

	if resp := send(`not json`); resp.Status != "error" {
		t.Fatalf("garbage: %+v", resp)
	}
	if resp := send(`{"type":"step_tempo","data":{"direction":1}}`); resp.Status != "ok" {
		t.Fatalf("step_tempo: %+v", resp)
	}
}

func TestSendIPCEvent_NoServer(t *testing.T) {
	err := SendIPCEvent(filepath.Join(t.TempDir(), "missing.sock"), Accept{})
	if err == nil {
		t.Fatalf("expected dial error")
	}
}
