package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeDaemon accepts connections on a unix socket, records each request
// line and answers with reply.
func fakeDaemon(t *testing.T, reply string) (string, <-chan envelope) {
	t.Helper()
	dir, err := os.MkdirTemp("", "tpctl")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "s.sock")

	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	got := make(chan envelope, 8)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			line, err := bufio.NewReader(conn).ReadBytes('\n')
			if err == nil {
				var env envelope
				if json.Unmarshal(line, &env) == nil {
					got <- env
				}
				conn.Write([]byte(reply + "\n"))
			}
			conn.Close()
		}
	}()
	return path, got
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_SendsEvents(t *testing.T) {
	path, got := fakeDaemon(t, `{"status":"ok"}`)

	cases := []struct {
		args []string
		typ  string
		data string
	}{
		{[]string{"tempo", "1.25"}, "set_tempo", `{"value":1.25}`},
		{[]string{"semitones", "+3"}, "set_pitch_semitones", `{"semitones":3}`},
		{[]string{"step", "pitch", "down"}, "step_pitch", `{"direction":-1}`},
		{[]string{"seek", "semitone", "12"}, "seek_semitone", `{"progress":12}`},
		{[]string{"step-size", "0.05"}, "set_step_size", `{"step":0.05}`},
		{[]string{"hook", "off"}, "set_hook", `{"enabled":false}`},
		{[]string{"semitone-mode", "on"}, "set_semitone_mode", `{"enabled":true}`},
		{[]string{"open", "--tempo", "0.5"}, "open_session", `{"tempo":0.5}`},
		{[]string{"accept"}, "accept", ``},
	}

	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			out, err := runCLI(t, append([]string{"--socket", path}, tc.args...)...)
			if err != nil {
				t.Fatalf("execute: %v (%s)", err, out)
			}
			if strings.TrimSpace(out) != "ok" {
				t.Fatalf("output = %q", out)
			}
			env := <-got
			if env.Type != tc.typ || string(env.Data) != tc.data {
				t.Fatalf("sent %s %s, want %s %s", env.Type, env.Data, tc.typ, tc.data)
			}
		})
	}
}

func TestCLI_State(t *testing.T) {
	path, got := fakeDaemon(t, `{"status":"ok","state":{"applied":{"tempo":1.5,"pitch":1.5,"skip_silence":false}}}`)

	out, err := runCLI(t, "--socket", path, "state")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if env := <-got; env.Type != "get_state" {
		t.Fatalf("sent %q, want get_state", env.Type)
	}
	if !strings.Contains(out, `"tempo": 1.5`) {
		t.Fatalf("output = %s", out)
	}
}

func TestCLI_DaemonError(t *testing.T) {
	path, _ := fakeDaemon(t, `{"status":"error","error":"event queue full"}`)

	_, err := runCLI(t, "--socket", path, "reset")
	if err == nil || !strings.Contains(err.Error(), "event queue full") {
		t.Fatalf("err = %v", err)
	}
}

func TestCLI_ArgumentErrors(t *testing.T) {
	for _, args := range [][]string{
		{"tempo", "fast"},
		{"step", "volume", "up"},
		{"step", "tempo", "sideways"},
		{"hook", "maybe"},
		{"semitones", "x"},
	} {
		if _, err := runCLI(t, append([]string{"--socket", "/nonexistent.sock"}, args...)...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestMarshalEnvelope(t *testing.T) {
	b, err := marshalEnvelope("cancel", nil)
	if err != nil {
		t.Fatalf("marshalEnvelope: %v", err)
	}
	if string(b) != `{"type":"cancel"}` {
		t.Fatalf("envelope = %s", b)
	}
}
