package main

import (
	"os"
	"path/filepath"
	"testing"

	"tempopitch/playback"
)

func TestStateFile_RoundTripWithOpenSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "tempopitch.json")
	prefs := map[string]bool{playback.PrefCoupled: false}

	s := NewDaemonState(playback.DefaultValues(), playback.DefaultStepSize, prefs)
	rr := Reduce(s, SetStepSize{Step: 0.1}, ReduceConfig{})
	rr = Reduce(rr.State, SetTempo{Value: 1.6}, ReduceConfig{})

	if err := saveStateFile(path, rr.State); err != nil {
		t.Fatalf("saveStateFile: %v", err)
	}

	ps, err := loadStateFile(path)
	if err != nil {
		t.Fatalf("loadStateFile: %v", err)
	}
	if ps == nil || ps.Session == nil {
		t.Fatalf("expected a persisted session, got %+v", ps)
	}

	restored := NewDaemonState(playback.DefaultValues(), playback.DefaultStepSize, prefs)
	if err := restored.applyPersisted(ps, ReduceConfig{}); err != nil {
		t.Fatalf("applyPersisted: %v", err)
	}
	if !restored.sessionOpen() {
		t.Fatalf("expected restored session to be open")
	}
	if restored.Applied.Tempo != 1.6 || restored.StepSize != playback.Step10Percent {
		t.Fatalf("restored = %+v step=%v", restored.Applied, restored.StepSize)
	}
	if restored.notified != 0 {
		t.Fatalf("restore must not notify, got %d", restored.notified)
	}

	// Cancel goes back to the values the original session opened with.
	rr = Reduce(restored, Cancel{}, ReduceConfig{})
	if rr.State.Applied != playback.DefaultValues() {
		t.Fatalf("applied after cancel = %+v", rr.State.Applied)
	}
}

func TestStateFile_ClosedSessionNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	rr := Reduce(newTestState(nil), SetTempo{Value: 0.5}, ReduceConfig{})
	rr = Reduce(rr.State, Accept{}, ReduceConfig{})
	if err := saveStateFile(path, rr.State); err != nil {
		t.Fatalf("saveStateFile: %v", err)
	}

	ps, err := loadStateFile(path)
	if err != nil {
		t.Fatalf("loadStateFile: %v", err)
	}
	if ps.Session != nil || ps.LastStatus != playback.StatusAccepted {
		t.Fatalf("persisted = %+v", ps)
	}
	if ps.Applied.Tempo != 0.5 {
		t.Fatalf("applied = %+v", ps.Applied)
	}
}

func TestStateFile_MissingAndMalformed(t *testing.T) {
	dir := t.TempDir()

	ps, err := loadStateFile(filepath.Join(dir, "missing.json"))
	if err != nil || ps != nil {
		t.Fatalf("missing file = (%v, %v), want (nil, nil)", ps, err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadStateFile(bad); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestApplyPersisted_UnknownSessionStatus(t *testing.T) {
	s := newTestState(nil)
	ps := &persistedState{
		Applied:  playback.Values{Tempo: 1.2, Pitch: 1.2},
		StepSize: playback.Step1Percent,
		Session:  &playback.Saved{Status: "paused"},
	}
	if err := s.applyPersisted(ps, ReduceConfig{}); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if s.sessionOpen() {
		t.Fatalf("no session should be restored")
	}
	// Values are still taken.
	if s.Applied.Tempo != 1.2 || s.StepSize != playback.Step1Percent {
		t.Fatalf("state = %+v", s)
	}
}
