package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tempopitch/playback"
)

// persistedState is the on-disk form of the daemon state kept across
// restarts.
type persistedState struct {
	Applied    playback.Values   `json:"applied"`
	StepSize   playback.StepSize `json:"step_size"`
	LastStatus playback.Status   `json:"last_status,omitempty"`
	Session    *playback.Saved   `json:"session,omitempty"`
}

// loadStateFile reads a persisted state. A missing file returns (nil, nil).
func loadStateFile(path string) (*persistedState, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	var ps persistedState
	if err := json.Unmarshal(b, &ps); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	return &ps, nil
}

// saveStateFile writes s atomically.
func saveStateFile(path string, s *DaemonState) error {
	ps := persistedState{
		Applied:    s.Applied,
		StepSize:   s.StepSize,
		LastStatus: s.LastStatus,
	}
	if s.sessionOpen() {
		saved := s.Session.Snapshot()
		ps.Session = &saved
	}

	b, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tempopitch-state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}

// applyPersisted restores ps into s. The session is restored without
// notifying the player.
func (s *DaemonState) applyPersisted(ps *persistedState, cfg ReduceConfig) error {
	if ps == nil {
		return nil
	}
	s.Applied = playback.Values{
		Tempo:       playback.Clamp(ps.Applied.Tempo),
		Pitch:       playback.Clamp(ps.Applied.Pitch),
		SkipSilence: ps.Applied.SkipSilence,
	}
	if ps.StepSize.Valid() {
		s.StepSize = ps.StepSize
	}
	s.LastStatus = ps.LastStatus
	if ps.Session == nil {
		return nil
	}
	return s.restoreSession(*ps.Session, cfg)
}
