package main

import (
	"maps"
	"slices"

	"tempopitch/playback"
)

// DaemonState is the top-level, daemon-owned state container.
//
// It is owned by the daemon goroutine. Other goroutines only ever see a
// StateSnapshot produced by the reducer.
type DaemonState struct {
	// Session is the open control session, nil when none is open.
	Session *playback.Session

	// Applied is the last triple reported to the player.
	Applied playback.Values

	// LastStatus is how the most recent session ended.
	LastStatus playback.Status

	// StepSize is carried from one session to the next.
	StepSize playback.StepSize

	// Prefs caches the toggles; writes are flushed as CmdSavePreference.
	Prefs *prefCache

	// LastError describes the last rejected control event.
	LastError string

	// CommandFailures counts failed side effects.
	CommandFailures int

	// notified counts session callbacks; the reducer compares it before and
	// after an event.
	notified int
}

// NewDaemonState returns a state with no open session.
func NewDaemonState(applied playback.Values, step playback.StepSize, prefs map[string]bool) *DaemonState {
	applied.Tempo = playback.Clamp(applied.Tempo)
	applied.Pitch = playback.Clamp(applied.Pitch)
	if !step.Valid() {
		step = playback.DefaultStepSize
	}
	return &DaemonState{
		Applied:  applied,
		StepSize: step,
		Prefs:    newPrefCache(prefs),
	}
}

func (s *DaemonState) onParameters(float32, float32, bool) {
	s.notified++
}

func (s *DaemonState) sessionConfig(cfg ReduceConfig) playback.Config {
	return playback.Config{
		Callback:    s.onParameters,
		Preferences: s.Prefs,
		Logger:      cfg.SessionLogger,
		StepSize:    s.StepSize,
	}
}

func (s *DaemonState) sessionOpen() bool {
	return s.Session != nil && !s.Session.Closed()
}

// openSession replaces any session with a new one opened from initial.
func (s *DaemonState) openSession(initial playback.Values, cfg ReduceConfig) {
	s.Session = playback.NewSession(initial, s.sessionConfig(cfg))
}

// restoreSession reinstates a persisted session without notifying.
func (s *DaemonState) restoreSession(saved playback.Saved, cfg ReduceConfig) error {
	sess, err := playback.RestoreSession(saved, s.sessionConfig(cfg))
	if err != nil {
		return err
	}
	if sess.Closed() {
		s.LastStatus = sess.Status()
		return nil
	}
	s.Session = sess
	return nil
}

// ============================================================================
// Snapshot
// ============================================================================

// StateSnapshot is the externally visible daemon state (HTTP, WS, IPC).
type StateSnapshot struct {
	Applied     playback.Values     `json:"applied"`
	Session     *SessionView        `json:"session,omitempty"`
	LastStatus  playback.Status     `json:"last_status,omitempty"`
	StepSize    playback.StepSize   `json:"step_size"`
	StepSizes   []playback.StepSize `json:"step_sizes"`
	Preferences map[string]bool     `json:"preferences"`
	LastError   string              `json:"last_error,omitempty"`
}

// SessionView is what a UI needs to render an open session.
type SessionView struct {
	State     playback.State  `json:"state"`
	Initial   playback.Values `json:"initial"`
	Status    playback.Status `json:"status"`
	Semitones int             `json:"semitones"`
	Progress  ProgressView    `json:"progress"`
	Labels    LabelView       `json:"labels"`
}

// ProgressView holds slider positions and their maxima.
type ProgressView struct {
	Tempo       int `json:"tempo"`
	TempoMax    int `json:"tempo_max"`
	Pitch       int `json:"pitch"`
	PitchMax    int `json:"pitch_max"`
	Semitone    int `json:"semitone"`
	SemitoneMax int `json:"semitone_max"`
}

// LabelView holds display strings.
type LabelView struct {
	Tempo     string `json:"tempo"`
	Pitch     string `json:"pitch"`
	Semitones string `json:"semitones"`
	StepUp    string `json:"step_up"`
	StepDown  string `json:"step_down"`
}

func newSessionView(sess *playback.Session) SessionView {
	st := sess.State()
	return SessionView{
		State:     st,
		Initial:   sess.Initial(),
		Status:    sess.Status(),
		Semitones: st.Semitones(),
		Progress: ProgressView{
			Tempo:       st.TempoProgress(),
			TempoMax:    playback.QuadraticSlider.MaxProgress(),
			Pitch:       st.PitchProgress(),
			PitchMax:    playback.QuadraticSlider.MaxProgress(),
			Semitone:    st.SemitoneProgress(),
			SemitoneMax: playback.SemitoneSlider{}.MaxProgress(),
		},
		Labels: LabelView{
			Tempo:     playback.FormatSpeed(st.Tempo),
			Pitch:     playback.FormatPitch(st.PitchPercent),
			Semitones: playback.FormatSemitones(st.PitchPercent),
			StepUp:    playback.StepLabel(st.StepSize, 1),
			StepDown:  playback.StepLabel(st.StepSize, -1),
		},
	}
}

// Snapshot builds a StateSnapshot. It must only be called by the daemon
// goroutine.
func (s *DaemonState) Snapshot() StateSnapshot {
	snap := StateSnapshot{
		Applied:     s.Applied,
		LastStatus:  s.LastStatus,
		StepSize:    s.StepSize,
		StepSizes:   slices.Clone(playback.StepSizes[:]),
		Preferences: s.Prefs.snapshot(),
		LastError:   s.LastError,
	}
	if s.sessionOpen() {
		v := newSessionView(s.Session)
		snap.Session = &v
	}
	return snap
}

// ============================================================================
// Preference cache
// ============================================================================

type prefWrite struct {
	Key   string
	Value bool
}

// prefCache is the session's PreferenceStore inside the daemon. Reads hit
// the cache; writes are queued so the reducer can turn them into commands
// without doing I/O.
type prefCache struct {
	values map[string]bool
	dirty  []prefWrite
}

func newPrefCache(seed map[string]bool) *prefCache {
	values := make(map[string]bool, len(seed))
	maps.Copy(values, seed)
	return &prefCache{values: values}
}

func (c *prefCache) GetBool(key string, def bool) bool {
	if v, ok := c.values[key]; ok {
		return v
	}
	return def
}

func (c *prefCache) SetBool(key string, value bool) {
	c.values[key] = value
	for i := range c.dirty {
		if c.dirty[i].Key == key {
			c.dirty[i].Value = value
			return
		}
	}
	c.dirty = append(c.dirty, prefWrite{Key: key, Value: value})
}

// drain returns and clears pending writes, latest value per key.
func (c *prefCache) drain() []prefWrite {
	out := c.dirty
	c.dirty = nil
	return out
}

func (c *prefCache) snapshot() map[string]bool {
	out := map[string]bool{
		playback.PrefCoupled:      c.GetBool(playback.PrefCoupled, playback.DefaultCoupled),
		playback.PrefSemitoneMode: c.GetBool(playback.PrefSemitoneMode, playback.DefaultSemitoneMode),
	}
	return out
}

var _ playback.PreferenceStore = (*prefCache)(nil)
