package playback

import (
	"fmt"
	"log/slog"
)

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCancelled Status = "cancelled"
	StatusReset     Status = "reset"
	StatusAccepted  Status = "accepted"
)

// Terminal reports whether s ends a session.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusReset || s == StatusAccepted
}

func (s Status) valid() bool {
	return s == StatusOpen || s.Terminal()
}

// Session is one open-to-close lifetime of the tempo/pitch control.
//
// Mutations on a closed session are ignored. Cancel, Reset and Accept each
// notify the callback exactly once and close the session.
type Session struct {
	engine  *Engine
	initial Values
	status  Status
	logger  *slog.Logger
}

// NewSession opens a session from the values the player is currently using.
// The values are clamped; the stored toggles are then applied, which may
// collapse coupled values or snap pitch to a semitone (each notifying the
// callback).
func NewSession(initial Values, cfg Config) *Session {
	initial.Tempo = Clamp(initial.Tempo)
	initial.Pitch = Clamp(initial.Pitch)

	step := cfg.StepSize
	if step == 0 {
		step = DefaultStepSize
	}

	e := NewEngine(State{
		Tempo:        initial.Tempo,
		PitchPercent: initial.Pitch,
		StepSize:     step,
		SkipSilence:  initial.SkipSilence,
	}, cfg)

	e.applyHook(e.prefs.GetBool(PrefCoupled, DefaultCoupled))
	e.applySemitoneMode(e.prefs.GetBool(PrefSemitoneMode, DefaultSemitoneMode))

	e.logger.Debug("session opened",
		"initial_tempo", initial.Tempo,
		"initial_pitch", initial.Pitch,
		"initial_skip_silence", initial.SkipSilence,
		"hook", e.state.Hook,
		"semitone_mode", e.state.SemitoneMode)

	return &Session{
		engine:  e,
		initial: initial,
		status:  StatusOpen,
		logger:  e.logger,
	}
}

// State returns a copy of the current state.
func (s *Session) State() State { return s.engine.State() }

// Initial returns the values the session was opened with.
func (s *Session) Initial() Values { return s.initial }

// Status returns the lifecycle state.
func (s *Session) Status() Status { return s.status }

// Closed reports whether a terminal transition has happened.
func (s *Session) Closed() bool { return s.status != StatusOpen }

func (s *Session) open() bool {
	if s.status != StatusOpen {
		s.logger.Debug("ignoring mutation on closed session", "status", s.status)
		return false
	}
	return true
}

func (s *Session) SetTempo(v float64) {
	if s.open() {
		s.engine.SetTempo(v)
	}
}

func (s *Session) SetPitch(v float64) {
	if s.open() {
		s.engine.SetPitch(v)
	}
}

func (s *Session) SetPitchSemitones(n int) {
	if s.open() {
		s.engine.SetPitchSemitones(n)
	}
}

func (s *Session) SeekTempo(progress int) {
	if s.open() {
		s.engine.SeekTempo(progress)
	}
}

func (s *Session) SeekPitch(progress int) {
	if s.open() {
		s.engine.SeekPitch(progress)
	}
}

func (s *Session) SeekSemitone(progress int) {
	if s.open() {
		s.engine.SeekSemitone(progress)
	}
}

func (s *Session) StepTempo(dir int) {
	if s.open() {
		s.engine.StepTempo(dir)
	}
}

func (s *Session) StepPitch(dir int) {
	if s.open() {
		s.engine.StepPitch(dir)
	}
}

func (s *Session) StepSemitone(dir int) {
	if s.open() {
		s.engine.StepSemitone(dir)
	}
}

func (s *Session) SetHook(enabled bool) {
	if s.open() {
		s.engine.SetHook(enabled)
	}
}

func (s *Session) SetSemitoneMode(enabled bool) {
	if s.open() {
		s.engine.SetSemitoneMode(enabled)
	}
}

func (s *Session) SetSkipSilence(enabled bool) {
	if s.open() {
		s.engine.SetSkipSilence(enabled)
	}
}

// SetStepSize selects the step size. It returns ErrInvalidStepSize for
// values outside StepSizes and ErrSessionClosed after close.
func (s *Session) SetStepSize(step StepSize) error {
	if !s.open() {
		return ErrSessionClosed
	}
	return s.engine.SetStepSize(step)
}

// Cancel restores the values the session was opened with.
//
// The restore is exact for tempo and skip-silence; pitch is still snapped
// when semitone mode is on. Coupling is not applied so the player returns to
// its previous parameters even if they differed.
func (s *Session) Cancel() error {
	if s.status != StatusOpen {
		return ErrSessionClosed
	}
	e := s.engine
	e.state.Tempo = s.initial.Tempo
	e.state.PitchPercent = e.validPitch(s.initial.Pitch)
	e.state.SkipSilence = s.initial.SkipSilence
	return s.close(StatusCancelled)
}

// Reset returns tempo, pitch and skip-silence to their defaults.
func (s *Session) Reset() error {
	if s.status != StatusOpen {
		return ErrSessionClosed
	}
	e := s.engine
	e.setTempo(DefaultTempo)
	e.setPitch(DefaultPitch)
	e.state.SkipSilence = DefaultSkipSilence
	return s.close(StatusReset)
}

// Accept commits the current values.
func (s *Session) Accept() error {
	if s.status != StatusOpen {
		return ErrSessionClosed
	}
	return s.close(StatusAccepted)
}

func (s *Session) close(status Status) error {
	s.engine.notify()
	s.status = status
	s.logger.Debug("session closed", "status", status)
	return nil
}

// Saved is the serializable form of a Session, for hosts that must persist
// an open session across a restart.
type Saved struct {
	State   State  `json:"state"`
	Initial Values `json:"initial"`
	Status  Status `json:"status"`
}

// Snapshot captures the session for later RestoreSession.
func (s *Session) Snapshot() Saved {
	return Saved{
		State:   s.engine.State(),
		Initial: s.initial,
		Status:  s.status,
	}
}

// RestoreSession rebuilds a session from a Snapshot without notifying the
// callback or reading preferences.
func RestoreSession(saved Saved, cfg Config) (*Session, error) {
	if !saved.Status.valid() {
		return nil, fmt.Errorf("restore session: unknown status %q", saved.Status)
	}
	e := NewEngine(saved.State, cfg)
	saved.Initial.Tempo = Clamp(saved.Initial.Tempo)
	saved.Initial.Pitch = Clamp(saved.Initial.Pitch)
	return &Session{
		engine:  e,
		initial: saved.Initial,
		status:  saved.Status,
		logger:  e.logger,
	}, nil
}
