package playback

import (
	"fmt"
	"log/slog"
)

// Callback receives the full parameter triple after every change.
type Callback func(tempo, pitch float32, skipSilence bool)

// Config wires an Engine or Session to its collaborators. Every field is
// optional.
type Config struct {
	// Callback is notified after every state-affecting operation.
	Callback Callback

	// Preferences holds the coupling and semitone-mode toggles.
	Preferences PreferenceStore

	// Logger receives debug traces. Defaults to a discarding logger.
	Logger *slog.Logger

	// StepSize is the initial step size. Zero means DefaultStepSize.
	StepSize StepSize
}

// Engine applies single-field mutations to a State and re-establishes every
// invariant before notifying the callback. It is the only code that writes
// tempo and pitch.
type Engine struct {
	state    State
	callback Callback
	prefs    PreferenceStore
	logger   *slog.Logger
}

// NewEngine returns an engine over st. Out-of-range or inconsistent fields
// of st are normalized silently.
func NewEngine(st State, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	prefs := cfg.Preferences
	if prefs == nil {
		prefs = noPreferences{}
	}
	return &Engine{
		state:    st.normalized(),
		callback: cfg.Callback,
		prefs:    prefs,
		logger:   logger,
	}
}

// State returns a copy of the current state.
func (e *Engine) State() State { return e.state }

// SetTempo sets tempo. When coupled, pitch follows.
func (e *Engine) SetTempo(v float64) {
	e.setTempo(v)
	e.notify()
}

// SetPitch sets pitch percent, snapped to a semitone in semitone mode.
// When coupled, tempo follows.
func (e *Engine) SetPitch(v float64) {
	e.setPitch(v)
	e.notify()
}

// SetPitchSemitones sets pitch to the given semitone offset.
func (e *Engine) SetPitchSemitones(n int) {
	e.SetPitch(SemitonesToPercent(n))
}

// SeekTempo applies a tempo slider position.
func (e *Engine) SeekTempo(progress int) {
	e.SetTempo(QuadraticSlider.ValueOf(progress))
}

// SeekPitch applies a pitch percent slider position.
func (e *Engine) SeekPitch(progress int) {
	e.SetPitch(QuadraticSlider.ValueOf(progress))
}

// SeekSemitone applies a semitone slider position.
func (e *Engine) SeekSemitone(progress int) {
	e.SetPitch(SemitoneSlider{}.ValueOf(progress))
}

// SetHook couples or decouples tempo and pitch and stores the choice.
// Re-coupling collapses both values to the lower of the two.
func (e *Engine) SetHook(enabled bool) {
	e.prefs.SetBool(PrefCoupled, enabled)
	e.applyHook(enabled)
}

// SetSemitoneMode switches the authoritative pitch control and stores the
// choice. Entering semitone mode snaps pitch to the nearest semitone.
func (e *Engine) SetSemitoneMode(enabled bool) {
	e.prefs.SetBool(PrefSemitoneMode, enabled)
	e.applySemitoneMode(enabled)
}

// SetStepSize selects the step size. Tempo and pitch are left untouched.
func (e *Engine) SetStepSize(s StepSize) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidStepSize, float64(s))
	}
	e.state.StepSize = s
	return nil
}

// SetSkipSilence sets the skip-silence flag.
func (e *Engine) SetSkipSilence(enabled bool) {
	e.state.SkipSilence = enabled
	e.notify()
}

func (e *Engine) applyHook(enabled bool) {
	wasCoupled := e.state.Hook
	e.state.Hook = enabled
	if !enabled || wasCoupled {
		return
	}

	target := min(e.state.Tempo, e.state.PitchPercent)
	e.logger.Debug("coupling tempo and pitch",
		"tempo", e.state.Tempo,
		"pitch_percent", e.state.PitchPercent,
		"target", target)
	e.setCoupled(target)
	e.notify()
}

func (e *Engine) applySemitoneMode(enabled bool) {
	e.state.SemitoneMode = enabled
	if !enabled {
		return
	}

	snapped := e.validPitch(e.state.PitchPercent)
	if snapped != e.state.PitchPercent {
		e.logger.Debug("snapping pitch to semitone",
			"pitch_percent", e.state.PitchPercent,
			"new_pitch_percent", snapped)
		e.SetPitch(snapped)
	}
}

func (e *Engine) setTempo(v float64) {
	if e.state.Hook {
		e.setCoupled(v)
		return
	}
	e.state.Tempo = Clamp(v)
}

func (e *Engine) setPitch(v float64) {
	if e.state.Hook {
		e.setCoupled(v)
		return
	}
	e.state.PitchPercent = e.validPitch(v)
}

// setCoupled writes the same valid pitch value to both fields.
func (e *Engine) setCoupled(v float64) {
	v = e.validPitch(v)
	e.state.Tempo = v
	e.state.PitchPercent = v
}

func (e *Engine) validPitch(v float64) float64 {
	v = Clamp(v)
	if e.state.SemitoneMode {
		return QuantizePitch(v)
	}
	return v
}

func (e *Engine) notify() {
	if e.callback == nil {
		return
	}
	e.logger.Debug("parameters changed",
		"tempo", e.state.Tempo,
		"pitch_percent", e.state.PitchPercent,
		"skip_silence", e.state.SkipSilence)
	e.callback(float32(e.state.Tempo), float32(e.state.PitchPercent), e.state.SkipSilence)
}
