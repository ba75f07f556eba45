package playback

import (
	"errors"
	"math"
	"testing"
)

func newTestSession(initial Values, prefs mapPreferences) (*Session, *callbackRecorder) {
	rec := &callbackRecorder{}
	s := NewSession(initial, Config{Callback: rec.callback, Preferences: prefs})
	return s, rec
}

func TestNewSession_CoupledByDefault(t *testing.T) {
	s, rec := newTestSession(Values{Tempo: 1.5, Pitch: 0.8}, mapPreferences{})

	st := s.State()
	if !st.Hook {
		t.Fatalf("expected coupled by default")
	}
	if st.Tempo != 0.8 || st.PitchPercent != 0.8 {
		t.Fatalf("expected both collapsed to 0.8, got %+v", st)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected 1 callback at open, got %d", len(rec.calls))
	}
	if s.Status() != StatusOpen || s.Closed() {
		t.Fatalf("expected open session, got %q", s.Status())
	}
}

func TestNewSession_Decoupled(t *testing.T) {
	s, rec := newTestSession(Values{Tempo: 1.5, Pitch: 0.8}, mapPreferences{PrefCoupled: false})

	st := s.State()
	if st.Hook || st.Tempo != 1.5 || st.PitchPercent != 0.8 {
		t.Fatalf("unexpected state %+v", st)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("expected no callback at open, got %d", len(rec.calls))
	}
}

func TestNewSession_SemitoneModeSnapsPitch(t *testing.T) {
	prefs := mapPreferences{PrefCoupled: false, PrefSemitoneMode: true}
	s, rec := newTestSession(Values{Tempo: 1, Pitch: 1.03}, prefs)

	st := s.State()
	if !st.SemitoneMode {
		t.Fatalf("expected semitone mode from preferences")
	}
	if st.PitchPercent != SemitonesToPercent(1) {
		t.Fatalf("pitch = %v, want %v", st.PitchPercent, SemitonesToPercent(1))
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected 1 callback for the snap, got %d", len(rec.calls))
	}
}

func TestNewSession_ClampsInitial(t *testing.T) {
	s, _ := newTestSession(Values{Tempo: 7, Pitch: math.NaN()}, mapPreferences{PrefCoupled: false})

	if got := s.Initial(); got.Tempo != MaxValue || got.Pitch != MinValue {
		t.Fatalf("unexpected initial values %+v", got)
	}
}

func TestSession_Reset(t *testing.T) {
	s, rec := newTestSession(Values{Tempo: 2.5, Pitch: 0.5, SkipSilence: true}, mapPreferences{PrefCoupled: false})

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if got := s.State().Values(); got != DefaultValues() {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected exactly 1 callback, got %d", len(rec.calls))
	}
	if got := rec.last(t); got != (recordedCall{Tempo: 1, Pitch: 1, SkipSilence: false}) {
		t.Fatalf("unexpected callback %+v", got)
	}
	if s.Status() != StatusReset {
		t.Fatalf("status = %q, want %q", s.Status(), StatusReset)
	}
}

func TestSession_Cancel(t *testing.T) {
	s, rec := newTestSession(Values{Tempo: 1.2, Pitch: 1.2}, mapPreferences{})

	s.SetTempo(2.0)
	if st := s.State(); st.Tempo != 2 || st.PitchPercent != 2 {
		t.Fatalf("expected coupled 2.0, got %+v", st)
	}

	before := len(rec.calls)
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if len(rec.calls) != before+1 {
		t.Fatalf("expected exactly one callback from Cancel, got %d", len(rec.calls)-before)
	}
	want := recordedCall{Tempo: float32(1.2), Pitch: float32(1.2), SkipSilence: false}
	if got := rec.last(t); got != want {
		t.Fatalf("last callback = %+v, want %+v", got, want)
	}
	if s.Status() != StatusCancelled {
		t.Fatalf("status = %q, want %q", s.Status(), StatusCancelled)
	}
}

// Cancel restores the original values even when coupling would have made
// them equal.
func TestSession_CancelRestoresUncoupledValues(t *testing.T) {
	s, rec := newTestSession(Values{Tempo: 1.5, Pitch: 0.8, SkipSilence: true}, mapPreferences{})

	s.SetSkipSilence(false)
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	want := recordedCall{Tempo: float32(1.5), Pitch: float32(0.8), SkipSilence: true}
	if got := rec.last(t); got != want {
		t.Fatalf("last callback = %+v, want %+v", got, want)
	}
}

func TestSession_Accept(t *testing.T) {
	s, rec := newTestSession(Values{Tempo: 1, Pitch: 1}, mapPreferences{PrefCoupled: false})

	s.SetTempo(1.75)
	if err := s.Accept(); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if len(rec.calls) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(rec.calls))
	}
	if got := rec.last(t); got != (recordedCall{Tempo: 1.75, Pitch: 1}) {
		t.Fatalf("unexpected callback %+v", got)
	}
	if s.Status() != StatusAccepted {
		t.Fatalf("status = %q, want %q", s.Status(), StatusAccepted)
	}
}

func TestSession_ClosedIgnoresMutations(t *testing.T) {
	prefs := mapPreferences{PrefCoupled: false}
	s, rec := newTestSession(Values{Tempo: 1.1, Pitch: 0.9}, prefs)

	if err := s.Accept(); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	calls := len(rec.calls)
	before := s.State()

	s.SetTempo(2)
	s.SetPitch(2)
	s.SetPitchSemitones(3)
	s.SeekTempo(0)
	s.SeekPitch(0)
	s.SeekSemitone(0)
	s.StepTempo(1)
	s.StepPitch(1)
	s.StepSemitone(1)
	s.SetHook(true)
	s.SetSemitoneMode(true)
	s.SetSkipSilence(true)

	if got := s.State(); got != before {
		t.Fatalf("state changed after close: %+v -> %+v", before, got)
	}
	if len(rec.calls) != calls {
		t.Fatalf("callbacks fired after close: %d", len(rec.calls)-calls)
	}
	if _, ok := prefs[PrefSemitoneMode]; ok {
		t.Fatalf("preferences written after close")
	}

	if err := s.SetStepSize(Step5Percent); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("SetStepSize: expected ErrSessionClosed, got %v", err)
	}
	for name, op := range map[string]func() error{"cancel": s.Cancel, "reset": s.Reset, "accept": s.Accept} {
		if err := op(); !errors.Is(err, ErrSessionClosed) {
			t.Errorf("%s: expected ErrSessionClosed, got %v", name, err)
		}
	}
	if s.Status() != StatusAccepted {
		t.Fatalf("status changed to %q", s.Status())
	}
}

func TestSession_SetStepSize(t *testing.T) {
	s, _ := newTestSession(Values{Tempo: 1, Pitch: 1}, mapPreferences{PrefCoupled: false})

	if err := s.SetStepSize(Step10Percent); err != nil {
		t.Fatalf("SetStepSize: %v", err)
	}
	s.StepTempo(1)
	if got := s.State().Tempo; math.Abs(got-1.1) > 1e-12 {
		t.Fatalf("tempo = %v, want 1.1", got)
	}
	if err := s.SetStepSize(0.02); !errors.Is(err, ErrInvalidStepSize) {
		t.Fatalf("expected ErrInvalidStepSize, got %v", err)
	}
}

func TestNewSession_StepSizeFromConfig(t *testing.T) {
	s := NewSession(Values{Tempo: 1, Pitch: 1}, Config{StepSize: Step1Percent})
	if got := s.State().StepSize; got != Step1Percent {
		t.Fatalf("step size = %v, want %v", got, Step1Percent)
	}
}

func TestSession_SnapshotRestore(t *testing.T) {
	s, _ := newTestSession(Values{Tempo: 1.3, Pitch: 0.7, SkipSilence: true}, mapPreferences{PrefCoupled: false})
	s.SetPitch(0.9)

	saved := s.Snapshot()
	rec := &callbackRecorder{}
	restored, err := RestoreSession(saved, Config{Callback: rec.callback})
	if err != nil {
		t.Fatalf("RestoreSession: %v", err)
	}

	if restored.State() != s.State() {
		t.Fatalf("restored state %+v, want %+v", restored.State(), s.State())
	}
	if restored.Initial() != s.Initial() {
		t.Fatalf("restored initial %+v, want %+v", restored.Initial(), s.Initial())
	}
	if restored.Status() != StatusOpen {
		t.Fatalf("restored status %q", restored.Status())
	}
	if len(rec.calls) != 0 {
		t.Fatalf("restore must not notify, got %d callbacks", len(rec.calls))
	}

	if err := restored.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := rec.last(t); got != (recordedCall{Tempo: float32(1.3), Pitch: float32(0.7), SkipSilence: true}) {
		t.Fatalf("unexpected callback %+v", got)
	}
}

func TestRestoreSession_UnknownStatus(t *testing.T) {
	_, err := RestoreSession(Saved{Status: "paused"}, Config{})
	if err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestStatus_Terminal(t *testing.T) {
	if StatusOpen.Terminal() {
		t.Errorf("open must not be terminal")
	}
	for _, s := range []Status{StatusCancelled, StatusReset, StatusAccepted} {
		if !s.Terminal() {
			t.Errorf("%q must be terminal", s)
		}
	}
}
