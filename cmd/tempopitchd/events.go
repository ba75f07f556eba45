package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// ============================================================================
// Events - inputs to the reducer
// ============================================================================
// Events come from IPC, HTTP, input devices and from the effects layer.
// Control events have a JSON form (EventEnvelope); internal events do not.
// ============================================================================

// Event is the input to the reducer.
type Event interface {
	eventMarker()
}

// OpenSession starts a control session. Nil fields are taken from the
// currently applied values. An open session is replaced.
type OpenSession struct {
	Tempo       *float64 `json:"tempo,omitempty"`
	Pitch       *float64 `json:"pitch,omitempty"`
	SkipSilence *bool    `json:"skip_silence,omitempty"`
}

// SetTempo sets tempo directly.
type SetTempo struct {
	Value float64 `json:"value"`
}

// SetPitch sets pitch percent directly.
type SetPitch struct {
	Value float64 `json:"value"`
}

// SetPitchSemitones sets pitch to a semitone offset.
type SetPitchSemitones struct {
	Semitones int `json:"semitones"`
}

// SeekTempo applies a tempo slider position.
type SeekTempo struct {
	Progress int `json:"progress"`
}

// SeekPitch applies a pitch percent slider position.
type SeekPitch struct {
	Progress int `json:"progress"`
}

// SeekSemitone applies a semitone slider position.
type SeekSemitone struct {
	Progress int `json:"progress"`
}

// StepTempo moves tempo one step; only the sign of Direction matters.
type StepTempo struct {
	Direction int `json:"direction"`
}

// StepPitch moves pitch one step; only the sign of Direction matters.
type StepPitch struct {
	Direction int `json:"direction"`
}

// StepSemitone moves pitch one semitone; only the sign of Direction matters.
type StepSemitone struct {
	Direction int `json:"direction"`
}

// SetStepSize selects the step size (0.01, 0.05, 0.10, 0.25 or 1.00).
type SetStepSize struct {
	Step float64 `json:"step"`
}

type SetSkipSilence struct {
	Enabled bool `json:"enabled"`
}

// SetHook couples (true) or decouples tempo and pitch.
type SetHook struct {
	Enabled bool `json:"enabled"`
}

type SetSemitoneMode struct {
	Enabled bool `json:"enabled"`
}

// Cancel restores the values the session was opened with.
type Cancel struct{}

// Reset restores defaults and closes the session.
type Reset struct{}

// Accept commits the current values and closes the session.
type Accept struct{}

func (OpenSession) eventMarker()       {}
func (SetTempo) eventMarker()          {}
func (SetPitch) eventMarker()          {}
func (SetPitchSemitones) eventMarker() {}
func (SeekTempo) eventMarker()         {}
func (SeekPitch) eventMarker()         {}
func (SeekSemitone) eventMarker()      {}
func (StepTempo) eventMarker()         {}
func (StepPitch) eventMarker()         {}
func (StepSemitone) eventMarker()      {}
func (SetStepSize) eventMarker()       {}
func (SetSkipSilence) eventMarker()    {}
func (SetHook) eventMarker()           {}
func (SetSemitoneMode) eventMarker()   {}
func (Cancel) eventMarker()            {}
func (Reset) eventMarker()             {}
func (Accept) eventMarker()            {}

// ============================================================================
// Internal events
// ============================================================================

// TimedEvent stamps an event with its arrival time. The daemon loop wraps
// every external event in one.
type TimedEvent struct {
	Event Event
	At    time.Time
}

func (TimedEvent) eventMarker() {}

// RequestStateSnapshot asks the daemon loop for a coherent snapshot. The
// reply is delivered by the effects layer.
type RequestStateSnapshot struct {
	Reply chan StateSnapshot
}

func (RequestStateSnapshot) eventMarker() {}

// PreferenceSaved is emitted after a successful preference write.
type PreferenceSaved struct {
	Key   string
	Value bool
	At    time.Time
}

func (PreferenceSaved) eventMarker() {}

// CommandFailed is emitted when executing a Command fails.
type CommandFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (CommandFailed) eventMarker() {}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// eventTypes maps wire names to constructors of empty payloads.
var eventTypes = map[string]func() Event{
	"open_session":        func() Event { return &OpenSession{} },
	"set_tempo":           func() Event { return &SetTempo{} },
	"set_pitch":           func() Event { return &SetPitch{} },
	"set_pitch_semitones": func() Event { return &SetPitchSemitones{} },
	"seek_tempo":          func() Event { return &SeekTempo{} },
	"seek_pitch":          func() Event { return &SeekPitch{} },
	"seek_semitone":       func() Event { return &SeekSemitone{} },
	"step_tempo":          func() Event { return &StepTempo{} },
	"step_pitch":          func() Event { return &StepPitch{} },
	"step_semitone":       func() Event { return &StepSemitone{} },
	"set_step_size":       func() Event { return &SetStepSize{} },
	"set_skip_silence":    func() Event { return &SetSkipSilence{} },
	"set_hook":            func() Event { return &SetHook{} },
	"set_semitone_mode":   func() Event { return &SetSemitoneMode{} },
	"cancel":              func() Event { return &Cancel{} },
	"reset":               func() Event { return &Reset{} },
	"accept":              func() Event { return &Accept{} },
}

// eventTypeName returns the wire name of a control event.
func eventTypeName(e Event) (string, bool) {
	switch e.(type) {
	case OpenSession:
		return "open_session", true
	case SetTempo:
		return "set_tempo", true
	case SetPitch:
		return "set_pitch", true
	case SetPitchSemitones:
		return "set_pitch_semitones", true
	case SeekTempo:
		return "seek_tempo", true
	case SeekPitch:
		return "seek_pitch", true
	case SeekSemitone:
		return "seek_semitone", true
	case StepTempo:
		return "step_tempo", true
	case StepPitch:
		return "step_pitch", true
	case StepSemitone:
		return "step_semitone", true
	case SetStepSize:
		return "set_step_size", true
	case SetSkipSilence:
		return "set_skip_silence", true
	case SetHook:
		return "set_hook", true
	case SetSemitoneMode:
		return "set_semitone_mode", true
	case Cancel:
		return "cancel", true
	case Reset:
		return "reset", true
	case Accept:
		return "accept", true
	default:
		return "", false
	}
}

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	newEvent, ok := eventTypes[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}

	ptr := newEvent()
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, ptr); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
	}
	return deref(ptr), nil
}

// deref turns the decoded pointer back into the value type the reducer
// switches on.
func deref(e Event) Event {
	switch p := e.(type) {
	case *OpenSession:
		return *p
	case *SetTempo:
		return *p
	case *SetPitch:
		return *p
	case *SetPitchSemitones:
		return *p
	case *SeekTempo:
		return *p
	case *SeekPitch:
		return *p
	case *SeekSemitone:
		return *p
	case *StepTempo:
		return *p
	case *StepPitch:
		return *p
	case *StepSemitone:
		return *p
	case *SetStepSize:
		return *p
	case *SetSkipSilence:
		return *p
	case *SetHook:
		return *p
	case *SetSemitoneMode:
		return *p
	case *Cancel:
		return *p
	case *Reset:
		return *p
	case *Accept:
		return *p
	default:
		return e
	}
}

// MarshalEvent serializes a control Event into a JSON envelope.
func MarshalEvent(e Event) ([]byte, error) {
	name, ok := eventTypeName(e)
	if !ok {
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	env := EventEnvelope{Type: name}
	switch e.(type) {
	case Cancel, Reset, Accept:
		// no payload
	default:
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", name, err)
		}
		env.Data = data
	}

	return json.Marshal(env)
}
