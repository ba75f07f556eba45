package main

import "time"

// Rotary encoder relative axis codes (from <linux/input.h>)
const (
	EV_REL    = 0x02
	REL_DIAL  = 0x07
	REL_WHEEL = 0x08
)

const (
	// rotaryVelocityWindow is how far back detents count towards fast spinning.
	rotaryVelocityWindow = 200 * time.Millisecond

	// rotaryVelocityThreshold same-direction detents within the window
	// double each step.
	rotaryVelocityThreshold = 3
)

// rotaryState tracks recent encoder detents for fast-spin detection. It is
// owned by the input goroutine.
type rotaryState struct {
	recent []rotaryStep
}

type rotaryStep struct {
	at        time.Time
	direction int
}

func newRotaryState() *rotaryState {
	return &rotaryState{recent: make([]rotaryStep, 0, 16)}
}

// addStep records a detent and returns how many detents in the same
// direction fall within rotaryVelocityWindow, including this one.
func (r *rotaryState) addStep(direction int, now time.Time) int {
	cutoff := now.Add(-rotaryVelocityWindow)

	filtered := r.recent[:0]
	for _, s := range r.recent {
		if s.at.After(cutoff) {
			filtered = append(filtered, s)
		}
	}
	filtered = append(filtered, rotaryStep{at: now, direction: direction})
	r.recent = filtered

	same := 0
	for _, s := range filtered {
		if s.direction == direction {
			same++
		}
	}
	return same
}

// translateDial maps a dial/wheel event to tempo steps. Each detent is one
// step; fast spinning emits two.
func (r *rotaryState) translateDial(ev inputEvent, now time.Time) []Event {
	if ev.Type != EV_REL || (ev.Code != REL_DIAL && ev.Code != REL_WHEEL) || ev.Value == 0 {
		return nil
	}

	dir := 1
	detents := int(ev.Value)
	if detents < 0 {
		dir = -1
		detents = -detents
	}

	var out []Event
	for i := 0; i < detents; i++ {
		n := 1
		if r.addStep(dir, now) >= rotaryVelocityThreshold {
			n = 2
		}
		for j := 0; j < n; j++ {
			out = append(out, StepTempo{Direction: dir})
		}
	}
	return out
}
