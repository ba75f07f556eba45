package main

import (
	"time"

	"tempopitch/playback"
)

// StateBroadcast is a reducer-emitted notification for state stream
// clients. The broadcaster converts each one into a WS frame.
type StateBroadcast interface {
	broadcastMarker()
}

// BroadcastParametersChanged carries the triple the player should apply.
type BroadcastParametersChanged struct {
	Values playback.Values
	At     time.Time
}

// BroadcastSessionOpened is emitted when a session opens.
type BroadcastSessionOpened struct {
	View SessionView
	At   time.Time
}

// BroadcastSessionUpdated is emitted when session state visible to a UI
// changes (toggles, step size, slider positions).
type BroadcastSessionUpdated struct {
	View SessionView
	At   time.Time
}

// BroadcastSessionClosed is emitted after cancel, reset or accept.
type BroadcastSessionClosed struct {
	Status playback.Status
	Values playback.Values
	At     time.Time
}

func (BroadcastParametersChanged) broadcastMarker() {}
func (BroadcastSessionOpened) broadcastMarker()     {}
func (BroadcastSessionUpdated) broadcastMarker()    {}
func (BroadcastSessionClosed) broadcastMarker()     {}
