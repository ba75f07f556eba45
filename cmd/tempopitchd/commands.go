package main

import "fmt"

// ==============================
// Commands (side effects)
// ==============================

// Command represents an external side effect to be executed by the daemon loop.
type Command interface {
	commandMarker()
	String() string
}

// CmdSavePreference persists one toggle to the preference backend.
type CmdSavePreference struct {
	Key   string
	Value bool
}

func (CmdSavePreference) commandMarker() {}
func (c CmdSavePreference) String() string {
	return fmt.Sprintf("CmdSavePreference(key=%s, value=%v)", c.Key, c.Value)
}

// CmdPublishStateSnapshot delivers a reducer-produced snapshot to a requester.
type CmdPublishStateSnapshot struct {
	Snapshot StateSnapshot
	Reply    chan StateSnapshot
}

func (CmdPublishStateSnapshot) commandMarker() {}
func (CmdPublishStateSnapshot) String() string { return "CmdPublishStateSnapshot()" }
