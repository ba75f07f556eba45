package main

import (
	"errors"
	"log/slog"
	"time"

	"tempopitch/playback"
)

// This file implements the reducer:
//
//   - Events: control events (IPC, HTTP, input), snapshot requests, effect results
//   - Commands: side effects requested by the reducer (preference writes, snapshot replies)
//   - Broadcasts: notifications for state stream clients
//
// The reducer performs no I/O. Session callbacks and preference writes are
// captured inside DaemonState and turned into Broadcasts and Commands here.

// ReduceConfig carries reducer dependencies that are not state.
type ReduceConfig struct {
	// SessionLogger receives the session's debug traces. Nil discards them.
	SessionLogger *slog.Logger
}

// ReduceResult is the output of Reduce(): next state plus Commands and Broadcasts.
type ReduceResult struct {
	State      *DaemonState
	Commands   []Command
	Broadcasts []StateBroadcast
}

// errNoSession is recorded when a terminal event arrives with no open session.
var errNoSession = errors.New("no open session")

// Reduce is the pure reducer:
//
// - Must not perform I/O
// - Must not block
// - Must not mutate anything outside the returned state
func Reduce(s *DaemonState, e Event, cfg ReduceConfig) ReduceResult {
	if s == nil {
		s = NewDaemonState(playback.DefaultValues(), playback.DefaultStepSize, nil)
	}

	var at time.Time
	if te, ok := e.(TimedEvent); ok {
		at = te.At
		e = te.Event
	}

	rr := ReduceResult{State: s}

	switch ev := e.(type) {
	case RequestStateSnapshot:
		rr.Commands = append(rr.Commands, CmdPublishStateSnapshot{
			Snapshot: s.Snapshot(),
			Reply:    ev.Reply,
		})

	case PreferenceSaved:
		// Cache already holds the value.

	case CommandFailed:
		s.CommandFailures++

	case OpenSession:
		notified := s.notified
		initial := s.Applied
		if ev.Tempo != nil {
			initial.Tempo = *ev.Tempo
		}
		if ev.Pitch != nil {
			initial.Pitch = *ev.Pitch
		}
		if ev.SkipSilence != nil {
			initial.SkipSilence = *ev.SkipSilence
		}
		s.openSession(initial, cfg)
		s.LastError = ""
		rr.Broadcasts = append(rr.Broadcasts, BroadcastSessionOpened{View: newSessionView(s.Session), At: at})
		finishSessionEvent(s, &rr, notified, nil, at)

	case Cancel, Reset, Accept:
		if !s.sessionOpen() {
			s.LastError = errNoSession.Error()
			break
		}
		notified := s.notified
		var err error
		switch ev.(type) {
		case Cancel:
			err = s.Session.Cancel()
		case Reset:
			err = s.Session.Reset()
		case Accept:
			err = s.Session.Accept()
		}
		s.recordError(err)
		finishSessionEvent(s, &rr, notified, nil, at)

	default:
		if _, ok := eventTypeName(e); !ok {
			// Unknown event type: no-op.
			break
		}

		notified := s.notified
		var before *SessionView
		if s.sessionOpen() {
			v := newSessionView(s.Session)
			before = &v
		} else {
			s.openSession(s.Applied, cfg)
			rr.Broadcasts = append(rr.Broadcasts, BroadcastSessionOpened{View: newSessionView(s.Session), At: at})
			v := newSessionView(s.Session)
			before = &v
		}

		s.recordError(applyControl(s.Session, e))
		finishSessionEvent(s, &rr, notified, before, at)
	}

	return rr
}

// applyControl forwards a non-terminal control event to the session.
func applyControl(sess *playback.Session, e Event) error {
	switch ev := e.(type) {
	case SetTempo:
		sess.SetTempo(ev.Value)
	case SetPitch:
		sess.SetPitch(ev.Value)
	case SetPitchSemitones:
		sess.SetPitchSemitones(ev.Semitones)
	case SeekTempo:
		sess.SeekTempo(ev.Progress)
	case SeekPitch:
		sess.SeekPitch(ev.Progress)
	case SeekSemitone:
		sess.SeekSemitone(ev.Progress)
	case StepTempo:
		sess.StepTempo(ev.Direction)
	case StepPitch:
		sess.StepPitch(ev.Direction)
	case StepSemitone:
		sess.StepSemitone(ev.Direction)
	case SetStepSize:
		step, err := playback.ParseStepSize(ev.Step)
		if err != nil {
			return err
		}
		return sess.SetStepSize(step)
	case SetSkipSilence:
		sess.SetSkipSilence(ev.Enabled)
	case SetHook:
		sess.SetHook(ev.Enabled)
	case SetSemitoneMode:
		sess.SetSemitoneMode(ev.Enabled)
	}
	return nil
}

func (s *DaemonState) recordError(err error) {
	if err != nil {
		s.LastError = err.Error()
		return
	}
	s.LastError = ""
}

// finishSessionEvent turns what the session did during one event into
// state updates, Commands and Broadcasts.
func finishSessionEvent(s *DaemonState, rr *ReduceResult, notifiedBefore int, before *SessionView, at time.Time) {
	sess := s.Session

	if s.notified != notifiedBefore {
		s.Applied = sess.State().Values()
		rr.Broadcasts = append(rr.Broadcasts, BroadcastParametersChanged{Values: s.Applied, At: at})
	}

	for _, w := range s.Prefs.drain() {
		rr.Commands = append(rr.Commands, CmdSavePreference{Key: w.Key, Value: w.Value})
	}

	s.StepSize = sess.State().StepSize

	if sess.Closed() {
		s.LastStatus = sess.Status()
		s.Session = nil
		rr.Broadcasts = append(rr.Broadcasts, BroadcastSessionClosed{
			Status: s.LastStatus,
			Values: s.Applied,
			At:     at,
		})
		return
	}

	if before != nil {
		after := newSessionView(sess)
		if after != *before {
			rr.Broadcasts = append(rr.Broadcasts, BroadcastSessionUpdated{View: after, At: at})
		}
	}
}
