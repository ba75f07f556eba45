package main

import (
	"context"
	"log/slog"
	"time"

	"tempopitch/prefs"
)

// ============================================================================
// Central Daemon Loop
// ============================================================================
//
//   - The reducer performs no I/O and computes: next state + commands + broadcasts.
//   - The daemon loop is the only place that executes side effects.
//   - Effect results are turned into Events and fed back into the reducer.
//   - Explicit event and command queues; no re-entrant execution.
//
// ============================================================================

// runDaemon receives Events, reduces them, executes the resulting Commands
// against the preference backend and forwards Broadcasts.
//
// It returns the final state when ctx is canceled or events is closed, so
// the caller can persist it.
func runDaemon(
	ctx context.Context,
	events <-chan Event,
	broadcasts chan<- StateBroadcast,
	backend prefs.Backend,
	state *DaemonState,
	cfg ReduceConfig,
	logger *slog.Logger,
) *DaemonState {
	if state == nil {
		logger.Error("daemon state is nil")
		return nil
	}

	var eventQueue []Event
	var cmdQueue []Command

	pushEvent := func(ev Event) {
		eventQueue = append(eventQueue, ev)
	}

	publish := func(bs []StateBroadcast) {
		if broadcasts == nil {
			return
		}
		for _, b := range bs {
			select {
			case broadcasts <- b:
			default:
				logger.Warn("broadcast queue full, dropping state broadcast")
			}
		}
	}

	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			rr := Reduce(state, ev, cfg)
			if rr.State != nil {
				state = rr.State
			}
			cmdQueue = append(cmdQueue, rr.Commands...)
			publish(rr.Broadcasts)
		}
	}

	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			runEffect(ctx, backend, cmd, logger, pushEvent)

			flushEvents()
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return state

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return state
			}
			if _, timed := ev.(TimedEvent); !timed {
				ev = TimedEvent{Event: ev, At: time.Now()}
			}
			pushEvent(ev)
			flushEvents()
			flushCommands()
		}
	}
}
