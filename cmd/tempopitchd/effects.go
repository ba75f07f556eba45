package main

import (
	"context"
	"log/slog"
	"time"

	"tempopitch/prefs"
)

// runEffect executes a single reducer-emitted Command and reports the
// outcome via onEvent. It never calls Reduce directly.
func runEffect(
	ctx context.Context,
	backend prefs.Backend,
	cmd Command,
	logger *slog.Logger,
	onEvent func(Event),
) {
	if onEvent == nil {
		return
	}

	now := time.Now()

	switch c := cmd.(type) {
	case CmdSavePreference:
		if backend == nil {
			onEvent(CommandFailed{Command: cmd, Err: errNoBackend{}, At: now})
			return
		}
		saveCtx, cancel := context.WithTimeout(ctx, effectTimeout)
		defer cancel()
		if err := backend.Save(saveCtx, c.Key, c.Value); err != nil {
			logger.Error("preference save failed", "error", err, "key", c.Key, "value", c.Value)
			onEvent(CommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		logger.Debug("preference saved", "key", c.Key, "value", c.Value)
		onEvent(PreferenceSaved{Key: c.Key, Value: c.Value, At: now})

	case CmdPublishStateSnapshot:
		if c.Reply == nil {
			logger.Warn("state snapshot requested with nil reply channel")
			return
		}

		// Never block the daemon loop on a requester.
		select {
		case c.Reply <- c.Snapshot:
		default:
			logger.Warn("state snapshot reply channel not ready; dropping snapshot")
		}

	default:
		logger.Warn("unknown command type", "command", cmd.String())
		onEvent(CommandFailed{
			Command: cmd,
			Err:     errUnknownCommand{cmd: cmd},
			At:      now,
		})
	}
}

// errNoBackend indicates a preference write without a configured backend.
type errNoBackend struct{}

func (errNoBackend) Error() string { return "no preference backend" }

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }
