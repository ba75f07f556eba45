package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// readInputEvents reads input events from r and sends them to a channel.
// It runs in a dedicated goroutine and blocks on reads.
func readInputEvents(r io.Reader, events chan<- inputEvent, readErr chan<- error) {
	evSize := binary.Size(inputEvent{})
	buf := make([]byte, evSize)
	reader := bytes.NewReader(buf)

	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			readErr <- err
			return
		}

		reader.Reset(buf)
		var ev inputEvent
		if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
			// Skip malformed events
			continue
		}

		events <- ev
	}
}

// translateKey maps a remote/keypad key event to a control event.
//
// Step keys fire on press and on auto-repeat; terminal keys fire on press
// only so a held key cannot close two sessions.
func translateKey(ev inputEvent) (Event, bool) {
	if ev.Type != EV_KEY {
		return nil, false
	}

	held := ev.Value == evValuePress || ev.Value == evValueRepeat
	pressed := ev.Value == evValuePress

	switch ev.Code {
	case KEY_UP:
		return StepTempo{Direction: 1}, held
	case KEY_DOWN:
		return StepTempo{Direction: -1}, held
	case KEY_RIGHT:
		return StepPitch{Direction: 1}, held
	case KEY_LEFT:
		return StepPitch{Direction: -1}, held
	case KEY_PAGEUP:
		return StepSemitone{Direction: 1}, held
	case KEY_PAGEDOWN:
		return StepSemitone{Direction: -1}, held
	case KEY_ENTER, KEY_OK:
		return Accept{}, pressed
	case KEY_ESC, KEY_BACK:
		return Cancel{}, pressed
	case KEY_HOME:
		return Reset{}, pressed
	}
	return nil, false
}

// runInput opens the configured devices and feeds translated key events
// into the daemon loop until ctx is canceled or a device fails.
func runInput(ctx context.Context, devices []string, events chan<- Event, logger *slog.Logger) error {
	if len(devices) == 0 {
		return nil
	}

	files := make([]*os.File, 0, len(devices))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, dev := range devices {
		f, err := os.Open(dev)
		if err != nil {
			return fmt.Errorf("open input device %s: %w", dev, err)
		}
		files = append(files, f)
	}

	raw := make(chan inputEvent, 64)
	readErr := make(chan error, len(files))
	go readDevices(files, raw, readErr)

	logger.Info("input listening", "devices", devices)

	rotary := newRotaryState()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input reader stopped: %w", err)

		case ev := <-raw:
			var out []Event
			if cev, ok := translateKey(ev); ok {
				out = append(out, cev)
			} else {
				out = rotary.translateDial(ev, time.Now())
			}
			for _, cev := range out {
				if err := enqueueEvent(events, cev); err != nil {
					logger.Warn("input event dropped", "error", err, "code", ev.Code)
				}
			}
		}
	}
}
