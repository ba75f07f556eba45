package main

import "time"

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_KEY = 0x01

	KEY_ESC      = 1
	KEY_ENTER    = 28
	KEY_HOME     = 102
	KEY_UP       = 103
	KEY_PAGEUP   = 104
	KEY_LEFT     = 105
	KEY_RIGHT    = 106
	KEY_DOWN     = 108
	KEY_PAGEDOWN = 109
	KEY_BACK     = 158
	KEY_OK       = 352
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

const (
	defaultSocketPath = "/tmp/tempopitch.sock"
	defaultHTTPAddr   = "127.0.0.1:3002"
	defaultPrefsPath  = "~/.config/tempopitch/preferences.yaml"

	// Queue sizes between producers (IPC, HTTP, input) and the daemon loop.
	eventQueueSize     = 64
	broadcastQueueSize = 128

	// snapshotTimeout bounds how long HTTP/WS handlers wait on the daemon loop.
	snapshotTimeout = 1 * time.Second

	// effectTimeout bounds a single preference write.
	effectTimeout = 2 * time.Second
)
