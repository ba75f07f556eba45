package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"tempopitch/playback"
	"tempopitch/prefs"
)

// Config is the top-level YAML configuration for the tempopitch daemon.
//
// Precedence, lowest first: DefaultConfig, config file, TEMPOPITCH_*
// environment variables, command-line flags. Validate runs last.
type Config struct {
	// Session defaults for the first session and for step sizing.
	Session SessionConfig `yaml:"session"`

	// Preference backend for the coupling and semitone-mode toggles.
	Preferences PreferencesConfig `yaml:"preferences"`

	IPC IPCConfig `yaml:"ipc"`

	HTTP HTTPConfig `yaml:"http"`

	// Input devices (remote/keypad) driving step and terminal events.
	Input InputConfig `yaml:"input"`

	Logging LoggingConfig `yaml:"logging"`
}

type SessionConfig struct {
	// Values the player starts with before any session has been accepted.
	Tempo       float64 `yaml:"tempo" env:"TEMPOPITCH_SESSION_TEMPO"`
	Pitch       float64 `yaml:"pitch" env:"TEMPOPITCH_SESSION_PITCH"`
	SkipSilence bool    `yaml:"skip_silence" env:"TEMPOPITCH_SESSION_SKIP_SILENCE"`

	StepSize float64 `yaml:"step_size" env:"TEMPOPITCH_SESSION_STEP_SIZE"`

	// StateFile, when set, keeps applied values and any open session across
	// restarts.
	StateFile string `yaml:"state_file,omitempty" env:"TEMPOPITCH_SESSION_STATE_FILE"`
}

type PreferencesConfig struct {
	Backend string `yaml:"backend" env:"TEMPOPITCH_PREFERENCES_BACKEND"` // yaml|sqlite|memory
	Path    string `yaml:"path" env:"TEMPOPITCH_PREFERENCES_PATH"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path" env:"TEMPOPITCH_IPC_SOCKET"`
}

type HTTPConfig struct {
	Enabled bool   `yaml:"enabled" env:"TEMPOPITCH_HTTP_ENABLED"`
	Addr    string `yaml:"addr" env:"TEMPOPITCH_HTTP_ADDR"`

	// Per-client WS outbound queue size.
	WSSendBuf int `yaml:"ws_send_buf,omitempty" env:"TEMPOPITCH_HTTP_WS_SEND_BUF"`
}

type InputConfig struct {
	Devices []string `yaml:"devices,omitempty" env:"TEMPOPITCH_INPUT_DEVICES" envSeparator:","`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"TEMPOPITCH_LOG_LEVEL"`
	Format string `yaml:"format,omitempty" env:"TEMPOPITCH_LOG_FORMAT"` // text|json
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Tempo:       playback.DefaultTempo,
			Pitch:       playback.DefaultPitch,
			SkipSilence: playback.DefaultSkipSilence,
			StepSize:    float64(playback.DefaultStepSize),
		},
		Preferences: PreferencesConfig{
			Backend: prefs.BackendYAML,
			Path:    defaultPrefsPath,
		},
		IPC: IPCConfig{
			SocketPath: defaultSocketPath,
		},
		HTTP: HTTPConfig{
			Enabled:   true,
			Addr:      defaultHTTPAddr,
			WSSendBuf: 32,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of defaults.
// Unknown fields are rejected.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// ApplyEnv overlays TEMPOPITCH_* environment variables. Unset variables
// leave the current value untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// FlagOverrides holds command-line overrides. Nil pointers are ignored; a
// non-nil pointer is applied even if it holds the zero value.
type FlagOverrides struct {
	Tempo       *float64
	Pitch       *float64
	SkipSilence *bool
	StepSize    *float64
	StateFile   *string

	PrefsBackend *string
	PrefsPath    *string

	IPCSocketPath *string

	HTTPEnabled *bool
	HTTPAddr    *string

	InputDevices *string // comma-separated

	LogLevel  *string
	LogFormat *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Tempo != nil {
		cfg.Session.Tempo = *o.Tempo
	}
	if o.Pitch != nil {
		cfg.Session.Pitch = *o.Pitch
	}
	if o.SkipSilence != nil {
		cfg.Session.SkipSilence = *o.SkipSilence
	}
	if o.StepSize != nil {
		cfg.Session.StepSize = *o.StepSize
	}
	if o.StateFile != nil {
		cfg.Session.StateFile = *o.StateFile
	}

	if o.PrefsBackend != nil {
		cfg.Preferences.Backend = *o.PrefsBackend
	}
	if o.PrefsPath != nil {
		cfg.Preferences.Path = *o.PrefsPath
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}

	if o.HTTPEnabled != nil {
		cfg.HTTP.Enabled = *o.HTTPEnabled
	}
	if o.HTTPAddr != nil {
		cfg.HTTP.Addr = *o.HTTPAddr
	}

	if o.InputDevices != nil {
		cfg.Input.Devices = splitList(*o.InputDevices)
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.LogFormat != nil {
		cfg.Logging.Format = *o.LogFormat
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks config invariants and returns a user-friendly error.
// It is called after defaults, file, env and flags are applied.
func (c *Config) Validate() error {
	// Session
	if c.Session.Tempo < playback.MinValue || c.Session.Tempo > playback.MaxValue {
		return fmt.Errorf("session.tempo must be between %.2f and %.2f", playback.MinValue, playback.MaxValue)
	}
	if c.Session.Pitch < playback.MinValue || c.Session.Pitch > playback.MaxValue {
		return fmt.Errorf("session.pitch must be between %.2f and %.2f", playback.MinValue, playback.MaxValue)
	}
	if _, err := playback.ParseStepSize(c.Session.StepSize); err != nil {
		return fmt.Errorf("session.step_size: %w", err)
	}

	// Preferences
	switch strings.ToLower(c.Preferences.Backend) {
	case prefs.BackendMemory:
	case prefs.BackendYAML, prefs.BackendSQLite:
		if c.Preferences.Path == "" {
			return fmt.Errorf("preferences.path must not be empty for backend %q", c.Preferences.Backend)
		}
	default:
		return fmt.Errorf("preferences.backend must be %q, %q or %q", prefs.BackendYAML, prefs.BackendSQLite, prefs.BackendMemory)
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// HTTP
	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		return errors.New("http.enabled is true but http.addr is empty")
	}
	if c.HTTP.WSSendBuf < 0 {
		return errors.New("http.ws_send_buf must be >= 0")
	}

	// Input
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return errors.New("logging.format must be \"text\" or \"json\"")
	}

	return nil
}

// StepSize returns the validated session step size.
func (c *Config) StepSize() playback.StepSize {
	s, err := playback.ParseStepSize(c.Session.StepSize)
	if err != nil {
		return playback.DefaultStepSize
	}
	return s
}

// InitialValues returns the configured starting values of the player.
func (c *Config) InitialValues() playback.Values {
	return playback.Values{
		Tempo:       c.Session.Tempo,
		Pitch:       c.Session.Pitch,
		SkipSilence: c.Session.SkipSilence,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
