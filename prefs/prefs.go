// Package prefs persists the boolean playback toggles (coupling and semitone
// mode) across sessions.
//
// A Backend stores the values; Store adapts a Backend to
// playback.PreferenceStore, logging backend failures instead of returning
// them since the engine treats preferences as best-effort.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tempopitch/playback"
)

// Backend kinds accepted by Open.
const (
	BackendMemory = "memory"
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend is returned by Open for an unsupported backend kind.
var ErrUnknownBackend = errors.New("unknown preference backend")

// Backend is a persistent boolean key/value store.
type Backend interface {
	// Load returns the stored value and whether the key exists.
	Load(ctx context.Context, key string) (value bool, ok bool, err error)
	Save(ctx context.Context, key string, value bool) error
	Close() error
}

// Open opens the backend of the given kind. path is ignored for memory.
func Open(kind, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case BackendMemory:
		return NewMemory(), nil
	case BackendYAML, "":
		return OpenYAML(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}

// Store adapts a Backend to playback.PreferenceStore.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// NewStore wraps b. A nil logger discards backend errors.
func NewStore(b Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{backend: b, logger: logger}
}

// GetBool returns the stored value for key, or def when it is missing or
// cannot be read.
func (s *Store) GetBool(key string, def bool) bool {
	v, ok, err := s.backend.Load(context.Background(), key)
	if err != nil {
		s.logger.Warn("preference load failed", "key", key, "error", err)
		return def
	}
	if !ok {
		return def
	}
	return v
}

// SetBool stores value under key.
func (s *Store) SetBool(key string, value bool) {
	if err := s.backend.Save(context.Background(), key, value); err != nil {
		s.logger.Warn("preference save failed", "key", key, "value", value, "error", err)
	}
}

var _ playback.PreferenceStore = (*Store)(nil)
