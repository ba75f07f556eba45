package prefs

import (
	"context"
	"maps"
	"sync"
)

// Memory is an in-process Backend. Values are lost on exit.
type Memory struct {
	mu     sync.Mutex
	values map[string]bool
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]bool)}
}

func (m *Memory) Load(ctx context.Context, key string) (bool, bool, error) {
	if err := ctx.Err(); err != nil {
		return false, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Save(ctx context.Context, key string, value bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

// Values returns a copy of everything stored.
func (m *Memory) Values() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.values)
}

func (m *Memory) Close() error { return nil }
