package prefs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// YAMLFile is a Backend keeping all values in one YAML mapping file. The
// file is read once at open and rewritten on every Save.
type YAMLFile struct {
	path string

	mu     sync.Mutex
	values map[string]bool
}

// OpenYAML opens the file at path. A missing file is treated as empty and is
// created on the first Save.
func OpenYAML(path string) (*YAMLFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("yaml preference path is required")
	}
	f := &YAMLFile{
		path:   filepath.Clean(path),
		values: make(map[string]bool),
	}

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preference file: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return f, nil
	}
	if err := yaml.Unmarshal(b, &f.values); err != nil {
		return nil, fmt.Errorf("decode preference yaml: %w", err)
	}
	if f.values == nil {
		f.values = make(map[string]bool)
	}
	return f, nil
}

// Path returns the backing file path.
func (f *YAMLFile) Path() string { return f.path }

func (f *YAMLFile) Load(ctx context.Context, key string) (bool, bool, error) {
	if err := ctx.Err(); err != nil {
		return false, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *YAMLFile) Save(ctx context.Context, key string, value bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	f.values[key] = value
	if err := f.flushLocked(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

// flushLocked writes the whole mapping through a temp file and rename so a
// crash never leaves a truncated file.
func (f *YAMLFile) flushLocked() error {
	b, err := yaml.Marshal(maps.Clone(f.values))
	if err != nil {
		return fmt.Errorf("encode preference yaml: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preference dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp preference file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write preference file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close preference file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace preference file: %w", err)
	}
	return nil
}

func (f *YAMLFile) Close() error { return nil }
