package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const recordExt = ".json"

// ─── File ────────────────────────────────────────────────────────────────────

// File keeps one JSON file per record in a directory. Writes go through a
// temporary file and a rename so a crash never leaves a torn record.
type File struct {
	dir string
}

// OpenFile creates dir if needed and returns a file backend rooted there.
func OpenFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+recordExt)
}

// Get returns the record stored under key.
func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, nil
}

// Put replaces the record stored under key.
func (f *File) Put(_ context.Context, key string, data []byte) error {
	path := f.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("storage: atomic rename %s: %w", path, err)
	}
	return nil
}

// Delete removes the record stored under key.
func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists every record key in ascending order.
func (f *File) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", f.dir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, recordExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op.
func (f *File) Close() error { return nil }

// ─── Key/value dump ─────────────────────────────────────────────────────────

// DumpKV reads a flat JSON object of string keys to string values, the
// shape of an exported browser localStorage. Remove rewrites the file.
type DumpKV struct {
	path string
	mu   sync.Mutex
}

// NewDumpKV returns a key/value view over the JSON object at path. A
// missing file reads as empty.
func NewDumpKV(path string) *DumpKV {
	return &DumpKV{path: path}
}

func (d *DumpKV) load() (map[string]string, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read dump: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("storage: parse dump %s: %w", d.path, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// Get returns the value under key, with ok false when it is absent.
func (d *DumpKV) Get(_ context.Context, key string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, err := d.load()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Keys lists the keys starting with prefix, ascending.
func (d *DumpKV) Keys(_ context.Context, prefix string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, err := d.load()
	if err != nil {
		return nil, err
	}
	var keys []string
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Remove deletes keys and rewrites the dump.
func (d *DumpKV) Remove(_ context.Context, keys ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, err := d.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(m, k)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode dump: %w", err)
	}
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("storage: write dump: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("storage: atomic rename %s: %w", d.path, err)
	}
	return nil
}
