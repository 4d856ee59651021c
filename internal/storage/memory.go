package storage

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process backend.
type Memory struct {
	mu      sync.Mutex
	records map[string][]byte
	puts    int
	failPut error
	failKey map[string]error
}

// NewMemory returns an empty in-process backend.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

// Get returns a copy of the record stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put replaces the record stored under key.
func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	if err := m.failKey[key]; err != nil {
		return err
	}
	m.records[key] = append([]byte(nil), data...)
	m.puts++
	return nil
}

// Delete removes the record stored under key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

// Keys lists every record key in ascending order.
func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Puts counts successful Put calls.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// SetFailPut makes every Put return err until cleared with nil.
func (m *Memory) SetFailPut(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPut = err
}

// SetFailPutKey makes Put of key return err until cleared with nil.
func (m *Memory) SetFailPutKey(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failKey == nil {
		m.failKey = make(map[string]error)
	}
	if err == nil {
		delete(m.failKey, key)
		return
	}
	m.failKey[key] = err
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
