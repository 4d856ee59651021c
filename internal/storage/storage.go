// Package storage provides the durable backends behind the pscale store.
//
// The store issues whole-record get/put/delete calls, one record per
// namespace, and assumes nothing beyond "read what was last written".
// SQLite is the default backend; File keeps one JSON file per record and
// Memory serves tests.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no record exists for a key.
var ErrNotFound = errors.New("storage: record not found")

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// MarkerKey is reserved for the migration marker record.
const MarkerKey = "_meta"

// Backend is a whole-record key/value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Kind names a backend implementation.
const (
	KindSQLite = "sqlite"
	KindFile   = "file"
	KindMemory = "memory"
)

// Open creates the backend named by kind rooted at dir.
func Open(kind, dir string) (Backend, error) {
	switch kind {
	case "", KindSQLite:
		return OpenSQLite(dir)
	case KindFile:
		return OpenFile(dir)
	case KindMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("storage: unknown backend %q", kind)
}
