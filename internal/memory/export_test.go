package memory

import "github.com/HendryAvila/pscale/internal/storage"

// Backend exposes the storage backend for test helpers in memory_test.
// This file only compiles during `go test`.
func (s *Store) Backend() storage.Backend {
	return s.backend
}
