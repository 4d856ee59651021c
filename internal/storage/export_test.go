package storage

import (
	"context"
	"database/sql"
)

// DB exposes the internal *sql.DB for test helpers in storage_test.
// This file only compiles during `go test`.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// FailExec makes every statement executed through the store return err.
func (s *SQLite) FailExec(err error) {
	s.hooks.exec = func(context.Context, execer, string, ...any) (sql.Result, error) {
		return nil, err
	}
}
