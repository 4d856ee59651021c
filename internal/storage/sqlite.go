package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// DBFile is the database filename inside the data directory.
const DBFile = "pscale.db"

// ─── SQLite ──────────────────────────────────────────────────────────────────

// SQLite is the default backend. Current records live in the records
// table; legacy_kv and legacy_coords hold data written by earlier
// generations of the store and are only read by migration.
type SQLite struct {
	db    *sql.DB
	hooks dbHooks
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type dbHooks struct {
	exec  func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error)
	query func(ctx context.Context, db queryer, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLite) execHook(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(ctx, s.db, query, args...)
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *SQLite) queryHook(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.hooks.query != nil {
		return s.hooks.query(ctx, s.db, query, args...)
	}
	return s.db.QueryContext(ctx, query, args...)
}

// OpenSQLite creates the data directory if needed, opens SQLite with WAL
// mode, and creates the schema.
func OpenSQLite(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(dir, DBFile))
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("storage: pragma %q: %w", p, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	_, err := s.execHook(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			key        TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS legacy_kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS legacy_coords (
			coord   TEXT PRIMARY KEY,
			content TEXT NOT NULL
		);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get returns the record stored under key.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	rows, err := s.queryHook(ctx, "SELECT data FROM records WHERE key = ?", key)
	if err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("storage: get %s: %w", key, err)
		}
		return nil, ErrNotFound
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return data, nil
}

// Put replaces the record stored under key.
func (s *SQLite) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.execHook(ctx,
		`INSERT INTO records (key, data) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = datetime('now')`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

// Delete removes the record stored under key. Deleting a missing key is
// not an error.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.execHook(ctx, "DELETE FROM records WHERE key = ?", key); err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists every record key in ascending order.
func (s *SQLite) Keys(ctx context.Context) ([]string, error) {
	return s.column(ctx, "SELECT key FROM records ORDER BY key")
}

func (s *SQLite) column(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.queryHook(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return out, nil
}

// ─── Legacy tables ───────────────────────────────────────────────────────────

// LegacyKV is the flat string key/value table written by the first two
// generations of the store (one key per coordinate, later one JSON blob).
type LegacyKV struct{ s *SQLite }

// LegacyKV returns the legacy flat key/value table.
func (s *SQLite) LegacyKV() LegacyKV { return LegacyKV{s: s} }

// Get returns the value under key, with ok false when it is absent.
func (kv LegacyKV) Get(ctx context.Context, key string) (string, bool, error) {
	rows, err := kv.s.queryHook(ctx, "SELECT value FROM legacy_kv WHERE key = ?", key)
	if err != nil {
		return "", false, fmt.Errorf("storage: legacy get %s: %w", key, err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return "", false, rows.Err()
	}
	var v string
	if err := rows.Scan(&v); err != nil {
		return "", false, fmt.Errorf("storage: legacy get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key.
func (kv LegacyKV) Set(ctx context.Context, key, value string) error {
	_, err := kv.s.execHook(ctx,
		`INSERT INTO legacy_kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storage: legacy set %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys starting with prefix, ascending.
func (kv LegacyKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	return kv.s.column(ctx,
		"SELECT key FROM legacy_kv WHERE substr(key, 1, ?) = ? ORDER BY key",
		len(prefix), prefix,
	)
}

// Remove deletes keys. Missing keys are ignored.
func (kv LegacyKV) Remove(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := kv.s.execHook(ctx, "DELETE FROM legacy_kv WHERE key = ?", k); err != nil {
			return fmt.Errorf("storage: legacy remove %s: %w", k, err)
		}
	}
	return nil
}

// LegacyCoords is the one-row-per-coordinate table written by the
// record-store generation.
type LegacyCoords struct{ s *SQLite }

// LegacyCoords returns the legacy coordinate table.
func (s *SQLite) LegacyCoords() LegacyCoords { return LegacyCoords{s: s} }

// All returns every coordinate row.
func (lc LegacyCoords) All(ctx context.Context) (map[string]string, error) {
	rows, err := lc.s.queryHook(ctx, "SELECT coord, content FROM legacy_coords")
	if err != nil {
		return nil, fmt.Errorf("storage: legacy coords: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("storage: legacy coords: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: legacy coords: %w", err)
	}
	return out, nil
}

// Put stores one coordinate row.
func (lc LegacyCoords) Put(ctx context.Context, coord, content string) error {
	_, err := lc.s.execHook(ctx,
		`INSERT INTO legacy_coords (coord, content) VALUES (?, ?)
		 ON CONFLICT(coord) DO UPDATE SET content = excluded.content`,
		coord, content,
	)
	if err != nil {
		return fmt.Errorf("storage: legacy coords put %s: %w", coord, err)
	}
	return nil
}
