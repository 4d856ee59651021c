package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/pscale/internal/migrate"
	"github.com/HendryAvila/pscale/internal/storage"
)

// ─── Migration ───────────────────────────────────────────────────────────────

// migrate imports legacy data into an empty store. Legacy sources are the
// SQLite legacy tables, or the localStorage dump named by cfg.LegacyDump.
func (s *Store) migrate(ctx context.Context) (migrate.Report, error) {
	var (
		kv   migrate.KV
		rows migrate.Rows
	)
	if db, ok := s.backend.(*storage.SQLite); ok {
		kv = db.LegacyKV()
		rows = db.LegacyCoords()
	}
	if s.cfg.LegacyDump != "" {
		kv = storage.NewDumpKV(s.cfg.LegacyDump)
	}

	var sources []migrate.Source
	if kv != nil {
		sources = migrate.Sources(kv, rows)
	} else if rows != nil {
		sources = []migrate.Source{migrate.V1Records{Rows: rows}}
	}

	e := &migrate.Engine{
		Sources: sources,
		Target:  migrationTarget{s: s},
		Place:   s.place,
		Logger:  s.log,
	}
	return e.Run(ctx)
}

// Migrate runs the migration engine again. On a store that already holds
// data it reports a skip.
func (s *Store) Migrate(ctx context.Context) (migrate.Report, error) {
	return s.migrate(ctx)
}

// MigrationReport returns what the migration run at open did.
func (s *Store) MigrationReport() migrate.Report {
	return s.migration
}

// migrationTarget installs an imported image into the store.
type migrationTarget struct{ s *Store }

// Empty reports whether a migration should run. A finished marker or any
// record written without a marker means the store is in use; a pending
// marker means an earlier install stopped halfway and is redone.
func (t migrationTarget) Empty(ctx context.Context) (bool, error) {
	data, err := t.s.backend.Get(ctx, storage.MarkerKey)
	switch {
	case err == nil:
		var m migrate.Marker
		if err := json.Unmarshal(data, &m); err != nil {
			return false, fmt.Errorf("memory: decode migration marker: %w", err)
		}
		return m.Pending, nil
	case !storage.IsNotFound(err):
		return false, err
	}
	keys, err := t.s.backend.Keys(ctx)
	if err != nil {
		return false, err
	}
	return len(keys) == 0, nil
}

// Install writes a pending marker, every namespace of img, then the final
// marker. The store only counts as migrated once the final marker is down.
func (t migrationTarget) Install(ctx context.Context, img *migrate.Image, marker migrate.Marker) error {
	s := t.s
	pending := marker
	pending.Pending = true
	if err := s.putMarker(ctx, pending); err != nil {
		return err
	}

	var spaces []*namespace
	for _, prefix := range img.Prefixes() {
		ns := newNamespace(prefix, s.place(prefix))
		if tr, ok := img.Trees[prefix]; ok {
			ns.tree = tr
		}
		for k, v := range img.Literals[prefix] {
			ns.literals[k] = v
		}
		spaces = append(spaces, ns)
	}

	if err := s.persistAll(ctx, spaces); err != nil {
		return err
	}

	s.mu.Lock()
	for _, ns := range spaces {
		s.spaces[ns.prefix] = ns
	}
	s.mu.Unlock()

	marker.Pending = false
	return s.putMarker(ctx, marker)
}

func (s *Store) putMarker(ctx context.Context, m migrate.Marker) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("memory: encode migration marker: %w", err)
	}
	if err := s.backend.Put(ctx, storage.MarkerKey, data); err != nil {
		return fmt.Errorf("memory: persist migration marker: %w", err)
	}
	return nil
}
