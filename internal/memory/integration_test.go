package memory_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/HendryAvila/pscale/internal/memory"
	"github.com/HendryAvila/pscale/internal/migrate"
	"github.com/HendryAvila/pscale/internal/storage"
)

// seedLegacy writes legacy tables into a fresh SQLite database under dir
// before any Store has opened it.
func seedLegacy(t *testing.T, dir string, kv map[string]string, coords map[string]string) {
	t.Helper()
	db, err := storage.OpenSQLite(dir)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	for k, v := range kv {
		if err := db.LegacyKV().Set(ctx, k, v); err != nil {
			t.Fatalf("seed kv %s: %v", k, err)
		}
	}
	for k, v := range coords {
		if err := db.LegacyCoords().Put(ctx, k, v); err != nil {
			t.Fatalf("seed coords %s: %v", k, err)
		}
	}
}

func openDir(t *testing.T, dir string) *memory.Store {
	t.Helper()
	cfg := memory.DefaultConfig()
	cfg.DataDir = dir
	cfg.Logger = quietLogger()
	s, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ─── Migration ──────────────────────────────────────────────────────────────

func TestMigration_V2BlobWithSpecials(t *testing.T) {
	dir := t.TempDir()
	blob, _ := json.Marshal(map[string]string{
		"S:0":    "world",
		"S:0.2":  "south",
		"S:0.2v": "v3",
		"M:1":    "first",
		"M:conv": "hello there",
	})
	seedLegacy(t, dir, map[string]string{migrate.V2Key: string(blob)}, nil)

	s := openDir(t, dir)
	if got, _ := s.Read("S:0.2", "_v"); got != "v3" {
		t.Errorf("version dimension = %q", got)
	}
	if got, _ := s.Read("M:", memory.ConversationChannel); got != "hello there" {
		t.Errorf("conversation channel = %q", got)
	}
	if got, _ := s.Read("M:conv", ""); got != "hello there" {
		t.Errorf("special read falls back to dimension: got %q", got)
	}
	if got, _ := s.Read("S:0", ""); got != "world" {
		t.Errorf("S:0 = %q", got)
	}
}

func TestMigration_G0KeysRetired(t *testing.T) {
	dir := t.TempDir()
	seedLegacy(t, dir, map[string]string{"ps:M:1": "first", "ps:M:2": "second"}, nil)

	s := openDir(t, dir)
	if got, _ := s.Read("M:2", ""); got != "second" {
		t.Errorf("M:2 = %q", got)
	}
	db := s.Backend().(*storage.SQLite)
	keys, err := db.LegacyKV().Keys(ctx, "ps:")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("g0 keys not retired: %v", keys)
	}
}

func TestMigration_V1Records(t *testing.T) {
	dir := t.TempDir()
	seedLegacy(t, dir, nil, map[string]string{"T:1": "dawn", "T:1.1": "first light"})

	s := openDir(t, dir)
	if got, _ := s.Read("T:1.1", ""); got != "first light" {
		t.Errorf("T:1.1 = %q", got)
	}
}

func TestMigration_Idempotent(t *testing.T) {
	dir := t.TempDir()
	blob, _ := json.Marshal(map[string]string{"S:0": "world", "M:conv": "hi"})
	seedLegacy(t, dir, map[string]string{migrate.V2Key: string(blob)}, nil)

	s := openDir(t, dir)
	first := s.Export()

	rep, err := s.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !rep.Skipped {
		t.Error("second migration should skip")
	}
	second := s.Export()
	if !reflect.DeepEqual(first.Namespaces, second.Namespaces) {
		t.Error("store content changed after second migration")
	}
}

func TestMigration_CorruptSourceFallsThrough(t *testing.T) {
	dir := t.TempDir()
	seedLegacy(t, dir,
		map[string]string{migrate.V3Key: "{broken", "ps:S:0": "world"},
		nil,
	)
	s := openDir(t, dir)
	if got, _ := s.Read("S:0", ""); got != "world" {
		t.Errorf("S:0 = %q, want import from older source", got)
	}
}

func TestMigration_LegacyDump(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(t.TempDir(), "localStorage.json")
	blob, _ := json.Marshal(map[string]string{"I:0": "self"})
	raw, _ := json.Marshal(map[string]string{migrate.V2Key: string(blob)})
	if err := os.WriteFile(dump, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := memory.DefaultConfig()
	cfg.DataDir = dir
	cfg.Backend = storage.KindFile
	cfg.LegacyDump = dump
	cfg.Logger = quietLogger()
	s, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if got, _ := s.Read("I:0", ""); got != "self" {
		t.Errorf("I:0 = %q", got)
	}
}

// writeDump writes a localStorage dump holding a v2 blob.
func writeDump(t *testing.T, flat map[string]string) string {
	t.Helper()
	dump := filepath.Join(t.TempDir(), "localStorage.json")
	blob, _ := json.Marshal(flat)
	raw, _ := json.Marshal(map[string]string{migrate.V2Key: string(blob)})
	if err := os.WriteFile(dump, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	return dump
}

func TestMigration_PartialInstallIsRedone(t *testing.T) {
	dump := writeDump(t, map[string]string{"S:0": "world", "M:1": "first"})
	backend := storage.NewMemory()
	backend.SetFailPutKey("S", errors.New("disk full"))

	cfg := memory.DefaultConfig()
	cfg.LegacyDump = dump
	cfg.Logger = quietLogger()
	if _, err := memory.Open(ctx, cfg, backend); err == nil {
		t.Fatal("expected the failed install to be reported")
	}

	backend.SetFailPutKey("S", nil)
	s, err := memory.Open(ctx, cfg, backend)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	if got, ok := s.Read("S:0", ""); !ok || got != "world" {
		t.Errorf("S:0 = %q, %v; want the legacy value after the retried install", got, ok)
	}
	if got, _ := s.Read("M:1", ""); got != "first" {
		t.Errorf("M:1 = %q", got)
	}

	var m migrate.Marker
	raw, err := backend.Get(ctx, storage.MarkerKey)
	if err != nil {
		t.Fatalf("marker: %v", err)
	}
	if err := json.Unmarshal(raw, &m); err != nil || m.Pending {
		t.Errorf("marker = %+v (%v), want a finished marker", m, err)
	}
}

func TestMigration_RecordsWithoutMarkerAreKept(t *testing.T) {
	backend := storage.NewMemory()
	cfg := memory.DefaultConfig()
	cfg.Logger = quietLogger()
	s, err := memory.Open(ctx, cfg, backend)
	if err != nil {
		t.Fatal(err)
	}
	mustWrite(t, s, "S:0", "mine", "")

	cfg.LegacyDump = writeDump(t, map[string]string{"S:0": "legacy"})
	s, err = memory.Open(ctx, cfg, backend)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Read("S:0", ""); got != "mine" {
		t.Errorf("S:0 = %q, a store in use must not be migrated over", got)
	}
}

// ─── Export / Import ────────────────────────────────────────────────────────

func TestExportImport_RoundTrip(t *testing.T) {
	src := newTestStore(t)
	mustWrite(t, src, "S:0", "world", "")
	mustWrite(t, src, "S:0.1", "north", "")
	mustWrite(t, src, "S:0.1", "v1", "v")
	mustWrite(t, src, "M:title", "log", "")

	data := src.Export()
	if data.Version != memory.ExportVersion || len(data.Namespaces) != 2 {
		t.Fatalf("Export = %+v", data)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	var back memory.ExportData
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}

	dst := newTestStore(t)
	res, err := dst.Import(ctx, &back)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.NamespacesImported != 2 || res.CoordinatesImported != 2 {
		t.Errorf("ImportResult = %+v", res)
	}
	if got, _ := dst.Read("S:0.1", "_v"); got != "v1" {
		t.Errorf("dimension after import = %q", got)
	}
	if got, _ := dst.Read("M:title", ""); got != "log" {
		t.Errorf("literal after import = %q", got)
	}
}

func TestImport_RejectsBadPrefix(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Import(ctx, &memory.ExportData{Namespaces: map[string]memory.Record{"1": {}}})
	if err == nil {
		t.Error("expected error for invalid namespace")
	}
}

// ─── Stats ──────────────────────────────────────────────────────────────────

func TestStats(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s, "S:0", "world", "")
	mustWrite(t, s, "S:0.1", "north", "")
	mustWrite(t, s, "S:0.1", "v1", "v")
	mustWrite(t, s, "M:", "chat", "conv")
	mustWrite(t, s, "M:title", "log", "")

	st := s.Stats()
	if st.TotalCoordinates != 2 || st.TotalChannels != 2 || st.TotalLiterals != 1 {
		t.Errorf("Stats = %+v", st)
	}
	if st.TotalNamespaces != 6 {
		t.Errorf("TotalNamespaces = %d", st.TotalNamespaces)
	}
}
