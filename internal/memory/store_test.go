package memory_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/HendryAvila/pscale/internal/coord"
	"github.com/HendryAvila/pscale/internal/memory"
	"github.com/HendryAvila/pscale/internal/storage"
	"github.com/HendryAvila/pscale/internal/tree"
)

var ctx = context.Background()

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	cfg := memory.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Logger = quietLogger()
	s, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newMemoryStore creates a Store over an in-process backend.
func newMemoryStore(t *testing.T) (*memory.Store, *storage.Memory) {
	t.Helper()
	backend := storage.NewMemory()
	cfg := memory.DefaultConfig()
	cfg.Logger = quietLogger()
	s, err := memory.Open(ctx, cfg, backend)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return s, backend
}

func mustWrite(t *testing.T, s *memory.Store, addr, content, channel string) {
	t.Helper()
	if err := s.Write(ctx, addr, content, channel); err != nil {
		t.Fatalf("Write(%s): %v", addr, err)
	}
}

func strs(cs []coord.Coordinate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.String())
	}
	return out
}

// ─── New / Initialization ───────────────────────────────────────────────────

func TestNew_DefaultNamespaces(t *testing.T) {
	s := newTestStore(t)
	want := []string{"C", "I", "M", "S", "ST", "T"}
	if got := s.Prefixes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Prefixes() = %v, want %v", got, want)
	}
	if s.Place("S") != 1 || s.Place("M") != 0 {
		t.Errorf("places S=%d M=%d, want 1 and 0", s.Place("S"), s.Place("M"))
	}
}

func TestNew_IdempotentReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := memory.DefaultConfig()
	cfg.DataDir = dir
	cfg.Logger = quietLogger()

	s1, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	mustWrite(t, s1, "S:0.12", "harbour", "")
	mustWrite(t, s1, "M:", "transcript", memory.ConversationChannel)
	s1.Close()

	s2, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	if got, ok := s2.Read("S:0.12", ""); !ok || got != "harbour" {
		t.Errorf("Read after reopen = %q, %v", got, ok)
	}
	if got, _ := s2.Read("M:", "conv"); got != "transcript" {
		t.Errorf("conversation channel = %q", got)
	}
}

func TestNew_FileBackend(t *testing.T) {
	cfg := memory.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Backend = storage.KindFile
	cfg.Logger = quietLogger()
	s, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	mustWrite(t, s, "T:1", "morning", "")
	if got, _ := s.Read("T:1", ""); got != "morning" {
		t.Errorf("Read = %q", got)
	}
}

// ─── Read / Write ───────────────────────────────────────────────────────────

func TestWrite_ReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s, "S:0.123", "deep", "")
	got, ok := s.Read("S:0.123", "")
	if !ok || got != "deep" {
		t.Errorf("Read = %q, %v", got, ok)
	}
	if _, ok := s.Read("S:0.12", ""); ok {
		t.Error("intermediate coordinate should have no content")
	}
}

func TestWrite_FirstThenSummary(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s, "1", "first", "")
	mustWrite(t, s, "10", "summary", "")

	if got, _ := s.Read("M:1", ""); got != "first" {
		t.Errorf("read(1) = %q, want first", got)
	}
	if got, _ := s.Read("M:10", ""); got != "summary" {
		t.Errorf("read(10) = %q, want summary", got)
	}
	p := s.NextMemory("")
	if p.Type != tree.ProposalEntry || p.Coordinate.String() != "M:11" {
		t.Errorf("NextMemory = %s %s, want entry M:11", p.Type, p.Coordinate)
	}
}

func TestWrite_RejectsEmptyContent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(ctx, "S:0", "", ""); !errors.Is(err, memory.ErrEmptyContent) {
		t.Errorf("err = %v, want ErrEmptyContent", err)
	}
}

func TestWrite_WhitespaceIsContent(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s, "M:1", "  ", "")
	if got, ok := s.Read("M:1", ""); !ok || got != "  " {
		t.Errorf("Read = %q, %v; want the whitespace back", got, ok)
	}
}

func TestWrite_RejectsInvalidNamespace(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(ctx, "9X:1", "x", ""); !errors.Is(err, memory.ErrInvalidNamespace) {
		t.Errorf("err = %v, want ErrInvalidNamespace", err)
	}
}

func TestWrite_NewNamespaceUsesDefaultPlace(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s, "Q:12", "x", "")
	if s.Place("Q") != 0 {
		t.Errorf("Place(Q) = %d", s.Place("Q"))
	}
	if got := strs(s.Children("Q:1")); !reflect.DeepEqual(got, []string{"Q:12"}) {
		t.Errorf("Children = %v", got)
	}
}

func TestSpecialKeys_StoredFlat(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s, "S:title", "The World", "")
	if got, ok := s.Read("S:title", ""); !ok || got != "The World" {
		t.Errorf("Read special = %q, %v", got, ok)
	}
	if len(s.Children("S:")) != 0 {
		t.Error("special key must not create tree nodes")
	}
}

func TestSpecialKeys_FallBackToDimension(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s, "S:0.2", "south", "")
	mustWrite(t, s, "S:0.2", "v4", "_v")

	if got, ok := s.Read("S:0.2v", ""); !ok || got != "v4" {
		t.Errorf("Read(S:0.2v) = %q, %v, want dimension value", got, ok)
	}
}

func TestDimensions(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s, "S:0.2", "south", "")
	mustWrite(t, s, "S:0.2", "v4", "v")
	if got := s.Dimensions("S:0.2"); !reflect.DeepEqual(got, []string{"_", "_v"}) {
		t.Errorf("Dimensions = %v", got)
	}
}

// ─── Delete ─────────────────────────────────────────────────────────────────

func TestDelete_Prunes(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s, "S:0.12", "x", "")

	removed, err := s.Delete(ctx, "S:0.12", "")
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v", removed, err)
	}
	if got := s.Children("S:"); len(got) != 0 {
		t.Errorf("Children(S:) = %v, want pruned", strs(got))
	}

	removed, err = s.Delete(ctx, "S:0.12", "")
	if err != nil || removed {
		t.Errorf("second Delete = %v, %v", removed, err)
	}
}

func TestDelete_EmptiedNamespaceDropsRecord(t *testing.T) {
	s, backend := newMemoryStore(t)
	mustWrite(t, s, "T:1", "dawn", "")
	if _, err := backend.Get(ctx, "T"); err != nil {
		t.Fatalf("record after write: %v", err)
	}

	if removed, err := s.Delete(ctx, "T:1", ""); err != nil || !removed {
		t.Fatalf("Delete = %v, %v", removed, err)
	}
	if _, err := backend.Get(ctx, "T"); !storage.IsNotFound(err) {
		t.Errorf("Get after emptying = %v, want not found", err)
	}

	mustWrite(t, s, "T:1", "dusk", "")
	if got, _ := s.Read("T:1", ""); got != "dusk" {
		t.Errorf("T:1 = %q", got)
	}
}

func TestDelete_Literal(t *testing.T) {
	s := newTestStore(t)
	mustWrite(t, s, "M:conv", "chat", "")
	removed, err := s.Delete(ctx, "M:conv", "")
	if err != nil || !removed {
		t.Fatalf("Delete literal = %v, %v", removed, err)
	}
	if _, ok := s.Read("M:conv", ""); ok {
		t.Error("literal still readable")
	}
}

// ─── Persistence ────────────────────────────────────────────────────────────

func TestPersist_FailureRollsBack(t *testing.T) {
	s, backend := newMemoryStore(t)
	mustWrite(t, s, "S:0", "kept", "")

	boom := errors.New("disk full")
	backend.SetFailPut(boom)
	err := s.Write(ctx, "S:0", "lost", "")
	if !errors.Is(err, boom) {
		t.Fatalf("Write err = %v, want %v", err, boom)
	}
	if got, _ := s.Read("S:0", ""); got != "kept" {
		t.Errorf("Read after failed write = %q, want rollback to kept", got)
	}

	if _, err := s.Delete(ctx, "S:0", ""); !errors.Is(err, boom) {
		t.Errorf("Delete err = %v", err)
	}
	if got, _ := s.Read("S:0", ""); got != "kept" {
		t.Errorf("Read after failed delete = %q", got)
	}
}

func TestPersist_FailureOnFreshNamespace(t *testing.T) {
	s, backend := newMemoryStore(t)
	backend.SetFailPut(errors.New("offline"))
	if err := s.Write(ctx, "T:1", "x", ""); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := s.Read("T:1", ""); ok {
		t.Error("failed write must not be visible")
	}
}

func TestPersist_UnchangedRecordSkipped(t *testing.T) {
	s, backend := newMemoryStore(t)
	mustWrite(t, s, "M:1", "same", "")
	before := backend.Puts()
	mustWrite(t, s, "M:1", "same", "")
	if backend.Puts() != before {
		t.Errorf("Puts = %d, want %d (unchanged record rewritten)", backend.Puts(), before)
	}
}

func TestPersist_RecordShape(t *testing.T) {
	s, backend := newMemoryStore(t)
	mustWrite(t, s, "S:0", "world", "")
	mustWrite(t, s, "S:0.1", "north", "")
	data, err := backend.Get(ctx, "S")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := `{"place":1,"tree":{"0":{"1":"north","_":"world"}}}`
	if string(data) != want {
		t.Errorf("record = %s\nwant     %s", data, want)
	}
}

// ─── Concurrency ────────────────────────────────────────────────────────────

func TestWrite_ConcurrentNamespaces(t *testing.T) {
	s := newTestStore(t)
	done := make(chan error)
	for _, p := range []string{"S", "M", "T", "I"} {
		go func() {
			var err error
			for d := 1; d <= 9 && err == nil; d++ {
				err = s.Write(ctx, fmt.Sprintf("%s:%d", p, d), "x", "")
			}
			done <- err
		}()
	}
	for range 4 {
		if err := <-done; err != nil {
			t.Fatalf("concurrent write: %v", err)
		}
	}
	if got := s.Stats().TotalCoordinates; got != 36 {
		t.Errorf("TotalCoordinates = %d, want 36", got)
	}
}
