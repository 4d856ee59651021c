// Package memory implements the pscale store: one digit-addressed tree per
// namespace prefix, persisted one record per namespace through a pluggable
// storage backend.
//
// The Store is the only component callers talk to. Every address goes
// through coord.Parse, every mutation is completed in memory under the
// namespace's lock and then persisted before the call returns. A failed
// persist rolls the namespace back to what was last written and returns
// the error; nothing else in this package is reported as an error.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/pscale/internal/coord"
	"github.com/HendryAvila/pscale/internal/migrate"
	"github.com/HendryAvila/pscale/internal/storage"
	"github.com/HendryAvila/pscale/internal/tree"
)

// Errors returned by mutating operations.
var (
	ErrEmptyContent     = errors.New("memory: content must not be empty")
	ErrInvalidNamespace = errors.New("memory: namespace prefix must be 1-8 letters")
)

// ConversationChannel is the root channel of the M namespace that holds
// the running conversation transcript.
const ConversationChannel = "_conv"

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds configuration for the store.
type Config struct {
	DataDir          string
	Backend          string
	DefaultNamespace string
	// Places maps namespace prefixes to their declared place. Prefixes not
	// listed here get DefaultPlace when first written.
	Places       map[string]int
	DefaultPlace int
	// LegacyDump, when set, is a JSON export of a browser localStorage that
	// migration reads instead of the SQLite legacy tables.
	LegacyDump string
	Logger     *slog.Logger
}

// DefaultPlaces returns the standard namespace set: S (spatial), M
// (memory log), T (temporal), I (identity), ST (stash), C (capabilities).
func DefaultPlaces() map[string]int {
	return map[string]int{"S": 1, "M": 0, "T": 1, "I": 1, "ST": 0, "C": 0}
}

// DefaultConfig returns the default configuration for the store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".pscale"),
		Backend:          storage.KindSQLite,
		DefaultNamespace: "M",
		Places:           DefaultPlaces(),
		DefaultPlace:     0,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the namespace registry over a storage backend.
type Store struct {
	cfg     Config
	backend storage.Backend
	log     *slog.Logger

	// migration is the report of the run made when the store opened.
	migration migrate.Report

	mu     sync.RWMutex
	spaces map[string]*namespace
}

// namespace is one prefix's tree plus its flat literal keys. persisted
// holds the last record successfully written and sum its checksum.
type namespace struct {
	mu        sync.RWMutex
	prefix    string
	tree      *tree.Tree
	literals  map[string]string
	persisted []byte
	sum       uint64
}

// Record is the persisted form of one namespace.
type Record struct {
	Place    int               `json:"place"`
	Tree     *tree.Branch      `json:"tree"`
	Literals map[string]string `json:"literals,omitempty"`
}

// New opens the configured backend under cfg.DataDir, runs migration and
// loads every namespace record.
func New(cfg Config) (*Store, error) {
	backend, err := storage.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("memory: open backend: %w", err)
	}
	s, err := Open(context.Background(), cfg, backend)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return s, nil
}

// Open builds a Store over an already opened backend.
func Open(ctx context.Context, cfg Config, backend storage.Backend) (*Store, error) {
	if cfg.DefaultNamespace == "" {
		cfg.DefaultNamespace = "M"
	}
	if cfg.Places == nil {
		cfg.Places = DefaultPlaces()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	s := &Store{
		cfg:     cfg,
		backend: backend,
		log:     log,
		spaces:  make(map[string]*namespace),
	}
	for prefix, place := range cfg.Places {
		s.spaces[prefix] = newNamespace(prefix, place)
	}

	rep, err := s.migrate(ctx)
	if err != nil {
		return nil, err
	}
	s.migration = rep
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func newNamespace(prefix string, place int) *namespace {
	return &namespace{prefix: prefix, tree: tree.New(place), literals: make(map[string]string)}
}

func (s *Store) place(prefix string) int {
	if p, ok := s.cfg.Places[prefix]; ok {
		return p
	}
	return s.cfg.DefaultPlace
}

// load reads every namespace record from the backend.
func (s *Store) load(ctx context.Context) error {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return fmt.Errorf("memory: list records: %w", err)
	}
	for _, key := range keys {
		if key == storage.MarkerKey {
			continue
		}
		data, err := s.backend.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("memory: load %s: %w", key, err)
		}
		ns, err := decodeNamespace(key, data)
		if err != nil {
			s.log.Warn("skipping unreadable namespace record", "prefix", key, "error", err)
			continue
		}
		s.mu.Lock()
		s.spaces[key] = ns
		s.mu.Unlock()
	}
	return nil
}

func decodeNamespace(prefix string, data []byte) (*namespace, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	ns := &namespace{
		prefix:    prefix,
		tree:      &tree.Tree{Place: rec.Place, Root: rec.Tree},
		literals:  rec.Literals,
		persisted: data,
		sum:       xxhash.Sum64(data),
	}
	if ns.tree.Root == nil {
		ns.tree.Root = &tree.Branch{}
	}
	if ns.literals == nil {
		ns.literals = make(map[string]string)
	}
	return ns, nil
}

// lookup returns the namespace for prefix, or nil.
func (s *Store) lookup(prefix string) *namespace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spaces[prefix]
}

// ensure returns the namespace for prefix, creating it with its
// configured place on first use.
func (s *Store) ensure(prefix string) *namespace {
	if ns := s.lookup(prefix); ns != nil {
		return ns
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ns, ok := s.spaces[prefix]; ok {
		return ns
	}
	ns := newNamespace(prefix, s.place(prefix))
	s.spaces[prefix] = ns
	return ns
}

// parse resolves an address in the default namespace.
func (s *Store) parse(addr string) coord.Coordinate {
	return coord.Parse(addr, s.cfg.DefaultNamespace)
}

// ─── Persistence ─────────────────────────────────────────────────────────────

func (ns *namespace) empty() bool {
	return (ns.tree.Root == nil || ns.tree.Root.Empty()) && len(ns.literals) == 0
}

func (ns *namespace) encode() ([]byte, error) {
	rec := Record{Place: ns.tree.Place, Tree: ns.tree.Root}
	if len(ns.literals) > 0 {
		rec.Literals = ns.literals
	}
	return json.Marshal(rec)
}

// persist writes ns to the backend. The caller holds ns.mu for writing.
// An unchanged record is not rewritten and a namespace left with no
// content has its record deleted. On failure the namespace is rolled back
// to the last persisted record.
func (s *Store) persist(ctx context.Context, ns *namespace) error {
	if ns.empty() {
		if ns.persisted == nil {
			return nil
		}
		if err := s.backend.Delete(ctx, ns.prefix); err != nil {
			s.rollback(ns)
			s.log.Error("delete record failed", "prefix", ns.prefix, "error", err)
			return fmt.Errorf("memory: delete %s: %w", ns.prefix, err)
		}
		ns.persisted = nil
		ns.sum = 0
		return nil
	}

	data, err := ns.encode()
	if err != nil {
		s.rollback(ns)
		return fmt.Errorf("memory: encode %s: %w", ns.prefix, err)
	}
	sum := xxhash.Sum64(data)
	if ns.persisted != nil && sum == ns.sum {
		return nil
	}
	if err := s.backend.Put(ctx, ns.prefix, data); err != nil {
		s.rollback(ns)
		s.log.Error("persist failed", "prefix", ns.prefix, "error", err)
		return fmt.Errorf("memory: persist %s: %w", ns.prefix, err)
	}
	ns.persisted = data
	ns.sum = sum
	return nil
}

func (s *Store) rollback(ns *namespace) {
	if ns.persisted == nil {
		ns.tree = tree.New(ns.tree.Place)
		ns.literals = make(map[string]string)
		return
	}
	prev, err := decodeNamespace(ns.prefix, ns.persisted)
	if err != nil {
		return
	}
	ns.tree = prev.tree
	ns.literals = prev.literals
}

// persistAll writes several namespaces concurrently, one Put each.
func (s *Store) persistAll(ctx context.Context, spaces []*namespace) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, ns := range spaces {
		g.Go(func() error {
			ns.mu.Lock()
			defer ns.mu.Unlock()
			return s.persist(gctx, ns)
		})
	}
	return g.Wait()
}

// ─── Read / Write / Delete ───────────────────────────────────────────────────

// Read returns the content of channel at addr. An empty channel means the
// default channel. Special keys read their flat value, falling back to the
// dimension they were migrated into ("M:conv" → M root, "_conv").
func (s *Store) Read(addr, channel string) (string, bool) {
	c := s.parse(addr)
	ns := s.lookup(c.Prefix)
	if ns == nil {
		return "", false
	}
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	if c.IsSpecial() {
		if v, ok := ns.literals[c.Literal]; ok {
			return v, true
		}
		target, ch, ok := coord.SplitSpecial(c)
		if !ok {
			return "", false
		}
		return ns.tree.Read(target, ch)
	}
	return ns.tree.Read(c, channel)
}

// Write stores content on channel at addr, creating the path and promoting
// leaves as needed. Special keys are stored flat and ignore channel.
func (s *Store) Write(ctx context.Context, addr, content, channel string) error {
	if content == "" {
		return ErrEmptyContent
	}
	c := s.parse(addr)
	if !coord.ValidPrefix(c.Prefix) {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, c.Prefix)
	}

	ns := s.ensure(c.Prefix)
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if c.IsSpecial() {
		ns.literals[c.Literal] = content
	} else if err := ns.tree.Write(c, content, channel); err != nil {
		return fmt.Errorf("memory: write %s: %w", c, err)
	}
	return s.persist(ctx, ns)
}

// Delete removes channel at addr and reports whether anything was removed.
// Emptied branches are pruned up to the namespace root.
func (s *Store) Delete(ctx context.Context, addr, channel string) (bool, error) {
	c := s.parse(addr)
	ns := s.lookup(c.Prefix)
	if ns == nil {
		return false, nil
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()

	removed := false
	if c.IsSpecial() {
		if _, ok := ns.literals[c.Literal]; ok {
			delete(ns.literals, c.Literal)
			removed = true
		} else if target, ch, ok := coord.SplitSpecial(c); ok {
			removed = ns.tree.Delete(target, ch)
		}
	} else {
		removed = ns.tree.Delete(c, channel)
	}
	if !removed {
		return false, nil
	}
	if err := s.persist(ctx, ns); err != nil {
		return false, err
	}
	return true, nil
}

// Place returns the declared place of a namespace.
func (s *Store) Place(prefix string) int {
	if ns := s.lookup(prefix); ns != nil {
		ns.mu.RLock()
		defer ns.mu.RUnlock()
		return ns.tree.Place
	}
	return s.place(prefix)
}

// DefaultNamespace is the prefix used for bare addresses.
func (s *Store) DefaultNamespace() string { return s.cfg.DefaultNamespace }

// Prefixes returns every known namespace prefix, sorted.
func (s *Store) Prefixes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.spaces))
	for p := range s.spaces {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Now returns the current time formatted for records and exports.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
