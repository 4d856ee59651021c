package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HendryAvila/pscale/internal/tree"
)

// Legacy storage keys.
const (
	V3Key    = "hermitcrab-pscale-v3"
	V2Key    = "hermitcrab-pscale-v2"
	G0Prefix = "ps:"
)

// KV is a flat string key/value store such as an exported localStorage.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
	Remove(ctx context.Context, keys ...string) error
}

// Rows is a one-row-per-coordinate store.
type Rows interface {
	All(ctx context.Context) (map[string]string, error)
}

// Source is one prior on-disk representation. Load returns a nil or empty
// snapshot when the source holds nothing.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Snapshot, error)
}

// Retirer is implemented by sources that must be cleaned up once their
// data has been imported.
type Retirer interface {
	Retire(ctx context.Context) error
}

// ─── V3: nested blob ─────────────────────────────────────────────────────────

// V3Blob reads a single JSON blob holding one nested tree per namespace
// plus a flat map of special keys.
type V3Blob struct {
	KV  KV
	Key string
}

type v3Doc struct {
	Trees map[string]struct {
		Decimal int             `json:"decimal"`
		Tree    json.RawMessage `json:"tree"`
	} `json:"trees"`
	Specials map[string]string `json:"specials"`
}

func (s V3Blob) Name() string { return "v3-blob" }

func (s V3Blob) Load(ctx context.Context) (*Snapshot, error) {
	raw, ok, err := s.KV.Get(ctx, keyOr(s.Key, V3Key))
	if err != nil || !ok {
		return nil, err
	}
	var doc v3Doc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("migrate: parse v3 blob: %w", err)
	}
	snap := &Snapshot{Trees: make(map[string]*tree.Tree), Flat: doc.Specials}
	for prefix, rec := range doc.Trees {
		t := tree.New(rec.Decimal)
		if len(rec.Tree) > 0 {
			n, err := tree.DecodeNode(rec.Tree)
			if err != nil {
				return nil, fmt.Errorf("migrate: v3 tree %s: %w", prefix, err)
			}
			if b, ok := n.(*tree.Branch); ok {
				t.Root = b
			}
		}
		snap.Trees[prefix] = t
	}
	return snap, nil
}

// ─── V2: flat blob ───────────────────────────────────────────────────────────

// V2Blob reads a single JSON object mapping coordinate strings to text.
type V2Blob struct {
	KV  KV
	Key string
}

func (s V2Blob) Name() string { return "v2-blob" }

func (s V2Blob) Load(ctx context.Context) (*Snapshot, error) {
	raw, ok, err := s.KV.Get(ctx, keyOr(s.Key, V2Key))
	if err != nil || !ok {
		return nil, err
	}
	var flat map[string]string
	if err := json.Unmarshal([]byte(raw), &flat); err != nil {
		return nil, fmt.Errorf("migrate: parse v2 blob: %w", err)
	}
	return &Snapshot{Flat: flat}, nil
}

// ─── V1: coordinate records ──────────────────────────────────────────────────

// V1Records reads one record per coordinate.
type V1Records struct {
	Rows Rows
}

func (s V1Records) Name() string { return "v1-records" }

func (s V1Records) Load(ctx context.Context) (*Snapshot, error) {
	all, err := s.Rows.All(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Flat: all}, nil
}

// ─── G0: prefixed keys ───────────────────────────────────────────────────────

// G0Keys reads one "ps:"-prefixed key per coordinate. The keys are removed
// once imported.
type G0Keys struct {
	KV     KV
	Prefix string
}

func (s G0Keys) Name() string { return "g0-keys" }

func (s G0Keys) Load(ctx context.Context) (*Snapshot, error) {
	prefix := keyOr(s.Prefix, G0Prefix)
	keys, err := s.KV.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	flat := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := s.KV.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			flat[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return &Snapshot{Flat: flat}, nil
}

// Retire removes every imported key.
func (s G0Keys) Retire(ctx context.Context) error {
	keys, err := s.KV.Keys(ctx, keyOr(s.Prefix, G0Prefix))
	if err != nil {
		return err
	}
	return s.KV.Remove(ctx, keys...)
}

func keyOr(k, def string) string {
	if k == "" {
		return def
	}
	return k
}

// Sources returns the standard adapters over a legacy key/value store and
// coordinate table, newest first. A nil rows skips the record generation.
func Sources(kv KV, rows Rows) []Source {
	out := []Source{V3Blob{KV: kv}, V2Blob{KV: kv}}
	if rows != nil {
		out = append(out, V1Records{Rows: rows})
	}
	return append(out, G0Keys{KV: kv})
}
