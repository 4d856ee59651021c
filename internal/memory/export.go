package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/HendryAvila/pscale/internal/coord"
	"github.com/HendryAvila/pscale/internal/tree"
)

// ExportVersion tags the export format.
const ExportVersion = "1"

// ExportData is a full dump of the store.
type ExportData struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Namespaces map[string]Record `json:"namespaces"`
}

// ImportResult reports what Import replaced.
type ImportResult struct {
	NamespacesImported  int `json:"namespaces_imported"`
	CoordinatesImported int `json:"coordinates_imported"`
}

// ─── Export / Import ─────────────────────────────────────────────────────────

// Export dumps every non-empty namespace.
func (s *Store) Export() *ExportData {
	data := &ExportData{
		Version:    ExportVersion,
		ExportedAt: Now(),
		Namespaces: make(map[string]Record),
	}
	for _, prefix := range s.Prefixes() {
		ns := s.lookup(prefix)
		ns.mu.RLock()
		if !ns.tree.Root.Empty() || len(ns.literals) > 0 {
			rec := Record{Place: ns.tree.Place, Tree: ns.tree.Root.Clone()}
			if len(ns.literals) > 0 {
				rec.Literals = make(map[string]string, len(ns.literals))
				for k, v := range ns.literals {
					rec.Literals[k] = v
				}
			}
			data.Namespaces[prefix] = rec
		}
		ns.mu.RUnlock()
	}
	return data
}

// Import replaces every namespace present in data and persists them.
// Namespaces not named in data are left untouched.
func (s *Store) Import(ctx context.Context, data *ExportData) (*ImportResult, error) {
	if data == nil {
		return &ImportResult{}, nil
	}
	prefixes := make([]string, 0, len(data.Namespaces))
	for p := range data.Namespaces {
		if !coord.ValidPrefix(p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNamespace, p)
		}
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	result := &ImportResult{}
	var spaces []*namespace
	for _, p := range prefixes {
		rec := data.Namespaces[p]
		ns := s.ensure(p)
		ns.mu.Lock()
		root := rec.Tree.Clone()
		if root == nil {
			root = &tree.Branch{}
		}
		ns.tree = &tree.Tree{Place: rec.Place, Root: root}
		ns.literals = make(map[string]string, len(rec.Literals))
		for k, v := range rec.Literals {
			ns.literals[k] = v
		}
		result.CoordinatesImported += len(ns.tree.Populated(p))
		ns.mu.Unlock()
		spaces = append(spaces, ns)
	}

	if err := s.persistAll(ctx, spaces); err != nil {
		return nil, fmt.Errorf("memory: import: %w", err)
	}
	result.NamespacesImported = len(spaces)
	return result, nil
}

// RecordJSON returns the persisted form of one namespace, indented.
func (s *Store) RecordJSON(prefix string) ([]byte, bool) {
	ns := s.lookup(prefix)
	if ns == nil {
		return nil, false
	}
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	rec := Record{Place: ns.tree.Place, Tree: ns.tree.Root}
	if len(ns.literals) > 0 {
		rec.Literals = ns.literals
	}
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, false
	}
	return out, true
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// NamespaceStats describes one namespace.
type NamespaceStats struct {
	Prefix      string `json:"prefix"`
	Place       int    `json:"place"`
	Coordinates int    `json:"coordinates"`
	Channels    int    `json:"channels"`
	Literals    int    `json:"literals"`
	Bytes       int    `json:"bytes"`
}

// Stats holds aggregate store statistics.
type Stats struct {
	TotalNamespaces  int              `json:"total_namespaces"`
	TotalCoordinates int              `json:"total_coordinates"`
	TotalChannels    int              `json:"total_channels"`
	TotalLiterals    int              `json:"total_literals"`
	Namespaces       []NamespaceStats `json:"namespaces"`
}

// Stats counts populated coordinates, named channels and literals per
// namespace. Bytes is the size of the last persisted record.
func (s *Store) Stats() *Stats {
	st := &Stats{}
	for _, prefix := range s.Prefixes() {
		ns := s.lookup(prefix)
		ns.mu.RLock()
		n := NamespaceStats{
			Prefix:   prefix,
			Place:    ns.tree.Place,
			Literals: len(ns.literals),
			Bytes:    len(ns.persisted),
		}
		countChannels := func(b *tree.Branch) {
			for _, ch := range b.ChannelNames() {
				if ch != tree.DefaultChannel {
					n.Channels++
				}
			}
		}
		countChannels(ns.tree.Root)
		ns.tree.Walk(prefix, func(_ coord.Coordinate, node tree.Node) {
			switch node := node.(type) {
			case tree.Leaf:
				n.Coordinates++
			case *tree.Branch:
				if _, ok := node.Channel(tree.DefaultChannel); ok {
					n.Coordinates++
				}
				countChannels(node)
			}
		})
		ns.mu.RUnlock()

		st.TotalNamespaces++
		st.TotalCoordinates += n.Coordinates
		st.TotalChannels += n.Channels
		st.TotalLiterals += n.Literals
		st.Namespaces = append(st.Namespaces, n)
	}
	return st
}
