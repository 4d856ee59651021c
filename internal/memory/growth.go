package memory

import (
	"context"

	"github.com/HendryAvila/pscale/internal/coord"
	"github.com/HendryAvila/pscale/internal/tree"
)

// ─── Growth & Compression ────────────────────────────────────────────────────

// NextMemory proposes the next slot of an append-only log namespace ("M"
// when prefix is empty).
func (s *Store) NextMemory(prefix string) tree.Proposal {
	if prefix == "" {
		prefix = "M"
	}
	ns := s.lookup(prefix)
	if ns == nil {
		return tree.NextEntry(tree.New(s.place(prefix)), prefix)
	}
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return tree.NextEntry(ns.tree, prefix)
}

// CheckFullness reports whether the node at addr has children 1–9.
func (s *Store) CheckFullness(addr string) tree.Fullness {
	var f tree.Fullness
	s.view(addr, func(c coord.Coordinate, t *tree.Tree) { f = tree.CheckFullness(t, c) })
	return f
}

// Synthesize writes a compression summary to the default channel of addr,
// the node whose children were summarised. It never consumes a digit. The
// returned Fullness is the node's state before the write.
func (s *Store) Synthesize(ctx context.Context, addr, summary string) (tree.Fullness, error) {
	f := s.CheckFullness(addr)
	if err := s.Write(ctx, addr, summary, tree.DefaultChannel); err != nil {
		return f, err
	}
	return f, nil
}
