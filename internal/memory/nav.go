package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/HendryAvila/pscale/internal/coord"
	"github.com/HendryAvila/pscale/internal/tree"
)

// ─── Navigation ──────────────────────────────────────────────────────────────

// view runs fn under the read lock of addr's namespace. It reports false
// when the namespace does not exist.
func (s *Store) view(addr string, fn func(c coord.Coordinate, t *tree.Tree)) bool {
	c := s.parse(addr)
	ns := s.lookup(c.Prefix)
	if ns == nil {
		return false
	}
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	fn(c.WithPlace(ns.tree.Place), ns.tree)
	return true
}

// Children returns the occupied child coordinates of addr, ascending. An
// empty result marks the creative frontier.
func (s *Store) Children(addr string) []coord.Coordinate {
	var out []coord.Coordinate
	s.view(addr, func(c coord.Coordinate, t *tree.Tree) { out = t.Children(c) })
	return out
}

// Siblings returns the other children of addr's parent.
func (s *Store) Siblings(addr string) []coord.Coordinate {
	var out []coord.Coordinate
	s.view(addr, func(c coord.Coordinate, t *tree.Tree) { out = t.Siblings(c) })
	return out
}

// Parent drops the last digit of addr. It does not consult the tree; ok is
// false only for a namespace root or a special key.
func (s *Store) Parent(addr string) (coord.Coordinate, bool) {
	c := s.parse(addr)
	p, ok := c.Parent()
	if !ok {
		return coord.Coordinate{}, false
	}
	return p.WithPlace(s.Place(c.Prefix)), true
}

// Context returns the ancestor chain of addr, general to specific.
func (s *Store) Context(addr string) []coord.Coordinate {
	var out []coord.Coordinate
	ok := s.view(addr, func(c coord.Coordinate, t *tree.Tree) { out = t.Context(c) })
	if !ok {
		if c := s.parse(addr); !c.IsSpecial() {
			out = []coord.Coordinate{c}
		}
	}
	return out
}

// ContextContent is Context with each layer's semantic text.
func (s *Store) ContextContent(addr string) []tree.Layer {
	var out []tree.Layer
	s.view(addr, func(c coord.Coordinate, t *tree.Tree) { out = t.ContextContent(c) })
	return out
}

// Aperture reads addr with its parent, siblings and children.
func (s *Store) Aperture(addr string, channels ...string) tree.Aperture {
	var out tree.Aperture
	if !s.view(addr, func(c coord.Coordinate, t *tree.Tree) { out = t.Aperture(c, channels...) }) {
		out.Focus.Coordinate = s.parse(addr)
	}
	return out
}

// Dimensions lists the channels present at addr.
func (s *Store) Dimensions(addr string) []string {
	var out []string
	s.view(addr, func(c coord.Coordinate, t *tree.Tree) { out = t.Dimensions(c) })
	return out
}

// BSP resolves a block/spindle/point query against a namespace. Block
// mode returns a copy of the tree.
func (s *Store) BSP(prefix string, q tree.Query) tree.Result {
	if prefix == "" {
		prefix = s.cfg.DefaultNamespace
	}
	ns := s.lookup(prefix)
	if ns == nil {
		return tree.Resolve(tree.New(s.place(prefix)), q)
	}
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	res := tree.Resolve(ns.tree, q)
	if res.Block != nil {
		res.Block = res.Block.Clone()
	}
	return res
}

// ─── List ────────────────────────────────────────────────────────────────────

// Entry is one populated coordinate or literal key.
type Entry struct {
	Coordinate string   `json:"coordinate"`
	Content    string   `json:"content,omitempty"`
	Channels   []string `json:"channels,omitempty"`
	Literal    bool     `json:"literal,omitempty"`
}

// List returns every populated coordinate and literal key, sorted by
// rendered address. pattern filters the result: a glob ("S:0.2*", "M:1?")
// is matched with doublestar, anything else is a plain prefix.
func (s *Store) List(pattern string) ([]Entry, error) {
	match := func(string) bool { return true }
	if pattern != "" {
		if strings.ContainsAny(pattern, "*?[{") {
			if !doublestar.ValidatePattern(pattern) {
				return nil, fmt.Errorf("memory: invalid pattern %q", pattern)
			}
			match = func(addr string) bool {
				ok, _ := doublestar.Match(pattern, addr)
				return ok
			}
		} else {
			match = func(addr string) bool { return strings.HasPrefix(addr, pattern) }
		}
	}

	var out []Entry
	for _, prefix := range s.Prefixes() {
		ns := s.lookup(prefix)
		ns.mu.RLock()
		root := coord.Root(prefix, ns.tree.Place)
		if chs := ns.tree.Dimensions(root); len(chs) > 0 && match(root.String()) {
			e := Entry{Coordinate: root.String(), Channels: chs}
			e.Content, _ = ns.tree.Read(root, tree.DefaultChannel)
			out = append(out, e)
		}
		ns.tree.Walk(prefix, func(c coord.Coordinate, n tree.Node) {
			addr := c.String()
			if !match(addr) {
				return
			}
			e := Entry{Coordinate: addr, Channels: ns.tree.Dimensions(c)}
			e.Content, _ = ns.tree.Read(c, tree.DefaultChannel)
			if len(e.Channels) == 0 {
				return
			}
			out = append(out, e)
		})
		for k, v := range ns.literals {
			addr := prefix + coord.Separator + k
			if match(addr) {
				out = append(out, Entry{Coordinate: addr, Content: v, Literal: true})
			}
		}
		ns.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Coordinate < out[j].Coordinate })
	return out, nil
}
