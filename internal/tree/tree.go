package tree

import (
	"errors"

	"github.com/HendryAvila/pscale/internal/coord"
)

// ErrNotAddressable is returned when a special (literal) coordinate is
// used where a tree path is required.
var ErrNotAddressable = errors.New("tree: special key is not tree-addressable")

// Tree is one namespace's nested node model plus its declared place: the
// number of coordinate digits that sit above pscale 0.
type Tree struct {
	Place int     `json:"place"`
	Root  *Branch `json:"tree"`
}

// New returns an empty tree.
func New(place int) *Tree {
	return &Tree{Place: place, Root: &Branch{}}
}

// Clone deep-copies the tree.
func (t *Tree) Clone() *Tree {
	return &Tree{Place: t.Place, Root: t.Root.Clone()}
}

// Node returns the node at c, or nil when any step is absent or passes
// through a Leaf. The root coordinate returns the root branch.
func (t *Tree) Node(c coord.Coordinate) Node {
	if c.IsSpecial() {
		return nil
	}
	var n Node = t.Root
	for i := 0; i < c.Depth(); i++ {
		b, ok := n.(*Branch)
		if !ok {
			return nil
		}
		n = b.Children[c.Digit(i)]
		if n == nil {
			return nil
		}
	}
	return n
}

// Read returns the content of channel ch at c. A Leaf only has the
// default channel.
func (t *Tree) Read(c coord.Coordinate, ch string) (string, bool) {
	ch = NormalizeChannel(ch)
	switch n := t.Node(c).(type) {
	case Leaf:
		if ch == DefaultChannel {
			return string(n), true
		}
	case *Branch:
		return n.Channel(ch)
	}
	return "", false
}

// Write sets channel ch at c, creating intermediate branches and promoting
// leaves on the way. Existing content is never dropped: a Leaf in the path
// becomes a Branch whose default channel keeps the old text.
func (t *Tree) Write(c coord.Coordinate, text, ch string) error {
	if c.IsSpecial() {
		return ErrNotAddressable
	}
	ch = NormalizeChannel(ch)
	if t.Root == nil {
		t.Root = &Branch{}
	}
	if c.IsRoot() {
		t.Root.setChannel(ch, text)
		return nil
	}

	parent := t.Root
	last := c.Depth() - 1
	for i := 0; i < last; i++ {
		d := c.Digit(i)
		switch n := parent.Children[d].(type) {
		case nil:
			b := &Branch{}
			parent.Children[d] = b
			parent = b
		case Leaf:
			b := promote(n)
			parent.Children[d] = b
			parent = b
		case *Branch:
			parent = n
		}
	}

	d := c.Digit(last)
	switch n := parent.Children[d].(type) {
	case nil:
		if ch == DefaultChannel {
			parent.Children[d] = Leaf(text)
		} else {
			parent.Children[d] = &Branch{Channels: map[string]string{ch: text}}
		}
	case Leaf:
		if ch == DefaultChannel {
			parent.Children[d] = Leaf(text)
		} else {
			b := promote(n)
			b.setChannel(ch, text)
			parent.Children[d] = b
		}
	case *Branch:
		n.setChannel(ch, text)
	}
	return nil
}

// Delete removes channel ch at c and reports whether anything changed.
// A Leaf only has the default channel. A Branch left with no channels and
// no children is removed from its parent, and the pruning cascades upward
// through ancestors that become empty. The root is never removed.
func (t *Tree) Delete(c coord.Coordinate, ch string) bool {
	if c.IsSpecial() || t.Root == nil {
		return false
	}
	ch = NormalizeChannel(ch)
	if c.IsRoot() {
		if _, ok := t.Root.Channels[ch]; !ok {
			return false
		}
		delete(t.Root.Channels, ch)
		return true
	}

	path := []*Branch{t.Root}
	last := c.Depth() - 1
	for i := 0; i < last; i++ {
		b, ok := path[i].Children[c.Digit(i)].(*Branch)
		if !ok {
			return false
		}
		path = append(path, b)
	}

	parent := path[last]
	d := c.Digit(last)
	switch n := parent.Children[d].(type) {
	case Leaf:
		if ch != DefaultChannel {
			return false
		}
		parent.Children[d] = nil
	case *Branch:
		if _, ok := n.Channels[ch]; !ok {
			return false
		}
		delete(n.Channels, ch)
		if !n.Empty() {
			return true
		}
		parent.Children[d] = nil
	default:
		return false
	}

	for i := last; i >= 1; i-- {
		if !path[i].Empty() {
			break
		}
		path[i-1].Children[c.Digit(i-1)] = nil
	}
	return true
}

// Dimensions lists the channels present at c. A Leaf reports only the
// default channel.
func (t *Tree) Dimensions(c coord.Coordinate) []string {
	switch n := t.Node(c).(type) {
	case Leaf:
		return []string{DefaultChannel}
	case *Branch:
		return n.ChannelNames()
	}
	return nil
}

// Walk visits every node below the root depth-first in digit order. The
// coordinates passed to fn are rendered with the tree's place.
func (t *Tree) Walk(prefix string, fn func(c coord.Coordinate, n Node)) {
	if t.Root == nil {
		return
	}
	walk(t.Root, coord.Root(prefix, t.Place), fn)
}

func walk(b *Branch, at coord.Coordinate, fn func(coord.Coordinate, Node)) {
	for d, child := range b.Children {
		if child == nil {
			continue
		}
		c := at.Child(d)
		fn(c, child)
		if cb, ok := child.(*Branch); ok {
			walk(cb, c, fn)
		}
	}
}

// Populated returns every coordinate carrying default-channel text, in
// walk order.
func (t *Tree) Populated(prefix string) []coord.Coordinate {
	var out []coord.Coordinate
	t.Walk(prefix, func(c coord.Coordinate, n Node) {
		if _, ok := semantic(n); ok {
			out = append(out, c)
		}
	})
	return out
}
