// Package tree implements the nested, digit-keyed node model behind every
// pscale namespace, together with the walks that run over it: navigation,
// the block/spindle/point resolver, and growth/compression bookkeeping.
//
// A node is either a Leaf (a single string of semantic content) or a
// Branch (up to ten digit-keyed children plus named channels). Channels
// are "_"-prefixed; "_" itself is the default channel holding the node's
// own text. Leaves promote to branches automatically and empty branches
// are pruned, so the tree never contains an empty object.
package tree

import (
	"sort"
	"strings"
)

// DefaultChannel holds a node's own semantic text.
const DefaultChannel = "_"

// Node is a Leaf or a *Branch.
type Node interface {
	isNode()
}

// Leaf is a node with nothing but its default-channel text.
type Leaf string

func (Leaf) isNode() {}

// Branch is a node with digit children and/or named channels.
type Branch struct {
	Channels map[string]string
	Children [10]Node
}

func (*Branch) isNode() {}

// NormalizeChannel maps "" to the default channel and adds the "_" prefix
// to bare channel names ("v" → "_v").
func NormalizeChannel(ch string) string {
	ch = strings.TrimSpace(ch)
	if ch == "" {
		return DefaultChannel
	}
	if !strings.HasPrefix(ch, "_") {
		return "_" + ch
	}
	return ch
}

// promote turns a Leaf into a Branch whose default channel is the leaf text.
func promote(l Leaf) *Branch {
	return &Branch{Channels: map[string]string{DefaultChannel: string(l)}}
}

func (b *Branch) setChannel(ch, text string) {
	if b.Channels == nil {
		b.Channels = make(map[string]string)
	}
	b.Channels[ch] = text
}

// Channel returns the value of a channel.
func (b *Branch) Channel(ch string) (string, bool) {
	v, ok := b.Channels[ch]
	return v, ok
}

// HasChildren reports whether any digit slot is occupied.
func (b *Branch) HasChildren() bool {
	for _, c := range b.Children {
		if c != nil {
			return true
		}
	}
	return false
}

// Empty reports whether the branch has neither channels nor children.
func (b *Branch) Empty() bool {
	return len(b.Channels) == 0 && !b.HasChildren()
}

// ChannelNames returns the branch's channels in sorted order.
func (b *Branch) ChannelNames() []string {
	names := make([]string, 0, len(b.Channels))
	for k := range b.Channels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// cloneNode deep-copies a node.
func cloneNode(n Node) Node {
	switch n := n.(type) {
	case Leaf:
		return n
	case *Branch:
		return n.Clone()
	}
	return nil
}

// Clone deep-copies the branch.
func (b *Branch) Clone() *Branch {
	if b == nil {
		return nil
	}
	out := &Branch{}
	if len(b.Channels) > 0 {
		out.Channels = make(map[string]string, len(b.Channels))
		for k, v := range b.Channels {
			out.Channels[k] = v
		}
	}
	for i, c := range b.Children {
		out.Children[i] = cloneNode(c)
	}
	return out
}

// semantic returns the default-channel text of a node.
func semantic(n Node) (string, bool) {
	switch n := n.(type) {
	case Leaf:
		return string(n), true
	case *Branch:
		return n.Channel(DefaultChannel)
	}
	return "", false
}
