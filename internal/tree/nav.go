package tree

import "github.com/HendryAvila/pscale/internal/coord"

// ─── Navigation ─────────────────────────────────────────────────────────────

// Children returns the occupied digit slots under c in ascending order. A
// Leaf or a missing node has no children: that is the creative frontier.
func (t *Tree) Children(c coord.Coordinate) []coord.Coordinate {
	b, ok := t.Node(c).(*Branch)
	if !ok {
		return nil
	}
	at := c.WithPlace(t.Place)
	var out []coord.Coordinate
	for d, child := range b.Children {
		if child != nil {
			out = append(out, at.Child(d))
		}
	}
	return out
}

// Siblings returns the children of c's parent, excluding c. The root has
// no siblings.
func (t *Tree) Siblings(c coord.Coordinate) []coord.Coordinate {
	p, ok := c.Parent()
	if !ok {
		return nil
	}
	var out []coord.Coordinate
	for _, s := range t.Children(p) {
		if !s.Equal(c) {
			out = append(out, s)
		}
	}
	return out
}

// populated reports whether a node exists at c (any channel or child).
func (t *Tree) populated(c coord.Coordinate) bool {
	switch n := t.Node(c).(type) {
	case Leaf:
		return true
	case *Branch:
		return !n.Empty()
	}
	return false
}

// Context returns the ancestor chain of c from general to specific. The
// chain starts at the most general populated ancestor and always ends at
// c itself, so an empty tree yields just [c].
func (t *Tree) Context(c coord.Coordinate) []coord.Coordinate {
	if c.IsSpecial() {
		return nil
	}
	c = c.WithPlace(t.Place)
	chain := c.Ancestors()
	if len(chain) == 0 {
		return []coord.Coordinate{c}
	}
	for i, a := range chain {
		if t.populated(a) {
			return chain[i:]
		}
	}
	return []coord.Coordinate{c}
}

// Layer is one step of a context chain with its semantic text.
type Layer struct {
	Coordinate coord.Coordinate `json:"coordinate"`
	Pscale     int              `json:"pscale"`
	Content    string           `json:"content,omitempty"`
}

// ContextContent is Context with each step's default-channel text read.
func (t *Tree) ContextContent(c coord.Coordinate) []Layer {
	chain := t.Context(c)
	out := make([]Layer, 0, len(chain))
	for _, a := range chain {
		text, _ := t.Read(a, DefaultChannel)
		out = append(out, Layer{Coordinate: a, Pscale: a.Level(), Content: text})
	}
	return out
}

// View is one coordinate with the requested channels read.
type View struct {
	Coordinate coord.Coordinate  `json:"coordinate"`
	Channels   map[string]string `json:"channels,omitempty"`
}

// Aperture is the neighbourhood of a focus coordinate.
type Aperture struct {
	Focus    View   `json:"focus"`
	Parent   *View  `json:"parent,omitempty"`
	Siblings []View `json:"siblings,omitempty"`
	Children []View `json:"children,omitempty"`
}

// Aperture reads the focus, its parent, siblings and children. channels
// selects what is read at each coordinate; none means the default channel.
func (t *Tree) Aperture(c coord.Coordinate, channels ...string) Aperture {
	if len(channels) == 0 {
		channels = []string{DefaultChannel}
	}
	view := func(at coord.Coordinate) View {
		v := View{Coordinate: at.WithPlace(t.Place)}
		for _, ch := range channels {
			ch = NormalizeChannel(ch)
			if text, ok := t.Read(at, ch); ok {
				if v.Channels == nil {
					v.Channels = make(map[string]string, len(channels))
				}
				v.Channels[ch] = text
			}
		}
		return v
	}

	a := Aperture{Focus: view(c)}
	if p, ok := c.Parent(); ok {
		pv := view(p)
		a.Parent = &pv
	}
	for _, s := range t.Siblings(c) {
		a.Siblings = append(a.Siblings, view(s))
	}
	for _, k := range t.Children(c) {
		a.Children = append(a.Children, view(k))
	}
	return a
}
