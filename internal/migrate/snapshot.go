package migrate

import (
	"sort"
	"strings"

	"github.com/HendryAvila/pscale/internal/coord"
	"github.com/HendryAvila/pscale/internal/tree"
)

// Snapshot is what a source yields: whole trees (when the source already
// stores nested trees) and flat coordinate → text entries, which may be
// numeric coordinates or special keys.
type Snapshot struct {
	Trees map[string]*tree.Tree
	Flat  map[string]string
}

// Empty reports whether the snapshot carries no content.
func (s *Snapshot) Empty() bool {
	if s == nil {
		return true
	}
	if len(s.Flat) > 0 {
		return false
	}
	for _, t := range s.Trees {
		if t.Root != nil && !t.Root.Empty() {
			return false
		}
	}
	return true
}

// Image is a snapshot normalised into the current shape: one tree per
// namespace plus the flat literals that could not become dimensions.
type Image struct {
	Trees    map[string]*tree.Tree
	Literals map[string]map[string]string

	Coordinates int
	Dimensions  int
	Dropped     []string
}

// PlaceFunc reports the declared place for a namespace prefix.
type PlaceFunc func(prefix string) int

// Build merges the snapshot's trees and flat entries into an Image. Special
// keys of the form "coordinate + tag" become channel writes on that
// coordinate ("M:conv" → M root, channel "_conv"); the rest are kept as
// literals. Keys without a usable namespace prefix are dropped.
func (s *Snapshot) Build(place PlaceFunc) *Image {
	img := &Image{
		Trees:    make(map[string]*tree.Tree),
		Literals: make(map[string]map[string]string),
	}
	if s == nil {
		return img
	}
	for prefix, t := range s.Trees {
		if !coord.ValidPrefix(prefix) || t == nil {
			continue
		}
		img.Trees[prefix] = t.Clone()
	}

	keys := make([]string, 0, len(s.Flat))
	for k := range s.Flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		text := s.Flat[key]
		if text == "" {
			continue
		}
		c := coord.Parse(key, "")
		if !strings.Contains(key, coord.Separator) || !coord.ValidPrefix(c.Prefix) {
			img.Dropped = append(img.Dropped, key)
			continue
		}
		t := img.tree(c.Prefix, place)

		if !c.IsSpecial() {
			_ = t.Write(c, text, tree.DefaultChannel)
			img.Coordinates++
			continue
		}

		if target, ch, ok := coord.SplitSpecial(c); ok {
			_ = t.Write(target, text, ch)
			img.Dimensions++
			continue
		}
		img.literal(c.Prefix, c.Literal, text)
	}
	return img
}

func (img *Image) tree(prefix string, place PlaceFunc) *tree.Tree {
	t, ok := img.Trees[prefix]
	if !ok {
		t = tree.New(place(prefix))
		img.Trees[prefix] = t
	}
	return t
}

func (img *Image) literal(prefix, key, text string) {
	m, ok := img.Literals[prefix]
	if !ok {
		m = make(map[string]string)
		img.Literals[prefix] = m
	}
	m[key] = text
}

// Prefixes returns every namespace in the image, sorted.
func (img *Image) Prefixes() []string {
	seen := make(map[string]bool)
	for p := range img.Trees {
		seen[p] = true
	}
	for p := range img.Literals {
		seen[p] = true
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
