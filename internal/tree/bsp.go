package tree

import (
	"encoding/json"

	"github.com/HendryAvila/pscale/internal/coord"
)

// Mode names the shape of a BSP result.
type Mode string

const (
	ModeBlock   Mode = "block"
	ModeSpindle Mode = "spindle"
	ModePoint   Mode = "point"
)

// Query selects a BSP mode. No spindle is block mode; a spindle alone is
// spindle mode; a spindle plus a point is point mode.
type Query struct {
	Spindle    string
	HasSpindle bool
	Point      int
	HasPoint   bool
}

// Step is one digit visited by a spindle walk.
type Step struct {
	Pscale  int    `json:"pscale"`
	Digit   int    `json:"digit"`
	Content string `json:"content"`
}

// Result is the output of Resolve. Block is set in block mode, Steps in
// spindle and point mode, Point only in point mode.
type Result struct {
	Mode  Mode   `json:"mode"`
	Place int    `json:"place"`
	Block *Tree  `json:"block,omitempty"`
	Steps []Step `json:"steps,omitempty"`
	Point *Step  `json:"point,omitempty"`
}

// Resolve runs a block/spindle/point walk against t using its declared
// place. Every digit of the spindle is a real step, including a leading
// zero. The walk stops at the first missing digit; an empty Steps means
// the first digit itself is absent.
func Resolve(t *Tree, q Query) Result {
	if !q.HasSpindle {
		return Result{Mode: ModeBlock, Place: t.Place, Block: t}
	}

	c := coord.Parse(q.Spindle, "")
	steps := walkSpindle(t, c)
	if !q.HasPoint {
		return Result{Mode: ModeSpindle, Place: t.Place, Steps: steps}
	}

	res := Result{Mode: ModePoint, Place: t.Place, Steps: steps}
	for i := range steps {
		if steps[i].Pscale == q.Point {
			s := steps[i]
			res.Point = &s
			return res
		}
	}
	if len(steps) > 0 {
		s := steps[len(steps)-1]
		res.Point = &s
	}
	return res
}

func walkSpindle(t *Tree, c coord.Coordinate) []Step {
	if c.IsSpecial() || t.Root == nil {
		return nil
	}
	var (
		steps []Step
		n     Node = t.Root
	)
	for i := 0; i < c.Depth(); i++ {
		b, ok := n.(*Branch)
		if !ok {
			break
		}
		d := c.Digit(i)
		n = b.Children[d]
		if n == nil {
			break
		}
		steps = append(steps, Step{
			Pscale:  (t.Place - 1) - i,
			Digit:   d,
			Content: stepContent(n),
		})
	}
	return steps
}

// stepContent is the node's semantic text. A branch with no default
// channel reports its JSON so the caller still sees what lives there.
func stepContent(n Node) string {
	if s, ok := semantic(n); ok {
		return s
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return ""
	}
	return string(raw)
}
