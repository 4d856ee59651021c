// Package coord parses and manipulates pscale coordinates.
//
// A coordinate is a namespace prefix plus a suffix. A numeric suffix is a
// path: every decimal digit, read left to right across the integer and
// fractional parts, is one step into the namespace's tree. The decimal
// point does not change the path, it only records how many digits sit
// above pscale 0 ("place"). Anything else is a special (literal) key.
//
// Every function in this package is pure. Parsing never fails: input that
// is not a well-formed number degrades to a special key.
package coord

import (
	"strconv"
	"strings"
)

// Separator splits the namespace prefix from the suffix ("S:0.12").
const Separator = ":"

// Coordinate is a parsed address. Digits holds one byte '0'–'9' per step.
// Literal is set (and Digits empty) for special keys.
type Coordinate struct {
	Prefix  string `json:"prefix"`
	Digits  string `json:"digits,omitempty"`
	Place   int    `json:"place"`
	Literal string `json:"literal,omitempty"`
}

// Parse turns "PREFIX:SUFFIX" (or a bare suffix in defaultPrefix) into a
// Coordinate. An empty suffix addresses the namespace root.
func Parse(addr, defaultPrefix string) Coordinate {
	prefix, suffix := defaultPrefix, addr
	if i := strings.Index(addr, Separator); i >= 0 {
		prefix, suffix = addr[:i], addr[i+1:]
	}
	prefix = strings.TrimSpace(prefix)
	suffix = strings.TrimSpace(suffix)

	if !isNumeric(suffix) {
		return Coordinate{Prefix: prefix, Literal: suffix}
	}

	intPart, fracPart, hasDot := strings.Cut(suffix, ".")
	// Trailing fractional zeros encode precision, not structure.
	fracPart = strings.TrimRight(fracPart, "0")
	digits := intPart + fracPart
	if hasDot && digits == "" {
		return Coordinate{Prefix: prefix, Literal: suffix}
	}

	place := len(digits)
	if hasDot {
		place = len(intPart)
	}
	return Coordinate{Prefix: prefix, Digits: digits, Place: place}
}

// ParseNumber parses a numeric spindle. The value is rendered with ten
// fractional digits first so that 0.13 walks 0, 1, 3 rather than the
// float's shortest representation.
func ParseNumber(f float64, prefix string) Coordinate {
	return Parse(strconv.FormatFloat(f, 'f', 10, 64), prefix)
}

// Root returns the root coordinate of a namespace.
func Root(prefix string, place int) Coordinate {
	return Coordinate{Prefix: prefix, Place: place}
}

func isNumeric(s string) bool {
	dots := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '.':
			dots++
			if dots > 1 {
				return false
			}
		case c < '0' || c > '9':
			return false
		}
	}
	return true
}

// ValidPrefix reports whether p is a usable namespace tag: one to eight
// ASCII letters.
func ValidPrefix(p string) bool {
	if len(p) == 0 || len(p) > 8 {
		return false
	}
	for i := 0; i < len(p); i++ {
		c := p[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// IsSpecial reports whether c is a literal key rather than a tree path.
func (c Coordinate) IsSpecial() bool { return c.Literal != "" }

// IsRoot reports whether c addresses the namespace root.
func (c Coordinate) IsRoot() bool { return !c.IsSpecial() && c.Digits == "" }

// Depth is the number of digit steps from the root.
func (c Coordinate) Depth() int { return len(c.Digits) }

// Suffix renders the part after the separator.
func (c Coordinate) Suffix() string {
	if c.IsSpecial() {
		return c.Literal
	}
	if c.Place > 0 && c.Place < len(c.Digits) {
		return c.Digits[:c.Place] + "." + c.Digits[c.Place:]
	}
	return c.Digits
}

// String renders the coordinate as "PREFIX:SUFFIX".
func (c Coordinate) String() string {
	return c.Prefix + Separator + c.Suffix()
}

// Equal compares namespace and path. Place is a rendering concern and is
// ignored.
func (c Coordinate) Equal(o Coordinate) bool {
	return c.Prefix == o.Prefix && c.Digits == o.Digits && c.Literal == o.Literal
}

// WithPlace returns c rendered against a namespace's declared place.
func (c Coordinate) WithPlace(place int) Coordinate {
	c.Place = place
	return c
}

// Child appends one digit. d must be 0–9.
func (c Coordinate) Child(d int) Coordinate {
	c.Digits += string(rune('0' + d))
	return c
}

// Parent drops the last digit. It is a pure operation: the parent need
// not exist in any tree. The root and special keys have no parent.
func (c Coordinate) Parent() (Coordinate, bool) {
	if c.IsSpecial() || c.IsRoot() {
		return Coordinate{}, false
	}
	c.Digits = c.Digits[:len(c.Digits)-1]
	return c, true
}

// Ancestors returns every prefix of the path from depth 1 down to c
// itself, general to specific.
func (c Coordinate) Ancestors() []Coordinate {
	if c.IsSpecial() || c.IsRoot() {
		return nil
	}
	out := make([]Coordinate, 0, len(c.Digits))
	for i := 1; i <= len(c.Digits); i++ {
		a := c
		a.Digits = c.Digits[:i]
		out = append(out, a)
	}
	return out
}

// Pscale returns the composition level of the digit at index i:
// (place − 1) − i. Zero is the namespace's current granularity.
func (c Coordinate) Pscale(i int) int {
	return (c.Place - 1) - i
}

// Level is the pscale of the deepest digit, or Place for the root.
func (c Coordinate) Level() int {
	return c.Place - len(c.Digits)
}

// Digit returns the step at index i as an int.
func (c Coordinate) Digit(i int) int {
	return int(c.Digits[i] - '0')
}
