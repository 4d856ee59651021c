package coord

import "regexp"

// specialTag matches a literal that is a (possibly empty) numeric address
// followed by a word tag: "conv", "0.2v", "12title".
var specialTag = regexp.MustCompile(`^([0-9.]*)_?([A-Za-z][A-Za-z0-9_]*)$`)

// SplitSpecial recovers the coordinate and dimension channel encoded in a
// special key. "M:conv" targets the M root on channel "_conv"; "S:0.2v"
// targets S:0.2 on channel "_v". ok is false when the literal does not
// follow that shape.
func SplitSpecial(c Coordinate) (target Coordinate, channel string, ok bool) {
	if !c.IsSpecial() {
		return Coordinate{}, "", false
	}
	m := specialTag.FindStringSubmatch(c.Literal)
	if m == nil {
		return Coordinate{}, "", false
	}
	target = Parse(m[1], c.Prefix)
	if target.IsSpecial() {
		return Coordinate{}, "", false
	}
	return target, "_" + m[2], true
}
