package tree

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/HendryAvila/pscale/internal/coord"
)

// ─── Growth ─────────────────────────────────────────────────────────────────

// Proposal types returned by NextEntry.
const (
	ProposalEntry   = "entry"
	ProposalSummary = "summary"
)

// Proposal is the next slot of an append-only log.
type Proposal struct {
	Type       string             `json:"type"`
	Coordinate coord.Coordinate   `json:"coordinate"`
	Summarize  []coord.Coordinate `json:"summarize,omitempty"`
}

// NextEntry proposes the slot after the highest populated entry of t (1
// when there is none). Entries are numbered by their digit path, so the
// namespace's place only changes how the proposal renders: in a place-1
// namespace the slot after S:9 is S:1.0. A slot whose digits after the
// first are all zero (10, 20, 100, …) is a summary slot. Paths with a
// leading zero sit above the log's first level and are not entries.
func NextEntry(t *Tree, prefix string) Proposal {
	highest := new(big.Int)
	for _, c := range t.Populated(prefix) {
		s := c.Digits
		if len(s) > 1 && s[0] == '0' {
			continue
		}
		n, ok := new(big.Int).SetString(s, 10)
		if ok && n.Cmp(highest) > 0 {
			highest = n
		}
	}
	next := new(big.Int).Add(highest, big.NewInt(1))
	at := coord.Parse(next.String(), prefix).WithPlace(t.Place)

	if !IsSummarySlot(next.String()) {
		return Proposal{Type: ProposalEntry, Coordinate: at}
	}
	var summarize []coord.Coordinate
	if n, err := strconv.ParseInt(next.String(), 10, 64); err == nil {
		for _, v := range SummaryRange(n) {
			summarize = append(summarize, coord.Parse(strconv.FormatInt(v, 10), prefix).WithPlace(t.Place))
		}
	}
	return Proposal{Type: ProposalSummary, Coordinate: at, Summarize: summarize}
}

// IsSummarySlot reports whether a decimal integer has at least two digits
// and only zeros after the first.
func IsSummarySlot(n string) bool {
	return len(n) > 1 && strings.Trim(n[1:], "0") == ""
}

// SummaryRange lists the entries a summary slot compresses: 20 covers
// 11..19, 100 covers 10, 20, …, 90, 200 covers 110, 120, …, 190.
func SummaryRange(slot int64) []int64 {
	digits := len(strconv.FormatInt(slot, 10))
	if digits < 2 {
		return nil
	}
	magnitude := int64(1)
	for i := 1; i < digits; i++ {
		magnitude *= 10
	}
	base := slot - magnitude
	step := magnitude / 10
	var out []int64
	for i := base + step; i < slot; i += step {
		out = append(out, i)
	}
	return out
}

// ─── Compression ────────────────────────────────────────────────────────────

// Fullness reports whether a node's nine content slots are occupied.
// Children lists them, in order, only when Full is true.
type Fullness struct {
	Full     bool               `json:"full"`
	Children []coord.Coordinate `json:"children,omitempty"`
}

// CheckFullness reports whether the branch at c has digit children 1–9.
// Digit 0 holds compression products and is not counted.
func CheckFullness(t *Tree, c coord.Coordinate) Fullness {
	b, ok := t.Node(c).(*Branch)
	if !ok {
		return Fullness{}
	}
	for d := 1; d <= 9; d++ {
		if b.Children[d] == nil {
			return Fullness{}
		}
	}
	at := c.WithPlace(t.Place)
	out := make([]coord.Coordinate, 0, 9)
	for d := 1; d <= 9; d++ {
		out = append(out, at.Child(d))
	}
	return Fullness{Full: true, Children: out}
}
