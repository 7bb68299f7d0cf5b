package tree

import (
	"fmt"
	"strconv"
	"strings"
)

type positionKind int

const (
	positionEnd positionKind = iota
	positionStart
	positionIndex
)

// Position selects where a reparented node lands among its new siblings.
// The zero value is End.
type Position struct {
	kind  positionKind
	index int
}

var (
	// Start places the node before all new siblings.
	Start = Position{kind: positionStart}

	// End places the node after all new siblings.
	End = Position{kind: positionEnd}
)

// At places the node at sibling index i, clamped to the valid range.
func At(i int) Position {
	return Position{kind: positionIndex, index: i}
}

// ParsePosition accepts "start", "end" or a decimal index.
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "end":
		return End, nil
	case "start":
		return Start, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Position{}, fmt.Errorf("invalid position %q: must be start, end or an index", s)
	}
	return At(i), nil
}

// String returns the textual form accepted by ParsePosition.
func (p Position) String() string {
	switch p.kind {
	case positionStart:
		return "start"
	case positionIndex:
		return strconv.Itoa(p.index)
	default:
		return "end"
	}
}

// resolve maps the position onto [0, n] for a sibling list of length n
// that does not include the node being placed.
func (p Position) resolve(n int) int {
	switch p.kind {
	case positionStart:
		return 0
	case positionIndex:
		return clamp(p.index, 0, n)
	default:
		return n
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
