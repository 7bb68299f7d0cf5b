package tree

import (
	"fmt"
	"slices"
	"strings"
)

// Status selects nodes by completion.
type Status string

const (
	// AnyStatus keeps every node.
	AnyStatus Status = ""

	// CompletedStatus keeps completed nodes.
	CompletedStatus Status = "completed"

	// OpenStatus keeps nodes that are not completed.
	OpenStatus Status = "open"
)

// ParseStatus accepts "", "all", "completed", "open" or "in-progress".
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return AnyStatus, nil
	case "completed", "done":
		return CompletedStatus, nil
	case "open", "in-progress":
		return OpenStatus, nil
	}
	return "", fmt.Errorf("invalid status %q: must be completed or open", s)
}

// SortOrder orders the result of Select.
type SortOrder string

const (
	// SequenceOrder keeps sequence order.
	SequenceOrder SortOrder = ""

	// NewestFirst sorts by CreatedAt, latest first.
	NewestFirst SortOrder = "newest"

	// MostTodos sorts by descendant count, largest subtree first.
	MostTodos SortOrder = "most-todos"
)

// ParseSortOrder accepts "", "newest" or "most-todos".
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SequenceOrder, nil
	case "newest":
		return NewestFirst, nil
	case "most-todos":
		return MostTodos, nil
	}
	return "", fmt.Errorf("invalid sort %q: must be newest or most-todos", s)
}

// Filter narrows and orders a flat listing. The zero value keeps every node
// in sequence order.
type Filter struct {
	Status Status
	// Level keeps only nodes at this Depth. 0 means every level.
	Level int
	Sort  SortOrder
}

// IsZero reports whether f keeps every node in sequence order.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Select returns the nodes f keeps, in f's order. Ties keep sequence order.
// The input is not modified.
func Select(nodes []Node, f Filter) []Node {
	out := nodes
	if f.Level > 0 {
		out = AtDepth(f.Level, nodes)
	}

	kept := make([]Node, 0, len(out))
	for _, n := range out {
		switch {
		case f.Status == CompletedStatus && !n.Completed:
		case f.Status == OpenStatus && n.Completed:
		default:
			kept = append(kept, n)
		}
	}

	switch f.Sort {
	case NewestFirst:
		slices.SortStableFunc(kept, func(a, b Node) int {
			return compareDesc(a.CreatedAt, b.CreatedAt)
		})
	case MostTodos:
		counts := descendantCounts(nodes)
		slices.SortStableFunc(kept, func(a, b Node) int {
			return compareDesc(int64(counts[a.ID]), int64(counts[b.ID]))
		})
	}
	return kept
}

// descendantCounts returns the subtree size below every node reachable from
// a root goal.
func descendantCounts(nodes []Node) map[string]int {
	counts := make(map[string]int, len(nodes))
	var walk func(ts []*TreeNode) int
	walk = func(ts []*TreeNode) int {
		total := 0
		for _, t := range ts {
			below := walk(t.Children)
			counts[t.Node.ID] = below
			total += below + 1
		}
		return total
	}
	walk(Build(nodes))
	return counts
}

func compareDesc(a, b int64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}
