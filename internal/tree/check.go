package tree

import "fmt"

// ViolationKind names a structural problem found by Check.
type ViolationKind string

const (
	// DuplicateID means two nodes share an id.
	DuplicateID ViolationKind = "duplicate-id"

	// DanglingParent means a ParentID does not resolve to any node.
	DanglingParent ViolationKind = "dangling-parent"

	// Cycle means following ParentID from a node returns to that node.
	Cycle ViolationKind = "cycle"

	// EmptyTitle means a title is empty after normalization.
	EmptyTitle ViolationKind = "empty-title"
)

// Violation describes one problem in a sequence.
type Violation struct {
	Kind ViolationKind `json:"kind"`
	ID   string        `json:"id"`
	// Index is the position of the offending node in the sequence.
	Index int `json:"index"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s at %d (%s)", v.Kind, v.Index, v.ID)
}

// Check reports every structural problem in nodes. Sequences produced by the
// Engine from a valid input always return an empty slice; Check exists for
// data loaded from outside (imports, hand-edited stores).
//
// A cycle is reported once per node that lies on it.
func Check(nodes []Node) []Violation {
	out := []Violation{}
	byID := idIndex(nodes)

	for i, n := range nodes {
		if byID[n.ID] != i {
			out = append(out, Violation{Kind: DuplicateID, ID: n.ID, Index: i})
		}
		if NormalizeTitle(n.Title) == "" {
			out = append(out, Violation{Kind: EmptyTitle, ID: n.ID, Index: i})
		}
		if n.ParentID != Root {
			if _, ok := byID[n.ParentID]; !ok {
				out = append(out, Violation{Kind: DanglingParent, ID: n.ID, Index: i})
			}
		}
	}

	for i, n := range nodes {
		if byID[n.ID] != i {
			continue
		}
		if onCycle(n.ID, byID, nodes) {
			out = append(out, Violation{Kind: Cycle, ID: n.ID, Index: i})
		}
	}
	return out
}

// Valid reports whether Check finds nothing.
func Valid(nodes []Node) bool {
	return len(Check(nodes)) == 0
}

// onCycle follows parent links from id and reports whether they lead back to id.
func onCycle(id string, byID map[string]int, nodes []Node) bool {
	seen := map[string]bool{}
	current := nodes[byID[id]].ParentID
	for current != Root && !seen[current] {
		if current == id {
			return true
		}
		seen[current] = true
		j, ok := byID[current]
		if !ok {
			return false
		}
		current = nodes[j].ParentID
	}
	return false
}

// UntitledTitle replaces empty titles during Repair.
const UntitledTitle = "Untitled"

// Repair returns the largest valid sequence that can be salvaged from nodes,
// together with the violations Check found in the input.
//
// The first occurrence of a duplicated id wins. Empty titles become
// UntitledTitle. Nodes that cannot be reached from a root goal (dangling
// parents, cycles) are dropped along with everything below them. Sequence
// order of the survivors is kept. Valid input is returned unchanged.
func Repair(nodes []Node) ([]Node, []Violation) {
	violations := Check(nodes)
	if len(violations) == 0 {
		return nodes, violations
	}

	byID := idIndex(nodes)
	kept := make([]Node, 0, len(nodes))
	for i, n := range nodes {
		if byID[n.ID] != i {
			continue
		}
		if NormalizeTitle(n.Title) == "" {
			n.Title = UntitledTitle
		}
		kept = append(kept, n)
	}

	index := childIndex(kept)
	reachable := make(map[string]bool, len(kept))
	var walk func(parent string)
	walk = func(parent string) {
		for _, i := range index[parent] {
			id := kept[i].ID
			if reachable[id] {
				continue
			}
			reachable[id] = true
			walk(id)
		}
	}
	walk(Root)

	out := make([]Node, 0, len(kept))
	for _, n := range kept {
		if reachable[n.ID] {
			out = append(out, n)
		}
	}
	return out, violations
}
