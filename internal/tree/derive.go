package tree

import "strings"

// PathSeparator joins titles in Path.
const PathSeparator = " > "

// Roots returns the top-level goals in sequence order.
func Roots(nodes []Node) []Node {
	return Siblings(Root, nodes)
}

// NonRoots returns every node that has a parent, in sequence order.
func NonRoots(nodes []Node) []Node {
	out := []Node{}
	for _, n := range nodes {
		if n.ParentID != Root {
			out = append(out, n)
		}
	}
	return out
}

// IsRoot reports whether id is a top-level goal. Unknown ids count as roots.
func IsRoot(id string, nodes []Node) bool {
	n, ok := Find(id, nodes)
	return !ok || n.ParentID == Root
}

// IsLeaf reports whether id has no children.
func IsLeaf(id string, nodes []Node) bool {
	for _, n := range nodes {
		if n.ParentID == id {
			return false
		}
	}
	return true
}

// RootOf returns the top-level goal that id belongs to (id itself for roots).
func RootOf(id string, nodes []Node) (Node, bool) {
	n, ok := Find(id, nodes)
	if !ok {
		return Node{}, false
	}
	if chain := Ancestors(id, nodes); len(chain) > 0 {
		return chain[0], true
	}
	return n, true
}

// Path returns the titles from the root goal down to id joined by
// PathSeparator, or "" for unknown ids.
func Path(id string, nodes []Node) string {
	n, ok := Find(id, nodes)
	if !ok {
		return ""
	}
	chain := Ancestors(id, nodes)
	titles := make([]string, 0, len(chain)+1)
	for _, a := range chain {
		titles = append(titles, a.Title)
	}
	titles = append(titles, n.Title)
	return strings.Join(titles, PathSeparator)
}

// AtDepth returns the nodes whose Depth equals level, in sequence order.
func AtDepth(level int, nodes []Node) []Node {
	depths := depthIndex(nodes)
	out := []Node{}
	for _, n := range nodes {
		if depths[n.ID] == level {
			out = append(out, n)
		}
	}
	return out
}

// MaxDepth returns the depth of the deepest node reachable from a root goal,
// or 0 for an empty sequence.
func MaxDepth(nodes []Node) int {
	max := 0
	var walk func(ts []*TreeNode)
	walk = func(ts []*TreeNode) {
		for _, t := range ts {
			if t.Depth > max {
				max = t.Depth
			}
			walk(t.Children)
		}
	}
	walk(Build(nodes))
	return max
}

// ValidParents returns the nodes id could be moved under without creating a
// cycle: everything except id and its descendants.
func ValidParents(id string, nodes []Node) []Node {
	excluded := map[string]bool{id: true}
	for _, d := range Descendants(id, nodes) {
		excluded[d.ID] = true
	}
	out := []Node{}
	for _, n := range nodes {
		if !excluded[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// Progress counts completed direct children.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// DirectProgress returns the completion count of id's direct children.
func DirectProgress(id string, nodes []Node) Progress {
	var p Progress
	for _, c := range Children(id, nodes) {
		p.Total++
		if c.Completed {
			p.Completed++
		}
	}
	return p
}

// Stats summarizes a sequence.
type Stats struct {
	Total        int     `json:"total"`
	Roots        int     `json:"roots"`
	Todos        int     `json:"todos"`
	Completed    int     `json:"completed"`
	MaxDepth     int     `json:"max_depth"`
	AverageDepth float64 `json:"average_depth"`
}

// Summarize computes Stats for the sequence.
func Summarize(nodes []Node) Stats {
	s := Stats{
		Total:    len(nodes),
		Roots:    len(Roots(nodes)),
		Todos:    len(NonRoots(nodes)),
		MaxDepth: MaxDepth(nodes),
	}
	depths := depthIndex(nodes)
	depthSum := 0
	for _, n := range nodes {
		if n.Completed {
			s.Completed++
		}
		depthSum += depths[n.ID]
	}
	if s.Total > 0 {
		s.AverageDepth = float64(depthSum) / float64(s.Total)
	}
	return s
}

// TreeNode is a nested view of a node for rendering.
type TreeNode struct {
	Node     Node        `json:"node"`
	Depth    int         `json:"depth"`
	Children []*TreeNode `json:"children"`
}

// Build returns the forest of root goals with nested children.
// Nodes not reachable from a root (dangling or cyclic chains) are omitted.
func Build(nodes []Node) []*TreeNode {
	index := childIndex(nodes)
	visited := make(map[string]bool, len(nodes))

	var build func(parent string, depth int) []*TreeNode
	build = func(parent string, depth int) []*TreeNode {
		out := []*TreeNode{}
		for _, i := range index[parent] {
			n := nodes[i]
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true
			out = append(out, &TreeNode{
				Node:     n,
				Depth:    depth,
				Children: build(n.ID, depth+1),
			})
		}
		return out
	}
	return build(Root, 1)
}
