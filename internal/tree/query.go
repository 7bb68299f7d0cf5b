package tree

// Find returns the node with the given id.
func Find(id string, nodes []Node) (Node, bool) {
	if i := indexOf(id, nodes); i >= 0 {
		return nodes[i], true
	}
	return Node{}, false
}

// Contains reports whether a node with the given id exists.
func Contains(id string, nodes []Node) bool {
	return indexOf(id, nodes) >= 0
}

// Children returns the direct children of id in sequence order.
// Children(Root, nodes) returns the root goals.
func Children(id string, nodes []Node) []Node {
	return Siblings(id, nodes)
}

// Siblings returns every node whose parent is parentID, in sequence order.
// parentID may be Root.
func Siblings(parentID string, nodes []Node) []Node {
	out := []Node{}
	for _, n := range nodes {
		if n.ParentID == parentID {
			out = append(out, n)
		}
	}
	return out
}

// Descendants returns the subtree below id in pre-order, excluding id itself.
// Returns an empty slice for leaves, unknown ids and Root.
func Descendants(id string, nodes []Node) []Node {
	out := []Node{}
	if id == Root {
		return out
	}

	index := childIndex(nodes)
	visited := map[string]bool{id: true}

	var walk func(parent string)
	walk = func(parent string) {
		for _, i := range index[parent] {
			child := nodes[i]
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			out = append(out, child)
			walk(child.ID)
		}
	}
	walk(id)

	return out
}

// Ancestors returns the chain of nodes above id, ordered from the root goal
// down to the immediate parent. A dangling parent ends the chain.
func Ancestors(id string, nodes []Node) []Node {
	out := []Node{}

	byID := idIndex(nodes)
	i, ok := byID[id]
	if !ok {
		return out
	}

	seen := map[string]bool{id: true}
	parent := nodes[i].ParentID
	for parent != Root && !seen[parent] {
		seen[parent] = true
		j, ok := byID[parent]
		if !ok {
			break
		}
		out = append(out, nodes[j])
		parent = nodes[j].ParentID
	}

	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// Depth returns 1 for root goals and unknown ids, otherwise 1 + Depth(parent).
// A dangling parent counts as one level, the same as an unknown id would.
func Depth(id string, nodes []Node) int {
	return depthFrom(id, idIndex(nodes), nodes)
}

func depthFrom(id string, byID map[string]int, nodes []Node) int {
	seen := make(map[string]bool)

	depth := 1
	current := id
	for !seen[current] {
		seen[current] = true
		i, ok := byID[current]
		if !ok || nodes[i].ParentID == Root {
			break
		}
		depth++
		current = nodes[i].ParentID
	}
	return depth
}

// depthIndex returns Depth for every id in nodes in a single pass over the
// parent links. Chains that run into a cycle fall back to depthFrom.
func depthIndex(nodes []Node) map[string]int {
	byID := idIndex(nodes)
	memo := make(map[string]int, len(byID))

	for _, n := range nodes {
		if _, done := memo[n.ID]; done {
			continue
		}

		var path []string
		onPath := map[string]bool{}
		base, cyclic := 0, false
		current := n.ID
		for {
			if d, ok := memo[current]; ok {
				base = d
				break
			}
			if onPath[current] {
				cyclic = true
				break
			}
			i, ok := byID[current]
			if !ok {
				// dangling parent
				base = 1
				break
			}
			path = append(path, current)
			onPath[current] = true
			if nodes[i].ParentID == Root {
				break
			}
			current = nodes[i].ParentID
		}

		for k, id := range path {
			if cyclic {
				memo[id] = depthFrom(id, byID, nodes)
				continue
			}
			memo[id] = base + len(path) - k
		}
	}
	return memo
}

// IsDescendant reports whether a == b or a appears in Descendants(b).
func IsDescendant(a, b string, nodes []Node) bool {
	if a == b {
		return true
	}
	for _, d := range Descendants(b, nodes) {
		if d.ID == a {
			return true
		}
	}
	return false
}

// WouldCycle reports whether making candidateParent the parent of id would
// break the no-cycle invariant. Root never closes a cycle.
func WouldCycle(candidateParent, id string, nodes []Node) bool {
	if candidateParent == Root {
		return false
	}
	return IsDescendant(candidateParent, id, nodes)
}

// indexOf returns the slice index of id, or -1.
func indexOf(id string, nodes []Node) int {
	if id == Root {
		return -1
	}
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// idIndex maps each id to the index of its first occurrence.
func idIndex(nodes []Node) map[string]int {
	byID := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := byID[n.ID]; !dup {
			byID[n.ID] = i
		}
	}
	return byID
}

// childIndex maps each parent id to the slice indices of its children.
func childIndex(nodes []Node) map[string][]int {
	index := make(map[string][]int)
	for i, n := range nodes {
		index[n.ParentID] = append(index[n.ParentID], i)
	}
	return index
}

// siblingSlots returns the slice indices occupied by parentID's children.
func siblingSlots(parentID string, nodes []Node) []int {
	var slots []int
	for i, n := range nodes {
		if n.ParentID == parentID {
			slots = append(slots, i)
		}
	}
	return slots
}
