package snapshot

import (
	"sort"

	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

// applyLegacyOrder converts records to nodes. When any record carries an
// "order" value, each sibling group is stably sorted by it, records without
// one following those that have it. Each group keeps the slots it already
// occupies in the sequence.
func applyLegacyOrder(records []record) []tree.Node {
	nodes := make([]tree.Node, len(records))
	ordered := false
	for i, r := range records {
		nodes[i] = r.Node
		if r.Order != nil {
			ordered = true
		}
	}
	if !ordered {
		return nodes
	}

	groups := make(map[string][]int)
	var parents []string
	for i, r := range records {
		if _, ok := groups[r.ParentID]; !ok {
			parents = append(parents, r.ParentID)
		}
		groups[r.ParentID] = append(groups[r.ParentID], i)
	}

	out := make([]tree.Node, len(nodes))
	copy(out, nodes)
	for _, p := range parents {
		slots := groups[p]
		order := make([]int, len(slots))
		copy(order, slots)
		sort.SliceStable(order, func(a, b int) bool {
			return orderLess(records[order[a]].Order, records[order[b]].Order)
		})
		for k, s := range slots {
			out[s] = nodes[order[k]]
		}
	}
	return out
}

func orderLess(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
