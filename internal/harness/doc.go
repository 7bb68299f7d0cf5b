// Package harness runs tree scenarios described in YAML.
//
// A scenario applies a list of mutations to an empty sequence and then checks
// the final state:
//
//	name: reorder_children
//	description: "Moving C to the front of A's children"
//	steps:
//	  - op: add
//	    as: A
//	    title: Build a deck
//	  - op: add
//	    as: B
//	    title: Buy lumber
//	    parent: A
//	  - op: reorder
//	    id: B
//	    index: 1
//	    expect: applied
//	assertions:
//	  - type: children
//	    node: A
//	    expect: [C, B]
//
// # Steps
//
//   - add: title, parent (optional), as (optional id alias)
//   - update: id, title and/or completed
//   - delete: id
//   - reorder: id, index
//   - reparent: id, parent (empty for root), position (start, end or an index)
//   - reorder_roots: ids
//
// Each step may name the outcome it expects (applied, unchanged, not-found,
// cycle-rejected, invalid-title). A step without expect must not be rejected.
//
// # Assertions
//
//   - children: ids of node's children in order (node empty for roots)
//   - siblings: ids of the sibling group node belongs to, node included
//   - depth: value is node's depth
//   - count: value is the number of nodes
//   - ancestors: ids from the root goal down to node's parent
//   - descendants: ids below node in depth-first order
//   - completed: value is node's completed flag
//
// # Determinism
//
// Runs use a deterministic clock and ids: an add step with "as" creates a
// node with exactly that id, otherwise ids are "n-1", "n-2" and so on. After
// the steps, the final sequence is saved to an in-memory SQLite store and
// loaded back; any difference fails the scenario. The final outline can be
// compared against testdata/golden/<name>.golden with RunWithGolden.
package harness
