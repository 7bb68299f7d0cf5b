// Package tree implements the goal/to-do tree model and its mutation algebra.
//
// The collection is a flat, ordered []Node. Parent/child relationships are
// derived from Node.ParentID; nothing else stores an edge. Sibling order is
// the relative order of same-parent nodes inside the slice, so every reorder
// is a physical repositioning of slice entries.
//
// # Queries
//
// Query functions (Children, Descendants, Ancestors, Depth, IsDescendant,
// Siblings, WouldCycle) never mutate their input and never fail: an unknown
// id yields an empty slice, depth 1, or false. Descendants, Ancestors and
// Depth carry visited-set guards so that cyclic data loaded from outside
// cannot hang the process.
//
// # Mutations
//
// Mutations are methods on *Engine. An Engine holds only the clock and id
// generator used to stamp new nodes; it keeps no copy of the sequence.
// Each mutation returns the resulting sequence together with an Outcome:
//
//	nodes, goal, _ := eng.AddNode("Build a deck", tree.Root, nodes)
//	nodes, _, _ = eng.AddNode("Buy lumber", goal.ID, nodes)
//	nodes, outcome := eng.Reparent(goal.ID, someDescendant, nodes, tree.End)
//	// outcome == tree.CycleRejected, nodes unchanged
//
// Rejections (NotFound, CycleRejected, InvalidTitle) and no-ops (Unchanged)
// return the input slice as is, so callers can apply mutations speculatively
// from interactive code without error handling per call. Applied mutations
// always return a freshly allocated slice.
//
// # Invariants
//
// After every applied mutation:
//   - following ParentID from any node reaches Root (no cycles)
//   - every non-Root ParentID names a node in the sequence
//   - the order of each sibling group is total and comes only from slice order
//   - deleting a node deletes its whole subtree
package tree
