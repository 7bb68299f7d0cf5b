// Package snapshot converts node sequences to and from their persisted form.
//
// The persisted form is a JSON array of node records:
//
//	[{"id":"A","title":"Build a deck","completed":false,"parentId":null,"createdAt":1704067200001}]
//
// Decode is the only way external bytes become a []tree.Node. It validates
// the payload against an embedded JSON Schema, rejects sequences that break
// the tree invariants (duplicate ids, dangling parents, cycles, empty titles)
// and applies a legacy numeric "order" field once as the initial sibling order.
//
// Canonical and Digest give a stable byte form and content hash of a sequence
// so that persistence can skip writes that would not change anything.
package snapshot
