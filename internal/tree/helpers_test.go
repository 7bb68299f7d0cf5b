package tree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DataDaddy212/doney-mirror/internal/testutil"
)

// newTestEngine returns an engine that hands out the given ids in order and
// stamps times from a deterministic clock.
func newTestEngine(ids ...string) (*Engine, *testutil.DeterministicClock) {
	clock := testutil.NewDeterministicClock()
	return NewEngine(WithIDGenerator(NewFixedGenerator(ids...)), WithClock(clock)), clock
}

// idsOf returns the ids of nodes in order.
func idsOf(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

// deckFixture builds scenario 1: root A with children B and C.
func deckFixture(t *testing.T, e *Engine) []Node {
	t.Helper()

	nodes, _, o := e.AddNode("Build a deck", Root, nil)
	require.Equal(t, Applied, o)
	nodes, _, o = e.AddNode("Buy lumber", "A", nodes)
	require.Equal(t, Applied, o)
	nodes, _, o = e.AddNode("Cut boards", "A", nodes)
	require.Equal(t, Applied, o)
	return nodes
}

// sampleNodes is a hand-built sequence:
//
//	A Build a deck
//	  B Buy lumber (done)
//	  C Cut boards
//	    D Sand boards
//	E Plan trip
func sampleNodes() []Node {
	return []Node{
		{ID: "A", Title: "Build a deck", ParentID: Root, CreatedAt: 1},
		{ID: "B", Title: "Buy lumber", ParentID: "A", Completed: true, CreatedAt: 2},
		{ID: "C", Title: "Cut boards", ParentID: "A", CreatedAt: 3},
		{ID: "D", Title: "Sand boards", ParentID: "C", CreatedAt: 4},
		{ID: "E", Title: "Plan trip", ParentID: Root, CreatedAt: 5},
	}
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	copy(out, nodes)
	return out
}
