package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Scenarios
// =============================================================================

func TestScenario_AddChildren(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	assert.Equal(t, []string{"B", "C"}, idsOf(Children("A", nodes)))
	assert.Equal(t, 1, Depth("A", nodes))
	assert.Equal(t, 2, Depth("B", nodes))
	assert.Equal(t, 2, Depth("C", nodes))
}

func TestScenario_ReorderWithinParent(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	nodes, o := e.ReorderWithinParent("C", 0, nodes)
	require.Equal(t, Applied, o)

	assert.Equal(t, []string{"C", "B"}, idsOf(Children("A", nodes)))
	assert.Equal(t, []string{"A", "C", "B"}, idsOf(nodes))
}

func TestScenario_ReparentIntoOwnSubtreeRejected(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C", "D")
	nodes := deckFixture(t, e)

	nodes, _, o := e.AddNode("Sand boards", "C", nodes)
	require.Equal(t, Applied, o)
	require.True(t, WouldCycle("D", "A", nodes))

	before := cloneNodes(nodes)
	got, o := e.Reparent("A", "D", nodes, End)

	assert.Equal(t, CycleRejected, o)
	assert.Equal(t, before, got)
	assert.Equal(t, before, nodes, "input must not be modified")
}

func TestScenario_DeleteSubtree(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	got, o := e.DeleteSubtree("A", nodes)

	assert.Equal(t, Applied, o)
	assert.Empty(t, got)
	assert.Len(t, nodes, 3, "input must not be modified")
}

func TestScenario_ReorderRootsThenAppend(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C", "N")

	var nodes []Node
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		var o Outcome
		nodes, _, o = e.AddNode(title, Root, nodes)
		require.Equal(t, Applied, o)
	}

	nodes, o := e.ReorderRoots([]string{"C", "A", "B"}, nodes)
	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"C", "A", "B"}, idsOf(Siblings(Root, nodes)))

	nodes, added, o := e.AddNode("New root", Root, nodes)
	require.Equal(t, Applied, o)
	assert.Equal(t, "N", added.ID)
	assert.Equal(t, []string{"C", "A", "B", "N"}, idsOf(Siblings(Root, nodes)))
}

func TestScenario_UpdateIsIdempotent(t *testing.T) {
	e, clock := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	done := true
	nodes, o := e.UpdateNode("B", Patch{Completed: &done}, nodes)
	require.Equal(t, Applied, o)
	first, _ := Find("B", nodes)
	assert.True(t, first.Completed)
	assert.Equal(t, clock.Current(), first.UpdatedAt)

	nodes, o = e.UpdateNode("B", Patch{Completed: &done}, nodes)
	assert.Equal(t, Unchanged, o)

	second, _ := Find("B", nodes)
	assert.True(t, second.Completed)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Len(t, nodes, 3)
	assert.Len(t, Children("A", nodes), 2)
}

// =============================================================================
// AddNode
// =============================================================================

func TestAddNode_StampsCreatedAt(t *testing.T) {
	e, clock := newTestEngine("A")

	nodes, n, o := e.AddNode("Build a deck", Root, nil)

	require.Equal(t, Applied, o)
	require.Len(t, nodes, 1)
	assert.Equal(t, n, nodes[0])
	assert.Equal(t, "A", n.ID)
	assert.Equal(t, Root, n.ParentID)
	assert.False(t, n.Completed)
	assert.Equal(t, clock.Current(), n.CreatedAt)
	assert.Zero(t, n.UpdatedAt)
}

func TestAddNode_NormalizesTitle(t *testing.T) {
	e, _ := newTestEngine("A", "B")

	_, n, o := e.AddNode("  Buy lumber \n", Root, nil)
	require.Equal(t, Applied, o)
	assert.Equal(t, "Buy lumber", n.Title)

	// "e" + combining acute accent composes to a single code point.
	_, n, o = e.AddNode("Cafe\u0301", Root, nil)
	require.Equal(t, Applied, o)
	assert.Equal(t, "Caf\u00e9", n.Title)
}

func TestAddNode_EmptyTitleRejected(t *testing.T) {
	e, _ := newTestEngine()

	for _, title := range []string{"", "   ", "\t\n"} {
		got, n, o := e.AddNode(title, Root, nil)
		assert.Equal(t, InvalidTitle, o, "title %q", title)
		assert.Empty(t, got)
		assert.Zero(t, n)
	}
}

func TestAddNode_UnknownParentRejected(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	got, _, o := e.AddNode("Orphan", "missing", nodes)

	assert.Equal(t, NotFound, o)
	assert.Equal(t, nodes, got)
}

func TestAddNode_AppendsAsLastChild(t *testing.T) {
	e, _ := newTestEngine("A", "X", "B", "C")

	nodes, _, _ := e.AddNode("Build a deck", Root, nil)
	nodes, _, _ = e.AddNode("Other goal", Root, nodes)
	nodes, _, _ = e.AddNode("Buy lumber", "A", nodes)
	nodes, _, _ = e.AddNode("Cut boards", "A", nodes)

	assert.Equal(t, []string{"B", "C"}, idsOf(Children("A", nodes)))
	assert.Equal(t, []string{"A", "X"}, idsOf(Roots(nodes)))
}

// =============================================================================
// UpdateNode
// =============================================================================

func TestUpdateNode_Title(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	title := "  Buy cedar  "
	nodes, o := e.UpdateNode("B", Patch{Title: &title}, nodes)

	require.Equal(t, Applied, o)
	b, _ := Find("B", nodes)
	assert.Equal(t, "Buy cedar", b.Title)
	assert.Equal(t, "A", b.ParentID)
}

func TestUpdateNode_SameTitleAfterNormalizationIsUnchanged(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	title := " Buy lumber "
	got, o := e.UpdateNode("B", Patch{Title: &title}, nodes)

	assert.Equal(t, Unchanged, o)
	assert.Equal(t, nodes, got)
}

func TestUpdateNode_EmptyTitleRejected(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	title := "  "
	done := true
	got, o := e.UpdateNode("B", Patch{Title: &title, Completed: &done}, nodes)

	assert.Equal(t, InvalidTitle, o)
	assert.Equal(t, nodes, got, "nothing from a rejected patch is applied")
}

func TestUpdateNode_NotFound(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	done := true
	got, o := e.UpdateNode("missing", Patch{Completed: &done}, nodes)

	assert.Equal(t, NotFound, o)
	assert.Equal(t, nodes, got)
}

func TestUpdateNode_EmptyPatchIsUnchanged(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	_, o := e.UpdateNode("B", Patch{}, nodes)
	assert.Equal(t, Unchanged, o)
}

func TestUpdateNode_DoesNotModifyInput(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)
	before := cloneNodes(nodes)

	done := true
	_, o := e.UpdateNode("B", Patch{Completed: &done}, nodes)

	require.Equal(t, Applied, o)
	assert.Equal(t, before, nodes)
}

// =============================================================================
// DeleteSubtree
// =============================================================================

func TestDeleteSubtree_KeepsSurvivorOrder(t *testing.T) {
	e := NewEngine()
	nodes := sampleNodes()

	got, o := e.DeleteSubtree("C", nodes)

	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"A", "B", "E"}, idsOf(got))
}

func TestDeleteSubtree_Leaf(t *testing.T) {
	e := NewEngine()

	got, o := e.DeleteSubtree("D", sampleNodes())

	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"A", "B", "C", "E"}, idsOf(got))
}

func TestDeleteSubtree_NotFound(t *testing.T) {
	e := NewEngine()
	nodes := sampleNodes()

	got, o := e.DeleteSubtree("missing", nodes)

	assert.Equal(t, NotFound, o)
	assert.Equal(t, nodes, got)
}

func TestDeleteSubtree_RootIsNotANode(t *testing.T) {
	e := NewEngine()
	nodes := sampleNodes()

	got, o := e.DeleteSubtree(Root, nodes)

	assert.Equal(t, NotFound, o)
	assert.Len(t, got, len(nodes))
}

// =============================================================================
// ReorderWithinParent
// =============================================================================

func TestReorderWithinParent_Clamps(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	got, o := e.ReorderWithinParent("B", 99, nodes)
	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"C", "B"}, idsOf(Children("A", got)))

	got, o = e.ReorderWithinParent("C", -3, nodes)
	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"C", "B"}, idsOf(Children("A", got)))
}

func TestReorderWithinParent_SamePositionIsUnchanged(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	got, o := e.ReorderWithinParent("B", 0, nodes)

	assert.Equal(t, Unchanged, o)
	assert.Equal(t, nodes, got)
}

func TestReorderWithinParent_OnlyTouchesSiblingSlots(t *testing.T) {
	e, _ := newTestEngine("A", "X", "B", "Y", "C")

	nodes, _, _ := e.AddNode("Build a deck", Root, nil)
	nodes, _, _ = e.AddNode("Other goal", Root, nodes)
	nodes, _, _ = e.AddNode("Buy lumber", "A", nodes)
	nodes, _, _ = e.AddNode("Third goal", Root, nodes)
	nodes, _, _ = e.AddNode("Cut boards", "A", nodes)
	require.Equal(t, []string{"A", "X", "B", "Y", "C"}, idsOf(nodes))

	got, o := e.ReorderWithinParent("C", 0, nodes)

	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"A", "X", "C", "Y", "B"}, idsOf(got))
	assert.Equal(t, []string{"A", "X", "Y"}, idsOf(Roots(got)))
}

func TestReorderWithinParent_DoesNotBumpUpdatedAt(t *testing.T) {
	e, _ := newTestEngine("A", "B", "C")
	nodes := deckFixture(t, e)

	got, o := e.ReorderWithinParent("C", 0, nodes)

	require.Equal(t, Applied, o)
	c, _ := Find("C", got)
	assert.Zero(t, c.UpdatedAt)
}

func TestReorderWithinParent_NotFound(t *testing.T) {
	e := NewEngine()
	nodes := sampleNodes()

	got, o := e.ReorderWithinParent("missing", 0, nodes)

	assert.Equal(t, NotFound, o)
	assert.Equal(t, nodes, got)
}

func TestReorderWithinParent_Roots(t *testing.T) {
	e := NewEngine()

	got, o := e.ReorderWithinParent("E", 0, sampleNodes())

	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"E", "A"}, idsOf(Roots(got)))
}

// =============================================================================
// Reparent
// =============================================================================

func TestReparent_ToRootAtEnd(t *testing.T) {
	e, clock := newTestEngine()

	got, o := e.Reparent("D", Root, sampleNodes(), End)

	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"A", "E", "D"}, idsOf(Roots(got)))
	d, _ := Find("D", got)
	assert.True(t, d.IsRoot())
	assert.Equal(t, clock.Current(), d.UpdatedAt)
	assert.Empty(t, Children("C", got))
}

func TestReparent_ToRootAtStart(t *testing.T) {
	e := NewEngine()

	got, o := e.Reparent("D", Root, sampleNodes(), Start)

	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"D", "A", "E"}, idsOf(Roots(got)))
	assert.Equal(t, []string{"B", "C"}, idsOf(Children("A", got)))
}

func TestReparent_AtIndex(t *testing.T) {
	e := NewEngine()

	got, o := e.Reparent("B", "C", sampleNodes(), At(0))

	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"B", "D"}, idsOf(Children("C", got)))
	assert.Equal(t, []string{"C"}, idsOf(Children("A", got)))
	assert.Equal(t, 3, Depth("B", got))
}

func TestReparent_IndexClamped(t *testing.T) {
	e := NewEngine()

	got, o := e.Reparent("B", "C", sampleNodes(), At(42))
	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"D", "B"}, idsOf(Children("C", got)))

	got, o = e.Reparent("B", "C", sampleNodes(), At(-1))
	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"B", "D"}, idsOf(Children("C", got)))
}

func TestReparent_DefaultPositionIsEnd(t *testing.T) {
	e := NewEngine()

	var pos Position
	got, o := e.Reparent("E", "A", sampleNodes(), pos)

	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"B", "C", "E"}, idsOf(Children("A", got)))
}

func TestReparent_SameParentMovesPosition(t *testing.T) {
	e := NewEngine()

	got, o := e.Reparent("B", "A", sampleNodes(), End)

	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"C", "B"}, idsOf(Children("A", got)))
}

func TestReparent_SameParentSamePositionIsUnchanged(t *testing.T) {
	e := NewEngine()
	nodes := sampleNodes()

	got, o := e.Reparent("C", "A", nodes, End)

	assert.Equal(t, Unchanged, o)
	assert.Equal(t, nodes, got)
}

func TestReparent_SelfRejected(t *testing.T) {
	e := NewEngine()
	nodes := sampleNodes()

	got, o := e.Reparent("C", "C", nodes, End)

	assert.Equal(t, CycleRejected, o)
	assert.Equal(t, nodes, got)
}

func TestReparent_DescendantRejected(t *testing.T) {
	e := NewEngine()
	nodes := sampleNodes()

	got, o := e.Reparent("A", "D", nodes, Start)

	assert.Equal(t, CycleRejected, o)
	assert.Equal(t, nodes, got)
}

func TestReparent_NotFound(t *testing.T) {
	e := NewEngine()
	nodes := sampleNodes()

	got, o := e.Reparent("missing", "A", nodes, End)
	assert.Equal(t, NotFound, o)
	assert.Equal(t, nodes, got)

	got, o = e.Reparent("B", "missing", nodes, End)
	assert.Equal(t, NotFound, o)
	assert.Equal(t, nodes, got)
}

func TestReparent_DoesNotModifyInput(t *testing.T) {
	e := NewEngine()
	nodes := sampleNodes()
	before := cloneNodes(nodes)

	_, o := e.Reparent("D", Root, nodes, Start)

	require.Equal(t, Applied, o)
	assert.Equal(t, before, nodes)
}

// =============================================================================
// ReorderRoots
// =============================================================================

func TestReorderRoots_IgnoresUnknownDuplicateAndNonRootIDs(t *testing.T) {
	e := NewEngine()
	nodes := append(sampleNodes(), Node{ID: "F", Title: "Third goal", ParentID: Root})

	got, o := e.ReorderRoots([]string{"F", "missing", "F", "B", "A"}, nodes)

	require.Equal(t, Applied, o)
	assert.Equal(t, []string{"F", "A", "E"}, idsOf(Roots(got)))
	assert.Len(t, got, len(nodes))
	assert.Equal(t, []string{"B", "C"}, idsOf(Children("A", got)))
}

func TestReorderRoots_SameOrderIsUnchanged(t *testing.T) {
	e := NewEngine()
	nodes := sampleNodes()

	got, o := e.ReorderRoots([]string{"A", "E"}, nodes)

	assert.Equal(t, Unchanged, o)
	assert.Equal(t, nodes, got)
}

func TestReorderRoots_EmptyListIsUnchanged(t *testing.T) {
	e := NewEngine()

	_, o := e.ReorderRoots(nil, sampleNodes())
	assert.Equal(t, Unchanged, o)
}
