package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/DataDaddy212/doney-mirror/internal/persist"
	"github.com/DataDaddy212/doney-mirror/internal/snapshot"
	"github.com/DataDaddy212/doney-mirror/internal/store"
	"github.com/DataDaddy212/doney-mirror/internal/testutil"
	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

// Harness executes one scenario.
type Harness struct {
	engine *tree.Engine
	ids    *tree.FixedGenerator
	clock  *testutil.DeterministicClock
	logger *slog.Logger

	nodes  []tree.Node
	autoID int
	seq    int
	result *Result
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Apply each step to an empty sequence, checking expected outcomes
//  2. Save the final sequence to an in-memory store and load it back
//  3. Evaluate assertions against the final sequence
//
// Failed expectations and assertions are collected in Result.Errors. The
// returned error is reserved for infrastructure failures.
func Run(scenario *Scenario) (*Result, error) {
	ids := tree.NewFixedGenerator()
	clock := testutil.NewDeterministicClock()

	h := &Harness{
		engine: tree.NewEngine(tree.WithIDGenerator(ids), tree.WithClock(clock)),
		ids:    ids,
		clock:  clock,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		nodes:  []tree.Node{},
		result: NewResult(),
	}

	for i, step := range scenario.Steps {
		h.execute(i, step)
	}
	h.result.Final = h.nodes

	digest, err := snapshot.Digest(h.nodes)
	if err != nil {
		return nil, fmt.Errorf("digest final sequence: %w", err)
	}
	h.result.Digest = digest

	if err := h.roundTrip(context.Background()); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(h.nodes, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) execute(i int, step Step) {
	var (
		next []tree.Node
		o    tree.Outcome
		id   = step.ID
	)

	switch step.Op {
	case OpAdd:
		id = h.nextID(step.As)
		h.ids.Push(id)
		next, _, o = h.engine.AddNode(*step.Title, step.Parent, h.nodes)
		if o != tree.Applied {
			h.discardID(step.As)
		}
	case OpUpdate:
		next, o = h.engine.UpdateNode(step.ID, tree.Patch{Title: step.Title, Completed: step.Completed}, h.nodes)
	case OpDelete:
		next, o = h.engine.DeleteSubtree(step.ID, h.nodes)
	case OpReorder:
		next, o = h.engine.ReorderWithinParent(step.ID, *step.Index, h.nodes)
	case OpReparent:
		pos, _ := tree.ParsePosition(step.Position)
		next, o = h.engine.Reparent(step.ID, step.Parent, h.nodes, pos)
	case OpReorderRoots:
		next, o = h.engine.ReorderRoots(step.IDs, h.nodes)
	}

	h.seq++
	h.result.Trace = append(h.result.Trace, TraceEvent{Seq: h.seq, Op: step.Op, ID: id, Outcome: o})

	switch {
	case step.Expect != "" && o != step.Expect:
		h.result.AddError(fmt.Sprintf("steps[%d] %s %s: expected %s, got %s", i, step.Op, id, step.Expect, o))
	case step.Expect == "" && o.Rejected():
		h.result.AddError(fmt.Sprintf("steps[%d] %s %s: unexpectedly %s", i, step.Op, id, o))
	}

	if o.Rejected() && !slices.Equal(ids(next), ids(h.nodes)) {
		h.result.AddError(fmt.Sprintf("steps[%d] %s %s: rejected mutation changed the sequence", i, step.Op, id))
	}
	h.nodes = next
}

// nextID returns alias, or the next automatic id.
func (h *Harness) nextID(alias string) string {
	if alias != "" {
		return alias
	}
	h.autoID++
	return fmt.Sprintf("n-%d", h.autoID)
}

// discardID takes back the id reserved for an add the engine rejected before
// generating one, so automatic ids only count created nodes.
func (h *Harness) discardID(alias string) {
	h.ids.Generate()
	if alias == "" {
		h.autoID--
	}
}

// roundTrip saves the final sequence and loads it back through a fresh
// repository.
func (h *Harness) roundTrip(ctx context.Context) error {
	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	opts := []persist.RepositoryOption{persist.WithLogger(h.logger), persist.WithClock(h.clock)}
	if _, err := persist.NewRepository(st, persist.DefaultKey, opts...).Save(ctx, h.nodes); err != nil {
		return fmt.Errorf("save final sequence: %w", err)
	}
	loaded, err := persist.NewRepository(st, persist.DefaultKey, opts...).Load(ctx)
	if err != nil {
		return fmt.Errorf("load final sequence: %w", err)
	}

	if !slices.Equal(loaded, h.nodes) {
		h.result.AddError(fmt.Sprintf("round trip: loaded %d node(s) differ from the %d saved", len(loaded), len(h.nodes)))
	}
	return nil
}

func ids(nodes []tree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
