// Package workspace owns the canonical node sequence of a running doney
// process.
//
// A Workspace is a single-writer actor: every read and mutation is queued and
// applied in FIFO order by one Run goroutine, so callers on any goroutine
// (HTTP handlers, the planner, CLI commands) never race on the sequence.
// Each applied mutation is handed to a Scheduler (normally a debounced
// persist.Saver) and counted in metrics; rejected mutations are logged at WARN
// and leave the sequence untouched.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DataDaddy212/doney-mirror/internal/metrics"
	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

// ErrStopped is returned for requests made after the workspace stopped.
var ErrStopped = errors.New("workspace stopped")

// Operation names used in logs and metrics.
const (
	OpAdd          = "add"
	OpUpdate       = "update"
	OpDelete       = "delete"
	OpReorder      = "reorder"
	OpReparent     = "reparent"
	OpReorderRoots = "reorder_roots"
	OpApplyPlan    = "apply_plan"
	OpReplace      = "replace"

	opRead = "read"
)

// Scheduler receives every sequence produced by an applied mutation.
// *persist.Saver implements it.
type Scheduler interface {
	Schedule(nodes []tree.Node)
}

// Workspace serializes access to one node sequence.
type Workspace struct {
	engine  *tree.Engine
	saver   Scheduler
	logger  *slog.Logger
	metrics *metrics.Recorder
	queue   *requestQueue

	// nodes is only touched by the Run goroutine.
	nodes []tree.Node
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithScheduler sets where applied sequences are sent for saving.
func WithScheduler(s Scheduler) Option {
	return func(w *Workspace) {
		w.saver = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = l
	}
}

// WithMetrics records mutations and the sequence size on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(w *Workspace) {
		w.metrics = m
	}
}

// New creates a workspace holding initial. A sequence that fails tree.Valid
// is passed through tree.Repair first and the repair is logged at WARN.
func New(engine *tree.Engine, initial []tree.Node, opts ...Option) *Workspace {
	if initial == nil {
		initial = []tree.Node{}
	}
	w := &Workspace{
		engine: engine,
		logger: slog.Default(),
		queue:  newRequestQueue(),
		nodes:  initial,
	}
	for _, opt := range opts {
		opt(w)
	}
	if !tree.Valid(initial) {
		repaired, violations := tree.Repair(initial)
		w.logger.Warn("repairing initial sequence",
			"violations", len(violations),
			"first", violations[0].String(),
			"nodes", len(initial),
			"kept", len(repaired))
		w.nodes = repaired
	}
	w.metrics.SetNodes(len(w.nodes))
	return w
}

// request is one queued unit of work. apply runs on the Run goroutine.
type request struct {
	op    string
	id    string
	apply func(nodes []tree.Node) ([]tree.Node, result)
	done  chan result
}

type result struct {
	outcome tree.Outcome
	node    tree.Node
	nodes   []tree.Node
	err     error
}

// Run applies queued requests until ctx is cancelled or Stop is called.
//
// After Stop, requests already queued are still applied before Run returns
// nil. On cancellation, queued requests fail with ErrStopped and Run returns
// ctx.Err().
func (w *Workspace) Run(ctx context.Context) error {
	w.logger.Debug("workspace starting", "nodes", len(w.nodes))

	for {
		if req, ok := w.queue.TryDequeue(); ok {
			w.process(req)
			continue
		}

		select {
		case <-ctx.Done():
			w.logger.Debug("workspace stopping: context cancelled")
			w.queue.Close()
			w.drain()
			return ctx.Err()

		case <-w.queue.Wait():
			if w.queue.Closed() && w.queue.Len() == 0 {
				w.logger.Debug("workspace stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once the remaining requests are applied.
func (w *Workspace) Stop() {
	w.queue.Close()
}

func (w *Workspace) process(req *request) {
	next, res := req.apply(w.nodes)

	if req.op != opRead {
		w.metrics.Mutation(req.op, string(res.outcome))
	}
	switch {
	case res.outcome == tree.Applied:
		w.nodes = next
		w.metrics.SetNodes(len(next))
		if w.saver != nil {
			w.saver.Schedule(next)
		}
		w.logger.Debug("mutation applied", "op", req.op, "id", req.id, "nodes", len(next))
	case res.outcome.Rejected():
		w.logger.Warn("mutation rejected", "op", req.op, "id", req.id, "outcome", res.outcome)
	}

	res.nodes = w.nodes
	req.done <- res
}

func (w *Workspace) drain() {
	for {
		req, ok := w.queue.TryDequeue()
		if !ok {
			return
		}
		req.done <- result{err: ErrStopped}
	}
}

// submit queues req and waits for its result.
//
// A request that is queued when ctx is cancelled may still be applied.
func (w *Workspace) submit(ctx context.Context, req *request) (result, error) {
	req.done = make(chan result, 1)
	if !w.queue.Enqueue(req) {
		return result{}, ErrStopped
	}

	select {
	case <-ctx.Done():
		return result{}, ctx.Err()
	case res := <-req.done:
		if res.err != nil {
			return result{}, res.err
		}
		return res, nil
	}
}

// read queues a request that never changes the sequence.
func (w *Workspace) read(ctx context.Context) ([]tree.Node, error) {
	res, err := w.submit(ctx, &request{
		op: opRead,
		apply: func(nodes []tree.Node) ([]tree.Node, result) {
			return nodes, result{outcome: tree.Unchanged}
		},
	})
	if err != nil {
		return nil, err
	}
	return res.nodes, nil
}

// Nodes returns a copy of the current sequence.
func (w *Workspace) Nodes(ctx context.Context) ([]tree.Node, error) {
	nodes, err := w.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]tree.Node, len(nodes))
	copy(out, nodes)
	return out, nil
}

// View calls fn with the current sequence on the Run goroutine. fn must not
// retain or modify the slice.
func (w *Workspace) View(ctx context.Context, fn func(nodes []tree.Node)) error {
	nodes, err := w.read(ctx)
	if err != nil {
		return err
	}
	// Engine results are never modified in place, so the slice stays valid
	// after the loop moves on.
	fn(nodes)
	return nil
}

// Add appends a node titled title under parentID (tree.Root for a goal).
func (w *Workspace) Add(ctx context.Context, title, parentID string) (tree.Node, tree.Outcome, error) {
	res, err := w.submit(ctx, &request{
		op: OpAdd,
		id: parentID,
		apply: func(nodes []tree.Node) ([]tree.Node, result) {
			next, n, o := w.engine.AddNode(title, parentID, nodes)
			return next, result{outcome: o, node: n}
		},
	})
	if err != nil {
		return tree.Node{}, "", err
	}
	return res.node, res.outcome, nil
}

// Update applies patch to id.
func (w *Workspace) Update(ctx context.Context, id string, patch tree.Patch) (tree.Node, tree.Outcome, error) {
	res, err := w.submit(ctx, &request{
		op: OpUpdate,
		id: id,
		apply: func(nodes []tree.Node) ([]tree.Node, result) {
			next, o := w.engine.UpdateNode(id, patch, nodes)
			n, _ := tree.Find(id, next)
			return next, result{outcome: o, node: n}
		},
	})
	if err != nil {
		return tree.Node{}, "", err
	}
	return res.node, res.outcome, nil
}

// Delete removes id and its descendants. Returns how many nodes were removed.
func (w *Workspace) Delete(ctx context.Context, id string) (int, tree.Outcome, error) {
	removed := 0
	res, err := w.submit(ctx, &request{
		op: OpDelete,
		id: id,
		apply: func(nodes []tree.Node) ([]tree.Node, result) {
			next, o := w.engine.DeleteSubtree(id, nodes)
			removed = len(nodes) - len(next)
			return next, result{outcome: o}
		},
	})
	if err != nil {
		return 0, "", err
	}
	return removed, res.outcome, nil
}

// Reorder moves id to index among its siblings.
func (w *Workspace) Reorder(ctx context.Context, id string, index int) (tree.Outcome, error) {
	return w.mutate(ctx, OpReorder, id, func(nodes []tree.Node) ([]tree.Node, tree.Outcome) {
		return w.engine.ReorderWithinParent(id, index, nodes)
	})
}

// Reparent moves id under parentID at pos.
func (w *Workspace) Reparent(ctx context.Context, id, parentID string, pos tree.Position) (tree.Outcome, error) {
	return w.mutate(ctx, OpReparent, id, func(nodes []tree.Node) ([]tree.Node, tree.Outcome) {
		return w.engine.Reparent(id, parentID, nodes, pos)
	})
}

// ReorderRoots reorders the root goals to follow ids.
func (w *Workspace) ReorderRoots(ctx context.Context, ids []string) (tree.Outcome, error) {
	return w.mutate(ctx, OpReorderRoots, "", func(nodes []tree.Node) ([]tree.Node, tree.Outcome) {
		return w.engine.ReorderRoots(ids, nodes)
	})
}

// ApplyPlan adds one child of parentID per title, in order, as a single
// all-or-nothing change: if any title is rejected, nothing is added and the
// rejecting outcome is returned. The added nodes are returned on success.
func (w *Workspace) ApplyPlan(ctx context.Context, parentID string, titles []string) ([]tree.Node, tree.Outcome, error) {
	var added []tree.Node
	res, err := w.submit(ctx, &request{
		op: OpApplyPlan,
		id: parentID,
		apply: func(nodes []tree.Node) ([]tree.Node, result) {
			added = nil
			if len(titles) == 0 {
				return nodes, result{outcome: tree.Unchanged}
			}
			next := nodes
			for _, title := range titles {
				var n tree.Node
				var o tree.Outcome
				next, n, o = w.engine.AddNode(title, parentID, next)
				if o != tree.Applied {
					added = nil
					return nodes, result{outcome: o}
				}
				added = append(added, n)
			}
			return next, result{outcome: tree.Applied}
		},
	})
	if err != nil {
		return nil, "", err
	}
	if res.outcome != tree.Applied {
		return nil, res.outcome, nil
	}
	return added, res.outcome, nil
}

// Replace swaps the whole sequence, as for an import. nodes must pass
// tree.Check; an invalid sequence is refused without touching the workspace.
func (w *Workspace) Replace(ctx context.Context, nodes []tree.Node) error {
	if v := tree.Check(nodes); len(v) > 0 {
		return fmt.Errorf("replace: %d violation(s), first: %s", len(v), v[0])
	}
	replacement := make([]tree.Node, len(nodes))
	copy(replacement, nodes)

	_, err := w.submit(ctx, &request{
		op: OpReplace,
		apply: func([]tree.Node) ([]tree.Node, result) {
			return replacement, result{outcome: tree.Applied}
		},
	})
	return err
}

func (w *Workspace) mutate(ctx context.Context, op, id string, fn func([]tree.Node) ([]tree.Node, tree.Outcome)) (tree.Outcome, error) {
	res, err := w.submit(ctx, &request{
		op: op,
		id: id,
		apply: func(nodes []tree.Node) ([]tree.Node, result) {
			next, o := fn(nodes)
			return next, result{outcome: o}
		},
	})
	if err != nil {
		return "", err
	}
	return res.outcome, nil
}
