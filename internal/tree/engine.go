package tree

// Engine applies mutations to node sequences.
//
// An Engine carries no sequence state: every method takes the current
// sequence and returns the next one. It only owns the id generator and clock
// used to stamp new and modified nodes, which keeps mutations deterministic
// under test.
type Engine struct {
	ids   IDGenerator
	clock Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides the default UUIDv7 id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithClock overrides the system clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// NewEngine creates an Engine with UUIDv7 ids and the system clock unless
// overridden by options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		ids:   UUIDv7Generator{},
		clock: SystemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) now() int64 {
	return e.clock.Now().UnixMilli()
}

// AddNode appends a new node under parentID, making it the last child.
//
// The title is normalized with NormalizeTitle; an empty result gives
// InvalidTitle. A non-Root parentID that does not resolve gives NotFound, so
// the engine never creates an orphan.
func (e *Engine) AddNode(title, parentID string, nodes []Node) ([]Node, Node, Outcome) {
	title = NormalizeTitle(title)
	if title == "" {
		return nodes, Node{}, InvalidTitle
	}
	if parentID != Root && indexOf(parentID, nodes) < 0 {
		return nodes, Node{}, NotFound
	}

	n := Node{
		ID:        e.ids.Generate(),
		Title:     title,
		ParentID:  parentID,
		CreatedAt: e.now(),
	}

	out := make([]Node, len(nodes), len(nodes)+1)
	copy(out, nodes)
	out = append(out, n)
	return out, n, Applied
}

// UpdateNode applies a shallow patch to the node with the given id.
// UpdatedAt is refreshed only when a field actually changes; a patch that
// matches the current values gives Unchanged.
func (e *Engine) UpdateNode(id string, patch Patch, nodes []Node) ([]Node, Outcome) {
	i := indexOf(id, nodes)
	if i < 0 {
		return nodes, NotFound
	}

	next := nodes[i]
	if patch.Title != nil {
		title := NormalizeTitle(*patch.Title)
		if title == "" {
			return nodes, InvalidTitle
		}
		next.Title = title
	}
	if patch.Completed != nil {
		next.Completed = *patch.Completed
	}

	if next.Title == nodes[i].Title && next.Completed == nodes[i].Completed {
		return nodes, Unchanged
	}
	next.UpdatedAt = e.now()

	out := make([]Node, len(nodes))
	copy(out, nodes)
	out[i] = next
	return out, Applied
}

// DeleteSubtree removes id and all of its descendants. Survivors keep their
// relative order.
func (e *Engine) DeleteSubtree(id string, nodes []Node) ([]Node, Outcome) {
	if indexOf(id, nodes) < 0 {
		return nodes, NotFound
	}

	doomed := map[string]bool{id: true}
	for _, d := range Descendants(id, nodes) {
		doomed[d.ID] = true
	}

	out := make([]Node, 0, len(nodes)-len(doomed))
	for _, n := range nodes {
		if !doomed[n.ID] {
			out = append(out, n)
		}
	}
	return out, Applied
}

// ReorderWithinParent moves id to newIndex among its current siblings,
// clamped to [0, siblingCount-1]. Only the slots already held by the sibling
// group are rewritten; every other node keeps its exact position.
func (e *Engine) ReorderWithinParent(id string, newIndex int, nodes []Node) ([]Node, Outcome) {
	i := indexOf(id, nodes)
	if i < 0 {
		return nodes, NotFound
	}

	slots := siblingSlots(nodes[i].ParentID, nodes)
	others := without(slots, i)
	order := insertAt(others, clamp(newIndex, 0, len(others)), i)

	if sameOrder(slots, order) {
		return nodes, Unchanged
	}
	return placeInSlots(nodes, slots, order), Applied
}

// Reparent changes id's parent to newParentID (or Root) and places it among
// the new siblings at pos.
//
// Guard clauses run before anything is modified: an unknown node or unknown
// parent gives NotFound, and a parent inside id's own subtree gives
// CycleRejected. Reparenting onto the current parent acts as a positional
// move. UpdatedAt is refreshed on success.
func (e *Engine) Reparent(id, newParentID string, nodes []Node, pos Position) ([]Node, Outcome) {
	i := indexOf(id, nodes)
	if i < 0 {
		return nodes, NotFound
	}
	if newParentID != Root && indexOf(newParentID, nodes) < 0 {
		return nodes, NotFound
	}
	if WouldCycle(newParentID, id, nodes) {
		return nodes, CycleRejected
	}

	work := make([]Node, len(nodes))
	copy(work, nodes)
	work[i].ParentID = newParentID

	slots := siblingSlots(newParentID, work)
	others := without(slots, i)
	order := insertAt(others, pos.resolve(len(others)), i)

	if nodes[i].ParentID == newParentID && sameOrder(slots, order) {
		return nodes, Unchanged
	}

	work[i].UpdatedAt = e.now()
	return placeInSlots(work, slots, order), Applied
}

// ReorderRoots reorders root goals to follow orderedIDs.
//
// Ids that are not current roots are ignored, duplicates keep their first
// occurrence, and roots missing from orderedIDs follow in their prior
// relative order, so no node is ever dropped. Non-root nodes keep their slots.
func (e *Engine) ReorderRoots(orderedIDs []string, nodes []Node) ([]Node, Outcome) {
	slots := siblingSlots(Root, nodes)

	rootSlot := make(map[string]int, len(slots))
	for _, s := range slots {
		if _, dup := rootSlot[nodes[s].ID]; !dup {
			rootSlot[nodes[s].ID] = s
		}
	}

	order := make([]int, 0, len(slots))
	placed := make(map[int]bool, len(slots))
	for _, id := range orderedIDs {
		s, ok := rootSlot[id]
		if !ok || placed[s] {
			continue
		}
		placed[s] = true
		order = append(order, s)
	}
	for _, s := range slots {
		if !placed[s] {
			order = append(order, s)
		}
	}

	if sameOrder(slots, order) {
		return nodes, Unchanged
	}
	return placeInSlots(nodes, slots, order), Applied
}

// placeInSlots returns a copy of nodes where slots[k] holds nodes[order[k]].
func placeInSlots(nodes []Node, slots, order []int) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)
	for k, s := range slots {
		out[s] = nodes[order[k]]
	}
	return out
}

func without(slots []int, drop int) []int {
	out := make([]int, 0, len(slots))
	for _, s := range slots {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}

func insertAt(order []int, at, v int) []int {
	out := make([]int, 0, len(order)+1)
	out = append(out, order[:at]...)
	out = append(out, v)
	return append(out, order[at:]...)
}

func sameOrder(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}
