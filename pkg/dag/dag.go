package dag

import (
	"errors"
	"slices"
)

var (
	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [DAG.AddEdge] when the edge would close
	// a cycle, and by [DAG.Validate] when a cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrInvalidOrder is returned by [DAG.Validate] when an edge points
	// backwards in the maintained topological order. This indicates
	// corruption of the internal order.
	ErrInvalidOrder = errors.New("edge violates topological order")
)

// NodeID is a handle to a node. Handles are dense, starting at zero, in
// allocation order.
type NodeID int32

// Edge is a directed connection From -> To.
type Edge struct {
	From NodeID
	To   NodeID
	Ref  int32 // Caller-defined reference, e.g. the index of a dependency declaration
}

// DAG is a directed acyclic graph over integer node handles.
//
// The zero value is an empty graph ready for use.
type DAG struct {
	edges []Edge
	out   [][]int32 // node -> indices into edges
	in    [][]int32 // node -> indices into edges
	ord   []int     // node -> topological position

	mark  []uint32 // visit stamps for bounded searches
	epoch uint32
}

// New creates an empty DAG.
func New() *DAG { return &DAG{} }

// Grow preallocates room for n more nodes.
func (d *DAG) Grow(n int) {
	d.out = slices.Grow(d.out, n)
	d.in = slices.Grow(d.in, n)
	d.ord = slices.Grow(d.ord, n)
	d.mark = slices.Grow(d.mark, n)
}

// AddNode allocates a new node and returns its handle. New nodes are placed
// last in the topological order. This is O(1).
func (d *DAG) AddNode() NodeID {
	id := NodeID(len(d.ord))
	d.out = append(d.out, nil)
	d.in = append(d.in, nil)
	d.ord = append(d.ord, len(d.ord))
	d.mark = append(d.mark, 0)
	return id
}

func (d *DAG) has(id NodeID) bool { return id >= 0 && int(id) < len(d.ord) }

// AddEdge inserts e unless it would create a cycle.
//
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode for handles that were
// never allocated, and ErrGraphHasCycle if To can already reach From
// (including the self-loop From == To). A rejected edge leaves the graph
// unchanged. Parallel edges between the same nodes are allowed.
func (d *DAG) AddEdge(e Edge) error {
	if !d.has(e.From) {
		return ErrUnknownSourceNode
	}
	if !d.has(e.To) {
		return ErrUnknownTargetNode
	}
	if e.From == e.To {
		return ErrGraphHasCycle
	}

	if lb, ub := d.ord[e.To], d.ord[e.From]; lb < ub {
		d.epoch++
		fwd, ok := d.forward(e.To, ub)
		if !ok {
			return ErrGraphHasCycle
		}
		bwd := d.backward(e.From, lb)
		d.reorder(bwd, fwd)
	}

	idx := int32(len(d.edges))
	d.edges = append(d.edges, e)
	d.out[e.From] = append(d.out[e.From], idx)
	d.in[e.To] = append(d.in[e.To], idx)
	return nil
}

// forward collects the nodes reachable from start whose position is below
// ub. It reports false if the node at position ub (the edge source) is
// reachable.
func (d *DAG) forward(start NodeID, ub int) ([]NodeID, bool) {
	var visited []NodeID
	stack := []NodeID{start}
	d.mark[start] = d.epoch
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited = append(visited, n)
		for _, ei := range d.out[n] {
			w := d.edges[ei].To
			switch o := d.ord[w]; {
			case o == ub:
				return nil, false
			case o < ub && d.mark[w] != d.epoch:
				d.mark[w] = d.epoch
				stack = append(stack, w)
			}
		}
	}
	return visited, true
}

// backward collects the nodes that reach start whose position is above lb.
func (d *DAG) backward(start NodeID, lb int) []NodeID {
	var visited []NodeID
	stack := []NodeID{start}
	d.mark[start] = d.epoch
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited = append(visited, n)
		for _, ei := range d.in[n] {
			w := d.edges[ei].From
			if d.ord[w] > lb && d.mark[w] != d.epoch {
				d.mark[w] = d.epoch
				stack = append(stack, w)
			}
		}
	}
	return visited
}

// reorder reassigns the positions held by bwd and fwd so that every node in
// bwd precedes every node in fwd, preserving relative order inside each set.
func (d *DAG) reorder(bwd, fwd []NodeID) {
	byOrd := func(a, b NodeID) int { return d.ord[a] - d.ord[b] }
	slices.SortFunc(bwd, byOrd)
	slices.SortFunc(fwd, byOrd)

	nodes := append(bwd, fwd...)
	pool := make([]int, len(nodes))
	for i, n := range nodes {
		pool[i] = d.ord[n]
	}
	slices.Sort(pool)
	for i, n := range nodes {
		d.ord[n] = pool[i]
	}
}

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.ord) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// OutEdges returns the edges leaving id in insertion order.
// Returns nil if the node has none or doesn't exist.
func (d *DAG) OutEdges(id NodeID) []Edge {
	if !d.has(id) {
		return nil
	}
	return d.collect(d.out[id])
}

// InEdges returns the edges entering id in insertion order.
// Returns nil if the node has none or doesn't exist.
func (d *DAG) InEdges(id NodeID) []Edge {
	if !d.has(id) {
		return nil
	}
	return d.collect(d.in[id])
}

func (d *DAG) collect(idx []int32) []Edge {
	if len(idx) == 0 {
		return nil
	}
	edges := make([]Edge, len(idx))
	for i, ei := range idx {
		edges[i] = d.edges[ei]
	}
	return edges
}

// Children returns the targets of id's outgoing edges (its dependencies).
// Parallel edges yield repeated entries.
func (d *DAG) Children(id NodeID) []NodeID {
	if !d.has(id) {
		return nil
	}
	var ids []NodeID
	for _, ei := range d.out[id] {
		ids = append(ids, d.edges[ei].To)
	}
	return ids
}

// Parents returns the sources of id's incoming edges (its dependents).
// Parallel edges yield repeated entries.
func (d *DAG) Parents(id NodeID) []NodeID {
	if !d.has(id) {
		return nil
	}
	var ids []NodeID
	for _, ei := range d.in[id] {
		ids = append(ids, d.edges[ei].From)
	}
	return ids
}

// OutDegree returns the number of outgoing edges from the node.
// Returns 0 if the node doesn't exist.
func (d *DAG) OutDegree(id NodeID) int {
	if !d.has(id) {
		return 0
	}
	return len(d.out[id])
}

// InDegree returns the number of incoming edges to the node.
// Returns 0 if the node doesn't exist.
func (d *DAG) InDegree(id NodeID) int {
	if !d.has(id) {
		return 0
	}
	return len(d.in[id])
}

// Sources returns nodes with no incoming edges, in handle order.
func (d *DAG) Sources() []NodeID {
	var ids []NodeID
	for i := range d.in {
		if len(d.in[i]) == 0 {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// Sinks returns nodes with no outgoing edges, in handle order.
func (d *DAG) Sinks() []NodeID {
	var ids []NodeID
	for i := range d.out {
		if len(d.out[i]) == 0 {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// TopoOrder returns every node such that each edge points from an earlier
// to a later entry.
func (d *DAG) TopoOrder() []NodeID {
	ids := make([]NodeID, len(d.ord))
	for n, pos := range d.ord {
		ids[pos] = NodeID(n)
	}
	return ids
}

// Reachable returns every node reachable from start by following edges
// forward (forward=true) or backward, excluding start itself unless it lies
// on a cycle (which a valid DAG never has).
func (d *DAG) Reachable(start NodeID, forward bool) []NodeID {
	if !d.has(start) {
		return nil
	}
	return d.ReachableFrom([]NodeID{start}, forward)
}

// ReachableFrom returns every node reachable from any of starts in one
// traversal. Each node appears once. A start is included only when another
// start reaches it. Unknown starts are ignored.
func (d *DAG) ReachableFrom(starts []NodeID, forward bool) []NodeID {
	seen := make([]bool, len(d.ord))
	var result []NodeID
	stack := make([]NodeID, 0, len(starts))
	for _, s := range starts {
		if d.has(s) {
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		adj := d.out[n]
		if !forward {
			adj = d.in[n]
		}
		for _, ei := range adj {
			w := d.edges[ei].To
			if !forward {
				w = d.edges[ei].From
			}
			if !seen[w] {
				seen[w] = true
				result = append(result, w)
				stack = append(stack, w)
			}
		}
	}
	return result
}

// Validate checks graph integrity and returns nil if valid.
// It verifies that every edge respects the maintained topological order and
// independently re-checks acyclicity with a depth-first search using
// white/gray/black coloring. Both checks run in O(N+E) time.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		if d.ord[e.From] >= d.ord[e.To] {
			return ErrInvalidOrder
		}
	}
	return d.detectCycles()
}

func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make([]uint8, len(d.ord))
	var hasCycle bool

	var dfs func(id NodeID)
	dfs = func(id NodeID) {
		color[id] = gray
		for _, ei := range d.out[id] {
			child := d.edges[ei].To
			switch color[child] {
			case white:
				dfs(child)
				if hasCycle {
					return
				}
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for id := range d.ord {
		if color[id] == white {
			dfs(NodeID(id))
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
