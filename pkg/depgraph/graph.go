package depgraph

import (
	"iter"

	"github.com/matzehuels/indexgraph/pkg/dag"
	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

// Graph is an acyclic graph of exact package versions. Node handles are
// dense, so records can be addressed by [dag.NodeID] as well as by identity.
type Graph struct {
	dag    *dag.DAG
	nodes  []*registry.VersionRecord
	ids    map[registry.ID]dag.NodeID
	byName map[string][]dag.NodeID
}

// Edge is a resolved dependency: From declared Dep, which resolved to To.
type Edge struct {
	From *registry.VersionRecord
	To   *registry.VersionRecord
	Dep  int // Index into From.Deps
}

// Dependency returns the declaration that produced the edge.
func (e Edge) Dependency() registry.Dependency { return e.From.Deps[e.Dep] }

func newGraph(hint int) *Graph {
	d := dag.New()
	d.Grow(hint)
	return &Graph{
		dag:    d,
		nodes:  make([]*registry.VersionRecord, 0, hint),
		ids:    make(map[registry.ID]dag.NodeID, hint),
		byName: make(map[string][]dag.NodeID),
	}
}

func (g *Graph) add(r *registry.VersionRecord) dag.NodeID {
	n := g.dag.AddNode()
	g.nodes = append(g.nodes, r)
	g.ids[r.ID()] = n
	g.byName[r.Name] = append(g.byName[r.Name], n)
	return n
}

// DAG returns the underlying structure for traversal. It must not be
// modified.
func (g *Graph) DAG() *dag.DAG { return g.dag }

// Node returns the handle of the version with the given identity.
func (g *Graph) Node(id registry.ID) (dag.NodeID, bool) {
	n, ok := g.ids[id]
	return n, ok
}

// Record returns the version record stored at n.
func (g *Graph) Record(n dag.NodeID) *registry.VersionRecord { return g.nodes[n] }

// Versions returns the handles of every version of the named package,
// newest first.
func (g *Graph) Versions(name string) []dag.NodeID { return g.byName[name] }

// All iterates over every node and its record in handle order.
func (g *Graph) All() iter.Seq2[dag.NodeID, *registry.VersionRecord] {
	return func(yield func(dag.NodeID, *registry.VersionRecord) bool) {
		for i, r := range g.nodes {
			if !yield(dag.NodeID(i), r) {
				return
			}
		}
	}
}

// NodeCount returns the number of versions in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of resolved dependencies.
func (g *Graph) EdgeCount() int { return g.dag.EdgeCount() }

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []Edge { return g.edges(g.dag.Edges()) }

// Dependencies returns the resolved dependencies of the given version, in
// declaration order. It returns nil for an unknown identity.
func (g *Graph) Dependencies(id registry.ID) []Edge {
	n, ok := g.ids[id]
	if !ok {
		return nil
	}
	return g.edges(g.dag.OutEdges(n))
}

// Dependents returns the edges from versions that depend directly on the
// given version.
func (g *Graph) Dependents(id registry.ID) []Edge {
	n, ok := g.ids[id]
	if !ok {
		return nil
	}
	return g.edges(g.dag.InEdges(n))
}

// Validate re-checks acyclicity and the identity mapping from scratch.
func (g *Graph) Validate() error {
	if err := g.dag.Validate(); err != nil {
		return err
	}
	for i, r := range g.nodes {
		if g.ids[r.ID()] != dag.NodeID(i) {
			return errs.New(errs.ErrCodeInternal, "node %d (%s) is not mapped to its identity", i, r)
		}
	}
	return nil
}

func (g *Graph) edges(es []dag.Edge) []Edge {
	out := make([]Edge, len(es))
	for i, e := range es {
		out[i] = Edge{From: g.nodes[e.From], To: g.nodes[e.To], Dep: int(e.Ref)}
	}
	return out
}
