package dag_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/indexgraph/pkg/dag"
)

func ExampleDAG_AddEdge() {
	// app -> lib -> core
	g := dag.New()
	app, lib, core := g.AddNode(), g.AddNode(), g.AddNode()
	_ = g.AddEdge(dag.Edge{From: app, To: lib})
	_ = g.AddEdge(dag.Edge{From: lib, To: core})

	err := g.AddEdge(dag.Edge{From: core, To: app})
	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Cycle rejected:", errors.Is(err, dag.ErrGraphHasCycle))
	// Output:
	// Nodes: 3
	// Edges: 2
	// Cycle rejected: true
}

func ExampleDAG_TopoOrder() {
	// Edges inserted against allocation order are accommodated by reordering.
	g := dag.New()
	a, b, c := g.AddNode(), g.AddNode(), g.AddNode()
	_ = g.AddEdge(dag.Edge{From: c, To: b})
	_ = g.AddEdge(dag.Edge{From: b, To: a})

	fmt.Println(g.TopoOrder())
	// Output:
	// [2 1 0]
}

func ExampleDAG_Sources() {
	g := dag.New()
	app, cli, shared := g.AddNode(), g.AddNode(), g.AddNode()
	_ = g.AddEdge(dag.Edge{From: app, To: shared})
	_ = g.AddEdge(dag.Edge{From: cli, To: shared})

	fmt.Println("Sources:", g.Sources())
	fmt.Println("Sinks:", g.Sinks())
	// Output:
	// Sources: [0 1]
	// Sinks: [2]
}
