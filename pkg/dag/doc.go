// Package dag provides an arena-backed directed acyclic graph whose edge
// insertion rejects cycles.
//
// # Overview
//
// Nodes are dense integer handles ([NodeID]) allocated by [DAG.AddNode]; the
// graph stores no payload, so callers keep their own arena indexed by NodeID
// and identity comparison is handle comparison. Edges carry a caller-defined
// Ref, which indexgraph uses to remember which dependency declaration
// produced the edge.
//
// # Cycle rejection
//
// [DAG.AddEdge] keeps the graph acyclic at all times. It maintains an
// incremental topological order (Pearce-Kelly): every node has a position,
// and every edge points from a lower position to a higher one. Inserting an
// edge that already respects the order costs O(1). An edge that violates it
// triggers a search bounded to the affected region between the two
// positions; if the target can reach the source the edge would close a
// cycle and [ErrGraphHasCycle] is returned, otherwise the region is
// reordered and the edge is added.
//
// Self-loops are cycles and are rejected the same way.
//
// # Basic Usage
//
//	g := dag.New()
//	app := g.AddNode()
//	lib := g.AddNode()
//	_ = g.AddEdge(dag.Edge{From: app, To: lib})
//	err := g.AddEdge(dag.Edge{From: lib, To: app}) // ErrGraphHasCycle
//
// Query the structure with [DAG.Children], [DAG.Parents], [DAG.OutEdges],
// [DAG.Sources], [DAG.Sinks] and [DAG.TopoOrder]. [DAG.Validate] re-checks
// acyclicity from scratch with a depth-first search and is meant for tests
// and debugging.
//
// # Concurrency
//
// DAG instances are not safe for concurrent mutation. Once construction is
// complete, read-only methods may be called from multiple goroutines.
package dag
