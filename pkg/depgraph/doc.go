// Package depgraph resolves every declared dependency in an [index.Index]
// to one concrete version and assembles the result into an acyclic graph of
// exact versions.
//
// # Resolution
//
// [Resolve] is deliberately simple: it looks up the dependency's package and
// returns the newest version whose version satisfies the requirement. There
// is no backtracking, no feature unification and no lock file; yanked
// versions are eligible. Two dependencies on the same package from different
// dependents may resolve to different versions.
//
// # Building
//
// [Build] creates one node per version record and one edge per resolved,
// non-dev dependency:
//
//	g, report, err := depgraph.Build(idx, depgraph.Options{})
//	if err != nil {
//		return err // *CycleError
//	}
//	for _, u := range report.Unresolved {
//		fmt.Println(u.From, "cannot satisfy", u.Name, u.Req)
//	}
//
// Edges are inserted through [dag.DAG.AddEdge], so the graph is acyclic by
// construction; the first edge that would close a cycle aborts the build
// with a [*CycleError]. Each edge remembers which entry of the depending
// record's Deps produced it, available through [Edge.Dependency].
//
// A [Graph] is read-only after Build returns and safe for concurrent use.
package depgraph
