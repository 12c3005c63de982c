// Package query answers questions about a built dependency graph: who
// pulls in a package, what a version pulls in, and which packages the
// ecosystem leans on most.
//
// All functions are read-only and safe to call concurrently on the same
// [depgraph.Graph].
package query

import (
	"cmp"
	"slices"

	"github.com/matzehuels/indexgraph/pkg/dag"
	"github.com/matzehuels/indexgraph/pkg/depgraph"
	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

// Dependents returns every version that transitively depends on some
// version of the named package, sorted by identity. Versions of the package
// itself are included only when they reach another of its versions.
func Dependents(g *depgraph.Graph, name string) ([]*registry.VersionRecord, error) {
	starts := g.Versions(name)
	if len(starts) == 0 {
		return nil, errs.New(errs.ErrCodePackageNotFound, "package %s not in graph", name)
	}
	return records(g, walk(g.DAG(), starts, false)), nil
}

// Closure returns every version the given version transitively depends on,
// sorted by identity.
func Closure(g *depgraph.Graph, id registry.ID) ([]*registry.VersionRecord, error) {
	n, ok := g.Node(id)
	if !ok {
		return nil, errs.New(errs.ErrCodeVersionNotFound, "version %s not in graph", id)
	}
	return records(g, walk(g.DAG(), []dag.NodeID{n}, true)), nil
}

// Roots returns the versions nothing depends on, sorted by identity.
func Roots(g *depgraph.Graph) []*registry.VersionRecord {
	return records(g, g.DAG().Sources())
}

// Leaves returns the versions without resolved dependencies, sorted by
// identity.
func Leaves(g *depgraph.Graph) []*registry.VersionRecord {
	return records(g, g.DAG().Sinks())
}

// Ranked is a package and the number of versions depending on it directly.
type Ranked struct {
	Name       string `json:"name"`
	Dependents int    `json:"dependents"`
}

// TopDependedOn ranks packages by how many versions depend directly on any
// of their versions and returns the first n (all when n <= 0). Ties are
// broken by name.
func TopDependedOn(g *depgraph.Graph, n int) []Ranked {
	d := g.DAG()
	parents := make(map[string]map[dag.NodeID]bool)
	for to, r := range g.All() {
		for _, p := range d.Parents(to) {
			if parents[r.Name] == nil {
				parents[r.Name] = make(map[dag.NodeID]bool)
			}
			parents[r.Name][p] = true
		}
	}

	ranked := make([]Ranked, 0, len(parents))
	for name, ps := range parents {
		ranked = append(ranked, Ranked{Name: name, Dependents: len(ps)})
	}
	slices.SortFunc(ranked, func(a, b Ranked) int {
		if c := cmp.Compare(b.Dependents, a.Dependents); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// walk collects every node reachable from starts, excluding a start unless
// another start reaches it.
func walk(d *dag.DAG, starts []dag.NodeID, forward bool) []dag.NodeID {
	return d.ReachableFrom(starts, forward)
}

func records(g *depgraph.Graph, ns []dag.NodeID) []*registry.VersionRecord {
	rs := make([]*registry.VersionRecord, len(ns))
	for i, n := range ns {
		rs[i] = g.Record(n)
	}
	slices.SortFunc(rs, Compare)
	return rs
}

// Compare orders records by package name, then newest version first.
func Compare(a, b *registry.VersionRecord) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return b.Version.Compare(a.Version)
}
