package depgraph

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/indexgraph/pkg/dag"
	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/index"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

// Options configures [Build].
type Options struct {
	// SkipOptional omits dependencies only enabled through a feature.
	SkipOptional bool
	// Kinds restricts which dependency kinds become edges (default: normal
	// and build). Dev dependencies never do.
	Kinds []registry.Kind
	// Logger receives per-dependency diagnostics and the build summary
	// (default: log.Default()).
	Logger *log.Logger
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if len(opts.Kinds) == 0 {
		opts.Kinds = []registry.Kind{registry.KindNormal, registry.KindBuild}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

func (o Options) includes(d registry.Dependency) bool {
	if d.Kind == registry.KindDev {
		return false
	}
	if o.SkipOptional && d.Optional {
		return false
	}
	return slices.Contains(o.Kinds, d.Kind)
}

// Unresolved is a dependency no version in the index satisfies.
type Unresolved struct {
	From registry.ID // Depending version
	Name string      // Package name the dependency refers to
	Req  string      // Requirement as declared
}

func (u Unresolved) String() string {
	return fmt.Sprintf("%s: %s %s", u.From, u.Name, u.Req)
}

// Stats summarizes a graph build.
type Stats struct {
	Nodes    int
	Edges    int
	Filtered int // Dependencies excluded by kind or optionality
	Duration time.Duration
}

// Report aggregates the non-fatal conditions met while building a graph.
type Report struct {
	Stats      Stats
	Unresolved []Unresolved
}

// CycleError reports a dependency edge that would close a cycle. Because
// edges are inserted one at a time, the graph built so far was acyclic and
// this is the edge that broke it.
type CycleError struct {
	From registry.ID         // Depending version
	Dep  registry.Dependency // Declaration being resolved
	To   registry.ID         // Version it resolved to, which already reaches From
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s requires %s, resolved to %s which depends on %s",
		e.From, e.Dep, e.To, e.From)
}

// Unwrap returns [dag.ErrGraphHasCycle].
func (e *CycleError) Unwrap() error { return dag.ErrGraphHasCycle }

// ErrorCode reports the CYCLE category.
func (e *CycleError) ErrorCode() errs.Code { return errs.ErrCodeCycle }

// Build resolves every dependency in idx and returns the resulting graph.
//
// Every version record becomes exactly one node. Dependencies are visited
// package by package in name order, newest version first, each record's in
// declaration order; dev dependencies and those excluded by opts are
// skipped. A dependency that resolves to nothing is recorded in the report
// and the build continues. An edge that would close a cycle aborts the build
// with a [*CycleError].
//
// The returned report is non-nil even when err is non-nil.
func Build(idx *index.Index, opts Options) (*Graph, *Report, error) {
	opts = opts.WithDefaults()
	logger := opts.Logger
	start := time.Now()
	report := &Report{}

	g := newGraph(idx.RecordCount())
	for r := range idx.All() {
		g.add(r)
	}

	for n, v := range g.nodes {
		for i, dep := range v.Deps {
			if !opts.includes(dep) {
				if dep.Kind != registry.KindDev {
					report.Stats.Filtered++
				}
				continue
			}
			w := Resolve(dep, idx)
			if w == nil {
				logger.Debug("unresolved dependency", "from", v, "dep", dep.PackageName(), "req", dep.Req)
				report.Unresolved = append(report.Unresolved, Unresolved{
					From: v.ID(),
					Name: dep.PackageName(),
					Req:  dep.Req.String(),
				})
				continue
			}
			err := g.dag.AddEdge(dag.Edge{From: dag.NodeID(n), To: g.ids[w.ID()], Ref: int32(i)})
			if errors.Is(err, dag.ErrGraphHasCycle) {
				return nil, report, &CycleError{From: v.ID(), Dep: dep, To: w.ID()}
			}
			if err != nil {
				return nil, report, errs.Wrap(errs.ErrCodeInternal, err, "add edge %s -> %s", v, w)
			}
		}
	}

	report.Stats.Nodes = g.NodeCount()
	report.Stats.Edges = g.EdgeCount()
	report.Stats.Duration = time.Since(start)
	logger.Info("built dependency graph",
		"versions", report.Stats.Nodes,
		"edges", report.Stats.Edges,
		"duration", report.Stats.Duration.Round(time.Millisecond))
	if len(report.Unresolved) > 0 {
		logger.Warn("unresolved dependencies", "count", len(report.Unresolved))
	}
	return g, report, nil
}
