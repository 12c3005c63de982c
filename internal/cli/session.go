package cli

import (
	"context"

	"github.com/matzehuels/indexgraph/pkg/cache"
	"github.com/matzehuels/indexgraph/pkg/depgraph"
	"github.com/matzehuels/indexgraph/pkg/index"
	"github.com/matzehuels/indexgraph/pkg/source"
)

// session is a loaded index and, when requested, the graph built from it.
type session struct {
	root        string
	idx         *index.Index
	indexReport *index.Report // nil when the index came from the cache
	cached      bool

	graph  *depgraph.Graph
	report *depgraph.Report
}

// indexRoot resolves the configured index directory.
func (c *CLI) indexRoot() (string, error) {
	if c.cfg.IndexPath != "" {
		return source.Locate(c.cfg.IndexPath)
	}
	return source.Locate(c.cfg.Registry)
}

// open loads the index, through the cache unless disabled, and builds the
// dependency graph when withGraph is set.
func (c *CLI) open(ctx context.Context, withGraph bool) (*session, error) {
	root, err := c.indexRoot()
	if err != nil {
		return nil, err
	}
	s := &session{root: root}

	backend, err := c.newCache(ctx)
	if err != nil {
		c.Logger.Warn("cache unavailable, loading without it", "err", err)
		backend = cache.NewNullCache()
	}
	defer backend.Close()

	ic, err := cache.NewIndexCache(backend, root, c.cfg.Cache.TTL.Duration)
	if err != nil {
		return nil, err
	}
	ic.WithLogger(c.Logger)

	// A cached index may have been built leniently, so strict runs always
	// reparse.
	if !c.refresh && !c.cfg.Strict {
		s.idx, s.cached, err = ic.Load(ctx)
		if err != nil {
			c.Logger.Warn("reading index cache failed", "err", err)
		}
	}

	if !s.cached {
		prog := newProgress(c.Logger)
		spinner := newSpinnerWithContext(ctx, c.status, "Loading index "+root)
		spinner.Start()
		s.idx, s.indexReport, err = index.Build(ctx, root, index.Options{
			Workers: c.cfg.Workers,
			Strict:  c.cfg.Strict,
			Logger:  c.Logger,
		})
		spinner.Stop()
		if err != nil {
			return nil, err
		}
		prog.done("Parsed index")
		if err := ic.Save(ctx, s.idx); err != nil {
			c.Logger.Warn("writing index cache failed", "err", err)
		}
	}

	if !withGraph {
		return s, nil
	}
	s.graph, s.report, err = depgraph.Build(s.idx, depgraph.Options{
		SkipOptional: c.cfg.SkipOptional,
		Logger:       c.Logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
