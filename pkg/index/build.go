package index

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/indexgraph/pkg/registry"
)

// Options configures [Build].
type Options struct {
	// Workers is the number of files parsed concurrently (default: NumCPU).
	// Insertion into the index is always serialized through one writer.
	Workers int
	// Strict makes a malformed package file abort the build. When false, the
	// file is skipped and its error recorded in Report.ParseErrors.
	Strict bool
	// Logger receives progress and per-entry diagnostics (default: log.Default()).
	Logger *log.Logger
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Stats summarizes a build.
type Stats struct {
	Files    int           // Package files read
	Packages int           // Packages inserted
	Records  int           // Version records inserted
	Duration time.Duration // Wall time of the build
}

// Skipped is an index entry that could not be read.
type Skipped struct {
	Path string
	Err  error
}

// Report aggregates the non-fatal conditions met during a build.
type Report struct {
	Stats       Stats
	Skipped     []Skipped              // Unreadable directories and files
	ParseErrors []*registry.ParseError // Malformed files dropped in non-strict mode
}

// Problems returns the number of non-fatal conditions recorded.
func (r *Report) Problems() int { return len(r.Skipped) + len(r.ParseErrors) }

type parsed struct {
	path string
	pkg  *registry.Package
	err  error
}

// Build walks the index below root and loads every package file into an
// [Index].
//
// Files are discovered lazily and parsed on a fixed-size worker pool; parsed
// packages flow to a single writer that performs all integrity checks. The
// first [*IntegrityError] aborts the build. A [*registry.ParseError] aborts it
// only in strict mode. Unreadable entries are always skipped and recorded in
// the report. If root itself cannot be read, Build fails with an IO error.
//
// The returned report is non-nil even when err is non-nil.
func Build(ctx context.Context, root string, opts Options) (*Index, *Report, error) {
	opts = opts.WithDefaults()
	logger := opts.Logger
	start := time.Now()
	report := &Report{}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var skipMu sync.Mutex
	onSkip := func(path string, err error) {
		logger.Debug("skipping unreadable entry", "path", path, "err", err)
		skipMu.Lock()
		report.Skipped = append(report.Skipped, Skipped{Path: path, Err: err})
		skipMu.Unlock()
	}

	paths := make(chan string, opts.Workers)
	g.Go(func() error {
		defer close(paths)
		for path, err := range registry.Files(root, onSkip) {
			if err != nil {
				return err
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case paths <- path:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	results := make(chan parsed, opts.Workers)
	var workers sync.WaitGroup
	for range opts.Workers {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for path := range paths {
				pkg, err := registry.ParseFile(path)
				select {
				case results <- parsed{path: path, pkg: pkg, err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	w := newWriter(0)
	var buildErr error
	for r := range results {
		if buildErr != nil {
			continue // drain
		}
		report.Stats.Files++
		if err := w.accept(r, opts, report, onSkip); err != nil {
			buildErr = err
			cancel()
		}
	}
	if err := g.Wait(); buildErr == nil && err != nil {
		buildErr = err
	}

	report.Stats.Packages = w.idx.Len()
	report.Stats.Records = w.idx.RecordCount()
	report.Stats.Duration = time.Since(start)
	if buildErr != nil {
		return nil, report, buildErr
	}

	logger.Info("loaded index",
		"packages", report.Stats.Packages,
		"versions", report.Stats.Records,
		"files", report.Stats.Files,
		"duration", report.Stats.Duration.Round(time.Millisecond))
	if n := report.Problems(); n > 0 {
		logger.Warn("index entries skipped", "unreadable", len(report.Skipped), "malformed", len(report.ParseErrors))
	}
	return w.idx, report, nil
}

func (w *writer) accept(r parsed, opts Options, report *Report, onSkip func(string, error)) error {
	if r.err == nil {
		return w.insert(r.pkg)
	}
	var pe *registry.ParseError
	if errors.As(r.err, &pe) {
		if opts.Strict {
			return pe
		}
		opts.Logger.Debug("skipping malformed package file", "path", pe.Path, "line", pe.Line, "err", pe.Err)
		report.ParseErrors = append(report.ParseErrors, pe)
		return nil
	}
	onSkip(r.path, r.err)
	return nil
}
