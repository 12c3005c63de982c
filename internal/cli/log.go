// Package cli implements the indexgraph command-line interface.
//
// The commands load a registry index (from the on-disk index or the index
// cache), build the dependency graph of exact package versions and query
// it. The CLI is built with cobra, reads an optional TOML config file and
// logs through charmbracelet/log.
//
// # Commands
//
//   - load: parse the index and report integrity and parse diagnostics
//   - resolve, deps, dependents, top: query the index and graph
//   - browse: pick a package version interactively
//   - render: write a version's neighbourhood as DOT or SVG
//   - serve: expose the graph over HTTP
//   - cache: manage the index cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes one line per skipped file and per unresolved dependency.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Parsed index (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
