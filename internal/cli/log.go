// Package cli implements the postkit command-line interface.
//
// The commands work on post documents stored as JSON files: arranging them
// into canonical layouts, listing and committing snap positions, replaying
// scripted edits with undo and redo, and rendering wireframe previews. The
// serve and mcp commands expose the same editing sessions over HTTP and MCP.
//
// # Commands
//
//   - layout: Arrange a document into a canonical layout
//   - snap: List or commit the snap positions of a block
//   - replay: Run an action script against a document
//   - render: Render a wireframe or structure diagram to SVG, PDF or PNG
//   - compose: Edit a document interactively in the terminal
//   - drafts: Inspect and clean up saved drafts
//   - serve: Run the HTTP editing API
//   - mcp: Serve editing tools over stdio
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context, so helpers that only get a context can
// still report progress.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level, with timestamps as
// "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation when it completes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Replayed 12 steps (4ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
