// Package controller presents scaffold runs on the terminal.
package controller

import (
	"context"

	"scaffold.dev/pkg/scaffold/internal/domain"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

// UI receives render progress from the worker pool and prints the outcome of
// a run. Implementations can use different output methods (simple text, TUI).
type UI interface {
	domain.RenderObserver

	Start(ctx context.Context) error
	// Close stops any live display. It is safe to call more than once.
	Close(ctx context.Context)
	DisplayContext(ctx context.Context, answers m.AnswerContext)
	DisplayResult(ctx context.Context, result domain.ScaffoldResult, opts ReportOptions)
}

// ReportOptions tune what DisplayResult prints.
type ReportOptions struct {
	// Verbose adds conflict diffs.
	Verbose bool
	DryRun  bool
}
