package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"scaffold.dev/pkg/scaffold/internal/domain"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

// SimpleUI implements UI using plain text on the command's output.
type SimpleUI struct {
	cmd *cobra.Command
	mu  sync.Mutex
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(context.Context) {}

// RenderStarted announces the number of files and workers.
func (s *SimpleUI) RenderStarted(total, workers int) {
	s.printf("Processing %d file(s) with %d worker(s)\n", total, workers)
}

// FileProcessed reports failed files. Successful ones are only logged.
func (s *SimpleUI) FileProcessed(spec m.RenderSpec, err error) {
	if err == nil {
		return
	}

	s.errorf("failed: %s: %v\n", spec.Target, err)
}

// DisplayContext prints the answers as JSON.
func (s *SimpleUI) DisplayContext(ctx context.Context, answers m.AnswerContext) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Context:\n%s\n", domain.FormatContext(answers))
}

// DisplayResult prints the rendered files table and any conflicts.
func (s *SimpleUI) DisplayResult(ctx context.Context, result domain.ScaffoldResult, opts ReportOptions) {
	if ctx.Err() != nil {
		return
	}

	if len(result.Render.RenderedFiles) > 0 {
		s.printf("\n%s", renderFilesTable(result))
	}

	s.printf("%s\n", summaryLine(result, opts.DryRun))

	if len(result.Render.Conflicts) == 0 {
		return
	}

	s.printf("\nConflicts (%d):\n", len(result.Render.Conflicts))

	for _, line := range conflictLines(result) {
		s.printf("%s\n", line)
	}

	if opts.Verbose {
		for _, diff := range conflictDiffs(result) {
			s.printf("\n%s", diff)
		}
	}

	if result.Workdir != "" && !opts.DryRun {
		s.printf("\nTemplate sources kept in %s\n", result.Workdir)
	}
}

func (s *SimpleUI) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func (s *SimpleUI) errorf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), format, args...)
}
