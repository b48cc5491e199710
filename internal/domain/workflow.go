package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"scaffold.dev/pkg/scaffold/internal/adapter"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

// ErrConflicts marks a run that finished but had several sources resolve to
// the same target.
var ErrConflicts = errors.New("render finished with conflicts")

// ScaffoldRequest describes one scaffold run.
type ScaffoldRequest struct {
	Repository string
	// Target is the output directory. Empty means ./<repository name>.
	Target  string
	Fetch   m.FetchOptions
	Config  m.ToolConfig
	Presets map[string]any
}

// ScaffoldResult is what a run produced. It is filled as far as the run got.
type ScaffoldResult struct {
	Source  m.TemplateSource
	Target  m.Path
	Workdir m.Path
	Answers m.AnswerContext
	Render  m.RenderResult
	Reports []m.ConflictReport
}

// Workflow fetches a template, asks its questions and renders it into a
// fresh target directory.
type Workflow interface {
	Scaffold(ctx context.Context, req ScaffoldRequest) (ScaffoldResult, error)
}

type workflow struct {
	fsAdapter adapter.SourceFSAdapter
	git       adapter.GitAdapter
	prompter  adapter.Prompter
	engine    RenderEngine
}

// NewWorkflow constructs a Workflow from its adapters and render engine.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	git adapter.GitAdapter,
	prompter adapter.Prompter,
	engine RenderEngine,
) Workflow {
	return &workflow{
		fsAdapter: fsAdapter,
		git:       git,
		prompter:  prompter,
		engine:    engine,
	}
}

func (w *workflow) Scaffold(ctx context.Context, req ScaffoldRequest) (ScaffoldResult, error) {
	var result ScaffoldResult

	if req.Config.NoInit && !req.Config.NoHistory {
		return result, errors.New("--no-init requires --no-history")
	}

	source, err := ParseTemplateSource(req.Repository)
	if err != nil {
		return result, err
	}

	result.Source = source

	target, err := PrepareTarget(w.fsAdapter, req.Target, source.RepoName)
	if err != nil {
		return result, err
	}

	result.Target = target

	workdir, err := w.fsAdapter.CreateTempDir("scaffold-*")
	if err != nil {
		slog.Error("Failed to create temp dir", "error", err)
		return result, fmt.Errorf("failed to create temp dir: %w", err)
	}

	result.Workdir = workdir
	keepWorkdir := false

	defer func() {
		if keepWorkdir {
			slog.Warn("Keeping template working directory for inspection", "workdir", workdir)
			return
		}

		w.cleanupTempDir(workdir)
	}()

	if err := FetchTemplate(ctx, w.fsAdapter, w.git, source, workdir, req.Fetch); err != nil {
		return result, err
	}

	root, err := w.templateRoot(workdir, req.Config.Template)
	if err != nil {
		return result, err
	}

	descriptor, err := LoadDescriptor(w.fsAdapter, root, req.Config.IgnoreChecks)
	if err != nil {
		return result, err
	}

	answers, err := NewContextBuilder(w.prompter, req.Presets, req.Config.UseDefaults).Build(ctx, descriptor)
	if err != nil {
		return result, err
	}

	result.Answers = answers

	slog.Info("Rendering template", "template", source.Raw, "target", target)

	rendered, err := w.engine.Render(ctx, RenderRequest{
		SourceDir:  root,
		TargetDir:  target,
		Descriptor: descriptor,
		Answers:    answers,
		Config:     req.Config,
	})
	result.Render = rendered

	if err != nil {
		return result, fmt.Errorf("failed to render template: %w", err)
	}

	if !req.Config.DryRun {
		if err := ApplyHistory(ctx, w.fsAdapter, w.git, workdir, target, req.Config); err != nil {
			return result, err
		}
	}

	if len(rendered.Conflicts) == 0 {
		return result, nil
	}

	if !req.Config.DryRun {
		result.Reports = BuildConflictReports(w.fsAdapter, rendered.Conflicts)
		keepWorkdir = true
	}

	return result, fmt.Errorf("%w: %d target(s) affected", ErrConflicts, len(rendered.Conflicts))
}

// templateRoot resolves the directory to render, optionally a subdirectory
// of the fetched template.
func (w *workflow) templateRoot(workdir m.Path, subdir string) (m.Path, error) {
	if subdir == "" {
		return workdir, nil
	}

	root := filepath.Join(string(workdir), subdir)
	if !withinDir(string(workdir), root) {
		return "", fmt.Errorf("%w: template directory %s is outside the repository", ErrInvalidTemplateSource, subdir)
	}

	info, err := w.fsAdapter.FileInfo(m.Path(root))
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: template directory %s does not exist", ErrInvalidTemplateSource, subdir)
	}

	return m.Path(root), nil
}

func (w *workflow) cleanupTempDir(dir m.Path) {
	if err := w.fsAdapter.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove temp dir", "dir", dir, "error", err)
	}
}
