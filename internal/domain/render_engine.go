package domain

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"scaffold.dev/pkg/scaffold/internal/adapter"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

const (
	defaultInspectMaxLines = 25
	maxDefaultParallelism  = 4
)

// RenderObserver receives progress events while files are processed. Calls
// may come from several goroutines.
type RenderObserver interface {
	RenderStarted(total, workers int)
	FileProcessed(spec m.RenderSpec, err error)
}

// RenderRequest bundles the inputs of one render run.
type RenderRequest struct {
	SourceDir  m.Path
	TargetDir  m.Path
	Descriptor *m.TemplateDescriptor
	Answers    m.AnswerContext
	Config     m.ToolConfig
}

// RenderEngine turns a template tree into a generated project.
type RenderEngine interface {
	Render(ctx context.Context, req RenderRequest) (m.RenderResult, error)
}

type renderEngine struct {
	fsAdapter adapter.SourceFSAdapter
	naming    adapter.TemplateEvaluator
	content   adapter.TemplateEvaluator
	observer  RenderObserver
}

// NewRenderEngine wires a RenderEngine. naming evaluates file names and
// conditions, content evaluates file bodies. observer may be nil.
func NewRenderEngine(
	fsAdapter adapter.SourceFSAdapter,
	naming adapter.TemplateEvaluator,
	content adapter.TemplateEvaluator,
	observer RenderObserver,
) RenderEngine {
	if observer == nil {
		observer = noopObserver{}
	}

	return &renderEngine{
		fsAdapter: fsAdapter,
		naming:    naming,
		content:   content,
		observer:  observer,
	}
}

type noopObserver struct{}

func (noopObserver) RenderStarted(int, int)            {}
func (noopObserver) FileProcessed(m.RenderSpec, error) {}

// DefaultParallelism is half the CPUs, at least one and at most four.
func DefaultParallelism() int {
	return max(1, min(maxDefaultParallelism, runtime.NumCPU()/2))
}

func (e *renderEngine) Render(ctx context.Context, req RenderRequest) (m.RenderResult, error) {
	descriptor := req.Descriptor
	if descriptor == nil {
		descriptor = &m.TemplateDescriptor{}
	}

	p := &planner{
		fsAdapter:    e.fsAdapter,
		naming:       e.naming,
		sourceDir:    req.SourceDir,
		targetDir:    req.TargetDir,
		filters:      descriptor.Filters,
		data:         req.Answers.Data(),
		ignoreChecks: req.Config.IgnoreChecks,
		maxLines:     req.Config.InspectMaxLines,
	}

	if p.maxLines <= 0 {
		p.maxLines = defaultInspectMaxLines
	}

	plan, err := p.build(ctx)
	if err != nil {
		return m.RenderResult{}, fmt.Errorf("failed to plan render: %w", err)
	}

	result := m.RenderResult{Conflicts: plan.conflicts()}

	if req.Config.DryRun {
		for _, spec := range plan.specs() {
			if spec.IsTemplate {
				result.RenderedFiles = append(result.RenderedFiles, spec)
			}
		}

		sortSpecs(result.RenderedFiles)

		return result, nil
	}

	specs := e.prepareDirectories(plan)

	workers := req.Config.Parallelism
	if workers <= 0 {
		workers = DefaultParallelism()
	}

	rendered, err := e.execute(ctx, req, specs, workers)
	result.RenderedFiles = rendered

	return result, err
}

// prepareDirectories creates the parent directory of every intended target
// and returns the specs whose directory exists.
func (e *renderEngine) prepareDirectories(plan *renderPlan) []m.RenderSpec {
	dirErrs := map[string]error{}
	specs := make([]m.RenderSpec, 0, len(plan.order))

	for _, target := range plan.order {
		dir := parentDir(target)

		err, seen := dirErrs[dir]
		if !seen {
			err = e.fsAdapter.MkdirAll(m.Path(dir))
			dirErrs[dir] = err
		}

		if err != nil {
			slog.Error("Failed to create target directory, skipping files",
				"dir", dir, "target", target, "files", len(plan.buckets[target]), "error", err)

			continue
		}

		specs = append(specs, plan.buckets[target]...)
	}

	return specs
}

func (e *renderEngine) execute(ctx context.Context, req RenderRequest, specs []m.RenderSpec, workers int) ([]m.RenderSpec, error) {
	e.observer.RenderStarted(len(specs), workers)

	var (
		mu       sync.Mutex
		rendered []m.RenderSpec
		group    errgroup.Group
	)

	queue := make(chan m.RenderSpec)

	for range workers {
		group.Go(func() error {
			for spec := range queue {
				err := e.process(req, spec)
				if err == nil && spec.IsTemplate {
					mu.Lock()
					rendered = append(rendered, spec)
					mu.Unlock()
				}

				e.observer.FileProcessed(spec, err)
			}

			return nil
		})
	}

	var cancelled error

dispatch:
	for _, spec := range specs {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		case queue <- spec:
		}
	}

	close(queue)

	_ = group.Wait()

	sortSpecs(rendered)

	if cancelled != nil {
		return rendered, fmt.Errorf("render interrupted: %w", cancelled)
	}

	return rendered, nil
}

func (e *renderEngine) process(req RenderRequest, spec m.RenderSpec) error {
	if !spec.IsTemplate {
		if err := e.fsAdapter.CopyFile(spec.Source, spec.Target); err != nil {
			slog.Error("Failed to copy file", "source", spec.Source, "target", spec.Target, "error", err)
			return fmt.Errorf("failed to copy %s: %w", spec.Source, err)
		}

		return nil
	}

	if err := e.renderFile(req, spec); err != nil {
		slog.Error("Failed to render file", "source", spec.Source, "target", spec.Target, "error", err)
		return err
	}

	return nil
}

func (e *renderEngine) renderFile(req RenderRequest, spec m.RenderSpec) error {
	info, err := e.fsAdapter.FileInfo(spec.Source)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", spec.Source, err)
	}

	content, err := e.fsAdapter.ReadFile(spec.Source)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", spec.Source, err)
	}

	data := req.Answers.ForFile(m.FileInfo{
		RootDir:    string(req.SourceDir),
		SourceName: baseName(spec.Source),
		SourcePath: string(spec.Source),
		TargetName: baseName(spec.Target),
		TargetPath: string(spec.Target),
	})

	out, err := e.content.Render(string(content), data)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", spec.Source, err)
	}

	if err := e.fsAdapter.WriteFile(spec.Target, []byte(out), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", spec.Target, err)
	}

	return nil
}

func sortSpecs(specs []m.RenderSpec) {
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Target < specs[j].Target
	})
}
