package domain

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"scaffold.dev/pkg/scaffold/internal/adapter"
	m "scaffold.dev/pkg/scaffold/internal/model"
	"scaffold.dev/pkg/scaffold/pkg/pattern"
)

const vcsDirName = ".git"

var (
	templateSuffixes = []string{".hbs", ".handlebars"}
	newlineRunRegex  = regexp.MustCompile(`(\r?\n)(\s+|\r?\n)*`)
	falsyValues      = map[string]struct{}{"0": {}, "{}": {}, "[]": {}, "false": {}, "null": {}}
)

// renderPlan is the output of the walk: every spec grouped by the target it
// was meant to land on, in discovery order. Every final target is claimed by
// exactly one spec; numbered names skip targets that are already taken.
type renderPlan struct {
	order     []string
	buckets   map[string][]m.RenderSpec
	claimed   map[string]m.Path
	// contested maps an intended target to the source of the numbered spec
	// that took it before any spec aimed at it directly.
	contested map[string]m.Path
}

func (p *renderPlan) add(intended string, spec m.RenderSpec) {
	if p.buckets == nil {
		p.buckets = map[string][]m.RenderSpec{}
		p.claimed = map[string]m.Path{}
		p.contested = map[string]m.Path{}
	}

	bucket, exists := p.buckets[intended]
	if !exists {
		p.order = append(p.order, intended)

		if holder, taken := p.claimed[intended]; taken {
			p.contested[intended] = holder
		}
	}

	n := len(bucket)
	target := numberedPath(intended, n)

	for {
		if _, taken := p.claimed[target]; !taken {
			break
		}

		n++
		target = numberedPath(intended, n)
	}

	spec.Target = m.Path(target)
	p.claimed[target] = spec.Source
	p.buckets[intended] = append(bucket, spec)
}

func (p *renderPlan) specs() []m.RenderSpec {
	var out []m.RenderSpec
	for _, target := range p.order {
		out = append(out, p.buckets[target]...)
	}

	return out
}

// conflicts lists every intended target that more than one source aimed at,
// including targets a numbered name had already taken. Sources[i] was
// written to Targets[i].
func (p *renderPlan) conflicts() []m.RenderConflict {
	var out []m.RenderConflict

	for _, intended := range p.order {
		bucket := p.buckets[intended]
		holder, contested := p.contested[intended]

		if len(bucket) < 2 && !contested {
			continue
		}

		conflict := m.RenderConflict{IntendedTarget: m.Path(intended)}

		if contested {
			conflict.Sources = append(conflict.Sources, holder)
			conflict.Targets = append(conflict.Targets, m.Path(intended))
		}

		for _, spec := range bucket {
			conflict.Sources = append(conflict.Sources, spec.Source)
			conflict.Targets = append(conflict.Targets, spec.Target)
		}

		out = append(out, conflict)
	}

	return out
}

// planner walks the source tree once. It is not safe for concurrent use.
type planner struct {
	fsAdapter    adapter.SourceFSAdapter
	naming       adapter.TemplateEvaluator
	sourceDir    m.Path
	targetDir    m.Path
	filters      m.Filters
	data         map[string]any
	ignoreChecks bool
	maxLines     int

	stack []m.DirContext
	plan  renderPlan
}

func (p *planner) build(ctx context.Context) (*renderPlan, error) {
	p.sourceDir = m.Path(filepath.Clean(string(p.sourceDir)))
	p.targetDir = m.Path(filepath.Clean(string(p.targetDir)))
	p.stack = []m.DirContext{{Source: p.sourceDir, Target: p.targetDir}}

	err := p.fsAdapter.Walk(p.sourceDir, func(path m.Path, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if path == p.sourceDir {
			return nil
		}

		return p.visit(path, entry)
	})
	if err != nil {
		return nil, err
	}

	return &p.plan, nil
}

func (p *planner) visit(path m.Path, entry fs.DirEntry) error {
	rel, err := filepath.Rel(string(p.sourceDir), string(path))
	if err != nil {
		return fmt.Errorf("failed to relativize %s: %w", path, err)
	}

	isDir := entry.IsDir()
	if isDir && rel == vcsDirName {
		return filepath.SkipDir
	}

	p.popTo(path)

	current := p.stack[len(p.stack)-1]
	if current.Excluded() {
		return skip(isDir)
	}

	if !p.include(rel, isDir) {
		slog.Debug("Excluding entry", "path", rel)

		if isDir {
			p.stack = append(p.stack, m.DirContext{Source: path})
		}

		return skip(isDir)
	}

	if isDir {
		target := p.resolveTarget(entry.Name(), entry.Name(), current.Target, true)
		p.stack = append(p.stack, m.DirContext{Source: path, Target: m.Path(target)})

		return nil
	}

	isTemplate := p.isTemplate(path, rel)

	name := p.renderName(entry.Name())
	if isTemplate {
		name = stripTemplateSuffix(name)
	}

	intended := p.resolveTarget(name, entry.Name(), current.Target, false)
	p.plan.add(intended, m.RenderSpec{Source: path, IsTemplate: isTemplate})

	return nil
}

func skip(isDir bool) error {
	if isDir {
		return filepath.SkipDir
	}

	return nil
}

// popTo drops frames until the top one is an ancestor of path. The root
// frame is never dropped.
func (p *planner) popTo(path m.Path) {
	for len(p.stack) > 1 && !isAncestor(p.stack[len(p.stack)-1].Source, path) {
		p.stack = p.stack[:len(p.stack)-1]
	}
}

func isAncestor(dir, path m.Path) bool {
	return strings.HasPrefix(string(path), string(dir)+string(filepath.Separator))
}

// include applies the VCS, hidden, exclude and conditional rules in order.
func (p *planner) include(rel string, isDir bool) bool {
	if rel == vcsDirName {
		return false
	}

	if !isDir && hasHiddenSegment(rel) && !p.filters.IncludeHidden.Match(rel) {
		return false
	}

	if p.filters.Exclude.Match(rel) {
		return false
	}

	for _, conditional := range p.filters.ConditionalFiles {
		if !conditional.Matcher.Match(rel) {
			continue
		}

		return p.evaluateCondition(conditional.Condition, rel)
	}

	return true
}

func (p *planner) evaluateCondition(condition, rel string) bool {
	out, err := p.naming.Render("{{"+condition+"}}", p.data)
	if err != nil {
		slog.Warn("Failed to evaluate condition", "condition", condition, "path", rel,
			"included", p.ignoreChecks, "error", err)

		return p.ignoreChecks
	}

	return isTruthy(out)
}

func hasHiddenSegment(rel string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}

	return false
}

// isTemplate checks the template filters and then looks for a marker pair in
// the first maxLines lines.
func (p *planner) isTemplate(path m.Path, rel string) bool {
	switch {
	case p.filters.Templates != nil:
		if !p.filters.Templates.Match(rel) {
			return false
		}
	case p.filters.NonTemplates != nil:
		if p.filters.NonTemplates.Match(rel) {
			return false
		}
	}

	lines, err := p.fsAdapter.ReadHeadLines(path, p.maxLines)
	if err != nil {
		slog.Warn("Failed to inspect file, treating it as plain", "path", rel, "error", err)
		return false
	}

	for _, line := range lines {
		if pattern.ContainsTemplate(strings.TrimSpace(line)) {
			return true
		}
	}

	return false
}

// renderName evaluates a naming template. On failure the name is kept.
func (p *planner) renderName(name string) string {
	if !pattern.ContainsTemplate(name) {
		return name
	}

	out, err := p.naming.Render(name, p.data)
	if err != nil {
		slog.Warn("Failed to render name, keeping it", "name", name, "error", err)
		return name
	}

	return collapseNewlines(out)
}

// resolveTarget joins the rendered name of an entry under parent. Names that
// would leave the target directory, and empty file names, fall back to the
// original entry name.
func (p *planner) resolveTarget(name, original string, parent m.Path, isDir bool) string {
	if isDir {
		name = p.renderName(name)
	}

	candidate := filepath.Join(string(parent), name)

	if !isDir && (strings.TrimSpace(name) == "" || candidate == filepath.Clean(string(parent))) {
		slog.Warn("Rendered file name is empty, keeping the original", "name", original)
		return filepath.Join(string(parent), original)
	}

	if !withinDir(string(p.targetDir), candidate) {
		slog.Warn("Rendered name escapes the target directory, keeping the original",
			"name", original, "rendered", name)

		return filepath.Join(string(parent), original)
	}

	return candidate
}

func withinDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// isTruthy treats empty output and the JSON-ish empty values as false.
func isTruthy(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}

	_, falsy := falsyValues[trimmed]

	return !falsy
}

func collapseNewlines(value string) string {
	return newlineRunRegex.ReplaceAllString(value, " ")
}

func stripTemplateSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range templateSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return name[:len(name)-len(suffix)]
		}
	}

	return name
}

// numberedPath inserts " (n)" before the extension of path. n == 0 leaves it
// unchanged. A leading dot does not start an extension.
func numberedPath(path string, n int) string {
	if n == 0 {
		return path
	}

	dir, base := filepath.Split(path)

	idx := strings.LastIndex(base, ".")
	if idx <= 0 {
		return dir + fmt.Sprintf("%s (%d)", base, n)
	}

	return dir + fmt.Sprintf("%s (%d)%s", base[:idx], n, base[idx:])
}

func parentDir(path string) string {
	return filepath.Dir(path)
}

func baseName(path m.Path) string {
	return filepath.Base(string(path))
}
