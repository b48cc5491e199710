package model

// RenderSpec is one planned file operation.
type RenderSpec struct {
	Source     Path
	Target     Path
	IsTemplate bool
}

// DirContext maps a source directory to its target. An empty Target marks an
// excluded subtree.
type DirContext struct {
	Source Path
	Target Path
}

// Excluded reports whether the subtree below this frame is skipped.
func (d DirContext) Excluded() bool {
	return d.Target == ""
}

// RenderConflict lists the sources that resolved to one target path.
type RenderConflict struct {
	IntendedTarget Path
	Sources        []Path
	// Targets holds where each source was written, index for index. The
	// first entry is the intended target itself.
	Targets        []Path
}

// RenderResult is the outcome of a render run.
type RenderResult struct {
	RenderedFiles []RenderSpec
	Conflicts     []RenderConflict
}

// ConflictReport pairs a conflict with unified diffs between the intended
// target and each numbered sibling.
type ConflictReport struct {
	Conflict RenderConflict
	Diffs    []string
}

// ToolConfig carries the run options that influence the core.
type ToolConfig struct {
	// Template is a subdirectory of the fetched source to render instead of
	// its root.
	Template  string
	NoHistory bool
	NoInit    bool
	// IgnoreChecks is the lenient mode: condition evaluation errors include
	// the file and invalid question defaults are dropped instead of the
	// question.
	IgnoreChecks bool
	DryRun       bool
	Verbose      bool
	// Parallelism is the worker count. Zero or less selects a default.
	Parallelism int
	// InspectMaxLines bounds how many leading lines are searched for template
	// markers. Zero or less selects a default.
	InspectMaxLines int
	// UseDefaults accepts question defaults without prompting.
	UseDefaults bool
}
