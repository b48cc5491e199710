package model

// Path represents a file system path.
type Path string

// SourceKind tells how a template source has to be acquired.
type SourceKind int

const (
	// SourceLocal is a directory on the local file system.
	SourceLocal SourceKind = iota
	// SourceRemote is a git repository reachable by URL.
	SourceRemote
)

// TemplateSource identifies where a template comes from.
type TemplateSource struct {
	Raw  string
	Kind SourceKind
	// Location is an absolute directory for local sources and the clone URL
	// for remote ones.
	Location string
	// RepoName is the last path segment without a ".git" suffix.
	RepoName string
}

// FetchOptions tweak how a template source is acquired.
type FetchOptions struct {
	Branch string
	// Dirty copies a local git working tree as-is instead of cloning it.
	Dirty bool
}
