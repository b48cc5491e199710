package pattern

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob is a compiled, case-insensitive glob. A single "*" never crosses a
// path separator, "**" does.
type Glob struct {
	raw        string
	normalized string
}

// CompileGlob validates raw and returns a Glob ready for matching.
func CompileGlob(raw string) (Glob, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Glob{}, fmt.Errorf("empty glob")
	}

	normalized := strings.ToLower(filepath.ToSlash(trimmed))
	if !doublestar.ValidatePattern(normalized) {
		return Glob{}, fmt.Errorf("invalid glob %q", raw)
	}

	return Glob{raw: raw, normalized: normalized}, nil
}

// MustCompileGlob is CompileGlob for patterns known to be valid.
func MustCompileGlob(raw string) Glob {
	g, err := CompileGlob(raw)
	if err != nil {
		panic(err)
	}

	return g
}

// String returns the pattern as written.
func (g Glob) String() string {
	return g.raw
}

// Match reports whether the relative path matches the glob.
func (g Glob) Match(relPath string) bool {
	if g.normalized == "" {
		return false
	}

	ok, err := doublestar.Match(g.normalized, strings.ToLower(filepath.ToSlash(relPath)))
	if err != nil {
		return false
	}

	return ok
}

// GlobSet matches a path against several globs.
type GlobSet []Glob

// Match reports whether any glob of the set matches relPath.
func (s GlobSet) Match(relPath string) bool {
	for _, g := range s {
		if g.Match(relPath) {
			return true
		}
	}

	return false
}
