package domain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"scaffold.dev/pkg/scaffold/internal/adapter"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

// ErrInvalidTarget is returned when the target exists and is not an empty
// directory.
var ErrInvalidTarget = errors.New("invalid target")

// PrepareTarget resolves the output directory, defaulting to ./<repoName>,
// and makes sure it exists and is empty. The returned path is absolute with
// symlinks resolved.
func PrepareTarget(fsAdapter adapter.SourceFSAdapter, target, repoName string) (m.Path, error) {
	if target == "" {
		if repoName == "" {
			return "", fmt.Errorf("%w: no target given and no repository name to derive one from", ErrInvalidTarget)
		}

		target = repoName
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve target %s: %w", target, err)
	}

	path := m.Path(abs)

	info, err := fsAdapter.FileInfo(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := fsAdapter.MkdirAll(path); err != nil {
			return "", fmt.Errorf("failed to create target %s: %w", path, err)
		}

		return canonicalTarget(path)
	case err != nil:
		return "", fmt.Errorf("failed to inspect target %s: %w", path, err)
	case !info.IsDir():
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidTarget, path)
	}

	names, err := fsAdapter.ReadDirNames(path)
	if err != nil {
		return "", fmt.Errorf("failed to list target %s: %w", path, err)
	}

	if len(names) > 0 {
		return "", fmt.Errorf("%w: %s is not empty", ErrInvalidTarget, path)
	}

	return canonicalTarget(path)
}

// canonicalTarget resolves symlinks so that containment checks on rendered
// paths compare real locations.
func canonicalTarget(path m.Path) (m.Path, error) {
	resolved, err := filepath.EvalSymlinks(string(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve target %s: %w", path, err)
	}

	return m.Path(resolved), nil
}
