// Package adapter contains the infrastructure adapters used by the scaffold
// core: file system access, template evaluation, prompts, answer files and git.
package adapter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

// SourceFSAdapter abstracts the file system operations the render engine and
// the workflow rely on, so the domain logic stays independent of `os`.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type SourceFSAdapter interface {
	// Walk visits root and everything below it in lexical depth-first order.
	Walk(root m.Path, fn WalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// ReadHeadLines returns at most maxLines leading lines of a file.
	ReadHeadLines(path m.Path, maxLines int) ([]string, error)

	// FileInfo returns metadata for path.
	FileInfo(path m.Path) (os.FileInfo, error)

	// ReadDirNames lists the entry names of a directory.
	ReadDirNames(path m.Path) ([]string, error)

	// MkdirAll creates path and any missing parents.
	MkdirAll(path m.Path) error

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// CopyFile copies src to dst keeping the source permissions.
	CopyFile(src, dst m.Path) error

	// CopyDir recursively copies a directory tree.
	CopyDir(src, dst m.Path) error

	// CreateTempDir creates a fresh temporary directory.
	CreateTempDir(pattern string) (m.Path, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(path m.Path) error
}

// WalkFunc mirrors fs.WalkDirFunc with the domain path type.
type WalkFunc func(path m.Path, entry fs.DirEntry, err error) error

// LocalSourceFSAdapter implements SourceFSAdapter on the local disk.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Walk iterates over root in lexical order.
func (a *LocalSourceFSAdapter) Walk(root m.Path, fn WalkFunc) error {
	return filepath.WalkDir(string(root), func(path string, entry fs.DirEntry, err error) error {
		return fn(m.Path(path), entry, err)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// ReadHeadLines reads up to maxLines lines without loading the whole file.
func (a *LocalSourceFSAdapter) ReadHeadLines(path m.Path, maxLines int) ([]string, error) {
	// #nosec G304 - path comes from the template walk
	f, err := os.Open(string(path))
	if err != nil {
		return nil, err
	}

	defer func() { _ = f.Close() }()

	reader := bufio.NewReader(f)
	lines := make([]string, 0, maxLines)

	for len(lines) < maxLines {
		line, err := reader.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return lines, err
		}
	}

	return lines, nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// ReadDirNames lists directory entries by name.
func (a *LocalSourceFSAdapter) ReadDirNames(path m.Path) ([]string, error) {
	entries, err := os.ReadDir(string(path))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names, nil
}

// MkdirAll creates a directory tree.
func (a *LocalSourceFSAdapter) MkdirAll(path m.Path) error {
	return os.MkdirAll(string(path), 0o750)
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// CopyFile copies a single file byte for byte.
func (a *LocalSourceFSAdapter) CopyFile(src, dst m.Path) error {
	// #nosec G304 - src is a template file path
	sourceFile, err := os.Open(string(src))
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	info, err := sourceFile.Stat()
	if err != nil {
		return err
	}

	// #nosec G304 - dst lies inside the prepared target directory
	destFile, err := os.OpenFile(string(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		_ = destFile.Close()
		return err
	}

	return destFile.Close()
}

// CopyDir recursively copies src into dst, keeping symlinks and permissions.
func (a *LocalSourceFSAdapter) CopyDir(src, dst m.Path) error {
	if err := os.MkdirAll(string(dst), 0o750); err != nil {
		return err
	}

	srcFS := osfs.New(string(src))
	dstFS := osfs.New(string(dst))

	return util.Walk(srcFS, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		switch {
		case info.IsDir():
			return dstFS.MkdirAll(path, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			return copySymlink(srcFS, dstFS, path)
		default:
			return copyBillyFile(srcFS, dstFS, path, info.Mode().Perm())
		}
	})
}

func copySymlink(srcFS, dstFS billy.Filesystem, path string) error {
	target, err := srcFS.Readlink(path)
	if err != nil {
		return fmt.Errorf("failed to read link %s: %w", path, err)
	}

	return dstFS.Symlink(target, path)
}

func copyBillyFile(srcFS, dstFS billy.Filesystem, path string, perm os.FileMode) error {
	in, err := srcFS.Open(path)
	if err != nil {
		return err
	}

	defer func() { _ = in.Close() }()

	out, err := dstFS.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

// CreateTempDir creates a temporary working directory.
func (a *LocalSourceFSAdapter) CreateTempDir(pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// RemoveAll removes a directory and all its contents.
func (a *LocalSourceFSAdapter) RemoveAll(path m.Path) error {
	return os.RemoveAll(string(path))
}
