package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// GitAdapter wraps the git operations needed to fetch a template and to set
// up history in the generated project.
type GitAdapter interface {
	// Clone clones url into dest, restricted to branch when it is not empty.
	Clone(ctx context.Context, url, dest, branch string) error
	// Init creates an empty repository in dir.
	Init(ctx context.Context, dir string) error
	// Remotes lists the configured remote names of the repository in dir.
	Remotes(ctx context.Context, dir string) ([]string, error)
	// RemoveRemote deletes a remote from the repository in dir.
	RemoveRemote(ctx context.Context, dir, name string) error
}

// LocalGitAdapter runs the installed git binary.
type LocalGitAdapter struct {
	binary  string
	timeout time.Duration
}

// NewLocalGitAdapter constructs a LocalGitAdapter with a 5 minute timeout per
// command.
func NewLocalGitAdapter() *LocalGitAdapter {
	return &LocalGitAdapter{
		binary:  "git",
		timeout: 5 * time.Minute,
	}
}

// Clone runs `git clone`.
func (a *LocalGitAdapter) Clone(ctx context.Context, url, dest, branch string) error {
	args := []string{"clone", "--quiet"}
	if branch != "" {
		args = append(args, "--branch", branch, "--single-branch")
	}

	args = append(args, "--", url, dest)

	if _, err := a.run(ctx, "", args...); err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}

	return nil
}

// Init runs `git init`.
func (a *LocalGitAdapter) Init(ctx context.Context, dir string) error {
	if _, err := a.run(ctx, dir, "init", "--quiet"); err != nil {
		return fmt.Errorf("failed to initialize repository in %s: %w", dir, err)
	}

	return nil
}

// Remotes runs `git remote`.
func (a *LocalGitAdapter) Remotes(ctx context.Context, dir string) ([]string, error) {
	out, err := a.run(ctx, dir, "remote")
	if err != nil {
		return nil, fmt.Errorf("failed to list remotes in %s: %w", dir, err)
	}

	return strings.Fields(out), nil
}

// RemoveRemote runs `git remote remove`.
func (a *LocalGitAdapter) RemoveRemote(ctx context.Context, dir, name string) error {
	if _, err := a.run(ctx, dir, "remote", "remove", name); err != nil {
		return fmt.Errorf("failed to remove remote %s: %w", name, err)
	}

	return nil
}

func (a *LocalGitAdapter) run(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// #nosec G204 - arguments are built from fixed subcommands
	cmd := exec.CommandContext(ctx, a.binary, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", err
		}

		return "", fmt.Errorf("%w: %s", err, msg)
	}

	return stdout.String(), nil
}
