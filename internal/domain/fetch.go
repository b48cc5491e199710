package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"scaffold.dev/pkg/scaffold/internal/adapter"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

// FetchTemplate puts the template source into workdir. Local directories
// without history, or any local directory when Dirty is set, are copied as
// they are. Everything else is cloned.
func FetchTemplate(
	ctx context.Context,
	fsAdapter adapter.SourceFSAdapter,
	git adapter.GitAdapter,
	source m.TemplateSource,
	workdir m.Path,
	opts m.FetchOptions,
) error {
	if source.Kind == m.SourceLocal {
		info, err := fsAdapter.FileInfo(m.Path(source.Location))
		if err != nil {
			return fmt.Errorf("failed to access template %s: %w", source.Location, err)
		}

		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrInvalidTemplateSource, source.Location)
		}

		if opts.Dirty || !hasVCSDir(fsAdapter, m.Path(source.Location)) {
			if opts.Branch != "" {
				slog.Warn("Ignoring branch for a copied template", "branch", opts.Branch, "source", source.Location)
			}

			slog.Debug("Copying template", "source", source.Location, "workdir", workdir)

			if err := fsAdapter.CopyDir(m.Path(source.Location), workdir); err != nil {
				return fmt.Errorf("failed to copy template %s: %w", source.Location, err)
			}

			return nil
		}
	}

	slog.Debug("Cloning template", "source", source.Location, "branch", opts.Branch, "workdir", workdir)

	if err := git.Clone(ctx, source.Location, string(workdir), opts.Branch); err != nil {
		return fmt.Errorf("failed to fetch template: %w", err)
	}

	return nil
}

func hasVCSDir(fsAdapter adapter.SourceFSAdapter, dir m.Path) bool {
	info, err := fsAdapter.FileInfo(m.Path(filepath.Join(string(dir), vcsDirName)))

	return err == nil && info.IsDir()
}

// ApplyHistory sets up version control in the generated project. The
// template history is copied with its remotes removed unless NoHistory is
// set. Then a fresh repository is created unless NoInit is set too.
func ApplyHistory(
	ctx context.Context,
	fsAdapter adapter.SourceFSAdapter,
	git adapter.GitAdapter,
	workdir, target m.Path,
	cfg m.ToolConfig,
) error {
	if !cfg.NoHistory {
		if hasVCSDir(fsAdapter, workdir) {
			return copyHistory(ctx, fsAdapter, git, workdir, target)
		}

		slog.Info("Template has no history, initializing a new repository", "target", target)
	} else if cfg.NoInit {
		return nil
	}

	if err := git.Init(ctx, string(target)); err != nil {
		return fmt.Errorf("failed to initialize target repository: %w", err)
	}

	return nil
}

func copyHistory(ctx context.Context, fsAdapter adapter.SourceFSAdapter, git adapter.GitAdapter, workdir, target m.Path) error {
	src := m.Path(filepath.Join(string(workdir), vcsDirName))
	dst := m.Path(filepath.Join(string(target), vcsDirName))

	if err := fsAdapter.CopyDir(src, dst); err != nil {
		return fmt.Errorf("failed to copy template history: %w", err)
	}

	remotes, err := git.Remotes(ctx, string(target))
	if err != nil {
		return fmt.Errorf("failed to clean template history: %w", err)
	}

	for _, remote := range remotes {
		if err := git.RemoveRemote(ctx, string(target), remote); err != nil {
			return fmt.Errorf("failed to clean template history: %w", err)
		}
	}

	return nil
}
