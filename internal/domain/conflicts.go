package domain

import (
	"fmt"
	"log/slog"

	"github.com/pmezard/go-difflib/difflib"
	"scaffold.dev/pkg/scaffold/internal/adapter"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

const diffContextLines = 3

// BuildConflictReports diffs the file at each intended target against the
// files its other sources were written to. Files that cannot be read get no diff.
func BuildConflictReports(fsAdapter adapter.SourceFSAdapter, conflicts []m.RenderConflict) []m.ConflictReport {
	reports := make([]m.ConflictReport, 0, len(conflicts))

	for _, conflict := range conflicts {
		report := m.ConflictReport{Conflict: conflict}
		intended := string(conflict.IntendedTarget)

		base, err := fsAdapter.ReadFile(conflict.IntendedTarget)
		if err != nil {
			slog.Warn("Failed to read conflicting file", "path", intended, "error", err)
			reports = append(reports, report)

			continue
		}

		for n := 1; n < len(conflict.Sources); n++ {
			sibling := numberedPath(intended, n)
			if len(conflict.Targets) == len(conflict.Sources) {
				sibling = string(conflict.Targets[n])
			}

			diff, err := diffFiles(fsAdapter, intended, string(base), sibling)
			if err != nil {
				slog.Warn("Failed to diff conflicting files", "path", sibling, "error", err)
				continue
			}

			report.Diffs = append(report.Diffs, diff)
		}

		reports = append(reports, report)
	}

	return reports
}

func diffFiles(fsAdapter adapter.SourceFSAdapter, basePath, base, siblingPath string) (string, error) {
	other, err := fsAdapter.ReadFile(m.Path(siblingPath))
	if err != nil {
		return "", err
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(base),
		B:        difflib.SplitLines(string(other)),
		FromFile: basePath,
		ToFile:   siblingPath,
		Context:  diffContextLines,
	})
	if err != nil {
		return "", fmt.Errorf("failed to diff %s: %w", siblingPath, err)
	}

	return diff, nil
}
