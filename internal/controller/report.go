package controller

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"scaffold.dev/pkg/scaffold/internal/domain"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

// relativeTo shortens path for display. Paths outside base are kept.
func relativeTo(base, path m.Path) string {
	if base == "" {
		return string(path)
	}

	rel, err := filepath.Rel(string(base), string(path))
	if err != nil || strings.HasPrefix(rel, "..") {
		return string(path)
	}

	return filepath.ToSlash(rel)
}

func renderFilesTable(result domain.ScaffoldResult) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Template", "Rendered"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, spec := range result.Render.RenderedFiles {
		table.Append([]string{
			relativeTo(result.Workdir, spec.Source),
			relativeTo(result.Target, spec.Target),
		})
	}

	table.SetFooter([]string{"Total", fmt.Sprintf("%d", len(result.Render.RenderedFiles))})
	table.Render()

	return tableBuffer.String()
}

// conflictLines lists every conflict with its sources and, when known, the
// file each one was written to.
func conflictLines(result domain.ScaffoldResult) []string {
	var lines []string

	for _, conflict := range result.Render.Conflicts {
		lines = append(lines, relativeTo(result.Target, conflict.IntendedTarget))

		for i, source := range conflict.Sources {
			line := fmt.Sprintf("  [%d] %s", i, relativeTo(result.Workdir, source))
			if len(conflict.Targets) == len(conflict.Sources) {
				line += " -> " + relativeTo(result.Target, conflict.Targets[i])
			}

			lines = append(lines, line)
		}
	}

	return lines
}

func conflictDiffs(result domain.ScaffoldResult) []string {
	var diffs []string

	for _, report := range result.Reports {
		diffs = append(diffs, report.Diffs...)
	}

	return diffs
}

func summaryLine(result domain.ScaffoldResult, dryRun bool) string {
	verb := "Rendered"
	if dryRun {
		verb = "Would render"
	}

	return fmt.Sprintf("%s %d template file(s) into %s", verb, len(result.Render.RenderedFiles), result.Target)
}
