package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"scaffold.dev/pkg/scaffold/internal/domain"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	progressWidth = 40
)

// TUI implements UI using Bubble Tea for the live progress display.
type TUI struct {
	output io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start initializes the UI. The progress display is only started once
// rendering begins so that it never competes with the prompts.
func (t *TUI) Start(ctx context.Context) error {
	return ctx.Err()
}

// RenderStarted launches the progress display.
func (t *TUI) RenderStarted(total, workers int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program == nil {
		t.program = tea.NewProgram(newRenderProgressModel(),
			tea.WithOutput(t.output),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		)
		t.done = make(chan struct{})

		go func(program *tea.Program, done chan struct{}) {
			defer close(done)

			if _, err := program.Run(); err != nil {
				slog.Warn("Progress display failed", "error", err)
			}
		}(t.program, t.done)
	}

	t.send(renderStartedMsg{total: total, workers: workers})
}

// FileProcessed advances the progress bar.
func (t *TUI) FileProcessed(spec m.RenderSpec, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.send(fileProcessedMsg{target: string(spec.Target), failed: err != nil})
}

// Close stops the progress display and waits for its last frame.
func (t *TUI) Close(context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program == nil {
		return
	}

	t.send(renderDoneMsg{})
	<-t.done

	t.program = nil
}

// send must be called with mu held.
func (t *TUI) send(msg tea.Msg) {
	if t.program == nil {
		return
	}

	select {
	case <-t.done:
		return
	default:
	}

	t.program.Send(msg)
}

// DisplayContext prints the answers as JSON.
func (t *TUI) DisplayContext(ctx context.Context, answers m.AnswerContext) {
	if ctx.Err() != nil {
		return
	}

	_, _ = fmt.Fprintf(t.output, "%s\n%s\n", titleStyle.Render("Context"), domain.FormatContext(answers))
}

// DisplayResult prints the rendered files table and any conflicts.
func (t *TUI) DisplayResult(ctx context.Context, result domain.ScaffoldResult, opts ReportOptions) {
	if ctx.Err() != nil {
		return
	}

	var b strings.Builder

	if len(result.Render.RenderedFiles) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Rendered files"))
		b.WriteString("\n")
		b.WriteString(renderFilesTable(result))
	}

	b.WriteString(okStyle.Render("✓ " + summaryLine(result, opts.DryRun)))
	b.WriteString("\n")

	if len(result.Render.Conflicts) > 0 {
		writeConflicts(&b, result, opts)
	}

	_, _ = fmt.Fprint(t.output, b.String())
}

func writeConflicts(b *strings.Builder, result domain.ScaffoldResult, opts ReportOptions) {
	b.WriteString("\n")
	b.WriteString(warnStyle.Render(fmt.Sprintf("⚠ %d conflict(s)", len(result.Render.Conflicts))))
	b.WriteString("\n")

	for _, line := range conflictLines(result) {
		if strings.HasPrefix(line, " ") {
			b.WriteString(faintStyle.Render(line))
		} else {
			b.WriteString(line)
		}

		b.WriteString("\n")
	}

	if opts.Verbose {
		for _, diff := range conflictDiffs(result) {
			b.WriteString("\n")
			b.WriteString(colorDiff(diff))
		}
	}

	if result.Workdir != "" && !opts.DryRun {
		fmt.Fprintf(b, "\n%s %s\n", faintStyle.Render("Template sources kept in"), result.Workdir)
	}
}

func colorDiff(diff string) string {
	lines := strings.SplitAfter(diff, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = faintStyle.Render(strings.TrimSuffix(line, "\n")) + "\n"
		case strings.HasPrefix(line, "+"):
			lines[i] = addedStyle.Render(strings.TrimSuffix(line, "\n")) + "\n"
		case strings.HasPrefix(line, "-"):
			lines[i] = removedStyle.Render(strings.TrimSuffix(line, "\n")) + "\n"
		}
	}

	return strings.Join(lines, "")
}

type renderStartedMsg struct {
	total   int
	workers int
}

type fileProcessedMsg struct {
	target string
	failed bool
}

type renderDoneMsg struct{}

// renderProgressModel shows a spinner, the current file and a progress bar
// while the workers process files.
type renderProgressModel struct {
	progressBar progress.Model
	spinner     spinner.Model
	total       int
	workers     int
	processed   int
	failed      int
	current     string
	finished    bool
}

func newRenderProgressModel() renderProgressModel {
	return renderProgressModel{
		progressBar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(progressWidth),
			progress.WithoutPercentage(),
		),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (pm renderProgressModel) Init() tea.Cmd {
	return pm.spinner.Tick
}

func (pm renderProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		pm.progressBar.Width = max(10, min(progressWidth, msg.Width-20))
		return pm, nil

	case renderStartedMsg:
		pm.total = msg.total
		pm.workers = msg.workers

		return pm, nil

	case fileProcessedMsg:
		pm.processed++
		pm.current = msg.target

		if msg.failed {
			pm.failed++
		}

		return pm, nil

	case renderDoneMsg:
		pm.finished = true
		return pm, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd

		pm.spinner, cmd = pm.spinner.Update(msg)

		return pm, cmd
	}

	return pm, nil
}

func (pm renderProgressModel) percent() float64 {
	if pm.total == 0 {
		return 0
	}

	return float64(pm.processed) / float64(pm.total)
}

func (pm renderProgressModel) View() string {
	var b strings.Builder

	counts := fmt.Sprintf("%d/%d", pm.processed, pm.total)
	if pm.failed > 0 {
		counts += " " + errorStyle.Render(fmt.Sprintf("(%d failed)", pm.failed))
	}

	if pm.finished {
		fmt.Fprintf(&b, "%s %s %s\n", okStyle.Render("✓"), pm.progressBar.ViewAs(pm.percent()), counts)
		return b.String()
	}

	fmt.Fprintf(&b, "%s Processing with %d worker(s) %s\n", pm.spinner.View(), pm.workers, faintStyle.Render(pm.current))
	fmt.Fprintf(&b, "  %s %s\n", pm.progressBar.ViewAs(pm.percent()), counts)

	return b.String()
}
