package controller

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// TUI implements UI with a live Bubble Tea progress display. Listings and
// summaries are printed as plain text once the program has exited.
type TUI struct {
	out    io.Writer
	opts   Options
	simple *SimpleUI

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(out io.Writer, opts Options) *TUI {
	return &TUI{out: out, opts: opts, simple: NewSimpleUI(out, opts)}
}

// Start launches the progress display in run mode.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if startConfig(options).mode != ModeRun {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return nil
	}

	// Signals are left to the caller so cancellation tears down child
	// processes before the display goes away.
	t.program = tea.NewProgram(newRunModel(t.opts),
		tea.WithOutput(t.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)

		if _, err := t.program.Run(); err != nil {
			_, _ = fmt.Fprintf(t.out, "progress display failed: %v\n", err)
		}
	}()

	return nil
}

// Close stops the progress display and waits for it to restore the terminal.
func (t *TUI) Close(context.Context) {
	t.mu.Lock()
	program, done := t.program, t.done
	t.program = nil
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()
	<-done
}

func (t *TUI) send(msg tea.Msg) bool {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program == nil {
		return false
	}

	program.Send(msg)

	return true
}

// DisplayListing prints the catalog.
func (t *TUI) DisplayListing(ctx context.Context, listing m.Listing, opts ListOptions) error {
	return t.simple.DisplayListing(ctx, listing, opts)
}

// DisplayRunInfo shows the run parameters in the header.
func (t *TUI) DisplayRunInfo(ctx context.Context, info RunInfo) {
	if !t.send(runInfoMsg(info)) {
		t.simple.DisplayRunInfo(ctx, info)
	}
}

// DisplayBaseline prints the baseline line above the progress bar.
func (t *TUI) DisplayBaseline(ctx context.Context, outcome m.Outcome) {
	if !t.send(printMsg{line: outcomeLine(outcome, t.opts.NoTimes)}) {
		t.simple.DisplayBaseline(ctx, outcome)
	}
}

// DisplayStartingMutant marks the worker as busy.
func (t *TUI) DisplayStartingMutant(_ context.Context, c m.Candidate, worker int) {
	t.send(startedMsg{index: c.Index, worker: worker, name: c.Name()})
}

// DisplayCompletedMutant counts the outcome and prints its line.
func (t *TUI) DisplayCompletedMutant(ctx context.Context, outcome m.Outcome) {
	msg := finishedMsg{
		index:          outcome.Index,
		classification: outcome.Classification,
		line:           outcomeLine(outcome, t.opts.NoTimes),
	}

	if !t.send(msg) {
		t.simple.DisplayCompletedMutant(ctx, outcome)
	}
}

// DisplaySummary prints the totals of a report.
func (t *TUI) DisplaySummary(ctx context.Context, doc m.ReportDocument) {
	t.simple.DisplaySummary(ctx, doc)
}

type runInfoMsg RunInfo

type startedMsg struct {
	index  int
	worker int
	name   string
}

type finishedMsg struct {
	index          int
	classification m.Classification
	line           string
}

type printMsg struct {
	line string
}

type activeMutant struct {
	worker int
	name   string
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
	caughtStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	missedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	timeoutStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	unviableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// runModel is the Bubble Tea model shown while mutants are tested.
type runModel struct {
	spinner spinner.Model
	bar     progress.Model
	info    RunInfo
	done    int
	counts  m.Summary
	active  map[int]activeMutant
	started time.Time
	noTimes bool
	width   int
}

func newRunModel(opts Options) runModel {
	return runModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
		),
		active:  make(map[int]activeMutant),
		started: time.Now(),
		noTimes: opts.NoTimes,
	}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.width = msg.Width
		rm.bar.Width = max(min(msg.Width-20, 60), 10)

		return rm, nil

	case runInfoMsg:
		rm.info = RunInfo(msg)
		return rm, nil

	case startedMsg:
		rm.active[msg.index] = activeMutant{worker: msg.worker, name: msg.name}
		return rm, nil

	case finishedMsg:
		delete(rm.active, msg.index)
		rm.done++
		rm.counts.Add(msg.classification)

		return rm, tea.Println(msg.line)

	case printMsg:
		return rm, tea.Println(msg.line)

	case spinner.TickMsg:
		var cmd tea.Cmd
		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd
	}

	return rm, nil
}

func (rm runModel) percent() float64 {
	if rm.info.Mutants == 0 {
		return 0
	}

	return float64(rm.done) / float64(rm.info.Mutants)
}

func (rm runModel) View() string {
	var b strings.Builder

	header := fmt.Sprintf("%s Testing mutants %d/%d", rm.spinner.View(), rm.done, rm.info.Mutants)
	if rm.info.ShardCount > 1 {
		header += fmt.Sprintf(" (shard %d/%d)", rm.info.ShardIndex, rm.info.ShardCount)
	}

	if !rm.noTimes {
		header += faintStyle.Render(fmt.Sprintf("  %s", time.Since(rm.started).Round(time.Second)))
	}

	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(rm.bar.ViewAs(rm.percent()))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s  %s  %s  %s\n",
		missedStyle.Render(fmt.Sprintf("%d missed", rm.counts.Missed)),
		caughtStyle.Render(fmt.Sprintf("%d caught", rm.counts.Caught)),
		timeoutStyle.Render(fmt.Sprintf("%d timeout", rm.counts.Timeout)),
		unviableStyle.Render(fmt.Sprintf("%d unviable", rm.counts.Unviable)),
	)

	active := make([]activeMutant, 0, len(rm.active))
	for _, a := range rm.active {
		active = append(active, a)
	}

	sort.Slice(active, func(i, j int) bool { return active[i].worker < active[j].worker })

	for _, a := range active {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  [%d] %s", a.worker, truncate(a.name, rm.width-8))))
		b.WriteString("\n")
	}

	return b.String()
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}

	return s[:width-3] + "..."
}
