package controller

import (
	"bytes"
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/gomutants/internal/model"
)

func update(t *testing.T, rm runModel, msg tea.Msg) (runModel, tea.Cmd) {
	t.Helper()

	next, cmd := rm.Update(msg)

	out, ok := next.(runModel)
	require.True(t, ok)

	return out, cmd
}

func TestRunModel_TracksProgress(t *testing.T) {
	rm := newRunModel(Options{NoTimes: true})

	rm, _ = update(t, rm, runInfoMsg{Mutants: 4, Workers: 2, ShardIndex: 1, ShardCount: 2})
	rm, _ = update(t, rm, startedMsg{index: 0, worker: 0, name: "a.go:1:1: replace + with -"})
	rm, _ = update(t, rm, startedMsg{index: 1, worker: 1, name: "a.go:2:1: replace < with >="})

	view := rm.View()
	assert.Contains(t, view, "Testing mutants 0/4 (shard 1/2)")
	assert.Contains(t, view, "[0] a.go:1:1: replace + with -")
	assert.Contains(t, view, "[1] a.go:2:1: replace < with >=")

	rm, cmd := update(t, rm, finishedMsg{index: 0, classification: m.Missed, line: "a.go:1:1 ... NOT CAUGHT"})
	assert.NotNil(t, cmd, "finished mutants are printed above the bar")

	view = rm.View()
	assert.Contains(t, view, "Testing mutants 1/4")
	assert.Contains(t, view, "1 missed")
	assert.NotContains(t, view, "[0]")
	assert.InDelta(t, 0.25, rm.percent(), 0.0001)
}

func TestRunModel_PercentWithoutMutants(t *testing.T) {
	rm := newRunModel(Options{})
	assert.Zero(t, rm.percent())
}

func TestRunModel_WindowSize(t *testing.T) {
	rm := newRunModel(Options{})
	rm, _ = update(t, rm, tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Equal(t, 100, rm.width)
	assert.Equal(t, 60, rm.bar.Width)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abcdef", truncate("abcdef", 10))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "abcdefgh", truncate("abcdefgh", 0))
}

func TestTUI_FallsBackWhenNotRunning(t *testing.T) {
	c := candidate(3, "a.go", 1, "replace + with - in Add")

	var out bytes.Buffer
	ui := NewTUI(&out, Options{NoTimes: true})

	require.NoError(t, ui.Start(context.Background(), WithListMode()))
	ui.DisplayCompletedMutant(context.Background(), m.Outcome{Candidate: &c, Classification: m.Caught})
	ui.Close(context.Background())

	assert.Equal(t, "a.go:1:2: replace + with - in Add ... caught\n", out.String())
}

var (
	_ UI = (*TUI)(nil)
	_ UI = (*SimpleUI)(nil)
)

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}
