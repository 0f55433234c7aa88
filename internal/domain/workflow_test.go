package domain

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/gomutants/internal/adapter"
	"gooze.dev/pkg/gomutants/internal/controller"
	m "gooze.dev/pkg/gomutants/internal/model"
)

// onlyGreetingSurvives fails the tests of every mutant except the one that
// turns Greeting into "xyzzy". The unmutated tree passes.
func onlyGreetingSurvives(t *testing.T) func(context.Context, m.Path, []PhaseSpec) ([]m.PhaseResult, error) {
	t.Helper()

	original, err := os.ReadFile(filepath.Join("..", "..", "examples", "basic", "calc.go"))
	require.NoError(t, err)

	return func(ctx context.Context, dir m.Path, phases []PhaseSpec) ([]m.PhaseResult, error) {
		content, err := os.ReadFile(filepath.Join(string(dir), "calc.go"))
		if err != nil {
			return nil, err
		}

		results, _ := passAll(ctx, dir, phases)

		if !bytes.Equal(content, original) && !bytes.Contains(content, []byte(`"xyzzy"`)) {
			last := &results[len(results)-1]
			last.Status = m.PhaseFailure
			last.ExitCode = 1
			last.Output = []byte("--- FAIL")
		}

		return results, nil
	}
}

func newTestWorkflow(t *testing.T, sup Supervisor) (Workflow, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	return NewWorkflow(
		adapter.NewLocalSourceFSAdapter(),
		adapter.NewReportStore(),
		controller.NewSimpleUI(&out, controller.Options{NoTimes: true}),
		newTestCatalogBuilder(),
		sup,
	), &out
}

func TestWorkflow_Run(t *testing.T) {
	ctx := context.Background()
	output := t.TempDir()
	sup := &fakeSupervisor{run: onlyGreetingSurvives(t)}
	wf, out := newTestWorkflow(t, sup)

	report, err := wf.Run(ctx, RunArgs{
		CatalogArgs: CatalogArgs{Paths: []m.Path{examplePath("basic")}},
		RunID:       "run-42",
		Output:      m.Path(output),
		Toolchain:   Toolchain{GoBinary: "go"},
		Scope:       ScopeModule,
		Scheduler:   SchedulerConfig{Parallel: 3},
	})
	require.NoError(t, err)

	listing, err := wf.List(ctx, ListArgs{CatalogArgs: CatalogArgs{Paths: []m.Path{examplePath("basic")}}})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, len(listing.Candidates))
	assert.Equal(t, 1, report.Summary.Missed)
	assert.Equal(t, len(listing.Candidates)-1, report.Summary.Caught)
	assert.Equal(t, "run-42", report.RunID)
	assert.Equal(t, ExitMissed, ExitCode(report, err))

	for i, o := range report.Outcomes {
		assert.Equal(t, listing.Candidates[i].Index, o.Index)
	}

	missed, err := os.ReadFile(filepath.Join(output, "missed.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(missed), `replace Greeting -> string with "xyzzy"`)

	text := out.String()
	assert.Contains(t, text, "Unmutated baseline ... ok")
	assert.Contains(t, text, "NOT CAUGHT")
	assert.Contains(t, text, "1 missed")

	doc, err := wf.View(ctx, m.Path(output))
	require.NoError(t, err)
	assert.Equal(t, report.Summary, doc.Summary)
	assert.False(t, doc.Interrupted)
}

func TestWorkflow_RunBaselineFailure(t *testing.T) {
	output := t.TempDir()
	sup := &fakeSupervisor{run: func(_ context.Context, _ m.Path, phases []PhaseSpec) ([]m.PhaseResult, error) {
		return []m.PhaseResult{{Phase: phases[0].Phase, Status: m.PhaseFailure, ExitCode: 2}}, nil
	}}
	wf, out := newTestWorkflow(t, sup)

	report, err := wf.Run(context.Background(), RunArgs{
		CatalogArgs: CatalogArgs{Paths: []m.Path{examplePath("basic")}},
		Output:      m.Path(output),
		Toolchain:   Toolchain{GoBinary: "go"},
		Scheduler:   SchedulerConfig{Parallel: 2},
	})
	require.ErrorIs(t, err, ErrBaselineFailed)
	assert.Equal(t, ExitBaselineFailed, ExitCode(report, err))
	assert.Empty(t, report.Outcomes)
	assert.Len(t, sup.calls, 1, "no mutant runs after a failed baseline")
	assert.Contains(t, out.String(), "Unmutated baseline ... FAILED")
	assert.FileExists(t, filepath.Join(output, adapter.OutcomesFileName))
}

func TestWorkflow_RunDryRun(t *testing.T) {
	output := t.TempDir()
	sup := &fakeSupervisor{run: passAll}
	wf, _ := newTestWorkflow(t, sup)

	report, err := wf.Run(context.Background(), RunArgs{
		CatalogArgs: CatalogArgs{Paths: []m.Path{examplePath("basic")}},
		Output:      m.Path(output),
		Scheduler:   SchedulerConfig{DryRun: true},
	})
	require.NoError(t, err)
	assert.Empty(t, sup.calls)
	assert.Equal(t, len(report.Outcomes), report.Summary.Skipped)
}

func TestWorkflow_RunCatalogError(t *testing.T) {
	wf, _ := newTestWorkflow(t, &fakeSupervisor{run: passAll})

	_, err := wf.Run(context.Background(), RunArgs{
		CatalogArgs: CatalogArgs{Paths: []m.Path{examplePath("invalid")}},
		Output:      m.Path(t.TempDir()),
	})
	require.ErrorIs(t, err, ErrNoParsableFiles)
}

func TestWorkflow_ListDiffs(t *testing.T) {
	wf, _ := newTestWorkflow(t, &fakeSupervisor{run: passAll})

	listing, err := wf.List(context.Background(), ListArgs{
		CatalogArgs: CatalogArgs{Paths: []m.Path{examplePath("basic")}},
		Diffs:       true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, listing.Candidates)

	for _, c := range listing.Candidates {
		assert.True(t, strings.HasPrefix(listing.Diffs[c.Index], "--- a/calc.go"), c.Name())
	}
}

func TestWorkflow_ViewWithoutReport(t *testing.T) {
	wf, _ := newTestWorkflow(t, &fakeSupervisor{run: passAll})

	_, err := wf.View(context.Background(), m.Path(t.TempDir()))
	require.ErrorIs(t, err, ErrNoReport)
}

func TestWorkflow_WorkspaceSkip(t *testing.T) {
	w := &workflow{fs: adapter.NewLocalSourceFSAdapter()}
	root := t.TempDir()

	assert.Equal(t, []string{"mutants.out"}, w.workspaceSkip(context.Background(), m.Path(root), m.Path(filepath.Join(root, "mutants.out"))))
	assert.Nil(t, w.workspaceSkip(context.Background(), m.Path(root), m.Path(t.TempDir())))
	assert.Nil(t, w.workspaceSkip(context.Background(), m.Path(root), m.Path(root)))
}
