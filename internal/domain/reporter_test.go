package domain

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/gomutants/internal/adapter"
	m "gooze.dev/pkg/gomutants/internal/model"
)

const reporterSource = "package calc\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n"

func reporterCatalog() Catalog {
	plus := m.Candidate{
		Index:       0,
		File:        "calc.go",
		Span:        m.Span{Start: 49, End: 50, StartLine: 4, StartColumn: 11},
		Original:    "+",
		Replacement: "-",
		Description: "replace + with - in Add",
	}

	zero := m.Candidate{
		Index:       1,
		File:        "calc.go",
		Span:        m.Span{Start: 47, End: 52, StartLine: 4, StartColumn: 9},
		Original:    "a + b",
		Replacement: "0",
		Description: "replace Add -> int with 0",
	}

	return Catalog{
		Root:       "/src",
		Files:      []m.SourceFile{{RelPath: "calc.go", Content: []byte(reporterSource)}},
		Candidates: []m.Candidate{plus, zero},
	}
}

func readFile(t *testing.T, path ...string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(path...))
	require.NoError(t, err)

	return string(data)
}

func TestReporter_WritesRunArtifacts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := adapter.NewReportStore()
	catalog := reporterCatalog()

	r := NewReporter(store, m.Path(dir), false)
	require.NoError(t, r.Begin(ctx, catalog))
	assert.FileExists(t, filepath.Join(dir, adapter.CatalogFileName))

	baseline := m.Outcome{Index: -1, Output: []byte("ok calc 0.01s\n")}
	require.NoError(t, r.RecordBaseline(ctx, baseline))

	caught := m.Outcome{Index: 0, Candidate: &catalog.Candidates[0], Classification: m.Caught, Output: []byte("--- FAIL: TestAdd\n")}
	missed := m.Outcome{Index: 1, Candidate: &catalog.Candidates[1], Classification: m.Missed, Output: []byte("ok\n")}

	// Completion order differs from catalog order.
	require.NoError(t, r.Record(ctx, missed))
	require.NoError(t, r.Record(ctx, caught))

	partial, err := LoadReport(ctx, store, m.Path(dir))
	require.NoError(t, err)
	assert.True(t, partial.Interrupted, "a report without outcomes.json is partial")
	require.Len(t, partial.Outcomes, 2)
	assert.Equal(t, 0, partial.Outcomes[0].Index)

	report := m.Report{
		RunID:      "run-1",
		Duration:   time.Second,
		ShardCount: 1,
		Baseline:   &baseline,
		Outcomes:   []m.Outcome{caught, missed},
		Summary:    Summarize([]m.Outcome{caught, missed}),
	}

	doc, err := r.Finish(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, "run-1", doc.RunID)
	assert.Empty(t, doc.Outcomes[0].Output, "output is not retained by default")

	assert.Equal(t, "calc.go:4:11: replace + with - in Add\n", readFile(t, dir, "caught.txt"))
	assert.Equal(t, "calc.go:4:9: replace Add -> int with 0\n", readFile(t, dir, "missed.txt"))
	assert.Empty(t, readFile(t, dir, "timeout.txt"))
	assert.Empty(t, readFile(t, dir, "unviable.txt"))

	assert.Contains(t, readFile(t, dir, adapter.DiffDirName, "0.diff"), "+\treturn a - b")
	assert.Equal(t, "--- FAIL: TestAdd\n", readFile(t, dir, adapter.LogDirName, "0.log"))
	assert.Equal(t, "ok calc 0.01s\n", readFile(t, dir, adapter.LogDirName, "baseline.log"))

	loaded, err := LoadReport(ctx, store, m.Path(dir))
	require.NoError(t, err)
	assert.False(t, loaded.Interrupted)
	assert.Equal(t, doc.Summary, loaded.Summary)
	require.NotNil(t, loaded.Baseline)
}

func TestReporter_RetainOutput(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	catalog := reporterCatalog()

	r := NewReporter(adapter.NewReportStore(), m.Path(dir), true)
	require.NoError(t, r.Begin(ctx, catalog))

	o := m.Outcome{Index: 0, Candidate: &catalog.Candidates[0], Classification: m.Caught, Output: []byte("FAIL")}
	require.NoError(t, r.Record(ctx, o))

	doc, err := r.Finish(ctx, m.Report{Outcomes: []m.Outcome{o}})
	require.NoError(t, err)
	assert.Equal(t, "FAIL", doc.Outcomes[0].Output)
}

func TestReporter_RecordBeforeBegin(t *testing.T) {
	r := NewReporter(adapter.NewReportStore(), m.Path(t.TempDir()), false)
	require.Error(t, r.Record(context.Background(), m.Outcome{Index: 0}))
}

func TestReporter_BeginClearsPreviousRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, adapter.OutcomesFileName), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte("keep"), 0o644))

	r := NewReporter(adapter.NewReportStore(), m.Path(dir), false)
	require.NoError(t, r.Begin(ctx, Catalog{}))

	assert.NoFileExists(t, filepath.Join(dir, adapter.OutcomesFileName))
	assert.FileExists(t, filepath.Join(dir, "debug.log"))
	assert.Equal(t, "[]\n", readFile(t, dir, adapter.CatalogFileName))
}

func TestLoadReport_Missing(t *testing.T) {
	_, err := LoadReport(context.Background(), adapter.NewReportStore(), m.Path(t.TempDir()))
	require.ErrorIs(t, err, ErrNoReport)
}

func writeShard(t *testing.T, dir string, shard, count int, outcomes ...m.Outcome) {
	t.Helper()

	ctx := context.Background()
	shardDir := m.Path(filepath.Join(dir, adapter.ShardDirPrefix+strconv.Itoa(shard)))

	r := NewReporter(adapter.NewReportStore(), shardDir, false)
	require.NoError(t, r.Begin(ctx, reporterCatalog()))

	for _, o := range outcomes {
		require.NoError(t, r.Record(ctx, o))
	}

	_, err := r.Finish(ctx, m.Report{
		RunID:      "run",
		Shard:      shard,
		ShardCount: count,
		Outcomes:   outcomes,
		Summary:    Summarize(outcomes),
	})
	require.NoError(t, err)
}

func TestMergeReports(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	catalog := reporterCatalog()

	missed := m.Outcome{Index: 1, Candidate: &catalog.Candidates[1], Classification: m.Missed}
	caught := m.Outcome{Index: 0, Candidate: &catalog.Candidates[0], Classification: m.Caught}

	writeShard(t, dir, 1, 2, missed)
	writeShard(t, dir, 0, 2, caught)

	doc, err := MergeReports(ctx, adapter.NewReportStore(), m.Path(dir))
	require.NoError(t, err)

	require.Len(t, doc.Outcomes, 2)
	assert.Equal(t, 0, doc.Outcomes[0].Index)
	assert.Equal(t, 1, doc.Outcomes[1].Index)
	assert.Equal(t, 2, doc.ShardCount)
	assert.Equal(t, m.Summary{Total: 2, Caught: 1, Missed: 1, Score: 50}, doc.Summary)
	assert.Equal(t, "calc.go:4:9: replace Add -> int with 0\n", readFile(t, dir, "missed.txt"))
	assert.FileExists(t, filepath.Join(dir, adapter.OutcomesFileName))
	assert.DirExists(t, filepath.Join(dir, "shard_0"), "shard reports are kept")
}

func TestMergeReports_NoShards(t *testing.T) {
	_, err := MergeReports(context.Background(), adapter.NewReportStore(), m.Path(t.TempDir()))
	require.ErrorIs(t, err, ErrNoReport)
}
