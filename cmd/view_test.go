package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/gomutants/internal/domain"
	m "gooze.dev/pkg/gomutants/internal/model"
)

func TestViewCmd_UsesRootOutputFlagByDefault(t *testing.T) {
	mockWorkflow, opts := useMockWorkflow(t)
	mockWorkflow.EXPECT().View(mock.Anything, m.Path(defaultOutputDir)).Return(m.ReportDocument{}, nil).Once()

	_, err := executeCmd(t, newViewCmd(), "view", "--log-file", filepath.Join(t.TempDir(), "debug.log"))
	require.NoError(t, err)
	assert.True(t, opts.NoTUI)
}

func TestViewCmd_RootOutputFlagIsPassedThrough(t *testing.T) {
	mockWorkflow, _ := useMockWorkflow(t)
	output := t.TempDir()
	mockWorkflow.EXPECT().View(mock.Anything, m.Path(output)).Return(m.ReportDocument{}, nil).Once()

	_, err := executeCmd(t, newViewCmd(), "view", "--output", output)
	require.NoError(t, err)
}

func TestViewCmd_NoReport(t *testing.T) {
	mockWorkflow, _ := useMockWorkflow(t)
	mockWorkflow.EXPECT().View(mock.Anything, mock.Anything).Return(m.ReportDocument{}, domain.ErrNoReport).Once()

	_, err := executeCmd(t, newViewCmd(), "view", "--output", t.TempDir())
	require.ErrorIs(t, err, domain.ErrNoReport)
}

func TestViewCmd_PositionalArgsAreRejected(t *testing.T) {
	useMockWorkflow(t)

	_, err := executeCmd(t, newViewCmd(), "view", "--output", t.TempDir(), "./custom-reports")
	require.Error(t, err)
}
