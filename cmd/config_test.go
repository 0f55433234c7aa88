package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/gomutants/internal/domain"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "gomutants", configBaseName)
	assert.Equal(t, "gomutants.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "output", outputFlagName)
	assert.Equal(t, "exclude", excludeFlagName)
	assert.Equal(t, "parallel", runParallelFlagName)
	assert.Equal(t, "run.parallel", runParallelConfigKey)
	assert.Equal(t, "paths.exclude", excludeConfigKey)
	assert.Equal(t, "mutants.out", defaultOutputDir)
	assert.Equal(t, 0, defaultRunParallel)
	assert.Equal(t, "GOMUTANTS", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, currentConfigVersion, viper.GetInt(configVersionKey))
	assert.Equal(t, domain.DefaultMinimumTimeout, viper.GetDuration(runMinimumTimeoutConfigKey))
	assert.Equal(t, domain.DefaultGracePeriod, viper.GetDuration(runGracePeriodConfigKey))
	assert.InDelta(t, domain.DefaultTimeoutMultiplier, viper.GetFloat64(runTimeoutMultiplierConfigKey), 1e-9)
	assert.Equal(t, time.Duration(0), viper.GetDuration(runTimeoutConfigKey))
	assert.Equal(t, baselineRun, viper.GetString(runBaselineConfigKey))
	assert.Equal(t, string(domain.ScopeModule), viper.GetString(runTestScopeConfigKey))
	assert.Empty(t, viper.GetStringSlice(genresEnableKey))
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("GOMUTANTS_LOG_LEVEL", "debug")
	assert.Equal(t, "debug", viper.GetString(logLevelKey))

	t.Setenv("GOMUTANTS_LOG_MAX_SIZE", "42")
	assert.Equal(t, 42, viper.GetInt(logMaxSizeKey))
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.in, slog.LevelWarn))
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	path := filepath.Join(t.TempDir(), "logs", "debug.log")

	w := configureLogger(path, true)
	t.Cleanup(func() { _ = w.Close() })

	slog.Debug("Configured logger", "case", "verbose")

	assert.True(t, globalLogger.Enabled(context.Background(), slog.LevelDebug))
	assert.FileExists(t, path)

	require.NoError(t, w.Close())
	assert.Equal(t, path, w.Filename)
}
