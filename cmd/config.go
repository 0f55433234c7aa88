package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"gooze.dev/pkg/gomutants/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "gomutants"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName  = "output"
	excludeFlagName = "exclude"
	verboseFlagName = "verbose"
	logFileFlagName = "log-file"

	runParallelFlagName          = "parallel"
	runTimeoutFlagName           = "timeout"
	runMinimumTimeoutFlagName    = "minimum-timeout"
	runTimeoutMultiplierFlagName = "timeout-multiplier"
	runGracePeriodFlagName       = "grace-period"
	runShardFlagName             = "shard"
	runDryRunFlagName            = "dry-run"
	runBaselineFlagName          = "baseline"
	runTestScopeFlagName         = "test-scope"
	runRetainOutputFlagName      = "retain-output"
	runNoTimesFlagName           = "no-times"
	runNoTUIFlagName             = "no-tui"
	runGenreFlagName             = "genre"
	runSkipGenreFlagName         = "skip-genre"
	runExamineFlagName           = "examine"
	runExcludeGlobFlagName       = "exclude-glob"
	runExamineReFlagName         = "examine-re"
	runExcludeReFlagName         = "exclude-re"
	runGoArgFlagName             = "go-arg"
	runTestArgFlagName           = "test-arg"

	excludeConfigKey      = "paths.exclude"
	examineConfigKey      = "paths.examine"
	excludeGlobsConfigKey = "paths.exclude_globs"
	examineNamesConfigKey = "names.examine"
	excludeNamesConfigKey = "names.exclude"
	genresEnableKey       = "genres.enable"
	genresDisableKey      = "genres.disable"

	runParallelConfigKey          = "run.parallel"
	runTimeoutConfigKey           = "run.timeout"
	runMinimumTimeoutConfigKey    = "run.minimum_timeout"
	runTimeoutMultiplierConfigKey = "run.timeout_multiplier"
	runGracePeriodConfigKey       = "run.grace_period"
	runBaselineConfigKey          = "run.baseline"
	runTestScopeConfigKey         = "run.test_scope"
	runRetainOutputConfigKey      = "run.retain_output"
	runGoArgsConfigKey            = "run.go_args"
	runTestArgsConfigKey          = "run.test_args"
	noTimesConfigKey              = "output.no_times"

	defaultOutputDir   = "mutants.out"
	defaultRunParallel = 0
	defaultBaseline    = baselineRun
	defaultTestScope   = string(domain.ScopeModule)

	baselineRun  = "run"
	baselineSkip = "skip"

	envPrefix = "GOMUTANTS"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogBaseName   = "debug.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultOutputDir)

	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(examineConfigKey, []string{})
	viper.SetDefault(excludeGlobsConfigKey, []string{})
	viper.SetDefault(examineNamesConfigKey, []string{})
	viper.SetDefault(excludeNamesConfigKey, []string{})
	viper.SetDefault(genresEnableKey, []string{})
	viper.SetDefault(genresDisableKey, []string{})

	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(runTimeoutConfigKey, time.Duration(0))
	viper.SetDefault(runMinimumTimeoutConfigKey, domain.DefaultMinimumTimeout)
	viper.SetDefault(runTimeoutMultiplierConfigKey, domain.DefaultTimeoutMultiplier)
	viper.SetDefault(runGracePeriodConfigKey, domain.DefaultGracePeriod)
	viper.SetDefault(runBaselineConfigKey, defaultBaseline)
	viper.SetDefault(runTestScopeConfigKey, defaultTestScope)
	viper.SetDefault(runRetainOutputConfigKey, false)
	viper.SetDefault(runGoArgsConfigKey, []string{})
	viper.SetDefault(runTestArgsConfigKey, []string{})
	viper.SetDefault(noTimesConfigKey, false)

	// Logging defaults. An empty filename means <output>/debug.log.
	viper.SetDefault(logFilenameKey, "")
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		slog.Debug("No config file loaded", "file", configFileName, "error", err)
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// logFilePath resolves where the debug log goes: the explicit path, then
// log.filename, then debug.log inside the output directory.
func logFilePath(explicit, output string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}

	if p := strings.TrimSpace(viper.GetString(logFilenameKey)); p != "" {
		return p
	}

	if strings.TrimSpace(output) == "" {
		output = defaultOutputDir
	}

	return filepath.Join(output, defaultLogBaseName)
}

// configureLogger configures the global slog logger.
//
// By default it logs at the configured level; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) *lumberjack.Logger {
	var logLevel slog.Level
	if verbose || viper.GetBool(logVerboseKey) {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return logWriter
}
