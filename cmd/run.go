package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/gomutants/internal/adapter"
	"gooze.dev/pkg/gomutants/internal/controller"
	"gooze.dev/pkg/gomutants/internal/domain"
	m "gooze.dev/pkg/gomutants/internal/model"
)

var runShardFlag string
var runDryRunFlag bool
var runNoTUIFlag bool

// runFlagKeys maps the run flags to their config keys.
var runFlagKeys = map[string]string{
	runParallelFlagName:          runParallelConfigKey,
	runTimeoutFlagName:           runTimeoutConfigKey,
	runMinimumTimeoutFlagName:    runMinimumTimeoutConfigKey,
	runTimeoutMultiplierFlagName: runTimeoutMultiplierConfigKey,
	runGracePeriodFlagName:       runGracePeriodConfigKey,
	runBaselineFlagName:          runBaselineConfigKey,
	runTestScopeFlagName:         runTestScopeConfigKey,
	runRetainOutputFlagName:      runRetainOutputConfigKey,
	runNoTimesFlagName:           noTimesConfigKey,
	runGoArgFlagName:             runGoArgsConfigKey,
	runTestArgFlagName:           runTestArgsConfigKey,
}

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run mutation testing",
		Long:  runLongDescription,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindFlagsToConfig(cmd.Flags(), runFlagKeys); err != nil {
				return err
			}

			return bindFlagsToConfig(cmd.Flags(), catalogFlagKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			runArgs, err := runArgsFromConfig(args)
			if err != nil {
				return err
			}

			cmd.SilenceUsage = true

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wf := newWorkflow(cmd, workflowOptions{
				UI:          controller.Options{NoTimes: viper.GetBool(noTimesConfigKey)},
				NoTUI:       runNoTUIFlag,
				GracePeriod: viper.GetDuration(runGracePeriodConfigKey),
			})

			report, err := wf.Run(ctx, runArgs)

			return runResult(report, err)
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntP(runParallelFlagName, "p", defaultRunParallel, "number of parallel workers (default one per CPU)")
	flags.Duration(runTimeoutFlagName, 0, "test timeout per mutant (default derived from the baseline)")
	flags.Duration(runMinimumTimeoutFlagName, domain.DefaultMinimumTimeout, "lower bound of the derived test timeout")
	flags.Float64(runTimeoutMultiplierFlagName, domain.DefaultTimeoutMultiplier, "baseline duration multiplier for the derived timeout")
	flags.Duration(runGracePeriodFlagName, domain.DefaultGracePeriod, "time a terminated test process gets before it is killed")
	flags.StringVarP(&runShardFlag, runShardFlagName, "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")
	flags.BoolVar(&runDryRunFlag, runDryRunFlagName, false, "build the catalog and report every mutant as skipped without testing")
	flags.String(runBaselineFlagName, defaultBaseline, "run or skip the unmutated baseline")
	flags.String(runTestScopeFlagName, defaultTestScope, "packages tested per mutant: module or package")
	flags.Bool(runRetainOutputFlagName, false, "keep toolchain output in outcomes.json")
	flags.Bool(runNoTimesFlagName, false, "hide durations in the output")
	flags.BoolVar(&runNoTUIFlag, runNoTUIFlagName, false, "print plain progress lines even on a terminal")
	flags.StringArray(runGoArgFlagName, nil, "extra argument for every go build and go test (can be repeated)")
	flags.StringArray(runTestArgFlagName, nil, "extra argument for go test only (can be repeated)")

	configureCatalogFlags(cmd)
}

func parseBaseline(value string) (bool, error) {
	switch value {
	case baselineRun, "":
		return false, nil
	case baselineSkip:
		return true, nil
	}

	return false, fmt.Errorf("unknown baseline mode %q (want %s or %s)", value, baselineRun, baselineSkip)
}

// runArgsFromConfig assembles the run arguments from the bound flags and the
// config file.
func runArgsFromConfig(args []string) (domain.RunArgs, error) {
	catalogArgs, err := catalogArgsFromConfig(args)
	if err != nil {
		return domain.RunArgs{}, err
	}

	shard, err := domain.ParseShard(runShardFlag)
	if err != nil {
		return domain.RunArgs{}, err
	}

	scope, err := domain.ParseTestScope(viper.GetString(runTestScopeConfigKey))
	if err != nil {
		return domain.RunArgs{}, err
	}

	skipBaseline, err := parseBaseline(viper.GetString(runBaselineConfigKey))
	if err != nil {
		return domain.RunArgs{}, err
	}

	parallel := viper.GetInt(runParallelConfigKey)
	if parallel < 0 {
		return domain.RunArgs{}, fmt.Errorf("--%s must not be negative, got %d", runParallelFlagName, parallel)
	}

	output := viper.GetString(outputFlagName)
	if shard.Count > 1 {
		output = filepath.Join(output, adapter.ShardDirPrefix+strconv.Itoa(shard.Index))
	}

	return domain.RunArgs{
		CatalogArgs:  catalogArgs,
		RunID:        uuid.NewString(),
		Output:       m.Path(output),
		RetainOutput: viper.GetBool(runRetainOutputConfigKey),
		Toolchain: domain.Toolchain{
			GoArgs:   viper.GetStringSlice(runGoArgsConfigKey),
			TestArgs: viper.GetStringSlice(runTestArgsConfigKey),
		},
		Scope: scope,
		Scheduler: domain.SchedulerConfig{
			Parallel:          parallel,
			SkipBaseline:      skipBaseline,
			DryRun:            runDryRunFlag,
			Timeout:           viper.GetDuration(runTimeoutConfigKey),
			MinimumTimeout:    viper.GetDuration(runMinimumTimeoutConfigKey),
			TimeoutMultiplier: viper.GetFloat64(runTimeoutMultiplierConfigKey),
			Shard:             shard,
		},
	}, nil
}

// runResult turns the outcome of a run into the command error carrying its
// exit code.
func runResult(report m.Report, err error) error {
	code := domain.ExitCode(report, err)

	switch code {
	case domain.ExitClean:
		return nil
	case domain.ExitUsage:
		return err
	case domain.ExitMissed:
		return &exitError{code: code, err: fmt.Errorf("%d mutants not caught by tests", report.Summary.Missed)}
	}

	if err == nil {
		err = domain.ErrInterrupted
	}

	return &exitError{code: code, err: err}
}
