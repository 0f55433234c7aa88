// Package cmd provides the root command and CLI setup for gomutants.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gooze.dev/pkg/gomutants/internal/adapter"
	"gooze.dev/pkg/gomutants/internal/controller"
	"gooze.dev/pkg/gomutants/internal/domain"
	m "gooze.dev/pkg/gomutants/internal/model"
)

var goFileAdapter adapter.GoFileAdapter
var fsAdapter adapter.SourceFSAdapter
var reportStore adapter.ReportStore
var processAdapter adapter.ProcessAdapter

// newWorkflow builds the workflow behind a command once its flags are known.
var newWorkflow = defaultWorkflow

// logWriter is the rotating debug log opened by the root command.
var logWriter io.Closer

// Root-level flags shared by every command.
var (
	outputDirFlag   string
	excludePatterns []string
	verboseFlag     bool
	logFileFlag     string
)

func init() {
	goFileAdapter = adapter.NewLocalGoFileAdapter()
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	reportStore = adapter.NewReportStore()
	processAdapter = adapter.NewLocalProcessAdapter()
}

// workflowOptions are the command settings the workflow is assembled from.
type workflowOptions struct {
	UI          controller.Options
	NoTUI       bool
	GracePeriod time.Duration
}

func defaultWorkflow(cmd *cobra.Command, opts workflowOptions) domain.Workflow {
	useTTY := !opts.NoTUI && controller.IsTTY(cmd.OutOrStdout())

	return domain.NewWorkflow(
		fsAdapter,
		reportStore,
		controller.NewUI(cmd, useTTY, opts.UI),
		domain.NewCatalogBuilder(fsAdapter, goFileAdapter, 0),
		domain.NewSupervisor(processAdapter, opts.GracePeriod, nil),
	)
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...          recursively scan current directory
  - ./pkg/...      recursively scan pkg directory
  - ./cmd ./pkg    scan multiple directories`

const rootLongDescription = `gomutants is a mutation testing tool for Go. It injects small, plausible
changes (mutants) into your code one at a time, runs your tests against each
of them and reports the mutants your tests failed to catch.

` + pathPatternsHelp

const runLongDescription = `Run mutation testing for the given paths (default: current module).

Every mutant is tested in its own scratch copy of the source tree, so the
tree itself is never modified. Exit codes: 0 all mutants caught, 2 missed
mutants found, 4 the unmutated tree failed, 130 interrupted, 1 usage error.

` + pathPatternsHelp

const listLongDescription = `List the mutants that would be tested, without running anything.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gomutants",
		Short: "Go mutation testing tool",
		Long:  rootLongDescription,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindRootFlags(cmd.Root()); err != nil {
				return err
			}

			if logWriter != nil {
				_ = logWriter.Close()
			}

			logWriter = configureLogger(logFilePath(viper.GetString(logFileFlagName), viper.GetString(outputFlagName)), viper.GetBool(verboseFlagName))

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&outputDirFlag, outputFlagName, "o", defaultOutputDir, "output directory for the mutation report")
	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", nil, "exclude files whose path matches regex (can be repeated)")
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, "", "debug log file (default <output>/debug.log)")
}

// bindRootFlags wires the persistent flags of the executing tree to Viper.
func bindRootFlags(root *cobra.Command) error {
	flags := root.PersistentFlags()

	return bindFlagsToConfig(flags, map[string]string{
		outputFlagName:  outputFlagName,
		excludeFlagName: excludeConfigKey,
		verboseFlagName: verboseFlagName,
		logFileFlagName: logFileFlagName,
	})
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) error {
	if flag == nil {
		return fmt.Errorf("flag for config key %q not found", key)
	}

	return viper.BindPFlag(key, flag)
}

// bindFlagsToConfig binds every flag name to its config key. Binding happens
// when a command runs, so commands sharing a key do not overwrite each
// other's binding.
func bindFlagsToConfig(flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		if err := bindFlagToConfig(flags.Lookup(name), key); err != nil {
			return err
		}
	}

	return nil
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}

	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error {
	return e.err
}

// exitCode returns the process exit code for an error returned by a command.
func exitCode(err error) int {
	if err == nil {
		return domain.ExitClean
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}

	return domain.ExitUsage
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()

	if logWriter != nil {
		_ = logWriter.Close()
	}

	if code := exitCode(err); code != domain.ExitClean {
		os.Exit(code)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
