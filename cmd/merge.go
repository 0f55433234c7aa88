package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// mergeCmd represents the merge command.
var mergeCmd = newMergeCmd()

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge sharded reports into a single report",
		Long: `Merge the reports of shard_* subdirectories of the output directory into a
single report in the output directory. Run every shard with the same
--output and --shard INDEX/TOTAL first.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			wf := newWorkflow(cmd, workflowOptions{NoTUI: true})
			_, err := wf.Merge(cmd.Context(), m.Path(viper.GetString(outputFlagName)))

			return err
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
