package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "gooze.dev/pkg/gomutants/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View a previously generated mutation report",
		Long: `Print the summary of the report in the output directory. A report left by
an interrupted run is shown as partial.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			wf := newWorkflow(cmd, workflowOptions{NoTUI: true})
			_, err := wf.View(cmd.Context(), m.Path(viper.GetString(outputFlagName)))

			return err
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
