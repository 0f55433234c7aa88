package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gooze.dev/pkg/gomutants/internal/controller"
	"gooze.dev/pkg/gomutants/internal/domain"
	m "gooze.dev/pkg/gomutants/internal/model"
)

// Listing formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var listDiffFlag bool
var listFilesFlag bool
var listFormatFlag string

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [paths...]",
		Short: "List the mutants that would be tested",
		Long:  listLongDescription,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlagsToConfig(cmd.Flags(), catalogFlagKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch listFormatFlag {
			case formatText, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unknown format %q (want %s, %s or %s)", listFormatFlag, formatText, formatJSON, formatYAML)
			}

			catalogArgs, err := catalogArgsFromConfig(args)
			if err != nil {
				return err
			}

			cmd.SilenceUsage = true

			wf := newWorkflow(cmd, workflowOptions{NoTUI: true})

			listing, err := wf.List(cmd.Context(), domain.ListArgs{
				CatalogArgs: catalogArgs,
				Diffs:       listDiffFlag,
			})
			if err != nil {
				return err
			}

			return writeListing(cmd, listing)
		},
	}

	cmd.Flags().BoolVar(&listDiffFlag, "diff", false, "show the diff of every mutant")
	cmd.Flags().BoolVar(&listFilesFlag, "files", false, "list the source files instead of the mutants")
	cmd.Flags().StringVar(&listFormatFlag, "format", formatText, "output format: text, json or yaml")

	configureCatalogFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func writeListing(cmd *cobra.Command, listing m.Listing) error {
	out := cmd.OutOrStdout()

	switch listFormatFlag {
	case formatJSON:
		return encodeJSON(out, listingDocument(listing))
	case formatYAML:
		return encodeYAML(out, listingDocument(listing))
	}

	return controller.NewSimpleUI(out, controller.Options{}).DisplayListing(cmd.Context(), listing, controller.ListOptions{
		Diffs: listDiffFlag,
		Files: listFilesFlag,
	})
}

// listingDocument is what the structured formats print: the file list in
// files mode, the listing otherwise.
func listingDocument(listing m.Listing) any {
	if listFilesFlag {
		files := listing.Files
		if files == nil {
			files = []m.Path{}
		}

		return files
	}

	if listing.Candidates == nil {
		listing.Candidates = []m.Candidate{}
	}

	return listing
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode listing: %w", err)
	}

	return nil
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode listing: %w", err)
	}

	return enc.Close()
}
