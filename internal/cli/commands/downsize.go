package commands

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/ncdatalab/ncdac/internal/cli/config"
	"github.com/ncdatalab/ncdac/internal/downsize"
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NewDownsizeCommand creates the downsize command.
func NewDownsizeCommand() *cobra.Command {
	var (
		from         string
		to           string
		since        string
		parentTable  string
		updateColumn string
	)

	cmd := &cobra.Command{
		Use:   "downsize",
		Short: "Clone the store, keeping only recently updated profiles",
		Long: `Create a reduced copy of an extract store. Identifiers are harvested
from the offender profile table rows updated on or after the --since date;
every _data table in the copy is filtered to those identifiers, while
description tables are copied verbatim.

The destination must not exist. The source is opened read-only.`,
		Example: `  ncdac downsize --to small.sqlite --since 2022-01-01

  # Explicit source and a different parent table
  ncdac downsize --from full.sqlite --to small.sqlite --since 2022-01-01 \
    --parent-table OFNT3AA1_data --update-column DTOFUPDT`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Current()
			if from == "" {
				from = cfg.DatabasePath
			}
			if !isoDatePattern.MatchString(since) {
				return fmt.Errorf("--since must be a YYYY-MM-DD date, got %q", since)
			}
			return downsize.Clone(cmd.Context(), downsize.Options{
				Source:        from,
				Destination:   to,
				MinUpdateDate: since,
				ParentTable:   parentTable,
				UpdateColumn:  updateColumn,
				Logger:        config.GetLogger(cmd.Context()),
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source store path (default: the configured database)")
	cmd.Flags().StringVar(&to, "to", "", "Destination store path (must not exist)")
	cmd.Flags().StringVar(&since, "since", "", "Minimum profile update date, YYYY-MM-DD")
	cmd.Flags().StringVar(&parentTable, "parent-table", downsize.DefaultParentTable, "Parent table driving the filter")
	cmd.Flags().StringVar(&updateColumn, "update-column", downsize.DefaultUpdateColumn, "Update-timestamp column of the parent table")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("since")

	return cmd
}
