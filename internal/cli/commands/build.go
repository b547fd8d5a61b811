// Package commands implements the ncdac subcommands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/ncdatalab/ncdac/internal/cli/config"
	"github.com/ncdatalab/ncdac/internal/engine"
)

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	var (
		rowLimit  int
		withIndex bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Decode extract pairs into a SQLite store",
		Long: `Decode every matched .dat/.des pair in the source directory into the
extract store. Each dataset produces a <name>_data table with the decoded
records and a <name>_desc table persisting the field layout.

Existing tables of the same names are replaced.`,
		Example: `  # Build from ./extracts into ./ncdac.sqlite
  ncdac build

  # Sample the first 1000 rows of each dataset
  ncdac build --row-limit 1000

  # Index each data table's identifier column after loading
  ncdac build --index`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Current()
			eng, err := engine.New(engine.Config{
				SourceDir:    cfg.SourceDir,
				DatabasePath: cfg.DatabasePath,
				Encoding:     cfg.Encoding,
				RowLimit:     rowLimit,
				WithIndex:    withIndex,
				Logger:       config.GetLogger(cmd.Context()),
			})
			if err != nil {
				return err
			}
			return eng.Build(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&rowLimit, "row-limit", 0, "Decode at most this many rows per dataset (0 = all)")
	cmd.Flags().BoolVar(&withIndex, "index", false, "Create an index on each data table's identifier column")

	return cmd
}
