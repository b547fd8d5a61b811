package commands

import (
	"github.com/spf13/cobra"

	"github.com/ncdatalab/ncdac/internal/cli/config"
	"github.com/ncdatalab/ncdac/internal/fetch"
)

// NewFetchCommand creates the fetch command.
func NewFetchCommand() *cobra.Command {
	var (
		pageURL      string
		keepArchives bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and unpack the published extract archives",
		Long: `Scrape the NC DAC downloads page for zipped extract archives, download
each one into the source directory, and unpack it there. Archives are
removed after unpacking unless --keep-archives is set.`,
		Example: `  ncdac fetch

  # Keep the downloaded .zip files around
  ncdac fetch --keep-archives`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Current()
			client := fetch.NewClient(config.GetLogger(cmd.Context()))
			return client.FetchAll(cmd.Context(), pageURL, cfg.SourceDir, !keepArchives)
		},
	}

	cmd.Flags().StringVar(&pageURL, "url", fetch.DefaultDownloadsURL, "Downloads page to scrape for .zip links")
	cmd.Flags().BoolVar(&keepArchives, "keep-archives", false, "Do not delete archives after unpacking")

	return cmd
}
