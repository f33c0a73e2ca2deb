package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/myusername/footballer-scraper/internal/pipeline"
	"github.com/myusername/footballer-scraper/pkg/importer"
	"github.com/myusername/footballer-scraper/pkg/store"
)

var runOpts scrapeFlags

var runCmd = &cobra.Command{
	Use:   "run <urls.csv>",
	Short: "Migrate, import the batch file if present, then scrape a URL list.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Connect(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.Migrate(db.DB); err != nil {
			return err
		}

		s := store.New(db)
		return importThenScrape(cmd.Context(), s, s, args[0], runOpts)
	},
}

// importThenScrape imports the configured batch file when it exists and then
// scrapes the URL list. A failed import is logged and the scrape still runs.
func importThenScrape(ctx context.Context, batch importer.Sink, sink pipeline.Sink, listPath string, f scrapeFlags) error {
	if _, err := os.Stat(cfg.ImportFile); errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("file", cfg.ImportFile).Msg("no batch file, skipping import")
	} else if _, err := importFile(ctx, batch, cfg.ImportFile); err != nil {
		log.Error().Err(err).Str("file", cfg.ImportFile).Msg("failed to import batch file")
	}

	return scrapeList(ctx, listPath, sink, f)
}

func init() {
	addScrapeFlags(runCmd, &runOpts)
	rootCmd.AddCommand(runCmd)
}
