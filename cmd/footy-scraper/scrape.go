package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/myusername/footballer-scraper/internal/pipeline"
	"github.com/myusername/footballer-scraper/internal/utils"
	"github.com/myusername/footballer-scraper/pkg/scraper"
	"github.com/myusername/footballer-scraper/pkg/store"
)

type scrapeFlags struct {
	csvOut      string
	workers     int
	snapshotDir string
	baseURL     string
	dryRun      bool
}

var scrapeOpts scrapeFlags

func addScrapeFlags(cmd *cobra.Command, f *scrapeFlags) {
	cmd.Flags().StringVar(&f.csvOut, "csv", "", "also write extracted records to this CSV file")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "pages processed in parallel (default from config)")
	cmd.Flags().StringVar(&f.snapshotDir, "snapshot-dir", "", "save fetched pages here and reuse them on later runs")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "resolve relative URLs in the list against this URL")
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <urls.csv>",
	Short: "Fetch every page in a URL list and upsert the extracted players.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sink pipeline.Sink
		if !scrapeOpts.dryRun {
			db, err := store.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			sink = store.New(db)
		}
		return scrapeList(cmd.Context(), args[0], sink, scrapeOpts)
	},
}

func scrapeList(ctx context.Context, listPath string, sink pipeline.Sink, f scrapeFlags) error {
	file, err := os.Open(listPath)
	if err != nil {
		return fmt.Errorf("error opening URL list: %w", err)
	}
	defer file.Close()

	baseURL := cfg.BaseURL
	if f.baseURL != "" {
		baseURL = f.baseURL
	}
	urls, err := pipeline.ReadURLList(file, baseURL)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(urls)).Str("file", listPath).Msg("will scrape URLs")

	opts := cfg.Fetch
	if f.snapshotDir != "" {
		opts.SnapshotDir = f.snapshotDir
	}
	workers := cfg.Workers
	if f.workers > 0 {
		workers = f.workers
	}

	runner := pipeline.NewRunner(scraper.NewClient(opts), sink, workers)
	summary, runErr := runner.Run(ctx, urls)

	utils.DisplayResults(os.Stdout, summary)

	if f.csvOut != "" {
		if err := utils.SaveRecordsToCSV(summary.Results, f.csvOut); err != nil {
			log.Error().Err(err).Str("file", f.csvOut).Msg("error saving CSV")
		} else {
			log.Info().Str("file", f.csvOut).Msg("saved records to CSV")
		}
	}
	return runErr
}

func init() {
	addScrapeFlags(scrapeCmd, &scrapeOpts)
	scrapeCmd.Flags().BoolVar(&scrapeOpts.dryRun, "dry-run", false, "extract only, do not write to the database")
	rootCmd.AddCommand(scrapeCmd)
}
