package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/myusername/footballer-scraper/pkg/importer"
	"github.com/myusername/footballer-scraper/pkg/store"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Append a ';'-separated CSV or .xlsx batch file to the players table.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.ImportFile
		if len(args) == 1 {
			path = args[0]
		}

		db, err := store.Connect(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		_, err = importFile(cmd.Context(), store.New(db), path)
		return err
	},
}

func importFile(ctx context.Context, s importer.Sink, path string) (importer.Report, error) {
	log.Info().Str("file", path).Msg("importing batch file")
	return importer.NewLoader(s).LoadFile(ctx, path)
}

func init() {
	rootCmd.AddCommand(importCmd)
}
