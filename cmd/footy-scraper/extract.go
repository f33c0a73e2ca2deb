package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/myusername/footballer-scraper/pkg/parser"
	"github.com/myusername/footballer-scraper/pkg/scraper"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file|url>",
	Short: "Extract one player page and print the record as JSON.",
	Long: "Extract one player page and print the record as JSON. Pages that do not " +
		"describe a footballer print null.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]

		var content []byte
		var err error
		if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
			content, err = scraper.NewClient(cfg.Fetch).Fetch(cmd.Context(), source)
		} else {
			content, err = os.ReadFile(source)
		}
		if err != nil {
			return fmt.Errorf("error reading %s: %w", source, err)
		}

		rec, err := parser.ExtractHTML(bytes.NewReader(content))
		if err != nil {
			return err
		}
		if rec == nil {
			log.Info().Str("source", source).Msg("not a footballer page")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
