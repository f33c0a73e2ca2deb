// Package utils provides utility functions for the footballer-scraper
package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/myusername/footballer-scraper/internal/pipeline"
	"github.com/myusername/footballer-scraper/pkg/importer"
	"github.com/myusername/footballer-scraper/pkg/models"
)

// Outcome labels used in the results table
const (
	OutcomeStored    = "stored"
	OutcomeExtracted = "extracted"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// exportColumns is the header of exported CSV files. It matches the players
// table, so an export can be fed back through the importer.
var exportColumns = []string{
	"url", "name", "full_name", "date_of_birth", "age",
	"place_of_birth", "country_of_birth", "position", "current_club",
	"national_team", "appearances_current_club", "goals_current_club",
}

// Outcome classifies a result for display.
func Outcome(res pipeline.Result) string {
	switch {
	case res.Skipped:
		return OutcomeSkipped
	case res.Err != nil:
		return OutcomeFailed
	case res.Persisted:
		return OutcomeStored
	default:
		return OutcomeExtracted
	}
}

// DisplayResults prints one row per processed URL followed by the run totals.
func DisplayResults(w io.Writer, summary pipeline.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "URL", "Outcome", "Name", "Current club", "Apps", "Goals", "Detail"})

	for i, res := range summary.Results {
		var name, club, apps, goals string
		if res.Record != nil {
			name = models.Deref(res.Record.Name)
			club = models.Deref(res.Record.CurrentTeam)
			apps = formatInt(res.Record.AppearancesCurrentClub)
			goals = formatInt(res.Record.GoalsCurrentClub)
		}

		detail := ""
		if res.Err != nil {
			detail = res.Err.Error()
			if res.Stage != "" {
				detail = string(res.Stage) + ": " + detail
			}
		}

		t.AppendRow(table.Row{i + 1, res.URL, Outcome(res), name, club, apps, goals, detail})
	}

	t.AppendFooter(table.Row{
		"", fmt.Sprintf("total %d", summary.Total),
		fmt.Sprintf("%d stored, %d extracted, %d skipped, %d failed",
			summary.Stored, summary.Extracted, summary.Skipped, summary.Failed),
	})
	t.Render()
}

// WriteRecordsCSV writes every extracted record in the importer's batch format:
// ";"-separated with dates as DD.MM.YYYY. Results without a record are left out.
func WriteRecordsCSV(w io.Writer, results []pipeline.Result) error {
	writer := csv.NewWriter(w)
	writer.Comma = importer.Separator

	if err := writer.Write(exportColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, res := range results {
		rec := res.Record
		if rec == nil {
			continue
		}

		dob := ""
		if rec.DateOfBirth != nil {
			dob = rec.DateOfBirth.Format(importer.DateLayout)
		}

		row := []string{
			res.URL,
			models.Deref(rec.Name),
			models.Deref(rec.FullName),
			dob,
			formatInt(rec.Age),
			models.Deref(rec.PlaceOfBirth),
			models.Deref(rec.CountryOfBirth),
			models.Deref(rec.Position),
			models.Deref(rec.CurrentTeam),
			models.Deref(rec.NationalTeam),
			formatInt(rec.AppearancesCurrentClub),
			formatInt(rec.GoalsCurrentClub),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write player data: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveRecordsToCSV saves the extracted records to a CSV file
func SaveRecordsToCSV(results []pipeline.Result, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := WriteRecordsCSV(f, results); err != nil {
		return err
	}
	return f.Close()
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
