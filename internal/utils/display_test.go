package utils_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myusername/footballer-scraper/internal/pipeline"
	"github.com/myusername/footballer-scraper/internal/utils"
	"github.com/myusername/footballer-scraper/pkg/importer"
	"github.com/myusername/footballer-scraper/pkg/models"
	"github.com/myusername/footballer-scraper/pkg/store"
)

func sampleSummary() pipeline.Summary {
	dob := time.Date(1995, time.January, 1, 0, 0, 0, 0, time.UTC)
	return pipeline.Summary{
		Total: 3, Stored: 1, Skipped: 1, Failed: 1,
		Results: []pipeline.Result{
			{
				URL: "https://w/Jane",
				Record: &models.PlayerRecord{
					Name:                   models.Str("Jane Doe"),
					DateOfBirth:            &dob,
					Age:                    models.Int(30),
					PlaceOfBirth:           models.Str("Paris"),
					CurrentTeam:            models.Str("Club X"),
					AppearancesCurrentClub: models.Int(20),
					GoalsCurrentClub:       models.Int(5),
					IsFootballer:           true,
				},
				Persisted: true,
			},
			{URL: "https://w/Town", Skipped: true},
			{URL: "https://w/Gone", Stage: pipeline.StageFetch, Err: errors.New("non-200 status code: 404 404 Not Found")},
		},
	}
}

func TestOutcome(t *testing.T) {
	summary := sampleSummary()
	assert.Equal(t, utils.OutcomeStored, utils.Outcome(summary.Results[0]))
	assert.Equal(t, utils.OutcomeSkipped, utils.Outcome(summary.Results[1]))
	assert.Equal(t, utils.OutcomeFailed, utils.Outcome(summary.Results[2]))

	extractOnly := pipeline.Result{URL: "https://w/Jane", Record: summary.Results[0].Record}
	assert.Equal(t, utils.OutcomeExtracted, utils.Outcome(extractOnly))
}

func TestDisplayResults_ExtractOnly(t *testing.T) {
	summary := sampleSummary()
	summary.Results[0].Persisted = false
	summary.Stored, summary.Extracted = 0, 1

	var buf bytes.Buffer
	utils.DisplayResults(&buf, summary)

	out := buf.String()
	assert.Contains(t, out, utils.OutcomeExtracted)
	assert.NotContains(t, out, " "+utils.OutcomeStored+" ")
	assert.Contains(t, strings.ToLower(out), "0 stored, 1 extracted")
}

func TestDisplayResults(t *testing.T) {
	var buf bytes.Buffer
	utils.DisplayResults(&buf, sampleSummary())

	out := buf.String()
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "Club X")
	assert.Contains(t, out, "fetch: non-200 status code: 404")
	assert.Contains(t, strings.ToLower(out), "1 stored, 0 extracted, 1 skipped, 1 failed")
}

func TestWriteRecordsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, utils.WriteRecordsCSV(&buf, sampleSummary().Results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "url;name;full_name;date_of_birth"))
	assert.Equal(t, "https://w/Jane;Jane Doe;;01.01.1995;30;Paris;;;Club X;;20;5", lines[1])
}

type captureSink struct {
	cols []string
	rows [][]any
}

func (c *captureSink) Columns(context.Context) ([]string, error) { return store.Columns, nil }

func (c *captureSink) AppendRows(_ context.Context, cols []string, rows [][]any) (int, error) {
	c.cols, c.rows = cols, rows
	return len(rows), nil
}

func TestSaveRecordsToCSV_ReadableByImporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, utils.SaveRecordsToCSV(sampleSummary().Results, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	table, err := importer.ReadCSV(f, importer.Separator)
	require.NoError(t, err)

	sink := &captureSink{}
	report, err := importer.NewLoader(sink).Load(context.Background(), table)
	require.NoError(t, err)
	assert.Empty(t, report.DroppedColumns)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, time.Date(1995, time.January, 1, 0, 0, 0, 0, time.UTC), sink.rows[0][4])
}
