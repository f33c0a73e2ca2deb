// Package pipeline drives player pages through fetch, extract and store.
package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/myusername/footballer-scraper/pkg/models"
	"github.com/myusername/footballer-scraper/pkg/parser"
	"github.com/myusername/footballer-scraper/pkg/scraper"
)

// DefaultWorkers is the number of pages processed at once.
const DefaultWorkers = 4

// Fetcher returns the raw HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Sink stores one extracted record.
type Sink interface {
	Upsert(ctx context.Context, id, url string, rec *models.PlayerRecord) error
}

// Stage names the step a URL failed in.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageStore   Stage = "store"
)

// Result is the outcome for one URL.
type Result struct {
	URL    string
	Record *models.PlayerRecord
	// Skipped is set when the page is not a footballer page or is malformed.
	Skipped bool
	// Persisted is set once the record was written to the sink.
	Persisted bool
	Stage     Stage
	Err       error
}

// Summary aggregates the results of one run. Results follow input order.
// Extracted counts records that were not stored because the run had no sink.
type Summary struct {
	Total     int
	Stored    int
	Extracted int
	Skipped   int
	Failed    int
	Results   []Result
}

// Runner processes URL lists with bounded concurrency.
type Runner struct {
	fetcher Fetcher
	sink    Sink
	workers int
	newID   func() string
}

// NewRunner creates a Runner. A nil sink only extracts; workers < 1 uses DefaultWorkers.
func NewRunner(fetcher Fetcher, sink Sink, workers int) *Runner {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Runner{
		fetcher: fetcher,
		sink:    sink,
		workers: workers,
		newID:   uuid.NewString,
	}
}

// Run processes every URL. Per-URL failures are recorded in the Summary; only a
// canceled context ends the run early, and its error is returned.
func (r *Runner) Run(ctx context.Context, urls []string) (Summary, error) {
	results := make([]Result, len(urls))
	processed := make([]bool, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, url := range urls {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = r.process(gctx, url)
			processed[i] = true
			return gctx.Err()
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	summary := Summary{Total: len(urls), Results: results}
	for i := range results {
		if !processed[i] {
			cause := context.Cause(ctx)
			if cause == nil {
				cause = context.Canceled
			}
			results[i] = Result{URL: urls[i], Stage: StageFetch, Err: cause}
		}
		switch res := results[i]; {
		case res.Skipped:
			summary.Skipped++
		case res.Err != nil:
			summary.Failed++
		case res.Persisted:
			summary.Stored++
		default:
			summary.Extracted++
		}
	}

	log.Info().
		Int("total", summary.Total).
		Int("stored", summary.Stored).
		Int("extracted", summary.Extracted).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("scrape finished")
	return summary, err
}

func (r *Runner) process(ctx context.Context, url string) Result {
	res := Result{URL: url}
	logger := log.With().Str("url", url).Logger()

	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		logger.Error().Err(err).Str("stage", string(StageFetch)).Msg("failed to fetch page")
		res.Stage, res.Err = StageFetch, err
		return res
	}

	rec, err := parser.ExtractHTML(bytes.NewReader(body))
	switch {
	case errors.Is(err, parser.ErrMissingCaption):
		logger.Warn().Err(err).Msg("skipping malformed page")
		res.Skipped, res.Stage, res.Err = true, StageExtract, err
		return res
	case err != nil:
		logger.Error().Err(err).Str("stage", string(StageExtract)).Msg("failed to extract record")
		res.Stage, res.Err = StageExtract, err
		return res
	case rec == nil:
		logger.Info().Msg("not a footballer page")
		res.Skipped = true
		return res
	}
	res.Record = rec

	if r.sink == nil {
		return res
	}
	if err := r.sink.Upsert(ctx, r.newID(), url, rec); err != nil {
		logger.Error().Err(err).Str("stage", string(StageStore)).Msg("failed to store record")
		res.Stage, res.Err = StageStore, err
		return res
	}
	res.Persisted = true

	logger.Debug().Str("name", models.Deref(rec.Name)).Msg("record stored")
	return res
}

// ReadURLList reads the first column of every CSV line, skipping blank entries.
// Relative entries are resolved against base when base is set.
func ReadURLList(r io.Reader, base string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var urls []string
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading URL list line %d: %w", line, err)
		}
		if len(rec) == 0 {
			continue
		}

		url := strings.TrimSpace(rec[0])
		if url == "" {
			continue
		}
		if base != "" {
			url, err = scraper.ResolveURL(base, url)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		urls = append(urls, url)
	}
	return urls, nil
}
