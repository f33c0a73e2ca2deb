// Package importer loads batch files of player rows into the players table.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	// Separator is the field separator of CSV batch files.
	Separator = ';'
	// DateLayout is the date_of_birth format of batch files (DD.MM.YYYY).
	DateLayout = "02.01.2006"

	urlColumn         = "url"
	idColumn          = "playerid"
	dateOfBirthColumn = "date_of_birth"
)

// ErrNoURLColumn is returned when a batch file has no url column to deduplicate on.
var ErrNoURLColumn = errors.New("batch file has no url column")

// Sink is the table the loader writes into.
type Sink interface {
	Columns(ctx context.Context) ([]string, error)
	AppendRows(ctx context.Context, columns []string, rows [][]any) (int, error)
}

// Table is a header row plus data rows, all as raw strings.
type Table struct {
	Header []string
	Rows   [][]string
}

// Report summarizes one import.
type Report struct {
	Rows           int
	Duplicates     int
	DroppedColumns []string
	Inserted       int
}

// Loader imports batch files into a Sink.
type Loader struct {
	sink  Sink
	newID func() string
}

// NewLoader creates a Loader writing into sink.
func NewLoader(sink Sink) *Loader {
	return &Loader{sink: sink, newID: uuid.NewString}
}

// LoadFile reads a ";"-separated CSV file, or an .xlsx workbook, and appends its rows.
func (l *Loader) LoadFile(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("error opening batch file: %w", err)
	}
	defer f.Close()

	var table Table
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		table, err = ReadXLSX(f)
	} else {
		table, err = ReadCSV(f, Separator)
	}
	if err != nil {
		return Report{}, err
	}
	return l.Load(ctx, table)
}

// Load reconciles table against the sink's columns, drops duplicate urls keeping
// the last occurrence, converts the values and appends the rows.
func (l *Loader) Load(ctx context.Context, table Table) (Report, error) {
	known, err := l.sink.Columns(ctx)
	if err != nil {
		return Report{}, err
	}

	table, dropped := Reconcile(table, known)
	report := Report{Rows: len(table.Rows), DroppedColumns: dropped}
	if len(dropped) > 0 {
		log.Warn().Strs("columns", dropped).Msg("dropping unknown batch columns")
	}

	table, err = DedupeByURL(table)
	if err != nil {
		return report, err
	}
	report.Duplicates = report.Rows - len(table.Rows)

	if contains(known, idColumn) && !contains(table.Header, idColumn) {
		table = l.withGeneratedIDs(table)
	}

	rows, err := convertRows(table)
	if err != nil {
		return report, err
	}

	report.Inserted, err = l.sink.AppendRows(ctx, table.Header, rows)
	if err != nil {
		return report, fmt.Errorf("error appending batch rows: %w", err)
	}

	log.Info().
		Int("rows", report.Rows).
		Int("duplicates", report.Duplicates).
		Int("inserted", report.Inserted).
		Msg("batch file imported")
	return report, nil
}

func (l *Loader) withGeneratedIDs(t Table) Table {
	out := Table{Header: append([]string{idColumn}, t.Header...)}
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append([]string{l.newID()}, row...))
	}
	return out
}

// ReadCSV reads a CSV table with a header row.
func ReadCSV(r io.Reader, sep rune) (Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = sep
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("error reading CSV: %w", err)
	}
	return tableFromRecords(records), nil
}

// ReadXLSX reads the first sheet of a workbook; the first row is the header.
func ReadXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("error reading sheet %s: %w", sheets[0], err)
	}
	return tableFromRecords(records), nil
}

func tableFromRecords(records [][]string) Table {
	if len(records) == 0 {
		return Table{}
	}
	t := Table{Header: records[0]}
	for _, rec := range records[1:] {
		row := make([]string, len(t.Header))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeColumn lower-cases a header and joins its words with underscores,
// e.g. "Date of Birth" becomes "date_of_birth".
func NormalizeColumn(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// Reconcile normalizes the header and keeps only the columns in known. It returns
// the names of the dropped columns.
func Reconcile(t Table, known []string) (Table, []string) {
	var keep []int
	var dropped []string
	out := Table{}
	for i, name := range t.Header {
		col := NormalizeColumn(name)
		if !contains(known, col) || contains(out.Header, col) {
			dropped = append(dropped, name)
			continue
		}
		keep = append(keep, i)
		out.Header = append(out.Header, col)
	}

	for _, row := range t.Rows {
		kept := make([]string, len(keep))
		for j, i := range keep {
			kept[j] = row[i]
		}
		out.Rows = append(out.Rows, kept)
	}
	return out, dropped
}

// DedupeByURL keeps the last row for every url, in file order.
func DedupeByURL(t Table) (Table, error) {
	col := indexOf(t.Header, urlColumn)
	if col < 0 {
		return t, ErrNoURLColumn
	}

	last := make(map[string]int, len(t.Rows))
	for i, row := range t.Rows {
		last[strings.TrimSpace(row[col])] = i
	}

	out := Table{Header: t.Header}
	for i, row := range t.Rows {
		if last[strings.TrimSpace(row[col])] == i {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// convertRows turns raw cells into insert values: empty cells become NULL and
// date_of_birth is parsed from DD.MM.YYYY.
func convertRows(t Table) ([][]any, error) {
	dobCol := indexOf(t.Header, dateOfBirthColumn)

	rows := make([][]any, 0, len(t.Rows))
	for i, raw := range t.Rows {
		row := make([]any, len(raw))
		for j, cell := range raw {
			cell = strings.TrimSpace(cell)
			switch {
			case cell == "":
				row[j] = nil
			case j == dobCol:
				dob, err := time.Parse(DateLayout, cell)
				if err != nil {
					return nil, fmt.Errorf("row %d: invalid date_of_birth %q: %w", i+1, cell, err)
				}
				row[j] = dob
			default:
				row[j] = cell
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func contains(list []string, s string) bool {
	return indexOf(list, s) >= 0
}
