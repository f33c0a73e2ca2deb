package importer_test

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
	"github.com/xuri/excelize/v2"

	"github.com/myusername/footballer-scraper/pkg/importer"
	"github.com/myusername/footballer-scraper/pkg/store"
)

// fakeSink records what the loader appends.
type fakeSink struct {
	columns   []string
	gotCols   []string
	gotRows   [][]any
	appendErr error
}

func (f *fakeSink) Columns(context.Context) ([]string, error) {
	return f.columns, nil
}

func (f *fakeSink) AppendRows(_ context.Context, columns []string, rows [][]any) (int, error) {
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	f.gotCols = columns
	f.gotRows = rows
	return len(rows), nil
}

const batchCSV = `PlayerID;URL;Name;Date of Birth;Age;Shirt Number
p1;https://en.wikipedia.org/wiki/A;Alpha;01.02.1990;34;9
p2;https://en.wikipedia.org/wiki/B;Bravo;;;7
p3;https://en.wikipedia.org/wiki/A;Alpha Updated;03.04.1991;33;10
`

func TestLoad_CSV(t *testing.T) {
	sink := &fakeSink{columns: store.Columns}
	table, err := importer.ReadCSV(strings.NewReader(batchCSV), importer.Separator)
	require.NoError(t, err)

	report, err := importer.NewLoader(sink).Load(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, []string{"Shirt Number"}, report.DroppedColumns)
	assert.Equal(t, 2, report.Inserted)

	assert.Equal(t, []string{"playerid", "url", "name", "date_of_birth", "age"}, sink.gotCols)
	require.Len(t, sink.gotRows, 2)
	assert.Equal(t, []any{"p2", "https://en.wikipedia.org/wiki/B", "Bravo", nil, nil}, sink.gotRows[0])
	assert.Equal(t, []any{
		"p3", "https://en.wikipedia.org/wiki/A", "Alpha Updated",
		time.Date(1991, time.April, 3, 0, 0, 0, 0, time.UTC), "33",
	}, sink.gotRows[1])
}

func TestLoad_GeneratesIDs(t *testing.T) {
	sink := &fakeSink{columns: store.Columns}
	table := importer.Table{
		Header: []string{"url", "name"},
		Rows:   [][]string{{"https://a", "A"}, {"https://b", "B"}},
	}

	_, err := importer.NewLoader(sink).Load(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, []string{"playerid", "url", "name"}, sink.gotCols)
	require.Len(t, sink.gotRows, 2)
	assert.NotEmpty(t, sink.gotRows[0][0])
	assert.NotEqual(t, sink.gotRows[0][0], sink.gotRows[1][0])
}

func TestLoad_NoURLColumn(t *testing.T) {
	sink := &fakeSink{columns: store.Columns}
	table := importer.Table{Header: []string{"name"}, Rows: [][]string{{"A"}}}

	_, err := importer.NewLoader(sink).Load(context.Background(), table)
	require.ErrorIs(t, err, importer.ErrNoURLColumn)
}

func TestLoad_InvalidDate(t *testing.T) {
	sink := &fakeSink{columns: store.Columns}
	table := importer.Table{
		Header: []string{"url", "date_of_birth"},
		Rows:   [][]string{{"https://a", "01.01.1990"}, {"https://b", "1990-01-01"}},
	}

	_, err := importer.NewLoader(sink).Load(context.Background(), table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Nil(t, sink.gotRows)
}

func TestLoad_AppendError(t *testing.T) {
	sink := &fakeSink{columns: store.Columns, appendErr: errors.New("duplicate key")}
	table := importer.Table{Header: []string{"url"}, Rows: [][]string{{"https://a"}}}

	_, err := importer.NewLoader(sink).Load(context.Background(), table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestLoadFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]string{
		{"URL", "Name", "Current Club"},
		{"https://a", "A", "Club X"},
		{"https://b", "B", "Club Y"},
	}
	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, val))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	path := filepath.Join(t.TempDir(), "players.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	sink := &fakeSink{columns: store.Columns}
	report, err := importer.NewLoader(sink).LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, []string{"playerid", "url", "name", "current_club"}, sink.gotCols)
	assert.Equal(t, "Club Y", sink.gotRows[1][3])
}

func TestLoadFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playersData.csv")
	require.NoError(t, os.WriteFile(path, []byte(batchCSV), 0o644))

	sink := &fakeSink{columns: store.Columns}
	report, err := importer.NewLoader(sink).LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := importer.NewLoader(&fakeSink{}).LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestNormalizeColumn(t *testing.T) {
	assert.Equal(t, "date_of_birth", importer.NormalizeColumn(" Date of  Birth "))
	assert.Equal(t, "url", importer.NormalizeColumn("URL"))
	assert.Equal(t, "goals_current_club", importer.NormalizeColumn("Goals\tcurrent club"))
}

func TestReconcile_DuplicateHeader(t *testing.T) {
	table := importer.Table{
		Header: []string{"Name", "name", "url"},
		Rows:   [][]string{{"first", "second", "https://a"}},
	}

	out, dropped := importer.Reconcile(table, store.Columns)
	assert.Equal(t, []string{"name", "url"}, out.Header)
	assert.Equal(t, []string{"name"}, dropped)
	assert.Equal(t, [][]string{{"first", "https://a"}}, out.Rows)
}

func TestDedupeByURL_KeepsLastInOrder(t *testing.T) {
	table := importer.Table{
		Header: []string{"url", "name"},
		Rows: [][]string{
			{"https://a", "a1"},
			{"https://b", "b1"},
			{"https://a", "a2"},
			{"https://c", "c1"},
			{"https://b", "b2"},
		},
	}

	out, err := importer.DedupeByURL(table)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"https://a", "a2"},
		{"https://c", "c1"},
		{"https://b", "b2"},
	}, out.Rows)
}
