package parser

import (
	"github.com/PuerkitoBio/goquery"
)

// rowShape decides whether a table row belongs to a sub-table.
type rowShape func(row *goquery.Selection) bool

// careerRowShape matches senior career rows: team, appearances and goals cells.
func careerRowShape(row *goquery.Selection) bool {
	return row.Find("td").Length() == 3
}

// nationalRowShape matches national team rows: a year range header plus three cells.
func nationalRowShape(row *goquery.Selection) bool {
	return row.Find("th").Length() > 0 && row.Find("td").Length() == 3
}

// rowCursor walks the <tr> siblings that follow a marker row for as long as they
// keep the expected shape.
type rowCursor struct {
	next  *goquery.Selection
	shape rowShape
}

func newRowCursor(marker *goquery.Selection, shape rowShape) *rowCursor {
	return &rowCursor{
		next:  nextRow(marker),
		shape: shape,
	}
}

// HasNextMatchingRow reports whether another row exists and has the cursor's shape.
func (c *rowCursor) HasNextMatchingRow() bool {
	return c.next.Length() > 0 && c.shape(c.next)
}

// Next returns the current row and advances to the following sibling.
func (c *rowCursor) Next() *goquery.Selection {
	row := c.next
	c.next = nextRow(row)
	return row
}

func nextRow(row *goquery.Selection) *goquery.Selection {
	return row.NextAllFiltered("tr").First()
}

// tally sums count cells and becomes permanently invalid on the first cell that is
// not a plain number.
type tally struct {
	total int
	valid bool
}

func newTally() *tally {
	return &tally{valid: true}
}

func (t *tally) add(cell string) {
	if !t.valid {
		return
	}
	n, ok := parseCount(cell)
	if !ok {
		t.valid = false
		return
	}
	t.total += n
}

// value returns the running total, or nil once the tally has been invalidated.
func (t *tally) value() *int {
	if !t.valid {
		return nil
	}
	v := t.total
	return &v
}
