// Package parser provides functionality to extract footballer records from encyclopedia player pages
package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/myusername/footballer-scraper/pkg/models"
)

const (
	contentSelector = "div#bodyContent"
	infoboxSelector = "table.infobox.vcard"

	seniorCareerMarker        = "Senior career"
	internationalCareerMarker = "International career"
)

// ErrMissingCaption is returned when an infobox has no <caption>. Such a page is
// malformed and yields no record; callers treat it as skipped, not as a failure.
var ErrMissingCaption = errors.New("infobox has no caption")

// ExtractHTML parses raw HTML and extracts the player record from it.
func ExtractHTML(r io.Reader) (*models.PlayerRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML content: %w", err)
	}
	return Extract(doc)
}

// Extract walks the infobox tables of a player page and returns the normalized
// record. It returns (nil, nil) when the page has no content container, no
// infobox, or no career marker row, i.e. when it does not describe a footballer.
//
// When a page has several infoboxes they are processed in order into the same
// record, so later infoboxes overwrite values set by earlier ones.
func Extract(doc *goquery.Document) (*models.PlayerRecord, error) {
	content := doc.Find(contentSelector).First()
	if content.Length() == 0 {
		log.Debug().Str("stage", "extract").Msg("no content container")
		return nil, nil
	}

	b := &recordBuilder{rec: &models.PlayerRecord{}}

	infoboxes := content.Find(infoboxSelector)
	log.Debug().Str("stage", "extract").Int("count", infoboxes.Length()).Msg("infoboxes found")

	var err error
	infoboxes.EachWithBreak(func(_ int, infobox *goquery.Selection) bool {
		err = b.readInfobox(infobox)
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	b.stripFootnotes()

	if !b.rec.IsFootballer {
		return nil, nil
	}
	return b.rec, nil
}

// recordBuilder carries the record being filled through the extraction stages.
type recordBuilder struct {
	rec *models.PlayerRecord
}

func (b *recordBuilder) readInfobox(infobox *goquery.Selection) error {
	caption := infobox.Find("caption").First()
	if caption.Length() == 0 {
		return ErrMissingCaption
	}
	b.rec.Name = models.Str(strings.TrimSpace(caption.Text()))

	infobox.Find("tr").Each(func(_ int, row *goquery.Selection) {
		b.readRow(row)
	})
	return nil
}

func (b *recordBuilder) readRow(row *goquery.Selection) {
	headers := row.Find("th")
	if headers.Length() == 0 {
		return
	}
	header := strings.TrimSpace(headers.First().Text())

	if key := lookupField(header); key != fieldUnknown {
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return
		}
		fieldHandlers[key](b.rec, strings.TrimSpace(cell.Text()))
		return
	}

	switch {
	case strings.Contains(header, seniorCareerMarker):
		b.rec.IsFootballer = true
		b.readSeniorCareer(row)
	case strings.Contains(header, internationalCareerMarker):
		b.rec.IsFootballer = true
		b.readInternationalCareer(row)
	}
}

// readSeniorCareer sums appearances and goals over the career rows that name the
// current team. Totals are written back after every row.
func (b *recordBuilder) readSeniorCareer(marker *goquery.Selection) {
	apps := newTally()
	goals := newTally()

	cursor := newRowCursor(marker, careerRowShape)
	for cursor.HasNextMatchingRow() {
		cells := cursor.Next().Find("td")

		team := NormalizeCareerTeam(strings.TrimSpace(cells.Eq(0).Text()))
		if b.rec.CurrentTeam != nil && team == *b.rec.CurrentTeam {
			apps.add(strings.TrimSpace(cells.Eq(1).Text()))
			goals.add(trimWrapper(strings.TrimSpace(cells.Eq(2).Text())))
		}

		b.rec.AppearancesCurrentClub = apps.value()
		b.rec.GoalsCurrentClub = goals.value()
	}
}

// readInternationalCareer takes the national team from the row whose year range
// is still open, e.g. "2015–".
func (b *recordBuilder) readInternationalCareer(marker *goquery.Selection) {
	cursor := newRowCursor(marker, nationalRowShape)
	for cursor.HasNextMatchingRow() {
		row := cursor.Next()
		years := strings.TrimSpace(row.Find("th").First().Text())
		if IsOpenEndedRange(years) {
			b.rec.NationalTeam = models.Str(strings.TrimSpace(row.Find("td").First().Text()))
		}
	}
}

func (b *recordBuilder) stripFootnotes() {
	for _, field := range b.rec.StringFields() {
		if *field == nil {
			continue
		}
		*field = models.Str(StripFootnote(**field))
	}
}
