package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/myusername/footballer-scraper/pkg/models"
)

var (
	birthDateRegex = regexp.MustCompile(`\((\d{4}-\d{2}-\d{2})\)`)
	ageRegex       = regexp.MustCompile(`\(age\s*(\d+)\)`)
	openRangeRegex = regexp.MustCompile(`–\s*$`)
)

// fieldKey identifies an infobox row that holds a scalar value.
type fieldKey int

const (
	fieldUnknown fieldKey = iota
	fieldFullName
	fieldDateOfBirth
	fieldPlaceOfBirth
	fieldPosition
	fieldCurrentTeam
	fieldNationalTeam
)

// fieldLabels maps the exact infobox header text to its field. "Name" is not a
// key: the name always comes from the infobox caption, so a "Name" row never
// replaces it.
var fieldLabels = map[string]fieldKey{
	"Full name":      fieldFullName,
	"Date of birth":  fieldDateOfBirth,
	"Place of birth": fieldPlaceOfBirth,
	"Position(s)":    fieldPosition,
	"Current team":   fieldCurrentTeam,
	"National_team":  fieldNationalTeam,
}

// fieldHandler writes the trimmed data cell text of a row into the record.
type fieldHandler func(rec *models.PlayerRecord, cell string)

var fieldHandlers = map[fieldKey]fieldHandler{
	fieldFullName: func(rec *models.PlayerRecord, cell string) {
		rec.FullName = models.Str(cell)
	},
	fieldDateOfBirth: func(rec *models.PlayerRecord, cell string) {
		rec.DateOfBirth, rec.Age = ParseBirthDate(cell)
	},
	fieldPlaceOfBirth: func(rec *models.PlayerRecord, cell string) {
		place, country := SplitBirthPlace(cell)
		if place != nil {
			rec.PlaceOfBirth = place
		}
		rec.CountryOfBirth = country
	},
	fieldPosition: func(rec *models.PlayerRecord, cell string) {
		rec.Position = models.Str(cell)
	},
	fieldCurrentTeam: func(rec *models.PlayerRecord, cell string) {
		rec.CurrentTeam = models.Str(NormalizeCurrentTeam(cell))
	},
	fieldNationalTeam: func(rec *models.PlayerRecord, cell string) {
		rec.NationalTeam = models.Str(cell)
	},
}

// lookupField returns the field for an infobox header, or fieldUnknown.
func lookupField(header string) fieldKey {
	if key, ok := fieldLabels[header]; ok {
		return key
	}
	return fieldUnknown
}

// ParseBirthDate extracts the "(YYYY-MM-DD)" date and the "(age N)" age from a
// date of birth cell. Each part is matched on its own; a miss leaves it nil.
func ParseBirthDate(text string) (*time.Time, *int) {
	var dob *time.Time
	if m := birthDateRegex.FindStringSubmatch(text); len(m) > 1 {
		if t, err := time.Parse(models.DateLayout, m[1]); err == nil {
			dob = &t
		}
	}

	var age *int
	if m := ageRegex.FindStringSubmatch(text); len(m) > 1 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			age = &n
		}
	}

	return dob, age
}

// SplitBirthPlace splits "place, country" on the first comma. Without a comma the
// whole cell is the country and place is nil.
func SplitBirthPlace(text string) (place, country *string) {
	text = strings.TrimSpace(text)
	before, after, found := strings.Cut(text, ",")
	if !found {
		return nil, models.Str(text)
	}
	return models.Str(strings.TrimSpace(before)), models.Str(strings.TrimSpace(after))
}

// NormalizeCurrentTeam drops everything from the first "(" on, e.g. "Club X (loan)".
func NormalizeCurrentTeam(text string) string {
	before, _, _ := strings.Cut(text, "(")
	return strings.TrimSpace(before)
}

// NormalizeCareerTeam reduces a career table team cell to the club name: the part
// after the last "→" (loan arrow), without any "(...)" suffix.
func NormalizeCareerTeam(text string) string {
	if i := strings.LastIndex(text, "→"); i >= 0 {
		text = text[i+len("→"):]
	}
	return NormalizeCurrentTeam(text)
}

// StripFootnote cuts a trailing footnote marker: "Midfielder[3]" becomes "Midfielder".
// Values that do not end in "]" are returned unchanged.
func StripFootnote(value string) string {
	if !strings.HasSuffix(value, "]") {
		return value
	}
	before, _, _ := strings.Cut(value, "[")
	return strings.TrimSpace(before)
}

// IsOpenEndedRange reports whether a year range label such as "2015–" has no end year.
func IsOpenEndedRange(label string) bool {
	return openRangeRegex.MatchString(label)
}

// parseCount parses a cell made only of ASCII digits.
func parseCount(cell string) (int, bool) {
	if cell == "" {
		return 0, false
	}
	for _, c := range cell {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(cell)
	if err != nil {
		return 0, false
	}
	return n, true
}

// trimWrapper removes the first and last character, e.g. the brackets of "(5)".
func trimWrapper(cell string) string {
	r := []rune(cell)
	if len(r) < 2 {
		return ""
	}
	return string(r[1 : len(r)-1])
}
