// Package models contains data structures for footballer biography records
package models

import "time"

// PlayerRecord holds the biographical and career data extracted from one player page.
// Every optional field is a pointer; nil means the page did not yield a value.
type PlayerRecord struct {
	Name                   *string    `json:"name"`
	FullName               *string    `json:"full_name"`
	DateOfBirth            *time.Time `json:"date_of_birth"`
	Age                    *int       `json:"age"`
	PlaceOfBirth           *string    `json:"place_of_birth"`
	CountryOfBirth         *string    `json:"country_of_birth"`
	Position               *string    `json:"position"`
	CurrentTeam            *string    `json:"current_team"`
	NationalTeam           *string    `json:"national_team"`
	AppearancesCurrentClub *int       `json:"appearances_current_club"`
	GoalsCurrentClub       *int       `json:"goals_current_club"`

	// IsFootballer is set when a career marker row was seen. It is not persisted.
	IsFootballer bool `json:"-"`
}

// DateLayout is the ISO layout used for DateOfBirth.
const DateLayout = "2006-01-02"

// StringFields returns pointers to every string-valued field, in column order.
func (p *PlayerRecord) StringFields() []**string {
	return []**string{
		&p.Name,
		&p.FullName,
		&p.PlaceOfBirth,
		&p.CountryOfBirth,
		&p.Position,
		&p.CurrentTeam,
		&p.NationalTeam,
	}
}

// Str returns a pointer to s.
func Str(s string) *string {
	return &s
}

// Int returns a pointer to n.
func Int(n int) *int {
	return &n
}

// Deref returns the value behind s, or "" when s is nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
