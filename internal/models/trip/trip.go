// Package trip holds the domain types shared by the journal repositories, the
// read-assembly engine and the timeline projection.
package trip

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// UnscheduledDate marks a journal place that has not been given a day.
	UnscheduledDate = "To be arranged"
	// DateLayout is the persisted calendar date format.
	DateLayout = "2006-01-02"
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusPublic Status = "public"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublic
}

// Toggle flips draft and public.
func (s Status) Toggle() Status {
	if s == StatusPublic {
		return StatusDraft
	}
	return StatusPublic
}

// Journal is a user's trip record.
type Journal struct {
	ID            string
	UserID        string
	Title         string
	Summary       string
	Introduction  string
	Description   string
	StartDate     string
	Days          int
	TotalCost     decimal.Decimal
	Currency      string
	CoverImageURL *string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
	// EmbeddedPlaces holds entries of the older layout, where places lived in
	// an array on the journal document.
	EmbeddedPlaces []map[string]any
}

// Nights is one less than the number of days.
func (j Journal) Nights() int {
	if j.Days < 1 {
		return 0
	}
	return j.Days - 1
}

// EndDate returns the last day of the trip, or "" when the range is unknown.
func (j Journal) EndDate() string {
	_, end, ok := j.DateRange()
	if !ok {
		return ""
	}
	return end.Format(DateLayout)
}

// DateRange returns the first and last day of the trip.
func (j Journal) DateRange() (time.Time, time.Time, bool) {
	if j.Days < 1 {
		return time.Time{}, time.Time{}, false
	}
	start, err := ParseDate(j.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, start.AddDate(0, 0, j.Days-1), true
}

// Covers reports whether date falls inside the trip. The unscheduled marker
// is always accepted.
func (j Journal) Covers(date string) bool {
	if date == UnscheduledDate {
		return true
	}
	start, end, ok := j.DateRange()
	if !ok {
		return false
	}
	d, err := ParseDate(date)
	if err != nil {
		return false
	}
	return !d.Before(start) && !d.After(end)
}

// Place is the canonical, shared record of a real-world location.
type Place struct {
	ID           string
	Name         string
	Address      string
	Latitude     *float64
	Longitude    *float64
	Website      string
	Phone        string
	OpeningHours string
	Rating       *float64
	Categories   []string
	ExternalID   string
	CreatedAt    time.Time
}

// JournalPlace is one visit of a place within a journal. Its fields overlay the
// canonical Place; entries without a PlaceRef carry their place data inline.
type JournalPlace struct {
	ID           string
	JournalID    string
	PlaceRef     string
	Date         string
	Order        int
	Notes        string
	Description  string
	Category     string
	Friendliness []string
	Cost         *float64
	Name         string
	Address      string
	Latitude     *float64
	Longitude    *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlaceID returns the canonical place ID the entry references, if any.
func (jp JournalPlace) PlaceID() string {
	if i := strings.LastIndex(jp.PlaceRef, "/"); i >= 0 {
		return jp.PlaceRef[i+1:]
	}
	return jp.PlaceRef
}

// Profile is the public part of a user account.
type Profile struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email,omitempty"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// DatePart strips any time-of-day component from an ISO-8601 value.
func DatePart(value string) string {
	if i := strings.IndexAny(value, "T "); i >= 0 {
		return value[:i]
	}
	return value
}

// ParseDate parses the calendar date of an ISO-8601 value.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, DatePart(strings.TrimSpace(value)))
}
