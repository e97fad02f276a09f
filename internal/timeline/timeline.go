// Package timeline arranges a journal's places into per-day buckets.
package timeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"io.winapps.tripjournal/internal/models/trip"
)

var (
	ErrMissingRange = errors.New("timeline: start date and day count are required")
	ErrInvalidDate  = errors.New("timeline: invalid start date")
	ErrNoStartDate  = errors.New("timeline: journal has no start date")
	ErrNoPlaces     = errors.New("timeline: journal has no scheduled places")
)

var messages = map[error]string{
	ErrMissingRange: "Please provide a start date and number of days.",
	ErrInvalidDate:  "Invalid date format.",
	ErrNoStartDate:  "Please set a start date for the journal first.",
	ErrNoPlaces:     "No places have been added yet.",
}

// Message returns the user-facing text for an error of this package, or ""
// for any other error.
func Message(err error) string {
	for target, msg := range messages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return ""
}

const (
	labelLayout  = "January 02, 2006"
	optionLayout = "January 02"
)

// Day is one calendar day of the trip.
type Day struct {
	Number int              `json:"day"`
	Date   string           `json:"date"`
	Label  string           `json:"label"`
	Places []trip.PlaceView `json:"places"`
}

// Timeline is the per-day arrangement of a journal. Unscheduled holds the
// places marked "To be arranged" followed by places whose date is empty,
// unreadable or outside the trip; it is presented after the last day.
type Timeline struct {
	Days        []Day            `json:"days"`
	Unscheduled []trip.PlaceView `json:"unscheduled"`
}

// Project arranges places into one bucket per trip day. Every input place
// appears exactly once in the result. Within a day, places with an order come
// first in ascending order, then places without one in input order.
func Project(startDate string, days int, places []trip.PlaceView) (Timeline, error) {
	if strings.TrimSpace(startDate) == "" || days < 1 {
		return Timeline{}, ErrMissingRange
	}
	start, err := trip.ParseDate(startDate)
	if err != nil {
		return Timeline{}, ErrInvalidDate
	}

	t := Timeline{
		Days:        make([]Day, days),
		Unscheduled: []trip.PlaceView{},
	}
	index := make(map[string]int, days)
	for i := range t.Days {
		date := start.AddDate(0, 0, i)
		key := date.Format(trip.DateLayout)
		t.Days[i] = Day{
			Number: i + 1,
			Date:   key,
			Label:  Label(i+1, date),
			Places: []trip.PlaceView{},
		}
		index[key] = i
	}

	var overflow []trip.PlaceView
	for _, p := range places {
		if p.Date == trip.UnscheduledDate {
			t.Unscheduled = append(t.Unscheduled, p)
			continue
		}
		if i, ok := index[trip.DatePart(strings.TrimSpace(p.Date))]; ok {
			t.Days[i].Places = append(t.Days[i].Places, p)
			continue
		}
		overflow = append(overflow, p)
	}
	t.Unscheduled = append(t.Unscheduled, overflow...)

	for i := range t.Days {
		sortByOrder(t.Days[i].Places)
	}
	return t, nil
}

// Label renders the heading of a trip day, e.g. "Day 1: March 01, 2024".
func Label(number int, date time.Time) string {
	return fmt.Sprintf("Day %d: %s", number, date.Format(labelLayout))
}

func sortByOrder(places []trip.PlaceView) {
	sort.SliceStable(places, func(i, j int) bool {
		a, b := places[i].Order, places[j].Order
		switch {
		case a > 0 && b > 0:
			return a < b
		case a > 0:
			return true
		default:
			return false
		}
	})
}

// Option is one entry of a day picker.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DayOptions lists the trip days as picker options, e.g.
// {"Day 1: March 01", "2024-03-01"}.
func DayOptions(startDate string, days int) ([]Option, error) {
	if strings.TrimSpace(startDate) == "" || days < 1 {
		return nil, ErrMissingRange
	}
	start, err := trip.ParseDate(startDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	out := make([]Option, days)
	for i := range out {
		date := start.AddDate(0, 0, i)
		out[i] = Option{
			Label: fmt.Sprintf("Day %d: %s", i+1, date.Format(optionLayout)),
			Value: date.Format(trip.DateLayout),
		}
	}
	return out, nil
}

// Summarize lists place names per trip day, e.g. "Day 1: Fort - Beach, Day 3:
// Museum". Unscheduled places and places dated before the start are skipped.
func Summarize(startDate string, places []trip.PlaceView) (string, error) {
	if strings.TrimSpace(startDate) == "" {
		return "", ErrNoStartDate
	}
	start, err := trip.ParseDate(startDate)
	if err != nil {
		return "", ErrInvalidDate
	}

	byDay := make(map[int][]trip.PlaceView)
	for _, p := range places {
		if p.Date == trip.UnscheduledDate || p.Name == "" {
			continue
		}
		d, err := trip.ParseDate(p.Date)
		if err != nil || d.Before(start) {
			continue
		}
		day := int(d.Sub(start).Hours()/24) + 1
		byDay[day] = append(byDay[day], p)
	}
	if len(byDay) == 0 {
		return "", ErrNoPlaces
	}

	dayNumbers := make([]int, 0, len(byDay))
	for n := range byDay {
		dayNumbers = append(dayNumbers, n)
	}
	sort.Ints(dayNumbers)

	parts := make([]string, 0, len(dayNumbers))
	for _, n := range dayNumbers {
		dayPlaces := byDay[n]
		sortByOrder(dayPlaces)
		names := make([]string, len(dayPlaces))
		for i, p := range dayPlaces {
			names[i] = p.Name
		}
		parts = append(parts, fmt.Sprintf("Day %d: %s", n, strings.Join(names, " - ")))
	}
	return strings.Join(parts, ", "), nil
}
