package models

import (
	"io.winapps.tripjournal/internal/models/trip"
	"io.winapps.tripjournal/internal/timeline"
)

type GetJournalResponse struct {
	Journal  trip.JournalView   `json:"journal"`
	Timeline *timeline.Timeline `json:"timeline,omitempty"`
	// TimelineError explains why there is no timeline, shown in its place.
	TimelineError string `json:"timeline_error,omitempty"`
	IsOwner       bool   `json:"is_owner"`
}
