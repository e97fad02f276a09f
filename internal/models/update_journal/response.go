package models

import "io.winapps.tripjournal/internal/models/trip"

type UpdateJournalResponse struct {
	Journal       trip.JournalView `json:"journal"`
	PlacesRemoved int              `json:"places_removed"`
}
