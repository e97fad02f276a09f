package models

import "io.winapps.tripjournal/internal/models/trip"

type CreateJournalResponse struct {
	ID      string           `json:"id"`
	Journal trip.JournalView `json:"journal"`
}
