package models

import "io.winapps.tripjournal/internal/places"

type SavePlacesRequest struct {
	JournalID string         `json:"journal_id" binding:"required"`
	Places    []places.Input `json:"places" binding:"required"`
}
