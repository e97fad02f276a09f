package models

import "io.winapps.tripjournal/internal/places"

// AddPlaceRequest adds one place to a journal. A place visited on several
// days lists them in Dates and is stored once per date.
type AddPlaceRequest struct {
	JournalID string `json:"journal_id" binding:"required"`
	places.Input
	Dates []string `json:"dates"`
}
