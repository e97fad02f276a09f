package models

import "io.winapps.tripjournal/internal/models/trip"

type GetProfileResponse struct {
	Profile      trip.Profile `json:"profile"`
	JournalCount int          `json:"journal_count"`
}
