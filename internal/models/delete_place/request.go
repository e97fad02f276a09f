package models

type DeletePlaceRequest struct {
	JournalID      string `json:"journal_id" binding:"required"`
	JournalPlaceID string `json:"journal_place_id" binding:"required"`
}
