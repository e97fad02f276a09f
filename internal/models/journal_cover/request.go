package models

type UploadCoverRequest struct {
	JournalID string `json:"journal_id" binding:"required"`
	Image     string `json:"image" binding:"required"`
}
