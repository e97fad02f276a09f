package models

// JournalRequest addresses one journal. Several journal operations take only
// the journal ID.
type JournalRequest struct {
	JournalID string `json:"journal_id" binding:"required"`
}
