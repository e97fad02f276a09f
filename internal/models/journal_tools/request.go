package models

// DayOptionsRequest takes either a journal or an explicit range, for forms
// that edit a journal before it is saved.
type DayOptionsRequest struct {
	JournalID string `json:"journal_id"`
	StartDate string `json:"start_date"`
	Days      int    `json:"days" binding:"gte=0"`
}
