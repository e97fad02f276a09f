package models

import "github.com/shopspring/decimal"

// UpdateJournalRequest changes the fields that are present; absent fields
// are left as they are.
type UpdateJournalRequest struct {
	JournalID    string           `json:"journal_id" binding:"required"`
	Title        *string          `json:"title"`
	Summary      *string          `json:"summary"`
	Introduction *string          `json:"introduction"`
	Description  *string          `json:"description"`
	StartDate    *string          `json:"start_date"`
	Days         *int             `json:"days"`
	TotalCost    *decimal.Decimal `json:"total_cost"`
	Currency     *string          `json:"currency"`
}
