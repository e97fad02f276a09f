package models

import "github.com/shopspring/decimal"

type CreateJournalRequest struct {
	Title        string          `json:"title" binding:"required"`
	StartDate    string          `json:"start_date" binding:"required"`
	EndDate      string          `json:"end_date"`
	Days         int             `json:"days" binding:"gte=0"`
	Summary      string          `json:"summary"`
	Introduction string          `json:"introduction"`
	Description  string          `json:"description"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Currency     string          `json:"currency"`
	// CoverImage is an optional base64 image or data URL.
	CoverImage string `json:"cover_image"`
}
