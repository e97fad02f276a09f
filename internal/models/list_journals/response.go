package models

import (
	"github.com/shopspring/decimal"

	"io.winapps.tripjournal/internal/models/trip"
)

type JournalSummary struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	Days            int             `json:"days"`
	Nights          int             `json:"nights"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	Currency        string          `json:"currency"`
	CoverDisplayURL string          `json:"cover_display_url"`
	Status          trip.Status     `json:"status"`
	CreatedAt       string          `json:"created_at,omitempty"`
	Author          *trip.Profile   `json:"author,omitempty"`
}

type ListJournalsResponse struct {
	Journals []JournalSummary `json:"journals"`
	Count    int              `json:"count"`
}
