package trip

import "github.com/shopspring/decimal"

// JournalView is the assembled, cacheable read model of a journal: plain data
// only, with references rendered as paths and timestamps as RFC 3339 strings.
type JournalView struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	Introduction    string          `json:"introduction"`
	Description     string          `json:"description"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	Days            int             `json:"days"`
	Nights          int             `json:"nights"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	Currency        string          `json:"currency"`
	CoverImageURL   *string         `json:"cover_image_url"`
	CoverDisplayURL string          `json:"cover_display_url"`
	Status          Status          `json:"status"`
	CreatedAt       string          `json:"created_at,omitempty"`
	UpdatedAt       string          `json:"updated_at,omitempty"`
	Places          []PlaceView     `json:"journalPlaces"`
}

// PlaceView is a journal place merged with its canonical place.
type PlaceView struct {
	ID           string   `json:"id"`
	PlaceID      string   `json:"place_id,omitempty"`
	PlaceRef     string   `json:"place_ref,omitempty"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Website      string   `json:"website,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Date         string   `json:"date"`
	Order        int      `json:"order,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	Friendliness []string `json:"friendliness,omitempty"`
	Cost         *float64 `json:"cost,omitempty"`
	PlaceMissing bool     `json:"place_missing,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
}
