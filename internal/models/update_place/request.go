package models

type UpdatePlaceRequest struct {
	JournalID      string    `json:"journal_id" binding:"required"`
	JournalPlaceID string    `json:"journal_place_id" binding:"required"`
	Date           *string   `json:"date"`
	Order          *int      `json:"order"`
	Notes          *string   `json:"notes"`
	Description    *string   `json:"description"`
	Category       *string   `json:"category"`
	Friendliness   *[]string `json:"friendliness"`
	Cost           *float64  `json:"cost"`
	Name           *string   `json:"name"`
	Address        *string   `json:"address"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
}
