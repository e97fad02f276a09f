package models

type AddPlaceResponse struct {
	JournalPlaceIDs []string `json:"journal_place_ids"`
	PlaceID         string   `json:"place_id"`
}
