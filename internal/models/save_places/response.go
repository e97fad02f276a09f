package models

type SavePlacesResponse struct {
	JournalPlaceIDs []string `json:"journal_place_ids"`
	Saved           int      `json:"saved"`
}
