package models

type CoverResponse struct {
	CoverImageURL   *string `json:"cover_image_url"`
	CoverDisplayURL string  `json:"cover_display_url"`
}
