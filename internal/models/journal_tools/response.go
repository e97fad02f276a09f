package models

import "io.winapps.tripjournal/internal/timeline"

type SummaryResponse struct {
	Summary string `json:"summary"`
}

type DayOptionsResponse struct {
	Options []timeline.Option `json:"options"`
}

type CurrenciesResponse struct {
	Currencies []string `json:"currencies"`
	Default    string   `json:"default"`
}
