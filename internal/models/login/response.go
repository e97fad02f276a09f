package models

import "io.winapps.tripjournal/internal/models/trip"

type SignInResponse struct {
	UID          string        `json:"uid"`
	Email        string        `json:"email"`
	IDToken      string        `json:"id_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"`
	Profile      *trip.Profile `json:"profile,omitempty"`
}
