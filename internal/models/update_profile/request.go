package models

type UpdateProfileRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
}
