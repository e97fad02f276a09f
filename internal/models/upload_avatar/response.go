package models

type UploadAvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}
