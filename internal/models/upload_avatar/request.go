package models

type UploadAvatarRequest struct {
	Image string `json:"image" binding:"required"`
}
