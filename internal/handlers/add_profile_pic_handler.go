package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.tripjournal/internal/blob"
	models "io.winapps.tripjournal/internal/models/upload_avatar"
	"io.winapps.tripjournal/internal/profiles"
)

const avatarPrefix = "profile_pictures"

// UploadAvatar stores a new profile picture for the caller
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	var req models.UploadAvatarRequest
	if !bindJSON(c, &req) {
		return
	}
	uid, ok := currentUID(c)
	if !ok {
		return
	}

	img, err := blob.DecodeImage(req.Image)
	if err != nil {
		respondImageError(c, err)
		return
	}

	ctx := c.Request.Context()
	previous, err := h.profiles.Get(ctx, uid)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load profile")
		return
	}

	url, err := h.blobs.Upload(ctx, blob.ObjectPath(avatarPrefix, uid, img.Extension), img.Data, img.ContentType)
	if err != nil {
		respondError(c, h.logger, err, "Failed to upload profile picture")
		return
	}
	if err := h.profiles.Update(ctx, uid, profiles.Update{AvatarURL: &url}); err != nil {
		respondError(c, h.logger, err, "Failed to save profile picture")
		return
	}
	// The identity provider's copy is a convenience for other clients.
	if err := h.auth.UpdatePhotoURL(ctx, uid, url); err != nil {
		h.logWarn(c, err, "Failed to update photo URL with identity provider")
	}
	if previous.AvatarURL != "" {
		if path, ok := blob.PathFromURL(previous.AvatarURL); ok {
			if err := h.blobs.Delete(ctx, path); err != nil {
				h.logWarn(c, err, "Failed to delete previous profile picture", "path", path)
			}
		}
	}

	c.JSON(http.StatusOK, models.UploadAvatarResponse{AvatarURL: url})
}
