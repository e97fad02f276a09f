package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	models "io.winapps.tripjournal/internal/models/update_profile"
	"io.winapps.tripjournal/internal/profiles"
)

// UpdateProfile changes the caller's username and display name
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	uid, ok := currentUID(c)
	if !ok {
		return
	}
	if req.Username == nil && req.DisplayName == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	ctx := c.Request.Context()
	err := h.profiles.Update(ctx, uid, profiles.Update{
		Username:    req.Username,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to update profile")
		return
	}

	p, err := h.profiles.Get(ctx, uid)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "profile": p})
}
