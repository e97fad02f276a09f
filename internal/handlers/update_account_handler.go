package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.tripjournal/internal/identity"
	models "io.winapps.tripjournal/internal/models/update_password"
)

// UpdatePassword changes the signed-in user's password
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req models.UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	uid, ok := currentUID(c)
	if !ok {
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match."})
		return
	}

	if err := h.auth.UpdatePassword(c.Request.Context(), uid, req.NewPassword); err != nil {
		h.logWarn(c, err, "Password update failed", "code", identity.Code(err))
		respondIdentityError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "✅ Password updated successfully."})
}
