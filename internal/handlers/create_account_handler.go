package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"io.winapps.tripjournal/internal/identity"
	models "io.winapps.tripjournal/internal/models/create_account"
	"io.winapps.tripjournal/internal/models/trip"
)

// SignUp creates the account with the identity provider and then the user's
// profile document
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match."})
		return
	}

	ctx := c.Request.Context()
	email := strings.TrimSpace(req.Email)
	uid, err := h.auth.SignUp(ctx, email, req.Password)
	if err != nil {
		h.logWarn(c, err, "Sign-up rejected", "code", identity.Code(err))
		respondIdentityError(c, err)
		return
	}

	localPart, _, _ := strings.Cut(email, "@")
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = localPart
	}
	profile := trip.Profile{
		UID:         uid,
		Email:       email,
		Username:    username,
		DisplayName: localPart,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.profiles.Create(ctx, profile); err != nil {
		// The account exists at this point; only the profile is missing.
		h.logError(c, err, "Failed to store profile after sign-up", "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": identity.FriendlyMessage(&identity.Error{Code: identity.CodeProfileWriteFailed}),
			"code":  identity.CodeProfileWriteFailed,
		})
		return
	}

	logWithContext(h.logger, c, "info", "Account created", "uid", uid)
	c.JSON(http.StatusCreated, models.SignUpResponse{
		UID:         uid,
		Email:       email,
		Username:    username,
		DisplayName: localPart,
		Message:     "✅ Account created successfully. Please sign in.",
	})
}
