package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.tripjournal/internal/identity"
	models "io.winapps.tripjournal/internal/models/login"
	resetmodels "io.winapps.tripjournal/internal/models/reset_password"
	"io.winapps.tripjournal/internal/profiles"
)

// Authenticator is the identity provider as seen by the handlers.
// *identity.Provider satisfies it.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (identity.Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, uid, password string) error
	UpdatePhotoURL(ctx context.Context, uid, url string) error
}

var _ Authenticator = (*identity.Provider)(nil)

type AuthHandler struct {
	auth     Authenticator
	profiles profiles.Store
	logger   *zap.SugaredLogger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(auth Authenticator, profileStore profiles.Store, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		profiles: profileStore,
		logger:   logger,
	}
}

// SignIn handles email and password sign-in
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	session, err := h.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		h.logWarn(c, err, "Sign-in rejected", "code", identity.Code(err))
		respondIdentityError(c, err)
		return
	}

	resp := models.SignInResponse{
		UID:          session.UID,
		Email:        session.Email,
		IDToken:      session.IDToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
	}
	// A missing profile does not block sign-in.
	if p, err := h.profiles.Get(ctx, session.UID); err == nil {
		resp.Profile = &p
	} else {
		h.logWarn(c, err, "Profile lookup after sign-in failed", "uid", session.UID)
	}

	c.JSON(http.StatusOK, resp)
}

// ResetPassword sends a password reset email
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetmodels.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.logWarn(c, err, "Password reset failed", "code", identity.Code(err))
		respondIdentityError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "📩 Password reset email sent. Please check your inbox."})
}
