package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.tripjournal/internal/blob"
	"io.winapps.tripjournal/internal/journals"
	models "io.winapps.tripjournal/internal/models/get_profile"
	"io.winapps.tripjournal/internal/profiles"
)

type ProfileHandler struct {
	profiles profiles.Store
	journals *journals.Repository
	auth     Authenticator
	blobs    blob.Store
	logger   *zap.SugaredLogger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(
	profileStore profiles.Store,
	journalRepo *journals.Repository,
	auth Authenticator,
	blobs blob.Store,
	logger *zap.SugaredLogger,
) *ProfileHandler {
	return &ProfileHandler{
		profiles: profileStore,
		journals: journalRepo,
		auth:     auth,
		blobs:    blobs,
		logger:   logger,
	}
}

// GetProfile returns the caller's profile and how many journals they have
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	uid, ok := currentUID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	p, err := h.profiles.Get(ctx, uid)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load profile")
		return
	}

	resp := models.GetProfileResponse{Profile: p}
	if list, err := h.journals.ListByUser(ctx, uid); err == nil {
		resp.JournalCount = len(list)
	} else {
		h.logWarn(c, err, "Failed to count journals for profile")
	}

	c.JSON(http.StatusOK, resp)
}
