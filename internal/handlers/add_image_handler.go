package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.tripjournal/internal/blob"
	models "io.winapps.tripjournal/internal/models/journal_cover"
)

// UploadCover stores a new cover image for a journal
func (h *JournalHandler) UploadCover(c *gin.Context) {
	var req models.UploadCoverRequest
	if !bindJSON(c, &req) {
		return
	}
	uid, ok := currentUID(c)
	if !ok {
		return
	}
	j, ok := h.ownedJournal(c, uid, req.JournalID)
	if !ok {
		return
	}

	img, err := blob.DecodeImage(req.Image)
	if err != nil {
		respondImageError(c, err)
		return
	}

	url, err := h.replaceCover(c.Request.Context(), req.JournalID, j.CoverImageURL, img)
	if err != nil {
		respondError(c, h.logger, err, "Failed to upload cover image", "journal_id", req.JournalID)
		return
	}

	c.JSON(http.StatusOK, models.CoverResponse{CoverImageURL: &url, CoverDisplayURL: url})
}
