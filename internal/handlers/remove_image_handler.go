package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	getmodels "io.winapps.tripjournal/internal/models/get_journal"
	models "io.winapps.tripjournal/internal/models/journal_cover"
)

// DeleteCover removes a journal's cover; the placeholder is shown instead
func (h *JournalHandler) DeleteCover(c *gin.Context) {
	var req getmodels.JournalRequest
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

	ctx := c.Request.Context()
	if err := h.journals.SetCoverImage(ctx, req.JournalID, nil); err != nil {
		respondError(c, h.logger, err, "Failed to remove cover image", "journal_id", req.JournalID)
		return
	}
	h.deleteBlob(ctx, j.CoverImageURL)

	c.JSON(http.StatusOK, models.CoverResponse{CoverDisplayURL: h.journals.Defaults().PlaceholderImageURL})
}
