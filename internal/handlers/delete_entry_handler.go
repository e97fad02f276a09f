package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	models "io.winapps.tripjournal/internal/models/get_journal"
)

// DeleteJournal removes a journal, its places and its cover image
func (h *JournalHandler) DeleteJournal(c *gin.Context) {
	var req models.JournalRequest
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
	if err := h.journals.Delete(ctx, req.JournalID); err != nil {
		respondError(c, h.logger, err, "Failed to delete journal", "journal_id", req.JournalID)
		return
	}
	h.deleteBlob(ctx, j.CoverImageURL)

	logWithContext(h.logger, c, "info", "Journal deleted", "journal_id", req.JournalID)
	c.JSON(http.StatusOK, gin.H{"message": "Journal deleted successfully"})
}
