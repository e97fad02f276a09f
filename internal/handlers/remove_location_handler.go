package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	models "io.winapps.tripjournal/internal/models/delete_place"
)

// DeletePlace removes a place from a journal
func (h *JournalHandler) DeletePlace(c *gin.Context) {
	var req models.DeletePlaceRequest
	if !bindJSON(c, &req) {
		return
	}
	uid, ok := currentUID(c)
	if !ok {
		return
	}
	if _, ok := h.ownedJournal(c, uid, req.JournalID); !ok {
		return
	}

	if err := h.places.DeletePlace(c.Request.Context(), req.JournalID, req.JournalPlaceID); err != nil {
		respondError(c, h.logger, err, "Failed to delete place", "journal_id", req.JournalID)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Place removed successfully"})
}
