package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	models "io.winapps.tripjournal/internal/models/update_place"
	"io.winapps.tripjournal/internal/places"
)

// UpdatePlace edits the journal's notes and details for one of its places.
// The shared place record is never changed.
func (h *JournalHandler) UpdatePlace(c *gin.Context) {
	var req models.UpdatePlaceRequest
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

	err := h.places.UpdatePlace(c.Request.Context(), req.JournalID, req.JournalPlaceID, places.VisitUpdate{
		Date:         req.Date,
		Order:        req.Order,
		Notes:        req.Notes,
		Description:  req.Description,
		Category:     req.Category,
		Friendliness: req.Friendliness,
		Cost:         req.Cost,
		Name:         req.Name,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to update place", "journal_id", req.JournalID)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Place updated successfully", "journal_place_id": req.JournalPlaceID})
}
