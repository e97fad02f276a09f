package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.tripjournal/internal/journals"
	getmodels "io.winapps.tripjournal/internal/models/get_journal"
	models "io.winapps.tripjournal/internal/models/update_journal"
)

// UpdateJournal applies a partial update. When the dates move, places that
// now fall outside the trip are removed before the fresh journal is returned.
func (h *JournalHandler) UpdateJournal(c *gin.Context) {
	var req models.UpdateJournalRequest
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

	ctx := c.Request.Context()
	u := journals.Update{
		Title:        req.Title,
		Summary:      req.Summary,
		Introduction: req.Introduction,
		Description:  req.Description,
		StartDate:    req.StartDate,
		Days:         req.Days,
		TotalCost:    req.TotalCost,
		Currency:     req.Currency,
	}
	updated, err := h.journals.Update(ctx, req.JournalID, u)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update journal", "journal_id", req.JournalID)
		return
	}

	removed := 0
	if u.ChangesRange() {
		removed, err = h.places.DeletePlacesOutsideRange(ctx, req.JournalID, updated.StartDate, updated.EndDate())
		if err != nil {
			respondError(c, h.logger, err, "Journal updated, but places outside the new dates could not be removed",
				"journal_id", req.JournalID)
			return
		}
	}

	view, err := h.engine.GetJournalWithDetails(ctx, req.JournalID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load journal", "journal_id", req.JournalID)
		return
	}
	c.JSON(http.StatusOK, models.UpdateJournalResponse{Journal: view, PlacesRemoved: removed})
}

// ToggleStatus switches a journal between draft and public
func (h *JournalHandler) ToggleStatus(c *gin.Context) {
	var req getmodels.JournalRequest
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

	status, err := h.journals.ToggleStatus(c.Request.Context(), req.JournalID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to change journal status", "journal_id", req.JournalID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"journal_id": req.JournalID, "status": status})
}
