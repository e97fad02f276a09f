package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.tripjournal/internal/apperrors"
	models "io.winapps.tripjournal/internal/models/get_journal"
	"io.winapps.tripjournal/internal/models/trip"
	"io.winapps.tripjournal/internal/timeline"
)

// GetJournal returns a journal with its places and day-by-day timeline.
// Drafts are visible to their owner only.
func (h *JournalHandler) GetJournal(c *gin.Context) {
	var req models.JournalRequest
	if !bindJSON(c, &req) {
		return
	}
	uid, ok := currentUID(c)
	if !ok {
		return
	}

	view, err := h.engine.GetJournalWithDetails(c.Request.Context(), req.JournalID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load journal", "journal_id", req.JournalID)
		return
	}
	isOwner := view.UserID == uid
	if !isOwner && view.Status != trip.StatusPublic {
		respondError(c, h.logger, apperrors.ErrForbidden, "")
		return
	}

	resp := models.GetJournalResponse{Journal: view, IsOwner: isOwner}
	if tl, err := timeline.Project(view.StartDate, view.Days, view.Places); err == nil {
		resp.Timeline = &tl
	} else {
		resp.TimelineError = timeline.Message(err)
		logWithContext(h.logger, c, "debug", "Journal has no timeline", "journal_id", req.JournalID, "reason", err)
	}

	c.JSON(http.StatusOK, resp)
}
