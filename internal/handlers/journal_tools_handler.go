package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.tripjournal/internal/apperrors"
	"io.winapps.tripjournal/internal/journals"
	getmodels "io.winapps.tripjournal/internal/models/get_journal"
	models "io.winapps.tripjournal/internal/models/journal_tools"
	"io.winapps.tripjournal/internal/models/trip"
	"io.winapps.tripjournal/internal/timeline"
)

// GenerateSummary builds a one-line itinerary from the journal's places,
// for the owner to use as the journal summary.
func (h *JournalHandler) GenerateSummary(c *gin.Context) {
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

	view, err := h.engine.GetJournalWithDetails(c.Request.Context(), req.JournalID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load journal", "journal_id", req.JournalID)
		return
	}
	summary, err := timeline.Summarize(view.StartDate, view.Places)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": timeline.Message(err)})
		return
	}
	c.JSON(http.StatusOK, models.SummaryResponse{Summary: summary})
}

// DayOptions lists the trip days for a journal, or for an explicit start date
// and day count when the journal is still being edited.
func (h *JournalHandler) DayOptions(c *gin.Context) {
	var req models.DayOptionsRequest
	if !bindJSON(c, &req) {
		return
	}
	uid, ok := currentUID(c)
	if !ok {
		return
	}

	start, days := req.StartDate, req.Days
	if req.JournalID != "" {
		j, err := h.journals.Get(c.Request.Context(), req.JournalID)
		if err != nil {
			respondError(c, h.logger, err, "Failed to load journal", "journal_id", req.JournalID)
			return
		}
		if j.UserID != uid && j.Status != trip.StatusPublic {
			respondError(c, h.logger, apperrors.ErrForbidden, "")
			return
		}
		start, days = j.StartDate, j.Days
	}

	options, err := timeline.DayOptions(start, days)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": timeline.Message(err)})
		return
	}
	c.JSON(http.StatusOK, models.DayOptionsResponse{Options: options})
}

// Currencies lists the currencies offered for a journal's total cost
func (h *JournalHandler) Currencies(c *gin.Context) {
	c.JSON(http.StatusOK, models.CurrenciesResponse{
		Currencies: journals.Currencies(),
		Default:    h.journals.Defaults().Currency,
	})
}
