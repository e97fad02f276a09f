package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"io.winapps.tripjournal/internal/journals"
	models "io.winapps.tripjournal/internal/models/list_journals"
	"io.winapps.tripjournal/internal/models/trip"
)

// ListJournals returns the caller's own journals, newest first
func (h *JournalHandler) ListJournals(c *gin.Context) {
	uid, ok := currentUID(c)
	if !ok {
		return
	}

	list, err := h.journals.ListByUser(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list journals")
		return
	}

	out := make([]models.JournalSummary, len(list))
	for i, j := range list {
		out[i] = summarizeJournal(j, h.journals.Defaults())
	}
	c.JSON(http.StatusOK, models.ListJournalsResponse{Journals: out, Count: len(out)})
}

// ListPublic returns every public journal with its author's profile. Authors
// are looked up in one batch.
func (h *JournalHandler) ListPublic(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.journals.ListPublic(ctx)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list public journals")
		return
	}

	userIDs := make([]string, len(list))
	for i, j := range list {
		userIDs[i] = j.UserID
	}
	authors, err := h.authors.Resolve(ctx, userIDs)
	if err != nil {
		// The feed is still useful without author details.
		h.logWarn(c, err, "Failed to resolve journal authors", "count", len(userIDs))
		authors = nil
	}

	out := make([]models.JournalSummary, len(list))
	for i, j := range list {
		out[i] = summarizeJournal(j, h.journals.Defaults())
		if p, ok := authors[j.UserID]; ok {
			out[i].Author = &p
		}
	}
	c.JSON(http.StatusOK, models.ListJournalsResponse{Journals: out, Count: len(out)})
}

func summarizeJournal(j trip.Journal, defaults journals.Defaults) models.JournalSummary {
	display := defaults.PlaceholderImageURL
	if j.CoverImageURL != nil {
		display = *j.CoverImageURL
	}
	s := models.JournalSummary{
		ID:              j.ID,
		UserID:          j.UserID,
		Title:           j.Title,
		Summary:         j.Summary,
		StartDate:       j.StartDate,
		EndDate:         j.EndDate(),
		Days:            j.Days,
		Nights:          j.Nights(),
		TotalCost:       j.TotalCost,
		Currency:        j.Currency,
		CoverDisplayURL: display,
		Status:          j.Status,
	}
	if !j.CreatedAt.IsZero() {
		s.CreatedAt = j.CreatedAt.UTC().Format(time.RFC3339)
	}
	return s
}
