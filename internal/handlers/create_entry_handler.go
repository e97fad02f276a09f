package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.tripjournal/internal/apperrors"
	"io.winapps.tripjournal/internal/assembly"
	"io.winapps.tripjournal/internal/blob"
	"io.winapps.tripjournal/internal/journals"
	models "io.winapps.tripjournal/internal/models/create_journal"
	"io.winapps.tripjournal/internal/models/trip"
	"io.winapps.tripjournal/internal/places"
	"io.winapps.tripjournal/internal/profiles"
)

const coverPrefix = "journal_covers"

type JournalHandler struct {
	journals *journals.Repository
	places   *places.Repository
	engine   *assembly.Engine
	authors  *profiles.Resolver
	blobs    blob.Store
	logger   *zap.SugaredLogger
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(
	journalRepo *journals.Repository,
	placeRepo *places.Repository,
	engine *assembly.Engine,
	authors *profiles.Resolver,
	blobs blob.Store,
	logger *zap.SugaredLogger,
) *JournalHandler {
	return &JournalHandler{
		journals: journalRepo,
		places:   placeRepo,
		engine:   engine,
		authors:  authors,
		blobs:    blobs,
		logger:   logger,
	}
}

// CreateJournal handles creation of new travel journals
func (h *JournalHandler) CreateJournal(c *gin.Context) {
	var req models.CreateJournalRequest
	if !bindJSON(c, &req) {
		return
	}
	uid, ok := currentUID(c)
	if !ok {
		return
	}

	// Reject a bad cover before anything is written.
	var cover *blob.Image
	if req.CoverImage != "" {
		img, err := blob.DecodeImage(req.CoverImage)
		if err != nil {
			respondImageError(c, err)
			return
		}
		cover = &img
	}

	ctx := c.Request.Context()
	journalID, err := h.journals.Create(ctx, journals.NewJournal{
		UserID:       uid,
		Title:        req.Title,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Days:         req.Days,
		Summary:      req.Summary,
		Introduction: req.Introduction,
		Description:  req.Description,
		TotalCost:    req.TotalCost,
		Currency:     req.Currency,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to create journal")
		return
	}

	if cover != nil {
		// The journal stands without its cover if the upload fails.
		if _, err := h.replaceCover(ctx, journalID, nil, *cover); err != nil {
			h.logWarn(c, err, "Cover upload failed for new journal", "journal_id", journalID)
		}
	}

	view, err := h.engine.GetJournalWithDetails(ctx, journalID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load journal", "journal_id", journalID)
		return
	}

	logWithContext(h.logger, c, "info", "Journal created", "journal_id", journalID)
	c.JSON(http.StatusCreated, models.CreateJournalResponse{ID: journalID, Journal: view})
}

// ownedJournal loads a journal and checks the caller owns it. On failure the
// response has been written.
func (h *JournalHandler) ownedJournal(c *gin.Context, uid, journalID string) (trip.Journal, bool) {
	j, err := h.journals.Get(c.Request.Context(), journalID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load journal", "journal_id", journalID)
		return trip.Journal{}, false
	}
	if j.UserID != uid {
		logWithContext(h.logger, c, "warn", "Journal access denied", "journal_id", journalID, "owner", j.UserID)
		respondError(c, h.logger, apperrors.ErrForbidden, "")
		return trip.Journal{}, false
	}
	return j, true
}

// replaceCover uploads img as the journal's cover and removes the previous
// cover object, if any. It returns the new URL.
func (h *JournalHandler) replaceCover(ctx context.Context, journalID string, previous *string, img blob.Image) (string, error) {
	path := blob.ObjectPath(coverPrefix, journalID, img.Extension)
	url, err := h.blobs.Upload(ctx, path, img.Data, img.ContentType)
	if err != nil {
		return "", err
	}
	if err := h.journals.SetCoverImage(ctx, journalID, &url); err != nil {
		h.deleteBlob(ctx, &url)
		return "", err
	}
	h.deleteBlob(ctx, previous)
	return url, nil
}

// deleteBlob removes the object behind url. Failures only leave an orphaned
// object, so they are logged and ignored.
func (h *JournalHandler) deleteBlob(ctx context.Context, url *string) {
	if url == nil {
		return
	}
	path, ok := blob.PathFromURL(*url)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := h.blobs.Delete(ctx, path); err != nil {
		h.logger.Warnw("Failed to delete stored image", "path", path, "error", err)
	}
}

func respondImageError(c *gin.Context, err error) {
	if errors.Is(err, blob.ErrUnsupportedType) {
		respondError(c, nil, err, "")
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image data"})
}
