package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	models "io.winapps.tripjournal/internal/models/add_place"
	savemodels "io.winapps.tripjournal/internal/models/save_places"
	"io.winapps.tripjournal/internal/places"
)

// AddPlace adds a place to a journal. A place visited on several days is
// saved once per date in a single batch.
func (h *JournalHandler) AddPlace(c *gin.Context) {
	var req models.AddPlaceRequest
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
	var ids []string
	if len(req.Dates) > 0 {
		inputs := make([]places.Input, len(req.Dates))
		for i, date := range req.Dates {
			in := req.Input
			in.Date = date
			inputs[i] = in
		}
		var err error
		ids, err = h.places.SavePlacesBatch(ctx, req.JournalID, inputs)
		if err != nil {
			respondError(c, h.logger, err, "Failed to add place", "journal_id", req.JournalID)
			return
		}
	} else {
		id, err := h.places.AddPlace(ctx, req.JournalID, req.Input)
		if err != nil {
			respondError(c, h.logger, err, "Failed to add place", "journal_id", req.JournalID)
			return
		}
		ids = []string{id}
	}

	c.JSON(http.StatusCreated, models.AddPlaceResponse{
		JournalPlaceIDs: ids,
		PlaceID:         places.PlaceID(req.Input),
	})
}

// SavePlaces adds several places to a journal at once. Nothing is saved if
// any of them is invalid.
func (h *JournalHandler) SavePlaces(c *gin.Context) {
	var req savemodels.SavePlacesRequest
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

	ids, err := h.places.SavePlacesBatch(c.Request.Context(), req.JournalID, req.Places)
	if err != nil {
		respondError(c, h.logger, err, "Failed to save places", "journal_id", req.JournalID)
		return
	}

	c.JSON(http.StatusCreated, savemodels.SavePlacesResponse{JournalPlaceIDs: ids, Saved: len(ids)})
}
