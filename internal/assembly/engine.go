// Package assembly builds the read model of a journal: the journal document,
// its places with their canonical data resolved in batches, flattened into
// plain data and cached.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"io.winapps.tripjournal/internal/apperrors"
	"io.winapps.tripjournal/internal/cache"
	"io.winapps.tripjournal/internal/docstore"
	"io.winapps.tripjournal/internal/journals"
	"io.winapps.tripjournal/internal/models/trip"
	"io.winapps.tripjournal/internal/places"
)

// maxParallelChunks bounds the concurrent place lookups of one assembly.
const maxParallelChunks = 4

type Engine struct {
	store    docstore.Store
	views    *cache.JournalViews
	defaults journals.Defaults
	logger   *zap.SugaredLogger
}

func NewEngine(store docstore.Store, views *cache.JournalViews, defaults journals.Defaults, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		store:    store,
		views:    views,
		defaults: defaults,
		logger:   logger,
	}
}

// GetJournalWithDetails returns the assembled view of a journal, from cache
// when possible. Concurrent misses for the same journal share one assembly.
// A missing journal yields apperrors.ErrNotFound and is not cached.
func (e *Engine) GetJournalWithDetails(ctx context.Context, journalID string) (trip.JournalView, error) {
	var cached trip.JournalView
	if e.views.Load(ctx, journalID, &cached) {
		return cached, nil
	}

	v, err := e.views.Fill(ctx, journalID, func() (any, error) {
		return e.assemble(ctx, journalID)
	})
	if err != nil {
		return trip.JournalView{}, err
	}
	return cloneView(v.(trip.JournalView)), nil
}

func (e *Engine) assemble(ctx context.Context, journalID string) (trip.JournalView, error) {
	snap, err := e.store.Get(ctx, journals.Path(journalID))
	if errors.Is(err, docstore.ErrNotFound) {
		return trip.JournalView{}, apperrors.NotFound("journal", journalID)
	}
	if err != nil {
		e.logger.Errorw("failed to read journal for assembly", "journal_id", journalID, "error", err)
		return trip.JournalView{}, fmt.Errorf("assemble journal %s: %w", journalID, err)
	}
	j := journals.Decode(snap)

	visits, err := e.visits(ctx, j)
	if err != nil {
		return trip.JournalView{}, err
	}

	resolved, err := e.resolve(ctx, journalID, visits)
	if err != nil {
		return trip.JournalView{}, err
	}

	views := make([]trip.PlaceView, 0, len(visits))
	for _, v := range visits {
		var p *trip.Place
		if v.PlaceRef != "" {
			if found, ok := resolved[v.PlaceRef]; ok {
				p = &found
			} else {
				e.logger.Warnw("journal place references a missing place", "journal_id", journalID, "journal_place_id", v.ID, "place_ref", v.PlaceRef)
			}
		}
		views = append(views, Merge(p, v))
	}
	sortPlaces(views)

	return e.journalView(j, views), nil
}

// visits streams the journal's place sub-collection and appends any entries
// of the older embedded array.
func (e *Engine) visits(ctx context.Context, j trip.Journal) ([]trip.JournalPlace, error) {
	snaps, err := e.store.Query(ctx, docstore.Query{Collection: journals.PlacesPath(j.ID)})
	if err != nil {
		e.logger.Errorw("failed to list journal places", "journal_id", j.ID, "error", err)
		return nil, fmt.Errorf("list places of journal %s: %w", j.ID, err)
	}
	out := make([]trip.JournalPlace, 0, len(snaps)+len(j.EmbeddedPlaces))
	for _, s := range snaps {
		out = append(out, places.DecodeJournalPlace(j.ID, s))
	}
	return append(out, places.DecodeEmbedded(j.ID, j.EmbeddedPlaces)...), nil
}

// resolve fetches every referenced place with membership queries of at most
// docstore.MaxInValues IDs each, keyed by document path.
func (e *Engine) resolve(ctx context.Context, journalID string, visits []trip.JournalPlace) (map[string]trip.Place, error) {
	byCollection := make(map[string][]string)
	seen := make(map[string]bool)
	for _, v := range visits {
		if v.PlaceRef == "" || seen[v.PlaceRef] {
			continue
		}
		seen[v.PlaceRef] = true
		ref := docstore.Ref{Path: v.PlaceRef}
		byCollection[ref.Collection()] = append(byCollection[ref.Collection()], ref.ID())
	}

	var (
		mu  sync.Mutex
		out = make(map[string]trip.Place, len(seen))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChunks)
	for collection, ids := range byCollection {
		for _, chunk := range docstore.Chunk(ids, docstore.MaxInValues) {
			g.Go(func() error {
				snaps, err := e.store.Query(gctx, docstore.Query{
					Collection: collection,
					Filters:    []docstore.Filter{docstore.In(docstore.DocumentID, chunk)},
				})
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				for _, s := range snaps {
					out[s.Ref.Path] = places.DecodePlace(s)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		e.logger.Errorw("failed to resolve places", "journal_id", journalID, "error", err)
		return nil, fmt.Errorf("resolve places of journal %s: %w", journalID, err)
	}
	return out, nil
}

func (e *Engine) journalView(j trip.Journal, placeViews []trip.PlaceView) trip.JournalView {
	display := e.defaults.PlaceholderImageURL
	if j.CoverImageURL != nil {
		display = *j.CoverImageURL
	}
	return trip.JournalView{
		ID:              j.ID,
		UserID:          j.UserID,
		Title:           j.Title,
		Summary:         j.Summary,
		Introduction:    j.Introduction,
		Description:     j.Description,
		StartDate:       j.StartDate,
		EndDate:         j.EndDate(),
		Days:            j.Days,
		Nights:          j.Nights(),
		TotalCost:       j.TotalCost,
		Currency:        j.Currency,
		CoverImageURL:   j.CoverImageURL,
		CoverDisplayURL: display,
		Status:          j.Status,
		CreatedAt:       timestamp(j.CreatedAt),
		UpdatedAt:       timestamp(j.UpdatedAt),
		Places:          placeViews,
	}
}

// Merge combines a canonical place with a journal place. Fields set on the
// journal place take precedence. p is nil for inline entries and for
// references to places that no longer exist.
func Merge(p *trip.Place, jp trip.JournalPlace) trip.PlaceView {
	v := trip.PlaceView{
		ID:           jp.ID,
		PlaceID:      jp.PlaceID(),
		PlaceRef:     jp.PlaceRef,
		Date:         jp.Date,
		Order:        jp.Order,
		Notes:        jp.Notes,
		Description:  jp.Description,
		Category:     jp.Category,
		Friendliness: cloneStrings(jp.Friendliness),
		Cost:         jp.Cost,
		CreatedAt:    timestamp(jp.CreatedAt),
		UpdatedAt:    timestamp(jp.UpdatedAt),
	}
	if p != nil {
		v.Name = p.Name
		v.Address = p.Address
		v.Latitude = p.Latitude
		v.Longitude = p.Longitude
		v.Website = p.Website
		v.Phone = p.Phone
		v.OpeningHours = p.OpeningHours
		v.Rating = p.Rating
		v.Categories = cloneStrings(p.Categories)
	} else if jp.PlaceRef != "" {
		v.PlaceMissing = true
	}

	if jp.Name != "" {
		v.Name = jp.Name
	}
	if jp.Address != "" {
		v.Address = jp.Address
	}
	if jp.Latitude != nil {
		v.Latitude = jp.Latitude
	}
	if jp.Longitude != nil {
		v.Longitude = jp.Longitude
	}
	return v
}

func sortPlaces(views []trip.PlaceView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneView(v trip.JournalView) trip.JournalView {
	if v.CoverImageURL != nil {
		url := *v.CoverImageURL
		v.CoverImageURL = &url
	}
	placeViews := make([]trip.PlaceView, len(v.Places))
	for i, p := range v.Places {
		p.Friendliness = cloneStrings(p.Friendliness)
		p.Categories = cloneStrings(p.Categories)
		placeViews[i] = p
	}
	v.Places = placeViews
	return v
}
