// Package journals persists trip journals in the document store.
package journals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"io.winapps.tripjournal/internal/apperrors"
	"io.winapps.tripjournal/internal/cache"
	"io.winapps.tripjournal/internal/docstore"
	"io.winapps.tripjournal/internal/models/trip"
)

const (
	Collection = "travelJournals"
	// PlacesCollection is the per-journal sub-collection of journal places.
	PlacesCollection = "journalPlaces"
)

// Defaults are the configured values applied to new journals and views.
type Defaults struct {
	Currency            string
	PlaceholderImageURL string
}

type Repository struct {
	store       docstore.Store
	invalidator cache.Invalidator
	defaults    Defaults
	validate    *validator.Validate
	logger      *zap.SugaredLogger
}

func NewRepository(store docstore.Store, invalidator cache.Invalidator, defaults Defaults, logger *zap.SugaredLogger) *Repository {
	return &Repository{
		store:       store,
		invalidator: invalidator,
		defaults:    defaults,
		validate:    apperrors.NewValidator(),
		logger:      logger,
	}
}

// Path returns the document path of a journal.
func Path(journalID string) string {
	return docstore.Path(Collection, journalID)
}

// PlacesPath returns the collection path of a journal's places.
func PlacesPath(journalID string) string {
	return docstore.Path(Collection, journalID, PlacesCollection)
}

// Defaults returns the configured defaults.
func (r *Repository) Defaults() Defaults {
	return r.defaults
}

// NewJournal is the input of Create. Either Days or a legacy EndDate may be
// given; with neither the journal lasts one day.
type NewJournal struct {
	UserID        string          `json:"user_id" validate:"required"`
	Title         string          `json:"title" validate:"required"`
	StartDate     string          `json:"start_date" validate:"required"`
	EndDate       string          `json:"end_date"`
	Days          int             `json:"days" validate:"gte=0"`
	Summary       string          `json:"summary"`
	Introduction  string          `json:"introduction"`
	Description   string          `json:"description"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Currency      string          `json:"currency"`
	CoverImageURL *string         `json:"cover_image_url"`
}

// Create stores a new draft journal and returns its ID.
func (r *Repository) Create(ctx context.Context, in NewJournal) (string, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.StartDate = strings.TrimSpace(in.StartDate)
	if err := r.validate.Struct(in); err != nil {
		return "", apperrors.FromValidator(err)
	}

	start, err := trip.ParseDate(in.StartDate)
	if err != nil {
		return "", apperrors.Invalid("start_date", "must be a date in the form YYYY-MM-DD")
	}
	days := in.Days
	if days == 0 && in.EndDate != "" {
		end, err := trip.ParseDate(in.EndDate)
		if err != nil || end.Before(start) {
			return "", apperrors.Invalid("end_date", "must be a date on or after start_date")
		}
		days = daysBetween(start, end) + 1
	}
	if days == 0 {
		days = 1
	}
	if in.TotalCost.IsNegative() {
		return "", apperrors.Invalid("total_cost", "must not be negative")
	}
	currency := in.Currency
	if currency == "" {
		currency = r.defaults.Currency
	}

	j := trip.Journal{StartDate: start.Format(trip.DateLayout), Days: days}
	data := map[string]any{
		"user_id":         in.UserID,
		"title":           in.Title,
		"summary":         in.Summary,
		"introduction":    in.Introduction,
		"description":     in.Description,
		"start_date":      j.StartDate,
		"days":            days,
		"end_date":        j.EndDate(),
		"nights":          j.Nights(),
		"total_cost":      in.TotalCost.InexactFloat64(),
		"currency":        currency,
		"cover_image_url": nullableString(in.CoverImageURL),
		"status":          string(trip.StatusDraft),
		"created_at":      docstore.ServerTimestamp,
		"updated_at":      docstore.ServerTimestamp,
	}

	ref := r.store.NewRef(Collection)
	if err := r.store.Set(ctx, ref.Path, data); err != nil {
		r.logger.Errorw("failed to create journal", "operation", "create", "user_id", in.UserID, "error", err)
		return "", fmt.Errorf("create journal: %w", err)
	}
	r.invalidator.Invalidate(ctx, ref.ID())
	return ref.ID(), nil
}

// Get reads one journal.
func (r *Repository) Get(ctx context.Context, journalID string) (trip.Journal, error) {
	snap, err := r.store.Get(ctx, Path(journalID))
	if errors.Is(err, docstore.ErrNotFound) {
		return trip.Journal{}, apperrors.NotFound("journal", journalID)
	}
	if err != nil {
		r.logger.Errorw("failed to read journal", "operation", "get", "journal_id", journalID, "error", err)
		return trip.Journal{}, fmt.Errorf("get journal %s: %w", journalID, err)
	}
	return Decode(snap), nil
}

// Update is a partial update; nil fields are left untouched.
type Update struct {
	Title        *string
	Summary      *string
	Introduction *string
	Description  *string
	StartDate    *string
	Days         *int
	TotalCost    *decimal.Decimal
	Currency     *string
	Status       *trip.Status
}

// ChangesRange reports whether the update moves the journal's date range.
func (u Update) ChangesRange() bool {
	return u.StartDate != nil || u.Days != nil
}

// Update applies u and returns the journal as stored afterwards. The derived
// end_date and nights fields are rewritten with the range.
func (r *Repository) Update(ctx context.Context, journalID string, u Update) (trip.Journal, error) {
	var updated trip.Journal
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		snap, err := tx.Get(Path(journalID))
		if errors.Is(err, docstore.ErrNotFound) {
			return apperrors.NotFound("journal", journalID)
		}
		if err != nil {
			return err
		}
		j := Decode(snap)
		fields, err := applyUpdate(&j, u)
		if err != nil {
			return err
		}
		fields["updated_at"] = docstore.ServerTimestamp
		updated = j
		return tx.Update(Path(journalID), fields)
	})
	if err != nil {
		return trip.Journal{}, r.fail("update", journalID, err)
	}
	r.invalidator.Invalidate(ctx, journalID)
	return updated, nil
}

func applyUpdate(j *trip.Journal, u Update) (map[string]any, error) {
	fields := make(map[string]any)
	var problems []apperrors.FieldError

	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			problems = append(problems, apperrors.FieldError{Field: "title", Message: "is required"})
		}
		j.Title = title
		fields["title"] = title
	}
	if u.Summary != nil {
		j.Summary = *u.Summary
		fields["summary"] = *u.Summary
	}
	if u.Introduction != nil {
		j.Introduction = *u.Introduction
		fields["introduction"] = *u.Introduction
	}
	if u.Description != nil {
		j.Description = *u.Description
		fields["description"] = *u.Description
	}
	if u.StartDate != nil {
		start, err := trip.ParseDate(*u.StartDate)
		if err != nil {
			problems = append(problems, apperrors.FieldError{Field: "start_date", Message: "must be a date in the form YYYY-MM-DD"})
		} else {
			j.StartDate = start.Format(trip.DateLayout)
			fields["start_date"] = j.StartDate
		}
	}
	if u.Days != nil {
		if *u.Days < 1 {
			problems = append(problems, apperrors.FieldError{Field: "days", Message: "must be at least 1"})
		}
		j.Days = *u.Days
		fields["days"] = *u.Days
	}
	if u.TotalCost != nil {
		if u.TotalCost.IsNegative() {
			problems = append(problems, apperrors.FieldError{Field: "total_cost", Message: "must not be negative"})
		}
		j.TotalCost = *u.TotalCost
		fields["total_cost"] = u.TotalCost.InexactFloat64()
	}
	if u.Currency != nil {
		j.Currency = *u.Currency
		fields["currency"] = *u.Currency
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			problems = append(problems, apperrors.FieldError{Field: "status", Message: "must be one of: draft public"})
		}
		j.Status = *u.Status
		fields["status"] = string(*u.Status)
	}
	if len(problems) > 0 {
		return nil, apperrors.Validation(problems...)
	}

	if u.ChangesRange() {
		fields["end_date"] = j.EndDate()
		fields["nights"] = j.Nights()
	}
	return fields, nil
}

// ToggleStatus flips a journal between draft and public and returns the new
// status.
func (r *Repository) ToggleStatus(ctx context.Context, journalID string) (trip.Status, error) {
	var next trip.Status
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		snap, err := tx.Get(Path(journalID))
		if errors.Is(err, docstore.ErrNotFound) {
			return apperrors.NotFound("journal", journalID)
		}
		if err != nil {
			return err
		}
		next = Decode(snap).Status.Toggle()
		return tx.Update(Path(journalID), map[string]any{
			"status":     string(next),
			"updated_at": docstore.ServerTimestamp,
		})
	})
	if err != nil {
		return "", r.fail("toggle_status", journalID, err)
	}
	r.invalidator.Invalidate(ctx, journalID)
	return next, nil
}

// SetCoverImage stores or clears (nil) the cover image URL.
func (r *Repository) SetCoverImage(ctx context.Context, journalID string, url *string) error {
	err := r.store.Update(ctx, Path(journalID), map[string]any{
		"cover_image_url": nullableString(url),
		"updated_at":      docstore.ServerTimestamp,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return apperrors.NotFound("journal", journalID)
	}
	if err != nil {
		return r.fail("set_cover_image", journalID, err)
	}
	r.invalidator.Invalidate(ctx, journalID)
	return nil
}

// Delete removes a journal and everything stored under it. Sub-collection
// cleanup is best effort: failures are logged and the journal document is
// still removed.
func (r *Repository) Delete(ctx context.Context, journalID string) error {
	path := Path(journalID)
	if _, err := r.store.Get(ctx, path); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperrors.NotFound("journal", journalID)
		}
		return r.fail("delete", journalID, err)
	}

	collections, err := r.store.Collections(ctx, path)
	if err != nil {
		r.logger.Warnw("failed to list journal sub-collections", "journal_id", journalID, "error", err)
	}
	for _, col := range collections {
		r.deleteCollection(ctx, journalID, col)
	}

	err = r.store.Delete(ctx, path)
	// Places may be gone even when the journal document is not.
	r.invalidator.Invalidate(ctx, journalID)
	if err != nil {
		return r.fail("delete", journalID, err)
	}
	return nil
}

func (r *Repository) deleteCollection(ctx context.Context, journalID, collection string) {
	snaps, err := r.store.Query(ctx, docstore.Query{Collection: collection})
	if err != nil {
		r.logger.Warnw("failed to list sub-collection for delete", "journal_id", journalID, "collection", collection, "error", err)
		return
	}
	for start := 0; start < len(snaps); start += docstore.MaxBatchWrites {
		end := min(start+docstore.MaxBatchWrites, len(snaps))
		writes := make([]docstore.Write, 0, end-start)
		for _, s := range snaps[start:end] {
			writes = append(writes, docstore.DeleteWrite(s.Ref.Path))
		}
		if err := r.store.Commit(ctx, writes); err != nil {
			r.logger.Warnw("failed to delete sub-collection batch", "journal_id", journalID, "collection", collection, "error", err)
		}
	}
}

// ListByUser returns a user's journals, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]trip.Journal, error) {
	return r.list(ctx, "list_by_user", docstore.Eq("user_id", userID))
}

// ListPublic returns every public journal, newest first.
func (r *Repository) ListPublic(ctx context.Context) ([]trip.Journal, error) {
	return r.list(ctx, "list_public", docstore.Eq("status", string(trip.StatusPublic)))
}

func (r *Repository) list(ctx context.Context, op string, filter docstore.Filter) ([]trip.Journal, error) {
	snaps, err := r.store.Query(ctx, docstore.Query{Collection: Collection, Filters: []docstore.Filter{filter}})
	if err != nil {
		r.logger.Errorw("failed to list journals", "operation", op, "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]trip.Journal, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, Decode(s))
	}
	// Sorted here rather than in the query to avoid a composite index.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repository) fail(op, journalID string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrValidation) {
		return err
	}
	r.logger.Errorw("journal store operation failed", "operation", op, "journal_id", journalID, "error", err)
	return fmt.Errorf("%s journal %s: %w", op, journalID, err)
}

// Decode reads a journal document written in either the current or the older
// layout.
func Decode(snap *docstore.Snapshot) trip.Journal {
	d := snap.Data
	j := trip.Journal{
		ID:             snap.ID(),
		UserID:         docstore.String(d, "user_id"),
		Title:          docstore.String(d, "title"),
		Summary:        docstore.String(d, "summary"),
		Introduction:   docstore.String(d, "introduction"),
		Description:    docstore.String(d, "description"),
		StartDate:      DateField(d, "start_date"),
		Currency:       docstore.String(d, "currency"),
		Status:         trip.Status(docstore.String(d, "status")),
		EmbeddedPlaces: docstore.Maps(d, "journalPlaces"),
	}
	if !j.Status.Valid() {
		j.Status = trip.StatusDraft
	}
	if url := docstore.String(d, "cover_image_url"); url != "" {
		j.CoverImageURL = &url
	}
	if days, ok := docstore.Int(d, "days"); ok {
		j.Days = days
	} else if end := DateField(d, "end_date"); end != "" {
		s, errS := trip.ParseDate(j.StartDate)
		e, errE := trip.ParseDate(end)
		if errS == nil && errE == nil && !e.Before(s) {
			j.Days = daysBetween(s, e) + 1
		}
	}
	if cost, ok := docstore.Float(d, "total_cost"); ok {
		j.TotalCost = decimal.NewFromFloat(cost)
	} else if s := docstore.String(d, "total_cost"); s != "" {
		if cost, err := decimal.NewFromString(s); err == nil {
			j.TotalCost = cost
		}
	}
	j.CreatedAt, _ = docstore.Time(d, "created_at")
	j.UpdatedAt, _ = docstore.Time(d, "updated_at")
	return j
}

// DateField reads a calendar date stored either as an ISO string, with or
// without a time part, or as a timestamp.
func DateField(d map[string]any, key string) string {
	if t, ok := docstore.Time(d, key); ok {
		return t.UTC().Format(trip.DateLayout)
	}
	return trip.DatePart(strings.TrimSpace(docstore.String(d, key)))
}

func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

func nullableString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
