// Package places stores canonical places and their per-journal visits.
package places

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"io.winapps.tripjournal/internal/apperrors"
	"io.winapps.tripjournal/internal/cache"
	"io.winapps.tripjournal/internal/docstore"
	"io.winapps.tripjournal/internal/journals"
	"io.winapps.tripjournal/internal/models/trip"
)

// Collection holds canonical places shared by every journal.
const Collection = "places"

type Repository struct {
	store       docstore.Store
	invalidator cache.Invalidator
	validate    *validator.Validate
	logger      *zap.SugaredLogger
}

func NewRepository(store docstore.Store, invalidator cache.Invalidator, logger *zap.SugaredLogger) *Repository {
	return &Repository{
		store:       store,
		invalidator: invalidator,
		validate:    apperrors.NewValidator(),
		logger:      logger,
	}
}

// Input describes a place being added to a journal: the canonical place data
// and the visit details for this journal.
type Input struct {
	ExternalID   string   `json:"external_id"`
	Name         string   `json:"name" validate:"required"`
	Address      string   `json:"address" validate:"required"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Website      string   `json:"website"`
	Phone        string   `json:"phone"`
	OpeningHours string   `json:"opening_hours"`
	Rating       *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Categories   []string `json:"categories"`

	// Date is the visit day; empty means unscheduled.
	Date         string   `json:"date"`
	Order        int      `json:"order" validate:"gte=0"`
	Notes        string   `json:"notes"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Friendliness []string `json:"friendliness"`
	Cost         *float64 `json:"cost" validate:"omitempty,gte=0"`
}

func (in Input) normalized() Input {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.Date = strings.TrimSpace(in.Date)
	if in.Date == "" {
		in.Date = trip.UnscheduledDate
	} else if in.Date != trip.UnscheduledDate {
		in.Date = trip.DatePart(in.Date)
	}
	return in
}

// PlaceID returns the canonical place document ID for in: the external place
// ID when there is one, otherwise a digest of the normalized name and address.
func PlaceID(in Input) string {
	if id := strings.TrimSpace(in.ExternalID); id != "" {
		return strings.ReplaceAll(id, "/", "_")
	}
	key := normalizeKey(in.Name) + "|" + normalizeKey(in.Address)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func placePath(placeID string) string {
	return docstore.Path(Collection, placeID)
}

func visitPath(journalID, journalPlaceID string) string {
	return docstore.Path(journals.PlacesPath(journalID), journalPlaceID)
}

func (r *Repository) check(in Input, j trip.Journal) error {
	if err := r.validate.Struct(in); err != nil {
		return apperrors.FromValidator(err)
	}
	if !j.Covers(in.Date) {
		return apperrors.Invalid("date", "must fall within the journal's dates")
	}
	return nil
}

// AddPlace attaches a place to a journal in one transaction: the canonical
// place is created if no document with its ID exists yet, and a new journal
// place references it. It returns the journal place ID.
func (r *Repository) AddPlace(ctx context.Context, journalID string, in Input) (string, error) {
	in = in.normalized()
	placeID := PlaceID(in)
	ref := r.store.NewRef(journals.PlacesPath(journalID))

	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		j, err := txJournal(tx, journalID)
		if err != nil {
			return err
		}
		if err := r.check(in, j); err != nil {
			return err
		}

		_, err = tx.Get(placePath(placeID))
		exists := err == nil
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return err
		}

		order := in.Order
		if order == 0 {
			sameDay, err := tx.Query(docstore.Query{
				Collection: journals.PlacesPath(journalID),
				Filters:    []docstore.Filter{docstore.Eq("date", in.Date)},
			})
			if err != nil {
				return err
			}
			order = len(sameDay) + 1
		}

		if !exists {
			if err := tx.Set(placePath(placeID), placeData(in)); err != nil {
				return err
			}
		}
		return tx.Set(ref.Path, visitData(placeID, in, order))
	})
	if err != nil {
		return "", r.fail("add_place", journalID, err)
	}
	r.invalidator.Invalidate(ctx, journalID)
	return ref.ID(), nil
}

// VisitUpdate changes a journal place. Nil fields are left untouched; the
// canonical place is never modified.
type VisitUpdate struct {
	Date         *string
	Order        *int
	Notes        *string
	Description  *string
	Category     *string
	Friendliness *[]string
	Cost         *float64
	Name         *string
	Address      *string
	Latitude     *float64
	Longitude    *float64
}

// UpdatePlace changes the journal-specific overlay of a place.
func (r *Repository) UpdatePlace(ctx context.Context, journalID, journalPlaceID string, u VisitUpdate) error {
	fields, err := visitFields(u)
	if err != nil {
		return err
	}
	fields["updated_at"] = docstore.ServerTimestamp

	err = r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		j, err := txJournal(tx, journalID)
		if err != nil {
			return err
		}
		if date, ok := fields["date"].(string); ok && !j.Covers(date) {
			return apperrors.Invalid("date", "must fall within the journal's dates")
		}
		if _, err := tx.Get(visitPath(journalID, journalPlaceID)); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return apperrors.NotFound("journal place", journalPlaceID)
			}
			return err
		}
		return tx.Update(visitPath(journalID, journalPlaceID), fields)
	})
	if err != nil {
		return r.fail("update_place", journalID, err)
	}
	r.invalidator.Invalidate(ctx, journalID)
	return nil
}

func visitFields(u VisitUpdate) (map[string]any, error) {
	fields := make(map[string]any)
	var problems []apperrors.FieldError

	if u.Date != nil {
		date := strings.TrimSpace(*u.Date)
		switch {
		case date == "":
			date = trip.UnscheduledDate
		case date != trip.UnscheduledDate:
			if _, err := trip.ParseDate(date); err != nil {
				problems = append(problems, apperrors.FieldError{Field: "date", Message: "must be a date in the form YYYY-MM-DD"})
			}
			date = trip.DatePart(date)
		}
		fields["date"] = date
	}
	if u.Order != nil {
		if *u.Order < 0 {
			problems = append(problems, apperrors.FieldError{Field: "order", Message: "must be at least 0"})
		}
		fields["order"] = *u.Order
	}
	if u.Cost != nil {
		if *u.Cost < 0 {
			problems = append(problems, apperrors.FieldError{Field: "cost", Message: "must not be negative"})
		}
		fields["cost"] = *u.Cost
	}
	if u.Notes != nil {
		fields["notes"] = *u.Notes
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.Category != nil {
		fields["category"] = *u.Category
	}
	if u.Friendliness != nil {
		fields["friendliness"] = *u.Friendliness
	}
	if u.Name != nil {
		fields["name"] = strings.TrimSpace(*u.Name)
	}
	if u.Address != nil {
		fields["address"] = strings.TrimSpace(*u.Address)
	}
	if u.Latitude != nil {
		fields["latitude"] = *u.Latitude
	}
	if u.Longitude != nil {
		fields["longitude"] = *u.Longitude
	}
	if len(problems) > 0 {
		return nil, apperrors.Validation(problems...)
	}
	return fields, nil
}

// DeletePlace removes a journal place. The canonical place stays.
func (r *Repository) DeletePlace(ctx context.Context, journalID, journalPlaceID string) error {
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		if _, err := tx.Get(visitPath(journalID, journalPlaceID)); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return apperrors.NotFound("journal place", journalPlaceID)
			}
			return err
		}
		return tx.Delete(visitPath(journalID, journalPlaceID))
	})
	if err != nil {
		return r.fail("delete_place", journalID, err)
	}
	r.invalidator.Invalidate(ctx, journalID)
	return nil
}

// DeletePlacesOutsideRange removes the journal places dated before start or
// after end and returns how many were removed. Unscheduled places, and places
// whose date cannot be read, are kept.
func (r *Repository) DeletePlacesOutsideRange(ctx context.Context, journalID, start, end string) (int, error) {
	from, errFrom := trip.ParseDate(start)
	to, errTo := trip.ParseDate(end)
	if errFrom != nil || errTo != nil || to.Before(from) {
		return 0, apperrors.Invalid("date_range", "must be two dates in the form YYYY-MM-DD, start first")
	}

	snaps, err := r.store.Query(ctx, docstore.Query{Collection: journals.PlacesPath(journalID)})
	if err != nil {
		return 0, r.fail("delete_outside_range", journalID, err)
	}

	var writes []docstore.Write
	for _, s := range snaps {
		jp := DecodeJournalPlace(journalID, s)
		if jp.Date == trip.UnscheduledDate {
			continue
		}
		d, err := trip.ParseDate(jp.Date)
		if err != nil {
			continue
		}
		if d.Before(from) || d.After(to) {
			writes = append(writes, docstore.DeleteWrite(s.Ref.Path))
		}
	}

	for i := 0; i < len(writes); i += docstore.MaxBatchWrites {
		chunk := writes[i:min(i+docstore.MaxBatchWrites, len(writes))]
		if err := r.store.Commit(ctx, chunk); err != nil {
			r.invalidator.Invalidate(ctx, journalID)
			return i, r.fail("delete_outside_range", journalID, err)
		}
	}
	r.invalidator.Invalidate(ctx, journalID)
	if len(writes) > 0 {
		r.logger.Infow("removed places outside journal dates", "journal_id", journalID, "removed", len(writes))
	}
	return len(writes), nil
}

// SavePlacesBatch adds several places to a journal and returns the new journal
// place IDs in input order. Every entry is validated before anything is
// written, and the journal places are committed in one atomic batch. Places
// without an explicit order are appended after those already on their date.
// The count and the write are not one transaction, so concurrent batches on
// the same date may assign the same order.
func (r *Repository) SavePlacesBatch(ctx context.Context, journalID string, inputs []Input) ([]string, error) {
	if len(inputs) == 0 {
		return nil, apperrors.Invalid("places", "must contain at least one place")
	}
	if len(inputs) > docstore.MaxBatchWrites {
		return nil, apperrors.Invalid("places", fmt.Sprintf("must contain at most %d places", docstore.MaxBatchWrites))
	}

	j, err := r.journal(ctx, journalID)
	if err != nil {
		return nil, err
	}

	normalized := make([]Input, len(inputs))
	var problems []apperrors.FieldError
	for i, in := range inputs {
		normalized[i] = in.normalized()
		if err := r.check(normalized[i], j); err != nil {
			fields := apperrors.Fields(apperrors.Prefix(err, fmt.Sprintf("places[%d]", i)))
			problems = append(problems, fields...)
		}
	}
	if len(problems) > 0 {
		return nil, apperrors.Validation(problems...)
	}

	seen := make(map[string]bool)
	for _, in := range normalized {
		id := PlaceID(in)
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := r.ensurePlace(ctx, id, in); err != nil {
			return nil, r.fail("save_places_batch", journalID, err)
		}
	}

	existing, err := r.store.Query(ctx, docstore.Query{Collection: journals.PlacesPath(journalID)})
	if err != nil {
		return nil, r.fail("save_places_batch", journalID, err)
	}
	perDate := make(map[string]int)
	for _, s := range existing {
		perDate[DecodeJournalPlace(journalID, s).Date]++
	}

	ids := make([]string, 0, len(normalized))
	writes := make([]docstore.Write, 0, len(normalized))
	for _, in := range normalized {
		perDate[in.Date]++
		order := in.Order
		if order == 0 {
			order = perDate[in.Date]
		}
		ref := r.store.NewRef(journals.PlacesPath(journalID))
		ids = append(ids, ref.ID())
		writes = append(writes, docstore.SetWrite(ref.Path, visitData(PlaceID(in), in, order)))
	}
	if err := r.store.Commit(ctx, writes); err != nil {
		return nil, r.fail("save_places_batch", journalID, err)
	}
	r.invalidator.Invalidate(ctx, journalID)
	return ids, nil
}

// ensurePlace creates the canonical place unless a document with its ID
// already exists.
func (r *Repository) ensurePlace(ctx context.Context, placeID string, in Input) error {
	return r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		_, err := tx.Get(placePath(placeID))
		if err == nil {
			return nil
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		return tx.Set(placePath(placeID), placeData(in))
	})
}

// GetPlace reads a canonical place.
func (r *Repository) GetPlace(ctx context.Context, placeID string) (trip.Place, error) {
	snap, err := r.store.Get(ctx, placePath(placeID))
	if errors.Is(err, docstore.ErrNotFound) {
		return trip.Place{}, apperrors.NotFound("place", placeID)
	}
	if err != nil {
		return trip.Place{}, fmt.Errorf("get place %s: %w", placeID, err)
	}
	return DecodePlace(snap), nil
}

// ListPlaces returns the journal places stored in a journal's sub-collection.
func (r *Repository) ListPlaces(ctx context.Context, journalID string) ([]trip.JournalPlace, error) {
	snaps, err := r.store.Query(ctx, docstore.Query{Collection: journals.PlacesPath(journalID)})
	if err != nil {
		return nil, r.fail("list_places", journalID, err)
	}
	out := make([]trip.JournalPlace, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, DecodeJournalPlace(journalID, s))
	}
	return out, nil
}

func (r *Repository) journal(ctx context.Context, journalID string) (trip.Journal, error) {
	snap, err := r.store.Get(ctx, journals.Path(journalID))
	if errors.Is(err, docstore.ErrNotFound) {
		return trip.Journal{}, apperrors.NotFound("journal", journalID)
	}
	if err != nil {
		return trip.Journal{}, r.fail("get_journal", journalID, err)
	}
	return journals.Decode(snap), nil
}

func txJournal(tx docstore.Tx, journalID string) (trip.Journal, error) {
	snap, err := tx.Get(journals.Path(journalID))
	if errors.Is(err, docstore.ErrNotFound) {
		return trip.Journal{}, apperrors.NotFound("journal", journalID)
	}
	if err != nil {
		return trip.Journal{}, err
	}
	return journals.Decode(snap), nil
}

func (r *Repository) fail(op, journalID string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrValidation) {
		return err
	}
	r.logger.Errorw("place store operation failed", "operation", op, "journal_id", journalID, "error", err)
	return fmt.Errorf("%s for journal %s: %w", op, journalID, err)
}
