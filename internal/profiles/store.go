// Package profiles stores user profiles and resolves them in batches.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"io.winapps.tripjournal/internal/apperrors"
	"io.winapps.tripjournal/internal/docstore"
	"io.winapps.tripjournal/internal/models/trip"
)

// Collection holds one profile document per user, keyed by UID.
const Collection = "users"

// Store is a profile backend.
type Store interface {
	// Fetch returns the profiles that exist among ids. Callers pass at most
	// docstore.MaxInValues IDs.
	Fetch(ctx context.Context, ids []string) (map[string]trip.Profile, error)
	Get(ctx context.Context, uid string) (trip.Profile, error)
	Create(ctx context.Context, p trip.Profile) error
	Update(ctx context.Context, uid string, u Update) error
}

// Update changes a profile; nil fields are left untouched.
type Update struct {
	Username    *string
	DisplayName *string
	AvatarURL   *string
}

func (u Update) validate() error {
	var problems []apperrors.FieldError
	if u.Username != nil && strings.TrimSpace(*u.Username) == "" {
		problems = append(problems, apperrors.FieldError{Field: "username", Message: "must not be empty"})
	}
	if u.DisplayName != nil && strings.TrimSpace(*u.DisplayName) == "" {
		problems = append(problems, apperrors.FieldError{Field: "display_name", Message: "must not be empty"})
	}
	if len(problems) > 0 {
		return apperrors.Validation(problems...)
	}
	return nil
}

// DocumentStore keeps profiles in the document store's users collection.
type DocumentStore struct {
	store docstore.Store
}

func NewDocumentStore(store docstore.Store) *DocumentStore {
	return &DocumentStore{store: store}
}

func (s *DocumentStore) Fetch(ctx context.Context, ids []string) (map[string]trip.Profile, error) {
	snaps, err := s.store.Query(ctx, docstore.Query{
		Collection: Collection,
		Filters:    []docstore.Filter{docstore.In(docstore.DocumentID, ids)},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch profiles: %w", err)
	}
	out := make(map[string]trip.Profile, len(snaps))
	for _, snap := range snaps {
		out[snap.ID()] = decodeProfile(snap)
	}
	return out, nil
}

func (s *DocumentStore) Get(ctx context.Context, uid string) (trip.Profile, error) {
	snap, err := s.store.Get(ctx, docstore.Path(Collection, uid))
	if errors.Is(err, docstore.ErrNotFound) {
		return trip.Profile{}, apperrors.NotFound("profile", uid)
	}
	if err != nil {
		return trip.Profile{}, fmt.Errorf("get profile %s: %w", uid, err)
	}
	return decodeProfile(snap), nil
}

func (s *DocumentStore) Create(ctx context.Context, p trip.Profile) error {
	err := s.store.Set(ctx, docstore.Path(Collection, p.UID), map[string]any{
		"email":        p.Email,
		"username":     p.Username,
		"display_name": p.DisplayName,
		"avatar_url":   p.AvatarURL,
		"created_at":   docstore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("create profile %s: %w", p.UID, err)
	}
	return nil
}

func (s *DocumentStore) Update(ctx context.Context, uid string, u Update) error {
	if err := u.validate(); err != nil {
		return err
	}
	fields := make(map[string]any)
	if u.Username != nil {
		fields["username"] = strings.TrimSpace(*u.Username)
	}
	if u.DisplayName != nil {
		fields["display_name"] = strings.TrimSpace(*u.DisplayName)
	}
	if u.AvatarURL != nil {
		fields["avatar_url"] = *u.AvatarURL
	}
	if len(fields) == 0 {
		return nil
	}
	err := s.store.Update(ctx, docstore.Path(Collection, uid), fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperrors.NotFound("profile", uid)
	}
	if err != nil {
		return fmt.Errorf("update profile %s: %w", uid, err)
	}
	return nil
}

func decodeProfile(snap *docstore.Snapshot) trip.Profile {
	d := snap.Data
	p := trip.Profile{
		UID:         snap.ID(),
		Email:       docstore.String(d, "email"),
		Username:    docstore.String(d, "username"),
		DisplayName: docstore.String(d, "display_name"),
		AvatarURL:   docstore.String(d, "avatar_url"),
	}
	p.CreatedAt, _ = docstore.Time(d, "created_at")
	return p
}
