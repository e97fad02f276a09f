package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"io.winapps.tripjournal/internal/apperrors"
	"io.winapps.tripjournal/internal/models/trip"
)

// PostgresStore keeps profiles in the users table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const selectProfile = `
	SELECT uid, email, COALESCE(username, ''), COALESCE(display_name, ''), COALESCE(photo_url, ''), created_at
	FROM users
`

func (s *PostgresStore) Fetch(ctx context.Context, ids []string) (map[string]trip.Profile, error) {
	rows, err := s.pool.Query(ctx, selectProfile+` WHERE uid = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch profiles: %w", err)
	}
	defer rows.Close()

	out := make(map[string]trip.Profile, len(ids))
	for rows.Next() {
		var p trip.Profile
		if err := rows.Scan(&p.UID, &p.Email, &p.Username, &p.DisplayName, &p.AvatarURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out[p.UID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch profiles: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, uid string) (trip.Profile, error) {
	var p trip.Profile
	err := s.pool.QueryRow(ctx, selectProfile+` WHERE uid = $1`, uid).
		Scan(&p.UID, &p.Email, &p.Username, &p.DisplayName, &p.AvatarURL, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return trip.Profile{}, apperrors.NotFound("profile", uid)
	}
	if err != nil {
		return trip.Profile{}, fmt.Errorf("get profile %s: %w", uid, err)
	}
	return p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p trip.Profile) error {
	query := `
		INSERT INTO users (uid, email, username, display_name, photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (uid) DO UPDATE SET
			email = EXCLUDED.email,
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			photo_url = EXCLUDED.photo_url,
			updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query, p.UID, p.Email, p.Username, p.DisplayName, p.AvatarURL); err != nil {
		return fmt.Errorf("create profile %s: %w", p.UID, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, uid string, u Update) error {
	if err := u.validate(); err != nil {
		return err
	}
	query := `
		UPDATE users SET
			username = COALESCE($2, username),
			display_name = COALESCE($3, display_name),
			photo_url = COALESCE($4, photo_url),
			updated_at = NOW()
		WHERE uid = $1
	`
	tag, err := s.pool.Exec(ctx, query, uid, trimmed(u.Username), trimmed(u.DisplayName), u.AvatarURL)
	if err != nil {
		return fmt.Errorf("update profile %s: %w", uid, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("profile", uid)
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
