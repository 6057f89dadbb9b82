package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/models"
)

// SessionStore keeps at most one session per user. Expiry is always compared
// against the database clock.
type SessionStore struct {
	db  DB
	ttl time.Duration
}

// NewSessionStore creates a new SessionStore issuing sessions valid for ttl.
func NewSessionStore(db DB, ttl time.Duration) *SessionStore {
	return &SessionStore{db: db, ttl: ttl}
}

// Upsert inserts the session of userID or replaces its token and resets its
// expiry.
func (s *SessionStore) Upsert(ctx context.Context, userID int64, tokenHash string) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO sessions (user_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, now(), now() + $3::double precision * interval '1 second')
		ON CONFLICT (user_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`, userID, tokenHash, s.ttl.Seconds())
	if err != nil {
		return 0, oops.Code("SESSION_UPSERT_FAILED").
			With("operation", "upsert session").
			With("user_id", userID).
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// Resolve returns the active user owning the unexpired session tokenHash.
func (s *SessionStore) Resolve(ctx context.Context, tokenHash string) (models.User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT u.id, u.name, u.username, u.email, u.state, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1
			AND s.expires_at > now()
			AND u.state = 'active'
	`, tokenHash)

	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.Username, &user.Email, &user.State, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, oops.Code("SESSION_NOT_FOUND").Wrap(apperr.ErrNotFoundSession)
	}
	if err != nil {
		return models.User{}, oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "resolve session").
			Wrap(err)
	}
	return user, nil
}

// Delete removes the session of userID.
func (s *SessionStore) Delete(ctx context.Context, userID int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			With("user_id", userID).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("user_id", userID).
			Wrap(apperr.ErrNotFoundSession)
	}
	return nil
}

// PurgeExpired removes every expired session and returns how many were
// deleted.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, oops.Code("SESSION_PURGE_FAILED").
			With("operation", "purge expired sessions").
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}
