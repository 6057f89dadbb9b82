package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/models"
)

const userColumns = `id, name, username, email, password_hash, salt, state, created_at, updated_at`

// UserStore persists user accounts. Accounts are never hard-deleted.
type UserStore struct {
	db DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new active user. A taken username or email yields
// apperr.ErrAlreadyExists.
func (s *UserStore) Create(ctx context.Context, user models.User) (models.User, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (name, username, email, password_hash, salt)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		user.Name, user.Username, user.Email, user.PasswordHash, user.Salt,
	)

	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, oops.Code("USER_ALREADY_EXISTS").
				With("username", user.Username).
				Wrap(apperr.ErrAlreadyExists)
		}
		return models.User{}, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return created, nil
}

// GetByID retrieves a user by id, including the password hash.
func (s *UserStore) GetByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(apperr.ErrNotFoundUser)
	}
	if err != nil {
		return models.User{}, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return user, nil
}

// GetActiveByUsername retrieves an active user by username, including the
// password hash.
func (s *UserStore) GetActiveByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = $1 AND state = 'active'
	`, username)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(apperr.ErrNotFoundUser)
	}
	if err != nil {
		return models.User{}, oops.Code("USER_GET_BY_USERNAME_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(err)
	}
	return user, nil
}

// UpdateInformation writes the name, username and email of user.
func (s *UserStore) UpdateInformation(ctx context.Context, user models.User) (models.User, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE users
		SET name = $2, username = $3, email = $4, updated_at = now()
		WHERE id = $1 AND state = 'active'
		RETURNING `+userColumns,
		user.ID, user.Name, user.Username, user.Email,
	)

	updated, err := scanUser(row)
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		return models.User{}, oops.Code("USER_NOT_FOUND").
			With("id", user.ID).
			Wrap(apperr.ErrNotFoundUser)
	case isUniqueViolation(err):
		return models.User{}, oops.Code("USER_ALREADY_EXISTS").
			With("id", user.ID).
			Wrap(apperr.ErrAlreadyExists)
	default:
		return models.User{}, oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user information").
			With("id", user.ID).
			Wrap(err)
	}
}

// UpdatePassword replaces the password hash and salt of user id.
func (s *UserStore) UpdatePassword(ctx context.Context, id int64, passwordHash, salt string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, salt = $3, updated_at = now()
		WHERE id = $1 AND state = 'active'
	`, id, passwordHash, salt)
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(apperr.ErrNotFoundUser)
	}
	return nil
}

// Deactivate flips an active user to inactive.
func (s *UserStore) Deactivate(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET state = 'inactive', updated_at = now()
		WHERE id = $1 AND state = 'active'
	`, id)
	if err != nil {
		return oops.Code("USER_DEACTIVATE_FAILED").
			With("operation", "deactivate user").
			With("id", id).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(apperr.ErrNotFoundUser)
	}
	return nil
}

// scanUser scans userColumns. Callers handle pgx.ErrNoRows.
func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Salt,
		&user.State,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
