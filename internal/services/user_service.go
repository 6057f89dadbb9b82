package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/auth"
	"github.com/isdelr/tasker-be/internal/metrics"
	"github.com/isdelr/tasker-be/internal/models"
)

// UserStore is the persistence the user service needs.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	GetActiveByUsername(ctx context.Context, username string) (models.User, error)
	UpdateInformation(ctx context.Context, user models.User) (models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash, salt string) error
	Deactivate(ctx context.Context, id int64) error
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, dto models.CreateUserDto) (models.User, error)
	Login(ctx context.Context, dto models.LoginDto) (models.User, error)
	UpdatePassword(ctx context.Context, dto models.UpdatePasswordDto, user models.User) error
	UpdateInformation(ctx context.Context, dto models.UpdateInformationDto, user models.User) (models.User, error)
	Deactivate(ctx context.Context, dto models.DeleteUserDto, user models.User) error
}

// UserService provides registration, login and account maintenance.
type UserService struct {
	users  UserStore
	hasher auth.PasswordHasher

	// Verified against for unknown usernames, so they cost the same as a
	// wrong password.
	dummyDigest string
}

// fallbackDummyDigest is a well-formed argon2id digest with the default
// parameters. It matches no password.
const fallbackDummyDigest = "$argon2id$v=19$m=65536,t=1,p=4$c2FsdHNhbHRzYWx0c2FsdA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// NewUserService creates a new UserService.
func NewUserService(users UserStore, hasher auth.PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher, dummyDigest: dummyDigest(hasher)}
}

// Register hashes the password and creates the user. A taken username or
// email yields apperr.ErrAlreadyExists. No session is issued here.
func (s *UserService) Register(ctx context.Context, dto models.CreateUserDto) (models.User, error) {
	digest, salt, err := s.hasher.Hash(dto.Password)
	if err != nil {
		log.Error().Err(err).Str("username", dto.Username).Msg("Failed to hash password")
		return models.User{}, apperr.ErrInternal
	}

	user, err := s.users.Create(ctx, models.User{
		Name:         dto.Name,
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: digest,
		Salt:         salt,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return models.User{}, apperr.ErrAlreadyExists
		}
		log.Error().Err(err).Str("username", dto.Username).Msg("Failed to create user")
		return models.User{}, apperr.ErrInternal
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return sanitize(user), nil
}

// Login verifies the credentials of an active user. An unknown username and
// a wrong password both yield apperr.ErrUnauthorized, and both run one
// password verification.
func (s *UserService) Login(ctx context.Context, dto models.LoginDto) (models.User, error) {
	user, err := s.users.GetActiveByUsername(ctx, dto.Username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_, _ = s.hasher.Verify(dto.Password, s.dummyDigest)
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()
			return models.User{}, apperr.ErrUnauthorized
		}
		log.Error().Err(err).Str("username", dto.Username).Msg("Failed to look up user for login")
		return models.User{}, apperr.ErrInternal
	}

	if err := s.checkPassword(user, dto.Password); err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		}
		return models.User{}, err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return sanitize(user), nil
}

// UpdatePassword verifies the old password and stores a fresh hash of the new
// one.
func (s *UserService) UpdatePassword(ctx context.Context, dto models.UpdatePasswordDto, user models.User) error {
	current, err := s.loadUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := s.checkPassword(current, dto.OldPassword); err != nil {
		return err
	}

	digest, salt, err := s.hasher.Hash(dto.NewPassword)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to hash new password")
		return apperr.ErrInternal
	}
	if err := s.users.UpdatePassword(ctx, user.ID, digest, salt); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFoundUser
		}
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to update password")
		return apperr.ErrInternal
	}

	log.Info().Int64("user_id", user.ID).Msg("Password updated")
	return nil
}

// UpdateInformation merges the provided fields over user. A merge that
// changes nothing is rejected with apperr.ErrBadRequest without writing.
func (s *UserService) UpdateInformation(ctx context.Context, dto models.UpdateInformationDto, user models.User) (models.User, error) {
	merged, changed := dto.Merge(user)
	if !changed {
		return models.User{}, apperr.ErrBadRequest
	}

	updated, err := s.users.UpdateInformation(ctx, merged)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			return models.User{}, apperr.ErrAlreadyExists
		case errors.Is(err, apperr.ErrNotFound):
			return models.User{}, apperr.ErrNotFoundUser
		}
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to update user information")
		return models.User{}, apperr.ErrInternal
	}
	return sanitize(updated), nil
}

// Deactivate re-verifies the password and flips the account to inactive.
// Inactive accounts can neither log in nor resolve a session.
func (s *UserService) Deactivate(ctx context.Context, dto models.DeleteUserDto, user models.User) error {
	current, err := s.loadUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := s.checkPassword(current, dto.Password); err != nil {
		return err
	}

	if err := s.users.Deactivate(ctx, user.ID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFoundUser
		}
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to deactivate user")
		return apperr.ErrInternal
	}

	log.Info().Int64("user_id", user.ID).Msg("User deactivated")
	return nil
}

func (s *UserService) loadUser(ctx context.Context, id int64) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.User{}, apperr.ErrNotFoundUser
		}
		log.Error().Err(err).Int64("user_id", id).Msg("Failed to load user")
		return models.User{}, apperr.ErrInternal
	}
	return user, nil
}

// checkPassword returns nil on match, apperr.ErrUnauthorized on mismatch and
// apperr.ErrInternal when the stored digest is unusable.
func (s *UserService) checkPassword(user models.User, password string) error {
	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Stored password hash is malformed")
		return apperr.ErrInternal
	}
	if !ok {
		return apperr.ErrUnauthorized
	}
	return nil
}

func dummyDigest(hasher auth.PasswordHasher) string {
	digest, _, err := hasher.Hash("dummy-password-for-timing")
	if err != nil || digest == "" {
		log.Error().Err(err).Msg("Failed to prepare dummy password hash, using the built-in digest")
		return fallbackDummyDigest
	}
	return digest
}

func sanitize(user models.User) models.User {
	user.PasswordHash = ""
	user.Salt = ""
	return user
}
