package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/auth"
	"github.com/isdelr/tasker-be/internal/models"
)

func strPtr(s string) *string { return &s }

func registerAlice(t *testing.T, svc *UserService) models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), models.CreateUserDto{
		Name:         "Alice",
		Username:     "alice",
		Email:        "alice@example.com",
		Password:     "Passw0rd",
		Confirmation: "Passw0rd",
	})
	require.NoError(t, err)
	return user
}

func TestUserService_Register(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users, &plainHasher{})

	user := registerAlice(t, svc)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, models.UserStateActive, user.State)
	assert.Empty(t, user.PasswordHash, "hash must not leave the service")
	assert.Empty(t, user.Salt)
	assert.Equal(t, "plain:Passw0rd", users.users[1].PasswordHash)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(context.Background(), models.CreateUserDto{
			Name: "Other", Username: "alice", Email: "other@example.com",
			Password: "Passw0rd", Confirmation: "Passw0rd",
		})
		assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		users.err = errDBDown
		defer func() { users.err = nil }()
		_, err := svc.Register(context.Background(), models.CreateUserDto{
			Name: "Bob", Username: "bob", Email: "bob@example.com",
			Password: "Passw0rd", Confirmation: "Passw0rd",
		})
		assert.ErrorIs(t, err, apperr.ErrInternal)
		assert.NotErrorIs(t, err, errDBDown)
	})
}

func TestUserService_Login(t *testing.T) {
	users := newFakeUserStore()
	hasher := &plainHasher{}
	svc := NewUserService(users, hasher)
	registerAlice(t, svc)

	tests := []struct {
		name     string
		dto      models.LoginDto
		wantErr  error
		verifies int
	}{
		{"valid", models.LoginDto{Username: "alice", Password: "Passw0rd"}, nil, 1},
		{"wrong password", models.LoginDto{Username: "alice", Password: "Wr0ngPass"}, apperr.ErrUnauthorized, 1},
		{"unknown user", models.LoginDto{Username: "mallory", Password: "Passw0rd"}, apperr.ErrUnauthorized, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hasher.verifies = 0
			user, err := svc.Login(context.Background(), tt.dto)
			assert.Equal(t, tt.verifies, hasher.verifies)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", user.Username)
			assert.Empty(t, user.PasswordHash)
		})
	}

	t.Run("inactive user is unknown", func(t *testing.T) {
		require.NoError(t, users.Deactivate(context.Background(), 1))
		_, err := svc.Login(context.Background(), models.LoginDto{Username: "alice", Password: "Passw0rd"})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestUserService_LoginMalformedHash(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users, &plainHasher{})
	users.users[1] = models.User{ID: 1, Username: "alice", PasswordHash: "garbage", State: models.UserStateActive}

	_, err := svc.Login(context.Background(), models.LoginDto{Username: "alice", Password: "Passw0rd"})
	assert.ErrorIs(t, err, apperr.ErrInternal)
}

func TestUserService_UpdatePassword(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users, &plainHasher{})
	alice := registerAlice(t, svc)
	ctx := context.Background()

	err := svc.UpdatePassword(ctx, models.UpdatePasswordDto{
		OldPassword: "Wr0ngPass", NewPassword: "N3wPassword", Confirmation: "N3wPassword",
	}, alice)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, "plain:Passw0rd", users.users[alice.ID].PasswordHash)

	err = svc.UpdatePassword(ctx, models.UpdatePasswordDto{
		OldPassword: "Passw0rd", NewPassword: "N3wPassword", Confirmation: "N3wPassword",
	}, alice)
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginDto{Username: "alice", Password: "Passw0rd"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = svc.Login(ctx, models.LoginDto{Username: "alice", Password: "N3wPassword"})
	assert.NoError(t, err)
}

func TestUserService_UpdateInformation(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users, &plainHasher{})
	alice := registerAlice(t, svc)
	_, err := svc.Register(context.Background(), models.CreateUserDto{
		Name: "Bob", Username: "bob", Email: "bob@example.com",
		Password: "Passw0rd", Confirmation: "Passw0rd",
	})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("no change does not write", func(t *testing.T) {
		writes := users.writes
		_, err := svc.UpdateInformation(ctx, models.UpdateInformationDto{Name: strPtr("Alice")}, alice)
		assert.ErrorIs(t, err, apperr.ErrBadRequest)
		assert.Equal(t, writes, users.writes)
	})

	t.Run("taken username", func(t *testing.T) {
		_, err := svc.UpdateInformation(ctx, models.UpdateInformationDto{Username: strPtr("bob")}, alice)
		assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		updated, err := svc.UpdateInformation(ctx, models.UpdateInformationDto{Name: strPtr("Alice Liddell")}, alice)
		require.NoError(t, err)
		assert.Equal(t, "Alice Liddell", updated.Name)
		assert.Equal(t, "alice", updated.Username)
		assert.Equal(t, "alice@example.com", updated.Email)
		assert.Empty(t, updated.PasswordHash)
	})
}

func TestUserService_Deactivate(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users, &plainHasher{})
	alice := registerAlice(t, svc)
	ctx := context.Background()

	err := svc.Deactivate(ctx, models.DeleteUserDto{Password: "Wr0ngPass"}, alice)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, models.UserStateActive, users.users[alice.ID].State)

	require.NoError(t, svc.Deactivate(ctx, models.DeleteUserDto{Password: "Passw0rd"}, alice))
	assert.Equal(t, models.UserStateInactive, users.users[alice.ID].State)

	_, err = svc.Login(ctx, models.LoginDto{Username: "alice", Password: "Passw0rd"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

// saltlessHasher cannot produce digests but verifies real argon2id ones.
type saltlessHasher struct {
	auth.Argon2idHasher
	verified []string
}

func (h *saltlessHasher) Hash(string) (string, string, error) {
	return "", "", errors.New("entropy source unavailable")
}

func (h *saltlessHasher) Verify(password, digest string) (bool, error) {
	h.verified = append(h.verified, digest)
	return h.Argon2idHasher.Verify(password, digest)
}

func TestUserService_LoginUnknownUserAlwaysVerifies(t *testing.T) {
	hasher := &saltlessHasher{}
	svc := NewUserService(newFakeUserStore(), hasher)

	for i := 0; i < 2; i++ {
		_, err := svc.Login(context.Background(), models.LoginDto{Username: "ghost", Password: "Abcdef12"})
		require.ErrorIs(t, err, apperr.ErrUnauthorized)
	}

	require.Len(t, hasher.verified, 2)
	for _, digest := range hasher.verified {
		ok, err := auth.NewArgon2idHasher().Verify("Abcdef12", digest)
		require.NoError(t, err, "dummy digest must be well formed")
		assert.False(t, ok)
	}
}
