package models

import (
	"time"

	"github.com/isdelr/tasker-be/internal/apperr"
)

// Account states.
const (
	UserStateActive   = "active"
	UserStateInactive = "inactive"
)

// User represents a user account in the system.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Salt         string    `json:"-"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateUserDto is the registration payload.
type CreateUserDto struct {
	Name         string `json:"name" validate:"required;between:2,255"`
	Username     string `json:"username" validate:"required;between:3,255;username"`
	Email        string `json:"email" validate:"required;between:5,255;email"`
	Password     string `json:"password" validate:"required;between:8,512;password"`
	Confirmation string `json:"confirmation"`
}

func (d CreateUserDto) Validate() error {
	if err := validate(&d); err != nil {
		return err
	}
	if d.Confirmation != d.Password {
		return apperr.Validation("confirmation: Invalid password confirmation!")
	}
	return nil
}

// LoginDto is the login payload.
type LoginDto struct {
	Username string `json:"username" validate:"required;between:3,255;username"`
	Password string `json:"password" validate:"required;between:8,512;password"`
}

func (d LoginDto) Validate() error {
	return validate(&d)
}

// UpdateInformationDto carries the profile fields to change. Nil fields keep
// their current value.
type UpdateInformationDto struct {
	Name     *string `json:"name" validate:"between:2,255"`
	Username *string `json:"username" validate:"between:3,255;username"`
	Email    *string `json:"email" validate:"between:5,255;email"`
}

func (d UpdateInformationDto) Validate() error {
	if d.Name == nil && d.Username == nil && d.Email == nil {
		return apperr.Validation("at least one of name, username, email is required")
	}
	return validate(&d)
}

// Merge applies the provided fields over u and reports whether anything changed.
func (d UpdateInformationDto) Merge(u User) (User, bool) {
	merged := u
	if d.Name != nil {
		merged.Name = *d.Name
	}
	if d.Username != nil {
		merged.Username = *d.Username
	}
	if d.Email != nil {
		merged.Email = *d.Email
	}
	changed := merged.Name != u.Name || merged.Username != u.Username || merged.Email != u.Email
	return merged, changed
}

// UpdatePasswordDto is the password change payload.
type UpdatePasswordDto struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required;between:8,512;password"`
	Confirmation string `json:"confirmation"`
}

func (d UpdatePasswordDto) Validate() error {
	if err := validate(&d); err != nil {
		return err
	}
	if d.Confirmation != d.NewPassword {
		return apperr.Validation("confirmation: Invalid password confirmation!")
	}
	return nil
}

// DeleteUserDto confirms account removal with the current password.
type DeleteUserDto struct {
	Password string `json:"password" validate:"required"`
}

func (d DeleteUserDto) Validate() error {
	return validate(&d)
}
