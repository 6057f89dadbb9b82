package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/models"
	"github.com/isdelr/tasker-be/internal/services"
)

// SessionStatusHeader tells the client that registration succeeded but no
// session cookie was issued.
const SessionStatusHeader = "X-Session-Status"

// SessionIssuer renders sessions as cookies.
type SessionIssuer interface {
	Issue(ctx context.Context, user models.User) (*http.Cookie, error)
	Revoke(ctx context.Context, userID int64) (*http.Cookie, error)
}

// FeedCloser disconnects the live feeds of a user.
type FeedCloser interface {
	CloseUser(userID int64)
}

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service  services.UserServiceProvider
	sessions SessionIssuer
	feeds    FeedCloser
}

// NewUserHandler creates a new UserHandler. feeds may be nil.
func NewUserHandler(service services.UserServiceProvider, sessions SessionIssuer, feeds FeedCloser) *UserHandler {
	return &UserHandler{service: service, sessions: sessions, feeds: feeds}
}

// Register handles new user registration. The new user is logged in when a
// session can be issued.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var dto models.CreateUserDto
	if err := decode(w, r, &dto); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), dto)
	if err != nil {
		respondError(w, err)
		return
	}

	cookie, err := h.sessions.Issue(r.Context(), user)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("Registered user without a session")
		w.Header().Set(SessionStatusHeader, "not-issued")
	} else {
		http.SetCookie(w, cookie)
	}
	respondJSON(w, http.StatusCreated, user)
}

// Login handles user authentication and issues a session cookie.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var dto models.LoginDto
	if err := decode(w, r, &dto); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.service.Login(r.Context(), dto)
	if err != nil {
		respondError(w, err)
		return
	}

	cookie, err := h.sessions.Issue(r.Context(), user)
	if err != nil {
		respondError(w, err)
		return
	}
	http.SetCookie(w, cookie)
	respondJSON(w, http.StatusOK, user)
}

// Refresh rotates the session of the current user and resets its expiry.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	cookie, err := h.sessions.Issue(r.Context(), user)
	if err != nil {
		respondError(w, err)
		return
	}
	http.SetCookie(w, cookie)
	respondJSON(w, http.StatusOK, user)
}

// Logout deletes the session of the current user. The clearing cookie is
// sent even when the delete fails.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	cookie, err := h.sessions.Revoke(r.Context(), user.ID)
	http.SetCookie(w, cookie)
	if err != nil {
		respondError(w, err)
		return
	}
	h.closeFeeds(user.ID)
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Logged out!"})
}

// GetMe returns the current user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateInformation changes the name, username or email of the current user.
func (h *UserHandler) UpdateInformation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var dto models.UpdateInformationDto
	if err := decode(w, r, &dto); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.UpdateInformation(r.Context(), dto, user)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// UpdatePassword changes the password of the current user.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var dto models.UpdatePasswordDto
	if err := decode(w, r, &dto); err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.UpdatePassword(r.Context(), dto, user); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Password updated!"})
}

// Delete deactivates the current user and ends the session.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var dto models.DeleteUserDto
	if err := decode(w, r, &dto); err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.Deactivate(r.Context(), dto, user); err != nil {
		respondError(w, err)
		return
	}
	h.closeFeeds(user.ID)

	// An inactive user no longer resolves, so a failed revoke only leaves a
	// dead row behind.
	cookie, err := h.sessions.Revoke(r.Context(), user.ID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to revoke session of deactivated user")
	}
	http.SetCookie(w, cookie)
	respondJSON(w, http.StatusOK, MessageResponse{Message: "User deleted!"})
}

func (h *UserHandler) closeFeeds(userID int64) {
	if h.feeds != nil {
		h.feeds.CloseUser(userID)
	}
}
