package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/auth"
	"github.com/isdelr/tasker-be/internal/models"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// MessageResponse is the body of requests that have no resource to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// validatable is implemented by every request DTO.
type validatable interface {
	Validate() error
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	respondJSON(w, status, ErrorResponse{Error: apperr.Message(err), Status: status})
}

// maxBodyBytes caps request bodies. The largest field is a 6000 character
// task body.
const maxBodyBytes = 1 << 20

// decode reads a JSON body into dto and validates it.
func decode(w http.ResponseWriter, r *http.Request, dto validatable) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("Request body too large")
		}
		return apperr.Validation("Invalid request body")
	}
	return dto.Validate()
}

// currentUser returns the user attached by the auth guard.
func currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		log.Error().Str("path", r.URL.Path).Msg("Guarded handler reached without a user in context")
		respondError(w, apperr.ErrUnauthorized)
		return models.User{}, false
	}
	return user, true
}
