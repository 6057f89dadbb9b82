package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/metrics"
	"github.com/isdelr/tasker-be/internal/models"
)

// Guard outcomes recorded in metrics.
const (
	outcomeAuthenticated = "authenticated"
	outcomeMissing       = "missing_cookie"
	outcomeInvalid       = "invalid_credential"
	outcomeNoSession     = "no_session"
	outcomeStoreError    = "store_error"
)

// Guard resolves the session cookie of a request to a user.
type Guard struct {
	issuer *Issuer
	store  SessionStore
}

// NewGuard creates a new Guard.
func NewGuard(issuer *Issuer, store SessionStore) *Guard {
	return &Guard{issuer: issuer, store: store}
}

// CookieName returns the name of the session cookie.
func (g *Guard) CookieName() string {
	return g.issuer.CookieName()
}

// Require is middleware for protected routes. A missing, forged, expired or
// unknown credential is rejected with the same 401 response; any other store
// failure is a 500. On success the user is attached to the request context.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(g.issuer.CookieName())
		if err != nil {
			g.reject(w, outcomeMissing, apperr.ErrUnauthorized)
			return
		}

		user, outcome, err := g.authenticate(r.Context(), cookie.Value)
		if err != nil {
			g.reject(w, outcome, err)
			return
		}

		metrics.GuardOutcomes.WithLabelValues(outcomeAuthenticated).Inc()
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Authenticate resolves a session cookie value to the active user owning the
// session. It fails with apperr.ErrUnauthorized or apperr.ErrInternal.
func (g *Guard) Authenticate(ctx context.Context, credential string) (models.User, error) {
	user, _, err := g.authenticate(ctx, credential)
	return user, err
}

func (g *Guard) authenticate(ctx context.Context, credential string) (models.User, string, error) {
	if credential == "" {
		return models.User{}, outcomeMissing, apperr.ErrUnauthorized
	}

	token, userID, err := g.issuer.parse(credential)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected session cookie")
		return models.User{}, outcomeInvalid, apperr.ErrUnauthorized
	}

	user, err := g.store.Resolve(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.User{}, outcomeNoSession, apperr.ErrUnauthorized
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to resolve session")
		return models.User{}, outcomeStoreError, apperr.ErrInternal
	}
	if user.ID != userID {
		log.Warn().Int64("cookie_user_id", userID).Int64("session_user_id", user.ID).Msg("Session cookie subject mismatch")
		return models.User{}, outcomeInvalid, apperr.ErrUnauthorized
	}
	return user, outcomeAuthenticated, nil
}

func (g *Guard) reject(w http.ResponseWriter, outcome string, err error) {
	metrics.GuardOutcomes.WithLabelValues(outcome).Inc()

	status := apperr.Status(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  apperr.Message(err),
		"status": status,
	})
}
