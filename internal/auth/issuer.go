package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/metrics"
	"github.com/isdelr/tasker-be/internal/models"
)

// SessionStore persists at most one session per user.
type SessionStore interface {
	// Upsert stores tokenHash for userID, replacing any previous session and
	// resetting its expiry.
	Upsert(ctx context.Context, userID int64, tokenHash string) (int64, error)

	// Resolve returns the active user owning an unexpired session, or an
	// error matching apperr.ErrNotFoundSession.
	Resolve(ctx context.Context, tokenHash string) (models.User, error)

	// Delete removes the user's session, or returns apperr.ErrNotFoundSession.
	Delete(ctx context.Context, userID int64) error
}

// IssuerConfig configures session cookies.
type IssuerConfig struct {
	CookieName string
	Secret     []byte
	TTL        time.Duration
	Secure     bool
}

// Claims is the signed payload carried in the session cookie.
type Claims struct {
	SessionToken string `json:"sid"`
	jwt.RegisteredClaims
}

var errInvalidCredential = errors.New("invalid session credential")

// Issuer creates, rotates and revokes user sessions and renders them as
// cookies. The cookie value is an HS256 JWT wrapping the opaque session token.
type Issuer struct {
	store SessionStore
	cfg   IssuerConfig
	now   func() time.Time
}

// NewIssuer creates a new Issuer.
func NewIssuer(store SessionStore, cfg IssuerConfig) *Issuer {
	return &Issuer{store: store, cfg: cfg, now: time.Now}
}

// CookieName returns the name of the session cookie.
func (i *Issuer) CookieName() string {
	return i.cfg.CookieName
}

// Issue creates or rotates the session of user. Concurrent calls for the
// same user race at the store: the last upsert wins and the other tokens
// stop resolving.
func (i *Issuer) Issue(ctx context.Context, user models.User) (*http.Cookie, error) {
	token, err := GenerateToken()
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to generate session token")
		return nil, apperr.ErrInternal
	}

	rows, err := i.store.Upsert(ctx, user.ID, HashToken(token))
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to store session")
		return nil, apperr.ErrInternal
	}
	if rows == 0 {
		log.Error().Int64("user_id", user.ID).Str("username", user.Username).Msg("Can not create the session")
		return nil, apperr.ErrCannotIssueSession
	}

	value, err := i.sign(user.ID, token)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to sign session cookie")
		return nil, apperr.ErrInternal
	}

	metrics.SessionsIssued.Inc()
	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("Session issued")

	return &http.Cookie{
		Name:     i.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(i.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   i.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Revoke deletes the user's session and returns a cookie that clears the
// credential on the client. The cookie is returned even when the delete
// fails so the caller can always send it.
func (i *Issuer) Revoke(ctx context.Context, userID int64) (*http.Cookie, error) {
	cookie := &http.Cookie{
		Name:     i.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // rendered as Max-Age=0
		HttpOnly: true,
		Secure:   i.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if err := i.store.Delete(ctx, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFoundSession) {
			return cookie, err
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to delete session")
		return cookie, apperr.ErrInternal
	}
	return cookie, nil
}

// parse verifies the cookie signature and expiry and returns the embedded
// session token and user id.
func (i *Issuer) parse(value string) (string, int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		return i.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", errInvalidCredential, err)
	}
	if !token.Valid || claims.SessionToken == "" {
		return "", 0, errInvalidCredential
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad subject", errInvalidCredential)
	}
	return claims.SessionToken, userID, nil
}

func (i *Issuer) sign(userID int64, sessionToken string) (string, error) {
	now := i.now()
	claims := &Claims{
		SessionToken: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
}
