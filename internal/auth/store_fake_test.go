package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/models"
)

type fakeSession struct {
	tokenHash string
	expiresAt time.Time
}

// fakeSessionStore mirrors the upsert-per-user semantics of the Postgres store.
type fakeSessionStore struct {
	mu         sync.Mutex
	ttl        time.Duration
	now        time.Time
	users      map[int64]models.User
	sessions   map[int64]fakeSession
	upsertRows int64
	err        error
}

func newFakeSessionStore(users ...models.User) *fakeSessionStore {
	s := &fakeSessionStore{
		ttl:        time.Hour,
		now:        time.Now(),
		users:      make(map[int64]models.User),
		sessions:   make(map[int64]fakeSession),
		upsertRows: 1,
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeSessionStore) Upsert(_ context.Context, userID int64, tokenHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if s.upsertRows == 0 {
		return 0, nil
	}
	s.sessions[userID] = fakeSession{tokenHash: tokenHash, expiresAt: s.now.Add(s.ttl)}
	return s.upsertRows, nil
}

func (s *fakeSessionStore) Resolve(_ context.Context, tokenHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.User{}, s.err
	}
	for userID, sess := range s.sessions {
		if sess.tokenHash != tokenHash || !sess.expiresAt.After(s.now) {
			continue
		}
		user, ok := s.users[userID]
		if !ok || user.State != models.UserStateActive {
			continue
		}
		return user, nil
	}
	return models.User{}, apperr.ErrNotFoundSession
}

func (s *fakeSessionStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.sessions[userID]; !ok {
		return apperr.ErrNotFoundSession
	}
	delete(s.sessions, userID)
	return nil
}

func (s *fakeSessionStore) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

var errStoreDown = errors.New("connection refused")
