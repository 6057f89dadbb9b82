package api

import (
	"context"
	"sync"
	"time"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/models"
)

type memSession struct {
	tokenHash string
	expiresAt time.Time
}

// memStore backs users, sessions and tasks in memory with the same
// semantics as the Postgres stores.
type memStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	users    map[int64]models.User
	sessions map[int64]memSession
	tasks    map[int64]models.Task
	nextUser int64
	nextTask int64
	pingErr  error
}

func newMemStore() *memStore {
	return &memStore{
		ttl:      time.Hour,
		users:    make(map[int64]models.User),
		sessions: make(map[int64]memSession),
		tasks:    make(map[int64]models.Task),
		nextUser: 1,
		nextTask: 1,
	}
}

func (s *memStore) Ping(context.Context) error { return s.pingErr }

// users

type memUsers struct{ *memStore }

func (s memUsers) Create(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return models.User{}, apperr.ErrAlreadyExists
		}
	}
	u.ID = s.nextUser
	s.nextUser++
	u.State = models.UserStateActive
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (s memUsers) GetByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, apperr.ErrNotFoundUser
	}
	return u, nil
}

func (s memUsers) GetActiveByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username && u.State == models.UserStateActive {
			return u, nil
		}
	}
	return models.User{}, apperr.ErrNotFoundUser
}

func (s memUsers) UpdateInformation(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[u.ID]
	if !ok || current.State != models.UserStateActive {
		return models.User{}, apperr.ErrNotFoundUser
	}
	for id, existing := range s.users {
		if id != u.ID && (existing.Username == u.Username || existing.Email == u.Email) {
			return models.User{}, apperr.ErrAlreadyExists
		}
	}
	current.Name, current.Username, current.Email = u.Name, u.Username, u.Email
	s.users[u.ID] = current
	return current, nil
}

func (s memUsers) UpdatePassword(_ context.Context, id int64, hash, salt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.ErrNotFoundUser
	}
	u.PasswordHash, u.Salt = hash, salt
	s.users[id] = u
	return nil
}

func (s memUsers) Deactivate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.State != models.UserStateActive {
		return apperr.ErrNotFoundUser
	}
	u.State = models.UserStateInactive
	s.users[id] = u
	return nil
}

// sessions

type memSessions struct{ *memStore }

func (s memSessions) Upsert(_ context.Context, userID int64, tokenHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = memSession{tokenHash: tokenHash, expiresAt: time.Now().Add(s.ttl)}
	return 1, nil
}

func (s memSessions) Resolve(_ context.Context, tokenHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, sess := range s.sessions {
		if sess.tokenHash != tokenHash || !sess.expiresAt.After(time.Now()) {
			continue
		}
		if u, ok := s.users[userID]; ok && u.State == models.UserStateActive {
			return u, nil
		}
	}
	return models.User{}, apperr.ErrNotFoundSession
}

func (s memSessions) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return apperr.ErrNotFoundSession
	}
	delete(s.sessions, userID)
	return nil
}

// tasks

type memTasks struct{ *memStore }

func (s memTasks) List(_ context.Context, userID int64) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Task{}
	for id := int64(1); id < s.nextTask; id++ {
		if t, ok := s.tasks[id]; ok && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s memTasks) Get(_ context.Context, id, userID int64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return models.Task{}, apperr.ErrNotFoundData
	}
	return t, nil
}

func (s memTasks) Create(_ context.Context, t models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextTask
	s.nextTask++
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.tasks[t.ID] = t
	return t, nil
}

func (s memTasks) Update(_ context.Context, t models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tasks[t.ID]
	if !ok || current.UserID != t.UserID {
		return models.Task{}, apperr.ErrNotFoundData
	}
	t.CreatedAt = current.CreatedAt
	t.UpdatedAt = time.Now()
	s.tasks[t.ID] = t
	return t, nil
}

func (s memTasks) Delete(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return apperr.ErrNotFoundData
	}
	delete(s.tasks, id)
	return nil
}
