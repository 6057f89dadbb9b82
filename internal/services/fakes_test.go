package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/models"
)

var errDBDown = errors.New("connection refused")

// plainHasher stores "plain:<password>" so tests stay fast and readable.
type plainHasher struct {
	verifies int
}

func (h *plainHasher) Hash(password string) (string, string, error) {
	if password == "" {
		return "", "", errors.New("empty password")
	}
	return "plain:" + password, "salt", nil
}

func (h *plainHasher) Verify(password, digest string) (bool, error) {
	h.verifies++
	if !strings.HasPrefix(digest, "plain:") {
		return false, errors.New("malformed digest")
	}
	return strings.TrimPrefix(digest, "plain:") == password, nil
}

type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User
	writes int
	err    error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: make(map[int64]models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.User{}, s.err
	}
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return models.User{}, apperr.ErrAlreadyExists
		}
	}
	u.ID = s.nextID
	s.nextID++
	u.State = models.UserStateActive
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	s.writes++
	return u, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.User{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return models.User{}, apperr.ErrNotFoundUser
	}
	return u, nil
}

func (s *fakeUserStore) GetActiveByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.User{}, s.err
	}
	for _, u := range s.users {
		if u.Username == username && u.State == models.UserStateActive {
			return u, nil
		}
	}
	return models.User{}, apperr.ErrNotFoundUser
}

func (s *fakeUserStore) UpdateInformation(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.User{}, s.err
	}
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
	current.UpdatedAt = time.Now()
	s.users[u.ID] = current
	s.writes++
	return current, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id int64, hash, salt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	u, ok := s.users[id]
	if !ok {
		return apperr.ErrNotFoundUser
	}
	u.PasswordHash, u.Salt = hash, salt
	s.users[id] = u
	s.writes++
	return nil
}

func (s *fakeUserStore) Deactivate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	u, ok := s.users[id]
	if !ok || u.State != models.UserStateActive {
		return apperr.ErrNotFoundUser
	}
	u.State = models.UserStateInactive
	s.users[id] = u
	s.writes++
	return nil
}

type fakeTaskStore struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]models.Task
	err    error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{nextID: 1, tasks: make(map[int64]models.Task)}
}

func (s *fakeTaskStore) List(_ context.Context, userID int64) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []models.Task{}
	for id := int64(1); id < s.nextID; id++ {
		if t, ok := s.tasks[id]; ok && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTaskStore) Get(_ context.Context, id, userID int64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.Task{}, s.err
	}
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return models.Task{}, apperr.ErrNotFoundData
	}
	return t, nil
}

func (s *fakeTaskStore) Create(_ context.Context, t models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.Task{}, s.err
	}
	t.ID = s.nextID
	s.nextID++
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.tasks[t.ID] = t
	return t, nil
}

func (s *fakeTaskStore) Update(_ context.Context, t models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.Task{}, s.err
	}
	current, ok := s.tasks[t.ID]
	if !ok || current.UserID != t.UserID {
		return models.Task{}, apperr.ErrNotFoundData
	}
	t.CreatedAt = current.CreatedAt
	t.UpdatedAt = time.Now()
	s.tasks[t.ID] = t
	return t, nil
}

func (s *fakeTaskStore) Delete(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return apperr.ErrNotFoundData
	}
	delete(s.tasks, id)
	return nil
}

type published struct {
	userID  int64
	action  string
	payload interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []published
}

func (n *recordingNotifier) Publish(userID int64, action string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, published{userID: userID, action: action, payload: payload})
}
