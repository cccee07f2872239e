package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"kediacrm/internal/models"
)

// TaskStorage keeps tasks in memory. ids preserves insertion order.
type TaskStorage struct {
	mtx     sync.RWMutex
	storage map[string]models.Task
	ids     []string
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{storage: make(map[string]models.Task)}
}

func (s *TaskStorage) Ping(ctx context.Context) error { return nil }

func (s *TaskStorage) List(ctx context.Context) ([]models.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	out := make([]models.Task, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.storage[id])
	}
	return out, nil
}

func (s *TaskStorage) Get(ctx context.Context, id string) (*models.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.storage[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *TaskStorage) Insert(ctx context.Context, task *models.Task) (*models.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t := *task
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.storage[t.ID] = t
	s.ids = append(s.ids, t.ID)
	return &t, nil
}

func (s *TaskStorage) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.storage[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(&t)
	s.storage[id] = t
	return &t, nil
}

func (s *TaskStorage) Remove(ctx context.Context, id string) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return false, nil
	}
	delete(s.storage, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true, nil
}

// UserStorage keeps users in memory and enforces unique emails.
type UserStorage struct {
	mtx     sync.RWMutex
	storage map[string]models.User
	ids     []string
}

func NewUserStorage() *UserStorage {
	return &UserStorage{storage: make(map[string]models.User)}
}

func (s *UserStorage) Ping(ctx context.Context) error { return nil }

func (s *UserStorage) List(ctx context.Context) ([]models.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	out := make([]models.User, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.storage[id])
	}
	return out, nil
}

func (s *UserStorage) Get(ctx context.Context, id string) (*models.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.storage[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	email = NormalizeEmail(email)
	for _, id := range s.ids {
		if u := s.storage[id]; u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *UserStorage) emailTaken(email, exceptID string) bool {
	for id, u := range s.storage {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *UserStorage) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	u := *user
	u.Email = NormalizeEmail(u.Email)
	if s.emailTaken(u.Email, "") {
		return nil, ErrDuplicateEmail
	}
	u.ID = uuid.NewString()
	s.storage[u.ID] = u
	s.ids = append(s.ids, u.ID)
	return &u, nil
}

func (s *UserStorage) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	u, ok := s.storage[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		if s.emailTaken(email, id) {
			return nil, ErrDuplicateEmail
		}
		patch.Email = &email
	}
	patch.Apply(&u)
	s.storage[id] = u
	return &u, nil
}

func (s *UserStorage) Remove(ctx context.Context, id string) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return false, nil
	}
	delete(s.storage, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true, nil
}
