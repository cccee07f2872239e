package repositories

import (
	"context"
	"errors"

	"kediacrm/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// TaskRepository is the task collection. List returns tasks in insertion order;
// Get returns nil, nil for an unknown id.
type TaskRepository interface {
	List(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	Insert(ctx context.Context, task *models.Task) (*models.Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	Remove(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
}

var (
	_ TaskRepository = (*TaskStorage)(nil)
	_ TaskRepository = (*TaskMongo)(nil)
	_ UserRepository = (*UserStorage)(nil)
	_ UserRepository = (*UserMongo)(nil)
)
