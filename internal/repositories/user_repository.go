package repositories

import (
	"context"
	"strings"

	"kediacrm/internal/models"
)

// UserRepository has the same shape as TaskRepository plus a lookup by email.
// Emails are compared lower-cased.
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	Remove(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
