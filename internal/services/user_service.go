package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"kediacrm/internal/authz"
	"kediacrm/internal/logger"
	"kediacrm/internal/models"
	"kediacrm/internal/repositories"
)

type UserService interface {
	Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, role *models.Role) ([]models.User, error)
	ListStaff(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
}

// NewUserService wires the user store. emailService may be nil, then no welcome emails are sent.
func NewUserService(repo repositories.UserRepository, emailService EmailService, authService AuthService) UserService {
	return &userService{
		repo:         repo,
		emailService: emailService,
		authService:  authService,
	}
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

func (s *userService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationErr("name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, validationErr("email is required")
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, validationErr("password is required")
	}
	role, err := authz.ParseRole(string(req.Role))
	if err != nil {
		return nil, validationErr("unknown user type %q", req.Role)
	}

	hash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:           strings.TrimSpace(req.Name),
		Email:          req.Email,
		PasswordHash:   hash,
		Phone:          req.Phone,
		Department:     req.Department,
		Role:           role,
		Status:         req.Status,
		DateAdded:      time.Now(),
		TelegramChatID: req.TelegramChatID,
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	if role == models.RoleAdmin {
		// department is a staff attribute
		user.Department = ""
	}

	created, err := s.repo.Insert(ctx, user)
	if err != nil {
		return nil, err
	}
	logger.Info("[user][create] created", zap.String("user_id", created.ID), zap.String("type", string(role)))

	if s.emailService != nil {
		if err := s.emailService.SendWelcomeEmail(created.Email, created.Name, string(role)); err != nil {
			// warn but do not fail creation
			logger.Warn("[user][create] welcome email failed", zap.String("email", created.Email), zap.Error(err))
		}
	}

	public := created.Public()
	return &public, nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, repositories.ErrNotFound
	}
	public := u.Public()
	return &public, nil
}

func (s *userService) List(ctx context.Context, role *models.Role) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if role != nil && u.Role != *role {
			continue
		}
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *userService) ListStaff(ctx context.Context) ([]models.User, error) {
	staff := models.RoleStaff
	return s.List(ctx, &staff)
}

func (s *userService) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if patch.Role != nil {
		role, err := authz.ParseRole(string(*patch.Role))
		if err != nil {
			return nil, validationErr("unknown user type %q", *patch.Role)
		}
		patch.Role = &role
		if role == models.RoleAdmin {
			empty := ""
			patch.Department = &empty
		}
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, validationErr("name cannot be empty")
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) == "" {
		return nil, validationErr("email cannot be empty")
	}

	patch.PasswordHash = nil
	if patch.Password != nil && *patch.Password != "" {
		hash, err := s.authService.HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}
	patch.Password = nil

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	logger.Info("[user][update] updated", zap.String("user_id", id))
	public := updated.Public()
	return &public, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return repositories.ErrNotFound
	}
	logger.Info("[user][delete] deleted", zap.String("user_id", id))
	return nil
}
