// internal/services/task_service.go
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

// TaskService defines the interface for task-related business logic.
// Every operation acts on behalf of an authenticated actor; staff only ever see their own tasks.
type TaskService interface {
	Create(ctx context.Context, actor models.Actor, req models.CreateTaskRequest) (*models.TaskView, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.TaskView, error)
	List(ctx context.Context, actor models.Actor, q models.TaskQuery) ([]models.TaskView, error)
	Update(ctx context.Context, actor models.Actor, id string, patch models.TaskPatch) (*models.TaskView, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	Stats(ctx context.Context, actor models.Actor) (models.DashboardStats, error)
	Breakdown(ctx context.Context, actor models.Actor) (models.TaskBreakdown, error)
}

type taskService struct {
	repo     repositories.TaskRepository
	users    repositories.UserRepository
	notifier TaskNotifier
	now      func() time.Time
}

// NewTaskService creates a new instance of TaskService. notifier may be nil.
func NewTaskService(repo repositories.TaskRepository, users repositories.UserRepository, notifier TaskNotifier) TaskService {
	return &taskService{repo: repo, users: users, notifier: notifier, now: time.Now}
}

// scope narrows q to what the actor may see.
func scope(actor models.Actor, q models.TaskQuery) (models.TaskQuery, error) {
	seeAll, err := authz.CanSeeAdminFields(actor.Role)
	if err != nil {
		return q, err
	}
	if seeAll {
		return q, nil
	}
	self := actor.ID
	return q.And(models.TaskQuery{GivenTo: &self}), nil
}

// snapshot lists the store once and filters the copy.
func (s *taskService) snapshot(ctx context.Context, actor models.Actor, q models.TaskQuery) ([]models.Task, error) {
	q, err := scope(actor, q)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterTasks(all, q), nil
}

func (s *taskService) staffAssignee(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Role != models.RoleStaff {
		return nil, fmt.Errorf("givenTo %q: %w", id, ErrInvalidAssignee)
	}
	return u, nil
}

func assigneeOf(u *models.User) *models.TaskAssignee {
	if u == nil {
		return nil
	}
	return &models.TaskAssignee{ID: u.ID, Name: u.Name, Email: u.Email, Department: u.Department}
}

// expand resolves GivenTo for each task, looking every user up once.
func (s *taskService) expand(ctx context.Context, tasks []models.Task) ([]models.TaskView, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	out := make([]models.TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, models.TaskView{Task: t, GivenTo: assigneeOf(byID[t.GivenTo])})
	}
	return out, nil
}

func (s *taskService) view(ctx context.Context, t *models.Task) (*models.TaskView, error) {
	u, err := s.users.Get(ctx, t.GivenTo)
	if err != nil {
		return nil, err
	}
	return &models.TaskView{Task: *t, GivenTo: assigneeOf(u)}, nil
}

func (s *taskService) notify(ctx context.Context, task models.Task, assignee *models.User) {
	if s.notifier == nil || assignee == nil {
		return
	}
	if err := s.notifier.TaskAssigned(ctx, task, *assignee); err != nil {
		logger.Warn("[task][notify] failed", zap.String("task_id", task.ID), zap.Error(err))
	}
}

func (s *taskService) Create(ctx context.Context, actor models.Actor, req models.CreateTaskRequest) (*models.TaskView, error) {
	if err := authz.Require(actor.Role, authz.ActionEdit); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, validationErr("task is required")
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return nil, validationErr("unknown priority %q", req.Priority)
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, validationErr("unknown status %q", req.Status)
	}
	assignee, err := s.staffAssignee(ctx, req.GivenTo)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &models.Task{
		Description:    strings.TrimSpace(req.Description),
		GivenBy:        strings.TrimSpace(req.GivenBy),
		GivenTo:        assignee.ID,
		DateAllocation: now,
		TargetDate:     req.TargetDate,
		Priority:       req.Priority,
		Status:         req.Status,
		NextUpdate:     req.NextUpdate,
		CreatedAt:      now,
	}
	if req.DateAllocation != nil {
		task.DateAllocation = *req.DateAllocation
	}
	if task.GivenBy == "" {
		task.GivenBy = actor.Name
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	}

	created, err := s.repo.Insert(ctx, task)
	if err != nil {
		return nil, err
	}
	logger.Info("[task][create] created",
		zap.String("task_id", created.ID),
		zap.String("given_to", created.GivenTo),
		zap.String("by", actor.ID))

	s.notify(ctx, *created, assignee)
	return &models.TaskView{Task: *created, GivenTo: assigneeOf(assignee)}, nil
}

func (s *taskService) Get(ctx context.Context, actor models.Actor, id string) (*models.TaskView, error) {
	seeAll, err := authz.CanSeeAdminFields(actor.Role)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// staff get not-found for other people's tasks
	if t == nil || (!seeAll && t.GivenTo != actor.ID) {
		return nil, repositories.ErrNotFound
	}
	return s.view(ctx, t)
}

func (s *taskService) List(ctx context.Context, actor models.Actor, q models.TaskQuery) ([]models.TaskView, error) {
	tasks, err := s.snapshot(ctx, actor, q)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, tasks)
}

func (s *taskService) Update(ctx context.Context, actor models.Actor, id string, patch models.TaskPatch) (*models.TaskView, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if _, err := authz.AllowedTaskActions(actor.Role); err != nil {
			return nil, err
		}
		return nil, repositories.ErrNotFound
	}
	if err := authz.CheckTaskPatch(actor.Role, actor.ID, existing.GivenTo, patch); err != nil {
		logger.Warn("[task][update] denied",
			zap.String("task_id", id),
			zap.String("user_id", actor.ID),
			zap.Error(err))
		return nil, err
	}

	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return nil, validationErr("task cannot be empty")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, validationErr("unknown priority %q", *patch.Priority)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, validationErr("unknown status %q", *patch.Status)
	}

	var newAssignee *models.User
	if patch.GivenTo != nil && *patch.GivenTo != existing.GivenTo {
		if newAssignee, err = s.staffAssignee(ctx, *patch.GivenTo); err != nil {
			return nil, err
		}
	}
	if patch.StepsTaken != nil && patch.LastUpdated == nil {
		now := s.now()
		patch.LastUpdated = &now
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	logger.Info("[task][update] updated", zap.String("task_id", id), zap.String("by", actor.ID))

	if newAssignee != nil {
		s.notify(ctx, *updated, newAssignee)
	}
	return s.view(ctx, updated)
}

func (s *taskService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := authz.Require(actor.Role, authz.ActionDelete); err != nil {
		return err
	}
	ok, err := s.repo.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return repositories.ErrNotFound
	}
	logger.Info("[task][delete] deleted", zap.String("task_id", id), zap.String("by", actor.ID))
	return nil
}

func (s *taskService) Stats(ctx context.Context, actor models.Actor) (models.DashboardStats, error) {
	tasks, err := s.snapshot(ctx, actor, models.TaskQuery{})
	if err != nil {
		return models.DashboardStats{}, err
	}
	return SummarizeTasks(tasks), nil
}

func (s *taskService) Breakdown(ctx context.Context, actor models.Actor) (models.TaskBreakdown, error) {
	tasks, err := s.snapshot(ctx, actor, models.TaskQuery{})
	if err != nil {
		return models.TaskBreakdown{}, err
	}
	return BreakdownTasks(tasks), nil
}
