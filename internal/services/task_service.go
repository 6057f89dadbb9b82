package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/models"
)

// Task events published to the owner's live feed.
const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

// TaskStore is the persistence the task service needs. Every method is
// scoped to the owning user.
type TaskStore interface {
	List(ctx context.Context, userID int64) ([]models.Task, error)
	Get(ctx context.Context, id, userID int64) (models.Task, error)
	Create(ctx context.Context, task models.Task) (models.Task, error)
	Update(ctx context.Context, task models.Task) (models.Task, error)
	Delete(ctx context.Context, id, userID int64) error
}

// Notifier delivers an event to the live connections of one user.
type Notifier interface {
	Publish(userID int64, action string, payload interface{})
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	List(ctx context.Context, userID int64) ([]models.Task, error)
	Get(ctx context.Context, id, userID int64) (models.Task, error)
	Create(ctx context.Context, dto models.CreateTaskDto, userID int64) (models.Task, error)
	Update(ctx context.Context, id int64, dto models.UpdateTaskDto, userID int64) (models.Task, error)
	Delete(ctx context.Context, id, userID int64) error
}

// TaskService provides task list management for a single owner at a time.
type TaskService struct {
	tasks    TaskStore
	notifier Notifier
}

// NewTaskService creates a new TaskService. notifier may be nil.
func NewTaskService(tasks TaskStore, notifier Notifier) *TaskService {
	return &TaskService{tasks: tasks, notifier: notifier}
}

// List returns all tasks of userID.
func (s *TaskService) List(ctx context.Context, userID int64) ([]models.Task, error) {
	tasks, err := s.tasks.List(ctx, userID)
	if err != nil {
		return nil, s.storeError(err, userID, "Failed to list tasks")
	}
	return tasks, nil
}

// Get returns a task owned by userID.
func (s *TaskService) Get(ctx context.Context, id, userID int64) (models.Task, error) {
	task, err := s.tasks.Get(ctx, id, userID)
	if err != nil {
		return models.Task{}, s.storeError(err, userID, "Failed to get task")
	}
	return task, nil
}

// Create adds a task to the list of userID.
func (s *TaskService) Create(ctx context.Context, dto models.CreateTaskDto, userID int64) (models.Task, error) {
	task, err := s.tasks.Create(ctx, dto.ToTask(userID))
	if err != nil {
		return models.Task{}, s.storeError(err, userID, "Failed to create task")
	}
	s.publish(userID, EventTaskCreated, task)
	return task, nil
}

// Update merges the provided fields over a task owned by userID.
func (s *TaskService) Update(ctx context.Context, id int64, dto models.UpdateTaskDto, userID int64) (models.Task, error) {
	current, err := s.tasks.Get(ctx, id, userID)
	if err != nil {
		return models.Task{}, s.storeError(err, userID, "Failed to load task for update")
	}

	task, err := s.tasks.Update(ctx, dto.Merge(current))
	if err != nil {
		return models.Task{}, s.storeError(err, userID, "Failed to update task")
	}
	s.publish(userID, EventTaskUpdated, task)
	return task, nil
}

// Delete removes a task owned by userID.
func (s *TaskService) Delete(ctx context.Context, id, userID int64) error {
	if err := s.tasks.Delete(ctx, id, userID); err != nil {
		return s.storeError(err, userID, "Failed to delete task")
	}
	s.publish(userID, EventTaskDeleted, map[string]int64{"id": id})
	return nil
}

func (s *TaskService) publish(userID int64, action string, payload interface{}) {
	if s.notifier != nil {
		s.notifier.Publish(userID, action, payload)
	}
}

// storeError keeps not-found visible and collapses everything else.
func (s *TaskService) storeError(err error, userID int64, msg string) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.ErrNotFoundData
	}
	log.Error().Err(err).Int64("user_id", userID).Msg(msg)
	return apperr.ErrInternal
}
