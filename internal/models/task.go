package models

import (
	"time"

	"github.com/isdelr/tasker-be/internal/apperr"
)

// Task states.
const (
	TaskStateToDo       = "TO_DO"
	TaskStateInProgress = "IN_PROGRESS"
	TaskStateDone       = "DONE"
)

// Task priorities.
const (
	TaskPriorityLow    = "LOW"
	TaskPriorityMedium = "MEDIUM"
	TaskPriorityHigh   = "HIGH"
)

// Task is a single entry of a user's task list. A task always belongs to
// exactly one user.
type Task struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	State     string    `json:"state"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateTaskDto is the payload for creating a task. State and Priority
// default to TO_DO and MEDIUM.
type CreateTaskDto struct {
	Title    string  `json:"title" validate:"required;between:1,255"`
	Body     *string `json:"body" validate:"max:6000"`
	State    *string `json:"state" validate:"task_state"`
	Priority *string `json:"priority" validate:"task_priority"`
}

func (d CreateTaskDto) Validate() error {
	return validate(&d)
}

// ToTask builds the task to insert for userID, filling in defaults.
func (d CreateTaskDto) ToTask(userID int64) Task {
	task := Task{
		UserID:   userID,
		Title:    d.Title,
		State:    TaskStateToDo,
		Priority: TaskPriorityMedium,
	}
	if d.Body != nil {
		task.Body = *d.Body
	}
	if d.State != nil {
		task.State = *d.State
	}
	if d.Priority != nil {
		task.Priority = *d.Priority
	}
	return task
}

// UpdateTaskDto carries the task fields to change. Nil fields keep their
// current value.
type UpdateTaskDto struct {
	Title    *string `json:"title" validate:"between:1,255"`
	Body     *string `json:"body" validate:"max:6000"`
	State    *string `json:"state" validate:"task_state"`
	Priority *string `json:"priority" validate:"task_priority"`
}

func (d UpdateTaskDto) Validate() error {
	if d.Title == nil && d.Body == nil && d.State == nil && d.Priority == nil {
		return apperr.Validation("at least one of title, body, state, priority is required")
	}
	return validate(&d)
}

// Merge applies the provided fields over t.
func (d UpdateTaskDto) Merge(t Task) Task {
	if d.Title != nil {
		t.Title = *d.Title
	}
	if d.Body != nil {
		t.Body = *d.Body
	}
	if d.State != nil {
		t.State = *d.State
	}
	if d.Priority != nil {
		t.Priority = *d.Priority
	}
	return t
}
