package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/models"
)

const taskColumns = `id, user_id, title, body, state, priority, created_at, updated_at`

// TaskStore persists tasks. Every statement is scoped to the owning user.
type TaskStore struct {
	db DB
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db DB) *TaskStore {
	return &TaskStore{db: db}
}

// List returns the tasks of userID, oldest first.
func (s *TaskStore) List(ctx context.Context, userID int64) ([]models.Task, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, oops.Code("TASK_LIST_FAILED").
			With("operation", "list tasks").
			With("user_id", userID).
			Wrap(err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, oops.Code("TASK_SCAN_FAILED").
				With("operation", "scan task row").
				Wrap(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TASK_ROWS_ERROR").
			With("operation", "iterate task rows").
			Wrap(err)
	}
	return tasks, nil
}

// Get returns task id if it belongs to userID.
func (s *TaskStore) Get(ctx context.Context, id, userID int64) (models.Task, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Task{}, oops.Code("TASK_NOT_FOUND").
			With("id", id).
			Wrap(apperr.ErrNotFoundData)
	}
	if err != nil {
		return models.Task{}, oops.Code("TASK_GET_FAILED").
			With("operation", "get task").
			With("id", id).
			Wrap(err)
	}
	return task, nil
}

// Create inserts task for task.UserID.
func (s *TaskStore) Create(ctx context.Context, task models.Task) (models.Task, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO tasks (user_id, title, body, state, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+taskColumns,
		task.UserID, task.Title, task.Body, task.State, task.Priority,
	)

	created, err := scanTask(row)
	if err != nil {
		return models.Task{}, oops.Code("TASK_CREATE_FAILED").
			With("operation", "insert task").
			With("user_id", task.UserID).
			Wrap(err)
	}
	return created, nil
}

// Update writes the mutable fields of task, matched by id and owner.
func (s *TaskStore) Update(ctx context.Context, task models.Task) (models.Task, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE tasks
		SET title = $3, body = $4, state = $5, priority = $6, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		task.ID, task.UserID, task.Title, task.Body, task.State, task.Priority,
	)

	updated, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Task{}, oops.Code("TASK_NOT_FOUND").
			With("id", task.ID).
			Wrap(apperr.ErrNotFoundData)
	}
	if err != nil {
		return models.Task{}, oops.Code("TASK_UPDATE_FAILED").
			With("operation", "update task").
			With("id", task.ID).
			Wrap(err)
	}
	return updated, nil
}

// Delete removes task id if it belongs to userID.
func (s *TaskStore) Delete(ctx context.Context, id, userID int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return oops.Code("TASK_DELETE_FAILED").
			With("operation", "delete task").
			With("id", id).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("TASK_NOT_FOUND").
			With("id", id).
			Wrap(apperr.ErrNotFoundData)
	}
	return nil
}

func scanTask(row pgx.Row) (models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Body,
		&task.State,
		&task.Priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	return task, err
}
