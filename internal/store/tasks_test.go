package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/models"
)

var taskCols = []string{"id", "user_id", "title", "body", "state", "priority", "created_at", "updated_at"}

func TestTaskStore_List(t *testing.T) {
	now := time.Now().UTC()

	t.Run("scoped to owner", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM tasks\s+WHERE user_id = \$1\s+ORDER BY id`).
			WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows(taskCols).
				AddRow(int64(10), int64(1), "write docs", "", "TO_DO", "MEDIUM", now, now).
				AddRow(int64(11), int64(1), "ship", "v1", "DONE", "HIGH", now, now))

		tasks, err := NewTaskStore(mock).List(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "ship", tasks[1].Title)
	})

	t.Run("empty list is not an error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM tasks`).
			WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows(taskCols))

		tasks, err := NewTaskStore(mock).List(context.Background(), 1)
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})
}

func TestTaskStore_Create(t *testing.T) {
	now := time.Now().UTC()
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(int64(1), "write docs", "", "TO_DO", "MEDIUM").
		WillReturnRows(pgxmock.NewRows(taskCols).
			AddRow(int64(10), int64(1), "write docs", "", "TO_DO", "MEDIUM", now, now))

	task, err := NewTaskStore(mock).Create(context.Background(), models.Task{
		UserID: 1, Title: "write docs", State: "TO_DO", Priority: "MEDIUM",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), task.ID)
	assert.Equal(t, int64(1), task.UserID)
}

func TestTaskStore_ForeignOwnerIsNotFound(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM tasks\s+WHERE id = \$1 AND user_id = \$2`).
			WithArgs(int64(10), int64(2)).
			WillReturnError(pgx.ErrNoRows)

		_, err := NewTaskStore(mock).Get(context.Background(), 10, 2)
		assert.ErrorIs(t, err, apperr.ErrNotFoundData)
	})

	t.Run("update", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`UPDATE tasks`).
			WithArgs(int64(10), int64(2), "t", "", "DONE", "LOW").
			WillReturnError(pgx.ErrNoRows)

		_, err := NewTaskStore(mock).Update(context.Background(), models.Task{
			ID: 10, UserID: 2, Title: "t", State: "DONE", Priority: "LOW",
		})
		assert.ErrorIs(t, err, apperr.ErrNotFoundData)
	})

	t.Run("delete", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1 AND user_id = \$2`).
			WithArgs(int64(10), int64(2)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := NewTaskStore(mock).Delete(context.Background(), 10, 2)
		assert.ErrorIs(t, err, apperr.ErrNotFoundData)
	})
}
