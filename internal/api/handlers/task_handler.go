package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/models"
	"github.com/isdelr/tasker-be/internal/services"
)

// TaskHandler handles HTTP requests for the task list of the current user.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// GetAll lists the tasks of the current user.
func (h *TaskHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// Get returns a single task of the current user.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := taskID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	task, err := h.service.Get(r.Context(), id, user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// Create adds a task to the list of the current user.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var dto models.CreateTaskDto
	if err := decode(w, r, &dto); err != nil {
		respondError(w, err)
		return
	}

	task, err := h.service.Create(r.Context(), dto, user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// Update changes the provided fields of a task of the current user.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := taskID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var dto models.UpdateTaskDto
	if err := decode(w, r, &dto); err != nil {
		respondError(w, err)
		return
	}

	task, err := h.service.Update(r.Context(), id, dto, user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// Delete removes a task of the current user.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := taskID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id, user.ID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id: must be a positive integer")
	}
	return id, nil
}
