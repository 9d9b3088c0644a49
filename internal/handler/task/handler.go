package task

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psundaram/drillmaster/internal/middleware"
	taskservice "github.com/psundaram/drillmaster/internal/service/task"
	"github.com/psundaram/drillmaster/pkg/utils"
)

// Handler exposes the task routes.
type Handler struct {
	taskSvc *taskservice.Service
}

// New creates the task handler.
func New(taskSvc *taskservice.Service) *Handler {
	return &Handler{taskSvc: taskSvc}
}

// RegisterRoutes mounts the task routes. Callers must wrap them with the
// auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/tasks", h.handleList)
	r.Post("/tasks", h.handleAdd)
	r.Post("/tasks/{taskID}/complete", h.handleComplete)
	r.Delete("/tasks/{taskID}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	tasks, err := h.taskSvc.List(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load tasks")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		Description string `json:"description"`
		Days        int    `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Days == 0 {
		payload.Days = 1
	}

	record, err := h.taskSvc.Assign(r.Context(), userID, payload.Description, payload.Days)
	if errors.Is(err, taskservice.ErrEmptyDescription) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to add task")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	taskID := chi.URLParam(r, "taskID")
	err := h.taskSvc.Complete(r.Context(), taskID, userID)
	if errors.Is(err, taskservice.ErrTaskNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to complete task")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	taskID := chi.URLParam(r, "taskID")
	err := h.taskSvc.Delete(r.Context(), taskID, userID)
	if errors.Is(err, taskservice.ErrTaskNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
