package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/psundaram/drillmaster/internal/middleware"
	chatservice "github.com/psundaram/drillmaster/internal/service/chat"
	"github.com/psundaram/drillmaster/internal/service/session"
	taskservice "github.com/psundaram/drillmaster/internal/service/task"
	"github.com/psundaram/drillmaster/internal/store"
	"github.com/psundaram/drillmaster/pkg/utils"
)

// activeWindow defines "active" for the dashboard count.
const activeWindow = 24 * time.Hour

// Handler exposes the admin routes.
type Handler struct {
	repo     store.Repository
	chatSvc  *chatservice.Service
	taskSvc  *taskservice.Service
	sessions *session.Service
}

// New creates the admin handler.
func New(repo store.Repository, chatSvc *chatservice.Service, taskSvc *taskservice.Service, sessions *session.Service) *Handler {
	return &Handler{repo: repo, chatSvc: chatSvc, taskSvc: taskSvc, sessions: sessions}
}

// RegisterRoutes mounts the admin routes. Callers must wrap them with the
// auth and admin middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/stats", h.handleStats)
	r.Get("/admin/users", h.handleListUsers)
	r.Get("/admin/users/{userID}", h.handleUserDetail)
	r.Delete("/admin/users/{userID}", h.handleDeleteUser)
	r.Delete("/admin/chats/{chatID}", h.handleDeleteChat)
	r.Get("/admin/system-prompt", h.handleGetSystemPrompt)
	r.Put("/admin/system-prompt", h.handleSetSystemPrompt)
	r.Post("/admin/users/{userID}/message", h.handleInjectMessage)
	r.Post("/admin/users/{userID}/tasks", h.handleAssignTask)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.DashboardStats(r.Context(), time.Now().UTC().Add(-activeWindow))
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) handleUserDetail(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	u, err := h.repo.GetUser(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	chats, err := h.repo.ListChats(r.Context(), userID, 0)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load chats")
		return
	}

	tasks, err := h.taskSvc.List(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load tasks")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"user":  u,
		"chats": chats,
		"tasks": tasks,
	})
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if adminID, ok := middleware.UserID(r.Context()); ok && adminID == userID {
		utils.RespondError(w, http.StatusBadRequest, "you cannot delete your own account")
		return
	}

	err := h.repo.DeleteUser(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	h.sessions.DestroyUser(userID)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	err := h.repo.DeleteChat(r.Context(), chatID)
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete chat")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleGetSystemPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.chatSvc.SystemPrompt(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load system prompt")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"systemPrompt": prompt})
}

func (h *Handler) handleSetSystemPrompt(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SystemPrompt string `json:"systemPrompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.chatSvc.SetSystemPrompt(r.Context(), payload.SystemPrompt)
	if errors.Is(err, chatservice.ErrEmptyMessage) {
		utils.RespondError(w, http.StatusBadRequest, "system prompt cannot be empty")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to update system prompt")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) handleInjectMessage(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if _, err := h.repo.GetUser(r.Context(), userID); errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "user not found")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.chatSvc.InjectSystemMessage(r.Context(), userID, payload.Message)
	if errors.Is(err, chatservice.ErrEmptyMessage) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"status": "sent"})
}

func (h *Handler) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if _, err := h.repo.GetUser(r.Context(), userID); errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "user not found")
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
		utils.RespondError(w, http.StatusInternalServerError, "failed to assign task")
		return
	}

	// Let the persona announce the assignment in the user's chat.
	notice := fmt.Sprintf("I've assigned you a new task: %s. You have %d days to complete it. Don't disappoint me, paaru!",
		payload.Description, payload.Days)
	if err := h.chatSvc.InjectSystemMessage(r.Context(), userID, notice); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "task assigned but notification failed")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, record)
}
