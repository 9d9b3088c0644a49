package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psundaram/drillmaster/internal/middleware"
	chatservice "github.com/psundaram/drillmaster/internal/service/chat"
	"github.com/psundaram/drillmaster/pkg/utils"
)

// Handler exposes the chat routes.
type Handler struct {
	chatSvc *chatservice.Service
}

// New creates the chat handler.
func New(chatSvc *chatservice.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the chat routes. Callers must wrap them with the
// auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat", h.handleHistory)
	r.Post("/chat/send", h.handleSend)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	turns, err := h.chatSvc.History(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"chats": turns})
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.chatSvc.Send(r.Context(), userID, payload.Message)
	if errors.Is(err, chatservice.ErrEmptyMessage) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}
