package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psundaram/drillmaster/internal/middleware"
	authservice "github.com/psundaram/drillmaster/internal/service/auth"
	"github.com/psundaram/drillmaster/internal/service/session"
	"github.com/psundaram/drillmaster/internal/store"
	"github.com/psundaram/drillmaster/pkg/utils"
)

// Handler exposes signup, login and profile routes.
type Handler struct {
	authSvc  *authservice.Service
	sessions *session.Service
	repo     store.Repository
}

// New creates the auth handler.
func New(authSvc *authservice.Service, sessions *session.Service, repo store.Repository) *Handler {
	return &Handler{authSvc: authSvc, sessions: sessions, repo: repo}
}

// RegisterRoutes mounts the public auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.handleSignUp)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
}

// RegisterProtectedRoutes mounts routes that need a session.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/profile", h.handleProfile)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var payload credentials
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.authSvc.SignUp(r.Context(), payload.Email, payload.Password)
	switch {
	case errors.Is(err, authservice.ErrMissingFields):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, authservice.ErrEmailTaken):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "failed to create account")
	default:
		utils.RespondJSON(w, http.StatusCreated, u)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload credentials
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.authSvc.Login(r.Context(), payload.Email, payload.Password)
	switch {
	case errors.Is(err, authservice.ErrMissingFields):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, authservice.ErrInvalidCredentials):
		utils.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	sess := h.sessions.Create(u.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	utils.RespondJSON(w, http.StatusOK, u)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		h.sessions.Destroy(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	u, err := h.repo.GetUser(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	utils.RespondJSON(w, http.StatusOK, u)
}
