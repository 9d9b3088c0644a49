package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	adminHandler "github.com/psundaram/drillmaster/internal/handler/admin"
	authHandler "github.com/psundaram/drillmaster/internal/handler/auth"
	chatHandler "github.com/psundaram/drillmaster/internal/handler/chat"
	taskHandler "github.com/psundaram/drillmaster/internal/handler/task"
	"github.com/psundaram/drillmaster/internal/middleware"
	authService "github.com/psundaram/drillmaster/internal/service/auth"
	chatService "github.com/psundaram/drillmaster/internal/service/chat"
	"github.com/psundaram/drillmaster/internal/service/session"
	taskService "github.com/psundaram/drillmaster/internal/service/task"
	"github.com/psundaram/drillmaster/internal/store"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(repo store.Repository, authSvc *authService.Service, chatSvc *chatService.Service, taskSvc *taskService.Service, sessions *session.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	auth := authHandler.New(authSvc, sessions, repo)
	chat := chatHandler.New(chatSvc)
	task := taskHandler.New(taskSvc)
	admin := adminHandler.New(repo, chatSvc, taskSvc, sessions)

	r.Route("/api", func(api chi.Router) {
		auth.RegisterRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireAuth(sessions))

			auth.RegisterProtectedRoutes(protected)
			chat.RegisterRoutes(protected)
			task.RegisterRoutes(protected)

			protected.Group(func(adminOnly chi.Router) {
				adminOnly.Use(middleware.RequireAdmin(repo))
				admin.RegisterRoutes(adminOnly)
			})
		})
	})

	return r
}
