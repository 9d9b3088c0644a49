// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"context"
	"net/http"

	"github.com/psundaram/drillmaster/internal/service/session"
	"github.com/psundaram/drillmaster/internal/store"
	"github.com/psundaram/drillmaster/pkg/utils"
)

// SessionCookie names the cookie carrying the session token.
const SessionCookie = "session_token"

type contextKey string

const userIDKey contextKey = "userID"

// UserID extracts the authenticated user id from a request context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// RequireAuth rejects requests without a valid session and stores the
// user id on the request context.
func RequireAuth(sessions *session.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, ok := sessions.Get(cookie.Value)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "session expired")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects authenticated requests from non-admin accounts.
// It must run after RequireAuth.
func RequireAdmin(repo store.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserID(r.Context())
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			u, err := repo.GetUser(r.Context(), userID)
			if err != nil || !u.IsAdmin {
				utils.RespondError(w, http.StatusForbidden, "admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
