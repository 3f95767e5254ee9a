package handler

import (
	"context"
	"errors"
	"net/http"

	"onboarding-service/internal/models"
	"onboarding-service/internal/service"
)

type contextKey string

const sessionContextKey contextKey = "admin_session"

// RequireSession resolves the session cookie and stores the admin session in
// the request context. Requests with no cookie or a dead session get 401.
func RequireSession(auth *service.AuthService, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil {
				respondWithJSON(w, http.StatusUnauthorized, Response{
					Success: false,
					Error:   "authentication required",
				})
				return
			}

			session, err := auth.Resolve(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, service.ErrSessionExpired) {
					respondWithJSON(w, http.StatusUnauthorized, Response{
						Success: false,
						Error:   "session expired",
					})
					return
				}
				respondWithError(w, http.StatusInternalServerError, err, "Session lookup failed")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the admin session placed by RequireSession. It
// is only valid behind that middleware; elsewhere it returns nil.
func SessionFromContext(ctx context.Context) *models.AdminSession {
	session, _ := ctx.Value(sessionContextKey).(*models.AdminSession)
	return session
}
