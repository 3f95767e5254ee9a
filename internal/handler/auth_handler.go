package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"onboarding-service/internal/config"
	"onboarding-service/internal/service"
)

// AuthHandler serves admin login, logout and session introspection.
type AuthHandler struct {
	auth    *service.AuthService
	session config.SessionConfig
	logger  *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, session config.SessionConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		session: session,
		logger:  logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/login", h.Login)
	router.Post("/auth/logout", h.Logout)

	router.Group(func(r chi.Router) {
		r.Use(RequireSession(h.auth, h.session.CookieName))
		r.Get("/auth/session", h.Session)
		r.Post("/auth/change-password", h.ChangePassword)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, err, "Login failed")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err, "Login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.session.CookieName,
		Value:    session.SessionID,
		Path:     "/",
		MaxAge:   int(h.session.TTL / time.Second),
		HttpOnly: true,
		Secure:   h.session.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	respondWithJSON(w, http.StatusOK, successResponse(sessionResponse{
		Email: session.Email,
		Name:  session.Name,
	}, "Logged in"))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.session.CookieName); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("Failed to drop session on logout", zap.Error(err))
		}
	}

	// Expire the cookie regardless of whether a session existed.
	http.SetCookie(w, &http.Cookie{
		Name:     h.session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.session.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Logged out"))
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	respondWithJSON(w, http.StatusOK, successResponse(sessionResponse{
		Email: session.Email,
		Name:  session.Name,
	}, ""))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	session := SessionFromContext(r.Context())
	err := h.auth.ChangePassword(r.Context(), session, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondWithError(w, http.StatusUnauthorized, err, "Password change failed")
		case errors.Is(err, service.ErrWeakPassword):
			respondWithError(w, http.StatusBadRequest, err, "Password change failed")
		default:
			respondWithError(w, http.StatusInternalServerError, err, "Password change failed")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Password changed, log in again"))
}
