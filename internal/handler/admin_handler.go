package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"onboarding-service/internal/config"
	"onboarding-service/internal/models"
	"onboarding-service/internal/service"
	"onboarding-service/internal/util"
)

// AdminHandler serves the dashboard API. Every route requires a live session.
type AdminHandler struct {
	onboarding *service.OnboardingService
	auth       *service.AuthService
	session    config.SessionConfig
	logger     *zap.Logger
}

func NewAdminHandler(onboarding *service.OnboardingService, auth *service.AuthService, session config.SessionConfig, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		onboarding: onboarding,
		auth:       auth,
		session:    session,
		logger:     logger,
	}
}

func (h *AdminHandler) RegisterRoutes(router chi.Router) {
	router.Route("/admin", func(r chi.Router) {
		r.Use(RequireSession(h.auth, h.session.CookieName))

		r.Get("/applications", h.ListApplications)
		r.Get("/applications/search", h.SearchApplications)
		r.Get("/applications/export", h.ExportApplications)
		r.Delete("/applications", h.DeleteByBusinessName)

		r.Route("/applications/{customerID}", func(r chi.Router) {
			r.Get("/", h.GetApplication)
			r.Patch("/status", h.UpdateStatus)
			r.Delete("/", h.DeleteApplication)
			r.Get("/pdf", h.DownloadPDF)
			r.Get("/reseller-permit", h.DownloadResellerPermit)
		})
	})
}

func (h *AdminHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	views, err := h.onboarding.List(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err, "Failed to list applications")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(views, ""))
}

func (h *AdminHandler) SearchApplications(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("missing query parameter q"), "Search term required")
		return
	}
	status := models.Status(r.URL.Query().Get("status"))

	views, err := h.onboarding.Search(r.Context(), term, status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			respondWithError(w, http.StatusBadRequest, err, "Invalid status filter")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err, "Search failed")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(views, ""))
}

func (h *AdminHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	view, err := h.onboarding.Get(r.Context(), customerID)
	if err != nil {
		respondWithError(w, h.getStatusCode(err), err, "Failed to get application")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(view, ""))
}

type updateStatusRequest struct {
	Status models.Status `json:"status"`
}

func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	session := SessionFromContext(r.Context())
	if err := h.onboarding.UpdateStatus(r.Context(), customerID, req.Status, session.Email); err != nil {
		respondWithError(w, h.getStatusCode(err), err, "Failed to update status")
		return
	}

	h.logger.Info("Application status updated via HTTP",
		util.String("customer_id", customerID),
		util.String("status", string(req.Status)),
		util.String("admin", session.Email),
	)
	respondWithJSON(w, http.StatusOK, successResponse(nil, "Status updated"))
}

func (h *AdminHandler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	session := SessionFromContext(r.Context())
	if err := h.onboarding.Delete(r.Context(), customerID, session.Email); err != nil {
		respondWithError(w, h.getStatusCode(err), err, "Failed to delete application")
		return
	}

	h.logger.Info("Application deleted via HTTP",
		util.String("customer_id", customerID),
		util.String("admin", session.Email),
	)
	respondWithJSON(w, http.StatusOK, successResponse(nil, "Application deleted"))
}

func (h *AdminHandler) DeleteByBusinessName(w http.ResponseWriter, r *http.Request) {
	businessName := r.URL.Query().Get("businessName")
	if businessName == "" {
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("missing query parameter businessName"), "Business name required")
		return
	}

	session := SessionFromContext(r.Context())
	deleted, err := h.onboarding.DeleteByBusinessName(r.Context(), businessName, session.Email)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err, "Failed to delete applications")
		return
	}

	h.logger.Info("Applications deleted by business name via HTTP",
		util.String("business_name", businessName),
		util.Int("count", deleted),
		util.String("admin", session.Email),
	)
	respondWithJSON(w, http.StatusOK, successResponse(map[string]int{"deleted": deleted}, "Applications deleted"))
}

func (h *AdminHandler) ExportApplications(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	session := SessionFromContext(r.Context())
	data, contentType, err := h.onboarding.Export(r.Context(), format, session.Email)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFormat) {
			respondWithError(w, http.StatusBadRequest, err, "Unsupported export format")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err, "Export failed")
		return
	}

	filename := fmt.Sprintf("applications-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)

	h.logger.Info("Applications exported via HTTP",
		util.String("format", format),
		util.String("admin", session.Email),
	)
}

func (h *AdminHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	data, err := h.onboarding.RenderPDF(r.Context(), customerID)
	if err != nil {
		respondWithError(w, h.getStatusCode(err), err, "Failed to render PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "application-"+customerID+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *AdminHandler) DownloadResellerPermit(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	data, contentType, err := h.onboarding.GetResellerPermit(r.Context(), customerID)
	if err != nil {
		respondWithError(w, h.getStatusCode(err), err, "Failed to get reseller permit")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *AdminHandler) getStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNoPermit):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrInvalidFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
