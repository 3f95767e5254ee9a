package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"onboarding-service/internal/models"
	"onboarding-service/internal/service"
	"onboarding-service/internal/util"
)

// maxRequestBody caps submission payloads; signatures and permits are data
// URLs and can get large, but not this large.
const maxRequestBody = 10 << 20 // 10 MiB

// ApplicationHandler serves the public submission endpoint.
type ApplicationHandler struct {
	onboarding *service.OnboardingService
	logger     *zap.Logger
}

func NewApplicationHandler(onboarding *service.OnboardingService, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		onboarding: onboarding,
		logger:     logger,
	}
}

func (h *ApplicationHandler) RegisterRoutes(router chi.Router) {
	router.Post("/applications", h.SubmitApplication)
}

// submitResponse is the shape the public form consumes. PDFData is base64 so
// it can travel inside JSON; it is null when rendering failed, with PDFError
// saying why.
type submitResponse struct {
	CustomerID string  `json:"customerId"`
	PDFData    *string `json:"pdfData"`
	PDFError   string  `json:"pdfError,omitempty"`
}

// validationResponse carries per-field messages for a rejected submission.
type validationResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func (h *ApplicationHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var app models.Application
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.onboarding.Submit(ctx, &app, clientIP(r))
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			respondWithJSON(w, http.StatusBadRequest, validationResponse{
				Success: false,
				Error:   "validation failed",
				Fields:  verr.Fields,
			})
		case errors.Is(err, service.ErrRateLimited):
			respondWithError(w, http.StatusTooManyRequests, err, "Too many submissions, try again later")
		default:
			respondWithError(w, http.StatusInternalServerError, err, "Failed to process application")
		}
		return
	}

	resp := submitResponse{CustomerID: result.CustomerID, PDFError: result.PDFError}
	if result.PDFData != nil {
		encoded := base64.StdEncoding.EncodeToString(result.PDFData)
		resp.PDFData = &encoded
	}

	respondWithJSON(w, http.StatusCreated, resp)
	h.logger.Info("Application submitted via HTTP",
		util.String("customer_id", result.CustomerID),
		util.Bool("pdf_generated", result.PDFData != nil),
		util.Duration("duration", time.Since(startTime)),
	)
}

// clientIP trusts middleware.RealIP to have rewritten RemoteAddr from the
// proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
