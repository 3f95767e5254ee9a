package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"onboarding-service/internal/config"
	"onboarding-service/internal/models"
	"onboarding-service/internal/util"
)

// WebhookNotifier POSTs a submission event to an external endpoint, for
// deployments that feed a CRM instead of (or alongside) email. The payload
// mirrors the search summary: contact fields only, no secrets.
type WebhookNotifier struct {
	httpClient *http.Client
	config     *config.WebhookConfig
}

type webhookPayload struct {
	Event          string    `json:"event"`
	CustomerID     string    `json:"customerId"`
	BusinessName   string    `json:"businessName"`
	MainEmail      string    `json:"mainEmail"`
	MainContactRep string    `json:"mainContactRep"`
	PaymentMethod  string    `json:"paymentMethod"`
	SubmissionDate time.Time `json:"submissionDate"`
}

func NewWebhookNotifier(cfg *config.Config) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		config:     &cfg.Webhook,
	}
}

func (w *WebhookNotifier) SendSubmissionEvent(ctx context.Context, record *models.CustomerRecord) error {
	if w.config.URL == "" {
		return nil
	}

	payload := webhookPayload{
		Event:          "application.submitted",
		CustomerID:     record.ID,
		BusinessName:   record.BusinessName,
		MainEmail:      record.MainEmail,
		MainContactRep: record.MainContactRep,
		PaymentMethod:  string(record.PaymentMethod),
		SubmissionDate: record.SubmissionDate,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.config.Secret != "" {
		req.Header.Set("Authorization", "Bearer "+w.config.Secret)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		util.Error("Webhook delivery failed",
			zap.String("customer_id", record.ID),
			zap.Error(err))
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		util.Error("Webhook endpoint rejected event",
			zap.String("customer_id", record.ID),
			zap.Int("status_code", resp.StatusCode))
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	util.Info("Webhook event delivered", zap.String("customer_id", record.ID))
	return nil
}
