package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"onboarding-service/internal/assembler"
	"onboarding-service/internal/audit"
	"onboarding-service/internal/bucketing"
	"onboarding-service/internal/client"
	"onboarding-service/internal/models"
	"onboarding-service/internal/notify"
	"onboarding-service/internal/render"
	redisrepo "onboarding-service/internal/repository/redis"
	"onboarding-service/internal/repository/scylla"
	"onboarding-service/internal/search"
	"onboarding-service/internal/util"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidFormat = errors.New("invalid export format")
	ErrRateLimited   = errors.New("too many submissions")
	ErrNoPermit      = errors.New("no reseller permit on file")
)

// rateLimitWindow is the rolling window for public submission throttling.
const rateLimitWindow = time.Hour

// fanoutTimeout bounds the post-insert side effects so a slow broker or SMTP
// server cannot hold the submission response.
const fanoutTimeout = 15 * time.Second

// SubmitResult is what a successful submission returns to the caller. PDFData
// is nil when rendering failed; PDFError then explains why. The record itself
// is stored either way.
type SubmitResult struct {
	CustomerID string
	PDFData    []byte
	PDFError   string
}

// submissionEvent is the Kafka payload published after each stored
// application. Digest fields only, no secrets.
type submissionEvent struct {
	CustomerID     string    `json:"customerId"`
	BusinessName   string    `json:"businessName"`
	PaymentMethod  string    `json:"paymentMethod"`
	Status         string    `json:"status"`
	SubmissionDate time.Time `json:"submissionDate"`
}

// OnboardingService owns the application lifecycle: public submission and the
// admin review operations. The search indexer, event producer, auditor,
// mailer and webhook are optional; a nil collaborator disables that side
// effect without changing the core flow.
type OnboardingService struct {
	customerRepo scylla.CustomerRepositoryInterface
	assembler    *assembler.Assembler
	rateLimits   *redisrepo.RateLimitCache
	buckets      *bucketing.BucketingManager
	indexer      *search.Indexer
	auditor      *audit.Recorder
	producer     *client.KafkaProducer
	mailer       *notify.Mailer
	webhook      *notify.WebhookNotifier

	submissionsPerHour int
}

func NewOnboardingService(
	customerRepo scylla.CustomerRepositoryInterface,
	asm *assembler.Assembler,
	rateLimits *redisrepo.RateLimitCache,
	buckets *bucketing.BucketingManager,
	indexer *search.Indexer,
	auditor *audit.Recorder,
	producer *client.KafkaProducer,
	mailer *notify.Mailer,
	webhook *notify.WebhookNotifier,
	submissionsPerHour int,
) *OnboardingService {
	return &OnboardingService{
		customerRepo:       customerRepo,
		assembler:          asm,
		rateLimits:         rateLimits,
		buckets:            buckets,
		indexer:            indexer,
		auditor:            auditor,
		producer:           producer,
		mailer:             mailer,
		webhook:            webhook,
		submissionsPerHour: submissionsPerHour,
	}
}

// Submit validates, encrypts and stores a new application, then kicks off the
// best-effort side effects. clientIP feeds the rate limiter; pass "" to skip
// throttling (tests, internal tooling).
func (s *OnboardingService) Submit(ctx context.Context, app *models.Application, clientIP string) (*SubmitResult, error) {
	if err := s.checkRateLimit(clientIP); err != nil {
		return nil, err
	}

	if err := app.Validate(); err != nil {
		return nil, err
	}

	record, err := s.assembler.ToRecord(app)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble record: %w", err)
	}

	if err := s.customerRepo.Insert(record); err != nil {
		return nil, err
	}

	result := &SubmitResult{CustomerID: record.ID}

	// The submitter's copy carries digests only; full card numbers never
	// travel back over the wire.
	view := s.assembler.ToView(record)
	pdfData, err := render.PDF(view, true)
	if err != nil {
		util.Warn("Submission stored but PDF generation failed",
			zap.String("customer_id", record.ID),
			zap.Error(err))
		result.PDFError = "PDF generation failed"
	} else {
		result.PDFData = pdfData
	}

	// Side effects are best-effort and must not hold the submitter's
	// response; fanOut bounds itself with its own timeout.
	go s.fanOut(record, result.PDFData)

	return result, nil
}

func (s *OnboardingService) checkRateLimit(clientIP string) error {
	if s.rateLimits == nil || clientIP == "" {
		return nil
	}

	bucket := fmt.Sprintf("%d:%d",
		s.buckets.GetClientBucket(clientIP),
		s.buckets.GetWindowBucket(int(rateLimitWindow.Seconds())))

	count, err := s.rateLimits.IncrementSubmissions(bucket, rateLimitWindow)
	if err != nil {
		// Redis being down must not take public submissions with it.
		util.Warn("Rate limit check unavailable", zap.Error(err))
		return nil
	}
	if count > s.submissionsPerHour {
		return ErrRateLimited
	}
	return nil
}

// fanOut runs the post-insert side effects concurrently. Every branch logs
// its own failure and returns nil: the submission already succeeded and none
// of these may undo that.
func (s *OnboardingService) fanOut(record *models.CustomerRecord, pdfData []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if s.producer != nil {
		g.Go(func() error {
			event := submissionEvent{
				CustomerID:     record.ID,
				BusinessName:   record.BusinessName,
				PaymentMethod:  string(record.PaymentMethod),
				Status:         string(record.Status),
				SubmissionDate: record.SubmissionDate,
			}
			payload, err := json.Marshal(event)
			if err == nil {
				err = s.producer.Publish(ctx, record.ID, payload)
			}
			if err != nil {
				util.Warn("Failed to publish submission event",
					zap.String("customer_id", record.ID),
					zap.Error(err))
			}
			return nil
		})
	}

	if s.indexer != nil {
		g.Go(func() error {
			if err := s.indexer.IndexRecord(ctx, record); err != nil {
				util.Warn("Failed to index submission",
					zap.String("customer_id", record.ID),
					zap.Error(err))
			}
			return nil
		})
	}

	if s.auditor != nil {
		g.Go(func() error {
			s.auditor.Record(ctx, audit.EventSubmission, "public", record.ID, string(record.PaymentMethod))
			return nil
		})
	}

	if s.mailer != nil {
		g.Go(func() error {
			if err := s.mailer.SendSubmissionNotice(ctx, record, pdfData); err != nil {
				util.Warn("Failed to send submission notice",
					zap.String("customer_id", record.ID),
					zap.Error(err))
			}
			return nil
		})
	}

	if s.webhook != nil {
		g.Go(func() error {
			if err := s.webhook.SendSubmissionEvent(ctx, record); err != nil {
				util.Warn("Failed to deliver submission webhook",
					zap.String("customer_id", record.ID),
					zap.Error(err))
			}
			return nil
		})
	}

	g.Wait()
}

// List returns every application newest first as digest-only summaries.
// Decrypted fields are served one record at a time through Get, the PDF
// download and the export path, never in bulk list responses.
func (s *OnboardingService) List(ctx context.Context) ([]*models.ApplicationView, error) {
	records, err := s.customerRepo.GetAll()
	if err != nil {
		return nil, err
	}

	views := make([]*models.ApplicationView, 0, len(records))
	for _, record := range records {
		views = append(views, s.assembler.ToSummary(record))
	}
	return views, nil
}

func (s *OnboardingService) Get(ctx context.Context, id string) (*models.ApplicationView, error) {
	record, err := s.customerRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.assembler.ToView(record), nil
}

// Search resolves a free-text term against the search index, falling back to
// an in-memory scan of the record store when no index is configured. Results
// are digest-only summaries, like List.
func (s *OnboardingService) Search(ctx context.Context, term string, status models.Status) ([]*models.ApplicationView, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}

	if s.indexer == nil {
		return s.searchByScan(ctx, term, status)
	}

	ids, err := s.indexer.SearchIDs(ctx, term, status)
	if err != nil {
		return nil, err
	}

	views := make([]*models.ApplicationView, 0, len(ids))
	for _, id := range ids {
		record, err := s.customerRepo.GetByID(id)
		if err != nil {
			if errors.Is(err, scylla.ErrRecordNotFound) {
				// Index lag after a delete; skip the stale hit.
				continue
			}
			return nil, err
		}
		views = append(views, s.assembler.ToSummary(record))
	}
	return views, nil
}

func (s *OnboardingService) searchByScan(ctx context.Context, term string, status models.Status) ([]*models.ApplicationView, error) {
	records, err := s.customerRepo.GetAll()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	var views []*models.ApplicationView
	for _, record := range records {
		if status != "" && record.Status != status {
			continue
		}
		haystack := strings.ToLower(strings.Join([]string{
			record.BusinessName, record.MainEmail, record.MainContactRep,
			record.Phone, record.BillingCity, record.BillingState,
		}, " "))
		if strings.Contains(haystack, needle) {
			views = append(views, s.assembler.ToSummary(record))
		}
	}
	return views, nil
}

// UpdateStatus moves an application between review states. actor is the
// admin email, recorded in the audit trail.
func (s *OnboardingService) UpdateStatus(ctx context.Context, id string, status models.Status, actor string) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	if err := s.customerRepo.UpdateStatus(id, status); err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if s.indexer != nil {
		if record, err := s.customerRepo.GetByID(id); err == nil {
			if err := s.indexer.IndexRecord(ctx, record); err != nil {
				util.Warn("Failed to reindex after status change",
					zap.String("customer_id", id),
					zap.Error(err))
			}
		}
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.EventStatusChange, actor, id, string(status))
	}

	return nil
}

func (s *OnboardingService) Delete(ctx context.Context, id, actor string) error {
	if err := s.customerRepo.Delete(id); err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if s.indexer != nil {
		if err := s.indexer.DeleteRecord(ctx, id); err != nil {
			util.Warn("Failed to remove deleted record from index",
				zap.String("customer_id", id),
				zap.Error(err))
		}
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.EventDelete, actor, id, "")
	}

	return nil
}

// DeleteByBusinessName removes every application for an exact business name
// and returns the number deleted. Zero matches is not an error.
func (s *OnboardingService) DeleteByBusinessName(ctx context.Context, businessName, actor string) (int, error) {
	deleted, err := s.customerRepo.DeleteByBusinessName(businessName)
	if err != nil {
		return deleted, err
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.EventDelete, actor, "", fmt.Sprintf("business_name=%s count=%d", businessName, deleted))
	}

	return deleted, nil
}

// Export renders every application in the requested format, fully decrypted;
// it is only reachable behind admin authentication. Returned content type is
// ready for the response header.
func (s *OnboardingService) Export(ctx context.Context, format, actor string) ([]byte, string, error) {
	records, err := s.customerRepo.GetAll()
	if err != nil {
		return nil, "", err
	}

	views := make([]*models.ApplicationView, 0, len(records))
	for _, record := range records {
		views = append(views, s.assembler.ToView(record))
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "csv":
		data, err = render.CSV(views)
		contentType = "text/csv"
	case "json":
		data, err = render.JSON(views)
		contentType = "application/json"
	default:
		return nil, "", ErrInvalidFormat
	}
	if err != nil {
		return nil, "", err
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.EventExport, actor, "", format)
	}

	return data, contentType, nil
}

// RenderPDF produces the full admin copy of an application, unmasked.
func (s *OnboardingService) RenderPDF(ctx context.Context, id string) ([]byte, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return render.PDF(view, false)
}

// GetResellerPermit decodes the stored permit data URL into raw bytes plus a
// content type for download.
func (s *OnboardingService) GetResellerPermit(ctx context.Context, id string) ([]byte, string, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if view.ResellerPermit == "" {
		return nil, "", ErrNoPermit
	}

	contentType, data, err := decodeDataURL(view.ResellerPermit)
	if err != nil {
		return nil, "", fmt.Errorf("stored permit is unreadable: %w", err)
	}
	return data, contentType, nil
}

func decodeDataURL(dataURL string) (string, []byte, error) {
	const marker = ";base64,"

	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}
	idx := strings.Index(dataURL, marker)
	if idx < 0 {
		return "", nil, fmt.Errorf("missing base64 payload")
	}

	contentType := dataURL[len("data:"):idx]
	data, err := base64.StdEncoding.DecodeString(dataURL[idx+len(marker):])
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return contentType, data, nil
}
