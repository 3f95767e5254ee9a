package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"onboarding-service/internal/client"
	"onboarding-service/internal/models"
	"onboarding-service/internal/util"
)

// summaryDocument is the searchable projection of a customer record. Only
// cleartext columns are indexed; the EIN and payment secrets never reach
// Elasticsearch.
type summaryDocument struct {
	BusinessName   string    `json:"business_name"`
	MainEmail      string    `json:"main_email"`
	MainContactRep string    `json:"main_contact_rep"`
	Phone          string    `json:"phone"`
	BusinessType   string    `json:"business_type"`
	BillingCity    string    `json:"billing_city"`
	BillingState   string    `json:"billing_state"`
	PaymentMethod  string    `json:"payment_method"`
	Status         string    `json:"status"`
	SubmissionDate time.Time `json:"submission_date"`
}

// Indexer keeps the admin search index in step with the record store.
type Indexer struct {
	es *client.ESClient
}

func NewIndexer(es *client.ESClient) *Indexer {
	return &Indexer{es: es}
}

func (i *Indexer) IndexRecord(ctx context.Context, record *models.CustomerRecord) error {
	doc := summaryDocument{
		BusinessName:   record.BusinessName,
		MainEmail:      record.MainEmail,
		MainContactRep: record.MainContactRep,
		Phone:          record.Phone,
		BusinessType:   record.BusinessType,
		BillingCity:    record.BillingCity,
		BillingState:   record.BillingState,
		PaymentMethod:  string(record.PaymentMethod),
		Status:         string(record.Status),
		SubmissionDate: record.SubmissionDate,
	}

	if err := i.es.Index(ctx, record.ID, doc); err != nil {
		util.Error("Failed to index customer record",
			zap.String("customer_id", record.ID),
			zap.Error(err))
		return fmt.Errorf("failed to index customer record: %w", err)
	}

	return nil
}

func (i *Indexer) DeleteRecord(ctx context.Context, id string) error {
	if err := i.es.Delete(ctx, id); err != nil {
		util.Error("Failed to remove record from search index",
			zap.String("customer_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to remove record from search index: %w", err)
	}
	return nil
}

// SearchIDs returns record ids matching a free-text term, newest first. An
// optional status narrows the result.
func (i *Indexer) SearchIDs(ctx context.Context, term string, status models.Status) ([]string, error) {
	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query": term,
				"fields": []string{
					"business_name^3", "main_email", "main_contact_rep",
					"phone", "billing_city", "billing_state",
				},
				"fuzziness": "AUTO",
			},
		},
	}
	if status != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"status": string(status)},
		})
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
		"sort": []map[string]interface{}{
			{"submission_date": map[string]interface{}{"order": "desc"}},
		},
		"size": 100,
	}

	ids, err := i.es.Search(ctx, query)
	if err != nil {
		util.Error("Search query failed",
			zap.String("term", term),
			zap.Error(err))
		return nil, fmt.Errorf("search query failed: %w", err)
	}

	return ids, nil
}
