package scylla

import (
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"onboarding-service/internal/models"
	"onboarding-service/internal/util"
)

// ErrRecordNotFound is returned when a customer id has no row.
var ErrRecordNotFound = fmt.Errorf("customer record not found")

type CustomerRepository struct {
	client *ScyllaClient
}

func NewCustomerRepository(client *ScyllaClient, logger *zap.Logger) *CustomerRepository {
	return &CustomerRepository{
		client: client,
	}
}

func (r *CustomerRepository) Insert(record *models.CustomerRecord) error {
	query := r.client.Query(r.client.Stmts.InsertCustomer, customerValues(record)...)

	if err := r.client.ExecuteWithRetry(query, 3); err != nil {
		util.Error("Failed to insert customer record",
			zap.String("customer_id", record.ID),
			zap.String("business_name", record.BusinessName),
			zap.Error(err))
		return fmt.Errorf("failed to insert customer record: %w", err)
	}

	util.Info("Customer record inserted",
		zap.String("customer_id", record.ID),
		zap.String("business_name", record.BusinessName),
		zap.String("payment_method", string(record.PaymentMethod)))

	return nil
}

func (r *CustomerRepository) GetByID(id string) (*models.CustomerRecord, error) {
	record := &models.CustomerRecord{}

	query := r.client.Query(r.client.Stmts.GetCustomerByID, id)

	if err := r.client.ScanWithRetry(query, customerScanDest(record)...); err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		util.Error("Failed to get customer record",
			zap.String("customer_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get customer record: %w", err)
	}

	return record, nil
}

// GetAll returns every stored record, newest submission first. Ordering is
// applied here because the table is partitioned by id and Scylla cannot sort
// across partitions.
func (r *CustomerRepository) GetAll() ([]*models.CustomerRecord, error) {
	iter := r.client.Query(r.client.Stmts.GetAllCustomers).Iter()

	var records []*models.CustomerRecord
	for {
		record := &models.CustomerRecord{}
		if !iter.Scan(customerScanDest(record)...) {
			break
		}
		records = append(records, record)
	}

	if err := iter.Close(); err != nil {
		util.Error("Failed to list customer records", zap.Error(err))
		return nil, fmt.Errorf("failed to list customer records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].SubmissionDate.After(records[j].SubmissionDate)
	})

	return records, nil
}

// UpdateStatus flips the review state with a conditional update so that a
// delete racing with an approval cannot resurrect the row.
func (r *CustomerRepository) UpdateStatus(id string, status models.Status) error {
	query := r.client.Query(r.client.Stmts.UpdateCustomerStatus, string(status), time.Now().UTC(), id)

	applied, err := query.ScanCAS()
	if err != nil {
		util.Error("Failed to update customer status",
			zap.String("customer_id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return fmt.Errorf("failed to update customer status: %w", err)
	}
	if !applied {
		return ErrRecordNotFound
	}

	util.Info("Customer status updated",
		zap.String("customer_id", id),
		zap.String("status", string(status)))

	return nil
}

func (r *CustomerRepository) Delete(id string) error {
	// Read first so deleting a missing id is reported, not silently applied.
	if _, err := r.GetByID(id); err != nil {
		return err
	}

	query := r.client.Query(r.client.Stmts.DeleteCustomer, id)
	if err := r.client.ExecuteWithRetry(query, 3); err != nil {
		util.Error("Failed to delete customer record",
			zap.String("customer_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to delete customer record: %w", err)
	}

	util.Info("Customer record deleted", zap.String("customer_id", id))
	return nil
}

// DeleteByBusinessName removes every record matching the exact business name
// and returns how many rows were deleted.
func (r *CustomerRepository) DeleteByBusinessName(businessName string) (int, error) {
	iter := r.client.Query(r.client.Stmts.GetCustomerIDsByBusiness, businessName).Iter()

	var ids []string
	var id string
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		util.Error("Failed to find records by business name",
			zap.String("business_name", businessName),
			zap.Error(err))
		return 0, fmt.Errorf("failed to find records by business name: %w", err)
	}

	deleted := 0
	for _, id := range ids {
		query := r.client.Query(r.client.Stmts.DeleteCustomer, id)
		if err := r.client.ExecuteWithRetry(query, 3); err != nil {
			util.Error("Failed to delete customer record",
				zap.String("customer_id", id),
				zap.String("business_name", businessName),
				zap.Error(err))
			return deleted, fmt.Errorf("failed to delete customer record %s: %w", id, err)
		}
		deleted++
	}

	util.Info("Customer records deleted by business name",
		zap.String("business_name", businessName),
		zap.Int("count", deleted))

	return deleted, nil
}

// customerValues lists bind values in customerColumns order.
func customerValues(r *models.CustomerRecord) []interface{} {
	return []interface{}{
		r.ID, r.BusinessName, r.MainEmail, r.MainContactRep, r.Phone, r.ASINumber,
		r.BusinessType, r.YearsInBusiness, r.EINNumberEncrypted, r.EstimatedAnnualBusiness,
		r.AverageOrderSize, r.BillingAddress, r.BillingCity, r.BillingState, r.BillingZip,
		r.BillingContact, r.BillingPhone, r.BillingEmail, r.ShippingAddress, r.ShippingCity,
		r.ShippingState, r.ShippingZip, r.ShippingContact, r.ShippingPhone, string(r.PaymentMethod),
		r.PaymentCardLast4, r.PaymentCardType, r.PaymentAccountLast4, r.PaymentAccountType,
		r.PaymentAuthorizationsEncrypted, r.SignatureData, r.ResellerPermit, string(r.Status),
		r.SubmissionDate, r.CreatedAt, r.UpdatedAt,
	}
}

// customerScanDest lists scan targets in customerColumns order.
func customerScanDest(r *models.CustomerRecord) []interface{} {
	return []interface{}{
		&r.ID, &r.BusinessName, &r.MainEmail, &r.MainContactRep, &r.Phone, &r.ASINumber,
		&r.BusinessType, &r.YearsInBusiness, &r.EINNumberEncrypted, &r.EstimatedAnnualBusiness,
		&r.AverageOrderSize, &r.BillingAddress, &r.BillingCity, &r.BillingState, &r.BillingZip,
		&r.BillingContact, &r.BillingPhone, &r.BillingEmail, &r.ShippingAddress, &r.ShippingCity,
		&r.ShippingState, &r.ShippingZip, &r.ShippingContact, &r.ShippingPhone, &r.PaymentMethod,
		&r.PaymentCardLast4, &r.PaymentCardType, &r.PaymentAccountLast4, &r.PaymentAccountType,
		&r.PaymentAuthorizationsEncrypted, &r.SignatureData, &r.ResellerPermit, &r.Status,
		&r.SubmissionDate, &r.CreatedAt, &r.UpdatedAt,
	}
}
