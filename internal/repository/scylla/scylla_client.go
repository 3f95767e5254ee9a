package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"onboarding-service/internal/config"
	"onboarding-service/internal/util"
)

const customerColumns = `id, business_name, main_email, main_contact_rep, phone, asi_number,
        business_type, years_in_business, ein_number_encrypted, estimated_annual_business,
        average_order_size, billing_address, billing_city, billing_state, billing_zip,
        billing_contact, billing_phone, billing_email, shipping_address, shipping_city,
        shipping_state, shipping_zip, shipping_contact, shipping_phone, payment_method,
        payment_card_last4, payment_card_type, payment_account_last4, payment_account_type,
        payment_authorizations_encrypted, signature_data, reseller_permit, status,
        submission_date, created_at, updated_at`

// Statements holds the CQL text used by the repositories. Queries are built
// per call from these strings: a bound *gocql.Query is not safe for
// concurrent use, and gocql prepares and caches each statement server-side on
// first execution anyway.
type Statements struct {
	InsertCustomer           string
	GetCustomerByID          string
	GetAllCustomers          string
	UpdateCustomerStatus     string
	DeleteCustomer           string
	GetCustomerIDsByBusiness string
	InsertAdminUser          string
	GetAdminUserByEmail      string
	UpdateAdminLastLogin     string
	UpdateAdminPassword      string
}

type ScyllaClient struct {
	Session *gocql.Session
	config  *config.ScyllaConfig
	Stmts   *Statements
}

func NewScyllaClient(cfg *config.Config, logger *zap.Logger) (*ScyllaClient, error) {
	scyllaConfig := cfg.Scylla

	cluster := gocql.NewCluster(scyllaConfig.Nodes...)
	cluster.Keyspace = scyllaConfig.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	cluster.NumConns = 4
	cluster.SocketKeepalive = 30 * time.Second
	cluster.MaxPreparedStmts = 1000
	cluster.PageSize = 1000
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		Min:        time.Second,
		Max:        10 * time.Second,
		NumRetries: 3,
	}

	if scyllaConfig.Username != "" && scyllaConfig.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: scyllaConfig.Username,
			Password: scyllaConfig.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create scylla session: %w", err)
	}

	client := &ScyllaClient{
		Session: session,
		config:  &scyllaConfig,
		Stmts:   buildStatements(),
	}

	util.Info("ScyllaDB client initialized",
		zap.Strings("nodes", scyllaConfig.Nodes),
		zap.String("keyspace", scyllaConfig.Keyspace))

	return client, nil
}

func buildStatements() *Statements {
	placeholders := "?"
	for i := 1; i < 36; i++ {
		placeholders += ", ?"
	}

	return &Statements{
		InsertCustomer: fmt.Sprintf(`
        INSERT INTO customers (%s) VALUES (%s)`, customerColumns, placeholders),

		GetCustomerByID: fmt.Sprintf(`
        SELECT %s FROM customers WHERE id = ?`, customerColumns),

		GetAllCustomers: fmt.Sprintf(`
        SELECT %s FROM customers`, customerColumns),

		UpdateCustomerStatus: `
        UPDATE customers SET status = ?, updated_at = ? WHERE id = ? IF EXISTS`,

		DeleteCustomer: `
        DELETE FROM customers WHERE id = ?`,

		GetCustomerIDsByBusiness: `
        SELECT id FROM customers WHERE business_name = ? ALLOW FILTERING`,

		InsertAdminUser: `
        INSERT INTO admin_users (email, id, password_hash, name, created_at, last_login)
        VALUES (?, ?, ?, ?, ?, ?)`,

		GetAdminUserByEmail: `
        SELECT email, id, password_hash, name, created_at, last_login
        FROM admin_users WHERE email = ?`,

		UpdateAdminLastLogin: `
        UPDATE admin_users SET last_login = ? WHERE email = ?`,

		UpdateAdminPassword: `
        UPDATE admin_users SET password_hash = ? WHERE email = ?`,
	}
}

func (s *ScyllaClient) Close() {
	if s.Session != nil {
		s.Session.Close()
		util.Info("ScyllaDB client closed")
	}
}

func (s *ScyllaClient) Query(stmt string, values ...interface{}) *gocql.Query {
	return s.Session.Query(stmt, values...)
}

func (s *ScyllaClient) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var clusterName string
	err := s.Session.Query(`SELECT cluster_name FROM system.local`).WithContext(ctx).Scan(&clusterName)
	if err != nil {
		return fmt.Errorf("scylla health check failed: %w", err)
	}

	util.Debug("ScyllaDB health check passed", zap.String("cluster_name", clusterName))
	return nil
}

func (s *ScyllaClient) ExecuteWithRetry(query *gocql.Query, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := query.Exec(); err != nil {
			lastErr = err
			if i < maxRetries {
				time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}

func (s *ScyllaClient) ScanWithRetry(query *gocql.Query, dest ...interface{}) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		if err := query.Scan(dest...); err != nil {
			lastErr = err
			if err == gocql.ErrNotFound {
				return err
			}
			if i < 2 {
				time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}
