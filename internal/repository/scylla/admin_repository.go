package scylla

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"onboarding-service/internal/models"
	"onboarding-service/internal/util"
)

// ErrAdminNotFound is returned when no dashboard account exists for an email.
var ErrAdminNotFound = fmt.Errorf("admin user not found")

type AdminRepository struct {
	client *ScyllaClient
}

func NewAdminRepository(client *ScyllaClient, logger *zap.Logger) *AdminRepository {
	return &AdminRepository{
		client: client,
	}
}

func (r *AdminRepository) Insert(admin *models.AdminUser) error {
	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}

	query := r.client.Query(r.client.Stmts.InsertAdminUser,
		admin.Email, admin.ID, admin.PasswordHash, admin.Name,
		admin.CreatedAt, admin.LastLogin)

	if err := r.client.ExecuteWithRetry(query, 3); err != nil {
		util.Error("Failed to insert admin user",
			zap.String("email", admin.Email),
			zap.Error(err))
		return fmt.Errorf("failed to insert admin user: %w", err)
	}

	util.Info("Admin user created",
		zap.String("email", admin.Email),
		zap.String("admin_id", admin.ID))

	return nil
}

func (r *AdminRepository) GetByEmail(email string) (*models.AdminUser, error) {
	admin := &models.AdminUser{}

	query := r.client.Query(r.client.Stmts.GetAdminUserByEmail, email)

	err := r.client.ScanWithRetry(query,
		&admin.Email, &admin.ID, &admin.PasswordHash, &admin.Name,
		&admin.CreatedAt, &admin.LastLogin)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrAdminNotFound
		}
		util.Error("Failed to get admin user",
			zap.String("email", email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	return admin, nil
}

func (r *AdminRepository) UpdateLastLogin(email string) error {
	query := r.client.Query(r.client.Stmts.UpdateAdminLastLogin, time.Now().UTC(), email)

	if err := r.client.ExecuteWithRetry(query, 3); err != nil {
		util.Error("Failed to update admin last login",
			zap.String("email", email),
			zap.Error(err))
		return fmt.Errorf("failed to update admin last login: %w", err)
	}

	return nil
}

func (r *AdminRepository) UpdatePassword(email, passwordHash string) error {
	query := r.client.Query(r.client.Stmts.UpdateAdminPassword, passwordHash, email)

	if err := r.client.ExecuteWithRetry(query, 3); err != nil {
		util.Error("Failed to update admin password",
			zap.String("email", email),
			zap.Error(err))
		return fmt.Errorf("failed to update admin password: %w", err)
	}

	util.Info("Admin password updated", zap.String("email", email))
	return nil
}
