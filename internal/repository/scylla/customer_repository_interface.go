package scylla

import "onboarding-service/internal/models"

// CustomerRepositoryInterface is the persistence contract for submitted
// applications. Implemented by CustomerRepository; mocked in service tests.
type CustomerRepositoryInterface interface {
	Insert(record *models.CustomerRecord) error
	GetByID(id string) (*models.CustomerRecord, error)
	GetAll() ([]*models.CustomerRecord, error)
	UpdateStatus(id string, status models.Status) error
	Delete(id string) error
	DeleteByBusinessName(businessName string) (int, error)
}

// AdminRepositoryInterface is the persistence contract for dashboard accounts.
type AdminRepositoryInterface interface {
	Insert(admin *models.AdminUser) error
	GetByEmail(email string) (*models.AdminUser, error)
	UpdateLastLogin(email string) error
	UpdatePassword(email, passwordHash string) error
}
