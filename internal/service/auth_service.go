package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"onboarding-service/internal/audit"
	"onboarding-service/internal/hashing"
	"onboarding-service/internal/models"
	redisrepo "onboarding-service/internal/repository/redis"
	"onboarding-service/internal/repository/scylla"
	"onboarding-service/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
	ErrWeakPassword       = errors.New("password too short")
)

// minPasswordLength applies to new passwords only; existing hashes verify
// regardless.
const minPasswordLength = 8

// SessionStore is the session persistence contract, satisfied by the Redis
// session cache.
type SessionStore interface {
	Set(session *models.AdminSession, ttl time.Duration) error
	Get(sessionID string) (*models.AdminSession, error)
	Delete(sessionID string) error
	Refresh(sessionID string, ttl time.Duration) error
}

// AuthService handles admin dashboard authentication: login, cookie sessions
// backed by Redis, and password changes.
type AuthService struct {
	adminRepo  scylla.AdminRepositoryInterface
	sessions   SessionStore
	hasher     *hashing.PasswordHasher
	auditor    *audit.Recorder
	sessionTTL time.Duration
}

func NewAuthService(
	adminRepo scylla.AdminRepositoryInterface,
	sessions SessionStore,
	hasher *hashing.PasswordHasher,
	auditor *audit.Recorder,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		adminRepo:  adminRepo,
		sessions:   sessions,
		hasher:     hasher,
		auditor:    auditor,
		sessionTTL: sessionTTL,
	}
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password return the same error so the endpoint cannot be used to enumerate
// accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AdminSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	admin, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, scylla.ErrAdminNotFound) {
			s.recordLoginFailure(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, admin.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.recordLoginFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}

	session := &models.AdminSession{
		SessionID: uuid.New().String(),
		AdminID:   admin.ID,
		Email:     admin.Email,
		Name:      admin.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Set(session, s.sessionTTL); err != nil {
		return nil, err
	}

	if err := s.adminRepo.UpdateLastLogin(admin.Email); err != nil {
		util.Warn("Failed to update last login",
			zap.String("email", admin.Email),
			zap.Error(err))
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.EventLogin, admin.Email, "", "")
	}

	util.Info("Admin logged in", zap.String("email", admin.Email))
	return session, nil
}

func (s *AuthService) recordLoginFailure(ctx context.Context, email string) {
	util.Warn("Failed login attempt", zap.String("email", email))
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.EventLoginFailed, email, "", "")
	}
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// Resolve maps a session cookie back to the logged-in admin, sliding the
// expiry forward on each use.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (*models.AdminSession, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, redisrepo.ErrSessionNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}

	if err := s.sessions.Refresh(sessionID, s.sessionTTL); err != nil {
		util.Warn("Failed to refresh session TTL", zap.Error(err))
	}

	return session, nil
}

// ChangePassword re-verifies the current password before accepting the new
// one, then invalidates the caller's session so the new credential must be
// used immediately.
func (s *AuthService) ChangePassword(ctx context.Context, session *models.AdminSession, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrWeakPassword
	}

	admin, err := s.adminRepo.GetByEmail(session.Email)
	if err != nil {
		if errors.Is(err, scylla.ErrAdminNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	ok, err := s.hasher.Verify(current, admin.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.adminRepo.UpdatePassword(admin.Email, hash); err != nil {
		return err
	}

	if err := s.sessions.Delete(session.SessionID); err != nil {
		util.Warn("Failed to invalidate session after password change", zap.Error(err))
	}

	util.Info("Admin password changed", zap.String("email", admin.Email))
	return nil
}
