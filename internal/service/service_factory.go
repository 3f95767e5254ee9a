package service

import (
	"time"

	"go.uber.org/zap"

	"onboarding-service/internal/assembler"
	"onboarding-service/internal/audit"
	"onboarding-service/internal/bucketing"
	"onboarding-service/internal/client"
	"onboarding-service/internal/hashing"
	"onboarding-service/internal/notify"
	redisrepo "onboarding-service/internal/repository/redis"
	"onboarding-service/internal/repository/scylla"
	"onboarding-service/internal/search"
)

// ServiceFactory creates and caches service instances
type ServiceFactory struct {
	customerRepo scylla.CustomerRepositoryInterface
	adminRepo    scylla.AdminRepositoryInterface
	assembler    *assembler.Assembler
	sessions     *redisrepo.SessionCache
	rateLimits   *redisrepo.RateLimitCache
	buckets      *bucketing.BucketingManager
	hasher       *hashing.PasswordHasher
	indexer      *search.Indexer
	auditor      *audit.Recorder
	producer     *client.KafkaProducer
	mailer       *notify.Mailer
	webhook      *notify.WebhookNotifier
	logger       *zap.Logger

	sessionTTL         time.Duration
	submissionsPerHour int

	onboardingService *OnboardingService
	authService       *AuthService
}

func NewServiceFactory(
	customerRepo scylla.CustomerRepositoryInterface,
	adminRepo scylla.AdminRepositoryInterface,
	asm *assembler.Assembler,
	sessions *redisrepo.SessionCache,
	rateLimits *redisrepo.RateLimitCache,
	buckets *bucketing.BucketingManager,
	hasher *hashing.PasswordHasher,
	indexer *search.Indexer,
	auditor *audit.Recorder,
	producer *client.KafkaProducer,
	mailer *notify.Mailer,
	webhook *notify.WebhookNotifier,
	logger *zap.Logger,
	sessionTTL time.Duration,
	submissionsPerHour int,
) *ServiceFactory {
	return &ServiceFactory{
		customerRepo:       customerRepo,
		adminRepo:          adminRepo,
		assembler:          asm,
		sessions:           sessions,
		rateLimits:         rateLimits,
		buckets:            buckets,
		hasher:             hasher,
		indexer:            indexer,
		auditor:            auditor,
		producer:           producer,
		mailer:             mailer,
		webhook:            webhook,
		logger:             logger,
		sessionTTL:         sessionTTL,
		submissionsPerHour: submissionsPerHour,
	}
}

// OnboardingService returns the onboarding service instance (singleton)
func (f *ServiceFactory) OnboardingService() *OnboardingService {
	if f.onboardingService == nil {
		f.onboardingService = NewOnboardingService(
			f.customerRepo,
			f.assembler,
			f.rateLimits,
			f.buckets,
			f.indexer,
			f.auditor,
			f.producer,
			f.mailer,
			f.webhook,
			f.submissionsPerHour,
		)
	}
	return f.onboardingService
}

// AuthService returns the auth service instance (singleton)
func (f *ServiceFactory) AuthService() *AuthService {
	if f.authService == nil {
		f.authService = NewAuthService(
			f.adminRepo,
			f.sessions,
			f.hasher,
			f.auditor,
			f.sessionTTL,
		)
	}
	return f.authService
}
