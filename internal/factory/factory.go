package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"onboarding-service/internal/assembler"
	"onboarding-service/internal/audit"
	"onboarding-service/internal/bucketing"
	"onboarding-service/internal/client"
	"onboarding-service/internal/config"
	"onboarding-service/internal/encryption"
	"onboarding-service/internal/hashing"
	"onboarding-service/internal/notify"
	redisrepo "onboarding-service/internal/repository/redis"
	"onboarding-service/internal/repository/scylla"
	"onboarding-service/internal/search"
	"onboarding-service/internal/service"
	"onboarding-service/internal/util"
)

// Factory manages the lifecycle of all application dependencies. Required
// backends (Scylla, Redis, the field cipher) abort startup when unavailable;
// optional ones (Kafka, Elasticsearch, ClickHouse, SMTP) degrade to nil and
// the services skip them.
type Factory struct {
	config *config.Config

	// Clients
	redisClient      *client.RedisClient
	scyllaClient     *scylla.ScyllaClient
	kafkaProducer    *client.KafkaProducer
	esClient         *client.ESClient
	clickhouseClient *client.ClickHouseClient

	// Managers
	fieldCipher      *encryption.FieldCipher
	recordAssembler  *assembler.Assembler
	passwordHasher   *hashing.PasswordHasher
	bucketingManager *bucketing.BucketingManager

	// Repositories and caches
	customerRepository scylla.CustomerRepositoryInterface
	adminRepository    scylla.AdminRepositoryInterface
	sessionCache       *redisrepo.SessionCache
	rateLimitCache     *redisrepo.RateLimitCache

	// Side-effect collaborators
	indexer         *search.Indexer
	auditRecorder   *audit.Recorder
	mailer          *notify.Mailer
	webhookNotifier *notify.WebhookNotifier

	serviceFactory *service.ServiceFactory

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if err := factory.initializeCipher(); err != nil {
		return nil, err
	}
	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}
	factory.initializeManagers()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("kms_enabled", cfg.KMS.Enabled),
		util.Bool("kafka_enabled", factory.kafkaProducer != nil),
		util.Bool("elasticsearch_enabled", factory.esClient != nil),
		util.Bool("clickhouse_enabled", factory.clickhouseClient != nil),
		util.Bool("smtp_enabled", factory.mailer != nil),
	)

	return factory, nil
}

// initializeCipher loads the field key and refuses to start without it.
func (f *Factory) initializeCipher() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key, err := encryption.LoadFieldKey(ctx, f.config)
	if err != nil {
		return fmt.Errorf("field encryption key unavailable, refusing to start: %w", err)
	}

	cipher, err := encryption.NewFieldCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create field cipher: %w", err)
	}

	f.fieldCipher = cipher
	util.Info("Field cipher initialized")
	return nil
}

// initializeClients initializes external service clients with health checks
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Redis (required: sessions and rate limiting)
	redisClient, err := client.NewRedisClient(f.config, util.Get())
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	f.redisClient = redisClient
	if err := f.redisClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("redis health check: %w", err)
	}

	// ScyllaDB (required: record store)
	scyllaClient, err := scylla.NewScyllaClient(f.config, util.Get())
	if err != nil {
		return fmt.Errorf("scylla: %w", err)
	}
	f.scyllaClient = scyllaClient
	if err := f.scyllaClient.HealthCheck(); err != nil {
		return fmt.Errorf("scylla health check: %w", err)
	}

	// Kafka (optional)
	if f.config.Kafka.Enabled {
		producer, err := client.NewKafkaProducer(f.config, util.Get())
		if err != nil {
			util.Warn("Kafka producer initialization failed - proceeding without Kafka", util.ErrorField(err))
		} else {
			f.kafkaProducer = producer
		}
	}

	// Elasticsearch (optional)
	if f.config.Elasticsearch.Enabled {
		esClient, err := client.NewElasticsearchClient(f.config, util.Get())
		if err != nil {
			util.Warn("Elasticsearch initialization failed - search falls back to table scan", util.ErrorField(err))
		} else {
			f.esClient = esClient
		}
	}

	// ClickHouse (optional)
	if f.config.Clickhouse.Enabled {
		chClient, err := client.NewClickHouseClient(f.config, util.Get())
		if err != nil {
			util.Warn("ClickHouse initialization failed - proceeding without audit trail", util.ErrorField(err))
		} else {
			f.clickhouseClient = chClient
		}
	}

	return nil
}

// initializeManagers builds the pure in-process collaborators
func (f *Factory) initializeManagers() {
	f.recordAssembler = assembler.New(f.fieldCipher)
	f.passwordHasher = hashing.NewPasswordHasher()
	f.bucketingManager = bucketing.NewBucketingManager(f.config.RateLimit.Buckets)

	if f.esClient != nil {
		f.indexer = search.NewIndexer(f.esClient)
	}
	if f.clickhouseClient != nil {
		f.auditRecorder = audit.NewRecorder(f.clickhouseClient, f.bucketingManager)
	}
	if f.config.SMTP.Enabled {
		mailer, err := notify.NewMailer(f.config)
		if err != nil {
			util.Warn("Mailer initialization failed - proceeding without email", util.ErrorField(err))
		} else {
			f.mailer = mailer
		}
	}
	if f.config.Webhook.URL != "" {
		f.webhookNotifier = notify.NewWebhookNotifier(f.config)
	}
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) CustomerRepository() scylla.CustomerRepositoryInterface {
	if f.customerRepository == nil {
		f.customerRepository = scylla.NewCustomerRepository(f.scyllaClient, util.Get())
	}
	return f.customerRepository
}

func (f *Factory) AdminRepository() scylla.AdminRepositoryInterface {
	if f.adminRepository == nil {
		f.adminRepository = scylla.NewAdminRepository(f.scyllaClient, util.Get())
	}
	return f.adminRepository
}

func (f *Factory) SessionCache() *redisrepo.SessionCache {
	if f.sessionCache == nil {
		f.sessionCache = redisrepo.NewSessionCache(f.redisClient)
	}
	return f.sessionCache
}

func (f *Factory) RateLimitCache() *redisrepo.RateLimitCache {
	if f.rateLimitCache == nil {
		f.rateLimitCache = redisrepo.NewRateLimitCache(f.redisClient)
	}
	return f.rateLimitCache
}

func (f *Factory) ServiceFactory() *service.ServiceFactory {
	if f.serviceFactory == nil {
		f.serviceFactory = service.NewServiceFactory(
			f.CustomerRepository(),
			f.AdminRepository(),
			f.recordAssembler,
			f.SessionCache(),
			f.RateLimitCache(),
			f.bucketingManager,
			f.passwordHasher,
			f.indexer,
			f.auditRecorder,
			f.kafkaProducer,
			f.mailer,
			f.webhookNotifier,
			util.Get(),
			f.config.Session.TTL,
			f.config.RateLimit.SubmissionsPerHour,
		)
	}
	return f.serviceFactory
}

// HealthCheck reports per-dependency errors; optional dependencies that were
// disabled are simply absent from the map.
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	} else {
		healthErrors["redis"] = fmt.Errorf("redis client not initialized")
	}

	if f.scyllaClient != nil {
		if err := f.scyllaClient.HealthCheck(); err != nil {
			healthErrors["scylla"] = err
		}
	} else {
		healthErrors["scylla"] = fmt.Errorf("scylla client not initialized")
	}

	if f.esClient != nil {
		if err := f.esClient.HealthCheck(); err != nil {
			healthErrors["elasticsearch"] = err
		}
	}
	if f.clickhouseClient != nil {
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			healthErrors["clickhouse"] = err
		}
	}
	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}

	return healthErrors
}

func (f *Factory) IsHealthy(ctx context.Context) bool {
	return len(f.HealthCheck(ctx)) == 0
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.Close(); err != nil {
				util.Error("Failed to close ClickHouse client", util.ErrorField(err))
			}
		}
		if f.esClient != nil {
			f.esClient.Close()
		}
		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			}
		}
		if f.scyllaClient != nil {
			f.scyllaClient.Close()
		}
		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			}
		}

		util.Info("Factory shutdown complete")
	})
	return nil
}
