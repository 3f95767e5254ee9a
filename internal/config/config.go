package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"onboarding-service/internal/util"
)

// Config holds every runtime setting for the onboarding service. Values are
// read from the environment once at startup; .env files are honored in
// development.
type Config struct {
	Environment string

	Server        ServerConfig
	Logging       LoggingConfig
	Scylla        ScyllaConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Elasticsearch ElasticsearchConfig
	Clickhouse    ClickhouseConfig
	KMS           KMSConfig
	Encryption    EncryptionConfig
	SMTP          SMTPConfig
	Webhook       WebhookConfig
	Session       SessionConfig
	RateLimit     RateLimitConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CertFile     string
	KeyFile      string

	AllowedOrigins []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ScyllaConfig struct {
	Nodes    []string
	Keyspace string
	Username string
	Password string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type ElasticsearchConfig struct {
	Enabled  bool
	URL      string
	Username string
	Password string
	Index    string
}

type ClickhouseConfig struct {
	Enabled  bool
	URL      string
	Database string
	Username string
	Password string
}

type KMSConfig struct {
	Enabled bool
	KeyID   string
	Region  string
}

// EncryptionConfig carries the field-encryption key material. Exactly one of
// Key (base64, 32 bytes) or WrappedKey (base64 KMS ciphertext, requires
// KMS.Enabled) must be set; there is no built-in default key.
type EncryptionConfig struct {
	Key        string
	WrappedKey string
}

type SMTPConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AdminEmail string
}

type WebhookConfig struct {
	URL    string
	Secret string
}

type SessionConfig struct {
	CookieName   string
	TTL          time.Duration
	SecureCookie bool
}

type RateLimitConfig struct {
	SubmissionsPerHour int
	Buckets            int
}

// LoadConfig reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	env := util.GetEnv("ENVIRONMENT", "development")

	cfg := &Config{
		Environment: env,
		Server: ServerConfig{
			Host:         util.GetEnv("SERVER_HOST", "0.0.0.0"),
			Port:         util.GetEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  util.GetEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: util.GetEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  util.GetEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			CertFile:     util.GetEnv("SERVER_CERT_FILE", ""),
			KeyFile:      util.GetEnv("SERVER_KEY_FILE", ""),

			AllowedOrigins: util.GetEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Logging: LoggingConfig{
			Level:  util.GetEnv("LOG_LEVEL", "info"),
			Format: util.GetEnv("LOG_FORMAT", "console"),
		},
		Scylla: ScyllaConfig{
			Nodes:    util.GetEnvList("SCYLLA_NODES", []string{"127.0.0.1:9042"}),
			Keyspace: util.GetEnv("SCYLLA_KEYSPACE", "onboarding"),
			Username: util.GetEnv("SCYLLA_USERNAME", ""),
			Password: util.GetEnv("SCYLLA_PASSWORD", ""),
		},
		Redis: RedisConfig{
			URL:      util.GetEnv("REDIS_URL", "redis://127.0.0.1:6379"),
			Password: util.GetEnv("REDIS_PASSWORD", ""),
			DB:       util.GetEnvInt("REDIS_DB", 0),
			PoolSize: util.GetEnvInt("REDIS_POOL_SIZE", 20),
		},
		Kafka: KafkaConfig{
			Enabled: util.GetEnvBool("KAFKA_ENABLED", false),
			Brokers: util.GetEnvList("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
			Topic:   util.GetEnv("KAFKA_TOPIC", "customer-applications"),
		},
		Elasticsearch: ElasticsearchConfig{
			Enabled:  util.GetEnvBool("ELASTICSEARCH_ENABLED", false),
			URL:      util.GetEnv("ELASTICSEARCH_URL", "http://127.0.0.1:9200"),
			Username: util.GetEnv("ELASTICSEARCH_USERNAME", ""),
			Password: util.GetEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:    util.GetEnv("ELASTICSEARCH_INDEX", "customer-applications"),
		},
		Clickhouse: ClickhouseConfig{
			Enabled:  util.GetEnvBool("CLICKHOUSE_ENABLED", false),
			URL:      util.GetEnv("CLICKHOUSE_URL", "127.0.0.1:9000"),
			Database: util.GetEnv("CLICKHOUSE_DATABASE", "onboarding"),
			Username: util.GetEnv("CLICKHOUSE_USERNAME", "default"),
			Password: util.GetEnv("CLICKHOUSE_PASSWORD", ""),
		},
		KMS: KMSConfig{
			Enabled: util.GetEnvBool("KMS_ENABLED", false),
			KeyID:   util.GetEnv("KMS_KEY_ID", ""),
			Region:  util.GetEnv("AWS_REGION", "us-east-1"),
		},
		Encryption: EncryptionConfig{
			Key:        util.GetEnv("FIELD_ENCRYPTION_KEY", ""),
			WrappedKey: util.GetEnv("FIELD_ENCRYPTION_KEY_WRAPPED", ""),
		},
		SMTP: SMTPConfig{
			Enabled:    util.GetEnvBool("SMTP_ENABLED", false),
			Host:       util.GetEnv("SMTP_HOST", ""),
			Port:       util.GetEnvInt("SMTP_PORT", 587),
			Username:   util.GetEnv("SMTP_USER", ""),
			Password:   util.GetEnv("SMTP_PASS", ""),
			From:       util.GetEnv("SMTP_FROM", "noreply@localhost"),
			AdminEmail: util.GetEnv("ADMIN_NOTIFY_EMAIL", ""),
		},
		Webhook: WebhookConfig{
			URL:    util.GetEnv("WEBHOOK_URL", ""),
			Secret: util.GetEnv("WEBHOOK_SECRET", ""),
		},
		Session: SessionConfig{
			CookieName:   util.GetEnv("SESSION_COOKIE_NAME", "admin_session"),
			TTL:          util.GetEnvDuration("SESSION_TTL", 7*24*time.Hour),
			SecureCookie: util.GetEnvBool("SESSION_SECURE_COOKIE", env == "production"),
		},
		RateLimit: RateLimitConfig{
			SubmissionsPerHour: util.GetEnvInt("RATE_LIMIT_SUBMISSIONS_PER_HOUR", 20),
			Buckets:            util.GetEnvInt("RATE_LIMIT_BUCKETS", 64),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the service must not start with. The field
// encryption key is load-bearing: a deployment without one would either store
// secrets in the clear or invent a guessable default, so its absence is a
// startup failure in every environment.
func (c *Config) Validate() error {
	if c.Encryption.Key == "" && c.Encryption.WrappedKey == "" {
		return fmt.Errorf("config: FIELD_ENCRYPTION_KEY or FIELD_ENCRYPTION_KEY_WRAPPED must be set")
	}
	if c.Encryption.WrappedKey != "" && !c.KMS.Enabled {
		return fmt.Errorf("config: FIELD_ENCRYPTION_KEY_WRAPPED requires KMS_ENABLED=true")
	}
	if c.KMS.Enabled && c.KMS.KeyID == "" {
		return fmt.Errorf("config: KMS_ENABLED requires KMS_KEY_ID")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.SMTP.Enabled && c.SMTP.Host == "" {
		return fmt.Errorf("config: SMTP_ENABLED requires SMTP_HOST")
	}
	if c.RateLimit.SubmissionsPerHour <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_SUBMISSIONS_PER_HOUR must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
