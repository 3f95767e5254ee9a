package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Environment: "test",
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Encryption: EncryptionConfig{
			Key: "c2VjcmV0LWtleS1tdXN0LWJlLTMyLWJ5dGVzISE=",
		},
		Session: SessionConfig{
			CookieName: "admin_session",
			TTL:        7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			SubmissionsPerHour: 20,
			Buckets:            64,
		},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name: "no encryption key at all",
			mutate: func(c *Config) {
				c.Encryption.Key = ""
				c.Encryption.WrappedKey = ""
			},
			wantMsg: "FIELD_ENCRYPTION_KEY",
		},
		{
			name: "wrapped key without kms",
			mutate: func(c *Config) {
				c.Encryption.Key = ""
				c.Encryption.WrappedKey = "d3JhcHBlZA=="
			},
			wantMsg: "KMS_ENABLED",
		},
		{
			name: "kms without key id",
			mutate: func(c *Config) {
				c.KMS.Enabled = true
				c.KMS.KeyID = ""
			},
			wantMsg: "KMS_KEY_ID",
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantMsg: "port",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantMsg: "port",
		},
		{
			name: "smtp enabled without host",
			mutate: func(c *Config) {
				c.SMTP.Enabled = true
				c.SMTP.Host = ""
			},
			wantMsg: "SMTP_HOST",
		},
		{
			name:    "non-positive rate limit",
			mutate:  func(c *Config) { c.RateLimit.SubmissionsPerHour = 0 },
			wantMsg: "RATE_LIMIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := validConfig()

	cfg.Environment = "production"
	if !cfg.IsProduction() || cfg.IsDevelopment() {
		t.Error("production environment misreported")
	}

	cfg.Environment = "development"
	if cfg.IsProduction() || !cfg.IsDevelopment() {
		t.Error("development environment misreported")
	}
}

func TestGetServerAddress(t *testing.T) {
	cfg := validConfig()
	if got := cfg.GetServerAddress(); got != "127.0.0.1:8080" {
		t.Errorf("GetServerAddress() = %q", got)
	}
}
