// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"portfolio/internal/blob"
	"portfolio/internal/notify"
)

const defaultJWTSecret = "change-me-in-production"

// AuthConfig holds token and admin account settings.
type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
	AdminEmail        string
}

// StorageConfig selects the entity store backend.
type StorageConfig struct {
	Driver      string
	DatabaseDSN string
	SeedFile    string
}

// RabbitMQConfig holds the broker settings. An empty URL disables publishing.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// TracingConfig holds OpenTelemetry exporter settings.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Protocol    string
}

// AppConfig is the complete application configuration.
type AppConfig struct {
	Port        string
	Env         string
	LogLevel    string
	LogFormat   string
	CORSOrigins string

	Auth     AuthConfig
	Storage  StorageConfig
	RabbitMQ RabbitMQConfig
	MinIO    blob.MinIOConfig
	SMTP     notify.Config
	Tracing  TracingConfig
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// New returns a viper instance with defaults set and environment lookup enabled.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("ADMIN_EMAIL", "")

	v.SetDefault("STORAGE_DRIVER", "memory")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("SEED_FILE", "")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "contact_queue")

	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("CONTACT_NOTIFY_TO", "")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "portfolio")
	v.SetDefault("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")

	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// FromViper builds an AppConfig from v and validates it.
func FromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Port:        normalizePort(v.GetString("APP_PORT")),
		Env:         v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
		CORSOrigins: v.GetString("CORS_ALLOWED_ORIGINS"),
		Auth: AuthConfig{
			JWTSecret:         v.GetString("JWT_SECRET"),
			TokenTTL:          v.GetDuration("TOKEN_TTL"),
			AdminUsername:     v.GetString("ADMIN_USERNAME"),
			AdminPassword:     v.GetString("ADMIN_PASSWORD"),
			AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
			AdminEmail:        v.GetString("ADMIN_EMAIL"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("STORAGE_DRIVER")),
			DatabaseDSN: v.GetString("DATABASE_DSN"),
			SeedFile:    v.GetString("SEED_FILE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("RABBITMQ_QUEUE"),
		},
		MinIO: blob.MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		SMTP: notify.Config{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
			To:       v.GetString("CONTACT_NOTIFY_TO"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
			Protocol:    v.GetString("OTEL_EXPORTER_OTLP_PROTOCOL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads .env, then the environment, and returns the validated config.
func Load() (*AppConfig, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return FromViper(New())
}

func (c *AppConfig) validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: want memory, sqlite or postgres", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required for the postgres driver")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.IsProduction() && c.Auth.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.SMTP.Host != "" && c.SMTP.To == "" {
		return errors.New("CONTACT_NOTIFY_TO is required when SMTP_HOST is set")
	}
	if c.SMTP.Port < 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("invalid SMTP_PORT %d", c.SMTP.Port)
	}
	switch c.Tracing.Protocol {
	case "grpc", "http/protobuf":
	default:
		return fmt.Errorf("unsupported OTEL_EXPORTER_OTLP_PROTOCOL %q", c.Tracing.Protocol)
	}
	return nil
}

func normalizePort(port string) string {
	if port != "" && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
