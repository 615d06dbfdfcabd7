package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	SMTP     SMTPConfig

	// ClientURL is the frontend origin, used for CORS and reset links
	ClientURL string

	// UploadsDir is where avatar uploads are stored
	UploadsDir string

	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AuthConfig holds token and password settings
type AuthConfig struct {
	// TokenSecret signs bearer tokens. Startup fails when empty.
	TokenSecret string

	// TokenLifetime is how long issued bearer tokens stay valid
	TokenLifetime time.Duration

	// ResetTokenLifetime is how long password reset tokens stay valid
	ResetTokenLifetime time.Duration

	// ResetSweepInterval is how often expired reset tokens are purged
	ResetSweepInterval time.Duration
}

// SMTPConfig holds mail delivery configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("ONCOURSE_HOST", "0.0.0.0"),
			Port:            getEnv("ONCOURSE_PORT", "5000"),
			ReadTimeout:     getEnvDuration("ONCOURSE_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("ONCOURSE_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("ONCOURSE_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("ONCOURSE_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("ONCOURSE_DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("ONCOURSE_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("ONCOURSE_DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("ONCOURSE_DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Auth: AuthConfig{
			TokenSecret:        getEnv("ONCOURSE_JWT_SECRET", ""),
			TokenLifetime:      getEnvDuration("ONCOURSE_JWT_LIFETIME", 24*time.Hour),
			ResetTokenLifetime: getEnvDuration("ONCOURSE_RESET_TOKEN_LIFETIME", time.Hour),
			ResetSweepInterval: getEnvDuration("ONCOURSE_RESET_SWEEP_INTERVAL", 15*time.Minute),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("ONCOURSE_SMTP_HOST", ""),
			Port:     getEnvInt("ONCOURSE_SMTP_PORT", 465),
			Username: getEnv("ONCOURSE_SMTP_USERNAME", ""),
			Password: getEnv("ONCOURSE_SMTP_PASSWORD", ""),
			From:     getEnv("ONCOURSE_SMTP_FROM", ""),
		},
		ClientURL:      getEnv("ONCOURSE_CLIENT_URL", "http://localhost:3000"),
		UploadsDir:     getEnv("ONCOURSE_UPLOADS_DIR", "uploads"),
		LogLevel:       parseLogLevel(getEnv("ONCOURSE_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("ONCOURSE_METRICS_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.TokenLifetime <= 0 {
		return fmt.Errorf("JWT lifetime must be positive")
	}
	if c.Auth.ResetTokenLifetime <= 0 {
		return fmt.Errorf("reset token lifetime must be positive")
	}
	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
