package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Version is the application version reported by the root endpoint and logs.
// Overridden at build time with -ldflags "-X .../config.Version=...".
var Version = "1.0.0"

// Config represents the complete application configuration.
// It is built once at process start and passed by reference to every component.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Tenants       TenantConfig
	Observability ObservabilityConfig
	Admin         AdminConfig
	CORS          CORSConfig
	ServiceName   string
	Environment   string
	Version       string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	InitSchema       bool
}

// TenantConfig holds the tenant allowlist.
type TenantConfig struct {
	// ValidTenants is the ordered allowlist parsed from VALID_TENANTS.
	ValidTenants []string
}

// ObservabilityConfig holds logging, tracing, metrics and probe configuration
type ObservabilityConfig struct {
	LogLevel             string
	LogFormat            string // json, logfmt or console
	MetricsEnabled       bool
	TracingEnabled       bool
	TracingAgentHostPort string
	TracingSampleRate    float64
	HealthCheckTimeout   time.Duration
}

// AdminConfig controls the operational endpoints under /admin.
type AdminConfig struct {
	ShutdownEnabled bool
}

// CORSConfig holds cross-origin settings for browser clients.
type CORSConfig struct {
	AllowedOrigins []string
}

var validLogFormats = map[string]bool{
	"json":    true,
	"logfmt":  true,
	"console": true,
}

// New creates a new Config instance by loading environment variables.
// envFiles are loaded with godotenv before reading the environment; values
// already present in the environment win. When no files are given ".env" is tried.
func New(ctx context.Context, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load(".env")
	} else {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env files: %w", err)
		}
	}

	environment := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "demo-api"),
		Environment: environment,
		Version:     getEnv("SERVICE_VERSION", Version),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
		},
		Database: loadDatabaseConfig(),
		Tenants: TenantConfig{
			ValidTenants: ParseList(getEnv("VALID_TENANTS", "tenant-a,tenant-b,tenant-c")),
		},
		Observability: ObservabilityConfig{
			LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
			LogFormat:            strings.ToLower(getEnv("LOG_FORMAT", "json")),
			MetricsEnabled:       getEnvAsBool("METRICS_ENABLED", true),
			TracingEnabled:       getEnvAsBool("TRACING_ENABLED", false),
			TracingAgentHostPort: getEnv("TRACING_AGENT_HOST_PORT", "localhost:6831"),
			TracingSampleRate:    getEnvAsFloat("TRACING_SAMPLE_RATE", 1.0),
			HealthCheckTimeout:   getEnvAsDuration("HEALTH_CHECK_TIMEOUT", 2*time.Second),
		},
		Admin: AdminConfig{
			ShutdownEnabled: getEnvAsBool("ADMIN_SHUTDOWN_ENABLED", !isProductionName(environment)),
		},
		CORS: CORSConfig{
			AllowedOrigins: ParseList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.IsProduction() && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database sslmode=disable is not allowed in production")
		}
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database max open connections must be positive")
	}

	if len(c.Tenants.ValidTenants) == 0 {
		return fmt.Errorf("at least one tenant must be configured in VALID_TENANTS")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Observability.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", c.Observability.LogLevel)
	}
	if c.Observability.LogFormat != "" && !validLogFormats[c.Observability.LogFormat] {
		return fmt.Errorf("invalid log format %q: must be json, logfmt or console", c.Observability.LogFormat)
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return fmt.Errorf("tracing sample rate must be between 0 and 1")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return isProductionName(c.Environment)
}

func isProductionName(env string) bool {
	return env == "production" || env == "prod"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds a URL
// from the individual fields with the configured sslmode.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s sslmode=%s", c.Host, c.Port, c.Database, c.SSLMode)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars.
// The pool defaults mirror a base pool of 10 connections plus 20 overflow.
func loadDatabaseConfig() DatabaseConfig {
	cfg := DatabaseConfig{
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 30),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", time.Minute),
		InitSchema:      getEnvAsBool("DB_INIT_SCHEMA", true),
	}

	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		cfg.ConnectionString = dbURL
		return cfg
	}

	cfg.Host = getEnv("DB_HOST", "localhost")
	cfg.Port = getEnvAsInt("DB_PORT", 5432)
	cfg.User = getEnv("DB_USER", "demo_user")
	cfg.Password = getEnv("DB_PASSWORD", "demo_password")
	cfg.Database = getEnv("DB_NAME", "demo_db")
	cfg.SSLMode = getEnv("DB_SSLMODE", "require")
	return cfg
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ParseList splits a comma-separated value, trimming whitespace around each
// entry and dropping empty entries. Order is preserved.
func ParseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
