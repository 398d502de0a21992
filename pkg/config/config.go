// Package config loads application configuration from an optional YAML
// file overlaid with VETRINA_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/session"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all application configuration
type Config struct {
	Environment string `yaml:"environment"`

	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Redis   RedisConfig   `yaml:"redis"`
	SSO     SSOConfig     `yaml:"sso"`
	Payment PaymentConfig `yaml:"payment"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	Driver       storage.Driver `yaml:"driver"`
	DSN          string         `yaml:"dsn"`
	MaxOpenConns int            `yaml:"max_open_conns"`
	MaxIdleConns int            `yaml:"max_idle_conns"`
	Seed         bool           `yaml:"seed"`
}

// AuthConfig holds session and token configuration
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenValidity   time.Duration `yaml:"token_validity"`
	CleanupSchedule string        `yaml:"cleanup_schedule"`

	// UsingDevSecret is set when no secret was configured and the
	// well-known development fallback is in use. Startup refuses this
	// in production.
	UsingDevSecret bool `yaml:"-"`
}

// RedisConfig holds the optional Redis connection used for distributed
// login rate limiting
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SSOConfig holds the optional OIDC identity provider settings
type SSOConfig struct {
	Enabled      bool   `yaml:"enabled"`
	IssuerURL    string `yaml:"issuer_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// PaymentConfig holds the payment provider settings. When no base URL
// is configured, checkout uses the accept-all provider suitable for
// development.
type PaymentConfig struct {
	BaseURL      string `yaml:"base_url"`
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig builds configuration from defaults, an optional YAML file
// named by VETRINA_CONFIG_FILE, and VETRINA_* environment overrides,
// in that order
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("VETRINA_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = auth.DevFallbackSecret
		cfg.Auth.UsingDevSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Driver:       storage.DriverSQLite,
			DSN:          "vetrina.db",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			Seed:         true,
		},
		Auth: AuthConfig{
			TokenValidity:   auth.DefaultTokenValidity,
			CleanupSchedule: session.DefaultCleanupSchedule,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("VETRINA_ENV", c.Environment)

	c.Server.Host = getEnv("VETRINA_HOST", c.Server.Host)
	c.Server.Port = getEnv("VETRINA_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("VETRINA_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("VETRINA_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("VETRINA_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("VETRINA_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Storage.Driver = storage.Driver(getEnv("VETRINA_DB_DRIVER", string(c.Storage.Driver)))
	c.Storage.DSN = getEnv("VETRINA_DB_DSN", c.Storage.DSN)
	c.Storage.MaxOpenConns = getEnvInt("VETRINA_DB_MAX_OPEN_CONNS", c.Storage.MaxOpenConns)
	c.Storage.MaxIdleConns = getEnvInt("VETRINA_DB_MAX_IDLE_CONNS", c.Storage.MaxIdleConns)
	c.Storage.Seed = getEnvBool("VETRINA_DB_SEED", c.Storage.Seed)

	c.Auth.JWTSecret = getEnv("VETRINA_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenValidity = getEnvDuration("VETRINA_TOKEN_VALIDITY", c.Auth.TokenValidity)
	c.Auth.CleanupSchedule = getEnv("VETRINA_SESSION_CLEANUP_SCHEDULE", c.Auth.CleanupSchedule)

	c.Redis.Enabled = getEnvBool("VETRINA_REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("VETRINA_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("VETRINA_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("VETRINA_REDIS_DB", c.Redis.DB)

	c.SSO.Enabled = getEnvBool("VETRINA_SSO_ENABLED", c.SSO.Enabled)
	c.SSO.IssuerURL = getEnv("VETRINA_SSO_ISSUER_URL", c.SSO.IssuerURL)
	c.SSO.ClientID = getEnv("VETRINA_SSO_CLIENT_ID", c.SSO.ClientID)
	c.SSO.ClientSecret = getEnv("VETRINA_SSO_CLIENT_SECRET", c.SSO.ClientSecret)
	c.SSO.RedirectURL = getEnv("VETRINA_SSO_REDIRECT_URL", c.SSO.RedirectURL)

	c.Payment.BaseURL = getEnv("VETRINA_PAYMENT_BASE_URL", c.Payment.BaseURL)
	c.Payment.TokenURL = getEnv("VETRINA_PAYMENT_TOKEN_URL", c.Payment.TokenURL)
	c.Payment.ClientID = getEnv("VETRINA_PAYMENT_CLIENT_ID", c.Payment.ClientID)
	c.Payment.ClientSecret = getEnv("VETRINA_PAYMENT_CLIENT_SECRET", c.Payment.ClientSecret)

	c.Log.Level = getEnv("VETRINA_LOG_LEVEL", c.Log.Level)
}

// IsProduction reports whether the app runs with production hardening
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// SecureCookies reports whether session cookies carry the Secure flag
func (c *Config) SecureCookies() bool {
	return c.IsProduction()
}

// StorageConfig converts to the storage package's connection config
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Driver:       c.Storage.Driver,
		DSN:          c.Storage.DSN,
		MaxOpenConns: c.Storage.MaxOpenConns,
		MaxIdleConns: c.Storage.MaxIdleConns,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Storage.Driver {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return fmt.Errorf("invalid storage driver: %s (must be %s or %s)",
			c.Storage.Driver, storage.DriverSQLite, storage.DriverPostgres)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage DSN is required")
	}

	if c.IsProduction() && c.Auth.UsingDevSecret {
		return fmt.Errorf("VETRINA_JWT_SECRET is required in production")
	}
	if c.Auth.TokenValidity <= 0 {
		return fmt.Errorf("token validity must be positive")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.SSO.Enabled {
		if c.SSO.IssuerURL == "" || c.SSO.ClientID == "" || c.SSO.ClientSecret == "" || c.SSO.RedirectURL == "" {
			return fmt.Errorf("SSO requires issuer URL, client ID, client secret, and redirect URL")
		}
	}

	if c.Payment.BaseURL != "" {
		if c.Payment.TokenURL == "" || c.Payment.ClientID == "" || c.Payment.ClientSecret == "" {
			return fmt.Errorf("payment provider requires token URL, client ID, and client secret")
		}
	}

	return nil
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
