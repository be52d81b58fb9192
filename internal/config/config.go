package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Engine    EngineConfig
	Jobs      JobsConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
	Metrics   MetricsConfig
	LogLevel  string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// RedisConfig holds leaderboard cache settings. Disabled means boards are
// cached in process memory.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// EngineConfig holds progression engine settings
type EngineConfig struct {
	// CatalogPath is a YAML catalog; empty uses the embedded default
	CatalogPath        string
	XPPerLevel         int64
	Timezone           string
	WeekendMultiplier  float64
	MaxPointsPerAction int64
}

// JobsConfig holds background job intervals
type JobsConfig struct {
	LeaderboardRefreshInterval time.Duration
	ChallengeExpiryInterval    time.Duration
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// AdminConfig holds the credential for /v1/admin routes. KeyHash, a bcrypt
// hash of the key, takes precedence over APIKey.
type AdminConfig struct {
	APIKey  string
	KeyHash string
}

// MetricsConfig controls the /metrics endpoint. Basic auth is applied when
// both credentials are set.
type MetricsConfig struct {
	Enabled  bool
	User     string
	Password string
}

// Load reads an optional .env file, then configuration from environment
// variables with sensible defaults. Variables already set in the
// environment win over the file.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "ascend"),
			Database:  getEnv("DB_DATABASE", "main"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Engine: EngineConfig{
			CatalogPath:        getEnv("ENGINE_CATALOG_PATH", ""),
			XPPerLevel:         int64(getIntEnv("ENGINE_XP_PER_LEVEL", 100)),
			Timezone:           getEnv("ENGINE_TIMEZONE", "UTC"),
			WeekendMultiplier:  getFloatEnv("ENGINE_WEEKEND_MULTIPLIER", 1.0),
			MaxPointsPerAction: int64(getIntEnv("ENGINE_MAX_POINTS_PER_ACTION", 500)),
		},
		Jobs: JobsConfig{
			LeaderboardRefreshInterval: getDurationEnv("LEADERBOARD_REFRESH_INTERVAL", 5*time.Minute),
			ChallengeExpiryInterval:    getDurationEnv("CHALLENGE_EXPIRY_INTERVAL", time.Hour),
		},
		RateLimit: RateLimitConfig{
			RPS:   getFloatEnv("RATE_LIMIT_RPS", 10),
			Burst: getIntEnv("RATE_LIMIT_BURST", 30),
		},
		Admin: AdminConfig{
			APIKey:  getEnv("ADMIN_API_KEY", ""),
			KeyHash: getEnv("ADMIN_API_KEY_HASH", ""),
		},
		Metrics: MetricsConfig{
			Enabled:  getBoolEnv("METRICS_ENABLED", true),
			User:     getEnv("METRICS_USER", ""),
			Password: getEnv("METRICS_PASSWORD", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// SlogLevel parses LogLevel; unknown values fall back to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Location resolves the engine's calendar-day timezone
func (e EngineConfig) Location() (*time.Location, error) {
	return time.LoadLocation(e.Timezone)
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when REDIS_ENABLED is true"))
	}

	// Engine validation
	if c.Engine.XPPerLevel <= 0 {
		errs = append(errs, errors.New("ENGINE_XP_PER_LEVEL must be positive"))
	}
	if _, err := c.Engine.Location(); err != nil {
		errs = append(errs, fmt.Errorf("ENGINE_TIMEZONE: %w", err))
	}
	if c.Engine.WeekendMultiplier < 1 {
		errs = append(errs, errors.New("ENGINE_WEEKEND_MULTIPLIER must be at least 1"))
	}
	if c.Engine.MaxPointsPerAction < 0 {
		errs = append(errs, errors.New("ENGINE_MAX_POINTS_PER_ACTION must not be negative"))
	}

	// Job validation
	if c.Jobs.LeaderboardRefreshInterval <= 0 {
		errs = append(errs, errors.New("LEADERBOARD_REFRESH_INTERVAL must be positive"))
	}
	if c.Jobs.ChallengeExpiryInterval <= 0 {
		errs = append(errs, errors.New("CHALLENGE_EXPIRY_INTERVAL must be positive"))
	}

	if c.RateLimit.RPS <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive"))
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be positive"))
	}

	// Admin routes must be protected in production
	if c.IsProduction() && c.Admin.APIKey == "" && c.Admin.KeyHash == "" {
		errs = append(errs, errors.New("ADMIN_API_KEY or ADMIN_API_KEY_HASH is required in production"))
	}
	if c.Admin.KeyHash != "" && !strings.HasPrefix(c.Admin.KeyHash, "$2") {
		errs = append(errs, errors.New("ADMIN_API_KEY_HASH must be a bcrypt hash"))
	}

	if (c.Metrics.User == "") != (c.Metrics.Password == "") {
		errs = append(errs, errors.New("METRICS_USER and METRICS_PASSWORD must be set together"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
