// Package config manages application configuration for the Ascend API.
//
// The config package loads and validates configuration from environment
// variables. An optional .env file (ENV_FILE, default ".env") is read first;
// variables already present in the environment take precedence.
//
// # Configuration Loading
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err // every problem, joined
//	}
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS origins)
//   - DatabaseConfig: SurrealDB connection settings
//   - RedisConfig: leaderboard cache (in-memory when disabled)
//   - EngineConfig: catalog file, level curve, timezone, multipliers, caps
//   - JobsConfig: leaderboard refresh and challenge expiry intervals
//   - RateLimitConfig: per-client token bucket
//   - AdminConfig: API key for /v1/admin routes
//   - MetricsConfig: /metrics exposure and basic auth
//
// # Environment Variables
//
//	SERVER_PORT                   - HTTP server port (default: 8080)
//	DB_HOST, DB_PORT              - SurrealDB address (default: localhost:8000)
//	DB_NAMESPACE, DB_DATABASE     - SurrealDB scope (default: ascend/main)
//	REDIS_ENABLED, REDIS_ADDR     - leaderboard cache (default: false, localhost:6379)
//	ENGINE_CATALOG_PATH           - YAML catalog (default: embedded catalog)
//	ENGINE_TIMEZONE               - streak day boundary (default: UTC)
//	LEADERBOARD_REFRESH_INTERVAL  - board staleness bound (default: 5m)
//	ADMIN_API_KEY                 - required in production
//	LOG_LEVEL                     - debug, info, warn or error (default: info)
package config
