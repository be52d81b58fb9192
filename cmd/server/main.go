package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/forgo/ascend/api/internal/cache"
	"github.com/forgo/ascend/api/internal/config"
	"github.com/forgo/ascend/api/internal/database"
	"github.com/forgo/ascend/api/internal/engine"
	"github.com/forgo/ascend/api/internal/handler"
	"github.com/forgo/ascend/api/internal/jobs"
	"github.com/forgo/ascend/api/internal/metrics"
	"github.com/forgo/ascend/api/internal/middleware"
	"github.com/forgo/ascend/api/internal/repository"
	"github.com/forgo/ascend/api/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Build the engine before touching the network so a bad catalog fails fast
	eng, err := buildEngine(cfg.Engine)
	if err != nil {
		slog.Error("failed to build engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	if err := repository.EnsureSchema(ctx, db); err != nil {
		slog.Error("failed to apply schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	progressionRepo := repository.NewProgressionRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	teamRepo := repository.NewTeamChallengeRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)

	// Board cache: Redis when shared across instances, memory otherwise
	boardTTL := 2 * cfg.Jobs.LeaderboardRefreshInterval
	var boards cache.BoardCache
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisBoardCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      boardTTL,
			Prefix:   "ascend:board:",
		})
		if err != nil {
			slog.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		boards = rc
		slog.Info("using redis board cache", slog.String("addr", cfg.Redis.Addr))
	} else {
		boards = cache.NewMemoryBoardCache(boardTTL)
	}
	defer func() { _ = boards.Close() }()

	m := metrics.NewDefault()

	// Initialize services
	catalogService := service.NewCatalogService(service.CatalogServiceConfig{
		Engine: eng,
		Repo:   badgeRepo,
	})
	if err := catalogService.LoadCustomBadges(ctx); err != nil {
		slog.Error("failed to load custom badges", slog.String("error", err.Error()))
		os.Exit(1)
	}

	progressionService := service.NewProgressionService(service.ProgressionServiceConfig{
		Progressions: progressionRepo,
		Activity:     activityRepo,
		Challenges:   challengeRepo,
		Teams:        teamRepo,
		Awards:       badgeRepo,
		Catalog:      catalogService,
		Metrics:      m,
	})

	leaderboardService := service.NewLeaderboardService(service.LeaderboardServiceConfig{
		Progressions: progressionRepo,
		Histories:    activityRepo,
		Catalog:      catalogService,
		Cache:        boards,
		Metrics:      m,
	})

	// Background jobs
	refresher := jobs.NewLeaderboardRefresher(leaderboardService, cfg.Jobs.LeaderboardRefreshInterval)
	refresher.Start()
	defer refresher.Stop()

	expirer := jobs.NewChallengeExpirer(progressionService, cfg.Jobs.ChallengeExpiryInterval)
	expirer.Start()
	defer expirer.Stop()

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RPS:   cfg.RateLimit.RPS,
		Burst: cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	// Initialize handlers
	progressionHandler := handler.NewProgressionHandler(progressionService)
	catalogHandler := handler.NewCatalogHandler(catalogService, leaderboardService)
	adminHandler := handler.NewAdminHandler(progressionService, catalogService, leaderboardService)
	healthHandler := handler.NewHealthHandler(db)

	// Create router and register routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)

	progressionHandler.RegisterRoutes(mux)
	catalogHandler.RegisterRoutes(mux)
	adminGuard := middleware.AdminKey(cfg.Admin.APIKey)
	if cfg.Admin.KeyHash != "" {
		adminGuard = middleware.AdminKeyHash(cfg.Admin.KeyHash)
	}
	adminHandler.RegisterRoutes(mux, adminGuard)

	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", middleware.BasicAuth(cfg.Metrics.User, cfg.Metrics.Password)(m.Handler()))
	}

	// Apply global middleware. Metrics sits innermost so it sees the
	// matched route pattern.
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Compress,
		middleware.RateLimit(rateLimiter),
		middleware.Metrics(m),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.Int("segments", len(leaderboardService.Segments())),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// buildEngine loads the catalog and tuning from configuration
func buildEngine(cfg config.EngineConfig) (*engine.Engine, error) {
	var catalog *engine.Catalog
	if cfg.CatalogPath != "" {
		f, err := os.Open(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		defer func() { _ = f.Close() }()

		catalog, err = engine.LoadCatalogYAML(f)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog %s: %w", cfg.CatalogPath, err)
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return engine.New(engine.Config{
		Catalog:            catalog,
		Curve:              engine.LinearCurve{PointsPerLevel: cfg.XPPerLevel},
		Location:           loc,
		WeekendMultiplier:  cfg.WeekendMultiplier,
		MaxPointsPerAction: cfg.MaxPointsPerAction,
	})
}
