package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adaeze/reposcout/internal/adapters/cache"
	"github.com/adaeze/reposcout/internal/adapters/ratelimit"
	"github.com/adaeze/reposcout/internal/adapters/search"
	"github.com/adaeze/reposcout/internal/api/handlers"
	"github.com/adaeze/reposcout/internal/api/routes"
	"github.com/adaeze/reposcout/internal/application/services"
	"github.com/adaeze/reposcout/internal/domain/providers"
	"github.com/adaeze/reposcout/internal/domain/repositories"
	"github.com/adaeze/reposcout/internal/infrastructure/clients/github"
	redisclient "github.com/adaeze/reposcout/internal/infrastructure/clients/redis"
	tsclient "github.com/adaeze/reposcout/internal/infrastructure/clients/typesense"
	"github.com/adaeze/reposcout/internal/infrastructure/observability"
	"github.com/adaeze/reposcout/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry if enabled
	var otelShutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		otelShutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Redis is optional; the application degrades to uncached searches
	var cacheProvider providers.CacheProvider
	redisConn, err := redisclient.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis client, running without cache")
	} else {
		defer redisConn.Close()
		cacheProvider = cache.NewRedisAdapter(redisConn)
		log.Info().Msg("Redis cache initialized")
	}

	// Typesense index is the primary search backend
	var index repositories.RepositoryIndex
	typesenseConn, err := tsclient.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Typesense client, searches will use the upstream API")
	} else {
		adapter := search.NewTypesenseAdapter(typesenseConn)
		if err := adapter.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure Typesense schema")
		}
		index = adapter
		log.Info().Msg("Typesense index initialized")
	}

	upstream := github.NewClient(&cfg.GitHub)
	limiter := ratelimit.NewLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)

	// One telemetry engine per process, injected where needed
	analytics := services.NewSearchAnalyticsService(cfg.Telemetry)
	defer analytics.Close()

	searchService := services.NewRepoSearchService(index, upstream, cacheProvider, limiter, analytics)

	searchHandler := handlers.NewSearchHandler(searchService, metrics)
	dashboardHandler := handlers.NewDashboardHandler(analytics, limiter, cacheProvider)

	router := routes.NewRouter(searchHandler, dashboardHandler, metrics)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if otelShutdown != nil {
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("OpenTelemetry shutdown failed")
		}
	}
}
