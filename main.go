package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tubepulse/domain/repository"
	"tubepulse/infrastructure/cache"
	scraperclient "tubepulse/infrastructure/clients/scraper"
	youtubeclient "tubepulse/infrastructure/clients/youtube"
	"tubepulse/infrastructure/configuration"
	"tubepulse/infrastructure/logger"
	"tubepulse/infrastructure/persistence"
	"tubepulse/infrastructure/quota"
	"tubepulse/infrastructure/ratelimit"
	httpHandler "tubepulse/interfaces/http"
	"tubepulse/server"
	"tubepulse/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")
	cfg := configuration.Load()

	psqlDb := initiateDatabase(cfg)
	var quotaStore repository.IQuotaStore
	if psqlDb != nil {
		if err := persistence.EnsureQuotaSchema(psqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring quota schema")
		} else {
			quotaStore = persistence.NewQuotaStore(psqlDb)
		}
	}

	responseCache, memCache := initiateCache(ctx, cfg)
	if memCache != nil {
		g.Go(func() error {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if removed := memCache.Purge(); removed > 0 {
						logger.GetLogger().WithField("removed", removed).Debug("Cache janitor sweep")
					}
				}
			}
		})
	}

	ledger := quota.NewLedger(
		cfg.YouTube.Quota.DailyLimit,
		cfg.YouTube.Quota.WarningThreshold,
		cfg.YouTube.Quota.Timezone,
		quotaStore,
	)
	limiter := ratelimit.NewLimiter(
		cfg.YouTube.RateLimit.MaxPerSecond,
		cfg.YouTube.RateLimit.MaxPerMinute,
		time.Duration(cfg.YouTube.RateLimit.MaxWaitSeconds)*time.Second,
	)
	costs := quota.NewCostModel(cfg.YouTube.Costs)
	orchestrator := usecase.NewOrchestrator(responseCache, limiter, ledger, costs, cfg.YouTube.CacheTTLSeconds)

	youtubeConfig := configuration.GetYouTubeConfig(cfg)
	upstream, err := youtubeclient.NewYouTubeClient(ctx, &youtubeclient.Config{
		ClientID:     youtubeConfig.ClientID,
		ClientSecret: youtubeConfig.ClientSecret,
		RedirectURL:  youtubeConfig.RedirectURL,
		AccessToken:  youtubeConfig.AccessToken,
		RefreshToken: youtubeConfig.RefreshToken,
		APIKey:       youtubeConfig.APIKey,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while initializing upstream API client")
		os.Exit(2)
	}
	pageScraper := scraperclient.NewScraper()

	resolver := usecase.NewResolver(orchestrator, upstream, pageScraper)
	analyzerUseCase := usecase.NewAnalyzerUseCase(
		orchestrator,
		resolver,
		upstream,
		pageScraper,
		responseCache,
		ledger,
		cfg.Analyzer,
	)
	analyzerHandler := httpHandler.NewAnalyzerHandler(analyzerUseCase)
	router := server.InitiateRouter(analyzerHandler, cfg.App.SecretKey)

	logger.GetLogger().WithFields(map[string]interface{}{
		"dailyLimit": cfg.YouTube.Quota.DailyLimit,
		"workers":    cfg.Analyzer.Workers,
		"quotaStore": quotaStore != nil,
	}).Info("Analyzer wiring complete")

	port := cfg.App.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// initiateDatabase opens the optional quota persistence database. The
// service runs without it; the ledger just loses restart durability.
func initiateDatabase(cfg *configuration.Config) *sql.DB {
	if cfg.Database.Psql.Host == "" {
		logger.GetLogger().Info("No PostgreSQL configured - quota usage will not survive restarts")
		return nil
	}
	db, err := persistence.NewPostgreSQLDB(cfg.Database.Psql)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PostgreSQL not available - continuing without quota persistence")
		return nil
	}
	logger.GetLogger().Info("PostgreSQL connected successfully")
	return db
}

// initiateCache prefers Redis; without it the in-process cache serves, and
// the returned MemoryCache handle lets the janitor run.
func initiateCache(ctx context.Context, cfg *configuration.Config) (repository.IResponseCache, *cache.MemoryCache) {
	if cfg.RedisClient.Host != "" {
		client, err := cache.NewCache(
			ctx,
			fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port),
			cfg.RedisClient.Username,
			cfg.RedisClient.Password,
		)
		if err == nil {
			logger.GetLogger().Info("Redis client initialized successfully.")
			return cache.NewRedisCache(client), nil
		}
		logger.GetLogger().WithField("error", err).Warn("Redis not available - falling back to in-process cache")
	}
	mem := cache.NewMemoryCache()
	return mem, mem
}
