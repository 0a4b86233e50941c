package main

import (
	"log"
	"time"

	"github.com/careerforge/careerforge/internal/app"
	"github.com/careerforge/careerforge/internal/budget"
	"github.com/careerforge/careerforge/internal/cache"
	"github.com/careerforge/careerforge/internal/config"
	"github.com/careerforge/careerforge/internal/executor"
	"github.com/careerforge/careerforge/internal/ledger"
	"github.com/careerforge/careerforge/internal/pricing"
	"github.com/careerforge/careerforge/internal/provider"
	"github.com/careerforge/careerforge/internal/quota"
	"github.com/careerforge/careerforge/internal/service"
	"github.com/careerforge/careerforge/internal/storage"
	"github.com/careerforge/careerforge/internal/tokenizer"
	"github.com/careerforge/careerforge/internal/transport/http/handler"
	"github.com/careerforge/careerforge/internal/transport/http/middleware/ratelimit"
)

// sweepInterval is how often expired cache entries get removed.
const sweepInterval = 10 * time.Minute

func main() {
	if err := config.EnsureDataDir(); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	if err := config.EnsureConfigFile(); err != nil {
		log.Fatalf("failed to create config file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := setupLogger(cfg.LogLevel)

	store, err := storage.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	if err := ensureAdminPassword(store, cfg); err != nil {
		log.Fatalf("failed to set up admin password: %v", err)
	}
	verify, err := adminVerifier(store)
	if err != nil {
		log.Fatalf("failed to load admin password: %v", err)
	}

	catalog := pricing.NewCatalog(logger)
	if cfg.PricingFile != "" {
		if err := catalog.LoadFile(cfg.PricingFile); err != nil {
			log.Fatalf("failed to load pricing file: %v", err)
		}
	}

	est := tokenizer.New()

	clients, err := provider.NewClients(cfg, est)
	if err != nil {
		log.Fatalf("failed to build vendor clients: %v", err)
	}

	router := provider.NewRouter(cfg.DefaultModel, cfg.FallbackModel, cfg.EmbeddingModel)

	c, err := cache.New(cfg.CacheDefaultTTL, cfg.CacheEnabled, logger)
	if err != nil {
		log.Fatalf("failed to create response cache: %v", err)
	}
	defer c.Close()

	guard := quota.New(store, cfg.UserDailyCostLimitUSD, cfg.UserDailyTokenLimit, logger)
	ldg := ledger.New(catalog, store, logger)

	monitor := budget.New(store, cfg.DailyBudgetUSD, cfg.EnableCostAlerts, func(a budget.Alert) {
		logger.Warn("daily budget threshold crossed",
			"threshold_pct", a.ThresholdPct,
			"spent_usd", a.SpentUSD,
			"budget_usd", a.BudgetUSD,
			"date", a.Date,
		)
	}, logger)

	// Seed today's spend so alerts survive restarts.
	if totals, err := ldg.DailyUsage(time.Now().Format("2006-01-02")); err == nil {
		monitor.Seed(totals.Cost)
	} else {
		logger.Warn("failed to seed budget monitor", "error", err)
	}

	exec := executor.New(clients, router, c, guard, ldg, monitor, est, executor.Options{
		MaxRetries:     cfg.MaxRetries,
		RequestTimeout: cfg.RequestTimeout,
	}, logger)

	svc := service.New(exec, guard, ldg, c, monitor, logger)
	repo := handler.NewRepo(svc, logger)

	h := app.NewRouter(repo, &app.RouterOptions{
		Logger:      logger,
		Limiter:     ratelimit.New(cfg.RateLimitPerMinute),
		AdminVerify: verify,
	})

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if removed := svc.SweepCache(0); removed > 0 {
				logger.Debug("cache sweep", "removed", removed)
			}
		}
	}()

	printStartupBanner(cfg)

	server := app.NewServer(cfg, h)
	if err := server.Start(); err != nil {
		log.Fatal(err)
	}
}
