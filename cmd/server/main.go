package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/veilcare/counsel-relay-go/internal/backend"
	"github.com/veilcare/counsel-relay-go/internal/config"
	"github.com/veilcare/counsel-relay-go/internal/database"
	"github.com/veilcare/counsel-relay-go/internal/gateway"
	"github.com/veilcare/counsel-relay-go/internal/handler"
	"github.com/veilcare/counsel-relay-go/internal/identity"
	"github.com/veilcare/counsel-relay-go/internal/jobs"
	"github.com/veilcare/counsel-relay-go/internal/middleware"
	"github.com/veilcare/counsel-relay-go/internal/platform"
	"github.com/veilcare/counsel-relay-go/internal/redis"
	"github.com/veilcare/counsel-relay-go/internal/repository"
	"github.com/veilcare/counsel-relay-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	var ledger service.OrphanLedger
	var ledgerSvc *service.Ledger
	var sweepJob *jobs.LedgerSweepJob
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		cancel()
		log.Info().Msg("database connected")

		orphanRepo := repository.NewOrphanedPairRepository(db.DB)
		ledgerSvc = service.NewLedger(orphanRepo)
		ledger = ledgerSvc
		sweepJob = jobs.NewLedgerSweepJob(orphanRepo, cfg.OrphanRetention(), config.LedgerSweepInterval)
	} else {
		log.Warn().Msg("DATABASE_URL not set, orphaned-pair ledger disabled")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")
	} else {
		log.Warn().Msg("REDIS_URL not set, webhook rate limiting disabled")
	}

	hasher := identity.NewHasher(cfg.HashKey)

	gw := gateway.New(
		cfg.CoreAPIBase+"/account/token",
		gateway.Credentials{Username: cfg.CoreSvcUsername, Password: cfg.CoreSvcPassword},
		cfg.CoreMaxAuthRetries,
	)
	backendClient := backend.NewClient(cfg.CoreAPIBase, gw)

	bot := platform.NewClient(cfg.PlatformAPIBase, cfg.PlatformBotToken)
	provisioner := platform.NewProvisioner(cfg.PlatformAccountAPIBase, cfg.PlatformAccountToken, bot)

	orchestrator := service.NewOrchestrator(backendClient, provisioner, hasher, bot, ledger, cfg.CleanupOnRegisterFailure)
	relay := service.NewRelay(backendClient, bot)

	webhookHandler := handler.NewWebhookHandler(hasher, backendClient, orchestrator, relay, bot)
	webhookSecret := middleware.NewWebhookSecretMiddleware(cfg.WebhookSecret)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/webhook/{secret}", func(r chi.Router) {
		r.Use(webhookSecret.Handler)
		if redisClient != nil {
			rateLimit := middleware.NewWebhookRateLimitMiddleware(redisClient.Client, cfg.WebhookRateLimitPerMin)
			r.Use(rateLimit.Handler)
		}
		r.Post("/", webhookHandler.Webhook)
	})

	if ledgerSvc != nil && cfg.OperatorToken != "" {
		orphanHandler := handler.NewOrphanHandler(ledgerSvc)
		operatorToken := middleware.NewOperatorTokenMiddleware(cfg.OperatorToken)
		r.Route("/internal/orphans", func(r chi.Router) {
			r.Use(operatorToken.Handler)
			r.Get("/", orphanHandler.List)
			r.Post("/{id}/reconcile", orphanHandler.Reconcile)
		})
	} else if ledgerSvc != nil {
		log.Warn().Msg("OPERATOR_TOKEN not set, orphan reconciliation endpoints disabled")
	}

	if sweepJob != nil {
		sweepJob.Start()
		defer sweepJob.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	registerCtx, registerCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := bot.SetWebhook(registerCtx, cfg.WebhookURL()); err != nil {
		log.Fatal().Err(err).Msg("failed to register webhook with platform")
	}
	registerCancel()
	log.Info().Msg("webhook registered")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
