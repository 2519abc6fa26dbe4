// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-hero-backend/internal/config"
	"pet-hero-backend/internal/domain/ports/adapter"
	aiAdapters "pet-hero-backend/internal/infra/adapters/ai"
	"pet-hero-backend/internal/infra/adapters/push"
	"pet-hero-backend/internal/infra/adapters/storage"
	pg "pet-hero-backend/internal/infra/db/postgres"
	"pet-hero-backend/internal/infra/imaging"
	"pet-hero-backend/internal/infra/logging"
	"pet-hero-backend/internal/infra/metrics"
	red "pet-hero-backend/internal/infra/redis"
	"pet-hero-backend/internal/infra/sched"
	"pet-hero-backend/internal/infra/web"
	"pet-hero-backend/internal/infra/worker"
	"pet-hero-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI and push adapters)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	jobGuard := red.NewJobGuard(redisClient, cfg.Redis.TTL)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	jobRepo := pg.NewPhotoJobRepo(pool, tm)
	userRepo := pg.NewUserAccountRepo(pool)
	auditRepo := pg.NewCreditUsageLogRepo(pool)

	// ---- Result store ----
	store, err := storage.NewS3Store(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("s3 store")
	}

	// ---- AI adapters and fallback chain ----
	var imageAdapter adapter.GenerativeAdapter
	candidates := make([]usecase.ModelCandidate, 0, 2)
	if cfg.Runtime.Dev && cfg.AI.GeminiKey == "" {
		noop := aiAdapters.NewNoopAdapter()
		imageAdapter = noop
		candidates = append(candidates,
			usecase.ModelCandidate{Name: cfg.AI.ImageModel, Adapter: noop, ImageCapable: true},
			usecase.ModelCandidate{Name: cfg.AI.TextModel, Adapter: noop},
		)
		logger.Warn().Msg("AI adapter: noop (dev)")
	} else {
		gemini, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.CallTimeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		limited := aiAdapters.NewLimitedAdapter(gemini, cfg.AI.ConcurrentLimit)
		imageAdapter = limited
		candidates = append(candidates,
			usecase.ModelCandidate{Name: cfg.AI.ImageModel, Adapter: limited, ImageCapable: true},
		)
		if cfg.AI.OpenAIKey != "" {
			oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL, cfg.AI.CallTimeout)
			if err != nil {
				logger.Fatal().Err(err).Msg("openai adapter")
			}
			candidates = append(candidates,
				usecase.ModelCandidate{Name: cfg.AI.OpenAIModel, Adapter: oa},
			)
		} else {
			candidates = append(candidates,
				usecase.ModelCandidate{Name: cfg.AI.TextModel, Adapter: limited},
			)
		}
		logger.Info().Str("image_model", cfg.AI.ImageModel).
			Int("candidates", len(candidates)).Msg("AI adapter: gemini")
	}
	policy := usecase.FallbackPolicy{Candidates: candidates, Cooldown: cfg.AI.Cooldown}

	// ---- Push sender ----
	var sender adapter.PushSender
	if cfg.Runtime.Dev && cfg.Push.APIKey == "" {
		sender = push.NewNoopSender()
		logger.Warn().Msg("push sender: noop (dev)")
	} else {
		sender, err = push.NewFCMSender(cfg.Push.Endpoint, cfg.Push.APIKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("fcm sender")
		}
	}

	// ---- Use cases ----
	analysisUC := usecase.NewAnalysisUseCase(policy, logger)
	heroUC := usecase.NewHeroImageUseCase(imageAdapter, cfg.AI.ImageModel, store, logger)
	ledgerUC := usecase.NewLedgerUseCase(jobRepo, userRepo, auditRepo, tm, jobGuard, logger)
	notifyUC := usecase.NewNotifyUseCase(userRepo, sender, logger)

	// ---- Worker ----
	normalizer := imaging.NewNormalizer(cfg.Imaging.MaxLongEdge, cfg.Imaging.JPEGQuality, cfg.Imaging.DownloadTimeout, cfg.Imaging.MaxDownloadBytes)
	processor := worker.NewPhotoJobProcessor(
		jobRepo, normalizer, analysisUC, heroUC, ledgerUC, notifyUC,
		cfg.Worker.PollInterval, logger,
	)
	workerPool := worker.NewPool(cfg.Worker.Count, logger)
	workerPool.Start(ctx)
	go processor.Start(ctx, workerPool)

	// ---- Billing-gap reconciler ----
	reconciler := sched.NewCreditReconciler(ledgerUC, time.Minute, 100, logger)
	go reconciler.Start(ctx)
	reclaimer := sched.NewJobReclaimer(jobRepo, 2*time.Minute, 10*time.Minute, logger)
	go reclaimer.Start(ctx)

	// ---- HTTP API ----
	auth := web.NewAuthManager(cfg.API.JWTSecret, cfg.API.JWTTTL)
	apiServer := web.NewServer(jobRepo, userRepo, rateLimiter, auth, cfg.API, logger)
	router := chi.NewRouter()
	apiServer.RegisterRoutes(router)

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.API.Port), Handler: router}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
	workerPool.Stop()
}
