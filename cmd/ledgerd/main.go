package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/engagement-ledger/ledger/internal/api/http"
	"github.com/engagement-ledger/ledger/internal/application/cooldown"
	"github.com/engagement-ledger/ledger/internal/application/ingest"
	"github.com/engagement-ledger/ledger/internal/application/moderation"
	"github.com/engagement-ledger/ledger/internal/application/participation"
	"github.com/engagement-ledger/ledger/internal/application/query"
	"github.com/engagement-ledger/ledger/internal/application/settings"
	"github.com/engagement-ledger/ledger/internal/application/store"
	"github.com/engagement-ledger/ledger/internal/config"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
	"github.com/engagement-ledger/ledger/internal/infrastructure/boltstore"
	"github.com/engagement-ledger/ledger/internal/infrastructure/directory"
	"github.com/engagement-ledger/ledger/internal/infrastructure/filestore"
	"github.com/engagement-ledger/ledger/internal/infrastructure/postgres"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	seed, err := cfg.SeedConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Backend).Msg("storage init failed")
	}
	defer closeRepo()

	// ledger store
	st := store.NewStore(repo, seed, logger)
	st.Open(ctx)

	// services
	dir := directory.New()
	moderationSvc := moderation.NewService(st, cfg.HistoryScanLimit, cfg.HistoryScanTimeout, logger)
	participationSvc := participation.NewService(st, logger)
	querySvc := query.NewService(st, dir, logger)
	ingestSvc := ingest.NewService(st, moderationSvc, dir, logger)
	cooldownSvc := cooldown.NewService(st, cooldown.NewGate(st, time.Now), logger)
	settingsSvc := settings.NewService(st, moderationSvc, logger)

	if cfg.AdminTokenHash == "" {
		logger.Warn().Msg("LEDGER_ADMIN_TOKEN_HASH not set, API is unauthenticated")
	}
	server := httpapi.NewServer(httpapi.Deps{
		Participation: participationSvc,
		Query:         querySvc,
		Ingest:        ingestSvc,
		Cooldown:      cooldownSvc,
		Settings:      settingsSvc,
	}, cfg.AdminTokenHash, cfg.RequestTimeout, logger)

	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// periodic flush of batched counters
	flushCtx, stopFlush := context.WithCancel(ctx)
	flushDone := make(chan struct{})
	go func() {
		defer close(flushDone)
		st.Run(flushCtx, cfg.FlushInterval)
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("backend", cfg.Backend).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)

	stopFlush()
	<-flushDone
	if err := st.Close(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("final flush failed")
	}
	logger.Info().Msg("shutdown complete")
}

func openRepository(ctx context.Context, cfg *config.Config) (ledger.Repository, func(), error) {
	switch cfg.Backend {
	case config.BackendBolt:
		repo, err := boltstore.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewDocumentRepository(pool, cfg.DocumentName), pool.Close, nil
	default:
		return filestore.New(cfg.FilePath), func() {}, nil
	}
}
