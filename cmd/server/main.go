package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Muletinha/projeto-emeece/internal/config"
	"github.com/Muletinha/projeto-emeece/internal/infra"
	"github.com/Muletinha/projeto-emeece/internal/middleware"
	"github.com/Muletinha/projeto-emeece/internal/repository"
	"github.com/Muletinha/projeto-emeece/internal/router"
	"github.com/Muletinha/projeto-emeece/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger. dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := infra.NewDatabase(cfg.Database())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	store, err := infra.NewFileStore(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare upload dir")
	}

	// Redis is optional: without it the catalog is served uncached and image
	// cleanup waits until it comes back.
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if rdb == nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	if err != nil {
		log.Warn().Err(err).Msg("redis unreachable at startup, continuing without cache")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	productRepo := repository.NewProductRepository(db)
	dispatcher := worker.NewDispatcher(rdb)
	pool := worker.NewPool(rdb, worker.NewImageCleanupWorker(productRepo, store))
	pool.Start(ctx, cfg.WorkerPoolSize)
	worker.StartOrphanSweep(ctx, worker.OrphanSweepConfig{
		Files:    store,
		Products: productRepo,
		Queue:    dispatcher,
		Interval: cfg.OrphanSweepInterval,
		MinAge:   cfg.OrphanMinAge,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	go limiter.Run(ctx)

	r := router.New(cfg, db, rdb, store, dispatcher, limiter)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second, // uploads up to MAX_UPLOAD_MB
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("projeto-emeece backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	pool.Wait()
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
