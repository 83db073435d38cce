package worker

// orphan_sweep.go
// Periodic pass over the upload directory that queues cleanup jobs for files
// old enough to have been attached to a product but referenced by none, e.g.
// an upload whose product form was never submitted.

import (
	"context"
	"time"

	"github.com/Muletinha/projeto-emeece/internal/infra"

	"github.com/rs/zerolog/log"
)

// FileLister lists stored uploads. Satisfied by *infra.FileStore.
type FileLister interface {
	List() ([]infra.StoredFile, error)
}

// CleanupQueue is satisfied by *Dispatcher.
type CleanupQueue interface {
	EnqueueImageCleanup(ctx context.Context, filename string) error
}

// OrphanSweepConfig holds all dependencies for the sweep goroutine.
type OrphanSweepConfig struct {
	Files    FileLister
	Products ImageReferenceCounter
	Queue    CleanupQueue
	Interval time.Duration // zero disables the sweep
	MinAge   time.Duration // younger files are left alone
}

// StartOrphanSweep ticks every cfg.Interval until ctx is cancelled.
func StartOrphanSweep(ctx context.Context, cfg OrphanSweepConfig) {
	if cfg.Interval <= 0 {
		log.Info().Msg("orphan_sweep: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("orphan_sweep: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("orphan_sweep: shutting down")
				return
			case <-ticker.C:
				sweepOrphans(ctx, cfg, time.Now())
			}
		}
	}()
}

// sweepOrphans returns how many files were queued.
func sweepOrphans(ctx context.Context, cfg OrphanSweepConfig, now time.Time) int {
	files, err := cfg.Files.List()
	if err != nil {
		log.Error().Err(err).Msg("orphan_sweep: cannot list uploads")
		return 0
	}

	queued := 0
	for _, f := range files {
		if now.Sub(f.ModTime) < cfg.MinAge {
			continue
		}
		refs, err := cfg.Products.CountByImage(ctx, f.Name)
		if err != nil {
			log.Error().Err(err).Msg("orphan_sweep: reference check failed, stopping")
			return queued
		}
		if refs > 0 {
			continue
		}
		if err := cfg.Queue.EnqueueImageCleanup(ctx, f.Name); err != nil {
			log.Warn().Err(err).Msg("orphan_sweep: enqueue failed, stopping")
			return queued
		}
		queued++
	}
	if queued > 0 {
		log.Info().Int("queued", queued).Msg("orphan_sweep: orphaned uploads queued for cleanup")
	}
	return queued
}
