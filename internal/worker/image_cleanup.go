package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Muletinha/projeto-emeece/internal/infra"

	"github.com/rs/zerolog/log"
)

// ImageReferenceCounter reports how many products point at an image.
// Satisfied by repository.ProductRepository.
type ImageReferenceCounter interface {
	CountByImage(ctx context.Context, image string) (int64, error)
}

// FileRemover deletes a stored upload. Satisfied by *infra.FileStore.
type FileRemover interface {
	Remove(name string) error
}

// ImageCleanupWorker deletes uploads no product references anymore. The
// reference check happens at processing time, so a file that was re-attached
// after the job was queued survives.
type ImageCleanupWorker struct {
	products ImageReferenceCounter
	files    FileRemover
}

func NewImageCleanupWorker(products ImageReferenceCounter, files FileRemover) *ImageCleanupWorker {
	return &ImageCleanupWorker{products: products, files: files}
}

// Process implements Processor.
func (w *ImageCleanupWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ImageCleanupPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("image_cleanup: invalid payload")
		return nil // retrying cannot fix it
	}
	if payload.Filename == "" {
		log.Warn().Msg("image_cleanup: empty filename, skipping")
		return nil
	}

	refs, err := w.products.CountByImage(ctx, payload.Filename)
	if err != nil {
		return err
	}
	if refs > 0 {
		log.Debug().Str("image", payload.Filename).Int64("refs", refs).Msg("image_cleanup: still referenced, kept")
		return nil
	}

	if err := w.files.Remove(payload.Filename); err != nil {
		if errors.Is(err, infra.ErrInvalidFilename) {
			log.Warn().Str("image", payload.Filename).Msg("image_cleanup: refusing unsafe file name")
			return nil
		}
		return err
	}
	log.Info().Str("image", payload.Filename).Msg("image_cleanup: orphaned upload removed")
	return nil
}
