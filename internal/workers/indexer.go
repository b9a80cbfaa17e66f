package workers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pixido-dev/pixido/internal/config"
	"github.com/pixido-dev/pixido/internal/features"
	"github.com/pixido-dev/pixido/internal/models"
	"github.com/pixido-dev/pixido/internal/tasks"
)

// HandleIndexImage extracts and persists the feature vector for one image
func HandleIndexImage(ctx context.Context, t *asynq.Task, db *gorm.DB, cfg *config.Config, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return err
	}

	var image models.Image
	if err := models.FindByID(db, payload.ImageID, &image); err != nil {
		if err == gorm.ErrRecordNotFound {
			// Image was deleted before the task ran; nothing to do
			logger.Debug().Str("image_id", payload.ImageID).Msg("Image gone, skipping index task")
			return nil
		}
		return fmt.Errorf("failed to load image %s: %w", payload.ImageID, err)
	}

	if err := indexImage(db, cfg, &image); err != nil {
		logger.Error().Err(err).Str("image_id", image.ID).Msg("Failed to index image")
		return err
	}

	logger.Info().Str("image_id", image.ID).Str("filename", image.Filename).Msg("Image indexed")
	return nil
}

// HandleReindexAll re-extracts features for every stored image. Used after
// descriptor changes or on the periodic reindex schedule.
func HandleReindexAll(ctx context.Context, t *asynq.Task, db *gorm.DB, cfg *config.Config, logger zerolog.Logger) error {
	var images []models.Image
	if err := db.Find(&images).Error; err != nil {
		return fmt.Errorf("failed to load images: %w", err)
	}

	var failed int
	for i := range images {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := indexImage(db, cfg, &images[i]); err != nil {
			failed++
			logger.Warn().Err(err).Str("image_id", images[i].ID).Msg("Failed to reindex image")
		}
	}

	logger.Info().
		Int("total", len(images)).
		Int("failed", failed).
		Msg("Reindex complete")

	if failed == len(images) && len(images) > 0 {
		return fmt.Errorf("reindex failed for all %d images", len(images))
	}
	return nil
}

func indexImage(db *gorm.DB, cfg *config.Config, image *models.Image) error {
	data, err := os.ReadFile(filepath.Join(cfg.Media.Dir, image.Path))
	if err != nil {
		return fmt.Errorf("failed to read image file: %w", err)
	}

	vec, err := features.Extract(data)
	if err != nil {
		return err
	}

	encoded, err := features.ToJSON(vec)
	if err != nil {
		return err
	}

	return db.Model(image).Updates(map[string]interface{}{
		"feature_vector": encoded,
		"indexed":        true,
	}).Error
}
