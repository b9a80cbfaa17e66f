package workers

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pixido-dev/pixido/internal/config"
	"github.com/pixido-dev/pixido/internal/tasks"
)

// StartReindexScheduler enqueues a full reindex on the configured cron
// schedule. Runs until the process exits; a missing or invalid schedule
// disables periodic reindexing.
func StartReindexScheduler(client *asynq.Client, cfg *config.Config, logger zerolog.Logger) {
	if cfg.Search.ReindexSchedule == "" {
		logger.Debug().Msg("No reindex schedule configured")
		return
	}

	schedule, err := cron.ParseStandard(cfg.Search.ReindexSchedule)
	if err != nil {
		logger.Error().
			Err(err).
			Str("schedule", cfg.Search.ReindexSchedule).
			Msg("Invalid reindex schedule - periodic reindexing disabled")
		return
	}

	next := schedule.Next(time.Now())
	logger.Info().
		Str("schedule", cfg.Search.ReindexSchedule).
		Time("next_run", next).
		Msg("Reindex scheduler started")

	for {
		time.Sleep(time.Until(next))

		task, err := tasks.NewReindexAllTask()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create reindex task")
		} else if _, err := client.Enqueue(task, asynq.Queue("low"), asynq.Timeout(1*time.Hour)); err != nil {
			logger.Error().Err(err).Msg("Failed to enqueue reindex task")
		} else {
			logger.Info().Msg("Enqueued scheduled reindex task")
		}

		next = schedule.Next(time.Now())
	}
}
