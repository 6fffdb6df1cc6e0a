package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mgarrity/sift/internal/config"
)

// StartScheduler creates and starts an Asynq Scheduler that enqueues the
// periodic digest generation task. Returns a stop function for graceful
// shutdown.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	location, err := time.LoadLocation(cfg.DigestTimezone)
	if err != nil {
		slog.Warn("Invalid timezone, using UTC", "timezone", cfg.DigestTimezone, "error", err)
		location = time.UTC
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: location,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	task := asynq.NewTask(
		TaskDigestGenerate,
		nil, // no payload - the handler reads the newest feedback itself
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(time.Hour), // prevent duplicate if scheduler runs twice
	)

	entryID, err := scheduler.Register(cfg.DigestSchedule, task)
	if err != nil {
		return nil, fmt.Errorf("failed to register digest schedule: %w", err)
	}

	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	slog.Info(
		"Digest scheduler started",
		"schedule", cfg.DigestSchedule,
		"timezone", cfg.DigestTimezone,
		"entry_id", entryID,
	)

	return func() { scheduler.Shutdown() }, nil
}
