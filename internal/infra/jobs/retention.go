// Package jobs hosts scheduled background work.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/infra/config"
)

// RetentionJob purges aged messages and settled applications on a cron
// schedule.
type RetentionJob struct {
	cron         *cron.Cron
	messages     port.MessageRepository
	applications port.ApplicationRepository
	cfg          config.RetentionSettings
	logger       *zap.Logger
	now          func() time.Time
}

// NewRetentionJob wires the retention scheduler. It does not start it.
func NewRetentionJob(messages port.MessageRepository, applications port.ApplicationRepository, cfg config.RetentionSettings, logger *zap.Logger) *RetentionJob {
	return &RetentionJob{
		cron:         cron.New(),
		messages:     messages,
		applications: applications,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Start registers the cleanup entry and launches the scheduler.
func (j *RetentionJob) Start() error {
	if _, err := j.cron.AddFunc(j.cfg.Schedule, j.runCleanup); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("retention job started", zap.String("schedule", j.cfg.Schedule))
	return nil
}

// Stop halts the scheduler and waits for any in-flight run to finish.
func (j *RetentionJob) Stop() {
	<-j.cron.Stop().Done()
}

func (j *RetentionJob) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := j.Sweep(ctx); err != nil {
		j.logger.Error("retention sweep failed", zap.Error(err))
	}
}

// Sweep removes records older than the retention window and returns the
// total number purged.
func (j *RetentionJob) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().UTC().Add(-j.cfg.MessageAge)

	messages, err := j.messages.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	applications, err := j.applications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return messages, err
	}

	if messages > 0 || applications > 0 {
		j.logger.Info("retention sweep completed",
			zap.Int("messages_purged", messages),
			zap.Int("applications_purged", applications),
			zap.Time("cutoff", cutoff),
		)
	}

	return messages + applications, nil
}
