package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Reconciler resumes interrupted process instances. Implemented by the
// process engine.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// InstanceRecoveryJob periodically resumes process instances that lost
// their runner, typically after a crash or restart. Runs every five
// seconds; resuming an instance that is already running is a no-op.
type InstanceRecoveryJob struct {
	reconciler Reconciler
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewInstanceRecoveryJob creates a new job for resuming interrupted
// processes.
func NewInstanceRecoveryJob(reconciler Reconciler, logger *slog.Logger) *InstanceRecoveryJob {
	return &InstanceRecoveryJob{
		reconciler: reconciler,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "instance_recovery_job"),
	}
}

// Start begins the recovery job to run every five seconds.
func (j *InstanceRecoveryJob) Start() error {
	_, err := j.cron.AddFunc("*/5 * * * * *", func() {
		ctx := context.Background()
		if err := j.reconciler.Reconcile(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Instance recovery job failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Instance recovery job started (running every 5 seconds)")
	return nil
}

// Stop stops the recovery job.
func (j *InstanceRecoveryJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Instance recovery job stopped")
}
