package jobs

import (
	"fmt"
	"log/slog"
)

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	instanceRecoveryJob *InstanceRecoveryJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(reconciler Reconciler, logger *slog.Logger) *JobManager {
	return &JobManager{
		instanceRecoveryJob: NewInstanceRecoveryJob(reconciler, logger),
	}
}

// StartAll starts all scheduled jobs.
func (jm *JobManager) StartAll() error {
	if err := jm.instanceRecoveryJob.Start(); err != nil {
		return fmt.Errorf("failed to start instance recovery job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.instanceRecoveryJob.Stop()
}
