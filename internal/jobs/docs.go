// Package jobs provides scheduled background tasks for the fulfillment
// service, implemented with github.com/robfig/cron/v3.
//
// The single job, InstanceRecoveryJob, runs every five seconds and resumes
// process instances that have no live runner. At startup this picks up
// every process interrupted by the previous shutdown; at runtime it backs
// up the engine against runners lost to persistence failures. Resuming is
// idempotent: instances that are already running are skipped.
//
// Jobs are managed through JobManager:
//
//	jobManager := jobs.NewJobManager(engine, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
package jobs
