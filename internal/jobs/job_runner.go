package jobs

import (
	"fmt"
	"time"

	"chama-backend/internal/config"
	"chama-backend/internal/logger"
	"chama-backend/internal/metrics"
	"chama-backend/internal/repository"
	"chama-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	deps   Deps
	config *config.Config
	now    func() time.Time
}

// Deps holds the repositories and services jobs read from and notify through.
type Deps struct {
	Transactions  repository.TransactionRepository
	Goals         repository.GoalRepository
	Notifications service.NotificationService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(deps Deps, cfg *config.Config) *JobRunner {
	return &JobRunner{
		deps:   deps,
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the configuration the runner was built with.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// WithClock replaces the runner's clock. Used by tests.
func (jr *JobRunner) WithClock(now func() time.Time) *JobRunner {
	jr.now = now
	return jr
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) {
	log := logger.WithMethod(jobName)
	defer func() {
		if r := recover(); r != nil {
			metrics.JobRuns.WithLabelValues(jobName, "panic").Inc()
			log.Error("Job panicked", "job", jobName, "panic", fmt.Sprint(r))
		}
	}()

	log.Info("Starting job", "job", jobName)
	start := time.Now()
	if err := jobFunc(); err != nil {
		metrics.JobRuns.WithLabelValues(jobName, "failure").Inc()
		log.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return
	}
	metrics.JobRuns.WithLabelValues(jobName, "success").Inc()
	log.Info("Job completed", "job", jobName, "duration", time.Since(start))
}

// RunAllDailyJobs runs every job once (for manual execution)
func (jr *JobRunner) RunAllDailyJobs() {
	jr.UpdateGoalProgress()
	jr.SendPendingApprovalReminders()
	jr.SendGuarantorReminders()
}
