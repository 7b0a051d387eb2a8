package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"StoryCurator/internal/domain"
	"StoryCurator/internal/ports"
)

// Job binds a recurring pipeline pass to the driver that triggers it.
type Job struct {
	Name   string
	Driver ports.Scheduler
	Run    func(ctx context.Context, trigger time.Time)
}

// Scheduler wires interval drivers with the pipeline use cases.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(logger *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, logger: orDiscard(logger)}
}

// Start registers every job with its driver.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		if job.Driver == nil || job.Run == nil {
			continue
		}
		run := job.Run
		name := job.Name
		err := job.Driver.Start(ctx, func(trigger time.Time) {
			s.logger.Debug("scheduled job triggered", "job", name, "trigger", trigger)
			run(ctx, trigger)
		})
		if err != nil {
			return fmt.Errorf("start job %s: %w", name, err)
		}
	}
	return nil
}

// Stop gracefully tears down every driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	var errs []error
	for _, job := range s.jobs {
		if job.Driver == nil {
			continue
		}
		if err := job.Driver.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop job %s: %w", job.Name, err))
		}
	}
	return errors.Join(errs...)
}

// CaptureJob processes one capture batch per tick.
func CaptureJob(driver ports.Scheduler, capture *CaptureQueue) Job {
	return Job{
		Name:   "capture",
		Driver: driver,
		Run: func(ctx context.Context, _ time.Time) {
			capture.ProcessBatch(ctx)
		},
	}
}

// CurationReport is the outcome of one governance and curation pass.
type CurationReport struct {
	DecisionsClosed int                    `json:"decisionsClosed"`
	Session         domain.CurationSession `json:"session"`
}

// RunCurationPass closes expired votes and then runs a curation session.
// A failure to close votes is logged and does not stop the session.
func RunCurationPass(ctx context.Context, governance *Governance, curation *Curation, opts SessionOptions) (CurationReport, error) {
	var report CurationReport
	closed, err := governance.CloseExpired(ctx)
	if err != nil {
		governance.logger.Warn("close expired decisions", "error", err)
	}
	report.DecisionsClosed = closed

	session, err := curation.RunSession(ctx, opts)
	report.Session = session
	if err != nil {
		return report, fmt.Errorf("run curation session: %w", err)
	}
	return report, nil
}

// CurationJob runs a governance and curation pass per tick.
func CurationJob(driver ports.Scheduler, governance *Governance, curation *Curation, logger *slog.Logger) Job {
	logger = orDiscard(logger)
	return Job{
		Name:   "curation",
		Driver: driver,
		Run: func(ctx context.Context, _ time.Time) {
			if _, err := RunCurationPass(ctx, governance, curation, SessionOptions{}); err != nil {
				logger.Error("scheduled curation pass", "error", err)
			}
		},
	}
}
