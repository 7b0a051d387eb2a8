package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StoryCurator/internal/domain"
)

// manualDriver fires its job only when trigger is called.
type manualDriver struct {
	job     func(time.Time)
	stopped bool
	stopErr error
}

func (d *manualDriver) Start(ctx context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(ctx context.Context) error {
	d.stopped = true
	return d.stopErr
}

func (d *manualDriver) trigger(t time.Time) {
	if d.job != nil {
		d.job(t)
	}
}

func TestCaptureJobProcessesOnTrigger(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	ctx := context.Background()

	res, _ := f.capture.Enqueue(ctx, housingConversation(), true)

	driver := &manualDriver{}
	s := NewScheduler(nil, CaptureJob(driver, f.capture))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	driver.trigger(f.clock.Now())

	entry, _ := f.queue.Get(ctx, res.QueueID)
	if entry.Status != domain.QueueCaptured {
		t.Fatalf("entry not processed by job: %+v", entry)
	}
	if err := s.Stop(ctx); err != nil || !driver.stopped {
		t.Fatalf("Stop: %v stopped=%v", err, driver.stopped)
	}
}

func TestCurationPassClosesVotesBeforeSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	ctx := context.Background()

	d := openVote(t, f)
	f.governance.CastVote(ctx, d.ID, "user-1", domain.VoteFor, "")
	f.clock.Advance(8 * 24 * time.Hour)

	report, err := RunCurationPass(ctx, f.governance, f.curation, SessionOptions{})
	if err != nil {
		t.Fatalf("RunCurationPass: %v", err)
	}
	if report.DecisionsClosed != 1 {
		t.Fatalf("expected one closed decision, got %d", report.DecisionsClosed)
	}
	if report.Session.StoriesReviewed != 1 {
		t.Fatalf("newly approved story should be reviewed, got %+v", report.Session)
	}
}

func TestSchedulerStopJoinsErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	s := NewScheduler(nil,
		Job{Name: "a", Driver: &manualDriver{stopErr: boom}, Run: func(context.Context, time.Time) {}},
		Job{Name: "b", Driver: &manualDriver{}, Run: func(context.Context, time.Time) {}},
		Job{Name: "disabled"},
	)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected joined stop error, got %v", err)
	}
}
