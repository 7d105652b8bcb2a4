package scheduler

import (
	"context"
	"fmt"
	"time"

	"gestion-proyectos/backend/logging"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the notification scan on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	runner  *ScanRunner
	now     func() time.Time
	timeout time.Duration
}

// NewScheduler validates spec, a standard five-field cron expression or a
// descriptor such as @daily.
func NewScheduler(spec string, runner *ScanRunner, now func() time.Time, timeout time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		now:     now,
		timeout: timeout,
	}
	if _, err := s.cron.AddFunc(spec, s.runScan); err != nil {
		return nil, fmt.Errorf("invalid scan schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) runScan() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	created, err := s.runner.Run(ctx, s.now())
	if err != nil {
		logging.Logger.Errorf("Event ID: SCHEDULED_SCAN_FAILED, Description: %v", err)
		return
	}
	logging.Logger.Infof("Event ID: SCHEDULED_SCAN_DONE, Description: %d notifications created", len(created))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logging.Logger.Info("Event ID: SCHEDULER_STARTED, Description: notification scan scheduler started")
}

// Stop halts the schedule and waits for a running scan or ctx, whichever
// ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
