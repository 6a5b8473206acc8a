package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wodoo-app/subscription-service/internal/service"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// Config cron expressions for the scheduled jobs
type Config struct {
	// RenewalSweepSchedule renewal check plus expiry pass, default 09:00
	RenewalSweepSchedule string

	// CleanupSchedule notification retention cleanup, default 02:00
	CleanupSchedule string

	// Timezone the schedules are evaluated in
	Timezone string
}

// DefaultConfig returns the production schedules
func DefaultConfig() Config {
	return Config{
		RenewalSweepSchedule: "0 9 * * *",
		CleanupSchedule:      "0 2 * * *",
		Timezone:             "Europe/Istanbul",
	}
}

// Scheduler drives the sweep service on cron schedules
type Scheduler struct {
	cron  *cron.Cron
	sweep service.SweepService
	cfg   Config
	log   *logger.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(sweep service.SweepService, cfg Config, log *logger.Logger) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	c := cron.New(
		cron.WithLocation(location),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	return &Scheduler{
		cron:  c,
		sweep: sweep,
		cfg:   cfg,
		log:   log,
	}, nil
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.RenewalSweepSchedule, s.runRenewalSweep); err != nil {
		return err
	}
	s.log.Info("Scheduled renewal sweep: %s (%s)", s.cfg.RenewalSweepSchedule, s.cfg.Timezone)

	if _, err := s.cron.AddFunc(s.cfg.CleanupSchedule, s.runCleanup); err != nil {
		return err
	}
	s.log.Info("Scheduled notification cleanup: %s (%s)", s.cfg.CleanupSchedule, s.cfg.Timezone)

	s.cron.Start()
	return nil
}

// Stop stops the cron loop and returns a context that closes once running
// jobs have finished
func (s *Scheduler) Stop() context.Context {
	s.log.Info("Stopping scheduler")
	return s.cron.Stop()
}

// runRenewalSweep runs the renewal check and then the expiry pass, matching
// the order the daily job has always used.
func (s *Scheduler) runRenewalSweep() {
	ctx := context.Background()
	s.sweep.CheckRenewals(ctx)
	s.sweep.DeactivateExpired(ctx)
}

func (s *Scheduler) runCleanup() {
	s.sweep.CleanupNotifications(context.Background())
}
