package jobs

import (
	"context"
	"time"

	"realestate_backend/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	jobTimeout     = 5 * time.Minute
	stopTimeout    = 10 * time.Second
	reindexBatches = 200
)

// OTPSweeper removes expired one-time codes.
type OTPSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// PropertyReindexer rebuilds the property search index.
type PropertyReindexer interface {
	SyncAll(ctx context.Context, batchSize int) (int, error)
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cfg      *config.Config
	otps     OTPSweeper
	reindex  PropertyReindexer
	logger   *zap.Logger
	cron     *cron.Cron
	entryIDs []cron.EntryID
}

// NewScheduler builds a scheduler. reindex may be nil when search is disabled.
func NewScheduler(cfg *config.Config, otps OTPSweeper, reindex PropertyReindexer, logger *zap.Logger) *Scheduler {
	cl := NewCronLogger(logger.Named("cron"))
	return &Scheduler{
		cfg:     cfg,
		otps:    otps,
		reindex: reindex,
		logger:  logger.Named("scheduler"),
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
	}
}

// SetupAndStart registers every configured job and starts the cron loop.
// A job with an empty schedule is skipped.
func (s *Scheduler) SetupAndStart() error {
	if err := s.add("otp_sweep", s.cfg.OTPSweepSchedule, s.otps != nil, s.SweepOTPs); err != nil {
		return err
	}
	if err := s.add("property_reindex", s.cfg.PropertyReindexSchedule, s.reindex != nil, s.ReindexProperties); err != nil {
		return err
	}
	if len(s.entryIDs) == 0 {
		s.logger.Warn("No jobs scheduled")
		return nil
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) add(name, spec string, available bool, run func(context.Context)) error {
	if spec == "" || !available {
		s.logger.Info("Job disabled", zap.String("job", name))
		return nil
	}
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		run(ctx)
	})
	if err != nil {
		s.logger.Error("Failed to schedule job", zap.String("job", name), zap.String("spec", spec), zap.Error(err))
		return err
	}
	s.entryIDs = append(s.entryIDs, id)
	s.logger.Info("Job scheduled", zap.String("job", name), zap.String("spec", spec), zap.Int("entryID", int(id)))
	return nil
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.entryIDs)
}

// SweepOTPs runs one OTP sweep.
func (s *Scheduler) SweepOTPs(ctx context.Context) {
	removed, err := s.otps.Sweep(ctx)
	if err != nil {
		s.logger.Error("OTP sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("OTP sweep completed", zap.Int("removed", removed))
}

// ReindexProperties rebuilds the search index from the primary store.
func (s *Scheduler) ReindexProperties(ctx context.Context) {
	n, err := s.reindex.SyncAll(ctx, reindexBatches)
	if err != nil {
		s.logger.Error("Property reindex failed", zap.Error(err))
		return
	}
	s.logger.Info("Property reindex completed", zap.Int("indexed", n))
}

// Stop waits for running jobs to finish, up to a fixed timeout.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("Scheduler stopped")
	case <-time.After(stopTimeout):
		s.logger.Warn("Scheduler stop timed out")
	}
}
