package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// ExpiredSweeper periodically deletes rows that have passed their
// expiry, keeping the password_resets table from accumulating dead
// tokens.
type ExpiredSweeper struct {
	sweep    func(ctx context.Context) (int64, error)
	logger   *observability.Logger
	interval time.Duration
	cron     *cron.Cron
}

// NewExpiredSweeper creates a sweeper running the given function on the
// given interval.
func NewExpiredSweeper(sweep func(ctx context.Context) (int64, error), logger *observability.Logger, interval time.Duration) *ExpiredSweeper {
	return &ExpiredSweeper{
		sweep:    sweep,
		logger:   logger,
		interval: interval,
		cron:     cron.New(),
	}
}

// Start schedules the sweep and begins running it.
func (s *ExpiredSweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	s.cron.Start()
	s.logger.WithField("interval", s.interval.String()).Info("expired token sweeper started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *ExpiredSweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *ExpiredSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.sweep(ctx)
	if err != nil {
		s.logger.WithError(err).Error("expired token sweep failed")
		return
	}
	if n > 0 {
		s.logger.WithField("deleted", n).Info("expired reset tokens swept")
	}
}
