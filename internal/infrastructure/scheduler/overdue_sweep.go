// Package scheduler runs the periodic background jobs of the service.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/solarerp/backend/internal/infrastructure/cache"
	"github.com/solarerp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const overdueSweepLockKey = "overdue-sweep"

// OverdueMarker flips pending receivables past due to overdue
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// OverdueSweepConfig holds the daily trigger settings
type OverdueSweepConfig struct {
	Hour          int // local hour from which the day's sweep may run
	CheckInterval time.Duration
	JobTimeout    time.Duration
}

// OverdueSweep runs MarkOverdue once a day. Replicas coordinate through the
// job locker so a day's sweep runs on one of them.
type OverdueSweep struct {
	config OverdueSweepConfig
	marker OverdueMarker
	locker cache.JobLocker
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastRunDate string
}

// NewOverdueSweep creates the sweep trigger
func NewOverdueSweep(config OverdueSweepConfig, marker OverdueMarker, locker cache.JobLocker, logger *zap.Logger) *OverdueSweep {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueSweep{
		config: config,
		marker: marker,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

// Start launches the check loop; calling it twice is a no-op
func (s *OverdueSweep) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Overdue sweep started",
		zap.Int("hour", s.config.Hour),
		zap.Duration("check_interval", s.config.CheckInterval))
	return nil
}

// Stop cancels the loop and waits for a running sweep up to ctx's deadline
func (s *OverdueSweep) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Overdue sweep stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OverdueSweep) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.logger.Error("Overdue sweep failed", zap.Error(err))
			}
		}
	}
}

// Tick runs the sweep when today's run is due and not done yet.
// It reports whether a sweep ran in this process.
func (s *OverdueSweep) Tick(ctx context.Context) (bool, error) {
	now := s.now()
	today := now.Format("2006-01-02")

	s.mu.Lock()
	due := s.lastRunDate != today && now.Hour() >= s.config.Hour
	s.mu.Unlock()
	if !due {
		return false, nil
	}

	ran, err := s.RunNow(ctx)
	if err != nil {
		return false, err
	}
	// another replica holding the lock counts as done for today
	s.mu.Lock()
	s.lastRunDate = today
	s.mu.Unlock()
	return ran, nil
}

// RunNow sweeps immediately under the job lock. It returns false without
// error when another worker holds the lock.
func (s *OverdueSweep) RunNow(ctx context.Context) (bool, error) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	release, err := s.locker.Obtain(jobCtx, overdueSweepLockKey, s.config.JobTimeout)
	if errors.Is(err, cache.ErrLockHeld) {
		s.logger.Info("Overdue sweep running elsewhere, skipping")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release overdue sweep lock", zap.Error(err))
		}
	}()

	started := s.now()
	var changed int64
	telemetry.WithProfilingLabels(jobCtx, telemetry.OperationLabels("overdue_sweep", ""), func(c context.Context) {
		changed, err = s.marker.MarkOverdue(c, started)
	})
	if err != nil {
		return false, err
	}
	s.logger.Info("Overdue sweep completed",
		zap.Int64("receivables_marked", changed),
		zap.Duration("duration", s.now().Sub(started)))
	return true, nil
}
