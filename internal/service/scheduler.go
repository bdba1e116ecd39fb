package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ipgongchang/fanout/internal/config"
)

// Scheduler periodically scans for scheduled jobs whose schedule_at has
// passed and re-enters the dispatcher's per-task loop for them.
type Scheduler struct {
	config       *config.SchedulerConfig
	logger       *zap.Logger
	distribution *DistributionService
	ticker       *time.Ticker
	stopCh       chan struct{}
}

func NewScheduler(cfg *config.SchedulerConfig, logger *zap.Logger, distribution *DistributionService) *Scheduler {
	return &Scheduler{
		config:       cfg,
		logger:       logger,
		distribution: distribution,
		stopCh:       make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.config.Disabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	interval, err := time.ParseDuration(s.config.ScanInterval)
	if err != nil {
		s.logger.Error("Invalid scan interval", zap.String("interval", s.config.ScanInterval), zap.Error(err))
		return err
	}

	s.logger.Info("Starting scheduler", zap.String("scan_interval", s.config.ScanInterval))

	s.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.runScan(ctx)
			case <-s.stopCh:
				s.logger.Info("Scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	s.logger.Info("Scheduler shutdown completed")
}

func (s *Scheduler) runScan(ctx context.Context) {
	start := time.Now()
	dispatched, err := s.distribution.DispatchDueJobs(ctx)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("Due-job scan failed",
			zap.Error(err),
			zap.Duration("duration", duration))
		return
	}

	if dispatched > 0 {
		s.logger.Info("Dispatched due jobs",
			zap.Int("count", dispatched),
			zap.Duration("duration", duration))
	}
}
