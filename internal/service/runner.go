package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRunnerInterval = 15 * time.Minute
	// Generous upper bound for one paced batch: batch size x two calls x
	// pacing interval, plus upstream latency.
	defaultRunTimeout = 10 * time.Minute
)

// RunnerService executes validation batches on a periodic schedule in the
// server process.
type RunnerService struct {
	orch   *Orchestrator
	logger *zap.Logger

	interval  time.Duration
	batchSize int
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

func NewRunnerService(orch *Orchestrator, logger *zap.Logger) *RunnerService {
	return &RunnerService{
		orch:      orch,
		logger:    logger,
		interval:  defaultRunnerInterval,
		batchSize: DefaultBatchSize,
		stopCh:    make(chan struct{}),
	}
}

func (s *RunnerService) SetInterval(d time.Duration) {
	s.interval = d
}

func (s *RunnerService) SetBatchSize(n int) {
	s.batchSize = n
}

// Start runs the validation loop in a background goroutine.
func (s *RunnerService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("validation runner started",
			zap.Duration("interval", s.interval),
			zap.Int("batch_size", s.batchSize))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
				if _, err := s.orch.Run(ctx, s.batchSize); err != nil {
					s.logger.Error("scheduled validation run failed", zap.Error(err))
				}
				cancel()
			case <-s.stopCh:
				s.logger.Info("validation runner stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the runner.
func (s *RunnerService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}
