package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/boomchecker/moderation-gateway/internal/metrics"
)

// DefaultCleanupInterval is how often idle limiter histories are swept
const DefaultCleanupInterval = 5 * time.Minute

// Sweeper evicts idle rate-limit histories
type Sweeper interface {
	Sweep() int
	Len() int
}

// CleanupService handles periodic eviction of idle rate-limit state
type CleanupService struct {
	limiter  Sweeper
	interval time.Duration
	metrics  *metrics.Metrics
	log      zerolog.Logger
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(limiter Sweeper, interval time.Duration, m *metrics.Metrics, log zerolog.Logger) *CleanupService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupService{
		limiter:  limiter,
		interval: interval,
		metrics:  m,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start begins the periodic cleanup process
func (s *CleanupService) Start() {
	s.ticker = time.NewTicker(s.interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.runCleanup()
			case <-s.done:
				s.log.Info().Msg("Cleanup service stopped")
				return
			}
		}
	}()

	s.log.Info().Dur("interval", s.interval).Msg("Cleanup service started")
}

// Stop stops the cleanup service. Safe to call more than once.
func (s *CleanupService) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
	})
}

// runCleanup sweeps the limiter and returns the number of evicted keys
func (s *CleanupService) runCleanup() int {
	evicted := s.limiter.Sweep()
	remaining := s.limiter.Len()
	s.metrics.LimiterSwept(evicted, remaining)

	s.log.Debug().
		Int("evicted", evicted).
		Int("tracked", remaining).
		Msg("Rate limiter sweep completed")
	return evicted
}

// RunCleanupNow triggers an immediate cleanup (useful for testing or manual trigger)
func (s *CleanupService) RunCleanupNow() int {
	return s.runCleanup()
}
