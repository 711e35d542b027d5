// Package retention periodically evicts finished sessions from the
// tracker so a long-running service does not accumulate result logs
// without bound.
package retention

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pdeepam/ai-test-tool/internal/metrics"
	"github.com/pdeepam/ai-test-tool/pkg/tracker"
)

// DefaultTTL is how long terminal sessions are kept after their last
// update.
const DefaultTTL = 24 * time.Hour

// DefaultSchedule runs the sweep at the top of every hour.
const DefaultSchedule = "0 * * * *"

// Sweeper removes stale terminal sessions on a cron schedule.
type Sweeper struct {
	tracker  *tracker.Tracker
	ttl      time.Duration
	schedule string
	cron     *cron.Cron
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// WithMetrics attaches eviction counters.
func (s *Sweeper) WithMetrics(m *metrics.Metrics) *Sweeper {
	s.metrics = m
	return s
}

// NewSweeper creates a sweeper. Non-positive ttl and empty schedule
// fall back to the defaults.
func NewSweeper(trk *tracker.Tracker, ttl time.Duration, schedule string, logger zerolog.Logger) (*Sweeper, error) {
	if trk == nil {
		return nil, fmt.Errorf("tracker is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{
		tracker:  trk,
		ttl:      ttl,
		schedule: schedule,
		logger:   logger,
	}, nil
}

// Start schedules the sweep. It returns once the schedule is armed.
func (s *Sweeper) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()

	s.logger.Info().
		Str("schedule", s.schedule).
		Dur("ttl", s.ttl).
		Msg("Retention sweeper started")
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Retention sweeper stopped")
}

// Sweep removes terminal sessions older than the TTL. It is safe to
// call directly outside the schedule.
func (s *Sweeper) Sweep() {
	cutoff := time.Now().Add(-s.ttl)
	removed := s.tracker.RemoveTerminalBefore(cutoff)
	s.metrics.AddEvicted(removed)
	if removed > 0 {
		s.logger.Info().
			Int("removed", removed).
			Time("cutoff", cutoff).
			Msg("Evicted stale sessions")
	}
}
