package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-system/internal/pkg/metrics"
)

const defaultInterval = 10 * time.Minute

// ExpiredSessionDeleter is the slice of the session repository the sweeper needs.
type ExpiredSessionDeleter interface {
	DeleteAllExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes sessions whose expiry has passed.
type Sweeper struct {
	sessions ExpiredSessionDeleter
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
	done     chan struct{}
	start    sync.Once
}

// New creates a Sweeper. If interval <= 0, defaultInterval is used.
func New(sessions ExpiredSessionDeleter, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{
		sessions: sessions,
		interval: interval,
		now:      time.Now,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start sweeps once immediately, then every interval, until ctx is cancelled.
// Only the first call starts the loop.
func (s *Sweeper) Start(ctx context.Context) {
	s.start.Do(func() { go s.run(ctx) })
}

// Done is closed once the sweeper goroutine has returned.
func (s *Sweeper) Done() <-chan struct{} {
	return s.done
}

// Sweep runs a single pass and returns the number of sessions deleted.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.sessions.DeleteAllExpired(ctx, s.now().UTC())
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, err
	}
	metrics.SessionsSweptTotal.Add(float64(n))
	return n, nil
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweepAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Msg("expired session sweep failed")
		}
		return
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("expired sessions swept")
	}
}
