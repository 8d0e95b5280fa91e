// Package trigger re-invokes the scanner on a fixed schedule. Failed runs are
// logged and retried on the next tick; the scanner itself never retries.
package trigger

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bassamadnan/sheetcrm/crm"
)

// Scanner is the single-invocation operation the trigger drives.
type Scanner interface {
	Scan(ctx context.Context, now time.Time) (*crm.Report, error)
}

// Event is emitted after every invocation.
type Event struct {
	Report *crm.Report
	Err    error
	// Next is when the following invocation is due.
	Next time.Time
}

// Scheduler runs a Scanner once after an initial delay and then on every tick.
type Scheduler struct {
	scanner Scanner
	logger  zerolog.Logger
	now     func() time.Time
}

func NewScheduler(scanner Scanner, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scanner: scanner,
		logger:  logger.With().Str("component", "trigger").Logger(),
		now:     time.Now,
	}
}

// Run blocks until ctx is done, sending one Event per invocation. events is
// closed on return.
func (s *Scheduler) Run(ctx context.Context, events chan<- Event, initialDelay, interval time.Duration) {
	defer close(events)

	select {
	case <-ctx.Done():
		return
	case <-time.After(initialDelay):
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !s.runOnce(ctx, events, interval) {
			return
		}
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("stopping")
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, events chan<- Event, interval time.Duration) bool {
	now := s.now()
	report, err := s.scanner.Scan(ctx, now)
	if ctx.Err() != nil {
		return false
	}
	ev := Event{Report: report, Err: err, Next: now.Add(interval)}
	if err != nil {
		s.logger.Error().Err(err).Time("next", ev.Next).Msg("scan failed, will retry on next tick")
	}

	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
