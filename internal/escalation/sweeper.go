// Package escalation – Sweeper
//
// This file implements the background sweep loop that keeps the ladder
// moving. On every tick the Sweeper loads all non-resolved doubts, runs each
// through Evaluate, and applies the resulting single-step transitions with a
// guarded update. A guard miss means another writer (a handler, or a second
// sweeper replica) got there first; the sweep logs it at debug level and
// moves on, so running the sweep twice is always safe.
//
// Observability: each pass runs under an OpenTelemetry span and records the
// Prometheus series defined in metrics.go.
package escalation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campusdesk/go-doubt-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ErrAlreadyRunning is returned by Start when the sweep loop is active.
var ErrAlreadyRunning = errors.New("sweeper already running")

// SweepResult summarizes a single pass over the non-resolved doubts.
type SweepResult struct {
	Evaluated int
	Advanced  int
	Conflicts int
	Faults    int
	Errors    int
}

// Sweeper periodically evaluates every non-resolved doubt against the dwell
// timers and applies due transitions. It is safe for a single Start/Stop
// cycle at a time; Stop waits for no in-flight pass but the guarded updates
// make an interrupted pass harmless.
type Sweeper struct {
	DB         *gorm.DB
	Thresholds Thresholds

	// Interval is how often a pass runs. A pass also runs immediately on
	// Start so a restart does not delay overdue doubts by a full interval.
	Interval time.Duration

	// Timeout bounds a single pass. Zero means no per-pass deadline.
	Timeout time.Duration

	// Now is the clock used for evaluation and the recorded transition
	// time. Nil means time.Now. Tests substitute a fixed clock.
	Now func() time.Time

	Log zerolog.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// Start launches the sweep loop. It returns ErrAlreadyRunning if the loop is
// active. The loop stops when ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.Log.Info().
		Dur("interval", s.Interval).
		Dur("open_after", s.Thresholds.OpenAfter).
		Dur("senior_after", s.Thresholds.SeniorAfter).
		Dur("professor_after", s.Thresholds.ProfessorAfter).
		Msg("escalation sweeper starting")

	go s.loop(ctx, done)
	return nil
}

// Stop signals the loop to exit. Safe to call multiple times and before
// Start.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.done)
	s.running = false
	s.Log.Info().Msg("escalation sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.runPass(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

// runPass wraps Sweep with the per-pass timeout and error logging so a
// failing pass never kills the loop.
func (s *Sweeper) runPass(ctx context.Context) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	res, err := s.Sweep(ctx)
	if err != nil {
		s.Log.Error().Err(err).Msg("escalation sweep failed")
		return
	}
	evt := s.Log.Debug()
	if res.Advanced > 0 || res.Faults > 0 || res.Errors > 0 {
		evt = s.Log.Info()
	}
	evt.
		Int("evaluated", res.Evaluated).
		Int("advanced", res.Advanced).
		Int("conflicts", res.Conflicts).
		Int("faults", res.Faults).
		Int("errors", res.Errors).
		Msg("escalation sweep completed")
}

// Sweep performs one pass: list non-resolved doubts, evaluate each, apply
// due transitions. Per-doubt failures are counted and skipped; only the
// candidate query itself can fail the whole pass. Exported so an operator
// endpoint or a test can trigger a pass on demand.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	tr := otel.Tracer("escalation/Sweeper")
	ctx, span := tr.Start(ctx, "Sweep")
	defer span.End()

	start := time.Now()
	defer func() { sweepDuration.Observe(time.Since(start).Seconds()) }()

	now := s.now()

	var res SweepResult
	doubts, err := repo.ListNonResolved(ctx, s.DB, "")
	if err != nil {
		span.RecordError(err)
		return res, err
	}

	for i := range doubts {
		d := &doubts[i]
		res.Evaluated++

		dec := Evaluate(d, now, s.Thresholds)
		if dec.Fault != "" {
			res.Faults++
			s.Log.Error().
				Str("doubt_id", d.ID).
				Str("status", string(d.Status)).
				Msg("skipping doubt with unrecognized status")
			continue
		}
		if !dec.Advance {
			continue
		}

		err := repo.AdvanceStatus(ctx, s.DB, d.ID, dec.From, dec.Next, dec.Cause, now)
		switch {
		case err == nil:
			res.Advanced++
			RecordTransition(string(dec.From), string(dec.Next), dec.Cause)
			s.Log.Info().
				Str("doubt_id", d.ID).
				Str("from", string(dec.From)).
				Str("to", string(dec.Next)).
				Str("cause", dec.Cause).
				Msg("doubt escalated")
		case errors.Is(err, repo.ErrConflict):
			// Lost the race to a handler or another sweeper. Benign;
			// the next pass re-evaluates from the new status.
			res.Conflicts++
			sweepConflicts.Inc()
			s.Log.Debug().
				Str("doubt_id", d.ID).
				Str("from", string(dec.From)).
				Msg("doubt changed concurrently, skipping")
		case errors.Is(err, repo.ErrNotFound):
			// Deleted between the list and the update.
			res.Conflicts++
			sweepConflicts.Inc()
		default:
			res.Errors++
			sweepErrors.Inc()
			span.RecordError(err)
			s.Log.Error().Err(err).
				Str("doubt_id", d.ID).
				Msg("failed to escalate doubt")
		}
	}

	span.SetAttributes(
		attribute.Int("sweep.evaluated", res.Evaluated),
		attribute.Int("sweep.advanced", res.Advanced),
		attribute.Int("sweep.conflicts", res.Conflicts),
	)

	return res, nil
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
