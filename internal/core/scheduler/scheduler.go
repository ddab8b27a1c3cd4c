// Package scheduler fires the daily regeneration shortly after local
// midnight. The clock is injected so tests control time.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmorrell/daycoach/internal/core/logging"
)

// Fire time within the day, local to the configured timezone. A few
// minutes past midnight avoids racing the date rollover itself.
const (
	fireHour   = 0
	fireMinute = 5
)

// Clock abstracts time for the scheduler.
type Clock interface {
	Now() time.Time
	// After returns a channel that delivers the current time once d has
	// elapsed.
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns a Clock backed by the real time package.
func SystemClock() Clock { return systemClock{} }

// Job is the work executed on each tick.
type Job func(ctx context.Context, day time.Time) error

// Scheduler runs one Job once per day in the configured timezone.
type Scheduler struct {
	clock   Clock
	loc     *time.Location
	job     Job
	running sync.Mutex
	log     zerolog.Logger
}

// New creates a Scheduler. clock may be nil, in which case the system
// clock is used.
func New(clock Clock, loc *time.Location, job Job) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		clock: clock,
		loc:   loc,
		job:   job,
		log:   logging.Component("scheduler"),
	}
}

// NextFire returns the next fire instant strictly after now.
func (s *Scheduler) NextFire(now time.Time) time.Time {
	local := now.In(s.loc)
	fire := time.Date(local.Year(), local.Month(), local.Day(), fireHour, fireMinute, 0, 0, s.loc)
	if !fire.After(local) {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire
}

// Run blocks, firing the job at each daily tick until ctx is canceled.
// A tick that arrives while a previous run is still in flight is
// skipped rather than queued.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.clock.Now()
		next := s.NextFire(now)
		s.log.Debug().Ctx(ctx).Time("next_fire", next).Msg("sleeping until next tick")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(next.Sub(now)):
		}

		if !s.running.TryLock() {
			s.log.Warn().Ctx(ctx).Msg("previous run still in flight, skipping tick")
			continue
		}

		// The job runs off the loop so a long regeneration cannot delay
		// the next fire computation; the lock makes overlapping ticks
		// skip instead of queue.
		day := s.clock.Now().In(s.loc)
		go func() {
			defer s.running.Unlock()
			if err := s.job(ctx, day); err != nil {
				s.log.Error().Ctx(ctx).Err(err).Msg("scheduled regeneration failed")
			}
		}()
	}
}
