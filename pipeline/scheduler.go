package pipeline

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"drspark-watcher/utils"
)

// Scheduler fires a job on a fixed interval with random jitter, at most one
// execution in flight. Triggers that land while a run is still going are
// dropped, ticks missed during a long run are coalesced into one catch-up
// run, and a trigger arriving later than the grace window is skipped as a
// misfire rather than run late.
type Scheduler struct {
	interval time.Duration
	jitter   time.Duration
	grace    time.Duration
	logger   *utils.Logger
	job      func(context.Context)

	running sync.Mutex // single-flight guard around job execution
}

// NewScheduler creates a Scheduler for job. jitter spreads each fire
// uniformly within ±jitter of its scheduled time.
func NewScheduler(interval, jitter, grace time.Duration, logger *utils.Logger,
	job func(context.Context)) *Scheduler {
	return &Scheduler{
		interval: interval,
		jitter:   jitter,
		grace:    grace,
		logger:   logger,
		job:      job,
	}
}

// Run blocks on the trigger loop until ctx is cancelled. This is the process
// main lifecycle; the first fire happens one interval after Run starts.
func (s *Scheduler) Run(ctx context.Context) {
	next := time.Now().Add(s.interval)
	timer := time.NewTimer(time.Until(next.Add(s.jitterOffset())))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		now := time.Now()
		late := now.Sub(next)

		// Coalesce: advance past every tick that elapsed while we were busy,
		// so at most one catch-up run happens instead of a replay per tick.
		missed := 0
		for !next.After(now) {
			next = next.Add(s.interval)
			missed++
		}
		if missed > 1 {
			s.logger.Warn("Coalesced %d missed triggers into one run", missed)
		}

		if late > s.grace {
			s.logger.Warn("Trigger misfired (%v late, grace %v) — skipping", late.Round(time.Second), s.grace)
		} else if !s.TryRun(ctx) {
			s.logger.Warn("Previous cycle still running — trigger dropped")
		}

		timer.Reset(time.Until(next.Add(s.jitterOffset())))
	}
}

// TryRun executes the job unless one is already in flight, in which case it
// reports false without blocking. The mutex, not the loop structure, is what
// guarantees the seen store's check-then-insert never races.
func (s *Scheduler) TryRun(ctx context.Context) bool {
	if !s.running.TryLock() {
		return false
	}
	defer s.running.Unlock()

	s.job(ctx)
	return true
}

func (s *Scheduler) jitterOffset() time.Duration {
	if s.jitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(2*s.jitter))) - s.jitter
}
