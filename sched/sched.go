// Package sched paces the control loop. The pause between cycles
// adapts to how expensive the previous cycle was.
package sched

import (
	"context"
	"time"
)

// Default pacing bounds for a 0.5s base refresh.
const (
	DefaultMinInterval = 50 * time.Millisecond
	DefaultMaxInterval = 2 * time.Second
)

// Scheduler computes and executes the inter-cycle pause. The decision
// is a pure function of the previous cycle's duration; only the pause
// bookkeeping is stateful.
type Scheduler struct {
	base, min, max time.Duration
	lastPauseEnd   time.Time
}

func New(base time.Duration) *Scheduler {
	return &Scheduler{base: base, min: DefaultMinInterval, max: DefaultMaxInterval}
}

// SetBounds overrides the pause clamp range.
func (s *Scheduler) SetBounds(min, max time.Duration) {
	if s == nil || min <= 0 || max < min {
		return
	}
	s.min, s.max = min, max
}

// Next returns the pause to take after a cycle that lasted prev.
// Expensive cycles back off, idle cycles tighten, everything stays
// within [min, max].
func (s *Scheduler) Next(prev time.Duration) time.Duration {
	if s == nil {
		return 0
	}
	switch {
	case prev > s.base*8/10:
		return min(s.base*3/2, s.max)
	case prev <= s.base*2/10:
		return max(s.base*8/10, s.min)
	default:
		return s.base
	}
}

// Pause blocks for Next(prev) minus the wall time spent on cycle work
// since the previous pause ended, so cadence errors do not accumulate
// and the frame period stays uniform. The delay is clamped at zero and
// returns early if ctx is cancelled.
func (s *Scheduler) Pause(ctx context.Context, prev time.Duration) {
	if s == nil {
		return
	}
	remaining := s.Next(prev)
	if !s.lastPauseEnd.IsZero() {
		remaining -= time.Since(s.lastPauseEnd)
	}
	if remaining > 0 {
		t := time.NewTimer(remaining)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	s.lastPauseEnd = time.Now()
}
