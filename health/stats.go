// Package health carries the controller's maintenance duties: retrying
// failed modules, reporting rolling performance numbers, and sampling
// best-effort system diagnostics.
package health

import (
	"log/slog"
	"time"

	"github.com/fbdash/fbdash/internal/logx"
)

// HistorySize bounds the rolling cycle history.
const HistorySize = 100

// CycleSample is the timing of one control loop iteration.
type CycleSample struct {
	Render time.Duration
	Cycle  time.Duration
}

// Stats keeps a bounded rolling history of cycle samples.
type Stats struct {
	samples [HistorySize]CycleSample
	next    int
	count   int

	frames  uint64
	started time.Time
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// Record appends one cycle sample, evicting the oldest once the
// history is full.
func (s *Stats) Record(sample CycleSample) {
	if s == nil {
		return
	}
	s.samples[s.next] = sample
	s.next = (s.next + 1) % HistorySize
	if s.count < HistorySize {
		s.count++
	}
	s.frames++
}

// AvgRender is the mean render duration over the history.
func (s *Stats) AvgRender() time.Duration { return s.avg(func(c CycleSample) time.Duration { return c.Render }) }

// AvgCycle is the mean full-cycle duration over the history.
func (s *Stats) AvgCycle() time.Duration { return s.avg(func(c CycleSample) time.Duration { return c.Cycle }) }

func (s *Stats) avg(get func(CycleSample) time.Duration) time.Duration {
	if s == nil || s.count == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < s.count; i++ {
		sum += get(s.samples[i])
	}
	return sum / time.Duration(s.count)
}

// FPS derives the effective frame rate from the average cycle time.
func (s *Stats) FPS() float64 {
	avg := s.AvgCycle()
	if avg <= 0 {
		return 0
	}
	return float64(time.Second) / float64(avg)
}

// Frames returns the total number of recorded cycles.
func (s *Stats) Frames() uint64 {
	if s == nil {
		return 0
	}
	return s.frames
}

// Uptime returns the wall time since the stats were created.
func (s *Stats) Uptime() time.Duration {
	if s == nil {
		return 0
	}
	return time.Since(s.started)
}

// Report logs the aggregate performance numbers.
func (s *Stats) Report(logger *slog.Logger) {
	if s == nil || s.count == 0 {
		return
	}
	logx.Info(`performance`, logger,
		`fps`, s.FPS(),
		`avgCycle`, s.AvgCycle(),
		`avgRender`, s.AvgRender(),
		`frames`, s.frames,
		`uptime`, s.Uptime().Round(time.Second))
}
