package health

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbdash/fbdash/internal/errors"
	"github.com/fbdash/fbdash/widget"
)

func TestStatsAverages(t *testing.T) {
	s := NewStats()
	s.Record(CycleSample{Render: 10 * time.Millisecond, Cycle: 20 * time.Millisecond})
	s.Record(CycleSample{Render: 30 * time.Millisecond, Cycle: 40 * time.Millisecond})

	assert.Equal(t, 20*time.Millisecond, s.AvgRender())
	assert.Equal(t, 30*time.Millisecond, s.AvgCycle())
	assert.InDelta(t, 1000.0/30.0, s.FPS(), 0.01)
	assert.EqualValues(t, 2, s.Frames())
}

func TestStatsEmpty(t *testing.T) {
	s := NewStats()
	assert.Zero(t, s.AvgRender())
	assert.Zero(t, s.AvgCycle())
	assert.Zero(t, s.FPS())
}

func TestStatsHistoryBounded(t *testing.T) {
	s := NewStats()
	// fill with slow cycles, then roll the window over with fast ones
	for i := 0; i < HistorySize; i++ {
		s.Record(CycleSample{Cycle: time.Second})
	}
	for i := 0; i < HistorySize; i++ {
		s.Record(CycleSample{Cycle: 10 * time.Millisecond})
	}
	assert.Equal(t, 10*time.Millisecond, s.AvgCycle(),
		`history must only cover the most recent samples`)
	assert.EqualValues(t, 2*HistorySize, s.Frames())
}

func TestMonitorRunsAtMostOncePerInterval(t *testing.T) {
	recovered := false
	widget.Register(`hm-flaky`, func() (widget.Renderable, error) {
		if !recovered {
			return nil, errors.New(`down`)
		}
		return widget.RenderFunc(func(w, h int) (image.Image, error) {
			return image.NewRGBA(image.Rect(0, 0, w, h)), nil
		}), nil
	})

	reg := widget.NewRegistry(nil)
	reg.SetRetryInterval(time.Nanosecond)
	require.Error(t, reg.Load(`hm-flaky`))
	recovered = true

	m := NewMonitor(reg, NewStats(), nil)
	m.SetInterval(time.Hour)

	now := time.Now()
	m.MaybeRun(now)
	require.Empty(t, reg.Failed(), `first health run retries failed modules`)

	// break it again; runs inside the monitor interval must not retry
	recovered = false
	require.Error(t, reg.Load(`hm-flaky`))
	recovered = true
	m.MaybeRun(now.Add(time.Minute))
	assert.NotEmpty(t, reg.Failed(), `health check ran again inside its interval`)

	m.MaybeRun(now.Add(2 * time.Hour))
	assert.Empty(t, reg.Failed())
}
