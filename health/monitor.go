package health

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fbdash/fbdash/internal/logx"
	"github.com/fbdash/fbdash/widget"
)

const (
	// DefaultInterval between health check runs.
	DefaultInterval = 300 * time.Second
	// TempWarnThreshold in degrees Celsius.
	TempWarnThreshold = 70.0
)

// Monitor runs the periodic health check: retry failed modules, report
// performance, sample system diagnostics. Sensor absence is not an
// error; diagnostics are best-effort only.
type Monitor struct {
	interval time.Duration
	lastRun  time.Time
	registry *widget.Registry
	stats    *Stats
	logger   *slog.Logger
}

func NewMonitor(registry *widget.Registry, stats *Stats, logger *slog.Logger) *Monitor {
	return &Monitor{
		interval: DefaultInterval,
		registry: registry,
		stats:    stats,
		logger:   logger,
	}
}

// SetInterval overrides the health check spacing.
func (m *Monitor) SetInterval(d time.Duration) {
	if m == nil || d <= 0 {
		return
	}
	m.interval = d
}

// MaybeRun performs the health check if at least one interval has
// elapsed since the last run.
func (m *Monitor) MaybeRun(now time.Time) {
	if m == nil || now.Sub(m.lastRun) < m.interval {
		return
	}
	m.lastRun = now

	if recovered := m.registry.RetryFailed(now); recovered > 0 {
		logx.Info(`recovered failed modules`, m.logger, `count`, recovered)
	}
	m.stats.Report(m.logger)
	m.sampleSystem()
}

// sampleSystem logs temperature, memory and load diagnostics where
// available.
func (m *Monitor) sampleSystem() {
	if temps, err := host.SensorsTemperatures(); err == nil {
		for _, t := range temps {
			if !isCPUTempSensor(t.SensorKey) {
				continue
			}
			if t.Temperature > TempWarnThreshold {
				logx.Warn(`high CPU temperature`, m.logger,
					`sensor`, t.SensorKey, `celsius`, t.Temperature)
			} else {
				logx.Debug(`CPU temperature`, m.logger,
					`sensor`, t.SensorKey, `celsius`, t.Temperature)
			}
			break
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		logx.Debug(`memory`, m.logger, `usedPercent`, vm.UsedPercent)
	}
	if avg, err := load.Avg(); err == nil {
		logx.Debug(`load`, m.logger, `load1`, avg.Load1)
	}
}

func isCPUTempSensor(key string) bool {
	key = strings.ToLower(key)
	// cpu_thermal/cpu-thermal on Raspberry Pi, coretemp on x86
	return strings.Contains(key, `cpu`) || strings.Contains(key, `coretemp`) ||
		strings.Contains(key, `soc`)
}
