// Package timesync keeps the system clock honest on boards without an
// RTC. It shells out to ntpdate with a bounded timeout, periodically
// and once in a fixed early-morning window.
package timesync

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fbdash/fbdash/internal/consts"
	"github.com/fbdash/fbdash/internal/errors"
	"github.com/fbdash/fbdash/internal/exc"
	"github.com/fbdash/fbdash/internal/logx"
)

const (
	// DefaultInterval between periodic syncs.
	DefaultInterval = 6 * time.Hour
	// MaxFailures is the consecutive-failure cap; once reached the
	// agent stays disabled until the process restarts.
	MaxFailures = 3

	execTimeout = 30 * time.Second

	// forced daily sync window: 03:00-03:05 local time
	forcedWindowHour    = 3
	forcedWindowMinutes = 5
	forcedCooldown      = 5 * time.Minute
)

// Runner invokes the external time-synchronization command. Swapped
// out in tests.
type Runner func(ctx context.Context, timeout time.Duration, exe string, args ...string) (exc.Result, error)

// Agent tracks sync state for one NTP server. It is confined to the
// control loop goroutine.
type Agent struct {
	server   string
	interval time.Duration
	run      Runner
	logger   *slog.Logger

	lastSync   time.Time
	failures   int
	inProgress bool
}

func New(server string, interval time.Duration, logger *slog.Logger) *Agent {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Agent{
		server:   server,
		interval: interval,
		run:      exc.RunPrivileged,
		logger:   logger,
	}
}

// SetRunner replaces the external command runner.
func (a *Agent) SetRunner(run Runner) {
	if a == nil || run == nil {
		return
	}
	a.run = run
}

// ShouldSync reports whether a sync attempt is due at now: the periodic
// interval elapsed, or the forced early-morning window is open (with a
// short cooldown against repeat syncs inside the window). Permanently
// false once the failure cap is reached, and false while a sync is in
// flight.
func (a *Agent) ShouldSync(now time.Time) bool {
	if a == nil || a.inProgress || a.failures >= MaxFailures {
		return false
	}
	sinceSync := now.Sub(a.lastSync)
	if a.lastSync.IsZero() {
		sinceSync = a.interval + 1
	}
	forced := now.Hour() == forcedWindowHour &&
		now.Minute() < forcedWindowMinutes &&
		sinceSync > forcedCooldown
	return sinceSync > a.interval || forced
}

// Sync runs one sync attempt. It refuses to overlap a sync already in
// flight and stays refused once the failure cap is reached. Failures
// increment the consecutive-failure count; success resets it and stamps
// the sync time. The in-progress flag is cleared on every exit path.
func (a *Agent) Sync(ctx context.Context) error {
	if a == nil {
		return errors.New(consts.ErrNilReceiver)
	}
	if a.inProgress {
		return errors.New(consts.ErrSyncInProgress)
	}
	if a.failures >= MaxFailures {
		return errors.New(consts.ErrSyncDisabled)
	}
	a.inProgress = true
	defer func() { a.inProgress = false }()

	logx.Info(`syncing time`, a.logger, `server`, a.server)
	res, err := a.run(ctx, execTimeout, `ntpdate`, `-u`, a.server)
	if err != nil {
		a.failures++
		logx.Error(`time sync failed`, a.logger,
			`server`, a.server,
			`failures`, a.failures,
			`stderr`, strings.TrimSpace(res.Stderr),
			`cause`, err)
		if a.failures >= MaxFailures {
			logx.Warn(consts.ErrSyncDisabled.Error(), a.logger, `failures`, a.failures)
		}
		return errors.New(err)
	}
	a.lastSync = time.Now()
	a.failures = 0
	logx.Info(`time sync ok`, a.logger,
		`server`, a.server, `output`, strings.TrimSpace(res.Stdout))
	return nil
}

// Failures returns the consecutive-failure count.
func (a *Agent) Failures() int {
	if a == nil {
		return 0
	}
	return a.failures
}
