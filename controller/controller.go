// Package controller runs the render-compose-encode-write pipeline.
//
// One goroutine owns everything: widgets render synchronously, the
// device handle is exclusive to the writer, and cancellation is only
// observed at cycle boundaries. Per-cycle errors are contained inside
// the cycle; the only fatal conditions are an unopenable device and a
// layout with zero loadable modules at startup.
package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/fbdash/fbdash/compose"
	"github.com/fbdash/fbdash/config"
	"github.com/fbdash/fbdash/fbdev"
	"github.com/fbdash/fbdash/frame"
	"github.com/fbdash/fbdash/health"
	"github.com/fbdash/fbdash/internal/consts"
	"github.com/fbdash/fbdash/internal/errors"
	"github.com/fbdash/fbdash/internal/logx"
	"github.com/fbdash/fbdash/sched"
	"github.com/fbdash/fbdash/timesync"
	"github.com/fbdash/fbdash/widget"
)

type Controller struct {
	cfg      *config.Config
	registry *widget.Registry
	composer *compose.Composer
	detector *frame.ChangeDetector
	writer   *fbdev.Writer
	sleeper  *sched.Scheduler
	sync     *timesync.Agent
	stats    *health.Stats
	monitor  *health.Monitor
	logger   *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Controller {
	if cfg == nil {
		cfg = config.Default()
	}
	registry := widget.NewRegistry(logger)
	stats := health.NewStats()
	return &Controller{
		cfg:      cfg,
		registry: registry,
		composer: compose.New(cfg, logger),
		detector: &frame.ChangeDetector{},
		sleeper:  sched.New(cfg.Refresh()),
		sync:     timesync.New(cfg.NTPServer, cfg.SyncInterval(), logger),
		stats:    stats,
		monitor:  health.NewMonitor(registry, stats, logger),
		logger:   logger,
	}
}

// Registry exposes the module registry, mainly so tests and the CLI
// can inspect load state.
func (c *Controller) Registry() *widget.Registry { return c.registry }

// TimeSync exposes the sync agent so its external command runner can
// be replaced.
func (c *Controller) TimeSync() *timesync.Agent { return c.sync }

// setup opens the device and loads the layout's modules. An unopenable
// device or zero loaded modules aborts startup.
func (c *Controller) setup(ctx context.Context) error {
	writer, err := fbdev.Open(c.cfg.Device, c.cfg.FrameBytes(), c.logger)
	if err != nil {
		return err
	}
	c.writer = writer

	names := c.cfg.ModuleNames()
	loaded := c.registry.LoadAll(names)
	if loaded == 0 {
		return errors.New(consts.ErrNoModulesLoaded)
	}
	logx.Info(`modules loaded`, c.logger, `loaded`, loaded, `total`, len(names))

	if c.sync.ShouldSync(time.Now()) {
		c.sync.Sync(ctx)
	}
	return nil
}

// Run drives the loop until ctx is cancelled. The device is released
// on every exit path.
func (c *Controller) Run(ctx context.Context) error {
	if c == nil {
		return errors.New(consts.ErrNilReceiver)
	}
	if err := c.setup(ctx); err != nil {
		if c.writer != nil {
			c.writer.Close()
		}
		return err
	}
	defer func() {
		logx.IsErr(c.writer.Close(), c.logger, slog.LevelError)
		logx.Info(`display controller stopped`, c.logger)
	}()

	logx.Info(`display controller running`, c.logger,
		`device`, c.cfg.Device,
		`resolution`, []int{c.cfg.Width, c.cfg.Height},
		`refresh`, c.cfg.Refresh())

	// force the first write after opening the device
	force := true
	var prevCycle time.Duration
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		cycleStart := time.Now()

		if c.sync.ShouldSync(cycleStart) {
			c.sync.Sync(ctx)
		}

		renderStart := time.Now()
		frm := c.composer.Compose(c.registry)
		encoded := frame.EncodeRGB565(frm)
		renderTime := time.Since(renderStart)

		digest := frame.Fingerprint(encoded)
		if c.detector.ShouldWrite(digest, force) {
			if err := c.writer.Write(encoded); err != nil {
				// skipped this cycle; the loop keeps going
				logx.Error(`frame write failed`, c.logger, `cause`, err)
			} else {
				c.detector.MarkWritten(digest)
				force = false
			}
		}

		prevCycle = time.Since(cycleStart)
		c.stats.Record(health.CycleSample{Render: renderTime, Cycle: prevCycle})

		c.monitor.MaybeRun(time.Now())

		c.sleeper.Pause(ctx, prevCycle)
	}
}
