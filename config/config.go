// Package config loads the display controller configuration.
//
// All fields have working defaults for a 480x320 SPI framebuffer on
// /dev/fb1; a JSON config file overrides them selectively.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/fbdash/fbdash/internal/consts"
	"github.com/fbdash/fbdash/internal/errors"
)

// Region is one named rectangle of the output frame. Later regions draw
// over earlier ones; rectangles need not be disjoint.
type Region struct {
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Config is the full controller configuration. It is set once at
// startup and never mutated afterwards.
type Config struct {
	Device          string   `json:"fb_device"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	FrameSize       int      `json:"frame_size,omitempty"` // derived from resolution when 0
	RefreshInterval float64  `json:"refresh_interval"`     // seconds
	NTPServer       string   `json:"ntp_server"`
	NTPSyncInterval int      `json:"ntp_sync_interval"` // seconds
	Layout          []Region `json:"layout"`
}

// Default returns the built-in configuration, matching the layout the
// controller shipped with: clock and weather side by side on top, the
// stock chart below.
func Default() *Config {
	return &Config{
		Device:          `/dev/fb1`,
		Width:           480,
		Height:          320,
		RefreshInterval: 0.5,
		NTPServer:       `pool.ntp.org`,
		NTPSyncInterval: 21600,
		Layout: []Region{
			{Name: `clock`, X: 0, Y: 0, Width: 180, Height: 80},
			{Name: `weather`, X: 180, Y: 0, Width: 300, Height: 80},
			{Name: `stocks`, X: 0, Y: 80, Width: 480, Height: 240},
		},
	}
}

// Load reads a config file over the defaults. An empty path or a
// missing file yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if len(path) == 0 {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.New(err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapPrefix(err, `parsing `+path, 1)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New(consts.ErrNilReceiver)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf(`invalid resolution %dx%d`, c.Width, c.Height)
	}
	if len(c.Device) == 0 {
		return errors.New(`empty framebuffer device path`)
	}
	if c.RefreshInterval <= 0 {
		return errors.Errorf(`invalid refresh interval %v`, c.RefreshInterval)
	}
	if len(c.Layout) == 0 {
		return errors.New(`empty layout`)
	}
	for _, reg := range c.Layout {
		if len(reg.Name) == 0 {
			return errors.New(`layout region without name`)
		}
		if reg.Width <= 0 || reg.Height <= 0 {
			return errors.Errorf(`layout region %q has invalid size %dx%d`,
				reg.Name, reg.Width, reg.Height)
		}
	}
	return nil
}

// FrameBytes is the fixed byte length of one encoded device frame.
func (c *Config) FrameBytes() int {
	if c.FrameSize > 0 {
		return c.FrameSize
	}
	return c.Width * c.Height * consts.BytesPerPixel
}

// Refresh is the base refresh interval as a duration.
func (c *Config) Refresh() time.Duration {
	return time.Duration(c.RefreshInterval * float64(time.Second))
}

// SyncInterval is the periodic NTP sync interval as a duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.NTPSyncInterval) * time.Second
}

// ModuleNames lists the widget module names referenced by the layout,
// in layout order.
func (c *Config) ModuleNames() []string {
	names := make([]string, 0, len(c.Layout))
	for _, reg := range c.Layout {
		names = append(names, reg.Name)
	}
	return names
}
