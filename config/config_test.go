package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, `/dev/fb1`, cfg.Device)
	assert.Equal(t, 480, cfg.Width)
	assert.Equal(t, 320, cfg.Height)
	assert.Equal(t, 480*320*2, cfg.FrameBytes())
	assert.Equal(t, 500*time.Millisecond, cfg.Refresh())
	assert.Equal(t, 6*time.Hour, cfg.SyncInterval())
	assert.Equal(t, []string{`clock`, `weather`, `stocks`}, cfg.ModuleNames())
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), `absent.json`))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathKeepsDefaults(t *testing.T) {
	cfg, err := Load(``)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), `config.json`)
	require.NoError(t, os.WriteFile(path, []byte(`{
		"fb_device": "/dev/fb0",
		"width": 320,
		"height": 240,
		"refresh_interval": 1.0,
		"layout": [
			{"name": "clock", "x": 0, "y": 0, "width": 320, "height": 240}
		]
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, `/dev/fb0`, cfg.Device)
	assert.Equal(t, 320*240*2, cfg.FrameBytes())
	assert.Equal(t, time.Second, cfg.Refresh())
	assert.Equal(t, []string{`clock`}, cfg.ModuleNames())
	// layout order defines draw order
	assert.Equal(t, Region{Name: `clock`, Width: 320, Height: 240}, cfg.Layout[0])
}

func TestLoadExplicitFrameSizeWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), `config.json`)
	require.NoError(t, os.WriteFile(path, []byte(`{"frame_size": 12345}`), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12345, cfg.FrameBytes())
}

func TestLoadRejectsBadConfigs(t *testing.T) {
	for name, content := range map[string]string{
		`bad json`:       `{`,
		`zero width`:     `{"width": 0}`,
		`empty device`:   `{"fb_device": ""}`,
		`empty layout`:   `{"layout": []}`,
		`nameless entry`: `{"layout": [{"x":0,"y":0,"width":10,"height":10}]}`,
		`zero region`:    `{"layout": [{"name":"clock","width":0,"height":10}]}`,
		`zero refresh`:   `{"refresh_interval": 0}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), `config.json`)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
