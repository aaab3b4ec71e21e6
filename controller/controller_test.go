package controller_test

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbdash/fbdash/config"
	"github.com/fbdash/fbdash/controller"
	"github.com/fbdash/fbdash/internal/exc"
	"github.com/fbdash/fbdash/widget"
)

func stubSync(ctx context.Context, timeout time.Duration, exe string, args ...string) (exc.Result, error) {
	return exc.Result{}, nil
}

func init() {
	widget.Register(`ctl-solid`, func() (widget.Renderable, error) {
		return widget.RenderFunc(func(w, h int) (image.Image, error) {
			img := image.NewRGBA(image.Rect(0, 0, w, h))
			draw.Draw(img, img.Bounds(),
				image.NewUniform(color.RGBA{255, 255, 255, 255}), image.Point{}, draw.Src)
			return img, nil
		}), nil
	})
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Width, cfg.Height = 8, 4
	cfg.RefreshInterval = 0.01
	cfg.Layout = []config.Region{
		{Name: `ctl-solid`, X: 0, Y: 0, Width: 8, Height: 4},
	}
	dev := filepath.Join(t.TempDir(), `fb`)
	require.NoError(t, os.WriteFile(dev, make([]byte, cfg.FrameBytes()), 0o644))
	cfg.Device = dev
	return cfg
}

func TestRunWritesFrameAndShutsDownCleanly(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	ctl := controller.New(cfg, nil)
	ctl.TimeSync().SetRunner(stubSync)
	require.NoError(t, ctl.Run(ctx))

	got, err := os.ReadFile(cfg.Device)
	require.NoError(t, err)
	require.Len(t, got, cfg.FrameBytes())
	// an all-white frame encodes to all-ones RGB565 words
	for _, b := range got {
		assert.EqualValues(t, 0xFF, b)
	}
}

func TestRunFailsWithoutDevice(t *testing.T) {
	cfg := testConfig(t)
	cfg.Device = filepath.Join(t.TempDir(), `missing`)
	err := controller.New(cfg, nil).Run(context.Background())
	assert.Error(t, err)
}

func TestRunFailsWithZeroModules(t *testing.T) {
	cfg := testConfig(t)
	cfg.Layout = []config.Region{
		{Name: `ctl-unregistered`, X: 0, Y: 0, Width: 8, Height: 4},
	}
	err := controller.New(cfg, nil).Run(context.Background())
	assert.Error(t, err)
}
