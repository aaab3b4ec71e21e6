// Package clock renders the time-of-day widget: a small date line over
// a large HH:MM readout.
package clock

import (
	"image"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/fbdash/fbdash/internal/errors"
	"github.com/fbdash/fbdash/widget"
)

func init() { widget.Register(`clock`, New) }

var (
	accentColor = color.RGBA{R: 0, G: 80, B: 150, A: 255}
	dateColor   = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	timeColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

type Clock struct {
	faceTime font.Face
	faceDate font.Face
	now      func() time.Time
}

var _ widget.Renderable = (*Clock)(nil)

func New() (widget.Renderable, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.New(err)
	}
	return &Clock{
		faceTime: truetype.NewFace(f, &truetype.Options{Size: 55}),
		faceDate: truetype.NewFace(f, &truetype.Options{Size: 18}),
		now:      time.Now,
	}, nil
}

func (c *Clock) Render(width, height int) (image.Image, error) {
	if c == nil {
		return nil, errors.NilReceiver()
	}
	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	now := c.now()
	dc.SetColor(dateColor)
	dc.SetFontFace(c.faceDate)
	dc.DrawString(now.Format(`Mon Jan 02`), 12, 22)

	dc.SetColor(timeColor)
	dc.SetFontFace(c.faceTime)
	dc.DrawString(now.Format(`15:04`), 8, float64(height)-14)

	dc.SetColor(accentColor)
	dc.SetLineWidth(2)
	dc.DrawLine(0, float64(height)-1, float64(width), float64(height)-1)
	dc.Stroke()
	return dc.Image(), nil
}
