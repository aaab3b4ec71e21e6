// Package compose assembles one full-screen frame from the layout and
// whatever widget modules are currently usable.
package compose

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/fbdash/fbdash/config"
	"github.com/fbdash/fbdash/internal/logx"
	"github.com/fbdash/fbdash/widget"
)

// warning color for error placeholders
var placeholderColor = color.RGBA{R: 255, G: 50, B: 50, A: 255}

const placeholderLabelSize = 14

// Composer builds frames at a fixed resolution from a fixed layout.
type Composer struct {
	width, height int
	layout        []config.Region
	face          font.Face
	logger        *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Composer {
	c := &Composer{
		width:  cfg.Width,
		height: cfg.Height,
		layout: cfg.Layout,
		logger: logger,
	}
	if f, err := truetype.Parse(goregular.TTF); err == nil {
		c.face = truetype.NewFace(f, &truetype.Options{Size: placeholderLabelSize})
	}
	return c
}

// Compose renders every layout region in order onto a blank frame.
// Per-module failures are contained: a module that is absent, failed,
// or errors mid-render gets a placeholder instead of blanking the
// screen. Compose itself never fails.
func (c *Composer) Compose(reg *widget.Registry) *image.RGBA {
	frm := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	for _, region := range c.layout {
		mod, ok := reg.Get(region.Name)
		if !ok {
			c.drawPlaceholder(frm, region)
			continue
		}
		surface, err := mod.Render(region.Width, region.Height)
		if err != nil || surface == nil {
			// not a load failure; the registry keeps the module loaded
			logx.Error(`module render failed`, c.logger,
				`module`, region.Name, `cause`, err)
			c.drawPlaceholder(frm, region)
			continue
		}
		c.paste(frm, region, surface)
	}
	return frm
}

// paste copies a module surface to its region origin, clipped to the
// frame. A surface of the wrong size is scaled to fit rather than
// trusted.
func (c *Composer) paste(frm *image.RGBA, region config.Region, surface image.Image) {
	sb := surface.Bounds()
	if sb.Dx() != region.Width || sb.Dy() != region.Height {
		logx.Warn(`module surface has wrong size`, c.logger,
			`module`, region.Name,
			`want`, image.Pt(region.Width, region.Height),
			`got`, image.Pt(sb.Dx(), sb.Dy()))
		surface = resize.Resize(uint(region.Width), uint(region.Height), surface, resize.Bilinear)
		sb = surface.Bounds()
	}
	dstRect := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)
	dst := dstRect.Intersect(frm.Bounds())
	// advance the source point by whatever clipping cut off the origin
	src := sb.Min.Add(dst.Min.Sub(dstRect.Min))
	draw.Draw(frm, dst, surface, src, draw.Src)
}

// drawPlaceholder marks a region unusable: a 2px border in the warning
// color with the region name centered inside. Everything is clipped to
// the region so a long label cannot bleed into a neighbor.
func (c *Composer) drawPlaceholder(frm *image.RGBA, region config.Region) {
	dc := gg.NewContextForRGBA(frm)
	dc.DrawRectangle(float64(region.X), float64(region.Y),
		float64(region.Width), float64(region.Height))
	dc.Clip()
	dc.SetColor(placeholderColor)
	dc.SetLineWidth(2)
	dc.DrawRectangle(float64(region.X)+1, float64(region.Y)+1,
		float64(region.Width)-2, float64(region.Height)-2)
	dc.Stroke()
	if c.face != nil {
		dc.SetFontFace(c.face)
	}
	dc.DrawStringAnchored(region.Name+` Error`,
		float64(region.X)+float64(region.Width)/2,
		float64(region.Y)+float64(region.Height)/2,
		0.5, 0.5)
}
