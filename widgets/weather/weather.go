// Package weather renders current conditions fetched from wttr.in.
// Data is cached for half an hour; a failed refresh keeps showing the
// stale reading.
package weather

import (
	"image"
	"image/color"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/fbdash/fbdash/internal/errors"
	"github.com/fbdash/fbdash/widget"
)

func init() { widget.Register(`weather`, New) }

const (
	// %l|%C|%t: location, condition, temperature
	defaultURL   = `https://wttr.in/?format=%l|%C|%t`
	refreshEvery = 30 * time.Minute
	fetchTimeout = 5 * time.Second
)

var (
	accentColor = color.RGBA{R: 0, G: 80, B: 150, A: 255}
	labelColor  = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	tempColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	descColor   = color.RGBA{R: 0, G: 200, B: 255, A: 255}
	sunnyColor  = color.RGBA{R: 255, G: 165, B: 0, A: 255}
)

type reading struct {
	location string
	desc     string
	temp     string
	at       time.Time
}

type Weather struct {
	url      string
	client   *http.Client
	faceBig  font.Face
	faceTiny font.Face
	faceDesc font.Face
	cache    reading
}

var _ widget.Renderable = (*Weather)(nil)

func New() (widget.Renderable, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.New(err)
	}
	return &Weather{
		url:      defaultURL,
		client:   &http.Client{Timeout: fetchTimeout},
		faceBig:  truetype.NewFace(f, &truetype.Options{Size: 55}),
		faceTiny: truetype.NewFace(f, &truetype.Options{Size: 18}),
		faceDesc: truetype.NewFace(f, &truetype.Options{Size: 24}),
		cache:    reading{temp: `--`, desc: `syncing`},
	}, nil
}

// refresh pulls a new reading when the cache is stale. Fetch failures
// leave the previous reading in place.
func (w *Weather) refresh() {
	if time.Since(w.cache.at) < refreshEvery && !w.cache.at.IsZero() {
		return
	}
	resp, err := w.client.Get(w.url)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return
	}
	if r, ok := parseReading(string(body)); ok {
		r.at = time.Now()
		w.cache = r
	}
}

// parseReading splits the "%l|%C|%t" response format.
func parseReading(s string) (reading, bool) {
	parts := strings.Split(strings.TrimSpace(s), `|`)
	if len(parts) != 3 {
		return reading{}, false
	}
	temp := strings.TrimSpace(parts[2])
	temp = strings.TrimPrefix(temp, `+`)
	temp = strings.TrimSuffix(temp, `°C`)
	return reading{
		location: strings.TrimSpace(parts[0]),
		desc:     strings.TrimSpace(parts[1]),
		temp:     temp,
	}, true
}

func (w *Weather) Render(width, height int) (image.Image, error) {
	if w == nil {
		return nil, errors.NilReceiver()
	}
	w.refresh()

	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	const marginRight = 10

	// location, top right, matching the clock's date line
	dc.SetColor(labelColor)
	dc.SetFontFace(w.faceTiny)
	locW, _ := dc.MeasureString(w.cache.location)
	dc.DrawString(w.cache.location, float64(width)-locW-marginRight, 22)

	// temperature + condition, right aligned
	tempStr := w.cache.temp + `°`
	dc.SetFontFace(w.faceBig)
	tempW, _ := dc.MeasureString(tempStr)
	dc.SetFontFace(w.faceDesc)
	descW, _ := dc.MeasureString(w.cache.desc)
	startX := float64(width) - tempW - descW - 10 - marginRight

	dc.SetColor(tempColor)
	dc.SetFontFace(w.faceBig)
	dc.DrawString(tempStr, startX, float64(height)-14)

	col := descColor
	if strings.Contains(strings.ToLower(w.cache.desc), `sun`) ||
		strings.Contains(strings.ToLower(w.cache.desc), `clear`) {
		col = sunnyColor
	}
	dc.SetColor(col)
	dc.SetFontFace(w.faceDesc)
	dc.DrawString(w.cache.desc, startX+tempW+5, float64(height)-16)

	dc.SetColor(accentColor)
	dc.SetLineWidth(2)
	dc.DrawLine(0, float64(height)-1, float64(width), float64(height)-1)
	dc.Stroke()
	return dc.Image(), nil
}
