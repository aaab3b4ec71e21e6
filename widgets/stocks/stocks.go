// Package stocks renders a daily candlestick chart of the CSI 300
// index from the Sina quotes API. Bars are cached for fifteen minutes;
// fetch failures keep the previous chart on screen.
package stocks

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/fbdash/fbdash/internal/errors"
	"github.com/fbdash/fbdash/widget"
)

func init() { widget.Register(`stocks`, New) }

const (
	defaultURL = `https://money.finance.sina.com.cn/quotes_service/api/json_v2.php/CN_MarketData.getKLineData` +
		`?symbol=sz399300&scale=240&datalen=60`
	refererHeader = `http://finance.sina.com.cn`
	refreshEvery  = 15 * time.Minute
	fetchTimeout  = 10 * time.Second

	title = `CSI 300`
)

var (
	// CN market convention: red up, green down
	upColor    = color.RGBA{R: 255, G: 50, B: 50, A: 255}
	downColor  = color.RGBA{R: 50, G: 255, B: 50, A: 255}
	gridColor  = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	titleColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	dimColor   = color.RGBA{R: 100, G: 100, B: 100, A: 255}
)

// Bar is one daily candlestick.
type Bar struct {
	Open, High, Low, Close float64
}

type Stocks struct {
	url       string
	client    *http.Client
	faceTitle font.Face
	facePrice font.Face

	bars     []Bar
	status   string
	lastPull time.Time
}

var _ widget.Renderable = (*Stocks)(nil)

func New() (widget.Renderable, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.New(err)
	}
	return &Stocks{
		url:       defaultURL,
		client:    &http.Client{Timeout: fetchTimeout},
		faceTitle: truetype.NewFace(f, &truetype.Options{Size: 16}),
		facePrice: truetype.NewFace(f, &truetype.Options{Size: 14}),
		status:    `Ready`,
	}, nil
}

// sinaBar matches the Sina K-line JSON, which carries numbers as
// strings.
type sinaBar struct {
	Open  string `json:"open"`
	High  string `json:"high"`
	Low   string `json:"low"`
	Close string `json:"close"`
}

func (s *Stocks) refresh() {
	if time.Since(s.lastPull) < refreshEvery && !s.lastPull.IsZero() {
		return
	}
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		s.status = `Net-Retry`
		return
	}
	req.Header.Set(`Referer`, refererHeader)
	resp, err := s.client.Do(req)
	if err != nil {
		s.status = `Net-Retry`
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.status = fmt.Sprintf(`Error:%d`, resp.StatusCode)
		return
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		s.status = `Net-Retry`
		return
	}
	bars, err := parseBars(body)
	if err != nil || len(bars) == 0 {
		s.status = `No-Data`
		return
	}
	s.bars = bars
	s.status = `Sina-Live`
	s.lastPull = time.Now()
}

func parseBars(body []byte) ([]Bar, error) {
	var raw []sinaBar
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.New(err)
	}
	bars := make([]Bar, 0, len(raw))
	for _, rb := range raw {
		o, errO := strconv.ParseFloat(rb.Open, 64)
		h, errH := strconv.ParseFloat(rb.High, 64)
		l, errL := strconv.ParseFloat(rb.Low, 64)
		c, errC := strconv.ParseFloat(rb.Close, 64)
		if err := errors.Join(errO, errH, errL, errC); err != nil {
			return nil, errors.New(err)
		}
		bars = append(bars, Bar{Open: o, High: h, Low: l, Close: c})
	}
	return bars, nil
}

func (s *Stocks) Render(width, height int) (image.Image, error) {
	if s == nil {
		return nil, errors.NilReceiver()
	}
	s.refresh()

	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	// background grid
	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	for i := 1; i < 4; i++ {
		y := float64(height) / 4 * float64(i)
		dc.DrawLine(0, y, float64(width), y)
	}
	dc.Stroke()

	if len(s.bars) == 0 {
		dc.SetColor(dimColor)
		dc.SetFontFace(s.faceTitle)
		dc.DrawStringAnchored(`loading chart data...`,
			float64(width)/2, float64(height)/2, 0.5, 0.5)
		return dc.Image(), nil
	}
	s.drawChart(dc, width, height)
	return dc.Image(), nil
}

func (s *Stocks) drawChart(dc *gg.Context, width, height int) {
	yMin, yMax := s.bars[0].Low, s.bars[0].High
	for _, b := range s.bars {
		yMin = min(yMin, b.Low)
		yMax = max(yMax, b.High)
	}
	yMin *= 0.99
	yMax *= 1.01
	yRange := yMax - yMin
	if yRange <= 0 {
		yRange = 1
	}
	toY := func(v float64) float64 {
		return float64(height) - (v-yMin)/yRange*float64(height-40) - 10
	}

	last := s.bars[len(s.bars)-1]
	lastColor := upColor
	if last.Close < last.Open {
		lastColor = downColor
	}
	dc.SetColor(titleColor)
	dc.SetFontFace(s.faceTitle)
	dc.DrawString(title+` | `+s.status, 10, 19)
	dc.SetColor(lastColor)
	dc.SetFontFace(s.facePrice)
	dc.DrawString(strconv.FormatFloat(last.Close, 'f', 1, 64), float64(width)-100, 17)

	barW := float64(width) / float64(len(s.bars))
	for i, b := range s.bars {
		col := upColor
		if b.Close < b.Open {
			col = downColor
		}
		xCenter := float64(i)*barW + barW/2
		dc.SetColor(col)

		// wick
		dc.SetLineWidth(1)
		dc.DrawLine(xCenter, toY(b.High), xCenter, toY(b.Low))
		dc.Stroke()

		// body; flat bars still get one visible row
		top := toY(max(b.Open, b.Close))
		bottom := toY(min(b.Open, b.Close))
		if bottom-top < 1 {
			bottom = top + 1
		}
		dc.DrawRectangle(float64(i)*barW+1, top, barW-2, bottom-top)
		dc.Fill()
	}
}
