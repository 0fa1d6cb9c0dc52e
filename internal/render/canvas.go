package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/floats"
	"pricebot/internal/market"
)

const (
	canvasWidth  = 800
	canvasHeight = 400

	// fillAlpha is the opacity of the gradient fill right below the chart's top edge.
	fillAlpha = 0.35
)

var (
	background = color.RGBA{20, 20, 20, 255}
	white      = color.RGBA{255, 255, 255, 255}
	gray       = color.RGBA{128, 128, 128, 255}
	green      = color.RGBA{76, 175, 80, 255}
	red        = color.RGBA{229, 57, 53, 255}
	accent     = color.RGBA{247, 147, 26, 255}
)

type canvas struct {
	img       *image.RGBA
	large     font.Face
	title     font.Face
	small     font.Face
	watermark string
}

func newCanvas(f *Fonts, watermark string) (*canvas, error) {
	if f == nil || f.Bold == nil || f.Regular == nil {
		return nil, errors.New("fonts not loaded")
	}
	c := &canvas{watermark: watermark}
	var err error
	if c.large, err = newFace(f.Bold, 40); err != nil {
		return nil, err
	}
	if c.title, err = newFace(f.Bold, 28); err != nil {
		c.close()
		return nil, err
	}
	if c.small, err = newFace(f.Regular, 20); err != nil {
		c.close()
		return nil, err
	}
	c.img = image.NewRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	fill(c.img, c.img.Bounds(), background)
	return c, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face %.0fpt: %w", size, err)
	}
	return face, nil
}

func (c *canvas) close() {
	for _, f := range []font.Face{c.large, c.title, c.small} {
		if f != nil {
			_ = f.Close()
		}
	}
}

func (c *canvas) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCard lays out logo, name, stats and chart the way the /p card looks.
func (c *canvas) drawCard(s market.Snapshot, in inputs) {
	col := lineColor(in.logo)

	c.drawImage(in.logo, image.Rect(30, 30, 110, 110))
	c.text(c.large, 130, 30, s.Name, white)
	c.text(c.small, 130, 80, s.Symbol, gray)

	c.text(c.large, 30, 140, "$"+FormatGroupedPrice(s.PriceUSD), white)
	c.text(c.small, 30, 190, "Market Cap: $"+FormatWhole(s.MarketCapUSD), gray)
	c.text(c.small, 30, 220, "24h Volume: $"+FormatWhole(s.Volume24hUSD), gray)

	c.text(c.small, 30, 260, "1h: "+FormatChange(s.Change1h), changeColor(s.Change1h))
	c.text(c.small, 30, 290, "24h: "+FormatChange(s.Change24h), changeColor(s.Change24h))
	c.text(c.small, 30, 320, "7d: "+FormatChange(s.Change7d), changeColor(s.Change7d))

	c.plot(in.history, image.Rect(380, 180, 780, 380), col)
	c.drawWatermark()
}

// drawChart gives the whole body to the price line, with a one-line header.
func (c *canvas) drawChart(s market.Snapshot, in inputs) {
	col := lineColor(in.logo)

	c.drawImage(in.logo, image.Rect(30, 24, 78, 72))
	c.text(c.title, 92, 22, fmt.Sprintf("%s (%s)", s.Name, s.Symbol), white)
	price := "$" + FormatGroupedPrice(s.PriceUSD)
	x := c.text(c.small, 92, 56, price, white)
	c.text(c.small, x+12, 56, FormatChange(s.Change24h)+" 24h", changeColor(s.Change24h))

	c.plot(in.history, image.Rect(30, 100, 770, 350), col)
	c.drawWatermark()
}

func (c *canvas) drawWatermark() {
	if c.watermark == "" {
		return
	}
	w := font.MeasureString(c.small, c.watermark).Ceil()
	d := font.Drawer{Dst: c.img, Src: image.NewUniform(gray), Face: c.small, Dot: fixed.P(760-w, 370)}
	d.DrawString(c.watermark)
}

// text draws s with its top-left corner at (x, top) and returns the x where the text ends.
func (c *canvas) text(face font.Face, x, top int, s string, col color.Color) int {
	baseline := top + face.Metrics().Ascent.Ceil()
	d := font.Drawer{Dst: c.img, Src: image.NewUniform(col), Face: face, Dot: fixed.P(x, baseline)}
	d.DrawString(s)
	return d.Dot.X.Ceil()
}

func (c *canvas) drawImage(src image.Image, dst image.Rectangle) {
	draw.CatmullRom.Scale(c.img, dst, src, src.Bounds(), draw.Over, nil)
}

type fpoint struct{ x, y float64 }

// plot draws points as a line over a vertical gradient fill inside area.
// x follows time; y is scaled between the series minimum and maximum.
func (c *canvas) plot(points []market.PricePoint, area image.Rectangle, col color.RGBA) {
	n := len(points)
	if n < 2 {
		return
	}
	prices := make([]float64, n)
	for i, p := range points {
		prices[i] = p.Price
	}
	lo, hi := floats.Min(prices), floats.Max(prices)
	span := points[n-1].Time.Sub(points[0].Time)

	xy := make([]fpoint, n)
	for i, p := range points {
		fx := float64(i) / float64(n-1)
		if span > 0 {
			fx = float64(p.Time.Sub(points[0].Time)) / float64(span)
		}
		fy := 0.5
		if hi > lo {
			fy = (p.Price - lo) / (hi - lo)
		}
		xy[i] = fpoint{
			x: float64(area.Min.X) + fx*float64(area.Dx()-1),
			y: float64(area.Max.Y-1) - fy*float64(area.Dy()-1),
		}
	}

	for px := area.Min.X; px < area.Max.X; px++ {
		ly, ok := lineY(xy, float64(px))
		if !ok {
			continue
		}
		for py := int(math.Ceil(ly)); py < area.Max.Y; py++ {
			a := fillAlpha * float64(area.Max.Y-py) / float64(area.Dy())
			blend(c.img, px, py, col, a)
		}
	}
	for i := 1; i < n; i++ {
		c.segment(xy[i-1], xy[i], col)
	}
}

// lineY interpolates the polyline at x. xy is sorted by x.
func lineY(xy []fpoint, x float64) (float64, bool) {
	if x < xy[0].x || x > xy[len(xy)-1].x {
		return 0, false
	}
	i := sort.Search(len(xy), func(i int) bool { return xy[i].x >= x })
	if i == 0 {
		return xy[0].y, true
	}
	a, b := xy[i-1], xy[i]
	if b.x == a.x {
		return b.y, true
	}
	t := (x - a.x) / (b.x - a.x)
	return a.y + t*(b.y-a.y), true
}

// segment draws a two pixel wide line from a to b.
func (c *canvas) segment(a, b fpoint, col color.RGBA) {
	dx, dy := b.x-a.x, b.y-a.y
	steps := int(math.Max(math.Abs(dx), math.Abs(dy))*2) + 1
	for k := 0; k <= steps; k++ {
		t := float64(k) / float64(steps)
		x := int(math.Round(a.x + t*dx))
		y := int(math.Round(a.y + t*dy))
		for ox := -1; ox <= 1; ox++ {
			for oy := -1; oy <= 1; oy++ {
				if ox*ox+oy*oy <= 1 {
					blend(c.img, x+ox, y+oy, col, 1)
				}
			}
		}
	}
}

// blend paints col over the opaque pixel at (x, y) with opacity a.
func blend(img *image.RGBA, x, y int, col color.RGBA, a float64) {
	if !image.Pt(x, y).In(img.Rect) || a <= 0 {
		return
	}
	if a > 1 {
		a = 1
	}
	i := img.PixOffset(x, y)
	src := [3]uint8{col.R, col.G, col.B}
	for k := 0; k < 3; k++ {
		img.Pix[i+k] = uint8(float64(src[k])*a + float64(img.Pix[i+k])*(1-a) + 0.5)
	}
	img.Pix[i+3] = 255
}

func fill(img draw.Image, r image.Rectangle, col color.Color) {
	draw.Draw(img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func changeColor(v float64) color.RGBA {
	if v < 0 {
		return red
	}
	return green
}

// lineColor picks the chart color from the logo, falling back to accent when
// the logo has no opaque pixels or its main color would vanish on the background.
func lineColor(logo image.Image) color.RGBA {
	c, ok := dominantColor(logo)
	if !ok {
		return accent
	}
	if luma := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B); luma < 60 {
		return accent
	}
	return c
}

// dominantColor returns the most frequent opaque color of logo downscaled to
// 50x50. Ties go to the color that reached the count first in scan order.
func dominantColor(logo image.Image) (color.RGBA, bool) {
	if logo == nil || logo.Bounds().Empty() {
		return color.RGBA{}, false
	}
	small := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), logo, logo.Bounds(), draw.Src, nil)

	counts := make(map[color.RGBA]int)
	var best color.RGBA
	bestN := 0
	for i := 0; i+3 < len(small.Pix); i += 4 {
		if small.Pix[i+3] < 128 {
			continue
		}
		c := color.RGBA{small.Pix[i], small.Pix[i+1], small.Pix[i+2], 255}
		counts[c]++
		if counts[c] > bestN {
			best, bestN = c, counts[c]
		}
	}
	return best, bestN > 0
}
