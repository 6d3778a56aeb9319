package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"vpdetect/internal/models"
)

const (
	DefaultMarkerRadius = 12
	DefaultStrokeWidth  = 3
)

type Style struct {
	MarkerColor  color.RGBA
	LineColor    color.RGBA
	MarkerRadius int
	StrokeWidth  int
}

func DefaultStyle() Style {
	red := color.RGBA{255, 0, 0, 255}
	return Style{
		MarkerColor:  red,
		LineColor:    red,
		MarkerRadius: DefaultMarkerRadius,
		StrokeWidth:  DefaultStrokeWidth,
	}
}

// ParseColor parses "#RRGGBB" into an opaque colour.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

type Renderer struct {
	style Style
}

func NewRenderer(style Style) *Renderer {
	if style.StrokeWidth < 1 {
		style.StrokeWidth = 1
	}
	if style.MarkerRadius < 1 {
		style.MarkerRadius = 1
	}
	return &Renderer{style: style}
}

func (r *Renderer) Style() Style {
	return r.style
}

// Render sizes target to the natural size of img, paints img over it and
// then draws the annotation for res. img must be fully decoded. The base is
// always repainted first so repeated calls never stack strokes.
func (r *Renderer) Render(target *Target, img image.Image, res models.Result) {
	bounds := img.Bounds()
	target.Resize(bounds.Dx(), bounds.Dy())

	dst := target.Image()
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)

	switch v := res.(type) {
	case models.Point:
		r.drawMarker(dst, v)
	case models.Segment:
		r.drawSegment(dst, v)
	}
}

// drawMarker draws a ring of MarkerRadius with a short crosshair through the
// centre pixel.
func (r *Renderer) drawMarker(img *image.RGBA, p models.Point) {
	radius := float64(r.style.MarkerRadius)
	half := float64(r.style.StrokeWidth) / 2
	col := r.style.MarkerColor

	// A centre further out than reach leaves nothing visible, so pinning it
	// there keeps the int conversion in range without changing the output.
	reach := r.style.MarkerRadius + r.style.StrokeWidth
	b := img.Bounds()
	cx := round(clamp(p.X, float64(b.Min.X-reach-1), float64(b.Max.X+reach)))
	cy := round(clamp(p.Y, float64(b.Min.Y-reach-1), float64(b.Max.Y+reach)))
	for y := cy - reach; y <= cy+reach; y++ {
		for x := cx - reach; x <= cx+reach; x++ {
			dx, dy := float64(x-cx), float64(y-cy)
			if math.Abs(math.Hypot(dx, dy)-radius) <= half {
				setPixel(img, x, y, col)
			}
		}
	}

	arm := float64(r.style.MarkerRadius / 2)
	fillSegment(img, float64(cx)-arm, float64(cy), float64(cx)+arm, float64(cy), half, col)
	fillSegment(img, float64(cx), float64(cy)-arm, float64(cx), float64(cy)+arm, half, col)
}

func (r *Renderer) drawSegment(img *image.RGBA, s models.Segment) {
	half := float64(r.style.StrokeWidth) / 2
	fillSegment(img, s.X1, s.Y1, s.X2, s.Y2, half, r.style.LineColor)
}

// fillSegment paints every pixel whose centre lies within half of the segment
// (x1,y1)-(x2,y2). Endpoints are always covered.
func fillSegment(img *image.RGBA, x1, y1, x2, y2, half float64, col color.RGBA) {
	// Clip in float space: coordinates past the int range must not wrap.
	b := img.Bounds()
	loX, hiX := float64(b.Min.X), float64(b.Max.X-1)
	loY, hiY := float64(b.Min.Y), float64(b.Max.Y-1)

	minX := int(clamp(math.Floor(math.Min(x1, x2)-half), loX, hiX+1))
	maxX := int(clamp(math.Ceil(math.Max(x1, x2)+half), loX-1, hiX))
	minY := int(clamp(math.Floor(math.Min(y1, y2)-half), loY, hiY+1))
	maxY := int(clamp(math.Ceil(math.Max(y1, y2)+half), loY-1, hiY))

	dx, dy := x2-x1, y2-y1
	lenSq := dx*dx + dy*dy

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x), float64(y)

			t := 0.0
			if lenSq > 0 {
				t = ((px-x1)*dx + (py-y1)*dy) / lenSq
				t = math.Max(0, math.Min(1, t))
			}
			nx, ny := x1+t*dx, y1+t*dy

			if math.Hypot(px-nx, py-ny) <= half {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

func setPixel(img *image.RGBA, x, y int, col color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, col)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64) int {
	return int(math.Round(v))
}
