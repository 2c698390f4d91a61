package utils

import (
	"math"

	"print-area-pricing/models"
)

// DefaultPrintAreaWidthMm is used when a product side has no calibration
const DefaultPrintAreaWidthMm = 500.0

// Rect is an axis-aligned rectangle in canvas pixels
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the right edge
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the bottom edge
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Empty reports whether the rectangle covers no area
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Union returns the smallest rectangle covering r and o
func (r Rect) Union(o Rect) Rect {
	left := math.Min(r.Left, o.Left)
	top := math.Min(r.Top, o.Top)
	return Rect{
		Left:   left,
		Top:    top,
		Width:  math.Max(r.Right(), o.Right()) - left,
		Height: math.Max(r.Bottom(), o.Bottom()) - top,
	}
}

// Measurement is an object's physical footprint, relative to the print area origin
type Measurement struct {
	XMm      float64
	YMm      float64
	WidthMm  float64
	HeightMm float64
}

// Rounded returns m with every value rounded for display
func (m Measurement) Rounded() Measurement {
	return Measurement{
		XMm:      RoundDisplay(m.XMm),
		YMm:      RoundDisplay(m.YMm),
		WidthMm:  RoundDisplay(m.WidthMm),
		HeightMm: RoundDisplay(m.HeightMm),
	}
}

// UnitConverter converts between canvas pixels and millimeters for one product side.
// The ratio is fixed at construction so every object of a pricing pass uses the same one.
type UnitConverter struct {
	mmPerPixel  float64
	approximate bool
}

// NewUnitConverter derives the pixel ratio from the side's real print-area width and the
// rendered width of its mockup image. A missing real width falls back to 500mm and a
// missing rendered width to 1mm per pixel; both mark the converter approximate.
func NewUnitConverter(realWidthMm, renderedWidthPx float64) *UnitConverter {
	approximate := false
	if !(realWidthMm > 0) || math.IsInf(realWidthMm, 0) {
		realWidthMm = DefaultPrintAreaWidthMm
		approximate = true
	}
	if !(renderedWidthPx > 0) || math.IsInf(renderedWidthPx, 0) {
		return &UnitConverter{mmPerPixel: 1, approximate: true}
	}
	return &UnitConverter{
		mmPerPixel:  realWidthMm / renderedWidthPx,
		approximate: approximate,
	}
}

// NewSideConverter builds the converter for a calibrated product side
func NewSideConverter(side models.ProductSide, fallbackWidthMm float64) *UnitConverter {
	width := side.PrintAreaWidthMm
	if !(width > 0) && fallbackWidthMm > 0 {
		conv := NewUnitConverter(fallbackWidthMm, side.RenderedImageWidthPx)
		conv.approximate = true
		return conv
	}
	return NewUnitConverter(width, side.RenderedImageWidthPx)
}

// MMPerPixel returns the conversion ratio
func (c *UnitConverter) MMPerPixel() float64 { return c.mmPerPixel }

// Approximate reports whether a fallback ratio is in use
func (c *UnitConverter) Approximate() bool { return c.approximate }

// PxToMm converts a pixel length to millimeters
func (c *UnitConverter) PxToMm(px float64) float64 { return px * c.mmPerPixel }

// MmToPx converts a millimeter length to pixels
func (c *UnitConverter) MmToPx(mm float64) float64 { return mm / c.mmPerPixel }

// RectToMm converts a pixel rectangle to millimeters relative to the given origin
func (c *UnitConverter) RectToMm(r Rect, originLeft, originTop float64) Measurement {
	return Measurement{
		XMm:      c.PxToMm(r.Left - originLeft),
		YMm:      c.PxToMm(r.Top - originTop),
		WidthMm:  c.PxToMm(r.Width),
		HeightMm: c.PxToMm(r.Height),
	}
}

// MeasureObject returns the full-precision physical footprint of geometry g
func (c *UnitConverter) MeasureObject(g models.Geometry, originLeft, originTop float64) Measurement {
	return c.RectToMm(BoundingRect(g), originLeft, originTop)
}

// RoundDisplay rounds a millimeter value to one decimal place
func RoundDisplay(mm float64) float64 {
	return math.Round(mm*10) / 10
}

// BoundingRect returns the axis-aligned bounds of g after scaling and rotation.
// The stroke is drawn centered on the outline and adds its width to each dimension.
// Rotation is around the object's left/top anchor, as the editor places objects.
func BoundingRect(g models.Geometry) Rect {
	scaleX, scaleY := g.ScaleX, g.ScaleY
	if scaleX == 0 {
		scaleX = 1
	}
	if scaleY == 0 {
		scaleY = 1
	}
	stroke := math.Max(g.StrokeWidth, 0)
	w := math.Abs((g.Width + stroke) * scaleX)
	h := math.Abs((g.Height + stroke) * scaleY)
	if g.Width <= 0 || g.Height <= 0 {
		// degenerate shapes carry no printable area even with a stroke
		w, h = math.Max(g.Width, 0)*math.Abs(scaleX), math.Max(g.Height, 0)*math.Abs(scaleY)
	}

	angle := math.Mod(g.Angle, 360)
	if angle == 0 {
		return Rect{Left: g.Left, Top: g.Top, Width: w, Height: h}
	}

	sin, cos := math.Sincos(angle * math.Pi / 180)
	xs := [4]float64{0, w * cos, w*cos - h*sin, -h * sin}
	ys := [4]float64{0, w * sin, w*sin + h*cos, h * cos}
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < 4; i++ {
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}
	return Rect{
		Left:   g.Left + minX,
		Top:    g.Top + minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// CombinedBounds returns the union of all non-empty rects, and false when there are none
func CombinedBounds(rects []Rect) (Rect, bool) {
	var out Rect
	found := false
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		if !found {
			out, found = r, true
			continue
		}
		out = out.Union(r)
	}
	return out, found
}
