package render

import (
	"math"

	"github.com/tapthaker/ghostty-android-sub001/font"
	"github.com/tapthaker/ghostty-android-sub001/grid"
)

// Decoration band shape constants.
// Matches the constants in cell_text.wgsl.
const (
	// dottedPeriodFactor scales the underline thickness into the dot
	// repeat period.
	dottedPeriodFactor = 4.0
	dottedDuty         = 0.5

	// dashedPerCell is the number of dash periods across one cell.
	dashedPerCell = 3.0
	dashedDuty    = 0.6

	// curlyWaves is the number of full sine waves across one cell.
	curlyWaves = 1.0
)

// DecorationParams is the per-cell state the fragment stage needs to
// shade one pixel. FG and BG are the engine-order colors; the inverse
// swap happens inside ShadePixel.
type DecorationParams struct {
	FG, BG grid.Color
	Attrs  grid.Attributes

	CellWidth, CellHeight float64

	UnderlinePosition     float64
	UnderlineThickness    float64
	StrikethroughPosition float64
}

// ParamsFromMetrics fills the geometry fields of DecorationParams from
// font metrics.
func ParamsFromMetrics(m font.Metrics) DecorationParams {
	return DecorationParams{
		CellWidth:             m.CellWidth,
		CellHeight:            m.CellHeight,
		UnderlinePosition:     m.UnderlinePosition,
		UnderlineThickness:    m.UnderlineThickness,
		StrikethroughPosition: m.StrikethroughPosition,
	}
}

// ShadePixel is the CPU mirror of the glyph-pass fragment logic in
// cell_text.wgsl. x and y are pixel coordinates relative to the cell's
// top-left corner; coverage is the glyph ink coverage at that pixel,
// zero outside the glyph bounds. The decoration tests run against this
// function.
//
// Per-pixel order: resolve effective colors (inverse swap), compose the
// base color from ink coverage, dim, then override with the decoration
// band color when the pixel falls inside a band.
func ShadePixel(p DecorationParams, x, y float64, coverage float64) grid.ColorF32 {
	fg := p.FG.F32()
	bg := p.BG.F32()
	if p.Attrs.Inverse() {
		fg, bg = bg, fg
	}

	// Coverage is corrected so the gamma-space blend below lands on the
	// luminance a linear-space blend would produce.
	out := mix(bg, fg, grid.LuminanceAlpha(fg, bg, float32(coverage)))

	if p.Attrs.Dim() {
		fg = scaleRGB(fg, 0.5)
		out = scaleRGB(out, 0.5)
	}

	if inDecorationBand(p, x, y) {
		out = fg
	}
	return out
}

// inDecorationBand reports whether the pixel at (x, y) falls inside an
// underline or strikethrough band of the cell.
func inDecorationBand(p DecorationParams, x, y float64) bool {
	th := p.UnderlineThickness
	if p.Attrs.Strikethrough() {
		if y >= p.StrikethroughPosition && y < p.StrikethroughPosition+th {
			return true
		}
	}

	pos := p.UnderlinePosition
	switch p.Attrs.Underline() {
	case grid.UnderlineSingle:
		return y >= pos && y < pos+th
	case grid.UnderlineDouble:
		// Two bands of one thickness each, separated by a gap of one
		// thickness, centered on the single-underline position.
		if y >= pos-th && y < pos {
			return true
		}
		return y >= pos+th && y < pos+2*th
	case grid.UnderlineDotted:
		if y < pos || y >= pos+th {
			return false
		}
		period := th * dottedPeriodFactor
		return math.Mod(x, period) < dottedDuty*period
	case grid.UnderlineDashed:
		if y < pos || y >= pos+th {
			return false
		}
		period := p.CellWidth / dashedPerCell
		return math.Mod(x, period) < dashedDuty*period
	case grid.UnderlineCurly:
		// Sine-displaced band; amplitude one thickness, frequency fixed
		// per cell width.
		center := pos + th/2 + th*math.Sin(2*math.Pi*curlyWaves*x/p.CellWidth)
		return math.Abs(y-center) < th/2
	}
	return false
}

func mix(a, b grid.ColorF32, t float32) grid.ColorF32 {
	return grid.ColorF32{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}

func scaleRGB(c grid.ColorF32, s float32) grid.ColorF32 {
	return grid.ColorF32{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A}
}
