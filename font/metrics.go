package font

import (
	"fmt"
	"math"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Metrics holds the cell geometry and decoration constants derived from
// the regular face at one pixel size. Every value is in device pixels.
type Metrics struct {
	// Ascent is the distance from the baseline to the top of the cell.
	Ascent float64

	// Descent is the distance from the baseline to the bottom of the
	// cell, stored positive.
	Descent float64

	// LineGap is the font's recommended extra leading.
	LineGap float64

	// CellWidth is the advance width of the reference glyph '0'.
	CellWidth float64

	// CellHeight is the full line height: ascent + descent + line gap.
	CellHeight float64

	// Baseline is the Y offset of the baseline from the cell top.
	Baseline float64

	// UnderlinePosition is the Y offset of the underline band's top from
	// the cell top. Derived from the descent so the band clears the
	// baseline for all sizes, capped so a double underline's lower band
	// fits inside the cell.
	UnderlinePosition float64

	// UnderlineThickness is the underline band height, at least 1px.
	UnderlineThickness float64

	// StrikethroughPosition is the Y offset of the strikethrough band's
	// top from the cell top, placed at the middle of the x-height when
	// the font reports one.
	StrikethroughPosition float64
}

// metricsFor computes Metrics from a source at the given pixel size.
func metricsFor(s *Source, pixelSize float64) (Metrics, error) {
	var buf sfnt.Buffer
	m, err := s.ot.Metrics(&buf, fixed.Int26_6(pixelSize*64), xfont.HintingFull)
	if err != nil {
		return Metrics{}, fmt.Errorf("font: failed to read metrics: %w", err)
	}

	ascent := fixedToFloat(m.Ascent)
	descent := math.Abs(fixedToFloat(m.Descent))
	height := fixedToFloat(m.Height)
	lineGap := height - ascent - descent
	if lineGap < 0 {
		lineGap = 0
	}

	cellWidth := pixelSize * 0.6
	if gid := s.glyphIndex('0'); gid != 0 {
		adv, err := s.ot.GlyphAdvance(&buf, gid, fixed.Int26_6(pixelSize*64), xfont.HintingFull)
		if err == nil && adv > 0 {
			cellWidth = fixedToFloat(adv)
		}
	}

	baseline := ascent + lineGap/2
	thickness := math.Max(1, math.Round(pixelSize/14))

	xHeight := fixedToFloat(m.XHeight)
	if xHeight <= 0 {
		xHeight = ascent * 0.5
	}

	cellHeight := ascent + descent + lineGap
	return Metrics{
		Ascent:                ascent,
		Descent:               descent,
		LineGap:               lineGap,
		CellWidth:             cellWidth,
		CellHeight:            cellHeight,
		Baseline:              baseline,
		UnderlinePosition:     underlinePosition(baseline, descent, cellHeight, thickness),
		UnderlineThickness:    thickness,
		StrikethroughPosition: baseline - xHeight/2 - thickness/2,
	}, nil
}

// underlinePosition places the underline below the baseline, capped so
// the lower band of a double underline (position + 2*thickness) stays
// inside the cell.
func underlinePosition(baseline, descent, cellHeight, thickness float64) float64 {
	pos := baseline + math.Max(1, descent*0.4)
	if limit := cellHeight - 2*thickness; pos > limit {
		pos = limit
	}
	return pos
}

func fixedToFloat(x fixed.Int26_6) float64 {
	return float64(x) / 64.0
}
