package render

import (
	"testing"

	"github.com/tapthaker/ghostty-android-sub001/grid"
)

func testParams(attrs grid.Attributes) DecorationParams {
	return DecorationParams{
		FG:                    grid.RGBA(255, 0, 0, 255),
		BG:                    grid.RGBA(0, 0, 255, 255),
		Attrs:                 attrs,
		CellWidth:             12,
		CellHeight:            24,
		UnderlinePosition:     18,
		UnderlineThickness:    2,
		StrikethroughPosition: 10,
	}
}

// bandRanges scans one pixel column and returns the contiguous y ranges
// where the decoration color is painted.
func bandRanges(t *testing.T, p DecorationParams, x float64) [][2]int {
	t.Helper()
	var ranges [][2]int
	open := -1
	for y := 0; y < int(p.CellHeight); y++ {
		if inDecorationBand(p, x, float64(y)+0.5) {
			if open < 0 {
				open = y
			}
			continue
		}
		if open >= 0 {
			ranges = append(ranges, [2]int{open, y})
			open = -1
		}
	}
	if open >= 0 {
		ranges = append(ranges, [2]int{open, int(p.CellHeight)})
	}
	return ranges
}

func TestSingleUnderlineOneBand(t *testing.T) {
	p := testParams(grid.Attributes(0).WithUnderline(grid.UnderlineSingle))
	bands := bandRanges(t, p, 3)
	if len(bands) != 1 {
		t.Fatalf("bands = %v, want one", bands)
	}
	if bands[0] != [2]int{18, 20} {
		t.Errorf("band = %v, want [18, 20)", bands[0])
	}
}

func TestDoubleUnderlineTwoNonOverlappingBands(t *testing.T) {
	p := testParams(grid.Attributes(0).WithUnderline(grid.UnderlineDouble))
	bands := bandRanges(t, p, 3)
	if len(bands) != 2 {
		t.Fatalf("bands = %v, want exactly two", bands)
	}
	if bands[0][1] > bands[1][0] {
		t.Errorf("bands %v overlap", bands)
	}
	if gap := bands[1][0] - bands[0][1]; gap < 1 {
		t.Errorf("gap between bands = %d, want >= 1", gap)
	}
	// Both bands are fully opaque decoration color.
	fg := p.FG.F32()
	got := ShadePixel(p, 3, float64(bands[0][0]), 0)
	if got != fg {
		t.Errorf("band pixel = %+v, want %+v", got, fg)
	}
}

func TestStrikethroughSeparateFromUnderline(t *testing.T) {
	attrs := grid.Attributes(grid.AttrStrikethrough).WithUnderline(grid.UnderlineSingle)
	p := testParams(attrs)
	bands := bandRanges(t, p, 3)
	if len(bands) != 2 {
		t.Fatalf("bands = %v, want strikethrough + underline", bands)
	}
	if bands[0][0] != int(p.StrikethroughPosition) {
		t.Errorf("strikethrough starts at %d, want %v", bands[0][0], p.StrikethroughPosition)
	}
}

func TestInverseNoInkRendersSolidBlock(t *testing.T) {
	p := testParams(grid.AttrInverse)
	want := p.FG.F32() // swapped: background becomes the old foreground
	for y := 0; y < int(p.CellHeight); y += 3 {
		for x := 0; x < int(p.CellWidth); x += 3 {
			got := ShadePixel(p, float64(x), float64(y), 0)
			if got != want {
				t.Fatalf("pixel (%d,%d) = %+v, want solid %+v", x, y, got, want)
			}
			if got.A != 1 {
				t.Fatalf("pixel (%d,%d) alpha = %v, want opaque", x, y, got.A)
			}
		}
	}
}

func TestInverseSwapHappensBeforeDecoration(t *testing.T) {
	attrs := grid.Attributes(grid.AttrInverse).WithUnderline(grid.UnderlineSingle)
	p := testParams(attrs)
	// The underline paints with the swapped foreground, i.e. the
	// original background color.
	got := ShadePixel(p, 3, p.UnderlinePosition+0.5, 0)
	if want := p.BG.F32(); got != want {
		t.Errorf("underline pixel = %+v, want swapped fg %+v", got, want)
	}
}

func TestDimHalvesRGB(t *testing.T) {
	p := testParams(grid.AttrDim)
	got := ShadePixel(p, 3, 3, 1) // full ink coverage
	fg := p.FG.F32()
	if got.R != fg.R*0.5 || got.G != fg.G*0.5 || got.B != fg.B*0.5 {
		t.Errorf("dim ink = %+v, want half of %+v", got, fg)
	}
	if got.A != fg.A {
		t.Errorf("dim changed alpha: %v", got.A)
	}
}

func TestDimAppliesToDecorationBands(t *testing.T) {
	attrs := grid.Attributes(grid.AttrDim).WithUnderline(grid.UnderlineSingle)
	p := testParams(attrs)
	got := ShadePixel(p, 3, p.UnderlinePosition+0.5, 0)
	fg := p.FG.F32()
	if got.R != fg.R*0.5 {
		t.Errorf("dim band = %+v, want half-bright fg", got)
	}
}

func TestDottedUnderlineDutyCycle(t *testing.T) {
	p := testParams(grid.Attributes(0).WithUnderline(grid.UnderlineDotted))
	y := p.UnderlinePosition + 0.5
	on, off := 0, 0
	for x := 0.0; x < p.CellWidth; x += 0.25 {
		if inDecorationBand(p, x, y) {
			on++
		} else {
			off++
		}
	}
	if on == 0 || off == 0 {
		t.Fatalf("dotted underline has no modulation: on=%d off=%d", on, off)
	}
	frac := float64(on) / float64(on+off)
	if frac < 0.3 || frac > 0.7 {
		t.Errorf("dotted duty = %v, want near %v", frac, dottedDuty)
	}
	// Outside the band row nothing is painted.
	if inDecorationBand(p, 0.1, y-4) {
		t.Error("dotted underline painted outside its band")
	}
}

func TestDashedUnderlinePeriod(t *testing.T) {
	p := testParams(grid.Attributes(0).WithUnderline(grid.UnderlineDashed))
	y := p.UnderlinePosition + 0.5
	// Count off-to-on transitions across the cell.
	dashes := 0
	prev := false
	for x := 0.0; x < p.CellWidth; x += 0.05 {
		cur := inDecorationBand(p, x, y)
		if cur && !prev {
			dashes++
		}
		prev = cur
	}
	if dashes != int(dashedPerCell) {
		t.Errorf("dashes per cell = %d, want %d", dashes, int(dashedPerCell))
	}
}

func TestCurlyUnderlineDisplacement(t *testing.T) {
	p := testParams(grid.Attributes(0).WithUnderline(grid.UnderlineCurly))
	// Band centers at the zero crossing and at the crest differ by the
	// sine amplitude.
	center := func(x float64) float64 {
		for y := 0.0; y < p.CellHeight; y += 0.05 {
			if inDecorationBand(p, x, y) {
				return y
			}
		}
		t.Fatalf("no curly band at x=%v", x)
		return 0
	}
	crest := p.CellWidth / (4 * curlyWaves) // sin peak
	diff := center(crest) - center(0)
	if diff < p.UnderlineThickness*0.5 {
		t.Errorf("curly displacement = %v, want near amplitude %v", diff, p.UnderlineThickness)
	}
}

func TestPlainCellTransparentOutsideInk(t *testing.T) {
	p := testParams(0)
	got := ShadePixel(p, 3, 3, 0)
	// The CPU reference composes over the background; with zero
	// coverage the background shows through unchanged.
	if want := p.BG.F32(); got != want {
		t.Errorf("uncovered pixel = %+v, want bg %+v", got, want)
	}
}

func TestShadePixelLuminanceCorrectedCoverage(t *testing.T) {
	// Grayscale ink over a grayscale ground: the composed pixel must
	// carry the luminance-corrected blend weight, not the raw coverage.
	p := testParams(0)
	p.FG = grid.RGBA(240, 240, 240, 255)
	p.BG = grid.RGBA(25, 25, 25, 255)

	cov := 0.5
	got := ShadePixel(p, 3, 3, cov)

	fg := p.FG.F32()
	bg := p.BG.F32()
	want := bg.R + (fg.R-bg.R)*grid.LuminanceAlpha(fg, bg, float32(cov))
	naive := bg.R + (fg.R-bg.R)*float32(cov)

	if diff := got.R - want; diff > 1e-4 || diff < -1e-4 {
		t.Errorf("composed channel = %v, want corrected %v", got.R, want)
	}
	if diff := got.R - naive; diff < 1e-3 && diff > -1e-3 {
		t.Errorf("composed channel %v indistinguishable from the raw mix %v", got.R, naive)
	}
}

func TestShadePixelIdempotent(t *testing.T) {
	attrs := grid.Attributes(grid.AttrDim | grid.AttrInverse).WithUnderline(grid.UnderlineDouble)
	p := testParams(attrs)
	for _, pt := range [][2]float64{{3, 3}, {3, 17.5}, {3, 19}, {6, 10.5}} {
		a := ShadePixel(p, pt[0], pt[1], 0.5)
		b := ShadePixel(p, pt[0], pt[1], 0.5)
		if a != b {
			t.Fatalf("pixel %v not deterministic: %+v vs %+v", pt, a, b)
		}
	}
}
