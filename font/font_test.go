package font

import (
	"image"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/tapthaker/ghostty-android-sub001/grid"
)

func newTestSource(t *testing.T, data []byte) *Source {
	t.Helper()
	src, err := NewSource(data)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	return src
}

func TestNewSourceEmptyData(t *testing.T) {
	if _, err := NewSource(nil); err != ErrEmptyFontData {
		t.Fatalf("NewSource(nil) error = %v, want ErrEmptyFontData", err)
	}
}

func TestNewSourceGarbage(t *testing.T) {
	if _, err := NewSource([]byte("not a font")); err == nil {
		t.Fatal("NewSource accepted garbage data")
	}
}

func TestSourceHasGlyph(t *testing.T) {
	src := newTestSource(t, goregular.TTF)
	if !src.HasGlyph('A') {
		t.Error("regular source should have glyph for 'A'")
	}
	if src.HasGlyph('\U0001F600') {
		t.Error("Go font should not have an emoji glyph")
	}
}

func TestSourceName(t *testing.T) {
	src := newTestSource(t, goregular.TTF)
	if src.Name() == "" {
		t.Error("source name is empty")
	}
}

func TestCollectionRequiresRegular(t *testing.T) {
	if _, err := NewCollection(nil); err != ErrNoRegular {
		t.Fatalf("NewCollection(nil) error = %v, want ErrNoRegular", err)
	}
}

func TestCollectionVariantFallback(t *testing.T) {
	regular := newTestSource(t, goregular.TTF)
	coll, err := NewCollection(regular)
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}

	for _, v := range []grid.StyleVariant{
		grid.StyleRegular, grid.StyleBold, grid.StyleItalic, grid.StyleBoldItalic,
	} {
		if got := coll.Source(v); got != regular {
			t.Errorf("Source(%v) = %p, want regular fallback", v, got)
		}
	}

	bold := newTestSource(t, gobold.TTF)
	coll.SetVariant(grid.StyleBold, bold)
	if got := coll.Source(grid.StyleBold); got != bold {
		t.Error("Source(StyleBold) did not return the installed bold face")
	}
	if got := coll.Source(grid.StyleRegular); got != regular {
		t.Error("installing bold must not change the regular source")
	}
}

func TestCollectionSyntheticFlags(t *testing.T) {
	regular := newTestSource(t, goregular.TTF)
	coll, err := NewCollection(regular)
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}

	// With only a regular face installed, bold and italic are synthesized.
	_, sb, si := coll.sourceFor(grid.StyleBold)
	if !sb || si {
		t.Errorf("StyleBold synthetic flags = (%v, %v), want (true, false)", sb, si)
	}
	_, sb, si = coll.sourceFor(grid.StyleItalic)
	if sb || !si {
		t.Errorf("StyleItalic synthetic flags = (%v, %v), want (false, true)", sb, si)
	}
	_, sb, si = coll.sourceFor(grid.StyleBoldItalic)
	if !sb || !si {
		t.Errorf("StyleBoldItalic synthetic flags = (%v, %v), want (true, true)", sb, si)
	}

	// An installed bold face removes the bold synthesis, and serves
	// bold-italic with only the italic half synthesized.
	coll.SetVariant(grid.StyleBold, newTestSource(t, gobold.TTF))
	_, sb, si = coll.sourceFor(grid.StyleBold)
	if sb || si {
		t.Errorf("installed StyleBold synthetic flags = (%v, %v), want (false, false)", sb, si)
	}
	src, sb, si := coll.sourceFor(grid.StyleBoldItalic)
	if src != coll.Source(grid.StyleBold) {
		t.Error("StyleBoldItalic should prefer the installed bold face")
	}
	if sb || !si {
		t.Errorf("StyleBoldItalic over bold face synthetic flags = (%v, %v), want (false, true)", sb, si)
	}
}

func TestMetricsSanity(t *testing.T) {
	src := newTestSource(t, goregular.TTF)
	m, err := metricsFor(src, 32)
	if err != nil {
		t.Fatalf("metricsFor: %v", err)
	}

	if m.Ascent <= 0 {
		t.Errorf("Ascent = %v, want > 0", m.Ascent)
	}
	if m.Descent <= 0 {
		t.Errorf("Descent = %v, want > 0", m.Descent)
	}
	if m.CellWidth <= 0 || m.CellWidth >= m.CellHeight {
		t.Errorf("CellWidth = %v, CellHeight = %v; want 0 < width < height", m.CellWidth, m.CellHeight)
	}
	if m.CellHeight < m.Ascent+m.Descent {
		t.Errorf("CellHeight = %v, want >= ascent+descent = %v", m.CellHeight, m.Ascent+m.Descent)
	}
	if m.Baseline <= 0 || m.Baseline > m.CellHeight {
		t.Errorf("Baseline = %v, want within (0, %v]", m.Baseline, m.CellHeight)
	}
	if m.UnderlinePosition <= m.Baseline {
		t.Errorf("UnderlinePosition = %v, want below baseline %v", m.UnderlinePosition, m.Baseline)
	}
	if m.UnderlinePosition >= m.CellHeight {
		t.Errorf("UnderlinePosition = %v, want inside the cell (< %v)", m.UnderlinePosition, m.CellHeight)
	}
	if m.StrikethroughPosition >= m.Baseline {
		t.Errorf("StrikethroughPosition = %v, want above baseline %v", m.StrikethroughPosition, m.Baseline)
	}
	if m.UnderlineThickness < 1 {
		t.Errorf("UnderlineThickness = %v, want >= 1", m.UnderlineThickness)
	}
}

func TestMetricsScaleWithSize(t *testing.T) {
	src := newTestSource(t, goregular.TTF)
	small, err := metricsFor(src, 16)
	if err != nil {
		t.Fatalf("metricsFor(16): %v", err)
	}
	large, err := metricsFor(src, 32)
	if err != nil {
		t.Fatalf("metricsFor(32): %v", err)
	}
	if large.CellHeight <= small.CellHeight {
		t.Errorf("CellHeight did not grow with size: %v -> %v", small.CellHeight, large.CellHeight)
	}
	if large.CellWidth <= small.CellWidth {
		t.Errorf("CellWidth did not grow with size: %v -> %v", small.CellWidth, large.CellWidth)
	}
}

func TestUnderlinePositionClamped(t *testing.T) {
	// A small-descent font would push the underline past the cell; the
	// lower band of a double underline must still fit.
	pos := underlinePosition(20, 0.5, 21, 2)
	if pos+2*2 > 21 {
		t.Errorf("position %v leaves the double underline outside the cell", pos)
	}

	// A comfortable descent keeps the metric-derived position.
	pos = underlinePosition(20, 6, 30, 2)
	if want := 20 + 6*0.4; pos != want {
		t.Errorf("position = %v, want unclamped %v", pos, want)
	}
}

func TestRasterizerGlyph(t *testing.T) {
	regular := newTestSource(t, goregular.TTF)
	coll, err := NewCollection(regular)
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	rast, err := coll.NewRasterizer(24)
	if err != nil {
		t.Fatalf("NewRasterizer: %v", err)
	}

	g, err := rast.Glyph('M', grid.StyleRegular)
	if err != nil {
		t.Fatalf("Glyph('M'): %v", err)
	}
	if g.IsColor() {
		t.Error("'M' should be a monochrome glyph")
	}
	if g.Width() <= 0 || g.Height() <= 0 {
		t.Errorf("glyph size = %dx%d, want positive", g.Width(), g.Height())
	}

	// The mask must carry ink somewhere.
	var ink bool
	for _, a := range g.Mask.Pix {
		if a > 0 {
			ink = true
			break
		}
	}
	if !ink {
		t.Error("glyph mask for 'M' is empty")
	}
}

func TestRasterizerSyntheticBoldWider(t *testing.T) {
	regular := newTestSource(t, goregular.TTF)
	coll, err := NewCollection(regular)
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	rast, err := coll.NewRasterizer(24)
	if err != nil {
		t.Fatalf("NewRasterizer: %v", err)
	}

	plain, err := rast.Glyph('l', grid.StyleRegular)
	if err != nil {
		t.Fatalf("Glyph regular: %v", err)
	}
	bold, err := rast.Glyph('l', grid.StyleBold)
	if err != nil {
		t.Fatalf("Glyph bold: %v", err)
	}
	if bold.Width() <= plain.Width() {
		t.Errorf("synthetic bold width = %d, want > regular width %d", bold.Width(), plain.Width())
	}
}

func TestRasterizerMissingGlyph(t *testing.T) {
	regular := newTestSource(t, goregular.TTF)
	coll, err := NewCollection(regular)
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	rast, err := coll.NewRasterizer(24)
	if err != nil {
		t.Fatalf("NewRasterizer: %v", err)
	}
	if _, err := rast.Glyph('\U0001F600', grid.StyleRegular); err == nil {
		t.Error("expected an error for a codepoint absent from every face")
	}
}

func TestSmearBold(t *testing.T) {
	src := image.NewAlpha(image.Rect(0, 0, 3, 1))
	copy(src.Pix, []uint8{0, 200, 0})
	dst := smearBold(src)
	if dst.Rect.Dx() != 4 {
		t.Fatalf("smeared width = %d, want 4", dst.Rect.Dx())
	}
	want := []uint8{0, 200, 200, 0}
	for x, w := range want {
		if got := dst.AlphaAt(x, 0).A; got != w {
			t.Errorf("pixel %d = %d, want %d", x, got, w)
		}
	}
}

func TestIsEmoji(t *testing.T) {
	cases := []struct {
		r    rune
		want bool
	}{
		{'A', false},
		{'0', false},
		{0x2500, false},      // box drawing
		{0x1F600, true},      // grinning face
		{0x1F680, true},      // rocket
		{0x1F9D1, true},      // person
		{0x1FAE0, true},      // melting face
		{0x2764, false},      // heavy black heart, text default without VS16
		{0x26A1, true},       // high voltage
		{0x231A, true},       // watch
		{0x1F1FA, true},      // regional indicator
		{0x2194, false},      // arrow, text presentation by default
		{0x00E9, false},      // latin e acute
	}
	for _, tc := range cases {
		if got := IsEmoji(tc.r); got != tc.want {
			t.Errorf("IsEmoji(%U) = %v, want %v", tc.r, got, tc.want)
		}
	}
}
