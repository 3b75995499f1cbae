package grid

import "testing"

func TestAttributesUnderlineField(t *testing.T) {
	kinds := []UnderlineKind{
		UnderlineNone, UnderlineSingle, UnderlineDouble,
		UnderlineCurly, UnderlineDotted, UnderlineDashed,
	}
	for _, k := range kinds {
		a := (AttrBold | AttrInverse).WithUnderline(k)
		if got := a.Underline(); got != k {
			t.Errorf("underline round trip: got %d, want %d", got, k)
		}
		if !a.Bold() || !a.Inverse() {
			t.Errorf("underline field write clobbered neighboring bits (kind %d)", k)
		}
	}
}

func TestAttributesWithUnderlineOverwrites(t *testing.T) {
	a := Attributes(0).WithUnderline(UnderlineDashed).WithUnderline(UnderlineSingle)
	if got := a.Underline(); got != UnderlineSingle {
		t.Errorf("got %d, want single", got)
	}
}

func TestAttributesVariant(t *testing.T) {
	tests := []struct {
		attrs Attributes
		want  StyleVariant
	}{
		{0, StyleRegular},
		{AttrBold, StyleBold},
		{AttrItalic, StyleItalic},
		{AttrBold | AttrItalic, StyleBoldItalic},
		{AttrDim | AttrInverse, StyleRegular},
	}
	for _, tt := range tests {
		if got := tt.attrs.Variant(); got != tt.want {
			t.Errorf("Variant(%016b) = %d, want %d", tt.attrs, got, tt.want)
		}
	}
}

func TestAttributesDecorated(t *testing.T) {
	if Attributes(0).Decorated() {
		t.Error("plain cell must not be decorated")
	}
	if !Attributes(0).WithUnderline(UnderlineSingle).Decorated() {
		t.Error("underlined cell is decorated")
	}
	if !AttrStrikethrough.Decorated() {
		t.Error("struck cell is decorated")
	}
	if !AttrInverse.Decorated() {
		t.Error("inverse cell is decorated")
	}
	if (AttrBold | AttrDim).Decorated() {
		t.Error("bold+dim alone does not need a full-cell quad")
	}
}

func TestIsWide(t *testing.T) {
	tests := []struct {
		r    rune
		want bool
	}{
		{'a', false},
		{'0', false},
		{'漢', true},
		{'カ', true},
		{'한', true},
	}
	for _, tt := range tests {
		if got := IsWide(tt.r); got != tt.want {
			t.Errorf("IsWide(%q) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestGridFit(t *testing.T) {
	cell := CellSize{Width: 10, Height: 20, Baseline: 16}
	g := Fit(805, 484, cell)
	if g.Cols != 80 || g.Rows != 24 {
		t.Errorf("Fit = %dx%d, want 80x24", g.Cols, g.Rows)
	}
}

func TestGridFitDegenerate(t *testing.T) {
	g := Fit(0, 0, CellSize{Width: 10, Height: 20})
	if g.Cols != 1 || g.Rows != 1 {
		t.Errorf("degenerate surface must still yield 1x1, got %dx%d", g.Cols, g.Rows)
	}
}

func TestGridIndex(t *testing.T) {
	g := Grid{Cols: 80, Rows: 24}
	if got := g.Index(3, 2); got != 2*80+3 {
		t.Errorf("Index(3,2) = %d", got)
	}
	for _, bad := range [][2]int{{-1, 0}, {0, -1}, {80, 0}, {0, 24}} {
		if got := g.Index(bad[0], bad[1]); got != -1 {
			t.Errorf("Index(%d,%d) = %d, want -1", bad[0], bad[1], got)
		}
	}
}

func TestGridClamp(t *testing.T) {
	g := Grid{Cols: 80, Rows: 24}
	if c, r := g.Clamp(-5, 100); c != 0 || r != 23 {
		t.Errorf("Clamp(-5,100) = (%d,%d), want (0,23)", c, r)
	}
	if c, r := g.Clamp(40, 12); c != 40 || r != 12 {
		t.Errorf("Clamp in range must be identity, got (%d,%d)", c, r)
	}
}
