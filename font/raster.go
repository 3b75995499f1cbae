package font

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"sync"

	tsfont "github.com/go-text/typesetting/font"
	xdraw "golang.org/x/image/draw"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/tapthaker/ghostty-android-sub001/grid"
)

// ErrNoGlyph indicates no face in the collection covers the codepoint.
var ErrNoGlyph = errors.New("font: no glyph for codepoint")

// synthItalicShear is the horizontal shear applied per pixel above the
// baseline when synthesizing italics.
const synthItalicShear = 0.2

// Glyph is one rasterized glyph, positioned relative to the cell origin
// (top-left of the cell, baseline at Metrics.Baseline).
type Glyph struct {
	// Mask is the coverage bitmap for monochrome glyphs; nil for color.
	Mask *image.Alpha

	// Image is the color bitmap for emoji glyphs; nil for monochrome.
	Image *image.RGBA

	// Left and Top offset the bitmap within the cell.
	Left, Top int

	// Wide marks a double-width glyph spanning two columns.
	Wide bool
}

// IsColor reports whether the glyph samples the color atlas.
func (g *Glyph) IsColor() bool { return g.Image != nil }

// Width returns the bitmap width in pixels.
func (g *Glyph) Width() int {
	if g.Image != nil {
		return g.Image.Rect.Dx()
	}
	return g.Mask.Rect.Dx()
}

// Height returns the bitmap height in pixels.
func (g *Glyph) Height() int {
	if g.Image != nil {
		return g.Image.Rect.Dy()
	}
	return g.Mask.Rect.Dy()
}

// Rasterizer produces cell-positioned glyph bitmaps for one collection
// at one pixel size. The underlying x/image faces are stateful, so all
// rasterization is serialized by an internal mutex.
type Rasterizer struct {
	mu      sync.Mutex
	coll    *Collection
	size    float64
	metrics Metrics
	faces   [grid.NumStyleVariants]xfont.Face
}

// NewRasterizer creates a Rasterizer for the collection at pixelSize.
func (c *Collection) NewRasterizer(pixelSize float64) (*Rasterizer, error) {
	m, err := metricsFor(c.Source(grid.StyleRegular), pixelSize)
	if err != nil {
		return nil, err
	}
	return &Rasterizer{coll: c, size: pixelSize, metrics: m}, nil
}

// Metrics returns the cell geometry for this rasterizer's size.
func (r *Rasterizer) Metrics() Metrics { return r.metrics }

// Size returns the pixel size this rasterizer renders at.
func (r *Rasterizer) Size() float64 { return r.size }

// Glyph rasterizes codepoint cp in the given style variant.
func (r *Rasterizer) Glyph(cp rune, v grid.StyleVariant) (*Glyph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, synthBold, synthItalic := r.coll.sourceFor(v)

	// Color path first: emoji presentation runes with embedded bitmaps.
	if IsEmoji(cp) {
		if g, ok := r.colorGlyph(src, cp); ok {
			return g, nil
		}
	}

	if !src.HasGlyph(cp) {
		// Fall back to the regular face before giving up.
		reg := r.coll.Source(grid.StyleRegular)
		if reg == src || !reg.HasGlyph(cp) {
			return nil, fmt.Errorf("%w: %U", ErrNoGlyph, cp)
		}
		src, synthBold, synthItalic = reg, false, false
	}

	face, err := r.face(src, v)
	if err != nil {
		return nil, err
	}

	dot := fixed.Point26_6{X: 0, Y: fixed.Int26_6(r.metrics.Baseline * 64)}
	dr, maskImg, maskp, _, ok := face.Glyph(dot, cp)
	if !ok {
		return nil, fmt.Errorf("%w: %U", ErrNoGlyph, cp)
	}

	mask := image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	xdraw.DrawMask(mask, mask.Rect, image.White, image.Point{}, maskImg, maskp, xdraw.Src)

	if synthBold {
		mask = smearBold(mask)
	}
	if synthItalic {
		mask, dr = shearItalic(mask, dr, r.metrics.Baseline)
	}

	return &Glyph{
		Mask: mask,
		Left: dr.Min.X,
		Top:  dr.Min.Y,
		Wide: grid.IsWide(cp),
	}, nil
}

// face returns (creating on first use) the x/image face for a variant.
func (r *Rasterizer) face(src *Source, v grid.StyleVariant) (xfont.Face, error) {
	// Synthetic variants render through the substitute face, so cache by
	// the variant slot only when the slot has its own source.
	if r.coll.variants[v] == nil {
		v = grid.StyleRegular
	}
	if r.faces[v] != nil {
		return r.faces[v], nil
	}
	face, err := opentype.NewFace(src.ot, &opentype.FaceOptions{
		Size:    r.size,
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font: failed to create face: %w", err)
	}
	r.faces[v] = face
	return face, nil
}

// colorGlyph extracts and scales an embedded color bitmap, if present.
func (r *Rasterizer) colorGlyph(src *Source, cp rune) (*Glyph, bool) {
	gid, ok := src.ts.Font.NominalGlyph(cp)
	if !ok {
		return nil, false
	}
	data, ok := src.ts.GlyphData(gid).(tsfont.GlyphBitmap)
	if !ok {
		return nil, false
	}

	var decoded image.Image
	var err error
	switch data.Format {
	case tsfont.PNG:
		decoded, err = png.Decode(bytes.NewReader(data.Data))
	case tsfont.JPG:
		decoded, err = jpeg.Decode(bytes.NewReader(data.Data))
	default:
		return nil, false
	}
	if err != nil {
		return nil, false
	}

	// Emoji fill the cell box: square of the cell height, two columns.
	box := int(r.metrics.CellHeight)
	if box < 1 {
		box = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, box, box))
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, decoded, decoded.Bounds(), xdraw.Src, nil)

	return &Glyph{
		Image: dst,
		Left:  0,
		Top:   0,
		Wide:  true,
	}, true
}

// smearBold synthesizes bold by double-striking the mask one pixel to
// the right.
func smearBold(src *image.Alpha) *image.Alpha {
	b := src.Rect
	dst := image.NewAlpha(image.Rect(0, 0, b.Dx()+1, b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			a := src.AlphaAt(b.Min.X+x, b.Min.Y+y).A
			setMaxAlpha(dst, x, y, a)
			setMaxAlpha(dst, x+1, y, a)
		}
	}
	return dst
}

// shearItalic synthesizes italic by shifting each row left or right in
// proportion to its distance from the baseline. Returns the sheared mask
// and the adjusted placement rectangle.
func shearItalic(src *image.Alpha, dr image.Rectangle, baseline float64) (*image.Alpha, image.Rectangle) {
	h := src.Rect.Dy()
	w := src.Rect.Dx()
	if h == 0 || w == 0 {
		return src, dr
	}

	// Worst-case shear extent across the glyph height.
	maxShift := int(float64(h)*synthItalicShear) + 1
	dst := image.NewAlpha(image.Rect(0, 0, w+maxShift, h))

	for y := 0; y < h; y++ {
		// Rows above the baseline move right, below move left of the
		// glyph box; offsetting by maxShift keeps coordinates positive.
		cellY := float64(dr.Min.Y + y)
		shift := int((baseline - cellY) * synthItalicShear)
		if shift < 0 {
			shift = 0
		}
		if shift > maxShift {
			shift = maxShift
		}
		for x := 0; x < w; x++ {
			a := src.AlphaAt(src.Rect.Min.X+x, src.Rect.Min.Y+y).A
			setMaxAlpha(dst, x+shift, y, a)
		}
	}

	return dst, dr
}

func setMaxAlpha(img *image.Alpha, x, y int, a uint8) {
	if a == 0 || x < 0 || y < 0 || x >= img.Rect.Dx() || y >= img.Rect.Dy() {
		return
	}
	if img.AlphaAt(x, y).A < a {
		img.Pix[y*img.Stride+x] = a
	}
}
