package render

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tapthaker/ghostty-android-sub001/atlas"
	"github.com/tapthaker/ghostty-android-sub001/font"
	"github.com/tapthaker/ghostty-android-sub001/grid"
	"github.com/tapthaker/ghostty-android-sub001/internal/logging"
)

// Frame is one encoded frame: the glyph-pass instance records plus the
// flat per-cell background color buffer consumed by the cell
// background pass. Frames are consumed once and not retained.
type Frame struct {
	Cols, Rows int

	// Instances drive the instanced glyph draw.
	Instances []CellInstance

	// BgColors is row-major, indexed by row*Cols+col.
	BgColors []grid.Color
}

// Encoder converts the engine's visible cells into a Frame. One encoder
// serves one surface; it is confined to the render thread.
type Encoder struct {
	atlas *atlas.Manager
	cfg   Config

	// Statistics (atomic for lock-free reads).
	encoded  atomic.Uint64
	rebuilds atomic.Uint64
}

// NewEncoder creates an Encoder drawing glyphs from m.
func NewEncoder(m *atlas.Manager, cfg Config) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{atlas: m, cfg: cfg}, nil
}

// Stats returns the number of cells encoded and atlas rebuilds
// triggered by encoding.
func (e *Encoder) Stats() (cells, rebuilds uint64) {
	return e.encoded.Load(), e.rebuilds.Load()
}

// Encode packs the visible cells into a Frame. When the atlas page
// fills mid-frame the atlas is rebuilt at the same pixel size and the
// frame is encoded again from scratch, since a rebuild invalidates
// every placement already encoded.
func (e *Encoder) Encode(cells []grid.Cell, cursor grid.CursorState, cols, rows int) (*Frame, error) {
	f, err := e.encode(cells, cursor, cols, rows)
	if !errors.Is(err, atlas.ErrNeedsRebuild) {
		return f, err
	}

	e.rebuilds.Add(1)
	logging.Logger().Info("atlas full mid-frame, rebuilding",
		"cells", len(cells),
		"generation", e.atlas.Generation())
	if err := e.atlas.Rebuild(e.atlas.PixelSize()); err != nil {
		return nil, err
	}

	f, err = e.encode(cells, cursor, cols, rows)
	if errors.Is(err, atlas.ErrNeedsRebuild) {
		return nil, fmt.Errorf("render: visible cells exceed atlas capacity: %w", err)
	}
	return f, err
}

func (e *Encoder) encode(cells []grid.Cell, cursor grid.CursorState, cols, rows int) (*Frame, error) {
	f := &Frame{
		Cols:      cols,
		Rows:      rows,
		Instances: make([]CellInstance, 0, len(cells)),
		BgColors:  make([]grid.Color, cols*rows),
	}

	for _, c := range cells {
		if int(c.Col) >= cols || int(c.Row) >= rows {
			continue
		}

		// Ink and fill as the fragment stage will see them after its
		// inverse swap.
		ink, fill := c.FG, c.BG
		if c.Attrs.Inverse() {
			ink, fill = fill, ink
		}

		// Contrast correction runs on the as-drawn pair; the cursor
		// override comes after and wins when both apply.
		ink = grid.MinContrast(ink, fill, e.cfg.MinContrast)
		if cursor.Visible && c.Col == cursor.Col && c.Row == cursor.Row {
			ink = cursor.Color
		}

		// Undo the swap so the instance carries engine-order colors and
		// the fragment stage's own swap lands on the corrected values.
		fg, bg := ink, fill
		if c.Attrs.Inverse() {
			fg, bg = fill, ink
		}

		f.BgColors[int(c.Row)*cols+int(c.Col)] = fill
		if c.Attrs.Wide() && int(c.Col)+1 < cols {
			f.BgColors[int(c.Row)*cols+int(c.Col)+1] = fill
		}

		pl, err := e.atlas.Place(c.Codepoint, c.Attrs.Variant())
		if err != nil {
			if errors.Is(err, font.ErrNoGlyph) {
				pl = atlas.Placement{}
			} else {
				return nil, err
			}
		}
		if pl.Empty() && !c.Attrs.Decorated() {
			continue
		}

		in := CellInstance{
			Col:   float32(c.Col),
			Row:   float32(c.Row),
			FG:    colorVec(fg),
			BG:    colorVec(bg),
			Attrs: uint32(c.Attrs),
		}
		if !pl.Empty() {
			in.GlyphX = float32(pl.X)
			in.GlyphY = float32(pl.Y)
			in.GlyphW = float32(pl.Width)
			in.GlyphH = float32(pl.Height)
			in.BoundsX = float32(pl.Left)
			in.BoundsY = float32(pl.Top)
			in.BoundsW = float32(pl.Width)
			in.BoundsH = float32(pl.Height)
			if pl.Kind == atlas.KindColor {
				in.Atlas = atlasColor
			}
		}
		f.Instances = append(f.Instances, in)
		e.encoded.Add(1)
	}

	return f, nil
}
