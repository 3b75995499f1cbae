package atlas

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tapthaker/ghostty-android-sub001/font"
	"github.com/tapthaker/ghostty-android-sub001/gpu"
	"github.com/tapthaker/ghostty-android-sub001/grid"
	"github.com/tapthaker/ghostty-android-sub001/internal/logging"
)

// Kind identifies which page a placement lives in.
type Kind uint8

const (
	// KindMono is the single-channel coverage page.
	KindMono Kind = iota

	// KindColor is the RGBA page for emoji bitmaps.
	KindColor
)

// Placement describes where a glyph landed in its page. Placements are
// stable until the next Rebuild; Generation tells consumers which build
// they belong to.
type Placement struct {
	Kind Kind

	// Pixel rectangle inside the page.
	X, Y, Width, Height int

	// Bearing of the glyph box relative to the cell origin. Left is the
	// horizontal offset, Top the vertical offset of the box's top edge.
	Left, Top int

	// Wide marks glyphs that span two cells.
	Wide bool

	Generation uint64
}

// Empty reports whether the glyph produced no pixels (e.g. a space).
func (p Placement) Empty() bool { return p.Width == 0 || p.Height == 0 }

// glyphKey uniquely identifies a cached glyph within one generation.
type glyphKey struct {
	cp rune
	v  grid.StyleVariant
}

// page is one CPU-side pixel buffer plus its GPU mirror.
type page struct {
	format gpu.TextureFormat
	size   int
	pix    []byte
	alloc  *shelfAllocator

	// Dirty region in page coordinates; empty when dirtyW == 0.
	dirtyX, dirtyY, dirtyW, dirtyH int

	texture       gpu.TextureID
	texGeneration uint64
}

func newPage(size int, padding int, format gpu.TextureFormat) *page {
	return &page{
		format: format,
		size:   size,
		pix:    make([]byte, size*size*format.BytesPerPixel()),
		alloc:  newShelfAllocator(size, size, padding),
	}
}

func (p *page) markDirty(x, y, w, h int) {
	if p.dirtyW == 0 {
		p.dirtyX, p.dirtyY, p.dirtyW, p.dirtyH = x, y, w, h
		return
	}
	x0 := min(p.dirtyX, x)
	y0 := min(p.dirtyY, y)
	x1 := max(p.dirtyX+p.dirtyW, x+w)
	y1 := max(p.dirtyY+p.dirtyH, y+h)
	p.dirtyX, p.dirtyY, p.dirtyW, p.dirtyH = x0, y0, x1-x0, y1-y0
}

func (p *page) clear() {
	for i := range p.pix {
		p.pix[i] = 0
	}
	p.alloc.reset()
	p.dirtyW = 0
}

// Manager owns the two glyph pages. The hit path of Place is a read-lock
// map lookup; misses rasterize under the write lock with a double check.
type Manager struct {
	mu   sync.RWMutex
	cfg  Config
	coll *font.Collection
	rast *font.Rasterizer

	mono  *page
	color *page

	lookup     map[glyphKey]Placement
	generation uint64

	// Statistics (atomic for lock-free reads).
	hits     atomic.Uint64
	misses   atomic.Uint64
	rebuilds atomic.Uint64
}

// NewManager creates a manager rasterizing from coll at pixelSize.
func NewManager(coll *font.Collection, pixelSize float64, cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rast, err := coll.NewRasterizer(pixelSize)
	if err != nil {
		return nil, fmt.Errorf("atlas: create rasterizer: %w", err)
	}
	return &Manager{
		cfg:    cfg,
		coll:   coll,
		rast:   rast,
		mono:   newPage(cfg.Size, cfg.Padding, gpu.TextureFormatR8),
		color:  newPage(cfg.Size, cfg.Padding, gpu.TextureFormatRGBA8),
		lookup: make(map[glyphKey]Placement),
	}, nil
}

// Metrics returns the font metrics of the current build.
func (m *Manager) Metrics() font.Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rast.Metrics()
}

// Generation returns the current build generation. It increments on
// every Rebuild, invalidating all previously returned placements.
func (m *Manager) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Size returns the page texture size.
func (m *Manager) Size() int { return m.cfg.Size }

// PixelSize returns the font pixel size of the current build.
func (m *Manager) PixelSize() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rast.Size()
}

// Stats returns the hit and miss counters.
func (m *Manager) Stats() (hits, misses uint64) {
	return m.hits.Load(), m.misses.Load()
}

// Place returns the placement for a glyph, rasterizing and inserting it
// on first use. Returns ErrNeedsRebuild when the target page is full.
func (m *Manager) Place(cp rune, v grid.StyleVariant) (Placement, error) {
	key := glyphKey{cp: cp, v: v}

	m.mu.RLock()
	if pl, ok := m.lookup[key]; ok {
		m.mu.RUnlock()
		m.hits.Add(1)
		return pl, nil
	}
	m.mu.RUnlock()

	m.misses.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring the write lock.
	if pl, ok := m.lookup[key]; ok {
		return pl, nil
	}

	g, err := m.rast.Glyph(cp, v)
	if err != nil {
		return Placement{}, err
	}

	w, h := g.Width(), g.Height()
	if w == 0 || h == 0 {
		pl := Placement{Generation: m.generation}
		m.lookup[key] = pl
		return pl, nil
	}

	pg := m.mono
	kind := KindMono
	if g.IsColor() {
		pg = m.color
		kind = KindColor
	}

	x, y, ok := pg.alloc.allocate(w, h)
	if !ok {
		logging.Logger().Debug("atlas page full",
			"kind", int(kind),
			"utilization", pg.alloc.utilization(),
			"generation", m.generation)
		return Placement{}, ErrNeedsRebuild
	}

	if g.IsColor() {
		copyRGBA(pg, x, y, g)
	} else {
		copyAlpha(pg, x, y, g)
	}
	pg.markDirty(x, y, w, h)

	pl := Placement{
		Kind:       kind,
		X:          x,
		Y:          y,
		Width:      w,
		Height:     h,
		Left:       g.Left,
		Top:        g.Top,
		Wide:       g.Wide,
		Generation: m.generation,
	}
	m.lookup[key] = pl
	return pl, nil
}

// Rebuild drops every placement and pixel, builds a fresh rasterizer at
// pixelSize, and bumps the generation. Callers re-place all visible
// glyphs afterwards.
func (m *Manager) Rebuild(pixelSize float64) error {
	rast, err := m.coll.NewRasterizer(pixelSize)
	if err != nil {
		return fmt.Errorf("atlas: rebuild rasterizer: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.rast = rast
	m.lookup = make(map[glyphKey]Placement)
	m.mono.clear()
	m.color.clear()
	m.generation++
	m.rebuilds.Add(1)

	logging.Logger().Info("atlas rebuilt",
		"pixelSize", pixelSize,
		"generation", m.generation)
	return nil
}

// Flush uploads pending pixels to the GPU, at most one write per page
// per call. Textures are recreated when the generation changed since the
// last flush.
func (m *Manager) Flush(dev gpu.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.flushPage(dev, m.mono, "atlas_mono"); err != nil {
		return err
	}
	return m.flushPage(dev, m.color, "atlas_color")
}

func (m *Manager) flushPage(dev gpu.Device, pg *page, label string) error {
	fresh := false
	if pg.texture == gpu.InvalidID || pg.texGeneration != m.generation {
		if pg.texture != gpu.InvalidID {
			dev.DestroyTexture(pg.texture)
		}
		tex, err := dev.CreateTexture(pg.size, pg.size, pg.format, label)
		if err != nil {
			return fmt.Errorf("atlas: create %s texture: %w", label, err)
		}
		pg.texture = tex
		pg.texGeneration = m.generation
		fresh = true
	}

	if fresh {
		// New texture: upload the whole page so stale regions are zeroed.
		dev.WriteTextureRegion(pg.texture, 0, 0, pg.size, pg.size, pg.pix)
		pg.dirtyW = 0
		return nil
	}

	if pg.dirtyW == 0 {
		return nil
	}

	dev.WriteTextureRegion(pg.texture, pg.dirtyX, pg.dirtyY, pg.dirtyW, pg.dirtyH,
		pg.region(pg.dirtyX, pg.dirtyY, pg.dirtyW, pg.dirtyH))
	pg.dirtyW = 0
	return nil
}

// MonoTexture returns the GPU texture of the coverage page, valid after
// the last Flush.
func (m *Manager) MonoTexture() gpu.TextureID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mono.texture
}

// ColorTexture returns the GPU texture of the color page.
func (m *Manager) ColorTexture() gpu.TextureID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.color.texture
}

// Destroy releases the GPU textures. The CPU pages stay usable.
func (m *Manager) Destroy(dev gpu.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mono.texture != gpu.InvalidID {
		dev.DestroyTexture(m.mono.texture)
		m.mono.texture = gpu.InvalidID
	}
	if m.color.texture != gpu.InvalidID {
		dev.DestroyTexture(m.color.texture)
		m.color.texture = gpu.InvalidID
	}
}

// region copies a tightly packed sub-rectangle out of the page.
func (p *page) region(x, y, w, h int) []byte {
	bpp := p.format.BytesPerPixel()
	out := make([]byte, w*h*bpp)
	for row := 0; row < h; row++ {
		src := ((y+row)*p.size + x) * bpp
		dst := row * w * bpp
		copy(out[dst:dst+w*bpp], p.pix[src:src+w*bpp])
	}
	return out
}

// copyAlpha blits a coverage mask into the single-channel page.
func copyAlpha(pg *page, x, y int, g *font.Glyph) {
	b := g.Mask.Rect
	for row := 0; row < b.Dy(); row++ {
		for col := 0; col < b.Dx(); col++ {
			a := g.Mask.AlphaAt(b.Min.X+col, b.Min.Y+row).A
			pg.pix[(y+row)*pg.size+(x+col)] = a
		}
	}
}

// copyRGBA blits a color bitmap into the RGBA page.
func copyRGBA(pg *page, x, y int, g *font.Glyph) {
	b := g.Image.Rect
	for row := 0; row < b.Dy(); row++ {
		src := g.Image.PixOffset(b.Min.X, b.Min.Y+row)
		dst := ((y+row)*pg.size + x) * 4
		copy(pg.pix[dst:dst+b.Dx()*4], g.Image.Pix[src:src+b.Dx()*4])
	}
}
