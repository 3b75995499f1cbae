// Package surface adapts the renderer to a host surface lifecycle. The
// host calls the lifecycle methods at the right moments and runs
// OnDrawFrame on one dedicated render thread; that thread owns all GPU
// state. UI and gesture threads drive the adapter only through Post
// and the query methods.
package surface

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/tapthaker/ghostty-android-sub001/atlas"
	"github.com/tapthaker/ghostty-android-sub001/font"
	"github.com/tapthaker/ghostty-android-sub001/gpu"
	"github.com/tapthaker/ghostty-android-sub001/grid"
	"github.com/tapthaker/ghostty-android-sub001/internal/logging"
	"github.com/tapthaker/ghostty-android-sub001/render"
	"github.com/tapthaker/ghostty-android-sub001/terminal"
	"github.com/tapthaker/ghostty-android-sub001/viewport"
)

// LifecycleState tracks where the adapter is in the host lifecycle.
type LifecycleState uint8

const (
	StateUninitialized LifecycleState = iota
	StateSurfaceReady
	StatePaused
	StateDestroyed
)

func (s LifecycleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSurfaceReady:
		return "surface-ready"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Config holds the host-supplied adapter parameters.
type Config struct {
	// FontData is the regular face, TTF or OTF. Required.
	FontData []byte

	// BoldFontData, ItalicFontData and BoldItalicFontData are optional
	// style faces. Missing variants are synthesized from the regular
	// face.
	BoldFontData, ItalicFontData, BoldItalicFontData []byte

	// FontSize is the initial font size in density-independent pixels.
	FontSize float64

	// Atlas and Render configure the inner components.
	Atlas  atlas.Config
	Render render.Config
}

// DefaultConfig returns the adapter defaults; FontData must still be
// supplied by the host.
func DefaultConfig() Config {
	return Config{
		FontSize: 14,
		Atlas:    atlas.DefaultConfig(),
		Render:   render.DefaultConfig(),
	}
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("surface: invalid config.%s: %s", e.Field, e.Reason)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if len(c.FontData) == 0 {
		return &ConfigError{Field: "FontData", Reason: "a regular font face is required"}
	}
	if c.FontSize <= 0 {
		return &ConfigError{Field: "FontSize", Reason: "must be positive"}
	}
	if err := c.Atlas.Validate(); err != nil {
		return err
	}
	return c.Render.Validate()
}

// deviceFactory builds a gpu.Device from the host's provider. Tests
// substitute a fake.
type deviceFactory func(provider gpucontext.DeviceProvider) (gpu.Device, error)

func halDeviceFactory(provider gpucontext.DeviceProvider) (gpu.Device, error) {
	return gpu.NewHALDevice(provider, nil)
}

// surfaceGeometry is the last OnSurfaceChanged input, kept so repeated
// calls with identical values are no-ops.
type surfaceGeometry struct {
	width, height int
	density       float64
	fontSize      float64
}

// Adapter owns the renderer's single font/atlas/pipeline instance and
// its teardown. All fields belong to the render thread except the op
// queue and the selection state.
type Adapter struct {
	cfg Config
	eng terminal.Engine

	newDevice deviceFactory

	state LifecycleState
	dev   gpu.Device
	coll  *font.Collection

	atlas   *atlas.Manager
	encoder *render.Encoder
	pipe    *render.Pipeline
	vp      *viewport.Viewport

	geom       surfaceGeometry
	cols, rows int

	opMu  sync.Mutex
	opQue []func()

	selMu     sync.Mutex
	selActive bool
	selStart  [2]int
	selEnd    [2]int
}

// New creates an adapter over the host's terminal engine. GPU state is
// allocated later, in OnSurfaceCreated.
func New(eng terminal.Engine, cfg Config) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	coll, err := buildCollection(cfg)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		cfg:       cfg,
		eng:       eng,
		coll:      coll,
		newDevice: halDeviceFactory,
		geom:      surfaceGeometry{fontSize: cfg.FontSize},
	}, nil
}

func buildCollection(cfg Config) (*font.Collection, error) {
	regular, err := font.NewSource(cfg.FontData)
	if err != nil {
		return nil, fmt.Errorf("surface: regular face: %w", err)
	}
	coll, err := font.NewCollection(regular)
	if err != nil {
		return nil, err
	}
	variants := []struct {
		data []byte
		v    grid.StyleVariant
		name string
	}{
		{cfg.BoldFontData, grid.StyleBold, "bold"},
		{cfg.ItalicFontData, grid.StyleItalic, "italic"},
		{cfg.BoldItalicFontData, grid.StyleBoldItalic, "bold-italic"},
	}
	for _, vr := range variants {
		if len(vr.data) == 0 {
			continue
		}
		src, err := font.NewSource(vr.data)
		if err != nil {
			return nil, fmt.Errorf("surface: %s face: %w", vr.name, err)
		}
		coll.SetVariant(vr.v, src)
	}
	return coll, nil
}

// State returns the lifecycle state.
func (a *Adapter) State() LifecycleState { return a.state }

// OnSurfaceCreated allocates the GPU device from the host's provider.
// Missing device capabilities are fatal; the adapter does not degrade.
func (a *Adapter) OnSurfaceCreated(provider gpucontext.DeviceProvider) error {
	if a.state == StateDestroyed {
		return fmt.Errorf("surface: create after destroy")
	}
	dev, err := a.newDevice(provider)
	if err != nil {
		return fmt.Errorf("surface: create device: %w", err)
	}
	caps := dev.Capabilities()
	if err := caps.Validate(); err != nil {
		dev.Destroy()
		return fmt.Errorf("surface: %w", err)
	}
	a.dev = dev
	a.state = StateSurfaceReady
	logging.Logger().Info("surface created",
		"maxTextureSize", caps.MaxTextureSize,
		"maxBufferSize", caps.MaxBufferSize)
	return nil
}

// OnSurfaceChanged recomputes the grid from the surface size and font
// metrics. Calling it again with identical inputs is a no-op: the grid
// stays the same and no atlas rebuild is issued.
func (a *Adapter) OnSurfaceChanged(width, height int, density, fontSize float64) error {
	if a.state != StateSurfaceReady && a.state != StatePaused {
		return fmt.Errorf("surface: changed in state %v", a.state)
	}
	geom := surfaceGeometry{width: width, height: height, density: density, fontSize: fontSize}
	if geom == a.geom && a.atlas != nil {
		return nil
	}

	pixelSize := fontSize * density
	if a.atlas == nil {
		m, err := atlas.NewManager(a.coll, pixelSize, a.cfg.Atlas)
		if err != nil {
			return err
		}
		a.atlas = m
	} else if pixelSize != a.atlas.PixelSize() {
		if err := a.atlas.Rebuild(pixelSize); err != nil {
			return err
		}
	}

	metrics := a.atlas.Metrics()
	cols, rows := gridSizeFor(width, height, a.cfg.Render.Padding, metrics.CellWidth, metrics.CellHeight)

	if a.encoder == nil {
		enc, err := render.NewEncoder(a.atlas, a.cfg.Render)
		if err != nil {
			return err
		}
		a.encoder = enc
	}
	if a.pipe == nil {
		pipe, err := render.NewPipeline(a.dev, a.atlas, a.cfg.Render)
		if err != nil {
			return err
		}
		a.pipe = pipe
	}
	if a.vp == nil {
		a.vp = viewport.New(a.eng, metrics.CellHeight)
	} else {
		a.vp.SetLineHeight(metrics.CellHeight)
	}

	if cols != a.cols || rows != a.rows {
		a.vp.BeforeResize()
		a.eng.Resize(cols, rows)
		a.vp.AfterResize()
		a.cols, a.rows = cols, rows
	}
	a.geom = geom

	logging.Logger().Info("surface changed",
		"width", width, "height", height,
		"density", density, "fontSize", fontSize,
		"cols", cols, "rows", rows)
	return nil
}

func gridSizeFor(width, height int, pad render.Padding, cellW, cellH float64) (cols, rows int) {
	g := grid.Fit(width-pad.Left-pad.Right, height-pad.Top-pad.Bottom,
		grid.CellSize{Width: cellW, Height: cellH})
	return int(g.Cols), int(g.Rows)
}

// OnPause suspends drawing while the host surface is hidden.
func (a *Adapter) OnPause() {
	if a.state == StateSurfaceReady {
		a.state = StatePaused
	}
}

// OnResume re-enables drawing.
func (a *Adapter) OnResume() {
	if a.state == StatePaused {
		a.state = StateSurfaceReady
	}
}

// Post queues fn for execution on the render thread before the next
// frame. This is the only way other threads mutate render state.
func (a *Adapter) Post(fn func()) {
	a.opMu.Lock()
	a.opQue = append(a.opQue, fn)
	a.opMu.Unlock()
}

func (a *Adapter) drainOps() {
	a.opMu.Lock()
	ops := a.opQue
	a.opQue = nil
	a.opMu.Unlock()
	for _, fn := range ops {
		fn()
	}
}

// OnDrawFrame renders one frame. It drains the op queue, re-snapshots
// the engine's cell state, and issues the draw passes. Panics are
// recovered and logged and the frame is skipped, so a bad frame never
// kills the render thread.
func (a *Adapter) OnDrawFrame() {
	if a.state != StateSurfaceReady || a.pipe == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Logger().Error("panic in frame, skipping",
				"panic", fmt.Sprint(r))
		}
	}()

	a.drainOps()

	a.vp.Step(time.Now())
	a.vp.Sync()

	cells := a.eng.VisibleCells()
	cursor := a.eng.Cursor()
	frame, err := a.encoder.Encode(cells, cursor, a.cols, a.rows)
	if err != nil {
		logging.Logger().Error("encode failed, skipping frame", "err", err)
		return
	}

	view := render.ViewState{
		SurfaceWidth:  a.geom.width,
		SurfaceHeight: a.geom.height,
		PixelOffset:   a.vp.PixelOffset(),
	}
	if err := a.pipe.Frame(frame, view); err != nil {
		logging.Logger().Error("draw pass failed, skipping frame", "err", err)
	}
}

// Destroy releases all GPU resources. Safe to call at any point, even
// if OnSurfaceCreated never ran, and idempotent.
func (a *Adapter) Destroy() {
	if a.state == StateDestroyed {
		return
	}
	if a.pipe != nil {
		a.pipe.Destroy()
		a.pipe = nil
	}
	if a.atlas != nil && a.dev != nil {
		a.atlas.Destroy(a.dev)
	}
	if a.dev != nil {
		a.dev.Destroy()
		a.dev = nil
	}
	a.state = StateDestroyed
	logging.Logger().Info("surface destroyed")
}
