// Package ghostty renders a terminal cell grid with a GPU pipeline and
// drives smooth pixel-level scrolling over the terminal's scrollback.
//
// # Overview
//
// The renderer sits between a terminal state engine and a host-provided
// GPU surface. The engine owns the terminal semantics: parsing, the cell
// grid, scrollback, reflow. The renderer reads resolved cell state,
// rasterizes glyphs into texture atlases, packs per-cell instance data,
// and issues instanced draw passes. Scrolling is split the same way: the
// viewport tracks sub-row pixel offsets and gesture physics on the
// render side and talks to the engine only in whole-row commands.
//
// # Quick Start
//
//	import "github.com/tapthaker/ghostty-android-sub001/surface"
//
//	cfg := surface.DefaultConfig()
//	cfg.FontData = fontBytes
//	adapter, err := surface.New(engine, cfg)
//	if err != nil { ... }
//
//	// On the render thread, mirror the host surface callbacks:
//	adapter.OnSurfaceCreated(provider)
//	adapter.OnSurfaceChanged(width, height, density, fontSize)
//	for { adapter.OnDrawFrame() }
//
// # Packages
//
//   - grid: cell, color, and attribute types shared across the pipeline
//   - font: font loading, metrics, and glyph rasterization
//   - atlas: glyph atlas pages with shelf packing and dirty-rect uploads
//   - gpu: the device abstraction and its wgpu-backed implementation
//   - render: instance encoding, shaders, and the three-pass pipeline
//   - terminal: the engine interface the renderer consumes
//   - viewport: the scroll state machine (drag, fling, anchors)
//   - surface: the host-facing lifecycle adapter tying it all together
//
// # Logging
//
// The renderer is silent by default. Install a logger with [SetLogger]
// to see lifecycle events and frame diagnostics.
package ghostty
