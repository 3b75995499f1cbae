// Package terminal declares the boundary to the terminal engine that
// owns the escape-sequence interpreter and the scrollback buffer. The
// renderer only reads resolved per-cell state from it and issues
// coarse scroll and resize commands back; protocol bytes never cross
// this boundary.
package terminal

import "github.com/tapthaker/ghostty-android-sub001/grid"

// Engine is implemented by the host's terminal engine. All methods are
// called from the render thread.
type Engine interface {
	// VisibleCells returns the cells of the current visible window,
	// produced fresh for this frame.
	VisibleCells() []grid.Cell

	// Cursor returns the engine's resolved cursor state.
	Cursor() grid.CursorState

	// GridSize returns the window size in cells.
	GridSize() (cols, rows int)

	// ScrollByRows moves the viewport by delta rows. Negative deltas
	// scroll toward the top of the scrollback, positive toward the
	// live view. The engine clamps at its limits.
	ScrollByRows(delta int)

	// ScrollToRowOffset jumps the viewport so its top row sits offset
	// rows below the top of the scrollback. Offset ScrollbackRows()
	// is the live view.
	ScrollToRowOffset(offset int)

	// ScrollbackRows returns how many rows of scrollback exist above
	// the live view.
	ScrollbackRows() int

	// IsAtBottom reports whether the viewport is pinned to the live
	// view.
	IsAtBottom() bool

	// Resize reflows the grid to the new cell dimensions.
	Resize(cols, rows int)

	// RowContentHash returns a stable hash of the row at the given
	// offset below the top of the scrollback, or false when the row
	// does not exist. Hashes survive reflow for unchanged content and
	// anchor the viewport across resizes.
	RowContentHash(offset int) (uint64, bool)

	// HyperlinkAt returns the hyperlink URI covering the cell, if any.
	HyperlinkAt(col, row int) (string, bool)
}
