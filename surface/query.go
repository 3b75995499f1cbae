package surface

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tapthaker/ghostty-android-sub001/viewport"
)

// The query methods answer from the most recent frame's state and are
// safe to call from the UI thread between frames. Mutations go through
// Post and land before the next frame.

// GridSize returns the current grid dimensions in cells.
func (a *Adapter) GridSize() (cols, rows int) { return a.cols, a.rows }

// SetFontSize changes the font size in density-independent pixels. The
// atlas rebuild and grid recompute happen on the render thread.
func (a *Adapter) SetFontSize(px float64) {
	if px <= 0 {
		return
	}
	a.Post(func() {
		g := a.geom
		if err := a.OnSurfaceChanged(g.width, g.height, g.density, px); err != nil {
			// Destroyed or not yet sized; drop the request.
			return
		}
	})
}

// ScrollDelta scrolls the viewport by whole rows.
func (a *Adapter) ScrollDelta(rows int) {
	a.Post(func() { a.eng.ScrollByRows(rows) })
}

// IsViewportAtBottom reports whether the viewport follows live output.
func (a *Adapter) IsViewportAtBottom() bool {
	if a.vp == nil {
		return true
	}
	return a.vp.IsAtBottom()
}

// ViewportOffset returns the viewport position as a row offset below
// the scrollback top plus the sub-row pixel offset.
func (a *Adapter) ViewportOffset() (row int, pixel float64) {
	if a.vp == nil {
		return 0, 0
	}
	return a.vp.RowOffset(), a.vp.PixelOffset()
}

// ScrollToBottom jumps back to the live view.
func (a *Adapter) ScrollToBottom() {
	a.Post(func() {
		if a.vp != nil {
			a.vp.ScrollToBottom()
		}
	})
}

// Overscroll returns the accumulated over-scroll distance for the
// host's stretch effect and resets it.
func (a *Adapter) Overscroll() float64 {
	if a.vp == nil {
		return 0
	}
	return a.vp.Overscroll()
}

// HyperlinkAt returns the hyperlink covering the cell, if any.
func (a *Adapter) HyperlinkAt(col, row int) (string, bool) {
	return a.eng.HyperlinkAt(col, row)
}

// ---- Gesture entry points ----
//
// The host's gesture recognizer resolves raw touch events into these
// calls; only resolved deltas cross this boundary.

// OnTouchDown starts a scroll gesture, cancelling any in-flight fling.
func (a *Adapter) OnTouchDown() {
	a.Post(func() {
		if a.vp != nil {
			a.vp.TouchDown()
		}
	})
}

// OnDrag feeds a resolved drag delta in pixels.
func (a *Adapter) OnDrag(dx, dy float64) {
	a.Post(func() {
		if a.vp != nil {
			a.vp.Drag(dy)
		}
	})
}

// OnFling releases the gesture with a residual velocity in px/s.
func (a *Adapter) OnFling(vx, vy float64) {
	a.Post(func() {
		if a.vp != nil {
			a.vp.Release(vy)
		}
	})
}

// OnRelease ends a drag without residual velocity.
func (a *Adapter) OnRelease() {
	a.Post(func() {
		if a.vp != nil {
			a.vp.Release(0)
		}
	})
}

// OnPinch scales the font size by the resolved pinch factor.
func (a *Adapter) OnPinch(scale float64) {
	if scale <= 0 {
		return
	}
	a.SetFontSize(a.geom.fontSize * scale)
}

// OnTap resolves a tap at pixel coordinates to a hyperlink, if one
// covers the tapped cell.
func (a *Adapter) OnTap(x, y float64) (string, bool) {
	col, row, ok := a.cellAt(x, y)
	if !ok {
		return "", false
	}
	return a.eng.HyperlinkAt(col, row)
}

// OnLongPress starts a selection at the pressed cell.
func (a *Adapter) OnLongPress(x, y float64) {
	if col, row, ok := a.cellAt(x, y); ok {
		a.StartSelection(col, row)
	}
}

// cellAt converts surface pixel coordinates to a grid position.
func (a *Adapter) cellAt(x, y float64) (col, row int, ok bool) {
	if a.atlas == nil {
		return 0, 0, false
	}
	m := a.atlas.Metrics()
	col = int((x - float64(a.cfg.Render.Padding.Left)) / m.CellWidth)
	row = int((y - float64(a.cfg.Render.Padding.Top)) / m.CellHeight)
	if col < 0 || col >= a.cols || row < 0 || row >= a.rows {
		return 0, 0, false
	}
	return col, row, true
}

// ---- Selection ----

// StartSelection begins a selection anchored at the cell.
func (a *Adapter) StartSelection(col, row int) {
	a.selMu.Lock()
	defer a.selMu.Unlock()
	a.selActive = true
	a.selStart = [2]int{col, row}
	a.selEnd = a.selStart
}

// UpdateSelection extends the selection to the cell.
func (a *Adapter) UpdateSelection(col, row int) {
	a.selMu.Lock()
	defer a.selMu.Unlock()
	if a.selActive {
		a.selEnd = [2]int{col, row}
	}
}

// ClearSelection drops the selection.
func (a *Adapter) ClearSelection() {
	a.selMu.Lock()
	defer a.selMu.Unlock()
	a.selActive = false
}

// SelectionText extracts the selected text from the visible cells, one
// line per row with trailing blanks trimmed, normalized to NFC so
// combining marks survive the round trip through the host clipboard.
func (a *Adapter) SelectionText() string {
	a.selMu.Lock()
	active, start, end := a.selActive, a.selStart, a.selEnd
	a.selMu.Unlock()
	if !active {
		return ""
	}

	r0, r1 := start[1], end[1]
	c0, c1 := start[0], end[0]
	if r1 < r0 || (r1 == r0 && c1 < c0) {
		r0, r1 = r1, r0
		c0, c1 = c1, c0
	}

	rows := make(map[int][]rune)
	for _, c := range a.eng.VisibleCells() {
		row, col := int(c.Row), int(c.Col)
		if row < r0 || row > r1 {
			continue
		}
		if row == r0 && r0 == r1 {
			if col < c0 || col > c1 {
				continue
			}
		} else if row == r0 && col < c0 {
			continue
		} else if row == r1 && col > c1 {
			continue
		}
		idx := col
		if row == r0 {
			idx -= c0
		}
		line := rows[row]
		for len(line) <= idx {
			line = append(line, ' ')
		}
		if c.Codepoint != 0 {
			line[idx] = c.Codepoint
		}
		rows[row] = line
	}

	var b strings.Builder
	for row := r0; row <= r1; row++ {
		if row > r0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(string(rows[row]), " "))
	}
	return norm.NFC.String(b.String())
}

// ViewportState exposes the scroll state machine phase, mainly for the
// host's gesture arbitration.
func (a *Adapter) ViewportState() viewport.State {
	if a.vp == nil {
		return viewport.StateIdle
	}
	return a.vp.State()
}
