// Package viewport converts continuous touch input into row-quantized
// scrollback navigation. It owns the scroll position as a row offset
// into the scrollback plus a sub-row pixel offset, drives fling
// animations, and keeps the visible content anchored across resizes
// that reflow the scrollback.
package viewport

import (
	"math"
	"time"

	"github.com/tapthaker/ghostty-android-sub001/internal/logging"
	"github.com/tapthaker/ghostty-android-sub001/terminal"
)

// State is the touch phase of the viewport.
type State uint8

const (
	StateIdle State = iota
	StateDragging
	StateFlinging
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateFlinging:
		return "flinging"
	case StateSettled:
		return "settled"
	}
	return "unknown"
}

// Fling physics constants, in pixel units.
const (
	// flingDrag is the quadratic drag coefficient: deceleration is
	// flingDrag * v^2.
	flingDrag = 0.002

	// minFlingVelocity is the release speed below which no fling
	// starts, in px/s.
	minFlingVelocity = 50.0

	// stopVelocity ends a fling, in px/s.
	stopVelocity = 10.0
)

// anchorSearchRadius bounds how many rows around the captured position
// the anchor resolver examines after a reflow.
const anchorSearchRadius = 500

// anchor is a content-relative handle to the row at the viewport top,
// captured before a resize. It is resolved at most once and then
// discarded; it holds no reference into the engine's buffers.
type anchor struct {
	hash uint64
	row  int
}

// flingState is the in-flight animation. It exists only while the
// viewport is flinging and is dropped on touch-down.
type flingState struct {
	pos      float64
	velocity float64
	target   float64
	last     time.Time
}

// Viewport tracks the scroll position against a terminal engine. It is
// confined to the render thread; gesture input arrives as resolved
// deltas already marshaled there.
type Viewport struct {
	eng        terminal.Engine
	lineHeight float64

	state State

	// rowOffset is the viewport top, in rows below the top of the
	// scrollback. rowOffset == engine.ScrollbackRows() with a zero
	// accumulator means the viewport is at the bottom, following live
	// output.
	rowOffset int

	// acc is the signed sub-row drag remainder in pixels, always in
	// (-lineHeight, lineHeight).
	acc float64

	fling      *flingState
	pending    *anchor
	overscroll float64

	// resizeAtBottom records whether the viewport was at the bottom
	// when BeforeResize ran, independent of whether an anchor could be
	// captured.
	resizeAtBottom bool
}

// New creates a viewport over eng. lineHeight is the cell height in
// pixels and must be positive.
func New(eng terminal.Engine, lineHeight float64) *Viewport {
	v := &Viewport{eng: eng, lineHeight: lineHeight}
	v.rowOffset = eng.ScrollbackRows()
	return v
}

// SetLineHeight updates the row quantum after a font or density change.
// The sub-row remainder is reset since its scale changed.
func (v *Viewport) SetLineHeight(h float64) {
	v.lineHeight = h
	v.acc = 0
}

// State returns the current touch phase.
func (v *Viewport) State() State { return v.state }

// RowOffset returns the viewport top in rows below the scrollback top.
func (v *Viewport) RowOffset() int { return v.rowOffset }

// PixelOffset returns the sub-row scroll offset in pixels, always in
// [0, lineHeight).
func (v *Viewport) PixelOffset() float64 {
	return math.Abs(v.acc)
}

// IsAtBottom reports whether the viewport follows live output.
func (v *Viewport) IsAtBottom() bool {
	return v.rowOffset >= v.eng.ScrollbackRows() && v.acc == 0
}

// Overscroll returns the accumulated over-scroll distance since the
// last call and resets it. Hosts feed it to a stretch effect.
func (v *Viewport) Overscroll() float64 {
	o := v.overscroll
	v.overscroll = 0
	return o
}

// Sync realigns the row mirror with the engine. Called once per frame
// before encoding: while the viewport is at the bottom, new output
// grows the scrollback and the viewport follows it.
func (v *Viewport) Sync() {
	if v.eng.IsAtBottom() && v.state != StateDragging && v.state != StateFlinging {
		v.rowOffset = v.eng.ScrollbackRows()
		v.acc = 0
	}
}

// TouchDown starts a drag. Any in-flight fling is dropped with no
// rollback; a user-directed touch always wins.
func (v *Viewport) TouchDown() {
	if v.fling != nil {
		logging.Logger().Debug("fling cancelled by touch",
			"velocity", v.fling.velocity,
			"rowOffset", v.rowOffset)
		v.fling = nil
	}
	v.acc = 0
	v.overscroll = 0
	v.state = StateDragging
}

// Drag accumulates a pixel delta. Negative dy scrolls toward the
// scrollback top. Every full lineHeight crossed emits one row-scroll
// command; the remainder stays as the pixel offset. Deltas in a
// blocked direction become over-scroll instead of position.
func (v *Viewport) Drag(dy float64) {
	if v.state != StateDragging {
		return
	}
	v.acc += dy
	sb := v.eng.ScrollbackRows()

	for v.acc <= -v.lineHeight && v.rowOffset > 0 {
		v.eng.ScrollByRows(-1)
		v.rowOffset--
		v.acc += v.lineHeight
	}
	for v.acc >= v.lineHeight && v.rowOffset < sb {
		v.eng.ScrollByRows(1)
		v.rowOffset++
		v.acc -= v.lineHeight
	}

	// Blocked remainder: the boundary stops the position, the excess
	// feeds the stretch effect.
	if v.acc < 0 && v.rowOffset == 0 {
		v.overscroll += -v.acc
		v.acc = 0
	}
	if v.acc > 0 && v.rowOffset >= sb {
		v.overscroll += v.acc
		v.acc = 0
	}
}

// Release ends the drag phase. A residual velocity above the fling
// threshold starts a quadratic-drag animation toward a clamped target;
// otherwise the viewport settles where it is.
func (v *Viewport) Release(velocity float64) {
	if v.state != StateDragging {
		return
	}
	if math.Abs(velocity) < minFlingVelocity {
		v.state = StateSettled
		return
	}

	pos := float64(v.rowOffset)*v.lineHeight + v.acc
	// Glide distance until quadratic drag brings the speed down to the
	// stop threshold: x = ln(v0/vstop) / k.
	glide := math.Log(math.Abs(velocity)/stopVelocity) / flingDrag
	if velocity < 0 {
		glide = -glide
	}
	target := clampF(pos+glide, 0, float64(v.eng.ScrollbackRows())*v.lineHeight)

	v.fling = &flingState{pos: pos, velocity: velocity, target: target}
	v.state = StateFlinging
}

// Step advances the fling animation by one display refresh. It returns
// true while the animation is still running. The continuous position is
// translated back into (rowOffset, pixelOffset) every step, one row
// command per crossed row boundary, so the engine mirror never falls
// behind a fast fling.
func (v *Viewport) Step(now time.Time) bool {
	f := v.fling
	if f == nil {
		return false
	}
	if f.last.IsZero() {
		f.last = now
		return true
	}
	dt := now.Sub(f.last).Seconds()
	f.last = now
	if dt <= 0 {
		return true
	}

	// Quadratic drag: deceleration proportional to v^2.
	decel := flingDrag * f.velocity * math.Abs(f.velocity)
	f.velocity -= decel * dt
	f.pos += f.velocity * dt

	// The target is already clamped to the scrollback limits; hitting
	// it ends the glide.
	if f.velocity > 0 && f.pos >= f.target {
		f.pos, f.velocity = f.target, 0
	}
	if f.velocity < 0 && f.pos <= f.target {
		f.pos, f.velocity = f.target, 0
	}

	v.applyFlingPosition(f.pos)

	if math.Abs(f.velocity) < stopVelocity {
		v.fling = nil
		// The glide stopped inside a row; the rest position is
		// row-quantized, so the residual is dropped.
		v.acc = 0
		v.state = StateSettled
		return false
	}
	return true
}

// applyFlingPosition translates the continuous position back into
// (rowOffset, pixelOffset), emitting one row command per crossed row
// boundary.
func (v *Viewport) applyFlingPosition(pos float64) {
	row := clampI(int(pos/v.lineHeight), 0, v.eng.ScrollbackRows())
	for v.rowOffset < row {
		v.eng.ScrollByRows(1)
		v.rowOffset++
	}
	for v.rowOffset > row {
		v.eng.ScrollByRows(-1)
		v.rowOffset--
	}
	v.acc = pos - float64(v.rowOffset)*v.lineHeight
	if v.acc >= v.lineHeight {
		v.acc = v.lineHeight - 1e-9
	}
	if v.acc <= -v.lineHeight {
		v.acc = -(v.lineHeight - 1e-9)
	}
}

// BeforeResize captures a content anchor for the row at the viewport
// top, unless the viewport is at the bottom. At-bottom viewports stay
// pinned through the resize instead, so live output keeps flowing.
func (v *Viewport) BeforeResize() {
	v.pending = nil
	v.resizeAtBottom = v.IsAtBottom() || v.eng.IsAtBottom()
	if v.resizeAtBottom {
		return
	}
	if hash, ok := v.eng.RowContentHash(v.rowOffset); ok {
		v.pending = &anchor{hash: hash, row: v.rowOffset}
	}
}

// AfterResize resolves the anchor captured by BeforeResize against the
// reflowed content and scrolls back to it. The anchor gets exactly one
// resolution attempt; when it fails, or none could be captured, the
// viewport keeps the engine's post-resize default rather than guessing.
func (v *Viewport) AfterResize() {
	sb := v.eng.ScrollbackRows()
	a := v.pending
	v.pending = nil

	if v.resizeAtBottom {
		// At-bottom before the resize: stay at the bottom.
		v.rowOffset = sb
		v.acc = 0
		return
	}

	if a != nil {
		if row, ok := v.resolveAnchor(a, sb); ok {
			v.eng.ScrollToRowOffset(row)
			v.rowOffset = row
			v.acc = 0
			return
		}
		logging.Logger().Debug("viewport anchor lost after reflow",
			"row", a.row,
			"scrollback", sb)
	}

	if v.eng.IsAtBottom() {
		v.rowOffset = sb
	} else {
		v.rowOffset = clampI(v.rowOffset, 0, sb)
	}
	v.acc = 0
}

// resolveAnchor searches outward from the captured row for the row
// whose content hash matches.
func (v *Viewport) resolveAnchor(a *anchor, sb int) (int, bool) {
	start := clampI(a.row, 0, sb)
	for d := 0; d <= anchorSearchRadius; d++ {
		for _, row := range []int{start - d, start + d} {
			if row < 0 || row > sb {
				continue
			}
			if h, ok := v.eng.RowContentHash(row); ok && h == a.hash {
				return row, true
			}
			if d == 0 {
				break
			}
		}
	}
	return 0, false
}

// ScrollToBottom jumps to the live view, cancelling any animation.
func (v *Viewport) ScrollToBottom() {
	v.fling = nil
	v.acc = 0
	v.rowOffset = v.eng.ScrollbackRows()
	v.eng.ScrollToRowOffset(v.rowOffset)
	v.state = StateIdle
}

func clampF(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampI(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
