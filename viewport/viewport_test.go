package viewport

import (
	"testing"
	"time"

	"github.com/tapthaker/ghostty-android-sub001/grid"
)

const lineHeight = 20.0

// fakeEngine simulates the scrollback side of a terminal engine. Row
// content is modeled as a slice of hashes; resize reflows by shifting
// them.
type fakeEngine struct {
	cols, rows int
	offset     int
	hashes     []uint64

	// noHashes simulates an engine that cannot hash row content, e.g.
	// mid-reflow.
	noHashes bool

	scrollCmds []int
	jumps      []int
}

func newFakeEngine(scrollback int) *fakeEngine {
	e := &fakeEngine{cols: 80, rows: 24, hashes: make([]uint64, scrollback+1)}
	for i := range e.hashes {
		e.hashes[i] = uint64(i) * 0x9E3779B97F4A7C15
	}
	e.offset = scrollback
	return e
}

func (e *fakeEngine) VisibleCells() []grid.Cell   { return nil }
func (e *fakeEngine) Cursor() grid.CursorState    { return grid.CursorState{} }
func (e *fakeEngine) GridSize() (int, int)        { return e.cols, e.rows }
func (e *fakeEngine) ScrollbackRows() int         { return len(e.hashes) - 1 }
func (e *fakeEngine) IsAtBottom() bool            { return e.offset >= e.ScrollbackRows() }
func (e *fakeEngine) Resize(cols, rows int)       { e.cols, e.rows = cols, rows }
func (e *fakeEngine) HyperlinkAt(int, int) (string, bool) { return "", false }

func (e *fakeEngine) ScrollByRows(delta int) {
	e.scrollCmds = append(e.scrollCmds, delta)
	e.offset += delta
	if e.offset < 0 {
		e.offset = 0
	}
	if e.offset > e.ScrollbackRows() {
		e.offset = e.ScrollbackRows()
	}
}

func (e *fakeEngine) ScrollToRowOffset(offset int) {
	e.jumps = append(e.jumps, offset)
	e.offset = offset
}

func (e *fakeEngine) RowContentHash(offset int) (uint64, bool) {
	if e.noHashes || offset < 0 || offset >= len(e.hashes) {
		return 0, false
	}
	return e.hashes[offset], true
}

// feed appends n new output rows, growing the scrollback the way live
// output does.
func (e *fakeEngine) feed(n int) {
	for i := 0; i < n; i++ {
		e.hashes = append(e.hashes, uint64(len(e.hashes))*0x9E3779B97F4A7C15)
	}
	if e.offset == len(e.hashes)-1-n {
		e.offset = len(e.hashes) - 1
	}
}

// reflow simulates a resize that shifts all content down by n rows. An
// at-bottom engine stays pinned to the live view, as real engines do.
func (e *fakeEngine) reflow(shift int) {
	wasAtBottom := e.IsAtBottom()
	shifted := make([]uint64, len(e.hashes)+shift)
	for i := range shifted {
		if i < shift {
			shifted[i] = ^uint64(i)
		} else {
			shifted[i] = e.hashes[i-shift]
		}
	}
	e.hashes = shifted
	if wasAtBottom {
		e.offset = e.ScrollbackRows()
	}
}

func TestDragEmitsRowCommandsWithRemainder(t *testing.T) {
	e := newFakeEngine(100)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(-2.5 * lineHeight)

	if len(e.scrollCmds) != 2 {
		t.Fatalf("commands = %v, want exactly two", e.scrollCmds)
	}
	for _, c := range e.scrollCmds {
		if c != -1 {
			t.Errorf("command = %d, want -1", c)
		}
	}
	if got, want := v.PixelOffset(), 0.5*lineHeight; got != want {
		t.Errorf("pixelOffset = %v, want %v", got, want)
	}
}

func TestDragAccumulatesAcrossEvents(t *testing.T) {
	e := newFakeEngine(100)
	v := New(e, lineHeight)

	v.TouchDown()
	for i := 0; i < 5; i++ {
		v.Drag(-0.3 * lineHeight) // 1.5 rows total
	}
	if len(e.scrollCmds) != 1 {
		t.Fatalf("commands = %v, want one", e.scrollCmds)
	}
	if got := v.PixelOffset(); got < 0.49*lineHeight || got > 0.51*lineHeight {
		t.Errorf("pixelOffset = %v, want ~%v", got, 0.5*lineHeight)
	}
}

func TestPixelOffsetInvariant(t *testing.T) {
	e := newFakeEngine(50)
	v := New(e, lineHeight)

	v.TouchDown()
	deltas := []float64{-7, -33, 12, -160, 45, -0.01, 500, -99.9}
	for _, d := range deltas {
		v.Drag(d)
		if p := v.PixelOffset(); p < 0 || p >= lineHeight {
			t.Fatalf("after drag %v: pixelOffset = %v, outside [0, %v)", d, p, lineHeight)
		}
	}
}

func TestDragBlockedAtTopRaisesOverscroll(t *testing.T) {
	e := newFakeEngine(2)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(-10 * lineHeight)

	if e.offset != 0 {
		t.Fatalf("offset = %d, want clamped at 0", e.offset)
	}
	if len(e.scrollCmds) != 2 {
		t.Errorf("commands = %v, want two", e.scrollCmds)
	}
	if v.Overscroll() <= 0 {
		t.Error("blocked drag raised no over-scroll signal")
	}
	if v.PixelOffset() != 0 {
		t.Errorf("pixelOffset = %v, want 0 at the boundary", v.PixelOffset())
	}
	// The signal is consumed by the read.
	if v.Overscroll() != 0 {
		t.Error("over-scroll signal not reset after read")
	}
}

func TestDragBlockedAtBottom(t *testing.T) {
	e := newFakeEngine(10)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(3 * lineHeight) // already at bottom

	if len(e.scrollCmds) != 0 {
		t.Errorf("commands = %v, want none", e.scrollCmds)
	}
	if v.Overscroll() <= 0 {
		t.Error("blocked drag raised no over-scroll signal")
	}
	if !v.IsAtBottom() {
		t.Error("viewport left the bottom while blocked")
	}
}

func TestTouchDownCancelsFling(t *testing.T) {
	e := newFakeEngine(100)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(-lineHeight)
	v.Release(-2000)
	if v.State() != StateFlinging {
		t.Fatalf("state = %v, want flinging", v.State())
	}

	v.TouchDown()
	if v.State() != StateDragging {
		t.Errorf("state = %v, want dragging", v.State())
	}
	if v.Step(time.Now()) {
		t.Error("cancelled fling still animating")
	}
	if v.PixelOffset() != 0 {
		t.Errorf("pixelOffset = %v, want zeroed on touch-down", v.PixelOffset())
	}
}

func TestReleaseBelowThresholdSettles(t *testing.T) {
	e := newFakeEngine(100)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(-0.5 * lineHeight)
	v.Release(minFlingVelocity / 2)

	if v.State() != StateSettled {
		t.Errorf("state = %v, want settled", v.State())
	}
	if v.Step(time.Now()) {
		t.Error("settled viewport reports an animation")
	}
}

func TestFlingStepsTrackPosition(t *testing.T) {
	e := newFakeEngine(200)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(-lineHeight)
	cmdsBefore := len(e.scrollCmds)
	v.Release(-3000)

	now := time.Now()
	steps := 0
	for v.Step(now) && steps < 10000 {
		now = now.Add(16 * time.Millisecond)
		steps++
		if p := v.PixelOffset(); p < 0 || p >= lineHeight {
			t.Fatalf("step %d: pixelOffset = %v, outside [0, %v)", steps, p, lineHeight)
		}
		// The engine mirror may never lag the viewport position.
		if e.offset != v.RowOffset() {
			t.Fatalf("step %d: engine offset %d, viewport row %d", steps, e.offset, v.RowOffset())
		}
	}
	if steps == 0 || steps >= 10000 {
		t.Fatalf("fling ran %d steps", steps)
	}
	if v.State() != StateSettled {
		t.Errorf("state = %v, want settled after fling", v.State())
	}
	if len(e.scrollCmds) == cmdsBefore {
		t.Error("fling moved the viewport without emitting commands")
	}
	if v.PixelOffset() != 0 {
		t.Errorf("pixelOffset = %v after settle, want 0", v.PixelOffset())
	}
	if e.offset < 0 || e.offset > e.ScrollbackRows() {
		t.Errorf("offset = %d, outside scrollback", e.offset)
	}
}

func TestFastFlingCrossesMultipleRowsPerStep(t *testing.T) {
	e := newFakeEngine(1000)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(-lineHeight)
	v.Release(-8000)

	now := time.Now()
	maxMoved := 0
	prev := v.RowOffset()
	steps := 0
	for v.Step(now) && steps < 10000 {
		now = now.Add(16 * time.Millisecond)
		steps++
		if moved := prev - v.RowOffset(); moved > maxMoved {
			maxMoved = moved
		}
		prev = v.RowOffset()
		if e.offset != v.RowOffset() {
			t.Fatalf("step %d: engine offset %d lags viewport row %d", steps, e.offset, v.RowOffset())
		}
	}

	// At 8000 px/s a 16ms step covers several line heights; the row
	// mirror must keep up within the same step.
	if maxMoved < 2 {
		t.Errorf("max rows per step = %d, want multi-row tracking", maxMoved)
	}
	if v.State() != StateSettled {
		t.Fatalf("state = %v, want settled", v.State())
	}
	if v.PixelOffset() != 0 {
		t.Errorf("pixelOffset = %v after settle, want 0", v.PixelOffset())
	}
	if e.offset != v.RowOffset() {
		t.Errorf("engine offset %d does not mirror settled row %d", e.offset, v.RowOffset())
	}
}

func TestAutoFollowNewOutput(t *testing.T) {
	e := newFakeEngine(100)
	v := New(e, lineHeight)

	if !v.IsAtBottom() {
		t.Fatal("fresh viewport not at bottom")
	}
	e.feed(30)
	v.Sync()

	if v.RowOffset() != e.ScrollbackRows() {
		t.Errorf("rowOffset = %d, want %d (auto-follow)", v.RowOffset(), e.ScrollbackRows())
	}
	if v.PixelOffset() != 0 {
		t.Errorf("pixelOffset = %v, want 0", v.PixelOffset())
	}
	if !v.IsAtBottom() {
		t.Error("viewport lost the bottom")
	}
}

func TestScrolledUpViewportIgnoresNewOutput(t *testing.T) {
	e := newFakeEngine(100)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(-10 * lineHeight)
	v.Release(0)
	row := v.RowOffset()

	e.feed(30)
	v.Sync()

	if v.RowOffset() != row {
		t.Errorf("rowOffset = %d, want unchanged %d", v.RowOffset(), row)
	}
}

func TestAnchorRoundTripAcrossReflow(t *testing.T) {
	e := newFakeEngine(100)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(-40 * lineHeight)
	v.Release(0)
	row := v.RowOffset()
	hash, ok := e.RowContentHash(row)
	if !ok {
		t.Fatal("no hash for anchored row")
	}

	v.BeforeResize()
	e.Resize(100, 30)
	e.reflow(7) // content shifts down 7 rows
	v.AfterResize()

	got, ok := e.RowContentHash(v.RowOffset())
	if !ok || got != hash {
		t.Errorf("post-resize top row hash = %v, want anchored %v", got, hash)
	}
	if v.RowOffset() != row+7 {
		t.Errorf("rowOffset = %d, want %d", v.RowOffset(), row+7)
	}
	if len(e.jumps) == 0 {
		t.Error("anchor resolution issued no scroll jump")
	}
	if v.PixelOffset() != 0 {
		t.Errorf("pixelOffset = %v, want 0 after resize", v.PixelOffset())
	}
}

func TestAtBottomStaysAtBottomAcrossResize(t *testing.T) {
	e := newFakeEngine(100)
	v := New(e, lineHeight)

	v.BeforeResize()
	e.Resize(100, 30)
	e.reflow(12)
	v.AfterResize()

	if !v.IsAtBottom() {
		t.Error("at-bottom viewport did not stay at bottom")
	}
	if len(e.jumps) != 0 {
		t.Errorf("at-bottom resize issued jumps: %v", e.jumps)
	}
}

func TestAnchorResolutionFailureFallsBack(t *testing.T) {
	e := newFakeEngine(100)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(-40 * lineHeight)
	v.Release(0)

	v.BeforeResize()
	// The anchored content disappears entirely.
	for i := range e.hashes {
		e.hashes[i] = ^uint64(i) << 32
	}
	v.AfterResize()

	if len(e.jumps) != 0 {
		t.Errorf("failed resolution still jumped: %v", e.jumps)
	}
	if off := v.RowOffset(); off < 0 || off > e.ScrollbackRows() {
		t.Errorf("rowOffset = %d, outside scrollback", off)
	}
	// The anchor is single-use: a second AfterResize must not resolve.
	e.jumps = nil
	v.AfterResize()
	if len(e.jumps) != 0 {
		t.Error("discarded anchor resolved again")
	}
}

func TestAnchorCaptureFailureKeepsOffset(t *testing.T) {
	e := newFakeEngine(100)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(-40 * lineHeight)
	v.Release(0)
	row := v.RowOffset()

	// The engine cannot hash rows during this resize, so no anchor is
	// captured. A scrolled-up viewport must not snap to the bottom.
	e.noHashes = true
	v.BeforeResize()
	e.Resize(100, 30)
	v.AfterResize()
	e.noHashes = false

	if v.RowOffset() != row {
		t.Errorf("rowOffset = %d, want %d preserved", v.RowOffset(), row)
	}
	if v.IsAtBottom() {
		t.Error("capture failure snapped a scrolled-up viewport to the bottom")
	}
	if len(e.jumps) != 0 {
		t.Errorf("capture failure issued jumps: %v", e.jumps)
	}
}

func TestScrollToBottom(t *testing.T) {
	e := newFakeEngine(100)
	v := New(e, lineHeight)

	v.TouchDown()
	v.Drag(-20 * lineHeight)
	v.Release(-2000)

	v.ScrollToBottom()
	if !v.IsAtBottom() {
		t.Error("ScrollToBottom left the viewport above the bottom")
	}
	if v.Step(time.Now()) {
		t.Error("ScrollToBottom left an animation running")
	}
	if len(e.jumps) == 0 || e.jumps[len(e.jumps)-1] != e.ScrollbackRows() {
		t.Errorf("jumps = %v, want a jump to %d", e.jumps, e.ScrollbackRows())
	}
}
