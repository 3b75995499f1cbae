package grid

// CellSize is the device-pixel footprint of one grid cell plus the
// baseline offset within it. Derived from font metrics; identical for
// every cell in the grid.
type CellSize struct {
	Width    float64
	Height   float64
	Baseline float64
}

// Grid describes the fixed character grid. It is mutated only by resize
// and read by every render pass.
type Grid struct {
	Cols, Rows uint16
	Cell       CellSize
}

// Fit computes the grid dimensions that fit a surface of the given pixel
// size with the given cell size. At least one column and row is always
// returned so a degenerate surface cannot produce an empty grid.
func Fit(surfaceW, surfaceH int, cell CellSize) Grid {
	cols := 1
	rows := 1
	if cell.Width > 0 {
		if c := int(float64(surfaceW) / cell.Width); c > 1 {
			cols = c
		}
	}
	if cell.Height > 0 {
		if r := int(float64(surfaceH) / cell.Height); r > 1 {
			rows = r
		}
	}
	if cols > 0xFFFF {
		cols = 0xFFFF
	}
	if rows > 0xFFFF {
		rows = 0xFFFF
	}
	return Grid{Cols: uint16(cols), Rows: uint16(rows), Cell: cell}
}

// Index returns the row-major index of (col, row) in a flat per-cell
// buffer, or -1 when the coordinate is outside the grid.
func (g Grid) Index(col, row int) int {
	if col < 0 || row < 0 || col >= int(g.Cols) || row >= int(g.Rows) {
		return -1
	}
	return row*int(g.Cols) + col
}

// Clamp limits a coordinate to the grid bounds. Out-of-range input is an
// edge-case policy, never an error.
func (g Grid) Clamp(col, row int) (int, int) {
	if col < 0 {
		col = 0
	}
	if row < 0 {
		row = 0
	}
	if col >= int(g.Cols) {
		col = int(g.Cols) - 1
	}
	if row >= int(g.Rows) {
		row = int(g.Rows) - 1
	}
	return col, row
}
