// Package render turns per-frame terminal cell state into GPU draw
// passes. The Encoder packs cells into instance records, and the
// Pipeline issues three ordered passes per frame: a solid background
// fill, a per-cell background fill, and one instanced glyph draw that
// synthesizes text decorations in the fragment stage.
package render

import "fmt"

// EdgePolicy selects how the per-cell background pass paints the
// padding strip along one surface edge.
type EdgePolicy uint8

const (
	// EdgeTransparent leaves the padding strip at the surface
	// background color.
	EdgeTransparent EdgePolicy = iota

	// EdgeExtend repeats the nearest edge cell's background color into
	// the padding strip.
	EdgeExtend
)

// Padding is the pixel gap between the surface edges and the cell grid.
type Padding struct {
	Left, Top, Right, Bottom int
}

// Config holds the rendering parameters that stay fixed across frames.
type Config struct {
	// MinContrast is the minimum WCAG contrast ratio enforced between a
	// cell's ink and its background, in [1, 21]. 1 disables the check.
	MinContrast float32

	// Padding is the gap between the surface edge and the grid.
	Padding Padding

	// ExtendLeft, ExtendTop, ExtendRight and ExtendBottom select the
	// padding fill policy per edge.
	ExtendLeft, ExtendTop, ExtendRight, ExtendBottom EdgePolicy

	// Background is the surface background color, painted by the first
	// pass and under every cell without an explicit background.
	Background [4]float32
}

// DefaultConfig returns the configuration used when the host does not
// override anything: no contrast enforcement, no padding, black
// background.
func DefaultConfig() Config {
	return Config{
		MinContrast: 1,
		Background:  [4]float32{0, 0, 0, 1},
	}
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("render: invalid config.%s: %s", e.Field, e.Reason)
}

// Validate checks the configuration and returns a *ConfigError
// describing the first problem found.
func (c *Config) Validate() error {
	if c.MinContrast < 1 || c.MinContrast > 21 {
		return &ConfigError{Field: "MinContrast", Reason: "must be in [1, 21]"}
	}
	if c.Padding.Left < 0 || c.Padding.Top < 0 || c.Padding.Right < 0 || c.Padding.Bottom < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	for _, v := range []float32{c.Background[0], c.Background[1], c.Background[2], c.Background[3]} {
		if v < 0 || v > 1 {
			return &ConfigError{Field: "Background", Reason: "components must be in [0, 1]"}
		}
	}
	return nil
}
