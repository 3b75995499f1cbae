// Package atlas caches rasterized glyphs in CPU-side texture pages and
// mirrors them to GPU textures. Two pages are kept: a single-channel page
// for monochrome glyph coverage and an RGBA page for color (emoji) glyphs.
package atlas

import "errors"

// ErrNeedsRebuild is returned by Place when a page is out of space. The
// caller rebuilds the atlas (dropping every placement) and re-encodes the
// frame; steady-state terminal content fits comfortably, so rebuilds are
// rare after warmup.
var ErrNeedsRebuild = errors.New("atlas: page full, rebuild required")

// Config holds atlas configuration.
type Config struct {
	// Size is the page texture size (width = height). Must be a power
	// of two. Default: 1024
	Size int

	// Padding between glyphs to prevent sampling bleed. Default: 1
	Padding int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Size:    1024,
		Padding: 1,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Size < 256 {
		return &ConfigError{Field: "Size", Reason: "must be at least 256"}
	}
	if c.Size > 8192 {
		return &ConfigError{Field: "Size", Reason: "must be at most 8192"}
	}
	if c.Size&(c.Size-1) != 0 {
		return &ConfigError{Field: "Size", Reason: "must be power of 2"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	if c.Padding > 8 {
		return &ConfigError{Field: "Padding", Reason: "must be at most 8"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}
