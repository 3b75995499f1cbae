package font

import (
	"errors"

	"github.com/tapthaker/ghostty-android-sub001/grid"
)

// ErrNoRegular indicates a Collection was built without a regular face.
var ErrNoRegular = errors.New("font: collection requires a regular source")

// Collection holds the style-variant sources of one terminal font.
// Missing variants fall back to the regular source; the rasterizer then
// synthesizes bold (double-strike) or italic (shear) as needed.
type Collection struct {
	variants [grid.NumStyleVariants]*Source
}

// NewCollection creates a Collection around a required regular source.
func NewCollection(regular *Source) (*Collection, error) {
	if regular == nil {
		return nil, ErrNoRegular
	}
	c := &Collection{}
	c.variants[grid.StyleRegular] = regular
	return c, nil
}

// SetVariant installs a dedicated source for a style variant.
// Passing nil removes the variant, restoring regular fallback.
func (c *Collection) SetVariant(v grid.StyleVariant, src *Source) {
	if v == grid.StyleRegular && src == nil {
		return
	}
	c.variants[v] = src
}

// Source returns the source used for a variant, falling back to regular.
func (c *Collection) Source(v grid.StyleVariant) *Source {
	if s := c.variants[v]; s != nil {
		return s
	}
	return c.variants[grid.StyleRegular]
}

// isSynthetic reports whether rendering variant v requires synthesizing
// the style because no dedicated face is installed.
func (c *Collection) isSynthetic(v grid.StyleVariant) (syntheticBold, syntheticItalic bool) {
	if c.variants[v] != nil {
		return false, false
	}
	switch v {
	case grid.StyleBold:
		return true, false
	case grid.StyleItalic:
		return false, true
	case grid.StyleBoldItalic:
		// A dedicated bold or italic face halves the synthesis.
		if c.variants[grid.StyleBold] != nil || c.variants[grid.StyleItalic] != nil {
			if c.variants[grid.StyleBold] != nil {
				return false, true
			}
			return true, false
		}
		return true, true
	}
	return false, false
}

// sourceFor resolves the concrete source plus synthesis flags for v.
func (c *Collection) sourceFor(v grid.StyleVariant) (*Source, bool, bool) {
	sb, si := c.isSynthetic(v)
	if !sb && !si {
		return c.Source(v), false, false
	}
	// Prefer the closest installed face.
	if v == grid.StyleBoldItalic {
		if s := c.variants[grid.StyleBold]; s != nil {
			return s, false, true
		}
		if s := c.variants[grid.StyleItalic]; s != nil {
			return s, true, false
		}
	}
	return c.variants[grid.StyleRegular], sb, si
}
