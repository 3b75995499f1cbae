package grid

import "math"

// Color is an 8-bit sRGB color with straight (non-premultiplied) alpha.
// It is the wire form cells arrive in from the terminal engine; all
// blending math happens on ColorF32 in linear space.
type Color struct {
	R, G, B, A uint8
}

// ColorF32 is a color with float32 components in [0,1].
// RGB components are in the color space indicated by context.
// Alpha is always linear (never gamma-encoded).
type ColorF32 struct {
	R, G, B, A float32
}

// RGBA returns an opaque color.
func RGBA(r, g, b, a uint8) Color { return Color{r, g, b, a} }

// F32 converts to float components without changing color space.
func (c Color) F32() ColorF32 {
	return ColorF32{
		R: float32(c.R) / 255.0,
		G: float32(c.G) / 255.0,
		B: float32(c.B) / 255.0,
		A: float32(c.A) / 255.0,
	}
}

// U8 converts float components back to 8-bit with rounding.
func (c ColorF32) U8() Color {
	return Color{
		R: clampU8(c.R),
		G: clampU8(c.G),
		B: clampU8(c.B),
		A: clampU8(c.A),
	}
}

func clampU8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}

// SRGBToLinear converts an sRGB component to linear (EOTF).
// Formula: if s <= 0.04045: s/12.92; else: pow((s+0.055)/1.055, 2.4)
func SRGBToLinear(s float32) float32 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return float32(math.Pow(float64((s+0.055)/1.055), 2.4))
}

// LinearToSRGB converts a linear component to sRGB (OETF).
// Formula: if l <= 0.0031308: l*12.92; else: 1.055*pow(l, 1/2.4)-0.055
func LinearToSRGB(l float32) float32 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*float32(math.Pow(float64(l), 1.0/2.4)) - 0.055
}

// Linear converts a full sRGB color to linear space.
// Only RGB components are converted; alpha remains linear.
func (c ColorF32) Linear() ColorF32 {
	return ColorF32{
		R: SRGBToLinear(c.R),
		G: SRGBToLinear(c.G),
		B: SRGBToLinear(c.B),
		A: c.A,
	}
}

// SRGB converts a full linear color back to sRGB space.
func (c ColorF32) SRGB() ColorF32 {
	return ColorF32{
		R: LinearToSRGB(c.R),
		G: LinearToSRGB(c.G),
		B: LinearToSRGB(c.B),
		A: c.A,
	}
}

// Luminance returns the relative luminance of a linear-space color
// using BT.709 coefficients. Input must already be linear.
func (c ColorF32) Luminance() float32 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// ContrastRatio returns the WCAG contrast ratio between two sRGB colors.
// The ratio is computed from relative luminances in linear space and
// ranges from 1 (identical) to 21 (black on white).
func ContrastRatio(a, b Color) float32 {
	la := a.F32().Linear().Luminance()
	lb := b.F32().Linear().Luminance()
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// MinContrast enforces a minimum contrast ratio between a foreground and
// its cell background. If the pair already meets the ratio the foreground
// is returned unchanged. Otherwise the foreground is replaced with
// whichever of pure white or pure black contrasts more against the
// background, preserving the original alpha.
//
// All luminance math happens in linear space, so the decision is
// independent of whether the display pipeline blends in linear or gamma
// space.
func MinContrast(fg, bg Color, min float32) Color {
	if min <= 1 {
		return fg
	}
	if ContrastRatio(fg, bg) >= min {
		return fg
	}
	white := Color{255, 255, 255, fg.A}
	black := Color{0, 0, 0, fg.A}
	if ContrastRatio(white, bg) >= ContrastRatio(black, bg) {
		return white
	}
	return black
}

// LuminanceAlpha derives a corrected coverage alpha for compositing fg
// over bg with the given glyph coverage. The target luminance is
// interpolated between the endpoint luminances in linear space; the
// returned alpha is the blend weight that reproduces that target when
// the blend itself runs on gamma-encoded values, which is where the
// hardware blend unit operates. Using it makes the composited luminance
// identical whether the pipeline blends in linear or gamma space.
//
// When foreground and background luminance coincide the coverage is
// returned unchanged, since any alpha yields the same luminance.
func LuminanceAlpha(fg, bg ColorF32, coverage float32) float32 {
	lf := fg.Linear().Luminance()
	lb := bg.Linear().Luminance()

	// Gamma-encoded endpoint luminances, the scale the blend weight
	// actually interpolates on.
	gf := LinearToSRGB(lf)
	gb := LinearToSRGB(lb)
	if gf == gb {
		return coverage
	}

	// Target from linear-space interpolation, re-encoded, then solved
	// for the gamma-space weight.
	gt := LinearToSRGB(lb + (lf-lb)*coverage)
	a := (gt - gb) / (gf - gb)
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}
