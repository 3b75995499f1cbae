package grid

import "github.com/mattn/go-runewidth"

// UnderlineKind selects which underline decoration a cell carries.
// The values fit the 3-bit underline field of Attributes.
type UnderlineKind uint8

const (
	UnderlineNone UnderlineKind = iota
	UnderlineSingle
	UnderlineDouble
	UnderlineCurly
	UnderlineDotted
	UnderlineDashed
)

// StyleVariant identifies which face of the font collection renders a
// glyph. The tag replaces any dynamic dispatch on style: the atlas and
// the encoder key flat lookup tables by it.
type StyleVariant uint8

const (
	StyleRegular StyleVariant = iota
	StyleBold
	StyleItalic
	StyleBoldItalic

	// NumStyleVariants is the size of variant-indexed lookup tables.
	NumStyleVariants = 4
)

// Attributes is the packed 16-bit per-cell attribute bitfield.
//
// Layout (must match the attribute bits consumed by the glyph shader):
//
//	bit 0     bold
//	bit 1     italic
//	bit 2     dim
//	bit 3     strikethrough
//	bits 4-6  underline kind (UnderlineKind)
//	bit 7     inverse video
//	bit 8     wide (double-width glyph, occupies two columns)
type Attributes uint16

const (
	AttrBold Attributes = 1 << iota
	AttrItalic
	AttrDim
	AttrStrikethrough
	_ // bits 4-6 are the underline field
	_
	_
	AttrInverse
	AttrWide
)

const (
	underlineShift = 4
	underlineMask  = Attributes(0x7 << underlineShift)
)

// WithUnderline returns a copy of a with the underline field set to k.
func (a Attributes) WithUnderline(k UnderlineKind) Attributes {
	return (a &^ underlineMask) | Attributes(k)<<underlineShift
}

// Underline returns the underline kind encoded in the attribute bits.
func (a Attributes) Underline() UnderlineKind {
	return UnderlineKind((a & underlineMask) >> underlineShift)
}

// Bold reports the bold bit.
func (a Attributes) Bold() bool { return a&AttrBold != 0 }

// Italic reports the italic bit.
func (a Attributes) Italic() bool { return a&AttrItalic != 0 }

// Dim reports the dim bit.
func (a Attributes) Dim() bool { return a&AttrDim != 0 }

// Strikethrough reports the strikethrough bit.
func (a Attributes) Strikethrough() bool { return a&AttrStrikethrough != 0 }

// Inverse reports the inverse-video bit.
func (a Attributes) Inverse() bool { return a&AttrInverse != 0 }

// Wide reports the double-width bit.
func (a Attributes) Wide() bool { return a&AttrWide != 0 }

// Variant selects the font style variant from the bold and italic bits.
func (a Attributes) Variant() StyleVariant {
	switch {
	case a.Bold() && a.Italic():
		return StyleBoldItalic
	case a.Bold():
		return StyleBold
	case a.Italic():
		return StyleItalic
	default:
		return StyleRegular
	}
}

// Decorated reports whether the cell needs a full-cell quad because a
// decoration must paint outside the glyph ink.
func (a Attributes) Decorated() bool {
	return a.Underline() != UnderlineNone || a.Strikethrough() || a.Inverse()
}

// Cell is one character-grid position as read from the terminal engine.
// Cells are produced fresh each frame from the engine's visible window
// and never persisted beyond the frame that consumed them.
type Cell struct {
	Col, Row  uint16
	Codepoint rune
	FG, BG    Color
	Attrs     Attributes
}

// IsWide reports whether r occupies two terminal columns.
func IsWide(r rune) bool {
	return runewidth.RuneWidth(r) == 2
}

// CursorStyle selects how the cursor cell is painted.
type CursorStyle uint8

const (
	CursorBlock CursorStyle = iota
	CursorBar
	CursorUnderline
)

// CursorState is the engine's resolved cursor for one frame.
type CursorState struct {
	Col, Row uint16
	Visible  bool
	Style    CursorStyle
	Color    Color
}
