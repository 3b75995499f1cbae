// Package font loads terminal fonts and rasterizes glyphs for the atlas.
//
// Each Source is parsed twice: golang.org/x/image/font/opentype supplies
// metrics and monochrome rasterization, go-text/typesetting supplies glyph
// coverage and embedded color bitmap data (CBDT/sbix emoji). A Collection
// groups the four style-variant sources with regular fallback.
package font

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	tsfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// ErrEmptyFontData indicates NewSource was called with no data.
var ErrEmptyFontData = errors.New("font: empty font data")

// Source is a loaded font file. One Source creates rasterizers at many
// sizes. Source is heavyweight and should be shared; it is safe for
// concurrent use once constructed.
type Source struct {
	data []byte
	ot   *opentype.Font
	ts   *tsfont.Face
	name string
}

// NewSource parses TTF or OTF font data. The data slice is copied
// internally and can be reused after this call.
func NewSource(data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	ot, err := opentype.Parse(dataCopy)
	if err != nil {
		return nil, fmt.Errorf("font: failed to parse font: %w", err)
	}

	ts, err := tsfont.ParseTTF(bytes.NewReader(dataCopy))
	if err != nil {
		return nil, fmt.Errorf("font: failed to parse font tables: %w", err)
	}

	s := &Source{data: dataCopy, ot: ot, ts: ts}
	if buf, err := ot.Name(nil, sfnt.NameIDFamily); err == nil {
		s.name = buf
	}
	return s, nil
}

// NewSourceFromFile loads a Source from a font file path.
func NewSourceFromFile(path string) (*Source, error) {
	// #nosec G304 -- font file path is provided by the host
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("font: failed to read font file: %w", err)
	}
	return NewSource(data)
}

// Name returns the font family name, or empty if the font has none.
func (s *Source) Name() string { return s.name }

// HasGlyph reports whether the font maps r to a real glyph.
func (s *Source) HasGlyph(r rune) bool {
	_, ok := s.ts.Font.NominalGlyph(r)
	return ok
}

// glyphIndex returns the sfnt glyph index for r, or 0 if unmapped.
func (s *Source) glyphIndex(r rune) sfnt.GlyphIndex {
	idx, err := s.ot.GlyphIndex(nil, r)
	if err != nil {
		return 0
	}
	return idx
}
