package render

import (
	"github.com/tapthaker/ghostty-android-sub001/gpu"
	"github.com/tapthaker/ghostty-android-sub001/grid"
)

// Atlas selector values carried in CellInstance.Atlas.
// Matches the atlas_index branch in cell_text.wgsl.
const (
	atlasMono  = 0
	atlasColor = 1
)

// CellInstance is one glyph-pass instance record.
// Matches the InstanceInput struct in cell_text.wgsl:
//
//	location 1: cell        (vec2<f32>)  grid position in cells
//	location 2: glyph_rect  (vec4<f32>)  atlas region in texels
//	location 3: bounds      (vec4<f32>)  glyph box within the cell, px
//	location 4: fg          (vec4<f32>)  ink color, straight alpha
//	location 5: bg          (vec4<f32>)  cell background color
//	location 6: attrs       (u32)        grid.Attributes bits
//	location 7: atlas_index (u32)        0 mono, 1 color
type CellInstance struct {
	// Col and Row are the cell's grid position.
	Col, Row float32

	// GlyphX, GlyphY, GlyphW, GlyphH locate the glyph in its atlas
	// page, in texels.
	GlyphX, GlyphY, GlyphW, GlyphH float32

	// BoundsX and BoundsY offset the glyph box from the cell's top-left
	// corner; BoundsW and BoundsH are its extent. All in pixels. The
	// fragment stage uses the box to separate glyph ink from the
	// decoration region.
	BoundsX, BoundsY, BoundsW, BoundsH float32

	// FG and BG are the resolved cell colors, straight alpha.
	FG, BG [4]float32

	// Attrs carries the grid.Attributes bits.
	Attrs uint32

	// Atlas selects the sampled page: atlasMono or atlasColor.
	Atlas uint32
}

// cellInstanceStride is the packed byte size of one CellInstance.
const cellInstanceStride = 80

// pack serializes the instance at buf[off:] and returns the next
// offset. The layout must stay in sync with cellVertexLayouts.
func (in *CellInstance) pack(buf []byte, off int) int {
	off = gpu.WriteFloat32(buf, off, in.Col)
	off = gpu.WriteFloat32(buf, off, in.Row)
	off = gpu.WriteFloat32(buf, off, in.GlyphX)
	off = gpu.WriteFloat32(buf, off, in.GlyphY)
	off = gpu.WriteFloat32(buf, off, in.GlyphW)
	off = gpu.WriteFloat32(buf, off, in.GlyphH)
	off = gpu.WriteFloat32(buf, off, in.BoundsX)
	off = gpu.WriteFloat32(buf, off, in.BoundsY)
	off = gpu.WriteFloat32(buf, off, in.BoundsW)
	off = gpu.WriteFloat32(buf, off, in.BoundsH)
	for _, c := range in.FG {
		off = gpu.WriteFloat32(buf, off, c)
	}
	for _, c := range in.BG {
		off = gpu.WriteFloat32(buf, off, c)
	}
	off = gpu.WriteUint32(buf, off, in.Attrs)
	off = gpu.WriteUint32(buf, off, in.Atlas)
	return off
}

// cellVertexLayouts returns the instance buffer layout of the glyph
// pipeline. The quad corners come from the vertex index, so the only
// buffer is instance-stepped.
func cellVertexLayouts() []gpu.VertexBufferLayout {
	return []gpu.VertexBufferLayout{
		{
			ArrayStride: cellInstanceStride,
			StepMode:    gpu.VertexStepModeInstance,
			Attributes: []gpu.VertexAttribute{
				{Format: gpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 1},  // cell
				{Format: gpu.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 2},  // glyph_rect
				{Format: gpu.VertexFormatFloat32x4, Offset: 24, ShaderLocation: 3}, // bounds
				{Format: gpu.VertexFormatFloat32x4, Offset: 40, ShaderLocation: 4}, // fg
				{Format: gpu.VertexFormatFloat32x4, Offset: 56, ShaderLocation: 5}, // bg
				{Format: gpu.VertexFormatUint32, Offset: 72, ShaderLocation: 6},    // attrs
				{Format: gpu.VertexFormatUint32, Offset: 76, ShaderLocation: 7},    // atlas_index
			},
		},
	}
}

// bgInstance is one per-cell background quad.
// Matches the BgInput struct in cell_bg.wgsl:
//
//	location 1: origin (vec2<f32>)  top-left corner in pixels
//	location 2: size   (vec2<f32>)  extent in pixels
//	location 3: color  (vec4<f32>)
type bgInstance struct {
	X, Y, W, H float32
	Color      [4]float32
}

const bgInstanceStride = 32

func (in *bgInstance) pack(buf []byte, off int) int {
	off = gpu.WriteFloat32(buf, off, in.X)
	off = gpu.WriteFloat32(buf, off, in.Y)
	off = gpu.WriteFloat32(buf, off, in.W)
	off = gpu.WriteFloat32(buf, off, in.H)
	for _, c := range in.Color {
		off = gpu.WriteFloat32(buf, off, c)
	}
	return off
}

func bgVertexLayouts() []gpu.VertexBufferLayout {
	return []gpu.VertexBufferLayout{
		{
			ArrayStride: bgInstanceStride,
			StepMode:    gpu.VertexStepModeInstance,
			Attributes: []gpu.VertexAttribute{
				{Format: gpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 1},  // origin
				{Format: gpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 2},  // size
				{Format: gpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 3}, // color
			},
		},
	}
}

func colorVec(c grid.Color) [4]float32 {
	f := c.F32()
	return [4]float32{f.R, f.G, f.B, f.A}
}
