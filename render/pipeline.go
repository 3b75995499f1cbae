package render

import (
	_ "embed"
	"fmt"

	"github.com/tapthaker/ghostty-android-sub001/atlas"
	"github.com/tapthaker/ghostty-android-sub001/gpu"
	"github.com/tapthaker/ghostty-android-sub001/grid"
)

//go:embed shaders/cell_bg.wgsl
var cellBgShaderSource string

//go:embed shaders/cell_text.wgsl
var cellTextShaderSource string

// uniformSize is the packed byte size of the Uniforms struct shared by
// both shaders: surface_size, cell_size, grid_offset, one vec2 of
// struct padding, and the deco vec4.
const uniformSize = 48

// quadVertexCount is the number of vertices per instanced quad.
const quadVertexCount = 6

// initialInstanceCapacity sizes the instance buffers at creation, in
// instances. The buffers grow on demand.
const initialInstanceCapacity = 1024

// ViewState is the per-frame view input from the viewport engine.
type ViewState struct {
	// SurfaceWidth and SurfaceHeight are the target size in pixels.
	SurfaceWidth, SurfaceHeight int

	// PixelOffset is the sub-row scroll offset in pixels, shifting the
	// whole grid up within the surface. Always in [0, lineHeight).
	PixelOffset float64
}

// Pipeline owns the GPU resources of the three draw passes and issues
// them in order each frame. It is confined to the render thread.
type Pipeline struct {
	dev   gpu.Device
	atlas *atlas.Manager
	cfg   Config

	bgShader   gpu.ShaderModuleID
	textShader gpu.ShaderModuleID
	layout     gpu.BindGroupLayoutID
	textLayout gpu.BindGroupLayoutID

	bgPipeline   gpu.RenderPipelineID
	textPipeline gpu.RenderPipelineID

	sampler    gpu.SamplerID
	uniformBuf gpu.BufferID

	bgGroup   gpu.BindGroupID
	textGroup gpu.BindGroupID

	// textGroup binds the atlas textures and is rebuilt whenever a
	// flush or rebuild replaced them.
	boundMono, boundColor gpu.TextureID

	bgBuf      gpu.BufferID
	bgBufCap   int
	textBuf    gpu.BufferID
	textBufCap int
	scratch    []byte
}

// NewPipeline creates the render pipelines and static resources on dev.
func NewPipeline(dev gpu.Device, m *atlas.Manager, cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{dev: dev, atlas: m, cfg: cfg}
	if err := p.init(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) init() error {
	var err error
	p.bgShader, err = p.dev.CreateShaderModule(cellBgShaderSource, "cell_bg")
	if err != nil {
		return fmt.Errorf("render: compile cell_bg: %w", err)
	}
	p.textShader, err = p.dev.CreateShaderModule(cellTextShaderSource, "cell_text")
	if err != nil {
		return fmt.Errorf("render: compile cell_text: %w", err)
	}

	p.layout, err = p.dev.CreateBindGroupLayout(&gpu.BindGroupLayoutDesc{
		Label: "cell_bg_layout",
		Entries: []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gpu.ShaderStageVertex | gpu.ShaderStageFragment, Type: gpu.BindingTypeUniformBuffer},
		},
	})
	if err != nil {
		return err
	}
	p.textLayout, err = p.dev.CreateBindGroupLayout(&gpu.BindGroupLayoutDesc{
		Label: "cell_text_layout",
		Entries: []gpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gpu.ShaderStageVertex | gpu.ShaderStageFragment, Type: gpu.BindingTypeUniformBuffer},
			{Binding: 1, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeSampler},
			{Binding: 2, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeSampledTexture},
			{Binding: 3, Visibility: gpu.ShaderStageFragment, Type: gpu.BindingTypeSampledTexture},
		},
	})
	if err != nil {
		return err
	}

	p.bgPipeline, err = p.dev.CreateRenderPipeline(&gpu.RenderPipelineDesc{
		Label:         "cell_bg",
		Shader:        p.bgShader,
		VertexBuffers: bgVertexLayouts(),
		BindGroups:    []gpu.BindGroupLayoutID{p.layout},
		Blend:         gpu.BlendModePremultiplied,
	})
	if err != nil {
		return fmt.Errorf("render: create cell_bg pipeline: %w", err)
	}
	p.textPipeline, err = p.dev.CreateRenderPipeline(&gpu.RenderPipelineDesc{
		Label:         "cell_text",
		Shader:        p.textShader,
		VertexBuffers: cellVertexLayouts(),
		BindGroups:    []gpu.BindGroupLayoutID{p.textLayout},
		Blend:         gpu.BlendModePremultiplied,
	})
	if err != nil {
		return fmt.Errorf("render: create cell_text pipeline: %w", err)
	}

	// Glyph bitmaps are rasterized at the exact cell size; nearest
	// sampling keeps their edges crisp.
	p.sampler, err = p.dev.CreateSampler(gpu.FilterModeNearest)
	if err != nil {
		return err
	}
	p.uniformBuf, err = p.dev.CreateBuffer(uniformSize, gpu.BufferUsageUniform|gpu.BufferUsageCopyDst, "cell_uniforms")
	if err != nil {
		return err
	}

	// The glyph-pass bind group waits for the first Frame, which
	// flushes the atlas and creates its textures.
	p.bgGroup, err = p.dev.CreateBindGroup(p.layout, []gpu.BindGroupEntry{
		{Binding: 0, Buffer: p.uniformBuf, Size: uniformSize},
	}, "cell_bg_bind")
	return err
}

// bindAtlas (re)creates the glyph-pass bind group against the current
// atlas textures.
func (p *Pipeline) bindAtlas() error {
	if p.textGroup != gpu.InvalidID {
		p.dev.DestroyBindGroup(p.textGroup)
		p.textGroup = gpu.InvalidID
	}
	group, err := p.dev.CreateBindGroup(p.textLayout, []gpu.BindGroupEntry{
		{Binding: 0, Buffer: p.uniformBuf, Size: uniformSize},
		{Binding: 1, Sampler: p.sampler},
		{Binding: 2, Texture: p.atlas.MonoTexture()},
		{Binding: 3, Texture: p.atlas.ColorTexture()},
	}, "cell_text_bind")
	if err != nil {
		return err
	}
	p.textGroup = group
	p.boundMono = p.atlas.MonoTexture()
	p.boundColor = p.atlas.ColorTexture()
	return nil
}

// Frame renders one encoded frame: background clear, per-cell
// backgrounds, then the instanced glyph pass.
func (p *Pipeline) Frame(f *Frame, view ViewState) error {
	if err := p.atlas.Flush(p.dev); err != nil {
		return err
	}
	if p.textGroup == gpu.InvalidID ||
		p.boundMono != p.atlas.MonoTexture() || p.boundColor != p.atlas.ColorTexture() {
		if err := p.bindAtlas(); err != nil {
			return err
		}
	}

	p.writeUniforms(view)
	bgCount, err := p.uploadBg(f)
	if err != nil {
		return err
	}
	textCount, err := p.uploadText(f)
	if err != nil {
		return err
	}

	if err := p.dev.BeginFrame(); err != nil {
		return err
	}

	// Pass 1: solid background fill.
	pass, err := p.dev.BeginRenderPass(&gpu.RenderPassDesc{
		Label: "bg_fill",
		Load:  gpu.LoadOpClear,
		Clear: gpu.Color{
			R: float64(p.cfg.Background[0]),
			G: float64(p.cfg.Background[1]),
			B: float64(p.cfg.Background[2]),
			A: float64(p.cfg.Background[3]),
		},
	})
	if err != nil {
		return err
	}
	pass.End()

	// Pass 2: per-cell backgrounds.
	pass, err = p.dev.BeginRenderPass(&gpu.RenderPassDesc{Label: "cell_bg", Load: gpu.LoadOpLoad})
	if err != nil {
		return err
	}
	if bgCount > 0 {
		pass.SetPipeline(p.bgPipeline)
		pass.SetBindGroup(0, p.bgGroup)
		pass.SetVertexBuffer(0, p.bgBuf)
		pass.Draw(quadVertexCount, uint32(bgCount), 0, 0)
	}
	pass.End()

	// Pass 3: instanced glyphs with decoration synthesis.
	pass, err = p.dev.BeginRenderPass(&gpu.RenderPassDesc{Label: "cell_text", Load: gpu.LoadOpLoad})
	if err != nil {
		return err
	}
	if textCount > 0 {
		pass.SetPipeline(p.textPipeline)
		pass.SetBindGroup(0, p.textGroup)
		pass.SetVertexBuffer(0, p.textBuf)
		pass.Draw(quadVertexCount, uint32(textCount), 0, 0)
	}
	pass.End()

	return p.dev.EndFrame()
}

func (p *Pipeline) writeUniforms(view ViewState) {
	m := p.atlas.Metrics()
	buf := make([]byte, uniformSize)
	off := 0
	off = gpu.WriteFloat32(buf, off, float32(view.SurfaceWidth))
	off = gpu.WriteFloat32(buf, off, float32(view.SurfaceHeight))
	off = gpu.WriteFloat32(buf, off, float32(m.CellWidth))
	off = gpu.WriteFloat32(buf, off, float32(m.CellHeight))
	off = gpu.WriteFloat32(buf, off, float32(p.cfg.Padding.Left))
	off = gpu.WriteFloat32(buf, off, float32(p.cfg.Padding.Top)-float32(view.PixelOffset))
	off = gpu.WriteFloat32(buf, off, 0) // struct padding
	off = gpu.WriteFloat32(buf, off, 0)
	off = gpu.WriteFloat32(buf, off, float32(m.UnderlinePosition))
	off = gpu.WriteFloat32(buf, off, float32(m.UnderlineThickness))
	off = gpu.WriteFloat32(buf, off, float32(m.StrikethroughPosition))
	gpu.WriteFloat32(buf, off, float32(p.atlas.Size()))
	p.dev.WriteBuffer(p.uniformBuf, 0, buf)
}

// uploadBg packs the per-cell background quads, including the padding
// strips, and returns the instance count.
func (p *Pipeline) uploadBg(f *Frame) (int, error) {
	instances := buildBgInstances(f, p.cfg, p.atlas.Metrics().CellWidth, p.atlas.Metrics().CellHeight)
	if len(instances) == 0 {
		return 0, nil
	}

	need := len(instances) * bgInstanceStride
	if p.bgBuf == gpu.InvalidID || need > p.bgBufCap {
		if p.bgBuf != gpu.InvalidID {
			p.dev.DestroyBuffer(p.bgBuf)
		}
		size := max(need, initialInstanceCapacity*bgInstanceStride)
		buf, err := p.dev.CreateBuffer(size, gpu.BufferUsageVertex|gpu.BufferUsageCopyDst, "cell_bg_instances")
		if err != nil {
			return 0, err
		}
		p.bgBuf, p.bgBufCap = buf, size
	}

	p.scratch = p.scratch[:0]
	if cap(p.scratch) < need {
		p.scratch = make([]byte, 0, need)
	}
	p.scratch = p.scratch[:need]
	off := 0
	for i := range instances {
		off = instances[i].pack(p.scratch, off)
	}
	p.dev.WriteBuffer(p.bgBuf, 0, p.scratch)
	return len(instances), nil
}

func (p *Pipeline) uploadText(f *Frame) (int, error) {
	if len(f.Instances) == 0 {
		return 0, nil
	}
	need := len(f.Instances) * cellInstanceStride
	if p.textBuf == gpu.InvalidID || need > p.textBufCap {
		if p.textBuf != gpu.InvalidID {
			p.dev.DestroyBuffer(p.textBuf)
		}
		size := max(need, initialInstanceCapacity*cellInstanceStride)
		buf, err := p.dev.CreateBuffer(size, gpu.BufferUsageVertex|gpu.BufferUsageCopyDst, "cell_text_instances")
		if err != nil {
			return 0, err
		}
		p.textBuf, p.textBufCap = buf, size
	}

	p.scratch = p.scratch[:0]
	if cap(p.scratch) < need {
		p.scratch = make([]byte, 0, need)
	}
	p.scratch = p.scratch[:need]
	off := 0
	for i := range f.Instances {
		off = f.Instances[i].pack(p.scratch, off)
	}
	p.dev.WriteBuffer(p.textBuf, 0, p.scratch)
	return len(f.Instances), nil
}

// Destroy releases every GPU resource the pipeline owns. Safe to call
// on a partially initialized pipeline.
func (p *Pipeline) Destroy() {
	ids := []struct {
		id      uint64
		destroy func()
	}{
		{uint64(p.textGroup), func() { p.dev.DestroyBindGroup(p.textGroup) }},
		{uint64(p.bgGroup), func() { p.dev.DestroyBindGroup(p.bgGroup) }},
		{uint64(p.textBuf), func() { p.dev.DestroyBuffer(p.textBuf) }},
		{uint64(p.bgBuf), func() { p.dev.DestroyBuffer(p.bgBuf) }},
		{uint64(p.uniformBuf), func() { p.dev.DestroyBuffer(p.uniformBuf) }},
		{uint64(p.sampler), func() { p.dev.DestroySampler(p.sampler) }},
		{uint64(p.textPipeline), func() { p.dev.DestroyRenderPipeline(p.textPipeline) }},
		{uint64(p.bgPipeline), func() { p.dev.DestroyRenderPipeline(p.bgPipeline) }},
		{uint64(p.textLayout), func() { p.dev.DestroyBindGroupLayout(p.textLayout) }},
		{uint64(p.layout), func() { p.dev.DestroyBindGroupLayout(p.layout) }},
		{uint64(p.textShader), func() { p.dev.DestroyShaderModule(p.textShader) }},
		{uint64(p.bgShader), func() { p.dev.DestroyShaderModule(p.bgShader) }},
	}
	for _, r := range ids {
		if r.id != gpu.InvalidID {
			r.destroy()
		}
	}
	p.textGroup, p.bgGroup = gpu.InvalidID, gpu.InvalidID
	p.textBuf, p.bgBuf, p.uniformBuf = gpu.InvalidID, gpu.InvalidID, gpu.InvalidID
	p.sampler = gpu.InvalidID
	p.textPipeline, p.bgPipeline = gpu.InvalidID, gpu.InvalidID
	p.textLayout, p.layout = gpu.InvalidID, gpu.InvalidID
	p.textShader, p.bgShader = gpu.InvalidID, gpu.InvalidID
}

// buildBgInstances converts the frame's flat color buffer into quads.
// Cells outside the grid but inside the configured padding reuse the
// nearest edge cell's color when the edge policy is EdgeExtend.
func buildBgInstances(f *Frame, cfg Config, cellW, cellH float64) []bgInstance {
	if f.Cols == 0 || f.Rows == 0 {
		return nil
	}
	out := make([]bgInstance, 0, f.Cols*f.Rows)
	left := float32(cfg.Padding.Left)
	top := float32(cfg.Padding.Top)

	at := func(col, row int) grid.Color { return f.BgColors[row*f.Cols+col] }

	emit := func(x, y, w, h float32, c grid.Color) {
		if c == (grid.Color{}) || w <= 0 || h <= 0 {
			return
		}
		out = append(out, bgInstance{X: x, Y: y, W: w, H: h, Color: colorVec(c)})
	}

	for row := 0; row < f.Rows; row++ {
		y := top + float32(float64(row)*cellH)
		for col := 0; col < f.Cols; col++ {
			x := left + float32(float64(col)*cellW)
			emit(x, y, float32(cellW), float32(cellH), at(col, row))
		}
		// Horizontal padding strips extend the row's edge cells.
		if cfg.ExtendLeft == EdgeExtend && cfg.Padding.Left > 0 {
			emit(0, y, left, float32(cellH), at(0, row))
		}
		if cfg.ExtendRight == EdgeExtend && cfg.Padding.Right > 0 {
			x := left + float32(float64(f.Cols)*cellW)
			emit(x, y, float32(cfg.Padding.Right), float32(cellH), at(f.Cols-1, row))
		}
	}
	// Vertical padding strips extend the edge rows, and the corner
	// rectangles extend the corner cells when both adjacent edges do.
	right := left + float32(float64(f.Cols)*cellW)
	extLeft := cfg.ExtendLeft == EdgeExtend && cfg.Padding.Left > 0
	extRight := cfg.ExtendRight == EdgeExtend && cfg.Padding.Right > 0
	if cfg.ExtendTop == EdgeExtend && cfg.Padding.Top > 0 {
		for col := 0; col < f.Cols; col++ {
			x := left + float32(float64(col)*cellW)
			emit(x, 0, float32(cellW), top, at(col, 0))
		}
		if extLeft {
			emit(0, 0, left, top, at(0, 0))
		}
		if extRight {
			emit(right, 0, float32(cfg.Padding.Right), top, at(f.Cols-1, 0))
		}
	}
	if cfg.ExtendBottom == EdgeExtend && cfg.Padding.Bottom > 0 {
		y := top + float32(float64(f.Rows)*cellH)
		h := float32(cfg.Padding.Bottom)
		for col := 0; col < f.Cols; col++ {
			x := left + float32(float64(col)*cellW)
			emit(x, y, float32(cellW), h, at(col, f.Rows-1))
		}
		if extLeft {
			emit(0, y, left, h, at(0, f.Rows-1))
		}
		if extRight {
			emit(right, y, float32(cfg.Padding.Right), h, at(f.Cols-1, f.Rows-1))
		}
	}
	return out
}
