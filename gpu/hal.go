package gpu

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// halTexture carries the metadata needed for region uploads.
type halTexture struct {
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int
	format TextureFormat
}

// HALDevice implements Device on top of the gogpu/wgpu HAL. The host
// application owns the underlying device; HALDevice receives it through a
// gpucontext.DeviceProvider and never creates one itself.
type HALDevice struct {
	device hal.Device
	queue  hal.Queue

	caps          Capabilities
	surfaceFormat gputypes.TextureFormat

	nextID atomic.Uint64

	shaders    map[ShaderModuleID]hal.ShaderModule
	buffers    map[BufferID]hal.Buffer
	textures   map[TextureID]*halTexture
	samplers   map[SamplerID]hal.Sampler
	bglLayouts map[BindGroupLayoutID]hal.BindGroupLayout
	bindGroups map[BindGroupID]hal.BindGroup
	pipelines  map[RenderPipelineID]halPipeline

	// Frame state, render thread only.
	encoder     hal.CommandEncoder
	inFrame     bool
	surfaceView hal.TextureView
}

// halPipeline keeps the pipeline layout alive alongside the pipeline.
type halPipeline struct {
	pipeline hal.RenderPipeline
	layout   hal.PipelineLayout
}

// halProvider is the shape a device provider must expose to hand out raw
// HAL handles. gogpu contexts implement it.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewHALDevice wraps the host's GPU device. The provider must expose raw
// HAL handles; limits may be nil, in which case the gputypes defaults
// apply.
func NewHALDevice(provider gpucontext.DeviceProvider, limits *gputypes.Limits) (*HALDevice, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		// Some hosts hang the HAL accessors off the inner device.
		hp, ok = any(provider.Device()).(halProvider)
	}
	if !ok {
		return nil, fmt.Errorf("gpu: provider does not expose HAL handles")
	}

	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	var lim gputypes.Limits
	if limits != nil {
		lim = *limits
	} else {
		lim = gputypes.DefaultLimits()
	}

	format := provider.SurfaceFormat()
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}

	d := &HALDevice{
		device: device,
		queue:  queue,
		caps: Capabilities{
			MaxTextureSize:     lim.MaxTextureDimension2D,
			MaxBufferSize:      lim.MaxBufferSize,
			MaxSampledTextures: lim.MaxSampledTexturesPerShaderStage,
			InstancedDraw:      true,
		},
		surfaceFormat: format,
		shaders:       make(map[ShaderModuleID]hal.ShaderModule),
		buffers:       make(map[BufferID]hal.Buffer),
		textures:      make(map[TextureID]*halTexture),
		samplers:      make(map[SamplerID]hal.Sampler),
		bglLayouts:    make(map[BindGroupLayoutID]hal.BindGroupLayout),
		bindGroups:    make(map[BindGroupID]hal.BindGroup),
		pipelines:     make(map[RenderPipelineID]halPipeline),
	}
	d.nextID.Store(1)
	return d, nil
}

// SetSurfaceTarget installs the texture view frames render into. The host
// passes the raw hal.TextureView for the current swapchain image.
func (d *HALDevice) SetSurfaceTarget(view any) error {
	if view == nil {
		d.surfaceView = nil
		return nil
	}
	v, ok := view.(hal.TextureView)
	if !ok {
		return fmt.Errorf("gpu: surface target is not hal.TextureView")
	}
	d.surfaceView = v
	return nil
}

func (d *HALDevice) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// Capabilities returns the adapter limits captured at creation.
func (d *HALDevice) Capabilities() Capabilities { return d.caps }

// CreateShaderModule compiles WGSL to SPIR-V via naga and wraps it in a
// HAL shader module.
func (d *HALDevice) CreateShaderModule(wgsl, label string) (ShaderModuleID, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: compile %s: %w", label, err)
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create shader module %s: %w", label, err)
	}

	id := ShaderModuleID(d.newID())
	d.shaders[id] = module
	return id, nil
}

func (d *HALDevice) DestroyShaderModule(id ShaderModuleID) {
	if m, ok := d.shaders[id]; ok {
		delete(d.shaders, id)
		d.device.DestroyShaderModule(m)
	}
}

func (d *HALDevice) CreateBuffer(size int, usage BufferUsage, label string) (BufferID, error) {
	if size <= 0 {
		return InvalidID, fmt.Errorf("gpu: buffer size must be positive")
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(size),
		Usage: convertBufferUsage(usage),
	})
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create buffer %s: %w", label, err)
	}
	id := BufferID(d.newID())
	d.buffers[id] = buf
	return id, nil
}

func (d *HALDevice) WriteBuffer(id BufferID, offset uint64, data []byte) {
	if buf, ok := d.buffers[id]; ok && len(data) > 0 {
		d.queue.WriteBuffer(buf, offset, data)
	}
}

func (d *HALDevice) DestroyBuffer(id BufferID) {
	if buf, ok := d.buffers[id]; ok {
		delete(d.buffers, id)
		d.device.DestroyBuffer(buf)
	}
}

func (d *HALDevice) CreateTexture(width, height int, format TextureFormat, label string) (TextureID, error) {
	if width <= 0 || height <= 0 {
		return InvalidID, fmt.Errorf("gpu: texture dimensions must be positive")
	}
	halFormat := convertTextureFormat(format)
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        halFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create texture %s: %w", label, err)
	}

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        halFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return InvalidID, fmt.Errorf("gpu: create texture view %s: %w", label, err)
	}

	id := TextureID(d.newID())
	d.textures[id] = &halTexture{
		tex:    tex,
		view:   view,
		width:  width,
		height: height,
		format: format,
	}
	return id, nil
}

func (d *HALDevice) WriteTextureRegion(id TextureID, x, y, w, h int, data []byte) {
	t, ok := d.textures[id]
	if !ok || w <= 0 || h <= 0 || len(data) == 0 {
		return
	}
	bpp := t.format.BytesPerPixel()
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(x), Y: uint32(y), Z: 0},
			Aspect:   gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(w * bpp),
			RowsPerImage: uint32(h),
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
}

func (d *HALDevice) DestroyTexture(id TextureID) {
	if t, ok := d.textures[id]; ok {
		delete(d.textures, id)
		d.device.DestroyTextureView(t.view)
		d.device.DestroyTexture(t.tex)
	}
}

func (d *HALDevice) CreateSampler(filter FilterMode) (SamplerID, error) {
	mode := gputypes.FilterModeNearest
	if filter == FilterModeLinear {
		mode = gputypes.FilterModeLinear
	}
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "cell_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    mode,
		MinFilter:    mode,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create sampler: %w", err)
	}
	id := SamplerID(d.newID())
	d.samplers[id] = sampler
	return id, nil
}

func (d *HALDevice) DestroySampler(id SamplerID) {
	if s, ok := d.samplers[id]; ok {
		delete(d.samplers, id)
		d.device.DestroySampler(s)
	}
}

func (d *HALDevice) CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error) {
	entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := gputypes.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: convertShaderStage(e.Visibility),
		}
		switch e.Type {
		case BindingTypeUniformBuffer:
			entry.Buffer = &gputypes.BufferBindingLayout{
				Type: gputypes.BufferBindingTypeUniform,
			}
		case BindingTypeSampledTexture:
			entry.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}
		case BindingTypeSampler:
			entry.Sampler = &gputypes.SamplerBindingLayout{
				Type: gputypes.SamplerBindingTypeFiltering,
			}
		}
		entries[i] = entry
	}

	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create bind group layout %s: %w", desc.Label, err)
	}
	id := BindGroupLayoutID(d.newID())
	d.bglLayouts[id] = layout
	return id, nil
}

func (d *HALDevice) DestroyBindGroupLayout(id BindGroupLayoutID) {
	if l, ok := d.bglLayouts[id]; ok {
		delete(d.bglLayouts, id)
		d.device.DestroyBindGroupLayout(l)
	}
}

func (d *HALDevice) CreateBindGroup(layout BindGroupLayoutID, entries []BindGroupEntry, label string) (BindGroupID, error) {
	halLayout, ok := d.bglLayouts[layout]
	if !ok {
		return InvalidID, fmt.Errorf("gpu: bind group layout %d not found", layout)
	}

	halEntries := make([]gputypes.BindGroupEntry, len(entries))
	for i, e := range entries {
		halEntry := gputypes.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != InvalidID:
			buf, ok := d.buffers[e.Buffer]
			if !ok {
				return InvalidID, fmt.Errorf("gpu: buffer %d not found", e.Buffer)
			}
			halEntry.Resource = gputypes.BufferBinding{
				Buffer: buf.NativeHandle(),
				Offset: e.Offset,
				Size:   e.Size,
			}
		case e.Texture != InvalidID:
			t, ok := d.textures[e.Texture]
			if !ok {
				return InvalidID, fmt.Errorf("gpu: texture %d not found", e.Texture)
			}
			halEntry.Resource = gputypes.TextureViewBinding{
				TextureView: t.view.NativeHandle(),
			}
		case e.Sampler != InvalidID:
			s, ok := d.samplers[e.Sampler]
			if !ok {
				return InvalidID, fmt.Errorf("gpu: sampler %d not found", e.Sampler)
			}
			halEntry.Resource = gputypes.SamplerBinding{
				Sampler: s.NativeHandle(),
			}
		default:
			return InvalidID, fmt.Errorf("gpu: bind group entry %d has no resource", e.Binding)
		}
		halEntries[i] = halEntry
	}

	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   label,
		Layout:  halLayout,
		Entries: halEntries,
	})
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create bind group %s: %w", label, err)
	}
	id := BindGroupID(d.newID())
	d.bindGroups[id] = group
	return id, nil
}

func (d *HALDevice) DestroyBindGroup(id BindGroupID) {
	if g, ok := d.bindGroups[id]; ok {
		delete(d.bindGroups, id)
		d.device.DestroyBindGroup(g)
	}
}

func (d *HALDevice) CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error) {
	module, ok := d.shaders[desc.Shader]
	if !ok {
		return InvalidID, fmt.Errorf("gpu: shader module %d not found", desc.Shader)
	}

	layouts := make([]hal.BindGroupLayout, len(desc.BindGroups))
	for i, lid := range desc.BindGroups {
		l, ok := d.bglLayouts[lid]
		if !ok {
			return InvalidID, fmt.Errorf("gpu: bind group layout %d not found", lid)
		}
		layouts[i] = l
	}

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return InvalidID, fmt.Errorf("gpu: create pipeline layout %s: %w", desc.Label, err)
	}

	vertexEntry := desc.VertexEntry
	if vertexEntry == "" {
		vertexEntry = "vs_main"
	}
	fragmentEntry := desc.FragmentEntry
	if fragmentEntry == "" {
		fragmentEntry = "fs_main"
	}

	target := gputypes.ColorTargetState{
		Format:    d.surfaceFormat,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if desc.Blend == BlendModePremultiplied {
		blend := gputypes.BlendStatePremultiplied()
		target.Blend = &blend
	}

	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: vertexEntry,
			Buffers:    convertVertexLayouts(desc.VertexBuffers),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: fragmentEntry,
			Targets:    []gputypes.ColorTargetState{target},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		d.device.DestroyPipelineLayout(pipeLayout)
		return InvalidID, fmt.Errorf("gpu: create render pipeline %s: %w", desc.Label, err)
	}

	id := RenderPipelineID(d.newID())
	d.pipelines[id] = halPipeline{pipeline: pipeline, layout: pipeLayout}
	return id, nil
}

func (d *HALDevice) DestroyRenderPipeline(id RenderPipelineID) {
	if p, ok := d.pipelines[id]; ok {
		delete(d.pipelines, id)
		d.device.DestroyRenderPipeline(p.pipeline)
		d.device.DestroyPipelineLayout(p.layout)
	}
}

func (d *HALDevice) BeginFrame() error {
	if d.inFrame {
		return ErrFrameActive
	}
	if d.surfaceView == nil {
		return ErrNoSurface
	}
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}
	d.encoder = encoder
	d.inFrame = true
	return nil
}

func (d *HALDevice) BeginRenderPass(desc *RenderPassDesc) (RenderPassEncoder, error) {
	if !d.inFrame {
		return nil, ErrNoFrame
	}

	loadOp := gputypes.LoadOpClear
	if desc.Load == LoadOpLoad {
		loadOp = gputypes.LoadOpLoad
	}

	rp := d.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    d.surfaceView,
			LoadOp:  loadOp,
			StoreOp: gputypes.StoreOpStore,
			ClearValue: gputypes.Color{
				R: desc.Clear.R,
				G: desc.Clear.G,
				B: desc.Clear.B,
				A: desc.Clear.A,
			},
		}},
	})
	return &halRenderPass{device: d, pass: rp}, nil
}

func (d *HALDevice) EndFrame() error {
	if !d.inFrame {
		return ErrNoFrame
	}
	d.inFrame = false

	cmdBuf, err := d.encoder.EndEncoding()
	d.encoder = nil
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}

	// The host presents the surface right after this returns, so wait
	// for the GPU to finish the pass.
	ok, err := d.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !ok {
		return fmt.Errorf("gpu: wait for frame: ok=%v err=%w", ok, err)
	}
	return nil
}

// Destroy releases every tracked resource in reverse dependency order.
func (d *HALDevice) Destroy() {
	for id := range d.pipelines {
		d.DestroyRenderPipeline(id)
	}
	for id := range d.bindGroups {
		d.DestroyBindGroup(id)
	}
	for id := range d.bglLayouts {
		d.DestroyBindGroupLayout(id)
	}
	for id := range d.samplers {
		d.DestroySampler(id)
	}
	for id := range d.textures {
		d.DestroyTexture(id)
	}
	for id := range d.buffers {
		d.DestroyBuffer(id)
	}
	for id := range d.shaders {
		d.DestroyShaderModule(id)
	}
}

// halRenderPass adapts hal.RenderPassEncoder to RenderPassEncoder,
// resolving typed IDs through the device's resource maps.
type halRenderPass struct {
	device *HALDevice
	pass   hal.RenderPassEncoder
}

func (p *halRenderPass) SetPipeline(id RenderPipelineID) {
	if pl, ok := p.device.pipelines[id]; ok {
		p.pass.SetPipeline(pl.pipeline)
	}
}

func (p *halRenderPass) SetBindGroup(index uint32, group BindGroupID) {
	if g, ok := p.device.bindGroups[group]; ok {
		p.pass.SetBindGroup(index, g, nil)
	}
}

func (p *halRenderPass) SetVertexBuffer(slot uint32, buffer BufferID) {
	if b, ok := p.device.buffers[buffer]; ok {
		p.pass.SetVertexBuffer(slot, b, 0)
	}
}

func (p *halRenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *halRenderPass) End() {
	p.pass.End()
}

// === Type conversion helpers ===

func convertBufferUsage(usage BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage
	if usage&BufferUsageVertex != 0 {
		result |= gputypes.BufferUsageVertex
	}
	if usage&BufferUsageIndex != 0 {
		result |= gputypes.BufferUsageIndex
	}
	if usage&BufferUsageUniform != 0 {
		result |= gputypes.BufferUsageUniform
	}
	if usage&BufferUsageStorage != 0 {
		result |= gputypes.BufferUsageStorage
	}
	if usage&BufferUsageCopySrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&BufferUsageCopyDst != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	return result
}

func convertTextureFormat(format TextureFormat) gputypes.TextureFormat {
	switch format {
	case TextureFormatR8:
		return gputypes.TextureFormatR8Unorm
	case TextureFormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

func convertShaderStage(stage ShaderStage) gputypes.ShaderStage {
	var result gputypes.ShaderStage
	if stage&ShaderStageVertex != 0 {
		result |= gputypes.ShaderStageVertex
	}
	if stage&ShaderStageFragment != 0 {
		result |= gputypes.ShaderStageFragment
	}
	return result
}

func convertVertexFormat(format VertexFormat) gputypes.VertexFormat {
	switch format {
	case VertexFormatFloat32:
		return gputypes.VertexFormatFloat32
	case VertexFormatFloat32x2:
		return gputypes.VertexFormatFloat32x2
	case VertexFormatFloat32x4:
		return gputypes.VertexFormatFloat32x4
	case VertexFormatUint32:
		return gputypes.VertexFormatUint32
	case VertexFormatUint32x2:
		return gputypes.VertexFormatUint32x2
	default:
		return gputypes.VertexFormatFloat32
	}
}

func convertVertexLayouts(layouts []VertexBufferLayout) []gputypes.VertexBufferLayout {
	result := make([]gputypes.VertexBufferLayout, len(layouts))
	for i, l := range layouts {
		attrs := make([]gputypes.VertexAttribute, len(l.Attributes))
		for j, a := range l.Attributes {
			attrs[j] = gputypes.VertexAttribute{
				ShaderLocation: a.ShaderLocation,
				Format:         convertVertexFormat(a.Format),
				Offset:         a.Offset,
			}
		}
		stepMode := gputypes.VertexStepModeVertex
		if l.StepMode == VertexStepModeInstance {
			stepMode = gputypes.VertexStepModeInstance
		}
		result[i] = gputypes.VertexBufferLayout{
			ArrayStride: l.ArrayStride,
			StepMode:    stepMode,
			Attributes:  attrs,
		}
	}
	return result
}
