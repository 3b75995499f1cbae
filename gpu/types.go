// Package gpu abstracts the GPU device behind a small interface so the
// renderer can be exercised against fakes in tests while production code
// runs on the gogpu/wgpu HAL.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - IDs become invalid after destruction and must not be reused
package gpu

import "errors"

// Resource IDs. ID 0 is never a valid resource.
type (
	ShaderModuleID    uint64
	BufferID          uint64
	TextureID         uint64
	SamplerID         uint64
	BindGroupLayoutID uint64
	BindGroupID       uint64
	RenderPipelineID  uint64
)

// InvalidID is returned by failed Create* calls.
const InvalidID = 0

var (
	// ErrDeviceLost is returned when the underlying device is gone and
	// all GPU state must be rebuilt from scratch.
	ErrDeviceLost = errors.New("gpu: device lost")

	// ErrNoSurface is returned when frame encoding starts without a
	// surface target.
	ErrNoSurface = errors.New("gpu: no surface target")

	// ErrFrameActive is returned when BeginFrame is called twice without
	// an intervening EndFrame.
	ErrFrameActive = errors.New("gpu: frame already active")

	// ErrNoFrame is returned when pass or submit operations are called
	// outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("gpu: no frame active")
)

// TextureFormat is the pixel format of a texture.
type TextureFormat uint8

const (
	// TextureFormatR8 is a single-channel 8-bit format (glyph coverage).
	TextureFormatR8 TextureFormat = iota

	// TextureFormatRGBA8 is an 8-bit-per-channel color format.
	TextureFormatRGBA8

	// TextureFormatBGRA8 is the usual swapchain format.
	TextureFormatBGRA8
)

// BytesPerPixel returns the pixel stride of the format.
func (f TextureFormat) BytesPerPixel() int {
	if f == TextureFormatR8 {
		return 1
	}
	return 4
}

// BufferUsage is a bitmask of buffer usage flags.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageCopySrc
	BufferUsageCopyDst
)

// LoadOp selects what happens to the target at pass start.
type LoadOp uint8

const (
	// LoadOpClear clears the target to the pass clear color.
	LoadOpClear LoadOp = iota

	// LoadOpLoad preserves the previous contents.
	LoadOpLoad
)

// Color is a normalized RGBA clear color.
type Color struct {
	R, G, B, A float64
}

// FilterMode selects texture sampling filtering.
type FilterMode uint8

const (
	FilterModeNearest FilterMode = iota
	FilterModeLinear
)

// ShaderStage is a bitmask of pipeline stages a binding is visible to.
type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
)

// BindingType identifies the resource kind of a bind group entry.
type BindingType uint8

const (
	BindingTypeUniformBuffer BindingType = iota
	BindingTypeSampledTexture
	BindingTypeSampler
)

// BindGroupLayoutDesc describes the bindings of a bind group.
type BindGroupLayoutDesc struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupLayoutEntry describes a single binding slot.
type BindGroupLayoutEntry struct {
	Binding    uint32
	Visibility ShaderStage
	Type       BindingType
}

// BindGroupEntry binds one resource to a layout slot. Exactly one of
// Buffer, Texture, or Sampler is set, matching the layout entry type.
type BindGroupEntry struct {
	Binding uint32

	Buffer BufferID
	Offset uint64
	Size   uint64

	Texture TextureID
	Sampler SamplerID
}

// VertexFormat is the data format of one vertex attribute.
type VertexFormat uint8

const (
	VertexFormatFloat32 VertexFormat = iota
	VertexFormatFloat32x2
	VertexFormatFloat32x4
	VertexFormatUint32
	VertexFormatUint32x2
)

// VertexStepMode selects per-vertex or per-instance attribute stepping.
type VertexStepMode uint8

const (
	VertexStepModeVertex VertexStepMode = iota
	VertexStepModeInstance
)

// VertexAttribute describes one attribute within a vertex buffer.
type VertexAttribute struct {
	ShaderLocation uint32
	Format         VertexFormat
	Offset         uint64
}

// VertexBufferLayout describes the memory layout of one vertex buffer.
type VertexBufferLayout struct {
	ArrayStride uint64
	StepMode    VertexStepMode
	Attributes  []VertexAttribute
}

// BlendMode selects the color blend state of a pipeline.
type BlendMode uint8

const (
	// BlendModeNone replaces the destination.
	BlendModeNone BlendMode = iota

	// BlendModePremultiplied blends premultiplied-alpha sources over the
	// destination.
	BlendModePremultiplied
)

// RenderPipelineDesc describes a vertex+fragment render pipeline.
type RenderPipelineDesc struct {
	Label string

	Shader        ShaderModuleID
	VertexEntry   string // defaults to "vs_main"
	FragmentEntry string // defaults to "fs_main"
	VertexBuffers []VertexBufferLayout
	BindGroups    []BindGroupLayoutID
	Blend         BlendMode
}

// RenderPassDesc describes a single render pass targeting the surface.
type RenderPassDesc struct {
	Label string
	Load  LoadOp
	Clear Color
}

// Capabilities describes the device limits the renderer depends on.
// Missing capabilities are fatal at initialization; there is no degraded
// rendering mode.
type Capabilities struct {
	// MaxTextureSize is the maximum 2D texture dimension.
	MaxTextureSize uint32

	// MaxBufferSize is the maximum buffer size in bytes.
	MaxBufferSize uint64

	// MaxSampledTextures is the number of sampled textures available to
	// a single shader stage.
	MaxSampledTextures uint32

	// InstancedDraw reports support for non-zero instance counts.
	InstancedDraw bool
}

// CapabilityError reports a device capability below the required minimum.
type CapabilityError struct {
	Capability string
	Reason     string
}

func (e *CapabilityError) Error() string {
	return "gpu: insufficient capability " + e.Capability + ": " + e.Reason
}

// minTextureSize is the smallest atlas texture the renderer creates.
const minTextureSize = 512

// Validate checks the capabilities against the renderer's requirements.
func (c *Capabilities) Validate() error {
	if !c.InstancedDraw {
		return &CapabilityError{Capability: "InstancedDraw", Reason: "instanced drawing is required"}
	}
	if c.MaxTextureSize < minTextureSize {
		return &CapabilityError{Capability: "MaxTextureSize", Reason: "must be at least 512"}
	}
	// Both atlases are sampled in the glyph pass.
	if c.MaxSampledTextures < 2 {
		return &CapabilityError{Capability: "MaxSampledTextures", Reason: "glyph pass samples two atlases"}
	}
	return nil
}
