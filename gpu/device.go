package gpu

// Device is the renderer's view of the GPU. The production implementation
// wraps the gogpu/wgpu HAL; tests substitute fakes.
//
// All methods must be called from the render thread. Device
// implementations do not need to be safe for concurrent use.
type Device interface {
	// Capabilities returns the device limits. Callers validate them once
	// at initialization.
	Capabilities() Capabilities

	// CreateShaderModule compiles WGSL source into a shader module.
	CreateShaderModule(wgsl, label string) (ShaderModuleID, error)
	DestroyShaderModule(id ShaderModuleID)

	CreateBuffer(size int, usage BufferUsage, label string) (BufferID, error)
	// WriteBuffer copies data into the buffer at the byte offset.
	WriteBuffer(id BufferID, offset uint64, data []byte)
	DestroyBuffer(id BufferID)

	CreateTexture(width, height int, format TextureFormat, label string) (TextureID, error)
	// WriteTextureRegion uploads a tightly packed pixel rectangle.
	// len(data) must be w*h*format.BytesPerPixel().
	WriteTextureRegion(id TextureID, x, y, w, h int, data []byte)
	DestroyTexture(id TextureID)

	CreateSampler(filter FilterMode) (SamplerID, error)
	DestroySampler(id SamplerID)

	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)
	DestroyBindGroupLayout(id BindGroupLayoutID)
	CreateBindGroup(layout BindGroupLayoutID, entries []BindGroupEntry, label string) (BindGroupID, error)
	DestroyBindGroup(id BindGroupID)

	CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error)
	DestroyRenderPipeline(id RenderPipelineID)

	// BeginFrame opens command recording for one frame.
	BeginFrame() error

	// BeginRenderPass starts a pass targeting the current surface. The
	// returned encoder must be ended before the next pass begins.
	BeginRenderPass(desc *RenderPassDesc) (RenderPassEncoder, error)

	// EndFrame submits the recorded passes and waits for completion so
	// the host can present the surface.
	EndFrame() error

	// Destroy releases every live resource. The device is unusable
	// afterwards.
	Destroy()
}

// RenderPassEncoder records draw commands within one render pass.
// Single-use: after End the encoder must not be touched again.
type RenderPassEncoder interface {
	SetPipeline(id RenderPipelineID)
	SetBindGroup(index uint32, group BindGroupID)
	SetVertexBuffer(slot uint32, buffer BufferID)

	// Draw issues a non-indexed, possibly instanced draw.
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)

	End()
}
