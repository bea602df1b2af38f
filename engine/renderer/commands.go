package renderer

// LoadOp selects what happens to an attachment at the start of a render pass.
type LoadOp int

const (
	LoadOpClear LoadOp = iota
	LoadOpLoad
)

// RenderPassDesc describes the attachments of one encoded render pass.
type RenderPassDesc struct {
	Label string
	// Color targets. Ignored when Surface is set.
	Color []Texture
	// Surface renders into the swapchain image acquired for this frame.
	Surface bool
	// Depth is optional.
	Depth      Texture
	ColorLoad  LoadOp
	ClearColor [4]float64
	DepthLoad  LoadOp
	ClearDepth float32
}

// RenderPassEncoder records draw commands into a render pass.
type RenderPassEncoder interface {
	SetPipeline(p Pipeline)
	SetBindGroup(group uint32, bg BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End()
}

// ComputePassEncoder records dispatches into a compute pass.
type ComputePassEncoder interface {
	SetPipeline(p Pipeline)
	SetBindGroup(group uint32, bg BindGroup)
	Dispatch(x, y, z uint32)
	End()
}

// CommandEncoder records passes into a single command buffer.
type CommandEncoder interface {
	BeginRenderPass(desc RenderPassDesc) RenderPassEncoder
	BeginComputePass(label string) ComputePassEncoder
	// Finish closes the encoder. The encoder must not be used afterwards.
	Finish() (CommandBuffer, error)
	Release()
}

// CommandBuffer is a finished, submittable recording.
type CommandBuffer interface {
	Label() string
}

// SubmitInfo is one queue submission. Wait semaphores must have been signalled by an earlier
// submission or image acquisition. Fence, when set, completes with the submission.
type SubmitInfo struct {
	CommandBuffers []CommandBuffer
	Wait           []Semaphore
	Signal         []Semaphore
	Fence          Fence
}
