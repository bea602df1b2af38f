// Package render_pass holds the render passes the frame graph schedules. Every pass declares the
// pooled resources it reads and writes, compiles its pipelines and per-image resources lazily, and
// records one command buffer per frame submitted through the frame's semaphore chain.
package render_pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/shader"
)

// RenderPass is one schedulable unit of GPU work.
//
// Lifecycle per frame, driven by the frame graph:
//  1. Prepare records the frame's inputs and outputs for the current image
//  2. ShouldCompile decides whether Compile must run before Execute
//  3. Execute records and submits one command buffer
//
// Destroy releases everything the pass owns and is called on eviction and shutdown.
type RenderPass interface {
	// Kind returns the pass kind.
	Kind() PassKind

	// Name returns the pass name, used for command buffer and resource labels.
	Name() string

	// State returns the lifecycle state.
	State() PassState

	// Prepare resolves the pass's dependencies for fs.ImageIndex.
	//
	// Parameters:
	//   - fs: the frame state
	Prepare(fs *render_context.FrameState)

	// Inputs returns the resources the pass reads this frame.
	Inputs() Description

	// Outputs returns the resources the pass writes this frame.
	Outputs() Description

	// ShouldCompile reports whether Compile must run before the next Execute: the pass has never
	// compiled or was evicted, the viewport changed, a shader was reloaded, or a pass-specific
	// variant changed.
	//
	// Parameters:
	//   - fs: the frame state
	//
	// Returns:
	//   - bool: true if the pass must compile
	ShouldCompile(fs *render_context.FrameState) bool

	// Compile (re)builds pipelines and size-dependent resources and publishes produced resources
	// to the pool.
	//
	// Parameters:
	//   - fs: the frame state
	//
	// Returns:
	//   - error: a shader, pipeline or resource creation error
	Compile(fs *render_context.FrameState) error

	// Execute records the pass and submits it through chain.
	//
	// Parameters:
	//   - fs: the frame state
	//   - chain: the frame's semaphore chain
	//
	// Returns:
	//   - error: a missing input, upload, encoding or submission error
	Execute(fs *render_context.FrameState, chain *SemaphoreChain) error

	// Destroy releases every owned GPU object and removes the pass's resources from the pool.
	//
	// Parameters:
	//   - ctx: the render context the pass was compiled against
	Destroy(ctx *render_context.RenderContext)
}

// basePass carries the state shared by every pass.
type basePass struct {
	kind   PassKind
	state  PassState
	extent common.Extent

	// pipelines and compiled are index-aligned.
	pipelines []pipeline.Pipeline
	compiled  []renderer.Pipeline

	// signals holds one semaphore per in-flight image, signalled by the pass's submission.
	signals []renderer.Semaphore

	inputs  Description
	outputs Description

	pooledBuffers  []resource_pool.Handle
	pooledTextures []resource_pool.Handle
}

func newBasePass(kind PassKind) basePass {
	return basePass{kind: kind}
}

func (b *basePass) Kind() PassKind {
	return b.kind
}

func (b *basePass) Name() string {
	return b.kind.String()
}

func (b *basePass) State() PassState {
	return b.state
}

func (b *basePass) Inputs() Description {
	return b.inputs
}

func (b *basePass) Outputs() Description {
	return b.outputs
}

// needsCompile is the check every pass shares.
func (b *basePass) needsCompile(fs *render_context.FrameState) bool {
	if b.state == PassStateUncompiled || b.state == PassStateEvicted {
		return true
	}
	if b.extent != fs.Viewport || len(b.signals) != fs.Ctx.FramesInFlight() {
		return true
	}
	for _, p := range b.pipelines {
		if p.Stale(fs.Ctx.Shaders) {
			return true
		}
	}
	return false
}

func (b *basePass) loadShader(fs *render_context.FrameState, name string) (shader.Shader, error) {
	s, err := fs.Ctx.Shaders.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return s, nil
}

// beginCompile drops pipelines and signals from an earlier compile and creates fresh signals.
func (b *basePass) beginCompile(fs *render_context.FrameState) error {
	b.state = PassStateUncompiled
	b.releasePipelines()
	b.releaseSignals()

	backend := fs.Backend()
	n := fs.Ctx.FramesInFlight()
	b.signals = make([]renderer.Semaphore, 0, n)
	for i := range n {
		s, err := backend.CreateSemaphore(fmt.Sprintf("%s signal [%d]", b.Name(), i))
		if err != nil {
			b.releaseSignals()
			return fmt.Errorf("%s: %w", b.Name(), err)
		}
		b.signals = append(b.signals, s)
	}
	return nil
}

// addPipeline creates p on the backend and returns its index into compiled.
func (b *basePass) addPipeline(fs *render_context.FrameState, p pipeline.Pipeline) (int, error) {
	compiled, err := p.Create(fs.Backend())
	if err != nil {
		return 0, err
	}
	b.pipelines = append(b.pipelines, p)
	b.compiled = append(b.compiled, compiled)
	return len(b.compiled) - 1, nil
}

func (b *basePass) endCompile(fs *render_context.FrameState) {
	b.extent = fs.Viewport
	b.state = PassStateCompiled
}

// publishBuffer puts buf into the pool under h and remembers h for Destroy.
func (b *basePass) publishBuffer(ctx *render_context.RenderContext, h resource_pool.Handle, buf renderer.Buffer) {
	ctx.Pool.PutBuffer(h, buf)
	b.pooledBuffers = appendHandle(b.pooledBuffers, h)
}

// publishTexture puts tex into the pool under h and remembers h for Destroy.
func (b *basePass) publishTexture(ctx *render_context.RenderContext, h resource_pool.Handle, tex renderer.Texture) {
	ctx.Pool.PutTexture(h, tex)
	b.pooledTextures = appendHandle(b.pooledTextures, h)
}

// retireTexture removes a texture published under h from the pool and forgets h.
func (b *basePass) retireTexture(ctx *render_context.RenderContext, h resource_pool.Handle) {
	for i, existing := range b.pooledTextures {
		if existing == h {
			ctx.Pool.RemoveTexture(h)
			b.pooledTextures = append(b.pooledTextures[:i], b.pooledTextures[i+1:]...)
			return
		}
	}
}

func appendHandle(hs []resource_pool.Handle, h resource_pool.Handle) []resource_pool.Handle {
	for _, existing := range hs {
		if existing == h {
			return hs
		}
	}
	return append(hs, h)
}

func (b *basePass) begin(fs *render_context.FrameState) (renderer.CommandEncoder, error) {
	enc, err := fs.Backend().CreateCommandEncoder(b.Name())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	b.state = PassStateExecuting
	return enc, nil
}

// submit finishes enc and submits it through chain, signalling the pass's semaphore for the image.
func (b *basePass) submit(fs *render_context.FrameState, chain *SemaphoreChain, enc renderer.CommandEncoder) error {
	defer func() { b.state = PassStateCompiled }()
	cb, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("%s: %w", b.Name(), err)
	}
	if err := chain.Submit(fs.Backend(), b.signals[fs.ImageIndex], cb); err != nil {
		return fmt.Errorf("%s: submit: %w", b.Name(), err)
	}
	return nil
}

// abort ends a failed recording.
func (b *basePass) abort(err error) error {
	b.state = PassStateCompiled
	return fmt.Errorf("%s: %w", b.Name(), err)
}

func (b *basePass) releasePipelines() {
	for _, p := range b.compiled {
		p.Release()
	}
	b.compiled = nil
	b.pipelines = nil
}

func (b *basePass) releaseSignals() {
	for _, s := range b.signals {
		s.Release()
	}
	b.signals = nil
}

// destroyBase releases pipelines and signals and removes published resources from the pool.
func (b *basePass) destroyBase(ctx *render_context.RenderContext) {
	b.releasePipelines()
	b.releaseSignals()
	for _, h := range b.pooledBuffers {
		ctx.Pool.RemoveBuffer(h)
	}
	for _, h := range b.pooledTextures {
		ctx.Pool.RemoveTexture(h)
	}
	b.pooledBuffers = nil
	b.pooledTextures = nil
	b.extent = common.Extent{}
	b.state = PassStateEvicted
}

// writeBinding reserves and writes a whole binding in one step.
func writeBinding(fs *render_context.FrameState, p bind_group_provider.BindGroupProvider, binding int, usage renderer.BufferUsage, data []byte) error {
	if _, err := p.Reserve(fs.Backend(), binding, uint64(len(data)), usage); err != nil {
		return err
	}
	return p.Write(fs.Backend(), binding, 0, data)
}

// defaultFramebuffer resolves the scene target for the current image.
func defaultFramebuffer(fs *render_context.FrameState) (renderer.Framebuffer, error) {
	fb, ok := fs.Ctx.Pool.GetFramebuffer(SceneColorHandle(fs.ImageIndex))
	if !ok || fb == nil {
		return nil, fmt.Errorf("default framebuffer %d not compiled", fs.ImageIndex)
	}
	return fb, nil
}

// drawMesh binds mesh's buffers and draws batch as instances starting at the batch's first command.
func drawMesh(rp renderer.RenderPassEncoder, cmds []render_context.DrawCommand, batch render_context.Batch) error {
	mesh := cmds[batch.Start].Mesh
	if !mesh.Uploaded() {
		return fmt.Errorf("mesh %s not uploaded", mesh.Name())
	}
	rp.SetVertexBuffer(0, mesh.VertexBuffer())
	rp.SetIndexBuffer(mesh.IndexBuffer())
	rp.DrawIndexed(mesh.IndexCount(), uint32(batch.Count), 0, 0, uint32(batch.Start))
	return nil
}

// perImage returns ps when it already holds n providers, otherwise releases it and creates n new ones.
func perImage(ps []bind_group_provider.BindGroupProvider, label string, n int, opts ...bind_group_provider.BindGroupProviderOption) []bind_group_provider.BindGroupProvider {
	if len(ps) == n {
		return ps
	}
	bind_group_provider.ReleaseAll(ps)
	return bind_group_provider.NewPerImage(label, n, opts...)
}
