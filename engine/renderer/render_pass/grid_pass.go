package render_pass

import (
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
)

// gridPass blends the editor ground grid over the scene.
type gridPass struct {
	basePass

	camera []bind_group_provider.BindGroupProvider
}

var _ RenderPass = &gridPass{}

// NewGridPass creates the editor grid pass.
func NewGridPass() RenderPass {
	return &gridPass{basePass: newBasePass(PassKindGrid)}
}

func (p *gridPass) Prepare(fs *render_context.FrameState) {
	p.inputs = NewDescription(sceneColor(fs.ImageIndex, UsageRead))
	p.outputs = NewDescription(sceneColor(fs.ImageIndex, UsageWrite))
}

func (p *gridPass) ShouldCompile(fs *render_context.FrameState) bool {
	return p.needsCompile(fs)
}

func (p *gridPass) Compile(fs *render_context.FrameState) error {
	if err := p.beginCompile(fs); err != nil {
		return err
	}
	s, err := p.loadShader(fs, "grid.wgsl")
	if err != nil {
		return err
	}
	if _, err := p.addPipeline(fs, pipeline.NewPipeline("grid",
		pipeline.WithShader(s),
		pipeline.WithBlendEnabled(true),
		pipeline.WithCullMode(renderer.CullModeNone),
		pipeline.WithColorFormats(resource_pool.DefaultColorFormat),
		pipeline.WithDepthFormat(resource_pool.DefaultDepthFormat),
		pipeline.WithDepthWriteEnabled(false),
	)); err != nil {
		return err
	}
	p.camera = perImage(p.camera, "grid camera", fs.Ctx.FramesInFlight(), bind_group_provider.WithGroup(0))
	p.endCompile(fs)
	return nil
}

func (p *gridPass) Execute(fs *render_context.FrameState, chain *SemaphoreChain) error {
	fb, err := defaultFramebuffer(fs)
	if err != nil {
		return p.abort(err)
	}
	pl := p.compiled[0]
	provider := p.camera[fs.ImageIndex]
	if err := writeBinding(fs, provider, 0, renderer.BufferUsageUniform, fs.Camera.Marshal(fs.Viewport)); err != nil {
		return p.abort(err)
	}
	group, err := provider.Bind(fs.Backend(), pl)
	if err != nil {
		return p.abort(err)
	}

	enc, err := p.begin(fs)
	if err != nil {
		return err
	}
	defer enc.Release()

	rp := enc.BeginRenderPass(renderer.RenderPassDesc{
		Label:     p.Name(),
		Color:     []renderer.Texture{fb.Color(0)},
		ColorLoad: renderer.LoadOpLoad,
		Depth:     fb.Depth(),
		DepthLoad: renderer.LoadOpLoad,
	})
	rp.SetPipeline(pl)
	rp.SetBindGroup(0, group)
	rp.Draw(6, 1, 0, 0)
	rp.End()
	return p.submit(fs, chain, enc)
}

func (p *gridPass) Destroy(ctx *render_context.RenderContext) {
	bind_group_provider.ReleaseAll(p.camera)
	p.camera = nil
	p.destroyBase(ctx)
}
