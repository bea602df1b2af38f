package render_pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
)

// finalPass copies the scene color onto the acquired swapchain image.
type finalPass struct {
	basePass

	sampler renderer.Sampler
	frame   []bind_group_provider.BindGroupProvider
}

var _ RenderPass = &finalPass{}

// NewFinalPass creates the final composition pass.
func NewFinalPass() RenderPass {
	return &finalPass{basePass: newBasePass(PassKindFinal)}
}

func (p *finalPass) Prepare(fs *render_context.FrameState) {
	p.inputs = NewDescription(sceneColor(fs.ImageIndex, UsageRead))
	p.outputs = NewDescription(Dependency{Kind: ResourceSurface, Usage: UsageWrite})
}

func (p *finalPass) ShouldCompile(fs *render_context.FrameState) bool {
	return p.needsCompile(fs)
}

func (p *finalPass) Compile(fs *render_context.FrameState) error {
	if err := p.beginCompile(fs); err != nil {
		return err
	}
	s, err := p.loadShader(fs, "final.wgsl")
	if err != nil {
		return err
	}
	if _, err := p.addPipeline(fs, pipeline.NewPipeline("final",
		pipeline.WithShader(s),
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithCullMode(renderer.CullModeNone),
		pipeline.WithColorFormats(renderer.TextureFormatSurface),
	)); err != nil {
		return err
	}
	if p.sampler == nil {
		if p.sampler, err = fs.Backend().CreateSampler(renderer.SamplerDesc{Label: "final sampler"}); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	p.frame = perImage(p.frame, "final", fs.Ctx.FramesInFlight(),
		bind_group_provider.WithGroup(0),
		bind_group_provider.WithSampler(1, p.sampler))
	p.endCompile(fs)
	return nil
}

func (p *finalPass) Execute(fs *render_context.FrameState, chain *SemaphoreChain) error {
	fb, err := defaultFramebuffer(fs)
	if err != nil {
		return p.abort(err)
	}
	pl := p.compiled[0]
	provider := p.frame[fs.ImageIndex]
	provider.SetTexture(0, fb.Color(0))
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
		Label:      p.Name(),
		Surface:    true,
		ColorLoad:  renderer.LoadOpClear,
		ClearColor: [4]float64{0, 0, 0, 1},
	})
	rp.SetPipeline(pl)
	rp.SetBindGroup(0, group)
	rp.Draw(3, 1, 0, 0)
	rp.End()
	return p.submit(fs, chain, enc)
}

func (p *finalPass) Destroy(ctx *render_context.RenderContext) {
	bind_group_provider.ReleaseAll(p.frame)
	p.frame = nil
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
	p.destroyBase(ctx)
}
