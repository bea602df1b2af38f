package render_pass

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
)

// ErrNoSkybox is returned when the skybox pass runs without a bound cubemap.
var ErrNoSkybox = errors.New("render_pass: no skybox bound")

// skyboxPass fills every pixel left at the far plane with the scene's cubemap.
type skyboxPass struct {
	basePass

	sampler renderer.Sampler
	frame   []bind_group_provider.BindGroupProvider
}

var _ RenderPass = &skyboxPass{}

// NewSkyboxPass creates the skybox pass.
func NewSkyboxPass() RenderPass {
	return &skyboxPass{basePass: newBasePass(PassKindSkybox)}
}

func (p *skyboxPass) Prepare(fs *render_context.FrameState) {
	deps := []Dependency{sceneColor(fs.ImageIndex, UsageRead)}
	if h, ok := fs.Lights.Skybox(); ok {
		deps = append(deps, Dependency{Handle: h, Kind: ResourceCubemap, Usage: UsageRead})
	}
	p.inputs = NewDescription(deps...)
	p.outputs = NewDescription(sceneColor(fs.ImageIndex, UsageWrite))
}

func (p *skyboxPass) ShouldCompile(fs *render_context.FrameState) bool {
	return p.needsCompile(fs)
}

func (p *skyboxPass) Compile(fs *render_context.FrameState) error {
	if err := p.beginCompile(fs); err != nil {
		return err
	}
	s, err := p.loadShader(fs, "skybox.wgsl")
	if err != nil {
		return err
	}
	if _, err := p.addPipeline(fs, pipeline.NewPipeline("skybox",
		pipeline.WithShader(s),
		pipeline.WithColorFormats(resource_pool.DefaultColorFormat),
		pipeline.WithDepthFormat(resource_pool.DefaultDepthFormat),
		pipeline.WithDepthWriteEnabled(false),
		pipeline.WithDepthCompare(renderer.CompareLessEqual),
		pipeline.WithCullMode(renderer.CullModeNone),
	)); err != nil {
		return err
	}
	if p.sampler == nil {
		if p.sampler, err = fs.Backend().CreateSampler(renderer.SamplerDesc{Label: "skybox sampler"}); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	p.frame = perImage(p.frame, "skybox", fs.Ctx.FramesInFlight(),
		bind_group_provider.WithGroup(0),
		bind_group_provider.WithSampler(2, p.sampler))
	p.endCompile(fs)
	return nil
}

func (p *skyboxPass) Execute(fs *render_context.FrameState, chain *SemaphoreChain) error {
	h, ok := fs.Lights.Skybox()
	if !ok {
		return p.abort(ErrNoSkybox)
	}
	cubemap, ok := fs.Ctx.Pool.GetCubemap(h)
	if !ok {
		return p.abort(fmt.Errorf("%w: cubemap %s not in pool", ErrNoSkybox, h))
	}
	fb, err := defaultFramebuffer(fs)
	if err != nil {
		return p.abort(err)
	}

	pl := p.compiled[0]
	provider := p.frame[fs.ImageIndex]
	provider.SetTexture(1, cubemap)
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
	rp.Draw(3, 1, 0, 0)
	rp.End()
	return p.submit(fs, chain, enc)
}

func (p *skyboxPass) Destroy(ctx *render_context.RenderContext) {
	bind_group_provider.ReleaseAll(p.frame)
	p.frame = nil
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
	p.destroyBase(ctx)
}
