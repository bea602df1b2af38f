package render_pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
)

// shadowPass renders the shadow casters into one depth map per cascade of the directional light.
type shadowPass struct {
	basePass

	cascades   int
	resolution uint32

	// cascade holds one provider per image and cascade, indexed image*MaxCascades+cascade.
	cascade    []bind_group_provider.BindGroupProvider
	transforms []bind_group_provider.BindGroupProvider
}

var _ RenderPass = &shadowPass{}

// NewShadowPass creates the cascaded shadow map pass.
func NewShadowPass() RenderPass {
	return &shadowPass{basePass: newBasePass(PassKindShadow)}
}

func cascadeCount(fs *render_context.FrameState) int {
	return common.Clamp(fs.Cascades.Count, 1, light.MaxCascades)
}

func shadowResolution(fs *render_context.FrameState) uint32 {
	return max(fs.Ctx.Config.ShadowMapResolution, 1)
}

func (p *shadowPass) Prepare(fs *render_context.FrameState) {
	n := cascadeCount(fs)
	deps := make([]Dependency, 0, n)
	for c := range n {
		deps = append(deps, Dependency{Handle: ShadowMapHandle(fs.ImageIndex, c), Kind: ResourceTexture, Usage: UsageWrite})
	}
	p.inputs = NewDescription()
	p.outputs = NewDescription(deps...)
}

func (p *shadowPass) ShouldCompile(fs *render_context.FrameState) bool {
	return p.needsCompile(fs) ||
		p.cascades != cascadeCount(fs) ||
		p.resolution != shadowResolution(fs)
}

func (p *shadowPass) Compile(fs *render_context.FrameState) error {
	if err := p.beginCompile(fs); err != nil {
		return err
	}
	vs, err := p.loadShader(fs, "shadow.wgsl")
	if err != nil {
		return err
	}
	if _, err := p.addPipeline(fs, pipeline.NewPipeline("shadow",
		pipeline.WithVertexShader(vs),
		pipeline.WithVertexLayouts(pipeline.MeshVertexLayout),
		pipeline.WithDepthFormat(renderer.TextureFormatDepth32Float),
		pipeline.WithDepthCompare(renderer.CompareLess),
		pipeline.WithDepthBias(light.ShadowRasterBias, light.ShadowRasterSlopeScale),
		pipeline.WithCullMode(renderer.CullModeNone),
	)); err != nil {
		return err
	}

	n := fs.Ctx.FramesInFlight()
	cascades := cascadeCount(fs)
	res := shadowResolution(fs)
	for i := range n {
		for c := range cascades {
			h := ShadowMapHandle(i, c)
			if tex, ok := fs.Ctx.Pool.GetTexture(h); ok && tex.Extent().Width == res {
				continue
			}
			tex, err := fs.Backend().CreateTexture(renderer.TextureDesc{
				Label:  fmt.Sprintf("shadow map [%d] cascade %d", i, c),
				Width:  res,
				Height: res,
				Format: renderer.TextureFormatDepth32Float,
				Usage:  renderer.TextureUsageRenderAttachment | renderer.TextureUsageSampled,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
			p.publishTexture(fs.Ctx, h, tex)
		}
		for c := cascades; c < light.MaxCascades; c++ {
			p.retireTexture(fs.Ctx, ShadowMapHandle(i, c))
		}
	}
	p.cascades = cascades
	p.resolution = res

	if len(p.cascade) != n*light.MaxCascades {
		bind_group_provider.ReleaseAll(p.cascade)
		p.cascade = make([]bind_group_provider.BindGroupProvider, n*light.MaxCascades)
		for i := range p.cascade {
			p.cascade[i] = bind_group_provider.NewBindGroupProvider(
				fmt.Sprintf("shadow cascade [%d] %d", i/light.MaxCascades, i%light.MaxCascades),
				bind_group_provider.WithGroup(0))
		}
	}
	p.transforms = perImage(p.transforms, "shadow transforms", n, bind_group_provider.WithGroup(1))
	p.endCompile(fs)
	return nil
}

func (p *shadowPass) Execute(fs *render_context.FrameState, chain *SemaphoreChain) error {
	pl := p.compiled[0]
	img := fs.ImageIndex

	transforms := p.transforms[img]
	if err := writeBinding(fs, transforms, 0, renderer.BufferUsageStorage, render_context.MarshalTransforms(fs.ShadowCommands)); err != nil {
		return p.abort(err)
	}
	transformGroup, err := transforms.Bind(fs.Backend(), pl)
	if err != nil {
		return p.abort(err)
	}

	targets := make([]renderer.Texture, p.cascades)
	groups := make([]renderer.BindGroup, p.cascades)
	for c := range p.cascades {
		tex, ok := fs.Ctx.Pool.GetTexture(ShadowMapHandle(img, c))
		if !ok {
			return p.abort(fmt.Errorf("shadow map %d cascade %d missing", img, c))
		}
		targets[c] = tex
		provider := p.cascade[img*light.MaxCascades+c]
		if err := writeBinding(fs, provider, 0, renderer.BufferUsageUniform, common.AppendMat4(nil, fs.Cascades.Matrices[c])); err != nil {
			return p.abort(err)
		}
		if groups[c], err = provider.Bind(fs.Backend(), pl); err != nil {
			return p.abort(err)
		}
	}

	enc, err := p.begin(fs)
	if err != nil {
		return err
	}
	defer enc.Release()

	batches := render_context.MeshBatches(fs.ShadowCommands)
	for c := range p.cascades {
		rp := enc.BeginRenderPass(renderer.RenderPassDesc{
			Label:      fmt.Sprintf("%s cascade %d", p.Name(), c),
			Depth:      targets[c],
			DepthLoad:  renderer.LoadOpClear,
			ClearDepth: 1,
		})
		rp.SetPipeline(pl)
		rp.SetBindGroup(0, groups[c])
		rp.SetBindGroup(1, transformGroup)
		for _, batch := range batches {
			if err := drawMesh(rp, fs.ShadowCommands, batch); err != nil {
				rp.End()
				return p.abort(err)
			}
		}
		rp.End()
	}
	return p.submit(fs, chain, enc)
}

func (p *shadowPass) Destroy(ctx *render_context.RenderContext) {
	bind_group_provider.ReleaseAll(p.cascade)
	bind_group_provider.ReleaseAll(p.transforms)
	p.cascade, p.transforms = nil, nil
	p.cascades, p.resolution = 0, 0
	p.destroyBase(ctx)
}
