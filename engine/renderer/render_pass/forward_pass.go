package render_pass

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
)

// ClearColor is the background the forward pass clears the scene color to.
var ClearColor = [4]float64{0.02, 0.02, 0.025, 1}

// frame bindings of group 0.
const (
	fwdCamera = iota
	fwdLights
	fwdPointLights
	fwdLightGrid
	fwdShadow
	fwdShadowMap0
	fwdShadowSampler = fwdShadowMap0 + light.MaxCascades
)

// materialSlot is a material uniform cached for one in-flight image.
type materialSlot struct {
	provider  bind_group_provider.BindGroupProvider
	version   uint64
	lastFrame uint64
}

// forwardPass shades every visible draw with the PBR model. It reads the light grid from the light
// culling pass and the cascades from the shadow pass, and tests against the pre-pass depth.
type forwardPass struct {
	basePass

	frame      []bind_group_provider.BindGroupProvider
	transforms []bind_group_provider.BindGroupProvider
	materials  []map[uint32]*materialSlot

	shadowSampler renderer.Sampler
	// noShadow is bound in place of cascades that were not rendered.
	noShadow renderer.Texture
}

var _ RenderPass = &forwardPass{}

// NewForwardPass creates the forward shading pass.
func NewForwardPass() RenderPass {
	return &forwardPass{basePass: newBasePass(PassKindForward)}
}

func (p *forwardPass) Prepare(fs *render_context.FrameState) {
	img := fs.ImageIndex
	deps := []Dependency{
		sceneColor(img, UsageRead),
		{Handle: LightGridHandle(img), Kind: ResourceBuffer, Usage: UsageRead},
	}
	if fs.ShadowPassActive() {
		for c := range cascadeCount(fs) {
			deps = append(deps, Dependency{Handle: ShadowMapHandle(img, c), Kind: ResourceTexture, Usage: UsageRead})
		}
	}
	p.inputs = NewDescription(deps...)
	p.outputs = NewDescription(sceneColor(img, UsageWrite))
}

func (p *forwardPass) ShouldCompile(fs *render_context.FrameState) bool {
	return p.needsCompile(fs)
}

func (p *forwardPass) Compile(fs *render_context.FrameState) error {
	if err := p.beginCompile(fs); err != nil {
		return err
	}
	s, err := p.loadShader(fs, "forward.wgsl")
	if err != nil {
		return err
	}
	if _, err := p.addPipeline(fs, pipeline.NewPipeline("forward",
		pipeline.WithShader(s),
		pipeline.WithVertexLayouts(pipeline.MeshVertexLayout),
		pipeline.WithColorFormats(resource_pool.DefaultColorFormat),
		pipeline.WithDepthFormat(resource_pool.DefaultDepthFormat),
		pipeline.WithDepthWriteEnabled(false),
		pipeline.WithDepthCompare(renderer.CompareLessEqual),
	)); err != nil {
		return err
	}

	backend := fs.Backend()
	if p.shadowSampler == nil {
		if p.shadowSampler, err = backend.CreateSampler(renderer.SamplerDesc{Label: "forward shadow sampler", Compare: true}); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	if p.noShadow == nil {
		if p.noShadow, err = backend.CreateTexture(renderer.TextureDesc{
			Label:  "forward empty shadow map",
			Width:  1,
			Height: 1,
			Format: renderer.TextureFormatDepth32Float,
			Usage:  renderer.TextureUsageRenderAttachment | renderer.TextureUsageSampled,
		}); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}

	n := fs.Ctx.FramesInFlight()
	p.frame = perImage(p.frame, "forward frame", n,
		bind_group_provider.WithGroup(0),
		bind_group_provider.WithSampler(fwdShadowSampler, p.shadowSampler))
	p.transforms = perImage(p.transforms, "forward transforms", n, bind_group_provider.WithGroup(1))
	if len(p.materials) != n {
		p.releaseMaterials()
		p.materials = make([]map[uint32]*materialSlot, n)
		for i := range p.materials {
			p.materials[i] = make(map[uint32]*materialSlot)
		}
	}
	p.endCompile(fs)
	return nil
}

// writeFrame uploads the frame-wide uniforms and binds the produced resources of earlier passes.
func (p *forwardPass) writeFrame(fs *render_context.FrameState, provider bind_group_provider.BindGroupProvider) error {
	img := fs.ImageIndex
	grid, ok := fs.Ctx.Pool.GetBuffer(LightGridHandle(img))
	if !ok {
		return fmt.Errorf("light grid %d missing", img)
	}
	provider.SetBuffer(fwdLightGrid, grid)

	shadows := fs.ShadowPassActive()
	for c := range light.MaxCascades {
		tex := p.noShadow
		if shadows && c < cascadeCount(fs) {
			if tex, ok = fs.Ctx.Pool.GetTexture(ShadowMapHandle(img, c)); !ok {
				return fmt.Errorf("shadow map %d cascade %d missing", img, c)
			}
		}
		provider.SetTexture(fwdShadowMap0+c, tex)
	}

	tx, ty := light.TileCounts(int(fs.Viewport.Width), int(fs.Viewport.Height))
	writes := []bind_group_provider.BufferWrite{
		{Provider: provider, Binding: fwdCamera, Data: fs.Camera.Marshal(fs.Viewport)},
		{Provider: provider, Binding: fwdLights, Data: light.MarshalLightData(fs.Lights.Directional, len(fs.Lights.PointLights), tx, ty)},
		{Provider: provider, Binding: fwdPointLights, Data: light.MarshalPointLights(fs.Lights.PointLights)},
		{Provider: provider, Binding: fwdShadow, Data: fs.Cascades.Marshal(shadows)},
	}
	for _, w := range writes {
		usage := renderer.BufferUsageUniform
		if w.Binding == fwdPointLights {
			usage = renderer.BufferUsageStorage
		}
		if _, err := provider.Reserve(fs.Backend(), w.Binding, uint64(len(w.Data)), usage); err != nil {
			return err
		}
	}
	return bind_group_provider.Flush(fs.Backend(), writes...)
}

// material returns the bind group of mat for the current image, uploading it when it changed.
func (p *forwardPass) material(fs *render_context.FrameState, mat material.Material, pl renderer.Pipeline) (renderer.BindGroup, error) {
	slots := p.materials[fs.ImageIndex]
	slot, ok := slots[mat.ID()]
	if !ok {
		slot = &materialSlot{
			provider: bind_group_provider.NewBindGroupProvider(
				fmt.Sprintf("forward material %s [%d]", mat.Name(), fs.ImageIndex),
				bind_group_provider.WithGroup(2)),
		}
		slots[mat.ID()] = slot
	}
	if !ok || slot.version != mat.Version() {
		if err := writeBinding(fs, slot.provider, 0, renderer.BufferUsageUniform, mat.Marshal()); err != nil {
			return nil, err
		}
		slot.version = mat.Version()
	}
	slot.lastFrame = fs.FrameNumber
	return slot.provider.Bind(fs.Backend(), pl)
}

// pruneMaterials drops material uniforms the current image has not drawn for longer than the
// eviction threshold.
func (p *forwardPass) pruneMaterials(fs *render_context.FrameState) {
	threshold := uint64(max(fs.Ctx.Config.EvictionThreshold, 1))
	slots := p.materials[fs.ImageIndex]
	for id, slot := range slots {
		if fs.FrameNumber-slot.lastFrame > threshold {
			slot.provider.Release()
			delete(slots, id)
			common.Logger().Debug("material uniform evicted", slog.String("component", "render_pass"), slog.Uint64("material", uint64(id)))
		}
	}
}

func (p *forwardPass) Execute(fs *render_context.FrameState, chain *SemaphoreChain) error {
	fb, err := defaultFramebuffer(fs)
	if err != nil {
		return p.abort(err)
	}
	pl := p.compiled[0]
	frame, transforms := p.frame[fs.ImageIndex], p.transforms[fs.ImageIndex]
	if err := p.writeFrame(fs, frame); err != nil {
		return p.abort(err)
	}
	if err := writeBinding(fs, transforms, 0, renderer.BufferUsageStorage, render_context.MarshalTransforms(fs.DrawCommands)); err != nil {
		return p.abort(err)
	}
	frameGroup, err := frame.Bind(fs.Backend(), pl)
	if err != nil {
		return p.abort(err)
	}
	transformGroup, err := transforms.Bind(fs.Backend(), pl)
	if err != nil {
		return p.abort(err)
	}

	batches := render_context.Batches(fs.DrawCommands)
	materialGroups := make([]renderer.BindGroup, len(batches))
	for i, batch := range batches {
		if materialGroups[i], err = p.material(fs, fs.DrawCommands[batch.Start].Material, pl); err != nil {
			return p.abort(err)
		}
	}
	p.pruneMaterials(fs)

	enc, err := p.begin(fs)
	if err != nil {
		return err
	}
	defer enc.Release()

	rp := enc.BeginRenderPass(renderer.RenderPassDesc{
		Label:      p.Name(),
		Color:      []renderer.Texture{fb.Color(0)},
		ColorLoad:  renderer.LoadOpClear,
		ClearColor: ClearColor,
		Depth:      fb.Depth(),
		DepthLoad:  renderer.LoadOpLoad,
	})
	rp.SetPipeline(pl)
	rp.SetBindGroup(0, frameGroup)
	rp.SetBindGroup(1, transformGroup)
	var bound renderer.BindGroup
	for i, batch := range batches {
		if materialGroups[i] != bound {
			rp.SetBindGroup(2, materialGroups[i])
			bound = materialGroups[i]
		}
		if err := drawMesh(rp, fs.DrawCommands, batch); err != nil {
			rp.End()
			return p.abort(err)
		}
	}
	rp.End()
	return p.submit(fs, chain, enc)
}

func (p *forwardPass) releaseMaterials() {
	for _, slots := range p.materials {
		for _, slot := range slots {
			slot.provider.Release()
		}
	}
	p.materials = nil
}

func (p *forwardPass) Destroy(ctx *render_context.RenderContext) {
	bind_group_provider.ReleaseAll(p.frame)
	bind_group_provider.ReleaseAll(p.transforms)
	p.frame, p.transforms = nil, nil
	p.releaseMaterials()
	if p.shadowSampler != nil {
		p.shadowSampler.Release()
		p.shadowSampler = nil
	}
	if p.noShadow != nil {
		p.noShadow.Release()
		p.noShadow = nil
	}
	p.destroyBase(ctx)
}
