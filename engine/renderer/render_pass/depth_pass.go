package render_pass

import (
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
)

// depthPass writes the depth of every visible draw into the default framebuffer's depth attachment,
// so the forward pass shades each pixel once.
type depthPass struct {
	basePass

	camera     []bind_group_provider.BindGroupProvider
	transforms []bind_group_provider.BindGroupProvider
}

var _ RenderPass = &depthPass{}

// NewDepthPass creates the depth pre-pass.
func NewDepthPass() RenderPass {
	return &depthPass{basePass: newBasePass(PassKindDepth)}
}

func (p *depthPass) Prepare(fs *render_context.FrameState) {
	p.inputs = NewDescription()
	p.outputs = NewDescription(sceneColor(fs.ImageIndex, UsageWrite))
}

func (p *depthPass) ShouldCompile(fs *render_context.FrameState) bool {
	return p.needsCompile(fs)
}

func (p *depthPass) Compile(fs *render_context.FrameState) error {
	if err := p.beginCompile(fs); err != nil {
		return err
	}
	vs, err := p.loadShader(fs, "depth.wgsl")
	if err != nil {
		return err
	}
	if _, err := p.addPipeline(fs, pipeline.NewPipeline("depth",
		pipeline.WithVertexShader(vs),
		pipeline.WithVertexLayouts(pipeline.MeshVertexLayout),
		pipeline.WithDepthFormat(resource_pool.DefaultDepthFormat),
		pipeline.WithDepthCompare(renderer.CompareLess),
	)); err != nil {
		return err
	}

	n := fs.Ctx.FramesInFlight()
	p.camera = perImage(p.camera, "depth camera", n, bind_group_provider.WithGroup(0))
	p.transforms = perImage(p.transforms, "depth transforms", n, bind_group_provider.WithGroup(1))
	p.endCompile(fs)
	return nil
}

func (p *depthPass) Execute(fs *render_context.FrameState, chain *SemaphoreChain) error {
	fb, err := defaultFramebuffer(fs)
	if err != nil {
		return p.abort(err)
	}
	pl := p.compiled[0]
	camera, transforms := p.camera[fs.ImageIndex], p.transforms[fs.ImageIndex]
	if err := writeBinding(fs, camera, 0, renderer.BufferUsageUniform, fs.Camera.Marshal(fs.Viewport)); err != nil {
		return p.abort(err)
	}
	if err := writeBinding(fs, transforms, 0, renderer.BufferUsageStorage, render_context.MarshalTransforms(fs.DrawCommands)); err != nil {
		return p.abort(err)
	}
	cameraGroup, err := camera.Bind(fs.Backend(), pl)
	if err != nil {
		return p.abort(err)
	}
	transformGroup, err := transforms.Bind(fs.Backend(), pl)
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
		Depth:      fb.Depth(),
		DepthLoad:  renderer.LoadOpClear,
		ClearDepth: 1,
	})
	rp.SetPipeline(pl)
	rp.SetBindGroup(0, cameraGroup)
	rp.SetBindGroup(1, transformGroup)
	for _, batch := range render_context.MeshBatches(fs.DrawCommands) {
		if err := drawMesh(rp, fs.DrawCommands, batch); err != nil {
			rp.End()
			return p.abort(err)
		}
	}
	rp.End()
	return p.submit(fs, chain, enc)
}

func (p *depthPass) Destroy(ctx *render_context.RenderContext) {
	bind_group_provider.ReleaseAll(p.camera)
	bind_group_provider.ReleaseAll(p.transforms)
	p.camera, p.transforms = nil, nil
	p.destroyBase(ctx)
}
