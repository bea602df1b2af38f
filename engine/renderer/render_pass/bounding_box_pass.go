package render_pass

import (
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
)

// boxVertices is the line list vertex count of one box: 12 edges.
const boxVertices = 24

// boundingBoxPass outlines the world bounds of every visible draw.
type boundingBoxPass struct {
	basePass

	frame []bind_group_provider.BindGroupProvider
}

var _ RenderPass = &boundingBoxPass{}

// NewBoundingBoxPass creates the debug bounding volume pass.
func NewBoundingBoxPass() RenderPass {
	return &boundingBoxPass{basePass: newBasePass(PassKindBoundingBox)}
}

func (p *boundingBoxPass) Prepare(fs *render_context.FrameState) {
	p.inputs = NewDescription(sceneColor(fs.ImageIndex, UsageRead))
	p.outputs = NewDescription(sceneColor(fs.ImageIndex, UsageWrite))
}

func (p *boundingBoxPass) ShouldCompile(fs *render_context.FrameState) bool {
	return p.needsCompile(fs)
}

func (p *boundingBoxPass) Compile(fs *render_context.FrameState) error {
	if err := p.beginCompile(fs); err != nil {
		return err
	}
	s, err := p.loadShader(fs, "bbox.wgsl")
	if err != nil {
		return err
	}
	if _, err := p.addPipeline(fs, pipeline.NewPipeline("bounding_box",
		pipeline.WithShader(s),
		pipeline.WithTopology(renderer.TopologyLineList),
		pipeline.WithCullMode(renderer.CullModeNone),
		pipeline.WithColorFormats(resource_pool.DefaultColorFormat),
		pipeline.WithDepthFormat(resource_pool.DefaultDepthFormat),
		pipeline.WithDepthWriteEnabled(false),
	)); err != nil {
		return err
	}
	p.frame = perImage(p.frame, "bounding boxes", fs.Ctx.FramesInFlight(), bind_group_provider.WithGroup(0))
	p.endCompile(fs)
	return nil
}

func (p *boundingBoxPass) Execute(fs *render_context.FrameState, chain *SemaphoreChain) error {
	fb, err := defaultFramebuffer(fs)
	if err != nil {
		return p.abort(err)
	}
	pl := p.compiled[0]
	provider := p.frame[fs.ImageIndex]
	if err := writeBinding(fs, provider, 0, renderer.BufferUsageUniform, fs.Camera.Marshal(fs.Viewport)); err != nil {
		return p.abort(err)
	}
	if err := writeBinding(fs, provider, 1, renderer.BufferUsageStorage, render_context.MarshalBounds(fs.DrawCommands)); err != nil {
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
	if n := len(fs.DrawCommands); n > 0 {
		rp.SetPipeline(pl)
		rp.SetBindGroup(0, group)
		rp.Draw(boxVertices, uint32(n), 0, 0)
	}
	rp.End()
	return p.submit(fs, chain, enc)
}

func (p *boundingBoxPass) Destroy(ctx *render_context.RenderContext) {
	bind_group_provider.ReleaseAll(p.frame)
	p.frame = nil
	p.destroyBase(ctx)
}
