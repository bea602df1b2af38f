package render_pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
)

// lightCullPass assigns point lights to 16x16 pixel screen tiles on a compute queue. The resulting
// light grid is published to the pool for the forward pass.
type lightCullPass struct {
	basePass

	// tiles is the light grid size the grid buffers were created for.
	tilesX, tilesY uint32
	workgroup      [3]uint32

	// lights holds camera (0), light data (1) and point lights (2) per image. The grid (3) is borrowed
	// from the pool.
	lights []bind_group_provider.BindGroupProvider
}

var _ RenderPass = &lightCullPass{}

// NewLightCullPass creates the light culling pass.
func NewLightCullPass() RenderPass {
	return &lightCullPass{basePass: newBasePass(PassKindLightCull)}
}

func (p *lightCullPass) Prepare(fs *render_context.FrameState) {
	p.inputs = NewDescription()
	p.outputs = NewDescription(Dependency{Handle: LightGridHandle(fs.ImageIndex), Kind: ResourceBuffer, Usage: UsageWrite})
}

func (p *lightCullPass) ShouldCompile(fs *render_context.FrameState) bool {
	return p.needsCompile(fs)
}

func (p *lightCullPass) Compile(fs *render_context.FrameState) error {
	if err := p.beginCompile(fs); err != nil {
		return err
	}
	cs, err := p.loadShader(fs, "light_cull.wgsl")
	if err != nil {
		return err
	}
	if _, err := p.addPipeline(fs, pipeline.NewPipeline("light_cull", pipeline.WithComputeShader(cs))); err != nil {
		return err
	}
	p.workgroup = cs.WorkgroupSize()

	n := fs.Ctx.FramesInFlight()
	p.tilesX, p.tilesY = light.TileCounts(int(fs.Viewport.Width), int(fs.Viewport.Height))
	size := max(light.LightGridSize(p.tilesX, p.tilesY), 4)
	for i := range n {
		grid, err := fs.Backend().CreateBuffer(renderer.BufferDesc{
			Label: fmt.Sprintf("light grid [%d]", i),
			Size:  size,
			Usage: renderer.BufferUsageStorage | renderer.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
		p.publishBuffer(fs.Ctx, LightGridHandle(i), grid)
	}
	p.lights = perImage(p.lights, "light cull", n, bind_group_provider.WithGroup(0))
	p.endCompile(fs)
	return nil
}

func (p *lightCullPass) Execute(fs *render_context.FrameState, chain *SemaphoreChain) error {
	grid, ok := fs.Ctx.Pool.GetBuffer(LightGridHandle(fs.ImageIndex))
	if !ok {
		return p.abort(fmt.Errorf("light grid %d missing", fs.ImageIndex))
	}
	pl := p.compiled[0]
	provider := p.lights[fs.ImageIndex]
	provider.SetBuffer(3, grid)

	err := writeBinding(fs, provider, 0, renderer.BufferUsageUniform, fs.Camera.Marshal(fs.Viewport))
	if err == nil {
		err = writeBinding(fs, provider, 1, renderer.BufferUsageUniform,
			light.MarshalLightData(fs.Lights.Directional, len(fs.Lights.PointLights), p.tilesX, p.tilesY))
	}
	if err == nil {
		err = writeBinding(fs, provider, 2, renderer.BufferUsageStorage, light.MarshalPointLights(fs.Lights.PointLights))
	}
	if err != nil {
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

	cp := enc.BeginComputePass(p.Name())
	cp.SetPipeline(pl)
	cp.SetBindGroup(0, group)
	cp.Dispatch(ceilDiv(p.tilesX, p.workgroup[0]), ceilDiv(p.tilesY, p.workgroup[1]), 1)
	cp.End()
	return p.submit(fs, chain, enc)
}

func (p *lightCullPass) Destroy(ctx *render_context.RenderContext) {
	bind_group_provider.ReleaseAll(p.lights)
	p.lights = nil
	p.tilesX, p.tilesY = 0, 0
	p.destroyBase(ctx)
}

func ceilDiv(n, d uint32) uint32 {
	if d == 0 {
		d = 1
	}
	return (n + d - 1) / d
}
