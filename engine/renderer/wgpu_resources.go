package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuTexture struct {
	label  string
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	extent common.Extent
	format TextureFormat
	cube   bool
}

func (t *wgpuTexture) Label() string         { return t.label }
func (t *wgpuTexture) Extent() common.Extent { return t.extent }
func (t *wgpuTexture) Format() TextureFormat { return t.format }
func (t *wgpuTexture) Cube() bool            { return t.cube }

func (t *wgpuTexture) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

type wgpuFramebuffer struct {
	label  string
	extent common.Extent
	colors []*wgpuTexture
	depth  *wgpuTexture
}

func (f *wgpuFramebuffer) Label() string         { return f.label }
func (f *wgpuFramebuffer) Extent() common.Extent { return f.extent }
func (f *wgpuFramebuffer) ColorCount() int       { return len(f.colors) }

func (f *wgpuFramebuffer) Color(i int) Texture {
	if i < 0 || i >= len(f.colors) {
		return nil
	}
	return f.colors[i]
}

func (f *wgpuFramebuffer) Depth() Texture {
	if f.depth == nil {
		return nil
	}
	return f.depth
}

func (f *wgpuFramebuffer) Release() {
	for _, c := range f.colors {
		c.Release()
	}
	f.colors = nil
	if f.depth != nil {
		f.depth.Release()
		f.depth = nil
	}
}

type wgpuBuffer struct {
	label string
	buf   *wgpu.Buffer
	size  uint64
}

func (b *wgpuBuffer) Label() string { return b.label }
func (b *wgpuBuffer) Size() uint64  { return b.size }

func (b *wgpuBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

type wgpuSampler struct {
	s *wgpu.Sampler
}

func (s *wgpuSampler) Release() {
	if s.s != nil {
		s.s.Release()
		s.s = nil
	}
}

type wgpuSemaphore struct {
	label    string
	signaled bool
	// serial is the queue submission that last signalled the semaphore.
	serial wgpu.SubmissionIndex
}

func (s *wgpuSemaphore) Label() string { return s.label }
func (s *wgpuSemaphore) Release()      { s.signaled = false }

type wgpuFence struct {
	label   string
	pending bool
	// serial is the queue submission the fence completes with.
	serial wgpu.SubmissionIndex
}

func (f *wgpuFence) Label() string { return f.label }
func (f *wgpuFence) Release()      { f.pending = false }

type wgpuBindGroup struct {
	bg *wgpu.BindGroup
}

func (g *wgpuBindGroup) Release() {
	if g.bg != nil {
		g.bg.Release()
		g.bg = nil
	}
}

type wgpuPipeline struct {
	label    string
	kind     PipelineKind
	render   *wgpu.RenderPipeline
	compute  *wgpu.ComputePipeline
	layout   *wgpu.PipelineLayout
	bgLayout []*wgpu.BindGroupLayout
}

func (p *wgpuPipeline) Label() string      { return p.label }
func (p *wgpuPipeline) Kind() PipelineKind { return p.kind }

func (p *wgpuPipeline) Release() {
	if p.render != nil {
		p.render.Release()
		p.render = nil
	}
	if p.compute != nil {
		p.compute.Release()
		p.compute = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	for _, l := range p.bgLayout {
		l.Release()
	}
	p.bgLayout = nil
}

func shaderStage(s ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	if s&ShaderStageCompute != 0 {
		out |= wgpu.ShaderStageCompute
	}
	return out
}

func layoutEntry(b Binding) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    b.Binding,
		Visibility: shaderStage(b.Visibility),
	}
	switch b.Kind {
	case BindingUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case BindingStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
	case BindingReadOnlyStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case BindingTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case BindingDepthTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case BindingCubeTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimensionCube
	case BindingSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case BindingComparisonSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	}
	return entry
}

func vertexFormat(f VertexFormat) wgpu.VertexFormat {
	switch f {
	case VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	default:
		return wgpu.VertexFormatFloat32x3
	}
}

func compareFunction(c CompareFunc) wgpu.CompareFunction {
	switch c {
	case CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	case CompareAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionLess
	}
}

// shaderModuleDescriptor prefers the compiled SPIR-V of a stage and falls back to its WGSL source.
func shaderModuleDescriptor(stage ShaderStageDesc) *wgpu.ShaderModuleDescriptor {
	desc := &wgpu.ShaderModuleDescriptor{Label: stage.Label}
	if len(stage.SPIRV) > 0 {
		desc.SPIRVDescriptor = &wgpu.ShaderModuleSPIRVDescriptor{Code: stage.SPIRV}
	} else {
		desc.WGSLDescriptor = &wgpu.ShaderModuleWGSLDescriptor{Code: stage.Source}
	}
	return desc
}

func (b *wgpuBackend) shaderModule(stage ShaderStageDesc) (*wgpu.ShaderModule, error) {
	return b.device.CreateShaderModule(shaderModuleDescriptor(stage))
}

func (b *wgpuBackend) CreatePipeline(desc PipelineDesc) (Pipeline, error) {
	p := &wgpuPipeline{label: desc.Label, kind: desc.Kind}

	for g, bindings := range desc.BindGroups {
		entries := make([]wgpu.BindGroupLayoutEntry, len(bindings))
		for i, binding := range bindings {
			entries[i] = layoutEntry(binding)
		}
		layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s Group %d", desc.Label, g),
			Entries: entries,
		})
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("renderer: bind group layout %d of %q: %w", g, desc.Label, err)
		}
		p.bgLayout = append(p.bgLayout, layout)
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: p.bgLayout,
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("renderer: pipeline layout %q: %w", desc.Label, err)
	}
	p.layout = layout

	switch desc.Kind {
	case PipelineKindCompute:
		err = b.createComputePipeline(p, desc)
	default:
		err = b.createRenderPipeline(p, desc)
	}
	if err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (b *wgpuBackend) createComputePipeline(p *wgpuPipeline, desc PipelineDesc) error {
	module, err := b.shaderModule(desc.Compute)
	if err != nil {
		return fmt.Errorf("renderer: compute module %q: %w", desc.Compute.Label, err)
	}
	defer module.Release()

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label + " Compute Pipeline",
		Layout: p.layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: desc.Compute.EntryPoint,
		},
	})
	if err != nil {
		return fmt.Errorf("renderer: compute pipeline %q: %w", desc.Label, err)
	}
	p.compute = created
	return nil
}

func (b *wgpuBackend) createRenderPipeline(p *wgpuPipeline, desc PipelineDesc) error {
	vs, err := b.shaderModule(desc.Vertex)
	if err != nil {
		return fmt.Errorf("renderer: vertex module %q: %w", desc.Vertex.Label, err)
	}
	defer vs.Release()

	var fragment *wgpu.FragmentState
	if desc.Fragment != nil {
		fs, fsErr := b.shaderModule(*desc.Fragment)
		if fsErr != nil {
			return fmt.Errorf("renderer: fragment module %q: %w", desc.Fragment.Label, fsErr)
		}
		defer fs.Release()

		targets := make([]wgpu.ColorTargetState, len(desc.ColorFormats))
		for i, f := range desc.ColorFormats {
			targets[i] = wgpu.ColorTargetState{
				Format:    b.format(f),
				WriteMask: wgpu.ColorWriteMaskAll,
			}
			if desc.Blend {
				targets[i].Blend = &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
				}
			}
		}
		fragment = &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets:    targets,
		}
	}

	buffers := make([]wgpu.VertexBufferLayout, len(desc.VertexLayouts))
	for i, vl := range desc.VertexLayouts {
		attrs := make([]wgpu.VertexAttribute, len(vl.Attributes))
		for j, a := range vl.Attributes {
			attrs[j] = wgpu.VertexAttribute{
				Format:         vertexFormat(a.Format),
				Offset:         a.Offset,
				ShaderLocation: a.Location,
			}
		}
		buffers[i] = wgpu.VertexBufferLayout{
			ArrayStride: vl.Stride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		}
	}

	topology := wgpu.PrimitiveTopologyTriangleList
	if desc.Topology == TopologyLineList {
		topology = wgpu.PrimitiveTopologyLineList
	}
	cull := wgpu.CullModeNone
	switch desc.CullMode {
	case CullModeBack:
		cull = wgpu.CullModeBack
	case CullModeFront:
		cull = wgpu.CullModeFront
	}

	var depth *wgpu.DepthStencilState
	if desc.DepthFormat != TextureFormatUndefined {
		depth = &wgpu.DepthStencilState{
			Format:              b.format(desc.DepthFormat),
			DepthWriteEnabled:   desc.DepthWrite,
			DepthCompare:        compareFunction(desc.DepthCompare),
			DepthBias:           desc.DepthBias,
			DepthBiasSlopeScale: desc.DepthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    buffers,
		},
		Fragment: fragment,
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cull,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depth,
	})
	if err != nil {
		return fmt.Errorf("renderer: render pipeline %q: %w", desc.Label, err)
	}
	p.render = created
	return nil
}

func (b *wgpuBackend) CreateBindGroup(desc BindGroupDesc) (BindGroup, error) {
	p, ok := desc.Pipeline.(*wgpuPipeline)
	if !ok {
		return nil, errors.New("renderer: pipeline was not created by this backend")
	}
	if int(desc.Group) >= len(p.bgLayout) {
		return nil, fmt.Errorf("renderer: pipeline %q has no bind group %d", p.label, desc.Group)
	}

	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			entry.Buffer = e.Buffer.(*wgpuBuffer).buf
			entry.Offset = 0
			entry.Size = wgpu.WholeSize
		case e.Texture != nil:
			entry.TextureView = e.Texture.(*wgpuTexture).view
		case e.Sampler != nil:
			entry.Sampler = e.Sampler.(*wgpuSampler).s
		default:
			return nil, fmt.Errorf("renderer: bind group %q binding %d is empty", desc.Label, e.Binding)
		}
		entries[i] = entry
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  p.bgLayout[desc.Group],
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: bind group %q: %w", desc.Label, err)
	}
	return &wgpuBindGroup{bg: bg}, nil
}

type wgpuCommandEncoder struct {
	backend *wgpuBackend
	enc     *wgpu.CommandEncoder
	label   string
}

func loadOp(op LoadOp) wgpu.LoadOp {
	if op == LoadOpLoad {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func (e *wgpuCommandEncoder) BeginRenderPass(desc RenderPassDesc) RenderPassEncoder {
	var colors []wgpu.RenderPassColorAttachment
	clearValue := wgpu.Color{R: desc.ClearColor[0], G: desc.ClearColor[1], B: desc.ClearColor[2], A: desc.ClearColor[3]}
	if desc.Surface {
		colors = append(colors, wgpu.RenderPassColorAttachment{
			View:       e.backend.frameView,
			LoadOp:     loadOp(desc.ColorLoad),
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clearValue,
		})
	} else {
		for _, c := range desc.Color {
			colors = append(colors, wgpu.RenderPassColorAttachment{
				View:       c.(*wgpuTexture).view,
				LoadOp:     loadOp(desc.ColorLoad),
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: clearValue,
			})
		}
	}

	rp := &wgpu.RenderPassDescriptor{ColorAttachments: colors}
	if desc.Depth != nil {
		rp.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            desc.Depth.(*wgpuTexture).view,
			DepthLoadOp:     loadOp(desc.DepthLoad),
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: desc.ClearDepth,
		}
	}
	return &wgpuRenderPassEncoder{pass: e.enc.BeginRenderPass(rp)}
}

func (e *wgpuCommandEncoder) BeginComputePass(string) ComputePassEncoder {
	return &wgpuComputePassEncoder{pass: e.enc.BeginComputePass(nil)}
}

func (e *wgpuCommandEncoder) Finish() (CommandBuffer, error) {
	cb, err := e.enc.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("renderer: finish %q: %w", e.label, err)
	}
	return &wgpuCommandBuffer{label: e.label, cb: cb}, nil
}

func (e *wgpuCommandEncoder) Release() {
	if e.enc != nil {
		e.enc.Release()
		e.enc = nil
	}
}

type wgpuCommandBuffer struct {
	label string
	cb    *wgpu.CommandBuffer
}

func (c *wgpuCommandBuffer) Label() string { return c.label }

type wgpuRenderPassEncoder struct {
	pass *wgpu.RenderPassEncoder
}

func (r *wgpuRenderPassEncoder) SetPipeline(p Pipeline) {
	r.pass.SetPipeline(p.(*wgpuPipeline).render)
}

func (r *wgpuRenderPassEncoder) SetBindGroup(group uint32, bg BindGroup) {
	r.pass.SetBindGroup(group, bg.(*wgpuBindGroup).bg, nil)
}

func (r *wgpuRenderPassEncoder) SetVertexBuffer(slot uint32, buf Buffer) {
	r.pass.SetVertexBuffer(slot, buf.(*wgpuBuffer).buf, 0, wgpu.WholeSize)
}

func (r *wgpuRenderPassEncoder) SetIndexBuffer(buf Buffer) {
	r.pass.SetIndexBuffer(buf.(*wgpuBuffer).buf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (r *wgpuRenderPassEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (r *wgpuRenderPassEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	r.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (r *wgpuRenderPassEncoder) End() {
	r.pass.End()
	r.pass.Release()
}

type wgpuComputePassEncoder struct {
	pass *wgpu.ComputePassEncoder
}

func (c *wgpuComputePassEncoder) SetPipeline(p Pipeline) {
	c.pass.SetPipeline(p.(*wgpuPipeline).compute)
}

func (c *wgpuComputePassEncoder) SetBindGroup(group uint32, bg BindGroup) {
	c.pass.SetBindGroup(group, bg.(*wgpuBindGroup).bg, nil)
}

func (c *wgpuComputePassEncoder) Dispatch(x, y, z uint32) {
	c.pass.DispatchWorkgroups(x, y, z)
}

func (c *wgpuComputePassEncoder) End() {
	c.pass.End()
	c.pass.Release()
}
