package pipeline

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/shader"
)

// MeshVertexLayout is the interleaved position/normal/uv layout of every model vertex buffer.
var MeshVertexLayout = renderer.VertexLayout{
	Stride: 32,
	Attributes: []renderer.VertexAttribute{
		{Location: 0, Format: renderer.VertexFormatFloat32x3, Offset: 0},
		{Location: 1, Format: renderer.VertexFormatFloat32x3, Offset: 12},
		{Location: 2, Format: renderer.VertexFormatFloat32x2, Offset: 24},
	},
}

// pipeline is the implementation of the Pipeline interface.
// It holds the shaders and fixed-function state a backend pipeline is created from.
type pipeline struct {
	label string

	// the following shader references are used for pipeline creation; a render pipeline needs a
	// vertex shader and a compute pipeline needs a compute shader.

	vertexShader, fragmentShader, computeShader shader.Shader

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthCompare        renderer.CompareFunc
	depthFormat         renderer.TextureFormat
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            renderer.CullMode
	topology            renderer.Topology
	colorFormats        []renderer.TextureFormat
	vertexLayouts       []renderer.VertexLayout
}

// Pipeline describes a render or compute pipeline independent of the graphics API. It remembers
// the shader generations it was built from so callers can tell when a hot reload made it stale.
type Pipeline interface {
	// Label returns the pipeline label.
	Label() string

	// Kind returns PipelineKindCompute when a compute shader is set, PipelineKindRender otherwise.
	//
	// Returns:
	//   - renderer.PipelineKind: the pipeline kind
	Kind() renderer.PipelineKind

	// Shader retrieves the shader set for a stage, or nil.
	//
	// Parameters:
	//   - shaderType: the stage to retrieve
	//
	// Returns:
	//   - shader.Shader: the shader for the stage, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Desc builds the backend pipeline description. Bind group layouts are merged from the
	// reflected layouts of every stage.
	//
	// Returns:
	//   - renderer.PipelineDesc: the description
	Desc() renderer.PipelineDesc

	// Create compiles the pipeline on backend.
	//
	// Parameters:
	//   - backend: the graphics backend
	//
	// Returns:
	//   - renderer.Pipeline: the backend pipeline
	//   - error: an error if the pipeline is incomplete or the backend rejected it
	Create(backend renderer.GraphicsBackend) (renderer.Pipeline, error)

	// Stale reports whether any stage shader has been invalidated in lib since this pipeline was built.
	//
	// Parameters:
	//   - lib: the library the shaders came from
	//
	// Returns:
	//   - bool: true if the pipeline must be rebuilt
	Stale(lib shader.Library) bool
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline with the given options applied. Depth testing defaults to
// enabled with a LessEqual comparison, back-face culling and a triangle list topology.
//
// Parameters:
//   - label: the pipeline label
//   - opts: builder options
//
// Returns:
//   - Pipeline: the configured pipeline
func NewPipeline(label string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		label:             label,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      renderer.CompareLessEqual,
		cullMode:          renderer.CullModeBack,
		topology:          renderer.TopologyTriangleList,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Label() string {
	return p.label
}

func (p *pipeline) Kind() renderer.PipelineKind {
	if p.computeShader != nil {
		return renderer.PipelineKindCompute
	}
	return renderer.PipelineKindRender
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	case shader.ShaderTypeCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) shaders() []shader.Shader {
	var out []shader.Shader
	for _, s := range []shader.Shader{p.vertexShader, p.fragmentShader, p.computeShader} {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (p *pipeline) Desc() renderer.PipelineDesc {
	desc := renderer.PipelineDesc{
		Label:      p.label,
		Kind:       p.Kind(),
		BindGroups: mergeBindGroups(p.shaders()),
	}

	if desc.Kind == renderer.PipelineKindCompute {
		desc.Compute = p.computeShader.StageDesc(shader.ShaderTypeCompute)
		return desc
	}

	if p.vertexShader != nil {
		desc.Vertex = p.vertexShader.StageDesc(shader.ShaderTypeVertex)
	}
	if p.fragmentShader != nil {
		fs := p.fragmentShader.StageDesc(shader.ShaderTypeFragment)
		desc.Fragment = &fs
	}
	desc.VertexLayouts = p.vertexLayouts
	desc.ColorFormats = p.colorFormats
	desc.DepthFormat = p.depthFormat
	desc.DepthWrite = p.depthWriteEnabled && p.depthTestEnabled
	desc.DepthCompare = p.depthCompare
	if !p.depthTestEnabled {
		desc.DepthCompare = renderer.CompareAlways
	}
	desc.DepthBias = p.depthBias
	desc.DepthBiasSlopeScale = p.depthBiasSlopeScale
	desc.Blend = p.blendEnabled
	desc.CullMode = p.cullMode
	desc.Topology = p.topology
	return desc
}

func (p *pipeline) Create(backend renderer.GraphicsBackend) (renderer.Pipeline, error) {
	switch p.Kind() {
	case renderer.PipelineKindCompute:
		if p.computeShader.EntryPoint(shader.ShaderTypeCompute) == "" {
			return nil, fmt.Errorf("pipeline %s: %s has no @compute entry point", p.label, p.computeShader.Name())
		}
	default:
		if p.vertexShader == nil {
			return nil, fmt.Errorf("pipeline %s: vertex shader required", p.label)
		}
		if p.vertexShader.EntryPoint(shader.ShaderTypeVertex) == "" {
			return nil, fmt.Errorf("pipeline %s: %s has no @vertex entry point", p.label, p.vertexShader.Name())
		}
		if p.fragmentShader != nil && p.fragmentShader.EntryPoint(shader.ShaderTypeFragment) == "" {
			return nil, fmt.Errorf("pipeline %s: %s has no @fragment entry point", p.label, p.fragmentShader.Name())
		}
	}
	return backend.CreatePipeline(p.Desc())
}

func (p *pipeline) Stale(lib shader.Library) bool {
	for _, s := range p.shaders() {
		if lib.Generation(s.Name()) != s.Generation() {
			return true
		}
	}
	return false
}

// mergeBindGroups unions the reflected bind groups of each shader. A binding declared by more
// than one stage keeps the first kind seen and ORs the visibilities.
func mergeBindGroups(shaders []shader.Shader) [][]renderer.Binding {
	var merged []map[uint32]renderer.Binding
	for _, s := range shaders {
		for g, bindings := range s.BindGroups() {
			for len(merged) <= g {
				merged = append(merged, map[uint32]renderer.Binding{})
			}
			for _, b := range bindings {
				if prev, ok := merged[g][b.Binding]; ok {
					prev.Visibility |= b.Visibility
					merged[g][b.Binding] = prev
					continue
				}
				merged[g][b.Binding] = b
			}
		}
	}

	out := make([][]renderer.Binding, len(merged))
	for g, m := range merged {
		for _, b := range m {
			out[g] = append(out[g], b)
		}
		sort.Slice(out[g], func(i, j int) bool { return out[g][i].Binding < out[g][j].Binding })
	}
	return out
}
