package renderer

// PipelineKind distinguishes render pipelines from compute pipelines.
type PipelineKind int

const (
	PipelineKindRender PipelineKind = iota
	PipelineKindCompute
)

// ShaderStage is a bit set of shader stages a binding is visible to.
type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
	ShaderStageCompute
)

// BindingKind is the resource type expected at a binding slot.
type BindingKind int

const (
	BindingUniform BindingKind = iota
	BindingStorage
	BindingReadOnlyStorage
	BindingTexture
	BindingDepthTexture
	BindingCubeTexture
	BindingSampler
	BindingComparisonSampler
)

// Binding is one entry of a bind group layout.
type Binding struct {
	Binding    uint32
	Kind       BindingKind
	Visibility ShaderStage
}

// VertexFormat is the type of a single vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32x2 VertexFormat = iota
	VertexFormatFloat32x3
	VertexFormatFloat32x4
)

// VertexAttribute places one attribute inside a vertex.
type VertexAttribute struct {
	Location uint32
	Format   VertexFormat
	Offset   uint64
}

// VertexLayout describes one vertex buffer slot.
type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeBack
	CullModeFront
)

// Topology is the primitive assembly mode.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyLineList
)

// CompareFunc is a depth comparison function.
type CompareFunc int

const (
	CompareLess CompareFunc = iota
	CompareLessEqual
	CompareAlways
)

// ShaderStageDesc is the source and entry point for one stage. Source is WGSL.
type ShaderStageDesc struct {
	Label      string
	Source     string
	EntryPoint string
	// SPIRV is the compiled module. Backends fall back to Source when it is empty.
	SPIRV []byte
}

// PipelineDesc is a complete backend-neutral pipeline description.
type PipelineDesc struct {
	Label string
	Kind  PipelineKind

	Vertex   ShaderStageDesc
	Fragment *ShaderStageDesc
	Compute  ShaderStageDesc

	VertexLayouts []VertexLayout
	// BindGroups holds one layout per group index.
	BindGroups [][]Binding

	ColorFormats        []TextureFormat
	DepthFormat         TextureFormat
	DepthWrite          bool
	DepthCompare        CompareFunc
	DepthBias           int32
	DepthBiasSlopeScale float32
	Blend               bool
	CullMode            CullMode
	Topology            Topology
}

// Pipeline is a compiled render or compute pipeline.
type Pipeline interface {
	Label() string
	Kind() PipelineKind
	Release()
}
