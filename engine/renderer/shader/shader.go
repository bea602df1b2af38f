package shader

import "github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"

// ShaderType identifies a shader stage.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface.
// It holds the pre-processed source, the compiled SPIR-V and the reflected layout data for one file.
type shader struct {
	name          string
	source        string
	spirv         []byte
	generation    uint64
	includes      []string
	entryPoints   map[ShaderType]string
	workGroupSize [3]uint32
	bindGroups    [][]renderer.Binding
}

// Shader is a compiled WGSL file from a Library.
type Shader interface {
	// Name returns the file name the shader was loaded from (e.g. "forward.wgsl").
	//
	// Returns:
	//   - string: the shader's file name
	Name() string

	// Source returns the WGSL source with every #include expanded.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// SPIRV returns the SPIR-V bytecode produced when the shader was compiled.
	//
	// Returns:
	//   - []byte: little-endian SPIR-V words
	SPIRV() []byte

	// Generation returns the library generation this shader was compiled at. A pass records it at
	// compile time and recompiles once the library reports a newer generation.
	//
	// Returns:
	//   - uint64: the compile generation
	Generation() uint64

	// Includes returns the files pulled in through #include.
	Includes() []string

	// EntryPoint returns the entry point name for a stage, or "" if the file has none.
	//
	// Parameters:
	//   - stage: the shader stage
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint(stage ShaderType) string

	// WorkgroupSize returns the @workgroup_size of the compute entry point, [1, 1, 1] when absent.
	WorkgroupSize() [3]uint32

	// BindGroups returns the reflected bind group layouts, indexed by group and sorted by binding.
	//
	// Returns:
	//   - [][]renderer.Binding: bindings per group
	BindGroups() [][]renderer.Binding

	// StageDesc returns the backend stage description for an entry point of this shader.
	//
	// Parameters:
	//   - stage: the shader stage
	//
	// Returns:
	//   - renderer.ShaderStageDesc: the stage description
	StageDesc(stage ShaderType) renderer.ShaderStageDesc
}

var _ Shader = &shader{}

func newShader(name, source string, spirv []byte, generation uint64, includes []string) *shader {
	s := &shader{
		name:          name,
		source:        source,
		spirv:         spirv,
		generation:    generation,
		includes:      includes,
		entryPoints:   make(map[ShaderType]string, 3),
		workGroupSize: [3]uint32{1, 1, 1},
	}

	var visibility renderer.ShaderStage
	for _, st := range []ShaderType{ShaderTypeVertex, ShaderTypeFragment, ShaderTypeCompute} {
		if ep := parseEntryPoint(source, st); ep != "" {
			s.entryPoints[st] = ep
		}
	}
	if _, ok := s.entryPoints[ShaderTypeCompute]; ok {
		s.workGroupSize = parseWorkgroupSize(source)
		visibility = renderer.ShaderStageCompute
	} else {
		visibility = renderer.ShaderStageVertex | renderer.ShaderStageFragment
	}
	s.bindGroups = parseBindGroups(source, visibility)
	return s
}

func (s *shader) Name() string {
	return s.name
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) SPIRV() []byte {
	return s.spirv
}

func (s *shader) Generation() uint64 {
	return s.generation
}

func (s *shader) Includes() []string {
	return s.includes
}

func (s *shader) EntryPoint(stage ShaderType) string {
	return s.entryPoints[stage]
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) BindGroups() [][]renderer.Binding {
	return s.bindGroups
}

func (s *shader) StageDesc(stage ShaderType) renderer.ShaderStageDesc {
	return renderer.ShaderStageDesc{
		Label:      s.name,
		Source:     s.source,
		EntryPoint: s.entryPoints[stage],
		SPIRV:      s.spirv,
	}
}
