package pipeline

import (
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCompile(string) ([]byte, error) { return []byte{1, 2, 3, 4}, nil }

func testLibrary() shader.Library {
	return shader.NewLibrary(shader.WithCompiler(fakeCompile), shader.WithFS(fstest.MapFS{
		"vs.wgsl": {Data: []byte(`@group(0) @binding(0) var<uniform> cam: mat4x4<f32>;
@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }`)},
		"fs.wgsl": {Data: []byte(`@group(0) @binding(0) var<uniform> cam: mat4x4<f32>;
@group(0) @binding(1) var tex: texture_2d<f32>;
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }`)},
	}))
}

func TestPipeline_DescMergesStages(t *testing.T) {
	lib := testLibrary()
	vs, err := lib.Get("vs.wgsl")
	require.NoError(t, err)
	fs, err := lib.Get("fs.wgsl")
	require.NoError(t, err)

	p := NewPipeline("Test",
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithColorFormats(renderer.TextureFormatRGBA8Unorm),
		WithDepthFormat(renderer.TextureFormatDepth32Float),
		WithDepthWriteEnabled(false),
		WithVertexLayouts(MeshVertexLayout),
	)
	desc := p.Desc()

	assert.Equal(t, renderer.PipelineKindRender, desc.Kind)
	assert.Equal(t, "vs_main", desc.Vertex.EntryPoint)
	require.NotNil(t, desc.Fragment)
	assert.Equal(t, "fs_main", desc.Fragment.EntryPoint)
	require.Len(t, desc.BindGroups, 1)
	assert.Len(t, desc.BindGroups[0], 2)
	assert.False(t, desc.DepthWrite)
	assert.Equal(t, renderer.CompareLessEqual, desc.DepthCompare)
	assert.Equal(t, uint64(32), desc.VertexLayouts[0].Stride)
}

func TestPipeline_DepthTestDisabled(t *testing.T) {
	vs, err := testLibrary().Get("vs.wgsl")
	require.NoError(t, err)
	desc := NewPipeline("NoDepth", WithVertexShader(vs), WithDepthTestEnabled(false)).Desc()
	assert.Equal(t, renderer.CompareAlways, desc.DepthCompare)
	assert.False(t, desc.DepthWrite)
	assert.Nil(t, desc.Fragment)
}

func TestPipeline_CreateValidatesStages(t *testing.T) {
	lib := testLibrary()
	fs, err := lib.Get("fs.wgsl")
	require.NoError(t, err)
	backend := renderertest.New(2, 8, 8)

	_, err = NewPipeline("Missing").Create(backend)
	assert.Error(t, err)

	_, err = NewPipeline("WrongStage", WithVertexShader(fs)).Create(backend)
	assert.ErrorContains(t, err, "no @vertex entry point")
	assert.Equal(t, 0, backend.Live("pipeline"))
}

func TestPipeline_StaleAfterInvalidate(t *testing.T) {
	lib := testLibrary()
	vs, err := lib.Get("vs.wgsl")
	require.NoError(t, err)
	p := NewPipeline("Stale", WithShader(vs))
	assert.Nil(t, p.Shader(shader.ShaderTypeFragment))

	_, err = p.Create(renderertest.New(2, 8, 8))
	require.NoError(t, err)
	assert.False(t, p.Stale(lib))

	lib.Invalidate("vs.wgsl")
	assert.True(t, p.Stale(lib))
}
