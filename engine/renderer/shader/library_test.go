package shader

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleWGSL = `
@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    let x = f32(i) - 1.0;
    return vec4<f32>(x, 0.0, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

type countingCompiler struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingCompiler) compile(string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []byte{0x03, 0x02, 0x23, 0x07}, nil
}

func TestLibrary_GetCachesAndReflects(t *testing.T) {
	cc := &countingCompiler{}
	lib := NewLibrary(WithCompiler(cc.compile), WithFS(fstest.MapFS{
		"types.wgsl": {Data: []byte("struct Params { scale: vec4<f32> };\n")},
		"blit.wgsl": {Data: []byte(`#include "types.wgsl"
@group(0) @binding(1) var tex: texture_2d<f32>;
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(2) var samp: sampler;
@group(1) @binding(0) var<storage, read> items: array<vec4<f32>>;
` + triangleWGSL)},
	}))

	s, err := lib.Get("blit.wgsl")
	require.NoError(t, err)
	_, err = lib.Get("blit.wgsl")
	require.NoError(t, err)
	assert.Equal(t, 1, cc.calls)

	assert.Equal(t, "vs_main", s.EntryPoint(ShaderTypeVertex))
	assert.Equal(t, "fs_main", s.EntryPoint(ShaderTypeFragment))
	assert.Empty(t, s.EntryPoint(ShaderTypeCompute))
	assert.Contains(t, s.Source(), "struct Params")
	assert.Equal(t, []string{"types.wgsl"}, s.Includes())

	stage := s.StageDesc(ShaderTypeVertex)
	assert.Equal(t, "vs_main", stage.EntryPoint)
	assert.Equal(t, []byte{0x03, 0x02, 0x23, 0x07}, stage.SPIRV)

	groups := s.BindGroups()
	require.Len(t, groups, 2)
	require.Len(t, groups[0], 3)
	assert.Equal(t, renderer.BindingUniform, groups[0][0].Kind)
	assert.Equal(t, renderer.BindingTexture, groups[0][1].Kind)
	assert.Equal(t, renderer.BindingSampler, groups[0][2].Kind)
	assert.Equal(t, renderer.BindingReadOnlyStorage, groups[1][0].Kind)
	assert.Equal(t, renderer.ShaderStageVertex|renderer.ShaderStageFragment, groups[0][0].Visibility)
}

func TestLibrary_NotFound(t *testing.T) {
	lib := NewLibrary(WithCompiler((&countingCompiler{}).compile))
	_, err := lib.Get("missing.wgsl")
	assert.ErrorIs(t, err, ErrShaderNotFound)
}

func TestLibrary_CompileErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	lib := NewLibrary(WithCompiler((&countingCompiler{err: boom}).compile), WithFS(fstest.MapFS{
		"bad.wgsl": {Data: []byte(triangleWGSL)},
	}))
	_, err := lib.Get("bad.wgsl")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "shader: compile bad.wgsl")
}

func TestLibrary_InvalidateBumpsIncluders(t *testing.T) {
	cc := &countingCompiler{}
	lib := NewLibrary(WithCompiler(cc.compile), WithFS(fstest.MapFS{
		"inc.wgsl": {Data: []byte("const K: f32 = 1.0;\n")},
		"a.wgsl":   {Data: []byte("#include \"inc.wgsl\"\n" + triangleWGSL)},
		"b.wgsl":   {Data: []byte(triangleWGSL)},
	}))
	_, err := lib.Get("a.wgsl")
	require.NoError(t, err)
	_, err = lib.Get("b.wgsl")
	require.NoError(t, err)

	names := lib.Invalidate("inc.wgsl")
	assert.Equal(t, []string{"a.wgsl", "inc.wgsl"}, names)
	assert.Equal(t, uint64(1), lib.Generation("a.wgsl"))
	assert.Equal(t, uint64(0), lib.Generation("b.wgsl"))
	assert.Equal(t, []string{"b.wgsl"}, lib.Cached())

	s, err := lib.Get("a.wgsl")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Generation())
	assert.Equal(t, 3, cc.calls)
}

func TestLibrary_BuiltinShadersResolve(t *testing.T) {
	lib := NewLibrary(WithCompiler((&countingCompiler{}).compile))

	for _, name := range []string{"depth.wgsl", "light_cull.wgsl", "shadow.wgsl", "forward.wgsl", "skybox.wgsl", "bbox.wgsl", "grid.wgsl", "final.wgsl"} {
		s, err := lib.Get(name)
		require.NoError(t, err, name)
		if name == "light_cull.wgsl" {
			assert.Equal(t, "cs_main", s.EntryPoint(ShaderTypeCompute))
			assert.Equal(t, [3]uint32{8, 8, 1}, s.WorkgroupSize())
			assert.Equal(t, renderer.BindingStorage, s.BindGroups()[0][3].Kind)
			continue
		}
		assert.Equal(t, "vs_main", s.EntryPoint(ShaderTypeVertex), name)
	}

	fwd, err := lib.Get("forward.wgsl")
	require.NoError(t, err)
	groups := fwd.BindGroups()
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 10)
	assert.Equal(t, renderer.BindingDepthTexture, groups[0][5].Kind)
	assert.Equal(t, renderer.BindingComparisonSampler, groups[0][9].Kind)

	sky, err := lib.Get("skybox.wgsl")
	require.NoError(t, err)
	assert.Equal(t, renderer.BindingCubeTexture, sky.BindGroups()[0][1].Kind)
}

func TestLibrary_DirOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "final.wgsl"), []byte("// override\n"+triangleWGSL), 0o644))

	lib := NewLibrary(WithCompiler((&countingCompiler{}).compile), WithDir(dir))
	s, err := lib.Get("final.wgsl")
	require.NoError(t, err)
	assert.Contains(t, s.Source(), "// override")
}

func TestNagaCompile(t *testing.T) {
	lib := NewLibrary(WithFS(fstest.MapFS{
		"tri.wgsl":    {Data: []byte(triangleWGSL)},
		"broken.wgsl": {Data: []byte("fn (")},
	}))

	s, err := lib.Get("tri.wgsl")
	require.NoError(t, err)
	assert.NotEmpty(t, s.SPIRV())

	_, err = lib.Get("broken.wgsl")
	assert.Error(t, err)
}

func TestWatcher_InvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hot.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(triangleWGSL), 0o644))

	lib := NewLibrary(WithCompiler((&countingCompiler{}).compile), WithDir(dir))
	_, err := lib.Get("hot.wgsl")
	require.NoError(t, err)

	w, err := NewWatcher(lib, dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("// edited\n"+triangleWGSL), 0o644))
	assert.Eventually(t, func() bool {
		return lib.Generation("hot.wgsl") > 0
	}, 2*time.Second, 10*time.Millisecond)

	s, err := lib.Get("hot.wgsl")
	require.NoError(t, err)
	assert.Contains(t, s.Source(), "// edited")
}
