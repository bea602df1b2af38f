package render_pass

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/config"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/model"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noCompile(string) ([]byte, error) { return nil, nil }

func newFrame(t *testing.T) (*renderertest.Backend, *render_context.FrameState) {
	t.Helper()
	backend := renderertest.New(2, 64, 48)
	cfg := config.New(config.WithShadowMapResolution(256), config.WithEvictionThreshold(10))
	ctx := render_context.NewRenderContext(backend, shader.NewLibrary(shader.WithCompiler(noCompile)), cfg)
	viewport := backend.SurfaceExtent()
	require.NoError(t, ctx.Pool.Compile(viewport))

	acquired, _ := backend.CreateSemaphore("acquired")
	fence, _ := backend.CreateFence("fence")
	fs := &render_context.FrameState{
		Ctx:            ctx,
		Viewport:       viewport,
		ImageAcquired:  acquired,
		Fence:          fence,
		ShadowsEnabled: true,
	}
	fs.Cascades.Count = light.MaxCascades
	return backend, fs
}

// populate adds two cubes sharing a material, a plane with another, a directional light and a skybox.
func populate(t *testing.T, backend *renderertest.Backend, fs *render_context.FrameState) (material.Material, material.Material) {
	t.Helper()
	cube := model.NewCube("cube", 1)
	plane := model.NewPlane("plane", 10)
	require.NoError(t, cube.Upload(backend))
	require.NoError(t, plane.Upload(backend))
	red := material.NewMaterial(material.WithName("red"))
	floor := material.NewMaterial(material.WithName("floor"))

	fs.DrawCommands = []render_context.DrawCommand{
		render_context.NewDrawCommand(common.Identity(), cube, red),
		render_context.NewDrawCommand(common.Compose(common.Vec3{2, 0, 0}, common.Vec3{}, common.Vec3{1, 1, 1}), cube, red),
		render_context.NewDrawCommand(common.Identity(), plane, floor),
	}
	fs.ShadowCommands = fs.DrawCommands[:2]
	fs.Lights.Directional = &light.DirectionalLight{Direction: common.Vec3{0, -1, 0}, Color: common.Vec3{1, 1, 1}, Intensity: 1}
	fs.Lights.PointLights = []light.PointLight{{Position: common.Vec3{0, 2, 0}, Range: 5, Color: common.Vec3{1, 0, 0}, Intensity: 2}}

	sky, err := backend.CreateTexture(renderer.TextureDesc{Label: "sky", Width: 4, Height: 4, Format: renderer.TextureFormatRGBA8Unorm, Cube: true})
	require.NoError(t, err)
	h := resource_pool.MakeHandle(resource_pool.KindExternal, 1)
	fs.Ctx.Pool.PutCubemap(h, sky)
	fs.Lights.SetSkybox(h)
	return red, floor
}

func allPasses() []RenderPass {
	return []RenderPass{
		NewDepthPass(),
		NewLightCullPass(),
		NewShadowPass(),
		NewForwardPass(),
		NewSkyboxPass(),
		NewBoundingBoxPass(),
		NewGridPass(),
		NewFinalPass(),
	}
}

func run(t *testing.T, backend *renderertest.Backend, fs *render_context.FrameState, passes ...RenderPass) error {
	t.Helper()
	require.NoError(t, backend.AcquireNextImage(fs.ImageAcquired))
	chain := NewSemaphoreChain(fs.ImageAcquired, fs.Fence, len(passes))
	for _, p := range passes {
		p.Prepare(fs)
		if p.ShouldCompile(fs) {
			if err := p.Compile(fs); err != nil {
				return err
			}
		}
		if err := p.Execute(fs, chain); err != nil {
			return err
		}
	}
	return nil
}

func TestAllPassKindsInCausalOrder(t *testing.T) {
	var names []string
	for _, k := range AllPassKinds() {
		names = append(names, k.String())
	}
	assert.Equal(t, []string{"depth", "light_cull", "shadow", "forward", "skybox", "bounding_box", "grid", "final"}, names)
	assert.Equal(t, "PassKind(42)", PassKind(42).String())

	for i, p := range allPasses() {
		assert.Equal(t, PassKind(i), p.Kind())
		assert.Equal(t, PassStateUncompiled, p.State())
	}
}

func TestDescription(t *testing.T) {
	h := LightGridHandle(1)
	a := NewDescription(Dependency{Handle: h, Kind: ResourceBuffer, Usage: UsageRead})
	b := NewDescription(Dependency{Handle: h, Kind: ResourceBuffer, Usage: UsageRead})
	assert.Equal(t, a, b)
	assert.True(t, a == b)
	assert.Equal(t, 1, a.Len())
	assert.True(t, a.Contains(h))
	assert.False(t, a.Contains(LightGridHandle(0)))
	assert.Equal(t, 0, NewDescription().Len())

	assert.Panics(t, func() { NewDescription(make([]Dependency, MaxDependencies+1)...) })
	assert.NotPanics(t, func() { NewDescription(make([]Dependency, MaxDependencies)...) })
}

func TestHandlesDoNotCollide(t *testing.T) {
	seen := map[resource_pool.Handle]string{}
	add := func(h resource_pool.Handle, name string) {
		prev, dup := seen[h]
		require.False(t, dup, "%s collides with %s", name, prev)
		seen[h] = name
	}
	for img := range 3 {
		add(SceneColorHandle(img), fmt.Sprintf("scene %d", img))
		add(LightGridHandle(img), fmt.Sprintf("grid %d", img))
		for c := range light.MaxCascades {
			add(ShadowMapHandle(img, c), fmt.Sprintf("shadow %d/%d", img, c))
		}
	}
}

func TestPassesExecuteInOrder(t *testing.T) {
	backend, fs := newFrame(t)
	populate(t, backend, fs)
	passes := allPasses()

	require.NoError(t, run(t, backend, fs, passes...))

	names := make([]string, len(passes))
	for i, p := range passes {
		names[i] = p.Name()
		assert.Equal(t, PassStateCompiled, p.State(), p.Name())
	}
	assert.Equal(t, names, backend.SubmittedLabels())

	require.Len(t, backend.Submissions, len(passes))
	assert.Equal(t, []string{"acquired"}, backend.Submissions[0].Wait)
	for i := 1; i < len(passes); i++ {
		assert.Equal(t, []string{fmt.Sprintf("%s signal [0]", names[i-1])}, backend.Submissions[i].Wait)
	}
	assert.Equal(t, "fence", backend.Submissions[len(passes)-1].Fence)
}

func TestPassesOnlyRecompileOnChange(t *testing.T) {
	backend, fs := newFrame(t)
	populate(t, backend, fs)
	passes := allPasses()
	require.NoError(t, run(t, backend, fs, passes...))
	pipelines := backend.Created("pipeline")

	require.NoError(t, run(t, backend, fs, passes...))
	assert.Equal(t, pipelines, backend.Created("pipeline"))
	for _, p := range passes {
		assert.False(t, p.ShouldCompile(fs), p.Name())
	}

	fs.Viewport = common.Extent{Width: 128, Height: 96}
	require.NoError(t, fs.Ctx.Pool.Compile(fs.Viewport))
	for _, p := range passes {
		assert.True(t, p.ShouldCompile(fs), p.Name())
	}
	require.NoError(t, run(t, backend, fs, passes...))
	assert.Equal(t, 2*pipelines, backend.Created("pipeline"))
	assert.Equal(t, len(passes), backend.Live("pipeline"))
}

func TestShaderReloadMarksPassesStale(t *testing.T) {
	backend, fs := newFrame(t)
	populate(t, backend, fs)
	depth, final := NewDepthPass(), NewFinalPass()
	require.NoError(t, run(t, backend, fs, depth, final))

	invalidated := fs.Ctx.Shaders.Invalidate("common.wgsl")
	assert.Contains(t, invalidated, "depth.wgsl")
	assert.True(t, depth.ShouldCompile(fs))
	assert.False(t, final.ShouldCompile(fs))
}

func TestForwardInputsFollowShadowState(t *testing.T) {
	_, fs := newFrame(t)
	fwd := NewForwardPass()

	fwd.Prepare(fs)
	assert.Equal(t, 2, fwd.Inputs().Len())

	fs.Lights.Directional = &light.DirectionalLight{Direction: common.Vec3{0, -1, 0}}
	fs.ImageIndex = 1
	fwd.Prepare(fs)
	in := fwd.Inputs()
	assert.Equal(t, 2+light.MaxCascades, in.Len())
	assert.True(t, in.Contains(SceneColorHandle(1)))
	assert.True(t, in.Contains(LightGridHandle(1)))
	assert.True(t, in.Contains(ShadowMapHandle(1, 3)))
	assert.False(t, in.Contains(ShadowMapHandle(0, 0)))
	assert.True(t, fwd.Outputs().Contains(SceneColorHandle(1)))
}

func TestShadowPassPublishesCascades(t *testing.T) {
	backend, fs := newFrame(t)
	populate(t, backend, fs)
	shadow := NewShadowPass()
	require.NoError(t, run(t, backend, fs, shadow))

	assert.Equal(t, light.MaxCascades, shadow.Outputs().Len())
	for img := range 2 {
		for c := range light.MaxCascades {
			tex, ok := fs.Ctx.Pool.GetTexture(ShadowMapHandle(img, c))
			require.True(t, ok)
			assert.Equal(t, uint32(256), tex.Extent().Width)
		}
	}

	fs.Cascades.Count = 2
	assert.True(t, shadow.ShouldCompile(fs))
	shadow.Prepare(fs)
	assert.Equal(t, 2, shadow.Outputs().Len())

	liveBefore := backend.Live("texture")
	require.NoError(t, shadow.Compile(fs))
	assert.Equal(t, liveBefore-4, backend.Live("texture"))
	for img := range 2 {
		for c := range light.MaxCascades {
			_, ok := fs.Ctx.Pool.GetTexture(ShadowMapHandle(img, c))
			assert.Equal(t, c < 2, ok, "image %d cascade %d", img, c)
		}
	}
}

func TestForwardFailsWithoutLightGrid(t *testing.T) {
	backend, fs := newFrame(t)
	populate(t, backend, fs)
	fs.ShadowsEnabled = false

	err := run(t, backend, fs, NewDepthPass(), NewForwardPass())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "light grid")
	assert.Equal(t, []string{"depth"}, backend.SubmittedLabels())
}

func TestSkyboxRequiresCubemap(t *testing.T) {
	backend, fs := newFrame(t)
	sky := NewSkyboxPass()

	err := run(t, backend, fs, sky)
	require.ErrorIs(t, err, ErrNoSkybox)
	assert.Equal(t, PassStateCompiled, sky.State())

	fs.Lights.SetSkybox(resource_pool.MakeHandle(resource_pool.KindExternal, 9))
	require.ErrorIs(t, run(t, backend, fs, sky), ErrNoSkybox)
	assert.Empty(t, backend.Submissions)
}

func TestDepthPassRejectsMeshNotUploaded(t *testing.T) {
	backend, fs := newFrame(t)
	fs.DrawCommands = []render_context.DrawCommand{
		render_context.NewDrawCommand(common.Identity(), model.NewCube("lazy", 1), material.NewMaterial()),
	}

	err := run(t, backend, fs, NewDepthPass())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not uploaded")
}

func TestForwardUploadsMaterialsOnChange(t *testing.T) {
	backend, fs := newFrame(t)
	red, _ := populate(t, backend, fs)
	passes := []RenderPass{NewDepthPass(), NewLightCullPass(), NewShadowPass(), NewForwardPass()}
	label := "forward material red [0] binding 0"

	require.NoError(t, run(t, backend, fs, passes...))
	assert.Equal(t, 1, backend.Writes[label])

	fs.FrameNumber = 2
	require.NoError(t, run(t, backend, fs, passes...))
	assert.Equal(t, 1, backend.Writes[label])

	red.SetBaseColor([4]float32{1, 0, 0, 1})
	fs.FrameNumber = 4
	require.NoError(t, run(t, backend, fs, passes...))
	assert.Equal(t, 2, backend.Writes[label])
}

func TestForwardPrunesUnusedMaterials(t *testing.T) {
	backend, fs := newFrame(t)
	red, floor := populate(t, backend, fs)
	passes := []RenderPass{NewDepthPass(), NewLightCullPass(), NewShadowPass(), NewForwardPass()}
	fwd := passes[3].(*forwardPass)

	require.NoError(t, run(t, backend, fs, passes...))
	assert.Len(t, fwd.materials[0], 2)

	fs.DrawCommands = fs.DrawCommands[2:]
	fs.FrameNumber = 20
	require.NoError(t, run(t, backend, fs, passes...))
	assert.Len(t, fwd.materials[0], 1)
	assert.Contains(t, fwd.materials[0], floor.ID())
	assert.NotContains(t, fwd.materials[0], red.ID())
}

func TestDestroyReleasesEverything(t *testing.T) {
	backend, fs := newFrame(t)
	populate(t, backend, fs)
	passes := allPasses()
	require.NoError(t, run(t, backend, fs, passes...))
	require.Positive(t, fs.Ctx.Pool.Stats().Buffers)
	require.Positive(t, fs.Ctx.Pool.Stats().Textures)

	for _, p := range passes {
		p.Destroy(fs.Ctx)
		assert.Equal(t, PassStateEvicted, p.State())
		assert.True(t, p.ShouldCompile(fs))
	}

	assert.Equal(t, 0, backend.Live("pipeline"))
	assert.Equal(t, 0, backend.Live("bindgroup"))
	assert.Equal(t, 0, backend.Live("sampler"))
	// acquired semaphore only
	assert.Equal(t, 1, backend.Live("semaphore"))
	// cube and plane vertex and index buffers
	assert.Equal(t, 4, backend.Live("buffer"))
	stats := fs.Ctx.Pool.Stats()
	assert.Zero(t, stats.Buffers)
	assert.Zero(t, stats.Textures)
	assert.Equal(t, 1, stats.Cubemaps)
}
