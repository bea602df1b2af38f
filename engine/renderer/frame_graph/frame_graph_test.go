package frame_graph

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/config"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/model"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noCompile(string) ([]byte, error) { return nil, nil }

var skyHandle = resource_pool.MakeHandle(resource_pool.KindExternal, 1)

func newFrame(t *testing.T) (*renderertest.Backend, *render_context.FrameState) {
	t.Helper()
	backend := renderertest.New(2, 64, 48)
	cfg := config.New(config.WithShadowMapResolution(128))
	ctx := render_context.NewRenderContext(backend, shader.NewLibrary(shader.WithCompiler(noCompile)), cfg)

	acquired, _ := backend.CreateSemaphore("acquired")
	fence, _ := backend.CreateFence("fence")
	sky, err := backend.CreateTexture(renderer.TextureDesc{Label: "sky", Width: 2, Height: 2, Cube: true})
	require.NoError(t, err)
	ctx.Pool.PutCubemap(skyHandle, sky)

	cube := model.NewCube("cube", 1)
	require.NoError(t, cube.Upload(backend))
	cmd := render_context.NewDrawCommand(common.Identity(), cube, material.NewMaterial())

	fs := &render_context.FrameState{
		Ctx:            ctx,
		Viewport:       backend.SurfaceExtent(),
		ImageAcquired:  acquired,
		Fence:          fence,
		DrawCommands:   []render_context.DrawCommand{cmd},
		ShadowCommands: []render_context.DrawCommand{cmd},
	}
	fs.Cascades.Count = light.MaxCascades
	return backend, fs
}

// everything turns on every optional pass.
func everything(fs *render_context.FrameState) {
	fs.ShadowsEnabled = true
	fs.Lights.Directional = &light.DirectionalLight{Direction: common.Vec3{0, -1, 0}, Intensity: 1}
	fs.Lights.SetSkybox(skyHandle)
	fs.Debug = true
	fs.ShowGrid = true
	fs.EditorPreview = false
}

func frame(t *testing.T, g FrameGraph, backend *renderertest.Backend, fs *render_context.FrameState) (renderer.Semaphore, renderer.Fence) {
	t.Helper()
	require.NoError(t, g.Setup(fs))
	require.NoError(t, g.Compile(fs))
	require.NoError(t, backend.AcquireNextImage(fs.ImageAcquired))
	last, fence, err := g.Execute(fs)
	require.NoError(t, err)
	fs.FrameNumber++
	return last, fence
}

func TestNewFrameGraphValidatesRegistry(t *testing.T) {
	_, fs := newFrame(t)

	missing := DefaultRegistry()
	delete(missing, render_pass.PassKindGrid)
	_, err := NewFrameGraph(fs.Ctx, WithRegistry(missing))
	require.ErrorIs(t, err, ErrUnknownPass)

	extra := DefaultRegistry()
	extra[render_pass.PassKind(99)] = render_pass.NewGridPass
	_, err = NewFrameGraph(fs.Ctx, WithRegistry(extra))
	require.ErrorIs(t, err, ErrUnknownPass)

	g, err := NewFrameGraph(fs.Ctx)
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestSetupOrderIsCausalAndDeterministic(t *testing.T) {
	_, fs := newFrame(t)
	everything(fs)
	g, err := NewFrameGraph(fs.Ctx)
	require.NoError(t, err)

	require.NoError(t, g.Setup(fs))
	first := g.Passes()
	assert.Equal(t, render_pass.AllPassKinds(), g.Kinds())

	require.NoError(t, g.Setup(fs))
	second := g.Passes()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Same(t, first[i], second[i])
	}
	assert.Equal(t, len(first), g.Stats().Instantiated)
}

func TestSetupSkipsOptionalPasses(t *testing.T) {
	_, fs := newFrame(t)
	fs.EditorPreview = true
	fs.ShadowsEnabled = true
	g, err := NewFrameGraph(fs.Ctx)
	require.NoError(t, err)

	require.NoError(t, g.Setup(fs))
	assert.Equal(t, []render_pass.PassKind{
		render_pass.PassKindDepth,
		render_pass.PassKindLightCull,
		render_pass.PassKindForward,
	}, g.Kinds())

	fs.Debug = true
	require.NoError(t, g.Setup(fs))
	assert.NotContains(t, g.Kinds(), render_pass.PassKindGrid)
	assert.Contains(t, g.Kinds(), render_pass.PassKindBoundingBox)
}

func TestPushIsIdempotent(t *testing.T) {
	_, fs := newFrame(t)
	fg, err := NewFrameGraph(fs.Ctx)
	require.NoError(t, err)
	g := fg.(*frameGraph)

	require.NoError(t, g.Setup(fs))
	n := len(g.Passes())
	require.NoError(t, g.push(fs, render_pass.PassKindForward))
	require.NoError(t, g.push(fs, render_pass.PassKindDepth))
	assert.Len(t, g.Passes(), n)
}

func TestProducersPrecedeConsumers(t *testing.T) {
	_, fs := newFrame(t)
	everything(fs)
	g, err := NewFrameGraph(fs.Ctx)
	require.NoError(t, err)
	require.NoError(t, g.Setup(fs))

	produced := map[resource_pool.Handle]bool{}
	for _, p := range g.Passes() {
		in := p.Inputs()
		for i := range in.Len() {
			dep := in.At(i)
			if dep.Handle.Kind() == resource_pool.KindExternal {
				continue
			}
			assert.True(t, produced[dep.Handle], "%s reads %s before anything wrote it", p.Name(), dep.Handle)
		}
		out := p.Outputs()
		for i := range out.Len() {
			produced[out.At(i).Handle] = true
		}
	}
}

func TestExecuteChainsSemaphores(t *testing.T) {
	backend, fs := newFrame(t)
	everything(fs)
	g, err := NewFrameGraph(fs.Ctx)
	require.NoError(t, err)

	last, fence := frame(t, g, backend, fs)
	require.Len(t, backend.Submissions, len(render_pass.AllPassKinds()))
	assert.Equal(t, []string{"acquired"}, backend.Submissions[0].Wait)
	for i := 1; i < len(backend.Submissions); i++ {
		prev := backend.Submissions[i-1].Signal
		assert.Equal(t, prev, backend.Submissions[i].Wait)
	}
	assert.Equal(t, "final signal [0]", last.Label())
	assert.Equal(t, "fence", fence.Label())
	require.NoError(t, backend.Present(last))

	assert.Empty(t, g.Passes())
	stats := g.Stats()
	assert.Equal(t, uint64(8), stats.Executed)
	assert.Equal(t, uint64(8), stats.Compiled)
}

func TestCompileOnlyWhenNeeded(t *testing.T) {
	backend, fs := newFrame(t)
	everything(fs)
	g, err := NewFrameGraph(fs.Ctx)
	require.NoError(t, err)

	frame(t, g, backend, fs)
	fs.ImageIndex = 1
	frame(t, g, backend, fs)
	assert.Equal(t, uint64(8), g.Stats().Compiled)

	fs.Viewport = common.Extent{Width: 32, Height: 32}
	frame(t, g, backend, fs)
	assert.Equal(t, uint64(16), g.Stats().Compiled)
	for i := range 2 {
		assert.Equal(t, fs.Viewport, fs.Ctx.Pool.DefaultFramebuffer(i).Extent())
	}
}

func TestCompileFailureAbortsFrame(t *testing.T) {
	backend, fs := newFrame(t)
	backend.FailPipelines = []string{"forward"}
	g, err := NewFrameGraph(fs.Ctx)
	require.NoError(t, err)

	require.NoError(t, g.Setup(fs))
	err = g.Compile(fs)
	require.ErrorIs(t, err, renderertest.ErrPipeline)
	assert.Contains(t, err.Error(), "frame_graph: compile forward")

	depth, _ := g.Pass(render_pass.PassKindDepth)
	forward, _ := g.Pass(render_pass.PassKindForward)
	assert.Equal(t, render_pass.PassStateCompiled, depth.State())
	assert.Equal(t, render_pass.PassStateUncompiled, forward.State())
}

func TestEvictionBoundary(t *testing.T) {
	backend, fs := newFrame(t)
	fs.Debug = true
	g, err := NewFrameGraph(fs.Ctx, WithEvictionThreshold(3))
	require.NoError(t, err)

	frame(t, g, backend, fs)
	_, ok := g.Pass(render_pass.PassKindBoundingBox)
	require.True(t, ok)

	fs.Debug = false
	idles := backend.WaitIdles
	for range 2 {
		frame(t, g, backend, fs)
		_, ok = g.Pass(render_pass.PassKindBoundingBox)
		assert.True(t, ok)
	}
	assert.Equal(t, idles, backend.WaitIdles)

	frame(t, g, backend, fs)
	_, ok = g.Pass(render_pass.PassKindBoundingBox)
	assert.False(t, ok)
	assert.Equal(t, idles+1, backend.WaitIdles)
	assert.Equal(t, uint64(1), g.Stats().Evicted)

	fs.Debug = true
	frame(t, g, backend, fs)
	bbox, ok := g.Pass(render_pass.PassKindBoundingBox)
	require.True(t, ok)
	assert.Equal(t, render_pass.PassStateCompiled, bbox.State())
}

func TestSelectedPassCounterResets(t *testing.T) {
	backend, fs := newFrame(t)
	g, err := NewFrameGraph(fs.Ctx, WithEvictionThreshold(2))
	require.NoError(t, err)

	for range 5 {
		fs.Debug = true
		frame(t, g, backend, fs)
		fs.Debug = false
		frame(t, g, backend, fs)
	}
	_, ok := g.Pass(render_pass.PassKindBoundingBox)
	assert.True(t, ok)
	assert.Zero(t, g.Stats().Evicted)
}

func TestReleaseDestroysPasses(t *testing.T) {
	backend, fs := newFrame(t)
	everything(fs)
	g, err := NewFrameGraph(fs.Ctx)
	require.NoError(t, err)
	frame(t, g, backend, fs)

	g.Release()
	assert.Zero(t, g.Stats().Instantiated)
	assert.Zero(t, backend.Live("pipeline"))
	assert.Zero(t, backend.Live("bindgroup"))
}
