package world_renderer

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/camera"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/config"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/game_object"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/model"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noCompile(string) ([]byte, error) { return nil, nil }

var skyHandle = resource_pool.MakeHandle(resource_pool.KindExternal, 1)

func newContext(t *testing.T, backend *renderertest.Backend, opts ...config.ConfigBuilderOption) *render_context.RenderContext {
	t.Helper()
	opts = append([]config.ConfigBuilderOption{
		config.WithShadowMapResolution(128),
		config.WithCulling(2, 8),
	}, opts...)
	return render_context.NewRenderContext(backend, shader.NewLibrary(shader.WithCompiler(noCompile)), config.New(opts...))
}

func editorCamera() camera.Camera {
	cam := camera.NewCamera(camera.WithController(camera.NewCameraController(camera.WithPosition(common.Vec3{0, 10, 40}))))
	cam.Controller().LookAt(common.Vec3{})
	return cam
}

// gridObjects lays out n unit cubes on a 10-wide grid around the origin. Only the first casters
// objects cast shadows, and the two materials alternate.
func gridObjects(n, casters int) []game_object.GameObject {
	cube := model.NewCube("cube", 1)
	mats := []material.Material{
		material.NewMaterial(material.WithName("a")),
		material.NewMaterial(material.WithName("b")),
	}
	objs := make([]game_object.GameObject, n)
	for i := range n {
		objs[i] = game_object.NewGameObject(
			game_object.WithModel(cube),
			game_object.WithMaterial(mats[i%2]),
			game_object.WithPosition(float32(i%10)*2-9, 0, float32(i/10)*2-4),
			game_object.WithCastShadows(i < casters),
		)
	}
	return objs
}

// fiftyMeshScene builds one directional light, a bound skybox and fifty meshes of which ten
// do not cast shadows.
func fiftyMeshScene(t *testing.T, backend *renderertest.Backend, ctx *render_context.RenderContext) scene.Scene {
	t.Helper()
	sky, err := backend.CreateTexture(renderer.TextureDesc{Label: "sky", Width: 2, Height: 2, Cube: true})
	require.NoError(t, err)
	ctx.Pool.PutCubemap(skyHandle, sky)

	return scene.NewScene("fifty",
		scene.WithObjects(gridObjects(50, 40)...),
		scene.WithLights(light.NewLight(light.LightTypeDirectional, light.WithDirection(-0.3, -1, -0.2))),
		scene.WithSkybox(skyHandle),
	)
}

func TestNewWorldRendererRequiresScene(t *testing.T) {
	backend := renderertest.New(2, 64, 48)
	_, err := NewWorldRenderer(newContext(t, backend))
	require.ErrorIs(t, err, ErrSceneRequired)
}

func TestEditorPreviewFrame(t *testing.T) {
	backend := renderertest.New(2, 64, 48)
	ctx := newContext(t, backend, config.WithEditorPreview(true), config.WithDebug(false))
	w, err := NewWorldRenderer(ctx,
		WithScene(fiftyMeshScene(t, backend, ctx)),
		WithEditorCamera(editorCamera()),
		WithEditorMode(true),
	)
	require.NoError(t, err)
	defer w.Release()

	require.NoError(t, w.Render(context.Background()))

	assert.Len(t, w.DrawCommands(), 50)
	assert.Len(t, w.ShadowsDrawCommands(), 40)
	assert.Equal(t, []render_pass.PassKind{
		render_pass.PassKindDepth,
		render_pass.PassKindLightCull,
		render_pass.PassKindShadow,
		render_pass.PassKindForward,
		render_pass.PassKindSkybox,
	}, w.Passes())

	assert.Zero(t, backend.Acquires)
	assert.Empty(t, backend.Presents)
	assert.Equal(t, uint64(1), w.FrameNumber())

	fb := w.GetFramebuffer()
	require.NotNil(t, fb)
	assert.Equal(t, backend.SurfaceExtent(), fb.Extent())
}

func TestPresentingFramesChainAcrossImages(t *testing.T) {
	backend := renderertest.New(2, 64, 48)
	ctx := newContext(t, backend)
	w, err := NewWorldRenderer(ctx, WithScene(fiftyMeshScene(t, backend, ctx)), WithEditorCamera(editorCamera()))
	require.NoError(t, err)
	defer w.Release()

	for range 3 {
		require.NoError(t, w.Render(context.Background()))
		passes := w.Passes()
		assert.Equal(t, render_pass.PassKindFinal, passes[len(passes)-1])
	}
	assert.Equal(t, 3, backend.Acquires)
	assert.Equal(t, []string{"final signal [0]", "final signal [1]", "final signal [0]"}, backend.Presents)
}

func TestShadowsToggle(t *testing.T) {
	backend := renderertest.New(2, 64, 48)
	ctx := newContext(t, backend, config.WithEditorPreview(true))
	w, err := NewWorldRenderer(ctx, WithScene(fiftyMeshScene(t, backend, ctx)), WithEditorCamera(editorCamera()))
	require.NoError(t, err)
	defer w.Release()

	assert.True(t, w.ShadowsEnabled())
	w.SetShadowsEnabled(false)
	require.NoError(t, w.Render(context.Background()))
	assert.NotContains(t, w.Passes(), render_pass.PassKindShadow)

	w.SetShadowsEnabled(true)
	require.NoError(t, w.Render(context.Background()))
	assert.Contains(t, w.Passes(), render_pass.PassKindShadow)
}

func TestDebugOverlays(t *testing.T) {
	backend := renderertest.New(2, 64, 48)
	ctx := newContext(t, backend, config.WithEditorPreview(true), config.WithDebug(true))
	w, err := NewWorldRenderer(ctx, WithScene(fiftyMeshScene(t, backend, ctx)), WithEditorCamera(editorCamera()))
	require.NoError(t, err)
	defer w.Release()

	require.NoError(t, w.Render(context.Background()))
	assert.Contains(t, w.Passes(), render_pass.PassKindBoundingBox)
	assert.NotContains(t, w.Passes(), render_pass.PassKindGrid)

	w.SetShowGrid(true)
	assert.True(t, w.ShowGrid())
	require.NoError(t, w.Render(context.Background()))
	assert.Contains(t, w.Passes(), render_pass.PassKindGrid)
}

func TestSubmitInjectsForOneFrame(t *testing.T) {
	backend := renderertest.New(2, 64, 48)
	ctx := newContext(t, backend, config.WithEditorPreview(true))
	w, err := NewWorldRenderer(ctx, WithScene(scene.NewScene("empty")), WithEditorCamera(editorCamera()))
	require.NoError(t, err)
	defer w.Release()

	plane := model.NewPlane("plane", 4)
	dc := render_context.NewDrawCommand(common.Identity(), plane, material.NewMaterial())
	w.Submit(dc, true)
	w.Submit(dc, false)

	require.NoError(t, w.Render(context.Background()))
	assert.Len(t, w.DrawCommands(), 2)
	assert.Len(t, w.ShadowsDrawCommands(), 1)
	assert.True(t, plane.Uploaded())

	require.NoError(t, w.Render(context.Background()))
	assert.Empty(t, w.DrawCommands())
}

func TestPlayModeUsesActiveCamera(t *testing.T) {
	backend := renderertest.New(2, 64, 48)
	ctx := newContext(t, backend, config.WithEditorPreview(true))

	// The play camera looks away from every object.
	playCam := camera.NewCamera()
	holder := game_object.NewGameObject(game_object.WithPosition(0, 0, 100), game_object.WithCamera(playCam))
	s := scene.NewScene("play", scene.WithObjects(gridObjects(10, 10)...))
	s.SetActiveCamera(s.Add(holder))
	playCam.Controller().LookAt(common.Vec3{0, 0, 200})

	w, err := NewWorldRenderer(ctx, WithScene(s), WithEditorCamera(editorCamera()))
	require.NoError(t, err)
	defer w.Release()

	require.NoError(t, w.Render(context.Background()))
	assert.Empty(t, w.DrawCommands())

	editorCtx := newContext(t, renderertest.New(2, 64, 48), config.WithEditorPreview(true))
	editor, err := NewWorldRenderer(editorCtx, WithScene(s), WithEditorCamera(editorCamera()), WithEditorMode(true))
	require.NoError(t, err)
	defer editor.Release()
	require.NoError(t, editor.Render(context.Background()))
	assert.Len(t, editor.DrawCommands(), 10)
}

func TestPointLightCap(t *testing.T) {
	backend := renderertest.New(2, 64, 48)
	ctx := newContext(t, backend, config.WithEditorPreview(true), config.WithMaxPointLights(2))

	lamps := []light.Light{
		light.NewLight(light.LightTypePoint, light.WithOffset(1, 0, 0)),
		light.NewLight(light.LightTypePoint, light.WithEnabled(false)),
		light.NewLight(light.LightTypePoint, light.WithOffset(2, 0, 0)),
		light.NewLight(light.LightTypePoint, light.WithOffset(3, 0, 0)),
	}
	carrier := game_object.NewGameObject(game_object.WithPosition(5, 0, 0),
		game_object.WithLight(light.NewLight(light.LightTypeDirectional)))
	s := scene.NewScene("lamps", scene.WithLights(lamps...), scene.WithObjects(carrier))

	wr, err := NewWorldRenderer(ctx, WithScene(s))
	require.NoError(t, err)
	defer wr.Release()

	fs := &render_context.FrameState{Ctx: ctx}
	wr.(*worldRenderer).collectLights(fs)
	require.Len(t, fs.Lights.PointLights, 2)
	assert.Equal(t, common.Vec3{1, 0, 0}, fs.Lights.PointLights[0].Position)
	assert.Equal(t, common.Vec3{2, 0, 0}, fs.Lights.PointLights[1].Position)
	assert.NotNil(t, fs.Lights.Directional)
	_, ok := fs.Lights.Skybox()
	assert.False(t, ok)
}

func TestResize(t *testing.T) {
	backend := renderertest.New(2, 64, 48)
	ctx := newContext(t, backend)
	s := scene.NewScene("resize", scene.WithObjects(gridObjects(4, 4)...))
	w, err := NewWorldRenderer(ctx, WithScene(s), WithEditorCamera(editorCamera()))
	require.NoError(t, err)
	defer w.Release()

	require.NoError(t, w.Render(context.Background()))

	next := common.Extent{Width: 32, Height: 32}
	w.Resize(next)
	w.Resize(common.Extent{})
	assert.Equal(t, []common.Extent{next}, backend.Resizes)
	assert.Equal(t, next, s.ViewportSize())

	require.NoError(t, w.Render(context.Background()))
	for i := range backend.FramesInFlight() {
		assert.Equal(t, next, ctx.Pool.DefaultFramebuffer(i).Color(0).Extent())
	}
}

func TestRenderSkipsEmptyViewportAndHonoursContext(t *testing.T) {
	backend := renderertest.New(2, 0, 0)
	ctx := newContext(t, backend)
	w, err := NewWorldRenderer(ctx, WithScene(scene.NewScene("empty")))
	require.NoError(t, err)
	defer w.Release()

	require.NoError(t, w.Render(context.Background()))
	assert.Zero(t, w.FrameNumber())
	assert.Empty(t, backend.Submissions)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, w.Render(cancelled), context.Canceled)
}

func TestReleaseFreesSynchronization(t *testing.T) {
	backend := renderertest.New(2, 64, 48)
	ctx := newContext(t, backend, config.WithEditorPreview(true))
	w, err := NewWorldRenderer(ctx, WithScene(scene.NewScene("empty")))
	require.NoError(t, err)
	require.NoError(t, w.Render(context.Background()))

	w.Release()
	assert.Zero(t, backend.Live("semaphore"))
	assert.Zero(t, backend.Live("fence"))
	assert.Zero(t, backend.Live("pipeline"))
}
