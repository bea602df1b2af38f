package engine

import (
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/camera"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/config"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/game_object"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/model"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noCompile(string) ([]byte, error) { return nil, nil }

func headless(t *testing.T, opts ...EngineBuilderOption) (*engine, *renderertest.Backend) {
	t.Helper()
	backend := renderertest.New(2, 64, 48)
	opts = append([]EngineBuilderOption{
		WithBackend(backend),
		WithShaderLibrary(shader.NewLibrary(shader.WithCompiler(noCompile))),
		WithConfig(config.New(config.WithEditorPreview(true), config.WithLogLevel("error"))),
	}, opts...)
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { common.SetLogger(nil) })
	return e.(*engine), backend
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	_, err := NewEngine(WithConfig(config.RendererConfig{}))
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewEngineDefaults(t *testing.T) {
	e, backend := headless(t)
	defer e.Release()

	assert.Nil(t, e.Window())
	require.NotNil(t, e.Scene())
	assert.Equal(t, backend.SurfaceExtent(), e.Scene().ViewportSize())
	assert.NotNil(t, e.EditorCamera())
	assert.NotNil(t, e.WorldRenderer())
	assert.Same(t, e.render, e.RenderContext())
	assert.True(t, e.Config().EditorPreview)
}

func TestRunRendersUntilQuit(t *testing.T) {
	cube := model.NewCube("cube", 1)
	s := scene.NewScene("run",
		scene.WithObjects(game_object.NewGameObject(
			game_object.WithModel(cube),
			game_object.WithMaterial(material.NewMaterial()),
			game_object.WithPosition(0, 0, -5),
		)),
		scene.WithLights(light.NewLight(light.LightTypeDirectional)),
	)
	e, backend := headless(t, WithScene(s), WithEditorMode(true), WithProfiling(true))
	defer e.Release()

	var frames atomic.Int32
	e.SetRenderCallback(func(float32) {
		if frames.Add(1) == 3 {
			e.Quit()
		}
	})

	require.NoError(t, e.Run())
	assert.GreaterOrEqual(t, frames.Load(), int32(3))
	assert.GreaterOrEqual(t, e.WorldRenderer().FrameNumber(), uint64(3))
	assert.NotEmpty(t, backend.Submissions)
	assert.True(t, cube.Uploaded())
}

func TestResizeRequestsKeepNewest(t *testing.T) {
	e, _ := headless(t)
	defer e.Release()

	e.requestResize(common.Extent{Width: 10, Height: 10})
	e.requestResize(common.Extent{Width: 20, Height: 30})
	assert.Equal(t, common.Extent{Width: 20, Height: 30}, <-e.resizeCh)
	assert.Empty(t, e.resizeCh)
}

func TestInputDrivesCameraAndToggles(t *testing.T) {
	e, _ := headless(t)
	defer e.Release()

	cam := camera.NewCamera()
	ctrl := cam.Controller()
	start := ctrl.Position()

	in := newInputState()
	in.key(common.KeyW, true)
	in.key(common.KeyG, true)
	in.key(common.KeyB, true)
	in.key(common.KeyTab, true)
	in.apply(1, cam, e.world)

	moved := ctrl.Position().Sub(start)
	assert.InDelta(t, ctrl.MoveSpeed(), moved.Length(), 1e-4)
	assert.True(t, e.world.ShowGrid())
	assert.False(t, e.world.ShadowsEnabled())
	assert.True(t, e.world.EditorMode())

	// Held keys toggle once.
	in.key(common.KeyG, true)
	in.apply(0, cam, e.world)
	assert.True(t, e.world.ShowGrid())

	in.key(common.KeyW, false)
	before := ctrl.Position()
	in.look(100, 0)
	in.apply(1, cam, e.world)
	assert.Equal(t, before, ctrl.Position())
	assert.NotZero(t, ctrl.Yaw())
}

func TestSetTickRateBeforeRun(t *testing.T) {
	e, _ := headless(t)
	defer e.Release()

	e.SetTickRate(30)
	assert.InDelta(t, 1.0/30, e.engineTickRate.Seconds(), 1e-6)
	e.SetTickRate(0)
	assert.InDelta(t, 1.0/60, e.engineTickRate.Seconds(), 1e-6)

	e.SetRenderFrameLimit(120)
	assert.InDelta(t, 1.0/120, e.renderFrameLimit.Seconds(), 1e-6)
	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.renderFrameLimit)
}
