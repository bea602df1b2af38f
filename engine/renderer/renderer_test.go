package renderer_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackendType(t *testing.T) {
	bt, err := renderer.ParseBackendType("WebGPU")
	require.NoError(t, err)
	assert.Equal(t, renderer.BackendTypeWGPU, bt)

	bt, err = renderer.ParseBackendType(" vulkan ")
	require.NoError(t, err)
	assert.Equal(t, renderer.BackendTypeVulkan, bt)

	_, err = renderer.ParseBackendType("metal")
	assert.ErrorIs(t, err, renderer.ErrUnsupportedBackend)
}

func TestNewGraphicsBackend_Unsupported(t *testing.T) {
	b, err := renderer.NewGraphicsBackend(renderer.BackendTypeVulkan)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, renderer.ErrUnsupportedBackend)
	assert.Contains(t, err.Error(), "vulkan")
}

func TestNewGraphicsBackend_SurfaceRequired(t *testing.T) {
	b, err := renderer.NewGraphicsBackend(renderer.BackendTypeWGPU)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, renderer.ErrSurfaceRequired)
}

func TestParsePresentMode(t *testing.T) {
	assert.Equal(t, renderer.PresentModeUncapped, renderer.ParsePresentMode("Uncapped"))
	assert.Equal(t, renderer.PresentModeVSync, renderer.ParsePresentMode("vsync"))
	assert.Equal(t, renderer.PresentModeVSync, renderer.ParsePresentMode("bogus"))
}

func TestSemaphoreSignalConsumedByWait(t *testing.T) {
	b := renderertest.New(2, 64, 64)
	a, _ := b.CreateSemaphore("a")
	s, _ := b.CreateSemaphore("b")

	err := b.Submit(renderer.SubmitInfo{Wait: []renderer.Semaphore{a}})
	assert.ErrorIs(t, err, renderer.ErrSemaphoreNotSignaled)

	require.NoError(t, b.AcquireNextImage(a))
	require.NoError(t, b.Submit(renderer.SubmitInfo{Wait: []renderer.Semaphore{a}, Signal: []renderer.Semaphore{s}}))
	require.NoError(t, b.Present(s))
	assert.ErrorIs(t, b.Present(s), renderer.ErrSemaphoreNotSignaled)
	assert.Equal(t, []string{"b"}, b.Presents)
}

func TestFramebufferReleaseReleasesAttachments(t *testing.T) {
	b := renderertest.New(2, 64, 64)
	fb, err := b.CreateFramebuffer(renderer.FramebufferDesc{
		Label:        "fb",
		Width:        64,
		Height:       32,
		ColorFormats: []renderer.TextureFormat{renderer.TextureFormatRGBA8Unorm},
		DepthFormat:  renderer.TextureFormatDepth32Float,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Live("texture"))
	assert.Equal(t, uint32(32), fb.Color(0).Extent().Height)
	assert.True(t, fb.Depth().Format().IsDepth())
	assert.Nil(t, fb.Color(1))

	fb.Release()
	fb.Release()
	assert.Equal(t, 0, b.Live("texture"))
	assert.Equal(t, 0, b.Live("framebuffer"))
}
