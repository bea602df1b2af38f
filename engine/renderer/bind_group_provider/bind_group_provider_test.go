package bind_group_provider

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPipeline(t *testing.T, b *renderertest.Backend) renderer.Pipeline {
	t.Helper()
	p, err := b.CreatePipeline(renderer.PipelineDesc{
		Label:      "test",
		BindGroups: [][]renderer.Binding{{{Binding: 0}}, {{Binding: 0}, {Binding: 1}}},
	})
	require.NoError(t, err)
	return p
}

func TestReserveGrowsStorageToPowerOfTwo(t *testing.T) {
	b := renderertest.New(2, 8, 8)
	p := NewBindGroupProvider("transforms")

	created, err := p.Reserve(b, 0, 100, renderer.BufferUsageStorage)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(128), p.Buffer(0).Size())

	created, err = p.Reserve(b, 0, 128, renderer.BufferUsageStorage)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = p.Reserve(b, 0, 129, renderer.BufferUsageStorage)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(256), p.Buffer(0).Size())
	assert.Equal(t, 1, b.Live("buffer"))
}

func TestBindRebuildsOnlyWhenDirty(t *testing.T) {
	b := renderertest.New(2, 8, 8)
	pipe := testPipeline(t, b)
	p := NewBindGroupProvider("camera", WithGroup(1))

	_, err := p.Reserve(b, 0, 64, renderer.BufferUsageUniform)
	require.NoError(t, err)
	tex, err := b.CreateTexture(renderer.TextureDesc{Label: "t", Width: 4, Height: 4})
	require.NoError(t, err)
	p.SetTexture(1, tex)

	bg1, err := p.Bind(b, pipe)
	require.NoError(t, err)
	bg2, err := p.Bind(b, pipe)
	require.NoError(t, err)
	assert.Same(t, bg1, bg2)
	assert.Equal(t, 1, b.Created("bindgroup"))

	p.SetTexture(1, tex)
	_, err = p.Bind(b, pipe)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Created("bindgroup"))

	_, err = p.Reserve(b, 0, 1024, renderer.BufferUsageUniform)
	require.NoError(t, err)
	_, err = p.Bind(b, pipe)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Created("bindgroup"))
	assert.Equal(t, 1, b.Live("bindgroup"))

	p.Release()
	assert.Equal(t, 0, b.Live("bindgroup"))
	assert.Equal(t, 0, b.Live("buffer"))
	assert.Equal(t, 1, b.Live("texture"))
}

func TestFlushJoinsErrors(t *testing.T) {
	b := renderertest.New(2, 8, 8)
	ps := NewPerImage("lights", 2)
	_, err := ps[0].Reserve(b, 0, 16, renderer.BufferUsageUniform)
	require.NoError(t, err)

	err = Flush(b,
		BufferWrite{Provider: ps[0], Binding: 0, Data: make([]byte, 16)},
		BufferWrite{Provider: ps[1], Binding: 0, Data: make([]byte, 16)},
	)
	assert.ErrorContains(t, err, "lights [1]")
	assert.Equal(t, 1, b.Writes["lights [0] binding 0"])

	ReleaseAll(ps)
	assert.Equal(t, 0, b.Live("buffer"))
}

func TestBorrowedBufferIsBoundButNotReleased(t *testing.T) {
	b := renderertest.New(2, 8, 8)
	pipe := testPipeline(t, b)
	buf, err := b.CreateBuffer(renderer.BufferDesc{Label: "grid", Size: 64, Usage: renderer.BufferUsageStorage})
	require.NoError(t, err)

	p := NewBindGroupProvider("lights")
	p.SetBuffer(0, buf)
	assert.Same(t, buf, p.Buffer(0))

	_, err = p.Bind(b, pipe)
	require.NoError(t, err)
	_, err = p.Bind(b, pipe)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Created("bindgroup"))

	p.SetBuffer(0, buf)
	_, err = p.Bind(b, pipe)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Created("bindgroup"), "rebinding the same buffer keeps the bind group")

	p.Release()
	assert.Equal(t, 1, b.Live("buffer"))
	assert.Equal(t, 0, b.Live("bindgroup"))
}
