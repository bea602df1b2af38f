package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCube(t *testing.T) {
	c := NewCube("cube", 2)
	assert.Equal(t, uint32(36), c.IndexCount())
	assert.Len(t, c.VertexData(), 24*GPUVertexSize)
	assert.Len(t, c.IndexData(), 36*4)
	bounds := c.Bounds()
	assert.InDeltaSlice(t, []float32{-1, -1, -1}, bounds.Min[:], 1e-6)
	assert.InDeltaSlice(t, []float32{1, 1, 1}, bounds.Max[:], 1e-6)
	assert.NotEqual(t, c.ID(), NewPlane("plane", 1).ID())
}

func TestModel_UploadOnce(t *testing.T) {
	b := renderertest.New(2, 8, 8)
	m := NewPlane("plane", 4)
	assert.Equal(t, common.Vec3{2, 0, 2}, m.Bounds().Max)

	require.NoError(t, m.Upload(b))
	require.NoError(t, m.Upload(b))
	assert.True(t, m.Uploaded())
	assert.Equal(t, 2, b.Created("buffer"))
	assert.Equal(t, 1, b.Writes["plane Vertices"])

	m.Release()
	assert.False(t, m.Uploaded())
	assert.Equal(t, 0, b.Live("buffer"))
}

func TestModel_UploadWithoutMesh(t *testing.T) {
	err := NewModel("empty").Upload(renderertest.New(2, 8, 8))
	assert.ErrorContains(t, err, "no mesh data")
}
