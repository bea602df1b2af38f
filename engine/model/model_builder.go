package model

import (
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/chewxy/math32"
)

// ModelBuilderOption is a functional option used to configure a Model during construction.
type ModelBuilderOption func(*model)

// WithMesh sets the vertices and triangle indices and computes the model-space bounds.
//
// Parameters:
//   - vertices: the mesh vertices
//   - indices: triangle list indices into vertices
//
// Returns:
//   - ModelBuilderOption: a function that sets the mesh data
func WithMesh(vertices []Vertex, indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.vertexData = MarshalVertices(vertices)
		m.indexData = MarshalIndices(indices)
		m.indexCount = uint32(len(indices))
		m.bounds = computeBounds(vertices)
	}
}

// WithBounds overrides the computed bounds.
//
// Parameters:
//   - bounds: the model-space bounds
//
// Returns:
//   - ModelBuilderOption: a function that sets the bounds
func WithBounds(bounds common.AABB) ModelBuilderOption {
	return func(m *model) {
		m.bounds = bounds
	}
}

func computeBounds(vertices []Vertex) common.AABB {
	if len(vertices) == 0 {
		return common.AABB{}
	}
	b := common.AABB{
		Min: common.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: common.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
	for _, v := range vertices {
		for i := range 3 {
			b.Min[i] = math32.Min(b.Min[i], v.Position[i])
			b.Max[i] = math32.Max(b.Max[i], v.Position[i])
		}
	}
	return b
}
