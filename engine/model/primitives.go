package model

import "github.com/Carmen-Shannon/oxy-framegraph/common"

// NewCube creates an axis-aligned cube of edge length size centred on the origin, with
// per-face normals.
//
// Parameters:
//   - name: the model name
//   - size: the edge length
//
// Returns:
//   - Model: the cube
func NewCube(name string, size float32) Model {
	h := size / 2
	faces := []struct {
		normal, u, v common.Vec3
	}{
		{common.Vec3{1, 0, 0}, common.Vec3{0, 0, -1}, common.Vec3{0, 1, 0}},
		{common.Vec3{-1, 0, 0}, common.Vec3{0, 0, 1}, common.Vec3{0, 1, 0}},
		{common.Vec3{0, 1, 0}, common.Vec3{1, 0, 0}, common.Vec3{0, 0, -1}},
		{common.Vec3{0, -1, 0}, common.Vec3{1, 0, 0}, common.Vec3{0, 0, 1}},
		{common.Vec3{0, 0, 1}, common.Vec3{1, 0, 0}, common.Vec3{0, 1, 0}},
		{common.Vec3{0, 0, -1}, common.Vec3{-1, 0, 0}, common.Vec3{0, 1, 0}},
	}

	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		center := f.normal.Scale(h)
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := center.Add(f.u.Scale(c[0] * h)).Add(f.v.Scale(c[1] * h))
			vertices = append(vertices, Vertex{Position: p, Normal: f.normal, UV: [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2}})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewModel(name, WithMesh(vertices, indices))
}

// NewPlane creates a square on the y = 0 plane facing +Y.
//
// Parameters:
//   - name: the model name
//   - size: the edge length
//
// Returns:
//   - Model: the plane
func NewPlane(name string, size float32) Model {
	h := size / 2
	up := common.Vec3{0, 1, 0}
	vertices := []Vertex{
		{Position: common.Vec3{-h, 0, h}, Normal: up, UV: [2]float32{0, 1}},
		{Position: common.Vec3{h, 0, h}, Normal: up, UV: [2]float32{1, 1}},
		{Position: common.Vec3{h, 0, -h}, Normal: up, UV: [2]float32{1, 0}},
		{Position: common.Vec3{-h, 0, -h}, Normal: up, UV: [2]float32{0, 0}},
	}
	return NewModel(name, WithMesh(vertices, []uint32{0, 1, 2, 0, 2, 3}))
}
