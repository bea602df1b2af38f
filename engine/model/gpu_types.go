package model

import "github.com/Carmen-Shannon/oxy-framegraph/common"

// GPUVertexSize is the stride of one interleaved vertex: position, normal, uv.
const GPUVertexSize = 32

// Vertex is one mesh vertex in the layout every built-in pass reads.
type Vertex struct {
	Position common.Vec3
	Normal   common.Vec3
	UV       [2]float32
}

// Append appends the vertex as GPUVertexSize little-endian bytes.
func (v Vertex) Append(buf []byte) []byte {
	buf = common.AppendFloats(buf, v.Position[0], v.Position[1], v.Position[2])
	buf = common.AppendFloats(buf, v.Normal[0], v.Normal[1], v.Normal[2])
	return common.AppendFloats(buf, v.UV[0], v.UV[1])
}

// MarshalVertices serializes vertices into a vertex buffer payload.
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, 0, len(vertices)*GPUVertexSize)
	for _, v := range vertices {
		buf = v.Append(buf)
	}
	return buf
}

// MarshalIndices serializes indices into a uint32 index buffer payload.
func MarshalIndices(indices []uint32) []byte {
	return common.AppendUints(make([]byte, 0, len(indices)*4), indices...)
}
