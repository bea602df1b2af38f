package render_context

import (
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/model"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/material"
)

// DrawCommand is one visible mesh instance for the frame.
type DrawCommand struct {
	Transform common.Mat4
	Mesh      model.Model
	Material  material.Material
	// Bounds is the world-space bounding box.
	Bounds  common.AABB
	SortKey uint64
}

// SortKey packs a material id into the high 32 bits and a mesh id into the low 32 bits, so
// sorting by key groups draws by material first and mesh second.
//
// Parameters:
//   - materialID: the material id
//   - meshID: the mesh id
//
// Returns:
//   - uint64: the sort key
func SortKey(materialID, meshID uint32) uint64 {
	return uint64(materialID)<<32 | uint64(meshID)
}

// NewDrawCommand builds a DrawCommand for mesh drawn with mat at transform, computing the world
// bounds and the sort key.
//
// Parameters:
//   - transform: the model-to-world matrix
//   - mesh: the mesh
//   - mat: the material
//
// Returns:
//   - DrawCommand: the command
func NewDrawCommand(transform common.Mat4, mesh model.Model, mat material.Material) DrawCommand {
	return DrawCommand{
		Transform: transform,
		Mesh:      mesh,
		Material:  mat,
		Bounds:    mesh.Bounds().Transform(transform),
		SortKey:   SortKey(mat.ID(), mesh.ID()),
	}
}

// Batch is a run of consecutive draw commands sharing a mesh, and a material unless the run was
// built with MeshBatches. Start is the index of the first command, which is also its first
// instance index in the transforms buffer.
type Batch struct {
	Start int
	Count int
}

// Batches splits cmds into runs of equal sort keys.
func Batches(cmds []DrawCommand) []Batch {
	return batches(cmds, func(a, b DrawCommand) bool { return a.SortKey == b.SortKey })
}

// MeshBatches splits cmds into runs of equal meshes, for passes that ignore materials.
func MeshBatches(cmds []DrawCommand) []Batch {
	return batches(cmds, func(a, b DrawCommand) bool { return a.Mesh.ID() == b.Mesh.ID() })
}

func batches(cmds []DrawCommand, same func(a, b DrawCommand) bool) []Batch {
	var out []Batch
	for i := 0; i < len(cmds); {
		j := i + 1
		for j < len(cmds) && same(cmds[i], cmds[j]) {
			j++
		}
		out = append(out, Batch{Start: i, Count: j - i})
		i = j
	}
	return out
}

// MarshalTransforms serializes every command's transform as a storage array<mat4x4<f32>>.
// An empty list produces one identity matrix so the buffer is never zero-sized.
func MarshalTransforms(cmds []DrawCommand) []byte {
	if len(cmds) == 0 {
		return common.AppendMat4(nil, common.Identity())
	}
	buf := make([]byte, 0, len(cmds)*64)
	for _, c := range cmds {
		buf = common.AppendMat4(buf, c.Transform)
	}
	return buf
}

// MarshalBounds serializes every command's world bounds as a storage array of {min: vec4, max: vec4}.
func MarshalBounds(cmds []DrawCommand) []byte {
	if len(cmds) == 0 {
		return make([]byte, 32)
	}
	buf := make([]byte, 0, len(cmds)*32)
	for _, c := range cmds {
		buf = common.AppendFloats(buf, c.Bounds.Min[0], c.Bounds.Min[1], c.Bounds.Min[2], 1)
		buf = common.AppendFloats(buf, c.Bounds.Max[0], c.Bounds.Max[1], c.Bounds.Max[2], 1)
	}
	return buf
}
