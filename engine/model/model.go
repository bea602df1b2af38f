package model

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
)

var nextID atomic.Uint32

// model is the implementation of the Model interface.
type model struct {
	id                    uint32
	name                  string
	bounds                common.AABB
	vertexData, indexData []byte
	indexCount            uint32

	vertexBuffer, indexBuffer renderer.Buffer
}

// Model defines the interface for a GPU-ready mesh.
//
// The id forms the low half of a draw sort key. Bounds are in model space; the frame driver
// transforms them by the entity matrix for culling.
type Model interface {
	// ID retrieves the process-unique mesh id.
	//
	// Returns:
	//   - uint32: the id, never zero
	ID() uint32

	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Bounds returns the model-space bounding box of the vertices.
	//
	// Returns:
	//   - common.AABB: the bounds
	Bounds() common.AABB

	// VertexData returns the raw vertex data for this model's mesh.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the raw index data for this model's mesh.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// IndexCount returns the number of indices in the model's mesh.
	//
	// Returns:
	//   - uint32: the index count
	IndexCount() uint32

	// Upload creates the vertex and index buffers on backend. Uploading twice is a no-op.
	//
	// Parameters:
	//   - backend: the graphics backend
	//
	// Returns:
	//   - error: an error if a buffer could not be created or written
	Upload(backend renderer.GraphicsBackend) error

	// Uploaded reports whether the GPU buffers exist.
	Uploaded() bool

	// VertexBuffer returns the GPU vertex buffer, or nil before Upload.
	VertexBuffer() renderer.Buffer

	// IndexBuffer returns the GPU index buffer, or nil before Upload.
	IndexBuffer() renderer.Buffer

	// Release releases the GPU buffers.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model with the given options applied.
//
// Parameters:
//   - name: the model name
//   - opts: builder options
//
// Returns:
//   - Model: the new model
func NewModel(name string, opts ...ModelBuilderOption) Model {
	m := &model{
		id:   nextID.Add(1),
		name: name,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *model) ID() uint32 {
	return m.id
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Bounds() common.AABB {
	return m.bounds
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) IndexCount() uint32 {
	return m.indexCount
}

func (m *model) Uploaded() bool {
	return m.vertexBuffer != nil && m.indexBuffer != nil
}

func (m *model) VertexBuffer() renderer.Buffer {
	return m.vertexBuffer
}

func (m *model) IndexBuffer() renderer.Buffer {
	return m.indexBuffer
}

func (m *model) Upload(backend renderer.GraphicsBackend) error {
	if m.Uploaded() {
		return nil
	}
	if len(m.vertexData) == 0 || len(m.indexData) == 0 {
		return fmt.Errorf("model %s: no mesh data", m.name)
	}

	vb, err := backend.CreateBuffer(renderer.BufferDesc{
		Label: m.name + " Vertices",
		Size:  uint64(len(m.vertexData)),
		Usage: renderer.BufferUsageVertex | renderer.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("model %s: %w", m.name, err)
	}
	ib, err := backend.CreateBuffer(renderer.BufferDesc{
		Label: m.name + " Indices",
		Size:  uint64(len(m.indexData)),
		Usage: renderer.BufferUsageIndex | renderer.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return fmt.Errorf("model %s: %w", m.name, err)
	}
	if err := backend.WriteBuffer(vb, 0, m.vertexData); err != nil {
		vb.Release()
		ib.Release()
		return fmt.Errorf("model %s: %w", m.name, err)
	}
	if err := backend.WriteBuffer(ib, 0, m.indexData); err != nil {
		vb.Release()
		ib.Release()
		return fmt.Errorf("model %s: %w", m.name, err)
	}
	m.vertexBuffer, m.indexBuffer = vb, ib
	return nil
}

func (m *model) Release() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}
