package bind_group_provider

import (
	"fmt"
	"math/bits"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
)

// bufferSlot is an owned buffer bound at one binding.
type bufferSlot struct {
	buffer renderer.Buffer
	usage  renderer.BufferUsage
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string
	// group is the bind group index within the pipeline layout.
	group uint32

	// buffers holds the buffers owned by this provider, keyed by binding index.
	buffers map[int]*bufferSlot
	// borrowed holds buffers owned elsewhere, typically by the resource pool.
	borrowed map[int]renderer.Buffer
	// textures holds borrowed textures keyed by binding index. They are released by their owner.
	textures map[int]renderer.Texture
	// samplers holds borrowed samplers keyed by binding index.
	samplers map[int]renderer.Sampler

	// bindGroup is rebuilt whenever a binding changes or the pipeline it was built for changes.
	bindGroup renderer.BindGroup
	pipeline  renderer.Pipeline
	dirty     bool
}

// BindGroupProvider owns the buffers of one bind group and rebuilds the backend bind group when a
// binding changes. Passes hold one provider per in-flight image so a frame never writes a buffer
// the GPU may still be reading.
//
// Usage pattern:
//  1. Pass creates a provider with NewBindGroupProvider and the group index
//  2. Pass calls Reserve for every buffer binding, and SetTexture/SetSampler for borrowed resources
//  3. Pass writes data with Write or Flush
//  4. Pass calls Bind with the compiled pipeline and sets the returned bind group
type BindGroupProvider interface {
	// Release releases the owned buffers and the bind group. Borrowed buffers, textures and samplers are untouched.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Group returns the bind group index this provider fills.
	Group() uint32

	// Buffer returns the owned buffer at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - renderer.Buffer: the buffer or nil
	Buffer(binding int) renderer.Buffer

	// Reserve makes sure binding has a buffer of at least size bytes. A buffer that is too small
	// is replaced by one whose size is the next power of two, which invalidates the bind group.
	//
	// Parameters:
	//   - backend: the graphics backend
	//   - binding: the binding index
	//   - size: the minimum size in bytes
	//   - usage: the buffer usage flags
	//
	// Returns:
	//   - bool: true if a new buffer was created
	//   - error: an error if the buffer could not be created
	Reserve(backend renderer.GraphicsBackend, binding int, size uint64, usage renderer.BufferUsage) (bool, error)

	// Write uploads data into the buffer at binding.
	//
	// Parameters:
	//   - backend: the graphics backend
	//   - binding: the binding index
	//   - offset: the byte offset
	//   - data: the bytes to upload
	//
	// Returns:
	//   - error: an error if binding has no buffer or the write overflows it
	Write(backend renderer.GraphicsBackend, binding int, offset uint64, data []byte) error

	// SetBuffer binds a borrowed buffer, such as one produced by an earlier pass into the resource
	// pool. Binding a different buffer invalidates the bind group. The provider never releases it.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the borrowed buffer
	SetBuffer(binding int, buf renderer.Buffer)

	// SetTexture binds a borrowed texture. Binding a different texture invalidates the bind group.
	SetTexture(binding int, tex renderer.Texture)

	// SetSampler binds a borrowed sampler. Binding a different sampler invalidates the bind group.
	SetSampler(binding int, s renderer.Sampler)

	// Bind returns a bind group for pipeline, creating it when missing, invalidated, or built for
	// a different pipeline.
	//
	// Parameters:
	//   - backend: the graphics backend
	//   - pipeline: the pipeline whose layout the group is built against
	//
	// Returns:
	//   - renderer.BindGroup: the bind group
	//   - error: an error if the backend rejected the bind group
	Bind(backend renderer.GraphicsBackend, pipeline renderer.Pipeline) (renderer.BindGroup, error)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the given options applied.
//
// Parameters:
//   - label: the debug label
//   - opts: builder options
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, opts ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:    label,
		buffers:  make(map[int]*bufferSlot),
		borrowed: make(map[int]renderer.Buffer),
		textures: make(map[int]renderer.Texture),
		samplers: make(map[int]renderer.Sampler),
		dirty:    true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPerImage creates n providers labelled "<label> [i]" with the same options.
//
// Parameters:
//   - label: the base debug label
//   - n: the number of in-flight images
//   - opts: builder options applied to every provider
//
// Returns:
//   - []BindGroupProvider: one provider per image
func NewPerImage(label string, n int, opts ...BindGroupProviderOption) []BindGroupProvider {
	out := make([]BindGroupProvider, n)
	for i := range out {
		out[i] = NewBindGroupProvider(fmt.Sprintf("%s [%d]", label, i), opts...)
	}
	return out
}

// ReleaseAll releases every provider in ps.
func ReleaseAll(ps []BindGroupProvider) {
	for _, p := range ps {
		if p != nil {
			p.Release()
		}
	}
}

func (p *bindGroupProvider) Release() {
	for _, slot := range p.buffers {
		slot.buffer.Release()
	}
	clear(p.buffers)
	p.releaseBindGroup()
}

func (p *bindGroupProvider) releaseBindGroup() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.pipeline = nil
	p.dirty = true
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() uint32 {
	return p.group
}

func (p *bindGroupProvider) Buffer(binding int) renderer.Buffer {
	if slot, ok := p.buffers[binding]; ok {
		return slot.buffer
	}
	return p.borrowed[binding]
}

func (p *bindGroupProvider) Reserve(backend renderer.GraphicsBackend, binding int, size uint64, usage renderer.BufferUsage) (bool, error) {
	size = max(size, 16)
	if slot, ok := p.buffers[binding]; ok && slot.buffer.Size() >= size && slot.usage == usage {
		return false, nil
	}

	alloc := size
	if usage&renderer.BufferUsageStorage != 0 {
		alloc = 1 << bits.Len64(size-1)
	}
	buf, err := backend.CreateBuffer(renderer.BufferDesc{
		Label: fmt.Sprintf("%s binding %d", p.label, binding),
		Size:  alloc,
		Usage: usage | renderer.BufferUsageCopyDst,
	})
	if err != nil {
		return false, fmt.Errorf("bind group provider %s: %w", p.label, err)
	}
	if old, ok := p.buffers[binding]; ok {
		old.buffer.Release()
	}
	p.buffers[binding] = &bufferSlot{buffer: buf, usage: usage}
	p.dirty = true
	return true, nil
}

func (p *bindGroupProvider) Write(backend renderer.GraphicsBackend, binding int, offset uint64, data []byte) error {
	slot, ok := p.buffers[binding]
	if !ok {
		return fmt.Errorf("bind group provider %s: binding %d has no buffer", p.label, binding)
	}
	if len(data) == 0 {
		return nil
	}
	return backend.WriteBuffer(slot.buffer, offset, data)
}

func (p *bindGroupProvider) SetBuffer(binding int, buf renderer.Buffer) {
	if p.borrowed[binding] != buf {
		p.borrowed[binding] = buf
		p.dirty = true
	}
}

func (p *bindGroupProvider) SetTexture(binding int, tex renderer.Texture) {
	if p.textures[binding] != tex {
		p.textures[binding] = tex
		p.dirty = true
	}
}

func (p *bindGroupProvider) SetSampler(binding int, s renderer.Sampler) {
	if p.samplers[binding] != s {
		p.samplers[binding] = s
		p.dirty = true
	}
}

func (p *bindGroupProvider) Bind(backend renderer.GraphicsBackend, pipeline renderer.Pipeline) (renderer.BindGroup, error) {
	if !p.dirty && p.bindGroup != nil && p.pipeline == pipeline {
		return p.bindGroup, nil
	}

	entries := make([]renderer.BindGroupEntry, 0, len(p.buffers)+len(p.borrowed)+len(p.textures)+len(p.samplers))
	for binding, slot := range p.buffers {
		entries = append(entries, renderer.BindGroupEntry{Binding: uint32(binding), Buffer: slot.buffer})
	}
	for binding, buf := range p.borrowed {
		entries = append(entries, renderer.BindGroupEntry{Binding: uint32(binding), Buffer: buf})
	}
	for binding, tex := range p.textures {
		entries = append(entries, renderer.BindGroupEntry{Binding: uint32(binding), Texture: tex})
	}
	for binding, s := range p.samplers {
		entries = append(entries, renderer.BindGroupEntry{Binding: uint32(binding), Sampler: s})
	}

	bg, err := backend.CreateBindGroup(renderer.BindGroupDesc{
		Label:    p.label,
		Pipeline: pipeline,
		Group:    p.group,
		Entries:  sortEntries(entries),
	})
	if err != nil {
		return nil, fmt.Errorf("bind group provider %s: %w", p.label, err)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	p.pipeline = pipeline
	p.dirty = false
	return bg, nil
}

func sortEntries(entries []renderer.BindGroupEntry) []renderer.BindGroupEntry {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Binding < entries[j-1].Binding; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	return entries
}
