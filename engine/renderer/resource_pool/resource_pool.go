package resource_pool

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
)

const (
	// DefaultColorFormat is the color format of every default framebuffer.
	DefaultColorFormat = renderer.TextureFormatRGBA8Unorm

	// DefaultDepthFormat is the depth format of every default framebuffer.
	DefaultDepthFormat = renderer.TextureFormatDepth32Float
)

// Stats counts the resources currently held by a pool.
type Stats struct {
	Framebuffers int
	Buffers      int
	Textures     int
	Cubemaps     int
}

// resourcePool is the implementation of the ResourcePool interface.
type resourcePool struct {
	backend renderer.GraphicsBackend

	mu           sync.RWMutex
	framebuffers map[Handle]renderer.Framebuffer
	buffers      map[Handle]renderer.Buffer
	textures     map[Handle]renderer.Texture
	cubemaps     map[Handle]renderer.Texture

	defaults   []renderer.Framebuffer
	extent     common.Extent
	imageIndex int
}

// ResourcePool is the sole owner of pooled GPU resources and of the N default framebuffers the
// scene is rendered into. Passes hold handles or borrowed references; a resource that is replaced
// or removed is released by the pool.
type ResourcePool interface {
	// GetFramebuffer returns the framebuffer registered at h. Handles of kind KindDefaultFramebuffer
	// resolve to the default framebuffer of that image index.
	//
	// Parameters:
	//   - h: the handle
	//
	// Returns:
	//   - renderer.Framebuffer: the framebuffer, or nil
	//   - bool: true if h is registered
	GetFramebuffer(h Handle) (renderer.Framebuffer, bool)

	// PutFramebuffer registers fb at h, releasing any framebuffer it replaces.
	//
	// Parameters:
	//   - h: the handle
	//   - fb: the framebuffer; the pool takes ownership
	PutFramebuffer(h Handle, fb renderer.Framebuffer)

	// RemoveFramebuffer releases and unregisters the framebuffer at h. Removing an unknown handle is a no-op.
	RemoveFramebuffer(h Handle)

	// GetBuffer returns the buffer registered at h.
	GetBuffer(h Handle) (renderer.Buffer, bool)

	// PutBuffer registers buf at h, releasing any buffer it replaces.
	PutBuffer(h Handle, buf renderer.Buffer)

	// RemoveBuffer releases and unregisters the buffer at h.
	RemoveBuffer(h Handle)

	// GetTexture returns the texture registered at h.
	GetTexture(h Handle) (renderer.Texture, bool)

	// PutTexture registers tex at h, releasing any texture it replaces.
	PutTexture(h Handle, tex renderer.Texture)

	// RemoveTexture releases and unregisters the texture at h.
	RemoveTexture(h Handle)

	// GetCubemap returns the cubemap registered at h.
	GetCubemap(h Handle) (renderer.Texture, bool)

	// PutCubemap registers a cube texture at h, releasing any cubemap it replaces.
	//
	// Parameters:
	//   - h: the handle
	//   - tex: a texture created with TextureDesc.Cube set
	PutCubemap(h Handle, tex renderer.Texture)

	// RemoveCubemap releases and unregisters the cubemap at h.
	RemoveCubemap(h Handle)

	// DefaultFramebuffer returns the default framebuffer for an image index.
	//
	// Parameters:
	//   - index: the image index, in [0, FramesInFlight)
	//
	// Returns:
	//   - renderer.Framebuffer: the framebuffer, or nil before the first Compile
	DefaultFramebuffer(index int) renderer.Framebuffer

	// CurrentDefaultFramebuffer returns the default framebuffer for the image index of the last SetImageIndex.
	CurrentDefaultFramebuffer() renderer.Framebuffer

	// SetImageIndex records the image index the current frame renders to.
	SetImageIndex(index int)

	// ImageIndex returns the image index of the last SetImageIndex.
	ImageIndex() int

	// Extent returns the size the default framebuffers were last built at.
	Extent() common.Extent

	// Compile resizes all default framebuffers when extent differs from the current size. The new
	// set is built completely before it replaces the old one, and the old set is released after
	// the device goes idle. An empty extent leaves the current set in place.
	//
	// Parameters:
	//   - extent: the render area size
	//
	// Returns:
	//   - error: an error if any framebuffer of the new set could not be created; the old set stays in place
	Compile(extent common.Extent) error

	// Stats counts the resources registered by handle.
	Stats() Stats

	// Release waits for the device to go idle and releases every resource.
	Release()
}

var _ ResourcePool = &resourcePool{}

// NewResourcePool creates an empty pool. Default framebuffers are created by the first Compile.
//
// Parameters:
//   - backend: the graphics backend; its FramesInFlight fixes N
//
// Returns:
//   - ResourcePool: the new pool
func NewResourcePool(backend renderer.GraphicsBackend) ResourcePool {
	return &resourcePool{
		backend:      backend,
		framebuffers: make(map[Handle]renderer.Framebuffer),
		buffers:      make(map[Handle]renderer.Buffer),
		textures:     make(map[Handle]renderer.Texture),
		cubemaps:     make(map[Handle]renderer.Texture),
	}
}

// releaser is satisfied by every pooled resource type.
type releaser interface{ Release() }

func get[T any](mu *sync.RWMutex, m map[Handle]T, h Handle) (T, bool) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := m[h]
	return v, ok
}

func put[T releaser](mu *sync.RWMutex, m map[Handle]T, h Handle, v T) {
	mu.Lock()
	old, ok := m[h]
	m[h] = v
	mu.Unlock()
	if ok && releaser(old) != releaser(v) {
		old.Release()
	}
}

func remove[T releaser](mu *sync.RWMutex, m map[Handle]T, h Handle) {
	mu.Lock()
	old, ok := m[h]
	delete(m, h)
	mu.Unlock()
	if ok {
		old.Release()
	}
}

func (p *resourcePool) GetFramebuffer(h Handle) (renderer.Framebuffer, bool) {
	if h.Kind() == KindDefaultFramebuffer {
		fb := p.DefaultFramebuffer(int(h.Index()))
		return fb, fb != nil
	}
	return get(&p.mu, p.framebuffers, h)
}

func (p *resourcePool) PutFramebuffer(h Handle, fb renderer.Framebuffer) {
	if h.Kind() == KindDefaultFramebuffer {
		common.Logger().Warn("default framebuffer handles are owned by the pool", slog.String("handle", h.String()))
		return
	}
	put(&p.mu, p.framebuffers, h, fb)
}

func (p *resourcePool) RemoveFramebuffer(h Handle) {
	if h.Kind() == KindDefaultFramebuffer {
		return
	}
	remove(&p.mu, p.framebuffers, h)
}

func (p *resourcePool) GetBuffer(h Handle) (renderer.Buffer, bool) {
	return get(&p.mu, p.buffers, h)
}

func (p *resourcePool) PutBuffer(h Handle, buf renderer.Buffer) {
	put(&p.mu, p.buffers, h, buf)
}

func (p *resourcePool) RemoveBuffer(h Handle) {
	remove(&p.mu, p.buffers, h)
}

func (p *resourcePool) GetTexture(h Handle) (renderer.Texture, bool) {
	return get(&p.mu, p.textures, h)
}

func (p *resourcePool) PutTexture(h Handle, tex renderer.Texture) {
	put(&p.mu, p.textures, h, tex)
}

func (p *resourcePool) RemoveTexture(h Handle) {
	remove(&p.mu, p.textures, h)
}

func (p *resourcePool) GetCubemap(h Handle) (renderer.Texture, bool) {
	return get(&p.mu, p.cubemaps, h)
}

func (p *resourcePool) PutCubemap(h Handle, tex renderer.Texture) {
	if !tex.Cube() {
		common.Logger().Warn("cubemap registered with a non-cube texture", slog.String("handle", h.String()), slog.String("label", tex.Label()))
	}
	put(&p.mu, p.cubemaps, h, tex)
}

func (p *resourcePool) RemoveCubemap(h Handle) {
	remove(&p.mu, p.cubemaps, h)
}

func (p *resourcePool) DefaultFramebuffer(index int) renderer.Framebuffer {
	if index < 0 || index >= len(p.defaults) {
		return nil
	}
	return p.defaults[index]
}

func (p *resourcePool) CurrentDefaultFramebuffer() renderer.Framebuffer {
	return p.DefaultFramebuffer(p.imageIndex)
}

func (p *resourcePool) SetImageIndex(index int) {
	p.imageIndex = index
}

func (p *resourcePool) ImageIndex() int {
	return p.imageIndex
}

func (p *resourcePool) Extent() common.Extent {
	return p.extent
}

func (p *resourcePool) Compile(extent common.Extent) error {
	if extent.Empty() || (extent == p.extent && len(p.defaults) > 0) {
		return nil
	}

	n := p.backend.FramesInFlight()
	next := make([]renderer.Framebuffer, 0, n)
	for i := range n {
		fb, err := p.backend.CreateFramebuffer(renderer.FramebufferDesc{
			Label:        fmt.Sprintf("Default Framebuffer [%d]", i),
			Width:        extent.Width,
			Height:       extent.Height,
			ColorFormats: []renderer.TextureFormat{DefaultColorFormat},
			DepthFormat:  DefaultDepthFormat,
		})
		if err != nil {
			for _, built := range next {
				built.Release()
			}
			return fmt.Errorf("resource pool: default framebuffer %d: %w", i, err)
		}
		next = append(next, fb)
	}

	old := p.defaults
	p.defaults = next
	p.extent = extent
	if len(old) > 0 {
		p.backend.WaitIdle()
		for _, fb := range old {
			fb.Release()
		}
	}
	common.Logger().Debug("default framebuffers resized", slog.Int("count", n), slog.Int("width", int(extent.Width)), slog.Int("height", int(extent.Height)))
	return nil
}

func (p *resourcePool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{
		Framebuffers: len(p.framebuffers),
		Buffers:      len(p.buffers),
		Textures:     len(p.textures),
		Cubemaps:     len(p.cubemaps),
	}
}

func (p *resourcePool) Release() {
	p.backend.WaitIdle()

	p.mu.Lock()
	defer p.mu.Unlock()
	for h, fb := range p.framebuffers {
		fb.Release()
		delete(p.framebuffers, h)
	}
	for h, b := range p.buffers {
		b.Release()
		delete(p.buffers, h)
	}
	for h, t := range p.textures {
		t.Release()
		delete(p.textures, h)
	}
	for h, c := range p.cubemaps {
		c.Release()
		delete(p.cubemaps, h)
	}
	for _, fb := range p.defaults {
		fb.Release()
	}
	p.defaults = nil
	p.extent = common.Extent{}
}
