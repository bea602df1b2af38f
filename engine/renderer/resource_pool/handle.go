package resource_pool

import "fmt"

// Handle is an opaque key for a pooled resource. The high 32 bits hold the producer kind and the low
// 32 bits an index chosen by the producer, so producers never collide with each other.
type Handle uint64

// KindExternal is the producer kind for resources registered by collaborators outside the frame
// graph, such as scene-loaded cubemaps.
const KindExternal uint8 = 0xFF

// KindDefaultFramebuffer addresses the pool's default framebuffers. The index is the image index.
// These handles resolve through GetFramebuffer but cannot be put or removed.
const KindDefaultFramebuffer uint8 = 0xFE

// MakeHandle derives a handle from a producer kind and an index.
//
// Parameters:
//   - kind: the producer kind (a render pass kind, or KindExternal)
//   - index: the producer-local index, such as an image index or cascade index
//
// Returns:
//   - Handle: the derived handle
func MakeHandle(kind uint8, index uint32) Handle {
	return Handle(uint64(kind)<<32 | uint64(index))
}

// Kind returns the producer kind encoded in h.
func (h Handle) Kind() uint8 {
	return uint8(h >> 32)
}

// Index returns the producer-local index encoded in h.
func (h Handle) Index() uint32 {
	return uint32(h)
}

func (h Handle) String() string {
	return fmt.Sprintf("Handle(%d:%d)", h.Kind(), h.Index())
}

// DefaultFramebufferHandle returns the handle of default framebuffer index.
func DefaultFramebufferHandle(index int) Handle {
	return MakeHandle(KindDefaultFramebuffer, uint32(index))
}
