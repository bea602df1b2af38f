package renderer

import "github.com/Carmen-Shannon/oxy-framegraph/common"

// TextureFormat is a backend-neutral pixel format.
type TextureFormat int

const (
	// TextureFormatUndefined means "no attachment" where a format is optional.
	TextureFormatUndefined TextureFormat = iota
	TextureFormatRGBA8Unorm
	TextureFormatBGRA8Unorm
	TextureFormatRGBA16Float
	TextureFormatDepth32Float
	// TextureFormatSurface resolves to whatever format the presentation surface uses.
	TextureFormatSurface
)

// IsDepth reports whether f is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatDepth32Float
}

// TextureUsage is a bit set of the ways a texture is bound.
type TextureUsage uint32

const (
	TextureUsageRenderAttachment TextureUsage = 1 << iota
	TextureUsageSampled
	TextureUsageStorage
	TextureUsageCopyDst
	TextureUsageCopySrc
)

// TextureDesc describes a 2D texture or a cubemap.
type TextureDesc struct {
	Label  string
	Width  uint32
	Height uint32
	Format TextureFormat
	Usage  TextureUsage
	// Cube creates six layers viewed as a cubemap.
	Cube bool
}

// Texture is a GPU texture together with its default view.
type Texture interface {
	Label() string
	Extent() common.Extent
	Format() TextureFormat
	Cube() bool
	Release()
}

// FramebufferDesc describes a set of same-sized render targets.
type FramebufferDesc struct {
	Label        string
	Width        uint32
	Height       uint32
	ColorFormats []TextureFormat
	// DepthFormat is TextureFormatUndefined for colour-only framebuffers.
	DepthFormat TextureFormat
}

// Framebuffer owns its colour and depth attachments. All attachments are sampleable.
type Framebuffer interface {
	Label() string
	Extent() common.Extent
	ColorCount() int
	Color(i int) Texture
	// Depth returns nil when the framebuffer has no depth attachment.
	Depth() Texture
	Release()
}

// BufferUsage is a bit set of the ways a buffer is bound.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageCopyDst
	BufferUsageIndirect
)

// BufferDesc describes a GPU buffer.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// Buffer is a GPU buffer.
type Buffer interface {
	Label() string
	Size() uint64
	Release()
}

// SamplerDesc describes a clamp-to-edge sampler.
type SamplerDesc struct {
	Label string
	// Compare makes a less-equal comparison sampler for shadow lookups.
	Compare bool
	// Nearest disables linear filtering.
	Nearest bool
}

// Sampler is a GPU sampler.
type Sampler interface {
	Release()
}

// BindGroupEntry binds exactly one of Buffer, Texture or Sampler at Binding.
type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
	Texture Texture
	Sampler Sampler
}

// BindGroupDesc describes a bind group matching group Group of Pipeline's layout.
type BindGroupDesc struct {
	Label    string
	Pipeline Pipeline
	Group    uint32
	Entries  []BindGroupEntry
}

// BindGroup is a set of resources bound to a pipeline group.
type BindGroup interface {
	Release()
}

// Semaphore orders GPU work between submissions. It is binary: each signal is consumed by
// exactly one wait.
type Semaphore interface {
	Label() string
	Release()
}

// Fence lets the CPU wait for a submission to complete.
type Fence interface {
	Label() string
	Release()
}
