// Package renderertest provides a recording GraphicsBackend for tests. It creates no GPU objects;
// every call is recorded so tests can assert on creation, release, submission order and
// semaphore wiring.
package renderertest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
)

// Submission is one recorded Submit call.
type Submission struct {
	CommandBuffers []string
	Wait           []string
	Signal         []string
	Fence          string
}

// Backend is a fake renderer.GraphicsBackend.
type Backend struct {
	Frames int
	Extent common.Extent

	// FailPipelines makes CreatePipeline fail for any label containing one of these substrings.
	FailPipelines []string

	Submissions []Submission
	Presents    []string
	Acquires    int
	WaitIdles   int
	Resizes     []common.Extent

	// Pipelines holds the description of every pipeline created, in order.
	Pipelines []renderer.PipelineDesc
	Writes    map[string]int

	live    map[string]int
	created map[string]int
}

var _ renderer.GraphicsBackend = &Backend{}

// New returns a fake backend with frames in-flight images and a surface of the given size.
func New(frames int, width, height uint32) *Backend {
	return &Backend{
		Frames:  frames,
		Extent:  common.Extent{Width: width, Height: height},
		Writes:  make(map[string]int),
		live:    make(map[string]int),
		created: make(map[string]int),
	}
}

// Live returns the number of unreleased objects of kind ("texture", "buffer", "framebuffer",
// "pipeline", "bindgroup", "sampler", "semaphore", "fence").
func (b *Backend) Live(kind string) int {
	return b.live[kind]
}

// Created returns the total number of objects of kind ever created.
func (b *Backend) Created(kind string) int {
	return b.created[kind]
}

// SubmittedLabels returns the command buffer labels of every submission, in order.
func (b *Backend) SubmittedLabels() []string {
	var out []string
	for _, s := range b.Submissions {
		out = append(out, s.CommandBuffers...)
	}
	return out
}

// Reset clears recorded submissions and presents but keeps live object counts.
func (b *Backend) Reset() {
	b.Submissions = nil
	b.Presents = nil
}

func (b *Backend) track(kind string) func() {
	b.live[kind]++
	b.created[kind]++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		b.live[kind]--
	}
}

func (b *Backend) Type() renderer.BackendType    { return renderer.BackendTypeWGPU }
func (b *Backend) FramesInFlight() int           { return b.Frames }
func (b *Backend) SurfaceExtent() common.Extent { return b.Extent }

func (b *Backend) Resize(extent common.Extent) {
	b.Resizes = append(b.Resizes, extent)
	b.Extent = extent
}

func (b *Backend) CreateTexture(desc renderer.TextureDesc) (renderer.Texture, error) {
	return &Texture{
		label:   desc.Label,
		extent:  common.Extent{Width: desc.Width, Height: desc.Height},
		format:  desc.Format,
		cube:    desc.Cube,
		release: b.track("texture"),
	}, nil
}

func (b *Backend) CreateFramebuffer(desc renderer.FramebufferDesc) (renderer.Framebuffer, error) {
	fb := &Framebuffer{
		label:   desc.Label,
		extent:  common.Extent{Width: desc.Width, Height: desc.Height},
		release: b.track("framebuffer"),
	}
	for i, f := range desc.ColorFormats {
		t, _ := b.CreateTexture(renderer.TextureDesc{Label: fmt.Sprintf("%s Color %d", desc.Label, i), Width: desc.Width, Height: desc.Height, Format: f})
		fb.colors = append(fb.colors, t)
	}
	if desc.DepthFormat != renderer.TextureFormatUndefined {
		fb.depth, _ = b.CreateTexture(renderer.TextureDesc{Label: desc.Label + " Depth", Width: desc.Width, Height: desc.Height, Format: desc.DepthFormat})
	}
	return fb, nil
}

func (b *Backend) CreateBuffer(desc renderer.BufferDesc) (renderer.Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("renderertest: buffer %q has zero size", desc.Label)
	}
	return &Buffer{label: desc.Label, size: desc.Size, release: b.track("buffer")}, nil
}

func (b *Backend) CreateSampler(renderer.SamplerDesc) (renderer.Sampler, error) {
	return &object{release: b.track("sampler")}, nil
}

// ErrPipeline is returned for pipelines matched by FailPipelines.
var ErrPipeline = errors.New("renderertest: pipeline creation failed")

func (b *Backend) CreatePipeline(desc renderer.PipelineDesc) (renderer.Pipeline, error) {
	for _, f := range b.FailPipelines {
		if strings.Contains(desc.Label, f) {
			return nil, fmt.Errorf("%w: %s", ErrPipeline, desc.Label)
		}
	}
	b.Pipelines = append(b.Pipelines, desc)
	return &Pipeline{label: desc.Label, kind: desc.Kind, groups: len(desc.BindGroups), release: b.track("pipeline")}, nil
}

func (b *Backend) CreateBindGroup(desc renderer.BindGroupDesc) (renderer.BindGroup, error) {
	p, ok := desc.Pipeline.(*Pipeline)
	if !ok || p == nil {
		return nil, fmt.Errorf("renderertest: bind group %q has no pipeline", desc.Label)
	}
	if int(desc.Group) >= p.groups {
		return nil, fmt.Errorf("renderertest: pipeline %q has no group %d", p.label, desc.Group)
	}
	for _, e := range desc.Entries {
		if e.Buffer == nil && e.Texture == nil && e.Sampler == nil {
			return nil, fmt.Errorf("renderertest: bind group %q binding %d is empty", desc.Label, e.Binding)
		}
	}
	return &object{release: b.track("bindgroup")}, nil
}

func (b *Backend) CreateSemaphore(label string) (renderer.Semaphore, error) {
	return &Semaphore{label: label, release: b.track("semaphore")}, nil
}

func (b *Backend) CreateFence(label string) (renderer.Fence, error) {
	return &Fence{label: label, release: b.track("fence")}, nil
}

func (b *Backend) WriteBuffer(buf renderer.Buffer, offset uint64, data []byte) error {
	if offset+uint64(len(data)) > buf.Size() {
		return fmt.Errorf("renderertest: write overflows %q", buf.Label())
	}
	b.Writes[buf.Label()]++
	return nil
}

func (b *Backend) WriteTexture(tex renderer.Texture, _ uint32, data []byte) error {
	e := tex.Extent()
	if len(data) != int(e.Width*e.Height*4) {
		return fmt.Errorf("renderertest: texture %q size mismatch", tex.Label())
	}
	b.Writes[tex.Label()]++
	return nil
}

func (b *Backend) CreateCommandEncoder(label string) (renderer.CommandEncoder, error) {
	return &CommandEncoder{label: label}, nil
}

func consume(wait []renderer.Semaphore) ([]string, error) {
	var labels []string
	for _, s := range wait {
		fs := s.(*Semaphore)
		if !fs.Signaled {
			return nil, fmt.Errorf("%w: %s", renderer.ErrSemaphoreNotSignaled, fs.label)
		}
		labels = append(labels, fs.label)
	}
	for _, s := range wait {
		s.(*Semaphore).Signaled = false
	}
	return labels, nil
}

func (b *Backend) Submit(info renderer.SubmitInfo) error {
	wait, err := consume(info.Wait)
	if err != nil {
		return err
	}
	sub := Submission{Wait: wait}
	for _, cb := range info.CommandBuffers {
		sub.CommandBuffers = append(sub.CommandBuffers, cb.Label())
	}
	for _, s := range info.Signal {
		fs := s.(*Semaphore)
		fs.Signaled = true
		sub.Signal = append(sub.Signal, fs.label)
	}
	if info.Fence != nil {
		f := info.Fence.(*Fence)
		f.Pending = true
		sub.Fence = f.label
	}
	b.Submissions = append(b.Submissions, sub)
	return nil
}

func (b *Backend) WaitForFence(f renderer.Fence) error {
	f.(*Fence).Pending = false
	return nil
}

func (b *Backend) AcquireNextImage(signal renderer.Semaphore) error {
	b.Acquires++
	if signal != nil {
		signal.(*Semaphore).Signaled = true
	}
	return nil
}

func (b *Backend) Present(wait renderer.Semaphore) error {
	label := ""
	if wait != nil {
		labels, err := consume([]renderer.Semaphore{wait})
		if err != nil {
			return err
		}
		label = labels[0]
	}
	b.Presents = append(b.Presents, label)
	return nil
}

func (b *Backend) WaitIdle() { b.WaitIdles++ }
func (b *Backend) Release()  {}

type object struct {
	release func()
}

func (o *object) Release() { o.release() }

// Texture is a fake renderer.Texture.
type Texture struct {
	label   string
	extent  common.Extent
	format  renderer.TextureFormat
	cube    bool
	release func()
}

func (t *Texture) Label() string                  { return t.label }
func (t *Texture) Extent() common.Extent          { return t.extent }
func (t *Texture) Format() renderer.TextureFormat { return t.format }
func (t *Texture) Cube() bool                     { return t.cube }
func (t *Texture) Release()                       { t.release() }

// Framebuffer is a fake renderer.Framebuffer.
type Framebuffer struct {
	label   string
	extent  common.Extent
	colors  []renderer.Texture
	depth   renderer.Texture
	release func()
}

func (f *Framebuffer) Label() string         { return f.label }
func (f *Framebuffer) Extent() common.Extent { return f.extent }
func (f *Framebuffer) ColorCount() int       { return len(f.colors) }
func (f *Framebuffer) Depth() renderer.Texture {
	return f.depth
}

func (f *Framebuffer) Color(i int) renderer.Texture {
	if i < 0 || i >= len(f.colors) {
		return nil
	}
	return f.colors[i]
}

func (f *Framebuffer) Release() {
	for _, c := range f.colors {
		c.Release()
	}
	if f.depth != nil {
		f.depth.Release()
	}
	f.release()
}

// Buffer is a fake renderer.Buffer.
type Buffer struct {
	label   string
	size    uint64
	release func()
}

func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Size() uint64  { return b.size }
func (b *Buffer) Release()      { b.release() }

// Pipeline is a fake renderer.Pipeline.
type Pipeline struct {
	label   string
	kind    renderer.PipelineKind
	groups  int
	release func()
}

func (p *Pipeline) Label() string               { return p.label }
func (p *Pipeline) Kind() renderer.PipelineKind { return p.kind }
func (p *Pipeline) Release()                    { p.release() }

// Semaphore is a fake binary semaphore.
type Semaphore struct {
	label    string
	Signaled bool
	release  func()
}

func (s *Semaphore) Label() string { return s.label }
func (s *Semaphore) Release()      { s.release() }

// Fence is a fake fence.
type Fence struct {
	label   string
	Pending bool
	release func()
}

func (f *Fence) Label() string { return f.label }
func (f *Fence) Release()      { f.release() }

// CommandEncoder records pass labels and draw counts.
type CommandEncoder struct {
	label    string
	Passes   []string
	Draws    int
	finished bool
}

func (e *CommandEncoder) BeginRenderPass(desc renderer.RenderPassDesc) renderer.RenderPassEncoder {
	e.Passes = append(e.Passes, desc.Label)
	return &passEncoder{enc: e}
}

func (e *CommandEncoder) BeginComputePass(label string) renderer.ComputePassEncoder {
	e.Passes = append(e.Passes, label)
	return &passEncoder{enc: e}
}

func (e *CommandEncoder) Finish() (renderer.CommandBuffer, error) {
	if e.finished {
		return nil, fmt.Errorf("renderertest: encoder %q finished twice", e.label)
	}
	e.finished = true
	return commandBuffer(e.label), nil
}

func (e *CommandEncoder) Release() {}

type commandBuffer string

func (c commandBuffer) Label() string { return string(c) }

type passEncoder struct {
	enc *CommandEncoder
}

func (p *passEncoder) SetPipeline(renderer.Pipeline)          {}
func (p *passEncoder) SetBindGroup(uint32, renderer.BindGroup) {}
func (p *passEncoder) SetVertexBuffer(uint32, renderer.Buffer) {}
func (p *passEncoder) SetIndexBuffer(renderer.Buffer)          {}
func (p *passEncoder) Draw(uint32, uint32, uint32, uint32)     { p.enc.Draws++ }
func (p *passEncoder) DrawIndexed(uint32, uint32, uint32, int32, uint32) {
	p.enc.Draws++
}
func (p *passEncoder) Dispatch(uint32, uint32, uint32) {}
func (p *passEncoder) End()                            {}
