// Package frame_graph schedules the render passes of a frame: it picks the passes the frame needs in
// causal order, compiles the ones whose inputs changed, executes them against one semaphore chain
// and evicts passes that have gone unused for too long.
package frame_graph

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/config"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_pass"
)

// Stats counts frame graph activity since construction.
type Stats struct {
	// Instantiated is the number of passes currently alive.
	Instantiated int
	Compiled     uint64
	Executed     uint64
	Evicted      uint64
}

// frameGraph is the implementation of the FrameGraph interface.
type frameGraph struct {
	ctx       *render_context.RenderContext
	registry  Registry
	threshold int
	log       *slog.Logger

	// instances holds every constructed pass by kind; unused counts consecutive frames a pass was
	// not selected.
	instances map[render_pass.PassKind]render_pass.RenderPass
	unused    map[render_pass.PassKind]int

	// list is the current frame's passes in execution order.
	list   []render_pass.RenderPass
	inList map[render_pass.PassKind]bool

	stats Stats
}

// FrameGraph runs once per frame on the render goroutine, in the order Setup, Compile, Execute.
// It is not safe for concurrent use.
type FrameGraph interface {
	// Setup builds the frame's pass list in causal order, reusing instantiated passes and
	// constructing missing ones through the registry, then runs eviction.
	//
	// Parameters:
	//   - fs: the frame state
	//
	// Returns:
	//   - error: ErrUnknownPass if a needed kind has no factory
	Setup(fs *render_context.FrameState) error

	// Compile resizes the pool's default framebuffers to the viewport and compiles every listed
	// pass whose ShouldCompile reports true. The first failure aborts the frame.
	//
	// Parameters:
	//   - fs: the frame state
	//
	// Returns:
	//   - error: the failing pass's compile error, wrapped with its name
	Compile(fs *render_context.FrameState) error

	// Execute runs every listed pass against one semaphore chain seeded with fs.ImageAcquired and
	// clears the list.
	//
	// Parameters:
	//   - fs: the frame state
	//
	// Returns:
	//   - renderer.Semaphore: the last signal, which presentation waits on
	//   - renderer.Fence: the frame fence if a submission armed it, or nil
	//   - error: the failing pass's execute error, wrapped with its name
	Execute(fs *render_context.FrameState) (renderer.Semaphore, renderer.Fence, error)

	// Passes returns the current pass list.
	Passes() []render_pass.RenderPass

	// Kinds returns the kinds of the current pass list.
	Kinds() []render_pass.PassKind

	// Pass returns the instantiated pass of kind, listed or not.
	Pass(kind render_pass.PassKind) (render_pass.RenderPass, bool)

	// Stats returns the activity counters.
	Stats() Stats

	// Release waits for the device to go idle and destroys every pass.
	Release()
}

var _ FrameGraph = &frameGraph{}

// NewFrameGraph creates a FrameGraph bound to ctx.
//
// Parameters:
//   - ctx: the render context every pass compiles against
//   - opts: builder options
//
// Returns:
//   - FrameGraph: the frame graph
//   - error: ErrUnknownPass if the registry does not cover every pass kind
func NewFrameGraph(ctx *render_context.RenderContext, opts ...FrameGraphBuilderOption) (FrameGraph, error) {
	g := &frameGraph{
		ctx:       ctx,
		registry:  DefaultRegistry(),
		threshold: common.Coalesce(ctx.Config.EvictionThreshold, config.DefaultEvictionThreshold),
		log:       common.Logger().With(slog.String("component", "frame_graph")),
		instances: make(map[render_pass.PassKind]render_pass.RenderPass),
		unused:    make(map[render_pass.PassKind]int),
		inList:    make(map[render_pass.PassKind]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.registry.Validate(); err != nil {
		g.log.Error("invalid pass registry", slog.Any("error", err))
		return nil, err
	}
	return g, nil
}

func (g *frameGraph) Setup(fs *render_context.FrameState) error {
	g.list = g.list[:0]
	clear(g.inList)

	kinds := []render_pass.PassKind{render_pass.PassKindDepth, render_pass.PassKindLightCull}
	if fs.ShadowPassActive() {
		kinds = append(kinds, render_pass.PassKindShadow)
	}
	kinds = append(kinds, render_pass.PassKindForward)
	if _, ok := fs.Lights.Skybox(); ok {
		kinds = append(kinds, render_pass.PassKindSkybox)
	}
	if fs.Debug {
		kinds = append(kinds, render_pass.PassKindBoundingBox)
		if fs.ShowGrid {
			kinds = append(kinds, render_pass.PassKindGrid)
		}
	}
	if !fs.EditorPreview {
		kinds = append(kinds, render_pass.PassKindFinal)
	}

	for _, kind := range kinds {
		if err := g.push(fs, kind); err != nil {
			return err
		}
	}
	g.evict()
	return nil
}

// push appends the pass of kind to the list once per frame.
func (g *frameGraph) push(fs *render_context.FrameState, kind render_pass.PassKind) error {
	if g.inList[kind] {
		return nil
	}
	pass, ok := g.instances[kind]
	if !ok {
		factory := g.registry[kind]
		if factory == nil {
			return fmt.Errorf("%w: %s", ErrUnknownPass, kind)
		}
		pass = factory()
		g.instances[kind] = pass
		g.log.Debug("pass created", slog.String("pass", pass.Name()))
	}
	pass.Prepare(fs)
	g.list = append(g.list, pass)
	g.inList[kind] = true
	return nil
}

// evict destroys passes left out of the list for threshold consecutive frames.
func (g *frameGraph) evict() {
	var doomed []render_pass.PassKind
	for _, kind := range render_pass.AllPassKinds() {
		if _, ok := g.instances[kind]; !ok {
			continue
		}
		if g.inList[kind] {
			g.unused[kind] = 0
			continue
		}
		g.unused[kind]++
		if g.unused[kind] >= g.threshold {
			doomed = append(doomed, kind)
		}
	}
	if len(doomed) == 0 {
		return
	}

	g.ctx.Backend.WaitIdle()
	for _, kind := range doomed {
		g.instances[kind].Destroy(g.ctx)
		delete(g.instances, kind)
		delete(g.unused, kind)
		g.stats.Evicted++
		g.log.Debug("pass evicted", slog.String("pass", kind.String()), slog.Int("unused_frames", g.threshold))
	}
}

func (g *frameGraph) Compile(fs *render_context.FrameState) error {
	if err := g.ctx.Pool.Compile(fs.Viewport); err != nil {
		g.log.Error("default framebuffer compile failed", slog.Any("error", err))
		return fmt.Errorf("frame_graph: compile default framebuffers: %w", err)
	}
	g.ctx.Pool.SetImageIndex(fs.ImageIndex)

	for _, pass := range g.list {
		if !pass.ShouldCompile(fs) {
			continue
		}
		if err := pass.Compile(fs); err != nil {
			g.log.Error("pass compile failed", slog.String("pass", pass.Name()), slog.Any("error", err))
			return fmt.Errorf("frame_graph: compile %s: %w", pass.Name(), err)
		}
		g.stats.Compiled++
		g.log.Debug("pass compiled", slog.String("pass", pass.Name()),
			slog.Int("width", int(fs.Viewport.Width)), slog.Int("height", int(fs.Viewport.Height)))
	}
	return nil
}

func (g *frameGraph) Execute(fs *render_context.FrameState) (renderer.Semaphore, renderer.Fence, error) {
	defer func() { g.list = g.list[:0] }()

	chain := render_pass.NewSemaphoreChain(fs.ImageAcquired, fs.Fence, len(g.list))
	for _, pass := range g.list {
		if err := pass.Execute(fs, chain); err != nil {
			return nil, nil, fmt.Errorf("frame_graph: execute %s: %w", pass.Name(), err)
		}
		g.stats.Executed++
	}
	return chain.Last(), chain.Fence(), nil
}

func (g *frameGraph) Passes() []render_pass.RenderPass {
	return append([]render_pass.RenderPass(nil), g.list...)
}

func (g *frameGraph) Kinds() []render_pass.PassKind {
	out := make([]render_pass.PassKind, len(g.list))
	for i, p := range g.list {
		out[i] = p.Kind()
	}
	return out
}

func (g *frameGraph) Pass(kind render_pass.PassKind) (render_pass.RenderPass, bool) {
	p, ok := g.instances[kind]
	return p, ok
}

func (g *frameGraph) Stats() Stats {
	s := g.stats
	s.Instantiated = len(g.instances)
	return s
}

func (g *frameGraph) Release() {
	g.ctx.Backend.WaitIdle()
	for _, kind := range render_pass.AllPassKinds() {
		if pass, ok := g.instances[kind]; ok {
			pass.Destroy(g.ctx)
		}
	}
	clear(g.instances)
	clear(g.unused)
	g.list = nil
}
