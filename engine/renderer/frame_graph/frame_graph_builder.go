package frame_graph

// FrameGraphBuilderOption is a functional option used to configure a FrameGraph during construction.
type FrameGraphBuilderOption func(*frameGraph)

// WithRegistry replaces the default pass registry.
//
// Parameters:
//   - r: the registry; it must cover every pass kind
//
// Returns:
//   - FrameGraphBuilderOption: a function that sets the registry
func WithRegistry(r Registry) FrameGraphBuilderOption {
	return func(g *frameGraph) {
		g.registry = r
	}
}

// WithEvictionThreshold sets how many consecutive unselected frames a pass survives. It defaults to
// the render context's configured threshold.
//
// Parameters:
//   - frames: the threshold, at least 1
//
// Returns:
//   - FrameGraphBuilderOption: a function that sets the eviction threshold
func WithEvictionThreshold(frames int) FrameGraphBuilderOption {
	return func(g *frameGraph) {
		g.threshold = max(frames, 1)
	}
}
