package frame_graph

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_pass"
)

// ErrUnknownPass is returned when a registry is missing a pass kind or names one that does not exist.
var ErrUnknownPass = errors.New("frame_graph: unknown pass kind")

// Factory constructs an uncompiled pass.
type Factory func() render_pass.RenderPass

// Registry maps every pass kind to the factory that builds it.
type Registry map[render_pass.PassKind]Factory

// DefaultRegistry returns a registry covering every pass kind.
func DefaultRegistry() Registry {
	return Registry{
		render_pass.PassKindDepth:       render_pass.NewDepthPass,
		render_pass.PassKindLightCull:   render_pass.NewLightCullPass,
		render_pass.PassKindShadow:      render_pass.NewShadowPass,
		render_pass.PassKindForward:     render_pass.NewForwardPass,
		render_pass.PassKindSkybox:      render_pass.NewSkyboxPass,
		render_pass.PassKindBoundingBox: render_pass.NewBoundingBoxPass,
		render_pass.PassKindGrid:        render_pass.NewGridPass,
		render_pass.PassKindFinal:       render_pass.NewFinalPass,
	}
}

// Validate checks that r has a factory for every pass kind and nothing else.
//
// Returns:
//   - error: ErrUnknownPass naming the first problem, or nil
func (r Registry) Validate() error {
	known := make(map[render_pass.PassKind]bool)
	for _, kind := range render_pass.AllPassKinds() {
		known[kind] = true
		if r[kind] == nil {
			return fmt.Errorf("%w: no factory for %s", ErrUnknownPass, kind)
		}
	}
	for kind := range r {
		if !known[kind] {
			return fmt.Errorf("%w: %s", ErrUnknownPass, kind)
		}
	}
	return nil
}
