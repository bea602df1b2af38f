package scene

import (
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/game_object"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.add(obj)
		}
	}
}

// WithLights adds initial free lights to the scene.
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			if l != nil {
				s.lights = append(s.lights, l)
			}
		}
	}
}

// WithSkybox binds a pooled cubemap as the skybox.
//
// Parameters:
//   - h: the cubemap handle
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSkybox(h resource_pool.Handle) SceneBuilderOption {
	return func(s *scene) {
		s.skybox = h
		s.hasSkybox = true
	}
}

// WithViewportSize sets the initial render area size.
//
// Parameters:
//   - width, height: the size in pixels
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithViewportSize(width, height uint32) SceneBuilderOption {
	return func(s *scene) {
		s.viewport = common.Extent{Width: width, Height: height}
	}
}

// WithTickWorkers sets the number of worker goroutines Tick fans out to.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTickWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.tickWorkers = max(n, 1)
	}
}
