package config

// ConfigBuilderOption is a functional option used to override a RendererConfig field.
type ConfigBuilderOption func(*RendererConfig)

// WithBackend sets the graphics backend name.
//
// Parameters:
//   - name: the backend name, e.g. "wgpu"
//
// Returns:
//   - ConfigBuilderOption: a function that sets the backend
func WithBackend(name string) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.Backend = name
	}
}

// WithFramesInFlight sets the number of in-flight swapchain images.
//
// Parameters:
//   - n: the image count
//
// Returns:
//   - ConfigBuilderOption: a function that sets the in-flight image count
func WithFramesInFlight(n int) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.FramesInFlight = n
	}
}

// WithEvictionThreshold sets how many unused frames a render pass survives.
//
// Parameters:
//   - frames: the threshold in frames
//
// Returns:
//   - ConfigBuilderOption: a function that sets the eviction threshold
func WithEvictionThreshold(frames int) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.EvictionThreshold = frames
	}
}

// WithCascades sets the shadow cascade count and split blend factor.
//
// Parameters:
//   - count: the number of cascades
//   - lambda: the logarithmic/uniform blend in [0, 1]
//
// Returns:
//   - ConfigBuilderOption: a function that sets the cascade layout
func WithCascades(count int, lambda float32) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.CascadeCount = count
		c.CascadeSplitLambda = lambda
	}
}

// WithShadowMapResolution sets the shadow map edge length in texels.
func WithShadowMapResolution(res uint32) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.ShadowMapResolution = res
	}
}

// WithMaxPointLights caps the number of point lights per frame.
func WithMaxPointLights(n int) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.MaxPointLights = n
	}
}

// WithEditorPreview toggles offscreen editor rendering.
func WithEditorPreview(enabled bool) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.EditorPreview = enabled
	}
}

// WithDebug toggles the debug overlays.
func WithDebug(enabled bool) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.Debug = enabled
	}
}

// WithCulling sets the culling worker count and chunk size.
func WithCulling(workers, chunkSize int) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.CullWorkers = workers
		c.CullChunkSize = chunkSize
	}
}

// WithShaderDir sets the WGSL search directory and whether it is watched for changes.
func WithShaderDir(dir string, watch bool) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.ShaderDir = dir
		c.WatchShaders = watch
	}
}

// WithPresentMode sets "vsync" or "uncapped".
func WithPresentMode(mode string) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.PresentMode = mode
	}
}

// WithLogLevel sets the log level name.
func WithLogLevel(level string) ConfigBuilderOption {
	return func(c *RendererConfig) {
		c.LogLevel = level
	}
}
