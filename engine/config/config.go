// Package config holds the renderer configuration. Values are read from a TOML file and can be
// overridden in code with builder options.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid renderer config")

// Defaults for every tunable. The renderer previously hard-coded these.
const (
	DefaultFramesInFlight      = 2
	DefaultEvictionThreshold   = 300
	DefaultCascadeCount        = 4
	MaxCascadeCount            = 4
	DefaultCascadeSplitLambda  = 0.75
	DefaultShadowMapResolution = 2048
	DefaultMaxPointLights      = 16
	DefaultCullChunkSize       = 256
	MaxFramesInFlight          = 3
)

// RendererConfig is the complete set of deployment-tunable renderer settings.
type RendererConfig struct {
	// Backend names the graphics API implementation, e.g. "wgpu".
	Backend string `toml:"backend"`
	// FramesInFlight is the number of swapchain images prepared concurrently.
	FramesInFlight int `toml:"frames_in_flight"`
	// EvictionThreshold is the number of consecutive unused frames after which a render pass is destroyed.
	EvictionThreshold int `toml:"eviction_threshold"`
	// CascadeCount is the number of shadow cascades.
	CascadeCount int `toml:"cascade_count"`
	// CascadeSplitLambda blends logarithmic (1) and uniform (0) cascade splits.
	CascadeSplitLambda float32 `toml:"cascade_split_lambda"`
	// ShadowMapResolution is the edge length in texels of each cascade's shadow map.
	ShadowMapResolution uint32 `toml:"shadow_map_resolution"`
	// MaxPointLights caps the point lights collected per frame.
	MaxPointLights int `toml:"max_point_lights"`
	// EditorPreview renders into offscreen framebuffers shown by the editor instead of the swapchain.
	EditorPreview bool `toml:"editor_preview"`
	// Debug enables the bounding-volume and grid overlays.
	Debug bool `toml:"debug"`
	// CullWorkers is the worker count for frustum culling. Zero picks one less than the CPU count.
	CullWorkers int `toml:"cull_workers"`
	// CullChunkSize is the number of renderables each culling task processes.
	CullChunkSize int `toml:"cull_chunk_size"`
	// ShaderDir is the directory searched for WGSL files.
	ShaderDir string `toml:"shader_dir"`
	// WatchShaders recompiles passes when a shader file changes on disk.
	WatchShaders bool `toml:"watch_shaders"`
	// PresentMode is "vsync" or "uncapped".
	PresentMode string `toml:"present_mode"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
//
// Returns:
//   - RendererConfig: a config populated with defaults
func DefaultConfig() RendererConfig {
	return RendererConfig{
		Backend:             "wgpu",
		FramesInFlight:      DefaultFramesInFlight,
		EvictionThreshold:   DefaultEvictionThreshold,
		CascadeCount:        DefaultCascadeCount,
		CascadeSplitLambda:  DefaultCascadeSplitLambda,
		ShadowMapResolution: DefaultShadowMapResolution,
		MaxPointLights:      DefaultMaxPointLights,
		EditorPreview:       false,
		CullChunkSize:       DefaultCullChunkSize,
		ShaderDir:           "shaders",
		PresentMode:         "vsync",
		LogLevel:            "info",
	}
}

// New returns DefaultConfig with the options applied.
//
// Parameters:
//   - opts: builder options applied in order
//
// Returns:
//   - RendererConfig: the resulting config
func New(opts ...ConfigBuilderOption) RendererConfig {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Parse decodes TOML data over DefaultConfig, so missing keys keep their default, then applies opts and validates.
//
// Parameters:
//   - data: TOML document
//   - opts: overrides applied after decoding
//
// Returns:
//   - RendererConfig: the decoded config
//   - error: a decode error or a wrapped ErrInvalidConfig
func Parse(data []byte, opts ...ConfigBuilderOption) (RendererConfig, error) {
	c := DefaultConfig()
	if err := toml.Unmarshal(data, &c); err != nil {
		return RendererConfig{}, fmt.Errorf("config: decode: %w", err)
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return RendererConfig{}, err
	}
	return c, nil
}

// Load reads and parses the TOML file at path.
//
// Parameters:
//   - path: file path of the TOML document
//   - opts: overrides applied after decoding
//
// Returns:
//   - RendererConfig: the decoded config
//   - error: a read, decode or validation error
func Load(path string, opts ...ConfigBuilderOption) (RendererConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RendererConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, opts...)
}

// Marshal encodes c as TOML.
func (c RendererConfig) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate reports the first out-of-range field.
//
// Returns:
//   - error: nil, or an error wrapping ErrInvalidConfig
func (c RendererConfig) Validate() error {
	switch {
	case c.Backend == "":
		return fmt.Errorf("%w: backend is empty", ErrInvalidConfig)
	case c.FramesInFlight < 1 || c.FramesInFlight > MaxFramesInFlight:
		return fmt.Errorf("%w: frames_in_flight %d not in [1, %d]", ErrInvalidConfig, c.FramesInFlight, MaxFramesInFlight)
	case c.EvictionThreshold < 1:
		return fmt.Errorf("%w: eviction_threshold %d must be positive", ErrInvalidConfig, c.EvictionThreshold)
	case c.CascadeCount < 1 || c.CascadeCount > MaxCascadeCount:
		return fmt.Errorf("%w: cascade_count %d not in [1, %d]", ErrInvalidConfig, c.CascadeCount, MaxCascadeCount)
	case c.CascadeSplitLambda < 0 || c.CascadeSplitLambda > 1:
		return fmt.Errorf("%w: cascade_split_lambda %v not in [0, 1]", ErrInvalidConfig, c.CascadeSplitLambda)
	case c.ShadowMapResolution == 0:
		return fmt.Errorf("%w: shadow_map_resolution must be positive", ErrInvalidConfig)
	case c.MaxPointLights < 0:
		return fmt.Errorf("%w: max_point_lights %d is negative", ErrInvalidConfig, c.MaxPointLights)
	case c.CullWorkers < 0:
		return fmt.Errorf("%w: cull_workers %d is negative", ErrInvalidConfig, c.CullWorkers)
	case c.CullChunkSize < 1:
		return fmt.Errorf("%w: cull_chunk_size %d must be positive", ErrInvalidConfig, c.CullChunkSize)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.PresentMode) {
	case "vsync", "uncapped":
	default:
		return fmt.Errorf("%w: present_mode %q", ErrInvalidConfig, c.PresentMode)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c RendererConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return lvl, nil
}
