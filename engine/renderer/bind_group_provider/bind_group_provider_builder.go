package bind_group_provider

import "github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithGroup sets the bind group index this provider fills.
//
// Parameters:
//   - group: the group index in the pipeline layout
//
// Returns:
//   - BindGroupProviderOption: a function that sets the group index for this provider
func WithGroup(group uint32) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.group = group
	}
}

// WithTexture binds a borrowed texture at construction.
//
// Parameters:
//   - binding: the binding index for this texture
//   - tex: the texture to bind
//
// Returns:
//   - BindGroupProviderOption: a function that sets the texture for the specified binding
func WithTexture(binding int, tex renderer.Texture) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textures[binding] = tex
	}
}

// WithSampler binds a borrowed sampler at construction.
//
// Parameters:
//   - binding: the binding index for this sampler
//   - s: the sampler to bind
//
// Returns:
//   - BindGroupProviderOption: a function that sets the sampler for the specified binding
func WithSampler(binding int, s renderer.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.samplers[binding] = s
	}
}
