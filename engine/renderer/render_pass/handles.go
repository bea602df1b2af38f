package render_pass

import (
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
)

// LightGridHandle is the pool handle of the light grid buffer the light culling pass writes for image.
func LightGridHandle(image int) resource_pool.Handle {
	return resource_pool.MakeHandle(uint8(PassKindLightCull), uint32(image))
}

// ShadowMapHandle is the pool handle of the shadow map the shadow pass renders for cascade of image.
func ShadowMapHandle(image, cascade int) resource_pool.Handle {
	return resource_pool.MakeHandle(uint8(PassKindShadow), uint32(image*light.MaxCascades+cascade))
}

// SceneColorHandle is the default framebuffer passes render the scene into for image.
func SceneColorHandle(image int) resource_pool.Handle {
	return resource_pool.DefaultFramebufferHandle(image)
}

func sceneColor(image int, usage Usage) Dependency {
	return Dependency{Handle: SceneColorHandle(image), Kind: ResourceFramebuffer, Usage: usage}
}
