package render_pass

import "fmt"

// PassKind is the stable identity of a render pass type. The frame graph finds, dedupes and
// evicts passes by kind, and producers derive their pool handles from it.
type PassKind uint8

const (
	// PassKindDepth writes scene depth ahead of shading.
	PassKindDepth PassKind = iota
	// PassKindLightCull assigns point lights to screen tiles on a compute queue.
	PassKindLightCull
	// PassKindShadow renders the directional light's shadow cascades.
	PassKindShadow
	// PassKindForward shades every visible draw.
	PassKindForward
	// PassKindSkybox fills the background from a cubemap.
	PassKindSkybox
	// PassKindBoundingBox draws world-space bounds of every visible draw. Debug only.
	PassKindBoundingBox
	// PassKindGrid draws the editor ground grid. Debug only.
	PassKindGrid
	// PassKindFinal composes the scene color onto the swapchain image.
	PassKindFinal

	passKindCount
)

var passKindNames = [passKindCount]string{
	"depth",
	"light_cull",
	"shadow",
	"forward",
	"skybox",
	"bounding_box",
	"grid",
	"final",
}

func (k PassKind) String() string {
	if k < passKindCount {
		return passKindNames[k]
	}
	return fmt.Sprintf("PassKind(%d)", uint8(k))
}

// AllPassKinds returns every pass kind in causal order.
func AllPassKinds() []PassKind {
	out := make([]PassKind, passKindCount)
	for i := range out {
		out[i] = PassKind(i)
	}
	return out
}
