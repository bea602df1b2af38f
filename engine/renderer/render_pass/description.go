package render_pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
)

// MaxDependencies is the maximum number of inputs or outputs a pass can declare.
const MaxDependencies = 8

// ResourceKind is the type of a pooled resource a dependency refers to.
type ResourceKind uint8

const (
	ResourceFramebuffer ResourceKind = iota
	ResourceBuffer
	ResourceTexture
	ResourceCubemap
	// ResourceSurface is the swapchain image. Its handle is always zero.
	ResourceSurface
)

// Usage is how a pass accesses a dependency.
type Usage uint8

const (
	UsageRead Usage = 1 << iota
	UsageWrite

	UsageReadWrite = UsageRead | UsageWrite
)

// Dependency names one resource a pass reads or writes.
type Dependency struct {
	Handle resource_pool.Handle
	Kind   ResourceKind
	Usage  Usage
}

// Description is a fixed-capacity list of dependencies. It holds no slices, so two descriptions
// compare with ==.
type Description struct {
	deps  [MaxDependencies]Dependency
	count uint8
}

// NewDescription builds a Description from deps. It panics when more than MaxDependencies are
// given, which is a programming error in the pass declaring them.
//
// Parameters:
//   - deps: the dependencies in declaration order
//
// Returns:
//   - Description: the description
func NewDescription(deps ...Dependency) Description {
	if len(deps) > MaxDependencies {
		panic(fmt.Sprintf("render_pass: %d dependencies exceed the maximum of %d", len(deps), MaxDependencies))
	}
	var d Description
	copy(d.deps[:], deps)
	d.count = uint8(len(deps))
	return d
}

// Len returns the number of dependencies.
func (d Description) Len() int {
	return int(d.count)
}

// At returns dependency i.
func (d Description) At(i int) Dependency {
	return d.deps[i]
}

// All returns a copy of the dependencies.
func (d Description) All() []Dependency {
	return append([]Dependency(nil), d.deps[:d.count]...)
}

// Contains reports whether any dependency refers to h.
func (d Description) Contains(h resource_pool.Handle) bool {
	for _, dep := range d.deps[:d.count] {
		if dep.Handle == h {
			return true
		}
	}
	return false
}
