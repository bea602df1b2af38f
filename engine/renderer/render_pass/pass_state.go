package render_pass

// PassState is the lifecycle state of a render pass.
//
//	Uncompiled -> Compiled -> Executing -> Compiled
//	Compiled -> Uncompiled (on a size or shader change)
//	any -> Evicted (after too many unselected frames)
type PassState uint8

const (
	PassStateUncompiled PassState = iota
	PassStateCompiled
	PassStateExecuting
	PassStateEvicted
)

func (s PassState) String() string {
	switch s {
	case PassStateUncompiled:
		return "uncompiled"
	case PassStateCompiled:
		return "compiled"
	case PassStateExecuting:
		return "executing"
	case PassStateEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}
