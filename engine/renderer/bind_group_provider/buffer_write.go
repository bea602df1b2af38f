package bind_group_provider

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Flush performs every write in order and joins their errors.
//
// Parameters:
//   - backend: the graphics backend
//   - writes: the writes to perform
//
// Returns:
//   - error: the joined write errors, or nil
func Flush(backend renderer.GraphicsBackend, writes ...BufferWrite) error {
	var errs []error
	for _, w := range writes {
		if err := w.Provider.Write(backend, w.Binding, w.Offset, w.Data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
