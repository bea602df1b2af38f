package render_pass

import "github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"

// SemaphoreChain links the submissions of one frame. Each submission waits on the previous
// submission's signal semaphore, the first waits on the seed (the image-acquired semaphore, or
// nothing), and the last planned submission arms the frame fence.
type SemaphoreChain struct {
	wait      renderer.Semaphore
	fence     renderer.Fence
	remaining int
	submitted int
	armed     bool
}

// NewSemaphoreChain creates a chain for links submissions.
//
// Parameters:
//   - seed: the semaphore the first submission waits on; nil for none
//   - fence: the fence the last submission arms; nil for none
//   - links: the number of submissions planned
//
// Returns:
//   - *SemaphoreChain: the chain
func NewSemaphoreChain(seed renderer.Semaphore, fence renderer.Fence, links int) *SemaphoreChain {
	return &SemaphoreChain{wait: seed, fence: fence, remaining: links}
}

// Wait returns the semaphore the next submission must wait on, or nil.
func (c *SemaphoreChain) Wait() renderer.Semaphore {
	return c.wait
}

// Submit submits cmds waiting on Wait and signalling signal, then advances the chain so the next
// submission waits on signal.
//
// Parameters:
//   - backend: the graphics backend
//   - signal: the submitting pass's semaphore for the current image
//   - cmds: the recorded command buffers
//
// Returns:
//   - error: the backend's submit error
func (c *SemaphoreChain) Submit(backend renderer.GraphicsBackend, signal renderer.Semaphore, cmds ...renderer.CommandBuffer) error {
	info := renderer.SubmitInfo{
		CommandBuffers: cmds,
		Signal:         []renderer.Semaphore{signal},
	}
	if c.wait != nil {
		info.Wait = []renderer.Semaphore{c.wait}
	}
	last := c.remaining == 1
	if last && c.fence != nil {
		info.Fence = c.fence
	}
	if err := backend.Submit(info); err != nil {
		return err
	}
	c.wait = signal
	c.remaining--
	c.submitted++
	c.armed = c.armed || info.Fence != nil
	return nil
}

// Last returns the most recent signal semaphore, which presentation waits on. With no submissions
// it is the seed.
func (c *SemaphoreChain) Last() renderer.Semaphore {
	return c.wait
}

// Fence returns the frame fence once a submission has armed it, or nil.
func (c *SemaphoreChain) Fence() renderer.Fence {
	if !c.armed {
		return nil
	}
	return c.fence
}

// Submitted returns the number of submissions made through the chain.
func (c *SemaphoreChain) Submitted() int {
	return c.submitted
}
