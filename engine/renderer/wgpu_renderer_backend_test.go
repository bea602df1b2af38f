package renderer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFenceWaitsOnItsOwnSubmission(t *testing.T) {
	q := &wgpu.Queue{}
	first := &wgpuFence{label: "frame fence [0]"}
	second := &wgpuFence{label: "frame fence [1]"}
	sem := &wgpuSemaphore{label: "final signal [0]"}

	assert.Nil(t, fenceWait(q, first))

	markSubmitted(SubmitInfo{Signal: []Semaphore{sem}, Fence: first}, 7)
	markSubmitted(SubmitInfo{Fence: second}, 9)

	idx := fenceWait(q, first)
	require.NotNil(t, idx)
	assert.Same(t, q, idx.Queue)
	assert.Equal(t, wgpu.SubmissionIndex(7), idx.SubmissionIndex)
	assert.Equal(t, wgpu.SubmissionIndex(9), fenceWait(q, second).SubmissionIndex)

	assert.True(t, sem.signaled)
	assert.Equal(t, wgpu.SubmissionIndex(7), sem.serial)
	require.NoError(t, consumeSignals([]Semaphore{sem}))
	assert.ErrorIs(t, consumeSignals([]Semaphore{sem}), ErrSemaphoreNotSignaled)
}

func TestShaderModulePrefersSPIRV(t *testing.T) {
	compiled := shaderModuleDescriptor(ShaderStageDesc{Label: "depth", Source: "fn main() {}", SPIRV: []byte{0x03, 0x02, 0x23, 0x07}})
	require.NotNil(t, compiled.SPIRVDescriptor)
	assert.Nil(t, compiled.WGSLDescriptor)
	assert.Equal(t, []byte{0x03, 0x02, 0x23, 0x07}, compiled.SPIRVDescriptor.Code)
	assert.Equal(t, "depth", compiled.Label)

	source := shaderModuleDescriptor(ShaderStageDesc{Label: "depth", Source: "fn main() {}"})
	require.NotNil(t, source.WGSLDescriptor)
	assert.Nil(t, source.SPIRVDescriptor)
	assert.Equal(t, "fn main() {}", source.WGSLDescriptor.Code)
}
