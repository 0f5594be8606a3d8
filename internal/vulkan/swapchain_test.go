package vulkan

import (
	"io"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestSwapchain(t *testing.T, gpu *fakeGPU, graphics, present int) *Swapchain {
	t.Helper()
	sc, err := NewSwapchain(gpu, SwapchainOptions{
		Selection: testSelection(gpu.capabilities, graphics, present),
		Logger:    discard,
	})
	require.NoError(t, err)
	return sc
}

func TestSwapchainCreate(t *testing.T) {
	gpu := newFakeGPU(300, 200)
	sc := newTestSwapchain(t, gpu, 0, 0)

	require.Len(t, gpu.swapchainInfos, 1)
	info := gpu.swapchainInfos[0]
	assert.Equal(t, 3, info.MinImageCount)
	assert.Equal(t, core1_0.SharingModeExclusive, info.ImageSharingMode)
	assert.Empty(t, info.QueueFamilyIndices)
	assert.Equal(t, core1_0.Extent2D{Width: 300, Height: 200}, info.ImageExtent)
	assert.True(t, info.Clipped)

	assert.Equal(t, 3, sc.Len())
	assert.Equal(t, 3, gpu.live["view"])
	assert.Zero(t, gpu.live["framebuffer"])

	require.NoError(t, sc.AttachRenderPass(&fakeRenderPass{}))
	assert.Equal(t, 3, gpu.live["framebuffer"])
	for _, fb := range gpu.framebuffers {
		assert.Equal(t, 300, fb.Width)
		assert.Equal(t, 200, fb.Height)
		assert.Len(t, fb.Attachments, 1)
	}
}

func TestSwapchainConcurrentSharing(t *testing.T) {
	gpu := newFakeGPU(300, 300)
	newTestSwapchain(t, gpu, 0, 1)

	info := gpu.swapchainInfos[0]
	assert.Equal(t, core1_0.SharingModeConcurrent, info.ImageSharingMode)
	assert.Equal(t, []int{0, 1}, info.QueueFamilyIndices)
}

func TestSwapchainRecreate(t *testing.T) {
	gpu := newFakeGPU(300, 300)
	sc := newTestSwapchain(t, gpu, 0, 0)
	renderPass := &fakeRenderPass{}
	require.NoError(t, sc.AttachRenderPass(renderPass))

	gpu.capabilities = testCapabilities(2, 0, 640, 480)
	gpu.events = nil
	require.NoError(t, sc.Recreate())

	assert.Equal(t, 1, gpu.waitIdles)
	assert.Equal(t, []string{"framebuffer", "view", "swapchain"}, gpu.destroyOrder())
	assert.Equal(t, core1_0.Extent2D{Width: 640, Height: 480}, sc.Extent())
	assert.Equal(t, 1, gpu.live["swapchain"])
	assert.Equal(t, sc.Len(), gpu.live["view"])
	assert.Equal(t, sc.Len(), gpu.live["framebuffer"])
	assert.Same(t, renderPass, gpu.framebuffers[len(gpu.framebuffers)-1].RenderPass)

	// Recreating again with nothing changed is harmless.
	firstLen, firstExtent := sc.Len(), sc.Extent()
	require.NoError(t, sc.Recreate())
	assert.Equal(t, 1, gpu.live["swapchain"])
	assert.Equal(t, 3, gpu.live["view"])
	assert.Equal(t, 3, gpu.live["framebuffer"])
	assert.Equal(t, firstLen, sc.Len())
	assert.Equal(t, firstExtent, sc.Extent())
}

func TestSwapchainRecreateTwiceSameSize(t *testing.T) {
	for _, caps := range []struct{ min, max int }{{2, 0}, {2, 2}, {3, 8}} {
		gpu := newFakeGPU(300, 300)
		gpu.capabilities = testCapabilities(caps.min, caps.max, 300, 300)
		sc := newTestSwapchain(t, gpu, 0, 0)
		require.NoError(t, sc.AttachRenderPass(&fakeRenderPass{}))

		gpu.capabilities = testCapabilities(caps.min, caps.max, 800, 600)
		require.NoError(t, sc.Recreate())
		require.NoError(t, sc.Recreate())

		require.Len(t, gpu.swapchainInfos, 3)
		first, second := gpu.swapchainInfos[1], gpu.swapchainInfos[2]
		assert.Equal(t, first.MinImageCount, second.MinImageCount, "%+v", caps)
		assert.Equal(t, first.ImageExtent, second.ImageExtent, "%+v", caps)
		assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, sc.Extent(), "%+v", caps)
		assert.Equal(t, second.MinImageCount, sc.Len(), "%+v", caps)
		assert.Equal(t, sc.Len(), gpu.live["view"], "%+v", caps)
		assert.Equal(t, sc.Len(), gpu.live["framebuffer"], "%+v", caps)
	}
}

func TestSwapchainRecreateZeroExtent(t *testing.T) {
	gpu := newFakeGPU(300, 300)
	sc := newTestSwapchain(t, gpu, 0, 0)
	require.NoError(t, sc.AttachRenderPass(&fakeRenderPass{}))

	gpu.capabilities = testCapabilities(2, 0, 0, 0)
	gpu.events = nil
	err := sc.Recreate()
	assert.True(t, errors.Is(err, ErrZeroExtent))
	assert.Empty(t, gpu.destroyOrder())
	assert.Equal(t, core1_0.Extent2D{Width: 300, Height: 300}, sc.Extent())
}

func TestSwapchainRecreateFailure(t *testing.T) {
	gpu := newFakeGPU(300, 300)
	sc := newTestSwapchain(t, gpu, 0, 0)
	require.NoError(t, sc.AttachRenderPass(&fakeRenderPass{}))

	gpu.failAt["swapchain"] = 2
	assert.ErrorIs(t, sc.Recreate(), errFake)

	sc.DestroyFramebuffers()
	sc.DestroyChain()
	assert.Empty(t, gpu.leaked())
}

func TestNewSwapchainFailureCleansUp(t *testing.T) {
	gpu := newFakeGPU(300, 300)
	gpu.failAt["view"] = 2

	_, err := NewSwapchain(gpu, SwapchainOptions{
		Selection: testSelection(gpu.capabilities, 0, 0),
		Logger:    discard,
	})
	assert.ErrorIs(t, err, errFake)
	assert.Empty(t, gpu.leaked())
}
