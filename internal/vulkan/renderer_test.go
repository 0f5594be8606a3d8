package vulkan

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/dualrender/internal/backend"
)

func newTestRenderer(t *testing.T, gpu *fakeGPU, opts Options) (*Renderer, error) {
	t.Helper()
	r := &Renderer{log: discard, gpu: gpu, width: 300, height: 300}
	if opts.Shaders == nil {
		opts.Shaders = ShadersFrom(testShaders())
	}
	err := r.build(nil, testSelection(gpu.capabilities, 0, 0), nil, opts)
	return r, err
}

func TestRendererTeardownOrder(t *testing.T) {
	gpu := newFakeGPU(300, 300)
	r, err := newTestRenderer(t, gpu, Options{MaxFramesInFlight: 2, ClearColor: mgl32.Vec4{0, 1, 0, 1}})
	require.NoError(t, err)
	require.NoError(t, r.RenderFrame())

	gpu.events = nil
	require.NoError(t, r.Close())

	assert.Equal(t, 1, gpu.waitIdles)
	assert.Equal(t, []string{
		"semaphore", "fence", "semaphore", "fence",
		"pool",
		"framebuffer",
		"pipeline", "layout", "renderpass",
		"view",
		"swapchain",
	}, gpu.destroyOrder())
	assert.Empty(t, gpu.leaked())

	// A second Close has nothing left to do.
	require.NoError(t, r.Close())
	assert.Equal(t, 1, gpu.waitIdles)
}

func TestRendererBuildFailureCleansUp(t *testing.T) {
	for _, kind := range []string{"swapchain", "view", "renderpass", "shader", "pipeline", "framebuffer", "pool", "semaphore", "fence"} {
		t.Run(kind, func(t *testing.T) {
			gpu := newFakeGPU(300, 300)
			gpu.failAt[kind] = 1

			r, err := newTestRenderer(t, gpu, Options{MaxFramesInFlight: 2})
			require.ErrorIs(t, err, errFake)
			require.NoError(t, r.Close())
			assert.Empty(t, gpu.leaked())
		})
	}
}

func TestRendererResize(t *testing.T) {
	gpu := newFakeGPU(300, 300)
	r, err := newTestRenderer(t, gpu, Options{MaxFramesInFlight: 2})
	require.NoError(t, err)
	defer r.Close()

	// Same size: nothing to do.
	r.Resize(300, 300)
	require.NoError(t, r.RenderFrame())
	assert.Len(t, gpu.swapchainInfos, 1)

	// Minimized: frames are skipped entirely.
	r.Resize(0, 0)
	require.NoError(t, r.RenderFrame())
	assert.Len(t, gpu.presented, 1)

	// Restored at a new size: rebuilt after the next present.
	gpu.capabilities = testCapabilities(2, 0, 800, 600)
	r.Resize(800, 600)
	require.NoError(t, r.RenderFrame())
	assert.Len(t, gpu.presented, 2)
	assert.Len(t, gpu.swapchainInfos, 2)
}

func TestRendererKind(t *testing.T) {
	assert.Equal(t, backend.Vulkan, (&Renderer{}).Kind())
}
