package vulkan

import (
	"fmt"
	"testing/fstest"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// Fake handles embed the vkngwrapper interfaces they stand in for. Calling
// any method on them panics, which is what we want: the code under test
// must go through GPU.
type (
	fakeSwapchain struct {
		khr_swapchain.Swapchain
		id int
	}
	fakeImage struct {
		core1_0.Image
		id int
	}
	fakeView struct {
		core1_0.ImageView
		id int
	}
	fakeFramebuffer struct {
		core1_0.Framebuffer
		id int
	}
	fakeRenderPass struct {
		core1_0.RenderPass
		id int
	}
	fakeShader struct {
		core1_0.ShaderModule
		id int
	}
	fakeLayout struct {
		core1_0.PipelineLayout
		id int
	}
	fakePipeline struct {
		core1_0.Pipeline
		id int
	}
	fakePool struct {
		core1_0.CommandPool
		id int
	}
	fakeSemaphore struct {
		core1_0.Semaphore
		id int
	}
	fakeFence struct {
		core1_0.Fence
		id int
	}
)

type acquireResult struct {
	index int
	res   common.VkResult
	err   error
}

type presentResult struct {
	res common.VkResult
	err error
}

var errFake = errors.New("fake failure")

// fakeGPU records what is created and destroyed. failAt makes the nth
// creation (1-based) of a kind fail.
type fakeGPU struct {
	nextID  int
	events  []string
	live    map[string]int
	created map[string]int
	failAt  map[string]int

	capabilities   *khr_surface.SurfaceCapabilities
	swapchainInfos []khr_swapchain.SwapchainCreateInfo
	framebuffers   []core1_0.FramebufferCreateInfo
	pipelineInfo   core1_0.GraphicsPipelineCreateInfo
	shaderCode     [][]uint32
	buffers        []*fakeCommandBuffer

	waitIdles  int
	fenceWaits []core1_0.Fence
	acquires   []acquireResult
	presents   []presentResult
	submits    []Submission
	presented  []Presentation
	submitErr  error
}

func newFakeGPU(width, height int) *fakeGPU {
	return &fakeGPU{
		live:         map[string]int{},
		created:      map[string]int{},
		failAt:       map[string]int{},
		capabilities: testCapabilities(2, 0, width, height),
	}
}

func testCapabilities(minImages, maxImages, width, height int) *khr_surface.SurfaceCapabilities {
	return &khr_surface.SurfaceCapabilities{
		MinImageCount:  minImages,
		MaxImageCount:  maxImages,
		CurrentExtent:  core1_0.Extent2D{Width: width, Height: height},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}
}

func testSelection(capabilities *khr_surface.SurfaceCapabilities, graphics, present int) Selection {
	return Selection{
		Families: QueueFamilyIndices{GraphicsFamily: &graphics, PresentFamily: &present},
		Format: khr_surface.SurfaceFormat{
			Format:     core1_0.FormatB8G8R8A8SRGB,
			ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
		},
		PresentMode: khr_surface.PresentModeFIFO,
		Support:     SwapChainSupportDetails{Capabilities: capabilities},
	}
}

func testShaders() fstest.MapFS {
	return fstest.MapFS{
		VertexShaderFile:   {Data: []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0}},
		FragmentShaderFile: {Data: []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0}},
	}
}

func (g *fakeGPU) create(kind string) (int, error) {
	if n, ok := g.failAt[kind]; ok && g.created[kind]+1 == n {
		g.created[kind]++
		return 0, errors.Wrapf(errFake, "create %s", kind)
	}
	g.created[kind]++
	g.live[kind]++
	g.nextID++
	g.events = append(g.events, "create "+kind)
	return g.nextID, nil
}

func (g *fakeGPU) destroy(kind string) {
	g.live[kind]--
	g.events = append(g.events, "destroy "+kind)
}

// destroyOrder returns the destroyed kinds with repeats collapsed.
func (g *fakeGPU) destroyOrder() []string {
	var order []string
	for _, ev := range g.events {
		var kind string
		if _, err := fmt.Sscanf(ev, "destroy %s", &kind); err != nil {
			continue
		}
		if len(order) == 0 || order[len(order)-1] != kind {
			order = append(order, kind)
		}
	}
	return order
}

// leaked returns the kinds that still have live objects.
func (g *fakeGPU) leaked() map[string]int {
	leaks := map[string]int{}
	for kind, n := range g.live {
		if n != 0 {
			leaks[kind] = n
		}
	}
	return leaks
}

func (g *fakeGPU) WaitIdle() error {
	g.waitIdles++
	return nil
}

func (g *fakeGPU) SurfaceCapabilities() (*khr_surface.SurfaceCapabilities, error) {
	g.created["capabilities"]++
	if n, ok := g.failAt["capabilities"]; ok && g.created["capabilities"] == n {
		return nil, errFake
	}
	caps := *g.capabilities
	return &caps, nil
}

func (g *fakeGPU) CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (khr_swapchain.Swapchain, error) {
	id, err := g.create("swapchain")
	if err != nil {
		return nil, err
	}
	g.swapchainInfos = append(g.swapchainInfos, info)
	return &fakeSwapchain{id: id}, nil
}

func (g *fakeGPU) SwapchainImages(swapchain khr_swapchain.Swapchain) ([]core1_0.Image, error) {
	info := g.swapchainInfos[len(g.swapchainInfos)-1]
	images := make([]core1_0.Image, info.MinImageCount)
	for i := range images {
		g.nextID++
		images[i] = &fakeImage{id: g.nextID}
	}
	return images, nil
}

func (g *fakeGPU) DestroySwapchain(swapchain khr_swapchain.Swapchain) { g.destroy("swapchain") }

func (g *fakeGPU) CreateImageView(info core1_0.ImageViewCreateInfo) (core1_0.ImageView, error) {
	id, err := g.create("view")
	if err != nil {
		return nil, err
	}
	return &fakeView{id: id}, nil
}

func (g *fakeGPU) DestroyImageView(view core1_0.ImageView) { g.destroy("view") }

func (g *fakeGPU) CreateFramebuffer(info core1_0.FramebufferCreateInfo) (core1_0.Framebuffer, error) {
	id, err := g.create("framebuffer")
	if err != nil {
		return nil, err
	}
	g.framebuffers = append(g.framebuffers, info)
	return &fakeFramebuffer{id: id}, nil
}

func (g *fakeGPU) DestroyFramebuffer(framebuffer core1_0.Framebuffer) { g.destroy("framebuffer") }

func (g *fakeGPU) CreateRenderPass(info core1_0.RenderPassCreateInfo) (core1_0.RenderPass, error) {
	id, err := g.create("renderpass")
	if err != nil {
		return nil, err
	}
	return &fakeRenderPass{id: id}, nil
}

func (g *fakeGPU) DestroyRenderPass(renderPass core1_0.RenderPass) { g.destroy("renderpass") }

func (g *fakeGPU) CreateShaderModule(code []uint32) (core1_0.ShaderModule, error) {
	g.shaderCode = append(g.shaderCode, code)
	id, err := g.create("shader")
	if err != nil {
		return nil, err
	}
	return &fakeShader{id: id}, nil
}

func (g *fakeGPU) DestroyShaderModule(module core1_0.ShaderModule) { g.destroy("shader") }

func (g *fakeGPU) CreatePipelineLayout(info core1_0.PipelineLayoutCreateInfo) (core1_0.PipelineLayout, error) {
	id, err := g.create("layout")
	if err != nil {
		return nil, err
	}
	return &fakeLayout{id: id}, nil
}

func (g *fakeGPU) DestroyPipelineLayout(layout core1_0.PipelineLayout) { g.destroy("layout") }

func (g *fakeGPU) CreateGraphicsPipeline(info core1_0.GraphicsPipelineCreateInfo) (core1_0.Pipeline, error) {
	id, err := g.create("pipeline")
	if err != nil {
		return nil, err
	}
	g.pipelineInfo = info
	return &fakePipeline{id: id}, nil
}

func (g *fakeGPU) DestroyPipeline(pipeline core1_0.Pipeline) { g.destroy("pipeline") }

func (g *fakeGPU) CreateCommandPool(queueFamily int) (core1_0.CommandPool, error) {
	id, err := g.create("pool")
	if err != nil {
		return nil, err
	}
	return &fakePool{id: id}, nil
}

func (g *fakeGPU) DestroyCommandPool(pool core1_0.CommandPool) { g.destroy("pool") }

func (g *fakeGPU) AllocateCommandBuffers(pool core1_0.CommandPool, count int) ([]CommandBuffer, error) {
	if n, ok := g.failAt["buffers"]; ok && n == 1 {
		return nil, errFake
	}
	buffers := make([]CommandBuffer, count)
	for i := range buffers {
		b := &fakeCommandBuffer{}
		g.buffers = append(g.buffers, b)
		buffers[i] = b
	}
	return buffers, nil
}

func (g *fakeGPU) CreateSemaphore() (core1_0.Semaphore, error) {
	id, err := g.create("semaphore")
	if err != nil {
		return nil, err
	}
	return &fakeSemaphore{id: id}, nil
}

func (g *fakeGPU) DestroySemaphore(semaphore core1_0.Semaphore) { g.destroy("semaphore") }

func (g *fakeGPU) CreateFence(signaled bool) (core1_0.Fence, error) {
	id, err := g.create("fence")
	if err != nil {
		return nil, err
	}
	return &fakeFence{id: id}, nil
}

func (g *fakeGPU) DestroyFence(fence core1_0.Fence) { g.destroy("fence") }

func (g *fakeGPU) WaitForFence(fence core1_0.Fence) error {
	g.fenceWaits = append(g.fenceWaits, fence)
	return nil
}

func (g *fakeGPU) ResetFence(fence core1_0.Fence) error { return nil }

func (g *fakeGPU) AcquireNextImage(swapchain khr_swapchain.Swapchain, signal core1_0.Semaphore) (int, common.VkResult, error) {
	if len(g.acquires) == 0 {
		return 0, 0, nil
	}
	next := g.acquires[0]
	g.acquires = g.acquires[1:]
	return next.index, next.res, next.err
}

func (g *fakeGPU) Submit(s Submission) error {
	if g.submitErr != nil {
		return g.submitErr
	}
	g.submits = append(g.submits, s)
	return nil
}

func (g *fakeGPU) Present(p Presentation) (common.VkResult, error) {
	g.presented = append(g.presented, p)
	if len(g.presents) == 0 {
		return 0, nil
	}
	next := g.presents[0]
	g.presents = g.presents[1:]
	return next.res, next.err
}

// fakeCommandBuffer records the commands issued to it.
type fakeCommandBuffer struct {
	calls      []string
	renderPass core1_0.RenderPassBeginInfo
	viewport   core1_0.Viewport
	endErr     error
}

func (b *fakeCommandBuffer) Reset() error {
	b.calls = nil
	return nil
}

func (b *fakeCommandBuffer) Begin() error {
	b.calls = append(b.calls, "begin")
	return nil
}

func (b *fakeCommandBuffer) BeginRenderPass(info core1_0.RenderPassBeginInfo) error {
	b.calls = append(b.calls, "begin render pass")
	b.renderPass = info
	return nil
}

func (b *fakeCommandBuffer) BindPipeline(pipeline core1_0.Pipeline) {
	b.calls = append(b.calls, "bind pipeline")
}

func (b *fakeCommandBuffer) SetViewport(viewport core1_0.Viewport) {
	b.calls = append(b.calls, "set viewport")
	b.viewport = viewport
}

func (b *fakeCommandBuffer) SetScissor(scissor core1_0.Rect2D) {
	b.calls = append(b.calls, "set scissor")
}

func (b *fakeCommandBuffer) Draw(vertexCount, instanceCount int) {
	b.calls = append(b.calls, "draw")
}

func (b *fakeCommandBuffer) EndRenderPass() {
	b.calls = append(b.calls, "end render pass")
}

func (b *fakeCommandBuffer) End() error {
	b.calls = append(b.calls, "end")
	return b.endErr
}
