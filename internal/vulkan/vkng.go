package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// vkGPU implements GPU on a vkngwrapper logical device.
type vkGPU struct {
	physicalDevice core1_0.PhysicalDevice
	device         core1_0.Device
	surface        khr_surface.Surface
	swapchains     khr_swapchain.Extension
	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue
}

var _ GPU = (*vkGPU)(nil)

func (g *vkGPU) WaitIdle() error {
	res, err := g.device.WaitIdle()
	return check("device wait idle", res, err)
}

func (g *vkGPU) SurfaceCapabilities() (*khr_surface.SurfaceCapabilities, error) {
	capabilities, res, err := g.surface.PhysicalDeviceSurfaceCapabilities(g.physicalDevice)
	return capabilities, check("query surface capabilities", res, err)
}

func (g *vkGPU) CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (khr_swapchain.Swapchain, error) {
	swapchain, res, err := g.swapchains.CreateSwapchain(g.device, nil, info)
	return swapchain, check("create swapchain", res, err)
}

func (g *vkGPU) SwapchainImages(swapchain khr_swapchain.Swapchain) ([]core1_0.Image, error) {
	images, res, err := swapchain.SwapchainImages()
	return images, check("get swapchain images", res, err)
}

func (g *vkGPU) DestroySwapchain(swapchain khr_swapchain.Swapchain) { swapchain.Destroy(nil) }

func (g *vkGPU) CreateImageView(info core1_0.ImageViewCreateInfo) (core1_0.ImageView, error) {
	view, res, err := g.device.CreateImageView(nil, info)
	return view, check("create image view", res, err)
}

func (g *vkGPU) DestroyImageView(view core1_0.ImageView) { view.Destroy(nil) }

func (g *vkGPU) CreateFramebuffer(info core1_0.FramebufferCreateInfo) (core1_0.Framebuffer, error) {
	framebuffer, res, err := g.device.CreateFramebuffer(nil, info)
	return framebuffer, check("create framebuffer", res, err)
}

func (g *vkGPU) DestroyFramebuffer(framebuffer core1_0.Framebuffer) { framebuffer.Destroy(nil) }

func (g *vkGPU) CreateRenderPass(info core1_0.RenderPassCreateInfo) (core1_0.RenderPass, error) {
	renderPass, res, err := g.device.CreateRenderPass(nil, info)
	return renderPass, check("create render pass", res, err)
}

func (g *vkGPU) DestroyRenderPass(renderPass core1_0.RenderPass) { renderPass.Destroy(nil) }

func (g *vkGPU) CreateShaderModule(code []uint32) (core1_0.ShaderModule, error) {
	module, res, err := g.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	return module, check("create shader module", res, err)
}

func (g *vkGPU) DestroyShaderModule(module core1_0.ShaderModule) { module.Destroy(nil) }

func (g *vkGPU) CreatePipelineLayout(info core1_0.PipelineLayoutCreateInfo) (core1_0.PipelineLayout, error) {
	layout, res, err := g.device.CreatePipelineLayout(nil, info)
	return layout, check("create pipeline layout", res, err)
}

func (g *vkGPU) DestroyPipelineLayout(layout core1_0.PipelineLayout) { layout.Destroy(nil) }

func (g *vkGPU) CreateGraphicsPipeline(info core1_0.GraphicsPipelineCreateInfo) (core1_0.Pipeline, error) {
	pipelines, res, err := g.device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{info})
	if err != nil {
		return nil, check("create graphics pipeline", res, err)
	}
	return pipelines[0], nil
}

func (g *vkGPU) DestroyPipeline(pipeline core1_0.Pipeline) { pipeline.Destroy(nil) }

func (g *vkGPU) CreateCommandPool(queueFamily int) (core1_0.CommandPool, error) {
	pool, res, err := g.device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: queueFamily,
	})
	return pool, check("create command pool", res, err)
}

func (g *vkGPU) DestroyCommandPool(pool core1_0.CommandPool) { pool.Destroy(nil) }

func (g *vkGPU) AllocateCommandBuffers(pool core1_0.CommandPool, count int) ([]CommandBuffer, error) {
	buffers, res, err := g.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, check("allocate command buffers", res, err)
	}

	wrapped := make([]CommandBuffer, len(buffers))
	for i, buffer := range buffers {
		wrapped[i] = &vkCommandBuffer{buffer: buffer}
	}
	return wrapped, nil
}

func (g *vkGPU) CreateSemaphore() (core1_0.Semaphore, error) {
	semaphore, res, err := g.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	return semaphore, check("create semaphore", res, err)
}

func (g *vkGPU) DestroySemaphore(semaphore core1_0.Semaphore) { semaphore.Destroy(nil) }

func (g *vkGPU) CreateFence(signaled bool) (core1_0.Fence, error) {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}
	fence, res, err := g.device.CreateFence(nil, info)
	return fence, check("create fence", res, err)
}

func (g *vkGPU) DestroyFence(fence core1_0.Fence) { fence.Destroy(nil) }

func (g *vkGPU) WaitForFence(fence core1_0.Fence) error {
	res, err := g.device.WaitForFences(true, common.NoTimeout, []core1_0.Fence{fence})
	return check("wait for fence", res, err)
}

func (g *vkGPU) ResetFence(fence core1_0.Fence) error {
	res, err := g.device.ResetFences([]core1_0.Fence{fence})
	return check("reset fence", res, err)
}

func (g *vkGPU) AcquireNextImage(swapchain khr_swapchain.Swapchain, signal core1_0.Semaphore) (int, common.VkResult, error) {
	return swapchain.AcquireNextImage(common.NoTimeout, signal, nil)
}

func (g *vkGPU) Submit(s Submission) error {
	buffer, ok := s.Commands.(*vkCommandBuffer)
	if !ok {
		return errors.Newf("submit: foreign command buffer %T", s.Commands)
	}

	res, err := g.graphicsQueue.Submit(s.Fence, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   []core1_0.Semaphore{s.Wait},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{buffer.buffer},
			SignalSemaphores: []core1_0.Semaphore{s.Signal},
		},
	})
	return check("queue submit", res, err)
}

func (g *vkGPU) Present(p Presentation) (common.VkResult, error) {
	return g.swapchains.QueuePresent(g.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{p.Wait},
		Swapchains:     []khr_swapchain.Swapchain{p.Swapchain},
		ImageIndices:   []int{p.Image},
	})
}

// vkCommandBuffer implements CommandBuffer on a primary command buffer.
type vkCommandBuffer struct {
	buffer core1_0.CommandBuffer
}

func (b *vkCommandBuffer) Reset() error {
	res, err := b.buffer.Reset(0)
	return check("reset command buffer", res, err)
}

func (b *vkCommandBuffer) Begin() error {
	res, err := b.buffer.Begin(core1_0.CommandBufferBeginInfo{})
	return check("begin command buffer", res, err)
}

func (b *vkCommandBuffer) BeginRenderPass(info core1_0.RenderPassBeginInfo) error {
	return b.buffer.CmdBeginRenderPass(core1_0.SubpassContentsInline, info)
}

func (b *vkCommandBuffer) BindPipeline(pipeline core1_0.Pipeline) {
	b.buffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, pipeline)
}

func (b *vkCommandBuffer) SetViewport(viewport core1_0.Viewport) {
	b.buffer.CmdSetViewport([]core1_0.Viewport{viewport})
}

func (b *vkCommandBuffer) SetScissor(scissor core1_0.Rect2D) {
	b.buffer.CmdSetScissor([]core1_0.Rect2D{scissor})
}

func (b *vkCommandBuffer) Draw(vertexCount, instanceCount int) {
	b.buffer.CmdDraw(vertexCount, instanceCount, 0, 0)
}

func (b *vkCommandBuffer) EndRenderPass() { b.buffer.CmdEndRenderPass() }

func (b *vkCommandBuffer) End() error {
	res, err := b.buffer.End()
	return check("end command buffer", res, err)
}

// physicalCandidate exposes a physical device to device selection.
type physicalCandidate struct {
	device  core1_0.PhysicalDevice
	surface khr_surface.Surface
}

var _ candidate = physicalCandidate{}

func (c physicalCandidate) Name() string {
	properties, err := c.device.Properties()
	if err != nil {
		return "unknown device"
	}
	return properties.DeviceName
}

func (c physicalCandidate) GraphicsFamilies() []bool {
	queueFamilies := c.device.QueueFamilyProperties()
	graphics := make([]bool, len(queueFamilies))
	for i, queueFamily := range queueFamilies {
		graphics[i] = (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0
	}
	return graphics
}

func (c physicalCandidate) PresentSupport(family int) (bool, error) {
	supported, res, err := c.surface.PhysicalDeviceSurfaceSupport(c.device, family)
	return supported, check("query surface support", res, err)
}

func (c physicalCandidate) Extensions() (map[string]bool, error) {
	extensions, res, err := c.device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return nil, check("enumerate device extensions", res, err)
	}
	names := make(map[string]bool, len(extensions))
	for name := range extensions {
		names[name] = true
	}
	return names, nil
}

func (c physicalCandidate) SwapChainSupport() (SwapChainSupportDetails, error) {
	var details SwapChainSupportDetails
	var res common.VkResult
	var err error

	details.Capabilities, res, err = c.surface.PhysicalDeviceSurfaceCapabilities(c.device)
	if err != nil {
		return details, check("query surface capabilities", res, err)
	}

	details.Formats, res, err = c.surface.PhysicalDeviceSurfaceFormats(c.device)
	if err != nil {
		return details, check("query surface formats", res, err)
	}

	details.PresentModes, res, err = c.surface.PhysicalDeviceSurfacePresentModes(c.device)
	return details, check("query present modes", res, err)
}
