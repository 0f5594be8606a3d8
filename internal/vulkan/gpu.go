package vulkan

import (
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// GPU is the part of a logical device that the swapchain, pipeline and
// frame scheduler drive. It is bound to one physical device, one surface
// and a graphics and a present queue.
//
// vkGPU implements it on vkngwrapper. Every handle it returns is owned by
// the caller and must be given back to the matching Destroy method.
type GPU interface {
	// WaitIdle blocks until all work on the device has completed.
	WaitIdle() error

	// SurfaceCapabilities queries the current surface capabilities.
	SurfaceCapabilities() (*khr_surface.SurfaceCapabilities, error)

	CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (khr_swapchain.Swapchain, error)
	SwapchainImages(swapchain khr_swapchain.Swapchain) ([]core1_0.Image, error)
	DestroySwapchain(swapchain khr_swapchain.Swapchain)

	CreateImageView(info core1_0.ImageViewCreateInfo) (core1_0.ImageView, error)
	DestroyImageView(view core1_0.ImageView)

	CreateFramebuffer(info core1_0.FramebufferCreateInfo) (core1_0.Framebuffer, error)
	DestroyFramebuffer(framebuffer core1_0.Framebuffer)

	CreateRenderPass(info core1_0.RenderPassCreateInfo) (core1_0.RenderPass, error)
	DestroyRenderPass(renderPass core1_0.RenderPass)

	CreateShaderModule(code []uint32) (core1_0.ShaderModule, error)
	DestroyShaderModule(module core1_0.ShaderModule)

	CreatePipelineLayout(info core1_0.PipelineLayoutCreateInfo) (core1_0.PipelineLayout, error)
	DestroyPipelineLayout(layout core1_0.PipelineLayout)

	CreateGraphicsPipeline(info core1_0.GraphicsPipelineCreateInfo) (core1_0.Pipeline, error)
	DestroyPipeline(pipeline core1_0.Pipeline)

	// CreateCommandPool creates a pool whose buffers can be reset one by one.
	CreateCommandPool(queueFamily int) (core1_0.CommandPool, error)
	// DestroyCommandPool also frees every buffer allocated from the pool.
	DestroyCommandPool(pool core1_0.CommandPool)
	AllocateCommandBuffers(pool core1_0.CommandPool, count int) ([]CommandBuffer, error)

	CreateSemaphore() (core1_0.Semaphore, error)
	DestroySemaphore(semaphore core1_0.Semaphore)

	CreateFence(signaled bool) (core1_0.Fence, error)
	DestroyFence(fence core1_0.Fence)
	// WaitForFence blocks without timeout until fence is signaled.
	WaitForFence(fence core1_0.Fence) error
	ResetFence(fence core1_0.Fence) error

	// AcquireNextImage returns the index of the next presentable image.
	// signal is signaled once the image can be rendered to. The result is
	// returned alongside err so out-of-date and suboptimal surfaces can be
	// told apart from real failures.
	AcquireNextImage(swapchain khr_swapchain.Swapchain, signal core1_0.Semaphore) (int, common.VkResult, error)

	// Submit queues commands on the graphics queue.
	Submit(s Submission) error

	// Present queues an image for presentation on the present queue.
	Present(p Presentation) (common.VkResult, error)
}

// CommandBuffer records the commands of one frame.
type CommandBuffer interface {
	Reset() error
	Begin() error
	BeginRenderPass(info core1_0.RenderPassBeginInfo) error
	BindPipeline(pipeline core1_0.Pipeline)
	SetViewport(viewport core1_0.Viewport)
	SetScissor(scissor core1_0.Rect2D)
	Draw(vertexCount, instanceCount int)
	EndRenderPass()
	End() error
}

// Submission is one batch for the graphics queue: it waits on Wait at the
// color-attachment-output stage, signals Signal when done and then Fence.
type Submission struct {
	Commands CommandBuffer
	Wait     core1_0.Semaphore
	Signal   core1_0.Semaphore
	Fence    core1_0.Fence
}

// Presentation presents Image of Swapchain once Wait is signaled.
type Presentation struct {
	Swapchain khr_swapchain.Swapchain
	Image     int
	Wait      core1_0.Semaphore
}
