package vulkan

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// swapchainImage is everything that exists once per presentable image.
type swapchainImage struct {
	image       core1_0.Image
	view        core1_0.ImageView
	framebuffer core1_0.Framebuffer
}

// Swapchain owns the presentable images of a surface along with one view
// and one framebuffer per image, and rebuilds them when the surface changes.
type Swapchain struct {
	gpu      GPU
	log      *slog.Logger
	surface  khr_surface.Surface
	families QueueFamilyIndices
	format   khr_surface.SurfaceFormat
	mode     khr_surface.PresentMode
	drawable func() (int, int)

	capabilities *khr_surface.SurfaceCapabilities
	extent       core1_0.Extent2D
	handle       khr_swapchain.Swapchain
	images       []swapchainImage
	renderPass   core1_0.RenderPass
}

// SwapchainOptions holds what stays fixed across recreations.
type SwapchainOptions struct {
	Surface      khr_surface.Surface
	Selection    Selection
	DrawableSize func() (width, height int)
	Logger       *slog.Logger
}

// NewSwapchain creates the swapchain and one view per image. Framebuffers
// follow once a render pass is attached.
func NewSwapchain(gpu GPU, opts SwapchainOptions) (*Swapchain, error) {
	sc := &Swapchain{
		gpu:          gpu,
		log:          opts.Logger,
		surface:      opts.Surface,
		families:     opts.Selection.Families,
		format:       opts.Selection.Format,
		mode:         opts.Selection.PresentMode,
		drawable:     opts.DrawableSize,
		capabilities: opts.Selection.Support.Capabilities,
	}
	if sc.log == nil {
		sc.log = slog.Default()
	}

	if err := sc.create(); err != nil {
		sc.DestroyChain()
		return nil, err
	}
	return sc, nil
}

func (s *Swapchain) Format() core1_0.Format   { return s.format.Format }
func (s *Swapchain) Extent() core1_0.Extent2D { return s.extent }
func (s *Swapchain) Len() int                 { return len(s.images) }

func (s *Swapchain) Handle() khr_swapchain.Swapchain { return s.handle }

// Framebuffer returns the framebuffer of image index.
func (s *Swapchain) Framebuffer(index int) core1_0.Framebuffer {
	return s.images[index].framebuffer
}

// AttachRenderPass builds one framebuffer per view against renderPass. The
// render pass is reused by every later recreation.
func (s *Swapchain) AttachRenderPass(renderPass core1_0.RenderPass) error {
	s.renderPass = renderPass
	return s.createFramebuffers()
}

func (s *Swapchain) create() error {
	w, h := 0, 0
	if s.drawable != nil {
		w, h = s.drawable()
	}
	s.extent = chooseSwapExtent(s.capabilities, w, h)

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if !s.families.Shared() {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = s.families.Unique()
	}

	handle, err := s.gpu.CreateSwapchain(khr_swapchain.SwapchainCreateInfo{
		Surface: s.surface,

		MinImageCount:    chooseImageCount(s.capabilities),
		ImageFormat:      s.format.Format,
		ImageColorSpace:  s.format.ColorSpace,
		ImageExtent:      s.extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   s.capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    s.mode,
		Clipped:        true,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	s.handle = handle

	images, err := s.gpu.SwapchainImages(handle)
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}

	s.images = make([]swapchainImage, 0, len(images))
	for _, image := range images {
		view, err := s.gpu.CreateImageView(core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   s.format.Format,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return errors.Wrapf(err, "create image view %d", len(s.images))
		}
		s.images = append(s.images, swapchainImage{image: image, view: view})
	}

	s.log.Debug("swapchain created",
		slog.Int("images", len(s.images)),
		slog.Int("width", s.extent.Width),
		slog.Int("height", s.extent.Height))
	return nil
}

func (s *Swapchain) createFramebuffers() error {
	for i := range s.images {
		framebuffer, err := s.gpu.CreateFramebuffer(core1_0.FramebufferCreateInfo{
			RenderPass:  s.renderPass,
			Layers:      1,
			Attachments: []core1_0.ImageView{s.images[i].view},
			Width:       s.extent.Width,
			Height:      s.extent.Height,
		})
		if err != nil {
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		s.images[i].framebuffer = framebuffer
	}
	return nil
}

// Recreate waits for the device to go idle and rebuilds the swapchain, its
// views and framebuffers for the current surface. When the surface has no
// area, as with a minimized window, nothing is touched and ErrZeroExtent is
// returned.
func (s *Swapchain) Recreate() error {
	if err := s.gpu.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	capabilities, err := s.gpu.SurfaceCapabilities()
	if err != nil {
		return errors.Wrap(err, "query surface capabilities")
	}
	if extent := capabilities.CurrentExtent; extent.Width == 0 || extent.Height == 0 {
		return ErrZeroExtent
	}

	s.DestroyFramebuffers()
	s.destroyViews()
	s.destroyHandle()
	s.capabilities = capabilities

	if err := s.create(); err != nil {
		return err
	}
	return s.createFramebuffers()
}

// DestroyFramebuffers releases the framebuffers. It is split from
// DestroyChain because the render pass has to go in between.
func (s *Swapchain) DestroyFramebuffers() {
	for i := range s.images {
		if s.images[i].framebuffer != nil {
			s.gpu.DestroyFramebuffer(s.images[i].framebuffer)
			s.images[i].framebuffer = nil
		}
	}
}

// DestroyChain releases the image views and then the swapchain, along with
// any framebuffers still left.
func (s *Swapchain) DestroyChain() {
	s.DestroyFramebuffers()
	s.destroyViews()
	s.destroyHandle()
}

func (s *Swapchain) destroyViews() {
	for i := range s.images {
		if s.images[i].view != nil {
			s.gpu.DestroyImageView(s.images[i].view)
		}
	}
	s.images = nil
}

func (s *Swapchain) destroyHandle() {
	if s.handle != nil {
		s.gpu.DestroySwapchain(s.handle)
		s.handle = nil
	}
}
