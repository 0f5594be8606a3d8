package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// DeviceExtensions are required of every physical device.
var DeviceExtensions = []string{
	khr_swapchain.ExtensionName,
}

type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// Shared reports whether graphics and presentation use the same family.
func (i *QueueFamilyIndices) Shared() bool {
	return *i.GraphicsFamily == *i.PresentFamily
}

// Unique lists the distinct families, graphics first.
func (i *QueueFamilyIndices) Unique() []int {
	if i.Shared() {
		return []int{*i.GraphicsFamily}
	}
	return []int{*i.GraphicsFamily, *i.PresentFamily}
}

type SwapChainSupportDetails struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// candidate is a physical device as seen by device selection.
type candidate interface {
	Name() string
	// GraphicsFamilies reports, per queue family, whether it supports graphics.
	GraphicsFamilies() []bool
	PresentSupport(family int) (bool, error)
	Extensions() (map[string]bool, error)
	SwapChainSupport() (SwapChainSupportDetails, error)
}

// Selection is the outcome of negotiating with a physical device.
type Selection struct {
	Families    QueueFamilyIndices
	Format      khr_surface.SurfaceFormat
	PresentMode khr_surface.PresentMode
	Support     SwapChainSupportDetails
}

// findQueueFamilies scans families in index order. The first graphics family
// is kept; the present family follows the scan until both are known, so a
// family supporting both wins over an earlier present-only one.
func findQueueFamilies(device candidate) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}

	for queueFamilyIdx, graphics := range device.GraphicsFamilies() {
		if graphics && indices.GraphicsFamily == nil {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		supported, err := device.PresentSupport(queueFamilyIdx)
		if err != nil {
			return indices, err
		}

		if supported {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

// chooseSwapSurfaceFormat prefers 8-bit BGRA sRGB with a nonlinear sRGB
// color space and otherwise takes the first reported format.
func chooseSwapSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

// chooseSwapPresentMode prefers mailbox and falls back to FIFO, which is
// always available.
func chooseSwapPresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// chooseImageCount asks for one image more than the minimum, within the
// maximum when the surface has one.
func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// chooseSwapExtent uses the surface's current extent. A width of -1 means
// the surface lets the swapchain decide, in which case the drawable size is
// clamped to the supported range.
func chooseSwapExtent(capabilities *khr_surface.SurfaceCapabilities, drawableWidth, drawableHeight int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	width := clamp(drawableWidth, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width)
	height := clamp(drawableHeight, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height)
	return core1_0.Extent2D{Width: width, Height: height}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// checkDevice returns why device cannot be used, or nil with its selection.
func checkDevice(device candidate, required []string) (Selection, error) {
	var sel Selection

	indices, err := findQueueFamilies(device)
	if err != nil {
		return sel, errors.Wrap(err, "query queue families")
	}
	if !indices.IsComplete() {
		return sel, errors.New("no graphics and present queue families")
	}

	extensions, err := device.Extensions()
	if err != nil {
		return sel, errors.Wrap(err, "query device extensions")
	}
	for _, extension := range required {
		if !extensions[extension] {
			return sel, errors.Newf("missing device extension %s", extension)
		}
	}

	support, err := device.SwapChainSupport()
	if err != nil {
		return sel, errors.Wrap(err, "query swapchain support")
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return sel, errors.New("no surface formats or present modes")
	}

	sel.Families = indices
	sel.Support = support
	sel.Format = chooseSwapSurfaceFormat(support.Formats)
	sel.PresentMode = chooseSwapPresentMode(support.PresentModes)
	return sel, nil
}

// pickPhysicalDevice returns the first suitable device in enumeration order.
// The reasons others were rejected are attached to ErrNoDevice.
func pickPhysicalDevice[C candidate](devices []C, required []string) (C, Selection, error) {
	var (
		zero     C
		rejected error
	)
	for _, device := range devices {
		sel, err := checkDevice(device, required)
		if err == nil {
			return device, sel, nil
		}
		rejected = errors.CombineErrors(rejected, errors.Wrapf(err, "%s", device.Name()))
	}

	if rejected == nil {
		return zero, Selection{}, errors.Wrap(ErrNoDevice, "no physical devices")
	}
	return zero, Selection{}, errors.Mark(errors.Wrap(rejected, "no suitable physical device"), ErrNoDevice)
}
