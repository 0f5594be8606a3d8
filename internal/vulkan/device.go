package vulkan

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"
)

// DeviceContext is the instance-level state of the Vulkan backend: the
// instance, its debug messenger, the window surface and the logical device
// with its queues.
type DeviceContext struct {
	loader         core.Loader
	instance       core1_0.Instance
	debugMessenger ext_debug_utils.DebugUtilsMessenger
	surface        khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	selection      Selection
	device         core1_0.Device
	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue
}

// ContextOptions configures NewDeviceContext.
type ContextOptions struct {
	AppName    string
	Validation bool
	Logger     *slog.Logger
}

// NewDeviceContext brings the instance up to a logical device able to
// present to window. On failure everything created so far is destroyed.
func NewDeviceContext(window *sdl.Window, opts ContextOptions) (c *DeviceContext, err error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	c = &DeviceContext{}
	defer func() {
		if err != nil {
			c.Destroy()
			c = nil
		}
	}()

	c.loader, err = createLoader()
	if err != nil {
		return c, err
	}

	c.instance, err = createInstance(c.loader, instanceOptions{
		AppName:    opts.AppName,
		Extensions: window.VulkanGetInstanceExtensions(),
		Validation: opts.Validation,
		Logger:     log,
	})
	if err != nil {
		return c, err
	}

	if opts.Validation {
		c.debugMessenger, err = createDebugMessenger(c.instance, log)
		if err != nil {
			return c, err
		}
	}

	surfaceLoader := khr_surface.CreateExtensionFromInstance(c.instance)
	c.surface, err = vkng_sdl2.CreateSurface(c.instance, surfaceLoader, window)
	if err != nil {
		return c, errors.Wrap(err, "create surface")
	}

	if err = c.pickPhysicalDevice(log); err != nil {
		return c, err
	}

	if err = c.createLogicalDevice(); err != nil {
		return c, err
	}

	return c, nil
}

func (c *DeviceContext) pickPhysicalDevice(log *slog.Logger) error {
	physicalDevices, res, err := c.instance.EnumeratePhysicalDevices()
	if err != nil {
		return check("enumerate physical devices", res, err)
	}

	candidates := make([]physicalCandidate, len(physicalDevices))
	for i, device := range physicalDevices {
		candidates[i] = physicalCandidate{device: device, surface: c.surface}
	}

	picked, selection, err := pickPhysicalDevice(candidates, DeviceExtensions)
	if err != nil {
		return err
	}

	c.physicalDevice = picked.device
	c.selection = selection
	log.Info("physical device selected",
		slog.String("device", picked.Name()),
		slog.Int("graphics_family", *selection.Families.GraphicsFamily),
		slog.Int("present_family", *selection.Families.PresentFamily),
		slog.Any("present_mode", selection.PresentMode))
	return nil
}

func (c *DeviceContext) createLogicalDevice() error {
	indices := c.selection.Families

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range indices.Unique() {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, DeviceExtensions...)

	// Portability implementations such as MoltenVK require the subset
	// extension whenever they expose it.
	extensions, res, err := c.physicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return check("enumerate device extensions", res, err)
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	c.device, res, err = c.physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return check("create logical device", res, err)
	}

	c.graphicsQueue = c.device.GetQueue(*indices.GraphicsFamily, 0)
	c.presentQueue = c.device.GetQueue(*indices.PresentFamily, 0)
	return nil
}

// GPU returns the device operations the swapchain and frames are built on.
func (c *DeviceContext) GPU() GPU {
	return &vkGPU{
		physicalDevice: c.physicalDevice,
		device:         c.device,
		surface:        c.surface,
		swapchains:     khr_swapchain.CreateExtensionFromDevice(c.device),
		graphicsQueue:  c.graphicsQueue,
		presentQueue:   c.presentQueue,
	}
}

func (c *DeviceContext) Surface() khr_surface.Surface { return c.surface }
func (c *DeviceContext) Selection() Selection         { return c.selection }

// Destroy releases the device, the debug messenger, the surface and the
// instance, in that order.
func (c *DeviceContext) Destroy() {
	if c.device != nil {
		c.device.Destroy(nil)
		c.device = nil
	}

	if c.debugMessenger != nil {
		c.debugMessenger.Destroy(nil)
		c.debugMessenger = nil
	}

	if c.surface != nil {
		c.surface.Destroy(nil)
		c.surface = nil
	}

	if c.instance != nil {
		c.instance.Destroy(nil)
		c.instance = nil
	}
}
