package vulkan

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// Sentinels for results that callers may want to tell apart.
var (
	ErrNoDevice         = errors.New("vulkan: no suitable physical device")
	ErrNoHostMemory     = errors.New("vulkan: out of host memory")
	ErrNoDeviceMemory   = errors.New("vulkan: out of device memory")
	ErrDeviceLost       = errors.New("vulkan: device lost")
	ErrSurfaceLost      = errors.New("vulkan: surface lost")
	ErrMissingLayer     = errors.New("vulkan: layer not present")
	ErrMissingExtension = errors.New("vulkan: extension not present")
	ErrZeroExtent       = errors.New("vulkan: surface has no presentable area")
)

var resultNames = map[int32]string{
	0:           "VK_SUCCESS",
	1:           "VK_NOT_READY",
	2:           "VK_TIMEOUT",
	3:           "VK_EVENT_SET",
	4:           "VK_EVENT_RESET",
	5:           "VK_INCOMPLETE",
	-1:          "VK_ERROR_OUT_OF_HOST_MEMORY",
	-2:          "VK_ERROR_OUT_OF_DEVICE_MEMORY",
	-3:          "VK_ERROR_INITIALIZATION_FAILED",
	-4:          "VK_ERROR_DEVICE_LOST",
	-5:          "VK_ERROR_MEMORY_MAP_FAILED",
	-6:          "VK_ERROR_LAYER_NOT_PRESENT",
	-7:          "VK_ERROR_EXTENSION_NOT_PRESENT",
	-8:          "VK_ERROR_FEATURE_NOT_PRESENT",
	-9:          "VK_ERROR_INCOMPATIBLE_DRIVER",
	-10:         "VK_ERROR_TOO_MANY_OBJECTS",
	-11:         "VK_ERROR_FORMAT_NOT_SUPPORTED",
	-12:         "VK_ERROR_FRAGMENTED_POOL",
	-13:         "VK_ERROR_UNKNOWN",
	-1000069000: "VK_ERROR_OUT_OF_POOL_MEMORY",
	-1000072003: "VK_ERROR_INVALID_EXTERNAL_HANDLE",
	-1000161000: "VK_ERROR_FRAGMENTATION",
	-1000257000: "VK_ERROR_INVALID_OPAQUE_CAPTURE_ADDRESS",
	-1000000000: "VK_ERROR_SURFACE_LOST_KHR",
	-1000000001: "VK_ERROR_NATIVE_WINDOW_IN_USE_KHR",
	1000001003:  "VK_SUBOPTIMAL_KHR",
	-1000001004: "VK_ERROR_OUT_OF_DATE_KHR",
	-1000003001: "VK_ERROR_INCOMPATIBLE_DISPLAY_KHR",
	-1000011001: "VK_ERROR_VALIDATION_FAILED_EXT",
	-1000012000: "VK_ERROR_INVALID_SHADER_NV",
	-1000158000: "VK_ERROR_INVALID_DRM_FORMAT_MODIFIER_PLANE_LAYOUT_EXT",
	-1000174001: "VK_ERROR_NOT_PERMITTED_KHR",
	-1000255000: "VK_ERROR_FULL_SCREEN_EXCLUSIVE_MODE_LOST_EXT",
	-1000338000: "VK_ERROR_COMPRESSION_EXHAUSTED_EXT",
}

var resultSentinels = map[int32]error{
	-1:          ErrNoHostMemory,
	-2:          ErrNoDeviceMemory,
	-4:          ErrDeviceLost,
	-6:          ErrMissingLayer,
	-7:          ErrMissingExtension,
	-1000000000: ErrSurfaceLost,
}

// ResultName returns the Vulkan name of res.
func ResultName(res common.VkResult) string {
	if name, ok := resultNames[int32(res)]; ok {
		return name
	}
	return "VkResult(" + strconv.FormatInt(int64(res), 10) + ")"
}

// isStale reports whether res asks for the swapchain to be rebuilt.
func isStale(res common.VkResult) bool {
	return res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal
}

// check turns the outcome of a Vulkan call into a descriptive error.
// It returns nil when err is nil.
func check(op string, res common.VkResult, err error) error {
	if err == nil {
		return nil
	}
	err = errors.Wrapf(err, "%s: %s", op, ResultName(res))
	if sentinel, ok := resultSentinels[int32(res)]; ok {
		err = errors.Mark(err, sentinel)
	}
	return err
}
