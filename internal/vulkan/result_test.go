package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

func TestResultName(t *testing.T) {
	assert.Equal(t, "VK_SUCCESS", ResultName(0))
	assert.Equal(t, "VK_ERROR_OUT_OF_DATE_KHR", ResultName(khr_swapchain.VKErrorOutOfDate))
	assert.Equal(t, "VK_SUBOPTIMAL_KHR", ResultName(khr_swapchain.VKSuboptimal))
	assert.Equal(t, "VK_ERROR_DEVICE_LOST", ResultName(common.VkResult(-4)))
	assert.Equal(t, "VkResult(-424242)", ResultName(common.VkResult(-424242)))
}

func TestIsStale(t *testing.T) {
	assert.True(t, isStale(khr_swapchain.VKErrorOutOfDate))
	assert.True(t, isStale(khr_swapchain.VKSuboptimal))
	assert.False(t, isStale(0))
	assert.False(t, isStale(common.VkResult(-4)))
}

func TestCheck(t *testing.T) {
	assert.NoError(t, check("create fence", 0, nil))

	err := check("create fence", common.VkResult(-2), errFake)
	require.Error(t, err)
	assert.Equal(t, "create fence: VK_ERROR_OUT_OF_DEVICE_MEMORY: fake failure", err.Error())
	assert.True(t, errors.Is(err, ErrNoDeviceMemory))
	assert.True(t, errors.Is(err, errFake))

	err = check("create instance", common.VkResult(-9), errFake)
	assert.False(t, errors.Is(err, ErrNoDeviceMemory))
	assert.Contains(t, err.Error(), "VK_ERROR_INCOMPATIBLE_DRIVER")
}
