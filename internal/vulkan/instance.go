package vulkan

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
)

// ValidationLayers are enabled when validation is requested. Missing layers
// fail instance creation.
var ValidationLayers = []string{"VK_LAYER_KHRONOS_validation"}

const (
	portabilityEnumerationExtension = "VK_KHR_portability_enumeration"
	// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
	instanceCreateEnumeratePortability core1_0.InstanceCreateFlags = 0x1
)

// instanceOptions lists what the instance needs from the loader.
type instanceOptions struct {
	AppName    string
	Extensions []string
	Validation bool
	Logger     *slog.Logger
}

func createLoader() (core.Loader, error) {
	loader, err := core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	return loader, errors.Wrap(err, "create vulkan loader")
}

// instanceCreateInfo checks extension and layer availability and fills in
// the instance create info. extensions and layers hold what the loader
// offers.
func instanceCreateInfo(opts instanceOptions, extensions, layers map[string]bool) (core1_0.InstanceCreateInfo, error) {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	for _, ext := range opts.Extensions {
		if !extensions[ext] {
			return instanceOptions, errors.Mark(errors.Newf("missing instance extension %s", ext), ErrMissingExtension)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if opts.Validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	if extensions[portabilityEnumerationExtension] {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, portabilityEnumerationExtension)
		instanceOptions.Flags |= instanceCreateEnumeratePortability
	}

	if opts.Validation {
		for _, layer := range ValidationLayers {
			if !layers[layer] {
				err := errors.Mark(errors.Newf("validation layer %s not available", layer), ErrMissingLayer)
				return instanceOptions, errors.WithHint(err, "install the Vulkan SDK or run with validation disabled")
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		instanceOptions.Next = debugMessengerOptions(opts.Logger)
	}

	return instanceOptions, nil
}

func createInstance(loader core.Loader, opts instanceOptions) (core1_0.Instance, error) {
	extensions, res, err := loader.AvailableExtensions()
	if err != nil {
		return nil, check("enumerate instance extensions", res, err)
	}
	layers, res, err := loader.AvailableLayers()
	if err != nil {
		return nil, check("enumerate instance layers", res, err)
	}

	info, err := instanceCreateInfo(opts, keys(extensions), keys(layers))
	if err != nil {
		return nil, err
	}

	instance, res, err := loader.CreateInstance(nil, info)
	return instance, check("create instance", res, err)
}

func keys[V any](m map[string]V) map[string]bool {
	set := make(map[string]bool, len(m))
	for k := range m {
		set[k] = true
	}
	return set
}

func debugMessengerOptions(log *slog.Logger) ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    debugLogger(log),
	}
}

// debugLogger forwards validation messages to log.
func debugLogger(log *slog.Logger) func(ext_debug_utils.DebugUtilsMessageTypeFlags, ext_debug_utils.DebugUtilsMessageSeverityFlags, *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	return func(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
		level := slog.LevelWarn
		if severity&ext_debug_utils.SeverityError != 0 {
			level = slog.LevelError
		}
		log.Log(context.Background(), level, data.Message,
			slog.String("source", "validation"),
			slog.Any("type", msgType))
		return false
	}
}

func createDebugMessenger(instance core1_0.Instance, log *slog.Logger) (ext_debug_utils.DebugUtilsMessenger, error) {
	debugLoader := ext_debug_utils.CreateExtensionFromInstance(instance)
	messenger, res, err := debugLoader.CreateDebugUtilsMessenger(instance, nil, debugMessengerOptions(log))
	return messenger, check("create debug messenger", res, err)
}
