package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

var vkDeviceTypes = map[core1_0.PhysicalDeviceType]DeviceType{
	core1_0.PhysicalDeviceTypeOther:         DeviceTypeOther,
	core1_0.PhysicalDeviceTypeIntegratedGPU: DeviceTypeIntegratedGPU,
	core1_0.PhysicalDeviceTypeDiscreteGPU:   DeviceTypeDiscreteGPU,
	core1_0.PhysicalDeviceTypeVirtualGPU:    DeviceTypeVirtualGPU,
	core1_0.PhysicalDeviceTypeCPU:           DeviceTypeCPU,
}

type vkPhysicalDevice struct {
	device core1_0.PhysicalDevice
}

// WrapPhysicalDevice adapts a vkngwrapper physical device to the gpu boundary.
func WrapPhysicalDevice(device core1_0.PhysicalDevice) PhysicalDevice {
	return &vkPhysicalDevice{device: device}
}

// EnumeratePhysicalDevices lists the instance's physical devices in driver order.
func EnumeratePhysicalDevices(instance core1_0.Instance) ([]PhysicalDevice, error) {
	physicalDevices, _, err := instance.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	devices := make([]PhysicalDevice, 0, len(physicalDevices))
	for _, device := range physicalDevices {
		devices = append(devices, WrapPhysicalDevice(device))
	}
	return devices, nil
}

func (d *vkPhysicalDevice) Handle() core1_0.PhysicalDevice { return d.device }

func (d *vkPhysicalDevice) Properties() (DeviceProperties, error) {
	properties, err := d.device.Properties()
	if err != nil {
		return DeviceProperties{}, errors.Wrap(err, "physical device properties")
	}

	return DeviceProperties{
		Name:              properties.DriverName,
		Type:              vkDeviceTypes[properties.DriverType],
		PipelineCacheUUID: properties.PipelineCacheUUID,
	}, nil
}

func (d *vkPhysicalDevice) QueueFamilies() []QueueFamily {
	queueFamilies := d.device.QueueFamilyProperties()

	families := make([]QueueFamily, 0, len(queueFamilies))
	for _, queueFamily := range queueFamilies {
		families = append(families, QueueFamily{
			Flags:      queueFamily.QueueFlags,
			QueueCount: queueFamily.QueueCount,
		})
	}
	return families
}

func (d *vkPhysicalDevice) Extensions() (map[string]struct{}, error) {
	extensions, _, err := d.device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}

	names := make(map[string]struct{}, len(extensions))
	for name := range extensions {
		names[name] = struct{}{}
	}
	return names, nil
}

func (d *vkPhysicalDevice) CreateDevice(info core1_0.DeviceCreateInfo) (Device, common.VkResult, error) {
	device, res, err := d.device.CreateDevice(nil, info)
	if err != nil {
		return nil, res, err
	}
	return WrapDevice(device), res, nil
}

type vkSurface struct {
	surface khr_surface.Surface
}

// WrapSurface adapts a khr_surface surface to the gpu boundary.
func WrapSurface(surface khr_surface.Surface) Surface {
	return &vkSurface{surface: surface}
}

func (s *vkSurface) Handle() khr_surface.Surface { return s.surface }

func (s *vkSurface) SupportsQueueFamily(device PhysicalDevice, queueFamily int) (bool, error) {
	supported, _, err := s.surface.PhysicalDeviceSurfaceSupport(device.Handle(), queueFamily)
	return supported, err
}

func (s *vkSurface) Capabilities(device PhysicalDevice) (*khr_surface.SurfaceCapabilities, error) {
	capabilities, _, err := s.surface.PhysicalDeviceSurfaceCapabilities(device.Handle())
	return capabilities, err
}

func (s *vkSurface) Formats(device PhysicalDevice) ([]khr_surface.SurfaceFormat, error) {
	formats, _, err := s.surface.PhysicalDeviceSurfaceFormats(device.Handle())
	return formats, err
}

func (s *vkSurface) PresentModes(device PhysicalDevice) ([]khr_surface.PresentMode, error) {
	presentModes, _, err := s.surface.PhysicalDeviceSurfacePresentModes(device.Handle())
	return presentModes, err
}

type vkDevice struct {
	device             core1_0.Device
	swapchainExtension khr_swapchain.Extension
}

// WrapDevice adapts a vkngwrapper logical device to the gpu boundary.
func WrapDevice(device core1_0.Device) Device {
	return &vkDevice{device: device}
}

func (d *vkDevice) Handle() core1_0.Device { return d.device }

func (d *vkDevice) Queue(queueFamily int) core1_0.Queue {
	return d.device.GetQueue(queueFamily, 0)
}

func (d *vkDevice) CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (khr_swapchain.Swapchain, common.VkResult, error) {
	if d.swapchainExtension == nil {
		d.swapchainExtension = khr_swapchain.CreateExtensionFromDevice(d.device)
	}
	return d.swapchainExtension.CreateSwapchain(d.device, nil, info)
}

func (d *vkDevice) SwapchainImages(swapchain khr_swapchain.Swapchain) ([]core1_0.Image, common.VkResult, error) {
	return swapchain.SwapchainImages()
}

func (d *vkDevice) DestroySwapchain(swapchain khr_swapchain.Swapchain) {
	swapchain.Destroy(nil)
}

func (d *vkDevice) CreateImageView(info core1_0.ImageViewCreateInfo) (core1_0.ImageView, common.VkResult, error) {
	return d.device.CreateImageView(nil, info)
}

func (d *vkDevice) DestroyImageView(imageView core1_0.ImageView) {
	imageView.Destroy(nil)
}

func (d *vkDevice) CreateRenderPass(info core1_0.RenderPassCreateInfo) (core1_0.RenderPass, common.VkResult, error) {
	return d.device.CreateRenderPass(nil, info)
}

func (d *vkDevice) DestroyRenderPass(renderPass core1_0.RenderPass) {
	renderPass.Destroy(nil)
}

func (d *vkDevice) CreateFramebuffer(info core1_0.FramebufferCreateInfo) (core1_0.Framebuffer, common.VkResult, error) {
	return d.device.CreateFramebuffer(nil, info)
}

func (d *vkDevice) DestroyFramebuffer(framebuffer core1_0.Framebuffer) {
	framebuffer.Destroy(nil)
}

func (d *vkDevice) CreateCommandPool(info core1_0.CommandPoolCreateInfo) (core1_0.CommandPool, common.VkResult, error) {
	return d.device.CreateCommandPool(nil, info)
}

func (d *vkDevice) DestroyCommandPool(commandPool core1_0.CommandPool) {
	commandPool.Destroy(nil)
}

func (d *vkDevice) AllocateCommandBuffers(info core1_0.CommandBufferAllocateInfo) ([]core1_0.CommandBuffer, common.VkResult, error) {
	return d.device.AllocateCommandBuffers(info)
}

func (d *vkDevice) FreeCommandBuffers(buffers []core1_0.CommandBuffer) {
	d.device.FreeCommandBuffers(buffers)
}

func (d *vkDevice) CreatePipelineLayout(info core1_0.PipelineLayoutCreateInfo) (core1_0.PipelineLayout, common.VkResult, error) {
	return d.device.CreatePipelineLayout(nil, info)
}

func (d *vkDevice) DestroyPipelineLayout(layout core1_0.PipelineLayout) {
	layout.Destroy(nil)
}

func (d *vkDevice) CreateGraphicsPipeline(info core1_0.GraphicsPipelineCreateInfo) (core1_0.Pipeline, common.VkResult, error) {
	pipelines, res, err := d.device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{info})
	if err != nil {
		return nil, res, err
	}
	if len(pipelines) != 1 {
		return nil, res, errors.Newf("expected 1 graphics pipeline, driver returned %d", len(pipelines))
	}
	return pipelines[0], res, nil
}

func (d *vkDevice) DestroyPipeline(pipeline core1_0.Pipeline) {
	pipeline.Destroy(nil)
}

func (d *vkDevice) WaitIdle() error {
	_, err := d.device.WaitIdle()
	return err
}

func (d *vkDevice) Destroy() {
	d.device.Destroy(nil)
}
