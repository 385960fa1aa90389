// Package gpu is the boundary between the render bootstrap and the Vulkan driver.
//
// Selection, negotiation and assembly logic only talk to the PhysicalDevice, Surface
// and Device interfaces declared here. The vkngwrapper implementations live in vkng.go;
// tests substitute the fakes from gpu/gputest so no live driver is needed.
package gpu

import (
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

type DeviceType int

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

var deviceTypeNames = map[DeviceType]string{
	DeviceTypeOther:         "other",
	DeviceTypeIntegratedGPU: "integrated GPU",
	DeviceTypeDiscreteGPU:   "discrete GPU",
	DeviceTypeVirtualGPU:    "virtual GPU",
	DeviceTypeCPU:           "CPU",
}

func (t DeviceType) String() string {
	name, ok := deviceTypeNames[t]
	if !ok {
		return "unknown"
	}
	return name
}

// DeviceProperties is the subset of the physical device properties used for rating.
type DeviceProperties struct {
	Name              string
	Type              DeviceType
	PipelineCacheUUID uuid.UUID
}

// QueueFamily describes one queue family, in driver enumeration order.
type QueueFamily struct {
	Flags      core1_0.QueueFlags
	QueueCount int
}

type PhysicalDevice interface {
	Handle() core1_0.PhysicalDevice

	Properties() (DeviceProperties, error)
	QueueFamilies() []QueueFamily
	Extensions() (map[string]struct{}, error)

	CreateDevice(info core1_0.DeviceCreateInfo) (Device, common.VkResult, error)
}

// Surface answers presentation queries for a window surface on behalf of a physical device.
type Surface interface {
	Handle() khr_surface.Surface

	SupportsQueueFamily(device PhysicalDevice, queueFamily int) (bool, error)
	Capabilities(device PhysicalDevice) (*khr_surface.SurfaceCapabilities, error)
	Formats(device PhysicalDevice) ([]khr_surface.SurfaceFormat, error)
	PresentModes(device PhysicalDevice) ([]khr_surface.PresentMode, error)
}

// Device is a logical device. Every object it creates must be destroyed through it.
type Device interface {
	Handle() core1_0.Device
	Queue(queueFamily int) core1_0.Queue

	CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (khr_swapchain.Swapchain, common.VkResult, error)
	SwapchainImages(swapchain khr_swapchain.Swapchain) ([]core1_0.Image, common.VkResult, error)
	DestroySwapchain(swapchain khr_swapchain.Swapchain)

	CreateImageView(info core1_0.ImageViewCreateInfo) (core1_0.ImageView, common.VkResult, error)
	DestroyImageView(imageView core1_0.ImageView)

	CreateRenderPass(info core1_0.RenderPassCreateInfo) (core1_0.RenderPass, common.VkResult, error)
	DestroyRenderPass(renderPass core1_0.RenderPass)

	CreateFramebuffer(info core1_0.FramebufferCreateInfo) (core1_0.Framebuffer, common.VkResult, error)
	DestroyFramebuffer(framebuffer core1_0.Framebuffer)

	CreateCommandPool(info core1_0.CommandPoolCreateInfo) (core1_0.CommandPool, common.VkResult, error)
	DestroyCommandPool(commandPool core1_0.CommandPool)
	AllocateCommandBuffers(info core1_0.CommandBufferAllocateInfo) ([]core1_0.CommandBuffer, common.VkResult, error)
	FreeCommandBuffers(buffers []core1_0.CommandBuffer)

	CreatePipelineLayout(info core1_0.PipelineLayoutCreateInfo) (core1_0.PipelineLayout, common.VkResult, error)
	DestroyPipelineLayout(layout core1_0.PipelineLayout)
	CreateGraphicsPipeline(info core1_0.GraphicsPipelineCreateInfo) (core1_0.Pipeline, common.VkResult, error)
	DestroyPipeline(pipeline core1_0.Pipeline)

	WaitIdle() error
	Destroy()
}
