package gputest

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/render-bootstrap/gpu"
)

// Device is a fake logical device that records every call made through it.
type Device struct {
	// Calls holds "create <resource>", "destroy <resource>" and "fail <resource>"
	// entries in call order.
	Calls []string

	// FailOn makes creation of the given resource fail with the given result,
	// after FailAfter[resource] successful creations of that kind.
	FailOn    map[gpu.Resource]common.VkResult
	FailAfter map[gpu.Resource]int

	// ImageCount is the number of images the swapchain reports; negative means
	// "use the requested minimum image count".
	ImageCount int

	SwapchainInfos      []khr_swapchain.SwapchainCreateInfo
	ImageViewInfos      []core1_0.ImageViewCreateInfo
	RenderPassInfos     []core1_0.RenderPassCreateInfo
	FramebufferInfos    []core1_0.FramebufferCreateInfo
	CommandPoolInfos    []core1_0.CommandPoolCreateInfo
	CommandBufferInfos  []core1_0.CommandBufferAllocateInfo
	PipelineLayoutInfos []core1_0.PipelineLayoutCreateInfo
	PipelineInfos       []core1_0.GraphicsPipelineCreateInfo
	QueueRequests       []int

	WaitIdleCalls int
	Destroyed     bool

	created map[gpu.Resource]int
	live    map[gpu.Resource]int
}

var _ gpu.Device = (*Device)(nil)

func NewDevice() *Device {
	return &Device{
		FailOn:     map[gpu.Resource]common.VkResult{},
		FailAfter:  map[gpu.Resource]int{},
		ImageCount: -1,
		created:    map[gpu.Resource]int{},
		live:       map[gpu.Resource]int{},
	}
}

// Live reports how many objects of the given kind exist and have not been destroyed.
func (d *Device) Live(resource gpu.Resource) int {
	return d.live[resource]
}

// Outstanding sums every live object, the logical device included.
func (d *Device) Outstanding() int {
	total := 0
	for _, count := range d.live {
		total += count
	}
	return total
}

func (d *Device) create(resource gpu.Resource) (common.VkResult, error) {
	result, fails := d.FailOn[resource]
	if fails && d.created[resource] >= d.FailAfter[resource] {
		d.Calls = append(d.Calls, "fail "+string(resource))
		return result, errors.Newf("driver returned %v", result)
	}

	d.created[resource]++
	d.live[resource]++
	d.Calls = append(d.Calls, "create "+string(resource))
	return core1_0.VKSuccess, nil
}

func (d *Device) destroy(resource gpu.Resource) {
	d.live[resource]--
	d.Calls = append(d.Calls, "destroy "+string(resource))
}

func (d *Device) Handle() core1_0.Device { return nil }

func (d *Device) Queue(queueFamily int) core1_0.Queue {
	d.QueueRequests = append(d.QueueRequests, queueFamily)
	return nil
}

func (d *Device) CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (khr_swapchain.Swapchain, common.VkResult, error) {
	d.SwapchainInfos = append(d.SwapchainInfos, info)
	res, err := d.create(gpu.ResourceSwapchain)
	return nil, res, err
}

func (d *Device) SwapchainImages(swapchain khr_swapchain.Swapchain) ([]core1_0.Image, common.VkResult, error) {
	result, fails := d.FailOn[gpu.ResourceSwapchainImage]
	if fails {
		d.Calls = append(d.Calls, "fail "+string(gpu.ResourceSwapchainImage))
		return nil, result, errors.Newf("driver returned %v", result)
	}

	count := d.ImageCount
	if count < 0 && len(d.SwapchainInfos) > 0 {
		count = d.SwapchainInfos[len(d.SwapchainInfos)-1].MinImageCount
	}
	return make([]core1_0.Image, count), core1_0.VKSuccess, nil
}

func (d *Device) DestroySwapchain(swapchain khr_swapchain.Swapchain) {
	d.destroy(gpu.ResourceSwapchain)
}

func (d *Device) CreateImageView(info core1_0.ImageViewCreateInfo) (core1_0.ImageView, common.VkResult, error) {
	d.ImageViewInfos = append(d.ImageViewInfos, info)
	res, err := d.create(gpu.ResourceImageView)
	return nil, res, err
}

func (d *Device) DestroyImageView(imageView core1_0.ImageView) {
	d.destroy(gpu.ResourceImageView)
}

func (d *Device) CreateRenderPass(info core1_0.RenderPassCreateInfo) (core1_0.RenderPass, common.VkResult, error) {
	d.RenderPassInfos = append(d.RenderPassInfos, info)
	res, err := d.create(gpu.ResourceRenderPass)
	return nil, res, err
}

func (d *Device) DestroyRenderPass(renderPass core1_0.RenderPass) {
	d.destroy(gpu.ResourceRenderPass)
}

func (d *Device) CreateFramebuffer(info core1_0.FramebufferCreateInfo) (core1_0.Framebuffer, common.VkResult, error) {
	d.FramebufferInfos = append(d.FramebufferInfos, info)
	res, err := d.create(gpu.ResourceFramebuffer)
	return nil, res, err
}

func (d *Device) DestroyFramebuffer(framebuffer core1_0.Framebuffer) {
	d.destroy(gpu.ResourceFramebuffer)
}

func (d *Device) CreateCommandPool(info core1_0.CommandPoolCreateInfo) (core1_0.CommandPool, common.VkResult, error) {
	d.CommandPoolInfos = append(d.CommandPoolInfos, info)
	res, err := d.create(gpu.ResourceCommandPool)
	return nil, res, err
}

func (d *Device) DestroyCommandPool(commandPool core1_0.CommandPool) {
	d.destroy(gpu.ResourceCommandPool)
}

func (d *Device) AllocateCommandBuffers(info core1_0.CommandBufferAllocateInfo) ([]core1_0.CommandBuffer, common.VkResult, error) {
	d.CommandBufferInfos = append(d.CommandBufferInfos, info)
	res, err := d.create(gpu.ResourceCommandBuffer)
	if err != nil {
		return nil, res, err
	}
	return make([]core1_0.CommandBuffer, info.CommandBufferCount), res, nil
}

func (d *Device) FreeCommandBuffers(buffers []core1_0.CommandBuffer) {
	d.destroy(gpu.ResourceCommandBuffer)
}

func (d *Device) CreatePipelineLayout(info core1_0.PipelineLayoutCreateInfo) (core1_0.PipelineLayout, common.VkResult, error) {
	d.PipelineLayoutInfos = append(d.PipelineLayoutInfos, info)
	res, err := d.create(gpu.ResourcePipelineLayout)
	return nil, res, err
}

func (d *Device) DestroyPipelineLayout(layout core1_0.PipelineLayout) {
	d.destroy(gpu.ResourcePipelineLayout)
}

func (d *Device) CreateGraphicsPipeline(info core1_0.GraphicsPipelineCreateInfo) (core1_0.Pipeline, common.VkResult, error) {
	d.PipelineInfos = append(d.PipelineInfos, info)
	res, err := d.create(gpu.ResourcePipeline)
	return nil, res, err
}

func (d *Device) DestroyPipeline(pipeline core1_0.Pipeline) {
	d.destroy(gpu.ResourcePipeline)
}

func (d *Device) WaitIdle() error {
	d.WaitIdleCalls++
	return nil
}

func (d *Device) Destroy() {
	d.Destroyed = true
	d.destroy(gpu.ResourceDevice)
}

// Destroys returns the resources destroyed, in order, starting at the given call index.
func (d *Device) Destroys(from int) []string {
	var destroyed []string
	for _, call := range d.Calls[from:] {
		if strings.HasPrefix(call, "destroy ") {
			destroyed = append(destroyed, strings.TrimPrefix(call, "destroy "))
		}
	}
	return destroyed
}
