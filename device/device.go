// Package device builds the logical device and the presentation objects that hang off it.
package device

import (
	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/render-bootstrap/gpu"
	"github.com/vkngwrapper/render-bootstrap/queuefamily"
	"github.com/vkngwrapper/render-bootstrap/swapchain"
)

const queuePriority = float32(1.0)

type BuildOptions struct {
	PhysicalDevice gpu.PhysicalDevice
	Surface        gpu.Surface
	Indices        queuefamily.Indices

	Extensions []string
	Layers     []string

	FramebufferSize core1_0.Extent2D
}

// Build creates the logical device, then in sequence the swap chain, render pass,
// framebuffers, command pool and a single primary command buffer. If any step fails,
// everything created before it is destroyed and the error is returned.
func Build(options BuildOptions) (*Handle, error) {
	start := hrtime.Now()

	if !options.Indices.IsComplete() {
		return nil, errors.Wrapf(gpu.ErrIncompleteQueueFamilies, "build logical device with %v", options.Indices)
	}

	extensionNames, err := deviceExtensions(options.PhysicalDevice, options.Extensions)
	if err != nil {
		return nil, err
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, queueFamily := range options.Indices.Unique() {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	device, res, err := options.PhysicalDevice.CreateDevice(core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
		EnabledLayerNames:     options.Layers,
	})
	if err != nil {
		return nil, gpu.NewResourceCreationError(gpu.ResourceDevice, res, err)
	}

	h := &Handle{
		device:        device,
		Indices:       options.Indices,
		GraphicsQueue: device.Queue(*options.Indices.GraphicsFamily),
		PresentQueue:  device.Queue(*options.Indices.PresentFamily),
	}

	steps := []func(BuildOptions) error{
		h.createSwapchain,
		h.createRenderPass,
		h.createFramebuffers,
		h.createCommandPool,
		h.createCommandBuffer,
	}
	for _, step := range steps {
		if err := step(options); err != nil {
			h.Destroy()
			return nil, err
		}
	}

	gpu.Logger().Info("logical device ready",
		"queues", len(queueFamilyOptions),
		"framebuffers", len(h.Framebuffers),
		"extent", h.Swapchain.Extent,
		"elapsed", hrtime.Since(start))

	return h, nil
}

func deviceExtensions(physicalDevice gpu.PhysicalDevice, required []string) ([]string, error) {
	var extensionNames []string
	extensionNames = append(extensionNames, required...)

	extensions, err := physicalDevice.Extensions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported && !contains(extensionNames, khr_portability_subset.ExtensionName) {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	return extensionNames, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func (h *Handle) createSwapchain(options BuildOptions) error {
	support, err := swapchain.Query(options.PhysicalDevice, options.Surface)
	if err != nil {
		return err
	}

	config := swapchain.Choose(support, options.Indices, options.FramebufferSize)
	if !config.Valid {
		return swapchain.NegotiationError(support)
	}

	h.Swapchain, err = swapchain.Create(config, h.device, options.Surface)
	return err
}

func (h *Handle) createRenderPass(BuildOptions) error {
	renderPass, res, err := h.device.CreateRenderPass(core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         h.Swapchain.Format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	if err != nil {
		return gpu.NewResourceCreationError(gpu.ResourceRenderPass, res, err)
	}

	h.RenderPass = renderPass
	h.hasRenderPass = true
	return nil
}

func (h *Handle) createFramebuffers(BuildOptions) error {
	for _, imageView := range h.Swapchain.ImageViews {
		framebuffer, res, err := h.device.CreateFramebuffer(core1_0.FramebufferCreateInfo{
			RenderPass: h.RenderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				imageView,
			},
			Width:  h.Swapchain.Extent.Width,
			Height: h.Swapchain.Extent.Height,
		})
		if err != nil {
			return gpu.NewResourceCreationError(gpu.ResourceFramebuffer, res, err)
		}

		h.Framebuffers = append(h.Framebuffers, framebuffer)
	}

	return nil
}

func (h *Handle) createCommandPool(BuildOptions) error {
	pool, res, err := h.device.CreateCommandPool(core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: *h.Indices.GraphicsFamily,
	})
	if err != nil {
		return gpu.NewResourceCreationError(gpu.ResourceCommandPool, res, err)
	}

	h.CommandPool = pool
	h.hasCommandPool = true
	return nil
}

func (h *Handle) createCommandBuffer(BuildOptions) error {
	buffers, res, err := h.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        h.CommandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return gpu.NewResourceCreationError(gpu.ResourceCommandBuffer, res, err)
	}

	h.commandBuffers = buffers
	h.CommandBuffer = buffers[0]
	return nil
}
