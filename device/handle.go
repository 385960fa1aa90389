package device

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/render-bootstrap/gpu"
	"github.com/vkngwrapper/render-bootstrap/pipeline"
	"github.com/vkngwrapper/render-bootstrap/queuefamily"
	"github.com/vkngwrapper/render-bootstrap/swapchain"
)

// Handle owns a logical device and everything created on it. The exported handles
// are for recording and submission only; Destroy is the single point of release.
type Handle struct {
	device    gpu.Device
	destroyed bool

	hasRenderPass  bool
	hasCommandPool bool
	commandBuffers []core1_0.CommandBuffer

	Indices       queuefamily.Indices
	GraphicsQueue core1_0.Queue
	PresentQueue  core1_0.Queue

	Swapchain     *swapchain.Resource
	RenderPass    core1_0.RenderPass
	Framebuffers  []core1_0.Framebuffer
	CommandPool   core1_0.CommandPool
	CommandBuffer core1_0.CommandBuffer

	Pipeline *pipeline.Pipeline
}

func (h *Handle) Device() gpu.Device {
	return h.device
}

// CreatePipeline assembles a graphics pipeline against the handle's render pass and
// swap chain extent. The handle takes ownership of the result.
func (h *Handle) CreatePipeline(stages []core1_0.PipelineShaderStageCreateInfo) (*pipeline.Pipeline, error) {
	if h.destroyed {
		return nil, errors.New("create pipeline on a destroyed device")
	}
	if h.Pipeline != nil {
		return nil, errors.New("device already owns a graphics pipeline")
	}

	p, err := pipeline.Assemble(h.device, h.RenderPass, h.Swapchain.Extent, stages)
	if err != nil {
		return nil, err
	}

	h.Pipeline = p
	return p, nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (h *Handle) WaitIdle() error {
	if h.destroyed {
		return nil
	}
	return errors.Wrap(h.device.WaitIdle(), "wait for device idle")
}

// Destroy releases, in order, the framebuffers, the command pool, the pipeline,
// the render pass, the swap chain and finally the device. It is safe to call on a
// partially built handle and more than once.
func (h *Handle) Destroy() {
	if h.destroyed {
		return
	}
	h.destroyed = true

	for i := len(h.Framebuffers) - 1; i >= 0; i-- {
		h.device.DestroyFramebuffer(h.Framebuffers[i])
	}
	h.Framebuffers = nil

	if len(h.commandBuffers) > 0 {
		h.device.FreeCommandBuffers(h.commandBuffers)
		h.commandBuffers = nil
	}
	if h.hasCommandPool {
		h.device.DestroyCommandPool(h.CommandPool)
	}

	if h.Pipeline != nil {
		h.Pipeline.Destroy()
		h.Pipeline = nil
	}

	if h.hasRenderPass {
		h.device.DestroyRenderPass(h.RenderPass)
	}

	if h.Swapchain != nil {
		h.Swapchain.Destroy()
		h.Swapchain = nil
	}

	h.device.Destroy()
}
