package gpu

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
)

var (
	ErrNoSuitableDevice            = errors.New("no suitable physical device")
	ErrSwapChainNegotiation        = errors.New("swap chain negotiation failed")
	ErrResourceCreation            = errors.New("resource creation failed")
	ErrPipelineCreation            = errors.New("graphics pipeline creation failed")
	ErrUnsupportedShaderStageCount = errors.New("unsupported shader stage count")
	ErrIncompleteQueueFamilies     = errors.New("queue family indices are incomplete")
)

// Resource names the kind of driver object a ResourceCreationError refers to.
type Resource string

const (
	ResourceDevice         Resource = "logical device"
	ResourceSwapchain      Resource = "swapchain"
	ResourceSwapchainImage Resource = "swapchain images"
	ResourceImageView      Resource = "image view"
	ResourceRenderPass     Resource = "render pass"
	ResourceFramebuffer    Resource = "framebuffer"
	ResourceCommandPool    Resource = "command pool"
	ResourceCommandBuffer  Resource = "command buffer"
	ResourcePipelineLayout Resource = "pipeline layout"
	ResourcePipeline       Resource = "graphics pipeline"
)

// ResourceCreationError reports a driver call that did not return success.
type ResourceCreationError struct {
	Resource Resource
	Result   common.VkResult
	Cause    error
}

func (e *ResourceCreationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("failed to create %s: %v", e.Resource, e.Result)
	}
	return fmt.Sprintf("failed to create %s: %v: %v", e.Resource, e.Result, e.Cause)
}

func (e *ResourceCreationError) Unwrap() error { return e.Cause }

// OutOfMemory reports whether the driver rejected the call for lack of host or device memory.
func (e *ResourceCreationError) OutOfMemory() bool {
	return e.Result == core1_0.VKErrorOutOfHostMemory || e.Result == core1_0.VKErrorOutOfDeviceMemory
}

// NewResourceCreationError builds an error matching ErrResourceCreation, and also
// ErrPipelineCreation when the failed object is the pipeline itself.
func NewResourceCreationError(resource Resource, result common.VkResult, cause error) error {
	var err error = &ResourceCreationError{
		Resource: resource,
		Result:   result,
		Cause:    cause,
	}
	err = errors.Mark(errors.WithStack(err), ErrResourceCreation)
	if resource == ResourcePipeline {
		err = errors.Mark(err, ErrPipelineCreation)
	}
	return err
}
