package selector

import (
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/render-bootstrap/device"
	"github.com/vkngwrapper/render-bootstrap/gpu"
	"github.com/vkngwrapper/render-bootstrap/queuefamily"
	"github.com/vkngwrapper/render-bootstrap/swapchain"
)

// ViabilityProbe decides whether a device can present to a surface at all.
type ViabilityProbe interface {
	Viable(device gpu.PhysicalDevice, surface gpu.Surface, indices queuefamily.Indices, framebufferSize core1_0.Extent2D) (bool, error)
}

// CapabilityProbe answers from the surface capability queries alone and allocates nothing.
type CapabilityProbe struct{}

func (CapabilityProbe) Viable(dev gpu.PhysicalDevice, surface gpu.Surface, indices queuefamily.Indices, framebufferSize core1_0.Extent2D) (bool, error) {
	config, err := swapchain.Negotiate(dev, surface, indices, framebufferSize)
	if err != nil {
		return false, err
	}
	return config.Valid, nil
}

// TrialDeviceProbe builds a throwaway logical device and swap chain on the candidate
// and destroys them before returning.
type TrialDeviceProbe struct {
	Extensions []string
	Layers     []string
}

func (p TrialDeviceProbe) Viable(dev gpu.PhysicalDevice, surface gpu.Surface, indices queuefamily.Indices, framebufferSize core1_0.Extent2D) (bool, error) {
	handle, err := device.Build(device.BuildOptions{
		PhysicalDevice:  dev,
		Surface:         surface,
		Indices:         indices,
		Extensions:      p.Extensions,
		Layers:          p.Layers,
		FramebufferSize: framebufferSize,
	})
	if err != nil {
		gpu.Logger().Debug("trial device build failed", "error", err)
		return false, nil
	}
	handle.Destroy()

	return true, nil
}
