// Package swapchain negotiates presentation parameters against a surface and
// materializes the resulting swap chain with one image view per image.
package swapchain

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/render-bootstrap/gpu"
	"github.com/vkngwrapper/render-bootstrap/queuefamily"
)

// Support is a snapshot of what a surface offers a physical device.
type Support struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// Adequate reports whether the surface exposes at least one format and one present mode.
func (s Support) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// Configuration is one negotiated swap chain. When Valid is false no other field is meaningful.
type Configuration struct {
	Valid bool

	SurfaceFormat khr_surface.SurfaceFormat
	PresentMode   khr_surface.PresentMode
	Extent        core1_0.Extent2D
	ImageCount    int
	PreTransform  khr_surface.SurfaceTransformFlags

	SharingMode        core1_0.SharingMode
	QueueFamilyIndices []int
}

func (c Configuration) String() string {
	if !c.Valid {
		return "invalid swapchain configuration"
	}
	return fmt.Sprintf("format=%v colorSpace=%v presentMode=%v extent=%dx%d images=%d sharing=%v",
		c.SurfaceFormat.Format, c.SurfaceFormat.ColorSpace, c.PresentMode,
		c.Extent.Width, c.Extent.Height, c.ImageCount, c.SharingMode)
}

// Query reads the surface capabilities, formats and present modes for device.
func Query(device gpu.PhysicalDevice, surface gpu.Surface) (Support, error) {
	var support Support
	var err error

	support.Capabilities, err = surface.Capabilities(device)
	if err != nil {
		return support, errors.Wrap(err, "query surface capabilities")
	}

	support.Formats, err = surface.Formats(device)
	if err != nil {
		return support, errors.Wrap(err, "query surface formats")
	}

	support.PresentModes, err = surface.PresentModes(device)
	if err != nil {
		return support, errors.Wrap(err, "query surface present modes")
	}

	return support, nil
}

// Negotiate queries the surface and chooses a configuration for the requested framebuffer size.
func Negotiate(device gpu.PhysicalDevice, surface gpu.Surface, indices queuefamily.Indices, requested core1_0.Extent2D) (Configuration, error) {
	support, err := Query(device, surface)
	if err != nil {
		return Configuration{}, err
	}
	return Choose(support, indices, requested), nil
}

// Choose derives a configuration from a support snapshot without touching the driver.
func Choose(support Support, indices queuefamily.Indices, requested core1_0.Extent2D) Configuration {
	if !support.Adequate() || support.Capabilities == nil {
		return Configuration{Valid: false}
	}

	config := Configuration{
		Valid:         true,
		SurfaceFormat: chooseSurfaceFormat(support.Formats),
		PresentMode:   choosePresentMode(support.PresentModes),
		Extent:        chooseExtent(support.Capabilities, requested),
		ImageCount:    chooseImageCount(support.Capabilities),
		PreTransform:  support.Capabilities.CurrentTransform,
		SharingMode:   core1_0.SharingModeExclusive,
	}

	if indices.IsComplete() && indices.Distinct() {
		config.SharingMode = core1_0.SharingModeConcurrent
		config.QueueFamilyIndices = []int{*indices.GraphicsFamily, *indices.PresentFamily}
	}

	return config
}

func chooseSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

func choosePresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// undefinedExtent reports the 0xFFFFFFFF "size is determined by the swapchain" sentinel,
// which the wrapper may surface as -1.
func undefinedExtent(extent core1_0.Extent2D) bool {
	return uint32(extent.Width) == math.MaxUint32
}

func chooseExtent(capabilities *khr_surface.SurfaceCapabilities, requested core1_0.Extent2D) core1_0.Extent2D {
	if !undefinedExtent(capabilities.CurrentExtent) {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(requested.Width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(requested.Height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

func clamp(value, min, max int) int {
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	return value
}

// NegotiationError reports the adequacy failure of support as ErrSwapChainNegotiation.
func NegotiationError(support Support) error {
	return errors.Mark(
		errors.Newf("surface reports %d formats and %d present modes", len(support.Formats), len(support.PresentModes)),
		gpu.ErrSwapChainNegotiation)
}
