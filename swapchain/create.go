package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/render-bootstrap/gpu"
)

// Resource is a live swap chain and its image views. It is owned by the logical
// device that created it and must be destroyed before that device.
type Resource struct {
	device    gpu.Device
	destroyed bool

	Swapchain  khr_swapchain.Swapchain
	Images     []core1_0.Image
	ImageViews []core1_0.ImageView

	Format core1_0.Format
	Extent core1_0.Extent2D
}

// Create materializes a valid configuration. On failure every object created so far
// is destroyed before the error is returned.
func Create(config Configuration, device gpu.Device, surface gpu.Surface) (*Resource, error) {
	if !config.Valid {
		return nil, errors.Mark(errors.New("cannot create swapchain from an invalid configuration"), gpu.ErrSwapChainNegotiation)
	}

	swapchain, res, err := device.CreateSwapchain(khr_swapchain.SwapchainCreateInfo{
		Surface: surface.Handle(),

		MinImageCount:    config.ImageCount,
		ImageFormat:      config.SurfaceFormat.Format,
		ImageColorSpace:  config.SurfaceFormat.ColorSpace,
		ImageExtent:      config.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   config.SharingMode,
		QueueFamilyIndices: config.QueueFamilyIndices,

		PreTransform:   config.PreTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    config.PresentMode,
		Clipped:        true,
	})
	if err != nil {
		return nil, gpu.NewResourceCreationError(gpu.ResourceSwapchain, res, err)
	}

	resource := &Resource{
		device:    device,
		Swapchain: swapchain,
		Format:    config.SurfaceFormat.Format,
		Extent:    config.Extent,
	}

	images, res, err := device.SwapchainImages(swapchain)
	if err != nil {
		resource.Destroy()
		return nil, gpu.NewResourceCreationError(gpu.ResourceSwapchainImage, res, err)
	}
	resource.Images = images

	for _, image := range images {
		view, res, err := device.CreateImageView(imageViewCreateInfo(image, resource.Format))
		if err != nil {
			resource.Destroy()
			return nil, gpu.NewResourceCreationError(gpu.ResourceImageView, res, err)
		}

		resource.ImageViews = append(resource.ImageViews, view)
	}

	gpu.Logger().Debug("swapchain created", "config", config.String(), "images", len(images))
	return resource, nil
}

func imageViewCreateInfo(image core1_0.Image, format core1_0.Format) core1_0.ImageViewCreateInfo {
	return core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		Components: core1_0.ComponentMapping{
			R: core1_0.ComponentSwizzleIdentity,
			G: core1_0.ComponentSwizzleIdentity,
			B: core1_0.ComponentSwizzleIdentity,
			A: core1_0.ComponentSwizzleIdentity,
		},
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
}

// Destroy releases the image views, newest first, then the swap chain.
func (r *Resource) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true

	for i := len(r.ImageViews) - 1; i >= 0; i-- {
		r.device.DestroyImageView(r.ImageViews[i])
	}
	r.ImageViews = nil
	r.Images = nil

	r.device.DestroySwapchain(r.Swapchain)
	r.Swapchain = nil
}
