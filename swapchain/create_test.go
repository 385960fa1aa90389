package swapchain

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/render-bootstrap/gpu"
	"github.com/vkngwrapper/render-bootstrap/gpu/gputest"
)

func TestCreate(t *testing.T) {
	device := gputest.NewDevice()
	config := Choose(scenarioSupport(), split, core1_0.Extent2D{Width: 800, Height: 600})

	resource, err := Create(config, device, &gputest.Surface{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if len(device.SwapchainInfos) != 1 {
		t.Fatalf("swapchains created = %d, want 1", len(device.SwapchainInfos))
	}
	info := device.SwapchainInfos[0]
	if info.MinImageCount != 3 || info.ImageExtent != config.Extent || info.ImageFormat != core1_0.FormatR8G8B8A8SRGB {
		t.Errorf("SwapchainCreateInfo = %+v", info)
	}
	if info.ImageSharingMode != core1_0.SharingModeConcurrent || len(info.QueueFamilyIndices) != 2 {
		t.Errorf("sharing = %v %v, want concurrent over 2 families", info.ImageSharingMode, info.QueueFamilyIndices)
	}
	if info.ImageArrayLayers != 1 || info.ImageUsage != core1_0.ImageUsageColorAttachment || info.CompositeAlpha != khr_surface.CompositeAlphaOpaque {
		t.Errorf("SwapchainCreateInfo = %+v", info)
	}

	if len(resource.ImageViews) != 3 || device.Live(gpu.ResourceImageView) != 3 {
		t.Fatalf("image views = %d, live %d, want 3", len(resource.ImageViews), device.Live(gpu.ResourceImageView))
	}
	for i, view := range device.ImageViewInfos {
		if view.ViewType != core1_0.ImageViewType2D {
			t.Errorf("view %d ViewType = %v, want 2D", i, view.ViewType)
		}
		if view.Format != resource.Format {
			t.Errorf("view %d Format = %v, want %v", i, view.Format, resource.Format)
		}
		if view.Components.R != core1_0.ComponentSwizzleIdentity || view.Components.A != core1_0.ComponentSwizzleIdentity {
			t.Errorf("view %d Components = %+v, want identity", i, view.Components)
		}
		r := view.SubresourceRange
		if r.AspectMask != core1_0.ImageAspectColor || r.LevelCount != 1 || r.LayerCount != 1 || r.BaseMipLevel != 0 || r.BaseArrayLayer != 0 {
			t.Errorf("view %d SubresourceRange = %+v", i, r)
		}
	}

	resource.Destroy()
	resource.Destroy()
	if device.Outstanding() != 0 {
		t.Errorf("outstanding objects after Destroy = %d, want 0", device.Outstanding())
	}
	want := []string{"image view", "image view", "image view", "swapchain"}
	if got := device.Destroys(0); len(got) != len(want) {
		t.Errorf("destroy order = %v, want %v", got, want)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("destroy order = %v, want %v", got, want)
				break
			}
		}
	}
}

func TestCreateInvalidConfiguration(t *testing.T) {
	device := gputest.NewDevice()

	_, err := Create(Configuration{}, device, &gputest.Surface{})
	if !errors.Is(err, gpu.ErrSwapChainNegotiation) {
		t.Errorf("Create() error = %v, want ErrSwapChainNegotiation", err)
	}
	if len(device.Calls) != 0 {
		t.Errorf("driver calls = %v, want none", device.Calls)
	}
}

func TestCreateFailureReleasesPartialResources(t *testing.T) {
	tests := []struct {
		name     string
		resource gpu.Resource
		after    int
	}{
		{"swapchain", gpu.ResourceSwapchain, 0},
		{"images", gpu.ResourceSwapchainImage, 0},
		{"first image view", gpu.ResourceImageView, 0},
		{"last image view", gpu.ResourceImageView, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := gputest.NewDevice()
			device.FailOn[tt.resource] = core1_0.VKErrorOutOfDeviceMemory
			device.FailAfter[tt.resource] = tt.after
			config := Choose(scenarioSupport(), combined, core1_0.Extent2D{Width: 800, Height: 600})

			resource, err := Create(config, device, &gputest.Surface{})
			if resource != nil {
				t.Error("Create() returned a resource on failure")
			}
			if !errors.Is(err, gpu.ErrResourceCreation) {
				t.Errorf("Create() error = %v, want ErrResourceCreation", err)
			}

			var creationErr *gpu.ResourceCreationError
			if !errors.As(err, &creationErr) {
				t.Fatalf("Create() error = %v, want *ResourceCreationError", err)
			}
			if creationErr.Resource != tt.resource || !creationErr.OutOfMemory() {
				t.Errorf("ResourceCreationError = %+v", creationErr)
			}
			if device.Outstanding() != 0 {
				t.Errorf("outstanding objects = %d, want 0; calls %v", device.Outstanding(), device.Calls)
			}
		})
	}
}
