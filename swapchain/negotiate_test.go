package swapchain

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/render-bootstrap/gpu"
	"github.com/vkngwrapper/render-bootstrap/gpu/gputest"
	"github.com/vkngwrapper/render-bootstrap/queuefamily"
)

func index(i int) *int { return &i }

var (
	combined = queuefamily.Indices{GraphicsFamily: index(0), PresentFamily: index(0)}
	split    = queuefamily.Indices{GraphicsFamily: index(0), PresentFamily: index(1)}

	rgbaNonlinear = khr_surface.SurfaceFormat{Format: core1_0.FormatR8G8B8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	bgraNonlinear = khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	undefined = core1_0.Extent2D{Width: -1, Height: -1}
)

func scenarioSupport() Support {
	return Support{
		Capabilities: &khr_surface.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  0,
			CurrentExtent:  undefined,
			MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
		},
		Formats:      []khr_surface.SurfaceFormat{rgbaNonlinear},
		PresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
	}
}

func TestChooseScenario(t *testing.T) {
	got := Choose(scenarioSupport(), combined, core1_0.Extent2D{Width: 800, Height: 600})

	if !got.Valid {
		t.Fatal("Valid = false, want true")
	}
	if got.SurfaceFormat != rgbaNonlinear {
		t.Errorf("SurfaceFormat = %v, want fallback %v", got.SurfaceFormat, rgbaNonlinear)
	}
	if got.PresentMode != khr_surface.PresentModeFIFO {
		t.Errorf("PresentMode = %v, want FIFO", got.PresentMode)
	}
	if got.Extent != (core1_0.Extent2D{Width: 800, Height: 600}) {
		t.Errorf("Extent = %v, want 800x600", got.Extent)
	}
	if got.ImageCount != 3 {
		t.Errorf("ImageCount = %d, want 3", got.ImageCount)
	}
}

func TestChooseScenarioClampedImageCount(t *testing.T) {
	support := scenarioSupport()
	support.Capabilities.MaxImageCount = 2

	got := Choose(support, combined, core1_0.Extent2D{Width: 800, Height: 600})
	if got.ImageCount != 2 {
		t.Errorf("ImageCount = %d, want 2", got.ImageCount)
	}
}

func TestChooseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Support)
		wantErr bool
	}{
		{"no formats", func(s *Support) { s.Formats = nil }, true},
		{"no present modes", func(s *Support) { s.PresentModes = nil }, true},
		{"neither", func(s *Support) { s.Formats, s.PresentModes = nil, nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			support := scenarioSupport()
			tt.mutate(&support)

			got := Choose(support, combined, core1_0.Extent2D{Width: 800, Height: 600})
			if got.Valid {
				t.Errorf("Valid = true for %s", tt.name)
			}
			if err := NegotiationError(support); !errors.Is(err, gpu.ErrSwapChainNegotiation) {
				t.Errorf("NegotiationError() = %v, want ErrSwapChainNegotiation", err)
			}
		})
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	tests := []struct {
		name      string
		available []khr_surface.SurfaceFormat
		want      khr_surface.SurfaceFormat
	}{
		{"preferred only", []khr_surface.SurfaceFormat{bgraNonlinear}, bgraNonlinear},
		{"preferred after others", []khr_surface.SurfaceFormat{rgbaNonlinear, bgraNonlinear}, bgraNonlinear},
		{"fallback to first", []khr_surface.SurfaceFormat{rgbaNonlinear}, rgbaNonlinear},
		{
			"preferred color space with another format",
			[]khr_surface.SurfaceFormat{rgbaNonlinear, {Format: core1_0.FormatB8G8R8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}},
			rgbaNonlinear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chooseSurfaceFormat(tt.available); got != tt.want {
				t.Errorf("chooseSurfaceFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChoosePresentMode(t *testing.T) {
	tests := []struct {
		name      string
		available []khr_surface.PresentMode
		want      khr_surface.PresentMode
	}{
		{"mailbox preferred", []khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox}, khr_surface.PresentModeMailbox},
		{"fifo fallback", []khr_surface.PresentMode{khr_surface.PresentModeImmediate}, khr_surface.PresentModeFIFO},
		{"fifo only", []khr_surface.PresentMode{khr_surface.PresentModeFIFO}, khr_surface.PresentModeFIFO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := choosePresentMode(tt.available); got != tt.want {
				t.Errorf("choosePresentMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChooseExtent(t *testing.T) {
	capabilities := func(current core1_0.Extent2D) *khr_surface.SurfaceCapabilities {
		return &khr_surface.SurfaceCapabilities{
			CurrentExtent:  current,
			MinImageExtent: core1_0.Extent2D{Width: 100, Height: 100},
			MaxImageExtent: core1_0.Extent2D{Width: 1920, Height: 1080},
		}
	}

	tests := []struct {
		name      string
		current   core1_0.Extent2D
		requested core1_0.Extent2D
		want      core1_0.Extent2D
	}{
		{"within bounds", undefined, core1_0.Extent2D{Width: 800, Height: 600}, core1_0.Extent2D{Width: 800, Height: 600}},
		{"clamped up", undefined, core1_0.Extent2D{Width: 10, Height: 20}, core1_0.Extent2D{Width: 100, Height: 100}},
		{"clamped down", undefined, core1_0.Extent2D{Width: 4000, Height: 3000}, core1_0.Extent2D{Width: 1920, Height: 1080}},
		{"per axis", undefined, core1_0.Extent2D{Width: 10, Height: 3000}, core1_0.Extent2D{Width: 100, Height: 1080}},
		{"surface dictates", core1_0.Extent2D{Width: 1024, Height: 768}, core1_0.Extent2D{Width: 800, Height: 600}, core1_0.Extent2D{Width: 1024, Height: 768}},
		{"surface dictates outside bounds", core1_0.Extent2D{Width: 5000, Height: 5000}, core1_0.Extent2D{Width: 800, Height: 600}, core1_0.Extent2D{Width: 5000, Height: 5000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chooseExtent(capabilities(tt.current), tt.requested); got != tt.want {
				t.Errorf("chooseExtent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max int
		want     int
	}{
		{min: 1, max: 0, want: 2},
		{min: 2, max: 0, want: 3},
		{min: 8, max: 0, want: 9},
		{min: 2, max: 2, want: 2},
		{min: 2, max: 3, want: 3},
		{min: 2, max: 8, want: 3},
	}

	for _, tt := range tests {
		capabilities := &khr_surface.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
		if got := chooseImageCount(capabilities); got != tt.want {
			t.Errorf("chooseImageCount(min=%d, max=%d) = %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}

func TestChooseSharingMode(t *testing.T) {
	support := scenarioSupport()

	exclusive := Choose(support, combined, core1_0.Extent2D{Width: 800, Height: 600})
	if exclusive.SharingMode != core1_0.SharingModeExclusive {
		t.Errorf("combined family SharingMode = %v, want exclusive", exclusive.SharingMode)
	}
	if len(exclusive.QueueFamilyIndices) != 0 {
		t.Errorf("combined family QueueFamilyIndices = %v, want none", exclusive.QueueFamilyIndices)
	}

	concurrent := Choose(support, split, core1_0.Extent2D{Width: 800, Height: 600})
	if concurrent.SharingMode != core1_0.SharingModeConcurrent {
		t.Errorf("split family SharingMode = %v, want concurrent", concurrent.SharingMode)
	}
	if len(concurrent.QueueFamilyIndices) != 2 || concurrent.QueueFamilyIndices[0] != 0 || concurrent.QueueFamilyIndices[1] != 1 {
		t.Errorf("split family QueueFamilyIndices = %v, want [0 1]", concurrent.QueueFamilyIndices)
	}
}

func TestNegotiate(t *testing.T) {
	device := gputest.Viable("gpu", gpu.DeviceTypeDiscreteGPU)

	got, err := Negotiate(device, &gputest.Surface{}, combined, core1_0.Extent2D{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}
	if !got.Valid || got.SurfaceFormat != bgraNonlinear || got.ImageCount != 3 {
		t.Errorf("Negotiate() = %s", got)
	}
}

func TestNegotiateQueryError(t *testing.T) {
	device := gputest.Viable("gpu", gpu.DeviceTypeDiscreteGPU)
	device.SurfaceErr = errors.New("surface lost")

	if _, err := Negotiate(device, &gputest.Surface{}, combined, core1_0.Extent2D{Width: 800, Height: 600}); err == nil {
		t.Error("Negotiate() error = nil, want query failure")
	}
}
