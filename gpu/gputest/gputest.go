// Package gputest provides in-memory implementations of the gpu boundary.
//
// The fakes never touch a driver. Handles they return are nil; what tests inspect is
// the recorded create-info structs and the ordered Calls log on Device.
package gputest

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/render-bootstrap/gpu"
)

// PhysicalDevice is a fake physical device that also carries the surface
// support data the fake Surface reports for it.
type PhysicalDevice struct {
	Props         gpu.DeviceProperties
	PropertiesErr error

	Families        []gpu.QueueFamily
	PresentFamilies map[int]bool
	SupportErr      error

	ExtensionNames []string
	ExtensionsErr  error

	SurfaceCapabilities khr_surface.SurfaceCapabilities
	SurfaceFormats      []khr_surface.SurfaceFormat
	SurfacePresentModes []khr_surface.PresentMode
	SurfaceErr          error

	// CreateDeviceResult, when not success, makes CreateDevice fail with that result.
	CreateDeviceResult common.VkResult
	DeviceCreateInfos  []core1_0.DeviceCreateInfo

	// Device is returned by every successful CreateDevice; allocated on first use.
	Device *Device
}

var _ gpu.PhysicalDevice = (*PhysicalDevice)(nil)

// Viable returns a device with one combined graphics+present family, the swapchain
// extension, and a surface that negotiates successfully.
func Viable(name string, deviceType gpu.DeviceType) *PhysicalDevice {
	return &PhysicalDevice{
		Props: gpu.DeviceProperties{Name: name, Type: deviceType},
		Families: []gpu.QueueFamily{
			{Flags: core1_0.QueueGraphics | core1_0.QueueTransfer, QueueCount: 1},
		},
		PresentFamilies: map[int]bool{0: true},
		ExtensionNames:  []string{"VK_KHR_swapchain"},
		SurfaceCapabilities: khr_surface.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  0,
			CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
			MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
		},
		SurfaceFormats: []khr_surface.SurfaceFormat{
			{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		},
		SurfacePresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
	}
}

func (p *PhysicalDevice) Handle() core1_0.PhysicalDevice { return nil }

func (p *PhysicalDevice) Properties() (gpu.DeviceProperties, error) {
	return p.Props, p.PropertiesErr
}

func (p *PhysicalDevice) QueueFamilies() []gpu.QueueFamily {
	return p.Families
}

func (p *PhysicalDevice) Extensions() (map[string]struct{}, error) {
	if p.ExtensionsErr != nil {
		return nil, p.ExtensionsErr
	}

	names := make(map[string]struct{}, len(p.ExtensionNames))
	for _, name := range p.ExtensionNames {
		names[name] = struct{}{}
	}
	return names, nil
}

func (p *PhysicalDevice) CreateDevice(info core1_0.DeviceCreateInfo) (gpu.Device, common.VkResult, error) {
	p.DeviceCreateInfos = append(p.DeviceCreateInfos, info)
	if p.Device == nil {
		p.Device = NewDevice()
	}

	if p.CreateDeviceResult != core1_0.VKSuccess {
		p.Device.Calls = append(p.Device.Calls, "fail "+string(gpu.ResourceDevice))
		return nil, p.CreateDeviceResult, errors.Newf("driver returned %v", p.CreateDeviceResult)
	}

	p.Device.Calls = append(p.Device.Calls, "create "+string(gpu.ResourceDevice))
	p.Device.Destroyed = false
	p.Device.live[gpu.ResourceDevice]++
	return p.Device, core1_0.VKSuccess, nil
}

// Surface is a fake window surface. It reports the surface data stored on the
// *PhysicalDevice it is queried with.
type Surface struct {
	Queries int
}

var _ gpu.Surface = (*Surface)(nil)

func (s *Surface) Handle() khr_surface.Surface { return nil }

func (s *Surface) device(device gpu.PhysicalDevice) (*PhysicalDevice, error) {
	s.Queries++
	fake, ok := device.(*PhysicalDevice)
	if !ok {
		return nil, errors.Newf("gputest: unexpected physical device %T", device)
	}
	return fake, nil
}

func (s *Surface) SupportsQueueFamily(device gpu.PhysicalDevice, queueFamily int) (bool, error) {
	fake, err := s.device(device)
	if err != nil {
		return false, err
	}
	if fake.SupportErr != nil {
		return false, fake.SupportErr
	}
	return fake.PresentFamilies[queueFamily], nil
}

func (s *Surface) Capabilities(device gpu.PhysicalDevice) (*khr_surface.SurfaceCapabilities, error) {
	fake, err := s.device(device)
	if err != nil {
		return nil, err
	}
	if fake.SurfaceErr != nil {
		return nil, fake.SurfaceErr
	}
	capabilities := fake.SurfaceCapabilities
	return &capabilities, nil
}

func (s *Surface) Formats(device gpu.PhysicalDevice) ([]khr_surface.SurfaceFormat, error) {
	fake, err := s.device(device)
	if err != nil {
		return nil, err
	}
	return fake.SurfaceFormats, fake.SurfaceErr
}

func (s *Surface) PresentModes(device gpu.PhysicalDevice) ([]khr_surface.PresentMode, error) {
	fake, err := s.device(device)
	if err != nil {
		return nil, err
	}
	return fake.SurfacePresentModes, fake.SurfaceErr
}
