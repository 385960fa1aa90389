// Package selector rates physical devices and picks the one to build on.
package selector

import (
	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/render-bootstrap/gpu"
	"github.com/vkngwrapper/render-bootstrap/queuefamily"
)

const queueFamilyBonus = 1000

var typeWeights = map[gpu.DeviceType]int{
	gpu.DeviceTypeDiscreteGPU:   1000,
	gpu.DeviceTypeIntegratedGPU: 500,
	gpu.DeviceTypeCPU:           100,
	gpu.DeviceTypeVirtualGPU:    0,
	gpu.DeviceTypeOther:         0,
}

// Candidate is one physical device together with how it was rated.
type Candidate struct {
	Device     gpu.PhysicalDevice
	Properties gpu.DeviceProperties
	Indices    queuefamily.Indices
	Score      int
}

type Selector struct {
	framebufferSize    core1_0.Extent2D
	requiredExtensions []string
	probe              ViabilityProbe
}

type Option func(*Selector)

// WithFramebufferSize sets the extent the viability probe negotiates for.
func WithFramebufferSize(size core1_0.Extent2D) Option {
	return func(s *Selector) {
		s.framebufferSize = size
	}
}

// WithRequiredExtensions sets the device extensions every candidate must expose.
func WithRequiredExtensions(names ...string) Option {
	return func(s *Selector) {
		s.requiredExtensions = append([]string(nil), names...)
	}
}

// WithProbe replaces the default CapabilityProbe.
func WithProbe(probe ViabilityProbe) Option {
	return func(s *Selector) {
		s.probe = probe
	}
}

func New(opts ...Option) *Selector {
	s := &Selector{
		framebufferSize: core1_0.Extent2D{Width: 800, Height: 600},
		probe:           CapabilityProbe{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score rates device for presenting to surface. Zero or less means unsuitable.
func (s *Selector) Score(device gpu.PhysicalDevice, surface gpu.Surface) int {
	return s.rate(device, surface, s.requiredExtensions).Score
}

func (s *Selector) rate(device gpu.PhysicalDevice, surface gpu.Surface, requiredExtensions []string) Candidate {
	candidate := Candidate{Device: device}
	log := gpu.Logger()

	properties, err := device.Properties()
	if err != nil {
		log.Warn("rejecting physical device: properties query failed", "error", err)
		return candidate
	}
	candidate.Properties = properties

	score := typeWeights[properties.Type]

	candidate.Indices = queuefamily.Resolve(device, surface)
	if candidate.Indices.GraphicsFamily != nil {
		score += queueFamilyBonus
	}
	if candidate.Indices.PresentFamily != nil {
		score += queueFamilyBonus
	}

	supported, err := extensionsSupported(device, requiredExtensions)
	if err != nil {
		log.Warn("rejecting physical device: extension query failed", "device", properties.Name, "error", err)
		return candidate
	}
	if !supported {
		log.Debug("physical device lacks required extensions", "device", properties.Name)
		return candidate
	}

	if !candidate.Indices.IsComplete() {
		log.Debug("physical device lacks a graphics or present queue family", "device", properties.Name, "queues", candidate.Indices)
		return candidate
	}

	viable, err := s.probe.Viable(device, surface, candidate.Indices, s.framebufferSize)
	if err != nil {
		log.Warn("rejecting physical device: swapchain probe failed", "device", properties.Name, "error", err)
		return candidate
	}
	if !viable {
		log.Debug("physical device cannot present to surface", "device", properties.Name)
		return candidate
	}

	candidate.Score = score
	return candidate
}

func extensionsSupported(device gpu.PhysicalDevice, requiredExtensions []string) (bool, error) {
	extensions, err := device.Extensions()
	if err != nil {
		return false, err
	}

	for _, name := range requiredExtensions {
		if _, ok := extensions[name]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// Rank rates every device in enumeration order.
func (s *Selector) Rank(devices []gpu.PhysicalDevice, surface gpu.Surface) []Candidate {
	return s.rank(devices, surface, s.requiredExtensions)
}

func (s *Selector) rank(devices []gpu.PhysicalDevice, surface gpu.Surface, requiredExtensions []string) []Candidate {
	candidates := make([]Candidate, 0, len(devices))
	for _, device := range devices {
		candidate := s.rate(device, surface, requiredExtensions)
		gpu.Logger().Debug("rated physical device",
			"device", candidate.Properties.Name,
			"type", candidate.Properties.Type,
			"score", candidate.Score)
		candidates = append(candidates, candidate)
	}
	return candidates
}

// SelectBest returns the highest scoring device. Ties go to the device enumerated
// first. The requiredExtensions argument, when non-empty, overrides any set with
// WithRequiredExtensions.
func (s *Selector) SelectBest(devices []gpu.PhysicalDevice, surface gpu.Surface, requiredExtensions []string) (Candidate, error) {
	start := hrtime.Now()

	if len(requiredExtensions) == 0 {
		requiredExtensions = s.requiredExtensions
	}

	var best *Candidate
	candidates := s.rank(devices, surface, requiredExtensions)
	for i := range candidates {
		if candidates[i].Score <= 0 {
			continue
		}
		if best == nil || candidates[i].Score > best.Score {
			best = &candidates[i]
		}
	}

	if best == nil {
		return Candidate{}, errors.Mark(
			errors.Newf("none of %d physical devices can present to the surface", len(devices)),
			gpu.ErrNoSuitableDevice)
	}

	gpu.Logger().Info("selected physical device",
		"device", best.Properties.Name,
		"type", best.Properties.Type,
		"uuid", best.Properties.PipelineCacheUUID,
		"score", best.Score,
		"queues", best.Indices,
		"elapsed", hrtime.Since(start))

	return *best, nil
}
