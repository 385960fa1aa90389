// Package queuefamily finds the graphics and present queue families of a physical device.
package queuefamily

import (
	"fmt"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/render-bootstrap/gpu"
)

// Indices holds the resolved queue family indices. A nil field was not found.
type Indices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i Indices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// Distinct reports whether graphics and present live in different families.
// Both indices must be set.
func (i Indices) Distinct() bool {
	return *i.GraphicsFamily != *i.PresentFamily
}

// Unique returns the set {graphics, present} with duplicates removed, graphics first.
// Both indices must be set.
func (i Indices) Unique() []int {
	unique := []int{*i.GraphicsFamily}
	if i.Distinct() {
		unique = append(unique, *i.PresentFamily)
	}
	return unique
}

func (i Indices) String() string {
	return fmt.Sprintf("graphics=%s present=%s", formatIndex(i.GraphicsFamily), formatIndex(i.PresentFamily))
}

func formatIndex(index *int) string {
	if index == nil {
		return "unset"
	}
	return fmt.Sprintf("%d", *index)
}

// Resolve scans the device's queue families in order, recording the first family with
// graphics support and the first family that can present to surface. It never fails:
// a capability that was not found, or whose query errored, leaves its index unset.
func Resolve(device gpu.PhysicalDevice, surface gpu.Surface) Indices {
	indices := Indices{}

	for queueFamilyIdx, queueFamily := range device.QueueFamilies() {
		if indices.GraphicsFamily == nil && (queueFamily.Flags&core1_0.QueueGraphics) != 0 {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		if indices.PresentFamily == nil {
			supported, err := surface.SupportsQueueFamily(device, queueFamilyIdx)
			if err != nil {
				gpu.Logger().Warn("surface support query failed",
					"queueFamily", queueFamilyIdx,
					"error", err)
			} else if supported {
				indices.PresentFamily = new(int)
				*indices.PresentFamily = queueFamilyIdx
			}
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices
}
