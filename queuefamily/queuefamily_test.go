package queuefamily

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/render-bootstrap/gpu"
	"github.com/vkngwrapper/render-bootstrap/gpu/gputest"
)

func index(i int) *int { return &i }

func equalIndex(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		families []gpu.QueueFamily
		present  map[int]bool
		want     Indices
	}{
		{
			name:     "single combined family",
			families: []gpu.QueueFamily{{Flags: core1_0.QueueGraphics}},
			present:  map[int]bool{0: true},
			want:     Indices{GraphicsFamily: index(0), PresentFamily: index(0)},
		},
		{
			name: "separate families",
			families: []gpu.QueueFamily{
				{Flags: core1_0.QueueCompute},
				{Flags: core1_0.QueueGraphics},
				{Flags: core1_0.QueueTransfer},
			},
			present: map[int]bool{2: true},
			want:    Indices{GraphicsFamily: index(1), PresentFamily: index(2)},
		},
		{
			name: "first matching family wins",
			families: []gpu.QueueFamily{
				{Flags: core1_0.QueueGraphics},
				{Flags: core1_0.QueueGraphics},
			},
			present: map[int]bool{0: false, 1: true},
			want:    Indices{GraphicsFamily: index(0), PresentFamily: index(1)},
		},
		{
			name:     "no graphics family",
			families: []gpu.QueueFamily{{Flags: core1_0.QueueCompute}},
			present:  map[int]bool{0: true},
			want:     Indices{PresentFamily: index(0)},
		},
		{
			name:     "no present family",
			families: []gpu.QueueFamily{{Flags: core1_0.QueueGraphics}},
			want:     Indices{GraphicsFamily: index(0)},
		},
		{
			name: "no families",
			want: Indices{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := &gputest.PhysicalDevice{Families: tt.families, PresentFamilies: tt.present}

			got := Resolve(device, &gputest.Surface{})
			if !equalIndex(got.GraphicsFamily, tt.want.GraphicsFamily) || !equalIndex(got.PresentFamily, tt.want.PresentFamily) {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
			if got.IsComplete() != tt.want.IsComplete() {
				t.Errorf("IsComplete() = %v, want %v", got.IsComplete(), tt.want.IsComplete())
			}
		})
	}
}

func TestResolveSupportQueryError(t *testing.T) {
	device := &gputest.PhysicalDevice{
		Families:   []gpu.QueueFamily{{Flags: core1_0.QueueGraphics}},
		SupportErr: errors.New("surface lost"),
	}

	got := Resolve(device, &gputest.Surface{})
	if got.PresentFamily != nil {
		t.Errorf("PresentFamily = %d, want unset", *got.PresentFamily)
	}
	if got.GraphicsFamily == nil || *got.GraphicsFamily != 0 {
		t.Errorf("GraphicsFamily = %s, want 0", got)
	}
}

func TestResolveStopsWhenComplete(t *testing.T) {
	device := &gputest.PhysicalDevice{
		Families: []gpu.QueueFamily{
			{Flags: core1_0.QueueGraphics},
			{Flags: core1_0.QueueGraphics},
			{Flags: core1_0.QueueGraphics},
		},
		PresentFamilies: map[int]bool{0: true, 1: true, 2: true},
	}
	surface := &gputest.Surface{}

	Resolve(device, surface)
	if surface.Queries != 1 {
		t.Errorf("surface queried %d times, want 1", surface.Queries)
	}
}

func TestUnique(t *testing.T) {
	tests := []struct {
		name    string
		indices Indices
		want    []int
	}{
		{"combined", Indices{GraphicsFamily: index(3), PresentFamily: index(3)}, []int{3}},
		{"distinct", Indices{GraphicsFamily: index(0), PresentFamily: index(2)}, []int{0, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.indices.Unique()
			if len(got) != len(tt.want) {
				t.Fatalf("Unique() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Unique() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
