// Package pipeline assembles the fixed-function graphics pipeline used to draw to the swap chain.
package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/render-bootstrap/gpu"
)

// RequiredStageCount is the number of shader stages a pipeline takes: vertex and fragment.
const RequiredStageCount = 2

// Description is the complete, immutable state a graphics pipeline is created from.
type Description struct {
	Stages []core1_0.PipelineShaderStageCreateInfo

	VertexInput   core1_0.PipelineVertexInputStateCreateInfo
	InputAssembly core1_0.PipelineInputAssemblyStateCreateInfo
	Viewport      core1_0.PipelineViewportStateCreateInfo
	Rasterization core1_0.PipelineRasterizationStateCreateInfo
	Multisample   core1_0.PipelineMultisampleStateCreateInfo
	ColorBlend    core1_0.PipelineColorBlendStateCreateInfo
	DynamicState  core1_0.PipelineDynamicStateCreateInfo
	Layout        core1_0.PipelineLayoutCreateInfo

	BlendConstants mgl32.Vec4

	RenderPass core1_0.RenderPass
	Subpass    int
}

func stageCountError(count int) error {
	return errors.Mark(
		errors.Newf("graphics pipeline requires exactly %d shader stages, got %d", RequiredStageCount, count),
		gpu.ErrUnsupportedShaderStageCount)
}

// Describe builds the fixed-function state for drawing into extent with the given stages.
// It fails with ErrUnsupportedShaderStageCount unless exactly two stages are given.
func Describe(renderPass core1_0.RenderPass, extent core1_0.Extent2D, stages []core1_0.PipelineShaderStageCreateInfo) (Description, error) {
	if len(stages) != RequiredStageCount {
		return Description{}, stageCountError(len(stages))
	}

	blendConstants := mgl32.Vec4{0, 0, 0, 0}

	return Description{
		Stages: append([]core1_0.PipelineShaderStageCreateInfo(nil), stages...),

		// Geometry is generated in the vertex shader
		VertexInput: core1_0.PipelineVertexInputStateCreateInfo{},

		InputAssembly: core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology:               core1_0.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: false,
		},

		Viewport: core1_0.PipelineViewportStateCreateInfo{
			Viewports: []core1_0.Viewport{
				{
					X:        0,
					Y:        0,
					Width:    float32(extent.Width),
					Height:   float32(extent.Height),
					MinDepth: 0,
					MaxDepth: 1,
				},
			},
			Scissors: []core1_0.Rect2D{
				{
					Offset: core1_0.Offset2D{X: 0, Y: 0},
					Extent: extent,
				},
			},
		},

		Rasterization: core1_0.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        false,
			RasterizerDiscardEnable: false,

			PolygonMode: core1_0.PolygonModeFill,
			CullMode:    core1_0.CullModeBack,
			FrontFace:   core1_0.FrontFaceClockwise,

			DepthBiasEnable: false,

			LineWidth: 1.0,
		},

		Multisample: core1_0.PipelineMultisampleStateCreateInfo{
			SampleShadingEnable:   false,
			RasterizationSamples:  core1_0.Samples1,
			MinSampleShading:      1.0,
			AlphaToCoverageEnable: false,
			AlphaToOneEnable:      false,
		},

		ColorBlend: core1_0.PipelineColorBlendStateCreateInfo{
			LogicOpEnabled: false,
			LogicOp:        core1_0.LogicOpCopy,

			BlendConstants: [4]float32(blendConstants),
			Attachments: []core1_0.PipelineColorBlendAttachmentState{
				{
					BlendEnabled:        false,
					SrcColorBlendFactor: core1_0.BlendFactorOne,
					DstColorBlendFactor: core1_0.BlendFactorZero,
					ColorBlendOp:        core1_0.BlendOpAdd,
					SrcAlphaBlendFactor: core1_0.BlendFactorOne,
					DstAlphaBlendFactor: core1_0.BlendFactorZero,
					AlphaBlendOp:        core1_0.BlendOpAdd,
					ColorWriteMask:      core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
				},
			},
		},

		DynamicState: core1_0.PipelineDynamicStateCreateInfo{
			DynamicStates: []core1_0.DynamicState{
				core1_0.DynamicStateViewport,
				core1_0.DynamicStateLineWidth,
			},
		},

		// No descriptor sets and no push constants
		Layout: core1_0.PipelineLayoutCreateInfo{},

		BlendConstants: blendConstants,

		RenderPass: renderPass,
		Subpass:    0,
	}, nil
}

// CreateInfo binds the description to a created layout.
func (d *Description) CreateInfo(layout core1_0.PipelineLayout) core1_0.GraphicsPipelineCreateInfo {
	return core1_0.GraphicsPipelineCreateInfo{
		Stages:             d.Stages,
		VertexInputState:   &d.VertexInput,
		InputAssemblyState: &d.InputAssembly,
		ViewportState:      &d.Viewport,
		RasterizationState: &d.Rasterization,
		MultisampleState:   &d.Multisample,
		ColorBlendState:    &d.ColorBlend,
		DynamicState:       &d.DynamicState,
		Layout:             layout,
		RenderPass:         d.RenderPass,
		Subpass:            d.Subpass,
		BasePipelineIndex:  -1,
	}
}

// Pipeline owns a graphics pipeline and its layout.
type Pipeline struct {
	device    gpu.Device
	destroyed bool

	Description Description
	Layout      core1_0.PipelineLayout
	Pipeline    core1_0.Pipeline
}

// Assemble describes and creates the pipeline on device. The stage count is checked
// before any driver call; a failed pipeline creation releases the layout and returns an
// error matching both ErrResourceCreation and ErrPipelineCreation.
func Assemble(device gpu.Device, renderPass core1_0.RenderPass, extent core1_0.Extent2D, stages []core1_0.PipelineShaderStageCreateInfo) (*Pipeline, error) {
	start := hrtime.Now()

	description, err := Describe(renderPass, extent, stages)
	if err != nil {
		return nil, err
	}

	layout, res, err := device.CreatePipelineLayout(description.Layout)
	if err != nil {
		return nil, gpu.NewResourceCreationError(gpu.ResourcePipelineLayout, res, err)
	}

	pipeline, res, err := device.CreateGraphicsPipeline(description.CreateInfo(layout))
	if err != nil {
		device.DestroyPipelineLayout(layout)
		return nil, gpu.NewResourceCreationError(gpu.ResourcePipeline, res, err)
	}

	gpu.Logger().Info("graphics pipeline assembled",
		"extent", extent,
		"elapsed", hrtime.Since(start))

	return &Pipeline{
		device:      device,
		Description: description,
		Layout:      layout,
		Pipeline:    pipeline,
	}, nil
}

// Destroy releases the pipeline before its layout.
func (p *Pipeline) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true

	p.device.DestroyPipeline(p.Pipeline)
	p.device.DestroyPipelineLayout(p.Layout)
}
