package vulkan

import (
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// Shader file names within a ShaderSource.
const (
	VertexShaderFile   = "vert.spv"
	FragmentShaderFile = "frag.spv"
)

// ShaderSource holds compiled SPIR-V shaders by file name.
type ShaderSource interface {
	ReadFile(name string) ([]byte, error)
}

// ShadersFrom reads shaders from the root of fsys.
func ShadersFrom(fsys fs.FS) ShaderSource {
	return fsShaders{fsys}
}

type fsShaders struct{ fsys fs.FS }

func (s fsShaders) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(s.fsys, name)
}

// Pipeline is the fixed render pass and the graphics pipeline drawing into it.
type Pipeline struct {
	RenderPass core1_0.RenderPass
	Layout     core1_0.PipelineLayout
	Pipeline   core1_0.Pipeline
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("shader bytecode length %d is not a positive multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode, nil
}

func createRenderPass(gpu GPU, format core1_0.Format) (core1_0.RenderPass, error) {
	renderPass, err := gpu.CreateRenderPass(core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	return renderPass, errors.Wrap(err, "create render pass")
}

func loadShader(gpu GPU, shaders ShaderSource, name string) (core1_0.ShaderModule, error) {
	b, err := shaders.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", name)
	}
	code, err := bytesToBytecode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", name)
	}
	module, err := gpu.CreateShaderModule(code)
	return module, errors.Wrapf(err, "create shader module %s", name)
}

// NewPipeline creates the render pass for images of format and a pipeline
// that draws into it with the viewport and scissor left dynamic, so neither
// has to be rebuilt when the swapchain is.
func NewPipeline(gpu GPU, format core1_0.Format, extent core1_0.Extent2D, shaders ShaderSource) (p *Pipeline, err error) {
	p = &Pipeline{}
	defer func() {
		if err != nil {
			p.Destroy(gpu)
			p = nil
		}
	}()

	p.RenderPass, err = createRenderPass(gpu, format)
	if err != nil {
		return p, err
	}

	vertShader, err := loadShader(gpu, shaders, VertexShaderFile)
	if err != nil {
		return p, err
	}
	defer gpu.DestroyShaderModule(vertShader)

	fragShader, err := loadShader(gpu, shaders, FragmentShaderFile)
	if err != nil {
		return p, err
	}
	defer gpu.DestroyShaderModule(fragShader)

	p.Layout, err = gpu.CreatePipelineLayout(core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return p, errors.Wrap(err, "create pipeline layout")
	}

	p.Pipeline, err = gpu.CreateGraphicsPipeline(core1_0.GraphicsPipelineCreateInfo{
		Stages: []core1_0.PipelineShaderStageCreateInfo{
			{
				Stage:  core1_0.StageVertex,
				Module: vertShader,
				Name:   "main",
			},
			{
				Stage:  core1_0.StageFragment,
				Module: fragShader,
				Name:   "main",
			},
		},
		VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{},
		InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology:               core1_0.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: false,
		},
		ViewportState: &core1_0.PipelineViewportStateCreateInfo{
			Viewports: []core1_0.Viewport{viewportFor(extent)},
			Scissors:  []core1_0.Rect2D{scissorFor(extent)},
		},
		RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        false,
			RasterizerDiscardEnable: false,

			PolygonMode: core1_0.PolygonModeFill,
			CullMode:    core1_0.CullModeBack,
			FrontFace:   core1_0.FrontFaceClockwise,

			DepthBiasEnable: false,

			LineWidth: 1.0,
		},
		MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
			SampleShadingEnable:  false,
			RasterizationSamples: core1_0.Samples1,
			MinSampleShading:     1.0,
		},
		ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
			LogicOpEnabled: false,
			LogicOp:        core1_0.LogicOpCopy,

			BlendConstants: [4]float32{0, 0, 0, 0},
			Attachments: []core1_0.PipelineColorBlendAttachmentState{
				{
					BlendEnabled:   false,
					ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
				},
			},
		},
		DynamicState: &core1_0.PipelineDynamicStateCreateInfo{
			DynamicStates: []core1_0.DynamicState{
				core1_0.DynamicStateViewport,
				core1_0.DynamicStateScissor,
			},
		},
		Layout:            p.Layout,
		RenderPass:        p.RenderPass,
		Subpass:           0,
		BasePipelineIndex: -1,
	})
	if err != nil {
		return p, errors.Wrap(err, "create graphics pipeline")
	}

	return p, nil
}

// Destroy releases the pipeline, its layout and the render pass, in that
// order. Handles that were never created are skipped.
func (p *Pipeline) Destroy(gpu GPU) {
	if p.Pipeline != nil {
		gpu.DestroyPipeline(p.Pipeline)
		p.Pipeline = nil
	}
	if p.Layout != nil {
		gpu.DestroyPipelineLayout(p.Layout)
		p.Layout = nil
	}
	if p.RenderPass != nil {
		gpu.DestroyRenderPass(p.RenderPass)
		p.RenderPass = nil
	}
}

func viewportFor(extent core1_0.Extent2D) core1_0.Viewport {
	return core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}

func scissorFor(extent core1_0.Extent2D) core1_0.Rect2D {
	return core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
}
