package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}

func (app *BootstrapApplication) loadShaderModule(path string) (core1_0.ShaderModule, error) {
	shaderBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	if len(shaderBytes) == 0 || len(shaderBytes)%4 != 0 {
		return nil, errors.Newf("shader %s is not SPIR-V: %d bytes", path, len(shaderBytes))
	}

	shader, _, err := app.device.Device().Handle().CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(shaderBytes),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create shader module %s", path)
	}

	return shader, nil
}

// Shader modules are only needed while the pipeline is created.
func (app *BootstrapApplication) createGraphicsPipeline() error {
	vertShader, err := app.loadShaderModule(app.config.Shaders.Vertex)
	if err != nil {
		return err
	}
	defer vertShader.Destroy(nil)

	fragShader, err := app.loadShaderModule(app.config.Shaders.Fragment)
	if err != nil {
		return err
	}
	defer fragShader.Destroy(nil)

	_, err = app.device.CreatePipeline([]core1_0.PipelineShaderStageCreateInfo{
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
	})
	return err
}
