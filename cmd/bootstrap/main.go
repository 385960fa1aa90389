package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"
	"github.com/vkngwrapper/render-bootstrap/config"
	"github.com/vkngwrapper/render-bootstrap/device"
	"github.com/vkngwrapper/render-bootstrap/gpu"
	"github.com/vkngwrapper/render-bootstrap/selector"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

type BootstrapApplication struct {
	config config.Config
	logger *slog.Logger

	window *sdl.Window
	loader core.Loader

	instance       core1_0.Instance
	debugMessenger ext_debug_utils.DebugUtilsMessenger
	surface        khr_surface.Surface

	physicalDevice selector.Candidate
	device         *device.Handle
}

func (app *BootstrapApplication) Run() error {
	defer app.cleanup()

	err := app.initWindow()
	if err != nil {
		return err
	}

	err = app.initVulkan()
	if err != nil {
		return err
	}

	return app.mainLoop()
}

func (app *BootstrapApplication) initWindow() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "initialize sdl")
	}

	window, err := sdl.CreateWindow(app.config.Window.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(app.config.Window.Width), int32(app.config.Window.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	app.window = window

	app.loader, err = core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return errors.Wrap(err, "create vulkan loader")
	}

	return nil
}

func (app *BootstrapApplication) initVulkan() error {
	start := hrtime.Now()

	steps := []func() error{
		app.createInstance,
		app.setupDebugMessenger,
		app.createSurface,
		app.pickPhysicalDevice,
		app.createLogicalDevice,
		app.createGraphicsPipeline,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	app.logger.Info("vulkan initialized", "elapsed", hrtime.Since(start))
	return nil
}

func (app *BootstrapApplication) mainLoop() error {
appLoop:
	for true {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event.(type) {
			case *sdl.QuitEvent:
				break appLoop
			}
		}
		sdl.Delay(16)
	}

	return app.device.WaitIdle()
}

func (app *BootstrapApplication) cleanup() {
	if app.device != nil {
		app.device.Destroy()
	}

	if app.debugMessenger != nil {
		app.debugMessenger.Destroy(nil)
	}

	if app.surface != nil {
		app.surface.Destroy(nil)
	}

	if app.instance != nil {
		app.instance.Destroy(nil)
	}

	if app.window != nil {
		app.window.Destroy()
	}
	sdl.Quit()
}

func (app *BootstrapApplication) createInstance() error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    app.config.Window.Title,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	// Add extensions
	sdlExtensions := app.window.VulkanGetInstanceExtensions()
	extensions, _, err := app.loader.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range sdlExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Newf("createInstance: cannot initialize sdl: missing extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if app.config.Validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	// Add layers
	if app.config.Validation {
		layers, _, err := app.loader.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate instance layers")
		}

		for _, layer := range validationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return errors.Newf("createInstance: cannot add validation layer %s: not available, install the LunarG Vulkan SDK", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		// Add debug messenger
		instanceOptions.Next = app.debugMessengerOptions()
	}

	app.instance, _, err = app.loader.CreateInstance(nil, instanceOptions)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}

	return nil
}

func (app *BootstrapApplication) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    app.logDebug,
	}
}

func (app *BootstrapApplication) setupDebugMessenger() error {
	if !app.config.Validation {
		return nil
	}

	var err error
	debugLoader := ext_debug_utils.CreateExtensionFromInstance(app.instance)
	app.debugMessenger, _, err = debugLoader.CreateDebugUtilsMessenger(app.instance, nil, app.debugMessengerOptions())
	if err != nil {
		return errors.Wrap(err, "create debug messenger")
	}

	return nil
}

func (app *BootstrapApplication) createSurface() error {
	surfaceLoader := khr_surface.CreateExtensionFromInstance(app.instance)

	surface, err := vkng_sdl2.CreateSurface(app.instance, surfaceLoader, app.window)
	if err != nil {
		return errors.Wrap(err, "create surface")
	}

	app.surface = surface
	return nil
}

func (app *BootstrapApplication) framebufferSize() core1_0.Extent2D {
	width, height := app.window.VulkanGetDrawableSize()
	return core1_0.Extent2D{Width: int(width), Height: int(height)}
}

func (app *BootstrapApplication) pickPhysicalDevice() error {
	physicalDevices, err := gpu.EnumeratePhysicalDevices(app.instance)
	if err != nil {
		return err
	}

	opts := []selector.Option{
		selector.WithFramebufferSize(app.framebufferSize()),
		selector.WithRequiredExtensions(app.config.DeviceExtensions...),
	}
	if app.config.ViabilityProbe == config.ProbeTrial {
		opts = append(opts, selector.WithProbe(selector.TrialDeviceProbe{
			Extensions: app.config.DeviceExtensions,
			Layers:     app.enabledLayers(),
		}))
	}

	app.physicalDevice, err = selector.New(opts...).SelectBest(physicalDevices, gpu.WrapSurface(app.surface), nil)
	return err
}

func (app *BootstrapApplication) enabledLayers() []string {
	if !app.config.Validation {
		return nil
	}
	return validationLayers
}

func (app *BootstrapApplication) createLogicalDevice() error {
	var err error
	app.device, err = device.Build(device.BuildOptions{
		PhysicalDevice:  app.physicalDevice.Device,
		Surface:         gpu.WrapSurface(app.surface),
		Indices:         app.physicalDevice.Indices,
		Extensions:      app.config.DeviceExtensions,
		Layers:          app.enabledLayers(),
		FramebufferSize: app.framebufferSize(),
	})
	return err
}

func (app *BootstrapApplication) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	level := slog.LevelWarn
	if severity&ext_debug_utils.SeverityError != 0 {
		level = slog.LevelError
	}

	app.logger.Log(context.Background(), level, data.Message, "type", msgType, "severity", severity)
	return false
}

func main() {
	configPath := flag.String("config", "", "path to a JSON configuration file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("%+v\n", err)
		}
	}

	level, err := cfg.Level()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	gpu.SetLogger(logger)

	app := &BootstrapApplication{
		config: cfg,
		logger: logger,
	}

	err = app.Run()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
