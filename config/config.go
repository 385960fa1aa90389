// Package config loads the bootstrap's JSON configuration file.
package config

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

const (
	ProbeCapability = "capability"
	ProbeTrial      = "trial"
)

type Window struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Title  string `json:"title"`
}

type Shaders struct {
	Vertex   string `json:"vertex"`
	Fragment string `json:"fragment"`
}

type Config struct {
	Window           Window   `json:"window"`
	Validation       bool     `json:"validation"`
	DeviceExtensions []string `json:"deviceExtensions"`
	ViabilityProbe   string   `json:"viabilityProbe"`
	Shaders          Shaders  `json:"shaders"`
	LogLevel         string   `json:"logLevel"`
}

func Default() Config {
	return Config{
		Window: Window{
			Width:  800,
			Height: 600,
			Title:  "Vulkan",
		},
		Validation:       true,
		DeviceExtensions: []string{khr_swapchain.ExtensionName},
		ViabilityProbe:   ProbeCapability,
		Shaders: Shaders{
			Vertex:   "shaders/vert.spv",
			Fragment: "shaders/frag.spv",
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults, so a file only needs the keys it changes.
// The result is validated before it is returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}

	switch c.ViabilityProbe {
	case ProbeCapability, ProbeTrial:
	default:
		return errors.Newf("unknown viability probe %q", c.ViabilityProbe)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	if c.Shaders.Vertex == "" || c.Shaders.Fragment == "" {
		return errors.New("both vertex and fragment shader paths are required")
	}

	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, errors.Newf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}
