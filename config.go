package vkg

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"gopkg.in/yaml.v3"
)

// Config holds the application settings of a GraphicsApp.
type Config struct {
	AppName string `yaml:"app_name"`

	// Debug enables the validation layer and routes its reports to the
	// logger.
	Debug bool `yaml:"debug"`

	// SwapchainImages is the desired image count. Zero picks the surface
	// minimum plus one.
	SwapchainImages int `yaml:"swapchain_images"`

	// PresentMode is one of fifo, fifo_relaxed, mailbox or immediate.
	PresentMode string `yaml:"present_mode"`

	// MemoryBlockSize is the size of each device memory block, such as
	// "64MiB".
	MemoryBlockSize string `yaml:"memory_block_size"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

var presentModes = map[string]vk.PresentMode{
	"fifo":         vk.PresentModeFifo,
	"fifo_relaxed": vk.PresentModeFifoRelaxed,
	"mailbox":      vk.PresentModeMailbox,
	"immediate":    vk.PresentModeImmediate,
}

func DefaultConfig() Config {
	return Config{
		AppName:         "vkgraph",
		PresentMode:     "fifo",
		MemoryBlockSize: "64MiB",
		LogLevel:        "info",
	}
}

// LoadConfig reads path over the defaults, applies VKG_DEBUG and
// VKG_LOG_LEVEL from the environment and validates the result. An empty
// path or missing file leaves the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return config, errors.Wrap(err, "read config")
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return config, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}

	if v := os.Getenv("VKG_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Debug = b
		}
	}
	if v := os.Getenv("VKG_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}

	if err := config.Validate(); err != nil {
		return config, errors.Wrap(err, "invalid config")
	}
	return config, nil
}

func (c Config) Validate() error {
	if c.SwapchainImages < 0 {
		return errors.Errorf("swapchain_images must not be negative, got %d", c.SwapchainImages)
	}
	if _, ok := presentModes[strings.ToLower(c.PresentMode)]; !ok {
		return errors.Errorf("unknown present_mode %q", c.PresentMode)
	}
	if _, err := c.BlockSize(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// VKPresentMode returns the preferred present mode, FIFO if unknown.
func (c Config) VKPresentMode() vk.PresentMode {
	if m, ok := presentModes[strings.ToLower(c.PresentMode)]; ok {
		return m
	}
	return vk.PresentModeFifo
}

// BlockSize parses MemoryBlockSize. Empty means DefaultMemoryBlockSize.
func (c Config) BlockSize() (uint64, error) {
	if c.MemoryBlockSize == "" {
		return DefaultMemoryBlockSize, nil
	}
	n, err := units.RAMInBytes(c.MemoryBlockSize)
	if err != nil {
		return 0, errors.Wrap(err, "memory_block_size")
	}
	if n <= 0 {
		return 0, errors.Errorf("memory_block_size must be positive, got %q", c.MemoryBlockSize)
	}
	return uint64(n), nil
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.Wrap(err, "log_level")
	}
	return level, nil
}
