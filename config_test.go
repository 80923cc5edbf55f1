package vkg

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vkg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	size, err := c.BlockSize()
	require.NoError(t, err)
	assert.EqualValues(t, DefaultMemoryBlockSize, size)
	assert.Equal(t, vk.PresentModeFifo, c.VKPresentMode())

	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
app_name: clear
debug: true
swapchain_images: 3
present_mode: Mailbox
memory_block_size: 16MiB
log_level: debug
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "clear", c.AppName)
	assert.True(t, c.Debug)
	assert.Equal(t, 3, c.SwapchainImages)
	assert.Equal(t, vk.PresentModeMailbox, c.VKPresentMode())

	size, err := c.BlockSize()
	require.NoError(t, err)
	assert.EqualValues(t, 16<<20, size)

	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigMissingFile(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("VKG_DEBUG", "true")
	t.Setenv("VKG_LOG_LEVEL", "warn")

	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, c.Debug)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestLoadConfigInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"present mode": "present_mode: vsync\n",
		"block size":   "memory_block_size: lots\n",
		"zero block":   "memory_block_size: 0\n",
		"log level":    "log_level: chatty\n",
		"image count":  "swapchain_images: -1\n",
		"not yaml":     "app_name: [unterminated\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
