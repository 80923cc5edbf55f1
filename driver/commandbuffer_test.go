package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/driver/drivertest"
)

func TestCommandBufferDoneFollowsFence(t *testing.T) {
	dev := drivertest.NewDevice()
	cmd, err := driver.NewCommandBuffer(dev, 0)
	require.NoError(t, err)
	defer cmd.Destroy()

	done, err := cmd.Done()
	require.NoError(t, err)
	assert.True(t, done, "a fresh command buffer has nothing in flight")

	dev.HoldFences()
	require.NoError(t, cmd.Begin())
	require.NoError(t, cmd.End())
	require.NoError(t, cmd.Submit(nil, nil))

	done, err = cmd.Done()
	require.NoError(t, err)
	assert.False(t, done)

	dev.SignalFences()
	done, err = cmd.Done()
	require.NoError(t, err)
	assert.True(t, done)
}
