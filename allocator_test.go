package vkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign(t *testing.T) {
	assert.EqualValues(t, 12, makeAlignUp(12, 3))
	assert.EqualValues(t, 12, makeAlignUp(10, 3))
	assert.EqualValues(t, 7, makeAlignUp(7, 0))
	assert.EqualValues(t, 256, makeAlignUp(1, 256))
}

func TestAllocator(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	assert.Nil(t, a.Allocate(2048, 1), "larger than the block")

	first := a.Allocate(512, 1)
	require.NotNil(t, first)
	assert.EqualValues(t, 0, first.Offset)

	assert.Nil(t, a.Allocate(768, 1))

	second := a.Allocate(500, 1)
	require.NotNil(t, second)
	assert.EqualValues(t, 512, second.Offset)

	assert.Nil(t, a.Allocate(50, 1))
	third := a.Allocate(5, 1)
	require.NotNil(t, third)
	assert.EqualValues(t, 1012, third.Offset)
	assert.Nil(t, a.Allocate(20, 1))

	a.Free(second)
	again := a.Allocate(500, 1)
	require.NotNil(t, again)
	assert.EqualValues(t, 512, again.Offset)

	a.Free(first)
	assert.EqualValues(t, 505, a.Used())

	small := a.Allocate(20, 1)
	require.NotNil(t, small)
	assert.EqualValues(t, 0, small.Offset, "first fit reuses the head of the block")
	require.NotNil(t, a.Allocate(40, 1))
	require.NotNil(t, a.Allocate(12, 1))
	assert.Nil(t, a.Allocate(500, 1))
	require.NotNil(t, a.Allocate(5, 1))
}

func TestAllocatorAlignment(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	x := a.Allocate(10, 256)
	require.NotNil(t, x)
	y := a.Allocate(10, 256)
	require.NotNil(t, y)
	assert.EqualValues(t, 256, y.Offset)

	z := a.Allocate(700, 256)
	assert.Nil(t, z, "only 512 aligned bytes remain")

	a.Free(x)
	a.Free(y)
	assert.True(t, a.Empty())
	assert.NotNil(t, a.Allocate(1024, 256))
}
