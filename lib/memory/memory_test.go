// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcraft/core/lib/chunkstore"
	"github.com/voxcraft/core/lib/voxel"
)

func coord(x int32) voxel.ChunkCoord { return voxel.ChunkCoord{X: x, Y: 0, Z: 0} }

// TestChunkCacheEvictionOrder covers §8 scenario 3.
func TestChunkCacheEvictionOrder(t *testing.T) {
	t.Parallel()
	c := NewChunkCache(3)

	c.Insert(coord(1), &chunkstore.Chunk{Coord: coord(1)})
	c.Insert(coord(2), &chunkstore.Chunk{Coord: coord(2)})
	c.Insert(coord(3), &chunkstore.Chunk{Coord: coord(3)})

	_, ok := c.Get(coord(1))
	require.True(t, ok)

	c.Insert(coord(4), &chunkstore.Chunk{Coord: coord(4)})

	assert.Equal(t, 3, c.Len())
	assert.True(t, c.Contains(coord(1)))
	assert.False(t, c.Contains(coord(2)))
	assert.True(t, c.Contains(coord(3)))
	assert.True(t, c.Contains(coord(4)))
}

func TestChunkCacheReplaceDoesNotEvict(t *testing.T) {
	t.Parallel()
	c := NewChunkCache(2)
	c.Insert(coord(1), &chunkstore.Chunk{Coord: coord(1)})
	c.Insert(coord(2), &chunkstore.Chunk{Coord: coord(2)})
	c.Insert(coord(1), &chunkstore.Chunk{Coord: coord(1)})

	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Contains(coord(2)))
}

func TestChunkCacheEvictOldestPopsFront(t *testing.T) {
	t.Parallel()
	c := NewChunkCache(4)
	c.Insert(coord(1), &chunkstore.Chunk{Coord: coord(1)})
	c.Insert(coord(2), &chunkstore.Chunk{Coord: coord(2)})

	evicted, ok := c.EvictOldest()
	require.True(t, ok)
	assert.Equal(t, coord(1), evicted)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryBudgetSaturatesAndReportsEviction(t *testing.T) {
	t.Parallel()
	b := NewMemoryBudget(1, 1) // 1 MB each axis

	b.AddCPU(1 << 20) // fully used
	assert.True(t, b.ShouldEvict())
	assert.False(t, b.CanLoad(1, 0))

	b.RemoveCPU(1 << 30) // far more than used: saturates at zero, not underflow
	assert.Equal(t, uint64(0), b.CPUUsed())
	assert.False(t, b.ShouldEvict())
}

func TestMemoryBudgetCanLoadChecksBothAxes(t *testing.T) {
	t.Parallel()
	b := NewMemoryBudget(1, 1)
	b.AddGPU(1 << 20)
	assert.False(t, b.CanLoad(0, 1))
	assert.True(t, b.CanLoad(1, 0))
}
