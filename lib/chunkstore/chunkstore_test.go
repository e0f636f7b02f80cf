// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package chunkstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcraft/core/lib/mask"
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

// TestGrassCellPacking covers §8 scenario 5: profile 1, density 0.5
// packs to 34817 and unpacks to a density within quantization error of
// 0.5.
func TestGrassCellPacking(t *testing.T) {
	t.Parallel()
	g := NewGrassCell(1, 0.5)
	assert.Equal(t, GrassCell(34817), g)
	assert.Equal(t, uint8(1), g.Profile())
	assert.InDelta(t, 0.533, g.Density(), 0.01)
	assert.False(t, g.Clearing())
}

func TestGrassCellClearing(t *testing.T) {
	t.Parallel()
	g := NewGrassCell(0, 0)
	assert.True(t, g.Clearing())
}

// TestChunkRoundTrip covers §8 scenario 1: an empty chunk saved and
// loaded back round-trips to an equivalent octree.
func TestChunkRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	coord := voxel.ChunkCoord{X: 1, Y: -2, Z: 3}
	c := &Chunk{
		Coord:   coord,
		Terrain: octree.New(16, 4),
	}

	require.NoError(t, SaveChunk(dir, c))

	got, err := LoadChunk(dir, coord)
	require.NoError(t, err)
	assert.Equal(t, coord, got.Coord)
	assert.Equal(t, c.Terrain.RootSize, got.Terrain.RootSize)
	assert.Equal(t, c.Terrain.MaxDepth, got.Terrain.MaxDepth)
	assert.Equal(t, c.Terrain.Nodes, got.Terrain.Nodes)
	assert.Equal(t, c.Terrain.Bricks, got.Terrain.Bricks)
	assert.Nil(t, got.Rock)
	assert.Nil(t, got.Tree)
}

// TestChunkRoundTripWithOptionalOctrees exercises the presence-gated
// rock/tree sections together with a non-trivial terrain tree.
func TestChunkRoundTripWithOptionalOctrees(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	coord := voxel.ChunkCoord{X: 0, Y: 0, Z: 0}

	terrain := octree.New(32, 5)
	terrain.Nodes[0].BrickOffset = 1
	terrain.Bricks = append(terrain.Bricks, voxel.Brick{{Color: 7, Material: 2}})

	c := &Chunk{
		Coord:   coord,
		Terrain: terrain,
		Rock:    octree.New(32, 5),
		Tree:    octree.New(32, 5),
	}

	require.NoError(t, SaveChunk(dir, c))

	got, err := LoadChunk(dir, coord)
	require.NoError(t, err)
	require.NotNil(t, got.Rock)
	require.NotNil(t, got.Tree)
	assert.Equal(t, c.Terrain.Bricks, got.Terrain.Bricks)
}

func TestLoadChunkMissingIsNotFound(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := LoadChunk(dir, voxel.ChunkCoord{X: 9, Y: 9, Z: 9})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGrassMaskRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	coord := voxel.ChunkCoord{X: 4, Y: 0, Z: 0}

	m := mask.New[GrassCell](16, 3)
	m.Nodes[0].Value = NewGrassCell(2, 0.25)

	require.NoError(t, SaveGrassMask(dir, coord, m))

	got, err := LoadGrassMask(dir, coord)
	require.NoError(t, err)
	assert.Equal(t, m.Nodes, got.Nodes)
	assert.Equal(t, m.RootSize, got.RootSize)
	assert.Equal(t, m.MaxDepth, got.MaxDepth)
}

func TestChunkPathLayout(t *testing.T) {
	t.Parallel()
	coord := voxel.ChunkCoord{X: -1, Y: 5, Z: 2}
	p := ChunkPath("/world", coord)
	assert.Equal(t, "/world/y_5/chunk_-1_5_2.rkc", p)
}
