// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package generation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcraft/core/lib/voxel"
)

func TestGenerateChunkIsDeterministic(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig(12345)
	coord := voxel.ChunkCoord{X: 2, Y: 0, Z: -3}

	a := GenerateChunk(cfg, coord)
	b := GenerateChunk(cfg, coord)

	for x := 0.25; x < float64(cfg.ChunkSize); x += 0.5 {
		for y := 0.25; y < float64(cfg.ChunkSize); y += 0.5 {
			for z := 0.25; z < float64(cfg.ChunkSize); z += 0.5 {
				p := [3]float64{x, y, z}
				assert.Equal(t, a.Terrain.SampleVoxel(p), b.Terrain.SampleVoxel(p))
			}
		}
	}
}

func TestGenerateChunkDiffersAcrossSeeds(t *testing.T) {
	t.Parallel()
	coord := voxel.ChunkCoord{X: 0, Y: 0, Z: 0}
	a := GenerateChunk(DefaultConfig(1), coord)
	b := GenerateChunk(DefaultConfig(2), coord)

	differs := false
	for x := 0.25; x < 4; x += 0.5 {
		for z := 0.25; z < 4; z += 0.5 {
			p := [3]float64{x, 2, z}
			if a.Terrain.SampleVoxel(p) != b.Terrain.SampleVoxel(p) {
				differs = true
			}
		}
	}
	assert.True(t, differs, "expected different seeds to produce different terrain")
}

func TestGenerateChunkAlwaysHasTerrainAndGrass(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig(7)
	chunk := GenerateChunk(cfg, voxel.ChunkCoord{X: 0, Y: 0, Z: 0})
	assert.NotNil(t, chunk.Terrain)
	assert.NotNil(t, chunk.Grass)
}

// TestGenerateChunkFlatTerrain covers §8 scenario 2: a chunk generated
// at the column centered on its own terrain height has at least one
// non-empty brick, comes back marked Modified (freshly generated,
// never persisted), and its grass mask has at least one node.
func TestGenerateChunkFlatTerrain(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig(12345)
	height := newHeightField(cfg)
	h := height.Height(2, 2)
	centerY := int32(h / float64(cfg.ChunkSize))

	chunk := GenerateChunk(cfg, voxel.ChunkCoord{X: 0, Y: centerY, Z: 0})

	assert.True(t, chunk.HasNonEmptyBricks())
	assert.True(t, chunk.Modified)
	require.NotNil(t, chunk.Grass)
	assert.GreaterOrEqual(t, len(chunk.Grass.Nodes), 1)
}

func TestGenerateBatchSkipsExistingCoords(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig(42)
	center := voxel.ChunkCoord{X: 0, Y: 0, Z: 0}

	seen := map[voxel.ChunkCoord]bool{}
	chunks, err := GenerateBatch(context.Background(), cfg, center, 1, func(c voxel.ChunkCoord) bool {
		return seen[c]
	})
	require.NoError(t, err)

	coordSet := map[voxel.ChunkCoord]bool{}
	for _, c := range chunks {
		coordSet[c.Coord] = true
	}

	// Re-run excluding everything just generated: the result must be
	// disjoint from the first batch.
	chunks2, err := GenerateBatch(context.Background(), cfg, center, 1, func(c voxel.ChunkCoord) bool {
		return coordSet[c]
	})
	require.NoError(t, err)
	for _, c := range chunks2 {
		assert.False(t, coordSet[c.Coord], "coord %v should have been excluded as already-existing", c.Coord)
	}
}

func TestGenerateBatchResultsAreSortedByCoord(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig(9)
	chunks, err := GenerateBatch(context.Background(), cfg, voxel.ChunkCoord{}, 2, func(voxel.ChunkCoord) bool { return false })
	require.NoError(t, err)

	for i := 1; i < len(chunks); i++ {
		a, b := chunks[i-1].Coord, chunks[i].Coord
		lessOrEqual := a.X < b.X ||
			(a.X == b.X && a.Y < b.Y) ||
			(a.X == b.X && a.Y == b.Y && a.Z <= b.Z)
		assert.True(t, lessOrEqual, "chunks out of order at %d: %v then %v", i, a, b)
	}
}

func TestGenerateChunkFarAboveTerrainIsEmpty(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig(3)
	// A chunk many chunk-heights above the terrain's max possible
	// amplitude is certain to generate with zero bricks.
	farAbove := voxel.ChunkCoord{X: 0, Y: 1000, Z: 0}
	chunk := GenerateChunk(cfg, farAbove)
	assert.False(t, chunk.HasNonEmptyBricks())
}
