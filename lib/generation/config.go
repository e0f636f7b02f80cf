// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package generation implements the per-chunk generation pipeline
// (§4.6): biome and placement masks drive adaptive-builder classifiers
// that produce a chunk's terrain, rock, and tree octrees plus a
// finer-resolution grass mask.
package generation

// Config is the immutable generation configuration shared by every
// chunk task in a batch; a single Config is safe to read concurrently
// from many goroutines, since generation never mutates it.
type Config struct {
	Seed int64

	// ChunkSize is the world-space side length of one chunk, in meters.
	ChunkSize float32
	// TerrainMaxDepth is the octree depth for terrain/rock/tree voxel
	// octrees; 7 gives 128 voxels/side at a 4 m chunk.
	TerrainMaxDepth uint8

	BiomeMaskDepth uint8 // depth 3 -> 0.5 m cells at a 4 m chunk
	RockMaskDepth  uint8 // depth 4
	TreeMaskDepth  uint8 // depth 4
	GrassMaskDepth uint8 // depth 5 -> ~12.5 cm cells at a 4 m chunk

	SeaLevel float64

	// TerrainFrequency/Octaves/Lacunarity/Persistence tune the base
	// height field fBm.
	TerrainFrequency   float64
	TerrainAmplitude   float64
	TerrainOctaves     int
	TerrainLacunarity  float64
	TerrainPersistence float64

	// BiomeFrequency tunes the temperature/moisture fields that drive
	// biome classification; both fields are single-octave Perlin noise
	// sampled at this frequency.
	BiomeFrequency float64

	RockThreshold float64
	RockBand      float64 // vertical band above terrain, in meters

	TreeBand float64 // mask-gated probability threshold in [0,1]
}

// DefaultConfig returns reasonable values matching spec.md's stated
// resolutions for a 4 m chunk.
func DefaultConfig(seed int64) Config {
	return Config{
		Seed:            seed,
		ChunkSize:       4,
		TerrainMaxDepth: 7,
		BiomeMaskDepth:  3,
		RockMaskDepth:   4,
		TreeMaskDepth:   4,
		GrassMaskDepth:  5,
		SeaLevel:        0,

		TerrainFrequency:   0.01,
		TerrainAmplitude:   24,
		TerrainOctaves:     5,
		TerrainLacunarity:  2.0,
		TerrainPersistence: 0.5,

		BiomeFrequency: 0.003,

		RockThreshold: 0.55,
		RockBand:      1.5,

		TreeBand: 0.5,
	}
}
