// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package generation

import (
	"math"

	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/noise"
)

// heightField is the shared terrain height function: an fBm field in
// world (not chunk-local) space, so height is continuous across chunk
// boundaries regardless of how each chunk is tiled.
type heightField struct {
	p                      *noise.Perlin
	seaLevel               float64
	frequency              float64
	amplitude              float64
	octaves                int
	lacunarity, persistence float64
}

func newHeightField(cfg Config) *heightField {
	return &heightField{
		p:           noise.NewPerlin(cfg.Seed),
		seaLevel:    cfg.SeaLevel,
		frequency:   cfg.TerrainFrequency,
		amplitude:   cfg.TerrainAmplitude,
		octaves:     cfg.TerrainOctaves,
		lacunarity:  cfg.TerrainLacunarity,
		persistence: cfg.TerrainPersistence,
	}
}

// Height returns terrain surface height at world-space (x, z).
func (h *heightField) Height(x, z float64) float64 {
	n := h.p.FBM2D(x*h.frequency, z*h.frequency, h.octaves, h.lacunarity, h.persistence)
	return h.seaLevel + n*h.amplitude
}

const gradientEpsilon = 0.5

// Gradient returns the central-difference slope of Height at (x, z),
// used both to detect rock-eligible slopes and to encode a surface
// normal hint into a terrain voxel's color field.
func (h *heightField) Gradient(x, z float64) (dx, dz float64) {
	dx = (h.Height(x+gradientEpsilon, z) - h.Height(x-gradientEpsilon, z)) / (2 * gradientEpsilon)
	dz = (h.Height(x, z+gradientEpsilon) - h.Height(x, z-gradientEpsilon)) / (2 * gradientEpsilon)
	return dx, dz
}

// Slope is the squared magnitude of the gradient: 0 is flat, larger is
// steeper.
func (h *heightField) Slope(x, z float64) float64 {
	dx, dz := h.Gradient(x, z)
	return dx*dx + dz*dz
}

// RangeOver returns the min/max terrain height across aabb's footprint
// (sampled at its 4 distinct XZ corners), with originX/originZ shifting
// chunk-local aabb coordinates into the world space Height expects.
// Shared by every classifier that needs a conservative vertical bound
// for ClassifyRegion's empty/buried tests.
func (h *heightField) RangeOver(originX, originZ float64, aabb adaptive.AABB) (min, max float64) {
	corners := cornerPoints(aabb)
	min = h.Height(originX+corners[0][0], originZ+corners[0][2])
	max = min
	for _, p := range corners[1:] {
		v := h.Height(originX+p[0], originZ+p[2])
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}
