// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package generation

import (
	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/mask"
	"github.com/voxcraft/core/lib/noise"
)

func biomeIn(id BiomeID, set ...BiomeID) bool {
	for _, s := range set {
		if id == s {
			return true
		}
	}
	return false
}

type slopeMode int

const (
	slopeNone slopeMode = iota
	slopeBoost
	slopeDamp
)

// placementMaskGenerator is the shared shape behind the rock and tree
// masks (§4.6 steps 2 and 5): both are a gated, slope-modulated noise
// field over a restricted biome list, differing only in which biomes
// gate them and how the noise is weighted. The field is a single
// octave of Perlin noise; no multi-octave fBm sum is taken.
type placementMaskGenerator struct {
	biome            *mask.MaskOctree[BiomeID]
	height           *heightField
	field            *noise.Perlin
	frequency        float64
	allowedBiomes    []BiomeID
	slope            slopeMode
	originX, originZ float64
}

func (g *placementMaskGenerator) sample(localX, localZ float64) float32 {
	id := g.biome.Sample([3]float64{localX, 0, localZ})
	if !biomeIn(id, g.allowedBiomes...) {
		return 0
	}
	wx, wz := g.originX+localX, g.originZ+localZ
	n := (g.field.Noise2D(wx*g.frequency, wz*g.frequency) + 1) / 2
	slope := g.height.Slope(wx, wz)
	switch g.slope {
	case slopeBoost:
		n *= 1 + slope
	case slopeDamp:
		n /= 1 + slope
	}
	if n > 1 {
		n = 1
	}
	return float32(n)
}

func (g *placementMaskGenerator) ClassifyRegion(aabb adaptive.AABB) (float32, bool) {
	corners := cornerPoints(aabb)
	first := g.sample(corners[0][0], corners[0][2])
	if first == 0 {
		for _, c := range corners[1:] {
			if g.sample(c[0], c[2]) != 0 {
				return 0, false
			}
		}
		return 0, true
	}
	// Any nonzero sample means the region is gated-on somewhere and, in
	// general, varies continuously within it: only a uniform-zero region
	// collapses without subdividing.
	return 0, false
}

func (g *placementMaskGenerator) Evaluate(point [3]float64) float32 {
	return g.sample(point[0], point[2])
}

func buildRockMask(cfg Config, biome *mask.MaskOctree[BiomeID], height *heightField, originX, originZ float64) *mask.MaskOctree[float32] {
	gen := &placementMaskGenerator{
		biome:         biome,
		height:        height,
		field:         noise.NewPerlin(cfg.Seed + 2001),
		frequency:     0.08,
		allowedBiomes: []BiomeID{BiomeMountains, BiomeTaiga, BiomeTundra, BiomeForest},
		slope:         slopeBoost,
		originX:       originX,
		originZ:       originZ,
	}
	return mask.Build[float32](gen, cfg.ChunkSize, cfg.RockMaskDepth)
}

func buildTreeMask(cfg Config, biome *mask.MaskOctree[BiomeID], height *heightField, originX, originZ float64) *mask.MaskOctree[float32] {
	gen := &placementMaskGenerator{
		biome:         biome,
		height:        height,
		field:         noise.NewPerlin(cfg.Seed + 3001),
		frequency:     0.15,
		allowedBiomes: []BiomeID{BiomeForest, BiomeGrassland},
		slope:         slopeDamp,
		originX:       originX,
		originZ:       originZ,
	}
	return mask.Build[float32](gen, cfg.ChunkSize, cfg.TreeMaskDepth)
}
