// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package generation

import (
	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/chunkstore"
	"github.com/voxcraft/core/lib/mask"
	"github.com/voxcraft/core/lib/noise"
)

// grassProfiles maps a biome to its primary/secondary grass profile ids;
// patch noise picks between the two so a biome's grass cover isn't
// perfectly uniform. Slope damping is intentionally not applied here
// (§4.6 step 6): the renderer derives it from the real surface normal
// at shading time. Profile 0 means bare ground / no grass.
func grassProfiles(id BiomeID) (primary, secondary uint8) {
	switch id {
	case BiomeGrassland:
		return 1, 2
	case BiomeForest:
		return 2, 3
	case BiomeTaiga:
		return 4, 3
	case BiomeTundra:
		return 5, 5
	default:
		return 0, 0 // ocean, beach, desert, mountains: bare ground
	}
}

// grassMaskGenerator implements mask.MaskGenerator[chunkstore.GrassCell]
// (§4.6 step 6): biome drives the profile pair, a patch noise field
// carves clearings, and a separate density field adds per-cell variation.
type grassMaskGenerator struct {
	biome            *mask.MaskOctree[BiomeID]
	patch            *noise.Perlin
	density          *noise.Perlin
	originX, originZ float64
}

func newGrassMaskGenerator(cfg Config, biome *mask.MaskOctree[BiomeID], originX, originZ float64) *grassMaskGenerator {
	return &grassMaskGenerator{
		biome:   biome,
		patch:   noise.NewPerlin(cfg.Seed + 4001),
		density: noise.NewPerlin(cfg.Seed + 4002),
		originX: originX,
		originZ: originZ,
	}
}

func (g *grassMaskGenerator) sample(localX, localZ float64) chunkstore.GrassCell {
	id := g.biome.Sample([3]float64{localX, 0, localZ})
	primary, secondary := grassProfiles(id)
	if primary == 0 && secondary == 0 {
		return chunkstore.NewGrassCell(0, 0)
	}

	wx, wz := g.originX+localX, g.originZ+localZ
	patchValue := g.patch.Noise2D(wx*0.04, wz*0.04)
	if patchValue > 0.45 {
		return chunkstore.NewGrassCell(0, 0)
	}

	profile := primary
	if g.patch.Noise2D(wx*0.07+100, wz*0.07+100) > 0 {
		profile = secondary
	}
	densityValue := (g.density.Noise2D(wx*0.3, wz*0.3) + 1) / 2
	return chunkstore.NewGrassCell(profile, densityValue)
}

func (g *grassMaskGenerator) ClassifyRegion(aabb adaptive.AABB) (chunkstore.GrassCell, bool) {
	corners := cornerPoints(aabb)
	first := g.sample(corners[0][0], corners[0][2])
	for _, c := range corners[1:] {
		if g.sample(c[0], c[2]) != first {
			return 0, false
		}
	}
	return first, true
}

func (g *grassMaskGenerator) Evaluate(point [3]float64) chunkstore.GrassCell {
	return g.sample(point[0], point[2])
}

func buildGrassMask(cfg Config, biome *mask.MaskOctree[BiomeID], originX, originZ float64) *mask.MaskOctree[chunkstore.GrassCell] {
	gen := newGrassMaskGenerator(cfg, biome, originX, originZ)
	return mask.Build[chunkstore.GrassCell](gen, cfg.ChunkSize, cfg.GrassMaskDepth)
}
