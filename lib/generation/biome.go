// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package generation

import (
	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/mask"
	"github.com/voxcraft/core/lib/noise"
)

// BiomeID identifies a biome. The zero value, BiomeOcean, is also the
// zero value any never-classified MaskOctree cell defaults to.
type BiomeID uint8

const (
	BiomeOcean BiomeID = iota
	BiomeBeach
	BiomeGrassland
	BiomeForest
	BiomeTaiga
	BiomeTundra
	BiomeMountains
	BiomeDesert
)

// biomeTable classifies a (temperature, moisture, height) triple into a
// BiomeID, sea-level aware: anything below sea level is Ocean
// regardless of climate, and a narrow band above it is Beach.
type biomeTable struct {
	seaLevel float64
}

func (b biomeTable) classify(temperature, moisture, height float64) BiomeID {
	switch {
	case height < b.seaLevel:
		return BiomeOcean
	case height < b.seaLevel+1.5:
		return BiomeBeach
	case height > b.seaLevel+60:
		return BiomeMountains
	}

	switch {
	case temperature < -0.35:
		return BiomeTundra
	case temperature < 0:
		return BiomeTaiga
	case temperature > 0.45 && moisture < -0.2:
		return BiomeDesert
	case moisture > 0.1:
		return BiomeForest
	default:
		return BiomeGrassland
	}
}

// biomeMaskGenerator implements mask.MaskGenerator[BiomeID] over
// temperature + moisture Perlin fields and the shared terrain height
// field, per §4.6 step 1.
type biomeMaskGenerator struct {
	table       biomeTable
	temperature *noise.Perlin
	moisture    *noise.Perlin
	height      *heightField
	frequency   float64
	originX     float64
	originZ     float64
}

func newBiomeMaskGenerator(cfg Config, height *heightField, originX, originZ float64) *biomeMaskGenerator {
	return &biomeMaskGenerator{
		table:       biomeTable{seaLevel: cfg.SeaLevel},
		temperature: noise.NewPerlin(cfg.Seed + 1001),
		moisture:    noise.NewPerlin(cfg.Seed + 1002),
		height:      height,
		frequency:   cfg.BiomeFrequency,
		originX:     originX,
		originZ:     originZ,
	}
}

func (g *biomeMaskGenerator) sample(worldX, worldZ float64) BiomeID {
	t := g.temperature.Noise2D(worldX*g.frequency, worldZ*g.frequency)
	m := g.moisture.Noise2D(worldX*g.frequency+500, worldZ*g.frequency+500)
	h := g.height.Height(worldX, worldZ)
	return g.table.classify(t, m, h)
}

func (g *biomeMaskGenerator) ClassifyRegion(aabb adaptive.AABB) (BiomeID, bool) {
	corners := cornerPoints(aabb)
	first := g.sample(g.originX+corners[0][0], g.originZ+corners[0][2])
	for _, c := range corners[1:] {
		if g.sample(g.originX+c[0], g.originZ+c[2]) != first {
			return 0, false
		}
	}
	return first, true
}

func (g *biomeMaskGenerator) Evaluate(point [3]float64) BiomeID {
	return g.sample(g.originX+point[0], g.originZ+point[2])
}

func cornerPoints(aabb adaptive.AABB) [8][3]float64 {
	var out [8][3]float64
	for i := 0; i < 8; i++ {
		x := aabb.Min[0]
		if i&1 != 0 {
			x = aabb.Max[0]
		}
		y := aabb.Min[1]
		if i&2 != 0 {
			y = aabb.Max[1]
		}
		z := aabb.Min[2]
		if i&4 != 0 {
			z = aabb.Max[2]
		}
		out[i] = [3]float64{x, y, z}
	}
	return out
}

// buildBiomeMask builds the chunk's biome mask (step 1 of §4.6).
func buildBiomeMask(cfg Config, height *heightField, originX, originZ float64) *mask.MaskOctree[BiomeID] {
	gen := newBiomeMaskGenerator(cfg, height, originX, originZ)
	return mask.Build[BiomeID](gen, cfg.ChunkSize, cfg.BiomeMaskDepth)
}
