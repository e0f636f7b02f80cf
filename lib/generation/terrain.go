// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package generation

import (
	"math"

	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/mask"
	"github.com/voxcraft/core/lib/procedural/rockgen"
	"github.com/voxcraft/core/lib/voxel"
)

// Material ids used by generated terrain/rock voxels.
const (
	MaterialStone uint8 = iota
	MaterialDirt
	MaterialGrass
	MaterialSand
	MaterialSnow
	MaterialTundraRock
	MaterialRock
)

func biomeSurfaceMaterial(b BiomeID) uint8 {
	switch b {
	case BiomeOcean, BiomeBeach, BiomeDesert:
		return MaterialSand
	case BiomeTundra:
		return MaterialSnow
	case BiomeTaiga:
		return MaterialTundraRock
	case BiomeMountains:
		return MaterialRock
	default:
		return MaterialGrass
	}
}

// shellDepth is how far below terrain height a voxel still counts as
// surface, per §4.6 step 3.
const shellDepth = 1.0

// buriedColor is the LOD color/material a fully-buried (below the
// surface shell) region collapses to: no gradient detail needed since
// the renderer never sees an interior surface.
const buriedColor = uint16(0x8080)

// encodeGradientColor packs a central-difference gradient (each
// component roughly within [-2, 2]) into 16 bits, 8 bits per axis, so
// the renderer can reconstruct an approximate surface normal without
// per-voxel normal storage.
func encodeGradientColor(dx, dz float64) uint16 {
	return uint16(quantizeSigned(dx))<<8 | uint16(quantizeSigned(dz))
}

func quantizeSigned(v float64) uint8 {
	v = math.Max(-2, math.Min(2, v))
	return uint8((v + 2) / 4 * 255)
}

// encodeFractionalFlags packs frac (position within the surface shell,
// in [0, 1]) into Voxel.Flags's upper 5 bits and sets FlagDistanceHint
// to mark the encoding present.
func encodeFractionalFlags(frac float64) uint8 {
	frac = math.Max(0, math.Min(1, frac))
	q := uint8(frac * 31)
	return voxel.FlagDistanceHint | (q << 3)
}

// terrainClassifier implements adaptive.RegionClassifier for a chunk's
// terrain octree (§4.6 step 3).
type terrainClassifier struct {
	biome                      *mask.MaskOctree[BiomeID]
	height                     *heightField
	originX, originY, originZ float64
}

func (c *terrainClassifier) ClassifyRegion(aabb adaptive.AABB) adaptive.Classification {
	minH, maxH := c.height.RangeOver(c.originX, c.originZ, aabb)
	if c.originY+aabb.Min[1] > maxH {
		return adaptive.Classification{Kind: adaptive.Empty}
	}
	if c.originY+aabb.Max[1] < minH-shellDepth {
		return adaptive.Classification{Kind: adaptive.Solid, Material: MaterialStone, Color: buriedColor}
	}
	return adaptive.Classification{Kind: adaptive.Mixed}
}

func (c *terrainClassifier) Evaluate(point [3]float64) voxel.Voxel {
	wx, wy, wz := c.originX+point[0], c.originY+point[1], c.originZ+point[2]
	h := c.height.Height(wx, wz)

	if wy > h {
		return voxel.Empty
	}
	if wy < h-shellDepth {
		return voxel.Voxel{Color: buriedColor, Material: MaterialStone}
	}

	biomeID := c.biome.Sample([3]float64{point[0], 0, point[2]})
	dx, dz := c.height.Gradient(wx, wz)
	frac := (h - wy) / shellDepth

	return voxel.Voxel{
		Color:    encodeGradientColor(dx, dz),
		Material: biomeSurfaceMaterial(biomeID),
		Flags:    encodeFractionalFlags(frac),
	}
}

// rockClassifier implements adaptive.RegionClassifier for the separate
// rock octree (§4.6 step 4). Like treeClassifier, it samples the rock
// mask once at the chunk footprint's center: when it clears threshold, a
// single rockgen boulder is composed and voxelized sitting in the band
// above terrain, and ClassifyRegion/Evaluate delegate to it.
type rockClassifier struct {
	boulder     *rockgen.Voxelizer
	centerLocal [3]float64
	half        float64
}

func newRockClassifier(cfg Config, rockMask *mask.MaskOctree[float32], height *heightField, originX, originY, originZ float64) *rockClassifier {
	half := float64(cfg.ChunkSize) / 2
	c := &rockClassifier{half: half}

	v := rockMask.Sample([3]float64{half, 0, half})
	if float64(v) < cfg.RockThreshold {
		return c
	}

	wx, wz := originX+half, originZ+half
	groundY := height.Height(wx, wz)
	rockHeight := cfg.RockBand * 0.6
	c.centerLocal = [3]float64{half, groundY - originY + rockHeight*0.3, half}

	seed := worldSeed(cfg.Seed^0x524F434B, wx, wz)
	params := rockgen.DefaultParams(seed, rockHeight)
	c.boulder = rockgen.NewVoxelizer(params, seed, cfg.ChunkSize)
	return c
}

// toBoulder maps a chunk-local point to the boulder's own rootSize-cube
// space, so c.centerLocal lands on the cube's geometric center where the
// boulder's Voxelizer expects its own origin.
func (c *rockClassifier) toBoulder(p [3]float64) [3]float64 {
	return [3]float64{
		p[0] - c.centerLocal[0] + c.half,
		p[1] - c.centerLocal[1] + c.half,
		p[2] - c.centerLocal[2] + c.half,
	}
}

func (c *rockClassifier) ClassifyRegion(aabb adaptive.AABB) adaptive.Classification {
	if c.boulder == nil {
		return adaptive.Classification{Kind: adaptive.Empty}
	}
	shifted := adaptive.AABB{Min: c.toBoulder(aabb.Min), Max: c.toBoulder(aabb.Max)}
	return c.boulder.ClassifyRegion(shifted)
}

func (c *rockClassifier) Evaluate(point [3]float64) voxel.Voxel {
	if c.boulder == nil {
		return voxel.Empty
	}
	return c.boulder.Evaluate(c.toBoulder(point))
}
