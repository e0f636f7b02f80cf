// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package generation

import (
	"math"

	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/mask"
	"github.com/voxcraft/core/lib/procedural/treegen"
	"github.com/voxcraft/core/lib/voxel"
)

// treeClassifier implements adaptive.RegionClassifier for a chunk's
// canopy octree (§4.6 step 5). The tree placement mask is sampled once,
// at the chunk footprint's center, to decide whether this chunk grows a
// tree at all; when it does, a treegen skeleton is grown and voxelized
// there and ClassifyRegion/Evaluate delegate to it. This caps tree
// density at one instance per chunk column, trading the mask's
// continuous field for a single representative sample per chunk.
type treeClassifier struct {
	tree        *treegen.Voxelizer
	groundLocal [3]float64 // chunk-local point where the trunk base sits
}

func newTreeClassifier(cfg Config, treeMask *mask.MaskOctree[float32], height *heightField, originX, originY, originZ float64) *treeClassifier {
	half := float64(cfg.ChunkSize) / 2
	c := &treeClassifier{}

	v := treeMask.Sample([3]float64{half, 0, half})
	if float64(v) < cfg.TreeBand {
		return c
	}

	wx, wz := originX+half, originZ+half
	groundY := height.Height(wx, wz)
	c.groundLocal = [3]float64{half, groundY - originY, half}

	seed := worldSeed(cfg.Seed, wx, wz)
	style := treeStyles[int(uint64(seed)%uint64(len(treeStyles)))]
	sk := treegen.Grow(style, seed)
	c.tree = treegen.NewVoxelizer(sk, seed, cfg.ChunkSize)
	return c
}

var treeStyles = []treegen.Style{treegen.Oak, treegen.Willow, treegen.Elm}

// worldSeed derives a per-instance seed from a base seed and a world-space
// footprint location, so regenerating the same chunk always grows the same
// tree or rock.
func worldSeed(base int64, wx, wz float64) int64 {
	hx := math.Float64bits(wx)
	hz := math.Float64bits(wz)
	h := uint64(base) ^ hx*0x9E3779B97F4A7C15 ^ hz*0xC2B2AE3D27D4EB4F
	return int64(h)
}

func (c *treeClassifier) ClassifyRegion(aabb adaptive.AABB) adaptive.Classification {
	if c.tree == nil {
		return adaptive.Classification{Kind: adaptive.Empty}
	}
	shifted := adaptive.AABB{
		Min: [3]float64{aabb.Min[0], aabb.Min[1] - c.groundLocal[1], aabb.Min[2]},
		Max: [3]float64{aabb.Max[0], aabb.Max[1] - c.groundLocal[1], aabb.Max[2]},
	}
	return c.tree.ClassifyRegion(shifted)
}

func (c *treeClassifier) Evaluate(point [3]float64) voxel.Voxel {
	if c.tree == nil {
		return voxel.Empty
	}
	shifted := [3]float64{point[0], point[1] - c.groundLocal[1], point[2]}
	return c.tree.Evaluate(shifted)
}
