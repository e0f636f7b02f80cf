// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package treegen

import (
	"math"

	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/noise"
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

const (
	materialWood uint8 = 7
	materialLeaf uint8 = 8
)

const radialNoiseStrength = 0.12

// Voxelizer implements adaptive.RegionClassifier over a grown
// Skeleton's capsule-and-foliage SDF (§4.7 step 6). The adaptive
// builder's classify_region conservatively subdivides whenever a
// region's corners disagree, which is exactly the behavior spec.md §9's
// open questions call out as "correct but wasteful" for thin shells —
// reusing it here avoids a second dense-traversal implementation to get
// the same guarantee.
type Voxelizer struct {
	sk     *Skeleton
	noise  *noise.Perlin
	offset [3]float64 // adaptive-builder space -> skeleton space
}

// NewVoxelizer builds a Voxelizer for sk that will be run over a cube
// of the given rootSize: the trunk is grown at skeleton-space origin
// (0,0,0), so the cube is centered on it horizontally, with the ground
// at the cube's Y minimum.
func NewVoxelizer(sk *Skeleton, seed int64, rootSize float32) *Voxelizer {
	half := float64(rootSize) / 2
	return &Voxelizer{
		sk:     sk,
		noise:  noise.NewPerlin(seed ^ 0x5EED),
		offset: [3]float64{-half, 0, -half},
	}
}

// Voxelize runs the adaptive builder over v at the given local root
// size and max depth, producing the tree's standalone asset octree.
func (v *Voxelizer) Voxelize(rootSize float32, maxDepth uint8) *octree.Octree {
	return adaptive.Build(v, rootSize, maxDepth)
}

// toSkeleton maps an adaptive-builder point (origin at one corner of
// the root cube) to skeleton space (origin at the trunk base, centered
// horizontally).
func (v *Voxelizer) toSkeleton(p [3]float64) [3]float64 {
	return add(p, v.offset)
}

// sdf returns the signed distance to the nearest surface at p (negative
// inside), along with the material that surface would voxelize to.
func (v *Voxelizer) sdf(p [3]float64) (float64, uint8) {
	best := math.MaxFloat64
	bestMat := materialWood

	nodes := v.sk.Nodes
	for i := 1; i < len(nodes); i++ {
		a, b := nodes[nodes[i].Parent], nodes[i]
		ra, rb := a.Radius, b.Radius
		perturb := radialNoiseStrength * v.noise.Noise3D(p[0]*4, p[1]*4, p[2]*4)
		d := capsuleSDF(p, a.Pos, b.Pos, ra*(1+perturb), rb*(1+perturb))
		if d < best {
			best = d
			bestMat = materialWood
		}
	}

	for _, f := range v.sk.Foliage {
		d := sphereSDF(p, f.Center, f.Radius)
		if d < best {
			best = d
			bestMat = materialLeaf
		}
	}

	return best, bestMat
}

func capsuleSDF(p, a, b [3]float64, ra, rb float64) float64 {
	pa := sub(p, a)
	ba := sub(b, a)
	baLen2 := ba[0]*ba[0] + ba[1]*ba[1] + ba[2]*ba[2]
	h := 0.0
	if baLen2 > 1e-12 {
		h = clamp01((pa[0]*ba[0] + pa[1]*ba[1] + pa[2]*ba[2]) / baLen2)
	}
	closest := add(a, scale(ba, h))
	r := ra + (rb-ra)*h
	return length(sub(p, closest)) - r
}

func sphereSDF(p, center [3]float64, r float64) float64 {
	return length(sub(p, center)) - r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

const gradEps = 0.02

// gradient computes the SDF's central-difference gradient at p, the
// surface normal used to encode a lighting-ready color (§4.7 step 6).
func (v *Voxelizer) gradient(p [3]float64) [3]float64 {
	dx, _ := v.sdf([3]float64{p[0] + gradEps, p[1], p[2]})
	dx2, _ := v.sdf([3]float64{p[0] - gradEps, p[1], p[2]})
	dy, _ := v.sdf([3]float64{p[0], p[1] + gradEps, p[2]})
	dy2, _ := v.sdf([3]float64{p[0], p[1] - gradEps, p[2]})
	dz, _ := v.sdf([3]float64{p[0], p[1], p[2] + gradEps})
	dz2, _ := v.sdf([3]float64{p[0], p[1], p[2] - gradEps})
	return normalize([3]float64{dx - dx2, dy - dy2, dz - dz2})
}

// encodeNormalColor packs a unit normal's X/Y components into 16 bits,
// 8 bits per axis over [-1, 1]. generation's encodeGradientColor uses
// the same bit layout for terrain but quantizes over [-2, 2], so the
// two encodings do not decode with the same scale.
func encodeNormalColor(n [3]float64) uint16 {
	return uint16(quantizeSigned(n[0]))<<8 | uint16(quantizeSigned(n[1]))
}

func quantizeSigned(v float64) uint8 {
	v = math.Max(-1, math.Min(1, v))
	return uint8((v + 1) / 2 * 255)
}

func (v *Voxelizer) ClassifyRegion(aabb adaptive.AABB) adaptive.Classification {
	halfDiag := length(sub(aabb.Max, aabb.Min)) / 2

	minD := math.MaxFloat64
	maxD := -math.MaxFloat64
	for _, corner := range aabbCorners(aabb) {
		d, _ := v.sdf(v.toSkeleton(corner))
		if d < minD {
			minD = d
		}
		if d > maxD {
			maxD = d
		}
	}
	if minD > halfDiag {
		return adaptive.Classification{Kind: adaptive.Empty}
	}
	if maxD < -halfDiag {
		return adaptive.Classification{Kind: adaptive.Solid, Material: materialWood, Color: 0x0000}
	}
	return adaptive.Classification{Kind: adaptive.Mixed}
}

func (v *Voxelizer) Evaluate(point [3]float64) voxel.Voxel {
	p := v.toSkeleton(point)
	d, mat := v.sdf(p)
	if d > 0 {
		return voxel.Empty
	}
	n := v.gradient(p)
	color := encodeNormalColor(n)
	if mat == materialLeaf {
		color = v.leafColor(p)
	}
	return voxel.Voxel{Color: color, Material: mat}
}

// leafColor hashes point to pick a palette entry and tint it slightly,
// giving foliage visible color variance without per-voxel noise state.
func (v *Voxelizer) leafColor(point [3]float64) uint16 {
	palette := v.sk.Style.LeafColors
	if len(palette) == 0 {
		return 0x1E60
	}
	h := v.noise.Noise3D(point[0]*7, point[1]*7, point[2]*7)
	idx := int(math.Abs(h) * float64(len(palette)))
	if idx >= len(palette) {
		idx = len(palette) - 1
	}
	return palette[idx]
}

func aabbCorners(aabb adaptive.AABB) [][3]float64 {
	out := make([][3]float64, 0, 8)
	for octant := uint8(0); octant < 8; octant++ {
		p := aabb.Min
		if octant&1 != 0 {
			p[0] = aabb.Max[0]
		}
		if octant&2 != 0 {
			p[1] = aabb.Max[1]
		}
		if octant&4 != 0 {
			p[2] = aabb.Max[2]
		}
		out = append(out, p)
	}
	return out
}
