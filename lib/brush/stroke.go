// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package brush

import (
	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/voxel"
)

// BlendMode decides how a stroke combines with whatever a node already
// contains.
type BlendMode int

const (
	Replace BlendMode = iota
	Add
	Subtract
)

// BrushStroke is one paint operation: an SDF primitive placed by a
// world transform, a target voxel, the octree depth it should resolve
// to, and how it blends with prior strokes. WorldAABB and the
// transform's inverse are computed once at construction since the
// builder queries them at every visited node.
type BrushStroke struct {
	SDF         SDF
	Transform   Transform
	Voxel       voxel.Voxel
	TargetLevel uint8
	Blend       BlendMode

	worldAABB adaptive.AABB
}

// NewBrushStroke builds a stroke and caches its world-space bounding
// box from the primitive's local bounds.
func NewBrushStroke(sdf SDF, transform Transform, v voxel.Voxel, targetLevel uint8, blend BlendMode) BrushStroke {
	return BrushStroke{
		SDF:         sdf,
		Transform:   transform,
		Voxel:       v,
		TargetLevel: targetLevel,
		Blend:       blend,
		worldAABB:   worldAABB(transform, localBounds(sdf)),
	}
}

// WorldAABB is the stroke's cached bounding box, used for the cheap
// node-intersection filter.
func (b BrushStroke) WorldAABB() adaptive.AABB {
	return b.worldAABB
}

// Intersects reports whether the stroke's bound overlaps aabb. This is
// a conservative (AABB-vs-AABB) test, not an exact SDF test, matching
// the filter step of the builder algorithm.
func (b BrushStroke) Intersects(aabb adaptive.AABB) bool {
	return aabbOverlap(b.worldAABB, aabb)
}

// Encloses reports whether the stroke's SDF volume fully contains
// aabb, by testing all 8 corners. Used for the builder's early
// termination: if a stroke encloses a node and no finer stroke needs
// to subdivide further, the node can collapse to a single leaf.
func (b BrushStroke) Encloses(aabb adaptive.AABB) bool {
	for octant := uint8(0); octant < 8; octant++ {
		corner := [3]float64{aabb.Min[0], aabb.Min[1], aabb.Min[2]}
		if octant&1 != 0 {
			corner[0] = aabb.Max[0]
		}
		if octant&2 != 0 {
			corner[1] = aabb.Max[1]
		}
		if octant&4 != 0 {
			corner[2] = aabb.Max[2]
		}
		if b.SDF.Distance(b.Transform.ToLocal(corner)) > 0 {
			return false
		}
	}
	return true
}

// Inside reports whether a single world-space point is inside the
// stroke's SDF volume.
func (b BrushStroke) Inside(p [3]float64) bool {
	local := b.Transform.ToLocal(p)
	if cloud, ok := b.SDF.(Cloud); ok {
		if length(local) >= cloud.Radius {
			return false
		}
		return cloud.Filled(local, hashNoise3(local, cloud.Seed^1))
	}
	return b.SDF.Distance(local) <= 0
}

// localBounds returns a conservative local-space AABB for sdf, used to
// seed the stroke's cached world bound.
func localBounds(sdf SDF) adaptive.AABB {
	switch s := sdf.(type) {
	case Sphere:
		return cubeBounds(s.Radius)
	case Box:
		return adaptive.AABB{
			Min: [3]float64{-s.HalfExtent[0], -s.HalfExtent[1], -s.HalfExtent[2]},
			Max: [3]float64{s.HalfExtent[0], s.HalfExtent[1], s.HalfExtent[2]},
		}
	case Capsule:
		r := s.Radius
		min := [3]float64{
			minF(s.A[0], s.B[0]) - r,
			minF(s.A[1], s.B[1]) - r,
			minF(s.A[2], s.B[2]) - r,
		}
		max := [3]float64{
			maxF(s.A[0], s.B[0]) + r,
			maxF(s.A[1], s.B[1]) + r,
			maxF(s.A[2], s.B[2]) + r,
		}
		return adaptive.AABB{Min: min, Max: max}
	case Cylinder:
		return adaptive.AABB{
			Min: [3]float64{-s.Radius, -s.HalfHeight, -s.Radius},
			Max: [3]float64{s.Radius, s.HalfHeight, s.Radius},
		}
	case Cloud:
		return cubeBounds(s.Radius)
	default:
		// Unrecognized primitive (e.g. composed via a custom SDF from
		// another package): fall back to an unbounded-ish generous cube,
		// since we have no way to query its extent.
		return cubeBounds(1 << 20)
	}
}

func cubeBounds(r float64) adaptive.AABB {
	return adaptive.AABB{Min: [3]float64{-r, -r, -r}, Max: [3]float64{r, r, r}}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
