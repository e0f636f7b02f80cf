// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package brush

import "github.com/voxcraft/core/lib/adaptive"

// Transform is a rigid-plus-scale affine transform from a brush
// primitive's local space into chunk-local world space. Basis columns
// are the local axes expressed in world space; Inverse is cached at
// construction so per-voxel queries never invert a matrix.
type Transform struct {
	Origin  [3]float64
	Basis   [3][3]float64
	Inverse [3][3]float64
}

// Identity is the no-op transform at the given world-space origin.
func Identity(origin [3]float64) Transform {
	id := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	return Transform{Origin: origin, Basis: id, Inverse: id}
}

// ToLocal maps a world-space point into the primitive's local space.
func (t Transform) ToLocal(p [3]float64) [3]float64 {
	d := [3]float64{p[0] - t.Origin[0], p[1] - t.Origin[1], p[2] - t.Origin[2]}
	return mulVec(t.Inverse, d)
}

// ToWorld maps a local-space point into world space.
func (t Transform) ToWorld(p [3]float64) [3]float64 {
	w := mulVec(t.Basis, p)
	return [3]float64{w[0] + t.Origin[0], w[1] + t.Origin[1], w[2] + t.Origin[2]}
}

func mulVec(m [3][3]float64, v [3]float64) [3]float64 {
	return [3]float64{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// worldAABB transforms the 8 corners of a local-space AABB into world
// space and returns their bounding box. Not exact for non-axis-aligned
// rotations of a non-cube local box, but conservative (never smaller
// than the true bound), which is all the intersection filter needs.
func worldAABB(t Transform, local adaptive.AABB) adaptive.AABB {
	var out adaptive.AABB
	first := true
	for octant := uint8(0); octant < 8; octant++ {
		corner := [3]float64{local.Min[0], local.Min[1], local.Min[2]}
		if octant&1 != 0 {
			corner[0] = local.Max[0]
		}
		if octant&2 != 0 {
			corner[1] = local.Max[1]
		}
		if octant&4 != 0 {
			corner[2] = local.Max[2]
		}
		w := t.ToWorld(corner)
		if first {
			out.Min, out.Max = w, w
			first = false
			continue
		}
		for axis := 0; axis < 3; axis++ {
			if w[axis] < out.Min[axis] {
				out.Min[axis] = w[axis]
			}
			if w[axis] > out.Max[axis] {
				out.Max[axis] = w[axis]
			}
		}
	}
	return out
}

func aabbOverlap(a, b adaptive.AABB) bool {
	for axis := 0; axis < 3; axis++ {
		if a.Max[axis] < b.Min[axis] || b.Max[axis] < a.Min[axis] {
			return false
		}
	}
	return true
}
