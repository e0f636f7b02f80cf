// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package adaptive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcraft/core/lib/voxel"
)

// sphereClassifier is a RegionClassifier for a solid sphere of the
// given radius centered at the AABB's coordinate origin, used to
// exercise Empty/Solid/Mixed classification paths.
type sphereClassifier struct {
	radius float64
}

func (s sphereClassifier) ClassifyRegion(aabb AABB) Classification {
	maxDist := 0.0
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
		if d := dist(corner); d > maxDist {
			maxDist = d
		}
	}
	// True nearest-point-in-box distance to the origin (clamp each
	// axis, then measure), not just the nearest corner: the closest
	// point on a box to an external point is often on a face or edge.
	minDist := 0.0
	for axis := 0; axis < 3; axis++ {
		clamped := math.Max(aabb.Min[axis], math.Min(0, aabb.Max[axis]))
		minDist += clamped * clamped
	}
	minDist = math.Sqrt(minDist)

	switch {
	case maxDist <= s.radius:
		return Classification{Kind: Solid, Material: 7, Color: 0x1234}
	case minDist > s.radius:
		return Classification{Kind: Empty}
	default:
		return Classification{Kind: Mixed}
	}
}

func dist(p [3]float64) float64 {
	return math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
}

func (s sphereClassifier) Evaluate(point [3]float64) voxel.Voxel {
	if dist(point) <= s.radius {
		return voxel.Voxel{Color: 0x1234, Material: 7}
	}
	return voxel.Empty
}

func TestBuildProducesNonEmptyOctreeForSphere(t *testing.T) {
	t.Parallel()
	classifier := sphereClassifier{radius: 6}
	tree := Build(classifier, 16, 3)

	require.False(t, tree.IsEmpty())
	assert.Greater(t, tree.BrickCount(), 0)

	// A point near the origin corner is well inside the sphere.
	got := tree.SampleVoxel([3]float64{1, 1, 1})
	assert.Equal(t, voxel.Voxel{Color: 0x1234, Material: 7}, got)
}

func TestBuildEmptyRegionIsEmpty(t *testing.T) {
	t.Parallel()
	classifier := sphereClassifier{radius: 0.001}
	tree := Build(classifier, 16, 3)
	// The sphere is too small to intersect any brick cell.
	assert.True(t, tree.IsEmpty())
}

func TestBuildAgreesWithClassifierNearSurface(t *testing.T) {
	t.Parallel()
	classifier := sphereClassifier{radius: 6}
	tree := Build(classifier, 16, 4)

	// Sample a grid of points and check that wherever the classifier
	// says non-empty, the tree agrees (sample_voxel ≈ evaluate at the
	// brick center, per the adaptive builder's quantization).
	agree, total := 0, 0
	for x := 0.5; x < 16; x += 1 {
		for y := 0.5; y < 16; y += 1 {
			for z := 0.5; z < 16; z += 1 {
				p := [3]float64{x, y, z}
				want := classifier.Evaluate(p)
				if want.IsEmpty() {
					continue
				}
				total++
				got := tree.SampleVoxel(p)
				if got == want {
					agree++
				}
			}
		}
	}
	require.Greater(t, total, 0)
	assert.Equal(t, total, agree)
}

func TestBuildSimpleFlatPlane(t *testing.T) {
	t.Parallel()
	eval := func(p [3]float64) voxel.Voxel {
		if p[1] < 4 {
			return voxel.Voxel{Color: 0x0f0f, Material: 3}
		}
		return voxel.Empty
	}

	tree := BuildSimple(eval, 16, 4)
	require.False(t, tree.IsEmpty())

	below := tree.SampleVoxel([3]float64{8, 1, 8})
	above := tree.SampleVoxel([3]float64{8, 15, 8})
	assert.Equal(t, voxel.Voxel{Color: 0x0f0f, Material: 3}, below)
	assert.Equal(t, voxel.Empty, above)
}

func TestBuildSimpleAllEmptyIsEmpty(t *testing.T) {
	t.Parallel()
	eval := func(p [3]float64) voxel.Voxel { return voxel.Empty }
	tree := BuildSimple(eval, 16, 3)
	assert.True(t, tree.IsEmpty())
}
