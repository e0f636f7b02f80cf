// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package brush

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/voxel"
)

func TestSphereDistance(t *testing.T) {
	t.Parallel()
	s := Sphere{Radius: 2}
	assert.InDelta(t, -2, s.Distance([3]float64{0, 0, 0}), 1e-9)
	assert.InDelta(t, 0, s.Distance([3]float64{2, 0, 0}), 1e-9)
	assert.InDelta(t, 1, s.Distance([3]float64{3, 0, 0}), 1e-9)
}

func TestBoxDistance(t *testing.T) {
	t.Parallel()
	b := Box{HalfExtent: [3]float64{1, 1, 1}}
	assert.Less(t, b.Distance([3]float64{0, 0, 0}), 0.0)
	assert.InDelta(t, 0, b.Distance([3]float64{1, 0, 0}), 1e-9)
	assert.Greater(t, b.Distance([3]float64{2, 0, 0}), 0.0)
}

func TestCylinderDistance(t *testing.T) {
	t.Parallel()
	c := Cylinder{HalfHeight: 2, Radius: 1}
	assert.Less(t, c.Distance([3]float64{0, 0, 0}), 0.0)
	assert.Greater(t, c.Distance([3]float64{0, 3, 0}), 0.0)
	assert.Greater(t, c.Distance([3]float64{2, 0, 0}), 0.0)
}

func TestCapsuleDistance(t *testing.T) {
	t.Parallel()
	c := Capsule{A: [3]float64{0, 0, 0}, B: [3]float64{0, 4, 0}, Radius: 1}
	assert.Less(t, c.Distance([3]float64{0, 2, 0}), 0.0)
	assert.InDelta(t, 0, c.Distance([3]float64{1, 2, 0}), 1e-9)
	assert.Greater(t, c.Distance([3]float64{0, 10, 0}), 0.0)
}

func solidVoxel() voxel.Voxel {
	return voxel.Voxel{Color: 0x07e0, Material: 4}
}

func TestBuildReplaceSphere(t *testing.T) {
	t.Parallel()
	stroke := NewBrushStroke(Sphere{Radius: 6}, Identity([3]float64{8, 8, 8}), solidVoxel(), 4, Replace)
	tree := Build([]BrushStroke{stroke}, 16, 4)

	require.False(t, tree.IsEmpty())
	assert.Equal(t, solidVoxel(), tree.SampleVoxel([3]float64{8, 8, 8}))
	assert.Equal(t, voxel.Empty, tree.SampleVoxel([3]float64{15.9, 15.9, 15.9}))
}

func TestBuildNoIntersectingStrokesIsEmpty(t *testing.T) {
	t.Parallel()
	stroke := NewBrushStroke(Sphere{Radius: 1}, Identity([3]float64{1000, 1000, 1000}), solidVoxel(), 4, Replace)
	tree := Build([]BrushStroke{stroke}, 16, 4)
	assert.True(t, tree.IsEmpty())
}

func TestBuildSubtractCarvesHole(t *testing.T) {
	t.Parallel()
	fill := NewBrushStroke(Box{HalfExtent: [3]float64{8, 8, 8}}, Identity([3]float64{8, 8, 8}), solidVoxel(), 4, Replace)
	carve := NewBrushStroke(Sphere{Radius: 3}, Identity([3]float64{8, 8, 8}), voxel.Empty, 4, Subtract)
	tree := Build([]BrushStroke{fill, carve}, 16, 4)

	center := tree.SampleVoxel([3]float64{8, 8, 8})
	corner := tree.SampleVoxel([3]float64{0.5, 0.5, 0.5})
	assert.Equal(t, voxel.Empty, center, "carved region should be empty")
	assert.Equal(t, solidVoxel(), corner, "region outside the carve should remain filled")
}

func TestBuildAddDoesNotOverwriteExisting(t *testing.T) {
	t.Parallel()
	first := voxel.Voxel{Color: 0x1111, Material: 1}
	second := voxel.Voxel{Color: 0x2222, Material: 2}
	a := NewBrushStroke(Sphere{Radius: 5}, Identity([3]float64{8, 8, 8}), first, 4, Add)
	b := NewBrushStroke(Sphere{Radius: 5}, Identity([3]float64{8, 8, 8}), second, 4, Add)
	tree := Build([]BrushStroke{a, b}, 16, 4)

	got := tree.SampleVoxel([3]float64{8, 8, 8})
	assert.Equal(t, first, got, "Add should not overwrite a voxel already painted by an earlier stroke")
}

func TestBuildReplaceLaterStrokeOverwritesEarlier(t *testing.T) {
	t.Parallel()
	first := voxel.Voxel{Color: 0x1111, Material: 1}
	second := voxel.Voxel{Color: 0x2222, Material: 2}
	a := NewBrushStroke(Sphere{Radius: 5}, Identity([3]float64{8, 8, 8}), first, 4, Replace)
	b := NewBrushStroke(Sphere{Radius: 5}, Identity([3]float64{8, 8, 8}), second, 4, Replace)
	tree := Build([]BrushStroke{a, b}, 16, 4)

	got := tree.SampleVoxel([3]float64{8, 8, 8})
	assert.Equal(t, second, got, "Replace should paint over an earlier stroke")
}

func TestBuildEarlyTerminationReducesNodeCount(t *testing.T) {
	t.Parallel()
	// A stroke whose target level is the root (0) can collapse to a
	// single terminal leaf as soon as it fully encloses a node; one
	// whose target level is the max depth must recurse all the way down.
	coarse := NewBrushStroke(Sphere{Radius: 20}, Identity([3]float64{8, 8, 8}), solidVoxel(), 0, Replace)
	fine := NewBrushStroke(Sphere{Radius: 20}, Identity([3]float64{8, 8, 8}), solidVoxel(), 5, Replace)

	coarseTree := Build([]BrushStroke{coarse}, 16, 5)
	fineTree := Build([]BrushStroke{fine}, 16, 5)

	assert.Less(t, coarseTree.NodeCount(), fineTree.NodeCount())
	assert.Equal(t, solidVoxel(), coarseTree.SampleVoxel([3]float64{8, 8, 8}))
	assert.Equal(t, solidVoxel(), fineTree.SampleVoxel([3]float64{8, 8, 8}))
}

func TestBuildDenseThenCompactMatchesPackedBuild(t *testing.T) {
	t.Parallel()
	stroke := NewBrushStroke(Box{HalfExtent: [3]float64{4, 4, 4}}, Identity([3]float64{8, 8, 8}), solidVoxel(), 3, Replace)

	packed := Build([]BrushStroke{stroke}, 16, 3)
	dense := BuildDense([]BrushStroke{stroke}, 16, 3)
	require.True(t, dense.Dense)
	compacted := dense.CompactFromDense()

	for _, p := range [][3]float64{{8, 8, 8}, {1, 1, 1}, {15, 15, 15}, {4, 4, 4}} {
		assert.Equal(t, packed.SampleVoxel(p), compacted.SampleVoxel(p))
	}
}

func TestCloudDensityFallsOffToZeroAtRadius(t *testing.T) {
	t.Parallel()
	c := Cloud{Radius: 4}
	assert.Equal(t, 0.0, c.Density([3]float64{10, 0, 0}))
	assert.Greater(t, c.Density([3]float64{0, 0, 0}), 0.0)
}

func TestEnclosesRequiresAllCorners(t *testing.T) {
	t.Parallel()
	stroke := NewBrushStroke(Sphere{Radius: 2}, Identity([3]float64{0, 0, 0}), solidVoxel(), 0, Replace)
	small := aabbAt(-1, 1)
	large := aabbAt(-5, 5)
	assert.True(t, stroke.Encloses(small))
	assert.False(t, stroke.Encloses(large))
}

func aabbAt(lo, hi float64) adaptive.AABB {
	return adaptive.AABB{Min: [3]float64{lo, lo, lo}, Max: [3]float64{hi, hi, hi}}
}
