// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

// buildRepeatedPatternTree builds an 8x8x8-voxel octree (maxDepth 3)
// where every brick-sized cell is painted identically, so a correct
// node dedup pass collapses many repeated node/brick shapes into one.
func buildRepeatedPatternTree(t *testing.T) *octree.Octree {
	t.Helper()
	v := voxel.Voxel{Color: 0x3333, Material: 2}
	var brick voxel.Brick
	for i := range brick {
		brick[i] = v
	}

	leaf := func() *octree.BuilderChild {
		return &octree.BuilderChild{IsLeaf: true, Brick: brick}
	}
	midNode := func() *octree.BuilderNode {
		n := &octree.BuilderNode{LODColor: v.Color, LODMaterial: v.Material}
		for octant := uint8(0); octant < 8; octant++ {
			n.Children[octant] = leaf()
		}
		return n
	}

	root := &octree.BuilderNode{LODColor: v.Color, LODMaterial: v.Material}
	for octant := uint8(0); octant < 8; octant++ {
		root.Children[octant] = &octree.BuilderChild{IsLeaf: false, Node: midNode()}
	}

	return octree.Assemble(root, 8, 3)
}

func TestSVDAGRoundTripPreservesSampling(t *testing.T) {
	t.Parallel()
	tree := buildRepeatedPatternTree(t)

	d := FromOctree(tree)
	got := d.ToOctree()

	for x := 0.5; x < 8; x += 1 {
		for y := 0.5; y < 8; y += 1 {
			for z := 0.5; z < 8; z += 1 {
				p := [3]float64{x, y, z}
				assert.Equal(t, tree.SampleVoxel(p), got.SampleVoxel(p))
			}
		}
	}
}

func TestSVDAGDeduplicatesRepeatedContent(t *testing.T) {
	t.Parallel()
	tree := buildRepeatedPatternTree(t)
	d := FromOctree(tree)

	// The tree has 1 root + 8 identical mid-level nodes; dedup must
	// collapse those 8 into 1, and all 64 leaf bricks into 1.
	assert.LessOrEqual(t, d.NodeCount(), 2)
	assert.Equal(t, 1, d.BrickCount())
	assert.Less(t, d.NodeCount()+d.BrickCount(), tree.NodeCount()+tree.BrickCount())
}

func TestSVDAGEmptyOctreeRoundTrips(t *testing.T) {
	t.Parallel()
	tree := octree.New(4, 7)
	d := FromOctree(tree)
	assert.Equal(t, Hash(0), d.Root)

	got := d.ToOctree()
	assert.True(t, got.IsEmpty())
}

func TestHashDAGRoundTripPreservesSampling(t *testing.T) {
	t.Parallel()
	tree := buildRepeatedPatternTree(t)

	d := FromOctreeLeveled(tree)
	got := d.ToOctree()

	for x := 0.5; x < 8; x += 1 {
		for y := 0.5; y < 8; y += 1 {
			for z := 0.5; z < 8; z += 1 {
				p := [3]float64{x, y, z}
				assert.Equal(t, tree.SampleVoxel(p), got.SampleVoxel(p))
			}
		}
	}
}

func TestHashDAGMergeIdempotent(t *testing.T) {
	t.Parallel()
	tree := buildRepeatedPatternTree(t)
	d := FromOctreeLeveled(tree)

	merged := Merge(d, d)
	assert.Equal(t, d.Root, merged.Root)
}

func TestNodeHashCacheReusesUnchangedSubtrees(t *testing.T) {
	t.Parallel()
	tree := buildRepeatedPatternTree(t)
	cache := NewNodeHashCache(64)

	first := FromOctreeCached(tree, cache)
	second := FromOctreeCached(tree, cache)

	assert.Equal(t, first.Root, second.Root)
	got := second.ToOctree()
	assert.Equal(t, tree.SampleVoxel([3]float64{0.5, 0.5, 0.5}), got.SampleVoxel([3]float64{0.5, 0.5, 0.5}))
}

func TestHashDAGMergeOverlayWins(t *testing.T) {
	t.Parallel()
	base := FromOctreeLeveled(buildRepeatedPatternTree(t))

	edited := buildRepeatedPatternTree(t)
	// Mutate one voxel in the edited copy so its root hash differs from base.
	edited.Bricks[1][0] = voxel.Voxel{Color: 0x7777, Material: 9}
	overlay := FromOctreeLeveled(edited)

	require.NotEqual(t, base.Root, overlay.Root)
	merged := Merge(base, overlay)
	assert.Equal(t, overlay.Root, merged.Root)

	got := merged.ToOctree()
	want := overlay.ToOctree()
	assert.Equal(t, want.SampleVoxel([3]float64{0.5, 0.5, 0.5}), got.SampleVoxel([3]float64{0.5, 0.5, 0.5}))
}
