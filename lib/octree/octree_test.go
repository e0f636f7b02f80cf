// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package octree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcraft/core/lib/voxel"
)

func TestNewOctreeIsEmpty(t *testing.T) {
	t.Parallel()
	o := New(4.0, 7)
	assert.True(t, o.IsEmpty())
	assert.Equal(t, 1, o.NodeCount())
	assert.Equal(t, 0, o.BrickCount())
}

// buildSampleTree constructs:
//
//	root (extent 4, center (4,4,4))
//	  octant 0 -> internal Node which is itself a terminal leaf, brick[0] set
//	  octant 7 -> direct leaf brick (packed into root), brick[7] set
func buildSampleTree(t *testing.T) *Octree {
	t.Helper()

	var brickA voxel.Brick
	brickA.Set(0, 0, 0, voxel.Voxel{Color: 10, Material: 2})

	var brickB voxel.Brick
	brickB.Set(1, 1, 1, voxel.Voxel{Color: 20, Material: 3})

	root := &BuilderNode{}
	root.Children[0] = &BuilderChild{IsLeaf: false, Node: &BuilderNode{OwnBrick: &brickA}}
	root.Children[7] = &BuilderChild{IsLeaf: true, Brick: brickB}

	return Assemble(root, 8, 2)
}

func TestSampleVoxel(t *testing.T) {
	t.Parallel()
	o := buildSampleTree(t)

	got := o.SampleVoxel([3]float64{1, 1, 1})
	assert.Equal(t, voxel.Voxel{Color: 10, Material: 2}, got)

	got = o.SampleVoxel([3]float64{7, 7, 7})
	assert.Equal(t, voxel.Voxel{Color: 20, Material: 3}, got)

	// Octant 1 (x>=center, y<center, z<center) has no child at all.
	got = o.SampleVoxel([3]float64{7, 1, 1})
	assert.Equal(t, voxel.Empty, got)
}

func TestIterateVoxels(t *testing.T) {
	t.Parallel()
	o := buildSampleTree(t)

	var got []VoxelSample
	o.IterateVoxels(func(s VoxelSample) {
		got = append(got, s)
	})

	require.Len(t, got, 2)
	colors := map[uint16]bool{}
	for _, s := range got {
		colors[s.Voxel.Color] = true
	}
	assert.True(t, colors[10])
	assert.True(t, colors[20])
}

// buildTreeWithEmptyBranch manually constructs a raw node/brick array
// containing a leftover empty internal node at index 2, the shape
// Prune is responsible for eliminating.
func buildTreeWithEmptyBranch() *Octree {
	o := &Octree{
		RootSize: 8,
		MaxDepth: 2,
		Nodes: []Node{
			{Flags: packFlags(0b0000_0011, 0b0000_0000, 0, 0), ChildOffset: 1},
			{Flags: packFlags(0, 0, 0, 0), BrickOffset: 1}, // terminal leaf
			{Flags: packFlags(0, 0, 0, 0), BrickOffset: 0}, // empty leftover node
		},
		Bricks: []voxel.Brick{{}, {}},
	}
	o.Bricks[1].Set(0, 0, 0, voxel.Voxel{Color: 5, Material: 1})
	return o
}

func TestPruneDropsEmptySubtree(t *testing.T) {
	t.Parallel()
	o := buildTreeWithEmptyBranch()

	before := o.SampleVoxel([3]float64{1, 1, 1})
	pruned := o.Prune()
	after := pruned.SampleVoxel([3]float64{1, 1, 1})
	assert.Equal(t, before, after)
	assert.Equal(t, voxel.Voxel{Color: 5, Material: 1}, after)

	// octant 1's region was empty before and after.
	assert.Equal(t, voxel.Empty, pruned.SampleVoxel([3]float64{7, 1, 1}))

	assert.Less(t, pruned.NodeCount(), o.NodeCount())
}

func TestPruneIsIdempotent(t *testing.T) {
	t.Parallel()
	o := buildTreeWithEmptyBranch()

	once := o.Prune()
	twice := once.Prune()

	assert.Equal(t, once.Nodes, twice.Nodes)
	assert.Equal(t, once.Bricks, twice.Bricks)
}

func TestPruneOfEmptyOctreeIsEmpty(t *testing.T) {
	t.Parallel()
	o := New(4.0, 7)
	pruned := o.Prune()
	assert.True(t, pruned.IsEmpty())
}

func TestCompactFromDenseIsIdempotent(t *testing.T) {
	t.Parallel()
	o := buildSampleTree(t)
	o.Dense = true

	once := o.CompactFromDense()
	twice := once.CompactFromDense()

	assert.Equal(t, once.Nodes, twice.Nodes)
	assert.Equal(t, once.Bricks, twice.Bricks)
	assert.False(t, once.Dense)
}

func TestCompactPreservesSampling(t *testing.T) {
	t.Parallel()
	o := buildSampleTree(t)
	compacted := o.CompactFromDense()

	assert.Equal(t, o.SampleVoxel([3]float64{1, 1, 1}), compacted.SampleVoxel([3]float64{1, 1, 1}))
	assert.Equal(t, o.SampleVoxel([3]float64{7, 7, 7}), compacted.SampleVoxel([3]float64{7, 7, 7}))
}

func TestAverageColor565(t *testing.T) {
	t.Parallel()
	white := pack565(255, 255, 255)
	black := pack565(0, 0, 0)
	avg := AverageColor565([]uint16{white, black}, nil)
	r, g, b := unpack565(avg)
	// Rounding in 5/6-bit channels means this won't be exactly
	// mid-gray, but it should be close.
	assert.InDelta(t, 127, int(r), 10)
	assert.InDelta(t, 127, int(g), 10)
	assert.InDelta(t, 127, int(b), 10)
}

func TestModalMaterial(t *testing.T) {
	t.Parallel()
	got := ModalMaterial([]uint8{1, 2, 2, 3}, nil)
	assert.Equal(t, uint8(2), got)
}
