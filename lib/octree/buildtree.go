// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package octree

import (
	"math"

	"github.com/voxcraft/core/lib/voxel"
)

// BuilderNode is a pointer-based intermediate representation of a node,
// used by callers that construct an Octree top-down (the adaptive
// builder, the brush builder) as well as internally by Prune and
// CompactFromDense. Assemble flattens a BuilderNode tree into the final
// packed Nodes/Bricks arrays, which is the only place that needs to
// reason about contiguous child ranges and the "root is index 0"
// invariant — builders themselves just describe structure.
type BuilderNode struct {
	// OwnBrick, if non-nil, makes this a terminal leaf: no children,
	// single brick covering the node's full extent.
	OwnBrick *voxel.Brick

	Children [8]*BuilderChild

	LODColor    uint16
	LODMaterial uint8
}

// BuilderChild is one of a BuilderNode's 8 octant slots: either a leaf
// brick stored directly (packed addressing skips an intermediate node
// for these), or a further BuilderNode to descend into.
type BuilderChild struct {
	IsLeaf bool
	Brick  voxel.Brick
	Node   *BuilderNode
}

// HasAnyChild reports whether at least one of the 8 octants is present.
func (b *BuilderNode) HasAnyChild() bool {
	for _, c := range b.Children {
		if c != nil {
			return true
		}
	}
	return false
}

func quantizeBounds(center vec3, extent, voxelSize float64) (min, max [3]uint16) {
	if voxelSize <= 0 {
		return min, max
	}
	for i := 0; i < 3; i++ {
		lo := (center[i] - extent) / voxelSize
		hi := (center[i] + extent) / voxelSize
		min[i] = clampU16(lo)
		max[i] = clampU16(hi)
	}
	return min, max
}

func clampU16(v float64) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

// Assemble serializes a BuilderNode tree rooted at the octree's full
// extent into packed Nodes/Bricks arrays: the root always lands at
// index 0, and every node's children (internal nodes and leaf bricks,
// respectively) are appended contiguously in octant order before the
// node's own siblings are processed, which keeps each parent's
// child_offset/brick_offset a simple contiguous range.
//
// A nil root, or a root with neither OwnBrick nor any child, produces
// the canonical empty octree.
func Assemble(root *BuilderNode, rootSize float32, maxDepth uint8) *Octree {
	if root == nil || (root.OwnBrick == nil && !root.HasAnyChild()) {
		return New(rootSize, maxDepth)
	}

	out := &Octree{
		Nodes:    []Node{{}}, // placeholder for root
		Bricks:   []voxel.Brick{{}},
		RootSize: rootSize,
		MaxDepth: maxDepth,
	}
	center, extent := out.rootCenter()
	voxelSize := float64(out.VoxelSize())

	type queued struct {
		b        *BuilderNode
		finalIdx uint32
		center   vec3
		extent   float64
	}
	queue := []queued{{b: root, finalIdx: 0, center: center, extent: extent}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.b.OwnBrick != nil {
			brickIdx := uint32(len(out.Bricks))
			out.Bricks = append(out.Bricks, *cur.b.OwnBrick)
			min, max := quantizeBounds(cur.center, cur.extent, voxelSize)
			out.Nodes[cur.finalIdx] = Node{
				Flags:       packFlags(0, 0, 0, 0),
				BrickOffset: brickIdx,
				BoundsMin:   min,
				BoundsMax:   max,
				LODColor:    cur.b.LODColor,
				LODMaterial: cur.b.LODMaterial,
			}
			continue
		}

		var validMask, leafMask uint8
		for octant := uint8(0); octant < 8; octant++ {
			if cur.b.Children[octant] != nil {
				validMask |= 1 << octant
				if cur.b.Children[octant].IsLeaf {
					leafMask |= 1 << octant
				}
			}
		}

		half := cur.extent / 2
		var childOffset, brickOffset uint32

		if leafMask != 0 {
			brickOffset = uint32(len(out.Bricks))
			for octant := uint8(0); octant < 8; octant++ {
				c := cur.b.Children[octant]
				if c == nil || !c.IsLeaf {
					continue
				}
				out.Bricks = append(out.Bricks, c.Brick)
			}
		}

		internalMask := validMask &^ leafMask
		if internalMask != 0 {
			childOffset = uint32(len(out.Nodes))
			for octant := uint8(0); octant < 8; octant++ {
				if internalMask&(1<<octant) == 0 {
					continue
				}
				childIdx := uint32(len(out.Nodes))
				out.Nodes = append(out.Nodes, Node{})
				childCenter := offsetCenter(cur.center, octant, half)
				queue = append(queue, queued{
					b:        cur.b.Children[octant].Node,
					finalIdx: childIdx,
					center:   childCenter,
					extent:   half,
				})
			}
		}

		min, max := quantizeBounds(cur.center, cur.extent, voxelSize)
		out.Nodes[cur.finalIdx] = Node{
			Flags:       packFlags(validMask, leafMask, 0, 0),
			ChildOffset: childOffset,
			BrickOffset: brickOffset,
			BoundsMin:   min,
			BoundsMax:   max,
			LODColor:    cur.b.LODColor,
			LODMaterial: cur.b.LODMaterial,
		}
	}

	return out
}
