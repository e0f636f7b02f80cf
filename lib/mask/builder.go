// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package mask

import "github.com/voxcraft/core/lib/adaptive"

// MaskGenerator supplies the values a MaskOctree[T] is built from.
// ClassifyRegion lets the builder skip subdividing a region that is
// uniform throughout; Evaluate samples the exact value at a point,
// used for leaves and for a Mixed node's own LOD placeholder.
type MaskGenerator[T any] interface {
	// ClassifyRegion reports (value, true) if aabb is uniformly value
	// throughout, or (_, false) if it is Mixed and needs subdividing.
	ClassifyRegion(aabb adaptive.AABB) (value T, uniform bool)
	// Evaluate samples the value at a single point.
	Evaluate(point [3]float64) T
}

// builderNode is the pointer-tree intermediate form, mirroring
// octree.BuilderNode: it exists so Build can recurse without committing
// to array indices until the shape is fully known, then Assemble
// flattens it with a single BFS pass.
type builderNode[T any] struct {
	Value    T
	Children [8]*builderNode[T]
}

// Build runs gen over a cube of side rootSize, subdividing down to
// maxDepth wherever gen reports Mixed, and returns the resulting
// MaskOctree.
func Build[T any](gen MaskGenerator[T], rootSize float32, maxDepth uint8) *MaskOctree[T] {
	root := buildNode(gen, rootAABBFor(rootSize), 0, maxDepth)
	return assemble(root, rootSize, maxDepth)
}

func rootAABBFor(rootSize float32) adaptive.AABB {
	return adaptive.AABB{Max: [3]float64{float64(rootSize), float64(rootSize), float64(rootSize)}}
}

func buildNode[T any](gen MaskGenerator[T], aabb adaptive.AABB, depth, maxDepth uint8) *builderNode[T] {
	center := centerOf(aabb)

	if depth == maxDepth {
		return &builderNode[T]{Value: gen.Evaluate(center)}
	}

	if v, uniform := gen.ClassifyRegion(aabb); uniform {
		return &builderNode[T]{Value: v}
	}

	out := &builderNode[T]{Value: gen.Evaluate(center)}
	for octant := uint8(0); octant < 8; octant++ {
		out.Children[octant] = buildNode(gen, childCellAABB(aabb, octant), depth+1, maxDepth)
	}
	return out
}

// assemble flattens a builderNode tree into a packed MaskOctree via
// breadth-first array assignment, same shape as octree.Assemble.
func assemble[T any](root *builderNode[T], rootSize float32, maxDepth uint8) *MaskOctree[T] {
	out := &MaskOctree[T]{Nodes: []MaskNode[T]{{}}, RootSize: rootSize, MaxDepth: maxDepth}

	type queued struct {
		b   *builderNode[T]
		idx uint32
	}
	queue := []queued{{root, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		var validMask uint8
		for octant := uint8(0); octant < 8; octant++ {
			if cur.b.Children[octant] != nil {
				validMask |= 1 << octant
			}
		}

		var childOffset uint32
		if validMask != 0 {
			childOffset = uint32(len(out.Nodes))
			for octant := uint8(0); octant < 8; octant++ {
				if validMask&(1<<octant) == 0 {
					continue
				}
				childIdx := uint32(len(out.Nodes))
				out.Nodes = append(out.Nodes, MaskNode[T]{})
				queue = append(queue, queued{cur.b.Children[octant], childIdx})
			}
		}

		out.Nodes[cur.idx] = MaskNode[T]{ValidMask: validMask, ChildOffset: childOffset, Value: cur.b.Value}
	}

	return out
}
