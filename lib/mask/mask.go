// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package mask implements the generic mask octree (§4.5): structurally
// the same packed, popcount-addressed tree as lib/octree, but storing
// one arbitrary typed value per node instead of a brick of 8 voxels.
// Used for biome ids, grass profile/density cells, rock/tree placement
// probabilities, and decoration cells.
package mask

import (
	"math/bits"

	"github.com/voxcraft/core/lib/adaptive"
)

// MaskNode is one node of a MaskOctree: a present-child bitmask plus
// the value to report when sampling doesn't descend any further
// (either because this node has no matching child, or because it has
// none at all).
type MaskNode[T any] struct {
	ValidMask   uint8
	ChildOffset uint32
	Value       T
}

// MaskOctree is a generic analog of octree.Octree: node index 0 is
// always the root, and a node's present children occupy the contiguous
// range [ChildOffset, ChildOffset+popcount(ValidMask)) in octant rank
// order, same addressing scheme as C2.
type MaskOctree[T any] struct {
	Nodes    []MaskNode[T]
	RootSize float32
	MaxDepth uint8
}

// New creates a mask octree that is uniformly the zero value of T.
func New[T any](rootSize float32, maxDepth uint8) *MaskOctree[T] {
	return &MaskOctree[T]{Nodes: []MaskNode[T]{{}}, RootSize: rootSize, MaxDepth: maxDepth}
}

func (m *MaskOctree[T]) rootAABB() adaptive.AABB {
	return adaptive.AABB{Max: [3]float64{float64(m.RootSize), float64(m.RootSize), float64(m.RootSize)}}
}

// Sample descends into the octant containing p; if a child is absent
// at any level, or a leaf is reached, the current node's Value is
// returned.
func (m *MaskOctree[T]) Sample(p [3]float64) T {
	aabb := m.rootAABB()
	idx := uint32(0)
	for {
		node := m.Nodes[idx]
		if node.ValidMask == 0 {
			return node.Value
		}
		octant, child := octantOf(aabb, p)
		bit := uint8(1) << octant
		if node.ValidMask&bit == 0 {
			return node.Value
		}
		rank := bits.OnesCount8(node.ValidMask & (bit - 1))
		idx = node.ChildOffset + uint32(rank)
		aabb = child
	}
}

// ClassifyRegion returns (value, true) only if region falls entirely
// within a single uniform octant somewhere in the tree; otherwise
// (zero, false), meaning the region spans more than one distinctly
// classified cell.
func (m *MaskOctree[T]) ClassifyRegion(region adaptive.AABB) (T, bool) {
	aabb := m.rootAABB()
	idx := uint32(0)
	for {
		node := m.Nodes[idx]
		if node.ValidMask == 0 {
			return node.Value, true
		}
		octant, ok := singleChildContaining(aabb, region)
		if !ok {
			var zero T
			return zero, false
		}
		bit := uint8(1) << octant
		if node.ValidMask&bit == 0 {
			return node.Value, true
		}
		rank := bits.OnesCount8(node.ValidMask & (bit - 1))
		idx = node.ChildOffset + uint32(rank)
		aabb = childCellAABB(aabb, octant)
	}
}

func centerOf(a adaptive.AABB) [3]float64 {
	return [3]float64{
		(a.Min[0] + a.Max[0]) / 2,
		(a.Min[1] + a.Max[1]) / 2,
		(a.Min[2] + a.Max[2]) / 2,
	}
}

func octantOf(aabb adaptive.AABB, p [3]float64) (uint8, adaptive.AABB) {
	center := centerOf(aabb)
	var octant uint8
	min, max := aabb.Min, aabb.Max
	for axis := 0; axis < 3; axis++ {
		if p[axis] >= center[axis] {
			octant |= 1 << axis
			min[axis] = center[axis]
		} else {
			max[axis] = center[axis]
		}
	}
	return octant, adaptive.AABB{Min: min, Max: max}
}

func childCellAABB(aabb adaptive.AABB, octant uint8) adaptive.AABB {
	center := centerOf(aabb)
	var min, max [3]float64
	for axis := 0; axis < 3; axis++ {
		bit := uint8(1) << axis
		if octant&bit != 0 {
			min[axis] = center[axis]
			max[axis] = aabb.Max[axis]
		} else {
			min[axis] = aabb.Min[axis]
			max[axis] = center[axis]
		}
	}
	return adaptive.AABB{Min: min, Max: max}
}

// singleChildContaining reports which octant of aabb fully contains
// region, or ok=false if region straddles the split on any axis.
func singleChildContaining(aabb, region adaptive.AABB) (octant uint8, ok bool) {
	center := centerOf(aabb)
	for axis := 0; axis < 3; axis++ {
		switch {
		case region.Min[axis] >= center[axis]:
			octant |= 1 << axis
		case region.Max[axis] <= center[axis]:
			// stays on the low side, bit 0
		default:
			return 0, false
		}
	}
	return octant, true
}
