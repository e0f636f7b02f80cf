// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package octree

import (
	"github.com/voxcraft/core/lib/voxel"
)

// Octree is the node array + brick array container described in §3/§4.1:
// node index 0 is always the root; brick index 0 is reserved padding so
// that BrickOffset==0 unambiguously means "no brick".
type Octree struct {
	Nodes  []Node
	Bricks []voxel.Brick

	// RootSize is the root's world-space extent in meters.
	RootSize float32
	// MaxDepth bounds traversal; voxel size at max depth is
	// RootSize / (1 << MaxDepth).
	MaxDepth uint8
	// Dense marks an octree built by a dense builder (brush.BuildDense).
	// Its arrays use the same popcount-of-preceding-bits child
	// addressing as the packed form, and SampleVoxel does not read this
	// flag; there is no octant-indexed layout. CompactFromDense rebuilds
	// a Dense octree without its empty children and clears the flag.
	Dense bool
}

// New creates an empty octree: a single root node with no children and
// no brick.
func New(rootSize float32, maxDepth uint8) *Octree {
	return &Octree{
		Nodes:    []Node{{}},
		Bricks:   []voxel.Brick{{}},
		RootSize: rootSize,
		MaxDepth: maxDepth,
	}
}

// VoxelSize returns the edge length of a voxel at MaxDepth.
func (o *Octree) VoxelSize() float32 {
	return o.RootSize / float32(uint32(1)<<o.MaxDepth)
}

// IsEmpty reports whether the octree is exactly the empty root: a single
// node with no children and no brick.
func (o *Octree) IsEmpty() bool {
	if len(o.Nodes) != 1 {
		return false
	}
	return o.Nodes[0].IsEmptyNode()
}

type vec3 = [3]float64

func offsetCenter(center vec3, octant uint8, half float64) vec3 {
	ret := center
	if octant&1 != 0 {
		ret[0] += half
	} else {
		ret[0] -= half
	}
	if octant&2 != 0 {
		ret[1] += half
	} else {
		ret[1] -= half
	}
	if octant&4 != 0 {
		ret[2] += half
	} else {
		ret[2] -= half
	}
	return ret
}

func (o *Octree) rootCenter() (vec3, float64) {
	half := float64(o.RootSize) / 2
	return vec3{half, half, half}, half
}

// SampleVoxel descends from the root by octant bit-packing and returns
// the voxel at localPos, or voxel.Empty if localPos falls in an empty
// or out-of-range subtree.
func (o *Octree) SampleVoxel(localPos [3]float64) voxel.Voxel {
	center, extent := o.rootCenter()
	nodeIdx := uint32(0)

	for {
		node := o.Nodes[nodeIdx]
		octant := octantBit(localPos[0] < center[0], localPos[1] < center[1], localPos[2] < center[2])

		if node.ChildValidMask() == 0 {
			if node.BrickOffset == 0 {
				return voxel.Empty
			}
			return o.Bricks[node.BrickOffset][octant]
		}

		if _, ok := childRank(node.ChildValidMask(), octant); !ok {
			return voxel.Empty
		}

		half := extent / 2
		childCenter := offsetCenter(center, octant, half)

		if isLeafOctant(node.ChildLeafMask(), octant) {
			r := leafRank(node.ChildValidMask(), node.ChildLeafMask(), octant)
			brickIdx := node.BrickOffset + uint32(r)
			subOctant := octantBit(localPos[0] < childCenter[0], localPos[1] < childCenter[1], localPos[2] < childCenter[2])
			return o.Bricks[brickIdx][subOctant]
		}

		r := internalRank(node.ChildValidMask(), node.ChildLeafMask(), octant)
		nodeIdx = node.ChildOffset + uint32(r)
		center = childCenter
		extent = half
	}
}

// VoxelSample pairs a world-local center point with the voxel sampled
// there, emitted by IterateVoxels.
type VoxelSample struct {
	Center [3]float64
	Voxel  voxel.Voxel
}

// IterateVoxels performs a full traversal, calling cb for every
// non-empty voxel with its world-local center and value.
func (o *Octree) IterateVoxels(cb func(VoxelSample)) {
	if len(o.Nodes) == 0 {
		return
	}
	center, extent := o.rootCenter()
	o.walkVoxels(0, center, extent, cb)
}

func (o *Octree) walkVoxels(nodeIdx uint32, center vec3, extent float64, cb func(VoxelSample)) {
	node := o.Nodes[nodeIdx]

	if node.ChildValidMask() == 0 {
		if node.BrickOffset == 0 {
			return
		}
		brick := o.Bricks[node.BrickOffset]
		half := extent / 2
		for octant := uint8(0); octant < 8; octant++ {
			v := brick[octant]
			if v.IsEmpty() {
				continue
			}
			cb(VoxelSample{Center: offsetCenter(center, octant, half), Voxel: v})
		}
		return
	}

	validMask, leafMask := node.ChildValidMask(), node.ChildLeafMask()
	half := extent / 2
	for octant := uint8(0); octant < 8; octant++ {
		if validMask&(1<<octant) == 0 {
			continue
		}
		childCenter := offsetCenter(center, octant, half)
		if isLeafOctant(leafMask, octant) {
			r := leafRank(validMask, leafMask, octant)
			brick := o.Bricks[node.BrickOffset+uint32(r)]
			subHalf := half / 2
			for sub := uint8(0); sub < 8; sub++ {
				v := brick[sub]
				if v.IsEmpty() {
					continue
				}
				cb(VoxelSample{Center: offsetCenter(childCenter, sub, subHalf), Voxel: v})
			}
			continue
		}
		r := internalRank(validMask, leafMask, octant)
		o.walkVoxels(node.ChildOffset+uint32(r), childCenter, half, cb)
	}
}

// ChildSlotKind describes what a present child slot of a node holds.
type ChildSlotKind int

const (
	// ChildInternal means the slot is another Node, at the given index
	// into Nodes.
	ChildInternal ChildSlotKind = iota
	// ChildLeafBrick means the slot is a Brick, at the given index into
	// Bricks.
	ChildLeafBrick
)

// VisitChildren calls cb once per present child octant of the node at
// idx, in octant order, resolving the packed rank addressing so
// callers outside this package (dedup, streaming, inspection tools)
// never need to reimplement it.
func (o *Octree) VisitChildren(idx uint32, cb func(octant uint8, kind ChildSlotKind, slotIdx uint32)) {
	node := o.Nodes[idx]
	validMask, leafMask := node.ChildValidMask(), node.ChildLeafMask()
	for octant := uint8(0); octant < 8; octant++ {
		if validMask&(1<<octant) == 0 {
			continue
		}
		if isLeafOctant(leafMask, octant) {
			r := leafRank(validMask, leafMask, octant)
			cb(octant, ChildLeafBrick, node.BrickOffset+uint32(r))
		} else {
			r := internalRank(validMask, leafMask, octant)
			cb(octant, ChildInternal, node.ChildOffset+uint32(r))
		}
	}
}

// NodeCount returns len(Nodes).
func (o *Octree) NodeCount() int { return len(o.Nodes) }

// BrickCount returns len(Bricks) - 1, excluding the reserved padding
// slot at index 0.
func (o *Octree) BrickCount() int {
	if len(o.Bricks) == 0 {
		return 0
	}
	return len(o.Bricks) - 1
}
