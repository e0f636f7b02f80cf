// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package octree implements the sparse voxel octree: a 32-byte node array
// plus a brick array, point sampling, pruning, and dense/packed
// compaction.
package octree

import (
	"math/bits"
	"unsafe"

	"github.com/voxcraft/core/lib/binstruct"
)

// Node is exactly 32 bytes (checked in init). Its alignment is that of
// its uint32 fields; nothing aligns a Node or the Nodes array to 32
// bytes.
//
// Flags' low 8 bits are the child-valid mask (which of 8 octants exist);
// the next 8 bits are the child-leaf mask (which existing children store
// a brick rather than descend to another node); the remaining 16 bits
// hold the LOD level in the low byte, with the top byte reserved for
// user flags.
type Node struct {
	Flags         uint32         `bin:"off=0x00, siz=0x04"`
	ChildOffset   uint32         `bin:"off=0x04, siz=0x04"`
	BrickOffset   uint32         `bin:"off=0x08, siz=0x04"`
	BoundsMin     [3]uint16      `bin:"off=0x0c, siz=0x06"`
	BoundsMax     [3]uint16      `bin:"off=0x12, siz=0x06"`
	LODColor      uint16         `bin:"off=0x18, siz=0x02"`
	LODMaterial   uint8          `bin:"off=0x1a, siz=0x01"`
	Reserved      [5]uint8       `bin:"off=0x1b, siz=0x05"`
	binstruct.End `bin:"off=0x20"`
}

func init() {
	if unsafe.Sizeof(Node{}) != 32 {
		panic("octree.Node must be exactly 32 bytes")
	}
}

// ChildValidMask returns the low 8 bits of Flags: which of the 8 octants
// have a child (node or brick).
func (n Node) ChildValidMask() uint8 {
	return uint8(n.Flags)
}

// ChildLeafMask returns bits 8-15 of Flags: which valid children are
// terminal (own a brick) rather than descending to another Node.
func (n Node) ChildLeafMask() uint8 {
	return uint8(n.Flags >> 8)
}

// LODLevel returns bits 16-23 of Flags.
func (n Node) LODLevel() uint8 {
	return uint8(n.Flags >> 16)
}

// UserFlags returns bits 24-31 of Flags, reserved for caller use.
func (n Node) UserFlags() uint8 {
	return uint8(n.Flags >> 24)
}

func packFlags(validMask, leafMask, lodLevel, userFlags uint8) uint32 {
	return uint32(validMask) | uint32(leafMask)<<8 | uint32(lodLevel)<<16 | uint32(userFlags)<<24
}

// SetMasks rewrites the child-valid and child-leaf masks, leaving LODLevel
// and UserFlags untouched.
func (n *Node) SetMasks(validMask, leafMask uint8) {
	n.Flags = packFlags(validMask, leafMask, n.LODLevel(), n.UserFlags())
}

// SetLODLevel rewrites the LOD level, leaving the masks and UserFlags
// untouched.
func (n *Node) SetLODLevel(level uint8) {
	n.Flags = packFlags(n.ChildValidMask(), n.ChildLeafMask(), level, n.UserFlags())
}

// IsTerminalLeaf reports whether n has no children but owns a single
// brick covering its full extent.
func (n Node) IsTerminalLeaf() bool {
	return n.ChildValidMask() == 0 && n.BrickOffset != 0
}

// IsEmptyNode reports whether n has no children and no brick.
func (n Node) IsEmptyNode() bool {
	return n.ChildValidMask() == 0 && n.BrickOffset == 0
}

// octantBit returns the octant index 0..8 for a point whose three
// comparison bits against the node center are given.
func octantBit(ltX, ltY, ltZ bool) uint8 {
	var o uint8
	if !ltX {
		o |= 1
	}
	if !ltY {
		o |= 2
	}
	if !ltZ {
		o |= 4
	}
	return o
}

// packedChildIndex returns the rank (count of preceding set bits) of
// octant within mask, i.e. its position in the packed array of children
// sharing that mask.
func packedChildIndex(mask uint8, octant uint8) int {
	preceding := mask & ((1 << octant) - 1)
	return bits.OnesCount8(preceding)
}

// childRank reports whether octant is present in the valid mask, and if
// so its rank among valid children.
func childRank(validMask uint8, octant uint8) (rank int, ok bool) {
	if validMask&(1<<octant) == 0 {
		return 0, false
	}
	return packedChildIndex(validMask, octant), true
}

// isLeafOctant reports whether octant (already known valid) is a leaf
// per leafMask.
func isLeafOctant(leafMask uint8, octant uint8) bool {
	return leafMask&(1<<octant) != 0
}

// leafRank returns the rank of octant among the leaf-valid children
// (used for packed brick-array addressing).
func leafRank(validMask, leafMask uint8, octant uint8) int {
	leafValid := validMask & leafMask
	return packedChildIndex(leafValid, octant)
}

// internalRank returns the rank of octant among the internal (non-leaf,
// valid) children (used for packed node-array addressing).
func internalRank(validMask, leafMask uint8, octant uint8) int {
	internalValid := validMask &^ leafMask
	return packedChildIndex(internalValid, octant)
}
