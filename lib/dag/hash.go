// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dag implements content-addressable deduplication of octree
// nodes and bricks: SVDAG (a single global dedup pass) and HashDAG (the
// same idea organized per depth level, which also supports merging two
// DAGs by unioning their tables).
//
// Hash collisions are assumed not to happen (FNV-1a, not a
// cryptographic hash); this matches the source material's own
// assumption for an in-memory, non-adversarial structure.
package dag

import (
	"hash/fnv"

	"github.com/voxcraft/core/lib/voxel"
)

// Hash identifies a brick or a DAGNode by content. The zero Hash is
// reserved to mean "absent" (an empty octree, or an unset child slot).
type Hash uint64

// DAGNode is one deduplicated octree node. Unlike octree.Node, child
// references are content hashes rather than array offsets, so two
// parents can share one physical entry in the dedup table.
type DAGNode struct {
	ValidMask   uint8
	LeafMask    uint8
	LODColor    uint16
	LODMaterial uint8
	// OwnBrick is set (non-zero) only for a terminal leaf: a node with
	// no children of its own, owning one brick that covers its full
	// extent. ValidMask/LeafMask/Children are unused in that case.
	OwnBrick Hash
	Children [8]Hash
}

func hashBrick(b voxel.Brick) Hash {
	h := fnv.New64a()
	var buf [4]byte
	for _, v := range b {
		buf[0] = byte(v.Color)
		buf[1] = byte(v.Color >> 8)
		buf[2] = v.Material
		buf[3] = v.Flags
		h.Write(buf[:])
	}
	return Hash(h.Sum64())
}

func hashDAGNode(n DAGNode) Hash {
	h := fnv.New64a()
	var buf [8]byte
	writeByte := func(b byte) { buf[0] = b; h.Write(buf[:1]) }
	writeU16 := func(v uint16) { buf[0], buf[1] = byte(v), byte(v>>8); h.Write(buf[:2]) }
	writeHash := func(v Hash) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:8])
	}

	writeByte(n.ValidMask)
	writeByte(n.LeafMask)
	writeU16(n.LODColor)
	writeByte(n.LODMaterial)
	writeHash(n.OwnBrick)
	for _, c := range n.Children {
		writeHash(c)
	}
	return Hash(h.Sum64())
}
