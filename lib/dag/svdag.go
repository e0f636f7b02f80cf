// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dag

import (
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

// SVDAG is a globally-deduplicated octree: every distinct brick and
// every distinct node shape (by content hash) is stored exactly once,
// regardless of how many places in the tree reference it.
type SVDAG struct {
	Nodes  map[Hash]DAGNode
	Bricks map[Hash]voxel.Brick
	Root   Hash

	RootSize float32
	MaxDepth uint8
}

// FromOctree deduplicates bricks first (every brick's content hash
// becomes its key), then nodes bottom-up (a node's hash is a function
// of its own fields plus its already-deduplicated children's hashes),
// exactly as described for SVDAG: any two subtrees with identical
// content collapse to the same table entry.
func FromOctree(o *octree.Octree) *SVDAG {
	d := &SVDAG{
		Nodes:    make(map[Hash]DAGNode),
		Bricks:   make(map[Hash]voxel.Brick),
		RootSize: o.RootSize,
		MaxDepth: o.MaxDepth,
	}
	if o.IsEmpty() {
		return d
	}
	d.Root = dedupNode(o, 0, d, nil)
	return d
}

// dedupNode hashes the subtree at idx bottom-up, inserting every node
// and brick it touches into d. When cache is non-nil and idx was
// hashed on a prior call against the same *octree.Octree, and that
// hash's entry is still present in d (same shared table), the whole
// subtree is skipped — this is what makes FromOctreeCached cheap for
// edits that only touch a small part of a large octree.
func dedupNode(o *octree.Octree, idx uint32, d *SVDAG, cache *NodeHashCache) Hash {
	if cache != nil {
		if h, ok := cache.inner.Get(nodeCacheKey{tree: o, idx: idx}); ok {
			if _, known := d.Nodes[h]; known {
				return h
			}
		}
	}

	node := o.Nodes[idx]
	dn := DAGNode{LODColor: node.LODColor, LODMaterial: node.LODMaterial}

	if node.IsTerminalLeaf() {
		brick := o.Bricks[node.BrickOffset]
		bh := hashBrick(brick)
		d.Bricks[bh] = brick
		dn.OwnBrick = bh
		nh := hashDAGNode(dn)
		d.Nodes[nh] = dn
		if cache != nil {
			cache.inner.Add(nodeCacheKey{tree: o, idx: idx}, nh)
		}
		return nh
	}

	dn.ValidMask = node.ChildValidMask()
	dn.LeafMask = node.ChildLeafMask()
	o.VisitChildren(idx, func(octant uint8, kind octree.ChildSlotKind, slotIdx uint32) {
		switch kind {
		case octree.ChildLeafBrick:
			brick := o.Bricks[slotIdx]
			bh := hashBrick(brick)
			d.Bricks[bh] = brick
			dn.Children[octant] = bh
		case octree.ChildInternal:
			dn.Children[octant] = dedupNode(o, slotIdx, d, cache)
		}
	})

	nh := hashDAGNode(dn)
	d.Nodes[nh] = dn
	if cache != nil {
		cache.inner.Add(nodeCacheKey{tree: o, idx: idx}, nh)
	}
	return nh
}

// ToOctree reconstructs a fresh, flat Octree by walking top-down from
// Root, assigning new array indices as it goes (per the source
// material: reconstruction never tries to preserve DAG sharing in the
// expanded array form).
func (d *SVDAG) ToOctree() *octree.Octree {
	if d.Root == 0 {
		return octree.New(d.RootSize, d.MaxDepth)
	}
	root := rebuildNode(d, d.Root)
	return octree.Assemble(root, d.RootSize, d.MaxDepth)
}

func rebuildNode(d *SVDAG, h Hash) *octree.BuilderNode {
	dn := d.Nodes[h]
	if dn.OwnBrick != 0 {
		brick := d.Bricks[dn.OwnBrick]
		return &octree.BuilderNode{OwnBrick: &brick, LODColor: dn.LODColor, LODMaterial: dn.LODMaterial}
	}

	out := &octree.BuilderNode{LODColor: dn.LODColor, LODMaterial: dn.LODMaterial}
	for octant := uint8(0); octant < 8; octant++ {
		bit := uint8(1) << octant
		if dn.ValidMask&bit == 0 {
			continue
		}
		if dn.LeafMask&bit != 0 {
			brick := d.Bricks[dn.Children[octant]]
			out.Children[octant] = &octree.BuilderChild{IsLeaf: true, Brick: brick}
			continue
		}
		out.Children[octant] = &octree.BuilderChild{IsLeaf: false, Node: rebuildNode(d, dn.Children[octant])}
	}
	return out
}

// NodeCount is the number of distinct node shapes stored.
func (d *SVDAG) NodeCount() int { return len(d.Nodes) }

// BrickCount is the number of distinct bricks stored.
func (d *SVDAG) BrickCount() int { return len(d.Bricks) }
