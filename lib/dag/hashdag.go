// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package dag

import (
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

// HashDAG is SVDAG's more aggressive sibling: node tables are organized
// per depth level (Levels[0] holds the root's level, and so on), which
// is what makes Merge well-defined — two DAGs built to the same depth
// can union their per-level tables directly, and any two identical
// subtrees anywhere in either tree share one entry.
type HashDAG struct {
	Levels   []map[Hash]DAGNode
	Bricks   map[Hash]voxel.Brick
	Root     Hash
	RootSize float32
	MaxDepth uint8
}

// FromOctreeLeveled builds a HashDAG from a flat Octree.
func FromOctreeLeveled(o *octree.Octree) *HashDAG {
	d := &HashDAG{
		Bricks:   make(map[Hash]voxel.Brick),
		RootSize: o.RootSize,
		MaxDepth: o.MaxDepth,
	}
	if o.IsEmpty() {
		return d
	}
	d.Root = dedupLeveled(o, 0, 0, d)
	return d
}

func (d *HashDAG) levelAt(depth uint8) map[Hash]DAGNode {
	for len(d.Levels) <= int(depth) {
		d.Levels = append(d.Levels, make(map[Hash]DAGNode))
	}
	return d.Levels[depth]
}

func dedupLeveled(o *octree.Octree, idx uint32, depth uint8, d *HashDAG) Hash {
	node := o.Nodes[idx]
	dn := DAGNode{LODColor: node.LODColor, LODMaterial: node.LODMaterial}

	if node.IsTerminalLeaf() {
		brick := o.Bricks[node.BrickOffset]
		bh := hashBrick(brick)
		d.Bricks[bh] = brick
		dn.OwnBrick = bh
		nh := hashDAGNode(dn)
		d.levelAt(depth)[nh] = dn
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
			dn.Children[octant] = dedupLeveled(o, slotIdx, depth+1, d)
		}
	})

	nh := hashDAGNode(dn)
	d.levelAt(depth)[nh] = dn
	return nh
}

// ToOctree reconstructs a fresh flat Octree, top-down from Root.
func (d *HashDAG) ToOctree() *octree.Octree {
	if d.Root == 0 || len(d.Levels) == 0 {
		return octree.New(d.RootSize, d.MaxDepth)
	}
	root := rebuildLeveled(d, d.Root, 0)
	return octree.Assemble(root, d.RootSize, d.MaxDepth)
}

func rebuildLeveled(d *HashDAG, h Hash, depth uint8) *octree.BuilderNode {
	dn := d.Levels[depth][h]
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
		out.Children[octant] = &octree.BuilderChild{IsLeaf: false, Node: rebuildLeveled(d, dn.Children[octant], depth+1)}
	}
	return out
}

// Merge unions base and overlay's per-level node tables and brick
// table, keeping overlay's root hash — so wherever the two trees
// differ, overlay's content is what a sample of the merged DAG sees.
// This is how an edit overlay (C12) composes on top of generated
// terrain without copying the base world.
func Merge(base, overlay *HashDAG) *HashDAG {
	out := &HashDAG{
		Bricks:   make(map[Hash]voxel.Brick, len(base.Bricks)+len(overlay.Bricks)),
		RootSize: base.RootSize,
		MaxDepth: base.MaxDepth,
	}

	levels := len(base.Levels)
	if len(overlay.Levels) > levels {
		levels = len(overlay.Levels)
	}
	out.Levels = make([]map[Hash]DAGNode, levels)
	for i := range out.Levels {
		out.Levels[i] = make(map[Hash]DAGNode)
		if i < len(base.Levels) {
			for h, n := range base.Levels[i] {
				out.Levels[i][h] = n
			}
		}
		if i < len(overlay.Levels) {
			for h, n := range overlay.Levels[i] {
				out.Levels[i][h] = n
			}
		}
	}

	for h, b := range base.Bricks {
		out.Bricks[h] = b
	}
	for h, b := range overlay.Bricks {
		out.Bricks[h] = b
	}

	// The overlay's root always wins, even if it is the empty-world
	// hash: an overlay that intentionally clears everything must be
	// able to show through, not silently fall back to base.
	out.Root = overlay.Root
	return out
}

// NodeCount sums the per-level distinct node-shape counts.
func (d *HashDAG) NodeCount() int {
	n := 0
	for _, level := range d.Levels {
		n += len(level)
	}
	return n
}

// BrickCount is the number of distinct bricks stored.
func (d *HashDAG) BrickCount() int { return len(d.Bricks) }
