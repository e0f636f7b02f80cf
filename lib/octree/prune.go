// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package octree

import (
	"github.com/voxcraft/core/lib/containers"
	"github.com/voxcraft/core/lib/voxel"
)

// Prune produces a new octree that drops any subtree with no bricks.
// Two passes: markNonEmpty walks bottom-up recording (in a
// containers.Set[uint32]) which node indices have at least one
// non-empty voxel anywhere below them, then rebuildPruned walks the
// surviving nodes into a fresh tree, rewriting masks and offsets.
//
// Two legacy "solid" node forms are recognized and both normalize to a
// terminal leaf: the current form (no children, BrickOffset != 0), and
// an obsolete form where all 8 children are leaves that all reference
// byte-identical bricks — new trees built by this module never emit
// the obsolete form, but data written by older tools may still contain
// it.
func (o *Octree) Prune() *Octree {
	if len(o.Nodes) == 0 || o.IsEmpty() {
		return New(o.RootSize, o.MaxDepth)
	}

	nonEmpty := markNonEmpty(o)
	if !nonEmpty.Has(0) {
		return New(o.RootSize, o.MaxDepth)
	}

	built := rebuildPruned(o, 0, nonEmpty)
	return Assemble(built, o.RootSize, o.MaxDepth)
}

// markNonEmpty returns the set of node indices whose subtree contains
// at least one non-empty voxel, computed bottom-up.
func markNonEmpty(o *Octree) containers.Set[uint32] {
	marked := containers.NewSet[uint32]()
	var walk func(idx uint32) bool
	walk = func(idx uint32) bool {
		node := o.Nodes[idx]
		if node.ChildValidMask() == 0 {
			ok := node.BrickOffset != 0 && !o.Bricks[node.BrickOffset].IsEmpty()
			if ok {
				marked.Insert(idx)
			}
			return ok
		}
		validMask, leafMask := node.ChildValidMask(), node.ChildLeafMask()
		any := false
		for octant := uint8(0); octant < 8; octant++ {
			if validMask&(1<<octant) == 0 {
				continue
			}
			if isLeafOctant(leafMask, octant) {
				r := leafRank(validMask, leafMask, octant)
				if !o.Bricks[node.BrickOffset+uint32(r)].IsEmpty() {
					any = true
				}
				continue
			}
			r := internalRank(validMask, leafMask, octant)
			if walk(node.ChildOffset + uint32(r)) {
				any = true
			}
		}
		if any {
			marked.Insert(idx)
		}
		return any
	}
	walk(0)
	return marked
}

// legacySolidBrick detects the obsolete "all children share one brick"
// form: every octant is a leaf, and every leaf child's brick is
// byte-identical. Returns the shared brick and true if so.
func legacySolidBrick(o *Octree, node Node) (voxel.Brick, bool) {
	validMask, leafMask := node.ChildValidMask(), node.ChildLeafMask()
	if validMask != 0xff || leafMask != 0xff {
		return voxel.Brick{}, false
	}
	first := o.Bricks[node.BrickOffset]
	for r := 1; r < 8; r++ {
		if o.Bricks[node.BrickOffset+uint32(r)] != first {
			return voxel.Brick{}, false
		}
	}
	return first, true
}

func rebuildPruned(o *Octree, idx uint32, nonEmpty containers.Set[uint32]) *BuilderNode {
	node := o.Nodes[idx]

	if node.ChildValidMask() == 0 {
		brick := o.Bricks[node.BrickOffset]
		return &BuilderNode{
			OwnBrick:    &brick,
			LODColor:    node.LODColor,
			LODMaterial: node.LODMaterial,
		}
	}

	if shared, ok := legacySolidBrick(o, node); ok && !shared.IsEmpty() {
		return &BuilderNode{
			OwnBrick:    &shared,
			LODColor:    node.LODColor,
			LODMaterial: node.LODMaterial,
		}
	}

	validMask, leafMask := node.ChildValidMask(), node.ChildLeafMask()
	out := &BuilderNode{LODColor: node.LODColor, LODMaterial: node.LODMaterial}

	for octant := uint8(0); octant < 8; octant++ {
		if validMask&(1<<octant) == 0 {
			continue
		}
		if isLeafOctant(leafMask, octant) {
			r := leafRank(validMask, leafMask, octant)
			brick := o.Bricks[node.BrickOffset+uint32(r)]
			if brick.IsEmpty() {
				continue
			}
			out.Children[octant] = &BuilderChild{IsLeaf: true, Brick: brick}
			continue
		}
		r := internalRank(validMask, leafMask, octant)
		childIdx := node.ChildOffset + uint32(r)
		if !nonEmpty.Has(childIdx) {
			continue
		}
		out.Children[octant] = &BuilderChild{IsLeaf: false, Node: rebuildPruned(o, childIdx, nonEmpty)}
	}

	return out
}
