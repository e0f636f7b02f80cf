// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package adaptive

import (
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

// EvalFunc is a pure point evaluator, e.g. a heightfield or a brush SDF
// composed outside this package.
type EvalFunc func(point [3]float64) voxel.Voxel

// BuildSimple builds an octree from a pure EvalFunc plus a cheap
// corner-sampling heuristic: regions at most 4 voxels on a side are
// treated as empty if all 8 corners and the center sample empty.
// Above that threshold recursion always proceeds, because corner
// sampling is unreliable for thin shells (e.g. a heightfield surface
// that passes between the sampled corners).
//
// TODO: corner sampling above the 4-voxel threshold is conservative but
// wasteful; a bounded-interval analysis of EvalFunc (e.g. interval
// arithmetic over an SDF) could prune larger empty regions without
// missing thin shells. Not implemented here — see spec's open question
// on this builder.
func BuildSimple(eval EvalFunc, rootSize float32, maxDepth uint8) *octree.Octree {
	voxelSize := float64(rootSize) / float64(uint32(1)<<maxDepth)
	root := buildSimpleNode(eval, AABB{Min: [3]float64{0, 0, 0}, Max: [3]float64{float64(rootSize), float64(rootSize), float64(rootSize)}}, voxelSize)
	return octree.Assemble(root, rootSize, maxDepth)
}

const simpleCornerSampleVoxels = 4

func buildSimpleNode(eval EvalFunc, aabb AABB, voxelSize float64) *octree.BuilderNode {
	size := aabb.Max[0] - aabb.Min[0]

	if size <= 2*voxelSize+epsilon {
		return buildBrickCell(simpleClassifier{eval}, aabb, voxelSize)
	}

	if size <= simpleCornerSampleVoxels*voxelSize+epsilon && allCornersEmpty(eval, aabb) {
		return nil
	}

	return subdivideSimple(eval, aabb, voxelSize)
}

// subdivideSimple mirrors subdivide, but recurses through
// buildSimpleNode so every descendant still gets the corner-sampling
// early-out rather than falling back to the classifier-driven path.
func subdivideSimple(eval EvalFunc, aabb AABB, voxelSize float64) *octree.BuilderNode {
	center := aabb.center()
	out := &octree.BuilderNode{}

	var colors []uint16
	var materials []uint8
	var weights []int

	for octant := uint8(0); octant < 8; octant++ {
		child := buildSimpleNode(eval, childAABB(aabb, center, octant), voxelSize)
		if child == nil {
			continue
		}
		if child.OwnBrick != nil {
			out.Children[octant] = &octree.BuilderChild{IsLeaf: true, Brick: *child.OwnBrick}
		} else {
			out.Children[octant] = &octree.BuilderChild{IsLeaf: false, Node: child}
		}
		colors = append(colors, child.LODColor)
		materials = append(materials, child.LODMaterial)
		weights = append(weights, 1)
	}

	if !out.HasAnyChild() {
		return nil
	}
	out.LODColor = octree.AverageColor565(colors, weights)
	out.LODMaterial = octree.ModalMaterial(materials, weights)
	return out
}

func allCornersEmpty(eval EvalFunc, aabb AABB) bool {
	center := aabb.center()
	if !eval(center).IsEmpty() {
		return false
	}
	for octant := uint8(0); octant < 8; octant++ {
		corner := [3]float64{aabb.Min[0], aabb.Min[1], aabb.Min[2]}
		if octant&1 != 0 {
			corner[0] = aabb.Max[0]
		}
		if octant&2 != 0 {
			corner[1] = aabb.Max[1]
		}
		if octant&4 != 0 {
			corner[2] = aabb.Max[2]
		}
		if !eval(corner).IsEmpty() {
			return false
		}
	}
	return true
}

// simpleClassifier adapts an EvalFunc to RegionClassifier so buildNode's
// subdivide/buildBrickCell helpers can be shared between Build and
// BuildSimple. ClassifyRegion always answers Mixed (or Unknown would do
// equally, since both recurse) because the simple path's only
// early-termination is the corner heuristic in buildSimpleNode, not a
// real region classification.
type simpleClassifier struct {
	eval EvalFunc
}

func (s simpleClassifier) ClassifyRegion(AABB) Classification {
	return Classification{Kind: Mixed}
}

func (s simpleClassifier) Evaluate(point [3]float64) voxel.Voxel {
	return s.eval(point)
}
