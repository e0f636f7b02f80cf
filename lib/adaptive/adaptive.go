// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package adaptive implements the top-down adaptive octree builder: it
// turns a RegionClassifier into a sparse octree by recursively deciding,
// for each cell, whether the region is empty, uniformly solid, or needs
// further subdivision.
package adaptive

import (
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

// RegionKind is the classification a RegionClassifier assigns to a cube
// of space.
type RegionKind int

const (
	// Empty means no voxel in this region is non-empty.
	Empty RegionKind = iota
	// Solid means the whole region is one uniform material/color.
	Solid
	// Mixed means the region contains both empty and non-empty voxels,
	// or varies in material/color, and must be subdivided.
	Mixed
	// Unknown means the classifier declines to make a claim and the
	// region must be subdivided (treated identically to Mixed).
	Unknown
)

// AABB is an axis-aligned bounding box in chunk-local space.
type AABB struct {
	Min, Max [3]float64
}

func (a AABB) center() [3]float64 {
	return [3]float64{
		(a.Min[0] + a.Max[0]) / 2,
		(a.Min[1] + a.Max[1]) / 2,
		(a.Min[2] + a.Max[2]) / 2,
	}
}

// Classification is the result of classifying an AABB.
type Classification struct {
	Kind     RegionKind
	Material uint8
	Color    uint16
}

// RegionClassifier answers "what is this 3D region?" and can evaluate
// individual points within it.
type RegionClassifier interface {
	ClassifyRegion(aabb AABB) Classification
	Evaluate(point [3]float64) voxel.Voxel
}

// Build runs the full adaptive algorithm (§4.2): classify_region drives
// subdivision, brick-sized cells are evaluated voxel-by-voxel, and a
// parent's masks are only set once its children are finalized, since a
// pre-classified Mixed region may still resolve to entirely-empty at
// the brick level.
func Build(classifier RegionClassifier, rootSize float32, maxDepth uint8) *octree.Octree {
	voxelSize := float64(rootSize) / float64(uint32(1)<<maxDepth)
	root := buildNode(classifier, AABB{Min: [3]float64{0, 0, 0}, Max: [3]float64{float64(rootSize), float64(rootSize), float64(rootSize)}}, voxelSize)
	return octree.Assemble(root, rootSize, maxDepth)
}

// buildNode returns nil for an empty subtree, otherwise a BuilderNode.
func buildNode(classifier RegionClassifier, aabb AABB, voxelSize float64) *octree.BuilderNode {
	size := aabb.Max[0] - aabb.Min[0]

	if size <= 2*voxelSize+epsilon {
		return buildBrickCell(classifier, aabb, voxelSize)
	}

	cls := classifier.ClassifyRegion(aabb)
	switch cls.Kind {
	case Empty:
		return nil
	case Solid:
		brick := uniformBrick(cls.Color, cls.Material)
		return &octree.BuilderNode{OwnBrick: &brick, LODColor: cls.Color, LODMaterial: cls.Material}
	default: // Mixed, Unknown
		return subdivide(classifier, aabb, voxelSize)
	}
}

const epsilon = 1e-9

// buildBrickCell handles the base case: a 2x2x2-voxel cell. All 8 voxel
// centers are evaluated; an all-empty result prunes the subtree.
func buildBrickCell(classifier RegionClassifier, aabb AABB, voxelSize float64) *octree.BuilderNode {
	center := aabb.center()
	quarter := (aabb.Max[0] - aabb.Min[0]) / 4

	var brick voxel.Brick
	any := false
	var colors []uint16
	var materials []uint8
	for octant := uint8(0); octant < 8; octant++ {
		p := octantPoint(center, quarter, octant)
		v := classifier.Evaluate(p)
		brick.Set(int(octant&1), int((octant>>1)&1), int((octant>>2)&1), v)
		if !v.IsEmpty() {
			any = true
			colors = append(colors, v.Color)
			materials = append(materials, v.Material)
		}
	}
	if !any {
		return nil
	}
	return &octree.BuilderNode{
		OwnBrick:    &brick,
		LODColor:    octree.AverageColor565(colors, nil),
		LODMaterial: octree.ModalMaterial(materials, nil),
	}
}

func octantPoint(center [3]float64, half float64, octant uint8) [3]float64 {
	p := center
	if octant&1 != 0 {
		p[0] += half
	} else {
		p[0] -= half
	}
	if octant&2 != 0 {
		p[1] += half
	} else {
		p[1] -= half
	}
	if octant&4 != 0 {
		p[2] += half
	} else {
		p[2] -= half
	}
	return p
}

func uniformBrick(color uint16, material uint8) voxel.Brick {
	var b voxel.Brick
	v := voxel.Voxel{Color: color, Material: material}
	for i := range b {
		b[i] = v
	}
	return b
}

// subdivide recurses into the 8 child octants, building each, and only
// then deciding the parent's masks from the *actual* outcome of its
// children — a pre-classified Mixed region may still be entirely empty
// once evaluated at brick resolution.
func subdivide(classifier RegionClassifier, aabb AABB, voxelSize float64) *octree.BuilderNode {
	center := aabb.center()
	out := &octree.BuilderNode{}

	var colors []uint16
	var materials []uint8
	var weights []int

	for octant := uint8(0); octant < 8; octant++ {
		childAABB := childAABB(aabb, center, octant)
		child := buildNode(classifier, childAABB, voxelSize)
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

func childAABB(parent AABB, center [3]float64, octant uint8) AABB {
	var min, max [3]float64
	for axis := 0; axis < 3; axis++ {
		bit := uint8(1) << axis
		if octant&bit != 0 {
			min[axis] = center[axis]
			max[axis] = parent.Max[axis]
		} else {
			min[axis] = parent.Min[axis]
			max[axis] = center[axis]
		}
	}
	return AABB{Min: min, Max: max}
}
