// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package brush

import (
	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

// Build paints a fresh octree from a list of strokes applied in order,
// producing the packed (non-dense) representation directly.
func Build(strokes []BrushStroke, rootSize float32, maxDepth uint8) *octree.Octree {
	root := buildRoot(strokes, rootSize, maxDepth, false)
	return octree.Assemble(root, rootSize, maxDepth)
}

// BuildDense is the same algorithm but every subdivision preallocates
// all 8 child slots, including ones that turn out empty, mirroring the
// "dense layout, compact later" construction strategy (§4.3). Callers
// that want the space savings call Octree.CompactFromDense on the
// result; the dense form is otherwise usable as-is.
func BuildDense(strokes []BrushStroke, rootSize float32, maxDepth uint8) *octree.Octree {
	root := buildRoot(strokes, rootSize, maxDepth, true)
	tree := octree.Assemble(root, rootSize, maxDepth)
	tree.Dense = true
	return tree
}

func buildRoot(strokes []BrushStroke, rootSize float32, maxDepth uint8, dense bool) *octree.BuilderNode {
	rootAABB := adaptive.AABB{Min: [3]float64{0, 0, 0}, Max: [3]float64{float64(rootSize), float64(rootSize), float64(rootSize)}}
	filtered := filterIntersecting(strokes, rootAABB)
	if len(filtered) == 0 {
		return nil
	}
	return buildBrushNode(filtered, rootAABB, 0, maxDepth, dense)
}

func filterIntersecting(strokes []BrushStroke, aabb adaptive.AABB) []BrushStroke {
	var out []BrushStroke
	for _, s := range strokes {
		if s.Intersects(aabb) {
			out = append(out, s)
		}
	}
	return out
}

// buildBrushNode implements one recursion step of the brush octree
// builder. strokes is already filtered to those intersecting aabb.
// When dense is true, subdivision always yields all 8 children (empty
// ones as explicit placeholders); otherwise empty regions collapse to
// nil immediately.
func buildBrushNode(strokes []BrushStroke, aabb adaptive.AABB, depth, maxDepth uint8, dense bool) *octree.BuilderNode {
	if depth == maxDepth {
		return buildBrushBrick(strokes, aabb)
	}

	if enclosing, ok := findEnclosingStroke(strokes, aabb, depth); ok {
		if enclosing.Blend == Subtract {
			return nil
		}
		brick := uniformBrick(enclosing.Voxel.Color, enclosing.Voxel.Material)
		return &octree.BuilderNode{OwnBrick: &brick, LODColor: enclosing.Voxel.Color, LODMaterial: enclosing.Voxel.Material}
	}

	return subdivideBrush(strokes, aabb, depth, maxDepth, dense)
}

// findEnclosingStroke returns the last (highest-priority) stroke that
// both needs no finer resolution here (TargetLevel <= depth) and whose
// SDF fully contains aabb. "Last" because later strokes in the list
// are painted over earlier ones, so if several strokes would each
// independently qualify, the one actually visible is the last.
func findEnclosingStroke(strokes []BrushStroke, aabb adaptive.AABB, depth uint8) (BrushStroke, bool) {
	found := false
	var best BrushStroke
	for _, s := range strokes {
		if s.TargetLevel > depth {
			continue
		}
		if !s.Encloses(aabb) {
			continue
		}
		best = s
		found = true
	}
	return best, found
}

func subdivideBrush(strokes []BrushStroke, aabb adaptive.AABB, depth, maxDepth uint8, dense bool) *octree.BuilderNode {
	center := centerOf(aabb)
	out := &octree.BuilderNode{}

	var colors []uint16
	var materials []uint8
	var weights []int
	any := false

	for octant := uint8(0); octant < 8; octant++ {
		childBox := childAABB(aabb, center, octant)
		childStrokes := filterIntersecting(strokes, childBox)

		var child *octree.BuilderNode
		if len(childStrokes) > 0 {
			child = buildBrushNode(childStrokes, childBox, depth+1, maxDepth, dense)
		}

		if child == nil {
			if !dense {
				continue
			}
			out.Children[octant] = denseEmptyChild(depth+1, maxDepth)
			continue
		}

		any = true
		if child.OwnBrick != nil {
			out.Children[octant] = &octree.BuilderChild{IsLeaf: true, Brick: *child.OwnBrick}
		} else {
			out.Children[octant] = &octree.BuilderChild{IsLeaf: false, Node: child}
		}
		colors = append(colors, child.LODColor)
		materials = append(materials, child.LODMaterial)
		weights = append(weights, 1)
	}

	if !any && !dense {
		return nil
	}
	if len(colors) > 0 {
		out.LODColor = octree.AverageColor565(colors, weights)
		out.LODMaterial = octree.ModalMaterial(materials, weights)
	}
	return out
}

// denseEmptyChild is the preallocated placeholder for an octant with
// nothing painted into it, used only by the dense construction path.
func denseEmptyChild(depth, maxDepth uint8) *octree.BuilderChild {
	if depth == maxDepth {
		return &octree.BuilderChild{IsLeaf: true, Brick: voxel.Brick{}}
	}
	return &octree.BuilderChild{IsLeaf: false, Node: &octree.BuilderNode{}}
}

func centerOf(a adaptive.AABB) [3]float64 {
	return [3]float64{
		(a.Min[0] + a.Max[0]) / 2,
		(a.Min[1] + a.Max[1]) / 2,
		(a.Min[2] + a.Max[2]) / 2,
	}
}

func childAABB(parent adaptive.AABB, center [3]float64, octant uint8) adaptive.AABB {
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
	return adaptive.AABB{Min: min, Max: max}
}

// buildBrushBrick composites strokes onto a single 2x2x2-voxel cell,
// applying each stroke's blend mode at every voxel it covers, in
// stroke order.
func buildBrushBrick(strokes []BrushStroke, aabb adaptive.AABB) *octree.BuilderNode {
	center := centerOf(aabb)
	quarter := (aabb.Max[0] - aabb.Min[0]) / 4

	var brick voxel.Brick
	any := false
	var colors []uint16
	var materials []uint8

	for octant := uint8(0); octant < 8; octant++ {
		p := octantPoint(center, quarter, octant)
		v := brick.At(int(octant&1), int((octant>>1)&1), int((octant>>2)&1))
		for _, s := range strokes {
			if !s.Inside(p) {
				continue
			}
			switch s.Blend {
			case Replace:
				v = s.Voxel
			case Add:
				if v.IsEmpty() {
					v = s.Voxel
				}
			case Subtract:
				v = voxel.Empty
			}
		}
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
