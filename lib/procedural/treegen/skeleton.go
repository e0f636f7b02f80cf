// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package treegen

import "math"

// Node is one point of the tree's skeleton. Children are never stored
// directly: Parent is an index into Skeleton.Nodes, and a node's
// children are found by scanning for that index, per §9's direction to
// represent growth as an index-parent array rather than a recursive
// ownership graph.
type Node struct {
	Pos       [3]float64
	Parent    int32
	Depth     int32
	Radius    float64
	LeafCount int32
	HasChild  bool
}

// FoliageBlob is one leaf-cloud primitive (§4.7 step 5): a sphere with
// density falloff and a per-blob color seed for palette variance.
type FoliageBlob struct {
	Center    [3]float64
	Radius    float64
	ColorSeed uint64
}

// Skeleton is the grown tree: its node array and the foliage blobs
// attached to it, at the given style's scale.
type Skeleton struct {
	Style   Style
	Nodes   []Node
	Foliage []FoliageBlob
}

// Grow runs the full space-colonization algorithm (§4.7 steps 1-5):
// trunk, attractors, iterative growth, pipe-model radii, foliage.
func Grow(style Style, seed int64) *Skeleton {
	r := newRNG(seed)

	crownBaseY := style.Height - style.CrownHeight
	nodes := buildTrunk(style, crownBaseY)

	attractors := scatterAttractors(r, style, crownBaseY)
	nodes = colonize(r, style, nodes, attractors)

	assignLeafCounts(nodes)
	assignRadii(style, nodes)

	sk := &Skeleton{Style: style, Nodes: nodes}
	sk.Foliage = growFoliage(r, style, nodes)
	return sk
}

// buildTrunk creates one or two tapered capsule segments from the
// ground to the crown base. RootFlare adds an extra low segment so the
// base widens rather than tapering uniformly from ground level.
func buildTrunk(style Style, crownBaseY float64) []Node {
	nodes := []Node{{Pos: [3]float64{0, 0, 0}, Parent: -1, Depth: 0}}
	if style.RootFlare {
		flareY := crownBaseY * 0.15
		nodes = append(nodes, Node{Pos: [3]float64{0, flareY, 0}, Parent: 0, Depth: 1})
	}
	top := Node{Pos: [3]float64{0, crownBaseY, 0}, Parent: int32(len(nodes) - 1), Depth: int32(len(nodes))}
	nodes = append(nodes, top)
	return nodes
}

func crownCenterAndExtent(style Style) (center [3]float64, rx, ry, rz float64) {
	center = [3]float64{0, style.Height - style.CrownHeight/2, 0}
	rx, ry, rz = style.CrownRadius, style.CrownHeight/2, style.CrownRadius
	return
}

// scatterAttractors rejection-samples N ≈ CrownDensity*1500 points
// inside the style's crown volume (§4.7 step 2).
func scatterAttractors(r *rng, style Style, crownBaseY float64) [][3]float64 {
	n := int(style.CrownDensity * 1500)
	center, rx, ry, rz := crownCenterAndExtent(style)

	out := make([][3]float64, 0, n)
	for len(out) < n {
		p := [3]float64{
			center[0] + r.signed()*rx,
			center[1] + r.signed()*ry,
			center[2] + r.signed()*rz,
		}
		if !insideCrown(style.CrownShape, p, center, rx, ry, rz, crownBaseY) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func insideCrown(shape CrownShape, p, center [3]float64, rx, ry, rz, crownBaseY float64) bool {
	dx, dy, dz := (p[0]-center[0])/rx, (p[1]-center[1])/ry, (p[2]-center[2])/rz
	switch shape {
	case CrownSphere, CrownEllipsoid:
		return dx*dx+dy*dy+dz*dz <= 1
	case CrownCone:
		if p[1] < crownBaseY {
			return false
		}
		heightFrac := (p[1] - crownBaseY) / (2 * ry)
		radiusAtHeight := rx * (1 - heightFrac)
		if radiusAtHeight <= 0 {
			return false
		}
		return (p[0]-center[0])*(p[0]-center[0])+(p[2]-center[2])*(p[2]-center[2]) <= radiusAtHeight*radiusAtHeight
	default:
		return dx*dx+dy*dy+dz*dz <= 1
	}
}

func sub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func add(a, b [3]float64) [3]float64 { return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func scale(a [3]float64, s float64) [3]float64 { return [3]float64{a[0] * s, a[1] * s, a[2] * s} }

func length(a [3]float64) float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
}

func normalize(a [3]float64) [3]float64 {
	l := length(a)
	if l < 1e-12 {
		return [3]float64{0, 1, 0}
	}
	return scale(a, 1/l)
}

// colonize runs the iterative growth loop (§4.7 step 3): attractors
// pull their nearest node toward them each round, and any attractor
// within KillDistance of a node is consumed.
func colonize(r *rng, style Style, nodes []Node, attractors [][3]float64) []Node {
	for iter := 0; iter < style.MaxIterations && len(attractors) > 0; iter++ {
		groups := make(map[int32][][3]float64)
		for _, a := range attractors {
			nearest, dist := nearestNode(nodes, a)
			if dist <= style.AttractionDistance {
				groups[nearest] = append(groups[nearest], a)
			}
		}
		if len(groups) == 0 {
			break
		}

		for parent, pulls := range groups {
			var dir [3]float64
			for _, a := range pulls {
				dir = add(dir, normalize(sub(a, nodes[parent].Pos)))
			}
			dir = normalize(add(dir, scale(style.Tropism, style.TropismStrength*float64(len(pulls)))))
			newPos := add(nodes[parent].Pos, scale(dir, style.SegmentLength))
			nodes[parent].HasChild = true
			nodes = append(nodes, Node{
				Pos:    newPos,
				Parent: parent,
				Depth:  nodes[parent].Depth + 1,
			})
		}

		attractors = pruneAttractors(nodes, attractors, style.KillDistance)
	}
	return nodes
}

func nearestNode(nodes []Node, p [3]float64) (idx int32, dist float64) {
	best := math.MaxFloat64
	for i, n := range nodes {
		d := length(sub(p, n.Pos))
		if d < best {
			best = d
			idx = int32(i)
		}
	}
	return idx, best
}

func pruneAttractors(nodes []Node, attractors [][3]float64, killDistance float64) [][3]float64 {
	out := attractors[:0]
	for _, a := range attractors {
		killed := false
		for _, n := range nodes {
			if length(sub(a, n.Pos)) < killDistance {
				killed = true
				break
			}
		}
		if !killed {
			out = append(out, a)
		}
	}
	return out
}

// assignLeafCounts computes each node's subtree size bottom-up (§4.7
// step 4): growth always appends a node after its parent, so a single
// reverse pass suffices.
func assignLeafCounts(nodes []Node) {
	for i := range nodes {
		nodes[i].LeafCount = 1
	}
	for i := len(nodes) - 1; i > 0; i-- {
		p := nodes[i].Parent
		nodes[p].LeafCount += nodes[i].LeafCount
	}
}

// assignRadii implements the pipe model: radius at a node is
// top_trunk_radius * sqrt(leaf_count / max_leaf_count).
func assignRadii(style Style, nodes []Node) {
	maxLeaf := nodes[0].LeafCount
	if maxLeaf < 1 {
		maxLeaf = 1
	}
	top := style.TrunkRadius * (1 - style.TrunkTaper)
	for i := range nodes {
		frac := float64(nodes[i].LeafCount) / float64(maxLeaf)
		nodes[i].Radius = top * math.Sqrt(frac)
	}
	// The root and first trunk segment are never thinner than the
	// style's configured base radius, regardless of what the pipe
	// model derives from leaf counts.
	nodes[0].Radius = math.Max(nodes[0].Radius, style.TrunkRadius)
}

// growFoliage emits a cloud primitive for every node in the outer half
// of the tree (§4.7 step 5): unconditionally at terminal nodes,
// probabilistically elsewhere.
func growFoliage(r *rng, style Style, nodes []Node) []FoliageBlob {
	if len(style.LeafColors) == 0 {
		return nil
	}
	maxDepth := int32(0)
	for _, n := range nodes {
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
	}
	if maxDepth == 0 {
		maxDepth = 1
	}

	var blobs []FoliageBlob
	for i, n := range nodes {
		outer := float64(n.Depth)/float64(maxDepth) >= 0.5
		if !outer {
			continue
		}
		emit := !n.HasChild || r.float64() < style.BranchLeafDensity
		if !emit {
			continue
		}
		blobs = append(blobs, FoliageBlob{
			Center:    n.Pos,
			Radius:    0.5 + 0.4*r.float64(),
			ColorSeed: uint64(i)*2654435761 + uint64(seedFromPos(n.Pos)),
		})
	}
	return blobs
}

func seedFromPos(p [3]float64) uint32 {
	bits := int64(p[0]*1000) ^ int64(p[1]*1000)<<16 ^ int64(p[2]*1000)<<32
	return uint32(bits)
}
