// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package rockgen composes a rock's SDF from 1-3 smooth-blended
// ellipsoids, domain-warped and noise-displaced, and voxelizes it
// through the adaptive builder (§4.7 "Rock").
package rockgen

import (
	"math"

	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/noise"
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

// Ellipsoid is one lobe of a rock's base shape, in rock-local space
// (origin at the rock's center).
type Ellipsoid struct {
	Center [3]float64
	Radii  [3]float64
}

// Params tunes a rock's SDF composition and detail noise layers, all
// scales derived from the rock's overall height per §4.7.
type Params struct {
	Lobes []Ellipsoid
	// Smin is the smooth-min blend radius k in smin(a,b,k).
	Smin float64

	WarpFrequency float64
	WarpStrength  float64

	ShapeFrequency, ShapeStrength   float64
	RidgeFrequency, RidgeStrength   float64
	DetailFrequency, DetailStrength float64
	MicroFrequency, MicroStrength   float64

	Material   uint8
	BaseColor  uint16
	RidgeDark  float64 // [0,1]: how much a ridge-noise peak darkens BaseColor
}

// DefaultParams builds a plausible 1-3-lobe boulder scaled to height
// meters, seeded from seed so two calls with the same inputs produce
// the same shape.
func DefaultParams(seed int64, height float64) Params {
	r := newRNG(seed)
	n := 1 + int(r.float64()*2.999)

	lobes := make([]Ellipsoid, n)
	for i := range lobes {
		lobes[i] = Ellipsoid{
			Center: [3]float64{(r.signed()) * height * 0.3, (r.signed()) * height * 0.15, (r.signed()) * height * 0.3},
			Radii: [3]float64{
				height * (0.4 + 0.3*r.float64()),
				height * (0.3 + 0.25*r.float64()),
				height * (0.4 + 0.3*r.float64()),
			},
		}
	}

	return Params{
		Lobes:           lobes,
		Smin:            height * 0.25,
		WarpFrequency:   0.6 / height,
		WarpStrength:    height * 0.1,
		ShapeFrequency:  0.8 / height,
		ShapeStrength:   height * 0.08,
		RidgeFrequency:  2.5 / height,
		RidgeStrength:   height * 0.06,
		DetailFrequency: 8 / height,
		DetailStrength:  height * 0.02,
		MicroFrequency:  24 / height,
		MicroStrength:   height * 0.006,
		Material:        6,
		BaseColor:       0x6B4D,
		RidgeDark:       0.35,
	}
}

// rng mirrors treegen's splitmix64-based generator; kept package-local
// since rockgen and treegen have no shared dependency for it.
type rng struct{ state uint64 }

func newRNG(seed int64) *rng { return &rng{state: uint64(seed) + 0x9E3779B97F4A7C15} }

func (r *rng) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (r *rng) float64() float64 { return float64(r.next()>>11) / (1 << 53) }
func (r *rng) signed() float64  { return r.float64()*2 - 1 }

// smin is the polynomial smooth-min from §4.7:
// smin(a,b,k) = min(a,b) - (k - |a-b|)^2 / (4k), only where |a-b| < k.
func smin(a, b, k float64) float64 {
	d := math.Abs(a - b)
	if d >= k {
		return math.Min(a, b)
	}
	return math.Min(a, b) - (k-d)*(k-d)/(4*k)
}

func ellipsoidSDF(p [3]float64, e Ellipsoid) float64 {
	dx := (p[0] - e.Center[0]) / e.Radii[0]
	dy := (p[1] - e.Center[1]) / e.Radii[1]
	dz := (p[2] - e.Center[2]) / e.Radii[2]
	k0 := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if k0 == 0 {
		return -math.Min(e.Radii[0], math.Min(e.Radii[1], e.Radii[2]))
	}
	k1 := math.Sqrt(dx*dx/(e.Radii[0]*e.Radii[0]) + dy*dy/(e.Radii[1]*e.Radii[1]) + dz*dz/(e.Radii[2]*e.Radii[2]))
	return k0 * (k0 - 1) / k1
}

// baseSDF unions every lobe via smooth-min.
func (p *Params) baseSDF(pos [3]float64) float64 {
	d := ellipsoidSDF(pos, p.Lobes[0])
	for _, lobe := range p.Lobes[1:] {
		d = smin(d, ellipsoidSDF(pos, lobe), p.Smin)
	}
	return d
}

// Voxelizer implements adaptive.RegionClassifier over a rock's warped,
// noise-displaced SDF.
type Voxelizer struct {
	params Params
	noise  *noise.Perlin
	offset [3]float64
}

// NewVoxelizer builds a Voxelizer that will be run over a cube of the
// given rootSize, centered on the rock's own origin.
func NewVoxelizer(params Params, seed int64, rootSize float32) *Voxelizer {
	half := float64(rootSize) / 2
	return &Voxelizer{
		params: params,
		noise:  noise.NewPerlin(seed ^ 0x524F434B),
		offset: [3]float64{-half, -half, -half},
	}
}

// Voxelize runs the adaptive builder over v, producing the rock's
// standalone asset octree.
func (v *Voxelizer) Voxelize(rootSize float32, maxDepth uint8) *octree.Octree {
	return adaptive.Build(v, rootSize, maxDepth)
}

func (v *Voxelizer) toLocal(p [3]float64) [3]float64 {
	return [3]float64{p[0] + v.offset[0], p[1] + v.offset[1], p[2] + v.offset[2]}
}

// sdf is §4.7's composed rock surface: smin'd ellipsoids, domain-warped,
// then displaced by shape/ridge/detail/micro noise layers.
func (v *Voxelizer) sdf(p [3]float64) float64 {
	params := &v.params
	wx, wy, wz := v.noise.Warp3D(p[0], p[1], p[2], params.WarpFrequency, params.WarpStrength)
	warped := [3]float64{wx, wy, wz}

	d := params.baseSDF(warped)

	shape := v.noise.FBM3D(p[0]*params.ShapeFrequency, p[1]*params.ShapeFrequency, p[2]*params.ShapeFrequency, 3, 2, 0.5)
	ridge := v.noise.RidgeFBM3D(p[0]*params.RidgeFrequency, p[1]*params.RidgeFrequency, p[2]*params.RidgeFrequency, 3, 2, 0.5)
	detail := v.noise.Noise3D(p[0]*params.DetailFrequency, p[1]*params.DetailFrequency, p[2]*params.DetailFrequency)
	micro := v.noise.Noise3D(p[0]*params.MicroFrequency, p[1]*params.MicroFrequency, p[2]*params.MicroFrequency)

	d -= shape * params.ShapeStrength
	d -= ridge * params.RidgeStrength
	d -= detail * params.DetailStrength
	d -= micro * params.MicroStrength
	return d
}

const gradEps = 0.015

func (v *Voxelizer) gradient(p [3]float64) [3]float64 {
	dx := v.sdf([3]float64{p[0] + gradEps, p[1], p[2]}) - v.sdf([3]float64{p[0] - gradEps, p[1], p[2]})
	dy := v.sdf([3]float64{p[0], p[1] + gradEps, p[2]}) - v.sdf([3]float64{p[0], p[1] - gradEps, p[2]})
	dz := v.sdf([3]float64{p[0], p[1], p[2] + gradEps}) - v.sdf([3]float64{p[0], p[1], p[2] - gradEps})
	return normalize([3]float64{dx, dy, dz})
}

func normalize(a [3]float64) [3]float64 {
	l := math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
	if l < 1e-12 {
		return [3]float64{0, 1, 0}
	}
	return [3]float64{a[0] / l, a[1] / l, a[2] / l}
}

// ridgeValue recomputes the ridge noise layer alone, used for color
// darkening at solid points rather than re-deriving it from the SDF.
func (v *Voxelizer) ridgeValue(p [3]float64) float64 {
	params := &v.params
	return v.noise.RidgeFBM3D(p[0]*params.RidgeFrequency, p[1]*params.RidgeFrequency, p[2]*params.RidgeFrequency, 3, 2, 0.5)
}

// encodeNormalTint darkens base (a 565 color) by the ridge noise value
// scaled by ridgeDark, giving ridge lines visible shadow without a
// second texture layer; the unit normal n is accepted for symmetry with
// treegen's encodeNormalColor but rock color doesn't vary by facing.
func encodeNormalTint(n [3]float64, base uint16, ridgeDark, ridge float64) uint16 {
	darken := clamp01(ridge * ridgeDark)
	r5 := shrink(uint8(base>>11)&0x1F, darken)
	g6 := shrink(uint8(base>>5)&0x3F, darken)
	b5 := shrink(uint8(base)&0x1F, darken)
	return uint16(r5)<<11 | uint16(g6)<<5 | uint16(b5)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func shrink(v uint8, frac float64) uint8 {
	return uint8(float64(v) * (1 - frac))
}

func (v *Voxelizer) ClassifyRegion(aabb adaptive.AABB) adaptive.Classification {
	halfDiag := length(sub(aabb.Max, aabb.Min)) / 2
	minD, maxD := math.MaxFloat64, -math.MaxFloat64
	for _, c := range corners(aabb) {
		d := v.sdf(v.toLocal(c))
		if d < minD {
			minD = d
		}
		if d > maxD {
			maxD = d
		}
	}
	if minD > halfDiag {
		return adaptive.Classification{Kind: adaptive.Empty}
	}
	if maxD < -halfDiag {
		ridge := v.ridgeValue(v.toLocal(aabb.Min))
		color := encodeNormalTint([3]float64{0, 1, 0}, v.params.BaseColor, v.params.RidgeDark, ridge)
		return adaptive.Classification{Kind: adaptive.Solid, Material: v.params.Material, Color: color}
	}
	return adaptive.Classification{Kind: adaptive.Mixed}
}

func (v *Voxelizer) Evaluate(point [3]float64) voxel.Voxel {
	p := v.toLocal(point)
	if v.sdf(p) > 0 {
		return voxel.Empty
	}
	n := v.gradient(p)
	ridge := v.ridgeValue(p)
	color := encodeNormalTint(n, v.params.BaseColor, v.params.RidgeDark, ridge)
	return voxel.Voxel{Color: color, Material: v.params.Material}
}

func sub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func length(a [3]float64) float64    { return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2]) }

func corners(aabb adaptive.AABB) [][3]float64 {
	out := make([][3]float64, 0, 8)
	for octant := uint8(0); octant < 8; octant++ {
		p := aabb.Min
		if octant&1 != 0 {
			p[0] = aabb.Max[0]
		}
		if octant&2 != 0 {
			p[1] = aabb.Max[1]
		}
		if octant&4 != 0 {
			p[2] = aabb.Max[2]
		}
		out = append(out, p)
	}
	return out
}
