// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package brush implements the brush/stroke octree builder: SDF
// primitives composited in order with Replace/Add/Subtract blend
// modes, with early termination when a stroke's SDF fully encloses a
// node.
package brush

import (
	"math"
)

// SDF evaluates a signed distance field: negative inside the volume,
// zero on the surface, positive outside.
type SDF interface {
	Distance(p [3]float64) float64
}

// Sphere is centered at the local origin.
type Sphere struct {
	Radius float64
}

func (s Sphere) Distance(p [3]float64) float64 {
	return length(p) - s.Radius
}

// Box is centered at the local origin with the given half-extents.
// Round rounds the corners/edges inward by that amount (0 for a sharp
// box).
type Box struct {
	HalfExtent [3]float64
	Round      float64
}

func (b Box) Distance(p [3]float64) float64 {
	q := [3]float64{
		math.Abs(p[0]) - b.HalfExtent[0] + b.Round,
		math.Abs(p[1]) - b.HalfExtent[1] + b.Round,
		math.Abs(p[2]) - b.HalfExtent[2] + b.Round,
	}
	outside := length([3]float64{math.Max(q[0], 0), math.Max(q[1], 0), math.Max(q[2], 0)})
	inside := math.Min(math.Max(q[0], math.Max(q[1], q[2])), 0)
	return outside + inside - b.Round
}

// Capsule is a line segment from A to B with the given radius.
type Capsule struct {
	A, B   [3]float64
	Radius float64
}

func (c Capsule) Distance(p [3]float64) float64 {
	pa := sub(p, c.A)
	ba := sub(c.B, c.A)
	h := clamp01(dot(pa, ba) / dot(ba, ba))
	closest := sub(pa, scale(ba, h))
	return length(closest) - c.Radius
}

// Cylinder is axis-aligned along Y, centered at the local origin.
type Cylinder struct {
	HalfHeight float64
	Radius     float64
}

func (c Cylinder) Distance(p [3]float64) float64 {
	dRadial := math.Hypot(p[0], p[2]) - c.Radius
	dHeight := math.Abs(p[1]) - c.HalfHeight
	outside := math.Hypot(math.Max(dRadial, 0), math.Max(dHeight, 0))
	inside := math.Min(math.Max(dRadial, dHeight), 0)
	return outside + inside
}

// Cloud is a hash-noise-thresholded sphere with quadratic density
// falloff, used for foliage. Density() rather than Distance() is the
// primary query; Distance() approximates the sphere bound so cloud
// primitives still compose with the other SDFs' enclosure tests.
type Cloud struct {
	Radius   float64
	Seed     uint64
	Porosity float64 // 0 = solid sphere, higher = sparser
}

func (c Cloud) Distance(p [3]float64) float64 {
	return length(p) - c.Radius
}

// Density returns a value in [0,1]: the probability this point is
// filled, combining quadratic radial falloff with hash noise.
func (c Cloud) Density(p [3]float64) float64 {
	r := length(p) / c.Radius
	if r >= 1 {
		return 0
	}
	falloff := 1 - r*r
	n := hashNoise3(p, c.Seed)
	return falloff * (1 - c.Porosity*n)
}

// Filled reports whether the cloud is solid at p, given a per-voxel
// noise threshold sample.
func (c Cloud) Filled(p [3]float64, threshold float64) bool {
	return c.Density(p) > threshold
}

func length(p [3]float64) float64 {
	return math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func scale(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
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

// hashNoise3 produces a deterministic pseudo-random value in [0,1) from
// a position and seed, used by Cloud's density threshold.
func hashNoise3(p [3]float64, seed uint64) float64 {
	h := seed ^ 0x9E3779B97F4A7C15
	h = mixBits(h ^ math.Float64bits(p[0]))
	h = mixBits(h ^ math.Float64bits(p[1]))
	h = mixBits(h ^ math.Float64bits(p[2]))
	return float64(h>>11) / float64(1<<53)
}

func mixBits(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
