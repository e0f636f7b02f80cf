// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package noise provides the Perlin noise and fractal-sum utilities that
// back terrain height, biome fields, and procedural generator detail
// layers (lib/generation, lib/procedural/treegen, lib/procedural/rockgen).
package noise

import "math"

// Perlin is a seeded 2D/3D Perlin noise field with a 512-entry
// permutation table (256 entries duplicated to avoid wrap-around
// branches in the lattice lookups).
type Perlin struct {
	perm [512]int
}

// NewPerlin builds a permutation table by Fisher-Yates shuffling 0..255
// with a 64-bit LCG seeded from seed, so the same seed always
// produces the same field (required for deterministic tree/rock/terrain
// generation).
func NewPerlin(seed int64) *Perlin {
	p := &Perlin{}

	var base [256]int
	for i := range base {
		base[i] = i
	}

	s := seed
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int(uint64(s>>16) % uint64(i+1))
		base[i], base[j] = base[j], base[i]
	}

	for i := 0; i < 256; i++ {
		p.perm[i] = base[i]
		p.perm[i+256] = base[i]
	}
	return p
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad2D(hash int, x, y float64) float64 {
	switch hash & 3 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	default:
		return -x - y
	}
}

func grad3D(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	v := y
	switch {
	case h < 4:
		// v stays y
	case h == 12 || h == 14:
		v = x
	default:
		v = z
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

// Noise2D returns 2D Perlin noise at (x, y), roughly in [-1, 1].
func (p *Perlin) Noise2D(x, y float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255

	xf := x - math.Floor(x)
	yf := y - math.Floor(y)

	u := fade(xf)
	v := fade(yf)

	aa := p.perm[p.perm[xi]+yi]
	ab := p.perm[p.perm[xi]+yi+1]
	ba := p.perm[p.perm[xi+1]+yi]
	bb := p.perm[p.perm[xi+1]+yi+1]

	x1 := lerp(u, grad2D(aa, xf, yf), grad2D(ba, xf-1, yf))
	x2 := lerp(u, grad2D(ab, xf, yf-1), grad2D(bb, xf-1, yf-1))
	return lerp(v, x1, x2)
}

// Noise3D returns 3D Perlin noise at (x, y, z), roughly in [-1, 1].
func (p *Perlin) Noise3D(x, y, z float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255
	zi := int(math.Floor(z)) & 255

	xf := x - math.Floor(x)
	yf := y - math.Floor(y)
	zf := z - math.Floor(z)

	u := fade(xf)
	v := fade(yf)
	w := fade(zf)

	aaa := p.perm[p.perm[p.perm[xi]+yi]+zi]
	aba := p.perm[p.perm[p.perm[xi]+yi+1]+zi]
	aab := p.perm[p.perm[p.perm[xi]+yi]+zi+1]
	abb := p.perm[p.perm[p.perm[xi]+yi+1]+zi+1]
	baa := p.perm[p.perm[p.perm[xi+1]+yi]+zi]
	bba := p.perm[p.perm[p.perm[xi+1]+yi+1]+zi]
	bab := p.perm[p.perm[p.perm[xi+1]+yi]+zi+1]
	bbb := p.perm[p.perm[p.perm[xi+1]+yi+1]+zi+1]

	x1 := lerp(u, grad3D(aaa, xf, yf, zf), grad3D(baa, xf-1, yf, zf))
	x2 := lerp(u, grad3D(aba, xf, yf-1, zf), grad3D(bba, xf-1, yf-1, zf))
	y1 := lerp(v, x1, x2)

	x1 = lerp(u, grad3D(aab, xf, yf, zf-1), grad3D(bab, xf-1, yf, zf-1))
	x2 = lerp(u, grad3D(abb, xf, yf-1, zf-1), grad3D(bbb, xf-1, yf-1, zf-1))
	y2 := lerp(v, x1, x2)

	return lerp(w, y1, y2)
}

// FBM2D sums octaves of Noise2D (fractal Brownian motion), normalized by
// total amplitude so the result stays roughly in [-1, 1].
func (p *Perlin) FBM2D(x, y float64, octaves int, lacunarity, persistence float64) float64 {
	var total, amplitude, maxAmplitude, frequency float64 = 0, 1, 0, 1
	for i := 0; i < octaves; i++ {
		total += p.Noise2D(x*frequency, y*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	return total / maxAmplitude
}

// FBM3D is FBM2D's 3D counterpart.
func (p *Perlin) FBM3D(x, y, z float64, octaves int, lacunarity, persistence float64) float64 {
	var total, amplitude, maxAmplitude, frequency float64 = 0, 1, 0, 1
	for i := 0; i < octaves; i++ {
		total += p.Noise3D(x*frequency, y*frequency, z*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	return total / maxAmplitude
}

// RidgeFBM3D sums abs-valued octaves (1-|noise|), producing the sharp
// ridge lines used for rock detail layers. Result is in [0, 1].
func (p *Perlin) RidgeFBM3D(x, y, z float64, octaves int, lacunarity, persistence float64) float64 {
	var total, amplitude, maxAmplitude, frequency float64 = 0, 1, 0, 1
	for i := 0; i < octaves; i++ {
		n := 1 - math.Abs(p.Noise3D(x*frequency, y*frequency, z*frequency))
		total += n * n * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	return total / maxAmplitude
}

// Warp3D domain-warps a point by offsetting each axis with a distinct
// low-frequency noise field, the technique rock generation uses to break
// up the regularity of its base SDF.
func (p *Perlin) Warp3D(x, y, z, frequency, strength float64) (float64, float64, float64) {
	wx := x + strength*p.Noise3D(x*frequency, y*frequency, z*frequency+19.19)
	wy := y + strength*p.Noise3D(x*frequency+37.27, y*frequency, z*frequency)
	wz := z + strength*p.Noise3D(x*frequency, y*frequency+71.71, z*frequency)
	return wx, wy, wz
}
