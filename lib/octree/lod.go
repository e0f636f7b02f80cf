// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package octree

// Color565 helpers: LODColor is stored as 5-6-5 packed RGB. Averaging is
// done in 8-8-8 space and converted back, since 5-6-5 channels do not
// average linearly without rounding error accumulating across levels.

func unpack565(c uint16) (r, g, b uint8) {
	r5 := uint8(c>>11) & 0x1f
	g6 := uint8(c>>5) & 0x3f
	b5 := uint8(c) & 0x1f
	// Expand to 8 bits by replicating the high bits into the low bits.
	r = (r5 << 3) | (r5 >> 2)
	g = (g6 << 2) | (g6 >> 4)
	b = (b5 << 3) | (b5 >> 2)
	return r, g, b
}

func pack565(r, g, b uint8) uint16 {
	r5 := uint16(r>>3) & 0x1f
	g6 := uint16(g>>2) & 0x3f
	b5 := uint16(b>>3) & 0x1f
	return (r5 << 11) | (g6 << 5) | b5
}

// AverageColor565 computes the weighted mean of a set of 5-6-5 colors in
// 8-8-8 space, then re-packs to 5-6-5. An empty input returns 0.
func AverageColor565(colors []uint16, weights []int) uint16 {
	if len(colors) == 0 {
		return 0
	}
	var sumR, sumG, sumB, sumW int
	for i, c := range colors {
		w := 1
		if weights != nil {
			w = weights[i]
		}
		if w <= 0 {
			continue
		}
		r, g, b := unpack565(c)
		sumR += int(r) * w
		sumG += int(g) * w
		sumB += int(b) * w
		sumW += w
	}
	if sumW == 0 {
		return 0
	}
	return pack565(uint8(sumR/sumW), uint8(sumG/sumW), uint8(sumB/sumW))
}

// lodBands are the distance-band boundaries from §4.11: [64, 128, 256,
// 512, 1024, ∞] meters map to LOD levels 0..5.
var lodBands = [5]float64{64, 128, 256, 512, 1024}

// LodFromDistance maps a distance in meters to an LOD level in [0, 5].
func LodFromDistance(distance float64) int {
	for i, bound := range lodBands {
		if distance < bound {
			return i
		}
	}
	return len(lodBands)
}

// VoxelSizeAtLod doubles baseSize once per LOD level.
func VoxelSizeAtLod(baseSize float64, lod int) float64 {
	return baseSize * float64(uint64(1)<<uint(lod))
}

// TraversalDepthForLod reduces traversal depth by one per LOD level
// (subtracts lod from baseDepth), never going negative.
func TraversalDepthForLod(baseDepth, lod int) int {
	d := baseDepth - lod
	if d < 0 {
		return 0
	}
	return d
}

// LodBlendFactor returns the LOD level active at distance, plus a
// cross-fade factor in [0, 1] for the renderer to blend toward lod+1
// over the last 20% of the current band: 0 at the band's inner edge, 1
// at its outer edge. The outermost (unbounded) band never blends.
func LodBlendFactor(distance float64) (lod int, factor float64) {
	lod = LodFromDistance(distance)
	if lod >= len(lodBands) {
		return lod, 0
	}
	bandStart := 0.0
	if lod > 0 {
		bandStart = lodBands[lod-1]
	}
	bandEnd := lodBands[lod]
	blendStart := bandEnd - 0.2*(bandEnd-bandStart)
	if distance <= blendStart {
		return lod, 0
	}
	return lod, (distance - blendStart) / (bandEnd - blendStart)
}

// ModalMaterial returns the most frequent material among a set of
// (material, weight) pairs. Ties resolve to the first-seen value.
func ModalMaterial(materials []uint8, weights []int) uint8 {
	counts := make(map[uint8]int, len(materials))
	order := make([]uint8, 0, len(materials))
	for i, m := range materials {
		w := 1
		if weights != nil {
			w = weights[i]
		}
		if w <= 0 {
			continue
		}
		if _, seen := counts[m]; !seen {
			order = append(order, m)
		}
		counts[m] += w
	}
	var best uint8
	bestCount := -1
	for _, m := range order {
		if counts[m] > bestCount {
			best = m
			bestCount = counts[m]
		}
	}
	return best
}
