// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package treegen grows a tree skeleton by space colonization (§4.7)
// and voxelizes it through a tapered-capsule + foliage-cloud SDF.
package treegen

// CrownShape selects the volume attractors are rejection-sampled from.
type CrownShape int

const (
	CrownSphere CrownShape = iota
	CrownCone
	CrownEllipsoid
)

// Style is one named preset's tuning knobs (§4.7's "Style presets"
// paragraph): height, trunk proportions, crown shape, tropism, leaf
// palette, and foliage density all come from here.
type Style struct {
	Name string

	Height          float64
	TrunkRadius     float64
	TrunkTaper      float64 // fraction the radius shrinks from base to crown
	RootFlare       bool    // widen the base with an extra tapered segment

	CrownShape    CrownShape
	CrownRadius   float64
	CrownHeight   float64 // vertical extent of the crown volume above its base
	CrownDensity  float64 // attractor count scales as CrownDensity * 1500

	Tropism         [3]float64 // unit-ish bias vector growth is nudged toward
	TropismStrength float64

	AttractionDistance float64
	KillDistance       float64
	SegmentLength      float64
	MaxIterations      int

	LeafColors        []uint16 // palette; a style with none (winter variants) grows no foliage
	LeafColorVariance float64
	FoliagePorosity   float64 // [0,1]; not read by Voxelizer, which voxelizes foliage blobs solid
	BranchLeafDensity float64 // probability a non-terminal outer node also gets foliage

	WoodColor uint16
}

// Oak is a broad-crowned, moderately dense deciduous preset.
var Oak = Style{
	Name:               "oak",
	Height:             9,
	TrunkRadius:        0.35,
	TrunkTaper:         0.55,
	RootFlare:          true,
	CrownShape:         CrownEllipsoid,
	CrownRadius:        3.2,
	CrownHeight:        4.5,
	CrownDensity:       0.45,
	Tropism:            [3]float64{0, 1, 0},
	TropismStrength:    0.15,
	AttractionDistance: 2.4,
	KillDistance:       0.5,
	SegmentLength:      0.35,
	MaxIterations:      60,
	LeafColors:         []uint16{0x1E60, 0x2668, 0x1620},
	LeafColorVariance:  0.12,
	FoliagePorosity:    0.35,
	BranchLeafDensity:  0.3,
	WoodColor:          0x4208,
}

// Willow is tall and narrow-trunked with a drooping tropism (negative
// Y bias nudges later growth downward, approximating weeping branches).
var Willow = Style{
	Name:               "willow",
	Height:             10,
	TrunkRadius:        0.3,
	TrunkTaper:         0.6,
	RootFlare:          false,
	CrownShape:         CrownSphere,
	CrownRadius:        3.6,
	CrownHeight:        5,
	CrownDensity:       0.35,
	Tropism:            [3]float64{0, -0.4, 0},
	TropismStrength:    0.35,
	AttractionDistance: 2.6,
	KillDistance:       0.55,
	SegmentLength:      0.4,
	MaxIterations:      55,
	LeafColors:         []uint16{0x2ECC, 0x26C4},
	LeafColorVariance:  0.1,
	FoliagePorosity:    0.45,
	BranchLeafDensity:  0.4,
	WoodColor:          0x5A4C,
}

// Elm grows a tall, narrow, upward-tending crown.
var Elm = Style{
	Name:               "elm",
	Height:             12,
	TrunkRadius:        0.4,
	TrunkTaper:         0.5,
	RootFlare:          true,
	CrownShape:         CrownCone,
	CrownRadius:        2.8,
	CrownHeight:        6,
	CrownDensity:       0.4,
	Tropism:            [3]float64{0, 1, 0},
	TropismStrength:    0.2,
	AttractionDistance: 2.2,
	KillDistance:       0.5,
	SegmentLength:      0.35,
	MaxIterations:      65,
	LeafColors:         []uint16{0x1C60, 0x24A8},
	LeafColorVariance:  0.1,
	FoliagePorosity:    0.3,
	BranchLeafDensity:  0.32,
	WoodColor:          0x4A4C,
}

// winterize strips a deciduous style of foliage, producing its bare
// winter variant: same skeleton, no leaf palette.
func winterize(s Style, name string) Style {
	out := s
	out.Name = name
	out.LeafColors = nil
	out.BranchLeafDensity = 0
	return out
}

var (
	OakWinter    = winterize(Oak, "oak-winter")
	WillowWinter = winterize(Willow, "willow-winter")
	ElmWinter    = winterize(Elm, "elm-winter")
)
