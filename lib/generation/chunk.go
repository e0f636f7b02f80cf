// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package generation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"

	"github.com/voxcraft/core/lib/adaptive"
	"github.com/voxcraft/core/lib/chunkstore"
	"github.com/voxcraft/core/lib/textui"
	"github.com/voxcraft/core/lib/voxel"
)

// batchProgress is the Stats value reported to textui.Progress while a
// batch is generating: how many of the pending coords have finished.
type batchProgress struct {
	Done, Total int
}

func (b batchProgress) String() string {
	return fmt.Sprintf("generated %d/%d chunks", b.Done, b.Total)
}

// GenerateChunk runs the full §4.6 pipeline for one chunk coordinate:
// biome mask, rock + tree placement masks, terrain/rock/tree octrees,
// and the grass mask. Rock and tree octrees are omitted when they turn
// out to hold no bricks, rather than stored empty.
func GenerateChunk(cfg Config, coord voxel.ChunkCoord) *chunkstore.Chunk {
	originX := float64(coord.X) * float64(cfg.ChunkSize)
	originY := float64(coord.Y) * float64(cfg.ChunkSize)
	originZ := float64(coord.Z) * float64(cfg.ChunkSize)

	height := newHeightField(cfg)
	biome := buildBiomeMask(cfg, height, originX, originZ)
	rockMask := buildRockMask(cfg, biome, height, originX, originZ)
	treeMask := buildTreeMask(cfg, biome, height, originX, originZ)

	terrain := adaptive.Build(&terrainClassifier{
		biome: biome, height: height,
		originX: originX, originY: originY, originZ: originZ,
	}, cfg.ChunkSize, cfg.TerrainMaxDepth)

	rock := adaptive.Build(
		newRockClassifier(cfg, rockMask, height, originX, originY, originZ),
		cfg.ChunkSize, cfg.TerrainMaxDepth,
	)

	tree := adaptive.Build(
		newTreeClassifier(cfg, treeMask, height, originX, originY, originZ),
		cfg.ChunkSize, cfg.TerrainMaxDepth,
	)

	grass := buildGrassMask(cfg, biome, originX, originZ)

	out := &chunkstore.Chunk{
		Coord:    coord,
		Terrain:  terrain,
		Grass:    grass,
		Modified: true,
	}
	if rock.BrickCount() > 0 {
		out.Rock = rock
	}
	if tree.BrickCount() > 0 {
		out.Tree = tree
	}
	return out
}

// GenerateBatch generates every non-existing chunk column within radius
// chunks (horizontally) of center, at the ±1-chunk vertical band around
// the column's terrain height, in parallel (§4.6: coord-batch
// generation). exists reports whether a coord is already generated;
// chunks it reports true for are skipped. Chunks with zero non-empty
// bricks across terrain/rock/tree are dropped from the result.
func GenerateBatch(ctx context.Context, cfg Config, center voxel.ChunkCoord, radius int32, exists func(voxel.ChunkCoord) bool) ([]*chunkstore.Chunk, error) {
	coords := pendingColumnCoords(cfg, center, radius, exists)

	progress := textui.NewProgress[batchProgress](ctx, dlog.LogLevelInfo, time.Second)
	var done int64
	total := len(coords)
	progress.Set(batchProgress{Done: 0, Total: total})

	grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{})
	var mu sync.Mutex
	var results []*chunkstore.Chunk

	for _, coord := range coords {
		coord := coord
		grp.Go(coord.String(), func(ctx context.Context) error {
			chunk := GenerateChunk(cfg, coord)
			if !chunk.HasNonEmptyBricks() {
				dlog.Debugf(ctx, "chunk %v generated empty, dropping", coord)
			} else {
				mu.Lock()
				results = append(results, chunk)
				mu.Unlock()
			}
			progress.Set(batchProgress{Done: int(atomic.AddInt64(&done, 1)), Total: total})
			return nil
		})
	}
	err := grp.Wait()
	progress.Done()
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].Coord, results[j].Coord
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return results, nil
}

// pendingColumnCoords computes the set of ChunkCoords §4.6's batch
// generation describes: every column within radius chunks of center
// horizontally, at ±1 chunk vertically around that column's terrain
// height, excluding coords exists already reports as generated.
func pendingColumnCoords(cfg Config, center voxel.ChunkCoord, radius int32, exists func(voxel.ChunkCoord) bool) []voxel.ChunkCoord {
	height := newHeightField(cfg)
	var out []voxel.ChunkCoord

	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			if dx*dx+dz*dz > radius*radius {
				continue
			}
			x, z := center.X+dx, center.Z+dz
			worldX := float64(x) * float64(cfg.ChunkSize)
			worldZ := float64(z) * float64(cfg.ChunkSize)
			h := height.Height(worldX, worldZ)
			centerY := int32(h / float64(cfg.ChunkSize))

			for dy := int32(-1); dy <= 1; dy++ {
				coord := voxel.ChunkCoord{X: x, Y: centerY + dy, Z: z}
				if exists(coord) {
					continue
				}
				out = append(out, coord)
			}
		}
	}
	return out
}
