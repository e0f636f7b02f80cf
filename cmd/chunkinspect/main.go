// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command chunkinspect inspects chunks in a chunk store directory (§4.8):
// structural dumps for debugging, and JSON summaries for scripting.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"git.lukeshu.com/go/lowmemjson"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/voxcraft/core/lib/chunkstore"
	"github.com/voxcraft/core/lib/voxel"
)

func main() {
	root := &cobra.Command{
		Use:           "chunkinspect",
		Short:         "Inspect chunks in a chunk store directory",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(dumpCmd())
	root.AddCommand(statsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chunkinspect: error: %v\n", err)
		os.Exit(1)
	}
}

// parseCoordArgs parses "X Y Z" positional args into a voxel.ChunkCoord.
func parseCoordArgs(args []string) (voxel.ChunkCoord, error) {
	if len(args) != 3 {
		return voxel.ChunkCoord{}, fmt.Errorf("expected 3 positional args (X Y Z), got %d", len(args))
	}
	var coord voxel.ChunkCoord
	vals := make([]int64, 3)
	for i, a := range args {
		v, err := strconv.ParseInt(a, 10, 32)
		if err != nil {
			return voxel.ChunkCoord{}, fmt.Errorf("coordinate %q: %w", a, err)
		}
		vals[i] = v
	}
	coord.X, coord.Y, coord.Z = int32(vals[0]), int32(vals[1]), int32(vals[2])
	return coord, nil
}

// dumpCmd loads one chunk and structurally dumps its octrees and grass
// mask, same idiom as the teacher's cmd/btrfs-dbg dumping btrfs structures.
func dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump STORE X Y Z",
		Short: "Structurally dump a chunk's octrees and grass mask",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := parseCoordArgs(args[1:4])
			if err != nil {
				return err
			}
			chunk, err := chunkstore.LoadChunk(args[0], coord)
			if err != nil {
				return err
			}
			grass, err := chunkstore.LoadGrassMask(args[0], coord)
			if err != nil && !errors.Is(err, chunkstore.ErrNotFound) {
				return err
			}

			cfg := spew.NewDefaultConfig()
			cfg.DisablePointerAddresses = true
			fmt.Printf("chunk %v: modified=%v\n", chunk.Coord, chunk.Modified)
			fmt.Println("terrain:")
			cfg.Dump(chunk.Terrain)
			if chunk.Rock != nil {
				fmt.Println("rock:")
				cfg.Dump(chunk.Rock)
			}
			if chunk.Tree != nil {
				fmt.Println("tree:")
				cfg.Dump(chunk.Tree)
			}
			if grass != nil {
				fmt.Println("grass:")
				cfg.Dump(grass)
			}
			return nil
		},
	}
}

// chunkStats is the JSON-able summary statsCmd reports: node/brick
// counts per octree, so scripts can eyeball a store's generation
// density without decoding full structures.
type chunkStats struct {
	Coord        voxel.ChunkCoord `json:"coord"`
	Modified     bool             `json:"modified"`
	TerrainNodes int              `json:"terrain_nodes"`
	TerrainBrick int              `json:"terrain_bricks"`
	RockNodes    int              `json:"rock_nodes,omitempty"`
	RockBricks   int              `json:"rock_bricks,omitempty"`
	TreeNodes    int              `json:"tree_nodes,omitempty"`
	TreeBricks   int              `json:"tree_bricks,omitempty"`
	GrassNodes   int              `json:"grass_nodes,omitempty"`
}

func statsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats STORE X Y Z",
		Short: "Report node/brick counts for a chunk",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := parseCoordArgs(args[1:4])
			if err != nil {
				return err
			}
			chunk, err := chunkstore.LoadChunk(args[0], coord)
			if err != nil {
				return err
			}
			grass, err := chunkstore.LoadGrassMask(args[0], coord)
			if err != nil && !errors.Is(err, chunkstore.ErrNotFound) {
				return err
			}

			stats := chunkStats{
				Coord:        chunk.Coord,
				Modified:     chunk.Modified,
				TerrainNodes: chunk.Terrain.NodeCount(),
				TerrainBrick: chunk.Terrain.BrickCount(),
			}
			if chunk.Rock != nil {
				stats.RockNodes = chunk.Rock.NodeCount()
				stats.RockBricks = chunk.Rock.BrickCount()
			}
			if chunk.Tree != nil {
				stats.TreeNodes = chunk.Tree.NodeCount()
				stats.TreeBricks = chunk.Tree.BrickCount()
			}
			if grass != nil {
				stats.GrassNodes = len(grass.Nodes)
			}

			if asJSON {
				return writeJSON(os.Stdout, stats)
			}
			fmt.Printf("chunk %v: modified=%v terrain=%d nodes/%d bricks rock=%d/%d tree=%d/%d grass=%d nodes\n",
				stats.Coord, stats.Modified,
				stats.TerrainNodes, stats.TerrainBrick,
				stats.RockNodes, stats.RockBricks,
				stats.TreeNodes, stats.TreeBricks,
				stats.GrassNodes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-readable JSON instead of text")
	return cmd
}

// writeJSON encodes obj with lowmemjson, same config the teacher's
// cmd/btrfs-rec/util.go uses for its JSON dumps.
func writeJSON(w io.Writer, obj any) (err error) {
	buffer := bufio.NewWriter(w)
	defer func() {
		if _err := buffer.Flush(); err == nil && _err != nil {
			err = _err
		}
	}()
	return lowmemjson.Encode(&lowmemjson.ReEncoder{
		Out:                   buffer,
		Indent:                "\t",
		ForceTrailingNewlines: true,
	}, obj)
}
