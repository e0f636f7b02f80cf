// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command voxelgen batch-generates chunks (§4.6) and writes them to a
// chunk store directory (§4.8).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/voxcraft/core/lib/chunkstore"
	"github.com/voxcraft/core/lib/generation"
	"github.com/voxcraft/core/lib/voxel"
)

// logLevelFlag is a pflag.Value wrapping logrus.Level, same as the
// teacher's cmd/btrfs-rec/main.go.
type logLevelFlag struct {
	logrus.Level
}

func (lvl *logLevelFlag) Type() string { return "loglevel" }
func (lvl *logLevelFlag) Set(str string) error {
	var err error
	lvl.Level, err = logrus.ParseLevel(str)
	return err
}

var _ pflag.Value = (*logLevelFlag)(nil)

func main() {
	verbosity := logLevelFlag{Level: logrus.InfoLevel}
	var outDir string
	var seed int64
	var cx, cy, cz int32
	var radius int32

	cmd := &cobra.Command{
		Use:   "voxelgen",
		Short: "Batch-generate voxel chunks into a chunk store",

		SilenceErrors: true,
		SilenceUsage:  true,

		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetLevel(verbosity.Level)
			ctx := dlog.WithLogger(cmd.Context(), dlog.WrapLogrus(logger))

			grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
				EnableSignalHandling: true,
			})
			grp.Go("generate", func(ctx context.Context) error {
				return runGenerate(ctx, outDir, generation.DefaultConfig(seed),
					voxel.ChunkCoord{X: cx, Y: cy, Z: cz}, radius)
			})
			return grp.Wait()
		},
	}
	cmd.PersistentFlags().Var(&verbosity, "verbosity", "set the log verbosity (error|warn|info|debug|trace)")
	cmd.Flags().StringVar(&outDir, "out", "", "chunk store directory to write into")
	cmd.Flags().Int64Var(&seed, "seed", 0, "world generation seed")
	cmd.Flags().Int32Var(&cx, "center-x", 0, "center chunk coordinate, X")
	cmd.Flags().Int32Var(&cy, "center-y", 0, "center chunk coordinate, Y")
	cmd.Flags().Int32Var(&cz, "center-z", 0, "center chunk coordinate, Z")
	cmd.Flags().Int32Var(&radius, "radius", 4, "horizontal batch radius, in chunks")
	if err := cmd.MarkFlagRequired("out"); err != nil {
		panic(err)
	}

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "voxelgen: error: %v\n", err)
		os.Exit(1)
	}
}

// runGenerate runs one batch and persists every chunk it produces,
// skipping coords the store already has (exists, per §4.6's contract).
func runGenerate(ctx context.Context, outDir string, cfg generation.Config, center voxel.ChunkCoord, radius int32) error {
	exists := func(coord voxel.ChunkCoord) bool {
		_, err := os.Stat(chunkstore.ChunkPath(outDir, coord))
		return err == nil
	}

	chunks, err := generation.GenerateBatch(ctx, cfg, center, radius, exists)
	if err != nil {
		return err
	}

	for _, chunk := range chunks {
		if err := chunkstore.SaveChunk(outDir, chunk); err != nil {
			return err
		}
		if chunk.Grass != nil {
			if err := chunkstore.SaveGrassMask(outDir, chunk.Coord, chunk.Grass); err != nil {
				return err
			}
		}
		dlog.Infof(ctx, "wrote chunk %v", chunk.Coord)
	}
	dlog.Infof(ctx, "generated %d chunks", len(chunks))
	return nil
}
