// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package asyncload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcraft/core/lib/chunkstore"
	"github.com/voxcraft/core/lib/octree"
	"github.com/voxcraft/core/lib/voxel"
)

type stubGenerator struct{ calls []voxel.ChunkCoord }

func (g *stubGenerator) Generate(coord voxel.ChunkCoord) *chunkstore.Chunk {
	g.calls = append(g.calls, coord)
	return &chunkstore.Chunk{Coord: coord, Terrain: octree.New(16, 4)}
}

func coord(x int32) voxel.ChunkCoord { return voxel.ChunkCoord{X: x, Y: 0, Z: 0} }

func awaitResult(t *testing.T, l *Loader, want voxel.ChunkCoord) LoadResult {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, r := range l.PollResults() {
			if r.Coord == want {
				return r
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no result for %v within deadline", want)
	return LoadResult{}
}

func TestLoaderFallsBackToGeneratorOnMiss(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	gen := &stubGenerator{}
	l := NewLoader(dir, gen, 2, 16)
	defer l.Close()

	require.True(t, l.Request(coord(1), 0))
	r := awaitResult(t, l, coord(1))
	assert.Equal(t, Generated, r.Kind)
	require.NotNil(t, r.Chunk)
	assert.Equal(t, coord(1), r.Chunk.Coord)
	assert.Len(t, gen.calls, 1)
}

func TestLoaderLoadsExistingChunk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &chunkstore.Chunk{Coord: coord(2), Terrain: octree.New(16, 4)}
	require.NoError(t, chunkstore.SaveChunk(dir, c))

	l := NewLoader(dir, nil, 2, 16)
	defer l.Close()

	require.True(t, l.Request(coord(2), 0))
	r := awaitResult(t, l, coord(2))
	assert.Equal(t, Loaded, r.Kind)
	assert.Equal(t, coord(2), r.Chunk.Coord)
}

func TestLoaderReportsNotFoundWithoutGenerator(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	l := NewLoader(dir, nil, 1, 16)
	defer l.Close()

	require.True(t, l.Request(coord(3), 0))
	r := awaitResult(t, l, coord(3))
	assert.Equal(t, NotFound, r.Kind)
}

type blockingGenerator struct{ release chan struct{} }

func (g *blockingGenerator) Generate(coord voxel.ChunkCoord) *chunkstore.Chunk {
	<-g.release
	return &chunkstore.Chunk{Coord: coord, Terrain: octree.New(16, 4)}
}

func TestRequestRejectsDuplicatePending(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	gen := &blockingGenerator{release: make(chan struct{})}
	l := NewLoader(dir, gen, 1, 16)
	defer func() {
		close(gen.release)
		l.Close()
	}()

	// Occupy the single in-flight slot so coord(4) cannot be popped off
	// the pending tree yet.
	require.True(t, l.Request(coord(0), 0))
	awaitInFlight(t, l, coord(0))

	require.True(t, l.Request(coord(4), 5))
	assert.False(t, l.Request(coord(4), 9))
}

func awaitInFlight(t *testing.T, l *Loader, c voxel.ChunkCoord) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := l.inFlight.Load(c); ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("coord %v never went in-flight", c)
}

func TestCancelDropsUnpoppedRequestResult(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	gen := &stubGenerator{}
	l := NewLoader(dir, gen, 4, 16)
	defer l.Close()

	require.True(t, l.Request(coord(5), 0))
	l.Cancel(coord(5))

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		for _, r := range l.PollResults() {
			require.NotEqual(t, coord(5), r.Coord, "cancelled result must not surface")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPriorityOrderingPopsHighestFirst(t *testing.T) {
	t.Parallel()
	var key1, key2, key3 requestKey
	key1 = requestKey{priority: 1, seq: 0}
	key2 = requestKey{priority: 5, seq: 1}
	key3 = requestKey{priority: 5, seq: 0}

	// Higher priority sorts first; equal priority breaks ties by
	// earlier sequence number.
	assert.Equal(t, 1, key1.Cmp(key2))
	assert.Equal(t, -1, key2.Cmp(key1))
	assert.Equal(t, 1, key2.Cmp(key3))
}
