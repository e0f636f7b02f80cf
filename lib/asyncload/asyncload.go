// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package asyncload implements the bounded-concurrency priority chunk
// loader (§4.10): requests are queued by priority and drained by a
// single worker goroutine that never lets more than maxInFlight loads
// run at once, spawning the blocking chunkstore.LoadChunk call (and
// falling back to generation on a miss) off the caller's hot path.
package asyncload

import (
	"errors"
	"sync"
	"sync/atomic"

	"git.lukeshu.com/go/typedsync"

	"github.com/voxcraft/core/lib/chunkstore"
	"github.com/voxcraft/core/lib/containers"
	"github.com/voxcraft/core/lib/voxel"
)

// ResultKind discriminates the LoadResult sum type.
type ResultKind int

const (
	Loaded ResultKind = iota
	Generated
	NotFound
	LoadError
)

// LoadResult is what a completed (or failed) load publishes to the
// output channel, per §4.10.
type LoadResult struct {
	Coord voxel.ChunkCoord
	Kind  ResultKind
	Chunk *chunkstore.Chunk
	Err   error
}

// Generator produces a chunk for a coord that isn't on disk yet. The
// loader only calls it after chunkstore.LoadChunk reports ErrNotFound.
type Generator interface {
	Generate(coord voxel.ChunkCoord) *chunkstore.Chunk
}

// requestKey orders pending requests by priority (higher first), then
// by sequence number (lower/earlier first) to break ties in request
// order, per §4.10's "ordered by priority then request sequence
// number."
type requestKey struct {
	priority int32
	seq      uint64
}

func (a requestKey) Cmp(b requestKey) int {
	switch {
	case a.priority > b.priority:
		return -1
	case a.priority < b.priority:
		return 1
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	default:
		return 0
	}
}

type pendingEntry struct {
	key   requestKey
	coord voxel.ChunkCoord
}

// Loader is the async chunk loader described in §4.10. The zero value
// is not usable; construct with NewLoader.
type Loader struct {
	base        string
	gen         Generator
	maxInFlight int

	results chan LoadResult
	wake    chan struct{}

	mu      sync.Mutex
	pending containers.RBTree[requestKey, pendingEntry]
	byCoord map[voxel.ChunkCoord]requestKey
	nextSeq uint64

	inFlight   typedsync.Map[voxel.ChunkCoord, struct{}]
	inFlightN  int32
	cancelled  typedsync.Map[voxel.ChunkCoord, struct{}]
	stop       chan struct{}
	stopOnce   sync.Once
	workerDone chan struct{}
}

// NewLoader starts a loader's worker goroutine rooted at base (the
// chunkstore directory), falling back to gen for chunks LoadChunk
// reports as not found. maxInFlight bounds concurrent load/generate
// goroutines. resultBuffer sizes the output channel; PollResults drains
// it non-blockingly regardless.
func NewLoader(base string, gen Generator, maxInFlight, resultBuffer int) *Loader {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	l := &Loader{
		base:        base,
		gen:         gen,
		maxInFlight: maxInFlight,
		results:     make(chan LoadResult, resultBuffer),
		wake:        make(chan struct{}, 1),
		byCoord:     make(map[voxel.ChunkCoord]requestKey),
		stop:        make(chan struct{}),
		workerDone:  make(chan struct{}),
	}
	l.pending.KeyFn = func(e pendingEntry) requestKey { return e.key }
	go l.run()
	return l
}

// Request enqueues coord at the given priority (higher values win) iff
// it is not already pending, returning whether it was newly accepted.
// A coord already in flight (popped off the pending tree but not yet
// completed) is not considered pending, so a fresh Request for it will
// be accepted and raced against the in-flight load; the caller gets
// whichever LoadResult for coord it reads first from PollResults.
func (l *Loader) Request(coord voxel.ChunkCoord, priority int32) bool {
	l.mu.Lock()
	if _, ok := l.byCoord[coord]; ok {
		l.mu.Unlock()
		return false
	}
	key := requestKey{priority: priority, seq: l.nextSeq}
	l.nextSeq++
	l.byCoord[coord] = key
	l.pending.Insert(pendingEntry{key: key, coord: coord})
	l.mu.Unlock()

	l.cancelled.LoadAndDelete(coord)

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Cancel removes coord from the pending set if it hasn't been popped
// for loading yet. An in-flight load (already handed to a worker
// goroutine) still runs to completion and still publishes its
// LoadResult; Cancel only marks it to be dropped rather than attempting
// to stop the goroutine or purge the channel.
func (l *Loader) Cancel(coord voxel.ChunkCoord) {
	l.mu.Lock()
	if key, ok := l.byCoord[coord]; ok {
		delete(l.byCoord, coord)
		l.pending.Delete(key)
	}
	l.mu.Unlock()
	l.cancelled.Store(coord, struct{}{})
}

// PollResults drains every completed result currently buffered, without
// blocking. Results for coords cancelled before their load completed
// are silently dropped rather than returned.
func (l *Loader) PollResults() []LoadResult {
	var out []LoadResult
	for {
		select {
		case r := <-l.results:
			if _, cancelled := l.cancelled.LoadAndDelete(r.Coord); cancelled {
				continue
			}
			out = append(out, r)
		default:
			return out
		}
	}
}

// Close stops the worker from popping further requests off the pending
// tree and waits for the worker goroutine to exit. Load goroutines that
// were already started are not waited for and may still publish results
// after Close returns. Already-queued Request calls that never got
// popped are simply discarded.
func (l *Loader) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.workerDone
}

func (l *Loader) run() {
	defer close(l.workerDone)
	for {
		select {
		case <-l.stop:
			return
		case <-l.wake:
		}
		l.drainPending()
	}
}

// drainPending pops requests off the pending tree and spawns a load
// goroutine for each, up to maxInFlight concurrent loads, re-arming the
// wake channel if the tree still has work once the concurrency cap is
// hit (a later completion will wake it again).
func (l *Loader) drainPending() {
	for {
		if atomic.LoadInt32(&l.inFlightN) >= int32(l.maxInFlight) {
			return
		}

		l.mu.Lock()
		node := l.pending.Min()
		if node == nil {
			l.mu.Unlock()
			return
		}
		entry := node.Value
		l.pending.Delete(entry.key)
		delete(l.byCoord, entry.coord)
		l.mu.Unlock()

		atomic.AddInt32(&l.inFlightN, 1)
		l.inFlight.Store(entry.coord, struct{}{})
		go l.load(entry.coord)
	}
}

func (l *Loader) load(coord voxel.ChunkCoord) {
	defer func() {
		l.inFlight.LoadAndDelete(coord)
		atomic.AddInt32(&l.inFlightN, -1)
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}()

	chunk, err := chunkstore.LoadChunk(l.base, coord)
	switch {
	case err == nil:
		l.publish(LoadResult{Coord: coord, Kind: Loaded, Chunk: chunk})
	case errors.Is(err, chunkstore.ErrNotFound):
		if l.gen == nil {
			l.publish(LoadResult{Coord: coord, Kind: NotFound})
			return
		}
		generated := l.gen.Generate(coord)
		if generated == nil {
			l.publish(LoadResult{Coord: coord, Kind: NotFound})
			return
		}
		l.publish(LoadResult{Coord: coord, Kind: Generated, Chunk: generated})
	default:
		l.publish(LoadResult{Coord: coord, Kind: LoadError, Err: err})
	}
}

func (l *Loader) publish(r LoadResult) {
	select {
	case l.results <- r:
	default:
		// Output channel full: drop the oldest result to make room
		// rather than block the worker pool on a slow consumer.
		select {
		case <-l.results:
		default:
		}
		l.results <- r
	}
}
