// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package streaming

// BrickPool is the fixed-capacity GPU-resident slot buffer from §4.9:
// a slot holds at most one brick's payload, slots track the frame they
// were last touched on, and allocation prefers a free slot before
// falling back to evicting the slot with the oldest last-used frame
// among slots not touched in the current frame.
type BrickPool struct {
	capacity      int
	slotBrick     []BrickID
	occupied      []bool
	lastUsedFrame []uint64
	brickSlot     map[BrickID]SlotIndex
	free          []SlotIndex
}

// NewBrickPool builds an empty pool with the given slot capacity.
func NewBrickPool(capacity int) *BrickPool {
	p := &BrickPool{
		capacity:      capacity,
		slotBrick:     make([]BrickID, capacity),
		occupied:      make([]bool, capacity),
		lastUsedFrame: make([]uint64, capacity),
		brickSlot:     make(map[BrickID]SlotIndex, capacity),
		free:          make([]SlotIndex, capacity),
	}
	for i := 0; i < capacity; i++ {
		p.free[i] = SlotIndex(capacity - 1 - i)
	}
	return p
}

// Capacity returns the total slot count.
func (p *BrickPool) Capacity() int { return p.capacity }

// Lookup returns the slot currently holding id, if any.
func (p *BrickPool) Lookup(id BrickID) (SlotIndex, bool) {
	s, ok := p.brickSlot[id]
	return s, ok
}

// Touch updates a resident slot's last-used frame, without changing
// its contents. Used when a brick is re-requested while already
// resident, so it isn't the eviction candidate next frame.
func (p *BrickPool) Touch(slot SlotIndex, frame uint64) {
	p.lastUsedFrame[slot] = frame
}

// Allocate reserves a slot for id at the given frame: a free slot if
// one exists, otherwise the occupied slot with the oldest
// last-used-frame among slots not already touched this frame. Returns
// (InvalidSlot, _, false) if every occupied slot was already touched
// this frame (nothing left to evict without violating "resident this
// frame stays resident this frame").
func (p *BrickPool) Allocate(id BrickID, frame uint64) (slot SlotIndex, evictedID BrickID, evicted bool) {
	if n := len(p.free); n > 0 {
		slot = p.free[n-1]
		p.free = p.free[:n-1]
		p.occupy(slot, id, frame)
		return slot, BrickID{}, false
	}

	victim := InvalidSlot
	var victimAge uint64
	for s := 0; s < p.capacity; s++ {
		if p.lastUsedFrame[s] == frame {
			continue
		}
		if victim == InvalidSlot || p.lastUsedFrame[s] < victimAge {
			victim = SlotIndex(s)
			victimAge = p.lastUsedFrame[s]
		}
	}
	if victim == InvalidSlot {
		return InvalidSlot, BrickID{}, false
	}

	evictedID = p.slotBrick[victim]
	delete(p.brickSlot, evictedID)
	p.occupy(victim, id, frame)
	return victim, evictedID, true
}

func (p *BrickPool) occupy(slot SlotIndex, id BrickID, frame uint64) {
	p.slotBrick[slot] = id
	p.occupied[slot] = true
	p.lastUsedFrame[slot] = frame
	p.brickSlot[id] = slot
}

// Free releases slot back to the pool, without waiting for it to be
// naturally evicted. Used when a chunk containing this brick is
// unloaded outright.
func (p *BrickPool) Free(slot SlotIndex) {
	if !p.occupied[slot] {
		return
	}
	id := p.slotBrick[slot]
	delete(p.brickSlot, id)
	p.occupied[slot] = false
	p.slotBrick[slot] = BrickID{}
	p.free = append(p.free, slot)
}

// Occupied reports whether slot currently holds a brick.
func (p *BrickPool) Occupied(slot SlotIndex) bool { return p.occupied[slot] }
