// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package faultlog is the synchronous fallback diagnostic sink used when
// this module's own concurrency invariants are violated (spec §7):
// producer-path errors must reach an operator without taking a lock on
// the hot path and without corrupting interleaved output when many
// producer goroutines report at once.
//
// The queue in this file is a many-producer/single-consumer bounded
// queue specialized from code.hybscloud.com/lfq's MPSC algorithm (FAA
// producers claim slots blindly, a single background goroutine drains
// them in order) down to exactly the one record type this package needs.
package faultlog

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

type record struct {
	level string
	msg   string
	kv    []any
}

// mpscQueue is an FAA-based bounded queue: producers claim a slot with a
// fetch-add and validate it with a per-slot cycle counter, requiring 2n
// physical slots for capacity n. See lfq.MPSC for the general form this
// is adapted from.
type mpscQueue struct {
	_        [64]byte
	head     atomix.Uint64
	_        [64]byte
	tail     atomix.Uint64
	_        [64]byte
	buffer   []mpscSlot
	capacity uint64
	size     uint64
	mask     uint64
}

type mpscSlot struct {
	cycle atomix.Uint64
	data  record
	_     [64 - 8]byte
}

func newMPSCQueue(capacity int) *mpscQueue {
	n := uint64(roundToPow2(capacity))
	size := n * 2
	q := &mpscQueue{
		buffer:   make([]mpscSlot, size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}
	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}
	return q
}

// tryEnqueue reports whether rec was queued; false means the queue is
// momentarily full (the caller falls back to writing directly).
func (q *mpscQueue) tryEnqueue(rec record) bool {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadRelaxed()
		if tail >= head+q.capacity {
			return false
		}

		myTail := q.tail.AddAcqRel(1) - 1
		slot := &q.buffer[myTail&q.mask]
		expectedCycle := myTail / q.capacity
		slotCycle := slot.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			slot.data = rec
			slot.cycle.StoreRelease(expectedCycle + 1)
			return true
		}
		if int64(slotCycle) < int64(expectedCycle) {
			return false
		}
		sw.Once()
	}
}

// dequeue removes and returns the next record (single consumer only).
func (q *mpscQueue) dequeue() (record, bool) {
	head := q.head.LoadRelaxed()
	cycle := head / q.capacity
	slot := &q.buffer[head&q.mask]

	slotCycle := slot.cycle.LoadAcquire()
	if slotCycle != cycle+1 {
		return record{}, false
	}

	rec := slot.data
	slot.data = record{}
	nextEnqCycle := (head + q.size) / q.capacity
	slot.cycle.StoreRelease(nextEnqCycle)
	q.head.StoreRelaxed(head + 1)
	return rec, true
}

func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
