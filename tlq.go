// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog

import (
	"code.hybscloud.com/atomix"
)

// bufferState is one of Unlocked, ReadLock, WriteLock (spec §3).
type bufferState uint64

const (
	stateUnlocked bufferState = iota
	stateReadLock
	stateWriteLock
)

// TLQ is a single producer's double-buffered queue of deferred [Action]s.
//
// Two buffers E[0], E[1] alternate between "write" (appended to by the
// owning producer) and "read" (drained by the I/O goroutine) roles. At
// most one buffer is ever WriteLock'd, at most one is ever ReadLock'd, and
// i_write/i_read always name different buffers except transiently during
// [TLQ.ConsumerSwap].
//
// Submit is called only by the owning producer goroutine. ConsumerSwap,
// StartReading, FinishReading, and ReadBufferConsumed are called only by
// the single I/O goroutine. Violating either constraint corrupts state.
type TLQ struct {
	_ pad
	// state[i] guards entries[i]. Written by the owning producer
	// (Unlocked<->WriteLock) and the I/O goroutine (Unlocked<->ReadLock).
	state [2]atomix.Uint64
	_     pad
	// iWrite names the buffer producers should append to. Written by the
	// I/O goroutine on swap (relaxed — the paired release CAS on state
	// is the cross-goroutine publication), read by the producer (relaxed).
	iWrite atomix.Uint64
	_      pad

	entries [2][]Action

	// Producer-private.
	iWritePrev uint64

	// Consumer-private (I/O goroutine only).
	iRead       uint64
	unreadSwaps uint64

	// Cached identity, set once at construction, read-only thereafter.
	tracePidTid string

	// Contention counters (relaxed atomics, observational only — rolled
	// into Logger-wide totals on unregister, spec §4.3).
	submitCASFailCount   atomix.Int64
	swapRequestRetyCount atomix.Int64

	// ring is the back-reference used to announce swap requests (spec §9:
	// the TLQ references the global core only to post to the ring).
	ring *swapRequestRing
}

// newTLQ constructs a TLQ in its initial state (spec §3): state[0] =
// ReadLock, state[1] = Unlocked, iWrite = 1, iRead = 0, iWritePrev = 0.
func newTLQ(ring *swapRequestRing, tracePidTid string) *TLQ {
	q := &TLQ{
		ring:        ring,
		tracePidTid: tracePidTid,
	}
	q.state[0].Store(uint64(stateReadLock))
	q.state[1].Store(uint64(stateUnlocked))
	q.iWrite.Store(1)
	return q
}

// Submit appends action to the current write buffer (producer only).
//
// Wait-free: completes within at most 3 CAS attempts (spec §4.1). The
// only reason a relaxed load of iWrite can be stale is a concurrent swap,
// and the I/O goroutine serializes swaps of a single TLQ, so at most one
// swap can have happened since the producer last observed iWrite.
// Exceeding 3 attempts is [ErrProducerInvariantViolation] and a bug.
func (q *TLQ) Submit(action Action) {
	iw := q.iWrite.LoadRelaxed()
	attempts := 0
	for !q.state[iw].CompareAndSwapAcqRel(uint64(stateUnlocked), uint64(stateWriteLock)) {
		iw ^= 1
		attempts++
		q.submitCASFailCount.Add(1)
		if attempts >= 3 {
			reportFault(ErrProducerInvariantViolation, "attempts", attempts)
			panic(ErrProducerInvariantViolation)
		}
	}

	q.entries[iw] = append(q.entries[iw], action)

	if !q.state[iw].CompareAndSwapAcqRel(uint64(stateWriteLock), uint64(stateUnlocked)) {
		reportFault(ErrProducerInvariantViolation, "phase", "release")
		panic(ErrProducerInvariantViolation)
	}

	if iw != q.iWritePrev {
		q.iWritePrev = iw
		q.swapRequestRetyCount.Add(int64(q.ring.request(q)))
	}
}

// ConsumerSwap releases the current read buffer and publishes a new write
// buffer to the producer (I/O goroutine only).
//
// Precondition: state[iRead] == ReadLock and ReadBufferConsumed() == true.
func (q *TLQ) ConsumerSwap() {
	if !q.state[q.iRead].CompareAndSwapAcqRel(uint64(stateReadLock), uint64(stateUnlocked)) {
		reportFault(ErrRingSlotCASAnomaly, "phase", "consumer-swap-release")
		panic(ErrRingSlotCASAnomaly)
	}
	q.iWrite.StoreRelaxed(q.iRead)
	q.iRead ^= 1
	q.unreadSwaps++
}

// StartReading attempts to lock the current read buffer for draining
// (I/O goroutine only). Returns false ("try again later") if the owning
// producer is mid-Submit on this buffer; the caller retries next tick.
func (q *TLQ) StartReading() bool {
	return q.state[q.iRead].CompareAndSwapAcqRel(uint64(stateUnlocked), uint64(stateReadLock))
}

// Entries returns the current read buffer's contents. Valid only between
// a successful StartReading and the following FinishReading.
func (q *TLQ) Entries() []Action {
	return q.entries[q.iRead]
}

// FinishReading clears the read buffer and decrements unreadSwaps. Must
// only be called after a successful StartReading (I/O goroutine only).
func (q *TLQ) FinishReading() {
	q.entries[q.iRead] = q.entries[q.iRead][:0]
	q.unreadSwaps--
}

// ReadBufferConsumed reports whether the prior swap's read buffer has
// been fully drained (I/O goroutine only).
func (q *TLQ) ReadBufferConsumed() bool {
	return q.unreadSwaps == 0
}

// TracePidTid returns the cached "pid=.., tid=.." identity string set at
// construction.
func (q *TLQ) TracePidTid() string {
	return q.tracePidTid
}

// collectStats reads and resets the contention counters, returning their
// prior values for the caller to roll into a wider total.
func (q *TLQ) collectStats() (submitCASFails, swapRequestRetries int64) {
	submitCASFails = q.submitCASFailCount.Load()
	q.submitCASFailCount.Add(-submitCASFails)
	swapRequestRetries = q.swapRequestRetyCount.Load()
	q.swapRequestRetyCount.Add(-swapRequestRetries)
	return submitCASFails, swapRequestRetries
}
