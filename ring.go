// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// writableTag encodes "this slot is free to be claimed by the producer
// holding request id", distinguishable from any TLQ pointer by
// its set low bit (spec §3: pointers to heap objects are at least
// 2-byte aligned, so a real pointer never has bit 0 set).
func writableTag(id uint64) uintptr {
	return uintptr((id << 1) | 1)
}

func isReadable(v uintptr) bool {
	return v&1 == 0
}

// slotRetry remembers a slot whose producer hadn't finished its claiming
// CAS yet, to be rechecked on a later gather tick.
type slotRetry struct {
	slot   uint64
	nextID uint64
}

// swapRequestRing is a fixed array of 2*M tagged atomic slots producers
// use to announce "my write buffer is full, please swap me" (spec §3,
// §4.2). Producers call request; only the I/O goroutine calls gather.
type swapRequestRing struct {
	_      pad
	nextID atomix.Uint64 // swap_request_id, producer-incremented
	_      pad
	slots  []atomix.Uintptr
	size   uint64

	// Consumer-private.
	readID uint64 // swap_request_id_read
	retry  []slotRetry
}

func newSwapRequestRing(maxProducers int) *swapRequestRing {
	size := uint64(maxProducers) * 2
	r := &swapRequestRing{
		slots: make([]atomix.Uintptr, size),
		size:  size,
	}
	for i := uint64(0); i < size; i++ {
		r.slots[i].StoreRelaxed(writableTag(i))
	}
	return r
}

// request announces that tlq's write buffer should be swapped. Producer
// side: wait-free per attempt; an unbounded retry sequence is possible
// only if the I/O goroutine is completely stalled (spec §4.2), in which
// case the producer is still making forward progress on each attempt.
// Returns the number of CAS retries observed, for contention stats.
func (r *swapRequestRing) request(tlq *TLQ) (retries int64) {
	ptr := uintptr(unsafe.Pointer(tlq))
	sw := spin.Wait{}
	for {
		id := r.nextID.AddAcqRel(1) - 1
		slot := id % r.size
		expected := writableTag(id)
		if r.slots[slot].CompareAndSwapAcqRel(expected, ptr) {
			return retries
		}
		retries++
		sw.Once()
	}
}

// claim tries to take ownership of the TLQ pointer parked in slot,
// re-tagging the slot writable for the id that will next land there.
// Returns nil if the slot isn't readable yet (the owning producer hasn't
// finished its claiming CAS).
func (r *swapRequestRing) claim(slot, nextID uint64) *TLQ {
	v := r.slots[slot].LoadAcquire()
	if !isReadable(v) {
		return nil
	}
	if !r.slots[slot].CompareAndSwapAcqRel(v, writableTag(nextID)) {
		reportFault(ErrRingSlotCASAnomaly, "slot", slot)
		panic(ErrRingSlotCASAnomaly)
	}
	return (*TLQ)(unsafe.Pointer(v))
}

// gather appends every TLQ that has a pending swap request to out, in
// two passes: slots deferred from a previous tick first, then every new
// id up to the current swap_request_id (spec §4.2). I/O goroutine only.
func (r *swapRequestRing) gather(out []*TLQ) []*TLQ {
	out = r.gatherRetries(out)
	return r.gatherNew(out)
}

func (r *swapRequestRing) gatherRetries(out []*TLQ) []*TLQ {
	if len(r.retry) == 0 {
		return out
	}
	pending := r.retry
	r.retry = nil
	for _, sr := range pending {
		if tlq := r.claim(sr.slot, sr.nextID); tlq != nil {
			out = append(out, tlq)
		} else {
			r.retry = append(r.retry, sr)
		}
	}
	return out
}

func (r *swapRequestRing) gatherNew(out []*TLQ) []*TLQ {
	end := r.nextID.LoadAcquire()
	for ; r.readID < end; r.readID++ {
		slot := r.readID % r.size
		nextID := r.readID + r.size
		if tlq := r.claim(slot, nextID); tlq != nil {
			out = append(out, tlq)
			continue
		}
		r.deferRetry(slot, nextID)
	}
	return out
}

func (r *swapRequestRing) deferRetry(slot, nextID uint64) {
	for i := range r.retry {
		if r.retry[i].slot == slot {
			r.retry[i].nextID = nextID
			return
		}
	}
	r.retry = append(r.retry, slotRetry{slot: slot, nextID: nextID})
}
