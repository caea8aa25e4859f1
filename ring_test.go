// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog

import (
	"sync"
	"testing"
	"unsafe"
)

func TestSwapRequestRingRequestGatherRoundTrip(t *testing.T) {
	ring := newSwapRequestRing(2) // 4 slots
	q1 := newTLQ(ring, "q1")
	q2 := newTLQ(ring, "q2")

	ring.request(q1)
	ring.request(q2)

	got := ring.gather(nil)
	if len(got) != 2 {
		t.Fatalf("gather() returned %d entries, want 2", len(got))
	}
	seen := map[*TLQ]bool{got[0]: true, got[1]: true}
	if !seen[q1] || !seen[q2] {
		t.Fatalf("gather() = %v, want [q1 q2] in some order", got)
	}

	// Every slot the gather claimed should now carry the next writable
	// tag, not the claimed TLQ pointer, since claim() retags on read.
	if len(ring.gather(nil)) != 0 {
		t.Fatal("second gather() with no new requests should return nothing")
	}
}

func TestSwapRequestRingMonotonicIDs(t *testing.T) {
	ring := newSwapRequestRing(1)
	q := newTLQ(ring, "")

	var ids []uint64
	for i := 0; i < 10; i++ {
		before := ring.nextID.LoadAcquire()
		ring.request(q)
		ids = append(ids, before)
		ring.gather(nil)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("swap_request_id not monotonic: ids[%d]=%d <= ids[%d]=%d", i, ids[i], i-1, ids[i-1])
		}
	}
}

// TestSwapRequestRingGatherDefersUnreadableSlot exercises the retry path:
// a slot whose producer hasn't finished the claiming CAS yet is deferred
// and picked up on a later gather.
func TestSwapRequestRingGatherDefersUnreadableSlot(t *testing.T) {
	ring := newSwapRequestRing(1) // 2 slots
	q := newTLQ(ring, "")

	id := ring.nextID.AddAcqRel(1) - 1
	slot := id % ring.size
	// Leave the slot in its writable state for this id without
	// publishing q's pointer, simulating a producer that hasn't CAS'd
	// yet.

	if got := ring.gather(nil); len(got) != 0 {
		t.Fatalf("gather() = %v before the producer publishes, want empty", got)
	}

	ring.slots[slot].CompareAndSwapAcqRel(writableTag(id), uintptr(unsafe.Pointer(q)))
	got := ring.gather(nil)
	if len(got) != 1 || got[0] != q {
		t.Fatalf("gather() after late publish = %v, want [q]", got)
	}
}

func TestSwapRequestRingConcurrentRequests(t *testing.T) {
	if RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering the race detector cannot model")
	}

	ring := newSwapRequestRing(8)
	const producers = 8
	const perProducer = 200

	tlqs := make([]*TLQ, producers)
	for i := range tlqs {
		tlqs[i] = newTLQ(ring, "")
	}

	var wg sync.WaitGroup
	wg.Add(producers)
	for i := 0; i < producers; i++ {
		i := i
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				ring.request(tlqs[i])
			}
		}()
	}
	wg.Wait()

	gathered := 0
	for {
		got := ring.gather(nil)
		gathered += len(got)
		if len(got) == 0 && len(ring.retry) == 0 {
			break
		}
	}
	if gathered != producers*perProducer {
		t.Fatalf("gathered %d requests, want %d", gathered, producers*perProducer)
	}
}
