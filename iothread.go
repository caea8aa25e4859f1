// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog

import (
	"time"

	"code.hybscloud.com/atomix"
)

// ioThread is the single consumer goroutine (spec §4.4): one iteration
// per pollPeriod, each iteration running wait, gather, process, flush,
// retire orphans in that order. It is the only goroutine that ever
// calls swapRequestRing.gather, TLQ.ConsumerSwap/StartReading/Entries/
// FinishReading, or registry.retireOrphans.
type ioThread struct {
	pollPeriod time.Duration
	ring       *swapRequestRing
	reg        *registry
	sink       AsyncLog

	stopCh chan struct{}
	done   chan struct{}

	// executingAction is true for the span in which the loop is invoking
	// queued Actions. Logger.StopLogging/StopTracing test it to detect
	// being called reentrantly from inside an Action the I/O goroutine
	// is itself currently running — the one case a Go goroutine really
	// can identify about "is this me" without OS thread-local storage,
	// and the only case that would otherwise deadlock on its own
	// barrier (DESIGN.md, Open Question decision 2).
	executingAction atomix.Bool

	// Consumer-private carry-over state between ticks.
	swapPending  []*TLQ
	swapDeferred []*TLQ
	readPending  []*TLQ
}

func newIOThread(pollPeriod time.Duration, ring *swapRequestRing, reg *registry, sink AsyncLog) *ioThread {
	return &ioThread{
		pollPeriod: pollPeriod,
		ring:       ring,
		reg:        reg,
		sink:       sink,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (t *ioThread) start() {
	go t.loop()
}

func (t *ioThread) stop() {
	close(t.stopCh)
	<-t.done
}

func (t *ioThread) onIOGoroutine() bool {
	return t.executingAction.LoadAcquire()
}

func (t *ioThread) loop() {
	defer close(t.done)
	timer := time.NewTimer(t.pollPeriod)
	defer timer.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-timer.C:
		}
		t.tick()
		timer.Reset(t.pollPeriod)
	}
}

// SinkScopedTracer is an optional AsyncLog capability (SPEC_FULL.md §6,
// restored from original_source/loadgen/logging.cc's per-phase trace
// spans) letting a sink measure the I/O loop's own overhead. Off by
// default: the core calls it only if the sink implements it.
type SinkScopedTracer interface {
	// ScopedTrace marks the start of a named span and returns a closer
	// to call at its end.
	ScopedTrace(name string) func()
}

func (t *ioThread) scopedTrace(name string) func() {
	if tr, ok := t.sink.(SinkScopedTracer); ok {
		return tr.ScopedTrace(name)
	}
	return func() {}
}

// tick runs the four steps of one loop iteration that follow the wait
// (spec §4.4); the wait itself happens in loop.
func (t *ioThread) tick() {
	defer t.scopedTrace("io_loop_tick")()

	func() {
		defer t.scopedTrace("gather")()
		t.gather()
	}()
	func() {
		defer t.scopedTrace("process")()
		t.process()
	}()
	func() {
		defer t.scopedTrace("flush")()
		t.sink.Flush()
	}()
	func() {
		defer t.scopedTrace("retire_orphans")()
		t.reg.retireOrphans()
	}()
}

// gather collects every TLQ with a pending swap request — TLQs deferred
// from a previous tick first, then everything the ring itself yields
// (retries first, then new ids) — performs the consumer-side buffer swap
// on each, and queues it for reading. A TLQ whose previous read buffer
// hasn't been fully consumed yet (unread_swaps != 0, spec §3) is not
// swapped again this tick — ConsumerSwap would overwrite state the read
// side hasn't finished with — so it is carried into swapDeferred instead
// of being dropped: its swap request has already been claimed out of the
// ring by the time gather sees it, so the ring will never hand it back
// (threads_to_swap_deferred_ in the original).
func (t *ioThread) gather() {
	pending := append(t.swapDeferred[:0:0], t.swapDeferred...)
	t.swapDeferred = t.swapDeferred[:0]
	t.swapPending = t.ring.gather(t.swapPending[:0])
	pending = append(pending, t.swapPending...)

	for _, tlq := range pending {
		if !tlq.ReadBufferConsumed() {
			t.swapDeferred = append(t.swapDeferred, tlq)
			continue
		}
		tlq.ConsumerSwap()
		t.readPending = append(t.readPending, tlq)
	}
}

// process drains every queued TLQ's readable buffer through the sink's
// actions, in submission order per TLQ (spec §5: per-producer prefix
// ordering). A TLQ whose StartReading CAS fails because its producer is
// still mid-Submit on that buffer is kept for the next tick rather than
// dropped.
func (t *ioThread) process() {
	t.executingAction.StoreRelease(true)
	defer t.executingAction.StoreRelease(false)

	remaining := t.readPending[:0]
	for _, tlq := range t.readPending {
		if !tlq.StartReading() {
			remaining = append(remaining, tlq)
			continue
		}
		t.sink.SetCurrentTracePidTid(tlq.TracePidTid())
		for _, action := range tlq.Entries() {
			action(t.sink)
		}
		tlq.FinishReading()
	}
	t.readPending = remaining
}
