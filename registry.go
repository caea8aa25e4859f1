// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog

import "sync"

// registry tracks every live TLQ and the orphanage of TLQs whose
// producer has exited but whose content the I/O goroutine hasn't fully
// drained yet (spec §4.3). Registration and unregistration are
// mutex-guarded; neither is on the hot path. The final "mark for
// destroy" list is consumer-private: only the I/O goroutine, running
// inside the orphan's own final Action, ever appends to it, and only the
// I/O goroutine ever drains it (in retireOrphans, at the end of a loop
// iteration).
type registry struct {
	mu           sync.Mutex
	live         map[*TLQ]struct{}
	orphans      map[*TLQ]struct{}
	maxProducers int

	// Rolling totals of contention counters from TLQs that have been
	// unregistered, plus whatever collectLiveStats has rolled in from
	// live and orphaned TLQs, restored from original_source/loadgen/logging.cc
	// (spec.md's distillation dropped these; SPEC_FULL §6 restores them).
	totalSubmitCASFails     int64
	totalSwapRequestRetries int64
	toDestroy               []*TLQ
}

func newRegistry(maxProducers int) *registry {
	return &registry{
		live:         make(map[*TLQ]struct{}),
		orphans:      make(map[*TLQ]struct{}),
		maxProducers: maxProducers,
	}
}

// register inserts tlq into the live set. Emits a warning (does not
// fail) if this pushes registered membership past maxProducers (spec
// §7: OverCapacityRegistration) — the ring still services excess
// producers, just with more contention.
func (r *registry) register(tlq *TLQ) {
	r.mu.Lock()
	r.live[tlq] = struct{}{}
	n := len(r.live)
	r.mu.Unlock()

	if n > r.maxProducers {
		reportOverCapacity(n, r.maxProducers)
	}
}

// unregister transfers tlq to the orphanage, then removes it from the
// live set, in that order so the I/O goroutine's view of "registered or
// orphaned" never has a gap (spec §4.3 invariant).
func (r *registry) unregister(tlq *TLQ) {
	r.mu.Lock()
	r.orphans[tlq] = struct{}{}
	delete(r.live, tlq)
	r.mu.Unlock()
}

// collectStats rolls tlq's contention counters into the registry-wide
// totals. Called from the orphan's final Action, on the I/O goroutine.
func (r *registry) collectStats(tlq *TLQ) {
	submitCASFails, swapRequestRetries := tlq.collectStats()
	r.totalSubmitCASFails += submitCASFails
	r.totalSwapRequestRetries += swapRequestRetries
}

// collectLiveStats rolls every currently live or orphaned TLQ's counters
// into the totals without removing them, for a point-in-time report
// (used by Logger.StopLogging's detail barrier, mirroring the original
// implementation's behavior on stop).
func (r *registry) collectLiveStats() {
	r.mu.Lock()
	tlqs := make([]*TLQ, 0, len(r.live)+len(r.orphans))
	for tlq := range r.live {
		tlqs = append(tlqs, tlq)
	}
	for tlq := range r.orphans {
		tlqs = append(tlqs, tlq)
	}
	r.mu.Unlock()

	for _, tlq := range tlqs {
		r.collectStats(tlq)
	}
}

// markForDestroy records tlq as safe to erase from the orphanage. I/O
// goroutine only; called from inside tlq's own final Action.
func (r *registry) markForDestroy(tlq *TLQ) {
	r.toDestroy = append(r.toDestroy, tlq)
}

// retireOrphans erases every handle markForDestroy recorded since the
// last call, under the orphanage mutex. I/O goroutine only, called at
// the end of each loop iteration (spec §4.4 step 5).
func (r *registry) retireOrphans() {
	if len(r.toDestroy) == 0 {
		return
	}
	r.mu.Lock()
	for _, tlq := range r.toDestroy {
		delete(r.orphans, tlq)
	}
	r.mu.Unlock()
	r.toDestroy = r.toDestroy[:0]
}

// stats returns the rolling contention totals collected so far.
func (r *registry) stats() (submitCASFails, swapRequestRetries int64) {
	return r.totalSubmitCASFails, r.totalSwapRequestRetries
}
