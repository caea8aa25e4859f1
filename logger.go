// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog

import (
	"fmt"
	"io"
	"os"
	"time"
)

// SinkFileConfigurer is an optional capability an [AsyncLog] may
// implement to support [Logger.StartLogging]. The core never requires
// it; Logger type-asserts for it.
type SinkFileConfigurer interface {
	SetLogFiles(summary, detail io.Writer)
}

// SinkTracer is an optional capability an [AsyncLog] may implement to
// support [Logger.StartNewTrace] / [Logger.StopTracing].
type SinkTracer interface {
	StartNewTrace(out io.Writer, origin time.Time)
}

// SinkDetailLogger is an optional capability an [AsyncLog] may implement
// to receive the contention-counter report [Logger.StopLogging] emits.
type SinkDetailLogger interface {
	LogDetail(msg string)
}

// Logger is the process-wide entry point: it owns the [registry], the
// orphanage, the [swapRequestRing], and the I/O goroutine, and hands out
// [Handle]s to producer goroutines (spec §4.5).
//
// The constructor/destructor-driven thread-local auto-registration from
// the C++ original has no Go equivalent (goroutines have no exit
// destructor and migrate across OS threads) — see SPEC_FULL.md §2 for
// the redesign this type implements instead: explicit, defer-friendly
// [Handle] acquisition.
type Logger struct {
	cfg  Config
	ring *swapRequestRing
	reg  *registry
	io   *ioThread
	sink AsyncLog
}

// New constructs a Logger against sink, wiring the ring and registry per
// cfg. The I/O goroutine is not started until [Logger.Start].
func New(cfg Config, sink AsyncLog) *Logger {
	cfg = cfg.normalized()
	reg := newRegistry(cfg.MaxProducers)
	ring := newSwapRequestRing(cfg.MaxProducers)
	return &Logger{
		cfg:  cfg,
		ring: ring,
		reg:  reg,
		io:   newIOThread(cfg.PollPeriod, ring, reg, sink),
		sink: sink,
	}
}

// Start launches the I/O goroutine (spec §4.4, §6).
func (l *Logger) Start() {
	l.io.start()
}

// Stop signals the I/O goroutine to exit and waits for it to do so.
// Pending and orphaned entries are discarded (spec §7:
// ShutdownDataLoss — documented, not an error).
func (l *Logger) Stop() {
	l.io.stop()
}

// Acquire returns a new [Handle] bound to a freshly constructed TLQ,
// registered with the Logger. tracePidTid identifies the producer in
// trace output (pid/tid discovery is the calling program's concern, not
// the core's — spec §1 Non-goals); pass "" if the caller doesn't care.
// The caller must only use the handle from one goroutine, and must call
// [Handle.Close] when that goroutine is done producing.
func (l *Logger) Acquire(tracePidTid string) *Handle {
	tlq := newTLQ(l.ring, tracePidTid)
	l.reg.register(tlq)
	return &Handle{logger: l, tlq: tlq}
}

// Log submits one action through a throwaway, single-use [Handle]. It
// is meant for infrequent control-path calls (barrier actions, one-off
// diagnostics) — a producer on a hot measurement path should call
// [Logger.Acquire] once and reuse the returned [Handle] instead, since
// this convenience pays a registry round trip on every call.
func (l *Logger) Log(action Action) {
	h := l.Acquire("")
	h.Log(action)
	h.Close()
}

// StartLogging configures sink's output files, if sink implements
// [SinkFileConfigurer]. A no-op otherwise.
func (l *Logger) StartLogging(summary, detail io.Writer) {
	if c, ok := l.sink.(SinkFileConfigurer); ok {
		c.SetLogFiles(summary, detail)
	}
}

// StopLogging flushes every producer's queued entries, reports rolling
// contention counters through [SinkDetailLogger] if sink implements it,
// then reverts sink's output files to stderr. It blocks until the
// barrier action has executed on the I/O goroutine (spec §6, §8
// scenario 6).
//
// Returns [ErrMisuseFromIOThread] without doing any of this if called
// from inside an action the I/O goroutine is currently executing, which
// would deadlock waiting on its own barrier.
func (l *Logger) StopLogging() error {
	if l.io.onIOGoroutine() {
		reportFault(ErrMisuseFromIOThread)
		return wrap(ErrMisuseFromIOThread)
	}

	done := make(chan struct{})
	h := l.Acquire("")
	h.Log(func(sink AsyncLog) {
		l.reg.collectLiveStats()
		if dw, ok := sink.(SinkDetailLogger); ok {
			submitCASFails, swapRequestRetries := l.reg.stats()
			dw.LogDetail("Log Contention Counters:")
			dw.LogDetail(fmt.Sprintf("%d : submit_cas_fail_count", submitCASFails))
			dw.LogDetail(fmt.Sprintf("%d : swap_request_retry_count", swapRequestRetries))
		}
		close(done)
	})
	h.Close()
	<-done

	if c, ok := l.sink.(SinkFileConfigurer); ok {
		c.SetLogFiles(os.Stderr, os.Stderr)
	}
	return nil
}

// StartNewTrace configures sink to begin tracing to out, if sink
// implements [SinkTracer]. A no-op otherwise.
func (l *Logger) StartNewTrace(out io.Writer, origin time.Time) {
	if t, ok := l.sink.(SinkTracer); ok {
		t.StartNewTrace(out, origin)
	}
}

// StopTracing flushes every producer's queued entries, then stops
// tracing (spec §6). Same barrier-wait and I/O-goroutine misuse
// rejection as [Logger.StopLogging].
func (l *Logger) StopTracing() error {
	if l.io.onIOGoroutine() {
		reportFault(ErrMisuseFromIOThread)
		return wrap(ErrMisuseFromIOThread)
	}

	done := make(chan struct{})
	h := l.Acquire("")
	h.Log(func(AsyncLog) { close(done) })
	h.Close()
	<-done

	if t, ok := l.sink.(SinkTracer); ok {
		t.StartNewTrace(nil, time.Now())
	}
	return nil
}

// Stats returns the rolling contention counters collected from
// unregistered and currently-live producers (SPEC_FULL.md §6).
func (l *Logger) Stats() (submitCASFails, swapRequestRetries int64) {
	return l.reg.stats()
}

// Handle is a producer goroutine's exclusive binding to one [TLQ] (spec
// §4.5, redesigned per SPEC_FULL.md §2). Must be used from one goroutine
// only, and closed when that goroutine is done producing.
type Handle struct {
	logger *Logger
	tlq    *TLQ
	closed bool
}

// Log submits action to the handle's TLQ (producer-goroutine only).
func (h *Handle) Log(action Action) {
	h.tlq.Submit(action)
}

// Close unregisters the handle's TLQ and transfers it to the orphanage,
// submitting one last action that collects its final contention counters
// and marks it safe to destroy once the I/O goroutine has drained it
// (spec §4.3, §9). Calls after the first are no-ops.
func (h *Handle) Close() {
	if h.closed {
		return
	}
	h.closed = true
	tlq := h.tlq
	h.logger.reg.unregister(tlq)
	tlq.Submit(func(AsyncLog) {
		h.logger.reg.collectStats(tlq)
		h.logger.reg.markForDestroy(tlq)
	})
}
