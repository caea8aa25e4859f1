// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package faultlog

import (
	"os"
	"sync"
	"time"

	"code.hybscloud.com/iox"
	"github.com/rs/zerolog"
)

const queueCapacity = 256

// Writer drains diagnostic records queued by (possibly many) producer
// goroutines and writes them through a single zerolog logger, so
// concurrent error/warning reports never interleave their output.
type Writer struct {
	logger zerolog.Logger
	queue  *mpscQueue

	startOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New returns a Writer backed by zerolog writing to w.
func New(w *os.File) *Writer {
	return &Writer{
		logger: zerolog.New(w).With().Timestamp().Logger(),
		queue:  newMPSCQueue(queueCapacity),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Default is the process-wide fallback sink, writing to stderr.
var Default = New(os.Stderr)

func (w *Writer) ensureStarted() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

func (w *Writer) run() {
	defer close(w.done)
	backoff := iox.Backoff{}
	for {
		select {
		case <-w.stop:
			w.drainRemaining()
			return
		default:
		}
		rec, ok := w.queue.dequeue()
		if !ok {
			backoff.Wait()
			continue
		}
		backoff.Reset()
		w.write(rec)
	}
}

func (w *Writer) drainRemaining() {
	for {
		rec, ok := w.queue.dequeue()
		if !ok {
			return
		}
		w.write(rec)
	}
}

func (w *Writer) write(rec record) {
	var ev *zerolog.Event
	switch rec.level {
	case "warn":
		ev = w.logger.Warn()
	default:
		ev = w.logger.Error()
	}
	for i := 0; i+1 < len(rec.kv); i += 2 {
		key, _ := rec.kv[i].(string)
		ev = ev.Interface(key, rec.kv[i+1])
	}
	ev.Msg(rec.msg)
}

// Error reports a synchronous error condition (spec §7:
// ProducerInvariantViolation, RingSlotCASAnomaly). Non-blocking: if the
// internal queue is momentarily full, writes directly instead of
// dropping the report.
func (w *Writer) Error(msg string, kv ...any) {
	w.report("error", msg, kv)
}

// Warn reports a non-fatal condition (spec §7: OverCapacityRegistration).
func (w *Writer) Warn(msg string, kv ...any) {
	w.report("warn", msg, kv)
}

func (w *Writer) report(level, msg string, kv []any) {
	w.ensureStarted()
	rec := record{level: level, msg: msg, kv: kv}
	if !w.queue.tryEnqueue(rec) {
		w.write(rec)
	}
}

// Close stops the background drain goroutine after flushing any queued
// records. Calls after the first return immediately.
func (w *Writer) Close() {
	select {
	case <-w.stop:
		return
	default:
	}
	w.ensureStarted()
	close(w.stop)
	select {
	case <-w.done:
	case <-time.After(time.Second):
	}
}
