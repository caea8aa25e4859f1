// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package asynclog provides a low-overhead, forward-progress logging core
// for benchmark and measurement harnesses.
//
// Log producers run on hot measurement goroutines and must never block,
// stall, or perform I/O. This package decouples log production (cheap,
// wait-free, on the caller's goroutine) from log consumption (all
// stringification, serialization, and output I/O, on a single dedicated
// I/O goroutine).
//
// # Quick Start
//
//	logger := asynclog.New(asynclog.NewConfig(), sink)
//	logger.Start()
//	defer logger.Stop()
//
//	h := logger.Acquire("pid=1, tid=2")
//	defer h.Close()
//
//	h.Log(func(sink asynclog.AsyncLog) {
//	    sink.SetCurrentTracePidTid("pid=1, tid=2")
//	})
//
// # Concurrency model
//
// Any number of producer goroutines, exactly one I/O goroutine. A
// producer obtains a [Handle] bound to exactly one [TLQ] and must only
// call [Handle.Log] from that one goroutine — the same "owning producer
// only" constraint the underlying [TLQ.Submit] has. [Handle.Close] hands
// the TLQ's remaining content to the orphanage so the producer goroutine
// never waits on the I/O goroutine to drain it.
//
// # Ordering
//
// Actions submitted by a single producer are delivered to [AsyncLog] in
// submission order. There is no ordering guarantee across different
// producers.
//
// # Non-goals
//
// Durability across process crash, and back-pressure on producers, are
// both explicitly refused: if the I/O goroutine stalls, queued memory
// grows unbounded rather than blocking a producer.
package asynclog
