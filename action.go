// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog

// Action is a deferred unit of work queued by a producer and invoked
// exactly once, on the I/O goroutine, against the shared [AsyncLog] sink.
//
// An Action must be self-contained: it owns copies of any data it will
// later emit, since it may run long after the producer that submitted it
// has moved on (or exited).
type Action func(AsyncLog)

// AsyncLog is the external sink this package's I/O goroutine drives.
// Formatting, trace-event emission, latency bookkeeping, and file handles
// all live on the concrete implementation; this package only calls the
// two methods below itself. An [Action] is free to call further methods
// on the concrete type it was built to target.
type AsyncLog interface {
	// SetCurrentTracePidTid is called once before a TLQ's actions are
	// invoked, so the sink can attribute the following actions to the
	// producer that queued them.
	SetCurrentTracePidTid(s string)

	// Flush is called once per I/O loop iteration, after every TLQ that
	// was ready has been drained.
	Flush()
}
