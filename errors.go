// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog

import (
	"errors"

	"braces.dev/errtrace"
)

// ErrProducerInvariantViolation indicates [TLQ.Submit] needed more than
// the three state-CAS attempts the wait-freedom proof in spec §4.1
// allows. This is a bug in the buffer-state machine, not a transient
// condition: the caller is expected to crash loudly (see [TLQ.Submit]).
// Submit also panics with it when releasing its WriteLock fails.
var ErrProducerInvariantViolation = errors.New("asynclog: producer invariant violation: submit exceeded 3 CAS attempts")

// ErrRingSlotCASAnomaly indicates the I/O goroutine's back-CAS from a
// readable ring slot to its next writable tag failed. A slot the I/O
// goroutine believes is exclusively its own to retire cannot fail this
// CAS under the ring's protocol; observing failure is a bug.
// [TLQ.ConsumerSwap] also panics with it when releasing the read
// buffer's ReadLock fails.
var ErrRingSlotCASAnomaly = errors.New("asynclog: ring slot CAS anomaly: slot mutated outside consumer protocol")

// ErrMisuseFromIOThread is returned by [Logger.StopLogging] and
// [Logger.StopTracing] when called from the I/O goroutine itself, which
// would deadlock waiting on its own barrier action.
var ErrMisuseFromIOThread = errors.New("asynclog: called from the I/O goroutine")

// wrap adds a call-site trace to err without altering its errors.Is
// identity, or returns nil if err is nil.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	return errtrace.Wrap(err)
}
