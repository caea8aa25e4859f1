// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog

import "code.hybscloud.com/asynclog/internal/faultlog"

// reportFault reports a synchronous bug condition (spec §7:
// ProducerInvariantViolation, RingSlotCASAnomaly) to the fallback sink
// before the caller panics.
func reportFault(err error, kv ...any) {
	faultlog.Default.Error(err.Error(), kv...)
}

// reportOverCapacity reports spec §7's OverCapacityRegistration, a
// warning that does not prevent registration from proceeding.
func reportOverCapacity(registered, max int) {
	faultlog.Default.Warn("more producers registered than max_threads_to_log",
		"registered", registered, "max", max)
}
