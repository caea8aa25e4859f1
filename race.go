// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package asynclog

// RaceEnabled is true when the race detector is active.
// Used by tests to skip concurrent tests such as TestTLQMutualExclusion
// and TestSwapRequestRingConcurrentRequests, which synchronize through
// cross-variable memory ordering (relaxed/acquire/release atomix fields)
// the race detector cannot model and so flags as false positives.
const RaceEnabled = true
