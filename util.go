// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog

// pad is cache line padding to prevent false sharing between fields that
// are written by different goroutines (one producer field next to one
// consumer field, for instance).
type pad [64]byte
