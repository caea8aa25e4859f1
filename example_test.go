// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog_test

import (
	"fmt"

	"code.hybscloud.com/asynclog"
)

// printSink is a minimal AsyncLog that does nothing itself: the example
// Actions print with fmt.Println directly. Flush is a no-op since
// fmt.Println already writes synchronously.
type printSink struct{}

func (printSink) SetCurrentTracePidTid(string) {}
func (printSink) Flush()                       {}

// ExampleLogger demonstrates a single producer logging through a
// [asynclog.Handle]. [asynclog.Logger.StopLogging] is used as a barrier
// so every queued Action has run before the example checks its output.
func ExampleLogger() {
	logger := asynclog.New(asynclog.NewConfig(), printSink{})
	logger.Start()
	defer logger.Stop()

	h := logger.Acquire("pid=1, tid=1")
	h.Log(func(asynclog.AsyncLog) { fmt.Println("measurement started") })
	h.Log(func(asynclog.AsyncLog) { fmt.Println("measurement finished") })
	h.Close()

	logger.StopLogging()

	// Output:
	// measurement started
	// measurement finished
}

// ExampleLogger_multipleProducers demonstrates two independent producers
// each keeping their own submission order, interleaved arbitrarily with
// each other (spec: no cross-producer ordering guarantee). StopLogging
// is used to make the example's own prints deterministic.
func ExampleLogger_multipleProducers() {
	logger := asynclog.New(asynclog.NewConfig(), printSink{})
	logger.Start()
	defer logger.Stop()

	a := logger.Acquire("producer-a")
	b := logger.Acquire("producer-b")

	var aSeen, bSeen []int
	for i := 0; i < 3; i++ {
		i := i
		a.Log(func(asynclog.AsyncLog) { aSeen = append(aSeen, i) })
		b.Log(func(asynclog.AsyncLog) { bSeen = append(bSeen, i) })
	}
	a.Close()
	b.Close()

	logger.StopLogging()

	fmt.Println("a:", aSeen)
	fmt.Println("b:", bSeen)

	// Output:
	// a: [0 1 2]
	// b: [0 1 2]
}
