// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package faultlog

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMPSCQueueEnqueueDequeueOrder(t *testing.T) {
	q := newMPSCQueue(4)
	for i := 0; i < 4; i++ {
		if !q.tryEnqueue(record{level: "error", msg: strings.Repeat("x", i)}) {
			t.Fatalf("tryEnqueue(%d) failed under capacity", i)
		}
	}
	for i := 0; i < 4; i++ {
		rec, ok := q.dequeue()
		if !ok {
			t.Fatalf("dequeue(%d) returned false", i)
		}
		if rec.msg != strings.Repeat("x", i) {
			t.Fatalf("dequeue(%d).msg = %q", i, rec.msg)
		}
	}
	if _, ok := q.dequeue(); ok {
		t.Fatal("dequeue on empty queue returned true")
	}
}

func TestMPSCQueueConcurrentProducers(t *testing.T) {
	q := newMPSCQueue(8)
	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for !q.tryEnqueue(record{level: "error", msg: "x"}) {
				}
			}
		}()
	}

	drained := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for drained < producers*perProducer {
			if _, ok := q.dequeue(); ok {
				drained++
			}
		}
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("drained only %d of %d records", drained, producers*perProducer)
	}
}

func TestWriterReportsErrorAndWarn(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "faultlog")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := New(f)
	w.Error("boom", "attempts", 3)
	w.Warn("over capacity", "registered", 5)
	w.Close()

	out, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out, []byte("boom")) {
		t.Fatalf("output missing error message: %s", out)
	}
	if !bytes.Contains(out, []byte("over capacity")) {
		t.Fatalf("output missing warn message: %s", out)
	}
}

func TestWriterCloseWithoutAnyReportDoesNotHang(t *testing.T) {
	w := New(os.Stderr)
	done := make(chan struct{})
	go func() {
		w.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close hung when the drain goroutine was never started")
	}
}
