// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog_test

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// recordingSink is an AsyncLog test double: it appends every string an
// Action hands it, tagged with whichever producer SetCurrentTracePidTid
// last named, and counts Flush calls. Safe for the single I/O goroutine
// to mutate and for a test goroutine to read once the I/O goroutine has
// been stopped.
type recordingSink struct {
	mu          sync.Mutex
	lines       []string
	currentTag  string
	flushes     int
	details     []string
	files       []string
	tracingOn   bool
	traceOrigin time.Time
	spans       []string
}

func (s *recordingSink) SetCurrentTracePidTid(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTag = tag
}

func (s *recordingSink) Append(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, s.currentTag+": "+fmt.Sprintf(format, args...))
}

func (s *recordingSink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
}

func (s *recordingSink) LogDetail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details = append(s.details, msg)
}

func (s *recordingSink) SetLogFiles(summary, detail io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, fmt.Sprintf("%v,%v", summary, detail))
}

func (s *recordingSink) StartNewTrace(out io.Writer, origin time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracingOn = out != nil
	s.traceOrigin = origin
}

func (s *recordingSink) ScopedTrace(name string) func() {
	s.mu.Lock()
	s.spans = append(s.spans, name+":start")
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.spans = append(s.spans, name+":end")
		s.mu.Unlock()
	}
}

func (s *recordingSink) snapshot() (lines []string, flushes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out, s.flushes
}

// retryWithTimeout polls cond until it returns true, and returns false
// if timeout passes first. Mirrors the backoff-and-poll idiom used throughout the
// package this core was adapted from.
func retryWithTimeout(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}
