// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asynclog

import "time"

// defaultPollPeriod is the I/O goroutine's default wait timeout between
// iterations (spec §4.4, §6).
const defaultPollPeriod = 10 * time.Millisecond

// defaultMaxProducers is the default sizing constant M (spec §6): the
// ring gets 2*M slots, and the registry soft-caps at M live producers.
const defaultMaxProducers = 1024

// Config configures a [Logger].
type Config struct {
	// PollPeriod is how long the I/O goroutine sleeps between loop
	// iterations. Only [Logger.Stop] ends the sleep early; swap requests
	// wait for the next iteration.
	PollPeriod time.Duration

	// MaxProducers (M) sizes the swap-request ring at 2*M slots and is
	// the soft cap on simultaneously registered producers.
	MaxProducers int
}

// NewConfig returns a [Config] with spec-default values, ready to pass to
// [New] directly or adjust with the fluent With* methods.
func NewConfig() Config {
	return Config{
		PollPeriod:   defaultPollPeriod,
		MaxProducers: defaultMaxProducers,
	}
}

// WithPollPeriod returns a copy of c with PollPeriod set to d, for
// chaining; c itself is not modified.
func (c Config) WithPollPeriod(d time.Duration) Config {
	c.PollPeriod = d
	return c
}

// WithMaxProducers returns a copy of c with MaxProducers set to m, for
// chaining; c itself is not modified.
func (c Config) WithMaxProducers(m int) Config {
	c.MaxProducers = m
	return c
}

// normalized returns c with zero-valued fields replaced by defaults.
func (c Config) normalized() Config {
	if c.PollPeriod <= 0 {
		c.PollPeriod = defaultPollPeriod
	}
	if c.MaxProducers <= 0 {
		c.MaxProducers = defaultMaxProducers
	}
	return c
}
