package pledgetest

import (
	"time"

	"github.com/iov-one/pledge"
)

// Clock is a pledge.TimeSource implementation with a manually controlled
// current time. Use it to test any time dependent logic.
type Clock struct {
	now pledge.UnixMsTime
}

var _ pledge.TimeSource = (*Clock)(nil)

// NewClock returns a clock set to the given moment.
func NewClock(now pledge.UnixMsTime) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() pledge.UnixMsTime {
	return c.now
}

// Set moves the clock to the given moment. Moving back in time is
// allowed.
func (c *Clock) Set(now pledge.UnixMsTime) {
	c.now = now
}

// Advance moves the clock forward by the given duration.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// AdvanceDays moves the clock forward by the given number of full days.
func (c *Clock) AdvanceDays(n int) {
	c.now = c.now.Add(time.Duration(n) * 24 * time.Hour)
}
