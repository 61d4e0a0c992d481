// Package clock abstracts time lookup so that tests can control it.
package clock

import "time"

// Clock hands out the current time.
type Clock interface {
	Now() time.Time
}

type clock struct{}

// New returns a Clock backed by the system time.
func New() Clock {
	return &clock{}
}

func (c *clock) Now() time.Time {
	return time.Now()
}

// ManagedClock is a hand-managed clock. Intended for tests.
type ManagedClock struct {
	startTime time.Time
	offset    time.Duration
}

// NewManaged returns a ManagedClock starting at the provided time.
func NewManaged(startTime time.Time) *ManagedClock {
	return &ManagedClock{startTime: startTime}
}

// Now returns the current managed time
func (c *ManagedClock) Now() time.Time {
	return c.startTime.Add(c.offset)
}

// WarpForward moves time forward by the provided offset and returns the new time.
// There is no WarpBackward. Time should never go backwards, especially in your tests.
func (c *ManagedClock) WarpForward(offset time.Duration) time.Time {
	c.offset += offset
	return c.startTime.Add(c.offset)
}
