// Package clock abstracts wall-clock access so time-dependent logic
// (timestamps, time-frame filters, staleness checks) can be tested with a
// fixed instant.
package clock

import "time"

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by time.Now
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed is a Clock that always returns the same instant. Intended for tests.
type Fixed struct {
	Instant time.Time
}

func (f Fixed) Now() time.Time { return f.Instant }
