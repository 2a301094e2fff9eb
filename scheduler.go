package redlock

import "time"

// Scheduler delays spin retries.
type Scheduler interface {
	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// SystemScheduler waits on the wall clock.
type SystemScheduler struct{}

func (SystemScheduler) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
