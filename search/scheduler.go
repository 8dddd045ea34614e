package search

import "time"

// Timer is a scheduled callback that can be stopped before it runs.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Sessions take one so hosts and tests can
// control time; SystemScheduler uses the runtime timer.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

var SystemScheduler Scheduler = systemScheduler{}
