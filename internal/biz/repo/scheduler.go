package repo

import "time"

// Scheduler is the consumed timer capability. Callbacks run on their own
// goroutine and must be panic-isolated by the implementation; timers are not
// persisted across restarts.
type Scheduler interface {
	// After runs fn once after the delay.
	After(d time.Duration, fn func())

	// Every runs fn repeatedly at the given interval until the scheduler
	// stops.
	Every(d time.Duration, fn func())

	// DailyAt runs fn every day at the given UTC time of day.
	DailyAt(hour, minute int, fn func())
}
