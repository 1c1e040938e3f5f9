package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
)

// TimerScheduler implements the scheduler capability on plain timers. Every
// callback runs on its own goroutine with panic isolation, so one failing
// submission cannot block or corrupt unrelated timers. Timers are not
// persisted; a restart drops everything in flight.
type TimerScheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    zerolog.Logger
}

var _ repo.Scheduler = (*TimerScheduler)(nil)

// NewTimerScheduler creates a stopped scheduler; call Start before use.
func NewTimerScheduler(log zerolog.Logger) *TimerScheduler {
	return &TimerScheduler{log: log}
}

// Start makes the scheduler accept timers.
func (s *TimerScheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
}

// Stop cancels all pending timers and waits for running callbacks.
func (s *TimerScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// After runs fn once after the delay.
func (s *TimerScheduler) After(d time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
		case <-timer.C:
			s.safely(fn)
		}
	}()
}

// Every runs fn repeatedly at the given interval.
func (s *TimerScheduler) Every(d time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.safely(fn)
			}
		}
	}()
}

// DailyAt runs fn every day at the given UTC time of day.
func (s *TimerScheduler) DailyAt(hour, minute int, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			wait := time.Until(NextDaily(time.Now(), hour, minute))
			timer := time.NewTimer(wait)
			select {
			case <-s.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.safely(fn)
			}
		}
	}()
}

// NextDaily returns the next occurrence of the given UTC time of day,
// strictly after now.
func NextDaily(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// safely isolates a callback so a panic is logged instead of crashing the
// process.
func (s *TimerScheduler) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("scheduled callback panicked")
		}
	}()
	fn()
}
