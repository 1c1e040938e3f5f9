package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNextDaily(t *testing.T) {
	now := time.Date(2024, 3, 10, 13, 59, 0, 0, time.UTC)

	next := NextDaily(now, 14, 5)
	if want := time.Date(2024, 3, 10, 14, 5, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}

	next = NextDaily(time.Date(2024, 3, 10, 14, 5, 0, 0, time.UTC), 14, 5)
	if want := time.Date(2024, 3, 11, 14, 5, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected next day when already at the boundary, got %v", next)
	}
}

func TestTimerScheduler_AfterFires(t *testing.T) {
	s := NewTimerScheduler(zerolog.Nop())
	s.Start(context.Background())
	defer s.Stop()

	done := make(chan struct{})
	s.After(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestTimerScheduler_EveryRepeats(t *testing.T) {
	s := NewTimerScheduler(zerolog.Nop())
	s.Start(context.Background())

	var fired atomic.Int32
	s.Every(5*time.Millisecond, func() { fired.Add(1) })

	deadline := time.After(time.Second)
	for fired.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("ticker did not fire twice")
		case <-time.After(time.Millisecond):
		}
	}
	s.Stop()
}

func TestTimerScheduler_StopCancelsPending(t *testing.T) {
	s := NewTimerScheduler(zerolog.Nop())
	s.Start(context.Background())

	var fired atomic.Int32
	s.After(time.Hour, func() { fired.Add(1) })
	s.Stop()

	if fired.Load() != 0 {
		t.Error("cancelled timer still fired")
	}
}

func TestTimerScheduler_PanicIsIsolated(t *testing.T) {
	s := NewTimerScheduler(zerolog.Nop())
	s.Start(context.Background())
	defer s.Stop()

	s.After(time.Millisecond, func() { panic("boom") })

	done := make(chan struct{})
	s.After(10*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler stopped working after a panic")
	}
}
