package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
)

// StatsUsecase answers the recent-feedback queries behind /fb_stats and
// /check.
type StatsUsecase struct {
	ledger repo.LedgerRepo
	window time.Duration
	clock  func() time.Time
}

// NewStatsUsecase creates a new stats usecase with the given lookback window.
func NewStatsUsecase(ledger repo.LedgerRepo, window time.Duration) *StatsUsecase {
	return &StatsUsecase{ledger: ledger, window: window, clock: time.Now}
}

// SetClock overrides the wall clock, for tests.
func (uc *StatsUsecase) SetClock(clock func() time.Time) {
	uc.clock = clock
}

// Recent returns the chat's feedback events inside the lookback window,
// newest first.
func (uc *StatsUsecase) Recent(ctx context.Context, chatID int64) ([]*domain.FeedbackEvent, error) {
	events, err := uc.ledger.RecentEvents(ctx, chatID, uc.clock().Add(-uc.window))
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}

// RecentByUser returns one user's feedback events in a chat inside the
// lookback window, newest first.
func (uc *StatsUsecase) RecentByUser(ctx context.Context, userID, chatID int64) ([]*domain.FeedbackEvent, error) {
	events, err := uc.ledger.RecentEventsByUser(ctx, userID, chatID, uc.clock().Add(-uc.window))
	if err != nil {
		return nil, fmt.Errorf("recent events by user: %w", err)
	}
	return events, nil
}

// WindowDays returns the lookback window in whole days, for display.
func (uc *StatsUsecase) WindowDays() int {
	return int(uc.window / (24 * time.Hour))
}
