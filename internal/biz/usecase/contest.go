package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
)

// ContestUsecase keeps the per-user per-day accepted-item counters and ranks
// them for the daily announcement.
type ContestUsecase struct {
	ledger       repo.LedgerRepo
	rolloverHour int
}

// NewContestUsecase creates a new contest usecase.
func NewContestUsecase(ledger repo.LedgerRepo, rolloverHour int) *ContestUsecase {
	return &ContestUsecase{ledger: ledger, rolloverHour: rolloverHour}
}

// Record adds delta accepted items for the submitter in the contest day the
// timestamp falls into.
func (uc *ContestUsecase) Record(ctx context.Context, sub domain.Submitter, chatID int64, delta int, at time.Time) error {
	day := domain.ContestDay(at, uc.rolloverHour)
	if err := uc.ledger.IncrementContest(ctx, sub, chatID, day, delta); err != nil {
		return fmt.Errorf("increment contest: %w", err)
	}
	return nil
}

// Day returns the contest-day bucket for a timestamp.
func (uc *ContestUsecase) Day(at time.Time) string {
	return domain.ContestDay(at, uc.rolloverHour)
}

// Winners returns the winner and runner-up for (chat, day). The runner-up is
// nil unless its count is strictly positive.
func (uc *ContestUsecase) Winners(ctx context.Context, chatID int64, day string) (winner, runnerUp *domain.ContestRecord, err error) {
	records, err := uc.ledger.TopContest(ctx, chatID, day, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("top contest: %w", err)
	}
	records = domain.RankRecords(records)
	if len(records) == 0 || records[0].Count == 0 {
		return nil, nil, nil
	}
	winner = records[0]
	if len(records) > 1 && records[1].Count > 0 {
		runnerUp = records[1]
	}
	return winner, runnerUp, nil
}
