package repo

import (
	"context"
	"time"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
)

// LedgerRepo is the durable store of accepted feedback events and contest
// counters (SQLite).
type LedgerRepo interface {
	// InsertEvent appends one accepted feedback event.
	InsertEvent(ctx context.Context, event *domain.FeedbackEvent) error

	// RecentEvents returns events for a chat accepted since the cutoff,
	// newest first.
	RecentEvents(ctx context.Context, chatID int64, since time.Time) ([]*domain.FeedbackEvent, error)

	// RecentEventsByUser returns one user's events in a chat since the
	// cutoff, newest first.
	RecentEventsByUser(ctx context.Context, userID, chatID int64, since time.Time) ([]*domain.FeedbackEvent, error)

	// IncrementContest adds delta to the counter for (submitter, chat, day),
	// creating the record if absent.
	IncrementContest(ctx context.Context, sub domain.Submitter, chatID int64, day string, delta int) error

	// TopContest returns up to limit contest records for (chat, day) ordered
	// by count descending, ties broken by lower submitter id.
	TopContest(ctx context.Context, chatID int64, day string, limit int) ([]*domain.ContestRecord, error)

	// DeleteEventsBefore removes events older than the cutoff and returns
	// the number removed.
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// ClearEvents removes every event and contest record (full reset).
	ClearEvents(ctx context.Context) (int64, error)

	// Close releases the underlying database handle.
	Close() error
}
