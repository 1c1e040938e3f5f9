package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
)

// ledgerRepo implements the feedback ledger on SQLite.
type ledgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo creates the ledger repository and its schema.
func NewLedgerRepo(db *sql.DB) (repo.LedgerRepo, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			username TEXT,
			display_name TEXT,
			chat_id INTEGER NOT NULL,
			chat_title TEXT,
			chat_handle TEXT,
			message_id INTEGER NOT NULL,
			message_link TEXT NOT NULL,
			accepted_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback table: %w", err)
	}
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_feedback_chat_time ON feedback(chat_id, accepted_at)`)
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_feedback_user ON feedback(user_id, chat_id, accepted_at)`)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS contest (
			user_id INTEGER NOT NULL,
			chat_id INTEGER NOT NULL,
			day TEXT NOT NULL,
			username TEXT,
			display_name TEXT,
			count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, chat_id, day)
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create contest table: %w", err)
	}

	return &ledgerRepo{db: db}, nil
}

// InsertEvent appends one accepted feedback event.
func (r *ledgerRepo) InsertEvent(ctx context.Context, event *domain.FeedbackEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback (user_id, username, display_name, chat_id, chat_title, chat_handle, message_id, message_link, accepted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.Submitter.ID,
		event.Submitter.Username,
		event.Submitter.DisplayName,
		event.Origin.ChatID,
		event.Origin.Title,
		event.Origin.Handle,
		event.MessageID,
		event.Link,
		event.AcceptedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback event: %w", err)
	}
	return nil
}

var eventColumns = []string{
	"user_id", "username", "display_name",
	"chat_id", "chat_title", "chat_handle",
	"message_id", "message_link", "accepted_at",
}

func scanEvents(rows *sql.Rows) ([]*domain.FeedbackEvent, error) {
	var events []*domain.FeedbackEvent
	for rows.Next() {
		var event domain.FeedbackEvent
		var acceptedAt int64
		err := rows.Scan(
			&event.Submitter.ID,
			&event.Submitter.Username,
			&event.Submitter.DisplayName,
			&event.Origin.ChatID,
			&event.Origin.Title,
			&event.Origin.Handle,
			&event.MessageID,
			&event.Link,
			&acceptedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback event: %w", err)
		}
		event.AcceptedAt = time.Unix(acceptedAt, 0)
		events = append(events, &event)
	}
	return events, rows.Err()
}

// RecentEvents returns a chat's events since the cutoff, newest first.
func (r *ledgerRepo) RecentEvents(ctx context.Context, chatID int64, since time.Time) ([]*domain.FeedbackEvent, error) {
	query, args, err := sq.Select(eventColumns...).
		From("feedback").
		Where(sq.Eq{"chat_id": chatID}).
		Where(sq.GtOrEq{"accepted_at": since.Unix()}).
		OrderBy("accepted_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build recent events query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// RecentEventsByUser returns one user's events in a chat since the cutoff,
// newest first.
func (r *ledgerRepo) RecentEventsByUser(ctx context.Context, userID, chatID int64, since time.Time) ([]*domain.FeedbackEvent, error) {
	query, args, err := sq.Select(eventColumns...).
		From("feedback").
		Where(sq.Eq{"user_id": userID, "chat_id": chatID}).
		Where(sq.GtOrEq{"accepted_at": since.Unix()}).
		OrderBy("accepted_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user events query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// IncrementContest upserts the per-day counter for a submitter.
func (r *ledgerRepo) IncrementContest(ctx context.Context, sub domain.Submitter, chatID int64, day string, delta int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contest (user_id, chat_id, day, username, display_name, count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, chat_id, day) DO UPDATE SET
			count = count + excluded.count,
			username = excluded.username,
			display_name = excluded.display_name
	`, sub.ID, chatID, day, sub.Username, sub.DisplayName, delta)
	if err != nil {
		return fmt.Errorf("failed to increment contest count: %w", err)
	}
	return nil
}

// TopContest returns the leading contest records for (chat, day).
func (r *ledgerRepo) TopContest(ctx context.Context, chatID int64, day string, limit int) ([]*domain.ContestRecord, error) {
	query, args, err := sq.Select("user_id", "username", "display_name", "count").
		From("contest").
		Where(sq.Eq{"chat_id": chatID, "day": day}).
		OrderBy("count DESC", "user_id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build top contest query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top contest records: %w", err)
	}
	defer rows.Close()

	var records []*domain.ContestRecord
	for rows.Next() {
		record := domain.ContestRecord{ChatID: chatID, Day: day}
		if err := rows.Scan(&record.Submitter.ID, &record.Submitter.Username, &record.Submitter.DisplayName, &record.Count); err != nil {
			return nil, fmt.Errorf("failed to scan contest record: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// DeleteEventsBefore removes events older than the cutoff.
func (r *ledgerRepo) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE accepted_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old events: %w", err)
	}
	return result.RowsAffected()
}

// ClearEvents removes all events and contest records.
func (r *ledgerRepo) ClearEvents(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM feedback`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear events: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contest`); err != nil {
		return 0, fmt.Errorf("failed to clear contest records: %w", err)
	}
	return result.RowsAffected()
}

// Close is a no-op; the shared handle is closed by Repositories.
func (r *ledgerRepo) Close() error {
	return nil
}
