package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
)

// groupRepo implements group/user authorization and per-group reminders.
type groupRepo struct {
	db *sql.DB
}

// NewGroupRepo creates the group repository and its schema.
func NewGroupRepo(db *sql.DB) (repo.GroupRepo, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS authorized_groups (
			chat_id INTEGER PRIMARY KEY,
			title TEXT,
			added_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorized_groups table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS authorized_users (
			user_id INTEGER PRIMARY KEY,
			added_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorized_users table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reminders (
			chat_id INTEGER PRIMARY KEY,
			reminder_text TEXT NOT NULL,
			added_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminders table: %w", err)
	}

	return &groupRepo{db: db}, nil
}

// AuthorizeGroup marks a chat as authorized.
func (r *groupRepo) AuthorizeGroup(ctx context.Context, chatID int64, title string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO authorized_groups (chat_id, title, added_at) VALUES (?, ?, ?)
	`, chatID, title, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to authorize group: %w", err)
	}
	return nil
}

// IsGroupAuthorized reports whether a chat is authorized.
func (r *groupRepo) IsGroupAuthorized(ctx context.Context, chatID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM authorized_groups WHERE chat_id = ?`, chatID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check group authorization: %w", err)
	}
	return true, nil
}

// ListGroups returns all authorized chat ids.
func (r *groupRepo) ListGroups(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chat_id FROM authorized_groups`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AuthorizeUser grants a user privileged commands.
func (r *groupRepo) AuthorizeUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO authorized_users (user_id, added_at) VALUES (?, ?)
	`, userID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to authorize user: %w", err)
	}
	return nil
}

// IsUserAuthorized reports whether a user was manually authorized.
func (r *groupRepo) IsUserAuthorized(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM authorized_users WHERE user_id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user authorization: %w", err)
	}
	return true, nil
}

// SetReminder stores the periodic reminder text for a chat.
func (r *groupRepo) SetReminder(ctx context.Context, chatID int64, text string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reminders (chat_id, reminder_text, added_at) VALUES (?, ?, ?)
	`, chatID, text, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set reminder: %w", err)
	}
	return nil
}

// Reminders returns reminder text by chat id.
func (r *groupRepo) Reminders(ctx context.Context) (map[int64]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chat_id, reminder_text FROM reminders`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	reminders := make(map[int64]string)
	for rows.Next() {
		var chatID int64
		var text string
		if err := rows.Scan(&chatID, &text); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders[chatID] = text
	}
	return reminders, rows.Err()
}

// Close is a no-op; the shared handle is closed by Repositories.
func (r *groupRepo) Close() error {
	return nil
}
