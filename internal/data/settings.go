package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
)

// settingsRepo implements the key-value settings store and the watermark
// asset slot.
type settingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo creates the settings repository and its schema.
func NewSettingsRepo(db *sql.DB) (repo.SettingsRepo, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	// Single-row slot: replacing the watermark discards the previous one.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS watermark (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			revision TEXT NOT NULL,
			data BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermark table: %w", err)
	}

	return &settingsRepo{db: db}, nil
}

// Get returns the value for key, or "" if unset.
func (r *settingsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return value, nil
}

// Set stores the value for key.
func (r *settingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

// SaveWatermark replaces the watermark asset and returns its new revision.
func (r *settingsRepo) SaveWatermark(ctx context.Context, data []byte) (string, error) {
	revision := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO watermark (id, revision, data, updated_at) VALUES (1, ?, ?, ?)
	`, revision, data, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to save watermark: %w", err)
	}
	return revision, nil
}

// LoadWatermark returns the current watermark bytes, or nil if none.
func (r *settingsRepo) LoadWatermark(ctx context.Context) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM watermark WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load watermark: %w", err)
	}
	return data, nil
}

// Close is a no-op; the shared handle is closed by Repositories.
func (r *settingsRepo) Close() error {
	return nil
}
