package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
)

// Repositories contains all persistent repositories, backed by one SQLite
// database.
type Repositories struct {
	Ledger   repo.LedgerRepo
	Groups   repo.GroupRepo
	Settings repo.SettingsRepo

	db *sql.DB
}

// NewRepositories opens the database and initializes every repository.
func NewRepositories(dbPath string) (*Repositories, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ledger, err := NewLedgerRepo(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	groups, err := NewGroupRepo(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	settings, err := NewSettingsRepo(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Repositories{
		Ledger:   ledger,
		Groups:   groups,
		Settings: settings,
		db:       db,
	}, nil
}

// Close closes the shared database handle.
func (r *Repositories) Close() error {
	return r.db.Close()
}
