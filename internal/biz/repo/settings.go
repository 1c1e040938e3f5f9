package repo

import "context"

// SettingsRepo is a small key-value store for runtime settings and the
// single current watermark asset.
type SettingsRepo interface {
	// Get returns the value for key, or "" if unset.
	Get(ctx context.Context, key string) (string, error)

	// Set stores the value for key.
	Set(ctx context.Context, key, value string) error

	// SaveWatermark replaces the watermark asset, discarding the previous
	// one, and returns the new revision id.
	SaveWatermark(ctx context.Context, data []byte) (string, error)

	// LoadWatermark returns the current watermark bytes, or nil if none is
	// stored.
	LoadWatermark(ctx context.Context) ([]byte, error)

	// Close releases the underlying database handle.
	Close() error
}

// Setting keys.
const (
	SettingForwardTarget = "forward_target"
)
