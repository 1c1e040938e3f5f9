package repo

import "context"

// GroupRepo persists which chats and users the bot will work for, plus
// per-group reminder texts.
type GroupRepo interface {
	// AuthorizeGroup marks a chat as authorized.
	AuthorizeGroup(ctx context.Context, chatID int64, title string) error

	// IsGroupAuthorized reports whether a chat is authorized.
	IsGroupAuthorized(ctx context.Context, chatID int64) (bool, error)

	// ListGroups returns all authorized chat ids.
	ListGroups(ctx context.Context) ([]int64, error)

	// AuthorizeUser grants a user privileged commands regardless of their
	// platform role.
	AuthorizeUser(ctx context.Context, userID int64) error

	// IsUserAuthorized reports whether a user was manually authorized.
	IsUserAuthorized(ctx context.Context, userID int64) (bool, error)

	// SetReminder stores the periodic reminder text for a chat.
	SetReminder(ctx context.Context, chatID int64, text string) error

	// Reminders returns reminder text by chat id for every chat that has one.
	Reminders(ctx context.Context) (map[int64]string, error)

	// Close releases the underlying database handle.
	Close() error
}
