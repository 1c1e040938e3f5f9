package repo

import (
	"context"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
)

// RelayedItem is the platform's view of a message the bot relayed somewhere
// it owns, carrying the file reference needed for byte access.
type RelayedItem struct {
	MessageID int
	FileID    string
}

// MessageGateway is the consumed messaging-platform capability. The core
// never initiates connection or auth; it only calls these operations.
type MessageGateway interface {
	// SendText sends a plain-text message.
	SendText(ctx context.Context, chatID int64, text string) error

	// SendMarkdown sends a Markdown-formatted message with link previews
	// disabled.
	SendMarkdown(ctx context.Context, chatID int64, text string) error

	// SendPhoto sends raw image bytes with a caption and returns the new
	// message id.
	SendPhoto(ctx context.Context, chatID int64, data []byte, caption string) (int, error)

	// Forward copies a message to dstChatID and returns the relayed item.
	Forward(ctx context.Context, dstChatID, srcChatID int64, messageID int) (*RelayedItem, error)

	// Delete removes a message from a chat.
	Delete(ctx context.Context, chatID int64, messageID int) error

	// FileBytes downloads the raw bytes behind a file reference.
	FileBytes(ctx context.Context, fileID string) ([]byte, error)

	// MemberRole returns the platform role of a user in a chat.
	MemberRole(ctx context.Context, chatID, userID int64) (domain.Role, error)

	// ChatMetadata returns the title and public handle of a chat. The handle
	// is empty for private chats.
	ChatMetadata(ctx context.Context, chatID int64) (title, handle string, err error)
}
