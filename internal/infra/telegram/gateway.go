package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
)

var _ repo.MessageGateway = (*Client)(nil)

// SendText sends a plain-text message.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendMarkdown sends a Markdown message with link previews disabled.
func (c *Client) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send markdown message: %w", err)
	}
	return nil
}

// SendPhoto uploads raw image bytes with a caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, data []byte, caption string) (int, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "photo.jpg", Bytes: data})
	photo.Caption = caption
	sent, err := c.bot.Send(photo)
	if err != nil {
		return 0, fmt.Errorf("failed to send photo: %w", err)
	}
	return sent.MessageID, nil
}

// Forward copies a message to dstChatID. The returned item carries the file
// id of the message's media, when it has any.
func (c *Client) Forward(ctx context.Context, dstChatID, srcChatID int64, messageID int) (*repo.RelayedItem, error) {
	sent, err := c.bot.Send(tgbotapi.NewForward(dstChatID, srcChatID, messageID))
	if err != nil {
		return nil, fmt.Errorf("failed to forward message: %w", err)
	}
	item := &repo.RelayedItem{MessageID: sent.MessageID}
	switch {
	case len(sent.Photo) > 0:
		item.FileID = sent.Photo[len(sent.Photo)-1].FileID
	case sent.Video != nil:
		item.FileID = sent.Video.FileID
	case sent.Animation != nil:
		item.FileID = sent.Animation.FileID
	case sent.Document != nil:
		item.FileID = sent.Document.FileID
	}
	return item, nil
}

// Delete removes a message from a chat.
func (c *Client) Delete(ctx context.Context, chatID int64, messageID int) error {
	if _, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// FileBytes downloads the raw bytes behind a file id.
func (c *Client) FileBytes(ctx context.Context, fileID string) ([]byte, error) {
	url, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}
	return data, nil
}

// MemberRole returns the platform role of a user in a chat.
func (c *Client) MemberRole(ctx context.Context, chatID, userID int64) (domain.Role, error) {
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return domain.RoleMember, fmt.Errorf("failed to get chat member: %w", err)
	}
	switch member.Status {
	case "creator":
		return domain.RoleOwner, nil
	case "administrator":
		return domain.RoleAdmin, nil
	default:
		return domain.RoleMember, nil
	}
}

// ChatMetadata returns the title and public handle of a chat.
func (c *Client) ChatMetadata(ctx context.Context, chatID int64) (string, string, error) {
	chat, err := c.bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to get chat: %w", err)
	}
	return chat.Title, chat.UserName, nil
}
