package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Submitter identifies the author of a feedback submission.
type Submitter struct {
	ID          int64
	Username    string // public handle, may be empty
	DisplayName string
}

// Name returns the best human-readable name for the submitter.
func (s Submitter) Name() string {
	if s.Username != "" {
		return "@" + s.Username
	}
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return fmt.Sprintf("User %d", s.ID)
}

// Origin identifies the chat a submission came from.
type Origin struct {
	ChatID int64
	Title  string
	Handle string // public handle, empty for private chats
}

// FeedbackEvent is one accepted submission item. Immutable once created.
type FeedbackEvent struct {
	Submitter  Submitter
	Origin     Origin
	MessageID  int
	Link       string
	AcceptedAt time.Time
}

// NewFeedbackEvent builds an event for one part of an accepted submission.
func NewFeedbackEvent(sub Submitter, origin Origin, messageID int, at time.Time) *FeedbackEvent {
	return &FeedbackEvent{
		Submitter:  sub,
		Origin:     origin,
		MessageID:  messageID,
		Link:       MessageLink(origin, messageID),
		AcceptedAt: at,
	}
}

// MessageLink builds a clickable reference to a message. Public chats link
// through their handle; private chats use the numeric-id form with the
// supergroup prefix stripped.
func MessageLink(origin Origin, messageID int) string {
	if origin.Handle != "" {
		return fmt.Sprintf("https://t.me/%s/%d", origin.Handle, messageID)
	}
	id := strconv.FormatInt(origin.ChatID, 10)
	id = strings.TrimPrefix(id, "-100")
	id = strings.TrimPrefix(id, "-")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}
