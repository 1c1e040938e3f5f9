package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
)

// Update is a normalized incoming message. The rest of the system never sees
// SDK types.
type Update struct {
	ChatID    int64
	ChatType  string // private, group, supergroup
	ChatTitle string
	MessageID int
	Text      string // message text or media caption

	// Command is the bare command name ("fb_stats") when the message is a
	// command addressed to this bot, empty otherwise.
	Command     string
	CommandArgs string

	MediaGroupID string
	MediaKind    domain.MediaKind
	PhotoFileID  string // largest rendition, photos only
	DocumentName string

	Sender domain.Submitter
	// AnonymousAdmin is set when the message was posted on behalf of the
	// chat itself, which Telegram does for admins hiding their identity.
	AnonymousAdmin bool

	// Reply* describe the message this one replies to, if any.
	ReplyToMessageID    int
	ReplyToSender       *domain.Submitter
	ReplyToKind         domain.MediaKind
	ReplyToCaption      string
	ReplyToMediaGroupID string
	ReplyToPhotoFileID  string
}

// UpdateHandler is the callback for normalized incoming messages.
type UpdateHandler func(u *Update)

// Client wraps the Telegram Bot API: long polling in, typed sends out.
type Client struct {
	bot      *tgbotapi.BotAPI
	onUpdate UpdateHandler
	log      zerolog.Logger
}

// NewClient authenticates against the Bot API.
func NewClient(token string, debug bool, log zerolog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = debug
	log.Info().Str("username", bot.Self.UserName).Msg("authenticated with telegram")
	return &Client{bot: bot, log: log}, nil
}

// OnUpdate sets the message handler.
func (c *Client) OnUpdate(handler UpdateHandler) {
	c.onUpdate = handler
}

// Start long-polls for updates until the context is cancelled. Messages are
// handled one at a time so parts of the same media group arrive in receive
// order.
func (c *Client) Start(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := c.bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || c.onUpdate == nil {
				continue
			}
			c.onUpdate(c.normalize(update.Message))
		}
	}
}

// normalize flattens an SDK message into an Update.
func (c *Client) normalize(msg *tgbotapi.Message) *Update {
	u := &Update{
		ChatID:       msg.Chat.ID,
		ChatType:     msg.Chat.Type,
		ChatTitle:    msg.Chat.Title,
		MessageID:    msg.MessageID,
		Text:         messageText(msg),
		MediaGroupID: msg.MediaGroupID,
	}
	u.MediaKind, u.PhotoFileID, u.DocumentName = mediaOf(msg)

	if msg.From != nil {
		u.Sender = submitterOf(msg.From)
	}
	// Anonymous admins post as the chat itself.
	if msg.SenderChat != nil && msg.SenderChat.ID == msg.Chat.ID {
		u.AnonymousAdmin = true
	}

	if msg.IsCommand() {
		// Command() already strips the @botname suffix.
		u.Command = msg.Command()
		u.CommandArgs = strings.TrimSpace(msg.CommandArguments())
	}

	if reply := msg.ReplyToMessage; reply != nil {
		u.ReplyToMessageID = reply.MessageID
		u.ReplyToCaption = messageText(reply)
		u.ReplyToMediaGroupID = reply.MediaGroupID
		u.ReplyToKind, u.ReplyToPhotoFileID, _ = mediaOf(reply)
		if reply.From != nil {
			sender := submitterOf(reply.From)
			u.ReplyToSender = &sender
		}
	}
	return u
}

func submitterOf(user *tgbotapi.User) domain.Submitter {
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	return domain.Submitter{
		ID:          user.ID,
		Username:    user.UserName,
		DisplayName: name,
	}
}

func messageText(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

func mediaOf(msg *tgbotapi.Message) (kind domain.MediaKind, photoFileID, documentName string) {
	switch {
	case len(msg.Photo) > 0:
		// Renditions are ordered smallest to largest.
		return domain.MediaPhoto, msg.Photo[len(msg.Photo)-1].FileID, ""
	case msg.Video != nil:
		return domain.MediaVideo, "", ""
	case msg.Animation != nil:
		return domain.MediaAnimation, "", ""
	case msg.Document != nil:
		return domain.MediaDocument, "", msg.Document.FileName
	default:
		return domain.MediaNone, "", ""
	}
}
