package server

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
	"github.com/hiji-labs/feedback-relay/internal/infra/telegram"
)

// handleCommand dispatches a bot command. Unknown commands are ignored so the
// bot stays quiet in busy groups.
func (s *BotServer) handleCommand(ctx context.Context, u *telegram.Update) {
	switch u.Command {
	case "start":
		s.cmdStart(ctx, u)
	case "addgroup":
		s.cmdAddGroup(ctx, u)
	case "authorize":
		s.cmdAuthorize(ctx, u)
	case "fb_stats":
		s.cmdStats(ctx, u)
	case "check":
		s.cmdCheck(ctx, u)
	case "addreminder":
		s.cmdAddReminder(ctx, u)
	case "setwatermark":
		s.cmdSetWatermark(ctx, u)
	case "settarget":
		s.cmdSetTarget(ctx, u)
	case "cleardb":
		s.cmdClearDB(ctx, u)
	}
}

func (s *BotServer) cmdStart(ctx context.Context, u *telegram.Update) {
	text := fmt.Sprintf(
		"Hi! I collect community feedback.\n\n"+
			"Post media with %s in the caption (or reply to your media with %s) in an authorized group and I will record and relay it.",
		s.marker, s.marker,
	)
	s.reply(ctx, u.ChatID, text)
}

// cmdAddGroup authorizes the current group for feedback collection.
func (s *BotServer) cmdAddGroup(ctx context.Context, u *telegram.Update) {
	if !isGroupChat(u.ChatType) {
		s.reply(ctx, u.ChatID, "Run /addgroup inside the group you want to add.")
		return
	}
	if !s.authz.CanModerate(ctx, u.ChatID, u.Sender.ID, u.AnonymousAdmin) {
		return
	}
	if err := s.groups.AuthorizeGroup(ctx, u.ChatID, u.ChatTitle); err != nil {
		s.log.Error().Err(err).Int64("chat", u.ChatID).Msg("failed to authorize group")
		s.reply(ctx, u.ChatID, "Could not add this group, try again later.")
		return
	}
	s.reply(ctx, u.ChatID, "✅ This group now collects feedback.")
}

// cmdAuthorize grants a user privileged commands. Owner only. The target is
// the numeric argument or the sender of the replied-to message.
func (s *BotServer) cmdAuthorize(ctx context.Context, u *telegram.Update) {
	if !s.authz.IsOwner(u.Sender.ID) {
		return
	}
	var target int64
	if u.CommandArgs != "" {
		id, err := strconv.ParseInt(u.CommandArgs, 10, 64)
		if err != nil {
			s.reply(ctx, u.ChatID, "Usage: /authorize <user id>, or reply to a message from the user.")
			return
		}
		target = id
	} else if u.ReplyToSender != nil {
		target = u.ReplyToSender.ID
	} else {
		s.reply(ctx, u.ChatID, "Usage: /authorize <user id>, or reply to a message from the user.")
		return
	}
	if err := s.groups.AuthorizeUser(ctx, target); err != nil {
		s.log.Error().Err(err).Int64("user", target).Msg("failed to authorize user")
		s.reply(ctx, u.ChatID, "Could not authorize that user.")
		return
	}
	s.reply(ctx, u.ChatID, fmt.Sprintf("✅ User %d authorized.", target))
}

// cmdStats posts the per-user feedback counts for this chat inside the
// lookback window.
func (s *BotServer) cmdStats(ctx context.Context, u *telegram.Update) {
	if !isGroupChat(u.ChatType) {
		return
	}
	events, err := s.stats.Recent(ctx, u.ChatID)
	if err != nil {
		s.log.Error().Err(err).Int64("chat", u.ChatID).Msg("failed to load stats")
		return
	}
	s.replyMarkdown(ctx, u.ChatID, StatsText(events, s.stats.WindowDays()))
}

// cmdCheck lists a user's own recent submissions with links. Replying to
// someone and running /check shows theirs instead.
func (s *BotServer) cmdCheck(ctx context.Context, u *telegram.Update) {
	if !isGroupChat(u.ChatType) {
		return
	}
	subject := u.Sender
	if u.ReplyToSender != nil {
		subject = *u.ReplyToSender
	}
	events, err := s.stats.RecentByUser(ctx, subject.ID, u.ChatID)
	if err != nil {
		s.log.Error().Err(err).Int64("user", subject.ID).Msg("failed to load user stats")
		return
	}
	s.replyMarkdown(ctx, u.ChatID, CheckText(subject, events, s.stats.WindowDays()))
}

// cmdAddReminder stores the recurring reminder text for this group.
func (s *BotServer) cmdAddReminder(ctx context.Context, u *telegram.Update) {
	if !isGroupChat(u.ChatType) {
		return
	}
	if !s.authz.CanModerate(ctx, u.ChatID, u.Sender.ID, u.AnonymousAdmin) {
		return
	}
	if u.CommandArgs == "" {
		s.reply(ctx, u.ChatID, "Usage: /addreminder <text to broadcast periodically>")
		return
	}
	if err := s.groups.SetReminder(ctx, u.ChatID, u.CommandArgs); err != nil {
		s.log.Error().Err(err).Int64("chat", u.ChatID).Msg("failed to set reminder")
		s.reply(ctx, u.ChatID, "Could not save the reminder.")
		return
	}
	s.reply(ctx, u.ChatID, "✅ Reminder saved.")
}

// cmdSetWatermark replaces the watermark asset with the photo this command
// is attached to or replies to.
func (s *BotServer) cmdSetWatermark(ctx context.Context, u *telegram.Update) {
	if !s.authz.CanModerate(ctx, u.ChatID, u.Sender.ID, u.AnonymousAdmin) {
		return
	}
	fileID := u.PhotoFileID
	if fileID == "" {
		fileID = u.ReplyToPhotoFileID
	}
	if fileID == "" {
		s.reply(ctx, u.ChatID, "Attach a photo to /setwatermark, or reply to one.")
		return
	}
	data, err := s.gateway.FileBytes(ctx, fileID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to download watermark candidate")
		s.reply(ctx, u.ChatID, "Could not download that image.")
		return
	}
	revision, err := s.watermark.Set(ctx, data)
	if err != nil {
		s.reply(ctx, u.ChatID, fmt.Sprintf("Rejected: %v", err))
		return
	}
	s.log.Info().Str("revision", revision).Msg("watermark replaced")
	s.reply(ctx, u.ChatID, "✅ Watermark updated.")
}

// cmdSetTarget points delivery at a chat: the numeric argument, or the
// current chat when none is given.
func (s *BotServer) cmdSetTarget(ctx context.Context, u *telegram.Update) {
	if !s.authz.CanModerate(ctx, u.ChatID, u.Sender.ID, u.AnonymousAdmin) {
		return
	}
	target := u.ChatID
	if u.CommandArgs != "" {
		id, err := strconv.ParseInt(u.CommandArgs, 10, 64)
		if err != nil {
			s.reply(ctx, u.ChatID, "Usage: /settarget [chat id]")
			return
		}
		target = id
	}
	if err := s.settings.Set(ctx, repo.SettingForwardTarget, strconv.FormatInt(target, 10)); err != nil {
		s.log.Error().Err(err).Msg("failed to store forward target")
		s.reply(ctx, u.ChatID, "Could not store the target.")
		return
	}
	s.reply(ctx, u.ChatID, fmt.Sprintf("✅ Forwarding to %d.", target))
}

// cmdClearDB wipes the ledger and contest counters. Owner only.
func (s *BotServer) cmdClearDB(ctx context.Context, u *telegram.Update) {
	if !s.authz.IsOwner(u.Sender.ID) {
		return
	}
	deleted, err := s.ledger.ClearEvents(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to clear ledger")
		s.reply(ctx, u.ChatID, "Could not clear the database.")
		return
	}
	s.reply(ctx, u.ChatID, fmt.Sprintf("🗑 Cleared %d feedback record(s).", deleted))
}

func (s *BotServer) reply(ctx context.Context, chatID int64, text string) {
	if err := s.gateway.SendText(ctx, chatID, text); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to send reply")
	}
}

func (s *BotServer) replyMarkdown(ctx context.Context, chatID int64, text string) {
	if err := s.gateway.SendMarkdown(ctx, chatID, text); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to send reply")
	}
}

// StatsText renders the per-user tally for a chat's recent events.
func StatsText(events []*domain.FeedbackEvent, windowDays int) string {
	if len(events) == 0 {
		return fmt.Sprintf("No feedback in the last %d days.", windowDays)
	}

	counts := make(map[int64]int)
	names := make(map[int64]string)
	for _, event := range events {
		counts[event.Submitter.ID]++
		names[event.Submitter.ID] = event.Submitter.Name()
	}

	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Feedback in the last %d days: %d item(s)\n", windowDays, len(events))
	for _, id := range ids {
		fmt.Fprintf(&b, "\n%s: %d", names[id], counts[id])
	}
	return b.String()
}

// CheckText renders one user's recent submissions with links.
func CheckText(subject domain.Submitter, events []*domain.FeedbackEvent, windowDays int) string {
	if len(events) == 0 {
		return fmt.Sprintf("%s has no feedback in the last %d days.", subject.Name(), windowDays)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 %s: %d item(s) in the last %d days\n", subject.Name(), len(events), windowDays)
	for _, event := range events {
		fmt.Fprintf(&b, "\n%s", event.Link)
	}
	return b.String()
}
