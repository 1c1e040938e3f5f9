package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
	"github.com/hiji-labs/feedback-relay/internal/biz/usecase"
)

// HousekeepingConfig holds the recurring-job settings.
type HousekeepingConfig struct {
	// Retention is how long ledger events are kept.
	Retention time.Duration
	// CleanupHour/CleanupMinute is the daily UTC time of the retention sweep.
	CleanupHour   int
	CleanupMinute int
	// ReminderInterval is how often per-group reminders are broadcast.
	ReminderInterval time.Duration
	// AnnounceHour/AnnounceMinute is the daily UTC time of the contest
	// announcement, shortly after the rollover boundary.
	AnnounceHour   int
	AnnounceMinute int
}

// DefaultHousekeepingConfig returns the production defaults.
func DefaultHousekeepingConfig() HousekeepingConfig {
	return HousekeepingConfig{
		Retention:        5 * 24 * time.Hour,
		CleanupHour:      3,
		CleanupMinute:    0,
		ReminderInterval: 2 * time.Hour,
		AnnounceHour:     domain.DefaultRolloverHour,
		AnnounceMinute:   5,
	}
}

// Housekeeping owns the recurring background jobs: the ledger retention
// sweep, the per-group reminder broadcast and the daily contest announcement.
type Housekeeping struct {
	scheduler repo.Scheduler
	ledger    repo.LedgerRepo
	groups    repo.GroupRepo
	gateway   repo.MessageGateway
	contest   *usecase.ContestUsecase
	cfg       HousekeepingConfig
	clock     func() time.Time
	log       zerolog.Logger
}

// NewHousekeeping creates the housekeeping service.
func NewHousekeeping(scheduler repo.Scheduler, ledger repo.LedgerRepo, groups repo.GroupRepo, gateway repo.MessageGateway, contest *usecase.ContestUsecase, cfg HousekeepingConfig, log zerolog.Logger) *Housekeeping {
	return &Housekeeping{
		scheduler: scheduler,
		ledger:    ledger,
		groups:    groups,
		gateway:   gateway,
		contest:   contest,
		cfg:       cfg,
		clock:     time.Now,
		log:       log,
	}
}

// SetClock overrides the time source, for tests.
func (h *Housekeeping) SetClock(clock func() time.Time) {
	h.clock = clock
}

// Start registers all recurring jobs on the scheduler.
func (h *Housekeeping) Start() {
	h.scheduler.DailyAt(h.cfg.CleanupHour, h.cfg.CleanupMinute, func() {
		h.Sweep(context.Background())
	})
	h.scheduler.Every(h.cfg.ReminderInterval, func() {
		h.BroadcastReminders(context.Background())
	})
	h.scheduler.DailyAt(h.cfg.AnnounceHour, h.cfg.AnnounceMinute, func() {
		h.AnnounceWinners(context.Background())
	})
}

// Sweep deletes ledger events older than the retention window. Contest
// counters are keyed by day and left alone; stale days are simply never read.
func (h *Housekeeping) Sweep(ctx context.Context) {
	cutoff := h.clock().Add(-h.cfg.Retention)
	deleted, err := h.ledger.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to sweep old ledger events")
		return
	}
	h.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("swept old ledger events")
}

// BroadcastReminders sends each group its configured reminder text.
func (h *Housekeeping) BroadcastReminders(ctx context.Context) {
	reminders, err := h.groups.Reminders(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load reminders")
		return
	}
	for chatID, text := range reminders {
		if err := h.gateway.SendMarkdown(ctx, chatID, "🔔 "+text); err != nil {
			h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send reminder")
		}
	}
}

// AnnounceWinners posts yesterday's contest results to every authorized
// group. Runs just after the rollover boundary, so the day that closed is the
// bucket one day back.
func (h *Housekeeping) AnnounceWinners(ctx context.Context) {
	day := h.contest.Day(h.clock().Add(-24 * time.Hour))
	groups, err := h.groups.ListGroups(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list groups for announcement")
		return
	}
	for _, chatID := range groups {
		winner, runnerUp, err := h.contest.Winners(ctx, chatID, day)
		if err != nil {
			h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to rank contest")
			continue
		}
		if winner == nil {
			continue
		}
		if err := h.gateway.SendMarkdown(ctx, chatID, AnnouncementText(day, winner, runnerUp)); err != nil {
			h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to announce winners")
		}
	}
}

// AnnouncementText renders the daily contest announcement.
func AnnouncementText(day string, winner, runnerUp *domain.ContestRecord) string {
	text := fmt.Sprintf("🏆 Feedback results for %s\n\n🥇 %s: %d item(s)", day, winner.Submitter.Name(), winner.Count)
	if runnerUp != nil {
		text += fmt.Sprintf("\n🥈 %s: %d item(s)", runnerUp.Submitter.Name(), runnerUp.Count)
	}
	return text
}
