package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
	"github.com/hiji-labs/feedback-relay/internal/metrics"
)

// IntakeUsecase turns an accepted submission into ledger events, contest
// credit, a user-visible acknowledgment and a scheduled forward. It serves
// both the single-item fast path and the aggregator's settle path.
type IntakeUsecase struct {
	ledger    repo.LedgerRepo
	contest   *ContestUsecase
	gateway   repo.MessageGateway
	scheduler repo.Scheduler
	forwarder Forwarder

	forwardDelay time.Duration
	clock        func() time.Time
	log          zerolog.Logger
}

// NewIntakeUsecase creates a new intake usecase.
func NewIntakeUsecase(
	ledger repo.LedgerRepo,
	contest *ContestUsecase,
	gateway repo.MessageGateway,
	scheduler repo.Scheduler,
	forwarder Forwarder,
	forwardDelay time.Duration,
	log zerolog.Logger,
) *IntakeUsecase {
	return &IntakeUsecase{
		ledger:       ledger,
		contest:      contest,
		gateway:      gateway,
		scheduler:    scheduler,
		forwarder:    forwarder,
		forwardDelay: forwardDelay,
		clock:        time.Now,
		log:          log,
	}
}

// SetClock overrides the wall clock, for tests.
func (uc *IntakeUsecase) SetClock(clock func() time.Time) {
	uc.clock = clock
}

// Record writes one feedback event per part and credits the contest counter
// by the part count. It performs no acknowledgment or forwarding.
func (uc *IntakeUsecase) Record(ctx context.Context, sub domain.Submitter, origin domain.Origin, parts []domain.Part) error {
	now := uc.clock()
	for _, p := range parts {
		event := domain.NewFeedbackEvent(sub, origin, p.MessageID, now)
		if err := uc.ledger.InsertEvent(ctx, event); err != nil {
			return fmt.Errorf("insert feedback event: %w", err)
		}
		metrics.FeedbackEventsTotal.Inc()
	}
	if err := uc.contest.Record(ctx, sub, origin.ChatID, len(parts), now); err != nil {
		return err
	}
	uc.log.Info().
		Int64("user", sub.ID).
		Int64("chat", origin.ChatID).
		Int("parts", len(parts)).
		Msg("feedback recorded")
	return nil
}

// AcceptSingle is the single-item fast path: marker already verified by the
// caller, so the event, contest credit, acknowledgment and forward scheduling
// all happen right away. No aggregator timers are involved.
func (uc *IntakeUsecase) AcceptSingle(ctx context.Context, sub domain.Submitter, origin domain.Origin, part domain.Part) error {
	if err := uc.Record(ctx, sub, origin, []domain.Part{part}); err != nil {
		return err
	}

	if err := uc.gateway.SendText(ctx, origin.ChatID, AckText(sub, 1)); err != nil {
		uc.log.Warn().Err(err).Int64("chat", origin.ChatID).Msg("failed to send acknowledgment")
	}

	uc.ScheduleForward(&ForwardJob{
		Submitter: sub,
		Origin:    origin,
		Parts:     []domain.Part{part},
	})
	return nil
}

// ScheduleForward hands a job snapshot to the pipeline after the settle-to-
// forward delay.
func (uc *IntakeUsecase) ScheduleForward(job *ForwardJob) {
	uc.scheduler.After(uc.forwardDelay, func() {
		uc.forwarder.Forward(context.Background(), job)
	})
}

// AckText is the acknowledgment sent once per accepted submission.
func AckText(sub domain.Submitter, parts int) string {
	if parts > 1 {
		return fmt.Sprintf("✅ Feedback received from %s (%d items). Thank you!", sub.Name(), parts)
	}
	return fmt.Sprintf("✅ Feedback received from %s. Thank you!", sub.Name())
}
