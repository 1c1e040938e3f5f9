package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
	"github.com/hiji-labs/feedback-relay/internal/metrics"
)

// AggregatorConfig holds the aggregator's timer settings.
type AggregatorConfig struct {
	SettleDelay  time.Duration // marker seen -> accept decision
	ForwardDelay time.Duration // accept decision -> pipeline start
	Retention    time.Duration // aggregate creation -> unconditional eviction
}

// DefaultAggregatorConfig returns the production timer settings.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		SettleDelay:  10 * time.Second,
		ForwardDelay: 3 * time.Second,
		Retention:    6 * time.Hour,
	}
}

// AcceptResult describes the outcome of a reply-with-marker on an existing
// aggregate.
type AcceptResult int

const (
	// AcceptNoAggregate means no live aggregate exists; the caller falls
	// back to single-item treatment of the replied-to message.
	AcceptNoAggregate AcceptResult = iota
	// AcceptWrongSubmitter means the reply came from someone other than the
	// snapshot submitter and was ignored.
	AcceptWrongSubmitter
	// AcceptSettled means the aggregate was accepted and settled immediately.
	AcceptSettled
	// AcceptForwardTriggered means the aggregate was already processed but
	// forwarding had never run, so it was triggered now.
	AcceptForwardTriggered
	// AcceptAlreadyProcessed means the aggregate was processed and forwarded
	// before; nothing happened beyond an "already processed" note.
	AcceptAlreadyProcessed
)

// AggregatorUsecase reconciles the unordered, asynchronous parts of one
// logical media-group submission into a single accept decision, exactly once.
//
// The aggregate map is exclusively owned here and guarded by one mutex. Every
// state transition and one-shot guard is checked-and-set under the lock;
// ledger and gateway I/O happens only after the lock is released, so a
// near-simultaneous settle timer and reply-accept can never double-process.
type AggregatorUsecase struct {
	mu         sync.Mutex
	aggregates map[string]*domain.Aggregate

	intake    *IntakeUsecase
	gateway   repo.MessageGateway
	scheduler repo.Scheduler

	cfg   AggregatorConfig
	clock func() time.Time
	log   zerolog.Logger
}

// NewAggregatorUsecase creates a new aggregator.
func NewAggregatorUsecase(
	intake *IntakeUsecase,
	gateway repo.MessageGateway,
	scheduler repo.Scheduler,
	cfg AggregatorConfig,
	log zerolog.Logger,
) *AggregatorUsecase {
	return &AggregatorUsecase{
		aggregates: make(map[string]*domain.Aggregate),
		intake:     intake,
		gateway:    gateway,
		scheduler:  scheduler,
		cfg:        cfg,
		clock:      time.Now,
		log:        log,
	}
}

// SetClock overrides the wall clock, for tests.
func (uc *AggregatorUsecase) SetClock(clock func() time.Time) {
	uc.clock = clock
}

// PartObservation is one "part observed" platform event.
type PartObservation struct {
	GroupID       string
	Part          domain.Part
	MarkerPresent bool
	Submitter     domain.Submitter
	Origin        domain.Origin
}

// ObservePart inserts or updates the aggregate for the observation's media
// group. The first observed part fixes the submitter/origin snapshot; the
// settle timer is scheduled once the marker has been seen, and the eviction
// timer is scheduled exactly once regardless of marker state.
func (uc *AggregatorUsecase) ObservePart(ctx context.Context, obs PartObservation) {
	uc.mu.Lock()

	agg, ok := uc.aggregates[obs.GroupID]
	if !ok {
		agg = domain.NewAggregate(obs.GroupID, obs.Submitter, obs.Origin, uc.clock())
		uc.aggregates[obs.GroupID] = agg
		metrics.AggregatesOpen.Inc()
	}

	if agg.State == domain.StateCollecting || agg.State == domain.StateSettling {
		agg.AddPart(obs.Part)
	}
	if obs.MarkerPresent {
		agg.MarkerSeen = true
	}

	scheduleSettle := false
	if agg.MarkerSeen && agg.State == domain.StateCollecting {
		if err := agg.Transition(domain.StateSettling); err == nil {
			scheduleSettle = true
		}
	}

	scheduleEvict := false
	if !agg.EvictionScheduled {
		agg.EvictionScheduled = true
		scheduleEvict = true
	}
	uc.mu.Unlock()

	groupID := obs.GroupID
	if scheduleSettle {
		uc.scheduler.After(uc.cfg.SettleDelay, func() {
			uc.Settle(context.Background(), groupID)
		})
	}
	if scheduleEvict {
		uc.scheduler.After(uc.cfg.Retention, func() {
			uc.Evict(groupID)
		})
	}
}

// Settle makes the accept decision for an aggregate. No-op if the aggregate
// is gone or already processed. With the marker seen, it emits one feedback
// event per part, credits the contest, acknowledges once, and schedules
// forwarding. Without the marker it leaves the aggregate for eviction.
func (uc *AggregatorUsecase) Settle(ctx context.Context, groupID string) {
	uc.mu.Lock()
	agg, ok := uc.aggregates[groupID]
	if !ok || agg.Processed() || agg.State == domain.StateEvicted {
		uc.mu.Unlock()
		return
	}
	if !agg.MarkerSeen {
		uc.mu.Unlock()
		return
	}
	if err := agg.Transition(domain.StateProcessed); err != nil {
		uc.mu.Unlock()
		uc.log.Warn().Err(err).Str("group", groupID).Msg("settle refused")
		return
	}
	job := uc.snapshotLocked(agg)
	ackNeeded := !agg.ConfirmationSent
	agg.ConfirmationSent = true
	uc.mu.Unlock()

	uc.finishAccept(ctx, groupID, job, ackNeeded)
}

// AcceptViaReply handles a marker-bearing reply that references an existing
// media group. Only the snapshot submitter may accept; anyone else is
// ignored. If the aggregate was already processed, forwarding is re-triggered
// only if it never ran — never twice.
func (uc *AggregatorUsecase) AcceptViaReply(ctx context.Context, groupID string, replier domain.Submitter) AcceptResult {
	uc.mu.Lock()
	agg, ok := uc.aggregates[groupID]
	if !ok {
		uc.mu.Unlock()
		return AcceptNoAggregate
	}
	if replier.ID != agg.Submitter.ID {
		uc.mu.Unlock()
		return AcceptWrongSubmitter
	}

	agg.MarkerSeen = true

	if !agg.Processed() {
		// Behave as if the settle timer fired right now.
		if agg.State == domain.StateCollecting {
			if err := agg.Transition(domain.StateSettling); err != nil {
				uc.mu.Unlock()
				return AcceptAlreadyProcessed
			}
		}
		if err := agg.Transition(domain.StateProcessed); err != nil {
			uc.mu.Unlock()
			return AcceptAlreadyProcessed
		}
		job := uc.snapshotLocked(agg)
		ackNeeded := !agg.ConfirmationSent
		agg.ConfirmationSent = true
		uc.mu.Unlock()

		uc.finishAccept(ctx, groupID, job, ackNeeded)
		return AcceptSettled
	}

	// Processed before: forwarding may run at most once.
	job := uc.snapshotLocked(agg)
	claimed := agg.Transition(domain.StateForwarded) == nil
	uc.mu.Unlock()

	if claimed {
		uc.intake.ScheduleForward(job)
		return AcceptForwardTriggered
	}
	return AcceptAlreadyProcessed
}

// Evict unconditionally removes an aggregate after its retention window,
// whatever its state. This bounds memory and is the outer limit on how late
// a reply can still accept a submission.
func (uc *AggregatorUsecase) Evict(groupID string) {
	uc.mu.Lock()
	agg, ok := uc.aggregates[groupID]
	if ok {
		_ = agg.Transition(domain.StateEvicted)
		delete(uc.aggregates, groupID)
		metrics.AggregatesOpen.Dec()
	}
	uc.mu.Unlock()

	if ok {
		uc.log.Debug().Str("group", groupID).Msg("aggregate evicted")
	}
}

// Open returns the number of live aggregates.
func (uc *AggregatorUsecase) Open() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.aggregates)
}

// finishAccept performs the post-decision side effects: ledger writes,
// contest credit, the one-shot acknowledgment, and the forward claim.
func (uc *AggregatorUsecase) finishAccept(ctx context.Context, groupID string, job *ForwardJob, ackNeeded bool) {
	if err := uc.intake.Record(ctx, job.Submitter, job.Origin, job.Parts); err != nil {
		uc.log.Error().Err(err).Str("group", groupID).Msg("failed to record accepted submission")
	}

	if ackNeeded {
		if err := uc.gateway.SendText(ctx, job.Origin.ChatID, AckText(job.Submitter, len(job.Parts))); err != nil {
			uc.log.Warn().Err(err).Int64("chat", job.Origin.ChatID).Msg("failed to send acknowledgment")
		}
	}

	uc.mu.Lock()
	agg, ok := uc.aggregates[groupID]
	claimed := ok && agg.Transition(domain.StateForwarded) == nil
	uc.mu.Unlock()

	if claimed {
		uc.intake.ScheduleForward(job)
	}
}

// snapshotLocked copies what delayed callbacks need. Caller holds the lock.
func (uc *AggregatorUsecase) snapshotLocked(agg *domain.Aggregate) *ForwardJob {
	return &ForwardJob{
		GroupID:   agg.GroupID,
		Submitter: agg.Submitter,
		Origin:    agg.Origin,
		Parts:     agg.SortedParts(),
	}
}
