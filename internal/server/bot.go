package server

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
	"github.com/hiji-labs/feedback-relay/internal/biz/usecase"
	"github.com/hiji-labs/feedback-relay/internal/infra/telegram"
)

// BotServer routes normalized platform updates to the right usecase: command
// dispatch, media-group aggregation, single-item intake and reply-accepts.
type BotServer struct {
	gateway    repo.MessageGateway
	groups     repo.GroupRepo
	ledger     repo.LedgerRepo
	settings   repo.SettingsRepo
	aggregator *usecase.AggregatorUsecase
	intake     *usecase.IntakeUsecase
	authz      *usecase.AuthzUsecase
	stats      *usecase.StatsUsecase
	watermark  *usecase.WatermarkUsecase

	marker domain.Marker
	log    zerolog.Logger

	// Chat handles rarely change; cache them so every part of a burst does
	// not hit the platform API.
	handleMu    sync.Mutex
	handleCache map[int64]string
}

// NewBotServer creates the update router.
func NewBotServer(
	gateway repo.MessageGateway,
	groups repo.GroupRepo,
	ledger repo.LedgerRepo,
	settings repo.SettingsRepo,
	aggregator *usecase.AggregatorUsecase,
	intake *usecase.IntakeUsecase,
	authz *usecase.AuthzUsecase,
	stats *usecase.StatsUsecase,
	watermark *usecase.WatermarkUsecase,
	marker domain.Marker,
	log zerolog.Logger,
) *BotServer {
	return &BotServer{
		gateway:     gateway,
		groups:      groups,
		ledger:      ledger,
		settings:    settings,
		aggregator:  aggregator,
		intake:      intake,
		authz:       authz,
		stats:       stats,
		watermark:   watermark,
		marker:      marker,
		log:         log,
		handleCache: make(map[int64]string),
	}
}

// HandleUpdate is the single entry point for incoming messages.
func (s *BotServer) HandleUpdate(u *telegram.Update) {
	ctx := context.Background()

	if u.Command != "" {
		s.handleCommand(ctx, u)
		return
	}
	if !isGroupChat(u.ChatType) {
		return
	}

	authorized, err := s.groups.IsGroupAuthorized(ctx, u.ChatID)
	if err != nil {
		s.log.Error().Err(err).Int64("chat", u.ChatID).Msg("group authorization lookup failed")
		return
	}
	if !authorized {
		return
	}

	markerPresent := s.marker.In(u.Text)

	switch {
	case u.MediaGroupID != "" && u.MediaKind != domain.MediaNone:
		s.aggregator.ObservePart(ctx, usecase.PartObservation{
			GroupID: u.MediaGroupID,
			Part: domain.Part{
				MessageID: u.MessageID,
				Caption:   u.Text,
				Kind:      u.MediaKind,
			},
			MarkerPresent: markerPresent,
			Submitter:     u.Sender,
			Origin:        s.originOf(ctx, u),
		})

	case markerPresent && u.ReplyToMessageID != 0:
		s.handleReplyAccept(ctx, u)

	case markerPresent && u.MediaKind != domain.MediaNone:
		part := domain.Part{MessageID: u.MessageID, Caption: u.Text, Kind: u.MediaKind}
		if err := s.intake.AcceptSingle(ctx, u.Sender, s.originOf(ctx, u), part); err != nil {
			s.log.Error().Err(err).Int64("chat", u.ChatID).Msg("failed to accept single item")
		}
	}
}

// handleReplyAccept processes a marker-bearing reply. A reply onto a live
// media group accepts the whole group; anything else falls back to treating
// the replied-to message as a single item, but only when the replier is the
// one who posted it.
func (s *BotServer) handleReplyAccept(ctx context.Context, u *telegram.Update) {
	if u.ReplyToMediaGroupID != "" {
		switch s.aggregator.AcceptViaReply(ctx, u.ReplyToMediaGroupID, u.Sender) {
		case usecase.AcceptNoAggregate:
			// Aggregate evicted or never seen: fall through to the
			// single-item fallback below.
		case usecase.AcceptAlreadyProcessed:
			if err := s.gateway.SendText(ctx, u.ChatID, "This submission was already processed."); err != nil {
				s.log.Warn().Err(err).Int64("chat", u.ChatID).Msg("failed to send note")
			}
			return
		default:
			return
		}
	}

	if u.ReplyToKind == domain.MediaNone {
		return
	}
	if u.ReplyToSender == nil || u.ReplyToSender.ID != u.Sender.ID {
		return
	}
	part := domain.Part{
		MessageID: u.ReplyToMessageID,
		Caption:   u.ReplyToCaption,
		Kind:      u.ReplyToKind,
	}
	if err := s.intake.AcceptSingle(ctx, u.Sender, s.originOf(ctx, u), part); err != nil {
		s.log.Error().Err(err).Int64("chat", u.ChatID).Msg("failed to accept replied-to item")
	}
}

// originOf builds the origin snapshot, resolving the chat's public handle
// through a small cache.
func (s *BotServer) originOf(ctx context.Context, u *telegram.Update) domain.Origin {
	s.handleMu.Lock()
	handle, cached := s.handleCache[u.ChatID]
	s.handleMu.Unlock()

	if !cached {
		var err error
		_, handle, err = s.gateway.ChatMetadata(ctx, u.ChatID)
		if err != nil {
			s.log.Debug().Err(err).Int64("chat", u.ChatID).Msg("chat metadata lookup failed")
		} else {
			s.handleMu.Lock()
			s.handleCache[u.ChatID] = handle
			s.handleMu.Unlock()
		}
	}
	return domain.Origin{ChatID: u.ChatID, Title: u.ChatTitle, Handle: handle}
}

func isGroupChat(chatType string) bool {
	return chatType == "group" || chatType == "supergroup"
}
