package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
	"github.com/hiji-labs/feedback-relay/internal/biz/usecase"
	"github.com/hiji-labs/feedback-relay/internal/metrics"
	"github.com/hiji-labs/feedback-relay/internal/watermark"
)

// ForwarderConfig holds the delivery-side settings.
type ForwarderConfig struct {
	// TargetChatID is the fallback curation channel, used when no runtime
	// target has been stored.
	TargetChatID int64
	// RelayChatID is a bot-owned chat used to obtain byte access to source
	// photos. Photo parts cannot be watermarked without it.
	RelayChatID int64
	// ItemInterval is the minimum spacing between delivered items.
	ItemInterval time.Duration
}

// ForwardPipeline delivers accepted submissions to the curation channel.
// Photos are re-uploaded with the watermark composited in and the source copy
// deleted; other media is forwarded untouched. Per-item failures are logged
// and the item abandoned, the submitter is never told.
type ForwardPipeline struct {
	gateway   repo.MessageGateway
	watermark *usecase.WatermarkUsecase
	settings  repo.SettingsRepo
	limiter   *rate.Limiter
	cfg       ForwarderConfig
	log       zerolog.Logger
}

var _ usecase.Forwarder = (*ForwardPipeline)(nil)

// NewForwardPipeline creates a new forward pipeline.
func NewForwardPipeline(gateway repo.MessageGateway, wm *usecase.WatermarkUsecase, settings repo.SettingsRepo, cfg ForwarderConfig, log zerolog.Logger) *ForwardPipeline {
	interval := cfg.ItemInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ForwardPipeline{
		gateway:   gateway,
		watermark: wm,
		settings:  settings,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		cfg:       cfg,
		log:       log,
	}
}

// Forward delivers every part of the job in message-id order.
func (p *ForwardPipeline) Forward(ctx context.Context, job *usecase.ForwardJob) {
	target := p.target(ctx)
	if target == 0 {
		p.log.Warn().Str("group_id", job.GroupID).Msg("no forward target configured, dropping submission")
		return
	}

	for _, part := range job.Parts {
		if err := p.limiter.Wait(ctx); err != nil {
			return
		}
		var err error
		if part.Kind == domain.MediaPhoto {
			err = p.forwardPhoto(ctx, target, job, part)
		} else {
			err = p.forwardPlain(ctx, target, job, part)
		}
		if err != nil {
			metrics.ForwardFailuresTotal.Inc()
			p.log.Error().Err(err).
				Int64("chat_id", job.Origin.ChatID).
				Int("message_id", part.MessageID).
				Msg("failed to forward item")
			continue
		}
		metrics.ForwardsTotal.Inc()
	}
}

// forwardPlain relays a non-photo part as-is. The source copy stays in the
// group.
func (p *ForwardPipeline) forwardPlain(ctx context.Context, target int64, job *usecase.ForwardJob, part domain.Part) error {
	if _, err := p.gateway.Forward(ctx, target, job.Origin.ChatID, part.MessageID); err != nil {
		return fmt.Errorf("forward message: %w", err)
	}
	return nil
}

// forwardPhoto delivers a photo part with the watermark composited in:
// relay the source message to a bot-owned chat to get a file reference,
// download it, composite, upload the result to the target, then delete both
// the relay copy and the source message. If no watermark asset is available
// or compositing fails, the part is dropped without notice.
func (p *ForwardPipeline) forwardPhoto(ctx context.Context, target int64, job *usecase.ForwardJob, part domain.Part) error {
	if p.cfg.RelayChatID == 0 {
		metrics.WatermarkFailuresTotal.Inc()
		p.log.Warn().Msg("no relay chat configured, dropping photo part")
		return nil
	}

	relayed, err := p.gateway.Forward(ctx, p.cfg.RelayChatID, job.Origin.ChatID, part.MessageID)
	if err != nil {
		return fmt.Errorf("relay photo: %w", err)
	}
	data, err := p.gateway.FileBytes(ctx, relayed.FileID)
	if delErr := p.gateway.Delete(ctx, p.cfg.RelayChatID, relayed.MessageID); delErr != nil {
		p.log.Warn().Err(delErr).Msg("failed to delete relay copy")
	}
	if err != nil {
		return fmt.Errorf("download photo: %w", err)
	}

	mark, err := p.watermark.Current(ctx)
	if err != nil {
		metrics.WatermarkFailuresTotal.Inc()
		p.log.Warn().Err(err).Int("message_id", part.MessageID).Msg("no watermark asset, dropping photo part")
		return nil
	}
	composed, err := watermark.Compose(data, mark)
	if err != nil {
		metrics.WatermarkFailuresTotal.Inc()
		p.log.Warn().Err(err).Int("message_id", part.MessageID).Msg("failed to composite watermark, dropping photo part")
		return nil
	}

	if _, err := p.gateway.SendPhoto(ctx, target, composed, p.caption(job, part)); err != nil {
		return fmt.Errorf("send watermarked photo: %w", err)
	}
	if err := p.gateway.Delete(ctx, job.Origin.ChatID, part.MessageID); err != nil {
		p.log.Warn().Err(err).
			Int64("chat_id", job.Origin.ChatID).
			Int("message_id", part.MessageID).
			Msg("failed to delete source photo")
	}
	return nil
}

// caption builds the delivered caption: the original text plus attribution.
func (p *ForwardPipeline) caption(job *usecase.ForwardJob, part domain.Part) string {
	attribution := "by " + job.Submitter.Name()
	if part.Caption == "" {
		return attribution
	}
	return part.Caption + "\n\n" + attribution
}

// target resolves the curation channel: the stored runtime setting wins over
// the configured fallback. Zero means delivery is disabled.
func (p *ForwardPipeline) target(ctx context.Context) int64 {
	value, err := p.settings.Get(ctx, repo.SettingForwardTarget)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to read forward target")
		return p.cfg.TargetChatID
	}
	if value == "" {
		return p.cfg.TargetChatID
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		p.log.Error().Str("value", value).Msg("stored forward target is not a chat id")
		return p.cfg.TargetChatID
	}
	return id
}
