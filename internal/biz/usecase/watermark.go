package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/hiji-labs/feedback-relay/internal/biz/repo"
	"github.com/hiji-labs/feedback-relay/internal/watermark"
)

// ErrNoWatermark is returned when no watermark asset is available at all.
var ErrNoWatermark = errors.New("no watermark asset configured")

// WatermarkUsecase manages the single current overlay asset. A build-time or
// deploy-time fallback can be supplied; a stored asset always wins.
type WatermarkUsecase struct {
	settings repo.SettingsRepo
	fallback []byte
	maxBytes int
}

// NewWatermarkUsecase creates a new watermark usecase.
func NewWatermarkUsecase(settings repo.SettingsRepo, fallback []byte, maxBytes int) *WatermarkUsecase {
	return &WatermarkUsecase{settings: settings, fallback: fallback, maxBytes: maxBytes}
}

// Set validates and stores a new watermark asset, discarding the previous
// one. Returns the new revision id.
func (uc *WatermarkUsecase) Set(ctx context.Context, data []byte) (string, error) {
	if err := watermark.Validate(data, uc.maxBytes); err != nil {
		return "", err
	}
	revision, err := uc.settings.SaveWatermark(ctx, data)
	if err != nil {
		return "", fmt.Errorf("save watermark: %w", err)
	}
	return revision, nil
}

// Current returns the active watermark bytes: the stored asset if present,
// else the fallback.
func (uc *WatermarkUsecase) Current(ctx context.Context) ([]byte, error) {
	data, err := uc.settings.LoadWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watermark: %w", err)
	}
	if data != nil {
		return data, nil
	}
	if uc.fallback != nil {
		return uc.fallback, nil
	}
	return nil, ErrNoWatermark
}
