package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
	"github.com/hiji-labs/feedback-relay/internal/biz/usecase"
	"github.com/hiji-labs/feedback-relay/internal/conf"
	"github.com/hiji-labs/feedback-relay/internal/data"
	"github.com/hiji-labs/feedback-relay/internal/infra/telegram"
	"github.com/hiji-labs/feedback-relay/internal/logging"
	"github.com/hiji-labs/feedback-relay/internal/metrics"
	"github.com/hiji-labs/feedback-relay/internal/server"
	"github.com/hiji-labs/feedback-relay/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg := conf.Load()
	log := logging.New(cfg.Debug)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	metrics.Register()

	repos, err := data.NewRepositories(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer repos.Close()
	log.Info().Str("path", cfg.Storage.DBPath).Msg("database ready")

	client, err := telegram.NewClient(cfg.Telegram.Token, cfg.Debug, logging.Component(log, "telegram"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to telegram")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := service.NewTimerScheduler(logging.Component(log, "scheduler"))
	scheduler.Start(ctx)
	defer scheduler.Stop()

	var watermarkFallback []byte
	if cfg.Watermark.FallbackPath != "" {
		watermarkFallback, err = os.ReadFile(cfg.Watermark.FallbackPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Watermark.FallbackPath).Msg("failed to read watermark fallback")
		}
	}
	watermarkUC := usecase.NewWatermarkUsecase(repos.Settings, watermarkFallback, cfg.Watermark.MaxBytes)

	relayChat := cfg.Telegram.RelayChatID
	if relayChat == 0 {
		relayChat = cfg.Telegram.OwnerID
	}
	pipeline := service.NewForwardPipeline(client, watermarkUC, repos.Settings, service.ForwarderConfig{
		TargetChatID: cfg.Telegram.TargetChatID,
		RelayChatID:  relayChat,
		ItemInterval: cfg.Intake.ItemGap(),
	}, logging.Component(log, "forwarder"))

	contest := usecase.NewContestUsecase(repos.Ledger, cfg.Contest.RolloverHour)
	intake := usecase.NewIntakeUsecase(repos.Ledger, contest, client, scheduler, pipeline,
		cfg.Intake.ForwardDelay(), logging.Component(log, "intake"))
	aggregator := usecase.NewAggregatorUsecase(intake, client, scheduler, usecase.AggregatorConfig{
		SettleDelay:  cfg.Intake.SettleDelay(),
		ForwardDelay: cfg.Intake.ForwardDelay(),
		Retention:    cfg.Intake.AggregateRetention(),
	}, logging.Component(log, "aggregator"))
	authz := usecase.NewAuthzUsecase(cfg.Telegram.OwnerID, repos.Groups, client, logging.Component(log, "authz"))
	stats := usecase.NewStatsUsecase(repos.Ledger, cfg.Intake.StatsWindow())

	housekeeping := service.NewHousekeeping(scheduler, repos.Ledger, repos.Groups, client, contest,
		service.HousekeepingConfig{
			Retention:        cfg.Intake.LedgerRetention(),
			CleanupHour:      cfg.Housekeeping.CleanupHour,
			CleanupMinute:    cfg.Housekeeping.CleanupMinute,
			ReminderInterval: cfg.Intake.ReminderEvery(),
			AnnounceHour:     cfg.Contest.AnnounceHour,
			AnnounceMinute:   cfg.Contest.AnnounceMinute,
		}, logging.Component(log, "housekeeping"))
	housekeeping.Start()

	bot := server.NewBotServer(
		client, repos.Groups, repos.Ledger, repos.Settings,
		aggregator, intake, authz, stats, watermarkUC,
		domain.Marker(cfg.Telegram.Marker), logging.Component(log, "server"),
	)
	client.OnUpdate(bot.HandleUpdate)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: server.NewHealthRouter(),
	}
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("keep-alive endpoint listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("keep-alive server failed")
		}
	}()

	log.Info().Str("marker", cfg.Telegram.Marker).Msg("starting update loop")
	errCh := make(chan error, 1)
	go func() { errCh <- client.Start(ctx) }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("update loop stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	log.Info().Msg("bye")
}
