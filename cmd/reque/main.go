package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Request804/DiscordbotReque/internal/analytics"
	"github.com/Request804/DiscordbotReque/internal/bot"
	"github.com/Request804/DiscordbotReque/internal/chat"
	"github.com/Request804/DiscordbotReque/internal/config"
	"github.com/Request804/DiscordbotReque/internal/economy"
	"github.com/Request804/DiscordbotReque/internal/moderation"
	"github.com/Request804/DiscordbotReque/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	economySvc := economy.New(store, economy.Rates{
		MessageCoins:        cfg.Economy.MessageCoins,
		MessageMinWords:     cfg.Economy.MessageMinWords,
		MessageXP:           cfg.Economy.MessageXP,
		VoiceCoinsPerMinute: cfg.Economy.VoiceCoinsPerMinute,
		VoiceXPPerMinute:    cfg.Economy.VoiceXPPerMinute,
		MilestoneStep:       cfg.Economy.MilestoneStep,
	})

	warnWindow := time.Duration(cfg.Moderation.WarnWindowDays) * 24 * time.Hour
	moderationSvc := moderation.New(store, moderation.Policy{
		MaxActiveWarns: cfg.Moderation.MaxActiveWarns,
		WarnWindow:     warnWindow,
		SweepInterval:  time.Duration(cfg.Moderation.SweepIntervalMins) * time.Minute,
	}, logger)

	analyticsSvc := analytics.New(store, warnWindow)

	var chatProxy *chat.Proxy
	if cfg.OpenAI.APIKey != "" {
		chatProxy = chat.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.HistoryTurns)
	} else {
		logger.Info("assistant disabled, no API key configured")
	}

	botSvc, err := bot.New(cfg, logger, store, economySvc, moderationSvc, analyticsSvc, chatProxy, economy.NewSessionTracker())
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr}
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	botSvc.Close(ctx)
}
