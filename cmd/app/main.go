// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-openrouter-bridge/internal/application"
	"telegram-openrouter-bridge/internal/config"
	"telegram-openrouter-bridge/internal/domain/model"
	"telegram-openrouter-bridge/internal/domain/ports/adapter"
	aiAdapters "telegram-openrouter-bridge/internal/infra/adapters/ai"
	tele "telegram-openrouter-bridge/internal/infra/adapters/telegram"
	httpapi "telegram-openrouter-bridge/internal/infra/http"
	"telegram-openrouter-bridge/internal/infra/logging"
	"telegram-openrouter-bridge/internal/infra/memory"
	"telegram-openrouter-bridge/internal/infra/metrics"
	red "telegram-openrouter-bridge/internal/infra/redis"
	"telegram-openrouter-bridge/internal/infra/tokens"
	"telegram-openrouter-bridge/internal/infra/worker"
	"telegram-openrouter-bridge/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "run with noop adapters where credentials are missing")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		stdlog.Fatalf("config: %v", err)
	}

	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Redis (optional) ----
	var rateLimiter *red.RateLimiter
	var snap usecase.SnapshotStore
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
		snap = red.NewConversationCache(redisClient, cfg.Redis.TTL)
		log.Info().Str("url", cfg.Redis.URL).Msg("redis connected")
	} else {
		log.Warn().Msg("redis not configured; conversations live in memory only")
	}

	// ---- Repositories ----
	convRepo := memory.NewConversationRepo()
	settingsRepo := memory.NewSettingsRepo(model.Settings{
		DefaultModel:          cfg.AI.DefaultModel,
		AllowedModels:         cfg.AI.AllowedModels,
		WhitelistEnabled:      cfg.AI.WhitelistModels,
		UserSelection:         cfg.AI.UserSelection,
		RequestTimeoutSeconds: cfg.AI.TimeoutSeconds,
	})
	usageRepo := memory.NewUsageRepo()
	counter := tokens.NewCounter()

	// ---- Model client (OpenRouter -> OpenAI -> noop) ----
	var base adapter.ModelClient
	switch {
	case cfg.AI.OpenRouterKey != "":
		base, err = aiAdapters.NewOpenRouterAdapter(cfg.AI.OpenRouterKey, cfg.AI.DefaultModel, cfg.AI.OpenRouterURL)
		if err != nil {
			log.Fatal().Err(err).Msg("openrouter adapter")
		}
		log.Info().Str("base", cfg.AI.OpenRouterURL).Str("model", cfg.AI.DefaultModel).Msg("model client: openrouter")
	case cfg.AI.OpenAIKey != "":
		base, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			log.Fatal().Err(err).Msg("openai adapter")
		}
		log.Info().Str("model", cfg.AI.DefaultModel).Msg("model client: openai")
	case cfg.Runtime.Dev:
		base = &aiAdapters.NoopClient{Model: cfg.AI.DefaultModel}
		log.Warn().Msg("model client: noop echo")
	default:
		log.Fatal().Msg("no model provider configured")
	}

	// Per-attempt timeout follows the live settings so /set_timeout applies
	// without a restart.
	timeout := func() time.Duration {
		s, err := settingsRepo.Settings(ctx)
		if err != nil || s.RequestTimeoutSeconds <= 0 {
			return time.Duration(cfg.AI.TimeoutSeconds) * time.Second
		}
		return time.Duration(s.RequestTimeoutSeconds) * time.Second
	}
	ai := aiAdapters.NewRetryClient(base, cfg.AI.MaxRetries, timeout, log)
	ai = aiAdapters.NewLimitedClient(ai, cfg.AI.ConcurrentLimit)

	modelUC := usecase.NewModelUseCase(settingsRepo, ai, log)
	statsUC := usecase.NewStatsUseCase(usageRepo, log)

	// ---- Telegram ----
	var realBot *tele.RealBotAdapter
	if cfg.Bot.Token != "" {
		pool := worker.NewPool(cfg.Bot.Workers, log)
		pool.Start(ctx)
		defer pool.Stop()

		// The bot both receives updates and delivers reply segments, so the
		// chat usecase sends through a closure over the adapter.
		send := senderFunc(func(ctx context.Context, chatID int64, text string) error {
			return realBot.Send(ctx, chatID, text)
		})
		chatUC := usecase.NewChatUseCase(convRepo, settingsRepo, usageRepo, ai, send, snap, counter, usecase.ChatConfig{
			MaxHistoryTurns:  cfg.AI.MaxHistoryTurns,
			MaxMessageLength: cfg.Bot.MaxMessageLength,
			SegmentDelay:     cfg.Bot.SegmentDelay,
			SystemPrompt:     cfg.AI.SystemPrompt,
		}, log)
		facade := application.NewBotFacade(chatUC, modelUC, statsUC, cfg.Bot.AdminIDs, log)

		realBot, err = tele.NewRealBotAdapter(&cfg.Bot, cfg.Limits, facade, rateLimiter, pool, log)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram")
		}
		go func() {
			if err := realBot.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	} else {
		log.Warn().Msg("bot token missing; telegram polling disabled")
	}

	// ---- Admin HTTP server ----
	srv := httpapi.NewServer(&cfg.Admin, statsUC, modelUC, log)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if realBot != nil {
		realBot.StopPolling()
	}
	cancel()
}

type senderFunc func(ctx context.Context, chatID int64, text string) error

func (f senderFunc) Send(ctx context.Context, chatID int64, text string) error {
	return f(ctx, chatID, text)
}
