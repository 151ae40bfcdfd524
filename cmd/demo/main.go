// Runs one exchange end to end against the noop adapters. Useful for
// checking the wiring without a Telegram token or provider key.
package main

import (
	"context"
	"log"
	"time"

	"telegram-openrouter-bridge/internal/application"
	"telegram-openrouter-bridge/internal/config"
	"telegram-openrouter-bridge/internal/domain/model"
	aiAdapters "telegram-openrouter-bridge/internal/infra/adapters/ai"
	tele "telegram-openrouter-bridge/internal/infra/adapters/telegram"
	"telegram-openrouter-bridge/internal/infra/logging"
	"telegram-openrouter-bridge/internal/infra/memory"
	"telegram-openrouter-bridge/internal/infra/tokens"
	"telegram-openrouter-bridge/internal/usecase"
)

func main() {
	logger := logging.New(config.LogConfig{Level: "debug", Format: "console"}, true)

	convRepo := memory.NewConversationRepo()
	settingsRepo := memory.NewSettingsRepo(model.Settings{
		DefaultModel:          "noop/echo",
		UserSelection:         true,
		RequestTimeoutSeconds: 10,
	})
	usageRepo := memory.NewUsageRepo()

	ai := &aiAdapters.NoopClient{Model: "noop/echo"}
	bot := tele.NewNoopBotAdapter(logger)

	chatUC := usecase.NewChatUseCase(convRepo, settingsRepo, usageRepo, ai, bot, nil, tokens.NewCounter(), usecase.ChatConfig{
		MaxHistoryTurns:  10,
		MaxMessageLength: 200,
		SegmentDelay:     100 * time.Millisecond,
		SystemPrompt:     "You are a demo.",
	}, logger)
	modelUC := usecase.NewModelUseCase(settingsRepo, ai, logger)
	statsUC := usecase.NewStatsUseCase(usageRepo, logger)
	facade := application.NewBotFacade(chatUC, modelUC, statsUC, []int64{1}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if notice, err := facade.HandleChat(ctx, "demo-user", 1, "Hello from the demo!"); err != nil {
		log.Fatalf("exchange failed: %v (%s)", err, notice)
	}

	text, err := facade.HandleUsage(ctx, 1, "")
	if err != nil {
		log.Fatalf("usage: %v", err)
	}
	logger.Info().Str("usage", text).Msg("demo done")
}
