package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-openrouter-bridge/internal/domain/ports/adapter"
)

var _ adapter.BotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.BotAdapter for local/dev runs.
// It logs messages instead of talking to Telegram.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logger}
}

func (b *NoopBotAdapter) Send(ctx context.Context, chatID int64, text string) error {
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("noop send")
	return nil
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Interface("buttons", rows).Msg("noop send buttons")
	return nil
}
