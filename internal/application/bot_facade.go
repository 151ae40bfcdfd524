// File: internal/application/bot_facade.go
package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"telegram-openrouter-bridge/internal/domain"
	"telegram-openrouter-bridge/internal/usecase"
)

// BotFacade composes usecases into high-level bot commands.
// Keep the facade methods returning strings so the Telegram adapter just
// forwards them to the chat.
type BotFacade struct {
	ChatUC  usecase.ChatUseCase
	ModelUC usecase.ModelUseCase
	StatsUC usecase.StatsUseCase

	admins map[int64]struct{}
	log    *zerolog.Logger
}

func NewBotFacade(
	chatUC usecase.ChatUseCase,
	modelUC usecase.ModelUseCase,
	statsUC usecase.StatsUseCase,
	adminIDs []int64,
	logger *zerolog.Logger,
) *BotFacade {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &BotFacade{
		ChatUC:  chatUC,
		ModelUC: modelUC,
		StatsUC: statsUC,
		admins:  admins,
		log:     logger,
	}
}

func (b *BotFacade) IsAdmin(tgID int64) bool {
	_, ok := b.admins[tgID]
	return ok
}

func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, username string) (string, error) {
	name := username
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hello %s!\nSend me any message and I will answer with an AI model.\nUse /help to see what else I can do.", name), nil
}

func (b *BotFacade) HandleHelp(isAdmin bool) string {
	sb := strings.Builder{}
	sb.WriteString("Commands:\n")
	sb.WriteString("/models - list available models\n")
	sb.WriteString("/model <id> - pick the model used for your chats\n")
	sb.WriteString("/model - show your current model\n")
	sb.WriteString("/clear - forget our conversation so far\n")
	sb.WriteString("\nAnything that is not a command is sent to the model as chat.")
	if isAdmin {
		sb.WriteString("\n\nAdmin:\n")
		sb.WriteString("/set_default_model <id>\n")
		sb.WriteString("/toggle_model_access\n")
		sb.WriteString("/set_timeout <seconds>\n")
		sb.WriteString("/usage [user]")
	}
	return sb.String()
}

// HandleChat runs one exchange. The model reply is delivered through the
// sender inside the usecase; a non-empty return is the single user-facing
// failure notice the adapter should post.
func (b *BotFacade) HandleChat(ctx context.Context, userID string, chatID int64, text string) (string, error) {
	err := b.ChatUC.Exchange(ctx, userID, chatID, text)
	if err == nil {
		return "", nil
	}
	if errors.Is(err, domain.ErrDelivery) {
		// Part of the reply may already be in the chat, so tell the user
		// the rest was lost rather than leaving a silent truncation.
		return "The reply was cut short, the rest could not be delivered. Ask again to retry.", err
	}
	return chatFailureNotice(err), err
}

func (b *BotFacade) HandleModels(ctx context.Context, userID string) (string, error) {
	models, err := b.ModelUC.List(ctx)
	if err != nil {
		return "Could not fetch the model list right now, try again in a bit.", err
	}
	current, err := b.ModelUC.Selected(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "No models are available right now.", nil
	}
	sb := strings.Builder{}
	sb.WriteString("Available models:\n")
	for _, m := range models {
		marker := "  "
		if m.ID == current {
			marker = "* "
		}
		if m.Name != "" && m.Name != m.ID {
			sb.WriteString(fmt.Sprintf("%s%s (%s)\n", marker, m.ID, m.Name))
		} else {
			sb.WriteString(fmt.Sprintf("%s%s\n", marker, m.ID))
		}
	}
	sb.WriteString("\nSwitch with: /model <id>")
	return sb.String(), nil
}

func (b *BotFacade) HandleModel(ctx context.Context, tgID int64, userID, arg string) (string, error) {
	if arg == "" {
		current, err := b.ModelUC.Selected(ctx, userID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Your current model is %s.\nUse /model <id> to change it.", current), nil
	}
	err := b.ModelUC.Select(ctx, userID, arg, b.IsAdmin(tgID))
	switch {
	case err == nil:
		return fmt.Sprintf("Done. Your chats now use %s.", arg), nil
	case errors.Is(err, domain.ErrModelLocked):
		return "Model selection is disabled. An admin picked the model for everyone.", err
	case errors.Is(err, domain.ErrInvalidModel):
		return fmt.Sprintf("%s is not on the allowed model list. See /models.", arg), err
	default:
		return "Could not change your model, try again in a bit.", err
	}
}

func (b *BotFacade) HandleClear(ctx context.Context, userID string) (string, error) {
	if err := b.ChatUC.ClearContext(ctx, userID); err != nil {
		return "Could not clear the conversation, try again in a bit.", err
	}
	return "Conversation cleared. We start fresh from your next message.", nil
}

func (b *BotFacade) HandleSetDefaultModel(ctx context.Context, tgID int64, arg string) (string, error) {
	if !b.IsAdmin(tgID) {
		return "", domain.ErrNotAdmin
	}
	if arg == "" {
		return "Usage: /set_default_model <id>", domain.ErrInvalidArgument
	}
	err := b.ModelUC.SetDefault(ctx, arg)
	switch {
	case err == nil:
		return fmt.Sprintf("Default model is now %s.", arg), nil
	case errors.Is(err, domain.ErrInvalidModel):
		return fmt.Sprintf("%s is not on the allowed model list.", arg), err
	default:
		return "Could not change the default model.", err
	}
}

func (b *BotFacade) HandleToggleModelAccess(ctx context.Context, tgID int64) (string, error) {
	if !b.IsAdmin(tgID) {
		return "", domain.ErrNotAdmin
	}
	enabled, err := b.ModelUC.ToggleUserSelection(ctx)
	if err != nil {
		return "Could not toggle model access.", err
	}
	if enabled {
		return "Users can now pick their own model with /model.", nil
	}
	return "Model selection is now locked to the default model.", nil
}

func (b *BotFacade) HandleSetTimeout(ctx context.Context, tgID int64, arg string) (string, error) {
	if !b.IsAdmin(tgID) {
		return "", domain.ErrNotAdmin
	}
	seconds, convErr := strconv.Atoi(strings.TrimSpace(arg))
	if convErr != nil {
		return "Usage: /set_timeout <seconds>", fmt.Errorf("%w: %v", domain.ErrInvalidArgument, convErr)
	}
	if err := b.ModelUC.SetTimeout(ctx, seconds); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return "Timeout must be between 1 and 600 seconds.", err
		}
		return "Could not change the timeout.", err
	}
	return fmt.Sprintf("Model request timeout is now %d seconds.", seconds), nil
}

// HandleUsage reports either one user's counters or the per-user totals.
func (b *BotFacade) HandleUsage(ctx context.Context, tgID int64, arg string) (string, error) {
	if !b.IsAdmin(tgID) {
		return "", domain.ErrNotAdmin
	}
	if arg = strings.TrimSpace(arg); arg != "" {
		rec, err := b.StatsUC.ByUser(ctx, arg)
		if err != nil {
			return "Could not fetch usage for that user.", err
		}
		if rec.Exchanges == 0 {
			return fmt.Sprintf("No exchanges recorded for %s.", arg), nil
		}
		return fmt.Sprintf("%s: %d exchanges, %d in / %d out tokens",
			rec.UserID, rec.Exchanges, rec.PromptTokens, rec.CompletionTokens), nil
	}
	totals, err := b.StatsUC.Totals(ctx)
	if err != nil {
		return "Could not fetch usage stats.", err
	}
	if len(totals) == 0 {
		return "No exchanges recorded yet.", nil
	}
	sb := strings.Builder{}
	sb.WriteString("Usage by user:\n")
	var exchanges int64
	var tokens int64
	for _, rec := range totals {
		sb.WriteString(fmt.Sprintf("- %s: %d exchanges, %d in / %d out tokens\n",
			rec.UserID, rec.Exchanges, rec.PromptTokens, rec.CompletionTokens))
		exchanges += rec.Exchanges
		tokens += rec.PromptTokens + rec.CompletionTokens
	}
	sb.WriteString(fmt.Sprintf("\nTotal: %d exchanges, %d tokens", exchanges, tokens))
	return sb.String(), nil
}

// chatFailureNotice maps a model failure onto the one message the user sees.
func chatFailureNotice(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return "I need some text to work with."
	case errors.Is(err, domain.ErrModelRateLimited):
		return "The model is rate limited right now, give it a minute and retry."
	case errors.Is(err, domain.ErrModelTimeout):
		return "The model took too long to answer. Try again, or ask an admin to raise the timeout."
	case errors.Is(err, domain.ErrInvalidModel):
		return "Your selected model is not available anymore. Pick another with /models."
	case errors.Is(err, domain.ErrModelAuth):
		return "The bot cannot reach the model provider right now. Poke an admin."
	default:
		return "Something went wrong talking to the model. Nothing was saved, just send that again."
	}
}
