package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-openrouter-bridge/internal/domain"
	"telegram-openrouter-bridge/internal/domain/ports/adapter"
	"telegram-openrouter-bridge/internal/infra/logging"
	"telegram-openrouter-bridge/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":  r.handleStartCommand,
		"help":   r.handleHelpCommand,
		"models": r.handleModelsCommand,
		"model":  r.handleModelCommand,
		"clear":  r.handleClearCommand,

		"set_default_model":   r.adminOnly(r.handleSetDefaultModelCommand),
		"toggle_model_access": r.adminOnly(r.handleToggleModelAccessCommand),
		"set_timeout":         r.adminOnly(r.handleSetTimeoutCommand),
		"usage":               r.adminOnly(r.handleUsageCommand),
	}
}

func (r *RealBotAdapter) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !r.facade.IsAdmin(message.From.ID) {
			metrics.IncCommand("/" + message.Command() + ":unauthorized")
			return r.Send(ctx, message.Chat.ID, "This command is for admins.")
		}
		metrics.IncCommand("/" + message.Command())
		return next(ctx, message)
	}
}

func (r *RealBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	metrics.IncCommand("/start")
	isAdmin := r.facade.IsAdmin(message.From.ID)
	if err := r.SetMenuCommands(ctx, message.Chat.ID, isAdmin); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", message.From.ID).Msg("failed to set menu commands")
	}
	text, err := r.facade.HandleStart(ctx, message.From.ID, message.From.UserName)
	if err != nil {
		return r.Send(ctx, message.Chat.ID, "Something went wrong, try /start again.")
	}
	return r.SendButtons(ctx, message.Chat.ID, text, startButtons())
}

// startButtons are the quick actions attached to the welcome message; their
// data is dispatched through cbRoutes.
func startButtons() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{
			{Text: "Models", Data: "cmd:models"},
			{Text: "Clear chat", Data: "cmd:clear"},
			{Text: "Help", Data: "cmd:help"},
		},
	}
}

func (r *RealBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	metrics.IncCommand("/help")
	return r.Send(ctx, message.Chat.ID, r.facade.HandleHelp(r.facade.IsAdmin(message.From.ID)))
}

// handleModelsCommand lists models as tappable buttons; picking one routes
// through the model: callback.
func (r *RealBotAdapter) handleModelsCommand(ctx context.Context, message *tgbotapi.Message) error {
	metrics.IncCommand("/models")
	return r.sendModelMenu(ctx, message.Chat.ID, message.From.ID)
}

func (r *RealBotAdapter) handleModelCommand(ctx context.Context, message *tgbotapi.Message) error {
	metrics.IncCommand("/model")
	arg := strings.TrimSpace(message.CommandArguments())
	text, err := r.facade.HandleModel(ctx, message.From.ID, userKey(message.From.ID), arg)
	if err != nil && text == "" {
		text = "Could not handle that, try again."
	}
	return r.Send(ctx, message.Chat.ID, text)
}

func (r *RealBotAdapter) handleClearCommand(ctx context.Context, message *tgbotapi.Message) error {
	metrics.IncCommand("/clear")
	text, _ := r.facade.HandleClear(ctx, userKey(message.From.ID))
	return r.Send(ctx, message.Chat.ID, text)
}

func (r *RealBotAdapter) handleSetDefaultModelCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleSetDefaultModel(ctx, message.From.ID, strings.TrimSpace(message.CommandArguments()))
	if err != nil && text == "" {
		text = "Could not change the default model."
	}
	return r.Send(ctx, message.Chat.ID, text)
}

func (r *RealBotAdapter) handleToggleModelAccessCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleToggleModelAccess(ctx, message.From.ID)
	if err != nil && text == "" {
		text = "Could not toggle model access."
	}
	return r.Send(ctx, message.Chat.ID, text)
}

func (r *RealBotAdapter) handleSetTimeoutCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleSetTimeout(ctx, message.From.ID, message.CommandArguments())
	if err != nil && text == "" {
		text = "Could not change the timeout."
	}
	return r.Send(ctx, message.Chat.ID, text)
}

func (r *RealBotAdapter) handleUsageCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleUsage(ctx, message.From.ID, message.CommandArguments())
	if err != nil && text == "" {
		text = "Could not fetch usage stats."
	}
	return r.sendLong(ctx, message.Chat.ID, text)
}

// handleChatMessage forwards plain text to the exchange flow. Segments are
// delivered by the usecase through Send; a non-empty notice means the
// exchange failed and this is the one message the user gets instead.
func (r *RealBotAdapter) handleChatMessage(ctx context.Context, message *tgbotapi.Message) error {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		return nil
	}
	metrics.IncCommand("message")

	ctx = logging.WithUserID(ctx, userKey(message.From.ID))
	ctx = logging.WithChatID(ctx, message.Chat.ID)

	typing := tgbotapi.NewChatAction(message.Chat.ID, tgbotapi.ChatTyping)
	if _, err := r.bot.Request(typing); err != nil {
		r.log.Debug().Err(err).Msg("chat action failed")
	}

	notice, err := r.facade.HandleChat(ctx, userKey(message.From.ID), message.Chat.ID, text)
	if err != nil {
		if errors.Is(err, domain.ErrDelivery) {
			// Best effort: the channel already dropped a segment, but a
			// single failed send is often transient.
			r.log.Error().Err(err).Int64("chat_id", message.Chat.ID).Msg("reply delivery aborted")
			if notice != "" {
				if serr := r.Send(ctx, message.Chat.ID, notice); serr != nil {
					r.log.Debug().Err(serr).Msg("delivery notice not sent")
				}
			}
			return nil
		}
		r.log.Warn().Err(err).Int64("chat_id", message.Chat.ID).Msg("exchange failed")
		if notice != "" {
			return r.Send(ctx, message.Chat.ID, notice)
		}
	}
	return nil
}
