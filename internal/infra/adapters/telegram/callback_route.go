package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-openrouter-bridge/internal/domain/ports/adapter"
	red "telegram-openrouter-bridge/internal/infra/redis"
)

// maxMenuRows caps the inline keyboard size for the model picker.
const maxMenuRows = 24

type cbHandler func(ctx context.Context, chatID, tgID int64, data string) error
type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

func (r *RealBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"cmd:models": func(ctx context.Context, chatID, tgID int64, _ string) error {
			return r.sendModelMenu(ctx, chatID, tgID)
		},
		"cmd:clear": func(ctx context.Context, chatID, tgID int64, _ string) error {
			text, _ := r.facade.HandleClear(ctx, userKey(tgID))
			return r.Send(ctx, chatID, text)
		},
		"cmd:help": func(ctx context.Context, chatID, tgID int64, _ string) error {
			return r.Send(ctx, chatID, r.facade.HandleHelp(r.facade.IsAdmin(tgID)))
		},
	}
}

func (r *RealBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{Prefix: "model:", Fn: r.modelPickCBRoute},
	}
}

// modelPickCBRoute handles a tap on a model button.
func (r *RealBotAdapter) modelPickCBRoute(ctx context.Context, chatID, tgID int64, data string) error {
	modelID := strings.TrimPrefix(data, "model:")
	text, err := r.facade.HandleModel(ctx, tgID, userKey(tgID), modelID)
	if err != nil && text == "" {
		text = "Could not switch the model."
	}
	return r.Send(ctx, chatID, text)
}

func (r *RealBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop the telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	tgID := query.From.ID
	chatID := tgID
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	}

	data := strings.TrimSpace(query.Data)
	if r.limiter != nil {
		if allowed, err := r.limiter.Allow(ctx, red.UserCommandKey(tgID, "cb"), r.limits.CommandsPerMinute, rateWindow); err == nil && !allowed {
			return r.Send(ctx, chatID, "Rate limit exceeded. Please try again later.")
		}
	}

	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, chatID, tgID, data)
	}
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn(ctx, chatID, tgID, data)
		}
	}
	return errors.New("unknown callback data")
}

// sendModelMenu lists models as buttons, current one marked.
func (r *RealBotAdapter) sendModelMenu(ctx context.Context, chatID, tgID int64) error {
	models, err := r.facade.ModelUC.List(ctx)
	if err != nil || len(models) == 0 || len(models) > maxMenuRows {
		// Telegram keyboards get unwieldy past a screenful, so large
		// whitelists fall back to a plain listing sent in segments.
		text, herr := r.facade.HandleModels(ctx, userKey(tgID))
		if herr != nil {
			text = "Could not fetch the model list right now."
		}
		return r.sendLong(ctx, chatID, text)
	}
	current, _ := r.facade.ModelUC.Selected(ctx, userKey(tgID))

	rows := make([][]adapter.InlineButton, 0, len(models))
	for _, m := range models {
		label := m.ID
		if m.Name != "" && m.Name != m.ID {
			label = m.Name
		}
		if m.ID == current {
			label = "✅ " + label
		}
		rows = append(rows, []adapter.InlineButton{{Text: label, Data: "model:" + m.ID}})
	}
	return r.SendButtons(ctx, chatID, "Choose a model:", rows)
}
