package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-openrouter-bridge/internal/application"
	"telegram-openrouter-bridge/internal/chunk"
	"telegram-openrouter-bridge/internal/config"
	"telegram-openrouter-bridge/internal/domain/ports/adapter"
	"telegram-openrouter-bridge/internal/infra/logging"
	red "telegram-openrouter-bridge/internal/infra/redis"
	"telegram-openrouter-bridge/internal/infra/worker"
)

var _ adapter.BotAdapter = (*RealBotAdapter)(nil)

const rateWindow = time.Minute

// RealBotAdapter uses tgbotapi to poll updates and delegates to BotFacade.
// Each update is handed to the worker pool so a slow model call never stalls
// the polling loop.
type RealBotAdapter struct {
	bot          *tgbotapi.BotAPI
	cfg          *config.BotConfig
	facade       *application.BotFacade
	limiter      *red.RateLimiter
	limits       config.LimitsConfig
	pool         *worker.Pool
	allowedChats map[int64]struct{}
	log          *zerolog.Logger

	cancelPolling context.CancelFunc
}

func NewRealBotAdapter(
	cfg *config.BotConfig,
	limits config.LimitsConfig,
	facade *application.BotFacade,
	limiter *red.RateLimiter,
	pool *worker.Pool,
	logger *zerolog.Logger,
) (*RealBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if pool == nil {
		return nil, errors.New("worker pool is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	allowed := make(map[int64]struct{}, len(cfg.AllowedChatIDs))
	for _, id := range cfg.AllowedChatIDs {
		allowed[id] = struct{}{}
	}

	return &RealBotAdapter{
		bot:          bot,
		cfg:          cfg,
		facade:       facade,
		limiter:      limiter,
		limits:       limits,
		pool:         pool,
		allowedChats: allowed,
		log:          logger,
	}, nil
}

// chatAllowed reports whether the bot serves this chat. An empty
// allowed_chat_ids list means every chat is served.
func (r *RealBotAdapter) chatAllowed(chatID int64) bool {
	if len(r.allowedChats) == 0 {
		return true
	}
	_, ok := r.allowedChats[chatID]
	return ok
}

func (r *RealBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	r.log.Info().Str("bot", r.bot.Self.UserName).Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return ctx.Err()
		case up := <-updates:
			update := up
			if err := r.pool.Submit(func(taskCtx context.Context) error {
				return r.handleUpdate(taskCtx, update)
			}); err != nil {
				r.log.Warn().Err(err).Msg("update dropped")
				if chatID := updateChatID(update); chatID != 0 {
					_ = r.Send(ctx, chatID, "I am flooded right now, try again in a few seconds.")
				}
			}
		}
	}
}

func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// Send implements the adapter port used by the dispatcher.
func (r *RealBotAdapter) Send(ctx context.Context, chatID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := r.bot.Send(msg)
	return err
}

// sendLong splits command output the same way chat replies are split, so
// long model or usage listings go out as ordered segments.
func (r *RealBotAdapter) sendLong(ctx context.Context, chatID int64, text string) error {
	for _, seg := range chunk.Split(text, r.cfg.MaxMessageLength) {
		if err := r.Send(ctx, chatID, seg.Content); err != nil {
			return err
		}
	}
	return nil
}

// SendButtons sends a message with inline buttons.
// A button opens a link when URL is set, otherwise it sends callback data.
func (r *RealBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kb := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kb = append(kb, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kb = append(kb, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				kb = append(kb, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, kb)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := r.bot.Send(msg)
	return err
}

// SetMenuCommands registers the command menu Telegram shows in the input
// field. Admins get the extended set.
func (r *RealBotAdapter) SetMenuCommands(ctx context.Context, chatID int64, isAdmin bool) error {
	commands := []tgbotapi.BotCommand{
		{Command: "models", Description: "List available models"},
		{Command: "model", Description: "Pick or show your model"},
		{Command: "clear", Description: "Forget the conversation"},
		{Command: "help", Description: "Show help"},
	}
	if isAdmin {
		commands = append(commands,
			tgbotapi.BotCommand{Command: "set_default_model", Description: "Change the default model"},
			tgbotapi.BotCommand{Command: "toggle_model_access", Description: "Lock or unlock model selection"},
			tgbotapi.BotCommand{Command: "set_timeout", Description: "Change the model timeout"},
			tgbotapi.BotCommand{Command: "usage", Description: "Show usage stats"},
		)
	}
	scope := tgbotapi.NewBotCommandScopeChat(chatID)
	_, err := r.bot.Request(tgbotapi.NewSetMyCommandsWithScope(scope, commands...))
	return err
}

func (r *RealBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	if update.CallbackQuery != nil {
		if q := update.CallbackQuery; q.Message != nil && !r.chatAllowed(q.Message.Chat.ID) {
			return nil
		}
		return r.handleQuery(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}
	msg := update.Message
	if !r.chatAllowed(msg.Chat.ID) {
		r.log.Debug().Int64("chat_id", msg.Chat.ID).Msg("ignoring update from unlisted chat")
		return nil
	}
	tgID := msg.From.ID

	command := "message"
	if msg.IsCommand() {
		command = "/" + msg.Command()
	}
	if !r.allow(ctx, tgID, command) {
		return r.Send(ctx, msg.Chat.ID, "Rate limit exceeded. Please try again later.")
	}

	if msg.IsCommand() {
		if fn, ok := r.commandRoutes()[msg.Command()]; ok {
			return fn(ctx, msg)
		}
		return r.Send(ctx, msg.Chat.ID, "Unknown command. See /help.")
	}
	return r.handleChatMessage(ctx, msg)
}

func (r *RealBotAdapter) allow(ctx context.Context, tgID int64, command string) bool {
	if r.limiter == nil {
		return true
	}
	allowed, err := r.limiter.Allow(ctx, red.UserCommandKey(tgID, command), r.limits.CommandsPerMinute, rateWindow)
	if err != nil {
		r.log.Warn().Err(err).Msg("rate limit check failed")
		return true
	}
	return allowed
}

func updateChatID(update tgbotapi.Update) int64 {
	if update.Message != nil && update.Message.Chat != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil {
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

func userKey(tgID int64) string {
	return strconv.FormatInt(tgID, 10)
}
