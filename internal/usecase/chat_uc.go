// File: internal/usecase/chat_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-openrouter-bridge/internal/chunk"
	"telegram-openrouter-bridge/internal/domain"
	"telegram-openrouter-bridge/internal/domain/model"
	"telegram-openrouter-bridge/internal/domain/ports/adapter"
	"telegram-openrouter-bridge/internal/domain/ports/repository"
	"telegram-openrouter-bridge/internal/infra/logging"
	"telegram-openrouter-bridge/internal/infra/metrics"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

type ChatUseCase interface {
	// Exchange runs one full round trip: resolve model, call the provider,
	// update the conversation, deliver the chunked reply in order.
	Exchange(ctx context.Context, userID string, chatID int64, text string) error
	ClearContext(ctx context.Context, userID string) error
}

// SnapshotStore is the optional persistence collaborator. Snapshots are
// best-effort: a failed store never fails the exchange.
type SnapshotStore interface {
	Store(ctx context.Context, conv *model.Conversation) error
	Load(ctx context.Context, userID string) (*model.Conversation, error)
	Delete(ctx context.Context, userID string) error
}

// TokenCounter estimates tokens when the provider reports no usage.
type TokenCounter interface {
	Count(text string) int
}

type ChatConfig struct {
	MaxHistoryTurns  int
	MaxMessageLength int
	SegmentDelay     time.Duration
	SystemPrompt     string
}

type chatUC struct {
	convs    repository.ConversationRepository
	settings repository.SettingsRepository
	usage    repository.UsageRepository
	ai       adapter.ModelClient
	sender   adapter.MessageSender
	snap     SnapshotStore // may be nil
	counter  TokenCounter
	cfg      ChatConfig
	log      *zerolog.Logger
}

func NewChatUseCase(
	convs repository.ConversationRepository,
	settings repository.SettingsRepository,
	usage repository.UsageRepository,
	ai adapter.ModelClient,
	sender adapter.MessageSender,
	snap SnapshotStore,
	counter TokenCounter,
	cfg ChatConfig,
	logger *zerolog.Logger,
) *chatUC {
	return &chatUC{
		convs:    convs,
		settings: settings,
		usage:    usage,
		ai:       ai,
		sender:   sender,
		snap:     snap,
		counter:  counter,
		cfg:      cfg,
		log:      logger,
	}
}

func (c *chatUC) Exchange(ctx context.Context, userID string, chatID int64, text string) error {
	log := logging.With(ctx, c.log)
	defer logging.TraceDuration(log, "ChatUC.Exchange")()

	// Validate before touching any state.
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrInvalidArgument
	}

	// All access to one user's conversation is serialized here.
	unlock := c.convs.Lock(userID)
	defer unlock()

	conv, err := c.convs.Get(ctx, userID)
	if err != nil {
		return err
	}
	if len(conv.Turns) == 0 && c.snap != nil {
		if cached, err := c.snap.Load(ctx, userID); err == nil && cached != nil {
			conv = cached
		}
	}
	if len(conv.Turns) == 0 && c.cfg.SystemPrompt != "" {
		conv.Pin(c.cfg.SystemPrompt)
	}

	modelID, err := c.resolveModel(ctx, userID)
	if err != nil {
		return err
	}

	messages := make([]adapter.Message, 0, len(conv.Turns)+1)
	for _, t := range conv.Turns {
		messages = append(messages, adapter.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, adapter.Message{Role: model.RoleUser, Content: text})

	reply, err := c.ai.Complete(ctx, modelID, messages)
	if err != nil {
		// No context mutation on a failed exchange.
		metrics.IncExchange("model_error")
		return err
	}
	if reply.Model != "" && reply.Model != modelID {
		log.Debug().Str("requested", modelID).Str("served", reply.Model).Msg("provider substituted model")
	}

	conv.Append(model.RoleUser, text, c.cfg.MaxHistoryTurns)
	conv.Append(model.RoleAssistant, reply.Text, c.cfg.MaxHistoryTurns)
	if err := c.convs.Save(ctx, conv); err != nil {
		return err
	}
	if c.snap != nil {
		if err := c.snap.Store(ctx, conv); err != nil {
			log.Warn().Err(err).Msg("conversation snapshot failed")
		}
	}

	c.recordUsage(ctx, userID, text, reply)

	if err := c.deliver(ctx, chatID, reply.Text); err != nil {
		metrics.IncExchange("delivery_error")
		return err
	}
	metrics.IncExchange("ok")
	return nil
}

func (c *chatUC) ClearContext(ctx context.Context, userID string) error {
	unlock := c.convs.Lock(userID)
	defer unlock()
	if err := c.convs.Clear(ctx, userID); err != nil {
		return err
	}
	if c.snap != nil {
		if err := c.snap.Delete(ctx, userID); err != nil {
			c.log.Warn().Err(err).Msg("snapshot delete failed")
		}
	}
	return nil
}

// resolveModel applies the preference chain: user override, then the
// admin-set default.
func (c *chatUC) resolveModel(ctx context.Context, userID string) (string, error) {
	if m, err := c.settings.UserModel(ctx, userID); err == nil && m != "" {
		return m, nil
	}
	s, err := c.settings.Settings(ctx)
	if err != nil {
		return "", err
	}
	return s.DefaultModel, nil
}

func (c *chatUC) recordUsage(ctx context.Context, userID, prompt string, reply adapter.Reply) {
	in, out := reply.Usage.PromptTokens, reply.Usage.CompletionTokens
	if in == 0 && out == 0 && c.counter != nil {
		in = c.counter.Count(prompt)
		out = c.counter.Count(reply.Text)
	}
	if err := c.usage.Record(ctx, userID, in, out); err != nil {
		c.log.Warn().Err(err).Msg("usage record failed")
	}
	metrics.ObserveTokens(reply.Model, in, out)
}

// deliver sends segments strictly in order, each awaited before the next.
// A failed send aborts the rest; already delivered segments stand.
func (c *chatUC) deliver(ctx context.Context, chatID int64, text string) error {
	segments := chunk.Split(text, c.cfg.MaxMessageLength)
	for i, seg := range segments {
		if i > 0 && c.cfg.SegmentDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.SegmentDelay):
			}
		}
		if err := c.sender.Send(ctx, chatID, seg.Content); err != nil {
			metrics.IncDeliveryFailure()
			metrics.AddSegmentsSent(i)
			return fmt.Errorf("%w: segment %d of %d: %v", domain.ErrDelivery, i+1, len(segments), err)
		}
	}
	metrics.AddSegmentsSent(len(segments))
	return nil
}
