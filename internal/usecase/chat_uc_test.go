package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"telegram-openrouter-bridge/internal/domain"
	"telegram-openrouter-bridge/internal/domain/model"
	"telegram-openrouter-bridge/internal/infra/memory"
)

func newChatFixture(ai *fakeAI, sender *fakeSender) (*chatUC, *memory.ConversationRepo, *memory.UsageRepo) {
	convs := memory.NewConversationRepo()
	settings := memory.NewSettingsRepo(testSettings())
	usage := memory.NewUsageRepo()
	uc := NewChatUseCase(convs, settings, usage, ai, sender, nil, fixedCounter{n: 3}, testChatConfig(), testLogger())
	return uc, convs, usage
}

func TestExchangeAppendsBothTurns(t *testing.T) {
	ctx := context.Background()
	ai := okAI("hello there")
	sender := &fakeSender{}
	uc, convs, usage := newChatFixture(ai, sender)

	if err := uc.Exchange(ctx, "u1", 42, "hi"); err != nil {
		t.Fatalf("exchange: %v", err)
	}

	conv, _ := convs.Get(ctx, "u1")
	if len(conv.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(conv.Turns))
	}
	if conv.Turns[0].Role != model.RoleUser || conv.Turns[0].Content != "hi" {
		t.Fatalf("user turn wrong: %+v", conv.Turns[0])
	}
	if conv.Turns[1].Role != model.RoleAssistant || conv.Turns[1].Content != "hello there" {
		t.Fatalf("assistant turn wrong: %+v", conv.Turns[1])
	}

	if sender.sentCount() != 1 || sender.sent[0] != "hello there" {
		t.Fatalf("expected one delivered segment, got %v", sender.sent)
	}
	if sender.chats[0] != 42 {
		t.Fatalf("delivered to wrong chat: %d", sender.chats[0])
	}

	rec, _ := usage.ByUser(ctx, "u1")
	if rec.Exchanges != 1 {
		t.Fatalf("usage not recorded: %+v", rec)
	}
}

func TestExchangeSendsHistoryOldestFirst(t *testing.T) {
	ctx := context.Background()
	ai := okAI("r")
	sender := &fakeSender{}
	uc, _, _ := newChatFixture(ai, sender)

	_ = uc.Exchange(ctx, "u1", 1, "first")
	_ = uc.Exchange(ctx, "u1", 1, "second")

	// Second call carries: first, reply, second.
	if len(ai.lastMsg) != 3 {
		t.Fatalf("expected 3 messages in history, got %d", len(ai.lastMsg))
	}
	if ai.lastMsg[0].Content != "first" || ai.lastMsg[2].Content != "second" {
		t.Fatalf("history out of order: %+v", ai.lastMsg)
	}
}

func TestExchangeModelErrorLeavesContextUntouched(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAI{script: []fakeReply{{err: domain.ErrModelAuth}}}
	sender := &fakeSender{}
	uc, convs, usage := newChatFixture(ai, sender)

	err := uc.Exchange(ctx, "u1", 42, "hi")
	if !errors.Is(err, domain.ErrModelAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}

	conv, _ := convs.Get(ctx, "u1")
	if len(conv.Turns) != 0 {
		t.Fatalf("failed exchange must not mutate context, got %d turns", len(conv.Turns))
	}
	if sender.sentCount() != 0 {
		t.Fatalf("nothing should be delivered on model error")
	}
	rec, _ := usage.ByUser(ctx, "u1")
	if rec.Exchanges != 0 {
		t.Fatalf("usage must not count failed exchanges")
	}
}

func TestExchangeRejectsEmptyInput(t *testing.T) {
	ctx := context.Background()
	ai := okAI("x")
	sender := &fakeSender{}
	uc, _, _ := newChatFixture(ai, sender)

	if err := uc.Exchange(ctx, "u1", 1, "   "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if ai.calls != 0 {
		t.Fatalf("validation must run before the provider call")
	}
}

func TestExchangeChunksLongReply(t *testing.T) {
	ctx := context.Background()
	long := strings.Repeat("segment words here ", 30) // ~570 chars, limit 100
	ai := okAI(long)
	sender := &fakeSender{}
	uc, _, _ := newChatFixture(ai, sender)

	if err := uc.Exchange(ctx, "u1", 1, "hi"); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if sender.sentCount() < 2 {
		t.Fatalf("expected multiple segments, got %d", sender.sentCount())
	}
	var joined strings.Builder
	for _, s := range sender.sent {
		if len(s) > 100 {
			t.Fatalf("segment exceeds limit: %d chars", len(s))
		}
		joined.WriteString(s)
	}
	if joined.String() != long {
		t.Fatalf("segments must concatenate to the reply")
	}
}

func TestExchangeDeliveryFailureAbortsRemainingSegments(t *testing.T) {
	ctx := context.Background()
	long := strings.Repeat("words and more words ", 12) // 3 segments at limit 100
	ai := okAI(long)
	sender := &fakeSender{failAt: 2, failWith: errors.New("telegram 502")}
	uc, convs, _ := newChatFixture(ai, sender)

	err := uc.Exchange(ctx, "u1", 1, "hi")
	if !errors.Is(err, domain.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if sender.sentCount() != 1 {
		t.Fatalf("segment 1 stands, the rest are aborted; sent %d", sender.sentCount())
	}
	// The reply was obtained, so the context keeps both turns.
	conv, _ := convs.Get(ctx, "u1")
	if len(conv.Turns) != 2 {
		t.Fatalf("context must reflect the completed model exchange")
	}
}

func TestExchangeUsesUserModelOverride(t *testing.T) {
	ctx := context.Background()
	ai := okAI("ok")
	sender := &fakeSender{}

	convs := memory.NewConversationRepo()
	settings := memory.NewSettingsRepo(testSettings())
	usage := memory.NewUsageRepo()
	_ = settings.SetUserModel(ctx, "u1", "anthropic/claude-sonnet-4")
	uc := NewChatUseCase(convs, settings, usage, ai, sender, nil, fixedCounter{n: 1}, testChatConfig(), testLogger())

	if err := uc.Exchange(ctx, "u1", 1, "hi"); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if ai.lastModel != "anthropic/claude-sonnet-4" {
		t.Fatalf("user override ignored, provider saw %q", ai.lastModel)
	}
}

func TestExchangePinsSystemPrompt(t *testing.T) {
	ctx := context.Background()
	ai := okAI("ok")
	sender := &fakeSender{}
	convs := memory.NewConversationRepo()
	settings := memory.NewSettingsRepo(testSettings())
	cfg := testChatConfig()
	cfg.SystemPrompt = "be concise"
	uc := NewChatUseCase(convs, settings, memory.NewUsageRepo(), ai, sender, nil, fixedCounter{n: 1}, cfg, testLogger())

	_ = uc.Exchange(ctx, "u1", 1, "hi")
	if len(ai.lastMsg) != 2 || ai.lastMsg[0].Role != model.RoleSystem {
		t.Fatalf("system prompt must lead the history: %+v", ai.lastMsg)
	}
	conv, _ := convs.Get(ctx, "u1")
	if !conv.Turns[0].Pinned {
		t.Fatalf("system turn must be pinned")
	}
}

func TestConcurrentExchangesForDifferentUsers(t *testing.T) {
	ctx := context.Background()
	ai := okAI("reply")
	sender := &fakeSender{}
	uc, convs, _ := newChatFixture(ai, sender)

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", u)
			for i := 0; i < 5; i++ {
				if err := uc.Exchange(ctx, userID, int64(u), fmt.Sprintf("msg-%d", i)); err != nil {
					t.Errorf("user %d: %v", u, err)
					return
				}
			}
		}(u)
	}
	wg.Wait()

	for u := 0; u < 8; u++ {
		conv, _ := convs.Get(ctx, fmt.Sprintf("user-%d", u))
		if len(conv.Turns) != 10 {
			t.Fatalf("user %d expected 10 turns, got %d", u, len(conv.Turns))
		}
	}
}

func TestClearContextKeepsPreference(t *testing.T) {
	ctx := context.Background()
	ai := okAI("ok")
	sender := &fakeSender{}
	convs := memory.NewConversationRepo()
	settings := memory.NewSettingsRepo(testSettings())
	uc := NewChatUseCase(convs, settings, memory.NewUsageRepo(), ai, sender, nil, fixedCounter{n: 1}, testChatConfig(), testLogger())

	_ = settings.SetUserModel(ctx, "u1", "anthropic/claude-sonnet-4")
	_ = uc.Exchange(ctx, "u1", 1, "hi")
	if err := uc.ClearContext(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	conv, _ := convs.Get(ctx, "u1")
	if len(conv.Turns) != 0 {
		t.Fatalf("history must be empty after clear")
	}
	m, _ := settings.UserModel(ctx, "u1")
	if m != "anthropic/claude-sonnet-4" {
		t.Fatalf("model preference must survive clear, got %q", m)
	}
}
