package usecase

import (
	"context"
	"sync"

	"telegram-openrouter-bridge/internal/config"
	"telegram-openrouter-bridge/internal/domain/model"
	"telegram-openrouter-bridge/internal/domain/ports/adapter"
	"telegram-openrouter-bridge/internal/infra/logging"

	"github.com/rs/zerolog"
)

// ---- Fakes ----

// fakeAI returns scripted outcomes per call, in order. When the script is
// exhausted the last entry repeats.
type fakeAI struct {
	mu        sync.Mutex
	script    []fakeReply
	calls     int
	lastMsg   []adapter.Message
	lastModel string
}

type fakeReply struct {
	reply adapter.Reply
	err   error
}

func (f *fakeAI) Complete(ctx context.Context, modelID string, messages []adapter.Message) (adapter.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastMsg = append([]adapter.Message(nil), messages...)
	f.lastModel = modelID
	i := f.calls - 1
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	s := f.script[i]
	if s.err != nil {
		return adapter.Reply{}, s.err
	}
	r := s.reply
	if r.Model == "" {
		r.Model = modelID
	}
	return r, nil
}

func (f *fakeAI) ListModels(ctx context.Context) ([]adapter.ModelInfo, error) {
	return []adapter.ModelInfo{
		{ID: "openai/gpt-4o-mini", Name: "GPT-4o mini"},
		{ID: "anthropic/claude-sonnet-4", Name: "Claude Sonnet 4"},
	}, nil
}

func okAI(text string) *fakeAI {
	return &fakeAI{script: []fakeReply{{reply: adapter.Reply{Text: text}}}}
}

// fakeSender records deliveries and can be told to fail the Nth send.
type fakeSender struct {
	mu       sync.Mutex
	sent     []string
	chats    []int64
	failAt   int // 1-based send index to fail on, 0 = never
	failWith error
}

func (f *fakeSender) Send(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt > 0 && len(f.sent)+1 == f.failAt {
		return f.failWith
	}
	f.sent = append(f.sent, text)
	f.chats = append(f.chats, chatID)
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fixedCounter makes token estimates deterministic.
type fixedCounter struct{ n int }

func (f fixedCounter) Count(string) int { return f.n }

func testLogger() *zerolog.Logger {
	return logging.New(config.LogConfig{Level: "error", Format: "console"}, true)
}

func testChatConfig() ChatConfig {
	return ChatConfig{
		MaxHistoryTurns:  10,
		MaxMessageLength: 100,
		SegmentDelay:     0,
	}
}

func testSettings() model.Settings {
	return model.Settings{
		DefaultModel:          "openai/gpt-4o-mini",
		UserSelection:         true,
		RequestTimeoutSeconds: 30,
	}
}
