package ai

import (
	"context"

	"telegram-openrouter-bridge/internal/domain/ports/adapter"
)

var _ adapter.ModelClient = (*NoopClient)(nil)

// NoopClient echoes the last user message back. Used in dev mode and tests
// so the bot can run without provider credentials.
type NoopClient struct {
	Model string
}

func (n *NoopClient) Complete(ctx context.Context, model string, messages []adapter.Message) (adapter.Reply, error) {
	if model == "" {
		model = n.Model
	}
	text := "(noop)"
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			text = "echo: " + messages[i].Content
			break
		}
	}
	return adapter.Reply{Text: text, Model: model}, nil
}

func (n *NoopClient) ListModels(ctx context.Context) ([]adapter.ModelInfo, error) {
	return []adapter.ModelInfo{{ID: n.Model, Name: n.Model, Description: "echo stub"}}, nil
}
