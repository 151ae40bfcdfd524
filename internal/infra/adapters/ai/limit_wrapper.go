package ai

import (
	"context"

	"telegram-openrouter-bridge/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ModelClient = (*limitedClient)(nil)

// limitedClient bounds the number of concurrent provider calls.
type limitedClient struct {
	inner adapter.ModelClient
	sem   chan struct{}
}

func NewLimitedClient(inner adapter.ModelClient, maxConcurrent int) adapter.ModelClient {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedClient{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedClient) Complete(ctx context.Context, model string, messages []adapter.Message) (adapter.Reply, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return adapter.Reply{}, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Complete(ctx, model, messages)
}

func (l *limitedClient) ListModels(ctx context.Context) ([]adapter.ModelInfo, error) {
	return l.inner.ListModels(ctx)
}
