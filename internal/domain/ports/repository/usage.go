package repository

import (
	"context"

	"telegram-openrouter-bridge/internal/domain/model"
)

// UsageRepository accumulates per-user exchange counters.
type UsageRepository interface {
	Record(ctx context.Context, userID string, promptTokens, completionTokens int) error
	ByUser(ctx context.Context, userID string) (model.UsageRecord, error)
	Totals(ctx context.Context) ([]model.UsageRecord, error)
}
