// File: internal/usecase/stats_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-openrouter-bridge/internal/domain/model"
	"telegram-openrouter-bridge/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	ByUser(ctx context.Context, userID string) (model.UsageRecord, error)
	Totals(ctx context.Context) ([]model.UsageRecord, error)
}

type statsUC struct {
	usage repository.UsageRepository
	log   *zerolog.Logger
}

func NewStatsUseCase(usage repository.UsageRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{usage: usage, log: logger}
}

func (s *statsUC) ByUser(ctx context.Context, userID string) (model.UsageRecord, error) {
	return s.usage.ByUser(ctx, userID)
}

func (s *statsUC) Totals(ctx context.Context) ([]model.UsageRecord, error) {
	return s.usage.Totals(ctx)
}
