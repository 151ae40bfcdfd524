package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"telegram-openrouter-bridge/internal/domain/model"
	"telegram-openrouter-bridge/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.UsageRepository = (*UsageRepo)(nil)

// UsageRepo accumulates per-user exchange counters in memory.
type UsageRepo struct {
	mu      sync.Mutex
	records map[string]*model.UsageRecord
}

func NewUsageRepo() *UsageRepo {
	return &UsageRepo{records: make(map[string]*model.UsageRecord)}
}

func (r *UsageRepo) Record(ctx context.Context, userID string, promptTokens, completionTokens int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	if !ok {
		rec = &model.UsageRecord{UserID: userID}
		r.records[userID] = rec
	}
	rec.Exchanges++
	rec.PromptTokens += int64(promptTokens)
	rec.CompletionTokens += int64(completionTokens)
	rec.LastExchangeAt = time.Now()
	return nil
}

func (r *UsageRepo) ByUser(ctx context.Context, userID string) (model.UsageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[userID]; ok {
		return *rec, nil
	}
	return model.UsageRecord{UserID: userID}, nil
}

func (r *UsageRepo) Totals(ctx context.Context) ([]model.UsageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.UsageRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Exchanges > out[j].Exchanges })
	return out, nil
}
