package memory

import (
	"context"
	"sync"

	"telegram-openrouter-bridge/internal/domain/model"
	"telegram-openrouter-bridge/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo holds the admin settings and per-user model overrides.
type SettingsRepo struct {
	mu         sync.RWMutex
	settings   model.Settings
	userModels map[string]string
}

func NewSettingsRepo(initial model.Settings) *SettingsRepo {
	return &SettingsRepo{
		settings:   initial,
		userModels: make(map[string]string),
	}
}

func (r *SettingsRepo) Settings(ctx context.Context) (model.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copySettings(), nil
}

func (r *SettingsRepo) UpdateSettings(ctx context.Context, mutate func(*model.Settings)) (model.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mutate(&r.settings)
	return r.copySettings(), nil
}

func (r *SettingsRepo) UserModel(ctx context.Context, userID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.userModels[userID], nil
}

func (r *SettingsRepo) SetUserModel(ctx context.Context, userID, modelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userModels[userID] = modelID
	return nil
}

// copySettings must be called with at least a read lock held.
func (r *SettingsRepo) copySettings() model.Settings {
	s := r.settings
	s.AllowedModels = append([]string(nil), r.settings.AllowedModels...)
	return s
}
