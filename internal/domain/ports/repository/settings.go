package repository

import (
	"context"

	"telegram-openrouter-bridge/internal/domain/model"
)

// SettingsRepository holds the admin-controlled settings plus per-user
// model overrides.
type SettingsRepository interface {
	Settings(ctx context.Context) (model.Settings, error)
	UpdateSettings(ctx context.Context, mutate func(*model.Settings)) (model.Settings, error)

	UserModel(ctx context.Context, userID string) (string, error)
	SetUserModel(ctx context.Context, userID, modelID string) error
}
