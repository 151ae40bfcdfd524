// File: internal/usecase/model_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-openrouter-bridge/internal/domain"
	"telegram-openrouter-bridge/internal/domain/model"
	"telegram-openrouter-bridge/internal/domain/ports/adapter"
	"telegram-openrouter-bridge/internal/domain/ports/repository"
)

// Compile-time check
var _ ModelUseCase = (*modelUC)(nil)

type ModelUseCase interface {
	List(ctx context.Context) ([]adapter.ModelInfo, error)
	Select(ctx context.Context, userID, modelID string, isAdmin bool) error
	Selected(ctx context.Context, userID string) (string, error)
	SetDefault(ctx context.Context, modelID string) error
	ToggleUserSelection(ctx context.Context) (bool, error)
	SetTimeout(ctx context.Context, seconds int) error
	Settings(ctx context.Context) (model.Settings, error)
}

type modelUC struct {
	settings repository.SettingsRepository
	ai       adapter.ModelClient
	log      *zerolog.Logger
}

func NewModelUseCase(settings repository.SettingsRepository, ai adapter.ModelClient, logger *zerolog.Logger) *modelUC {
	return &modelUC{settings: settings, ai: ai, log: logger}
}

func (m *modelUC) List(ctx context.Context) ([]adapter.ModelInfo, error) {
	return m.ai.ListModels(ctx)
}

// Select stores a per-user model override. Whitelisting (when enabled)
// applies to admins too; the selection toggle only gates regular users.
func (m *modelUC) Select(ctx context.Context, userID, modelID string, isAdmin bool) error {
	if modelID == "" {
		return domain.ErrInvalidArgument
	}
	s, err := m.settings.Settings(ctx)
	if err != nil {
		return err
	}
	if !s.UserSelection && !isAdmin {
		return domain.ErrModelLocked
	}
	if !s.ModelAllowed(modelID) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidModel, modelID)
	}
	return m.settings.SetUserModel(ctx, userID, modelID)
}

func (m *modelUC) Selected(ctx context.Context, userID string) (string, error) {
	override, err := m.settings.UserModel(ctx, userID)
	if err != nil {
		return "", err
	}
	if override != "" {
		return override, nil
	}
	s, err := m.settings.Settings(ctx)
	if err != nil {
		return "", err
	}
	return s.DefaultModel, nil
}

func (m *modelUC) SetDefault(ctx context.Context, modelID string) error {
	if modelID == "" {
		return domain.ErrInvalidArgument
	}
	s, err := m.settings.Settings(ctx)
	if err != nil {
		return err
	}
	if !s.ModelAllowed(modelID) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidModel, modelID)
	}
	_, err = m.settings.UpdateSettings(ctx, func(st *model.Settings) {
		st.DefaultModel = modelID
	})
	if err == nil {
		m.log.Info().Str("model", modelID).Msg("default model changed")
	}
	return err
}

func (m *modelUC) ToggleUserSelection(ctx context.Context) (bool, error) {
	s, err := m.settings.UpdateSettings(ctx, func(st *model.Settings) {
		st.UserSelection = !st.UserSelection
	})
	if err != nil {
		return false, err
	}
	m.log.Info().Bool("enabled", s.UserSelection).Msg("user model selection toggled")
	return s.UserSelection, nil
}

func (m *modelUC) SetTimeout(ctx context.Context, seconds int) error {
	if seconds < 1 || seconds > 600 {
		return fmt.Errorf("%w: timeout must be 1..600 seconds", domain.ErrInvalidArgument)
	}
	_, err := m.settings.UpdateSettings(ctx, func(st *model.Settings) {
		st.RequestTimeoutSeconds = seconds
	})
	if err == nil {
		m.log.Info().Int("seconds", seconds).Msg("request timeout changed")
	}
	return err
}

func (m *modelUC) Settings(ctx context.Context) (model.Settings, error) {
	return m.settings.Settings(ctx)
}
