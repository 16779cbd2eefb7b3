package services

import (
	"context"

	"github.com/go-playground/validator/v10"

	"retail-ops-api/internal/auth"
	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"
)

// settingsService implements the SettingsService interface
type settingsService struct {
	settings  repositories.SettingsRepository
	validator *validator.Validate
}

// NewSettingsService creates a new settings service instance
func NewSettingsService(settings repositories.SettingsRepository) SettingsService {
	return &settingsService{
		settings:  settings,
		validator: validator.New(),
	}
}

// GetCommissionSetting retrieves the commission configuration
func (s *settingsService) GetCommissionSetting(ctx context.Context) (*models.CommissionSetting, error) {
	setting, err := s.settings.GetCommissionSetting(ctx)
	if err != nil {
		return nil, WrapRepositoryError("failed to get commission setting", err)
	}
	return setting, nil
}

// UpdateCommissionSetting replaces the commission configuration
func (s *settingsService) UpdateCommissionSetting(ctx context.Context, actor *models.User, req *CommissionSettingRequest) (*models.CommissionSetting, error) {
	if !auth.Can(actor, auth.ActionManageSettings) {
		return nil, NewPermissionError("not allowed to manage settings")
	}

	if req == nil {
		return nil, NewValidationError("commission setting request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("invalid commission setting: %v", err)
	}

	if req.IsActive && req.CommissionInterval <= 0 {
		return nil, NewValidationError("commission interval must be positive when commissions are active")
	}

	setting := &models.CommissionSetting{
		IsActive:             req.IsActive,
		SalesTarget:          req.SalesTarget,
		CommissionInterval:   req.CommissionInterval,
		CommissionPercentage: req.CommissionPercentage,
	}

	if err := s.settings.SaveCommissionSetting(ctx, setting); err != nil {
		return nil, WrapRepositoryError("failed to save commission setting", err)
	}

	return setting, nil
}

// GetTaxSettings retrieves the configured tax lines
func (s *settingsService) GetTaxSettings(ctx context.Context) ([]models.TaxSetting, error) {
	settings, err := s.settings.GetTaxSettings(ctx)
	if err != nil {
		return nil, WrapRepositoryError("failed to get tax settings", err)
	}
	return settings, nil
}

// UpdateTaxSettings replaces the configured tax lines
func (s *settingsService) UpdateTaxSettings(ctx context.Context, actor *models.User, settings []models.TaxSetting) error {
	if !auth.Can(actor, auth.ActionManageSettings) {
		return NewPermissionError("not allowed to manage settings")
	}

	for i := range settings {
		if err := settings[i].Validate(); err != nil {
			return NewValidationError("invalid tax setting: %v", err)
		}
	}

	if err := s.settings.SaveTaxSettings(ctx, settings); err != nil {
		return WrapRepositoryError("failed to save tax settings", err)
	}
	return nil
}
