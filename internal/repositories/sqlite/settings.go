package sqlite

import (
	"context"
	"database/sql"
	"time"

	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// Settings rows are keyed by name so new setting kinds need no schema work.
const (
	settingCommission = "commission"
	settingTaxes      = "taxes"
)

// SettingsRepository implements repositories.SettingsRepository for SQLite.
// Each setting is stored as a single JSON document in a key/value table.
type SettingsRepository struct {
	baseRepository
}

// NewSettingsRepository creates a new SQLite settings repository
func NewSettingsRepository(db dbtx, logger *logrus.Logger) repositories.SettingsRepository {
	return &SettingsRepository{
		baseRepository: newBaseRepository(db, "settings", logger),
	}
}

// GetCommissionSetting retrieves the commission configuration. When no
// configuration has been saved yet, an inactive zero-value setting is
// returned so callers can treat commissions as disabled.
func (r *SettingsRepository) GetCommissionSetting(ctx context.Context) (*models.CommissionSetting, error) {
	setting := &models.CommissionSetting{}
	found, err := r.load(ctx, settingCommission, setting)
	if err != nil {
		return nil, err
	}
	if !found {
		return &models.CommissionSetting{IsActive: false}, nil
	}
	return setting, nil
}

// SaveCommissionSetting stores the commission configuration
func (r *SettingsRepository) SaveCommissionSetting(ctx context.Context, setting *models.CommissionSetting) error {
	if err := setting.Validate(); err != nil {
		return repositories.ValidationError("setting", settingCommission, err)
	}
	return r.save(ctx, settingCommission, setting)
}

// GetTaxSettings retrieves the configured tax lines. An empty slice means
// no taxes are applied to new orders.
func (r *SettingsRepository) GetTaxSettings(ctx context.Context) ([]models.TaxSetting, error) {
	var settings []models.TaxSetting
	if _, err := r.load(ctx, settingTaxes, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SaveTaxSettings stores the full set of tax lines, replacing any previous set
func (r *SettingsRepository) SaveTaxSettings(ctx context.Context, settings []models.TaxSetting) error {
	for i := range settings {
		if err := settings[i].Validate(); err != nil {
			return repositories.ValidationError("setting", settingTaxes, err)
		}
	}
	return r.save(ctx, settingTaxes, settings)
}

func (r *SettingsRepository) load(ctx context.Context, name string, target interface{}) (bool, error) {
	var value string
	row := r.executeQueryRow(ctx, "get", "SELECT value FROM settings WHERE name = ?", name)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, repositories.NewRepositoryError("get", "setting", name, err)
	}

	if err := unmarshalColumn(value, target); err != nil {
		return false, repositories.NewRepositoryError("get", "setting", name, err)
	}
	return true, nil
}

func (r *SettingsRepository) save(ctx context.Context, name string, value interface{}) error {
	encoded, err := marshalColumn(value)
	if err != nil {
		return repositories.NewRepositoryError("save", "setting", name, err)
	}

	query := `
		INSERT INTO settings (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	_, err = r.executeExec(ctx, "save", query, name, encoded, time.Now())
	return err
}
