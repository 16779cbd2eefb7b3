package services

import (
	"context"
	"testing"

	"retail-ops-api/internal/models"
)

// TestCommissionSettingLifecycle verifies the default, update and read-back
// of the commission configuration.
func TestCommissionSettingLifecycle(t *testing.T) {
	m := newFakeRepoManager()
	svc := NewSettingsService(m.Settings())
	ctx := context.Background()

	setting, err := svc.GetCommissionSetting(ctx)
	if err != nil {
		t.Fatalf("GetCommissionSetting() failed: %v", err)
	}
	if setting.IsActive {
		t.Error("Commission should default to inactive")
	}

	saved, err := svc.UpdateCommissionSetting(ctx, adminActor(), &CommissionSettingRequest{
		IsActive:             true,
		SalesTarget:          1000,
		CommissionInterval:   500,
		CommissionPercentage: 10,
	})
	if err != nil {
		t.Fatalf("UpdateCommissionSetting() failed: %v", err)
	}
	if !saved.IsActive || saved.CommissionInterval != 500 {
		t.Errorf("Saved setting = %+v, want active with interval 500", saved)
	}

	setting, err = svc.GetCommissionSetting(ctx)
	if err != nil {
		t.Fatalf("GetCommissionSetting() failed: %v", err)
	}
	if setting.SalesTarget != 1000 {
		t.Errorf("SalesTarget = %v, want 1000", setting.SalesTarget)
	}
}

// TestUpdateCommissionSetting_Rejections covers the interval guard and the
// permission gate.
func TestUpdateCommissionSetting_Rejections(t *testing.T) {
	m := newFakeRepoManager()
	svc := NewSettingsService(m.Settings())
	ctx := context.Background()

	t.Run("active with non-positive interval", func(t *testing.T) {
		_, err := svc.UpdateCommissionSetting(ctx, adminActor(), &CommissionSettingRequest{
			IsActive:             true,
			CommissionInterval:   0,
			CommissionPercentage: 5,
		})
		if !IsValidation(err) {
			t.Errorf("UpdateCommissionSetting() error = %v, want validation failure", err)
		}
	})

	t.Run("inactive setting may carry a zero interval", func(t *testing.T) {
		if _, err := svc.UpdateCommissionSetting(ctx, adminActor(), &CommissionSettingRequest{}); err != nil {
			t.Errorf("UpdateCommissionSetting() failed: %v", err)
		}
	})

	t.Run("cashier cannot manage settings", func(t *testing.T) {
		_, err := svc.UpdateCommissionSetting(ctx, cashierActor("dele"), &CommissionSettingRequest{})
		if !IsPermission(err) {
			t.Errorf("UpdateCommissionSetting() error = %v, want permission failure", err)
		}
	})
}

// TestTaxSettings verifies tax line validation and storage.
func TestTaxSettings(t *testing.T) {
	m := newFakeRepoManager()
	svc := NewSettingsService(m.Settings())
	ctx := context.Background()

	err := svc.UpdateTaxSettings(ctx, adminActor(), []models.TaxSetting{
		{Name: "VAT", Percentage: 7.5},
		{Name: "Levy", Percentage: 1},
	})
	if err != nil {
		t.Fatalf("UpdateTaxSettings() failed: %v", err)
	}

	settings, err := svc.GetTaxSettings(ctx)
	if err != nil {
		t.Fatalf("GetTaxSettings() failed: %v", err)
	}
	if len(settings) != 2 || settings[0].Percentage != 7.5 {
		t.Errorf("Tax settings = %v, want VAT 7.5 and Levy 1", settings)
	}

	err = svc.UpdateTaxSettings(ctx, adminActor(), []models.TaxSetting{
		{Name: "", Percentage: 5},
	})
	if !IsValidation(err) {
		t.Errorf("UpdateTaxSettings() with unnamed tax error = %v, want validation failure", err)
	}
}
