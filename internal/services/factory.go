package services

import (
	"fmt"

	"retail-ops-api/internal/adapters/storage"
	"retail-ops-api/internal/repositories"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	CatalogService      CatalogService
	UserService         UserService
	SettingsService     SettingsService
	OrderService        OrderService
	DemandNoticeService DemandNoticeService
	QuotationService    QuotationService
	ShiftService        ShiftService
	ExportService       ExportService
}

// NewServiceContainer creates a new service container over a repository
// manager. fileStorage may be nil; exports are then returned inline only.
func NewServiceContainer(manager repositories.RepositoryManager, fileStorage storage.FileStorage) (*ServiceContainer, error) {
	if manager == nil {
		return nil, fmt.Errorf("repository manager cannot be nil")
	}

	return &ServiceContainer{
		CatalogService:      NewCatalogService(manager.Products()),
		UserService:         NewUserService(manager.Users()),
		SettingsService:     NewSettingsService(manager.Settings()),
		OrderService:        NewOrderService(manager),
		DemandNoticeService: NewDemandNoticeService(manager),
		QuotationService:    NewQuotationService(manager),
		ShiftService:        NewShiftService(manager),
		ExportService:       NewExportService(manager, fileStorage),
	}, nil
}

// Validate validates that all services are properly initialized
func (sc *ServiceContainer) Validate() error {
	if sc.CatalogService == nil {
		return fmt.Errorf("catalog service is nil")
	}
	if sc.UserService == nil {
		return fmt.Errorf("user service is nil")
	}
	if sc.SettingsService == nil {
		return fmt.Errorf("settings service is nil")
	}
	if sc.OrderService == nil {
		return fmt.Errorf("order service is nil")
	}
	if sc.DemandNoticeService == nil {
		return fmt.Errorf("demand notice service is nil")
	}
	if sc.QuotationService == nil {
		return fmt.Errorf("quotation service is nil")
	}
	if sc.ShiftService == nil {
		return fmt.Errorf("shift service is nil")
	}
	if sc.ExportService == nil {
		return fmt.Errorf("export service is nil")
	}
	return nil
}
