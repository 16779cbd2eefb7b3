package repositories

import (
	"context"
	"time"

	"retail-ops-api/internal/models"
)

// ProductRepository defines catalog persistence operations
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters ProductFilters) ([]*models.Product, error)

	// AdjustStock atomically changes a product's stock level by delta.
	// A decrement that would drive the quantity below zero fails with
	// ErrInsufficientStock and leaves the row untouched.
	AdjustStock(ctx context.Context, id string, delta int) error
}

// UserRepository defines identity persistence operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
}

// OrderRepository defines order persistence operations. Update performs an
// optimistic concurrency check against the order's Version and fails with
// ErrConcurrency when the stored version has moved on.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	List(ctx context.Context, filters OrderFilters) ([]*models.Order, error)
}

// DemandNoticeRepository defines demand notice persistence operations with
// the same optimistic-concurrency Update contract as orders.
type DemandNoticeRepository interface {
	Create(ctx context.Context, notice *models.DemandNotice) error
	GetByID(ctx context.Context, id string) (*models.DemandNotice, error)
	Update(ctx context.Context, notice *models.DemandNotice) error
	List(ctx context.Context, filters DemandNoticeFilters) ([]*models.DemandNotice, error)
}

// QuotationRepository defines quotation persistence operations with the same
// optimistic-concurrency Update contract as orders.
type QuotationRepository interface {
	Create(ctx context.Context, quotation *models.Quotation) error
	GetByID(ctx context.Context, id string) (*models.Quotation, error)
	Update(ctx context.Context, quotation *models.Quotation) error
	List(ctx context.Context, filters QuotationFilters) ([]*models.Quotation, error)
}

// SettingsRepository defines persistence for singleton application settings
type SettingsRepository interface {
	GetCommissionSetting(ctx context.Context) (*models.CommissionSetting, error)
	SaveCommissionSetting(ctx context.Context, setting *models.CommissionSetting) error
	GetTaxSettings(ctx context.Context) ([]models.TaxSetting, error)
	SaveTaxSettings(ctx context.Context, settings []models.TaxSetting) error
}

// Repositories provides access to every repository, either directly on the
// manager or bound to a transaction inside WithTransaction.
type Repositories interface {
	Products() ProductRepository
	Users() UserRepository
	Orders() OrderRepository
	DemandNotices() DemandNoticeRepository
	Quotations() QuotationRepository
	Settings() SettingsRepository
}

// TransactionManager runs multi-entity writes atomically. The repository set
// passed to fn is bound to the transaction; returning an error rolls back.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

// RepositoryManager provides access to all repositories and transaction
// management over a single store.
type RepositoryManager interface {
	Repositories
	TransactionManager

	// Close closes the underlying store
	Close() error

	// Health checks the health of the store connection
	Health(ctx context.Context) error
}

// ProductFilters narrows product listings
type ProductFilters struct {
	Category  *string
	LowStock  *bool
	Query     *string
	Limit     int
	Offset    int
}

// OrderFilters narrows order listings
type OrderFilters struct {
	Statuses      []models.OrderStatus
	SalespersonID *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// DemandNoticeFilters narrows demand notice listings
type DemandNoticeFilters struct {
	Statuses      []models.DemandNoticeStatus
	SalespersonID *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// QuotationFilters narrows quotation listings
type QuotationFilters struct {
	Statuses      []models.QuotationStatus
	SalespersonID *string
	Limit         int
	Offset        int
}
