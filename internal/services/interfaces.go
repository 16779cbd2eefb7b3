package services

import (
	"context"
	"time"

	"retail-ops-api/internal/models"
)

// CatalogService defines product catalog business operations
type CatalogService interface {
	CreateProduct(ctx context.Context, actor *models.User, req *CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	UpdateProduct(ctx context.Context, actor *models.User, id string, req *UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, actor *models.User, id string) error
	ListProducts(ctx context.Context, filters *ProductFilters) ([]*models.Product, error)

	// ReceiveStock increments a product's stock level by the received quantity
	ReceiveStock(ctx context.Context, actor *models.User, productID string, quantity int) (*models.Product, error)
}

// UserService defines user directory and authentication operations
type UserService interface {
	CreateUser(ctx context.Context, actor *models.User, req *CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, actor *models.User, id string, req *UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, actor *models.User, id string) error
	ListUsers(ctx context.Context) ([]*models.User, error)

	// Authenticate verifies credentials and returns the matching user
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// SettingsService defines commission and tax configuration operations
type SettingsService interface {
	GetCommissionSetting(ctx context.Context) (*models.CommissionSetting, error)
	UpdateCommissionSetting(ctx context.Context, actor *models.User, req *CommissionSettingRequest) (*models.CommissionSetting, error)
	GetTaxSettings(ctx context.Context) ([]models.TaxSetting, error)
	UpdateTaxSettings(ctx context.Context, actor *models.User, settings []models.TaxSetting) error
}

// OrderService defines order creation, payment reconciliation, returns and
// commission attribution
type OrderService interface {
	CreateOrder(ctx context.Context, actor *models.User, req *CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, filters *OrderFilters) ([]*models.Order, error)

	// RecordPayment appends an immutable payment stamped with the acting
	// cashier and returns the order with a derived payment-status suggestion
	RecordPayment(ctx context.Context, actor *models.User, orderID string, req *RecordPaymentRequest) (*PaymentResult, error)

	UpdateStatus(ctx context.Context, actor *models.User, orderID string, status models.OrderStatus) (*models.Order, error)
	UpdateDeliveryStatus(ctx context.Context, actor *models.User, orderID string, status models.DeliveryStatus) (*models.Order, error)

	// ProcessReturn records a return transaction with its balancing refund
	ProcessReturn(ctx context.Context, actor *models.User, orderID string, req *ProcessReturnRequest) (*models.Order, error)

	// AggregateAttributedSales sums the attributed sales of paid and
	// completed orders for a salesperson over a date range
	AggregateAttributedSales(ctx context.Context, salespersonID string, start, end time.Time) (float64, error)

	// EarnedCommission computes a salesperson's commission over a date range
	// using the active commission setting
	EarnedCommission(ctx context.Context, actor *models.User, salespersonID string, start, end time.Time) (*CommissionReport, error)
}

// DemandNoticeService defines the backorder request lifecycle
type DemandNoticeService interface {
	Create(ctx context.Context, actor *models.User, req *CreateDemandNoticeRequest) (*models.DemandNotice, error)
	Get(ctx context.Context, id string) (*models.DemandNotice, error)
	List(ctx context.Context, filters *DemandNoticeFilters) ([]*models.DemandNotice, error)

	// RecordAdvancePayment appends an advance payment without changing status
	RecordAdvancePayment(ctx context.Context, actor *models.User, noticeID string, req *RecordPaymentRequest) (*models.DemandNotice, error)

	// UpdateStatus moves the notice to an explicit workflow target, subject
	// to the caller's role
	UpdateStatus(ctx context.Context, actor *models.User, noticeID string, status models.DemandNoticeStatus) (*models.DemandNotice, error)

	// PrepareOrder converts a stock-available notice into an order, carrying
	// recorded advances over as the order's opening payments
	PrepareOrder(ctx context.Context, actor *models.User, noticeID string, req *PrepareOrderRequest) (*models.Order, error)
}

// QuotationService defines the quotation lifecycle including conversion of
// line items into orders and demand notices
type QuotationService interface {
	Create(ctx context.Context, actor *models.User, req *CreateQuotationRequest) (*models.Quotation, error)
	Get(ctx context.Context, id string) (*models.Quotation, error)
	List(ctx context.Context, filters *QuotationFilters) ([]*models.Quotation, error)

	// Update replaces the editable fields of a draft or revision quotation
	Update(ctx context.Context, actor *models.User, id string, req *UpdateQuotationRequest) (*models.Quotation, error)

	UpdateStatus(ctx context.Context, actor *models.User, id string, status models.QuotationStatus) (*models.Quotation, error)

	// ConvertInternalItems creates one order from all unconverted internal
	// items of an accepted quotation
	ConvertInternalItems(ctx context.Context, actor *models.User, id string) (*ConversionResult, error)

	// ConvertExternalItems creates one demand notice per unconverted
	// external item of an accepted quotation
	ConvertExternalItems(ctx context.Context, actor *models.User, id string) (*ConversionResult, error)
}

// ShiftService defines per-cashier shift reconciliation reporting
type ShiftService interface {
	ShiftSummary(ctx context.Context, actor *models.User, req *ShiftSummaryRequest) (*ShiftSummary, error)
}

// ExportService defines CSV report export
type ExportService interface {
	Export(ctx context.Context, actor *models.User, req *ExportRequest) (*ExportResult, error)
}

// Catalog service types

type CreateProductRequest struct {
	SKU               string     `json:"sku" validate:"required,min=1,max=64"`
	Name              string     `json:"name" validate:"required,min=1,max=255"`
	Category          string     `json:"category"`
	Price             float64    `json:"price" validate:"min=0"`
	QuantityInStock   int        `json:"quantity_in_stock" validate:"min=0"`
	LowStockThreshold *int       `json:"low_stock_threshold,omitempty"`
	LowStockPrice     *float64   `json:"low_stock_price,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
}

type UpdateProductRequest struct {
	SKU               *string    `json:"sku,omitempty" validate:"omitempty,min=1,max=64"`
	Name              *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Category          *string    `json:"category,omitempty"`
	Price             *float64   `json:"price,omitempty" validate:"omitempty,min=0"`
	LowStockThreshold *int       `json:"low_stock_threshold,omitempty"`
	LowStockPrice     *float64   `json:"low_stock_price,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
}

type ProductFilters struct {
	Category *string `json:"category,omitempty"`
	LowStock *bool   `json:"low_stock,omitempty"`
	Query    *string `json:"query,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	Offset   int     `json:"offset,omitempty"`
}

// User service types

type CreateUserRequest struct {
	Username    string          `json:"username" validate:"required,min=2,max=50"`
	Password    string          `json:"password" validate:"required,min=8"`
	Role        models.UserRole `json:"role" validate:"required"`
	Permissions []string        `json:"permissions,omitempty"`
}

type UpdateUserRequest struct {
	Username    *string          `json:"username,omitempty" validate:"omitempty,min=2,max=50"`
	Password    *string          `json:"password,omitempty" validate:"omitempty,min=8"`
	Role        *models.UserRole `json:"role,omitempty"`
	Permissions *[]string        `json:"permissions,omitempty"`
}

// Settings service types

type CommissionSettingRequest struct {
	IsActive             bool    `json:"is_active"`
	SalesTarget          float64 `json:"sales_target" validate:"min=0"`
	CommissionInterval   float64 `json:"commission_interval"`
	CommissionPercentage float64 `json:"commission_percentage" validate:"min=0,max=100"`
}

// Order service types

type CreateOrderRequest struct {
	Items                          []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	DiscountAmount                 float64            `json:"discount_amount" validate:"min=0"`
	CustomerName                   string             `json:"customer_name"`
	CustomerPhone                  string             `json:"customer_phone"`
	DeliveryAddress                string             `json:"delivery_address"`
	PrimarySalespersonID           string             `json:"primary_salesperson_id" validate:"required"`
	PrimarySalespersonCommission   *float64           `json:"primary_salesperson_commission,omitempty"`
	SecondarySalespersonID         *string            `json:"secondary_salesperson_id,omitempty"`
	SecondarySalespersonCommission *float64           `json:"secondary_salesperson_commission,omitempty"`
	ReminderDate                   *time.Time         `json:"reminder_date,omitempty"`
	ReminderNotes                  *string            `json:"reminder_notes,omitempty"`
}

type OrderItemRequest struct {
	ProductID string   `json:"product_id" validate:"required"`
	Quantity  int      `json:"quantity" validate:"required,min=1"`
	UnitPrice *float64 `json:"unit_price,omitempty"` // Optional override of the effective catalog price
}

type OrderFilters struct {
	Statuses      []models.OrderStatus `json:"statuses,omitempty"`
	SalespersonID *string              `json:"salesperson_id,omitempty"`
	CreatedAfter  *time.Time           `json:"created_after,omitempty"`
	CreatedBefore *time.Time           `json:"created_before,omitempty"`
	Limit         int                  `json:"limit,omitempty"`
	Offset        int                  `json:"offset,omitempty"`
}

type RecordPaymentRequest struct {
	Method      models.PaymentMethod `json:"method" validate:"required"`
	Amount      float64              `json:"amount" validate:"required,gt=0"`
	PaymentDate *time.Time           `json:"payment_date,omitempty"`
}

// PaymentResult returns the updated order together with the payment-state
// suggestion derived from the running balance. Status changes remain
// explicit operator actions.
type PaymentResult struct {
	Order            *models.Order      `json:"order"`
	TotalPaid        float64            `json:"total_paid"`
	RemainingBalance float64            `json:"remaining_balance"`
	SuggestedStatus  models.OrderStatus `json:"suggested_status"`
}

type ProcessReturnRequest struct {
	Items   []ReturnItemRequest    `json:"items" validate:"dive"`
	Refunds []RecordPaymentRequest `json:"refunds" validate:"dive"`
}

type ReturnItemRequest struct {
	ProductID        string `json:"product_id" validate:"required"`
	QuantityToReturn int    `json:"quantity_to_return" validate:"required,min=1"`
}

type CommissionReport struct {
	SalespersonID   string    `json:"salesperson_id"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	AttributedSales float64   `json:"attributed_sales"`
	Commission      float64   `json:"commission"`
}

// Demand notice service types

type CreateDemandNoticeRequest struct {
	ProductID                *string    `json:"product_id,omitempty"`
	ProductName              string     `json:"product_name"`
	ProductSKU               string     `json:"product_sku"`
	IsNewProduct             bool       `json:"is_new_product"`
	CustomerContactNumber    string     `json:"customer_contact_number"`
	QuantityRequested        int        `json:"quantity_requested" validate:"required,min=1"`
	AgreedPrice              float64    `json:"agreed_price" validate:"min=0"`
	ExpectedAvailabilityDate *time.Time `json:"expected_availability_date,omitempty"`
	Notes                    *string    `json:"notes,omitempty"`
}

type DemandNoticeFilters struct {
	Statuses      []models.DemandNoticeStatus `json:"statuses,omitempty"`
	SalespersonID *string                     `json:"salesperson_id,omitempty"`
	CreatedAfter  *time.Time                  `json:"created_after,omitempty"`
	CreatedBefore *time.Time                  `json:"created_before,omitempty"`
	Limit         int                         `json:"limit,omitempty"`
	Offset        int                         `json:"offset,omitempty"`
}

type PrepareOrderRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	DeliveryAddress string `json:"delivery_address"`
}

// Quotation service types

type CreateQuotationRequest struct {
	CustomerName          string                 `json:"customer_name"`
	CustomerContactNumber string                 `json:"customer_contact_number"`
	PreparationDays       int                    `json:"preparation_days" validate:"min=0"`
	ValidUntil            *time.Time             `json:"valid_until,omitempty"`
	Notes                 *string                `json:"notes,omitempty"`
	Items                 []QuotationItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateQuotationRequest struct {
	CustomerName          *string                `json:"customer_name,omitempty"`
	CustomerContactNumber *string                `json:"customer_contact_number,omitempty"`
	PreparationDays       *int                   `json:"preparation_days,omitempty" validate:"omitempty,min=0"`
	ValidUntil            *time.Time             `json:"valid_until,omitempty"`
	Notes                 *string                `json:"notes,omitempty"`
	Items                 []QuotationItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type QuotationItemRequest struct {
	ProductID   *string  `json:"product_id,omitempty"`
	ProductName string   `json:"product_name"`
	ProductSKU  string   `json:"product_sku"`
	Price       *float64 `json:"price,omitempty"` // Internal items default to the effective catalog price
	Quantity    int      `json:"quantity" validate:"required,min=1"`
	IsExternal  bool     `json:"is_external"`
}

type QuotationFilters struct {
	Statuses      []models.QuotationStatus `json:"statuses,omitempty"`
	SalespersonID *string                  `json:"salesperson_id,omitempty"`
	Limit         int                      `json:"limit,omitempty"`
	Offset        int                      `json:"offset,omitempty"`
}

// ConversionResult reports what a conversion produced and whether the
// quotation is now fully converted.
type ConversionResult struct {
	Quotation      *models.Quotation      `json:"quotation"`
	Order          *models.Order          `json:"order,omitempty"`
	DemandNotices  []*models.DemandNotice `json:"demand_notices,omitempty"`
	FullyConverted bool                   `json:"fully_converted"`
}

// Shift service types

type ShiftSummaryRequest struct {
	CashierID string `json:"cashier_id" validate:"required"`
	Date      string `json:"date" validate:"required"` // YYYY-MM-DD
	StartTime string `json:"start_time,omitempty"`     // HH:mm, optional narrowing
	EndTime   string `json:"end_time,omitempty"`       // HH:mm, optional narrowing
}

// ShiftRow is one document's contribution to a cashier's shift
type ShiftRow struct {
	DocumentID     string     `json:"document_id"`
	DocumentType   string     `json:"document_type"` // order | demand_notice
	CustomerName   string     `json:"customer_name"`
	Status         string     `json:"status"`
	AmountByMethod map[models.PaymentMethod]float64 `json:"amount_by_method"`
	TotalCollected float64    `json:"total_collected"`
	LatestPayment  *time.Time `json:"latest_payment,omitempty"`
	ClosedOnShift  bool       `json:"closed_on_shift"`
}

type ShiftSummary struct {
	CashierID       string                           `json:"cashier_id"`
	WindowStart     time.Time                        `json:"window_start"`
	WindowEnd       time.Time                        `json:"window_end"`
	TotalsByMethod  map[models.PaymentMethod]float64 `json:"totals_by_method"`
	AdvanceTotal    float64                          `json:"advance_total"`
	GrandTotal      float64                          `json:"grand_total"`
	OrdersFullyPaid int                              `json:"orders_fully_paid"`
	Rows            []ShiftRow                       `json:"rows"`
}

// Export service types

type ExportRequest struct {
	Sections []string  `json:"sections" validate:"required,min=1"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type ExportResult struct {
	Filename string `json:"filename"`
	Path     string `json:"path,omitempty"`
	Content  string `json:"content"`
}
