package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DemandNoticeStatus represents the state of a demand notice in its workflow
type DemandNoticeStatus string

const (
	DNStatusPendingReview         DemandNoticeStatus = "pending_review"
	DNStatusAwaitingStock         DemandNoticeStatus = "awaiting_stock"
	DNStatusPartialStockAvailable DemandNoticeStatus = "partial_stock_available"
	DNStatusFullStockAvailable    DemandNoticeStatus = "full_stock_available"
	DNStatusCustomerNotified      DemandNoticeStatus = "customer_notified_stock"
	DNStatusAwaitingCustomer      DemandNoticeStatus = "awaiting_customer_action"
	DNStatusOrderProcessing       DemandNoticeStatus = "order_processing"
	DNStatusPreparingStock        DemandNoticeStatus = "preparing_stock"
	DNStatusReadyForCollection    DemandNoticeStatus = "ready_for_collection"
	DNStatusFulfilled             DemandNoticeStatus = "fulfilled"
	DNStatusCancelled             DemandNoticeStatus = "cancelled"
)

// DemandNoticeWorkflow is the canonical workflow ordering used for display
// and sorting. Status changes are explicit operator actions and are not
// forced to move forward through this list; the transition policy lives in
// the demand notice service.
var DemandNoticeWorkflow = []DemandNoticeStatus{
	DNStatusPendingReview,
	DNStatusAwaitingStock,
	DNStatusPartialStockAvailable,
	DNStatusFullStockAvailable,
	DNStatusCustomerNotified,
	DNStatusAwaitingCustomer,
	DNStatusOrderProcessing,
	DNStatusPreparingStock,
	DNStatusReadyForCollection,
	DNStatusFulfilled,
}

// IsValid returns true if the status is one of the accepted values
func (s DemandNoticeStatus) IsValid() bool {
	if s == DNStatusCancelled {
		return true
	}
	for _, v := range DemandNoticeWorkflow {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal returns true for states that end the workflow
func (s DemandNoticeStatus) IsTerminal() bool {
	return s == DNStatusFulfilled || s == DNStatusCancelled
}

// WorkflowIndex returns the position of the status in the canonical workflow
// ordering. Cancelled sorts after every workflow state.
func (s DemandNoticeStatus) WorkflowIndex() int {
	for i, v := range DemandNoticeWorkflow {
		if s == v {
			return i
		}
	}
	return len(DemandNoticeWorkflow)
}

// DisplayLabel returns the human-readable label for the status
func (s DemandNoticeStatus) DisplayLabel() string {
	switch s {
	case DNStatusPendingReview:
		return "Pending Review"
	case DNStatusAwaitingStock:
		return "Awaiting Stock"
	case DNStatusPartialStockAvailable:
		return "Partial Stock Available"
	case DNStatusFullStockAvailable:
		return "Full Stock Available"
	case DNStatusCustomerNotified:
		return "Customer Notified of Stock"
	case DNStatusAwaitingCustomer:
		return "Awaiting Customer Action"
	case DNStatusOrderProcessing:
		return "Order Processing"
	case DNStatusPreparingStock:
		return "Preparing Stock"
	case DNStatusReadyForCollection:
		return "Ready for Collection"
	case DNStatusFulfilled:
		return "Fulfilled"
	case DNStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// DemandNotice represents a tracked customer backorder request for a product
// that is not currently available, optionally carrying advance payments.
type DemandNotice struct {
	ID                       string             `json:"id" db:"id" validate:"required,uuid"`
	ProductID                *string            `json:"product_id,omitempty" db:"product_id"`
	ProductName              string             `json:"product_name" db:"product_name" validate:"required"`
	ProductSKU               string             `json:"product_sku" db:"product_sku"`
	IsNewProduct             bool               `json:"is_new_product" db:"is_new_product"`
	CustomerContactNumber    string             `json:"customer_contact_number" db:"customer_contact_number"`
	QuantityRequested        int                `json:"quantity_requested" db:"quantity_requested" validate:"min=1"`
	QuantityFulfilled        int                `json:"quantity_fulfilled" db:"quantity_fulfilled" validate:"min=0"`
	AgreedPrice              float64            `json:"agreed_price" db:"agreed_price" validate:"min=0"`
	ExpectedAvailabilityDate *time.Time         `json:"expected_availability_date,omitempty" db:"expected_availability_date"`
	SalespersonID            string             `json:"salesperson_id" db:"salesperson_id" validate:"required"`
	SalespersonName          string             `json:"salesperson_name" db:"salesperson_name"`
	Status                   DemandNoticeStatus `json:"status" db:"status"`
	Payments                 []PaymentDetail    `json:"payments" db:"payments"`
	LinkedOrderID            *string            `json:"linked_order_id,omitempty" db:"linked_order_id"`
	Notes                    *string            `json:"notes,omitempty" db:"notes"`
	CreatedAt                time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time          `json:"updated_at" db:"updated_at"`
	Version                  int64              `json:"version" db:"version"`
}

// NewDemandNotice creates a new demand notice in the initial workflow state
func NewDemandNotice(productName, productSKU string, quantityRequested int, agreedPrice float64, salespersonID, salespersonName string) *DemandNotice {
	now := time.Now()
	return &DemandNotice{
		ID:                uuid.New().String(),
		ProductName:       productName,
		ProductSKU:        productSKU,
		QuantityRequested: quantityRequested,
		QuantityFulfilled: 0,
		AgreedPrice:       agreedPrice,
		SalespersonID:     salespersonID,
		SalespersonName:   salespersonName,
		Status:            DNStatusPendingReview,
		CreatedAt:         now,
		UpdatedAt:         now,
		Version:           1,
	}
}

// Validate validates the demand notice data
func (d *DemandNotice) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("demand notice ID is required")
	}

	if strings.TrimSpace(d.ProductName) == "" {
		return fmt.Errorf("product name is required")
	}

	if !d.IsNewProduct && (d.ProductID == nil || *d.ProductID == "") {
		return fmt.Errorf("product ID is required unless the notice is for a new product")
	}

	if d.QuantityRequested < 1 {
		return fmt.Errorf("quantity requested must be at least 1")
	}

	if d.QuantityFulfilled < 0 || d.QuantityFulfilled > d.QuantityRequested {
		return fmt.Errorf("quantity fulfilled must be between 0 and the quantity requested")
	}

	if d.AgreedPrice < 0 {
		return fmt.Errorf("agreed price cannot be negative")
	}

	if d.SalespersonID == "" {
		return fmt.Errorf("salesperson ID is required")
	}

	if !d.Status.IsValid() {
		return fmt.Errorf("invalid demand notice status: %s", d.Status)
	}

	return nil
}

// AgreedTotal returns the agreed per-unit price times the quantity requested
func (d *DemandNotice) AgreedTotal() float64 {
	return RoundToTwoDecimals(d.AgreedPrice * float64(d.QuantityRequested))
}

// TotalAdvancePaid sums advance payments recorded against the notice
func (d *DemandNotice) TotalAdvancePaid() float64 {
	return TotalPayments(d.Payments)
}

// AdvanceHeadroom returns how much more advance payment the notice can take
// before exceeding the agreed total.
func (d *DemandNotice) AdvanceHeadroom() float64 {
	return RoundToTwoDecimals(d.AgreedTotal() - d.TotalAdvancePaid())
}

// StatusDisplayLabel returns the display label for the current status.
// Partial stock availability embeds the fulfilled/requested count.
func (d *DemandNotice) StatusDisplayLabel() string {
	if d.Status == DNStatusPartialStockAvailable {
		return fmt.Sprintf("%s (%d/%d)", d.Status.DisplayLabel(), d.QuantityFulfilled, d.QuantityRequested)
	}
	return d.Status.DisplayLabel()
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (d *DemandNotice) UpdateTimestamp() {
	d.UpdatedAt = time.Now()
}
