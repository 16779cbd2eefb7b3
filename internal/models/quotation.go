package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuotationStatus represents the state of a quotation
type QuotationStatus string

const (
	QuotationStatusDraft    QuotationStatus = "draft"
	QuotationStatusSent     QuotationStatus = "sent"
	QuotationStatusAccepted QuotationStatus = "accepted"
	QuotationStatusRejected QuotationStatus = "rejected"
	QuotationStatusRevision QuotationStatus = "revision"
	QuotationStatusHold     QuotationStatus = "hold"
	// QuotationStatusConverted is reached only when every convertible item
	// has been converted; it is never set by a direct status-change action.
	QuotationStatusConverted QuotationStatus = "converted"
)

// ValidQuotationStatuses lists all accepted quotation statuses
var ValidQuotationStatuses = []QuotationStatus{
	QuotationStatusDraft,
	QuotationStatusSent,
	QuotationStatusAccepted,
	QuotationStatusRejected,
	QuotationStatusRevision,
	QuotationStatusHold,
	QuotationStatusConverted,
}

// IsValid returns true if the status is one of the accepted values
func (s QuotationStatus) IsValid() bool {
	for _, v := range ValidQuotationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DisplayLabel returns the human-readable label for the status
func (s QuotationStatus) DisplayLabel() string {
	switch s {
	case QuotationStatusDraft:
		return "Draft"
	case QuotationStatusSent:
		return "Sent"
	case QuotationStatusAccepted:
		return "Accepted"
	case QuotationStatusRejected:
		return "Rejected"
	case QuotationStatusRevision:
		return "Revision Requested"
	case QuotationStatusHold:
		return "On Hold"
	case QuotationStatusConverted:
		return "Converted"
	default:
		return string(s)
	}
}

// quotationTransitions is the allowed status-change table for direct
// transitions. Converted is intentionally absent as a target.
var quotationTransitions = map[QuotationStatus][]QuotationStatus{
	QuotationStatusDraft:    {QuotationStatusSent},
	QuotationStatusSent:     {QuotationStatusAccepted, QuotationStatusRejected, QuotationStatusRevision, QuotationStatusHold},
	QuotationStatusAccepted: {QuotationStatusHold, QuotationStatusSent},
	QuotationStatusHold:     {QuotationStatusSent, QuotationStatusAccepted, QuotationStatusRejected},
	QuotationStatusRevision: {QuotationStatusSent},
}

// CanTransitionTo returns true if a direct status change from s to target is
// allowed by the quotation workflow.
func (s QuotationStatus) CanTransitionTo(target QuotationStatus) bool {
	for _, t := range quotationTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// QuotationItem represents a single priced line on a quotation. Internal
// items reference a catalog product; external items are free-text and have
// no catalog linkage.
type QuotationItem struct {
	ProductID   *string `json:"product_id,omitempty" db:"product_id"`
	ProductName string  `json:"product_name" db:"product_name" validate:"required"`
	ProductSKU  string  `json:"product_sku" db:"product_sku"`
	Price       float64 `json:"price" db:"price" validate:"min=0"`
	Quantity    int     `json:"quantity" db:"quantity" validate:"min=1"`
	IsExternal  bool    `json:"is_external" db:"is_external"`
	Converted   bool    `json:"converted" db:"converted"`
}

// Validate validates the quotation item data
func (qi *QuotationItem) Validate() error {
	if strings.TrimSpace(qi.ProductName) == "" {
		return fmt.Errorf("item product name is required")
	}

	if !qi.IsExternal && (qi.ProductID == nil || *qi.ProductID == "") {
		return fmt.Errorf("internal items must reference a catalog product")
	}

	if qi.Price < 0 {
		return fmt.Errorf("item price cannot be negative")
	}

	if qi.Quantity < 1 {
		return fmt.Errorf("item quantity must be at least 1")
	}

	return nil
}

// LineTotal returns price times quantity for the item
func (qi *QuotationItem) LineTotal() float64 {
	return RoundToTwoDecimals(qi.Price * float64(qi.Quantity))
}

// Quotation represents a priced, itemized offer to a customer, convertible
// into an order (internal items) and demand notices (external items) once
// accepted.
type Quotation struct {
	ID                    string          `json:"id" db:"id" validate:"required,uuid"`
	SalespersonID         string          `json:"salesperson_id" db:"salesperson_id" validate:"required"`
	CustomerName          string          `json:"customer_name" db:"customer_name"`
	CustomerContactNumber string          `json:"customer_contact_number" db:"customer_contact_number"`
	PreparationDays       int             `json:"preparation_days" db:"preparation_days" validate:"min=0"`
	ValidUntil            *time.Time      `json:"valid_until,omitempty" db:"valid_until"`
	Status                QuotationStatus `json:"status" db:"status"`
	TotalAmount           float64         `json:"total_amount" db:"total_amount"`
	Notes                 *string         `json:"notes,omitempty" db:"notes"`
	Items                 []QuotationItem `json:"items" db:"items" validate:"min=1"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
	Version               int64           `json:"version" db:"version"`
}

// NewQuotation creates a new draft quotation
func NewQuotation(salespersonID string, items []QuotationItem) *Quotation {
	now := time.Now()
	q := &Quotation{
		ID:            uuid.New().String(),
		SalespersonID: salespersonID,
		Status:        QuotationStatusDraft,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	q.RecalculateTotal()
	return q
}

// Validate validates the quotation data
func (q *Quotation) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("quotation ID is required")
	}

	if q.SalespersonID == "" {
		return fmt.Errorf("salesperson ID is required")
	}

	if len(q.Items) == 0 {
		return fmt.Errorf("quotation must have at least one item")
	}

	for i := range q.Items {
		if err := q.Items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}

	if q.PreparationDays < 0 {
		return fmt.Errorf("preparation days cannot be negative")
	}

	if !q.Status.IsValid() {
		return fmt.Errorf("invalid quotation status: %s", q.Status)
	}

	return nil
}

// RecalculateTotal recomputes TotalAmount from the items. The stored total is
// never ground truth on its own.
func (q *Quotation) RecalculateTotal() {
	var total float64
	for i := range q.Items {
		total += q.Items[i].Price * float64(q.Items[i].Quantity)
	}
	q.TotalAmount = RoundToTwoDecimals(total)
}

// IsEditable returns true while the item list may still be changed
func (q *Quotation) IsEditable() bool {
	return q.Status == QuotationStatusDraft || q.Status == QuotationStatusRevision
}

// UnconvertedItems returns indexes of unconverted items, filtered by whether
// they are external or internal.
func (q *Quotation) UnconvertedItems(external bool) []int {
	var idx []int
	for i := range q.Items {
		if !q.Items[i].Converted && q.Items[i].IsExternal == external {
			idx = append(idx, i)
		}
	}
	return idx
}

// AllItemsConverted returns true once every item has been converted
func (q *Quotation) AllItemsConverted() bool {
	for i := range q.Items {
		if !q.Items[i].Converted {
			return false
		}
	}
	return true
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (q *Quotation) UpdateTimestamp() {
	q.UpdatedAt = time.Now()
}
