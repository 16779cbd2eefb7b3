package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the payment/fulfilment state of an order
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPartialPayment OrderStatus = "partial_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusReturned       OrderStatus = "returned"
)

// ValidOrderStatuses lists all accepted order statuses
var ValidOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusPartialPayment,
	OrderStatusPaid,
	OrderStatusPreparing,
	OrderStatusReadyForPickup,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusReturned,
}

// IsValid returns true if the status is one of the accepted values
func (s OrderStatus) IsValid() bool {
	for _, v := range ValidOrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// CountsTowardSales reports whether orders in this status contribute to a
// salesperson's attributed-sales totals.
func (s OrderStatus) CountsTowardSales() bool {
	return s == OrderStatusPaid || s == OrderStatusCompleted
}

// DisplayLabel returns the human-readable label for the status
func (s OrderStatus) DisplayLabel() string {
	switch s {
	case OrderStatusPendingPayment:
		return "Pending Payment"
	case OrderStatusPartialPayment:
		return "Partial Payment"
	case OrderStatusPaid:
		return "Paid"
	case OrderStatusPreparing:
		return "Preparing"
	case OrderStatusReadyForPickup:
		return "Ready for Pickup"
	case OrderStatusCompleted:
		return "Completed"
	case OrderStatusCancelled:
		return "Cancelled"
	case OrderStatusReturned:
		return "Returned"
	default:
		return string(s)
	}
}

// DeliveryStatus represents the delivery state of an order, independent of
// its payment status.
type DeliveryStatus string

const (
	DeliveryStatusPendingDispatch DeliveryStatus = "pending_dispatch"
	DeliveryStatusOutForDelivery  DeliveryStatus = "out_for_delivery"
	DeliveryStatusDelivered       DeliveryStatus = "delivered"
	DeliveryStatusDeliveryFailed  DeliveryStatus = "delivery_failed"
	DeliveryStatusPickupReady     DeliveryStatus = "pickup_ready"
)

// ValidDeliveryStatuses lists all accepted delivery statuses
var ValidDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusPendingDispatch,
	DeliveryStatusOutForDelivery,
	DeliveryStatusDelivered,
	DeliveryStatusDeliveryFailed,
	DeliveryStatusPickupReady,
}

// IsValid returns true if the delivery status is one of the accepted values
func (s DeliveryStatus) IsValid() bool {
	for _, v := range ValidDeliveryStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DisplayLabel returns the human-readable label for the delivery status
func (s DeliveryStatus) DisplayLabel() string {
	switch s {
	case DeliveryStatusPendingDispatch:
		return "Pending Dispatch"
	case DeliveryStatusOutForDelivery:
		return "Out for Delivery"
	case DeliveryStatusDelivered:
		return "Delivered"
	case DeliveryStatusDeliveryFailed:
		return "Delivery Failed"
	case DeliveryStatusPickupReady:
		return "Pickup Ready"
	default:
		return string(s)
	}
}

// OrderItem represents a single line on an order
type OrderItem struct {
	ProductID    string  `json:"product_id" db:"product_id" validate:"required"`
	Name         string  `json:"name" db:"name" validate:"required"`
	SKU          string  `json:"sku" db:"sku"`
	Quantity     int     `json:"quantity" db:"quantity" validate:"min=1"`
	PricePerUnit float64 `json:"price_per_unit" db:"price_per_unit" validate:"min=0"`
	TotalPrice   float64 `json:"total_price" db:"total_price"`
}

// Validate validates the order item data
func (oi *OrderItem) Validate() error {
	if oi.ProductID == "" {
		return fmt.Errorf("item product ID is required")
	}

	if oi.Name == "" {
		return fmt.Errorf("item name is required")
	}

	if oi.Quantity < 1 {
		return fmt.Errorf("item quantity must be at least 1")
	}

	if oi.PricePerUnit < 0 {
		return fmt.Errorf("item price cannot be negative")
	}

	return nil
}

// TaxLine represents a named tax amount applied to an order
type TaxLine struct {
	Name   string  `json:"name" db:"name"`
	Amount float64 `json:"amount" db:"amount"`
}

// ReturnItemDetail records a single returned line within a return transaction
type ReturnItemDetail struct {
	ProductID        string  `json:"product_id" db:"product_id"`
	Name             string  `json:"name" db:"name"`
	QuantityReturned int     `json:"quantity_returned" db:"quantity_returned"`
	PricePerUnit     float64 `json:"price_per_unit" db:"price_per_unit"`
}

// ReturnTransaction records one accepted return against an order
type ReturnTransaction struct {
	ItemsReturned             []ReturnItemDetail `json:"items_returned" db:"items_returned"`
	TotalValueOfReturnedItems float64            `json:"total_value_of_returned_items" db:"total_value_of_returned_items"`
	ProcessedAt               time.Time          `json:"processed_at" db:"processed_at"`
}

// CommissionSplitTolerance is the tolerance used when checking that a two-way
// commission split sums to exactly 1.
const CommissionSplitTolerance = 1e-9

// Order represents a customer order with its multi-method payment trail and
// one- or two-way salesperson attribution.
type Order struct {
	ID              string      `json:"id" db:"id" validate:"required,uuid"`
	Items           []OrderItem `json:"items" db:"items" validate:"min=1"`
	Subtotal        float64     `json:"subtotal" db:"subtotal"`
	DiscountAmount  float64     `json:"discount_amount" db:"discount_amount" validate:"min=0"`
	Taxes           []TaxLine   `json:"taxes" db:"taxes"`
	TotalAmount     float64     `json:"total_amount" db:"total_amount"`
	CustomerName    string      `json:"customer_name" db:"customer_name"`
	CustomerPhone   string      `json:"customer_phone" db:"customer_phone"`
	DeliveryAddress string      `json:"delivery_address" db:"delivery_address"`

	PrimarySalespersonID           string   `json:"primary_salesperson_id" db:"primary_salesperson_id" validate:"required"`
	PrimarySalespersonCommission   float64  `json:"primary_salesperson_commission" db:"primary_salesperson_commission"`
	SecondarySalespersonID         *string  `json:"secondary_salesperson_id,omitempty" db:"secondary_salesperson_id"`
	SecondarySalespersonCommission float64  `json:"secondary_salesperson_commission" db:"secondary_salesperson_commission"`

	Status             OrderStatus         `json:"status" db:"status"`
	DeliveryStatus     DeliveryStatus      `json:"delivery_status" db:"delivery_status"`
	Payments           []PaymentDetail     `json:"payments" db:"payments"`
	ReturnTransactions []ReturnTransaction `json:"return_transactions" db:"return_transactions"`
	ReminderDate       *time.Time          `json:"reminder_date,omitempty" db:"reminder_date"`
	ReminderNotes      *string             `json:"reminder_notes,omitempty" db:"reminder_notes"`
	CreatedAt          time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" db:"updated_at"`
	Version            int64               `json:"version" db:"version"`
}

// NewOrder creates a new order with generated ID, a sole primary salesperson
// and the initial pending-payment status.
func NewOrder(primarySalespersonID string, items []OrderItem) *Order {
	now := time.Now()
	o := &Order{
		ID:                           uuid.New().String(),
		Items:                        items,
		PrimarySalespersonID:         primarySalespersonID,
		PrimarySalespersonCommission: 1,
		Status:                       OrderStatusPendingPayment,
		DeliveryStatus:               DeliveryStatusPendingDispatch,
		CreatedAt:                    now,
		UpdatedAt:                    now,
		Version:                      1,
	}
	o.RecalculateTotals()
	return o
}

// Validate validates the order data
func (o *Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("order ID is required")
	}

	if len(o.Items) == 0 {
		return fmt.Errorf("order must have at least one item")
	}

	for i := range o.Items {
		if err := o.Items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}

	if o.PrimarySalespersonID == "" {
		return fmt.Errorf("primary salesperson is required")
	}

	if o.DiscountAmount < 0 {
		return fmt.Errorf("discount amount cannot be negative")
	}

	if err := o.validateCommissionSplit(); err != nil {
		return err
	}

	if !o.Status.IsValid() {
		return fmt.Errorf("invalid order status: %s", o.Status)
	}

	if !o.DeliveryStatus.IsValid() {
		return fmt.Errorf("invalid delivery status: %s", o.DeliveryStatus)
	}

	return nil
}

// validateCommissionSplit enforces that the split fractions account for the
// whole order: primary alone must hold 1; with a secondary set, the two
// fractions must sum to 1.
func (o *Order) validateCommissionSplit() error {
	if o.PrimarySalespersonCommission < 0 || o.PrimarySalespersonCommission > 1 {
		return fmt.Errorf("primary commission fraction must be between 0 and 1")
	}

	if o.SecondarySalespersonID == nil {
		if o.SecondarySalespersonCommission != 0 {
			return fmt.Errorf("secondary commission requires a secondary salesperson")
		}
		if math.Abs(o.PrimarySalespersonCommission-1) > CommissionSplitTolerance {
			return fmt.Errorf("primary commission must be 100%% when no secondary salesperson is set")
		}
		return nil
	}

	if o.SecondarySalespersonCommission < 0 || o.SecondarySalespersonCommission > 1 {
		return fmt.Errorf("secondary commission fraction must be between 0 and 1")
	}

	sum := o.PrimarySalespersonCommission + o.SecondarySalespersonCommission
	if math.Abs(sum-1) > CommissionSplitTolerance {
		return fmt.Errorf("commission split must sum to 100%%, got %.4f", sum*100)
	}

	return nil
}

// RecalculateTotals recomputes item line totals, subtotal and total amount
// from the items, discount and tax lines.
func (o *Order) RecalculateTotals() {
	var subtotal float64
	for i := range o.Items {
		o.Items[i].TotalPrice = RoundToTwoDecimals(o.Items[i].PricePerUnit * float64(o.Items[i].Quantity))
		subtotal += o.Items[i].PricePerUnit * float64(o.Items[i].Quantity)
	}
	o.Subtotal = RoundToTwoDecimals(subtotal)

	var taxTotal float64
	for _, t := range o.Taxes {
		taxTotal += t.Amount
	}

	o.TotalAmount = RoundToTwoDecimals(subtotal - o.DiscountAmount + taxTotal)
}

// TotalPaid sums all recorded payments
func (o *Order) TotalPaid() float64 {
	return TotalPayments(o.Payments)
}

// RemainingBalance returns the outstanding amount. A negative value means
// overpayment and is surfaced as-is rather than rejected.
func (o *Order) RemainingBalance() float64 {
	return RoundToTwoDecimals(o.TotalAmount - o.TotalPaid())
}

// AttributedSales returns the share of the order total credited to the given
// salesperson via the commission split, or 0 if they are not on the order.
func (o *Order) AttributedSales(salespersonID string) float64 {
	if salespersonID == o.PrimarySalespersonID {
		return RoundToTwoDecimals(o.TotalAmount * o.PrimarySalespersonCommission)
	}
	if o.SecondarySalespersonID != nil && salespersonID == *o.SecondarySalespersonID {
		return RoundToTwoDecimals(o.TotalAmount * o.SecondarySalespersonCommission)
	}
	return 0
}

// QuantityReturned returns the cumulative quantity already returned for the
// given product line across all return transactions.
func (o *Order) QuantityReturned(productID string) int {
	var total int
	for _, rt := range o.ReturnTransactions {
		for _, ri := range rt.ItemsReturned {
			if ri.ProductID == productID {
				total += ri.QuantityReturned
			}
		}
	}
	return total
}

// ItemByProductID returns the order line for the given product, or nil
func (o *Order) ItemByProductID(productID string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (o *Order) UpdateTimestamp() {
	o.UpdatedAt = time.Now()
}
