package models

import (
	"fmt"
	"time"
)

// PaymentMethod represents the method used to record a payment
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	// PaymentMethodAdvanceOnDN marks payments carried over from a demand
	// notice onto the order it was converted into.
	PaymentMethodAdvanceOnDN PaymentMethod = "advance_on_dn"
)

// ValidPaymentMethods lists all accepted payment methods
var ValidPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodBankTransfer,
	PaymentMethodAdvanceOnDN,
}

// IsValid returns true if the payment method is one of the accepted values
func (m PaymentMethod) IsValid() bool {
	for _, v := range ValidPaymentMethods {
		if m == v {
			return true
		}
	}
	return false
}

// DisplayLabel returns the human-readable label for the payment method
func (m PaymentMethod) DisplayLabel() string {
	switch m {
	case PaymentMethodCash:
		return "Cash"
	case PaymentMethodCard:
		return "Card"
	case PaymentMethodBankTransfer:
		return "Bank Transfer"
	case PaymentMethodAdvanceOnDN:
		return "Advance on Demand Notice"
	default:
		return string(m)
	}
}

// PaymentDetail represents a single recorded payment against an order or
// demand notice. Payments are immutable once recorded: there is no edit or
// delete path anywhere in the system.
type PaymentDetail struct {
	Method      PaymentMethod `json:"method" db:"method" validate:"required"`
	Amount      float64       `json:"amount" db:"amount" validate:"min=0"`
	PaymentDate time.Time     `json:"payment_date" db:"payment_date" validate:"required"`
	CashierID   string        `json:"cashier_id" db:"cashier_id" validate:"required"`
	CashierName string        `json:"cashier_name" db:"cashier_name"`
}

// Validate validates the payment detail data
func (p *PaymentDetail) Validate() error {
	if !p.Method.IsValid() {
		return fmt.Errorf("invalid payment method: %s", p.Method)
	}

	if p.Amount < 0 {
		return fmt.Errorf("payment amount cannot be negative")
	}

	if p.PaymentDate.IsZero() {
		return fmt.Errorf("payment date is required")
	}

	if p.CashierID == "" {
		return fmt.Errorf("cashier ID is required")
	}

	return nil
}

// TotalPayments sums the amounts of the given payments
func TotalPayments(payments []PaymentDetail) float64 {
	var total float64
	for _, p := range payments {
		total += p.Amount
	}
	return RoundToTwoDecimals(total)
}

// LatestPayment returns the most recently dated payment, or nil if there are
// none. The cashier of the latest payment is treated as the closer of the
// document throughout reporting.
func LatestPayment(payments []PaymentDetail) *PaymentDetail {
	if len(payments) == 0 {
		return nil
	}

	latest := &payments[0]
	for i := range payments {
		if payments[i].PaymentDate.After(latest.PaymentDate) {
			latest = &payments[i]
		}
	}
	return latest
}
