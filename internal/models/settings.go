package models

import (
	"fmt"
	"math"
)

// CommissionSetting holds the interval-based commission policy. It is stored
// as a singleton and always passed explicitly into the commission calculator
// so tests can supply arbitrary settings per case.
type CommissionSetting struct {
	IsActive             bool    `json:"is_active" db:"is_active"`
	SalesTarget          float64 `json:"sales_target" db:"sales_target" validate:"min=0"`
	CommissionInterval   float64 `json:"commission_interval" db:"commission_interval"`
	CommissionPercentage float64 `json:"commission_percentage" db:"commission_percentage" validate:"min=0,max=100"`
}

// Validate validates the commission setting data
func (cs *CommissionSetting) Validate() error {
	if cs.SalesTarget < 0 {
		return fmt.Errorf("sales target cannot be negative")
	}

	if cs.CommissionPercentage < 0 || cs.CommissionPercentage > 100 {
		return fmt.Errorf("commission percentage must be between 0 and 100")
	}

	return nil
}

// TaxSetting represents one named percentage tax applied at order creation
type TaxSetting struct {
	Name       string  `json:"name" db:"name" validate:"required"`
	Percentage float64 `json:"percentage" db:"percentage" validate:"min=0"`
}

// Validate validates the tax setting data
func (ts *TaxSetting) Validate() error {
	if ts.Name == "" {
		return fmt.Errorf("tax name is required")
	}

	if ts.Percentage < 0 {
		return fmt.Errorf("tax percentage cannot be negative")
	}

	return nil
}

// RoundToTwoDecimals rounds a currency value to 2 decimal places
func RoundToTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}

// MoneyTolerance is the tolerance used when comparing currency amounts that
// must balance exactly, e.g. refund payments against returned-item value.
const MoneyTolerance = 0.005

// MoneyEquals reports whether two currency amounts are equal within the
// balancing tolerance.
func MoneyEquals(a, b float64) bool {
	return math.Abs(a-b) <= MoneyTolerance
}
