package services

import (
	"math"

	"retail-ops-api/internal/models"
)

// CalculateCommission converts an attributed-sales total and a commission
// policy into an earned commission amount.
//
// Commission accrues per whole interval completed above the sales target:
// only fully-completed intervals earn, the final partial interval earns
// nothing. With target=1000, interval=500, rate=10%, sales of 1999 complete
// exactly one interval and earn 50, not a proportional 99.90.
func CalculateCommission(attributedSales float64, setting *models.CommissionSetting) float64 {
	if setting == nil || !setting.IsActive {
		return 0
	}

	if setting.CommissionInterval <= 0 {
		return 0
	}

	if attributedSales <= setting.SalesTarget {
		return 0
	}

	salesAboveTarget := attributedSales - setting.SalesTarget
	intervals := math.Floor(salesAboveTarget / setting.CommissionInterval)
	if intervals <= 0 {
		return 0
	}

	commissionPerInterval := setting.CommissionInterval * (setting.CommissionPercentage / 100)
	return intervals * commissionPerInterval
}
