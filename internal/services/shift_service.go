package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"retail-ops-api/internal/auth"
	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"
)

// shiftService implements the ShiftService interface
type shiftService struct {
	manager repositories.RepositoryManager
}

// NewShiftService creates a new shift service instance
func NewShiftService(manager repositories.RepositoryManager) ShiftService {
	return &shiftService{manager: manager}
}

// ShiftSummary reconciles every payment the cashier personally recorded
// against orders and demand notices within the requested window.
func (s *shiftService) ShiftSummary(ctx context.Context, actor *models.User, req *ShiftSummaryRequest) (*ShiftSummary, error) {
	if !auth.Can(actor, auth.ActionViewReports) {
		return nil, NewPermissionError("not allowed to view reports")
	}

	if req == nil || req.CashierID == "" {
		return nil, NewValidationError("cashier ID is required")
	}

	windowStart, windowEnd, err := shiftWindow(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	summary := &ShiftSummary{
		CashierID:      req.CashierID,
		WindowStart:    windowStart,
		WindowEnd:      windowEnd,
		TotalsByMethod: map[models.PaymentMethod]float64{},
	}

	orders, err := s.manager.Orders().List(ctx, repositories.OrderFilters{})
	if err != nil {
		return nil, WrapRepositoryError("failed to list orders", err)
	}

	for _, order := range orders {
		row := buildShiftRow(order.ID, "order", order.CustomerName, order.Status.DisplayLabel(),
			order.Payments, req.CashierID, windowStart, windowEnd)

		closed := orderClosedOnShift(order, req.CashierID, windowStart, windowEnd)
		if closed {
			row.ClosedOnShift = true
			summary.OrdersFullyPaid++
			if row.LatestPayment == nil {
				fallback := order.UpdatedAt
				if fallback.IsZero() {
					fallback = order.CreatedAt
				}
				row.LatestPayment = &fallback
			}
		}

		if row.TotalCollected > 0 || closed {
			summary.Rows = append(summary.Rows, row)
			accumulate(summary, row)
		}
	}

	notices, err := s.manager.DemandNotices().List(ctx, repositories.DemandNoticeFilters{})
	if err != nil {
		return nil, WrapRepositoryError("failed to list demand notices", err)
	}

	for _, notice := range notices {
		row := buildShiftRow(notice.ID, "demand_notice", notice.ProductName, notice.StatusDisplayLabel(),
			notice.Payments, req.CashierID, windowStart, windowEnd)
		if row.TotalCollected > 0 {
			summary.Rows = append(summary.Rows, row)
			accumulate(summary, row)
		}
	}

	summary.GrandTotal = models.RoundToTwoDecimals(summary.GrandTotal)
	summary.AdvanceTotal = models.RoundToTwoDecimals(summary.AdvanceTotal)
	for method, amount := range summary.TotalsByMethod {
		summary.TotalsByMethod[method] = models.RoundToTwoDecimals(amount)
	}

	// Most recently closed-out business first.
	sort.SliceStable(summary.Rows, func(i, j int) bool {
		a, b := summary.Rows[i].LatestPayment, summary.Rows[j].LatestPayment
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	return summary, nil
}

// shiftWindow resolves a date plus optional HH:mm narrowing into an
// inclusive [start, end] window. The full-day window runs 00:00:00.000
// through 23:59:59.999; an inverted narrowing falls back to the full day.
func shiftWindow(date, startTime, endTime string) (time.Time, time.Time, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError("invalid date %q: expected YYYY-MM-DD", date)
	}

	dayStart := day
	dayEnd := day.Add(24*time.Hour - time.Millisecond)

	start, end := dayStart, dayEnd
	if startTime != "" {
		t, err := time.Parse("15:04", startTime)
		if err != nil {
			return time.Time{}, time.Time{}, NewValidationError("invalid start time %q: expected HH:mm", startTime)
		}
		start = day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
	}
	if endTime != "" {
		t, err := time.Parse("15:04", endTime)
		if err != nil {
			return time.Time{}, time.Time{}, NewValidationError("invalid end time %q: expected HH:mm", endTime)
		}
		// The end minute is included in full.
		end = day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute +
			time.Minute - time.Millisecond)
	}

	if end.Before(start) {
		return dayStart, dayEnd, nil
	}
	return start, end, nil
}

// inWindow reports whether ts falls within the inclusive window
func inWindow(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}

func buildShiftRow(docID, docType, customer, status string, payments []models.PaymentDetail,
	cashierID string, start, end time.Time) ShiftRow {

	row := ShiftRow{
		DocumentID:     docID,
		DocumentType:   docType,
		CustomerName:   customer,
		Status:         status,
		AmountByMethod: map[models.PaymentMethod]float64{},
	}

	for _, payment := range payments {
		if payment.CashierID != cashierID || !inWindow(payment.PaymentDate, start, end) {
			continue
		}
		row.AmountByMethod[payment.Method] += payment.Amount
		row.TotalCollected += payment.Amount
		if row.LatestPayment == nil || payment.PaymentDate.After(*row.LatestPayment) {
			ts := payment.PaymentDate
			row.LatestPayment = &ts
		}
	}
	row.TotalCollected = models.RoundToTwoDecimals(row.TotalCollected)

	return row
}

// orderClosedOnShift reports whether this cashier closed the order out in
// the window: the order is paid or completed, its most recent payment was
// recorded by the cashier, and it was last touched inside the window.
func orderClosedOnShift(order *models.Order, cashierID string, start, end time.Time) bool {
	if !order.Status.CountsTowardSales() {
		return false
	}

	latest := models.LatestPayment(order.Payments)
	if latest == nil || latest.CashierID != cashierID {
		return false
	}

	return inWindow(order.UpdatedAt, start, end)
}

func accumulate(summary *ShiftSummary, row ShiftRow) {
	for method, amount := range row.AmountByMethod {
		summary.GrandTotal += amount
		if method == models.PaymentMethodAdvanceOnDN {
			// Advances are tracked apart from over-the-counter methods.
			summary.AdvanceTotal += amount
			continue
		}
		summary.TotalsByMethod[method] += amount
	}
}

// FormatWindow renders the summary window for display
func (s *ShiftSummary) FormatWindow() string {
	return fmt.Sprintf("%s to %s",
		s.WindowStart.Format("2006-01-02 15:04:05.000"),
		s.WindowEnd.Format("2006-01-02 15:04:05.000"))
}
