package services

import (
	"context"
	"math"
	"testing"
	"time"

	"retail-ops-api/internal/models"
)

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

// TestCreateOrder_CommissionSplit verifies that orders with a secondary
// salesperson are accepted only when the split sums to exactly 1.
func TestCreateOrder_CommissionSplit(t *testing.T) {
	tests := []struct {
		name      string
		primary   *float64
		secondary *string
		fraction  *float64
		wantErr   bool
	}{
		{"sole primary defaults to full credit", nil, nil, nil, false},
		{"valid 60/40 split", floatPtr(0.6), strPtr("sp-2"), floatPtr(0.4), false},
		{"split sums above one", floatPtr(0.7), strPtr("sp-2"), floatPtr(0.4), true},
		{"split sums below one", floatPtr(0.5), strPtr("sp-2"), floatPtr(0.4), true},
		{"secondary fraction without secondary", floatPtr(0.6), nil, floatPtr(0.4), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newFakeRepoManager()
			product := seedProduct(m, "SKU-1", "Widget", 100, 50)
			svc := NewOrderService(m)

			req := &CreateOrderRequest{
				Items:                          []OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
				PrimarySalespersonID:           "sp-1",
				PrimarySalespersonCommission:   tt.primary,
				SecondarySalespersonID:         tt.secondary,
				SecondarySalespersonCommission: tt.fraction,
			}

			order, err := svc.CreateOrder(context.Background(), adminActor(), req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("CreateOrder() should reject an invalid commission split")
				}
				if !IsValidation(err) {
					t.Errorf("CreateOrder() error kind = %v, want validation", KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateOrder() failed: %v", err)
			}
			if order.TotalAmount != 200 {
				t.Errorf("TotalAmount = %v, want 200", order.TotalAmount)
			}
		})
	}
}

// TestCreateOrder_DecrementsStock verifies stock reservation and the
// insufficient-stock conflict.
func TestCreateOrder_DecrementsStock(t *testing.T) {
	m := newFakeRepoManager()
	product := seedProduct(m, "SKU-1", "Widget", 10, 5)
	svc := NewOrderService(m)

	_, err := svc.CreateOrder(context.Background(), adminActor(), &CreateOrderRequest{
		Items:                []OrderItemRequest{{ProductID: product.ID, Quantity: 3}},
		PrimarySalespersonID: "sp-1",
	})
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}

	if m.products[product.ID].QuantityInStock != 2 {
		t.Errorf("Stock after order = %d, want 2", m.products[product.ID].QuantityInStock)
	}

	_, err = svc.CreateOrder(context.Background(), adminActor(), &CreateOrderRequest{
		Items:                []OrderItemRequest{{ProductID: product.ID, Quantity: 3}},
		PrimarySalespersonID: "sp-1",
	})
	if !IsConflict(err) {
		t.Errorf("CreateOrder() with insufficient stock error = %v, want conflict", err)
	}
}

// TestCreateOrder_AppliesTaxes verifies tax lines from settings apply to the
// discounted subtotal.
func TestCreateOrder_AppliesTaxes(t *testing.T) {
	m := newFakeRepoManager()
	m.taxes = []models.TaxSetting{{Name: "VAT", Percentage: 10}}
	product := seedProduct(m, "SKU-1", "Widget", 100, 50)
	svc := NewOrderService(m)

	order, err := svc.CreateOrder(context.Background(), adminActor(), &CreateOrderRequest{
		Items:                []OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
		DiscountAmount:       50,
		PrimarySalespersonID: "sp-1",
	})
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}

	// subtotal 200, discount 50, VAT 10% of 150 = 15, total 165
	if len(order.Taxes) != 1 || order.Taxes[0].Amount != 15 {
		t.Errorf("Taxes = %v, want one VAT line of 15", order.Taxes)
	}
	if order.TotalAmount != 165 {
		t.Errorf("TotalAmount = %v, want 165", order.TotalAmount)
	}
}

// TestRecordPayment verifies the payment trail and the derived status
// suggestion.
func TestRecordPayment(t *testing.T) {
	m := newFakeRepoManager()
	product := seedProduct(m, "SKU-1", "Widget", 100, 50)
	svc := NewOrderService(m)
	cashier := cashierActor("dele")

	order, err := svc.CreateOrder(context.Background(), adminActor(), &CreateOrderRequest{
		Items:                []OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
		PrimarySalespersonID: "sp-1",
	})
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}

	result, err := svc.RecordPayment(context.Background(), cashier, order.ID, &RecordPaymentRequest{
		Method: models.PaymentMethodCash,
		Amount: 80,
	})
	if err != nil {
		t.Fatalf("RecordPayment() failed: %v", err)
	}
	if result.SuggestedStatus != models.OrderStatusPartialPayment {
		t.Errorf("SuggestedStatus = %s, want partial_payment", result.SuggestedStatus)
	}
	if result.RemainingBalance != 120 {
		t.Errorf("RemainingBalance = %v, want 120", result.RemainingBalance)
	}
	if result.Order.Payments[0].CashierID != cashier.ID {
		t.Errorf("Payment cashier = %s, want %s", result.Order.Payments[0].CashierID, cashier.ID)
	}

	result, err = svc.RecordPayment(context.Background(), cashier, order.ID, &RecordPaymentRequest{
		Method: models.PaymentMethodCard,
		Amount: 150,
	})
	if err != nil {
		t.Fatalf("RecordPayment() failed: %v", err)
	}
	if result.SuggestedStatus != models.OrderStatusPaid {
		t.Errorf("SuggestedStatus = %s, want paid", result.SuggestedStatus)
	}

	// Overpayment is surfaced as a negative balance, not rejected.
	if result.RemainingBalance != -30 {
		t.Errorf("RemainingBalance = %v, want -30", result.RemainingBalance)
	}
}

// TestRecordPayment_PermissionPrecedesValidation verifies that permission
// failures are reported before the payload is inspected.
func TestRecordPayment_PermissionPrecedesValidation(t *testing.T) {
	m := newFakeRepoManager()
	svc := NewOrderService(m)

	// Invalid payload and missing permission at once: permission wins.
	_, err := svc.RecordPayment(context.Background(), salespersonActor("amaka"), "any", nil)
	if !IsPermission(err) {
		t.Errorf("RecordPayment() error kind = %v, want permission", KindOf(err))
	}
}

// TestProcessReturn_Balancing verifies the refund-balancing tolerance.
func TestProcessReturn_Balancing(t *testing.T) {
	tests := []struct {
		name    string
		refund  float64
		wantErr bool
	}{
		{"exact refund", 200, false},
		{"within tolerance", 200.004, false},
		{"excess beyond tolerance", 200.01, true},
		{"shortfall beyond tolerance", 199.99, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newFakeRepoManager()
			product := seedProduct(m, "SKU-1", "Widget", 100, 50)
			svc := NewOrderService(m)

			order, err := svc.CreateOrder(context.Background(), adminActor(), &CreateOrderRequest{
				Items:                []OrderItemRequest{{ProductID: product.ID, Quantity: 5}},
				PrimarySalespersonID: "sp-1",
			})
			if err != nil {
				t.Fatalf("CreateOrder() failed: %v", err)
			}

			_, err = svc.ProcessReturn(context.Background(), adminActor(), order.ID, &ProcessReturnRequest{
				Items:   []ReturnItemRequest{{ProductID: product.ID, QuantityToReturn: 2}},
				Refunds: []RecordPaymentRequest{{Method: models.PaymentMethodCash, Amount: tt.refund}},
			})

			if tt.wantErr {
				if !IsValidation(err) {
					t.Errorf("ProcessReturn() error = %v, want validation failure", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ProcessReturn() failed: %v", err)
			}
		})
	}
}

// TestProcessReturn_CumulativeCap verifies that returns across multiple
// transactions never exceed the original quantity.
func TestProcessReturn_CumulativeCap(t *testing.T) {
	m := newFakeRepoManager()
	product := seedProduct(m, "SKU-1", "Widget", 10, 50)
	svc := NewOrderService(m)

	order, err := svc.CreateOrder(context.Background(), adminActor(), &CreateOrderRequest{
		Items:                []OrderItemRequest{{ProductID: product.ID, Quantity: 10}},
		PrimarySalespersonID: "sp-1",
	})
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}

	// First return of 6 succeeds.
	_, err = svc.ProcessReturn(context.Background(), adminActor(), order.ID, &ProcessReturnRequest{
		Items:   []ReturnItemRequest{{ProductID: product.ID, QuantityToReturn: 6}},
		Refunds: []RecordPaymentRequest{{Method: models.PaymentMethodCash, Amount: 60}},
	})
	if err != nil {
		t.Fatalf("First ProcessReturn() failed: %v", err)
	}

	// A second return of 5 would exceed the original 10.
	_, err = svc.ProcessReturn(context.Background(), adminActor(), order.ID, &ProcessReturnRequest{
		Items:   []ReturnItemRequest{{ProductID: product.ID, QuantityToReturn: 5}},
		Refunds: []RecordPaymentRequest{{Method: models.PaymentMethodCash, Amount: 50}},
	})
	if !IsValidation(err) {
		t.Errorf("Second ProcessReturn() error = %v, want validation failure", err)
	}

	// Exactly the 4 remaining are still returnable.
	_, err = svc.ProcessReturn(context.Background(), adminActor(), order.ID, &ProcessReturnRequest{
		Items:   []ReturnItemRequest{{ProductID: product.ID, QuantityToReturn: 4}},
		Refunds: []RecordPaymentRequest{{Method: models.PaymentMethodCash, Amount: 40}},
	})
	if err != nil {
		t.Fatalf("Third ProcessReturn() failed: %v", err)
	}
}

// TestProcessReturn_NoItems verifies the dedicated no-items rejection.
func TestProcessReturn_NoItems(t *testing.T) {
	m := newFakeRepoManager()
	svc := NewOrderService(m)

	_, err := svc.ProcessReturn(context.Background(), adminActor(), "any", &ProcessReturnRequest{})
	if !IsValidation(err) {
		t.Fatalf("ProcessReturn() error = %v, want validation failure", err)
	}
}

// TestAggregateAttributedSales verifies that only paid and completed orders
// contribute, each weighted by the salesperson's split fraction.
func TestAggregateAttributedSales(t *testing.T) {
	m := newFakeRepoManager()
	product := seedProduct(m, "SKU-1", "Widget", 100, 100)
	svc := NewOrderService(m)
	ctx := context.Background()

	makeOrder := func(quantity int, status models.OrderStatus, primary float64, secondary *float64) {
		req := &CreateOrderRequest{
			Items:                        []OrderItemRequest{{ProductID: product.ID, Quantity: quantity}},
			PrimarySalespersonID:         "sp-1",
			PrimarySalespersonCommission: floatPtr(primary),
		}
		if secondary != nil {
			req.SecondarySalespersonID = strPtr("sp-2")
			req.SecondarySalespersonCommission = secondary
		}
		order, err := svc.CreateOrder(ctx, adminActor(), req)
		if err != nil {
			t.Fatalf("CreateOrder() failed: %v", err)
		}
		if _, err := svc.UpdateStatus(ctx, adminActor(), order.ID, status); err != nil {
			t.Fatalf("UpdateStatus() failed: %v", err)
		}
	}

	makeOrder(10, models.OrderStatusPaid, 1, nil)                    // 1000 fully attributed
	makeOrder(10, models.OrderStatusCompleted, 0.6, floatPtr(0.4))   // 600 to sp-1, 400 to sp-2
	makeOrder(10, models.OrderStatusCancelled, 1, nil)               // excluded
	makeOrder(10, models.OrderStatusPendingPayment, 1, nil)          // excluded

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)

	total, err := svc.AggregateAttributedSales(ctx, "sp-1", start, end)
	if err != nil {
		t.Fatalf("AggregateAttributedSales() failed: %v", err)
	}
	if math.Abs(total-1600) > 0.001 {
		t.Errorf("Attributed sales for sp-1 = %v, want 1600", total)
	}

	total, err = svc.AggregateAttributedSales(ctx, "sp-2", start, end)
	if err != nil {
		t.Fatalf("AggregateAttributedSales() failed: %v", err)
	}
	if math.Abs(total-400) > 0.001 {
		t.Errorf("Attributed sales for sp-2 = %v, want 400", total)
	}
}

// TestEarnedCommission verifies the end-to-end aggregation into the step
// function.
func TestEarnedCommission(t *testing.T) {
	m := newFakeRepoManager()
	m.commission = &models.CommissionSetting{
		IsActive:             true,
		SalesTarget:          1000,
		CommissionInterval:   500,
		CommissionPercentage: 10,
	}
	product := seedProduct(m, "SKU-1", "Widget", 100, 100)
	svc := NewOrderService(m)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, adminActor(), &CreateOrderRequest{
		Items:                []OrderItemRequest{{ProductID: product.ID, Quantity: 19}}, // 1900
		PrimarySalespersonID: "sp-1",
	})
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, adminActor(), order.ID, models.OrderStatusPaid); err != nil {
		t.Fatalf("UpdateStatus() failed: %v", err)
	}

	report, err := svc.EarnedCommission(ctx, adminActor(), "sp-1",
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("EarnedCommission() failed: %v", err)
	}

	if report.AttributedSales != 1900 {
		t.Errorf("AttributedSales = %v, want 1900", report.AttributedSales)
	}
	// 1900 over target 1000 = 900 above, one full 500 interval, 10% of 500.
	if report.Commission != 50 {
		t.Errorf("Commission = %v, want 50", report.Commission)
	}
}
