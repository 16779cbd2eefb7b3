package services

import (
	"context"
	"testing"

	"retail-ops-api/internal/models"
)

func seedQuotation(t *testing.T, m *fakeRepoManager, actor *models.User, items []QuotationItemRequest) *models.Quotation {
	t.Helper()
	svc := NewQuotationService(m)
	quotation, err := svc.Create(context.Background(), actor, &CreateQuotationRequest{
		CustomerName:          "Chief Okonkwo",
		CustomerContactNumber: "0805-111-2222",
		Items:                 items,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return quotation
}

// TestQuotationCreate verifies item building and the default pricing rule.
func TestQuotationCreate(t *testing.T) {
	t.Run("internal item defaults to the effective price", func(t *testing.T) {
		m := newFakeRepoManager()
		product := seedProduct(m, "SKU-1", "Mixer", 250, 10)
		quotation := seedQuotation(t, m, salespersonActor("amaka"), []QuotationItemRequest{
			{ProductID: &product.ID, Quantity: 2},
		})

		if quotation.Items[0].Price != 250 {
			t.Errorf("Item price = %v, want the catalog price 250", quotation.Items[0].Price)
		}
		if quotation.TotalAmount != 500 {
			t.Errorf("TotalAmount = %v, want 500", quotation.TotalAmount)
		}
		if quotation.Status != models.QuotationStatusDraft {
			t.Errorf("Status = %s, want draft", quotation.Status)
		}
	})

	t.Run("internal item accepts a price override", func(t *testing.T) {
		m := newFakeRepoManager()
		product := seedProduct(m, "SKU-1", "Mixer", 250, 10)
		quotation := seedQuotation(t, m, salespersonActor("amaka"), []QuotationItemRequest{
			{ProductID: &product.ID, Quantity: 2, Price: floatPtr(230)},
		})

		if quotation.TotalAmount != 460 {
			t.Errorf("TotalAmount = %v, want 460", quotation.TotalAmount)
		}
	})

	t.Run("external item requires name and price", func(t *testing.T) {
		m := newFakeRepoManager()
		svc := NewQuotationService(m)

		_, err := svc.Create(context.Background(), salespersonActor("amaka"), &CreateQuotationRequest{
			Items: []QuotationItemRequest{{IsExternal: true, Quantity: 1}},
		})
		if !IsValidation(err) {
			t.Errorf("Create() error = %v, want validation failure", err)
		}
	})

	t.Run("cashier cannot create quotations", func(t *testing.T) {
		m := newFakeRepoManager()
		svc := NewQuotationService(m)

		_, err := svc.Create(context.Background(), cashierActor("dele"), &CreateQuotationRequest{
			Items: []QuotationItemRequest{{IsExternal: true, ProductName: "Thing", Price: floatPtr(5), Quantity: 1}},
		})
		if !IsPermission(err) {
			t.Errorf("Create() error = %v, want permission failure", err)
		}
	})
}

// TestQuotationUpdate verifies editability and the forced total recompute.
func TestQuotationUpdate(t *testing.T) {
	m := newFakeRepoManager()
	svc := NewQuotationService(m)
	sp := salespersonActor("amaka")
	ctx := context.Background()

	quotation := seedQuotation(t, m, sp, []QuotationItemRequest{
		{IsExternal: true, ProductName: "Imported Oven", Price: floatPtr(1000), Quantity: 1},
	})

	updated, err := svc.Update(ctx, sp, quotation.ID, &UpdateQuotationRequest{
		Items: []QuotationItemRequest{
			{IsExternal: true, ProductName: "Imported Oven", Price: floatPtr(900), Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.TotalAmount != 1800 {
		t.Errorf("TotalAmount = %v, want 1800 after recompute", updated.TotalAmount)
	}

	// Sent quotations are no longer editable.
	if _, err := svc.UpdateStatus(ctx, sp, quotation.ID, models.QuotationStatusSent); err != nil {
		t.Fatalf("UpdateStatus() failed: %v", err)
	}
	_, err = svc.Update(ctx, sp, quotation.ID, &UpdateQuotationRequest{CustomerName: strPtr("Someone Else")})
	if !IsValidation(err) {
		t.Errorf("Update() on a sent quotation error = %v, want validation failure", err)
	}
}

// TestQuotationStatusTransitions exercises the direct transition table.
func TestQuotationStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    models.QuotationStatus
		to      models.QuotationStatus
		allowed bool
	}{
		{"draft to sent", models.QuotationStatusDraft, models.QuotationStatusSent, true},
		{"draft straight to accepted", models.QuotationStatusDraft, models.QuotationStatusAccepted, false},
		{"sent to accepted", models.QuotationStatusSent, models.QuotationStatusAccepted, true},
		{"sent to rejected", models.QuotationStatusSent, models.QuotationStatusRejected, true},
		{"sent to revision", models.QuotationStatusSent, models.QuotationStatusRevision, true},
		{"revision back to sent", models.QuotationStatusRevision, models.QuotationStatusSent, true},
		{"accepted to hold", models.QuotationStatusAccepted, models.QuotationStatusHold, true},
		{"hold back to accepted", models.QuotationStatusHold, models.QuotationStatusAccepted, true},
		{"converted is never a direct target", models.QuotationStatusAccepted, models.QuotationStatusConverted, false},
		{"rejected is terminal", models.QuotationStatusRejected, models.QuotationStatusSent, false},
		{"converted is terminal", models.QuotationStatusConverted, models.QuotationStatusSent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newFakeRepoManager()
			svc := NewQuotationService(m)
			sp := salespersonActor("amaka")

			quotation := seedQuotation(t, m, sp, []QuotationItemRequest{
				{IsExternal: true, ProductName: "Thing", Price: floatPtr(10), Quantity: 1},
			})
			m.quotes[quotation.ID].Status = tt.from

			updated, err := svc.UpdateStatus(context.Background(), sp, quotation.ID, tt.to)
			if !tt.allowed {
				if !IsValidation(err) {
					t.Fatalf("UpdateStatus() error = %v, want validation failure", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateStatus() failed: %v", err)
			}
			if updated.Status != tt.to {
				t.Errorf("Status = %s, want %s", updated.Status, tt.to)
			}
		})
	}
}

// TestConvertInternalItems verifies order creation from accepted quotations
// and the item-level idempotence of conversion.
func TestConvertInternalItems(t *testing.T) {
	t.Run("creates one order and marks items converted", func(t *testing.T) {
		m := newFakeRepoManager()
		product := seedProduct(m, "SKU-1", "Mixer", 250, 10)
		svc := NewQuotationService(m)
		sp := salespersonActor("amaka")
		ctx := context.Background()

		quotation := seedQuotation(t, m, sp, []QuotationItemRequest{
			{ProductID: &product.ID, Quantity: 3, Price: floatPtr(240)},
			{IsExternal: true, ProductName: "Imported Oven", Price: floatPtr(1000), Quantity: 1},
		})
		m.quotes[quotation.ID].Status = models.QuotationStatusAccepted

		result, err := svc.ConvertInternalItems(ctx, sp, quotation.ID)
		if err != nil {
			t.Fatalf("ConvertInternalItems() failed: %v", err)
		}

		if result.Order == nil || result.Order.TotalAmount != 720 {
			t.Fatalf("Order = %+v, want total 720", result.Order)
		}
		if result.Order.PrimarySalespersonID != sp.ID {
			t.Errorf("Order salesperson = %s, want %s", result.Order.PrimarySalespersonID, sp.ID)
		}
		if m.products[product.ID].QuantityInStock != 7 {
			t.Errorf("Stock = %d, want 7", m.products[product.ID].QuantityInStock)
		}

		// The external item is still pending, so the quotation is not converted.
		if result.FullyConverted {
			t.Error("FullyConverted = true with an external item still pending")
		}
		if result.Quotation.Status != models.QuotationStatusAccepted {
			t.Errorf("Status = %s, want accepted until every item is converted", result.Quotation.Status)
		}

		// A second call has nothing left to convert.
		_, err = svc.ConvertInternalItems(ctx, sp, quotation.ID)
		if !IsValidation(err) {
			t.Errorf("Second ConvertInternalItems() error = %v, want validation failure", err)
		}
		if m.products[product.ID].QuantityInStock != 7 {
			t.Errorf("Stock after repeat call = %d, want unchanged 7", m.products[product.ID].QuantityInStock)
		}
	})

	t.Run("only accepted quotations convert", func(t *testing.T) {
		m := newFakeRepoManager()
		product := seedProduct(m, "SKU-1", "Mixer", 250, 10)
		svc := NewQuotationService(m)
		sp := salespersonActor("amaka")

		quotation := seedQuotation(t, m, sp, []QuotationItemRequest{
			{ProductID: &product.ID, Quantity: 1},
		})

		_, err := svc.ConvertInternalItems(context.Background(), sp, quotation.ID)
		if !IsValidation(err) {
			t.Errorf("ConvertInternalItems() on a draft error = %v, want validation failure", err)
		}
	})

	t.Run("insufficient stock aborts the conversion", func(t *testing.T) {
		m := newFakeRepoManager()
		product := seedProduct(m, "SKU-1", "Mixer", 250, 2)
		svc := NewQuotationService(m)
		sp := salespersonActor("amaka")

		quotation := seedQuotation(t, m, sp, []QuotationItemRequest{
			{ProductID: &product.ID, Quantity: 5},
		})
		m.quotes[quotation.ID].Status = models.QuotationStatusAccepted

		_, err := svc.ConvertInternalItems(context.Background(), sp, quotation.ID)
		if !IsConflict(err) {
			t.Errorf("ConvertInternalItems() error = %v, want conflict", err)
		}
	})
}

// TestConvertExternalItems verifies demand notice creation and the final
// flip to converted once every item is handled.
func TestConvertExternalItems(t *testing.T) {
	m := newFakeRepoManager()
	product := seedProduct(m, "SKU-1", "Mixer", 250, 10)
	svc := NewQuotationService(m)
	sp := salespersonActor("amaka")
	ctx := context.Background()

	quotation := seedQuotation(t, m, sp, []QuotationItemRequest{
		{ProductID: &product.ID, Quantity: 2},
		{IsExternal: true, ProductName: "Imported Oven", ProductSKU: "EXT-OVEN", Price: floatPtr(1000), Quantity: 1},
		{IsExternal: true, ProductName: "Spare Belt", Price: floatPtr(40), Quantity: 5},
	})
	m.quotes[quotation.ID].Status = models.QuotationStatusAccepted

	result, err := svc.ConvertExternalItems(ctx, sp, quotation.ID)
	if err != nil {
		t.Fatalf("ConvertExternalItems() failed: %v", err)
	}

	if len(result.DemandNotices) != 2 {
		t.Fatalf("DemandNotices = %d, want 2", len(result.DemandNotices))
	}
	for _, notice := range result.DemandNotices {
		if !notice.IsNewProduct {
			t.Errorf("Notice %s should be flagged as a new product", notice.ProductName)
		}
		if notice.SalespersonID != sp.ID {
			t.Errorf("Notice salesperson = %s, want %s", notice.SalespersonID, sp.ID)
		}
		if notice.CustomerContactNumber != "0805-111-2222" {
			t.Errorf("Notice contact = %s, want the quotation's", notice.CustomerContactNumber)
		}
	}
	if result.DemandNotices[0].ProductSKU != "EXT-OVEN" {
		t.Errorf("Notice SKU = %s, want the quoted EXT-OVEN", result.DemandNotices[0].ProductSKU)
	}
	if result.FullyConverted {
		t.Error("FullyConverted = true with the internal item still pending")
	}

	// Repeating the external conversion converts nothing twice.
	_, err = svc.ConvertExternalItems(ctx, sp, quotation.ID)
	if !IsValidation(err) {
		t.Errorf("Second ConvertExternalItems() error = %v, want validation failure", err)
	}

	// Converting the remaining internal item flips the quotation exactly once.
	internalResult, err := svc.ConvertInternalItems(ctx, sp, quotation.ID)
	if err != nil {
		t.Fatalf("ConvertInternalItems() failed: %v", err)
	}
	if !internalResult.FullyConverted {
		t.Error("FullyConverted = false after the last item converted")
	}
	if m.quotes[quotation.ID].Status != models.QuotationStatusConverted {
		t.Errorf("Status = %s, want converted", m.quotes[quotation.ID].Status)
	}
}
