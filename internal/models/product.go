package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog product
type Product struct {
	ID                string     `json:"id" db:"id" validate:"required,uuid"`
	SKU               string     `json:"sku" db:"sku" validate:"required"`
	Name              string     `json:"name" db:"name" validate:"required,min=1,max=255"`
	Category          string     `json:"category" db:"category"`
	Price             float64    `json:"price" db:"price" validate:"min=0"`
	QuantityInStock   int        `json:"quantity_in_stock" db:"quantity_in_stock" validate:"min=0"`
	LowStockThreshold *int       `json:"low_stock_threshold,omitempty" db:"low_stock_threshold"`
	LowStockPrice     *float64   `json:"low_stock_price,omitempty" db:"low_stock_price"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// NewProduct creates a new product with generated ID and timestamps
func NewProduct(sku, name, category string, price float64, quantityInStock int) *Product {
	now := time.Now()
	return &Product{
		ID:              uuid.New().String(),
		SKU:             sku,
		Name:            name,
		Category:        category,
		Price:           price,
		QuantityInStock: quantityInStock,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate validates the product data
func (p *Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("product ID is required")
	}

	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("product SKU is required")
	}

	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name is required")
	}

	if len(p.Name) > 255 {
		return fmt.Errorf("product name cannot exceed 255 characters")
	}

	if p.Price < 0 {
		return fmt.Errorf("product price cannot be negative")
	}

	if p.QuantityInStock < 0 {
		return fmt.Errorf("quantity in stock cannot be negative")
	}

	// Low-stock threshold and price require each other
	if p.LowStockThreshold != nil && p.LowStockPrice == nil {
		return fmt.Errorf("low stock price is required when a low stock threshold is set")
	}

	if p.LowStockPrice != nil {
		if p.LowStockThreshold == nil {
			return fmt.Errorf("low stock threshold is required when a low stock price is set")
		}
		if *p.LowStockPrice <= 0 {
			return fmt.Errorf("low stock price must be greater than zero")
		}
	}

	if p.LowStockThreshold != nil && *p.LowStockThreshold < 0 {
		return fmt.Errorf("low stock threshold cannot be negative")
	}

	return nil
}

// EffectivePrice returns the price a sale should use right now: the low-stock
// price when stock has fallen to or below the threshold, the regular price
// otherwise.
func (p *Product) EffectivePrice() float64 {
	if p.LowStockThreshold != nil && p.LowStockPrice != nil && p.QuantityInStock <= *p.LowStockThreshold {
		return *p.LowStockPrice
	}
	return p.Price
}

// HasSufficientStock returns true if at least quantity units are in stock
func (p *Product) HasSufficientStock(quantity int) bool {
	return p.QuantityInStock >= quantity
}

// IsExpired returns true if the product has an expiry date in the past
func (p *Product) IsExpired(now time.Time) bool {
	return p.ExpiryDate != nil && p.ExpiryDate.Before(now)
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (p *Product) UpdateTimestamp() {
	p.UpdatedAt = time.Now()
}
