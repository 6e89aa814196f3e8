package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderUnisex Gender = "unisex"
	GenderKids   Gender = "kids"
)

type Product struct {
	ID              uuid.UUID
	SKU             string
	Name            string
	Description     string
	Category        string
	Gender          Gender
	SellingPrice    decimal.Decimal
	PurchasingPrice decimal.Decimal
	MaterialAndCare string
	Active          bool
	Variants        []ProductVariant
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProfitMargin returns the margin percentage over the purchasing price,
// or zero when no purchasing price is recorded.
func (p *Product) ProfitMargin() decimal.Decimal {
	if p.PurchasingPrice.IsZero() {
		return decimal.Zero
	}
	return p.SellingPrice.Sub(p.PurchasingPrice).
		Div(p.PurchasingPrice).
		Mul(decimal.NewFromInt(100))
}

// ProductVariant is a product sub-option (color), unique per (product, name).
// Stock is an aggregate counter; the per-size counters are authoritative.
type ProductVariant struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Name      string
	Color     string
	Stock     int
	Sizes     []ProductSize
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductSize is the leaf stock-bearing unit, unique per (variant, size).
type ProductSize struct {
	ID        uuid.UUID
	VariantID uuid.UUID
	Size      string
	Stock     int
}
