package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed_amount"
)

var oneHundred = decimal.NewFromInt(100)

// Coupon codes are stored upper-cased; lookups normalize the same way.
type Coupon struct {
	ID                    uuid.UUID
	Code                  string
	Description           string
	DiscountType          DiscountType
	DiscountValue         decimal.Decimal
	MaxDiscountAmount     *decimal.Decimal
	MinimumOrderAmount    decimal.Decimal
	ValidFrom             time.Time
	ValidTo               time.Time
	TotalUsageLimit       *int
	UsageLimitPerCustomer int
	IsActive              bool
	TimesUsed             int
	CreatedBy             *uuid.UUID
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsValid reports whether the coupon is active, inside its validity window
// and not globally exhausted.
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidTo) {
		return false
	}
	if c.TotalUsageLimit != nil && c.TimesUsed >= *c.TotalUsageLimit {
		return false
	}
	return true
}

// CalculateDiscount returns the discount for the given order total, rounded
// to two decimal places (half-up). It fails closed: an invalid coupon or a
// total below the minimum yields zero. Percentage discounts are capped at
// MaxDiscountAmount when set; fixed discounts never exceed the order total.
func (c *Coupon) CalculateDiscount(orderTotal decimal.Decimal, now time.Time) decimal.Decimal {
	if !c.IsValid(now) {
		return decimal.Zero
	}
	if orderTotal.LessThan(c.MinimumOrderAmount) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discount = orderTotal.Mul(c.DiscountValue).Div(oneHundred)
		if c.MaxDiscountAmount != nil && discount.GreaterThan(*c.MaxDiscountAmount) {
			discount = *c.MaxDiscountAmount
		}
	case DiscountFixed:
		discount = decimal.Min(c.DiscountValue, orderTotal)
	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(2)
}

// DiscountDisplay returns a human-readable description of the discount.
func (c *Coupon) DiscountDisplay() string {
	if c.DiscountType == DiscountPercentage {
		return fmt.Sprintf("%s%% off", c.DiscountValue.String())
	}
	return fmt.Sprintf("$%s off", c.DiscountValue.String())
}

// CouponUsageHistory is an append-only audit row per redemption.
type CouponUsageHistory struct {
	ID             uuid.UUID
	CouponID       uuid.UUID
	UsedBy         uuid.UUID
	OrderID        uuid.UUID
	DiscountAmount decimal.Decimal
	UsedAt         time.Time
}

// CouponUsageStats aggregates redemption history for a coupon.
type CouponUsageStats struct {
	TotalUses     int
	TotalDiscount decimal.Decimal
	UniqueUsers   int
}
