package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a user's staging area of selected items prior to checkout.
// There is exactly one cart per user; the applied coupon and its cached
// discount live on the cart row so they stay transactionally consistent
// with the items.
type Cart struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	CouponID       *uuid.UUID
	DiscountAmount decimal.Decimal
	Items          []CartItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Subtotal is the sum of item totals before any discount.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// Total is the subtotal minus the applied coupon discount, floored at zero.
func (c *Cart) Total() decimal.Decimal {
	total := c.Subtotal().Sub(c.DiscountAmount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// CartItem is a line in a cart, unique per (cart, product, variant, size).
// UnitPrice is a snapshot taken when the item was added.
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
	SizeID    *uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *CartItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
