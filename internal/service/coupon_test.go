package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/model"
)

func newTestCouponService() (*CouponService, *mockCouponRepo, *mockCartRepo) {
	couponRepo := newMockCouponRepo()
	cartRepo := newMockCartRepo()
	svc := NewCouponService(couponRepo, cartRepo)
	return svc, couponRepo, cartRepo
}

func seedCoupon(t *testing.T, repo *mockCouponRepo, mutate func(*model.Coupon)) *model.Coupon {
	t.Helper()
	coupon := &model.Coupon{
		Code:                  "SUMMER20",
		DiscountType:          model.DiscountPercentage,
		DiscountValue:         decimal.RequireFromString("20"),
		MinimumOrderAmount:    decimal.Zero,
		ValidFrom:             time.Now().Add(-time.Hour),
		ValidTo:               time.Now().Add(24 * time.Hour),
		UsageLimitPerCustomer: 1,
		IsActive:              true,
	}
	if mutate != nil {
		mutate(coupon)
	}
	require.NoError(t, repo.Create(context.Background(), coupon))
	return coupon
}

func TestCouponService_Create(t *testing.T) {
	svc, _, _ := newTestCouponService()
	adminID := uuid.New()

	resp, err := svc.Create(context.Background(), adminID, dto.CreateCouponRequest{
		Code:                  "welcome10",
		DiscountType:          "percentage",
		DiscountValue:         decimal.RequireFromString("10"),
		ValidFrom:             time.Now(),
		ValidTo:               time.Now().Add(24 * time.Hour),
		UsageLimitPerCustomer: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", resp.Code)
	assert.True(t, resp.IsActive)
	assert.Equal(t, "10% off", resp.DiscountDisplay)
}

func TestCouponService_Create_DuplicateCode(t *testing.T) {
	svc, couponRepo, _ := newTestCouponService()
	seedCoupon(t, couponRepo, nil)

	_, err := svc.Create(context.Background(), uuid.New(), dto.CreateCouponRequest{
		Code:                  "summer20",
		DiscountType:          "percentage",
		DiscountValue:         decimal.RequireFromString("5"),
		ValidFrom:             time.Now(),
		ValidTo:               time.Now().Add(time.Hour),
		UsageLimitPerCustomer: 1,
	})
	assert.ErrorIs(t, err, ErrCouponCodeExists)
}

func TestCouponService_Validate(t *testing.T) {
	svc, couponRepo, _ := newTestCouponService()
	max := decimal.RequireFromString("15.00")
	seedCoupon(t, couponRepo, func(c *model.Coupon) {
		c.MaxDiscountAmount = &max
	})

	resp, err := svc.Validate(context.Background(), uuid.New(), dto.ValidateCouponRequest{
		Code:       "summer20",
		OrderTotal: decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)
	// 20% of 100 is 20, capped at the 15 maximum.
	assert.True(t, resp.DiscountAmount.Equal(decimal.RequireFromString("15.00")))
	assert.True(t, resp.FinalAmount.Equal(decimal.RequireFromString("85.00")))
}

func TestCouponService_Validate_Rejections(t *testing.T) {
	limit := 5
	tests := []struct {
		name   string
		mutate func(*model.Coupon)
		total  string
		reason string
	}{
		{
			name:   "inactive",
			mutate: func(c *model.Coupon) { c.IsActive = false },
			total:  "100.00",
			reason: "coupon is not active",
		},
		{
			name:   "not started",
			mutate: func(c *model.Coupon) { c.ValidFrom = time.Now().Add(time.Hour) },
			total:  "100.00",
			reason: "coupon is not valid yet",
		},
		{
			name:   "expired",
			mutate: func(c *model.Coupon) { c.ValidTo = time.Now().Add(-time.Minute) },
			total:  "100.00",
			reason: "coupon has expired",
		},
		{
			name: "exhausted",
			mutate: func(c *model.Coupon) {
				c.TotalUsageLimit = &limit
				c.TimesUsed = 5
			},
			total:  "100.00",
			reason: "coupon usage limit reached",
		},
		{
			name:   "below minimum order",
			mutate: func(c *model.Coupon) { c.MinimumOrderAmount = decimal.RequireFromString("50.00") },
			total:  "49.99",
			reason: "order total must be at least 50.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, couponRepo, _ := newTestCouponService()
			seedCoupon(t, couponRepo, tt.mutate)

			_, err := svc.Validate(context.Background(), uuid.New(), dto.ValidateCouponRequest{
				Code:       "SUMMER20",
				OrderTotal: decimal.RequireFromString(tt.total),
			})
			var couponErr *CouponInvalidError
			require.ErrorAs(t, err, &couponErr)
			assert.Equal(t, tt.reason, couponErr.Reason)
		})
	}
}

func TestCouponService_Validate_UnknownCode(t *testing.T) {
	svc, _, _ := newTestCouponService()

	_, err := svc.Validate(context.Background(), uuid.New(), dto.ValidateCouponRequest{
		Code:       "nope",
		OrderTotal: decimal.RequireFromString("10.00"),
	})
	var couponErr *CouponInvalidError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, "NOPE", couponErr.Code)
	assert.Equal(t, "coupon not found", couponErr.Reason)
}

func TestCouponService_Validate_PerCustomerLimit(t *testing.T) {
	svc, couponRepo, _ := newTestCouponService()
	coupon := seedCoupon(t, couponRepo, nil)
	userID := uuid.New()

	require.NoError(t, couponRepo.AddUsageTx(context.Background(), nil, &model.CouponUsageHistory{
		CouponID:       coupon.ID,
		UsedBy:         userID,
		DiscountAmount: decimal.RequireFromString("5.00"),
	}))

	_, err := svc.Validate(context.Background(), userID, dto.ValidateCouponRequest{
		Code:       "SUMMER20",
		OrderTotal: decimal.RequireFromString("100.00"),
	})
	var couponErr *CouponInvalidError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, "you have already used this coupon", couponErr.Reason)

	// A different customer is unaffected.
	_, err = svc.Validate(context.Background(), uuid.New(), dto.ValidateCouponRequest{
		Code:       "SUMMER20",
		OrderTotal: decimal.RequireFromString("100.00"),
	})
	assert.NoError(t, err)
}

func TestCouponService_ApplyToCart(t *testing.T) {
	svc, couponRepo, cartRepo := newTestCouponService()
	coupon := seedCoupon(t, couponRepo, nil)
	userID := uuid.New()

	cart, err := cartRepo.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)
	require.NoError(t, cartRepo.AddItem(context.Background(), &model.CartItem{
		CartID:    cart.ID,
		ProductID: uuid.New(),
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("25.00"),
	}))

	applied, got, err := svc.ApplyToCart(context.Background(), userID, "summer20")
	require.NoError(t, err)
	assert.Equal(t, coupon.ID, got.ID)
	require.NotNil(t, applied.CouponID)
	assert.Equal(t, coupon.ID, *applied.CouponID)
	assert.True(t, applied.DiscountAmount.Equal(decimal.RequireFromString("10.00")))
}

func TestCouponService_ApplyToCart_EmptyCart(t *testing.T) {
	svc, couponRepo, _ := newTestCouponService()
	seedCoupon(t, couponRepo, nil)

	_, _, err := svc.ApplyToCart(context.Background(), uuid.New(), "SUMMER20")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCouponService_RemoveFromCart(t *testing.T) {
	svc, couponRepo, cartRepo := newTestCouponService()
	coupon := seedCoupon(t, couponRepo, nil)
	userID := uuid.New()

	cart, err := cartRepo.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)
	require.NoError(t, cartRepo.SetCoupon(context.Background(), cart.ID, &coupon.ID, decimal.RequireFromString("5.00")))

	require.NoError(t, svc.RemoveFromCart(context.Background(), userID))
	assert.Nil(t, cart.CouponID)
	assert.True(t, cart.DiscountAmount.IsZero())
}

func TestCouponService_RemoveFromCart_NoneApplied(t *testing.T) {
	svc, _, _ := newTestCouponService()

	err := svc.RemoveFromCart(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoCouponApplied)
}

func TestCouponService_Delete_NotFound(t *testing.T) {
	svc, _, _ := newTestCouponService()

	err := svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestCouponService_UsageStats(t *testing.T) {
	svc, couponRepo, _ := newTestCouponService()
	coupon := seedCoupon(t, couponRepo, nil)
	repeat := uuid.New()

	for _, entry := range []struct {
		user   uuid.UUID
		amount string
	}{
		{repeat, "5.00"},
		{repeat, "7.50"},
		{uuid.New(), "10.00"},
	} {
		require.NoError(t, couponRepo.AddUsageTx(context.Background(), nil, &model.CouponUsageHistory{
			CouponID:       coupon.ID,
			UsedBy:         entry.user,
			DiscountAmount: decimal.RequireFromString(entry.amount),
		}))
	}

	stats, err := svc.UsageStats(context.Background(), coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalUses)
	assert.Equal(t, 2, stats.UniqueUsers)
	assert.True(t, stats.TotalDiscount.Equal(decimal.RequireFromString("22.50")))
}
