package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/model"
)

func newTestCheckoutService() (*CheckoutService, *mockOrderRepo, *mockCartRepo, *mockProductRepo, *mockCouponRepo) {
	orderRepo := newMockOrderRepo()
	cartRepo := newMockCartRepo()
	productRepo := newMockProductRepo()
	couponRepo := newMockCouponRepo()
	svc := NewCheckoutService(orderRepo, cartRepo, productRepo, couponRepo, nil)
	return svc, orderRepo, cartRepo, productRepo, couponRepo
}

func checkoutRequest() dto.CheckoutRequest {
	return dto.CheckoutRequest{
		Email:       "jamie@example.com",
		PhoneNumber: "+15550100",
		ShippingAddress: dto.AddressRequest{
			AddressLine1: "1 Main St",
			City:         "Portland",
			State:        "OR",
			PostalCode:   "97201",
		},
	}
}

// fillCart seeds a product with stock and puts quantity units of it into
// the user's cart, returning the cart and the size holding the stock.
func fillCart(t *testing.T, cartRepo *mockCartRepo, productRepo *mockProductRepo, userID uuid.UUID, price string, stock, quantity int) (*model.Cart, uuid.UUID) {
	t.Helper()
	product, variantID, sizeID := seedProduct(t, productRepo, price, stock)

	cart, err := cartRepo.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)
	require.NoError(t, cartRepo.AddItem(context.Background(), &model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		VariantID: &variantID,
		SizeID:    &sizeID,
		Quantity:  quantity,
		UnitPrice: product.SellingPrice,
	}))
	return cart, sizeID
}

func TestCheckoutService_Checkout(t *testing.T) {
	svc, orderRepo, cartRepo, productRepo, _ := newTestCheckoutService()
	userID := uuid.New()
	cart, sizeID := fillCart(t, cartRepo, productRepo, userID, "40.00", 5, 2)

	order, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
	assert.Equal(t, userID, order.CustomerID)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentStatusCompleted, order.PaymentStatus)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("80.00")))
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	require.NotNil(t, orderRepo.lastTx)
	assert.True(t, orderRepo.lastTx.committed)

	// Stock decremented and cart emptied.
	size, err := productRepo.GetSize(context.Background(), sizeID)
	require.NoError(t, err)
	assert.Equal(t, 3, size.Stock)

	stored, err := cartRepo.GetWithItems(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)

	// First status-history row written inside the transaction.
	placed := orderRepo.orders[order.ID]
	require.Len(t, placed.StatusHistory, 1)
	assert.Equal(t, model.OrderStatusPending, placed.StatusHistory[0].Status)
	assert.Equal(t, "Order placed", placed.StatusHistory[0].Notes)
}

func TestCheckoutService_Checkout_EmptyCart(t *testing.T) {
	svc, _, _, _, _ := newTestCheckoutService()

	_, err := svc.Checkout(context.Background(), uuid.New(), checkoutRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutService_Checkout_InsufficientStockRollsBack(t *testing.T) {
	svc, orderRepo, cartRepo, productRepo, _ := newTestCheckoutService()
	userID := uuid.New()

	// Carted 3 but only 2 remain; a concurrent buyer got there first.
	cart, sizeID := fillCart(t, cartRepo, productRepo, userID, "40.00", 3, 3)
	size, err := productRepo.GetSize(context.Background(), sizeID)
	require.NoError(t, err)
	size.Stock = 2

	_, err = svc.Checkout(context.Background(), userID, checkoutRequest())
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Oversized Hoodie", stockErr.ProductName)
	assert.Equal(t, "M", stockErr.Size)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	require.NotNil(t, orderRepo.lastTx)
	assert.True(t, orderRepo.lastTx.rolledBack)
	assert.Empty(t, orderRepo.orders)

	// Cart untouched.
	stored, err := cartRepo.GetWithItems(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)
}

func TestCheckoutService_Checkout_AppliesCoupon(t *testing.T) {
	svc, _, cartRepo, productRepo, couponRepo := newTestCheckoutService()
	userID := uuid.New()
	cart, _ := fillCart(t, cartRepo, productRepo, userID, "50.00", 5, 2)

	coupon := seedCoupon(t, couponRepo, func(c *model.Coupon) {
		c.DiscountType = model.DiscountFixed
		c.DiscountValue = decimal.RequireFromString("25.00")
	})
	require.NoError(t, cartRepo.SetCoupon(context.Background(), cart.ID, &coupon.ID, decimal.RequireFromString("25.00")))

	order, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("75.00")))
	assert.Equal(t, 1, coupon.TimesUsed)
	require.Len(t, couponRepo.usage, 1)
	assert.Equal(t, userID, couponRepo.usage[0].UsedBy)
	assert.Equal(t, order.ID, couponRepo.usage[0].OrderID)
	assert.True(t, couponRepo.usage[0].DiscountAmount.Equal(decimal.RequireFromString("25.00")))
}

func TestCheckoutService_Checkout_StaleCouponRejected(t *testing.T) {
	svc, _, cartRepo, productRepo, couponRepo := newTestCheckoutService()
	userID := uuid.New()
	cart, _ := fillCart(t, cartRepo, productRepo, userID, "50.00", 5, 1)

	coupon := seedCoupon(t, couponRepo, func(c *model.Coupon) {
		c.ValidTo = time.Now().Add(-time.Minute)
	})
	require.NoError(t, cartRepo.SetCoupon(context.Background(), cart.ID, &coupon.ID, decimal.RequireFromString("10.00")))

	_, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	var couponErr *CouponInvalidError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, "coupon is no longer valid", couponErr.Reason)
}

func TestCheckoutService_Checkout_CouponRaceLoser(t *testing.T) {
	svc, orderRepo, cartRepo, productRepo, couponRepo := newTestCheckoutService()
	userID := uuid.New()
	cart, _ := fillCart(t, cartRepo, productRepo, userID, "50.00", 5, 2)

	// The coupon still looks valid at read time; a concurrent checkout
	// takes the last redemption before the atomic increment runs.
	coupon := seedCoupon(t, couponRepo, func(c *model.Coupon) {
		c.DiscountType = model.DiscountFixed
		c.DiscountValue = decimal.RequireFromString("10.00")
	})
	require.NoError(t, cartRepo.SetCoupon(context.Background(), cart.ID, &coupon.ID, decimal.RequireFromString("10.00")))
	couponRepo.forceRedeemExhausted = true

	_, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	var couponErr *CouponInvalidError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, "coupon usage limit reached", couponErr.Reason)
	assert.True(t, orderRepo.lastTx.rolledBack)
}

func TestCheckoutService_Checkout_PerCustomerLimitRaceLoser(t *testing.T) {
	svc, orderRepo, cartRepo, productRepo, couponRepo := newTestCheckoutService()
	userID := uuid.New()
	cart, _ := fillCart(t, cartRepo, productRepo, userID, "50.00", 5, 2)

	coupon := seedCoupon(t, couponRepo, func(c *model.Coupon) {
		c.DiscountType = model.DiscountFixed
		c.DiscountValue = decimal.RequireFromString("10.00")
	})
	require.NoError(t, cartRepo.SetCoupon(context.Background(), cart.ID, &coupon.ID, decimal.RequireFromString("10.00")))

	// A concurrent checkout by the same customer committed its usage row
	// after the coupon was applied to this cart.
	couponRepo.usage = append(couponRepo.usage, model.CouponUsageHistory{
		ID:             uuid.New(),
		CouponID:       coupon.ID,
		UsedBy:         userID,
		OrderID:        uuid.New(),
		DiscountAmount: decimal.RequireFromString("10.00"),
	})

	_, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	var couponErr *CouponInvalidError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, "you have already used this coupon", couponErr.Reason)
	assert.True(t, orderRepo.lastTx.rolledBack)
	assert.Len(t, couponRepo.usage, 1)
	assert.Empty(t, orderRepo.orders)
}

func TestCheckoutService_Checkout_SeparateBillingAddress(t *testing.T) {
	svc, orderRepo, cartRepo, productRepo, _ := newTestCheckoutService()
	userID := uuid.New()
	fillCart(t, cartRepo, productRepo, userID, "10.00", 5, 1)

	req := checkoutRequest()
	req.BillingAddress = &dto.AddressRequest{
		AddressLine1: "99 Invoice Ave",
		City:         "Austin",
		State:        "TX",
		PostalCode:   "73301",
	}

	order, err := svc.Checkout(context.Background(), userID, req)
	require.NoError(t, err)
	require.NotNil(t, order.ShippingAddressID)
	require.NotNil(t, order.BillingAddressID)
	assert.NotEqual(t, *order.ShippingAddressID, *order.BillingAddressID)
	assert.Len(t, orderRepo.addresses, 2)

	billing := orderRepo.addresses[*order.BillingAddressID]
	require.NotNil(t, billing)
	assert.Equal(t, "99 Invoice Ave", billing.AddressLine1)
	assert.Equal(t, "US", billing.Country)
}

func TestCheckoutService_Checkout_SharedAddressWhenNoBilling(t *testing.T) {
	svc, _, cartRepo, productRepo, _ := newTestCheckoutService()
	userID := uuid.New()
	fillCart(t, cartRepo, productRepo, userID, "10.00", 5, 1)

	order, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	require.NoError(t, err)
	require.NotNil(t, order.ShippingAddressID)
	require.NotNil(t, order.BillingAddressID)
	assert.Equal(t, *order.ShippingAddressID, *order.BillingAddressID)
}
