package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/model"
	"github.com/holister/holister-api/internal/repository"
)

var ErrEmptyCart = errors.New("cart is empty")

// CheckoutService turns a cart into an order inside a single database
// transaction: stock is decremented, the coupon (if any) is redeemed,
// the order with its items and first status-history row is written and
// the cart is cleared. Any failure rolls the whole thing back.
type CheckoutService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	amqpCh      *amqp.Channel
	now         func() time.Time
}

func NewCheckoutService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	amqpCh *amqp.Channel,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		amqpCh:      amqpCh,
		now:         time.Now,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, req dto.CheckoutRequest) (*model.Order, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	full, err := s.cartRepo.GetWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	if full == nil || len(full.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Resolve the coupon before opening the transaction; the atomic
	// redemption inside the transaction is the authoritative gate.
	var coupon *model.Coupon
	discount := decimal.Zero
	if full.CouponID != nil {
		coupon, err = s.couponRepo.GetByID(ctx, *full.CouponID)
		if err != nil {
			return nil, fmt.Errorf("get coupon: %w", err)
		}
		if coupon != nil {
			discount = coupon.CalculateDiscount(full.Subtotal(), s.now())
			if discount.IsZero() {
				return nil, &CouponInvalidError{Code: coupon.Code, Reason: "coupon is no longer valid"}
			}
		}
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Stock first: the conditional decrements fail fast when a size has
	// been bought out since the items were carted.
	for _, item := range full.Items {
		if item.SizeID == nil {
			continue
		}
		if err := s.productRepo.DecrementSizeStock(ctx, tx, *item.SizeID, item.Quantity); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, s.stockError(ctx, item)
			}
			return nil, err
		}
	}

	shippingAddr := addressFromRequest(userID, req.ShippingAddress)
	if err := s.orderRepo.CreateAddressTx(ctx, tx, shippingAddr); err != nil {
		return nil, err
	}
	billingAddrID := &shippingAddr.ID
	if req.BillingAddress != nil {
		billingAddr := addressFromRequest(userID, *req.BillingAddress)
		if err := s.orderRepo.CreateAddressTx(ctx, tx, billingAddr); err != nil {
			return nil, err
		}
		billingAddrID = &billingAddr.ID
	}

	total := full.Subtotal().Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	order := &model.Order{
		OrderNumber:       model.NewOrderNumber(),
		CustomerID:        userID,
		Status:            model.OrderStatusPending,
		PaymentStatus:     model.PaymentStatusCompleted,
		TotalAmount:       total,
		Email:             req.Email,
		PhoneNumber:       req.PhoneNumber,
		ShippingAddressID: &shippingAddr.ID,
		BillingAddressID:  billingAddrID,
		Notes:             req.Notes,
	}
	if err := s.orderRepo.CreateTx(ctx, tx, order); err != nil {
		return nil, err
	}

	items := make([]model.OrderItem, 0, len(full.Items))
	for _, ci := range full.Items {
		items = append(items, model.OrderItem{
			OrderID:    order.ID,
			ProductID:  ci.ProductID,
			VariantID:  ci.VariantID,
			SizeID:     ci.SizeID,
			Quantity:   ci.Quantity,
			UnitPrice:  ci.UnitPrice,
			TotalPrice: ci.TotalPrice(),
		})
	}
	if err := s.orderRepo.CreateItemsTx(ctx, tx, items); err != nil {
		return nil, err
	}
	order.Items = items

	if coupon != nil {
		if err := s.couponRepo.RedeemTx(ctx, tx, coupon.ID); err != nil {
			if errors.Is(err, repository.ErrCouponExhausted) {
				return nil, &CouponInvalidError{Code: coupon.Code, Reason: "coupon usage limit reached"}
			}
			return nil, err
		}
		// The per-customer limit was checked at apply time; re-check it
		// under RedeemTx's row lock so two concurrent checkouts by the
		// same user cannot both slip under it.
		used, err := s.couponRepo.CountUsageByUserTx(ctx, tx, coupon.ID, userID)
		if err != nil {
			return nil, err
		}
		if used >= coupon.UsageLimitPerCustomer {
			return nil, &CouponInvalidError{Code: coupon.Code, Reason: "you have already used this coupon"}
		}
		usage := &model.CouponUsageHistory{
			CouponID:       coupon.ID,
			UsedBy:         userID,
			OrderID:        order.ID,
			DiscountAmount: discount,
		}
		if err := s.couponRepo.AddUsageTx(ctx, tx, usage); err != nil {
			return nil, err
		}
	}

	history := &model.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    model.OrderStatusPending,
		Notes:     "Order placed",
		CreatedBy: &userID,
	}
	if err := s.orderRepo.AddStatusHistoryTx(ctx, tx, history); err != nil {
		return nil, err
	}

	if err := s.cartRepo.ClearTx(ctx, tx, full.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	s.publishOrderPlaced(ctx, order)
	return order, nil
}

// stockError enriches the bare repository sentinel with the product and
// size names for the client. Lookups happen outside the failed path's
// transaction; best effort only.
func (s *CheckoutService) stockError(ctx context.Context, item model.CartItem) error {
	stockErr := &InsufficientStockError{Requested: item.Quantity}
	if product, err := s.productRepo.GetByID(ctx, item.ProductID); err == nil && product != nil {
		stockErr.ProductName = product.Name
	}
	if size, err := s.productRepo.GetSize(ctx, *item.SizeID); err == nil && size != nil {
		stockErr.Size = size.Size
		stockErr.Available = size.Stock
	}
	return stockErr
}

func (s *CheckoutService) publishOrderPlaced(ctx context.Context, order *model.Order) {
	if s.amqpCh == nil {
		return
	}
	body, _ := json.Marshal(model.NotificationMessage{
		Type:    model.NotificationOrderPlaced,
		UserID:  order.CustomerID,
		Email:   order.Email,
		OrderID: order.ID,
	})
	err := s.amqpCh.PublishWithContext(ctx, "", "notifications", false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		slog.Error("publish order notification", "order", order.OrderNumber, "error", err)
	}
}

func addressFromRequest(userID uuid.UUID, req dto.AddressRequest) *model.ShippingAddress {
	country := req.Country
	if country == "" {
		country = "US"
	}
	return &model.ShippingAddress{
		UserID:       userID,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      country,
		IsDefault:    req.IsDefault,
	}
}
