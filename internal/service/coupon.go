package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/model"
	"github.com/holister/holister-api/internal/repository"
)

var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponCodeExists = errors.New("coupon code already exists")
	ErrNoCouponApplied  = errors.New("no coupon applied to cart")
)

type CouponService struct {
	couponRepo repository.CouponRepository
	cartRepo   repository.CartRepository
	now        func() time.Time
}

func NewCouponService(couponRepo repository.CouponRepository, cartRepo repository.CartRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo, cartRepo: cartRepo, now: time.Now}
}

func (s *CouponService) Create(ctx context.Context, createdBy uuid.UUID, req dto.CreateCouponRequest) (*dto.CouponResponse, error) {
	existing, err := s.couponRepo.GetByCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("check code: %w", err)
	}
	if existing != nil {
		return nil, ErrCouponCodeExists
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	coupon := &model.Coupon{
		Code:                  strings.ToUpper(req.Code),
		Description:           req.Description,
		DiscountType:          model.DiscountType(req.DiscountType),
		DiscountValue:         req.DiscountValue,
		MaxDiscountAmount:     req.MaxDiscountAmount,
		MinimumOrderAmount:    req.MinimumOrderAmount,
		ValidFrom:             req.ValidFrom,
		ValidTo:               req.ValidTo,
		TotalUsageLimit:       req.TotalUsageLimit,
		UsageLimitPerCustomer: req.UsageLimitPerCustomer,
		IsActive:              active,
		CreatedBy:             &createdBy,
	}
	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	resp := toCouponResponse(coupon)
	return &resp, nil
}

func (s *CouponService) GetByID(ctx context.Context, id uuid.UUID) (*dto.CouponResponse, error) {
	coupon, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	resp := toCouponResponse(coupon)
	return &resp, nil
}

func (s *CouponService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCouponRequest) (*dto.CouponResponse, error) {
	coupon, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	if req.Description != nil {
		coupon.Description = *req.Description
	}
	if req.DiscountValue != nil {
		coupon.DiscountValue = *req.DiscountValue
	}
	if req.MaxDiscountAmount != nil {
		coupon.MaxDiscountAmount = req.MaxDiscountAmount
	}
	if req.MinimumOrderAmount != nil {
		coupon.MinimumOrderAmount = *req.MinimumOrderAmount
	}
	if req.ValidFrom != nil {
		coupon.ValidFrom = *req.ValidFrom
	}
	if req.ValidTo != nil {
		coupon.ValidTo = *req.ValidTo
	}
	if req.TotalUsageLimit != nil {
		coupon.TotalUsageLimit = req.TotalUsageLimit
	}
	if req.UsageLimitPerCustomer != nil {
		coupon.UsageLimitPerCustomer = *req.UsageLimitPerCustomer
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		return nil, fmt.Errorf("update coupon: %w", err)
	}
	resp := toCouponResponse(coupon)
	return &resp, nil
}

func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.couponRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("delete coupon: %w", err)
	}
	return nil
}

func (s *CouponService) List(ctx context.Context, req dto.ListCouponsRequest) (*dto.CouponListResponse, error) {
	coupons, total, err := s.couponRepo.List(ctx, repository.CouponFilter{
		Status: req.Status,
		Search: req.Search,
		Limit:  req.Limit,
		Offset: (req.Page - 1) * req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}

	items := make([]dto.CouponResponse, 0, len(coupons))
	for i := range coupons {
		items = append(items, toCouponResponse(&coupons[i]))
	}
	return &dto.CouponListResponse{Coupons: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *CouponService) UsageStats(ctx context.Context, id uuid.UUID) (*dto.CouponUsageStatsResponse, error) {
	coupon, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	stats, err := s.couponRepo.UsageStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usage stats: %w", err)
	}
	return &dto.CouponUsageStatsResponse{
		TotalUses:     stats.TotalUses,
		TotalDiscount: stats.TotalDiscount,
		UniqueUsers:   stats.UniqueUsers,
	}, nil
}

// Validate checks a coupon against an order total without touching the
// cart. It is a preview: nothing is reserved or counted.
func (s *CouponService) Validate(ctx context.Context, userID uuid.UUID, req dto.ValidateCouponRequest) (*dto.CouponDiscountResponse, error) {
	coupon, err := s.lookup(ctx, userID, req.Code, req.OrderTotal)
	if err != nil {
		return nil, err
	}
	discount := coupon.CalculateDiscount(req.OrderTotal, s.now())
	return &dto.CouponDiscountResponse{
		Code:           coupon.Code,
		DiscountAmount: discount,
		FinalAmount:    req.OrderTotal.Sub(discount),
	}, nil
}

// ApplyToCart attaches a coupon to the user's cart and stores the
// discount computed against the current subtotal. The usage counter is
// only consumed at checkout.
func (s *CouponService) ApplyToCart(ctx context.Context, userID uuid.UUID, code string) (*model.Cart, *model.Coupon, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("get cart: %w", err)
	}
	full, err := s.cartRepo.GetWithItems(ctx, cart.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("get cart items: %w", err)
	}
	if full == nil || len(full.Items) == 0 {
		return nil, nil, ErrEmptyCart
	}

	subtotal := full.Subtotal()
	coupon, err := s.lookup(ctx, userID, code, subtotal)
	if err != nil {
		return nil, nil, err
	}

	discount := coupon.CalculateDiscount(subtotal, s.now())
	if err := s.cartRepo.SetCoupon(ctx, full.ID, &coupon.ID, discount); err != nil {
		return nil, nil, fmt.Errorf("apply coupon: %w", err)
	}
	full.CouponID = &coupon.ID
	full.DiscountAmount = discount
	return full, coupon, nil
}

func (s *CouponService) RemoveFromCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if cart.CouponID == nil {
		return ErrNoCouponApplied
	}
	if err := s.cartRepo.SetCoupon(ctx, cart.ID, nil, decimal.Zero); err != nil {
		return fmt.Errorf("remove coupon: %w", err)
	}
	return nil
}

// lookup fetches a coupon by code and runs every per-customer check,
// returning a CouponInvalidError with a client-facing reason on failure.
func (s *CouponService) lookup(ctx context.Context, userID uuid.UUID, code string, orderTotal decimal.Decimal) (*model.Coupon, error) {
	normalized := strings.ToUpper(code)
	coupon, err := s.couponRepo.GetByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, &CouponInvalidError{Code: normalized, Reason: "coupon not found"}
	}

	now := s.now()
	switch {
	case !coupon.IsActive:
		return nil, &CouponInvalidError{Code: coupon.Code, Reason: "coupon is not active"}
	case now.Before(coupon.ValidFrom):
		return nil, &CouponInvalidError{Code: coupon.Code, Reason: "coupon is not valid yet"}
	case now.After(coupon.ValidTo):
		return nil, &CouponInvalidError{Code: coupon.Code, Reason: "coupon has expired"}
	case coupon.TotalUsageLimit != nil && coupon.TimesUsed >= *coupon.TotalUsageLimit:
		return nil, &CouponInvalidError{Code: coupon.Code, Reason: "coupon usage limit reached"}
	case orderTotal.LessThan(coupon.MinimumOrderAmount):
		return nil, &CouponInvalidError{
			Code:   coupon.Code,
			Reason: fmt.Sprintf("order total must be at least %s", coupon.MinimumOrderAmount.StringFixed(2)),
		}
	}

	used, err := s.couponRepo.CountUsageByUser(ctx, coupon.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("count usage: %w", err)
	}
	if used >= coupon.UsageLimitPerCustomer {
		return nil, &CouponInvalidError{Code: coupon.Code, Reason: "you have already used this coupon"}
	}
	return coupon, nil
}

func toCouponResponse(c *model.Coupon) dto.CouponResponse {
	return dto.CouponResponse{
		ID:                    c.ID,
		Code:                  c.Code,
		Description:           c.Description,
		DiscountType:          string(c.DiscountType),
		DiscountValue:         c.DiscountValue,
		DiscountDisplay:       c.DiscountDisplay(),
		MaxDiscountAmount:     c.MaxDiscountAmount,
		MinimumOrderAmount:    c.MinimumOrderAmount,
		ValidFrom:             c.ValidFrom,
		ValidTo:               c.ValidTo,
		TotalUsageLimit:       c.TotalUsageLimit,
		UsageLimitPerCustomer: c.UsageLimitPerCustomer,
		IsActive:              c.IsActive,
		TimesUsed:             c.TimesUsed,
		CreatedAt:             c.CreatedAt,
	}
}
