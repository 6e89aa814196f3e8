package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/model"
	"github.com/holister/holister-api/internal/repository"
)

var (
	ErrCartItemNotFound    = errors.New("cart item not found")
	ErrProductInactive     = errors.New("product is not available")
	ErrSizeRequired        = errors.New("size is required for this product")
	ErrSizeNotOfProduct    = errors.New("size does not belong to this product")
	ErrVariantNotOfProduct = errors.New("variant does not belong to this product")
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	now         func() time.Time
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, couponRepo repository.CouponRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, couponRepo: couponRepo, now: time.Now}
}

// Get returns the user's cart with its coupon re-evaluated, so a coupon
// that expired since the last mutation is dropped rather than shown with
// a stale discount.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return s.refresh(ctx, cart.ID)
}

// AddItem puts quantity units of a product (optionally a specific variant
// size) into the user's cart. Adding an item already in the cart merges
// quantities; the stock check covers the merged total, not just the delta.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req dto.AddCartItemRequest) (*dto.CartResponse, error) {
	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.Active {
		return nil, ErrProductInactive
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	inCart := 0
	for _, item := range cart.Items {
		if item.ProductID == req.ProductID && uuidPtrEqual(item.VariantID, req.VariantID) && uuidPtrEqual(item.SizeID, req.SizeID) {
			inCart = item.Quantity
			break
		}
	}
	if err := s.checkStock(product, req.VariantID, req.SizeID, inCart+req.Quantity); err != nil {
		return nil, err
	}

	item := &model.CartItem{
		CartID:    cart.ID,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		SizeID:    req.SizeID,
		Quantity:  req.Quantity,
		UnitPrice: product.SellingPrice,
	}
	if err := s.cartRepo.AddItem(ctx, item); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return s.refresh(ctx, cart.ID)
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req dto.UpdateCartItemRequest) (*dto.CartResponse, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	var target *model.CartItem
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			target = &cart.Items[i]
			break
		}
	}
	if target == nil {
		return nil, ErrCartItemNotFound
	}

	product, err := s.productRepo.GetByID(ctx, target.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := s.checkStock(product, target.VariantID, target.SizeID, req.Quantity); err != nil {
		return nil, err
	}

	if err := s.cartRepo.UpdateItemQuantity(ctx, itemID, req.Quantity); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return s.refresh(ctx, cart.ID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, item := range cart.Items {
		if item.ID == itemID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrCartItemNotFound
	}

	if err := s.cartRepo.DeleteItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}
	return s.refresh(ctx, cart.ID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if err := s.cartRepo.Clear(ctx, cart.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) loadCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	full, err := s.cartRepo.GetWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	if full == nil {
		return cart, nil
	}
	return full, nil
}

// refresh reloads the cart and re-evaluates any applied coupon against the
// new subtotal. A coupon whose conditions no longer hold is dropped rather
// than left with a stale discount.
func (s *CartService) refresh(ctx context.Context, cartID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.cartRepo.GetWithItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}

	if cart.CouponID != nil {
		coupon, err := s.couponRepo.GetByID(ctx, *cart.CouponID)
		if err != nil {
			return nil, fmt.Errorf("get coupon: %w", err)
		}
		discount := decimal.Zero
		if coupon != nil {
			discount = coupon.CalculateDiscount(cart.Subtotal(), s.now())
		}
		if discount.IsZero() {
			if err := s.cartRepo.SetCoupon(ctx, cartID, nil, decimal.Zero); err != nil {
				return nil, fmt.Errorf("drop coupon: %w", err)
			}
			cart.CouponID = nil
			cart.DiscountAmount = decimal.Zero
		} else if !discount.Equal(cart.DiscountAmount) {
			if err := s.cartRepo.SetCoupon(ctx, cartID, cart.CouponID, discount); err != nil {
				return nil, fmt.Errorf("update coupon discount: %w", err)
			}
			cart.DiscountAmount = discount
		}
	}
	return s.toCartResponse(ctx, cart)
}

// checkStock validates the requested quantity against the right stock
// counter: the size when one is named, the variant aggregate otherwise.
func (s *CartService) checkStock(product *model.Product, variantID, sizeID *uuid.UUID, quantity int) error {
	if sizeID != nil {
		if variantID == nil {
			return ErrSizeRequired
		}
		for _, v := range product.Variants {
			if v.ID != *variantID {
				continue
			}
			for _, sz := range v.Sizes {
				if sz.ID == *sizeID {
					if sz.Stock < quantity {
						return &InsufficientStockError{
							ProductName: product.Name,
							Size:        sz.Size,
							Requested:   quantity,
							Available:   sz.Stock,
						}
					}
					return nil
				}
			}
			return ErrSizeNotOfProduct
		}
		return ErrVariantNotOfProduct
	}

	if variantID != nil {
		for _, v := range product.Variants {
			if v.ID == *variantID {
				if v.Stock < quantity {
					return &InsufficientStockError{
						ProductName: product.Name,
						Requested:   quantity,
						Available:   v.Stock,
					}
				}
				return nil
			}
		}
		return ErrVariantNotOfProduct
	}

	// No variants tracked for this product; nothing to check.
	return nil
}

func (s *CartService) toCartResponse(ctx context.Context, cart *model.Cart) (*dto.CartResponse, error) {
	items := make([]dto.CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, dto.CartItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			SizeID:     item.SizeID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice(),
		})
	}

	resp := &dto.CartResponse{
		ID:             cart.ID,
		Items:          items,
		Subtotal:       cart.Subtotal(),
		DiscountAmount: cart.DiscountAmount,
		Total:          cart.Total(),
	}
	if cart.CouponID != nil {
		coupon, err := s.couponRepo.GetByID(ctx, *cart.CouponID)
		if err != nil {
			return nil, fmt.Errorf("get coupon: %w", err)
		}
		if coupon != nil {
			resp.CouponCode = coupon.Code
		}
	}
	return resp, nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
