package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/model"
	"github.com/holister/holister-api/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrSizeNotFound    = errors.New("size not found")
	ErrDuplicateSKU    = errors.New("sku already in use")
)

const defaultCacheTTL = 60 * time.Second

type ProductService struct {
	productRepo repository.ProductRepository
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewProductService(productRepo repository.ProductRepository, redisClient *redis.Client, cacheTTL time.Duration) *ProductService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &ProductService{productRepo: productRepo, redisClient: redisClient, cacheTTL: cacheTTL}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	existing, err := s.productRepo.GetBySKU(ctx, req.SKU)
	if err != nil {
		return nil, fmt.Errorf("check sku: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateSKU
	}

	gender := model.Gender(req.Gender)
	if gender == "" {
		gender = model.GenderUnisex
	}
	product := &model.Product{
		SKU:             req.SKU,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Gender:          gender,
		SellingPrice:    req.SellingPrice,
		PurchasingPrice: req.PurchasingPrice,
		MaterialAndCare: req.MaterialAndCare,
		Active:          true,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	cacheKey := "product:" + id.String()

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := toProductResponse(product)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}
	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	f := repository.ProductFilter{
		Limit:    req.Limit,
		Offset:   (req.Page - 1) * req.Limit,
		Search:   req.Search,
		Category: req.Category,
		Gender:   req.Gender,
		Sort:     req.Sort,
		Order:    req.Order,
	}
	products, total, err := s.productRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}
	return &dto.ProductListResponse{Products: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Gender != nil {
		product.Gender = model.Gender(*req.Gender)
	}
	if req.SellingPrice != nil {
		product.SellingPrice = *req.SellingPrice
	}
	if req.PurchasingPrice != nil {
		product.PurchasingPrice = *req.PurchasingPrice
	}
	if req.MaterialAndCare != nil {
		product.MaterialAndCare = *req.MaterialAndCare
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

func (s *ProductService) AddVariant(ctx context.Context, productID uuid.UUID, req dto.CreateVariantRequest) (*dto.VariantResponse, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	variant := &model.ProductVariant{
		ProductID: productID,
		Name:      req.Name,
		Color:     req.Color,
	}
	if err := s.productRepo.CreateVariant(ctx, variant); err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}

	s.invalidateCache(ctx, productID)
	resp := toVariantResponse(variant)
	return &resp, nil
}

func (s *ProductService) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	if _, err := s.ownedVariant(ctx, productID, variantID); err != nil {
		return err
	}
	if err := s.productRepo.DeleteVariant(ctx, variantID); err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}
	s.invalidateCache(ctx, productID)
	return nil
}

func (s *ProductService) AddSize(ctx context.Context, productID, variantID uuid.UUID, req dto.CreateSizeRequest) (*dto.SizeResponse, error) {
	if _, err := s.ownedVariant(ctx, productID, variantID); err != nil {
		return nil, err
	}

	size := &model.ProductSize{
		VariantID: variantID,
		Size:      req.Size,
		Stock:     req.Stock,
	}
	if err := s.productRepo.CreateSize(ctx, size); err != nil {
		return nil, fmt.Errorf("create size: %w", err)
	}
	s.invalidateCache(ctx, productID)
	return &dto.SizeResponse{ID: size.ID, Size: size.Size, Stock: size.Stock}, nil
}

func (s *ProductService) UpdateSize(ctx context.Context, productID, sizeID uuid.UUID, req dto.UpdateSizeRequest) error {
	if err := s.ownedSize(ctx, productID, sizeID); err != nil {
		return err
	}
	if err := s.productRepo.UpdateSizeStock(ctx, sizeID, req.Stock); err != nil {
		return fmt.Errorf("update size stock: %w", err)
	}
	s.invalidateCache(ctx, productID)
	return nil
}

func (s *ProductService) DeleteSize(ctx context.Context, productID, sizeID uuid.UUID) error {
	if err := s.ownedSize(ctx, productID, sizeID); err != nil {
		return err
	}
	if err := s.productRepo.DeleteSize(ctx, sizeID); err != nil {
		return fmt.Errorf("delete size: %w", err)
	}
	s.invalidateCache(ctx, productID)
	return nil
}

// ownedVariant resolves a variant under the product named in the path,
// so a variant id belonging to a different product reads as not found.
func (s *ProductService) ownedVariant(ctx context.Context, productID, variantID uuid.UUID) (*model.ProductVariant, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			return &product.Variants[i], nil
		}
	}
	return nil, ErrVariantNotFound
}

func (s *ProductService) ownedSize(ctx context.Context, productID, sizeID uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	for _, v := range product.Variants {
		for _, sz := range v.Sizes {
			if sz.ID == sizeID {
				return nil
			}
		}
	}
	return ErrSizeNotFound
}

func (s *ProductService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, "product:"+id.String())
	}
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	variants := make([]dto.VariantResponse, 0, len(p.Variants))
	for i := range p.Variants {
		variants = append(variants, toVariantResponse(&p.Variants[i]))
	}
	return dto.ProductResponse{
		ID:              p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		Gender:          p.Gender,
		SellingPrice:    p.SellingPrice,
		PurchasingPrice: p.PurchasingPrice,
		ProfitMargin:    p.ProfitMargin(),
		MaterialAndCare: p.MaterialAndCare,
		Active:          p.Active,
		Variants:        variants,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toVariantResponse(v *model.ProductVariant) dto.VariantResponse {
	sizes := make([]dto.SizeResponse, 0, len(v.Sizes))
	for _, sz := range v.Sizes {
		sizes = append(sizes, dto.SizeResponse{ID: sz.ID, Size: sz.Size, Stock: sz.Stock})
	}
	return dto.VariantResponse{
		ID:    v.ID,
		Name:  v.Name,
		Color: v.Color,
		Stock: v.Stock,
		Sizes: sizes,
	}
}
