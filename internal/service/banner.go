package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/model"
	"github.com/holister/holister-api/internal/repository"
)

var ErrBannerNotFound = errors.New("banner not found")

type BannerService struct {
	bannerRepo repository.BannerRepository
}

func NewBannerService(bannerRepo repository.BannerRepository) *BannerService {
	return &BannerService{bannerRepo: bannerRepo}
}

func (s *BannerService) Create(ctx context.Context, req dto.CreateBannerRequest) (*dto.BannerResponse, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	banner := &model.Banner{Title: req.Title, ImageURL: req.ImageURL, IsActive: active}
	if err := s.bannerRepo.Create(ctx, banner); err != nil {
		return nil, fmt.Errorf("create banner: %w", err)
	}
	resp := toBannerResponse(banner)
	return &resp, nil
}

// List returns active banners only unless the caller is an admin.
func (s *BannerService) List(ctx context.Context, isAdmin bool) ([]dto.BannerResponse, error) {
	banners, err := s.bannerRepo.List(ctx, !isAdmin)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	items := make([]dto.BannerResponse, 0, len(banners))
	for i := range banners {
		items = append(items, toBannerResponse(&banners[i]))
	}
	return items, nil
}

func (s *BannerService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateBannerRequest) (*dto.BannerResponse, error) {
	banner, err := s.bannerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get banner: %w", err)
	}
	if banner == nil {
		return nil, ErrBannerNotFound
	}

	if req.Title != nil {
		banner.Title = *req.Title
	}
	if req.ImageURL != nil {
		banner.ImageURL = *req.ImageURL
	}
	if req.IsActive != nil {
		banner.IsActive = *req.IsActive
	}

	if err := s.bannerRepo.Update(ctx, banner); err != nil {
		return nil, fmt.Errorf("update banner: %w", err)
	}
	resp := toBannerResponse(banner)
	return &resp, nil
}

func (s *BannerService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.bannerRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBannerNotFound
		}
		return fmt.Errorf("delete banner: %w", err)
	}
	return nil
}

func toBannerResponse(b *model.Banner) dto.BannerResponse {
	return dto.BannerResponse{
		ID:        b.ID,
		Title:     b.Title,
		ImageURL:  b.ImageURL,
		IsActive:  b.IsActive,
		CreatedAt: b.CreatedAt,
	}
}
