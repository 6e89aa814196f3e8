package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holister/holister-api/internal/model"
)

type BannerRepository interface {
	Create(ctx context.Context, banner *model.Banner) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Banner, error)
	List(ctx context.Context, activeOnly bool) ([]model.Banner, error)
	Update(ctx context.Context, banner *model.Banner) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgBannerRepo struct{ pool *pgxpool.Pool }

func NewBannerRepository(pool *pgxpool.Pool) BannerRepository {
	return &pgBannerRepo{pool: pool}
}

func (r *pgBannerRepo) Create(ctx context.Context, banner *model.Banner) error {
	banner.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO banners (id, title, image_url, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING created_at, updated_at`,
		banner.ID, banner.Title, banner.ImageURL, banner.IsActive,
	).Scan(&banner.CreatedAt, &banner.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert banner: %w", err)
	}
	return nil
}

func (r *pgBannerRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Banner, error) {
	b := &model.Banner{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, image_url, is_active, created_at, updated_at FROM banners WHERE id = $1`, id,
	).Scan(&b.ID, &b.Title, &b.ImageURL, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get banner: %w", err)
	}
	return b, nil
}

func (r *pgBannerRepo) List(ctx context.Context, activeOnly bool) ([]model.Banner, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, image_url, is_active, created_at, updated_at FROM banners
		 WHERE ($1 = FALSE OR is_active = TRUE) ORDER BY created_at DESC`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	defer rows.Close()

	var banners []model.Banner
	for rows.Next() {
		var b model.Banner
		if err := rows.Scan(&b.ID, &b.Title, &b.ImageURL, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan banner: %w", err)
		}
		banners = append(banners, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read banners: %w", err)
	}
	return banners, nil
}

func (r *pgBannerRepo) Update(ctx context.Context, banner *model.Banner) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE banners SET title=$2, image_url=$3, is_active=$4, updated_at=NOW() WHERE id=$1`,
		banner.ID, banner.Title, banner.ImageURL, banner.IsActive)
	if err != nil {
		return fmt.Errorf("update banner: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgBannerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
