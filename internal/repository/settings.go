package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holister/holister-api/internal/model"
)

type SettingsRepository interface {
	Get(ctx context.Context) (*model.StoreSettings, error)
	Update(ctx context.Context, settings *model.StoreSettings) error
}

type pgSettingsRepo struct{ pool *pgxpool.Pool }

func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &pgSettingsRepo{pool: pool}
}

// Get returns the single settings row, creating it with defaults on
// first access.
func (r *pgSettingsRepo) Get(ctx context.Context) (*model.StoreSettings, error) {
	s := &model.StoreSettings{}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO store_settings (id, currency, timezone, updated_at)
		VALUES (1, 'USD', 'UTC', NOW())
		ON CONFLICT (id) DO UPDATE SET id = store_settings.id
		RETURNING currency, timezone, updated_at`,
	).Scan(&s.Currency, &s.Timezone, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get store settings: %w", err)
	}
	return s, nil
}

func (r *pgSettingsRepo) Update(ctx context.Context, settings *model.StoreSettings) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO store_settings (id, currency, timezone, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET currency = $1, timezone = $2, updated_at = NOW()
		RETURNING updated_at`,
		settings.Currency, settings.Timezone,
	).Scan(&settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update store settings: %w", err)
	}
	return nil
}
