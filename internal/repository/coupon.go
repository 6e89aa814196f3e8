package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/holister/holister-api/internal/model"
)

// ErrCouponExhausted reports that a coupon's total usage limit was
// already reached when redemption was attempted.
var ErrCouponExhausted = errors.New("coupon usage limit reached")

type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	Update(ctx context.Context, coupon *model.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f CouponFilter) ([]model.Coupon, int, error)

	CountUsageByUser(ctx context.Context, couponID, userID uuid.UUID) (int, error)
	CountUsageByUserTx(ctx context.Context, tx pgx.Tx, couponID, userID uuid.UUID) (int, error)
	RedeemTx(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) error
	AddUsageTx(ctx context.Context, tx pgx.Tx, usage *model.CouponUsageHistory) error
	UsageStats(ctx context.Context, couponID uuid.UUID) (*model.CouponUsageStats, error)
}

// CouponFilter narrows List results. Status is one of
// "active", "inactive", "valid", "expired" or empty for all.
type CouponFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

type pgCouponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepository(pool *pgxpool.Pool) CouponRepository {
	return &pgCouponRepo{pool: pool}
}

const couponColumns = `id, code, description, discount_type, discount_value, max_discount_amount, minimum_order_amount, valid_from, valid_to, total_usage_limit, usage_limit_per_customer, times_used, is_active, created_by, created_at, updated_at`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	c := &model.Coupon{}
	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue,
		&c.MaxDiscountAmount, &c.MinimumOrderAmount, &c.ValidFrom, &c.ValidTo,
		&c.TotalUsageLimit, &c.UsageLimitPerCustomer, &c.TimesUsed, &c.IsActive, &c.CreatedBy,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan coupon: %w", err)
	}
	return c, nil
}

func (r *pgCouponRepo) Create(ctx context.Context, coupon *model.Coupon) error {
	coupon.ID = uuid.New()
	coupon.Code = strings.ToUpper(coupon.Code)
	err := r.pool.QueryRow(ctx,
		`INSERT INTO coupons (id, code, description, discount_type, discount_value, max_discount_amount,
		                      minimum_order_amount, valid_from, valid_to, total_usage_limit,
		                      usage_limit_per_customer, times_used, is_active, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $13, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		coupon.ID, coupon.Code, coupon.Description, coupon.DiscountType, coupon.DiscountValue,
		coupon.MaxDiscountAmount, coupon.MinimumOrderAmount, coupon.ValidFrom, coupon.ValidTo,
		coupon.TotalUsageLimit, coupon.UsageLimitPerCustomer, coupon.IsActive, coupon.CreatedBy,
	).Scan(&coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (r *pgCouponRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	return scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
}

func (r *pgCouponRepo) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`, strings.ToUpper(code)))
}

func (r *pgCouponRepo) Update(ctx context.Context, coupon *model.Coupon) error {
	coupon.Code = strings.ToUpper(coupon.Code)
	ct, err := r.pool.Exec(ctx,
		`UPDATE coupons SET code=$2, description=$3, discount_type=$4, discount_value=$5,
		 max_discount_amount=$6, minimum_order_amount=$7, valid_from=$8, valid_to=$9,
		 total_usage_limit=$10, usage_limit_per_customer=$11, is_active=$12, updated_at=NOW()
		 WHERE id=$1`,
		coupon.ID, coupon.Code, coupon.Description, coupon.DiscountType, coupon.DiscountValue,
		coupon.MaxDiscountAmount, coupon.MinimumOrderAmount, coupon.ValidFrom, coupon.ValidTo,
		coupon.TotalUsageLimit, coupon.UsageLimitPerCustomer, coupon.IsActive)
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCouponRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCouponRepo) List(ctx context.Context, f CouponFilter) ([]model.Coupon, int, error) {
	var cond string
	switch f.Status {
	case "active":
		cond = `is_active = TRUE`
	case "inactive":
		cond = `is_active = FALSE`
	case "valid":
		cond = `is_active = TRUE AND valid_from <= NOW() AND valid_to >= NOW()
			AND (total_usage_limit IS NULL OR times_used < total_usage_limit)`
	case "expired":
		cond = `valid_to < NOW()`
	default:
		cond = `TRUE`
	}

	where := cond + ` AND ($1 = '' OR code ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupons WHERE `+where, f.Search,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE `+where+
			` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		f.Search, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.Coupon
	for rows.Next() {
		var c model.Coupon
		if err := rows.Scan(&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue,
			&c.MaxDiscountAmount, &c.MinimumOrderAmount, &c.ValidFrom, &c.ValidTo,
			&c.TotalUsageLimit, &c.UsageLimitPerCustomer, &c.TimesUsed, &c.IsActive, &c.CreatedBy,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate coupons: %w", err)
	}
	return coupons, total, nil
}

func (r *pgCouponRepo) CountUsageByUser(ctx context.Context, couponID, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon_usage_history WHERE coupon_id = $1 AND used_by = $2`,
		couponID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count coupon usage: %w", err)
	}
	return count, nil
}

// CountUsageByUserTx reads the per-customer usage count inside the
// checkout transaction, where RedeemTx's row lock serializes racing
// redemptions of the same coupon.
func (r *pgCouponRepo) CountUsageByUserTx(ctx context.Context, tx pgx.Tx, couponID, userID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon_usage_history WHERE coupon_id = $1 AND used_by = $2`,
		couponID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count coupon usage: %w", err)
	}
	return count, nil
}

// RedeemTx increments the coupon's usage counter, but only while the
// total usage limit (if any) has headroom. A zero row count means a
// concurrent checkout took the last slot.
func (r *pgCouponRepo) RedeemTx(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) error {
	ct, err := tx.Exec(ctx,
		`UPDATE coupons SET times_used = times_used + 1, updated_at = NOW()
		 WHERE id = $1 AND (total_usage_limit IS NULL OR times_used < total_usage_limit)`,
		couponID)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrCouponExhausted
	}
	return nil
}

func (r *pgCouponRepo) AddUsageTx(ctx context.Context, tx pgx.Tx, usage *model.CouponUsageHistory) error {
	usage.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO coupon_usage_history (id, coupon_id, used_by, order_id, discount_amount, used_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING used_at`,
		usage.ID, usage.CouponID, usage.UsedBy, usage.OrderID, usage.DiscountAmount,
	).Scan(&usage.UsedAt)
	if err != nil {
		return fmt.Errorf("insert coupon usage: %w", err)
	}
	return nil
}

func (r *pgCouponRepo) UsageStats(ctx context.Context, couponID uuid.UUID) (*model.CouponUsageStats, error) {
	s := &model.CouponUsageStats{TotalDiscount: decimal.Zero}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT used_by), COALESCE(SUM(discount_amount), 0)
		FROM coupon_usage_history WHERE coupon_id = $1`, couponID).Scan(
		&s.TotalUses, &s.UniqueUsers, &s.TotalDiscount,
	)
	if err != nil {
		return nil, fmt.Errorf("coupon usage stats: %w", err)
	}
	return s, nil
}
