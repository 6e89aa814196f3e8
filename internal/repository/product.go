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

// ErrInsufficientStock is returned by stock decrements whose conditional
// update matched no row, meaning the size no longer holds enough units.
var ErrInsufficientStock = errors.New("insufficient stock")

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, f ProductFilter) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateVariant(ctx context.Context, variant *model.ProductVariant) error
	DeleteVariant(ctx context.Context, id uuid.UUID) error
	CreateSize(ctx context.Context, size *model.ProductSize) error
	UpdateSizeStock(ctx context.Context, id uuid.UUID, stock int) error
	DeleteSize(ctx context.Context, id uuid.UUID) error
	GetSize(ctx context.Context, id uuid.UUID) (*model.ProductSize, error)

	// DecrementSizeStock atomically takes quantity units from a size inside
	// the given transaction. Returns ErrInsufficientStock when the size does
	// not hold enough units; the check and the write are a single statement
	// so concurrent checkouts cannot both pass.
	DecrementSizeStock(ctx context.Context, tx pgx.Tx, sizeID uuid.UUID, quantity int) error
}

type ProductFilter struct {
	Limit    int
	Offset   int
	Search   string
	Category string
	Gender   string
	Sort     string
	Order    string
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `id, sku, name, description, category, gender, selling_price, purchasing_price, material_and_care, active, created_at, updated_at`

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	query := `INSERT INTO products (` + productColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.SKU, product.Name, product.Description, product.Category,
		product.Gender, product.SellingPrice, product.PurchasingPrice,
		product.MaterialAndCare, product.Active,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.Gender,
		&p.SellingPrice, &p.PurchasingPrice, &p.MaterialAndCare, &p.Active,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := r.scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil || p == nil {
		return p, err
	}
	if err := r.loadVariants(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProductRepo) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	return r.scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE sku = $1`, sku))
}

func (r *pgProductRepo) loadVariants(ctx context.Context, p *model.Product) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, name, color, stock, created_at, updated_at
		 FROM product_variants WHERE product_id = $1 ORDER BY created_at`, p.ID)
	if err != nil {
		return fmt.Errorf("get variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v model.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Color, &v.Stock, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return fmt.Errorf("scan variant: %w", err)
		}
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate variants: %w", err)
	}

	for i := range p.Variants {
		sizeRows, err := r.pool.Query(ctx,
			`SELECT id, variant_id, size, stock FROM product_sizes WHERE variant_id = $1 ORDER BY size`,
			p.Variants[i].ID)
		if err != nil {
			return fmt.Errorf("get sizes: %w", err)
		}
		for sizeRows.Next() {
			var s model.ProductSize
			if err := sizeRows.Scan(&s.ID, &s.VariantID, &s.Size, &s.Stock); err != nil {
				sizeRows.Close()
				return fmt.Errorf("scan size: %w", err)
			}
			p.Variants[i].Sizes = append(p.Variants[i].Sizes, s)
		}
		sizeRows.Close()
		if err := sizeRows.Err(); err != nil {
			return fmt.Errorf("iterate sizes: %w", err)
		}
	}
	return nil
}

func (r *pgProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, int, error) {
	allowedSorts := map[string]bool{"name": true, "selling_price": true, "created_at": true}
	if !allowedSorts[f.Sort] {
		f.Sort = "created_at"
	}
	if f.Order != "asc" && f.Order != "desc" {
		f.Order = "desc"
	}

	where := `($1 = '' OR name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
		AND ($2 = '' OR category = $2) AND ($3 = '' OR gender = $3)`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE `+where, f.Search, f.Category, f.Gender,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+productColumns+` FROM products WHERE `+where+
		` ORDER BY %s %s LIMIT $4 OFFSET $5`, f.Sort, f.Order)

	rows, err := r.pool.Query(ctx, query, f.Search, f.Category, f.Gender, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.Gender,
			&p.SellingPrice, &p.PurchasingPrice, &p.MaterialAndCare, &p.Active,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("read products: %w", err)
	}
	return products, total, nil
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name=$2, description=$3, category=$4, gender=$5,
			  selling_price=$6, purchasing_price=$7, material_and_care=$8, active=$9, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Category, product.Gender,
		product.SellingPrice, product.PurchasingPrice, product.MaterialAndCare, product.Active,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgProductRepo) CreateVariant(ctx context.Context, variant *model.ProductVariant) error {
	variant.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO product_variants (id, product_id, name, color, stock, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 0, NOW(), NOW()) RETURNING created_at, updated_at`,
		variant.ID, variant.ProductID, variant.Name, variant.Color,
	).Scan(&variant.CreatedAt, &variant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create variant: %w", err)
	}
	return nil
}

func (r *pgProductRepo) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM product_variants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgProductRepo) CreateSize(ctx context.Context, size *model.ProductSize) error {
	size.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO product_sizes (id, variant_id, size, stock) VALUES ($1, $2, $3, $4)`,
		size.ID, size.VariantID, size.Size, size.Stock,
	)
	if err != nil {
		return fmt.Errorf("create size: %w", err)
	}
	return r.syncVariantStock(ctx, size.VariantID)
}

func (r *pgProductRepo) UpdateSizeStock(ctx context.Context, id uuid.UUID, stock int) error {
	var variantID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`UPDATE product_sizes SET stock = $2 WHERE id = $1 RETURNING variant_id`,
		id, stock,
	).Scan(&variantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update size stock: %w", err)
	}
	return r.syncVariantStock(ctx, variantID)
}

func (r *pgProductRepo) DeleteSize(ctx context.Context, id uuid.UUID) error {
	var variantID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`DELETE FROM product_sizes WHERE id = $1 RETURNING variant_id`, id,
	).Scan(&variantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("delete size: %w", err)
	}
	return r.syncVariantStock(ctx, variantID)
}

func (r *pgProductRepo) GetSize(ctx context.Context, id uuid.UUID) (*model.ProductSize, error) {
	s := &model.ProductSize{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, variant_id, size, stock FROM product_sizes WHERE id = $1`, id,
	).Scan(&s.ID, &s.VariantID, &s.Size, &s.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get size: %w", err)
	}
	return s, nil
}

func (r *pgProductRepo) DecrementSizeStock(ctx context.Context, tx pgx.Tx, sizeID uuid.UUID, quantity int) error {
	ct, err := tx.Exec(ctx,
		`UPDATE product_sizes SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
		sizeID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement size stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInsufficientStock
	}

	// Keep the variant aggregate in step within the same transaction.
	_, err = tx.Exec(ctx,
		`UPDATE product_variants SET stock = GREATEST(stock - $2, 0), updated_at = NOW() WHERE id = (SELECT variant_id FROM product_sizes WHERE id = $1)`,
		sizeID, quantity,
	)
	if err != nil {
		return fmt.Errorf("sync variant stock: %w", err)
	}
	return nil
}

// syncVariantStock recomputes a variant's aggregate counter from its sizes.
func (r *pgProductRepo) syncVariantStock(ctx context.Context, variantID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE product_variants SET stock = COALESCE(
			(SELECT SUM(stock) FROM product_sizes WHERE variant_id = $1), 0
		 ), updated_at = NOW() WHERE id = $1`, variantID)
	if err != nil {
		return fmt.Errorf("sync variant stock: %w", err)
	}
	return nil
}
