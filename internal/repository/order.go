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

type OrderRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	CreateTx(ctx context.Context, tx pgx.Tx, order *model.Order) error
	CreateItemsTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error
	AddStatusHistoryTx(ctx context.Context, tx pgx.Tx, entry *model.OrderStatusHistory) error
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status model.OrderStatus) error
	CreateAddressTx(ctx context.Context, tx pgx.Tx, addr *model.ShippingAddress) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, f OrderFilter) ([]model.Order, int, error)
	Recent(ctx context.Context, limit int) ([]model.Order, error)
	Stats(ctx context.Context) (*OrderStats, error)
	CustomerStats(ctx context.Context, customerID uuid.UUID) (*CustomerStats, error)

	CreateAddress(ctx context.Context, addr *model.ShippingAddress) error
	GetAddress(ctx context.Context, id uuid.UUID) (*model.ShippingAddress, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.ShippingAddress, error)
	UpdateAddress(ctx context.Context, addr *model.ShippingAddress) error
	DeleteAddress(ctx context.Context, id uuid.UUID) error
}

// OrderFilter narrows List results. CustomerID nil means all customers
// (admin view).
type OrderFilter struct {
	CustomerID *uuid.UUID
	Status     string
	Search     string
	Limit      int
	Offset     int
}

type OrderStats struct {
	TotalOrders       int
	PendingOrders     int
	ProcessingOrders  int
	CompletedOrders   int
	CancelledOrders   int
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal
}

type CustomerStats struct {
	TotalOrders     int
	CompletedOrders int
	TotalSpent      decimal.Decimal
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *pgOrderRepo) CreateTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO orders (id, order_number, customer_id, status, payment_status, total_amount,
		                     email, phone_number, shipping_address_id, billing_address_id, notes,
		                     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.ID, order.OrderNumber, order.CustomerID, order.Status, order.PaymentStatus,
		order.TotalAmount, order.Email, order.PhoneNumber,
		order.ShippingAddressID, order.BillingAddressID, order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) CreateItemsTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range items {
		items[i].ID = uuid.New()
		batch.Queue(
			`INSERT INTO order_items (id, order_id, product_id, variant_id, size_id, quantity, unit_price, total_price)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			items[i].ID, items[i].OrderID, items[i].ProductID, items[i].VariantID, items[i].SizeID,
			items[i].Quantity, items[i].UnitPrice, items[i].TotalPrice,
		)
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *pgOrderRepo) AddStatusHistoryTx(ctx context.Context, tx pgx.Tx, entry *model.OrderStatusHistory) error {
	entry.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO order_status_history (id, order_id, status, notes, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		entry.ID, entry.OrderID, entry.Status, entry.Notes, entry.CreatedBy,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status model.OrderStatus) error {
	ct, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) CreateAddressTx(ctx context.Context, tx pgx.Tx, addr *model.ShippingAddress) error {
	addr.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO shipping_addresses (id, user_id, address_line_1, address_line_2, city, state, postal_code, country, is_default, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()) RETURNING created_at`,
		addr.ID, addr.UserID, addr.AddressLine1, addr.AddressLine2, addr.City, addr.State,
		addr.PostalCode, addr.Country, addr.IsDefault,
	).Scan(&addr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

const orderColumns = `id, order_number, customer_id, status, payment_status, total_amount, email, phone_number, shipping_address_id, billing_address_id, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.PaymentStatus, &o.TotalAmount,
		&o.Email, &o.PhoneNumber, &o.ShippingAddressID, &o.BillingAddressID, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil || order == nil {
		return order, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, variant_id, size_id, quantity, unit_price, total_price
		 FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID, &item.SizeID,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read order items: %w", err)
	}

	histRows, err := r.pool.Query(ctx,
		`SELECT id, order_id, status, notes, created_by, created_at
		 FROM order_status_history WHERE order_id = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("get status history: %w", err)
	}
	defer histRows.Close()
	for histRows.Next() {
		var h model.OrderStatusHistory
		if err := histRows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Notes, &h.CreatedBy, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		order.StatusHistory = append(order.StatusHistory, h)
	}
	if err := histRows.Err(); err != nil {
		return nil, fmt.Errorf("read status history: %w", err)
	}
	return order, nil
}

func (r *pgOrderRepo) List(ctx context.Context, f OrderFilter) ([]model.Order, int, error) {
	where := `($1::uuid IS NULL OR o.customer_id = $1)
		AND ($2 = '' OR o.status = $2)
		AND ($3 = '' OR o.order_number ILIKE '%' || $3 || '%'
			OR EXISTS (SELECT 1 FROM users u WHERE u.id = o.customer_id AND u.email ILIKE '%' || $3 || '%'))`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders o WHERE `+where,
		f.CustomerID, f.Status, f.Search,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+prefixColumns("o", orderColumns)+` FROM orders o WHERE `+where+
			` ORDER BY o.created_at DESC LIMIT $4 OFFSET $5`,
		f.CustomerID, f.Status, f.Search, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *pgOrderRepo) Recent(ctx context.Context, limit int) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *pgOrderRepo) Stats(ctx context.Context) (*OrderStats, error) {
	s := &OrderStats{TotalRevenue: decimal.Zero, AverageOrderValue: decimal.Zero}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'processing'),
		       COUNT(*) FILTER (WHERE status IN ('delivered', 'refunded')),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COALESCE(SUM(total_amount) FILTER (WHERE status IN ('delivered', 'refunded')), 0),
		       COALESCE(AVG(total_amount) FILTER (WHERE status IN ('delivered', 'refunded')), 0)
		FROM orders`).Scan(
		&s.TotalOrders, &s.PendingOrders, &s.ProcessingOrders, &s.CompletedOrders,
		&s.CancelledOrders, &s.TotalRevenue, &s.AverageOrderValue,
	)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return s, nil
}

func (r *pgOrderRepo) CustomerStats(ctx context.Context, customerID uuid.UUID) (*CustomerStats, error) {
	s := &CustomerStats{TotalSpent: decimal.Zero}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status IN ('delivered', 'refunded')),
		       COALESCE(SUM(total_amount) FILTER (WHERE status IN ('delivered', 'refunded')), 0)
		FROM orders WHERE customer_id = $1`, customerID).Scan(
		&s.TotalOrders, &s.CompletedOrders, &s.TotalSpent,
	)
	if err != nil {
		return nil, fmt.Errorf("customer order stats: %w", err)
	}
	return s, nil
}

func (r *pgOrderRepo) CreateAddress(ctx context.Context, addr *model.ShippingAddress) error {
	addr.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO shipping_addresses (id, user_id, address_line_1, address_line_2, city, state, postal_code, country, is_default, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()) RETURNING created_at`,
		addr.ID, addr.UserID, addr.AddressLine1, addr.AddressLine2, addr.City, addr.State,
		addr.PostalCode, addr.Country, addr.IsDefault,
	).Scan(&addr.CreatedAt)
	if err != nil {
		return fmt.Errorf("create address: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) GetAddress(ctx context.Context, id uuid.UUID) (*model.ShippingAddress, error) {
	a := &model.ShippingAddress{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, address_line_1, address_line_2, city, state, postal_code, country, is_default, created_at
		 FROM shipping_addresses WHERE id = $1`, id,
	).Scan(&a.ID, &a.UserID, &a.AddressLine1, &a.AddressLine2, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get address: %w", err)
	}
	return a, nil
}

func (r *pgOrderRepo) ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.ShippingAddress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, address_line_1, address_line_2, city, state, postal_code, country, is_default, created_at
		 FROM shipping_addresses WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addrs []model.ShippingAddress
	for rows.Next() {
		var a model.ShippingAddress
		if err := rows.Scan(&a.ID, &a.UserID, &a.AddressLine1, &a.AddressLine2, &a.City, &a.State,
			&a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addrs = append(addrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read addresses: %w", err)
	}
	return addrs, nil
}

func (r *pgOrderRepo) UpdateAddress(ctx context.Context, addr *model.ShippingAddress) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE shipping_addresses SET address_line_1=$2, address_line_2=$3, city=$4, state=$5,
		 postal_code=$6, country=$7, is_default=$8 WHERE id=$1`,
		addr.ID, addr.AddressLine1, addr.AddressLine2, addr.City, addr.State,
		addr.PostalCode, addr.Country, addr.IsDefault)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM shipping_addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.PaymentStatus,
			&o.TotalAmount, &o.Email, &o.PhoneNumber, &o.ShippingAddressID, &o.BillingAddressID,
			&o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func prefixColumns(alias, columns string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
