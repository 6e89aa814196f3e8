package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/holister/holister-api/internal/model"
	"github.com/holister/holister-api/internal/repository"
)

// fakeTx embeds the pgx.Tx interface and records commit/rollback. Only
// the methods the services call are overridden; anything else panics.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

// --- users ---

type mockUserRepo struct {
	users  map[uuid.UUID]*model.User
	tokens map[uuid.UUID]*model.PasswordResetToken
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:  make(map[uuid.UUID]*model.User),
		tokens: make(map[uuid.UUID]*model.PasswordResetToken),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	if u, ok := m.users[id]; ok {
		u.Password = passwordHash
	}
	return nil
}

func (m *mockUserRepo) CreateResetToken(_ context.Context, token *model.PasswordResetToken) error {
	token.ID = uuid.New()
	m.tokens[token.Token] = token
	return nil
}

func (m *mockUserRepo) GetResetToken(_ context.Context, token uuid.UUID) (*model.PasswordResetToken, error) {
	return m.tokens[token], nil
}

func (m *mockUserRepo) MarkResetTokenUsed(_ context.Context, id uuid.UUID) error {
	for _, t := range m.tokens {
		if t.ID == id {
			t.Used = true
		}
	}
	return nil
}

// --- products ---

type mockProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepo) Create(_ context.Context, product *model.Product) error {
	product.ID = uuid.New()
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	return m.products[id], nil
}

func (m *mockProductRepo) GetBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range m.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockProductRepo) List(_ context.Context, f repository.ProductFilter) ([]model.Product, int, error) {
	var out []model.Product
	for _, p := range m.products {
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockProductRepo) Update(_ context.Context, product *model.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) CreateVariant(_ context.Context, variant *model.ProductVariant) error {
	variant.ID = uuid.New()
	if p, ok := m.products[variant.ProductID]; ok {
		p.Variants = append(p.Variants, *variant)
	}
	return nil
}

func (m *mockProductRepo) DeleteVariant(_ context.Context, id uuid.UUID) error {
	for _, p := range m.products {
		for i, v := range p.Variants {
			if v.ID == id {
				p.Variants = append(p.Variants[:i], p.Variants[i+1:]...)
				return nil
			}
		}
	}
	return pgx.ErrNoRows
}

func (m *mockProductRepo) CreateSize(_ context.Context, size *model.ProductSize) error {
	size.ID = uuid.New()
	for _, p := range m.products {
		for i := range p.Variants {
			if p.Variants[i].ID == size.VariantID {
				p.Variants[i].Sizes = append(p.Variants[i].Sizes, *size)
				p.Variants[i].Stock += size.Stock
			}
		}
	}
	return nil
}

func (m *mockProductRepo) UpdateSizeStock(_ context.Context, id uuid.UUID, stock int) error {
	for _, p := range m.products {
		for i := range p.Variants {
			for j := range p.Variants[i].Sizes {
				if p.Variants[i].Sizes[j].ID == id {
					p.Variants[i].Sizes[j].Stock = stock
					return nil
				}
			}
		}
	}
	return pgx.ErrNoRows
}

func (m *mockProductRepo) DeleteSize(_ context.Context, id uuid.UUID) error {
	for _, p := range m.products {
		for i := range p.Variants {
			for j, sz := range p.Variants[i].Sizes {
				if sz.ID == id {
					p.Variants[i].Sizes = append(p.Variants[i].Sizes[:j], p.Variants[i].Sizes[j+1:]...)
					return nil
				}
			}
		}
	}
	return pgx.ErrNoRows
}

func (m *mockProductRepo) GetSize(_ context.Context, id uuid.UUID) (*model.ProductSize, error) {
	for _, p := range m.products {
		for i := range p.Variants {
			for j := range p.Variants[i].Sizes {
				if p.Variants[i].Sizes[j].ID == id {
					return &p.Variants[i].Sizes[j], nil
				}
			}
		}
	}
	return nil, nil
}

func (m *mockProductRepo) DecrementSizeStock(_ context.Context, _ pgx.Tx, sizeID uuid.UUID, quantity int) error {
	for _, p := range m.products {
		for i := range p.Variants {
			for j := range p.Variants[i].Sizes {
				sz := &p.Variants[i].Sizes[j]
				if sz.ID == sizeID {
					if sz.Stock < quantity {
						return repository.ErrInsufficientStock
					}
					sz.Stock -= quantity
					p.Variants[i].Stock -= quantity
					return nil
				}
			}
		}
	}
	return repository.ErrInsufficientStock
}

// --- carts ---

type mockCartRepo struct {
	carts map[uuid.UUID]*model.Cart
	items map[uuid.UUID]*model.CartItem
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{
		carts: make(map[uuid.UUID]*model.Cart),
		items: make(map[uuid.UUID]*model.CartItem),
	}
}

func (m *mockCartRepo) GetOrCreate(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	for _, c := range m.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	cart := &model.Cart{ID: uuid.New(), UserID: userID, DiscountAmount: decimal.Zero}
	m.carts[cart.ID] = cart
	return cart, nil
}

func (m *mockCartRepo) GetWithItems(_ context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart, ok := m.carts[cartID]
	if !ok {
		return nil, nil
	}
	cart.Items = nil
	for _, item := range m.items {
		if item.CartID == cartID {
			cart.Items = append(cart.Items, *item)
		}
	}
	return cart, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	for _, existing := range m.items {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID &&
			uuidPtrEqual(existing.VariantID, item.VariantID) && uuidPtrEqual(existing.SizeID, item.SizeID) {
			existing.Quantity += item.Quantity
			item.ID = existing.ID
			item.Quantity = existing.Quantity
			return nil
		}
	}
	item.ID = uuid.New()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockCartRepo) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	item, ok := m.items[itemID]
	if !ok {
		return pgx.ErrNoRows
	}
	item.Quantity = quantity
	return nil
}

func (m *mockCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	if _, ok := m.items[itemID]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.items, itemID)
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, cartID uuid.UUID) error {
	for id, item := range m.items {
		if item.CartID == cartID {
			delete(m.items, id)
		}
	}
	if cart, ok := m.carts[cartID]; ok {
		cart.CouponID = nil
		cart.DiscountAmount = decimal.Zero
	}
	return nil
}

func (m *mockCartRepo) ClearTx(ctx context.Context, _ pgx.Tx, cartID uuid.UUID) error {
	return m.Clear(ctx, cartID)
}

func (m *mockCartRepo) SetCoupon(_ context.Context, cartID uuid.UUID, couponID *uuid.UUID, discount decimal.Decimal) error {
	cart, ok := m.carts[cartID]
	if !ok {
		return pgx.ErrNoRows
	}
	cart.CouponID = couponID
	cart.DiscountAmount = discount
	return nil
}

// --- coupons ---

type mockCouponRepo struct {
	coupons map[uuid.UUID]*model.Coupon
	usage   []model.CouponUsageHistory

	// forceRedeemExhausted makes the next RedeemTx fail as if a
	// concurrent checkout took the last redemption.
	forceRedeemExhausted bool
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{coupons: make(map[uuid.UUID]*model.Coupon)}
}

func (m *mockCouponRepo) Create(_ context.Context, coupon *model.Coupon) error {
	coupon.ID = uuid.New()
	coupon.Code = strings.ToUpper(coupon.Code)
	m.coupons[coupon.ID] = coupon
	return nil
}

func (m *mockCouponRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Coupon, error) {
	return m.coupons[id], nil
}

func (m *mockCouponRepo) GetByCode(_ context.Context, code string) (*model.Coupon, error) {
	for _, c := range m.coupons {
		if c.Code == strings.ToUpper(code) {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCouponRepo) Update(_ context.Context, coupon *model.Coupon) error {
	m.coupons[coupon.ID] = coupon
	return nil
}

func (m *mockCouponRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.coupons[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.coupons, id)
	return nil
}

func (m *mockCouponRepo) List(_ context.Context, _ repository.CouponFilter) ([]model.Coupon, int, error) {
	var out []model.Coupon
	for _, c := range m.coupons {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockCouponRepo) CountUsageByUser(_ context.Context, couponID, userID uuid.UUID) (int, error) {
	count := 0
	for _, u := range m.usage {
		if u.CouponID == couponID && u.UsedBy == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockCouponRepo) CountUsageByUserTx(ctx context.Context, _ pgx.Tx, couponID, userID uuid.UUID) (int, error) {
	return m.CountUsageByUser(ctx, couponID, userID)
}

func (m *mockCouponRepo) RedeemTx(_ context.Context, _ pgx.Tx, couponID uuid.UUID) error {
	if m.forceRedeemExhausted {
		return repository.ErrCouponExhausted
	}
	c, ok := m.coupons[couponID]
	if !ok {
		return repository.ErrCouponExhausted
	}
	if c.TotalUsageLimit != nil && c.TimesUsed >= *c.TotalUsageLimit {
		return repository.ErrCouponExhausted
	}
	c.TimesUsed++
	return nil
}

func (m *mockCouponRepo) AddUsageTx(_ context.Context, _ pgx.Tx, usage *model.CouponUsageHistory) error {
	usage.ID = uuid.New()
	m.usage = append(m.usage, *usage)
	return nil
}

func (m *mockCouponRepo) UsageStats(_ context.Context, couponID uuid.UUID) (*model.CouponUsageStats, error) {
	stats := &model.CouponUsageStats{TotalDiscount: decimal.Zero}
	users := map[uuid.UUID]bool{}
	for _, u := range m.usage {
		if u.CouponID == couponID {
			stats.TotalUses++
			stats.TotalDiscount = stats.TotalDiscount.Add(u.DiscountAmount)
			users[u.UsedBy] = true
		}
	}
	stats.UniqueUsers = len(users)
	return stats, nil
}

// --- orders ---

type mockOrderRepo struct {
	orders    map[uuid.UUID]*model.Order
	addresses map[uuid.UUID]*model.ShippingAddress
	lastTx    *fakeTx
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders:    make(map[uuid.UUID]*model.Order),
		addresses: make(map[uuid.UUID]*model.ShippingAddress),
	}
}

func (m *mockOrderRepo) BeginTx(_ context.Context) (pgx.Tx, error) {
	m.lastTx = &fakeTx{}
	return m.lastTx, nil
}

func (m *mockOrderRepo) CreateTx(_ context.Context, _ pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) CreateItemsTx(_ context.Context, _ pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = uuid.New()
	}
	if order, ok := m.orders[items[0].OrderID]; ok {
		order.Items = append(order.Items, items...)
	}
	return nil
}

func (m *mockOrderRepo) AddStatusHistoryTx(_ context.Context, _ pgx.Tx, entry *model.OrderStatusHistory) error {
	entry.ID = uuid.New()
	if order, ok := m.orders[entry.OrderID]; ok {
		order.StatusHistory = append(order.StatusHistory, *entry)
	}
	return nil
}

func (m *mockOrderRepo) UpdateStatusTx(_ context.Context, _ pgx.Tx, orderID uuid.UUID, status model.OrderStatus) error {
	order, ok := m.orders[orderID]
	if !ok {
		return pgx.ErrNoRows
	}
	order.Status = status
	return nil
}

func (m *mockOrderRepo) CreateAddressTx(_ context.Context, _ pgx.Tx, addr *model.ShippingAddress) error {
	addr.ID = uuid.New()
	m.addresses[addr.ID] = addr
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return m.orders[id], nil
}

func (m *mockOrderRepo) List(_ context.Context, f repository.OrderFilter) ([]model.Order, int, error) {
	var out []model.Order
	for _, o := range m.orders {
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *mockOrderRepo) Recent(_ context.Context, limit int) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if len(out) == limit {
			break
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) Stats(_ context.Context) (*repository.OrderStats, error) {
	s := &repository.OrderStats{TotalRevenue: decimal.Zero, AverageOrderValue: decimal.Zero}
	for _, o := range m.orders {
		s.TotalOrders++
		switch o.Status {
		case model.OrderStatusPending:
			s.PendingOrders++
		case model.OrderStatusProcessing:
			s.ProcessingOrders++
		case model.OrderStatusDelivered, model.OrderStatusRefunded:
			s.CompletedOrders++
			s.TotalRevenue = s.TotalRevenue.Add(o.TotalAmount)
		case model.OrderStatusCancelled:
			s.CancelledOrders++
		}
	}
	return s, nil
}

func (m *mockOrderRepo) CustomerStats(_ context.Context, customerID uuid.UUID) (*repository.CustomerStats, error) {
	s := &repository.CustomerStats{TotalSpent: decimal.Zero}
	for _, o := range m.orders {
		if o.CustomerID != customerID {
			continue
		}
		s.TotalOrders++
		if o.Status == model.OrderStatusDelivered || o.Status == model.OrderStatusRefunded {
			s.CompletedOrders++
			s.TotalSpent = s.TotalSpent.Add(o.TotalAmount)
		}
	}
	return s, nil
}

func (m *mockOrderRepo) CreateAddress(_ context.Context, addr *model.ShippingAddress) error {
	addr.ID = uuid.New()
	m.addresses[addr.ID] = addr
	return nil
}

func (m *mockOrderRepo) GetAddress(_ context.Context, id uuid.UUID) (*model.ShippingAddress, error) {
	return m.addresses[id], nil
}

func (m *mockOrderRepo) ListAddresses(_ context.Context, userID uuid.UUID) ([]model.ShippingAddress, error) {
	var out []model.ShippingAddress
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateAddress(_ context.Context, addr *model.ShippingAddress) error {
	if _, ok := m.addresses[addr.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.addresses[addr.ID] = addr
	return nil
}

func (m *mockOrderRepo) DeleteAddress(_ context.Context, id uuid.UUID) error {
	if _, ok := m.addresses[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.addresses, id)
	return nil
}
