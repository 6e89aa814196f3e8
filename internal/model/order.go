package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// orderTransitions is the allowed successor set for each status.
// Cancellation is reachable up to shipping; refunds only after delivery.
// Cancelled and refunded are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

const PaymentStatusCompleted = "completed"

// Order is created once at checkout. Everything except Status is fixed at
// creation time; status changes go through the transition table and leave
// a history row behind.
type Order struct {
	ID                uuid.UUID
	OrderNumber       string
	CustomerID        uuid.UUID
	Status            OrderStatus
	PaymentStatus     string
	TotalAmount       decimal.Decimal
	Email             string
	PhoneNumber       string
	ShippingAddressID *uuid.UUID
	BillingAddressID  *uuid.UUID
	Notes             string
	Items             []OrderItem
	StatusHistory     []OrderStatusHistory
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (o *Order) ItemCount() int { return len(o.Items) }

// NewOrderNumber returns a globally unique order number of the form
// ORD-XXXXXXXX. Collisions are left to the database's unique index.
func NewOrderNumber() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("ORD-%s", strings.ToUpper(hex[:8]))
}

// OrderItem is an immutable line-item snapshot; prices are copied from the
// cart at checkout, not recomputed from the catalog.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	VariantID  *uuid.UUID
	SizeID     *uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// OrderStatusHistory is append-only; rows are never updated or deleted.
type OrderStatusHistory struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Status    OrderStatus
	Notes     string
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}

type ShippingAddress struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	IsDefault    bool
	CreatedAt    time.Time
}
