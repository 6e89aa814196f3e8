package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/model"
	"github.com/holister/holister-api/internal/repository"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
	ErrAddressNotFound   = errors.New("address not found")
)

// InvalidTransitionError reports a status change the lifecycle does not
// allow, naming both ends.
type InvalidTransitionError struct {
	From model.OrderStatus
	To   model.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

type OrderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// GetByID returns an order. Customers only see their own orders; admins
// see everything.
func (s *OrderService) GetByID(ctx context.Context, orderID, requesterID uuid.UUID, isAdmin bool) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !isAdmin && order.CustomerID != requesterID {
		return nil, ErrOrderAccessDenied
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) ListForCustomer(ctx context.Context, customerID uuid.UUID, req dto.ListOrdersRequest) (*dto.OrderListResponse, error) {
	return s.list(ctx, &customerID, req)
}

func (s *OrderService) ListAll(ctx context.Context, req dto.ListOrdersRequest) (*dto.OrderListResponse, error) {
	return s.list(ctx, nil, req)
}

func (s *OrderService) list(ctx context.Context, customerID *uuid.UUID, req dto.ListOrdersRequest) (*dto.OrderListResponse, error) {
	orders, total, err := s.orderRepo.List(ctx, repository.OrderFilter{
		CustomerID: customerID,
		Status:     req.Status,
		Search:     req.Search,
		Limit:      req.Limit,
		Offset:     (req.Page - 1) * req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	return &dto.OrderListResponse{Orders: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

// UpdateStatus moves an order through its lifecycle. The change and its
// history row are written in one transaction, with an auto-generated
// note recording both statuses plus any note the admin supplied.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, adminID uuid.UUID, req dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	prev := order.Status
	next := model.OrderStatus(req.Status)
	if !prev.CanTransitionTo(next) {
		return nil, &InvalidTransitionError{From: prev, To: next}
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.orderRepo.UpdateStatusTx(ctx, tx, orderID, next); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	notes := fmt.Sprintf("Status changed from %s to %s", prev, next)
	if req.Notes != "" {
		notes += ": " + req.Notes
	}
	history := &model.OrderStatusHistory{
		OrderID:   orderID,
		Status:    next,
		Notes:     notes,
		CreatedBy: &adminID,
	}
	if err := s.orderRepo.AddStatusHistoryTx(ctx, tx, history); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}

	updated, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}
	resp := toOrderResponse(updated)
	return &resp, nil
}

func (s *OrderService) Stats(ctx context.Context) (*dto.OrderStatsResponse, error) {
	stats, err := s.orderRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return &dto.OrderStatsResponse{
		TotalOrders:       stats.TotalOrders,
		PendingOrders:     stats.PendingOrders,
		ProcessingOrders:  stats.ProcessingOrders,
		CompletedOrders:   stats.CompletedOrders,
		CancelledOrders:   stats.CancelledOrders,
		TotalRevenue:      stats.TotalRevenue,
		AverageOrderValue: stats.AverageOrderValue,
	}, nil
}

func (s *OrderService) CustomerStats(ctx context.Context, customerID uuid.UUID) (*dto.CustomerOrderStatsResponse, error) {
	stats, err := s.orderRepo.CustomerStats(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("customer stats: %w", err)
	}
	return &dto.CustomerOrderStatsResponse{
		TotalOrders:     stats.TotalOrders,
		CompletedOrders: stats.CompletedOrders,
		TotalSpent:      stats.TotalSpent,
	}, nil
}

func (s *OrderService) Recent(ctx context.Context, limit int) ([]dto.OrderResponse, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	orders, err := s.orderRepo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	return items, nil
}

// CreateAddress saves a reusable shipping address for the customer.
func (s *OrderService) CreateAddress(ctx context.Context, userID uuid.UUID, req dto.AddressRequest) (*dto.AddressResponse, error) {
	addr := addressFromRequest(userID, req)
	if err := s.orderRepo.CreateAddress(ctx, addr); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	resp := toAddressResponse(addr)
	return &resp, nil
}

func (s *OrderService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]dto.AddressResponse, error) {
	addrs, err := s.orderRepo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	items := make([]dto.AddressResponse, 0, len(addrs))
	for i := range addrs {
		items = append(items, toAddressResponse(&addrs[i]))
	}
	return items, nil
}

func (s *OrderService) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, req dto.AddressRequest) (*dto.AddressResponse, error) {
	existing, err := s.orderRepo.GetAddress(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return nil, ErrAddressNotFound
	}

	addr := addressFromRequest(userID, req)
	addr.ID = addressID
	if err := s.orderRepo.UpdateAddress(ctx, addr); err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	resp := toAddressResponse(addr)
	return &resp, nil
}

func (s *OrderService) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	existing, err := s.orderRepo.GetAddress(ctx, addressID)
	if err != nil {
		return fmt.Errorf("get address: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return ErrAddressNotFound
	}
	if err := s.orderRepo.DeleteAddress(ctx, addressID); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return nil
}

func toAddressResponse(a *model.ShippingAddress) dto.AddressResponse {
	return dto.AddressResponse{
		ID:           a.ID,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
		IsDefault:    a.IsDefault,
	}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			SizeID:     item.SizeID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}

	resp := dto.OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		Email:         o.Email,
		PhoneNumber:   o.PhoneNumber,
		Notes:         o.Notes,
		Items:         items,
		ItemCount:     o.ItemCount(),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, h := range o.StatusHistory {
		resp.StatusHistory = append(resp.StatusHistory, dto.StatusHistoryResponse{
			Status:    h.Status,
			Notes:     h.Notes,
			CreatedBy: h.CreatedBy,
			CreatedAt: h.CreatedAt,
		})
	}
	return resp
}
