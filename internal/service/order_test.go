package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/model"
)

func seedOrder(t *testing.T, repo *mockOrderRepo, customerID uuid.UUID, status model.OrderStatus, total string) *model.Order {
	t.Helper()
	order := &model.Order{
		OrderNumber: model.NewOrderNumber(),
		CustomerID:  customerID,
		Status:      status,
		TotalAmount: decimal.RequireFromString(total),
	}
	tx, err := repo.BeginTx(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.CreateTx(context.Background(), tx, order))
	require.NoError(t, tx.Commit(context.Background()))
	return repo.orders[order.ID]
}

func TestOrderService_GetByID_OwnOrder(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := NewOrderService(orderRepo)
	customerID := uuid.New()
	order := seedOrder(t, orderRepo, customerID, model.OrderStatusPending, "50.00")

	resp, err := svc.GetByID(context.Background(), order.ID, customerID, false)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, resp.OrderNumber)
}

func TestOrderService_GetByID_OtherCustomerDenied(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := NewOrderService(orderRepo)
	order := seedOrder(t, orderRepo, uuid.New(), model.OrderStatusPending, "50.00")

	_, err := svc.GetByID(context.Background(), order.ID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrOrderAccessDenied)

	// An admin sees any order.
	_, err = svc.GetByID(context.Background(), order.ID, uuid.New(), true)
	assert.NoError(t, err)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo())

	_, err := svc.GetByID(context.Background(), uuid.New(), uuid.New(), true)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := NewOrderService(orderRepo)
	adminID := uuid.New()
	order := seedOrder(t, orderRepo, uuid.New(), model.OrderStatusPending, "50.00")

	resp, err := svc.UpdateStatus(context.Background(), order.ID, adminID, dto.UpdateOrderStatusRequest{
		Status: "confirmed",
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, resp.Status)
	require.Len(t, resp.StatusHistory, 1)
	assert.Equal(t, "Status changed from pending to confirmed", resp.StatusHistory[0].Notes)
	require.NotNil(t, resp.StatusHistory[0].CreatedBy)
	assert.Equal(t, adminID, *resp.StatusHistory[0].CreatedBy)
}

func TestOrderService_UpdateStatus_AppendsAdminNote(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := NewOrderService(orderRepo)
	order := seedOrder(t, orderRepo, uuid.New(), model.OrderStatusShipped, "50.00")

	resp, err := svc.UpdateStatus(context.Background(), order.ID, uuid.New(), dto.UpdateOrderStatusRequest{
		Status: "delivered",
		Notes:  "left at the front desk",
	})
	require.NoError(t, err)
	assert.Equal(t, "Status changed from shipped to delivered: left at the front desk", resp.StatusHistory[0].Notes)
}

func TestOrderService_UpdateStatus_InvalidTransition(t *testing.T) {
	tests := []struct {
		from model.OrderStatus
		to   string
	}{
		{model.OrderStatusPending, "shipped"},
		{model.OrderStatusPending, "delivered"},
		{model.OrderStatusShipped, "cancelled"},
		{model.OrderStatusDelivered, "pending"},
		{model.OrderStatusCancelled, "confirmed"},
		{model.OrderStatusRefunded, "pending"},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+tt.to, func(t *testing.T) {
			orderRepo := newMockOrderRepo()
			svc := NewOrderService(orderRepo)
			order := seedOrder(t, orderRepo, uuid.New(), tt.from, "50.00")

			_, err := svc.UpdateStatus(context.Background(), order.ID, uuid.New(), dto.UpdateOrderStatusRequest{
				Status: tt.to,
			})
			var transErr *InvalidTransitionError
			require.ErrorAs(t, err, &transErr)
			assert.Equal(t, tt.from, transErr.From)
			assert.Equal(t, model.OrderStatus(tt.to), transErr.To)
			// No history row for a rejected change.
			assert.Empty(t, orderRepo.orders[order.ID].StatusHistory)
		})
	}
}

func TestOrderService_UpdateStatus_NotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), dto.UpdateOrderStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_ListForCustomer_ScopedToCustomer(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := NewOrderService(orderRepo)
	customerID := uuid.New()
	seedOrder(t, orderRepo, customerID, model.OrderStatusPending, "10.00")
	seedOrder(t, orderRepo, customerID, model.OrderStatusDelivered, "20.00")
	seedOrder(t, orderRepo, uuid.New(), model.OrderStatusPending, "30.00")

	resp, err := svc.ListForCustomer(context.Background(), customerID, dto.ListOrdersRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Orders, 2)

	all, err := svc.ListAll(context.Background(), dto.ListOrdersRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
}

func TestOrderService_Stats(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := NewOrderService(orderRepo)
	seedOrder(t, orderRepo, uuid.New(), model.OrderStatusPending, "10.00")
	seedOrder(t, orderRepo, uuid.New(), model.OrderStatusDelivered, "40.00")
	seedOrder(t, orderRepo, uuid.New(), model.OrderStatusRefunded, "60.00")
	seedOrder(t, orderRepo, uuid.New(), model.OrderStatusCancelled, "5.00")

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalOrders)
	assert.Equal(t, 1, stats.PendingOrders)
	assert.Equal(t, 2, stats.CompletedOrders)
	assert.Equal(t, 1, stats.CancelledOrders)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("100.00")))
}

func TestOrderService_CustomerStats(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := NewOrderService(orderRepo)
	customerID := uuid.New()
	seedOrder(t, orderRepo, customerID, model.OrderStatusPending, "10.00")
	seedOrder(t, orderRepo, customerID, model.OrderStatusDelivered, "40.00")
	seedOrder(t, orderRepo, uuid.New(), model.OrderStatusDelivered, "99.00")

	stats, err := svc.CustomerStats(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 1, stats.CompletedOrders)
	assert.True(t, stats.TotalSpent.Equal(decimal.RequireFromString("40.00")))
}

func TestOrderService_Recent_ClampsLimit(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := NewOrderService(orderRepo)
	for range [15]struct{}{} {
		seedOrder(t, orderRepo, uuid.New(), model.OrderStatusPending, "10.00")
	}

	recent, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, recent, 10)

	recent, err = svc.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, recent, 5)
}

func TestOrderService_AddressCRUD(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := NewOrderService(orderRepo)
	userID := uuid.New()

	created, err := svc.CreateAddress(context.Background(), userID, dto.AddressRequest{
		AddressLine1: "500 Pier Ave",
		City:         "Hermosa Beach",
		State:        "CA",
		PostalCode:   "90254",
		IsDefault:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "US", created.Country, "country defaults when omitted")

	addrs, err := svc.ListAddresses(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, addrs, 1)

	updated, err := svc.UpdateAddress(context.Background(), userID, created.ID, dto.AddressRequest{
		AddressLine1: "21 Main St",
		City:         "El Segundo",
		State:        "CA",
		PostalCode:   "90245",
		Country:      "US",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "El Segundo", updated.City)

	require.NoError(t, svc.DeleteAddress(context.Background(), userID, created.ID))
	addrs, err = svc.ListAddresses(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, addrs)
}

func TestOrderService_AddressOwnershipEnforced(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := NewOrderService(orderRepo)
	owner := uuid.New()

	created, err := svc.CreateAddress(context.Background(), owner, dto.AddressRequest{
		AddressLine1: "500 Pier Ave",
		City:         "Hermosa Beach",
		State:        "CA",
		PostalCode:   "90254",
	})
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = svc.UpdateAddress(context.Background(), stranger, created.ID, dto.AddressRequest{
		AddressLine1: "1 Hacker Way",
		City:         "Menlo Park",
		State:        "CA",
		PostalCode:   "94025",
	})
	assert.ErrorIs(t, err, ErrAddressNotFound)

	err = svc.DeleteAddress(context.Background(), stranger, created.ID)
	assert.ErrorIs(t, err, ErrAddressNotFound)

	// The owner's copy is untouched.
	addrs, err := svc.ListAddresses(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "500 Pier Ave", addrs[0].AddressLine1)
}
