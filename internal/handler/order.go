package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/middleware"
	"github.com/holister/holister-api/internal/service"
)

type OrderHandler struct {
	checkoutService *service.CheckoutService
	orderService    *service.OrderService
}

func NewOrderHandler(checkoutService *service.CheckoutService, orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{checkoutService: checkoutService, orderService: orderService}
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := h.checkoutService.Checkout(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp, err := h.orderService.GetByID(c.Request.Context(), order.ID, order.CustomerID, false)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "order placed", resp)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.GetByID(c.Request.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *OrderHandler) List(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.orderService.ListForCustomer(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *OrderHandler) ListAll(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.orderService.ListAll(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.orderService.UpdateStatus(c.Request.Context(), id, middleware.GetUserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "order status updated", resp)
}

func (h *OrderHandler) Stats(c *gin.Context) {
	resp, err := h.orderService.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *OrderHandler) CustomerStats(c *gin.Context) {
	resp, err := h.orderService.CustomerStats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *OrderHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	resp, err := h.orderService.Recent(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *OrderHandler) CreateAddress(c *gin.Context) {
	var req dto.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.orderService.CreateAddress(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "address created", resp)
}

func (h *OrderHandler) ListAddresses(c *gin.Context) {
	resp, err := h.orderService.ListAddresses(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", resp)
}

func (h *OrderHandler) UpdateAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.orderService.UpdateAddress(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "address updated", resp)
}

func (h *OrderHandler) DeleteAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.DeleteAddress(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "address deleted", nil)
}
